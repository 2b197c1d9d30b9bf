// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package nucleotide

// Table maps every byte value to its translation.
type Table [256]byte

var (
	// Identity maps every byte to itself.
	Identity Table
	// Lower maps 'A'-'Z' to 'a'-'z' and every other byte to itself.
	Lower Table
	// Upper maps 'a'-'z' to 'A'-'Z' and every other byte to itself.
	Upper Table
	// Complement maps each IUPAC nucleotide code to its complement, keeping
	// case: 'A'<->'T', 'C'<->'G', 'U'->'A', 'R'<->'Y', 'K'<->'M', 'B'<->'V',
	// 'D'<->'H'; 'S', 'W' and 'N' map to themselves.  Every other lower-case
	// letter maps to 'n', and every other byte to 'N'.
	Complement Table
)

var complementPairs = [...][2]byte{
	{'A', 'T'}, {'C', 'G'}, {'R', 'Y'}, {'K', 'M'}, {'B', 'V'}, {'D', 'H'},
	{'S', 'S'}, {'W', 'W'}, {'N', 'N'},
}

func init() {
	for i := range Identity {
		b := byte(i)
		Identity[i] = b
		Lower[i] = b
		Upper[i] = b
		Complement[i] = 'N'
		if b >= 'A' && b <= 'Z' {
			Lower[i] = b + ('a' - 'A')
		} else if b >= 'a' && b <= 'z' {
			Upper[i] = b - ('a' - 'A')
			Complement[i] = 'n'
		}
	}
	for _, p := range complementPairs {
		x, y := p[0], p[1]
		Complement[x], Complement[y] = y, x
		Complement[Lower[x]], Complement[Lower[y]] = Lower[y], Lower[x]
	}
	Complement['U'], Complement['u'] = 'A', 'a'
}

// Translate writes t[src[i]] to dst[i] for every i.
//
// It panics if len(dst) != len(src).
func (t *Table) Translate(dst, src []byte) {
	if len(dst) != len(src) {
		panic("Translate requires len(dst) == len(src).")
	}
	for i, b := range src {
		dst[i] = t[b]
	}
}

// TranslateInplace replaces every byte b of seq with t[b].
func (t *Table) TranslateInplace(seq []byte) {
	for i, b := range seq {
		seq[i] = t[b]
	}
}
