// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package nucleotide

// ReverseComplementInplace reverse-complements seq using the complement table
// t, which is normally &Complement.
func ReverseComplementInplace(seq []byte, t *Table) {
	nByte := len(seq)
	nByteDiv2 := nByte >> 1
	for idx, invIdx := 0, nByte-1; idx != nByteDiv2; idx, invIdx = idx+1, invIdx-1 {
		seq[idx], seq[invIdx] = t[seq[invIdx]], t[seq[idx]]
	}
	if nByte&1 == 1 {
		seq[nByteDiv2] = t[seq[nByteDiv2]]
	}
}

// ReverseComplement writes the reverse-complement of src[] to dst[].
//
// It panics if len(dst) != len(src).
func ReverseComplement(dst, src []byte, t *Table) {
	nByte := len(src)
	if len(dst) != nByte {
		panic("ReverseComplement requires len(dst) == len(src).")
	}
	for i, invIdx := 0, nByte-1; i != nByte; i, invIdx = i+1, invIdx-1 {
		dst[i] = t[src[invIdx]]
	}
}

// ReverseComplementString returns the reverse-complement of seq.
func ReverseComplementString(seq string, t *Table) string {
	b := []byte(seq)
	ReverseComplementInplace(b, t)
	return string(b)
}

// Reverse reverses b in place.  It is used on quality strings, which are
// reversed but not complemented alongside their sequence.
func Reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}
