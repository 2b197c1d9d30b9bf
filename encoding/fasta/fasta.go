// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package fasta contains code for parsing FASTA files, either whole or one
// byte range ("split") at a time.  FASTA files consist of a number of named
// sequences that may be interrupted by newlines.  For example:
//
// >chr7
// ACGTAC
// GAGGAC
// GCG
// >chr8
// ACGT
//
// Note: Sequence names are defined to be the stretch of characters excluding
// spaces and tabs immediately after '>'.  Any text after a space is ignored.
// For example, '>chr1 A viral sequence' becomes 'chr1'.
//
// BlockReader is the streaming reader; New loads a whole file into memory for
// random access.
package fasta

import (
	"fmt"
	"io"
	"math"

	"github.com/grailbio/seqsplit/nucleotide"
	"github.com/pkg/errors"
)

// Fasta represents FASTA-formatted data, consisting of a set of named
// sequences.
type Fasta interface {
	// Get returns a substring of the given sequence name at the given
	// coordinates, which are treated as a 0-based half-open interval
	// [start, end). Get is thread-safe.
	Get(seqName string, start, end uint64) (string, error)

	// Len returns the length of the given sequence.
	Len(seqName string) (uint64, error)

	// SeqNames returns the names of all sequences, in the order of appearance in
	// the FASTA file.
	SeqNames() []string
}

type fasta struct {
	seqs     map[string]string
	seqNames []string
}

// New creates a new Fasta that holds all the FASTA data from the given reader
// in memory.  Sequence case is preserved unless an OptTable option says
// otherwise.  Duplicate sequence names are an error.
func New(r io.Reader, opts ...Opt) (Fasta, error) {
	f := &fasta{seqs: make(map[string]string)}
	br := NewBlockReader(r, append([]Opt{OptTable(&nucleotide.Identity)}, opts...)...)
	for {
		blk, err := br.ReadBlock(0, math.MaxInt64)
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, "couldn't read FASTA data")
		}
		for _, rec := range blk.Records {
			if _, ok := f.seqs[rec.ID]; ok {
				return nil, errors.Errorf("duplicate sequence name: %s", rec.ID)
			}
			f.seqs[rec.ID] = rec.Seq
			f.seqNames = append(f.seqNames, rec.ID)
		}
	}
	return f, nil
}

// Get implements Fasta.Get().
func (f *fasta) Get(seqName string, start, end uint64) (string, error) {
	s, ok := f.seqs[seqName]
	if !ok {
		return "", errors.Errorf("sequence not found: %s", seqName)
	}
	if end <= start {
		return "", fmt.Errorf("start must be less than end")
	}
	if end > uint64(len(s)) {
		return "", errors.Errorf("invalid query range %d - %d for sequence %s with length %d",
			start, end, seqName, len(s))
	}
	return s[start:end], nil
}

// Len implements Fasta.Len().
func (f *fasta) Len(seq string) (uint64, error) {
	s, ok := f.seqs[seq]
	if !ok {
		return 0, errors.Errorf("sequence not found: %s", seq)
	}
	return uint64(len(s)), nil
}

// SeqNames implements Fasta.SeqNames().
func (f *fasta) SeqNames() []string {
	return f.seqNames
}
