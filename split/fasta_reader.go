// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package split

import (
	"context"
	"io"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/seqsplit/encoding/fasta"
	"github.com/grailbio/seqsplit/nucleotide"
	"v.io/x/lib/vlog"
)

// FastaOpts configures a FastaReader.
type FastaOpts struct {
	// BlockBudget is the number of bytes one block may consume before the
	// reader stops at the next record boundary. Values <= 0 mean the whole
	// split is read as one block.
	BlockBudget int64
	// MaxRecordLength bounds the raw size of one record, header included.
	// Values <= 0 mean unbounded.
	MaxRecordLength int64
	// BufferSize is the read buffer size. Zero means fasta.DefaultBufferSize.
	BufferSize int
	// Table translates sequence bytes. Nil means nucleotide.Lower.
	Table *nucleotide.Table
}

// DefaultFastaOpts is the default FastaOpts value.
var DefaultFastaOpts = FastaOpts{
	BlockBudget: 4 << 20,
}

// FastaReader reads the FASTA records a split owns, one block at a time.
//
//	r, err := split.NewFastaReader(ctx, s, split.DefaultFastaOpts)
//	for r.Next() {
//		recs := r.Records()
//		...
//	}
//	err = r.Close(ctx)
type FastaReader struct {
	split    Split
	opts     FastaOpts
	in       *Input
	r        *fasta.BlockReader
	blk      fasta.Block
	consumed int64
	nRecs    int
	done     bool
	err      error
}

// NewFastaReader opens the file of s at s.Start.
func NewFastaReader(ctx context.Context, s Split, opts FastaOpts) (*FastaReader, error) {
	in, err := Open(ctx, s.Path, s.Start)
	if err != nil {
		return nil, err
	}
	var fopts []fasta.Opt
	if !in.LineStart {
		fopts = append(fopts, fasta.OptMidLine())
	}
	if opts.BufferSize > 0 {
		fopts = append(fopts, fasta.OptBufferSize(opts.BufferSize))
	}
	if opts.Table != nil {
		fopts = append(fopts, fasta.OptTable(opts.Table))
	}
	return &FastaReader{
		split: s,
		opts:  opts,
		in:    in,
		r:     fasta.NewBlockReader(in, fopts...),
	}, nil
}

// Next reads the next block. It returns false once the split is exhausted or
// an error occurs; Err tells the two apart. A block may hold no records when
// only bytes in front of the first record were skipped.
func (r *FastaReader) Next() bool {
	if r.done || r.err != nil {
		return false
	}
	remaining := r.split.Length - r.consumed
	if remaining <= 0 {
		r.finish()
		return false
	}
	budget := r.opts.BlockBudget
	if budget <= 0 || budget > remaining {
		budget = remaining
	}
	blk, err := r.r.ReadBlock(r.opts.MaxRecordLength, budget)
	if err == io.EOF {
		r.finish()
		return false
	}
	if err != nil {
		r.err = errors.E(err, r.split.String())
		return false
	}
	r.blk = blk
	r.consumed += blk.Consumed
	r.nRecs += len(blk.Records)
	return true
}

func (r *FastaReader) finish() {
	r.done = true
	r.blk = fasta.Block{}
	vlog.VI(1).Infof("%v: %d records in %d bytes", r.split, r.nRecs, r.consumed)
}

// Records returns the records of the block read by the last Next call. The
// slice is owned by the caller.
func (r *FastaReader) Records() []fasta.Record { return r.blk.Records }

// Consumed returns the number of bytes consumed from the split start.
func (r *FastaReader) Consumed() int64 { return r.consumed }

// Err returns the error that stopped Next, if any.
func (r *FastaReader) Err() error { return r.err }

// Close closes the underlying file. It returns Err() if non-nil.
func (r *FastaReader) Close(ctx context.Context) error {
	err := r.err
	if e := r.r.Close(); e != nil && err == nil {
		err = e
	}
	if e := r.in.Close(ctx); e != nil && err == nil {
		err = e
	}
	return err
}
