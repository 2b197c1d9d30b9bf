// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package split

import (
	"context"
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/seqsplit/encoding/fastq"
	"v.io/x/lib/vlog"
)

// FastqReader reads the FASTQ reads a split owns.
type FastqReader struct {
	split  Split
	in     *Input
	sc     *fastq.Scanner
	synced bool
	nReads int
	err    error
}

// NewFastqReader opens the file of s at s.Start. Fields selects the read
// fields to fill, as in fastq.NewScanner.
func NewFastqReader(ctx context.Context, s Split, fields fastq.Field) (*FastqReader, error) {
	in, err := Open(ctx, s.Path, s.Start)
	if err != nil {
		return nil, err
	}
	opts := []fastq.Opt{fastq.OptLimit(s.Length)}
	if !in.LineStart {
		opts = append(opts, fastq.OptMidLine())
	}
	return &FastqReader{
		split: s,
		in:    in,
		sc:    fastq.NewScanner(in, fields, opts...),
		// Offset 0 starts a record; junk there is reported by Scan.
		synced: s.Start == 0,
	}, nil
}

// Next reads the next read into read. It returns false once the split is
// exhausted or an error occurs; Err tells the two apart.
func (r *FastqReader) Next(read *fastq.Read) bool {
	if r.err != nil {
		return false
	}
	if !r.synced {
		r.synced = true
		n, err := r.sc.Sync()
		if err != nil {
			r.err = errors.E(err, r.split.String())
			return false
		}
		vlog.VI(1).Infof("%v: skipped %d bytes to the first read", r.split, n)
	}
	if r.sc.Scan(read) {
		r.nReads++
		return true
	}
	if err := r.sc.Err(); err != nil {
		r.err = errors.E(err, fmt.Sprintf("%v: after %d bytes", r.split, r.sc.Consumed()))
		return false
	}
	vlog.VI(1).Infof("%v: %d reads in %d bytes", r.split, r.nReads, r.sc.Consumed())
	return false
}

// Consumed returns the number of bytes consumed from the split start.
func (r *FastqReader) Consumed() int64 { return r.sc.Consumed() }

// Err returns the error that stopped Next, if any.
func (r *FastqReader) Err() error { return r.err }

// Close closes the underlying file. It returns Err() if non-nil.
func (r *FastqReader) Close(ctx context.Context) error {
	err := r.err
	if e := r.in.Close(ctx); e != nil && err == nil {
		err = e
	}
	return err
}
