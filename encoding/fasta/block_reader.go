// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fasta

import (
	"io"

	"github.com/grailbio/seqsplit/nucleotide"
	"github.com/pkg/errors"
)

// DefaultBufferSize is the default capacity of the BlockReader read buffer.
const DefaultBufferSize = 1 << 20

var (
	// ErrMalformed is returned when a record has an empty identifier, e.g.
	// ">\nACGT" or "> description".
	ErrMalformed = errors.New("malformed FASTA record")
	// ErrRecordTooLong is returned when the raw byte span of a single record
	// exceeds the maxRecordLength passed to ReadBlock.
	ErrRecordTooLong = errors.New("FASTA record too long")
)

// Record is one FASTA entry.
type Record struct {
	// ID is the token after '>' up to the first space, tab or line end.
	ID string
	// Seq is the concatenation of the body lines, without line terminators,
	// translated through the reader's table.
	Seq string
}

// Block is the result of one BlockReader.ReadBlock call.
type Block struct {
	// Records holds the complete records of the block, in file order.
	Records []Record
	// Consumed is the number of stream bytes consumed by the call, including
	// bytes skipped in front of the first record.
	Consumed int64
}

// Into inserts every record of b into m, keyed by ID. A later record
// overwrites an earlier one with the same ID.
func (b Block) Into(m map[string]string) {
	for _, r := range b.Records {
		m[r.ID] = r.Seq
	}
}

// Opt is an option to NewBlockReader.
type Opt func(o *opts)

type opts struct {
	bufferSize int
	table      *nucleotide.Table
	midLine    bool
}

// OptBufferSize sets the capacity of the read buffer. The default is
// DefaultBufferSize. The buffer size does not affect the result of ReadBlock,
// only how the stream is read.
func OptBufferSize(n int) Opt {
	return func(o *opts) { o.bufferSize = n }
}

// OptTable sets the table that every sequence byte is translated through. The
// default is &nucleotide.Lower. The table must not be modified while the
// reader is in use.
func OptTable(t *nucleotide.Table) Opt {
	return func(o *opts) { o.table = t }
}

// OptMidLine tells the reader that the first byte of the stream does not start
// a line, so a leading '>' is not a separator. Use it when the stream starts
// at an arbitrary offset of a file and the preceding byte is not '\n' or '\r'.
func OptMidLine() Opt {
	return func(o *opts) { o.midLine = true }
}

// BlockReader reads FASTA records from a stream in blocks, keeping exact count
// of the bytes it consumes. It is designed for reading a byte range ("split")
// of a large file: the caller positions the stream at the start of the range
// and calls ReadBlock with the bytes remaining in the range as the budget,
// until the range is exhausted:
//
//	remaining := length
//	for remaining > 0 {
//	  blk, err := r.ReadBlock(0, min(remaining, budget))
//	  if err == io.EOF {
//	    break
//	  }
//	  ...
//	  remaining -= blk.Consumed
//	}
//
// A range owns exactly the records whose '>' lies inside it, so readers over
// adjacent ranges produce every record of the file exactly once.
//
// A '>' is recognized as a record separator only at the start of a line.
//
// BlockReader is not thread-safe.
type BlockReader struct {
	in      io.Reader
	opts    opts
	sc      blockScanner
	offset  int64
	closed  bool
	lastErr error
}

// NewBlockReader creates a reader for FASTA data in r. No data is read until
// the first ReadBlock call.
func NewBlockReader(r io.Reader, optList ...Opt) *BlockReader {
	o := opts{bufferSize: DefaultBufferSize, table: &nucleotide.Lower}
	for _, opt := range optList {
		opt(&o)
	}
	if o.table == nil {
		o.table = &nucleotide.Lower
	}
	return &BlockReader{
		in:   r,
		opts: o,
		sc: blockScanner{
			buf:       newBuffer(r, o.bufferSize),
			lineStart: !o.midLine,
		},
	}
}

// ReadBlock reads the next block of complete records.
//
// It first skips bytes up to the next '>' at a line start. If that '>' lies at
// or past maxBytesToConsume bytes from the current position, ReadBlock stops
// there and returns no records; the record belongs to whoever owns those
// bytes. Otherwise it reads records until it reaches a '>' at a line start
// that lies at or past maxBytesToConsume, or the end of the stream. That '>' is
// not consumed. maxBytesToConsume is thus a soft limit: ReadBlock overshoots it
// by at most the length of one record, and always returns at least one record
// if one starts within the limit. Values below 1 are treated as 1.
//
// If maxRecordLength > 0, a record whose raw byte span exceeds it fails the
// call with ErrRecordTooLong. The span counts the '>', the header metadata and
// the line terminators, so the limit is stricter than a bound on the length
// of the identifier plus the sequence.
//
// At end of stream, ReadBlock returns io.EOF with an empty block. A record
// with an empty identifier fails the call with ErrMalformed; its bytes are
// still consumed and counted in Block.Consumed. Read errors of the underlying
// stream are returned as is, wrapped. Any error other than io.EOF leaves the
// reader in an unspecified position and should be treated as fatal.
//
// The returned records are owned by the caller.
func (r *BlockReader) ReadBlock(maxRecordLength, maxBytesToConsume int64) (Block, error) {
	if r.closed {
		return Block{}, errors.New("fasta: ReadBlock called after Close")
	}
	start := r.offset
	err := r.sc.scan(maxBytesToConsume, maxRecordLength)
	blk := Block{Consumed: r.sc.consumed}
	r.offset += r.sc.consumed
	if err != nil {
		if err == ErrRecordTooLong {
			return blk, errors.Wrapf(err, "record at byte %d exceeds %d bytes",
				start+r.sc.recordStart, maxRecordLength)
		}
		return blk, errors.Wrapf(err, "fasta: read at byte %d", r.offset)
	}
	if blk.Consumed == 0 {
		return blk, io.EOF
	}
	blockOff := r.offset - int64(len(r.sc.block))
	blk.Records, err = parseBlock(nil, r.sc.block, r.opts.table, blockOff)
	return blk, err
}

// Consumed returns the total number of bytes consumed from the stream since
// the reader was created.
func (r *BlockReader) Consumed() int64 { return r.offset }

// Close closes the underlying stream if it implements io.Closer. Calls after
// the first one are no-ops.
func (r *BlockReader) Close() error {
	if r.closed {
		return r.lastErr
	}
	r.closed = true
	if c, ok := r.in.(io.Closer); ok {
		r.lastErr = c.Close()
	}
	r.sc.block = nil
	return r.lastErr
}
