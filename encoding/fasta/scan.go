// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fasta

import (
	"io"
)

const (
	// separator starts a record when it is the first byte of a line.
	separator = '>'

	// maxEmptyReads bounds the number of consecutive (0, nil) reads tolerated
	// from the underlying reader, matching bufio.
	maxEmptyReads = 100
)

func isLineEnd(c byte) bool { return c == '\n' || c == '\r' }

// buffer is a fixed-capacity window onto an io.Reader. buf[pos:n] holds the
// bytes that have been read from the stream but not yet consumed.
type buffer struct {
	r   io.Reader
	buf []byte
	pos int
	n   int
	eof bool
	err error
}

func newBuffer(r io.Reader, size int) buffer {
	if size <= 0 {
		size = DefaultBufferSize
	}
	return buffer{r: r, buf: make([]byte, size)}
}

// fill makes sure at least one unconsumed byte is available, reading from the
// stream if the window is exhausted. It returns false at end of stream or on a
// read error; the two are told apart by b.err.
func (b *buffer) fill() bool {
	for empty := 0; b.pos >= b.n; empty++ {
		if b.eof || b.err != nil {
			return false
		}
		if empty >= maxEmptyReads {
			b.err = io.ErrNoProgress
			return false
		}
		n, err := b.r.Read(b.buf)
		b.pos, b.n = 0, n
		if err == io.EOF {
			b.eof = true
		} else if err != nil {
			b.err = err
		}
	}
	return true
}

// unread returns the bytes available without another read.
func (b *buffer) unread() []byte { return b.buf[b.pos:b.n] }

// advance marks the next n bytes as consumed.
func (b *buffer) advance(n int) { b.pos += n }

// scanState is the state of blockScanner within one scan call.
type scanState int

const (
	// stateSeeking skips bytes until a separator at a line start.
	stateSeeking scanState = iota
	// stateAccumulating copies bytes into the block until the next
	// separator past the budget, or EOF.
	stateAccumulating
	// stateDone ends the scan call.
	stateDone
)

// blockScanner finds block boundaries in the stream and copies raw block
// bytes out of the buffer. It knows nothing about record contents beyond the
// separator. Each scan call starts in stateSeeking; the only state carried
// across calls is the buffer and whether the next byte starts a line.
type blockScanner struct {
	buf       buffer
	state     scanState
	lineStart bool

	// block holds the raw bytes accumulated by the current call. It always
	// starts with a separator, or is empty.
	block []byte
	// consumed is the number of bytes consumed by the current call.
	consumed int64
	// recordStart is the value of consumed at the separator of the record
	// being accumulated.
	recordStart int64
}

// scan consumes the next block. On return, s.block holds the block and
// s.consumed the number of bytes consumed, including skipped bytes in front of
// the first separator. It stops in front of the first line-start separator
// found at a consumed count >= budget, so the next call starts exactly there.
//
// A record whose raw span exceeds maxRecordLength (when positive) causes
// ErrRecordTooLong; bytes scanned up to that point remain counted in
// s.consumed.
func (s *blockScanner) scan(budget, maxRecordLength int64) error {
	if budget < 1 {
		budget = 1
	}
	s.block = s.block[:0]
	s.consumed = 0
	s.recordStart = 0
	s.state = stateSeeking
	for s.state != stateDone {
		if !s.buf.fill() {
			if s.buf.err != nil {
				return s.buf.err
			}
			s.state = stateDone
			break
		}
		switch s.state {
		case stateSeeking:
			s.seek(budget)
		case stateAccumulating:
			if err := s.accumulate(budget, maxRecordLength); err != nil {
				return err
			}
		}
	}
	return nil
}

// seek consumes buffered bytes up to the next line-start separator. The
// separator itself is left unconsumed.
func (s *blockScanner) seek(budget int64) {
	data := s.buf.unread()
	for i, c := range data {
		if s.lineStart && c == separator {
			s.consumed += int64(i)
			s.buf.advance(i)
			if s.consumed >= budget {
				// The record starts past the budget; it belongs to the next call
				// (or to the next split).
				s.state = stateDone
			} else {
				s.state = stateAccumulating
				s.recordStart = s.consumed
			}
			return
		}
		s.lineStart = isLineEnd(c)
	}
	s.consumed += int64(len(data))
	s.buf.advance(len(data))
}

// accumulate copies buffered bytes into the block, stopping in front of a
// line-start separator once the budget is met.
func (s *blockScanner) accumulate(budget, maxRecordLength int64) error {
	data := s.buf.unread()
	var (
		i   int
		err error
	)
	for ; i < len(data); i++ {
		c := data[i]
		off := s.consumed + int64(i)
		if s.lineStart && c == separator {
			if off >= budget {
				s.state = stateDone
				break
			}
			s.recordStart = off
		}
		if maxRecordLength > 0 && off-s.recordStart >= maxRecordLength {
			err = ErrRecordTooLong
			break
		}
		s.lineStart = isLineEnd(c)
	}
	s.block = append(s.block, data[:i]...)
	s.consumed += int64(i)
	s.buf.advance(i)
	return err
}
