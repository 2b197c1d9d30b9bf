// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package fasta

import (
	"bytes"

	"github.com/grailbio/seqsplit/nucleotide"
	"github.com/pkg/errors"
)

// nextRecord returns the index of the first line-start separator in
// block[1:], or len(block) if there is none.
func nextRecord(block []byte) int {
	for i := 1; i < len(block); {
		j := bytes.IndexByte(block[i:], separator)
		if j < 0 {
			break
		}
		i += j
		if isLineEnd(block[i-1]) {
			return i
		}
		i++
	}
	return len(block)
}

// parseBlock appends the records in block to recs. block must be empty or
// start with a separator, and every line-start separator in it starts a new
// record. off is the stream offset of block[0], used in error messages.
func parseBlock(recs []Record, block []byte, table *nucleotide.Table, off int64) ([]Record, error) {
	for len(block) > 0 {
		end := nextRecord(block)
		rec, err := parseRecord(block[1:end], table)
		if err != nil {
			return recs, errors.Wrapf(err, "record at byte %d", off)
		}
		recs = append(recs, rec)
		block = block[end:]
		off += int64(end)
	}
	return recs, nil
}

// parseRecord parses the bytes of one record following its separator. The
// identifier runs up to the first space, tab or line end; the rest of the
// header line is discarded. The body lines are concatenated with line
// terminators removed and every byte translated through table.
func parseRecord(data []byte, table *nucleotide.Table) (Record, error) {
	headerEnd := bytes.IndexAny(data, "\r\n")
	if headerEnd < 0 {
		headerEnd = len(data)
	}
	header := data[:headerEnd]
	if i := bytes.IndexAny(header, " \t"); i >= 0 {
		header = header[:i]
	}
	if len(header) == 0 {
		return Record{}, ErrMalformed
	}
	body := data[headerEnd:]
	seq := make([]byte, 0, len(body))
	for _, c := range body {
		if !isLineEnd(c) {
			seq = append(seq, table[c])
		}
	}
	return Record{ID: string(header), Seq: string(seq)}, nil
}
