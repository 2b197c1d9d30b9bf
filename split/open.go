// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package split

import (
	"context"
	"fmt"
	"io"
	"io/ioutil"
	"strings"

	"github.com/golang/snappy"
	"github.com/google/brotli/go/cbrotli"
	"github.com/grailbio/base/compress"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Input is a file opened at a byte offset. Reads return uncompressed data.
type Input struct {
	// LineStart is true if the first byte of the stream begins a line.
	LineStart bool

	path string
	f    file.File
	r    io.Reader
	dec  io.ReadCloser
}

// Open opens path for reading at byte offset start. For start > 0 it reads the
// byte in front of start to learn whether start begins a line. Compressed
// files can only be opened at offset 0.
func Open(ctx context.Context, path string, start int64) (in *Input, err error) {
	if start < 0 {
		return nil, errors.E(errors.Invalid, path, fmt.Sprintf("negative offset %d", start))
	}
	if start > 0 && Compressed(path) {
		return nil, errors.E(errors.NotSupported, path, fmt.Sprintf("compressed input cannot be opened at offset %d", start))
	}
	f, err := file.Open(ctx, path)
	if err != nil {
		return nil, errors.E(err, path)
	}
	defer func() {
		if err != nil {
			f.Close(ctx) // nolint: errcheck
		}
	}()
	in = &Input{LineStart: true, path: path, f: f}
	rs := f.Reader(ctx)
	if start > 0 {
		if _, err = rs.Seek(start-1, io.SeekStart); err != nil {
			return nil, errors.E(err, path, fmt.Sprintf("seek to %d", start-1))
		}
		var prev [1]byte
		if _, err = io.ReadFull(rs, prev[:]); err != nil {
			return nil, errors.E(err, path, fmt.Sprintf("read byte %d", start-1))
		}
		in.LineStart = prev[0] == '\n' || prev[0] == '\r'
	}
	in.r = rs
	if in.dec, err = decompress(rs, path); err != nil {
		return nil, errors.E(err, path)
	}
	if in.dec != nil {
		in.r = in.dec
	}
	return in, nil
}

// decompress returns an uncompressing reader chosen by the suffix of path,
// or nil if path is not compressed.
func decompress(r io.Reader, path string) (io.ReadCloser, error) {
	switch {
	case strings.HasSuffix(path, ".gz"):
		return gzip.NewReader(r)
	case strings.HasSuffix(path, ".zst"):
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, err
		}
		return dec.IOReadCloser(), nil
	case strings.HasSuffix(path, ".br"):
		return cbrotli.NewReader(r), nil
	case strings.HasSuffix(path, ".sz"):
		return ioutil.NopCloser(snappy.NewReader(r)), nil
	}
	return compress.NewReaderPath(r, path), nil
}

// Read implements io.Reader.
func (in *Input) Read(p []byte) (int, error) {
	return in.r.Read(p)
}

// Close releases the decompressor, if any, and closes the file.
func (in *Input) Close(ctx context.Context) (err error) {
	if in.dec != nil {
		err = in.dec.Close()
		in.dec = nil
	}
	if e := in.f.Close(ctx); e != nil && err == nil {
		err = errors.E(e, in.path)
	}
	return
}
