// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package split

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"v.io/x/lib/vlog"
)

// Split is the byte range [Start, Start+Length) of the file at Path. Index is
// the position of the split in the list returned by Plan.
type Split struct {
	Path   string
	Index  int
	Start  int64
	Length int64
}

// End returns the end of the byte range, saturated at math.MaxInt64.
func (s Split) End() int64 {
	if s.Length > math.MaxInt64-s.Start {
		return math.MaxInt64
	}
	return s.Start + s.Length
}

func (s Split) String() string {
	if s.Length == math.MaxInt64 {
		return fmt.Sprintf("%s#%d[%d,EOF)", s.Path, s.Index, s.Start)
	}
	return fmt.Sprintf("%s#%d[%d,%d)", s.Path, s.Index, s.Start, s.End())
}

// compressedSuffixes lists the file name suffixes of the compressed formats
// Open understands.
var compressedSuffixes = []string{".gz", ".zst", ".br", ".sz", ".bz2"}

// Compressed reports whether path names a compressed file. Compressed files
// cannot be read from an arbitrary offset, so Plan never splits them.
func Compressed(path string) bool {
	for _, suffix := range compressedSuffixes {
		if strings.HasSuffix(path, suffix) {
			return true
		}
	}
	return false
}

// Plan cuts the file at path into contiguous splits of splitSize bytes; the
// last split may be shorter. An empty file yields no splits. A compressed file
// yields one split that reads to the end of the stream.
func Plan(ctx context.Context, path string, splitSize int64) ([]Split, error) {
	if splitSize <= 0 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("split size must be positive, got %d", splitSize))
	}
	if Compressed(path) {
		vlog.VI(1).Infof("%s: compressed input, reading as one split", path)
		return []Split{{Path: path, Length: math.MaxInt64}}, nil
	}
	info, err := file.Stat(ctx, path)
	if err != nil {
		return nil, errors.E(err, path)
	}
	size := info.Size()
	splits := make([]Split, 0, (size+splitSize-1)/splitSize)
	for start := int64(0); start < size; start += splitSize {
		length := splitSize
		if size-start < length {
			length = size - start
		}
		splits = append(splits, Split{Path: path, Index: len(splits), Start: start, Length: length})
	}
	vlog.VI(1).Infof("%s: %d bytes, %d splits of %d bytes", path, size, len(splits), splitSize)
	return splits, nil
}
