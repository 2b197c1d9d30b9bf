// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package split cuts sequence files into byte ranges ("splits") and reads the
// records each range owns. A split [Start, Start+Length) owns exactly the
// records whose first byte (the '>' of a FASTA header or the '@' of a FASTQ ID
// line) lies inside it, so the union of the records of all splits of a file
// equals the records of the whole file, each one read exactly once.
//
// Typical use:
//
//	splits, err := split.Plan(ctx, path, 64<<20)
//	...
//	err = split.Each(splits, 0, func(s split.Split) error {
//		r, err := split.NewFastaReader(ctx, s, split.DefaultFastaOpts)
//		if err != nil {
//			return err
//		}
//		for r.Next() {
//			for _, rec := range r.Records() {
//				...
//			}
//		}
//		return r.Close(ctx)
//	})
package split
