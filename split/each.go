// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package split

import (
	"runtime"

	"github.com/grailbio/base/traverse"
)

// Each calls fn on every split, with at most parallelism calls running at
// once. Job i handles a contiguous run of splits in order. Parallelism <= 0
// means runtime.NumCPU(). Each returns the first error reported by fn.
func Each(splits []Split, parallelism int, fn func(Split) error) error {
	if len(splits) == 0 {
		return nil
	}
	if parallelism <= 0 {
		parallelism = runtime.NumCPU()
	}
	if parallelism > len(splits) {
		parallelism = len(splits)
	}
	nSplit := len(splits)
	return traverse.Each(parallelism, func(jobIdx int) error {
		startIdx := (jobIdx * nSplit) / parallelism
		endIdx := ((jobIdx + 1) * nSplit) / parallelism
		for _, s := range splits[startIdx:endIdx] {
			if err := fn(s); err != nil {
				return err
			}
		}
		return nil
	})
}
