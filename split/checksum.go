// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package split

import (
	"fmt"
	"hash"

	"blainsmith.com/go/seahash"
	"github.com/grailbio/base/unsafe"
)

// Checksum is an order-independent digest of a set of (id, sequence)
// records. Sums wrap around. Two sets of records yield the same Checksum if
// they are equal as multisets, with high probability.
type Checksum struct {
	// N is the number of records.
	N int64
	// SumID is the sum of the hashes of the record IDs.
	SumID uint64
	// SumRecord is the sum of the hashes of the (id, sequence) pairs.
	SumRecord uint64

	h hash.Hash64
}

var separator = []byte{0}

func (c *Checksum) hash(id, seq string) (idHash, recHash uint64) {
	if c.h == nil {
		c.h = seahash.New()
	}
	c.h.Reset()
	c.h.Write(unsafe.StringToBytes(id)) // nolint: errcheck
	idHash = c.h.Sum64()
	c.h.Reset()
	c.h.Write(unsafe.StringToBytes(id))  // nolint: errcheck
	c.h.Write(separator)                 // nolint: errcheck
	c.h.Write(unsafe.StringToBytes(seq)) // nolint: errcheck
	return idHash, c.h.Sum64()
}

// Add adds one record to the checksum.
func (c *Checksum) Add(id, seq string) {
	idHash, recHash := c.hash(id, seq)
	c.N++
	c.SumID += idHash
	c.SumRecord += recHash
}

// Merge adds the records of other to c.
func (c *Checksum) Merge(other Checksum) {
	c.N += other.N
	c.SumID += other.SumID
	c.SumRecord += other.SumRecord
}

// Equal reports whether c and other digest the same records.
func (c Checksum) Equal(other Checksum) bool {
	return c.N == other.N && c.SumID == other.SumID && c.SumRecord == other.SumRecord
}

func (c Checksum) String() string {
	return fmt.Sprintf("n=%d id=%016x rec=%016x", c.N, c.SumID, c.SumRecord)
}
