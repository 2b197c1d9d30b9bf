// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package nucleotide provides byte translation tables for ASCII-encoded
// nucleotide sequences (case folding, complementing) and reverse-complement
// helpers built on them.
//
// Tables are plain values. Callers pass them by pointer to the functions that
// use them, e.g. fasta.OptTable(&nucleotide.Lower), and must never write to
// them.
package nucleotide
