// Copyright 2018 GRAIL, Inc.  All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

/*
bio-seqsplit reads a FASTA or FASTQ file as a list of byte-range splits, in
parallel, and writes the records each split owns to a separate output file.
Every record is read by exactly one split, whatever the split size, so the
outputs together hold the records of the input once each.

Sample usage:

	bio-seqsplit \
	    -split-size 268435456 \
	    -out /tmp/hg38 -format rio \
	    -checksum \
	    hg38.fa

writes /tmp/hg38.00000.rio, /tmp/hg38.00001.rio, ... and prints a checksum of
all the records. The checksum does not depend on the split size, which makes it
a cheap consistency check across runs.

Compressed inputs (.gz, .zst, .br, .sz, .bz2) are read as one split. FASTA sequences
are lower-cased; FASTQ sequences are kept as is.
*/
package main
