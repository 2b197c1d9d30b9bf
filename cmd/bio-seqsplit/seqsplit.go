package main

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/log"
	"github.com/grailbio/seqsplit/encoding/fastq"
	"github.com/grailbio/seqsplit/nucleotide"
	"github.com/grailbio/seqsplit/split"
)

// opts holds the command-line options of bio-seqsplit.
type opts struct {
	// formatIn is the input format, formatFasta or formatFastq. Empty means
	// guess from the path.
	formatIn string
	// splitSize is the size of one split in bytes.
	splitSize int64
	// fasta configures the FASTA block reader.
	fasta split.FastaOpts
	// parallelism is the number of splits read at once. 0 means NumCPU.
	parallelism int
	// outPrefix is the output path prefix. Empty means no record output.
	outPrefix string
	// format is the output format.
	format string
	// compress is the compression suffix of text outputs. Empty means none.
	compress string
	// revComp causes sequences to be reverse-complemented.
	revComp bool
}

var inputSuffixes = map[string]string{
	".fa":    formatFasta,
	".fasta": formatFasta,
	".fna":   formatFasta,
	".fq":    formatFastq,
	".fastq": formatFastq,
}

// inputFormat guesses the format of the file at path from its suffix, after
// dropping a compression suffix.
func inputFormat(path string) (string, error) {
	p := path
	if split.Compressed(p) {
		p = p[:strings.LastIndexByte(p, '.')]
	}
	if i := strings.LastIndexByte(p, '.'); i >= 0 {
		if format, ok := inputSuffixes[strings.ToLower(p[i:])]; ok {
			return format, nil
		}
	}
	return "", errors.E(errors.Invalid, path, "cannot guess input format; set -format-in")
}

// seqsplit reads the file at path split by split, writes the records of each
// split to its own output file, and returns the checksum of all records.
func seqsplit(ctx context.Context, path string, o opts) (split.Checksum, error) {
	var (
		csum split.Checksum
		err  error
	)
	if o.formatIn == "" {
		if o.formatIn, err = inputFormat(path); err != nil {
			return csum, err
		}
	}
	if o.formatIn != formatFasta && o.formatIn != formatFastq {
		return csum, errors.E(errors.Invalid, fmt.Sprintf("unknown input format %q", o.formatIn))
	}
	if o.outPrefix != "" {
		if _, ok := extensions[o.format]; !ok {
			return csum, errors.E(errors.Invalid, fmt.Sprintf("unknown output format %q", o.format))
		}
		if !compressions[o.compress] {
			return csum, errors.E(errors.Invalid, fmt.Sprintf("unknown compression %q", o.compress))
		}
		if o.compress != "" && !textFormats[o.format] {
			return csum, errors.E(errors.Invalid, fmt.Sprintf("%s output cannot be compressed", o.format))
		}
		if o.format == formatFastq && o.formatIn != formatFastq {
			return csum, errors.E(errors.Invalid, "fastq output requires fastq input")
		}
	}
	start := time.Now()
	splits, err := split.Plan(ctx, path, o.splitSize)
	if err != nil {
		return csum, err
	}
	log.Printf("%s: reading %d splits of %d bytes", path, len(splits), o.splitSize)
	var mu sync.Mutex
	err = split.Each(splits, o.parallelism, func(s split.Split) error {
		c, err := processSplit(ctx, s, o)
		if err != nil {
			return err
		}
		mu.Lock()
		csum.Merge(c)
		mu.Unlock()
		return nil
	})
	if err != nil {
		return csum, err
	}
	log.Printf("%s: %d records in %v", path, csum.N, time.Since(start))
	return csum, nil
}

// processSplit reads the records of one split and writes them to the split's
// output file, if any.
func processSplit(ctx context.Context, s split.Split, o opts) (csum split.Checksum, err error) {
	var out sink
	if o.outPrefix != "" {
		if out, err = newSink(ctx, o.outPrefix, s, o.format, o.compress); err != nil {
			return
		}
		defer func() {
			if e := out.close(ctx); e != nil && err == nil {
				err = e
			}
		}()
	}
	emit := func(rec *record) error {
		if o.revComp {
			rec.Seq = nucleotide.ReverseComplementString(rec.Seq, &nucleotide.Complement)
			if rec.Qual != "" {
				q := []byte(rec.Qual)
				nucleotide.Reverse(q)
				rec.Qual = string(q)
			}
		}
		csum.Add(rec.ID, rec.Seq)
		if out == nil {
			return nil
		}
		return out.write(rec)
	}
	if o.formatIn == formatFasta {
		err = readFasta(ctx, s, o.fasta, emit)
	} else {
		err = readFastq(ctx, s, emit)
	}
	if err == nil && log.At(log.Debug) {
		log.Debug.Printf("%v: %d records", s, csum.N)
	}
	return
}

func readFasta(ctx context.Context, s split.Split, fo split.FastaOpts, emit func(*record) error) error {
	r, err := split.NewFastaReader(ctx, s, fo)
	if err != nil {
		return err
	}
	for r.Next() {
		for _, rec := range r.Records() {
			if err = emit(&record{ID: rec.ID, Seq: rec.Seq}); err != nil {
				break
			}
		}
		if err != nil {
			break
		}
	}
	if e := r.Close(ctx); e != nil && err == nil {
		err = e
	}
	return err
}

func readFastq(ctx context.Context, s split.Split, emit func(*record) error) error {
	r, err := split.NewFastqReader(ctx, s, fastq.ID|fastq.Seq|fastq.Qual)
	if err != nil {
		return err
	}
	var read fastq.Read
	for r.Next(&read) {
		if err = emit(&record{ID: fastqID(read.ID), Seq: read.Seq, Qual: read.Qual}); err != nil {
			break
		}
	}
	if e := r.Close(ctx); e != nil && err == nil {
		err = e
	}
	return err
}

// fastqID returns the read name of a FASTQ ID line: the text after '@' up to
// the first space or tab.
func fastqID(line string) string {
	line = strings.TrimPrefix(line, "@")
	if i := strings.IndexAny(line, " \t"); i >= 0 {
		line = line[:i]
	}
	return line
}
