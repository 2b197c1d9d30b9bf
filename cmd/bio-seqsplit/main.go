package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"

	"github.com/grailbio/base/grail"
	"github.com/grailbio/base/log"
	"github.com/grailbio/base/vcontext"
	"github.com/grailbio/seqsplit/split"
)

var (
	formatIn     = flag.String("format-in", "", "Input format, 'fasta' or 'fastq'. Guessed from the path suffix if empty")
	splitSize    = flag.Int64("split-size", 64<<20, "Size of one split in bytes")
	blockBudget  = flag.Int64("block-budget", split.DefaultFastaOpts.BlockBudget, "Bytes one FASTA block may consume before stopping at the next record")
	maxRecordLen = flag.Int64("max-record-len", split.DefaultFastaOpts.MaxRecordLength, "Upper bound on the raw size of one FASTA record; 0 = unbounded")
	bufferSize   = flag.Int("buffer-size", split.DefaultFastaOpts.BufferSize, "FASTA read buffer size in bytes; 0 = default")
	parallelism  = flag.Int("parallelism", runtime.NumCPU(), "Number of splits read at once")
	outPrefix    = flag.String("out", "", "Output path prefix. Split i is written to <out>.<i>.<ext>. Empty = no record output")
	format       = flag.String("format", formatTSV, "Output format; 'fasta', 'fastq', 'tsv', 'rio', and 'bam' (unmapped) supported")
	compress     = flag.String("compress", "", "Compression of fasta, fastq and tsv outputs; 'gz', 'zst', 'br', and 'sz' supported. Empty = none")
	revComp      = flag.Bool("revcomp", false, "Reverse-complement every sequence")
	checksum     = flag.Bool("checksum", false, "Print the order-independent checksum of all records to stdout")
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] path\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "Other options:\n")
	flag.PrintDefaults()
}

func main() {
	flag.Usage = usage
	shutdown := grail.Init()
	defer shutdown()

	if flag.NArg() != 1 {
		log.Fatalf("Expected exactly one input path, got %d arguments", flag.NArg())
	}
	ctx := vcontext.Background()
	o := opts{
		formatIn:  *formatIn,
		splitSize: *splitSize,
		fasta: split.FastaOpts{
			BlockBudget:     *blockBudget,
			MaxRecordLength: *maxRecordLen,
			BufferSize:      *bufferSize,
		},
		parallelism: *parallelism,
		outPrefix:   *outPrefix,
		format:      *format,
		compress:    *compress,
		revComp:     *revComp,
	}
	csum, err := seqsplit(ctx, flag.Arg(0), o)
	if err != nil {
		log.Fatalf("%v", err)
	}
	if *checksum {
		fmt.Println(csum)
	}
	log.Debug.Printf("exiting")
}
