package main

// This file defines the per-split output files. Each split writes its records
// to <prefix>.<index>.<ext>[.<compression>] in one of the formats below.

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"strconv"

	"github.com/biogo/biogo/alphabet"
	bfasta "github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/golang/snappy"
	"github.com/google/brotli/go/cbrotli"
	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/file"
	"github.com/grailbio/base/recordio"
	"github.com/grailbio/base/recordio/recordiozstd"
	"github.com/grailbio/base/tsv"
	"github.com/grailbio/hts/bam"
	"github.com/grailbio/hts/sam"
	"github.com/grailbio/seqsplit/encoding/fastq"
	"github.com/grailbio/seqsplit/nucleotide"
	"github.com/grailbio/seqsplit/split"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const (
	formatFasta = "fasta"
	formatFastq = "fastq"
	formatTSV   = "tsv"
	formatRio   = "rio"
	formatBAM   = "bam"

	// fastaLineWidth is the number of bases per line of FASTA output.
	fastaLineWidth = 60

	// Keys of the recordio header written by rioSink.
	rioHeaderPath   = "seqsplit.path"
	rioHeaderSplit  = "seqsplit.split"
	rioHeaderStart  = "seqsplit.start"
	rioHeaderLength = "seqsplit.length"
)

func init() {
	recordiozstd.Init()
}

// record is one sequence record passed to a sink. Qual is empty for FASTA
// input.
type record struct {
	ID, Seq, Qual string
}

// tsvRow is one line of TSV output.
type tsvRow struct {
	ID  string `tsv:"id"`
	Seq string `tsv:"seq"`
}

var extensions = map[string]string{
	formatFasta: "fa",
	formatFastq: "fq",
	formatTSV:   "tsv",
	formatRio:   "rio",
	formatBAM:   "bam",
}

// textFormats are the formats that may be compressed with -compress. The
// others compress their own blocks.
var textFormats = map[string]bool{
	formatFasta: true,
	formatFastq: true,
	formatTSV:   true,
}

// compressions lists the values of -compress, which double as file suffixes.
var compressions = map[string]bool{
	"":    true,
	"gz":  true,
	"zst": true,
	"br":  true,
	"sz":  true,
}

// outputPath returns the path of the output file of split s.
func outputPath(prefix string, s split.Split, format, compress string) string {
	path := fmt.Sprintf("%s.%05d.%s", prefix, s.Index, extensions[format])
	if compress != "" {
		path += "." + compress
	}
	return path
}

// outFile is an output file, optionally compressed.
type outFile struct {
	f  file.File
	zw io.WriteCloser
	w  io.Writer
}

func createOutFile(ctx context.Context, path, compress string) (*outFile, error) {
	f, err := file.Create(ctx, path)
	if err != nil {
		return nil, errors.E(err, path)
	}
	out := &outFile{f: f, w: f.Writer(ctx)}
	switch compress {
	case "gz":
		out.zw = gzip.NewWriter(out.w)
	case "zst":
		var enc *zstd.Encoder
		if enc, err = zstd.NewWriter(out.w); err != nil {
			f.Close(ctx) // nolint: errcheck
			return nil, errors.E(err, path)
		}
		out.zw = enc
	case "br":
		out.zw = cbrotli.NewWriter(out.w, cbrotli.WriterOptions{Quality: 5})
	case "sz":
		out.zw = snappy.NewBufferedWriter(out.w)
	}
	if out.zw != nil {
		out.w = out.zw
	}
	return out, nil
}

func (o *outFile) close(ctx context.Context, err *errors.Once) {
	if o.zw != nil {
		err.Set(o.zw.Close())
	}
	err.Set(o.f.Close(ctx))
}

// sink consumes the records of one split.
type sink interface {
	write(rec *record) error
	close(ctx context.Context) error
}

// newSink creates the output file of split s.
func newSink(ctx context.Context, prefix string, s split.Split, format, compress string) (sink, error) {
	if _, ok := extensions[format]; !ok {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("unknown output format %q", format))
	}
	if !compressions[compress] {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("unknown compression %q", compress))
	}
	if compress != "" && !textFormats[format] {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("%s output cannot be compressed with %q", format, compress))
	}
	path := outputPath(prefix, s, format, compress)
	out, err := createOutFile(ctx, path, compress)
	if err != nil {
		return nil, err
	}
	switch format {
	case formatFasta:
		return &fastaSink{out: out, w: bfasta.NewWriter(out.w, fastaLineWidth)}, nil
	case formatFastq:
		return &fastqSink{out: out, w: fastq.NewWriter(out.w)}, nil
	case formatTSV:
		return &tsvSink{out: out, w: tsv.NewRowWriter(out.w)}, nil
	case formatBAM:
		return newBAMSink(ctx, out, s)
	}
	rio := recordio.NewWriter(out.w, recordio.WriterOpts{
		Marshal:      marshalRecord,
		Transformers: []string{recordiozstd.Name},
	})
	rio.AddHeader(rioHeaderPath, s.Path)
	rio.AddHeader(rioHeaderSplit, strconv.Itoa(s.Index))
	rio.AddHeader(rioHeaderStart, strconv.FormatInt(s.Start, 10))
	rio.AddHeader(rioHeaderLength, strconv.FormatInt(s.Length, 10))
	return &rioSink{out: out, w: rio}, nil
}

type fastaSink struct {
	out *outFile
	w   *bfasta.Writer
}

func (s *fastaSink) write(rec *record) error {
	_, err := s.w.Write(linear.NewSeq(rec.ID, alphabet.BytesToLetters([]byte(rec.Seq)), alphabet.DNAredundant))
	return err
}

func (s *fastaSink) close(ctx context.Context) error {
	err := errors.Once{}
	s.out.close(ctx, &err)
	return err.Err()
}

type fastqSink struct {
	out *outFile
	w   *fastq.Writer
}

func (s *fastqSink) write(rec *record) error {
	return s.w.Write(&fastq.Read{ID: "@" + rec.ID, Seq: rec.Seq, Qual: rec.Qual})
}

func (s *fastqSink) close(ctx context.Context) error {
	err := errors.Once{}
	s.out.close(ctx, &err)
	return err.Err()
}

type tsvSink struct {
	out *outFile
	w   *tsv.RowWriter
}

func (s *tsvSink) write(rec *record) error {
	return s.w.Write(&tsvRow{ID: rec.ID, Seq: rec.Seq})
}

func (s *tsvSink) close(ctx context.Context) error {
	err := errors.Once{}
	err.Set(s.w.Flush())
	s.out.close(ctx, &err)
	return err.Err()
}

type rioSink struct {
	out *outFile
	w   recordio.Writer
}

func (s *rioSink) write(rec *record) error {
	s.w.Append(rec)
	return nil
}

func (s *rioSink) close(ctx context.Context) error {
	err := errors.Once{}
	err.Set(s.w.Finish())
	s.out.close(ctx, &err)
	return err.Err()
}

// bamSink writes unmapped BAM records. Bases are upper-cased; FASTQ
// qualities are stored as phred scores.
type bamSink struct {
	out  *outFile
	w    *bam.Writer
	seq  []byte
	qual []byte
}

func newBAMSink(ctx context.Context, out *outFile, s split.Split) (sink, error) {
	header, err := sam.NewHeader(nil, nil)
	if err == nil {
		header.Comments = append(header.Comments, "seqsplit "+s.String())
	}
	var w *bam.Writer
	if err == nil {
		w, err = bam.NewWriter(out.w, header, 1)
	}
	if err != nil {
		e := errors.Once{}
		e.Set(err)
		out.close(ctx, &e)
		return nil, e.Err()
	}
	return &bamSink{out: out, w: w}, nil
}

func (s *bamSink) write(rec *record) error {
	if cap(s.seq) < len(rec.Seq) {
		s.seq = make([]byte, len(rec.Seq))
	}
	s.seq = s.seq[:len(rec.Seq)]
	nucleotide.Upper.Translate(s.seq, []byte(rec.Seq))
	var qual []byte
	if rec.Qual != "" {
		if cap(s.qual) < len(rec.Qual) {
			s.qual = make([]byte, len(rec.Qual))
		}
		qual = s.qual[:len(rec.Qual)]
		for i := range qual {
			if rec.Qual[i] < '!' {
				return errors.E(errors.Invalid, fmt.Sprintf("record %s: quality byte %#x at %d is below '!'", rec.ID, rec.Qual[i], i))
			}
			qual[i] = rec.Qual[i] - '!'
		}
	}
	r, err := sam.NewRecord(rec.ID, nil, nil, -1, -1, 0, 0, nil, s.seq, qual, nil)
	if err != nil {
		return errors.E(err, fmt.Sprintf("record %s", rec.ID))
	}
	r.Flags = sam.Unmapped
	return s.w.Write(r)
}

func (s *bamSink) close(ctx context.Context) error {
	err := errors.Once{}
	err.Set(s.w.Close())
	s.out.close(ctx, &err)
	return err.Err()
}

// marshalRecord encodes a *record as
// uvarint(len(ID)) ID uvarint(len(Seq)) Seq Qual.
func marshalRecord(scratch []byte, v interface{}) ([]byte, error) {
	rec := v.(*record)
	n := 2*binary.MaxVarintLen64 + len(rec.ID) + len(rec.Seq) + len(rec.Qual)
	buf := scratch[:0]
	if cap(buf) < n {
		buf = make([]byte, 0, n)
	}
	var tmp [binary.MaxVarintLen64]byte
	buf = append(buf, tmp[:binary.PutUvarint(tmp[:], uint64(len(rec.ID)))]...)
	buf = append(buf, rec.ID...)
	buf = append(buf, tmp[:binary.PutUvarint(tmp[:], uint64(len(rec.Seq)))]...)
	buf = append(buf, rec.Seq...)
	buf = append(buf, rec.Qual...)
	return buf, nil
}
