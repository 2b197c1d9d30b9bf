package fastq

import (
	"io"

	"github.com/pkg/errors"
)

var (
	newline = []byte{'\n'}
	plus    = []byte{'+'}
)

// Writer is a FASTQ file writer. Records are written with '\n' terminators,
// so a file written by Writer and read back by Scanner has
// Written() == Consumed().
type Writer struct {
	w       io.Writer
	err     error
	written int64
}

// NewWriter constructs a new FASTQ writer
// that writes reads to the underlying writer w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Write writes the read r in FASTQ format. r.ID must include the leading
// '@'. An empty r.Unk is written as "+". Reads without the '@', or whose
// sequence and quality lengths differ, are rejected with an error whose
// cause is ErrInvalid, and nothing is written.
func (w *Writer) Write(r *Read) error {
	if w.err != nil {
		return w.err
	}
	if !isHeader([]byte(r.ID)) {
		return errors.Wrapf(ErrInvalid, "read %q: ID does not start with '@'", r.ID)
	}
	if len(r.Seq) != len(r.Qual) {
		return errors.Wrapf(ErrInvalid, "read %q: %d bases, %d qualities", r.ID, len(r.Seq), len(r.Qual))
	}
	w.writeln(r.ID)
	w.writeln(r.Seq)
	if r.Unk == "" {
		w.write(plus)
		w.write(newline)
	} else {
		w.writeln(r.Unk)
	}
	w.writeln(r.Qual)
	return w.err
}

// Written returns the number of bytes written so far.
func (w *Writer) Written() int64 { return w.written }

func (w *Writer) writeln(line string) {
	if w.err != nil {
		return
	}
	var n int
	n, w.err = io.WriteString(w.w, line)
	w.written += int64(n)
	w.write(newline)
}

func (w *Writer) write(b []byte) {
	if w.err != nil {
		return
	}
	var n int
	n, w.err = w.w.Write(b)
	w.written += int64(n)
}
