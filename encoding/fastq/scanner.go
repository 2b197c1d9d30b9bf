// Package fastq reads and writes FASTQ files, either whole or one byte range
// ("split") at a time.
package fastq

import (
	"bufio"
	"io"
	"math"

	"github.com/pkg/errors"
)

var (
	// ErrShort is returned when a truncated FASTQ file is encountered.
	ErrShort = errors.New("short FASTQ file")
	// ErrInvalid is returned when an invalid FASTQ file is encountered.
	ErrInvalid = errors.New("invalid FASTQ file")
)

// A Read is a FASTQ read, comprising an ID, sequence, line 3
// ("unknown"), and a quality string.
type Read struct {
	ID, Seq, Unk, Qual string
}

var errEOF = errors.New("eof")

// Field enumerates FASTQ fields. It is used to specify fields to read in
// NewScanner.
type Field uint

const (
	// ID causes the Read.ID field to be filled
	ID Field = 1 << iota
	// Seq causes the Read.Seq field to be filled
	Seq
	// Unk causes the Read.Unk field to be filled
	Unk
	// Qual causes the Read.Qual field to be filled
	Qual
	// All equals ID|Seq|Unk|Qual.
	All = ID | Seq | Unk | Qual
)

// Opt is an option to NewScanner.
type Opt func(s *Scanner)

// OptMidLine tells the scanner that the first byte of the stream does not
// start a line. The partial line in front of the first line terminator is
// skipped by the first Scan or Sync call.
func OptMidLine() Opt {
	return func(s *Scanner) { s.midLine = true }
}

// OptLimit makes Scan stop in front of the first record whose ID line starts
// at or after stream byte n. Records that start before n are read in full.
func OptLimit(n int64) Opt {
	return func(s *Scanner) { s.limit = n }
}

// line is one line of input without its terminator. raw is the number of
// stream bytes it occupies, terminator included.
type line struct {
	data []byte
	raw  int
}

// Scanner provides a convenient interface for reading FASTQ read
// data. The Scan method returns the next read, returning a boolean
// indicating whether the read succeeded. Scanners are not
// threadsafe.
//
// Scanner performs some validation: it requires ID lines to begin
// with "@" and that line 3 begins with "+", but does not perform
// further validation (e.g., seq/qual being of equal length,
// containing only data in range, etc.)
//
// Scanner keeps count of the stream bytes it has moved past (Consumed), and
// can skip to the next record boundary from an arbitrary position (Sync).
// Together they let a caller read the records of one byte range of a file.
type Scanner struct {
	b        *bufio.Reader
	err      error
	fields   Field
	consumed int64
	limit    int64
	midLine  bool
	started  bool
	// pending holds lines read ahead by Sync, not yet consumed.
	pending []line
}

// NewScanner constructs a new Scanner that reads raw FASTQ data from the
// provided reader. Fields is a bitset of the fields to read. A typical value
// would be All or ID|Seq|Qual.
func NewScanner(r io.Reader, fields Field, opts ...Opt) *Scanner {
	s := &Scanner{b: bufio.NewReader(r), fields: fields, limit: math.MaxInt64}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// fetch reads the next line from the stream. It returns false at end of
// stream, or on error, which is then stored in f.err.
func (f *Scanner) fetch() (line, bool) {
	data, err := f.b.ReadBytes('\n')
	if err != nil && err != io.EOF {
		f.err = err
		return line{}, false
	}
	if len(data) == 0 {
		return line{}, false
	}
	l := line{data: data, raw: len(data)}
	if n := len(l.data); n > 0 && l.data[n-1] == '\n' {
		l.data = l.data[:n-1]
	}
	if n := len(l.data); n > 0 && l.data[n-1] == '\r' {
		l.data = l.data[:n-1]
	}
	return l, true
}

// next consumes the next line, pending or not.
func (f *Scanner) next() (line, bool) {
	var (
		l  line
		ok bool
	)
	if len(f.pending) > 0 {
		l, ok = f.pending[0], true
		f.pending = f.pending[1:]
	} else {
		l, ok = f.fetch()
	}
	if ok {
		f.consumed += int64(l.raw)
	}
	return l, ok
}

// peek returns the next line without consuming it.
func (f *Scanner) peek() (line, bool) {
	if len(f.pending) == 0 {
		l, ok := f.fetch()
		if !ok {
			return line{}, false
		}
		f.pending = append(f.pending, l)
	}
	return f.pending[0], true
}

// start skips the partial first line of a mid-line stream.
func (f *Scanner) start() {
	if f.started {
		return
	}
	f.started = true
	if f.midLine {
		f.next()
	}
}

// Sync skips lines until the next line that starts a record: a line
// beginning with "@" whose next-but-one line begins with "+". The quality
// line of a record may begin with "@", but the line two below it is a
// sequence, so the rule never matches inside a record. Sync returns the
// number of bytes skipped. At end of stream it consumes everything and
// returns a nil error; the next Scan returns false.
func (f *Scanner) Sync() (int64, error) {
	start := f.consumed
	f.start()
	for f.err == nil {
		for len(f.pending) < 3 {
			l, ok := f.fetch()
			if !ok {
				break
			}
			f.pending = append(f.pending, l)
		}
		if len(f.pending) == 0 {
			break
		}
		if len(f.pending) >= 3 && isHeader(f.pending[0].data) && isPlus(f.pending[2].data) {
			break
		}
		f.next()
	}
	return f.consumed - start, f.Err()
}

func isHeader(b []byte) bool { return len(b) > 0 && b[0] == '@' }

func isPlus(b []byte) bool { return len(b) > 0 && b[0] == '+' }

// Scan the next read into the provided read. Scan returns a boolean
// indicating whether the scan succeeded. Once Scan returns false, it
// never returns true again. Upon completion, the user should check
// the Err method to determine whether scanning stopped because of an
// error or because the end of the stream was reached.
//
// Empty lines in front of a record are skipped and counted as consumed.
func (f *Scanner) Scan(read *Read) bool {
	if f.err != nil {
		return false
	}
	f.start()
	for {
		l, ok := f.peek()
		if !ok {
			if f.err == nil {
				f.err = errEOF
			}
			return false
		}
		if len(l.data) > 0 {
			break
		}
		f.next()
	}
	if f.consumed >= f.limit {
		f.err = errEOF
		return false
	}
	id, _ := f.next()
	if !isHeader(id.data) {
		f.err = ErrInvalid
		return false
	}
	if f.fields&ID != 0 {
		read.ID = string(id.data)
	}
	seq, ok := f.scan()
	if !ok {
		return false
	}
	if f.fields&Seq != 0 {
		read.Seq = string(seq)
	}
	unk, ok := f.scan()
	if !ok {
		return false
	}
	if !isPlus(unk) {
		f.err = ErrInvalid
		return false
	}
	if f.fields&Unk != 0 {
		read.Unk = string(unk)
	}
	qual, ok := f.scan()
	if !ok {
		return false
	}
	if f.fields&Qual != 0 {
		read.Qual = string(qual)
	}
	return true
}

// scan reads a non-ID line of a record; end of stream is ErrShort.
func (f *Scanner) scan() ([]byte, bool) {
	l, ok := f.next()
	if !ok {
		if f.err == nil {
			f.err = ErrShort
		}
		return nil, false
	}
	return l.data, true
}

// Consumed returns the number of stream bytes the scanner has moved past:
// every line returned by Scan or skipped by Sync, terminators included.
// Lines read ahead but not yet consumed are not counted.
func (f *Scanner) Consumed() int64 { return f.consumed }

// Err returns the scanning error, if any.
func (f *Scanner) Err() error {
	if f.err == errEOF {
		return nil
	}
	return f.err
}
