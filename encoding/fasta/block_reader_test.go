package fasta_test

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strings"
	"testing"
	"testing/iotest"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio"
	bfasta "github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
	"github.com/grailbio/seqsplit/encoding/fasta"
	"github.com/grailbio/seqsplit/nucleotide"
	"github.com/grailbio/testutil/assert"
	"github.com/grailbio/testutil/expect"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

// readAll calls ReadBlock with the given budget until io.EOF. It returns all
// records and the Consumed value of every call.
func readAll(t testing.TB, r *fasta.BlockReader, budget int64) ([]fasta.Record, []int64) {
	var (
		recs     []fasta.Record
		consumed []int64
	)
	for {
		blk, err := r.ReadBlock(0, budget)
		if err == io.EOF {
			expect.EQ(t, blk.Consumed, int64(0))
			expect.EQ(t, len(blk.Records), 0)
			break
		}
		assert.NoError(t, err)
		recs = append(recs, blk.Records...)
		consumed = append(consumed, blk.Consumed)
	}
	return recs, consumed
}

func sum(v []int64) (n int64) {
	for _, x := range v {
		n += x
	}
	return
}

// readSplit reads the records owned by data[start:start+length] the way a
// split reader does.
func readSplit(t testing.TB, data []byte, start, length int64, budget int64, bufSize int) []fasta.Record {
	opts := []fasta.Opt{fasta.OptBufferSize(bufSize)}
	if start > 0 && data[start-1] != '\n' && data[start-1] != '\r' {
		opts = append(opts, fasta.OptMidLine())
	}
	r := fasta.NewBlockReader(bytes.NewReader(data[start:]), opts...)
	var recs []fasta.Record
	for remaining := length; remaining > 0; {
		b := budget
		if b > remaining {
			b = remaining
		}
		blk, err := r.ReadBlock(0, b)
		if err == io.EOF {
			break
		}
		assert.NoError(t, err)
		recs = append(recs, blk.Records...)
		remaining -= blk.Consumed
	}
	assert.NoError(t, r.Close())
	return recs
}

func TestEndToEnd(t *testing.T) {
	data := ">r1\nACGT\nACGT\n>r2\nTTTT\n"
	r := fasta.NewBlockReader(strings.NewReader(data))
	blk, err := r.ReadBlock(math.MaxInt64, int64(len(data)))
	assert.NoError(t, err)
	expect.EQ(t, blk.Consumed, int64(len(data)))
	m := map[string]string{}
	blk.Into(m)
	expect.EQ(t, m, map[string]string{"r1": "acgtacgt", "r2": "tttt"})
	expect.EQ(t, r.Consumed(), int64(len(data)))

	_, err = r.ReadBlock(math.MaxInt64, int64(len(data)))
	expect.EQ(t, err, io.EOF)
	assert.NoError(t, r.Close())
	assert.NoError(t, r.Close())
}

func TestReadBlock(t *testing.T) {
	tests := []struct {
		name   string
		data   string
		budget int64
		want   [][]fasta.Record
		sizes  []int64
	}{
		{
			name:   "metadata",
			data:   ">id1 extra metadata here\nAC\n>id2\ttabbed meta\nGT\n",
			budget: math.MaxInt64,
			want:   [][]fasta.Record{{{"id1", "ac"}, {"id2", "gt"}}},
			sizes:  []int64{48},
		},
		{
			name:   "multiline",
			data:   ">x\nAAAA\nTTTT\nGGGG\n",
			budget: math.MaxInt64,
			want:   [][]fasta.Record{{{"x", "aaaattttgggg"}}},
			sizes:  []int64{18},
		},
		{
			name:   "crlf",
			data:   ">x desc\r\nAcGt\r\nNN\r\n>y\r\nT\r\n",
			budget: math.MaxInt64,
			want:   [][]fasta.Record{{{"x", "acgtnn"}, {"y", "t"}}},
			sizes:  []int64{26},
		},
		{
			name:   "no trailing newline",
			data:   ">a\nAC\n>b\nGG",
			budget: math.MaxInt64,
			want:   [][]fasta.Record{{{"a", "ac"}, {"b", "gg"}}},
			sizes:  []int64{11},
		},
		{
			name:   "empty body",
			data:   ">a\n>b\nC\n>c",
			budget: math.MaxInt64,
			want:   [][]fasta.Record{{{"a", ""}, {"b", "c"}, {"c", ""}}},
			sizes:  []int64{10},
		},
		{
			name:   "budget of one byte",
			data:   ">a\nAC\n>b\nGG\n>c\nTT\n",
			budget: 1,
			want:   [][]fasta.Record{{{"a", "ac"}}, {{"b", "gg"}}, {{"c", "tt"}}},
			sizes:  []int64{6, 6, 6},
		},
		{
			name:   "budget met mid-record",
			data:   ">a\nAC\n>b\nGG\n>c\nTT\n",
			budget: 8,
			want:   [][]fasta.Record{{{"a", "ac"}, {"b", "gg"}}, {{"c", "tt"}}},
			sizes:  []int64{12, 6},
		},
		{
			name:   "budget met at separator",
			data:   ">a\nAC\n>b\nGG\n>c\nTT\n",
			budget: 6,
			want:   [][]fasta.Record{{{"a", "ac"}}, {{"b", "gg"}}, {{"c", "tt"}}},
			sizes:  []int64{6, 6, 6},
		},
		{
			name:   "leading junk",
			data:   "junk\nmore>junk\n>a\nAC\n",
			budget: math.MaxInt64,
			want:   [][]fasta.Record{{{"a", "ac"}}},
			sizes:  []int64{21},
		},
		{
			name:   "junk past budget",
			data:   "0123456789\n>a\nAC\n",
			budget: 4,
			want:   [][]fasta.Record{nil, {{"a", "ac"}}},
			sizes:  []int64{11, 6},
		},
		{
			name:   "separator inside header",
			data:   ">a x>y\nAC\n>b>c\nG>G\n",
			budget: math.MaxInt64,
			want:   [][]fasta.Record{{{"a", "ac"}, {"b>c", "g>g"}}},
			sizes:  []int64{19},
		},
		{
			name:   "no records",
			data:   "ACGT\nACGT\n",
			budget: math.MaxInt64,
			want:   [][]fasta.Record{nil},
			sizes:  []int64{10},
		},
		{
			name:   "empty",
			data:   "",
			budget: math.MaxInt64,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, bufSize := range []int{1, 2, 7, 64, fasta.DefaultBufferSize} {
				r := fasta.NewBlockReader(strings.NewReader(tt.data), fasta.OptBufferSize(bufSize))
				var (
					got   [][]fasta.Record
					sizes []int64
				)
				for {
					blk, err := r.ReadBlock(0, tt.budget)
					if err == io.EOF {
						break
					}
					require.NoError(t, err)
					got = append(got, blk.Records)
					sizes = append(sizes, blk.Consumed)
				}
				require.Equal(t, tt.want, got, "bufSize=%d", bufSize)
				require.Equal(t, tt.sizes, sizes, "bufSize=%d", bufSize)
				require.Equal(t, int64(len(tt.data)), sum(sizes))
			}
		})
	}
}

func TestMidLine(t *testing.T) {
	r := fasta.NewBlockReader(strings.NewReader(">x\nAC\n>b\nGG\n"), fasta.OptMidLine())
	recs, consumed := readAll(t, r, math.MaxInt64)
	expect.EQ(t, recs, []fasta.Record{{"b", "gg"}})
	expect.EQ(t, consumed, []int64{12})
}

func TestTable(t *testing.T) {
	data := ">a\nAcGt\n"
	for _, tt := range []struct {
		table *nucleotide.Table
		want  string
	}{
		{&nucleotide.Lower, "acgt"},
		{&nucleotide.Upper, "ACGT"},
		{&nucleotide.Identity, "AcGt"},
		{&nucleotide.Complement, "TgCa"},
	} {
		r := fasta.NewBlockReader(strings.NewReader(data), fasta.OptTable(tt.table))
		recs, _ := readAll(t, r, math.MaxInt64)
		expect.EQ(t, recs, []fasta.Record{{"a", tt.want}})
	}
}

func TestMalformed(t *testing.T) {
	for _, data := range []string{
		">a\nAC\n>\nGG\n",
		">a\nAC\n> desc\nGG\n",
		">a\nAC\n>\t\nGG\n",
		">\r\nAC\n",
	} {
		r := fasta.NewBlockReader(strings.NewReader(data))
		blk, err := r.ReadBlock(0, math.MaxInt64)
		expect.EQ(t, errors.Cause(err), fasta.ErrMalformed, "data=%q", data)
		expect.EQ(t, blk.Consumed, int64(len(data)), "data=%q", data)
		expect.EQ(t, r.Consumed(), int64(len(data)), "data=%q", data)
	}
	r := fasta.NewBlockReader(strings.NewReader(">a\nAC\n>\nGG\n"))
	_, err := r.ReadBlock(0, math.MaxInt64)
	assert.Regexp(t, err, "record at byte 6")
}

func TestRecordTooLong(t *testing.T) {
	data := ">a\nAC\n>long\nACGTACGTACGT\n>c\nG\n"
	r := fasta.NewBlockReader(strings.NewReader(data), fasta.OptBufferSize(3))
	blk, err := r.ReadBlock(8, 1)
	assert.NoError(t, err)
	expect.EQ(t, blk.Records, []fasta.Record{{"a", "ac"}})
	_, err = r.ReadBlock(8, 1)
	expect.EQ(t, errors.Cause(err), fasta.ErrRecordTooLong)
	assert.Regexp(t, err, "record at byte 6 exceeds 8 bytes")

	// A record exactly at the limit is accepted.
	r = fasta.NewBlockReader(strings.NewReader(">ab\nACGT\n"))
	blk, err = r.ReadBlock(9, math.MaxInt64)
	assert.NoError(t, err)
	expect.EQ(t, blk.Records, []fasta.Record{{"ab", "acgt"}})
}

type errReader struct {
	data []byte
	err  error
}

func (r *errReader) Read(p []byte) (int, error) {
	if len(r.data) == 0 {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestReadError(t *testing.T) {
	failure := fmt.Errorf("disk on fire")
	r := fasta.NewBlockReader(&errReader{data: []byte(">a\nACGT\n>b\nAC"), err: failure}, fasta.OptBufferSize(4))
	_, err := r.ReadBlock(0, math.MaxInt64)
	expect.EQ(t, errors.Cause(err), failure)

	r = fasta.NewBlockReader(iotest.TimeoutReader(strings.NewReader(">a\nACGT\n>b\nAC")), fasta.OptBufferSize(4))
	_, err = r.ReadBlock(0, math.MaxInt64)
	expect.EQ(t, errors.Cause(err), iotest.ErrTimeout)

	r = fasta.NewBlockReader(&errReader{err: nil})
	_, err = r.ReadBlock(0, math.MaxInt64)
	expect.EQ(t, errors.Cause(err), io.ErrNoProgress)
}

type closeRecorder struct {
	io.Reader
	n int
}

func (c *closeRecorder) Close() error {
	c.n++
	return nil
}

func TestClose(t *testing.T) {
	c := &closeRecorder{Reader: strings.NewReader(">a\nA\n")}
	r := fasta.NewBlockReader(c)
	assert.NoError(t, r.Close())
	assert.NoError(t, r.Close())
	expect.EQ(t, c.n, 1)
	_, err := r.ReadBlock(0, 1)
	assert.Regexp(t, err, "after Close")
}

type testRecord struct {
	id, seq string
}

// generateFasta creates a random FASTA file with nRecs records. Bodies are
// wrapped at random widths; headers may carry metadata. Line ends are CRLF if
// crlf is set.
func generateFasta(r *rand.Rand, nRecs int, crlf bool) ([]byte, []testRecord) {
	const bases = "ACGTN"
	eol := "\n"
	if crlf {
		eol = "\r\n"
	}
	var (
		buf  bytes.Buffer
		recs []testRecord
	)
	for i := 0; i < nRecs; i++ {
		id := fmt.Sprintf("read%d", i)
		buf.WriteString(">" + id)
		if r.Intn(3) == 0 {
			buf.WriteString(" len=" + fmt.Sprint(r.Intn(1000)) + " some description")
		}
		buf.WriteString(eol)
		seq := make([]byte, 1+r.Intn(200))
		for j := range seq {
			seq[j] = bases[r.Intn(len(bases))]
		}
		width := 1 + r.Intn(80)
		for j := 0; j < len(seq); j += width {
			end := j + width
			if end > len(seq) {
				end = len(seq)
			}
			buf.Write(seq[j:end])
			if end < len(seq) || i < nRecs-1 || r.Intn(2) == 0 {
				buf.WriteString(eol)
			}
		}
		recs = append(recs, testRecord{id, strings.ToLower(string(seq))})
	}
	return buf.Bytes(), recs
}

func toTestRecords(recs []fasta.Record) []testRecord {
	out := make([]testRecord, len(recs))
	for i, r := range recs {
		out[i] = testRecord{r.ID, r.Seq}
	}
	return out
}

func TestCompleteness(t *testing.T) {
	rnd := rand.New(rand.NewSource(0))
	for iter := 0; iter < 20; iter++ {
		data, want := generateFasta(rnd, 1+rnd.Intn(50), iter%2 == 1)
		for _, budget := range []int64{1, 17, 256, int64(len(data))} {
			r := fasta.NewBlockReader(iotest.OneByteReader(bytes.NewReader(data)), fasta.OptBufferSize(1+rnd.Intn(128)))
			recs, consumed := readAll(t, r, budget)
			require.Equal(t, want, toTestRecords(recs), "iter=%d budget=%d", iter, budget)
			require.Equal(t, int64(len(data)), sum(consumed), "iter=%d budget=%d", iter, budget)
		}
	}
}

func TestSplitEquivalence(t *testing.T) {
	rnd := rand.New(rand.NewSource(1))
	for iter := 0; iter < 20; iter++ {
		data, want := generateFasta(rnd, 1+rnd.Intn(50), iter%3 == 0)
		for _, splitSize := range []int64{1, 5, 64, 333, int64(len(data))} {
			var got []fasta.Record
			for start := int64(0); start < int64(len(data)); start += splitSize {
				length := splitSize
				if start+length > int64(len(data)) {
					length = int64(len(data)) - start
				}
				got = append(got, readSplit(t, data, start, length, 1+rnd.Int63n(200), 1+rnd.Intn(64))...)
			}
			require.Equal(t, want, toTestRecords(got), "iter=%d splitSize=%d", iter, splitSize)
		}
	}
}

func TestResume(t *testing.T) {
	rnd := rand.New(rand.NewSource(2))
	data, want := generateFasta(rnd, 40, false)
	for k := 1; k < 6; k++ {
		r := fasta.NewBlockReader(bytes.NewReader(data))
		var first []fasta.Record
		for i := 0; i < k; i++ {
			blk, err := r.ReadBlock(0, 100)
			assert.NoError(t, err)
			first = append(first, blk.Records...)
		}
		c := r.Consumed()
		rest := readSplit(t, data, c, math.MaxInt64, 100, 16)
		continued, _ := readAll(t, r, 100)
		expect.EQ(t, rest, continued, "k=%d", k)
		expect.EQ(t, toTestRecords(append(first, rest...)), want, "k=%d", k)
	}
}

// TestBiogoOracle checks the reader against biogo's FASTA parser.
func TestBiogoOracle(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	data, _ := generateFasta(rnd, 100, false)

	var want []testRecord
	sc := seqio.NewScanner(bfasta.NewReader(bytes.NewReader(data), linear.NewSeq("", nil, alphabet.DNA)))
	for sc.Next() {
		ls := sc.Seq().(*linear.Seq)
		seq := make([]byte, len(ls.Seq))
		for i, l := range ls.Seq {
			seq[i] = byte(l)
		}
		want = append(want, testRecord{ls.Name(), strings.ToLower(string(seq))})
	}
	assert.NoError(t, sc.Error())
	expect.EQ(t, len(want), 100)

	r := fasta.NewBlockReader(bytes.NewReader(data), fasta.OptBufferSize(100))
	recs, _ := readAll(t, r, 1000)
	expect.EQ(t, toTestRecords(recs), want)
}
