package source

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"
)

// utf8BOM is prepended by Excel and other Windows tools when saving CSV as UTF-8.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// cleanReader skips a leading UTF-8 BOM and replaces invalid UTF-8 with
// U+FFFD as it streams, so the CSV parser never sees the raw bytes.
type cleanReader struct {
	br      *bufio.Reader
	started bool
	pending []byte // tail of a rune that did not fit in the last Read
}

func newCleanReader(r io.Reader) *cleanReader {
	return &cleanReader{br: bufio.NewReader(r)}
}

// Read implements io.Reader.
func (c *cleanReader) Read(p []byte) (int, error) {
	if !c.started {
		c.started = true
		if b, err := c.br.Peek(len(utf8BOM)); err == nil && bytes.Equal(b, utf8BOM) {
			_, _ = c.br.Discard(len(utf8BOM))
		}
	}

	n := copy(p, c.pending)
	c.pending = c.pending[n:]

	var enc [utf8.UTFMax]byte
	for n < len(p) {
		// ReadRune reports an invalid byte as utf8.RuneError with size 1,
		// which encodes back as U+FFFD.
		r, _, err := c.br.ReadRune()
		if err != nil {
			if err == io.EOF && n > 0 {
				return n, nil
			}
			return n, err
		}
		w := utf8.EncodeRune(enc[:], r)
		m := copy(p[n:], enc[:w])
		n += m
		if m < w {
			c.pending = append(c.pending[:0], enc[m:w]...)
		}
	}
	return n, nil
}

// countingReader tracks bytes read from the underlying file.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}
