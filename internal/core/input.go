package core

// input.go wraps source readers for streaming CSV processing.
//
// Sources arrive with all kinds of byte-level noise: Windows BOMs, stray
// invalid UTF-8, or a legacy code page. Every reader here works on the
// stream, so memory stays at the size of the transform buffer regardless of
// file size:
//
//   - decoder: strips a UTF-8 BOM and replaces invalid bytes with U+FFFD,
//     or decodes a named legacy encoding to UTF-8
//   - CountingReader: tracks bytes consumed for transform results
//
// NewSourceReader decodes a raw source and drops its leading junk lines.

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// CountingReader wraps an io.Reader to track bytes read.
type CountingReader struct {
	reader    io.Reader
	BytesRead int64
}

// NewCountingReader wraps r.
func NewCountingReader(r io.Reader) *CountingReader {
	return &CountingReader{reader: r}
}

// Read implements io.Reader.
func (r *CountingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	r.BytesRead += int64(n)
	return n, err
}

// NewDecodingReader returns a reader producing UTF-8 from r.
//
// An empty encoding (or any UTF-8 label) strips a leading BOM and replaces
// invalid sequences with U+FFFD. Any other WHATWG label, such as
// "shift_jis" or "windows-1252", is decoded to UTF-8; a BOM still
// overrides the declared encoding.
func NewDecodingReader(r io.Reader, encoding string) (io.Reader, error) {
	label := strings.TrimSpace(strings.ToLower(encoding))
	if label == "" || label == "utf-8" || label == "utf8" {
		return transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder())), nil
	}

	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("%w: unknown encoding %q", ErrUnsupportedConfiguration, encoding)
	}
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}

// NewSourceReader decodes r to UTF-8 and skips its first skipLines lines.
func NewSourceReader(r io.Reader, encoding string, skipLines int) (io.Reader, error) {
	decoded, err := NewDecodingReader(r, encoding)
	if err != nil {
		return nil, err
	}
	if skipLines <= 0 {
		return decoded, nil
	}

	br := bufio.NewReader(decoded)
	for i := 0; i < skipLines; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("skip line %d: %w", i+1, err)
		}
	}
	return br, nil
}
