// Package document gives null-safe, path-based access to loosely structured
// JSON records. A missing path segment, a JSON null, or a value of the wrong
// type all read as nil; nothing here fails because a field is absent.
package document

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tidwall/gjson"
)

const MAX_LINE_BYTES = 16 * 1024 * 1024

// Doc is one parsed JSON object.
type Doc struct {
	r gjson.Result
}

// Parse returns the document for raw, or false if raw is not a JSON object.
func Parse(raw []byte) (Doc, bool) {
	if !gjson.ValidBytes(raw) {
		return Doc{}, false
	}
	r := gjson.ParseBytes(raw)
	if !r.IsObject() {
		return Doc{}, false
	}
	return Doc{r: r}, true
}

// MustParse is Parse for literals in tests and fixtures.
func MustParse(raw string) Doc {
	d, ok := Parse([]byte(raw))
	if !ok {
		panic("document: not a JSON object: " + raw)
	}
	return d
}

func (d Doc) lookup(path string) (gjson.Result, bool) {
	v := d.r.Get(path)
	if !v.Exists() || v.Type == gjson.Null {
		return v, false
	}
	return v, true
}

// Exists reports whether path resolves to a non-null value.
func (d Doc) Exists(path string) bool {
	_, ok := d.lookup(path)
	return ok
}

// String returns the value at path as a string. Numbers and booleans are
// returned in their JSON spelling.
func (d Doc) String(path string) *string {
	v, ok := d.lookup(path)
	if !ok {
		return nil
	}
	s := v.String()
	return &s
}

// Int returns the integer at path. Numeric strings such as the archive's
// "timestamp_ms" are accepted.
func (d Doc) Int(path string) *int64 {
	v, ok := d.lookup(path)
	if !ok {
		return nil
	}
	switch v.Type {
	case gjson.Number:
		n := v.Int()
		return &n
	case gjson.String:
		n, err := strconv.ParseInt(v.Str, 10, 64)
		if err != nil {
			return nil
		}
		return &n
	default:
		return nil
	}
}

// Strings returns the string elements of the array at path, skipping
// non-strings. It never returns nil.
func (d Doc) Strings(path string) []string {
	out := []string{}
	v, ok := d.lookup(path)
	if !ok || !v.IsArray() {
		return out
	}
	v.ForEach(func(_, el gjson.Result) bool {
		if el.Type == gjson.String {
			out = append(out, el.Str)
		}
		return true
	})
	return out
}

// Raw returns the document's JSON text.
func (d Doc) Raw() string { return d.r.Raw }

// Batch is the content of one input file.
type Batch struct {
	Docs []Doc
	// Malformed counts lines or array elements that were not JSON objects.
	Malformed int
}

// ReadFile decodes the records in the file at path.
func ReadFile(path string) (Batch, error) {
	f, err := os.Open(path)
	if err != nil {
		return Batch{}, fmt.Errorf("[Document] open %s: %w", path, err)
	}
	defer f.Close()

	b, err := Decode(f)
	if err != nil {
		return b, fmt.Errorf("[Document] decode %s: %w", path, err)
	}
	return b, nil
}

// Decode reads either a JSON array of objects or newline-delimited objects.
// Blank lines are ignored; lines that are not JSON objects are counted as
// malformed and skipped.
func Decode(r io.Reader) (Batch, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err == io.EOF {
		return Batch{}, nil
	}
	if err != nil {
		return Batch{}, err
	}

	if first == '[' {
		return decodeArray(br)
	}
	return decodeLines(br)
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		c, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch c {
		case ' ', '\t', '\r', '\n':
			continue
		}
		if err := br.UnreadByte(); err != nil {
			return 0, err
		}
		return c, nil
	}
}

func decodeArray(r io.Reader) (Batch, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Batch{}, err
	}
	if !gjson.ValidBytes(raw) {
		return Batch{}, fmt.Errorf("invalid JSON array")
	}

	var b Batch
	gjson.ParseBytes(raw).ForEach(func(_, el gjson.Result) bool {
		if el.IsObject() {
			b.Docs = append(b.Docs, Doc{r: el})
		} else {
			b.Malformed++
		}
		return true
	})
	return b, nil
}

func decodeLines(r io.Reader) (Batch, error) {
	var b Batch
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), MAX_LINE_BYTES)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		d, ok := Parse(line)
		if !ok {
			b.Malformed++
			continue
		}
		b.Docs = append(b.Docs, d)
	}
	return b, sc.Err()
}
