// pkg/api/sitelinks_v1.go
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/tidwall/gjson"
)

// SiteLinksV1 is the stable JSONL schema for one page of the link graph.
// On the wire it is an object with exactly one key, the page title, mapped
// to the array of distinct link titles:
//
//	{"Albert Einstein": ["Physics", "Germany", "Nobel Prize in Physics"]}
//
// Keep this shape stable; graph loaders read it line by line.
type SiteLinksV1 struct {
	Name  string
	Links []string
}

var (
	ErrNotObject   = errors.New("line is not a JSON object")
	ErrKeyCount    = errors.New("line must hold exactly one key")
	ErrLinksFormat = errors.New("links must be an array of strings")
)

// MarshalJSON renders the single-key object. HTML characters are not escaped
// so titles round-trip byte for byte.
func (s SiteLinksV1) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	if err := encodeString(enc, &buf, s.Name); err != nil {
		return nil, err
	}
	buf.WriteString(": [")
	for i, l := range s.Links {
		if i > 0 {
			buf.WriteString(", ")
		}
		if err := encodeString(enc, &buf, l); err != nil {
			return nil, err
		}
	}
	buf.WriteString("]}")
	return buf.Bytes(), nil
}

// encodeString appends the quoted form of v, dropping the encoder's newline.
func encodeString(enc *json.Encoder, buf *bytes.Buffer, v string) error {
	if err := enc.Encode(v); err != nil {
		return err
	}
	buf.Truncate(buf.Len() - 1)
	return nil
}

// EncodeLine returns the record followed by a newline.
func EncodeLine(s SiteLinksV1) ([]byte, error) {
	b, err := s.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}

// DecodeLine parses one output line back into a SiteLinksV1.
// Surrounding whitespace, including the trailing newline, is ignored.
func DecodeLine(line []byte) (SiteLinksV1, error) {
	var out SiteLinksV1
	line = bytes.TrimSpace(line)
	if !gjson.ValidBytes(line) {
		return out, fmt.Errorf("decode line: %w", ErrNotObject)
	}
	doc := gjson.ParseBytes(line)
	if !doc.IsObject() {
		return out, fmt.Errorf("decode line: %w", ErrNotObject)
	}

	keys := 0
	var ferr error
	doc.ForEach(func(key, value gjson.Result) bool {
		keys++
		if keys > 1 {
			return false
		}
		out.Name = key.String()
		if !value.IsArray() {
			ferr = ErrLinksFormat
			return false
		}
		out.Links = make([]string, 0, len(value.Array()))
		value.ForEach(func(_, v gjson.Result) bool {
			if v.Type != gjson.String {
				ferr = ErrLinksFormat
				return false
			}
			out.Links = append(out.Links, v.Str)
			return true
		})
		return ferr == nil
	})
	if ferr != nil {
		return SiteLinksV1{}, fmt.Errorf("decode line %q: %w", out.Name, ferr)
	}
	if keys != 1 {
		return SiteLinksV1{}, fmt.Errorf("decode line: %w (got %d)", ErrKeyCount, keys)
	}
	return out, nil
}
