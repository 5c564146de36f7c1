// Package json decodes regatta entry documents into an ordered list of
// competitor records.
//
// The expected shape is
//
//	{ "competitors": { "<id>": { "<attribute>": <value>, ... }, ... }, ... }
//
// Competitors are returned in the order their keys appear in the document,
// which encoding/json's map decoding would lose, so the competitors object is
// walked with Decoder.Token. Every other top-level field is skipped.
package json

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
)

// Competitor is one entry of the competitors object. Attribute values are
// rendered to text (see valueText); the document's types are not preserved.
type Competitor struct {
	ID    string
	Attrs map[string]string
}

// Get returns the attribute value for name, or "" when absent.
func (c Competitor) Get(name string) string {
	return c.Attrs[name]
}

// Document is a decoded source document.
type Document struct {
	// Competitors in document order. Empty when the field is absent or null.
	Competitors []Competitor
}

// Decode reads exactly one JSON object from r. Trailing non-whitespace data
// is an error.
//
// A competitor key that appears twice keeps its first position and takes the
// later value. A duplicated "competitors" field replaces the earlier one.
func Decode(r io.Reader) (Document, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	if err := expectDelim(dec, '{', "top-level value"); err != nil {
		return Document{}, err
	}

	var doc Document
	for dec.More() {
		key, err := readKey(dec)
		if err != nil {
			return Document{}, err
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return Document{}, fmt.Errorf("json parser: decode %q: %w", key, err)
		}
		if key != "competitors" {
			continue
		}
		comps, err := decodeCompetitors(raw)
		if err != nil {
			return Document{}, err
		}
		doc.Competitors = comps
	}

	// closing '}'
	if _, err := dec.Token(); err != nil {
		return Document{}, fmt.Errorf("json parser: decode root: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			err = errors.New("unexpected data after top-level object")
		}
		return Document{}, fmt.Errorf("json parser: trailing data: %w", err)
	}
	return doc, nil
}

// DecodeBytes is Decode over an in-memory document.
func DecodeBytes(b []byte) (Document, error) {
	return Decode(bytes.NewReader(b))
}

func decodeCompetitors(raw json.RawMessage) ([]Competitor, error) {
	if string(bytes.TrimSpace(raw)) == "null" {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := expectDelim(dec, '{', `"competitors"`); err != nil {
		return nil, err
	}

	var (
		out   []Competitor
		index = map[string]int{}
	)
	for dec.More() {
		id, err := readKey(dec)
		if err != nil {
			return nil, err
		}

		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, fmt.Errorf("json parser: competitor %q: %w", id, err)
		}
		obj, ok := v.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("json parser: competitor %q is %s, want object", id, kindOf(v))
		}

		c := Competitor{ID: id, Attrs: make(map[string]string, len(obj))}
		for k, val := range obj {
			c.Attrs[k] = valueText(val)
		}

		if i, dup := index[id]; dup {
			out[i] = c
			continue
		}
		index[id] = len(out)
		out = append(out, c)
	}
	return out, nil
}

// expectDelim consumes the next token and checks it opens an object.
func expectDelim(dec *json.Decoder, want json.Delim, what string) error {
	tok, err := dec.Token()
	if err != nil {
		if err == io.EOF {
			return fmt.Errorf("json parser: %s: empty input", what)
		}
		return fmt.Errorf("json parser: %s: %w", what, err)
	}
	if d, ok := tok.(json.Delim); !ok || d != want {
		return fmt.Errorf("json parser: %s is %s, want object", what, tokenKind(tok))
	}
	return nil
}

func readKey(dec *json.Decoder) (string, error) {
	tok, err := dec.Token()
	if err != nil {
		return "", fmt.Errorf("json parser: read key: %w", err)
	}
	key, ok := tok.(string)
	if !ok {
		return "", fmt.Errorf("json parser: read key: unexpected %v", tok)
	}
	return key, nil
}

// valueText renders a decoded JSON value as a CSV cell. Numbers keep their
// literal text, null becomes "", and nested objects/arrays are re-encoded as
// compact JSON.
func valueText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return fmt.Sprint(x)
		}
		return string(b)
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	case []any:
		return "an array"
	case map[string]any:
		return "an object"
	default:
		return fmt.Sprintf("%T", v)
	}
}

func tokenKind(tok json.Token) string {
	switch t := tok.(type) {
	case json.Delim:
		if t == '[' {
			return "an array"
		}
		return fmt.Sprintf("%q", t.String())
	default:
		return kindOf(t)
	}
}
