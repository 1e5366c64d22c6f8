package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/lumenui/bridge"
)

// Field is one (name, value) pair of a record, in source order.
type Field struct {
	Name  string
	Value bridge.Scalar
}

// Record is an ordered mapping of field name to scalar value, parsed from
// a flat JSON object.
type Record struct {
	fields []Field
	index  map[string]int
}

// Len returns the number of fields.
func (r Record) Len() int { return len(r.fields) }

// Field returns the i'th field in source order.
func (r Record) Field(i int) Field { return r.fields[i] }

// Names returns the field names in source order.
func (r Record) Names() []string {
	names := make([]string, len(r.fields))
	for i, f := range r.fields {
		names[i] = f.Name
	}
	return names
}

// Value returns the value for name, or the absent sentinel.
func (r Record) Value(name string) bridge.Scalar {
	if i, ok := r.index[name]; ok {
		return r.fields[i].Value
	}
	return bridge.Absent
}

// parseResult carries what a parse salvaged alongside what it dropped.
type parseResult struct {
	records       []Record
	skippedItems  int // non-object array entries
	skippedFields int // nested (object/array) field values
}

// parseRecords decodes a JSON array of flat objects, preserving field
// order. Non-object entries and nested field values are dropped, not
// fatal; only a malformed document or a non-array root is an error.
func parseRecords(raw []byte) (parseResult, error) {
	var res parseResult

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return res, fmt.Errorf("decode: %w", err)
	}
	if d, ok := tok.(json.Delim); !ok || d != '[' {
		return res, fmt.Errorf("data is not an array (got %v)", tok)
	}

	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return res, fmt.Errorf("decode entry: %w", err)
		}

		d, ok := tok.(json.Delim)
		if !ok || d != '{' {
			// Scalar entry: already consumed. Array entry: skip its body.
			if ok && d == '[' {
				if err := skipCompound(dec); err != nil {
					return res, err
				}
			}
			res.skippedItems++
			continue
		}

		rec, skipped, err := parseObject(dec)
		if err != nil {
			return res, err
		}
		res.skippedFields += skipped
		res.records = append(res.records, rec)
	}

	// Consume closing ']'.
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return res, fmt.Errorf("decode: %w", err)
	}

	return res, nil
}

// parseObject reads the fields of an object whose '{' was just consumed.
func parseObject(dec *json.Decoder) (Record, int, error) {
	rec := Record{index: make(map[string]int)}
	skipped := 0

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return rec, skipped, fmt.Errorf("decode key: %w", err)
		}
		key := keyTok.(string)

		valTok, err := dec.Token()
		if err != nil {
			return rec, skipped, fmt.Errorf("decode value for %q: %w", key, err)
		}

		if _, ok := valTok.(json.Delim); ok {
			// Nested object or array: records are flat, drop the field.
			if err := skipCompound(dec); err != nil {
				return rec, skipped, err
			}
			skipped++
			continue
		}

		v, ok := scalarFromToken(valTok)
		if !ok {
			skipped++
			continue
		}

		if i, dup := rec.index[key]; dup {
			// Last duplicate key wins, same slot.
			rec.fields[i].Value = v
			continue
		}
		rec.index[key] = len(rec.fields)
		rec.fields = append(rec.fields, Field{Name: key, Value: v})
	}

	// Consume closing '}'.
	if _, err := dec.Token(); err != nil {
		return rec, skipped, fmt.Errorf("decode: %w", err)
	}
	return rec, skipped, nil
}

// skipCompound consumes tokens until the compound value whose opening
// delimiter was just read is balanced.
func skipCompound(dec *json.Decoder) error {
	depth := 1
	for depth > 0 {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("skip nested value: %w", err)
		}
		if d, ok := tok.(json.Delim); ok {
			switch d {
			case '{', '[':
				depth++
			case '}', ']':
				depth--
			}
		}
	}
	return nil
}

func scalarFromToken(tok json.Token) (bridge.Scalar, bool) {
	switch v := tok.(type) {
	case string:
		return bridge.String(v), true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return bridge.Absent, false
		}
		return bridge.Number(f), true
	case bool:
		return bridge.Bool(v), true
	case nil:
		return bridge.Null(), true
	}
	return bridge.Absent, false
}
