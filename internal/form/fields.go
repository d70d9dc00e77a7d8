// Package form decodes submitted form bodies while preserving their field order.
//
// A field name submitted more than once keeps the position of its first occurrence and the value of its last one.
package form

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/pkg/errors"
)

// InputError reports a missing, empty or malformed request body.
type InputError struct {
	Cause error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %v", e.Cause)
}

func (e *InputError) Unwrap() error {
	return e.Cause
}

// Field is a single submitted form field.
type Field struct {
	Name  string
	Value string
}

// Fields is an ordered set of form fields, in submission order.
type Fields []Field

// Get returns the value of the field called name.
func (f Fields) Get(name string) (string, bool) {
	if i := f.index(name); i >= 0 {
		return f[i].Value, true
	}
	return "", false
}

func (f Fields) index(name string) int {
	for i, field := range f {
		if field.Name == name {
			return i
		}
	}
	return -1
}

// Without returns the fields whose name is not name.
func (f Fields) Without(name string) Fields {
	out := make(Fields, 0, len(f))
	for _, field := range f {
		if field.Name != name {
			out = append(out, field)
		}
	}
	return out
}

// Parse decodes a JSON object into Fields. String values are unquoted, any other value is kept as compact JSON text.
func Parse(body []byte) (Fields, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	tok, err := dec.Token()
	if err != nil {
		return nil, &InputError{Cause: errors.Wrap(err, "failed to decode body")}
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, &InputError{Cause: errors.New("body is not a JSON object")}
	}

	var fields Fields
	for dec.More() {
		tok, err = dec.Token()
		if err != nil {
			return nil, &InputError{Cause: errors.Wrap(err, "failed to decode field name")}
		}
		name, _ := tok.(string)

		var raw json.RawMessage
		if err = dec.Decode(&raw); err != nil {
			return nil, &InputError{Cause: errors.Wrapf(err, "failed to decode field %s", name)}
		}
		if i := fields.index(name); i >= 0 {
			fields[i].Value = scalar(raw)
			continue
		}
		fields = append(fields, Field{Name: name, Value: scalar(raw)})
	}
	if _, err = dec.Token(); err != nil {
		return nil, &InputError{Cause: errors.Wrap(err, "failed to decode body")}
	}
	if _, err = dec.Token(); err == nil {
		return nil, &InputError{Cause: errors.New("trailing data after JSON object")}
	}
	return fields, nil
}

func scalar(raw json.RawMessage) string {
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return string(raw)
	}
	return buf.String()
}
