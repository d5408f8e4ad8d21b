package content

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ErrNotObject is returned when a payload decodes to something other than a
// key-value structure.
var ErrNotObject = errors.New("content: payload is not an object")

// Payload is a decoded content or settings structure. A resolved Payload is
// never nil.
type Payload map[string]any

// DecodePayload decodes a stored payload. Objects are used as-is; a JSON
// string is decoded once more as an encoded object. Null, empty or
// whitespace-only input yields an empty Payload without error.
func DecodePayload(raw json.RawMessage) (Payload, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return Payload{}, nil
	}

	if trimmed[0] == '"' {
		var encoded string
		if err := json.Unmarshal(trimmed, &encoded); err != nil {
			return Payload{}, fmt.Errorf("content: decode payload string: %w", err)
		}
		inner := bytes.TrimSpace([]byte(encoded))
		if len(inner) == 0 || bytes.Equal(inner, []byte("null")) {
			return Payload{}, nil
		}
		trimmed = inner
	}

	if trimmed[0] != '{' {
		return Payload{}, ErrNotObject
	}

	// Numbers stay json.Number so large integers survive a round trip.
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var p Payload
	if err := dec.Decode(&p); err != nil {
		return Payload{}, fmt.Errorf("content: decode payload: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Payload{}, fmt.Errorf("content: decode payload: trailing data after object")
	}
	if p == nil {
		p = Payload{}
	}
	return p, nil
}

// ResolvePayload is DecodePayload with every failure mapped to an empty
// Payload.
func ResolvePayload(raw json.RawMessage) Payload {
	p, err := DecodePayload(raw)
	if err != nil {
		return Payload{}
	}
	return p
}

// Decode fills v, a pointer to a struct, from the payload's fields.
func (p Payload) Decode(v any) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("content: marshal payload: %w", err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("content: decode payload: %w", err)
	}
	return nil
}

// String returns the string value at key, or "".
func (p Payload) String(key string) string {
	s, _ := p[key].(string)
	return s
}

// Bool returns the boolean value at key, or false.
func (p Payload) Bool(key string) bool {
	b, _ := p[key].(bool)
	return b
}

// Int returns the numeric value at key truncated to int, or def.
func (p Payload) Int(key string, def int) int {
	switch n := p[key].(type) {
	case float64:
		return int(n)
	case int:
		return n
	case int64:
		return int(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return int(i)
		}
		if f, err := n.Float64(); err == nil {
			return int(f)
		}
	}
	return def
}
