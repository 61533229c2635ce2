// internal/models/payload.go
package models

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

// DecodeFailed is the in-band marker carried by a degraded payload.
const DecodeFailed = "decode_failed"

// Payload is the decoded output of an oracle call. It is either structured
// (Value set) or degraded (RawText and Error set). Consumers must check
// Degraded before reading Value.
type Payload struct {
	Value   map[string]interface{}
	RawText string
	Error   string
}

// Structured wraps a decoded JSON object.
func Structured(v map[string]interface{}) Payload {
	if v == nil {
		v = map[string]interface{}{}
	}
	return Payload{Value: v}
}

// Degraded wraps oracle text that could not be decoded.
func Degraded(raw string) Payload {
	return Payload{RawText: raw, Error: DecodeFailed}
}

func (p Payload) Degraded() bool {
	return p.Error != ""
}

// Get returns a top-level field of a structured payload.
func (p Payload) Get(key string) (interface{}, bool) {
	if p.Degraded() || p.Value == nil {
		return nil, false
	}
	v, ok := p.Value[key]
	return v, ok
}

// AsMap renders the payload the way it is serialised.
func (p Payload) AsMap() map[string]interface{} {
	if p.Degraded() {
		return map[string]interface{}{"raw_text": p.RawText, "error": p.Error}
	}
	if p.Value == nil {
		return map[string]interface{}{}
	}
	return p.Value
}

func (p Payload) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.AsMap())
}

func (p *Payload) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*p = Payload{}
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	if marker, ok := m["error"].(string); ok && marker == DecodeFailed {
		raw, _ := m["raw_text"].(string)
		*p = Degraded(raw)
		return nil
	}
	*p = Structured(m)
	return nil
}

// NumberValue resolves a decoded JSON value to a number. It accepts a bare
// number or an object carrying a numeric "value".
func NumberValue(v interface{}) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case map[string]interface{}:
		if n, ok := t["value"].(float64); ok {
			return n, true
		}
	}
	return 0, false
}

// DecodePayload strictly decodes oracle text into a JSON object. Surrounding
// whitespace and one enclosing markdown code fence are tolerated; anything else
// that is not a JSON object degrades to the literal text.
func DecodePayload(text string) Payload {
	body := stripCodeFence(strings.TrimSpace(text))

	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()

	var m map[string]interface{}
	if err := dec.Decode(&m); err != nil || m == nil {
		return Degraded(text)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return Degraded(text)
	}
	return Structured(normalizeNumbers(m).(map[string]interface{}))
}

func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	inner := strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
		lang := strings.TrimSpace(inner[:nl])
		if lang == "" || lang == "json" || lang == "JSON" {
			inner = inner[nl+1:]
		}
	}
	return strings.TrimSpace(inner)
}

// normalizeNumbers turns json.Number into float64 so payload values behave like
// a plain json.Unmarshal result.
func normalizeNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, e := range t {
			t[k] = normalizeNumbers(e)
		}
		return t
	case []interface{}:
		for i, e := range t {
			t[i] = normalizeNumbers(e)
		}
		return t
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	default:
		return v
	}
}
