package payment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"gorm.io/datatypes"
)

// RawPayload is a provider payload kept verbatim for audit, in arrival order.
// Values are stored as JSON fragments.
type RawPayload struct {
	keys   []string
	values map[string]json.RawMessage
}

func NewRawPayload() *RawPayload {
	return &RawPayload{values: make(map[string]json.RawMessage)}
}

// Set stores v under k, keeping the first position of k.
func (p *RawPayload) Set(k string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		data = []byte("null")
	}
	p.setRaw(k, data)
}

func (p *RawPayload) setRaw(k string, raw json.RawMessage) {
	if _, ok := p.values[k]; !ok {
		p.keys = append(p.keys, k)
	}
	p.values[k] = raw
}

func (p *RawPayload) Keys() []string {
	return append([]string(nil), p.keys...)
}

// String renders a scalar value as text: strings unquoted, numbers and bools
// as written, null and missing keys as "".
func (p *RawPayload) String(k string) string {
	raw, ok := p.values[k]
	if !ok {
		return ""
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}

// Strings flattens every value with String.
func (p *RawPayload) Strings() map[string]string {
	out := make(map[string]string, len(p.keys))
	for _, k := range p.keys {
		out[k] = p.String(k)
	}
	return out
}

func (p *RawPayload) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range p.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(p.values[k])
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// JSON returns the payload as a column value.
func (p *RawPayload) JSON() datatypes.JSON {
	data, err := p.MarshalJSON()
	if err != nil {
		return datatypes.JSON("{}")
	}
	return datatypes.JSON(data)
}

// RawFromJSON decodes a top-level JSON object preserving key order.
func RawFromJSON(body []byte) (*RawPayload, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, fmt.Errorf("payload is not a JSON object")
	}

	p := NewRawPayload()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		p.setRaw(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return p, nil
}

// RawFromQuery decodes a raw query string preserving parameter order.
// Repeated keys keep their first value.
func RawFromQuery(rawQuery string) *RawPayload {
	p := NewRawPayload()
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(k)
		if err != nil {
			key = k
		}
		if _, seen := p.values[key]; seen {
			continue
		}
		val, err := url.QueryUnescape(v)
		if err != nil {
			val = v
		}
		p.Set(key, val)
	}
	return p
}
