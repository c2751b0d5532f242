package backend

import (
	"encoding/json"
	"strconv"

	"github.com/mitchellh/mapstructure"
)

// Envelope is a decoded backend response body. The API is inconsistent about
// where it puts payload fields: the same field may live under "response",
// under "data", at the top level, or one level deeper in either wrapper.
// All of that fallback logic lives here and nowhere else.
type Envelope map[string]interface{}

// ParseEnvelope decodes a response body. A top-level JSON array is wrapped
// under "response" so list endpoints go through the same lookup path.
func ParseEnvelope(b []byte) Envelope {
	var obj map[string]interface{}
	if err := json.Unmarshal(b, &obj); err == nil {
		return obj
	}

	var arr []interface{}
	if err := json.Unmarshal(b, &arr); err == nil {
		return Envelope{"response": arr}
	}

	return Envelope{}
}

// Lookup finds a payload field. Order: response.<name>, data.<name>,
// <name>, response.data.<name>, data.response.<name>.
func (e Envelope) Lookup(name string) (interface{}, bool) {
	if e == nil {
		return nil, false
	}

	containers := []map[string]interface{}{
		e.child("response"),
		e.child("data"),
		e,
	}
	if r := e.child("response"); r != nil {
		containers = append(containers, Envelope(r).child("data"))
	}
	if d := e.child("data"); d != nil {
		containers = append(containers, Envelope(d).child("response"))
	}

	for _, c := range containers {
		if c == nil {
			continue
		}
		if v, ok := c[name]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func (e Envelope) child(name string) map[string]interface{} {
	m, _ := e[name].(map[string]interface{})
	return m
}

func (e Envelope) String(name string) string {
	v, ok := e.Lookup(name)
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Float reads a numeric field, accepting both JSON numbers and numeric
// strings (the API mixes them freely).
func (e Envelope) Float(name string) (float64, bool) {
	v, ok := e.Lookup(name)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

// Text reads a field that may arrive as a string or a number and returns
// its textual form.
func (e Envelope) Text(name string) string {
	if s := e.String(name); s != "" {
		return s
	}
	if f, ok := e.Float(name); ok {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return ""
}

func (e Envelope) Bool(name string) bool {
	v, ok := e.Lookup(name)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Decode maps a payload field onto a typed struct or slice. Weakly typed:
// "5" decodes into a float field, 5 into a string field.
func (e Envelope) Decode(name string, out interface{}) bool {
	v, ok := e.Lookup(name)
	if !ok {
		return false
	}

	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return false
	}
	return dec.Decode(v) == nil
}
