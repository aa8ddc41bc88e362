package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
)

// Envelope is the inbound POST body: the JSON object to send upstream and the
// query parameters to attach to the upstream URL.
type Envelope struct {
	RequestBody json.RawMessage `json:"request_body"`
	QueryParams map[string]any  `json:"query_params"`
}

// ParseEnvelope decodes and validates an inbound POST body. request_body is
// required and must be a JSON object; query_params defaults to empty.
// Numbers in query_params keep their literal text.
func ParseEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidBody, err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after JSON object", ErrInvalidBody)
	}
	if len(env.RequestBody) == 0 || bytes.Equal(env.RequestBody, []byte("null")) {
		return nil, fmt.Errorf("%w: request_body is required", ErrInvalidBody)
	}
	if trimmed := bytes.TrimSpace(env.RequestBody); len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, fmt.Errorf("%w: request_body must be a JSON object", ErrInvalidBody)
	}
	for key, v := range env.QueryParams {
		if !queryValueOK(v) {
			return nil, fmt.Errorf("%w: query_params.%s must be a scalar or a list of scalars", ErrInvalidBody, key)
		}
	}
	return &env, nil
}

// Query converts QueryParams to url.Values. Scalars are stringified, lists
// become repeated parameters and null values are dropped.
func (e *Envelope) Query() url.Values {
	q := make(url.Values, len(e.QueryParams))
	for k, val := range e.QueryParams {
		switch v := val.(type) {
		case []any:
			for _, item := range v {
				if s, ok := scalarString(item); ok {
					q.Add(k, s)
				}
			}
		default:
			if s, ok := scalarString(v); ok {
				q.Add(k, s)
			}
		}
	}
	return q
}

func queryValueOK(v any) bool {
	if list, ok := v.([]any); ok {
		for _, item := range list {
			if _, isList := item.([]any); isList {
				return false
			}
			if _, isMap := item.(map[string]any); isMap {
				return false
			}
		}
		return true
	}
	_, isMap := v.(map[string]any)
	return !isMap
}

func scalarString(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", false
	case string:
		return s, true
	case bool:
		// Capitalized, as the upstream has always received them.
		if s {
			return "True", true
		}
		return "False", true
	case json.Number:
		return s.String(), true
	default:
		return fmt.Sprint(s), true
	}
}
