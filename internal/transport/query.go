package transport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
)

// queryParams flattens a request body into query parameters. Slices are
// joined with commas; nil, empty strings and empty slices are dropped.
func queryParams(body any) (url.Values, error) {
	if v, ok := body.(url.Values); ok {
		return v, nil
	}
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode query: %w", err)
	}
	var fields map[string]any
	dec := json.NewDecoder(bytes.NewReader(buf))
	dec.UseNumber()
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("query parameters must be an object: %w", err)
	}
	q := make(url.Values, len(fields))
	for k, v := range fields {
		if s, ok := queryValue(v); ok {
			q.Set(k, s)
		}
	}
	return q, nil
}

func queryValue(v any) (string, bool) {
	switch x := v.(type) {
	case nil:
		return "", false
	case string:
		return x, x != ""
	case json.Number:
		return x.String(), true
	case bool:
		if x {
			return "true", true
		}
		return "false", true
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			if s, ok := queryValue(item); ok {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ","), len(parts) > 0
	}
	buf, err := json.Marshal(v)
	if err != nil {
		return "", false
	}
	return string(buf), true
}
