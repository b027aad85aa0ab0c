package types

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
)

// Request methods accepted by Transport.
const (
	MethodGet    = http.MethodGet
	MethodPost   = http.MethodPost
	MethodPatch  = http.MethodPatch
	MethodDelete = http.MethodDelete
)

// Transport performs a request against the HR API and returns the data member
// of the response envelope. A bodyless success is returned as JSON true; an
// empty data member as JSON null.
//
// For GET and DELETE, body is sent as query parameters.
// Failures are reported as *TransportError.
type Transport interface {
	Request(ctx context.Context, method, path string, body any) (json.RawMessage, error)
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, method, path string, body any) (json.RawMessage, error)

func (f TransportFunc) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	return f(ctx, method, path, body)
}

// IsEmptyData reports whether data carries no record: absent, JSON null, a
// boolean, or an empty object. Whitespace is ignored.
func IsEmptyData(data json.RawMessage) bool {
	var buf bytes.Buffer
	if err := json.Compact(&buf, data); err != nil {
		buf.Reset()
		buf.Write(bytes.TrimSpace(data))
	}
	switch buf.String() {
	case "", "null", "true", "false", "{}":
		return true
	}
	return false
}
