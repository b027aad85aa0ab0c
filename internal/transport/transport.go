// Package transport implements types.Transport over HTTP.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mesh-intelligence/hrentities/pkg/types"
)

// Request headers understood by the HR API.
const (
	HeaderCompany       = "x-subscribehr-company"
	HeaderSecurityGroup = "x-subscribehr-security-group"
	HeaderRequestID     = "X-Request-ID"
)

// Config identifies the API and the caller.
type Config struct {
	BaseURL       string
	Version       string
	Token         string
	InstanceCode  string
	SecurityGroup int
	Timeout       time.Duration
}

// ConfigFrom extracts the transport settings from a client config.
func ConfigFrom(c types.Config) Config {
	return Config{
		BaseURL:       c.APIURL,
		Version:       c.APIVersion,
		Token:         c.APIToken,
		InstanceCode:  c.InstanceCode,
		SecurityGroup: c.SecurityGroup,
		Timeout:       c.Timeout,
	}
}

// Client sends requests to the HR API. It does not retry.
type Client struct {
	cfg  Config
	http *http.Client
	log  *logrus.Entry
}

// New returns a Client. A nil log uses the standard logrus logger.
func New(cfg Config, log *logrus.Entry) *Client {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
		log:  log.WithField("component", "transport"),
	}
}

// URL returns the absolute URL for path. Paths that already carry a scheme
// and host are used as given.
func (c *Client) URL(path string) string {
	if strings.Contains(path, "//") {
		return path
	}
	return strings.TrimRight(c.cfg.BaseURL, "/") + "/" + c.cfg.Version + path
}

// Request performs the call and returns the data member of the response
// envelope. A non-GET success with an empty body or an empty object returns
// JSON true. Failures are *types.TransportError.
func (c *Client) Request(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	req, err := c.newRequest(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	reqID := req.Header.Get(HeaderRequestID)
	fields := logrus.Fields{
		"method":     method,
		"path":       path,
		"request_id": reqID,
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	fields["duration"] = time.Since(start).String()
	if err != nil {
		c.log.WithFields(fields).WithError(err).Warn("request failed")
		return nil, &types.TransportError{Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	fields["status"] = resp.StatusCode
	if err != nil {
		c.log.WithFields(fields).WithError(err).Warn("reading response failed")
		return nil, &types.TransportError{Status: resp.StatusCode, Method: method, Path: path, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.WithFields(fields).Warn("request returned error status")
		return nil, &types.TransportError{Status: resp.StatusCode, Method: method, Path: path, Body: raw}
	}
	c.log.WithFields(fields).Debug("request succeeded")

	data, err := unwrap(method, raw)
	if err != nil {
		return nil, &types.TransportError{Status: resp.StatusCode, Method: method, Path: path, Body: raw, Err: err}
	}
	return data, nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body any) (*http.Request, error) {
	u, err := url.Parse(c.URL(path))
	if err != nil {
		return nil, &types.TransportError{Method: method, Path: path, Err: err}
	}

	var payload io.Reader
	if body != nil {
		if method == types.MethodGet || method == types.MethodDelete {
			q, err := queryParams(body)
			if err != nil {
				return nil, &types.TransportError{Method: method, Path: path, Err: err}
			}
			if len(q) > 0 {
				u.RawQuery = q.Encode()
			}
		} else {
			buf, err := json.Marshal(body)
			if err != nil {
				return nil, &types.TransportError{Method: method, Path: path, Err: fmt.Errorf("encode body: %w", err)}
			}
			payload = bytes.NewReader(buf)
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), payload)
	if err != nil {
		return nil, &types.TransportError{Method: method, Path: path, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.cfg.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	}
	req.Header.Set(HeaderCompany, c.cfg.InstanceCode)
	req.Header.Set(HeaderSecurityGroup, strconv.Itoa(c.cfg.SecurityGroup))
	req.Header.Set(HeaderRequestID, newRequestID())
	return req, nil
}

func newRequestID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// unwrap extracts the data member of a response envelope.
func unwrap(method string, raw []byte) (json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return emptyResult(method), nil
	}
	if trimmed[0] != '{' {
		if !json.Valid(trimmed) {
			return nil, errors.New("response is not JSON")
		}
		return json.RawMessage(trimmed), nil
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if len(envelope) == 0 {
		return emptyResult(method), nil
	}
	data, ok := envelope["data"]
	if !ok {
		return json.RawMessage("null"), nil
	}
	return data, nil
}

func emptyResult(method string) json.RawMessage {
	if method == types.MethodGet {
		return json.RawMessage("null")
	}
	return json.RawMessage("true")
}
