package attendsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// maxBodySize caps how much of a response body is read.
const maxBodySize = 4 << 20

// Request describes one call to the attendance service.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any // JSON-encoded when non-nil
}

// Result is the uniform outcome of a call. Exactly one of Data (on success)
// or Error (on failure) is meaningful.
type Result[T any] struct {
	Success bool
	Data    T

	// Message is the optional informational message of a successful envelope
	Message string

	// Error is the failure description, verbatim from the server when it sent one
	Error string

	StatusCode int
	Kind       Kind
}

// Err returns nil on success and a *Error describing the failure otherwise.
func (r Result[T]) Err() error {
	if r.Success {
		return nil
	}
	return &Error{StatusCode: r.StatusCode, Kind: r.Kind, Message: r.Error}
}

// Value returns the payload and Err() together, for callers that prefer the
// usual Go shape.
func (r Result[T]) Value() (T, error) {
	return r.Data, r.Err()
}

func failure[T any](status int, kind Kind, msg string) Result[T] {
	return Result[T]{StatusCode: status, Kind: kind, Error: msg}
}

// Do sends r and normalises the outcome into a Result.
//
// The stored credential is attached as a bearer token when present. A non-2xx
// answer becomes a failure carrying the server's detail, message or error
// field (in that order), a missing response becomes a failure carrying the
// transport error, and a 2xx body is unwrapped from its "data" field when it
// has one.
func Do[T any](ctx context.Context, c *SDKClient, r Request) Result[T] {
	resp, fail := c.send(ctx, r)
	if fail != nil {
		return failure[T](fail.StatusCode, fail.Kind, fail.Message)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return failure[T](resp.StatusCode, KindNetwork, transportMessage(err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return failure[T](resp.StatusCode, kindForStatus(resp.StatusCode), errorMessage(body))
	}

	payload, message := unwrapEnvelope(body)

	res := Result[T]{Success: true, Message: message, StatusCode: resp.StatusCode}
	if len(payload) == 0 {
		return res
	}

	if err := json.Unmarshal(payload, &res.Data); err != nil {
		return failure[T](resp.StatusCode, KindDecode, fmt.Sprintf("failed to decode response: %v", err))
	}

	return res
}

// send builds and performs the HTTP request.
func (c *SDKClient) send(ctx context.Context, r Request) (*http.Response, *Error) {
	var body io.Reader
	if r.Body != nil {
		buf, err := json.Marshal(r.Body)
		if err != nil {
			return nil, &Error{Kind: KindRequest, Message: fmt.Sprintf("failed to marshal request: %v", err)}
		}
		body = bytes.NewReader(buf)
	}

	target := c.url(r.Path)
	if len(r.Query) > 0 {
		target += "?" + r.Query.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, target, body)
	if err != nil {
		return nil, &Error{Kind: KindRequest, Message: fmt.Sprintf("failed to create request: %v", err)}
	}

	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token := c.credential(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: transportMessage(err)}
	}

	return resp, nil
}

// transportMessage describes a transport failure without the method and URL
// prefix that *url.Error adds.
func transportMessage(err error) string {
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != nil {
		return urlErr.Err.Error()
	}
	return err.Error()
}

// unwrapEnvelope returns the payload of a success body and the envelope's
// message, if any. An object with a non-null "data" field yields that field;
// anything else is its own payload.
func unwrapEnvelope(body []byte) (json.RawMessage, string) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return body, ""
	}

	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return body, ""
	}

	var message string
	if raw, ok := env["message"]; ok {
		_ = json.Unmarshal(raw, &message)
	}

	if data, ok := env["data"]; ok && !bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return data, message
	}

	return body, message
}
