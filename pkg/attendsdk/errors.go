package attendsdk

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// DefaultErrorMessage is used when a failed response carries no usable message.
const DefaultErrorMessage = "Request failed"

// Kind classifies a failed call.
type Kind string

const (
	// KindNone marks a successful result.
	KindNone Kind = ""
	// KindNetwork: no response was received.
	KindNetwork Kind = "network"
	// KindAuthorization: the server answered 401 or 403.
	KindAuthorization Kind = "authorization"
	// KindRejected: any other 4xx, including business rule failures such as a double check-in.
	KindRejected Kind = "rejected"
	// KindServer: the server answered 5xx or an unexpected status.
	KindServer Kind = "server"
	// KindDecode: a 2xx response whose body did not match the expected shape.
	KindDecode Kind = "decode"
	// KindRequest: the request could not be built.
	KindRequest Kind = "request"
)

// Error is the typed error behind a failed Result. Error() returns the
// message exactly as the server (or transport) phrased it.
type Error struct {
	// StatusCode is the HTTP status, 0 when no response was received
	StatusCode int

	// Kind classifies the failure
	Kind Kind

	// Message is the user-facing description
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// IsAuthorization reports whether err is an authorization failure from the server.
func IsAuthorization(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindAuthorization
}

// IsNetwork reports whether err means the server was never reached.
func IsNetwork(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindNetwork
}

// kindForStatus maps a non-2xx status to a failure kind.
func kindForStatus(status int) Kind {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return KindAuthorization
	case status >= 400 && status < 500:
		return KindRejected
	default:
		return KindServer
	}
}

// errorMessage extracts the server-supplied message from an error body.
// Fields are checked in priority order: detail, message, error.
func errorMessage(body []byte) string {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(body, &env); err != nil {
		return DefaultErrorMessage
	}

	for _, key := range []string{"detail", "message", "error"} {
		if msg := messageField(env[key]); msg != "" {
			return msg
		}
	}

	return DefaultErrorMessage
}

// messageField reads a message out of a single field. Besides plain strings
// it accepts validation lists such as [{"loc": [...], "msg": "field required"}].
func messageField(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return ""
	}

	msgs := make([]string, 0, len(items))
	for _, item := range items {
		var entry struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(item, &entry); err == nil && entry.Msg != "" {
			msgs = append(msgs, entry.Msg)
			continue
		}
		if err := json.Unmarshal(item, &s); err == nil && s != "" {
			msgs = append(msgs, s)
		}
	}

	return strings.Join(msgs, "; ")
}
