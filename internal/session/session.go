// Package session persists the logged-in user's credential and identity
// between runs of the client.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aussiebroadwan/eas/pkg/attendsdk"
)

// Storage keys. Both are written and cleared together.
const (
	KeyToken = "auth_token"
	KeyUser  = "user_data"
)

// ErrMalformed is returned by Decode when stored values do not form a usable
// session. Stores discard such data instead of surfacing it.
var ErrMalformed = errors.New("session: malformed stored session")

// Session is the persisted login state. The zero value means nobody is
// logged in.
type Session struct {
	Credential string
	User       *attendsdk.User
}

// IsZero reports whether s holds neither a credential nor a user.
func (s Session) IsZero() bool {
	return s.Credential == "" && s.User == nil
}

// Valid reports whether s is a complete session: a credential, a user, and
// a role the client knows about.
func (s Session) Valid() bool {
	return s.Credential != "" && s.User != nil && s.User.Role.Valid()
}

// Store is the durable home of the current session.
type Store interface {
	// Save replaces any stored session with s.
	Save(ctx context.Context, s Session) error

	// Load returns the stored session, or the zero Session when nothing usable
	// is stored. Malformed data is discarded rather than returned as an error.
	Load(ctx context.Context) (Session, error)

	// Clear removes the stored session. Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// Encode flattens s into its two storage values.
func Encode(s Session) (map[string]string, error) {
	if !s.Valid() {
		return nil, ErrMalformed
	}

	user, err := json.Marshal(s.User)
	if err != nil {
		return nil, fmt.Errorf("failed to encode user: %w", err)
	}

	return map[string]string{
		KeyToken: s.Credential,
		KeyUser:  string(user),
	}, nil
}

// Decode rebuilds a session from its storage values. No values at all is the
// zero Session; anything incomplete or unparsable is ErrMalformed.
func Decode(values map[string]string) (Session, error) {
	token, user := values[KeyToken], values[KeyUser]
	if token == "" && user == "" {
		return Session{}, nil
	}

	var s Session
	s.Credential = token
	if user != "" {
		var u attendsdk.User
		if err := json.Unmarshal([]byte(user), &u); err != nil {
			return Session{}, ErrMalformed
		}
		s.User = &u
	}

	if !s.Valid() {
		return Session{}, ErrMalformed
	}
	return s, nil
}
