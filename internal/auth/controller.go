// Package auth owns the login state of the client.
//
// A Controller starts in StateLoading, validates whatever session the store
// holds, and from then on moves between StateUnauthenticated and
// StateAuthenticated through Login and Logout. It is the only writer of the
// session store.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/aussiebroadwan/eas/internal/policy"
	"github.com/aussiebroadwan/eas/internal/session"
	"github.com/aussiebroadwan/eas/pkg/attendsdk"
	"github.com/aussiebroadwan/eas/pkg/cryptox"
	"github.com/aussiebroadwan/eas/pkg/jwtx"
	"github.com/aussiebroadwan/eas/pkg/slogx"
)

// LoginFailedMessage is reported when the server accepts a login but its
// response lacks a credential or a usable user.
const LoginFailedMessage = "Login failed"

// ErrNotAuthenticated is returned by accessors that need a logged-in user.
var ErrNotAuthenticated = errors.New("auth: not authenticated")

// State is the controller's position in the login state machine.
type State string

const (
	StateLoading         State = "loading"
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticated   State = "authenticated"
)

// ValidationMode selects how a stored session is checked at Start.
type ValidationMode string

const (
	// ValidateCache trusts the cached user record as is.
	ValidateCache ValidationMode = "cache"
	// ValidateRemote asks the server who the stored credential belongs to.
	ValidateRemote ValidationMode = "remote"
)

// ParseValidationMode parses "cache" or "remote" (case-insensitive).
func ParseValidationMode(s string) (ValidationMode, error) {
	switch ValidationMode(strings.ToLower(strings.TrimSpace(s))) {
	case ValidateCache:
		return ValidateCache, nil
	case ValidateRemote:
		return ValidateRemote, nil
	default:
		return "", fmt.Errorf("unknown validation mode %q (want cache or remote)", s)
	}
}

// Credentials are what the user types to log in. Password is optional for
// deployments that identify users by email alone.
type Credentials struct {
	Email    string
	Password string
}

// Controller orchestrates login and logout. It is safe for concurrent use.
type Controller struct {
	store  session.Store
	client *attendsdk.SDKClient
	mode   ValidationMode

	mu    sync.RWMutex
	state State
	sess  session.Session
}

// NewController returns a controller in StateLoading. Call Start before use.
func NewController(store session.Store, client *attendsdk.SDKClient, mode ValidationMode) *Controller {
	if mode == "" {
		mode = ValidateCache
	}
	return &Controller{
		store:  store,
		client: client,
		mode:   mode,
		state:  StateLoading,
	}
}

// Start loads the stored session and validates it.
//
// With ValidateRemote an authorization failure from the server clears the
// store; any other failure leaves the stored session in place for the next
// run and is returned after the controller settles in StateUnauthenticated.
func (c *Controller) Start(ctx context.Context) error {
	l := slogx.FromContext(ctx)

	s, err := c.store.Load(ctx)
	if err != nil {
		c.set(StateUnauthenticated, session.Session{})
		return fmt.Errorf("failed to load session: %w", err)
	}

	if s.IsZero() {
		c.set(StateUnauthenticated, session.Session{})
		return nil
	}

	if !s.Valid() {
		l.Debug("discarding malformed session")
		c.set(StateUnauthenticated, session.Session{})
		return c.store.Clear(ctx)
	}

	if c.mode == ValidateCache {
		c.set(StateAuthenticated, s)
		return nil
	}

	res := c.as(s.Credential).CurrentUser(ctx)
	if !res.Success {
		c.set(StateUnauthenticated, session.Session{})

		if res.Kind == attendsdk.KindAuthorization {
			l.Info("stored session rejected by server", slog.Int("status", res.StatusCode))
			return c.store.Clear(ctx)
		}

		l.Warn("could not validate stored session", slog.String("error", res.Error))
		return res.Err()
	}

	user := res.Data
	if !user.Role.Valid() {
		l.Info("server returned unknown role, discarding session", slog.String("role", string(user.Role)))
		c.set(StateUnauthenticated, session.Session{})
		return c.store.Clear(ctx)
	}

	s.User = &user
	if err := c.store.Save(ctx, s); err != nil {
		c.set(StateUnauthenticated, session.Session{})
		return fmt.Errorf("failed to save session: %w", err)
	}

	c.set(StateAuthenticated, s)
	return nil
}

// Login authenticates with the server and persists the resulting session.
// A rejected login returns the server's message verbatim and leaves the
// controller's state unchanged.
func (c *Controller) Login(ctx context.Context, creds Credentials) error {
	l := slogx.FromContext(ctx)

	res := c.as("").Login(ctx, attendsdk.LoginRequest{
		Email:    strings.TrimSpace(creds.Email),
		Password: creds.Password,
	})
	if !res.Success {
		c.settle()
		l.Info("login rejected", slog.Int("status", res.StatusCode), slog.String("kind", string(res.Kind)))
		return res.Err()
	}

	s := session.Session{Credential: res.Data.Credential(), User: res.Data.User}
	if !s.Valid() {
		c.settle()
		return &attendsdk.Error{StatusCode: res.StatusCode, Kind: attendsdk.KindDecode, Message: LoginFailedMessage}
	}

	if err := c.store.Save(ctx, s); err != nil {
		c.settle()
		return fmt.Errorf("failed to save session: %w", err)
	}

	c.set(StateAuthenticated, s)

	l.Info("login succeeded",
		slog.Int64("user_id", s.User.ID),
		slog.String("role", string(s.User.Role)),
		slog.String("credential", cryptox.FingerprintToken(s.Credential)),
	)
	return nil
}

// Logout notifies the server and clears the local session. The server call
// is best effort: its failure is logged and never prevents clearing.
func (c *Controller) Logout(ctx context.Context) error {
	l := slogx.FromContext(ctx)

	if cred := c.Credential(); cred != "" {
		if res := c.as(cred).Logout(ctx); !res.Success {
			l.Warn("server logout failed", slog.String("error", res.Error), slog.String("kind", string(res.Kind)))
		}
	}

	c.set(StateUnauthenticated, session.Session{})

	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// User returns a copy of the logged-in user, or nil.
func (c *Controller) User() *attendsdk.User {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.sess.User == nil {
		return nil
	}
	u := *c.sess.User
	return &u
}

// Session returns a copy of the current session.
func (c *Controller) Session() session.Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s := c.sess
	if s.User != nil {
		u := *s.User
		s.User = &u
	}
	return s
}

// Credential implements attendsdk.CredentialSource.
func (c *Controller) Credential() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sess.Credential
}

// IsAdmin reports whether the current user is an admin or hr.
func (c *Controller) IsAdmin() bool {
	u := c.User()
	return u != nil && policy.IsAdmin(u.Role)
}

// IsEmployee reports whether the current user is a plain employee.
func (c *Controller) IsEmployee() bool {
	u := c.User()
	return u != nil && policy.IsEmployee(u.Role)
}

// CredentialInfo returns the unverified claims of the current credential.
// Opaque credentials yield jwtx.ErrMalformed.
func (c *Controller) CredentialInfo() (jwtx.Claims, error) {
	cred := c.Credential()
	if cred == "" {
		return jwtx.Claims{}, ErrNotAuthenticated
	}
	return jwtx.Inspect(cred)
}

func (c *Controller) set(state State, s session.Session) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = state
	c.sess = s
}

// settle leaves StateLoading for StateUnauthenticated and keeps any other state.
func (c *Controller) settle() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state == StateLoading {
		c.state = StateUnauthenticated
	}
}

// as returns a client that sends credential instead of the current session's.
func (c *Controller) as(credential string) *attendsdk.SDKClient {
	client := *c.client
	client.Credentials = attendsdk.StaticCredential(credential)
	return &client
}
