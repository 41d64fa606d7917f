package attendsdk

import (
	"context"
	"encoding/json"
	"net/http"
)

const (
	pathLogin  = "/auth/login"
	pathLogout = "/auth/logout"
	pathMe     = "/auth/me"
)

// Login exchanges an email (and password, when the deployment uses one) for a
// credential and the user it belongs to.
func (c *SDKClient) Login(ctx context.Context, req LoginRequest) Result[LoginResponse] {
	return Do[LoginResponse](ctx, c, Request{Method: http.MethodPost, Path: pathLogin, Body: req})
}

// Logout tells the server the current credential is no longer in use.
// The response body is ignored.
func (c *SDKClient) Logout(ctx context.Context) Result[json.RawMessage] {
	return Do[json.RawMessage](ctx, c, Request{Method: http.MethodPost, Path: pathLogout})
}

// CurrentUser returns the user the current credential belongs to.
func (c *SDKClient) CurrentUser(ctx context.Context) Result[User] {
	return Do[User](ctx, c, Request{Method: http.MethodGet, Path: pathMe})
}
