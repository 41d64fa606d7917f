// Package jwtx reads claims out of bearer credentials for display.
//
// The client never holds the server's signing key, so nothing here verifies
// a signature or enforces expiry. Session validity is decided by the server
// alone; these helpers only let a user see what their credential says.
package jwtx

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrMalformed is returned for credentials that are not a JWT at all.
// Opaque tokens are legal credentials; callers should treat this as
// "nothing to show" rather than a failure.
var ErrMalformed = errors.New("jwtx: malformed token")

// Claims is the subset of registered claims worth showing to a user.
type Claims struct {
	Subject   string
	Issuer    string
	IssuedAt  *time.Time
	ExpiresAt *time.Time
}

// Inspect decodes the claims of a JWT without verifying its signature.
func Inspect(token string) (Claims, error) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return Claims{}, ErrMalformed
	}

	var c Claims
	c.Subject = subjectString(mc["sub"])
	c.Issuer, _ = mc.GetIssuer()

	if exp, err := mc.GetExpirationTime(); err == nil && exp != nil {
		t := exp.UTC()
		c.ExpiresAt = &t
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		t := iat.UTC()
		c.IssuedAt = &t
	}

	return c, nil
}

// Expired reports whether the exp claim lies before now. Informational only.
func (c Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(*c.ExpiresAt)
}

// subjectString accepts both string and numeric "sub" values; some servers
// put the employee's integer id there.
func subjectString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}
