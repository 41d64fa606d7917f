package httpx

import (
	"encoding/json"
	"net/http"
)

// WriteJSON writes v as an uncacheable JSON response with the given status
// code. The test doubles of the attendance service answer through it.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// BearerToken extracts the token from an "Authorization: Bearer" header.
// Returns "" when the header is missing or uses another scheme.
func BearerToken(r *http.Request) string {
	const prefix = "Bearer "

	authz := r.Header.Get("Authorization")
	if len(authz) <= len(prefix) || authz[:len(prefix)] != prefix {
		return ""
	}
	return authz[len(prefix):]
}
