package middleware

import (
	"crypto/subtle"
	"strings"

	"go-fleetdata/internal/fleeterr"
)

// APIKeyAuth guards write operations with a single root API key.
type APIKeyAuth struct {
	key string
}

// NewAPIKeyAuth creates the guard. An empty key leaves every operation open.
func NewAPIKeyAuth(key string) *APIKeyAuth {
	return &APIKeyAuth{key: strings.TrimSpace(key)}
}

// Enabled reports whether a key is configured.
func (a *APIKeyAuth) Enabled() bool {
	return a != nil && a.key != ""
}

// Authorize checks the value of the Authorization header.
func (a *APIKeyAuth) Authorize(header string) error {
	if !a.Enabled() {
		return nil
	}

	header = strings.TrimSpace(header)
	if header == "" {
		return fleeterr.New(fleeterr.KindNotAuthenticated, fleeterr.CodeNotAuthenticated, "Not authenticated").
			WithSuggestion("Provide the API key in the Authorization header.")
	}
	if subtle.ConstantTimeCompare([]byte(header), []byte(a.key)) != 1 {
		return fleeterr.New(fleeterr.KindForbidden, fleeterr.CodeForbidden, "Forbidden").
			WithSuggestion("The API key provided is not valid for this operation.")
	}
	return nil
}
