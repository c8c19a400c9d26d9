package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go-fleetdata/internal/fleeterr"

	"github.com/stretchr/testify/assert"
)

func TestAPIKeyAuth(t *testing.T) {
	auth := NewAPIKeyAuth("s3cret")

	tests := []struct {
		name   string
		header string
		kind   fleeterr.Kind
		ok     bool
	}{
		{"valid", "s3cret", 0, true},
		{"surrounding space", " s3cret ", 0, true},
		{"missing", "", fleeterr.KindNotAuthenticated, false},
		{"wrong", "guess", fleeterr.KindForbidden, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := auth.Authorize(tt.header)
			if tt.ok {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.kind)
		})
	}
}

func TestAPIKeyAuthDisabled(t *testing.T) {
	assert.False(t, NewAPIKeyAuth("  ").Enabled())
	assert.NoError(t, NewAPIKeyAuth("").Authorize(""))

	var nilAuth *APIKeyAuth
	assert.NoError(t, nilAuth.Authorize("anything"))
}

func TestRequestLoggerKeepsStatus(t *testing.T) {
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
