package fleeterr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindSentinels(t *testing.T) {
	err := fmt.Errorf("saving collection: %w", Conflict(CodeNonUniqueTimestamp, "duplicate"))

	assert.True(t, errors.Is(err, KindConflict))
	assert.False(t, errors.Is(err, KindNotFound))
	assert.Equal(t, KindConflict, KindOf(err))
	assert.Equal(t, KindInternal, KindOf(errors.New("boom")))
}

func TestKindStatus(t *testing.T) {
	tests := []struct {
		kind Kind
		want int
	}{
		{KindSchemaValidation, http.StatusUnprocessableEntity},
		{KindSchemaVersionMismatch, http.StatusUnprocessableEntity},
		{KindUnsupportedSchema, http.StatusUnprocessableEntity},
		{KindValidation, http.StatusUnprocessableEntity},
		{KindNotFound, http.StatusNotFound},
		{KindConflict, http.StatusConflict},
		{KindNotAuthenticated, http.StatusUnauthorized},
		{KindForbidden, http.StatusForbidden},
		{KindInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.kind.Error(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.kind.Status())
		})
	}
}

func TestErrorMessageAndUnwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := Internal(cause, "loading collection %d", 7)

	assert.Contains(t, err.Error(), "loading collection 7")
	assert.Contains(t, err.Error(), "connection reset")
	assert.ErrorIs(t, err, cause)
}

func TestWithSuggestionCopies(t *testing.T) {
	base := SchemaValidation("the fleet at index %d is missing one or more values", 3)
	withHint := base.WithSuggestion("add the missing values")

	assert.Equal(t, "add the missing values", withHint.Suggestion)
	assert.NotEqual(t, base.Suggestion, withHint.Suggestion)
	assert.Equal(t, "the fleet at index 3 is missing one or more values", withHint.Details)
}

func TestResponse(t *testing.T) {
	ctx := WithRequestURL(context.Background(), "http://localhost/collections/5")

	t.Run("classified error", func(t *testing.T) {
		se := Response(ctx, fmt.Errorf("wrapped: %w", CollectionNotFound(5)))
		require.Equal(t, http.StatusNotFound, se.GetStatus())

		body, ok := se.(*Body)
		require.True(t, ok)
		assert.Equal(t, string(CodeCollectionNotFound), body.Code)
		assert.Equal(t, "http://localhost/collections/5", body.URL)
		assert.NotEmpty(t, body.ErrorID)
		assert.NotEmpty(t, body.Suggestion)
		assert.False(t, body.Timestamp.IsZero())
	})

	t.Run("unclassified error", func(t *testing.T) {
		se := Response(ctx, errors.New("disk full"))
		assert.Equal(t, http.StatusInternalServerError, se.GetStatus())
		assert.Equal(t, string(CodeServerError), se.(*Body).Code)
	})

	t.Run("huma error passes through", func(t *testing.T) {
		se := Response(ctx, huma.Error400BadRequest("bad"))
		assert.Equal(t, http.StatusBadRequest, se.GetStatus())
	})
}

func TestInstallHumaErrors(t *testing.T) {
	previous := huma.NewError
	t.Cleanup(func() { huma.NewError = previous })

	InstallHumaErrors()

	se := huma.NewError(http.StatusUnprocessableEntity, "validation failed", &huma.ErrorDetail{Message: "expected integer", Location: "query.take"})
	body, ok := se.(*Body)
	require.True(t, ok)
	assert.Equal(t, string(CodeInvalidParameter), body.Code)
	assert.Contains(t, body.Details, "expected integer")
	assert.Equal(t, http.StatusUnprocessableEntity, body.GetStatus())
}
