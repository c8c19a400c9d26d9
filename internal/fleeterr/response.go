package fleeterr

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/google/uuid"
)

// Body is the JSON error document sent to clients.
type Body struct {
	Code       string    `json:"code" doc:"Machine readable error code" example:"COLLECTION_NOT_FOUND"`
	Message    string    `json:"message" doc:"Human readable summary"`
	Details    string    `json:"details" doc:"What exactly went wrong"`
	Timestamp  time.Time `json:"timestamp" doc:"When the error occurred (UTC)"`
	URL        string    `json:"url" doc:"The requested URL"`
	Suggestion string    `json:"suggestion" doc:"How to fix the request, if applicable"`
	ErrorID    string    `json:"error_id" doc:"Identifier to correlate this response with server logs"`
	status     int
}

func (b *Body) Error() string {
	return b.Code + ": " + b.Message
}

// GetStatus implements huma.StatusError.
func (b *Body) GetStatus() int {
	return b.status
}

type requestURLKey struct{}

// WithRequestURL stores the request URL so error bodies can echo it.
func WithRequestURL(ctx context.Context, url string) context.Context {
	return context.WithValue(ctx, requestURLKey{}, url)
}

// RequestURL returns the URL stored by WithRequestURL.
func RequestURL(ctx context.Context) string {
	url, _ := ctx.Value(requestURLKey{}).(string)
	return url
}

// RequestURLMiddleware is a huma middleware recording the request URL for
// error bodies.
func RequestURLMiddleware(ctx huma.Context, next func(huma.Context)) {
	u := ctx.URL()
	next(huma.WithValue(ctx, requestURLKey{}, u.String()))
}

// Response converts any error returned by a service into the error body the
// route layer hands back to huma.
func Response(ctx context.Context, err error) huma.StatusError {
	var se huma.StatusError
	if errors.As(err, &se) {
		return se
	}

	fe := &Error{}
	if !errors.As(err, &fe) {
		fe = Internal(err, "unexpected failure")
	}

	body := &Body{
		Code:       string(fe.Code),
		Message:    fe.Message,
		Details:    fe.Details,
		Timestamp:  time.Now().UTC(),
		URL:        RequestURL(ctx),
		Suggestion: fe.Suggestion,
		ErrorID:    uuid.NewString(),
		status:     fe.Kind.Status(),
	}

	if fe.Kind == KindInternal {
		slog.ErrorContext(ctx, "Request failed",
			slog.String("error_id", body.ErrorID),
			slog.String("url", body.URL),
			slog.String("error", err.Error()),
		)
	} else {
		slog.InfoContext(ctx, "Request rejected",
			slog.String("error_id", body.ErrorID),
			slog.String("code", body.Code),
			slog.Int("status", body.status),
			slog.String("details", body.Details),
		)
	}

	return body
}

// InstallHumaErrors makes huma's own errors (request binding, unknown
// routes, panics surfaced by huma) use Body as well.
func InstallHumaErrors() {
	huma.NewError = func(status int, msg string, errs ...error) huma.StatusError {
		details := make([]string, 0, len(errs))
		for _, e := range errs {
			if e != nil {
				details = append(details, e.Error())
			}
		}
		return &Body{
			Code:      string(codeForStatus(status)),
			Message:   msg,
			Details:   strings.Join(details, "; "),
			Timestamp: time.Now().UTC(),
			ErrorID:   uuid.NewString(),
			status:    status,
		}
	}
}

func codeForStatus(status int) Code {
	switch status {
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return CodeInvalidParameter
	case http.StatusUnauthorized:
		return CodeNotAuthenticated
	case http.StatusForbidden:
		return CodeForbidden
	case http.StatusNotFound:
		return CodeNotFound
	case http.StatusConflict:
		return CodeConflict
	default:
		if status >= 500 {
			return CodeServerError
		}
		return CodeInvalidParameter
	}
}
