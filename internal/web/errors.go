package web

// errors.go turns handler errors into responses. The technical error is
// logged with the request ID; the client gets the coded message from
// core.MapError as JSON (API routes) or as an HTML alert (pages).

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/addrconform/internal/core"
	"github.com/JonMunkholm/addrconform/internal/logging"
	"github.com/JonMunkholm/addrconform/internal/objectstore"
	"github.com/JonMunkholm/addrconform/internal/runner"
	"github.com/JonMunkholm/addrconform/internal/store"
	"github.com/JonMunkholm/addrconform/internal/web/templates"
)

var (
	errNoFile       = errors.New("no file provided")
	errFileTooLarge = errors.New("file too large")
	errNoOutput     = errors.New("run has no output")
)

// ErrorResponse is the JSON body of API errors.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
	RunID   string `json:"run_id,omitempty"`
}

// respondError logs err and writes its user-facing form with statusFor(err).
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := core.MapError(err)

	logging.FromContext(r.Context()).Log(r.Context(), logLevel(status), "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", msg.Code,
	)

	if wantsJSON(r) {
		writeJSON(w, status, ErrorResponse{
			Error:   msg.Message,
			Message: msg.Message,
			Action:  msg.Action,
			Code:    msg.Code,
		})
		return
	}
	templ.Handler(templates.ErrorAlert(msg.Message, msg.Action, msg.Code), templ.WithStatus(status)).ServeHTTP(w, r)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	var missingField *core.MissingFieldError
	var missingOut *core.MissingRequiredFieldError

	switch {
	case errors.Is(err, store.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, errNoOutput), errors.Is(err, objectstore.ErrNotFound):
		return http.StatusConflict
	case errors.Is(err, errFileTooLarge), errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errNoFile):
		return http.StatusBadRequest
	case errors.Is(err, runner.ErrTooManyRuns):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, core.ErrMissingConform),
		errors.Is(err, core.ErrUnsupportedSourceType),
		errors.Is(err, core.ErrUnsupportedConfiguration),
		errors.Is(err, core.ErrSourceNotFound),
		errors.Is(err, core.ErrSourceAmbiguous),
		errors.Is(err, core.ErrDecompression),
		errors.As(err, &missingField),
		errors.As(err, &missingOut):
		return http.StatusUnprocessableEntity
	case strings.Contains(err.Error(), "parse source definition"),
		strings.Contains(err.Error(), "invalid csv"),
		strings.Contains(err.Error(), "invalid geojson"),
		strings.Contains(err.Error(), "empty file"):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func logLevel(status int) slog.Level {
	if status >= http.StatusInternalServerError {
		return slog.LevelError
	}
	return slog.LevelWarn
}

// wantsJSON reports whether the client should get a JSON error.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}
