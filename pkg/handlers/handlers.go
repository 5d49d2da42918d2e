// Package handlers provides HTTP response utilities for JSON APIs.
// These stateless functions standardize response formatting across handlers.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/JaimeStill/job-board/pkg/notify"
	"github.com/JaimeStill/job-board/pkg/validation"
)

// ErrorBody is the JSON shape of every error response. Notification is
// ready for the client to display as is.
type ErrorBody struct {
	Error        string                  `json:"error"`
	Notification notify.Notification     `json:"notification"`
	Fields       []validation.FieldError `json:"fields,omitempty"`
}

// ErrEmptyBody is returned by DecodeObject when the body is missing or null.
var ErrEmptyBody = errors.New("request body must be a JSON object")

// DecodeObject decodes the request body as a JSON object. A missing or
// null body yields ErrEmptyBody, so callers always receive a non-nil map.
func DecodeObject(r *http.Request) (map[string]any, error) {
	var data map[string]any
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrEmptyBody
		}
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if data == nil {
		return nil, ErrEmptyBody
	}
	return data, nil
}

// RespondJSON writes a JSON response with the given status code and data.
// It sets the Content-Type header to application/json.
func RespondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// RespondError logs the error and writes an ErrorBody whose notification
// is titled with the status text.
func RespondError(w http.ResponseWriter, logger *slog.Logger, status int, err error) {
	RespondNotice(w, logger, status, err, notify.Errorf(http.StatusText(status), err.Error()))
}

// RespondNotice logs the error and writes an ErrorBody carrying n.
func RespondNotice(w http.ResponseWriter, logger *slog.Logger, status int, err error, n notify.Notification) {
	level := slog.LevelError
	if status < http.StatusInternalServerError {
		level = slog.LevelWarn
	}
	logger.Log(context.Background(), level, "handler error", "error", err, "status", status)

	RespondJSON(w, status, ErrorBody{
		Error:        err.Error(),
		Notification: n,
		Fields:       validation.Fields(err),
	})
}
