// Package httpx holds the JSON envelope helpers used by every HTTP handler.
package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"placement-portal/backend/internal/platform/apperr"
)

// ErrorBody is the envelope of every failed response.
type ErrorBody struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

// Body is the envelope of every successful response.
type Body struct {
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteData writes a success envelope.
func WriteData(w http.ResponseWriter, status int, message string, data interface{}) {
	WriteJSON(w, status, Body{StatusCode: status, Message: message, Data: data})
}

// WriteError maps err to its kind and writes the error envelope. Internal errors are logged and
// answered with a fixed message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		appErr = apperr.Internal(err)
	}
	status := appErr.Kind.Status()
	if appErr.Kind == apperr.KindInternal {
		log.Printf("http: %s %s: %v", r.Method, r.URL.Path, err)
	}
	WriteJSON(w, status, ErrorBody{StatusCode: status, Message: appErr.Message})
}

// DecodeJSON decodes the request body into out, rejecting unknown fields. Any failure is a
// ValidationError.
func DecodeJSON(r *http.Request, out interface{}) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("Request body is required")
		}
		return apperr.Wrap(apperr.KindValidation, "Malformed request body", err)
	}
	return nil
}

// BearerToken extracts the token from an "Authorization: Bearer <token>" header value.
func BearerToken(header string) string {
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
