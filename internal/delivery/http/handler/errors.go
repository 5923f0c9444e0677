package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"rescue-id/internal/usecase"
	"rescue-id/pkg/response"
)

const maxBodyBytes = 256 << 10

// decodeJSON treats an empty body as an empty object so missing fields are
// reported by validation.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeDecodeError(w http.ResponseWriter, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		response.PayloadTooLarge(w)
		return
	}
	response.BadRequest(w, "Invalid request body")
}

// writeError maps usecase errors to status codes. Unknown errors have
// already been logged by the usecase and are reported without detail.
func writeError(w http.ResponseWriter, err error) {
	var validationErr *usecase.ValidationError
	if errors.As(err, &validationErr) {
		response.ValidationError(w, validationErr.Message, validationErr.Fields)
		return
	}

	switch {
	case errors.Is(err, usecase.ErrPasswordMismatch):
		response.BadRequest(w, "Passwords do not match")
	case errors.Is(err, usecase.ErrWeakPassword):
		response.BadRequest(w, "Password must be at least 6 characters")
	case errors.Is(err, usecase.ErrEmailAlreadyRegistered):
		response.BadRequest(w, "Email already registered")
	case errors.Is(err, usecase.ErrInvalidCredentials):
		response.Unauthorized(w, "Invalid credentials")
	case errors.Is(err, usecase.ErrProfileNotFound):
		response.NotFound(w, "Emergency profile not found")
	case errors.Is(err, usecase.ErrStorageConflict):
		response.Conflict(w, "Could not allocate a unique identifier, please retry")
	default:
		response.InternalServerError(w, "")
	}
}
