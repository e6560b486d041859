package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/mkrupp/instalite/internal/domain"
)

const internalErrorMessage = "Internal server error."

var (
	// ErrInvalidID is returned when a path id is not a positive integer.
	ErrInvalidID = fmt.Errorf("%w: invalid id", domain.ErrValidation)
	// ErrInvalidBody is returned when a request body is not valid JSON.
	ErrInvalidBody = fmt.Errorf("%w: invalid request body", domain.ErrValidation)
)

// WriteJSON writes v as the JSON response body with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) error {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode response: %w", err)
	}

	return nil
}

// WriteError writes an {"error": message} body with the given status code.
func WriteError(w http.ResponseWriter, status int, message string) {
	_ = WriteJSON(w, status, domain.ErrorResponse{Error: message})
}

// StatusFor maps an error to its HTTP status code and user-facing message.
// Errors of unknown kind are reported as 500 without any detail.
func StatusFor(err error) (int, string) {
	var status int

	switch {
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrConflict):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	default:
		return http.StatusInternalServerError, internalErrorMessage
	}

	message := domain.Message(err)

	switch {
	case message != "":
	case errors.Is(err, ErrInvalidID):
		message = "Invalid id."
	case errors.Is(err, ErrInvalidBody):
		message = "Invalid request body."
	default:
		message = http.StatusText(status) + "."
	}

	return status, message
}

// WriteDomainError writes the response for err as mapped by StatusFor.
func WriteDomainError(w http.ResponseWriter, err error) {
	status, message := StatusFor(err)
	WriteError(w, status, message)
}

// PathID parses the named path value as a positive integer id.
func PathID(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, r.PathValue(name))
	}

	return id, nil
}

// DecodeJSON decodes a JSON request body of at most maxBytes into v.
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) error {
	body := http.MaxBytesReader(w, r.Body, maxBytes)

	if err := json.NewDecoder(body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrInvalidBody)
		}

		return fmt.Errorf("%w: %w", ErrInvalidBody, err)
	}

	return nil
}
