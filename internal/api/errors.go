package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"product-catalog-api/internal/domain"
)

// ErrorResponse defines the structure for JSON error responses.
type ErrorResponse struct {
	Message   string              `json:"message"`
	Status    int                 `json:"status"`
	Timestamp string              `json:"timestamp"`
	Errors    map[string][]string `json:"errors,omitempty"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, newErrorResponse(code, message))
}

func newErrorResponse(code int, message string) ErrorResponse {
	return ErrorResponse{
		Message:   message,
		Status:    code,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil { // Avoid writing empty body for 204 No Content
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			log.Printf("ERROR: Failed to encode JSON response: %v", err)
		}
	}
}

// statusFor maps error kinds to HTTP status codes and client-safe messages.
func statusFor(err error, fallback string) (int, string) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, "Validation failed"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Product not found"
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnavailable):
		return http.StatusServiceUnavailable, "Service temporarily unavailable, retry later"
	default:
		return http.StatusInternalServerError, fallback
	}
}

// respondWithServiceError logs err and writes the mapped error body. Server
// side failures never leak their cause to the client.
func respondWithServiceError(w http.ResponseWriter, err error, op, fallback string) {
	code, message := statusFor(err, fallback)
	if code >= http.StatusInternalServerError {
		log.Printf("ERROR: %s failed: %v", op, err)
	} else {
		log.Printf("WARN: %s rejected: %v", op, err)
	}

	body := newErrorResponse(code, message)
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body.Errors = verr.Fields
	}
	respondWithJSON(w, code, body)
}

func invalidParam(name, value string) error {
	return fmt.Errorf("%w: invalid %s parameter %q", domain.ErrInvalidArgument, name, value)
}
