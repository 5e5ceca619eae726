package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/provenance-io/warehouse-facility/pkg/domain"
)

// RequestIDHeader carries the request identifier in and out.
const RequestIDHeader = "X-Request-Id"

type requestIDKey struct{}

// NewRequestID returns a fresh request identifier.
func NewRequestID() string { return "req_" + uuid.NewString() }

// RequestID returns the identifier assigned to the request carried by ctx.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = NewRequestID()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string, details any) {
	writeJSON(w, status, map[string]any{
		"request_id": RequestID(r.Context()),
		"error":      errorBody{Code: code, Message: message, Details: details},
	})
}

// StatusFor maps a domain error to its HTTP status.
func StatusFor(err error) int {
	switch domain.ErrorCode(err) {
	case "INVALID_FIELDS", "MALFORMED_MESSAGE":
		return http.StatusBadRequest
	case "UNAUTHORIZED":
		return http.StatusForbidden
	case "NOT_FOUND":
		return http.StatusNotFound
	case "STATE_ERROR", "ALREADY_EXISTS", "ASSET_CONFLICT", "MISSING_FUNDS", "INSUFFICIENT_FUNDS":
		return http.StatusConflict
	case "RULE_VIOLATION":
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func errorDetails(err error) any {
	var (
		invalid domain.InvalidFieldsError
		short   domain.InsufficientFundsError
		rules   domain.RuleViolationError
	)
	switch {
	case errors.As(err, &invalid):
		return map[string]any{"fields": invalid.Fields}
	case errors.As(err, &short):
		return map[string]any{
			"need":     domain.Coin{Denom: short.NeedDenom, Amount: short.Need},
			"received": domain.Coin{Denom: short.ReceivedDenom, Amount: short.Received},
		}
	case errors.As(err, &rules):
		return map[string]any{"violations": rules.Result.Violations}
	}
	return nil
}
