// Package httpx holds the JSON response helpers shared by every handler.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/apperr"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// Error maps a core error to its HTTP status. Infrastructure failures get a
// generic body so internals never leak to clients.
func Error(w http.ResponseWriter, err error) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		JSONError(w, http.StatusBadRequest, err.Error(), nil)
	case apperr.KindNotFound:
		JSONError(w, http.StatusNotFound, err.Error(), nil)
	case apperr.KindConflict, apperr.KindInsufficientStock:
		JSONError(w, http.StatusConflict, err.Error(), nil)
	case apperr.KindPermission:
		JSONError(w, http.StatusForbidden, err.Error(), nil)
	default:
		JSONError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

// MethodNotAllowed writes the standard 405 with an Allow header.
func MethodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("Allow", allow)
	JSONError(w, http.StatusMethodNotAllowed, "method_not_allowed", nil)
}
