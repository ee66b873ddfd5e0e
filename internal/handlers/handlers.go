// Package handlers is the JSON HTTP surface over the ledger core. Handlers
// decode and validate input, check the gate, then hand validated primitives
// to the services. They never reach into gorm themselves.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-playground/validator/v10"

	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/apperr"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/auth"
	"github.com/Isaac25-lgtm/multi-tenant-business-suite/internal/httpx"
)

var validate = validator.New()

// decodeJSON reads and validates a request body into dst.
func decodeJSON(r *http.Request, dst any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		return apperr.Validationf("unreadable request body")
	}
	if len(body) == 0 {
		return apperr.Validationf("request body is required")
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return apperr.Validationf("invalid JSON: %s", err)
	}
	if err := validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			f := verrs[0]
			return apperr.Validationf("field %s failed %s validation", f.Field(), f.Tag())
		}
		return apperr.Validationf("invalid request")
	}
	return nil
}

// idParam reads the numeric id query parameter.
func idParam(r *http.Request) (uint, error) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		return 0, apperr.Validationf("id parameter is required")
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.Validationf("invalid id %q", raw)
	}
	return uint(id), nil
}

// actorOr403 resolves the actor or writes the 403 itself.
func actorOr403(w http.ResponseWriter, r *http.Request) (*auth.Actor, bool) {
	actor, ok := auth.ActorFrom(r.Context())
	if !ok {
		httpx.JSONError(w, http.StatusForbidden, "authentication required", nil)
		return nil, false
	}
	return actor, true
}
