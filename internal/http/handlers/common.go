package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hongminglow/fintrack-be/internal/http/respond"
	"github.com/hongminglow/fintrack-be/internal/middleware"
	"github.com/hongminglow/fintrack-be/internal/users"
)

// Middleware wraps a handler, typically with authentication.
type Middleware func(http.Handler) http.Handler

const (
	clientIDHeader = "X-Client-ID"
	maxBodyBytes   = 1 << 20
)

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

// identity returns the authenticated caller. Routes without Authenticate in
// front of them get a 401.
func identity(w http.ResponseWriter, r *http.Request) (users.Identity, bool) {
	id, ok := middleware.IdentityFrom(r.Context())
	if !ok || id.UID == "" {
		respond.Error(w, http.StatusUnauthorized, "user not authenticated")
		return users.Identity{}, false
	}
	return id, true
}

// clientID keys per-browser state. Clients send X-Client-ID; without it the
// identity UID stands in.
func clientID(r *http.Request, id users.Identity) string {
	if v := strings.TrimSpace(r.Header.Get(clientIDHeader)); v != "" {
		return v
	}
	return id.UID
}

func writeValidation(w http.ResponseWriter, err error) bool {
	return respond.Validation(w, err)
}
