package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hongminglow/fintrack-be/internal/apperr"
	"github.com/hongminglow/fintrack-be/internal/auth"
	"github.com/hongminglow/fintrack-be/internal/http/respond"
	"github.com/hongminglow/fintrack-be/internal/logger"
	"github.com/hongminglow/fintrack-be/internal/models"
	"github.com/hongminglow/fintrack-be/internal/models/dto"
	"github.com/hongminglow/fintrack-be/internal/onboarding"
	"github.com/hongminglow/fintrack-be/internal/storage"
)

const (
	minSignupPassword  = 8
	minProfilePassword = 6
)

// AuthHandler owns the email/password identity endpoints.
type AuthHandler struct {
	creds   storage.CredentialStore
	tokens  *auth.TokenManager
	markers onboarding.Markers
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(creds storage.CredentialStore, tokens *auth.TokenManager, markers onboarding.Markers) *AuthHandler {
	return &AuthHandler{creds: creds, tokens: tokens, markers: markers}
}

// Register attaches auth routes to the mux. Profile updates go through protect.
func (h *AuthHandler) Register(mux *http.ServeMux, protect Middleware) {
	mux.HandleFunc("POST /auth/signup", h.handleSignup)
	mux.HandleFunc("POST /auth/login", h.handleLogin)
	mux.Handle("PUT /auth/email", protect(http.HandlerFunc(h.handleUpdateEmail)))
	mux.Handle("PUT /auth/password", protect(http.HandlerFunc(h.handleUpdatePassword)))
}

func (h *AuthHandler) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req dto.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email := strings.TrimSpace(req.Email)
	if err := validateCredentials(email, req.Password); err != nil {
		writeValidation(w, err)
		return
	}
	if req.Password != req.Confirm {
		respond.Error(w, http.StatusBadRequest, "Passwords do not match.")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Get().Error("hash password", zap.Error(err))
		writeAuthError(w, http.StatusInternalServerError, auth.ErrAuthFailed)
		return
	}
	created, err := h.creds.CreateCredential(r.Context(), models.Credential{
		UID:          uuid.New(),
		Email:        email,
		DisplayName:  strings.TrimSpace(req.FullName),
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			writeAuthError(w, http.StatusConflict, auth.ErrEmailInUse)
			return
		}
		logger.Get().Error("create credential", zap.Error(err))
		writeAuthError(w, http.StatusInternalServerError, auth.ErrAuthFailed)
		return
	}

	h.issue(w, r, http.StatusCreated, "account created", created)
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email := strings.TrimSpace(req.Email)
	if err := validateCredentials(email, req.Password); err != nil {
		writeValidation(w, err)
		return
	}

	cred, err := h.creds.FindCredentialByEmail(r.Context(), email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeAuthError(w, http.StatusUnauthorized, auth.ErrUserNotFound)
			return
		}
		logger.Get().Error("find credential", zap.String("email", email), zap.Error(err))
		writeAuthError(w, http.StatusInternalServerError, auth.ErrAuthFailed)
		return
	}
	if err := auth.CheckPassword(cred.PasswordHash, req.Password); err != nil {
		if ae, ok := auth.AsAuthError(err); ok {
			writeAuthError(w, http.StatusUnauthorized, ae)
			return
		}
		logger.Get().Error("compare password", zap.Error(err))
		writeAuthError(w, http.StatusInternalServerError, auth.ErrAuthFailed)
		return
	}

	h.issue(w, r, http.StatusOK, "login successful", cred)
}

func (h *AuthHandler) handleUpdateEmail(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.credentialUID(w, r)
	if !ok {
		return
	}
	var req dto.UpdateEmailRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	email := strings.TrimSpace(req.Email)
	if !strings.Contains(email, "@") {
		respond.Error(w, http.StatusBadRequest, "Enter a valid email.")
		return
	}

	if err := h.creds.UpdateCredentialEmail(r.Context(), uid, email); err != nil {
		switch {
		case errors.Is(err, storage.ErrAlreadyExists):
			writeAuthError(w, http.StatusConflict, auth.ErrEmailInUse)
		case errors.Is(err, storage.ErrNotFound):
			writeAuthError(w, http.StatusNotFound, auth.ErrUserNotFound)
		default:
			logger.Get().Error("update email", zap.Error(err))
			writeAuthError(w, http.StatusInternalServerError, auth.ErrUpdateEmail)
		}
		return
	}
	respond.JSON(w, http.StatusOK, "Email updated.", nil)
}

func (h *AuthHandler) handleUpdatePassword(w http.ResponseWriter, r *http.Request) {
	uid, ok := h.credentialUID(w, r)
	if !ok {
		return
	}
	var req dto.UpdatePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Password) < minProfilePassword {
		respond.Error(w, http.StatusBadRequest, "Password must be at least 6 characters.")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		logger.Get().Error("hash password", zap.Error(err))
		writeAuthError(w, http.StatusInternalServerError, auth.ErrUpdatePassword)
		return
	}
	if err := h.creds.UpdateCredentialPassword(r.Context(), uid, hash); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeAuthError(w, http.StatusNotFound, auth.ErrUserNotFound)
			return
		}
		logger.Get().Error("update password", zap.Error(err))
		writeAuthError(w, http.StatusInternalServerError, auth.ErrUpdatePassword)
		return
	}
	respond.JSON(w, http.StatusOK, "Password updated.", nil)
}

func (h *AuthHandler) issue(w http.ResponseWriter, r *http.Request, status int, message string, cred models.Credential) {
	token, err := h.tokens.Generate(cred)
	if err != nil {
		logger.Get().Error("generate token", zap.Error(err))
		writeAuthError(w, http.StatusInternalServerError, auth.ErrAuthFailed)
		return
	}

	key := strings.TrimSpace(r.Header.Get(clientIDHeader))
	if key == "" {
		key = cred.UID.String()
	}
	done, err := h.markers.IsComplete(r.Context(), key)
	if err != nil {
		logger.Get().Warn("read setup marker", zap.String("client", key), zap.Error(err))
	}

	respond.JSON(w, status, message, dto.LoginResponse{Token: token, User: cred, SetupComplete: done})
}

func (h *AuthHandler) credentialUID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, ok := identity(w, r)
	if !ok {
		return uuid.Nil, false
	}
	uid, err := uuid.Parse(id.UID)
	if err != nil {
		respond.Error(w, http.StatusUnauthorized, "invalid token subject")
		return uuid.Nil, false
	}
	return uid, true
}

func validateCredentials(email, password string) error {
	if !strings.Contains(email, "@") || len(password) < minSignupPassword {
		return apperr.Validation("Enter a valid email and at least 8 character password.")
	}
	return nil
}

func writeAuthError(w http.ResponseWriter, status int, err *auth.AuthError) {
	respond.Error(w, status, err.Message)
}
