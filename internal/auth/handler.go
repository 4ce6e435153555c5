package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/umbra-games/umbra-security/internal/platform/httpx"
)

// Handler wires the JSON endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{
		logger:    logger,
		service:   service,
		validator: validator.New(),
	}
}

// MountRoutes registers auth routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/register", h.handleRegister)
	r.Post("/login", h.handleLogin)
	r.Post("/validate", h.handleValidate)
	r.Post("/revoke", h.handleRevoke)
}

type registerRequest struct {
	Email      string `json:"email" validate:"required"`
	Password   string `json:"password" validate:"required"`
	Username   string `json:"username"`
	RememberMe bool   `json:"remember_me"`
}

type loginRequest struct {
	Email      string `json:"email" validate:"required"`
	Password   string `json:"password" validate:"required"`
	RememberMe bool   `json:"remember_me"`
}

type tokenRequest struct {
	Token     string `json:"token" validate:"required"`
	TokenType string `json:"token_type"`
}

type userPayload struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	Username    *string `json:"username"`
	IsActive    bool    `json:"is_active"`
	IsVerified  bool    `json:"is_verified"`
	CreatedAt   string  `json:"created_at"`
	UpdatedAt   string  `json:"updated_at"`
	LastLoginAt *string `json:"last_login_at"`
}

type tokensPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

type sessionPayload struct {
	ID           string  `json:"id"`
	ExpiresAt    string  `json:"expires_at"`
	LastSeenAt   *string `json:"last_seen_at"`
	IsPersistent bool    `json:"is_persistent"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	result, err := h.service.Register(r.Context(), req.Email, req.Password, req.Username, SessionMeta{
		IPAddress:  r.RemoteAddr,
		UserAgent:  r.UserAgent(),
		Persistent: req.RememberMe,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	httpx.OK(w, http.StatusCreated, "Registration successful.", map[string]any{
		"user":   serializeUser(result.User),
		"tokens": serializeTokens(result.Tokens),
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Email and password are required.")
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password, SessionMeta{
		IPAddress:  r.RemoteAddr,
		UserAgent:  r.UserAgent(),
		Persistent: req.RememberMe,
	})
	if err != nil {
		h.respondError(w, r, err)
		return
	}

	httpx.OK(w, http.StatusOK, "Login successful.", map[string]any{
		"user":   serializeUser(result.User),
		"tokens": serializeTokens(result.Tokens),
	})
}

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.FailWithData(w, http.StatusBadRequest, "Token is required.", map[string]any{"is_valid": false})
		return
	}

	validation, err := h.service.Validate(r.Context(), req.Token, normalizeTokenType(req.TokenType))
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			httpx.FailWithData(w, http.StatusBadRequest, "Unknown token type.", map[string]any{"is_valid": false})
			return
		}
		h.respondError(w, r, err)
		return
	}
	if !validation.Valid {
		httpx.FailWithData(w, http.StatusUnauthorized, "Token is invalid or expired.", map[string]any{"is_valid": false})
		return
	}

	httpx.OK(w, http.StatusOK, "Token is valid.", map[string]any{
		"is_valid": true,
		"user":     serializeUser(validation.User),
		"session":  serializeSession(validation.Session),
	})
}

func (h *Handler) handleRevoke(w http.ResponseWriter, r *http.Request) {
	var req tokenRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Fail(w, http.StatusBadRequest, "Token is required.")
		return
	}

	revoked, err := h.service.RevokeToken(r.Context(), req.Token, normalizeTokenType(req.TokenType))
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			httpx.Fail(w, http.StatusBadRequest, "Unknown token type.")
			return
		}
		h.respondError(w, r, err)
		return
	}
	if !revoked {
		httpx.Fail(w, http.StatusUnauthorized, "Token is invalid or expired.")
		return
	}

	httpx.OK(w, http.StatusOK, "Session revoked.", nil)
}

// respondError maps domain error kinds onto HTTP statuses. Anything outside
// the taxonomy is a 500 with no internals exposed.
func (h *Handler) respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidInput):
		httpx.Fail(w, http.StatusBadRequest, "Invalid email, password or username.")
	case errors.Is(err, ErrAlreadyExists):
		httpx.Fail(w, http.StatusConflict, "An account with these identifiers already exists.")
	case errors.Is(err, ErrInvalidCredentials):
		httpx.Fail(w, http.StatusUnauthorized, "Invalid credentials.")
	case errors.Is(err, ErrInactiveAccount):
		httpx.Fail(w, http.StatusForbidden, "Account is disabled.")
	case errors.Is(err, ErrHashConflict):
		h.logger.Error("token hash conflict", slog.String("path", r.URL.Path))
		httpx.Fail(w, http.StatusInternalServerError, "Temporary conflict, please retry.")
	default:
		h.logger.Error("auth request failed", slog.String("path", r.URL.Path), slog.Any("error", err))
		httpx.Fail(w, http.StatusInternalServerError, "Internal error.")
	}
}

// normalizeTokenType applies the default token type for requests that omit it.
func normalizeTokenType(t string) string {
	if t == "" {
		return TokenTypeAccess
	}
	return t
}

func serializeUser(u *User) userPayload {
	p := userPayload{
		ID:         u.ID,
		Email:      u.Email,
		IsActive:   u.IsActive,
		IsVerified: u.IsVerified,
		CreatedAt:  formatTime(u.CreatedAt),
		UpdatedAt:  formatTime(u.UpdatedAt),
	}
	if u.Username != "" {
		username := u.Username
		p.Username = &username
	}
	if u.LastLoginAt != nil {
		formatted := formatTime(*u.LastLoginAt)
		p.LastLoginAt = &formatted
	}
	return p
}

func serializeTokens(t TokenPair) tokensPayload {
	return tokensPayload{AccessToken: t.AccessToken, RefreshToken: t.RefreshToken}
}

func serializeSession(s *SessionToken) sessionPayload {
	p := sessionPayload{
		ID:           s.ID,
		ExpiresAt:    formatTime(s.ExpiresAt),
		IsPersistent: s.IsPersistent,
	}
	if s.LastSeenAt != nil {
		formatted := formatTime(*s.LastSeenAt)
		p.LastSeenAt = &formatted
	}
	return p
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
