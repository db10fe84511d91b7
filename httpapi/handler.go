// Package httpapi exposes the engine over HTTP. Every authentication failure
// maps to the same generic message; whether a username exists, a lockout is
// active, or how many attempts remain is never revealed. Infrastructure
// failures are reported to Sentry and surfaced as 503 so clients can retry.
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	authcore "github.com/bookline/authcore"
)

const maxJSONBodyBytes = 1 << 20

// Handler serves the /auth endpoints.
type Handler struct {
	engine *authcore.Engine
	logger *zap.Logger
}

// NewHandler creates a Handler over engine. logger may be nil.
func NewHandler(engine *authcore.Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{engine: engine, logger: logger}
}

// Routes returns the full auth mux. Logout requires a valid bearer token.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", h.Login)
	mux.HandleFunc("POST /auth/register", h.Register)
	mux.HandleFunc("POST /auth/refresh", h.Refresh)
	mux.Handle("POST /auth/logout", h.RequireAuth(http.HandlerFunc(h.Logout)))
	mux.HandleFunc("POST /auth/request-password-reset", h.RequestPasswordReset)
	mux.HandleFunc("POST /auth/reset-password", h.ResetPassword)
	mux.HandleFunc("POST /auth/verify-email", h.VerifyEmail)
	return mux
}

// RequireAuth rejects requests without a valid bearer access token.
func (h *Handler) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if _, err := h.engine.ValidateAccessToken(token); err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Address  string `json:"address"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type resetPasswordRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

type verifyEmailRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var body loginRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.engine.Login(r.Context(), body.Username, body.Password)
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Register handles POST /auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var body registerRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	result, err := h.engine.Register(r.Context(), authcore.RegisterInput{
		Username: body.Username,
		Password: body.Password,
		Name:     body.Name,
		Email:    body.Email,
		Phone:    body.Phone,
		Address:  body.Address,
	})
	if err != nil {
		if errors.Is(err, authcore.ErrAccountExists) {
			writeError(w, http.StatusConflict, "account already exists")
			return
		}
		h.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

// Refresh handles POST /auth/refresh.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var body refreshRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	access, err := h.engine.Refresh(r.Context(), strings.TrimSpace(body.RefreshToken))
	if err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"accessToken": access})
}

// Logout handles POST /auth/logout.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var body refreshRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	if err := h.engine.Logout(r.Context(), strings.TrimSpace(body.RefreshToken)); err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// RequestPasswordReset handles POST /auth/request-password-reset. The
// response is the same whether or not the email exists.
func (h *Handler) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var body emailRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	if err := h.engine.RequestPasswordReset(r.Context(), body.Email); err != nil {
		h.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "if the account exists, a reset code has been sent"})
}

// ResetPassword handles POST /auth/reset-password.
func (h *Handler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var body resetPasswordRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	if err := h.engine.ResetPassword(r.Context(), body.Email, body.OTP, body.NewPassword); err != nil {
		if errors.Is(err, authcore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		h.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "password has been reset"})
}

// VerifyEmail handles POST /auth/verify-email.
func (h *Handler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	var body verifyEmailRequest
	if !decodeJSON(w, r, &body) {
		return
	}

	if err := h.engine.VerifyEmail(r.Context(), body.Email, body.OTP); err != nil {
		if errors.Is(err, authcore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "account not found")
			return
		}
		h.writeAuthError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// writeAuthError maps engine errors to responses. Lockouts and OTP failures
// deliberately share the invalid-credentials shape.
func (h *Handler) writeAuthError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, authcore.ErrValidation):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, authcore.ErrInvalidCredentials),
		errors.Is(err, authcore.ErrAccountLocked),
		errors.Is(err, authcore.ErrUnauthenticated):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, authcore.ErrOTPInvalid),
		errors.Is(err, authcore.ErrOTPLocked):
		writeError(w, http.StatusUnauthorized, "invalid or expired code")
	default:
		sentry.CaptureException(err)
		h.logger.Error("auth request failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "temporarily unavailable")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return false
	}
	return true
}

func bearerToken(value string) (string, bool) {
	const bearer = "Bearer "
	if !strings.HasPrefix(value, bearer) {
		return "", false
	}
	token := value[len(bearer):]
	return token, token != ""
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
