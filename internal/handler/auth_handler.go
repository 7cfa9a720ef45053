package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"videomate-auth/internal/middleware"
	"videomate-auth/internal/model"
	"videomate-auth/internal/service"
	"videomate-auth/pkg/apierror"
)

type AuthHandler struct {
	sessions *service.SessionService
	cookies  *CookieCodec
}

func NewAuthHandler(sessions *service.SessionService, cookies *CookieCodec) *AuthHandler {
	return &AuthHandler{sessions: sessions, cookies: cookies}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	account, err := h.sessions.Register(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusCreated, account, nil)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var payload model.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	identifier := firstNonEmpty(payload.Identifier, payload.Username, payload.Email)

	pair, err := h.sessions.Login(r.Context(), identifier, payload.Password)
	if err != nil {
		h.reject(w, err)
		return
	}

	h.cookies.Write(w, pair)
	writeSuccess(w, http.StatusOK, pair, nil)
}

// Refresh reads the refresh token from the cookie, falling back to the JSON
// body for clients that do not carry cookies.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	presented := h.cookies.RefreshToken(r)
	if presented == "" {
		var payload model.RefreshRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err == nil {
			presented = strings.TrimSpace(payload.RefreshToken)
		}
	}

	pair, err := h.sessions.Refresh(r.Context(), presented)
	if err != nil {
		h.reject(w, err)
		return
	}

	h.cookies.Write(w, pair)
	writeSuccess(w, http.StatusOK, pair, nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		h.reject(w, model.ErrUnauthenticated)
		return
	}

	if err := h.sessions.Logout(r.Context(), accountID); err != nil {
		writeError(w, err)
		return
	}

	h.cookies.Clear(w)
	writeSuccess(w, http.StatusOK, map[string]any{"logged_out": true}, nil)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		h.reject(w, model.ErrUnauthenticated)
		return
	}

	var payload model.ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, apierror.New("BAD_REQUEST", "invalid JSON body", "", http.StatusBadRequest))
		return
	}

	if err := h.sessions.ChangePassword(r.Context(), accountID, payload.OldPassword, payload.NewPassword); err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, map[string]any{"password_changed": true}, nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	accountID, ok := middleware.AccountIDFromContext(r.Context())
	if !ok {
		h.reject(w, model.ErrUnauthenticated)
		return
	}

	account, err := h.sessions.CurrentAccount(r.Context(), accountID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeSuccess(w, http.StatusOK, account, nil)
}

// reject clears the token cookies before writing the error so a browser
// holding a dead session does not loop on guaranteed failures.
func (h *AuthHandler) reject(w http.ResponseWriter, err error) {
	h.cookies.Clear(w)
	writeError(w, err)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			return trimmed
		}
	}
	return ""
}
