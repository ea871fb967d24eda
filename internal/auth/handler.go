package auth

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sebuszqo/ExpenseTracker/internal/user"
)

const refreshTokenPath = "/api/refresh/token"

type Handler struct {
	authService   Service
	userService   user.Service
	secureCookies bool
	respondJSON   func(w http.ResponseWriter, status int, payload interface{})
	respondError  func(w http.ResponseWriter, status int, message string, errors ...[]string)
}

func NewHandler(authService Service, userService user.Service, secureCookies bool, respondJSON func(w http.ResponseWriter, status int, payload interface{}), respondError func(w http.ResponseWriter, status int, message string, errors ...[]string)) *Handler {
	return &Handler{
		authService:   authService,
		userService:   userService,
		secureCookies: secureCookies,
		respondJSON:   respondJSON,
		respondError:  respondError,
	}
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, value string, maxAge int) {
	cookie := &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    value,
		Path:     refreshTokenPath,
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteStrictMode,
	}
	if maxAge < 0 {
		cookie.Expires = time.Unix(0, 0)
	}
	http.SetCookie(w, cookie)
}

func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		EmailOrLogin string `json:"email_or_login"`
		Password     string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Password == "" || strings.TrimSpace(req.EmailOrLogin) == "" {
		h.respondError(w, http.StatusBadRequest, "Invalid request body", []string{"email_or_login and password are required"})
		return
	}

	_, accessToken, refreshToken, err := h.authService.Login(r.Context(), req.EmailOrLogin, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			h.respondError(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		h.respondError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	h.setRefreshCookie(w, refreshToken, 0)
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data": map[string]string{
			"access_token": accessToken,
		},
	})
}

func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if _, err := r.Cookie(refreshTokenCookie); err == nil {
		h.setRefreshCookie(w, "", -1)
	}
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Logout successful",
	})
}

func (h *Handler) RefreshAccessToken(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, ErrUserNotFound.Error())
		return
	}

	accessToken, newRefreshToken, err := h.authService.RefreshAccessToken(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			h.respondError(w, http.StatusUnauthorized, ErrUserNotFound.Error())
			return
		}
		h.respondError(w, http.StatusInternalServerError, ErrInternalError.Error())
		return
	}

	h.setRefreshCookie(w, newRefreshToken, 0)
	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data": map[string]string{
			"access_token": accessToken,
		},
	})
}

// HandleMe returns the profile of the authenticated user.
func (h *Handler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserIDFromContext(r.Context())
	if !ok {
		h.respondError(w, http.StatusUnauthorized, ErrUserNotFound.Error())
		return
	}

	u, err := h.userService.GetUserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			h.respondError(w, http.StatusNotFound, ErrUserNotFound.Error())
			return
		}
		h.respondError(w, http.StatusInternalServerError, ErrInternalError.Error())
		return
	}

	h.respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "success",
		"data":   u,
	})
}
