package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"cookbook/internal/auth"
	apperr "cookbook/internal/errors"
	applog "cookbook/internal/log"
	"cookbook/models"
)

const (
	sessionTokenKey  = "auth:token"
	sessionUserIDKey = "auth:user:id"
)

type userContextKey struct{}

type loginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

// CurrentUser returns the user authenticated by RequireToken.
func CurrentUser(ctx context.Context) (*models.User, bool) {
	user, ok := ctx.Value(userContextKey{}).(*models.User)
	return user, ok && user != nil
}

// RequireToken admits requests carrying a valid token and places the token's
// user on the request context. The token is read from the configured header,
// then from an Authorization bearer header, then from the session.
func (h *Handler) RequireToken(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := h.requestToken(r)

		claims, err := h.tokens.Verify(token)
		if err != nil {
			applog.Debug(r.Context(), "token rejected", "path", r.URL.Path, "error", err)
			writeError(w, r, tokenError(err))
			return
		}

		user, err := h.users.FindByID(r.Context(), claims.UserID)
		if err != nil {
			if apperr.CodeOf(err) != apperr.ErrCodeNotFound {
				writeError(w, r, err)
				return
			}
			applog.Debug(r.Context(), "token user no longer exists", "user_id", claims.UserID)
			writeError(w, r, apperr.Wrap(apperr.ErrCodeUnauthorized, "Token is invalid.", auth.ErrTokenMalformed))
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userContextKey{}, user)))
	})
}

func (h *Handler) requestToken(r *http.Request) string {
	if token := strings.TrimSpace(r.Header.Get(h.tokenHeader)); token != "" {
		return token
	}
	if scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " "); ok && strings.EqualFold(scheme, "Bearer") {
		if token = strings.TrimSpace(token); token != "" {
			return token
		}
	}
	if h.sessions != nil && h.sessions.Exists(r.Context(), sessionTokenKey) {
		return h.sessions.GetString(r.Context(), sessionTokenKey)
	}
	return ""
}

func tokenError(err error) error {
	switch {
	case errors.Is(err, auth.ErrTokenMissing):
		return apperr.Wrap(apperr.ErrCodeUnauthorized, "Token is missing", err)
	case errors.Is(err, auth.ErrTokenExpired):
		return apperr.Wrap(apperr.ErrCodeUnauthorized, "Token has expired.", err)
	default:
		return apperr.Wrap(apperr.ErrCodeUnauthorized, "Token is invalid.", err)
	}
}

// Login exchanges a username and password for a token. The token is also
// stored in the session so browser clients can omit the header.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if problems := h.decode(r, &req); problems != nil {
		writeValidation(w, r, problems)
		return
	}
	applog.Debug(r.Context(), "login attempt", "username", *req.Username)

	user, err := h.users.FindByUsername(r.Context(), *req.Username)
	if err != nil {
		if apperr.CodeOf(err) == apperr.ErrCodeNotFound {
			writeErrorStatus(w, r, http.StatusUnauthorized,
				apperr.Wrap(apperr.ErrCodeUnauthorized, "User with that username does not exist", err))
			return
		}
		writeError(w, r, err)
		return
	}

	if err := auth.CheckPassword(user.Password, *req.Password); err != nil {
		if !errors.Is(err, auth.ErrPasswordMismatch) {
			applog.Error(r.Context(), "failed to compare password", "error", err)
		}
		writeError(w, r, apperr.Wrap(apperr.ErrCodeUnauthorized, "Invalid password.", err))
		return
	}

	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		writeError(w, r, apperr.Wrap(apperr.ErrCodeInternal, "issue token", err))
		return
	}

	if h.sessions != nil {
		if err := h.sessions.RenewToken(r.Context()); err != nil {
			applog.Error(r.Context(), "failed to renew session", "error", err)
		} else {
			h.sessions.Put(r.Context(), sessionTokenKey, token)
			h.sessions.Put(r.Context(), sessionUserIDKey, int(user.ID))
		}
	}

	applog.Debug(r.Context(), "login succeeded", "user_id", user.ID)
	writeJSON(w, r, http.StatusOK, loginResponse{
		Message: fmt.Sprintf("User %s has logged in successfully.", user.Username),
		Token:   token,
	})
}

// Logout destroys the session. Tokens already issued stay valid until they
// expire.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if h.sessions != nil {
		if err := h.sessions.Destroy(r.Context()); err != nil {
			applog.Error(r.Context(), "failed to destroy session", "error", err)
		}
	}
	writeJSON(w, r, http.StatusOK, messageResponse{Message: "Logged out."})
}
