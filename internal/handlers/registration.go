package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"cookbook/internal/auth"
	apperr "cookbook/internal/errors"
	"cookbook/internal/hunter"
	applog "cookbook/internal/log"
	"cookbook/internal/users"
)

// Register creates an account. The address must pass email verification;
// enrichment is started afterwards and never affects the response.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registrationRequest
	if problems := h.decode(r, &req); problems != nil {
		writeValidation(w, r, problems)
		return
	}
	ctx := r.Context()

	if _, err := h.users.FindByUsername(ctx, *req.Username); err == nil {
		writeErrorStatus(w, r, http.StatusBadRequest,
			apperr.Wrap(apperr.ErrCodeConflict, "User with that username already exists. Please Log in", users.ErrUsernameTaken))
		return
	} else if apperr.CodeOf(err) != apperr.ErrCodeNotFound {
		writeError(w, r, err)
		return
	}

	if err := h.verifier.Verify(ctx, *req.Email); err != nil {
		applog.Debug(ctx, "email verification failed", "email", *req.Email, "error", err)
		if errors.Is(err, hunter.ErrUndeliverable) {
			writeErrorStatus(w, r, http.StatusBadRequest, err)
			return
		}
		writeError(w, r, err)
		return
	}

	hash, err := auth.HashPassword(*req.Password)
	if err != nil {
		writeError(w, r, apperr.Wrap(apperr.ErrCodeInternal, "hash password", err))
		return
	}

	user, err := h.users.Create(ctx, users.NewUser{
		FirstName:    *req.FirstName,
		LastName:     *req.LastName,
		Email:        *req.Email,
		Username:     *req.Username,
		PasswordHash: hash,
	})
	if err != nil {
		if errors.Is(err, users.ErrUsernameTaken) {
			writeErrorStatus(w, r, http.StatusBadRequest, err)
			return
		}
		writeError(w, r, err)
		return
	}

	if h.enricher != nil {
		h.enricher.Enrich(ctx, user.Email)
	}

	applog.Info(ctx, "user registered", "user_id", user.ID, "username", user.Username)
	writeJSON(w, r, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("User %s has been created successfully.", user.FirstName),
	})
}
