package handlers

import (
	"errors"
	"fmt"
	"net/http"

	apperr "cookbook/internal/errors"
	applog "cookbook/internal/log"
	"cookbook/internal/recipes"
)

const (
	outcomeCreated  = "created"
	outcomeExists   = "exists"
	outcomeRated    = "rated"
	outcomeRejected = "rejected"
)

// CreateRecipe stores a recipe owned by the authenticated user. A taken name
// is not an error; the response reports it with outcome "exists".
func (h *Handler) CreateRecipe(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		writeError(w, r, apperr.New(apperr.ErrCodeUnauthorized, "Token is missing"))
		return
	}

	var req creationRequest
	if problems := h.decode(r, &req); problems != nil {
		writeValidation(w, r, problems)
		return
	}

	view, err := h.recipes.Create(r.Context(), recipes.CreateInput{
		OwnerID:     user.ID,
		Name:        *req.Name,
		Ingredients: *req.Ingredients,
		Text:        *req.Text,
	})
	switch {
	case err == nil:
	case errors.Is(err, recipes.ErrDuplicateRecipeName):
		writeJSON(w, r, http.StatusOK, outcomeResponse{
			Message: fmt.Sprintf("Recipe %s already exists.", *req.Name),
			Outcome: outcomeExists,
		})
		return
	case errors.Is(err, recipes.ErrNoIngredients):
		writeValidation(w, r, map[string][]string{"r_ingredients": {apperr.MessageOf(err, msgInvalidValue)}})
		return
	default:
		writeError(w, r, err)
		return
	}

	applog.Info(r.Context(), "recipe created", "recipe_id", view.ID, "owner_id", user.ID, "ingredients", len(view.Ingredients))
	writeJSON(w, r, http.StatusOK, outcomeResponse{
		Message: fmt.Sprintf("Recipe %s has been created successfully.", view.Name),
		Outcome: outcomeCreated,
		Recipe:  view,
	})
}

// RateRecipe adds the authenticated user's rating to a recipe. Rating one's
// own recipe is answered with outcome "rejected".
func (h *Handler) RateRecipe(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		writeError(w, r, apperr.New(apperr.ErrCodeUnauthorized, "Token is missing"))
		return
	}

	var req ratingRequest
	if problems := h.decode(r, &req); problems != nil {
		writeValidation(w, r, problems)
		return
	}

	view, err := h.recipes.Rate(r.Context(), recipes.RateInput{
		RecipeID: *req.RecipeID,
		UserID:   user.ID,
		Value:    *req.Rating,
	})
	switch {
	case err == nil:
	case errors.Is(err, recipes.ErrRecipeNotFound):
		writeErrorStatus(w, r, http.StatusBadRequest, err)
		return
	case errors.Is(err, recipes.ErrSelfRating):
		writeJSON(w, r, http.StatusOK, outcomeResponse{
			Message: "You can not rate your own recipe.",
			Outcome: outcomeRejected,
		})
		return
	default:
		writeError(w, r, err)
		return
	}

	applog.Debug(r.Context(), "recipe rated", "recipe_id", view.ID, "user_id", user.ID, "rating", view.Rating)
	writeJSON(w, r, http.StatusOK, outcomeResponse{
		Message: fmt.Sprintf("Recipe %s has been rated successfully.", view.Name),
		Outcome: outcomeRated,
		Recipe:  view,
	})
}
