package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	apperr "cookbook/internal/errors"
	"cookbook/internal/recipes"
)

func (h *Handler) respondList(w http.ResponseWriter, r *http.Request, found []recipes.View, err error) {
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, messageResponse{Message: found})
}

// AllRecipes lists every recipe.
func (h *Handler) AllRecipes(w http.ResponseWriter, r *http.Request) {
	found, err := h.recipes.FindAll(r.Context())
	h.respondList(w, r, found, err)
}

// MyRecipes lists the recipes of the authenticated user.
func (h *Handler) MyRecipes(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(r.Context())
	if !ok {
		writeError(w, r, apperr.New(apperr.ErrCodeUnauthorized, "Token is missing"))
		return
	}
	found, err := h.recipes.FindByOwner(r.Context(), user.ID)
	h.respondList(w, r, found, err)
}

// RecipesByName serves /rcp_by_name/{name}.
func (h *Handler) RecipesByName(w http.ResponseWriter, r *http.Request) {
	found, err := h.recipes.FindByExactName(r.Context(), chi.URLParam(r, "name"))
	h.respondList(w, r, found, err)
}

// RecipesByIngredient serves /rcp_by_ing/{ing}.
func (h *Handler) RecipesByIngredient(w http.ResponseWriter, r *http.Request) {
	found, err := h.recipes.FindByIngredient(r.Context(), chi.URLParam(r, "ing"))
	h.respondList(w, r, found, err)
}

// RecipesByText serves /rcp_by_text/{text}.
func (h *Handler) RecipesByText(w http.ResponseWriter, r *http.Request) {
	found, err := h.recipes.FindByTextSubstring(r.Context(), chi.URLParam(r, "text"))
	h.respondList(w, r, found, err)
}

// Search combines the name, ingredient and text query parameters. Only
// parameters present in the query take part.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	values := r.URL.Query()
	param := func(key string) *string {
		if _, ok := values[key]; !ok {
			return nil
		}
		v := values.Get(key)
		return &v
	}

	found, err := h.recipes.Search(r.Context(), recipes.SearchQuery{
		Name:       param("name"),
		Ingredient: param("ingredient"),
		Text:       param("text"),
	})
	h.respondList(w, r, found, err)
}

// TopIngredients lists the five most used ingredients.
func (h *Handler) TopIngredients(w http.ResponseWriter, r *http.Request) {
	top, err := h.recipes.TopIngredients(r.Context(), recipes.DefaultTopIngredients)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, messageResponse{Message: top})
}

// MaxIngredients returns the recipe with the most ingredients.
func (h *Handler) MaxIngredients(w http.ResponseWriter, r *http.Request) {
	h.extreme(w, r, recipes.Max)
}

// MinIngredients returns the recipe with the fewest ingredients.
func (h *Handler) MinIngredients(w http.ResponseWriter, r *http.Request) {
	h.extreme(w, r, recipes.Min)
}

func (h *Handler) extreme(w http.ResponseWriter, r *http.Request, which recipes.Extreme) {
	found, err := h.recipes.ExtremeIngredientCount(r.Context(), which)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, messageResponse{Message: found})
}
