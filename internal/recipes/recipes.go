// Package recipes links recipes to the shared ingredient catalog, aggregates
// ratings and answers the catalog queries.
//
// Every write runs in a single transaction. Ingredients are created or fetched
// through their unique name index, and ratings are applied as an atomic
// increment of r_sum and r_count, so concurrent callers never duplicate an
// ingredient or lose a rating.
package recipes

import (
	"context"
	"errors"
	"fmt"

	apperr "cookbook/internal/errors"
	"cookbook/models"

	"gorm.io/gorm"
)

var (
	// ErrDuplicateRecipeName reports a recipe name that is already taken.
	ErrDuplicateRecipeName = errors.New("recipes: recipe name already exists")
	// ErrRecipeNotFound reports a recipe id with no row, or an empty catalog.
	ErrRecipeNotFound = errors.New("recipes: recipe not found")
	// ErrSelfRating reports an owner rating their own recipe.
	ErrSelfRating = errors.New("recipes: owner cannot rate own recipe")
	// ErrNoIngredients reports an ingredient list without usable names.
	ErrNoIngredients = errors.New("recipes: no ingredients")
)

// View is a recipe together with its ingredient names, ordered by
// ingredient id.
type View struct {
	ID          uint     `json:"id"`
	Name        string   `json:"name"`
	Text        string   `json:"text"`
	OwnerID     uint     `json:"owner_id"`
	RSum        int      `json:"r_sum"`
	RCount      int      `json:"r_count"`
	Rating      float64  `json:"rating"`
	Ingredients []string `json:"ingredients"`
}

// CountedView is a View annotated with its number of linked ingredients.
type CountedView struct {
	View
	IngredientCount int `json:"ingredient_count"`
}

// IngredientUsage is one row of the most used ingredients.
type IngredientUsage struct {
	ID      uint   `json:"-"`
	Name    string `json:"name"`
	Recipes int64  `json:"recipes"`
}

// Service implements recipe creation, rating and queries over gorm.
type Service struct {
	db *gorm.DB
}

// NewService wraps db.
func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func newView(r models.Recipe, ingredients []string) View {
	if ingredients == nil {
		ingredients = []string{}
	}
	return View{
		ID:          r.ID,
		Name:        r.Name,
		Text:        r.Text,
		OwnerID:     r.OwnerID,
		RSum:        r.RSum,
		RCount:      r.RCount,
		Rating:      r.Rating,
		Ingredients: ingredients,
	}
}

// views attaches ingredient names to recipes, keeping their order.
func views(ctx context.Context, db *gorm.DB, recipes []models.Recipe) ([]View, error) {
	out := make([]View, 0, len(recipes))
	if len(recipes) == 0 {
		return out, nil
	}

	ids := make([]uint, 0, len(recipes))
	for _, r := range recipes {
		ids = append(ids, r.ID)
	}
	names, err := ingredientNames(ctx, db, ids)
	if err != nil {
		return nil, err
	}
	for _, r := range recipes {
		out = append(out, newView(r, names[r.ID]))
	}
	return out, nil
}

func ingredientNames(ctx context.Context, db *gorm.DB, recipeIDs []uint) (map[uint][]string, error) {
	var rows []struct {
		RecipeID uint
		Name     string
	}
	err := db.WithContext(ctx).
		Table("recipe_ingredients").
		Select("recipe_ingredients.recipe_id AS recipe_id, ingredients.name AS name").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("recipe_ingredients.recipe_id IN ?", recipeIDs).
		Order("recipe_ingredients.recipe_id ASC, ingredients.id ASC").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("load ingredient names: %w", err)
	}

	names := make(map[uint][]string, len(recipeIDs))
	for _, row := range rows {
		names[row.RecipeID] = append(names[row.RecipeID], row.Name)
	}
	return names, nil
}

func notFound(id uint) error {
	return apperr.Wrap(apperr.ErrCodeNotFound, fmt.Sprintf("Recipe %d does not exist.", id), ErrRecipeNotFound).
		WithContext("recipe_id", id)
}

func storeError(op string, err error) error {
	return apperr.Wrap(apperr.ErrCodeInternal, op, err)
}
