package recipes

import (
	"context"
	"errors"
	"fmt"

	apperr "cookbook/internal/errors"
	"cookbook/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateInput describes a new recipe. Ingredients is the raw comma separated
// list as submitted.
type CreateInput struct {
	OwnerID     uint
	Name        string
	Ingredients string
	Text        string
}

// Create stores a recipe and links it to its ingredients, creating catalog
// entries for names not seen before. A taken name is reported as
// ErrDuplicateRecipeName and leaves the store untouched.
func (s *Service) Create(ctx context.Context, in CreateInput) (*View, error) {
	names := DistinctIngredients(ParseIngredients(in.Ingredients))
	if len(names) == 0 {
		recipesCreated.WithLabelValues("invalid").Inc()
		return nil, apperr.Wrap(apperr.ErrCodeInvalidRequest, "Recipe must list at least one ingredient.", ErrNoIngredients)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Recipe{}).Where("name = ?", in.Name).Count(&count).Error; err != nil {
		return nil, storeError("check recipe name", err)
	}
	if count > 0 {
		recipesCreated.WithLabelValues("exists").Inc()
		return nil, duplicateName(in.Name)
	}

	recipe := models.Recipe{
		Name:    in.Name,
		Text:    in.Text,
		OwnerID: in.OwnerID,
	}
	var linked []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&recipe).Error; err != nil {
			return err
		}

		ingredients, err := resolveIngredients(tx, names)
		if err != nil {
			return err
		}

		links := make([]models.RecipeIngredient, 0, len(ingredients))
		for _, ing := range ingredients {
			links = append(links, models.RecipeIngredient{RecipeID: recipe.ID, IngredientID: ing.ID})
			linked = append(linked, ing.Name)
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&links).Error
	})
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrDuplicatedKey):
		recipesCreated.WithLabelValues("exists").Inc()
		return nil, duplicateName(in.Name)
	default:
		return nil, storeError("create recipe", err)
	}

	recipesCreated.WithLabelValues("created").Inc()
	view := newView(recipe, linked)
	return &view, nil
}

// resolveIngredients creates the missing catalog entries for names and
// returns every entry ordered by id. Rows another transaction inserted first
// are fetched instead of recreated.
func resolveIngredients(tx *gorm.DB, names []string) ([]models.Ingredient, error) {
	fresh := make([]models.Ingredient, 0, len(names))
	for _, name := range names {
		fresh = append(fresh, models.Ingredient{Name: name})
	}
	res := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&fresh)
	if res.Error != nil {
		return nil, fmt.Errorf("upsert ingredients: %w", res.Error)
	}
	ingredientsCreated.Add(float64(res.RowsAffected))

	var ingredients []models.Ingredient
	if err := tx.Where("name IN ?", names).Order("id ASC").Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("load ingredients: %w", err)
	}
	if len(ingredients) != len(names) {
		return nil, fmt.Errorf("resolved %d of %d ingredients", len(ingredients), len(names))
	}
	return ingredients, nil
}

func duplicateName(name string) error {
	return apperr.Wrap(apperr.ErrCodeConflict, fmt.Sprintf("Recipe %s already exists.", name), ErrDuplicateRecipeName).
		WithContext("name", name)
}
