package recipes

import (
	"context"
	"errors"
	"fmt"
	"math"

	apperr "cookbook/internal/errors"
	"cookbook/models"

	"gorm.io/gorm"
)

// RateInput is one rating of a recipe. Value is expected in [1, 5]; the API
// layer enforces the range.
type RateInput struct {
	RecipeID uint
	UserID   uint
	Value    int
}

// RoundRating returns sum/count rounded half away from zero to two decimals,
// or 0 when count is zero.
func RoundRating(sum, count int) float64 {
	if count <= 0 {
		return 0
	}
	return math.Round(float64(sum)/float64(count)*100) / 100
}

// Rate adds a rating to a recipe and recomputes its average. Owners cannot
// rate their own recipes.
func (s *Service) Rate(ctx context.Context, in RateInput) (*View, error) {
	var rated models.Recipe
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Recipe
		if err := tx.Take(&current, in.RecipeID).Error; err != nil {
			return err
		}
		if current.OwnerID == in.UserID {
			return ErrSelfRating
		}

		res := tx.Model(&models.Recipe{}).
			Where("id = ?", in.RecipeID).
			Updates(map[string]any{
				"r_sum":   gorm.Expr("r_sum + ?", in.Value),
				"r_count": gorm.Expr("r_count + 1"),
			})
		if res.Error != nil {
			return fmt.Errorf("increment rating: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}

		if err := tx.Take(&rated, in.RecipeID).Error; err != nil {
			return err
		}
		rated.Rating = RoundRating(rated.RSum, rated.RCount)
		return tx.Model(&models.Recipe{}).Where("id = ?", in.RecipeID).Update("rating", rated.Rating).Error
	})
	switch {
	case err == nil:
	case errors.Is(err, gorm.ErrRecordNotFound):
		ratingsApplied.WithLabelValues("not_found").Inc()
		return nil, notFound(in.RecipeID)
	case errors.Is(err, ErrSelfRating):
		ratingsApplied.WithLabelValues("rejected").Inc()
		return nil, apperr.Wrap(apperr.ErrCodeInvalidRequest, "You can not rate your own recipe.", ErrSelfRating).
			WithContext("recipe_id", in.RecipeID)
	default:
		return nil, storeError("rate recipe", err)
	}

	names, err := ingredientNames(ctx, s.db, []uint{rated.ID})
	if err != nil {
		return nil, storeError("rate recipe", err)
	}
	ratingsApplied.WithLabelValues("rated").Inc()
	view := newView(rated, names[rated.ID])
	return &view, nil
}
