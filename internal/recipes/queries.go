package recipes

import (
	"context"
	"sort"
	"strings"

	apperr "cookbook/internal/errors"
	"cookbook/models"

	"gorm.io/gorm"
)

// DefaultTopIngredients is the number of rows TopIngredients returns when no
// positive limit is given.
const DefaultTopIngredients = 5

// Extreme selects the recipe with the most or the fewest ingredients.
type Extreme int

const (
	// Max selects the recipe with the most ingredients.
	Max Extreme = iota
	// Min selects the recipe with the fewest ingredients.
	Min
)

// SearchQuery holds the optional filters of Search. Nil filters are skipped.
type SearchQuery struct {
	Name       *string
	Ingredient *string
	Text       *string
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// FindAll returns every recipe ordered by id.
func (s *Service) FindAll(ctx context.Context) ([]View, error) {
	return s.find(ctx, s.db.WithContext(ctx))
}

// FindByOwner returns the recipes created by ownerID.
func (s *Service) FindByOwner(ctx context.Context, ownerID uint) ([]View, error) {
	return s.find(ctx, s.db.WithContext(ctx).Where("owner_id = ?", ownerID))
}

// FindByExactName returns the recipe named name, if any.
func (s *Service) FindByExactName(ctx context.Context, name string) ([]View, error) {
	return s.find(ctx, s.db.WithContext(ctx).Where("name = ?", name))
}

// FindByIngredient returns the recipes linked to the ingredient named name.
func (s *Service) FindByIngredient(ctx context.Context, name string) ([]View, error) {
	linked := s.db.
		Table("recipe_ingredients").
		Select("recipe_ingredients.recipe_id").
		Joins("JOIN ingredients ON ingredients.id = recipe_ingredients.ingredient_id").
		Where("ingredients.name = ?", name)
	return s.find(ctx, s.db.WithContext(ctx).Where("id IN (?)", linked))
}

// FindByTextSubstring returns the recipes whose text contains substr,
// compared case-sensitively.
func (s *Service) FindByTextSubstring(ctx context.Context, substr string) ([]View, error) {
	var candidates []models.Recipe
	err := s.db.WithContext(ctx).
		Where(`text LIKE ? ESCAPE '\'`, "%"+likeEscaper.Replace(substr)+"%").
		Order("id ASC").
		Find(&candidates).Error
	if err != nil {
		return nil, storeError("find recipes", err)
	}

	matched := candidates[:0]
	for _, r := range candidates {
		if strings.Contains(r.Text, substr) {
			matched = append(matched, r)
		}
	}
	out, err := views(ctx, s.db, matched)
	if err != nil {
		return nil, storeError("find recipes", err)
	}
	return out, nil
}

// Search returns the union of the recipes matching each given filter,
// ordered by id. A query without filters matches nothing.
func (s *Service) Search(ctx context.Context, q SearchQuery) ([]View, error) {
	byID := make(map[uint]View)
	collect := func(found []View, err error) error {
		if err != nil {
			return err
		}
		for _, v := range found {
			byID[v.ID] = v
		}
		return nil
	}

	if q.Name != nil {
		if err := collect(s.FindByExactName(ctx, *q.Name)); err != nil {
			return nil, err
		}
	}
	if q.Ingredient != nil {
		if err := collect(s.FindByIngredient(ctx, *q.Ingredient)); err != nil {
			return nil, err
		}
	}
	if q.Text != nil {
		if err := collect(s.FindByTextSubstring(ctx, *q.Text)); err != nil {
			return nil, err
		}
	}

	out := make([]View, 0, len(byID))
	for _, v := range byID {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// TopIngredients returns the ingredients used by the most recipes. Ties are
// broken by ingredient id.
func (s *Service) TopIngredients(ctx context.Context, limit int) ([]IngredientUsage, error) {
	if limit <= 0 {
		limit = DefaultTopIngredients
	}

	var rows []IngredientUsage
	err := s.db.WithContext(ctx).
		Table("ingredients").
		Select("ingredients.id AS id, ingredients.name AS name, COUNT(DISTINCT recipe_ingredients.recipe_id) AS recipes").
		Joins("JOIN recipe_ingredients ON recipe_ingredients.ingredient_id = ingredients.id").
		Group("ingredients.id, ingredients.name").
		Order("recipes DESC, ingredients.id ASC").
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, storeError("top ingredients", err)
	}
	if rows == nil {
		rows = []IngredientUsage{}
	}
	return rows, nil
}

// ExtremeIngredientCount returns the recipe with the most or fewest linked
// ingredients, preferring the lowest id on ties. An empty catalog yields
// ErrRecipeNotFound.
func (s *Service) ExtremeIngredientCount(ctx context.Context, which Extreme) (*CountedView, error) {
	order := "ingredient_count DESC, recipes.id ASC"
	if which == Min {
		order = "ingredient_count ASC, recipes.id ASC"
	}

	var rows []struct {
		ID              uint
		IngredientCount int
	}
	err := s.db.WithContext(ctx).
		Table("recipes").
		Select("recipes.id AS id, COUNT(recipe_ingredients.ingredient_id) AS ingredient_count").
		Joins("LEFT JOIN recipe_ingredients ON recipe_ingredients.recipe_id = recipes.id").
		Group("recipes.id").
		Order(order).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, storeError("extreme ingredient count", err)
	}
	if len(rows) == 0 {
		return nil, apperr.Wrap(apperr.ErrCodeNotFound, "No recipes found.", ErrRecipeNotFound)
	}

	found, err := s.find(ctx, s.db.WithContext(ctx).Where("id = ?", rows[0].ID))
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, notFound(rows[0].ID)
	}
	return &CountedView{View: found[0], IngredientCount: rows[0].IngredientCount}, nil
}

func (s *Service) find(ctx context.Context, scope *gorm.DB) ([]View, error) {
	var recipes []models.Recipe
	if err := scope.Order("id ASC").Find(&recipes).Error; err != nil {
		return nil, storeError("find recipes", err)
	}
	out, err := views(ctx, s.db, recipes)
	if err != nil {
		return nil, storeError("find recipes", err)
	}
	return out, nil
}
