package mock

import (
	"context"
	"fmt"
	"sync/atomic"

	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"cookbook/internal/auth"
	"cookbook/internal/db"
	applog "cookbook/internal/log"
	"cookbook/internal/recipes"
	"cookbook/models"
)

// DemoPassword is the password of every seeded account.
const DemoPassword = "cookbook"

var instances atomic.Int64

type seedRecipe struct {
	owner       string
	name        string
	ingredients string
	text        string
	ratings     []seedRating
}

type seedRating struct {
	by    string
	value int
}

var demoUsers = []models.User{
	{FirstName: "Avery", LastName: "Stone", Email: "avery@cookbook.dev", Username: "avery"},
	{FirstName: "Jules", LastName: "Marin", Email: "jules@cookbook.dev", Username: "jules"},
}

var demoRecipes = []seedRecipe{
	{
		owner:       "avery",
		name:        "Buttermilk Pancakes",
		ingredients: "flour, buttermilk, egg, butter, sugar, baking powder",
		text:        "Whisk the dry ingredients, fold in buttermilk and egg, cook on a hot griddle.",
		ratings:     []seedRating{{by: "jules", value: 5}},
	},
	{
		owner:       "avery",
		name:        "Tomato Soup",
		ingredients: "tomato, onion, garlic, olive oil, salt",
		text:        "Sweat onion and garlic in olive oil, add tomato, simmer and blend.",
		ratings:     []seedRating{{by: "jules", value: 4}},
	},
	{
		owner:       "jules",
		name:        "Garlic Bread",
		ingredients: "bread, butter, garlic, salt",
		text:        "Spread garlic butter on sliced bread and bake until golden.",
		ratings:     []seedRating{{by: "avery", value: 3}},
	},
	{
		owner:       "jules",
		name:        "Boiled Egg",
		ingredients: "egg",
		text:        "Simmer the egg for nine minutes and cool in cold water.",
	},
}

// New returns an in-memory sqlite database seeded with demo users, recipes
// and ratings. Every call gets its own database.
func New(ctx context.Context) (*gorm.DB, error) {
	applog.Debug(ctx, "initialising mock database")

	dsn := fmt.Sprintf("file:cookbook-mock-%d?mode=memory&cache=shared", instances.Add(1))
	database, err := db.OpenSQLite(dsn, logger.Silent)
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(database); err != nil {
		return nil, err
	}

	if err := seed(ctx, database); err != nil {
		return nil, err
	}

	applog.Debug(ctx, "mock database ready")
	return database, nil
}

func seed(ctx context.Context, database *gorm.DB) error {
	applog.Debug(ctx, "seeding mock database")

	password, err := auth.HashPassword(DemoPassword)
	if err != nil {
		return err
	}

	ids := make(map[string]uint, len(demoUsers))
	for _, u := range demoUsers {
		user := u
		user.Password = password
		if err := database.WithContext(ctx).Create(&user).Error; err != nil {
			return fmt.Errorf("seed user %s: %w", user.Username, err)
		}
		ids[user.Username] = user.ID
	}

	service := recipes.NewService(database)
	for _, r := range demoRecipes {
		created, err := service.Create(ctx, recipes.CreateInput{
			OwnerID:     ids[r.owner],
			Name:        r.name,
			Ingredients: r.ingredients,
			Text:        r.text,
		})
		if err != nil {
			return fmt.Errorf("seed recipe %s: %w", r.name, err)
		}
		for _, rating := range r.ratings {
			if _, err := service.Rate(ctx, recipes.RateInput{
				RecipeID: created.ID,
				UserID:   ids[rating.by],
				Value:    rating.value,
			}); err != nil {
				return fmt.Errorf("seed rating for %s: %w", r.name, err)
			}
		}
	}
	return nil
}
