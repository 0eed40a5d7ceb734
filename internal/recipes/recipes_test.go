package recipes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"cookbook/internal/db"
	apperr "cookbook/internal/errors"
	"cookbook/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	db      *gorm.DB
	service *Service
	owner   models.User
	rater   models.User
	other   models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	database, err := db.OpenSQLite(fmt.Sprintf("file:recipes-%s?mode=memory&cache=shared", name), logger.Silent)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(database) })
	require.NoError(t, db.AutoMigrate(database))

	f := &fixture{db: database, service: NewService(database)}
	for _, u := range []*models.User{&f.owner, &f.rater, &f.other} {
		*u = models.User{FirstName: "x", LastName: "y", Email: "x@example.com", Password: "hash"}
	}
	f.owner.Username, f.rater.Username, f.other.Username = "owner", "rater", "other"
	require.NoError(t, database.Create(&f.owner).Error)
	require.NoError(t, database.Create(&f.rater).Error)
	require.NoError(t, database.Create(&f.other).Error)
	return f
}

func (f *fixture) create(t *testing.T, name, ingredients string) *View {
	t.Helper()
	v, err := f.service.Create(context.Background(), CreateInput{
		OwnerID:     f.owner.ID,
		Name:        name,
		Ingredients: ingredients,
		Text:        "text of " + name,
	})
	require.NoError(t, err)
	return v
}

func (f *fixture) linkCount(t *testing.T, recipeID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&models.RecipeIngredient{}).Where("recipe_id = ?", recipeID).Count(&n).Error)
	return n
}

func (f *fixture) reload(t *testing.T, id uint) models.Recipe {
	t.Helper()
	var r models.Recipe
	require.NoError(t, f.db.Take(&r, id).Error)
	return r
}

func TestParseIngredients(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []string
	}{
		{"simple", "egg, flour,milk", []string{"egg", "flour", "milk"}},
		{"duplicates kept", "egg, egg, Egg", []string{"egg", "egg", "Egg"}},
		{"empty tokens dropped", " , egg,,  ,", []string{"egg"}},
		{"inner whitespace kept", "olive oil ,\tsea salt\n", []string{"olive oil", "sea salt"}},
		{"nothing usable", " , ,", []string{}},
		{"empty", "", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseIngredients(tt.raw))
		})
	}
}

func TestDistinctIngredients(t *testing.T) {
	assert.Equal(t, []string{"egg", "Egg", "milk"}, DistinctIngredients([]string{"egg", "Egg", "egg", "milk", "Egg"}))
}

func TestRoundRating(t *testing.T) {
	tests := []struct {
		sum, count int
		want       float64
	}{
		{7, 2, 3.5},
		{7, 3, 2.33},
		{12, 3, 4.0},
		{5, 3, 1.67},
		{0, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundRating(tt.sum, tt.count), "%d/%d", tt.sum, tt.count)
	}
}

func TestCreateLinksDistinctIngredients(t *testing.T) {
	f := newFixture(t)

	v := f.create(t, "omelette", "egg, egg, Egg")
	assert.Equal(t, []string{"egg", "Egg"}, v.Ingredients)
	assert.Equal(t, int64(2), f.linkCount(t, v.ID))

	stored := f.reload(t, v.ID)
	assert.Equal(t, 0, stored.RSum)
	assert.Equal(t, 0, stored.RCount)
	assert.Equal(t, 0.0, stored.Rating)
}

func TestCreateReusesCatalogIngredients(t *testing.T) {
	f := newFixture(t)

	first := f.create(t, "pancakes", "egg, flour, milk")
	second := f.create(t, "bread", "flour, water, salt")

	var catalog int64
	require.NoError(t, f.db.Model(&models.Ingredient{}).Count(&catalog).Error)
	assert.Equal(t, int64(5), catalog)
	assert.Equal(t, []string{"egg", "flour", "milk"}, first.Ingredients)
	assert.Equal(t, []string{"flour", "water", "salt"}, second.Ingredients)
}

func TestCreateDuplicateNameKeepsFirstRecipe(t *testing.T) {
	f := newFixture(t)

	first := f.create(t, "soup", "water, salt")

	_, err := f.service.Create(context.Background(), CreateInput{
		OwnerID:     f.other.ID,
		Name:        "soup",
		Ingredients: "carrot, potato, leek",
		Text:        "another",
	})
	require.ErrorIs(t, err, ErrDuplicateRecipeName)
	assert.Equal(t, apperr.ErrCodeConflict, apperr.CodeOf(err))
	assert.Equal(t, "Recipe soup already exists.", apperr.MessageOf(err, ""))

	assert.Equal(t, int64(2), f.linkCount(t, first.ID))
	var catalog int64
	require.NoError(t, f.db.Model(&models.Ingredient{}).Count(&catalog).Error)
	assert.Equal(t, int64(2), catalog)
}

func TestCreateRequiresIngredients(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Create(context.Background(), CreateInput{OwnerID: f.owner.ID, Name: "air", Ingredients: " , ", Text: "t"})
	require.ErrorIs(t, err, ErrNoIngredients)
	assert.Equal(t, apperr.ErrCodeInvalidRequest, apperr.CodeOf(err))

	var n int64
	require.NoError(t, f.db.Model(&models.Recipe{}).Count(&n).Error)
	assert.Zero(t, n)
}

func TestRateAggregates(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, "stew", "beef, carrot")
	ctx := context.Background()

	var last *View
	for _, value := range []int{4, 5, 3} {
		var err error
		last, err = f.service.Rate(ctx, RateInput{RecipeID: v.ID, UserID: f.rater.ID, Value: value})
		require.NoError(t, err)
	}
	assert.Equal(t, 12, last.RSum)
	assert.Equal(t, 3, last.RCount)
	assert.Equal(t, 4.0, last.Rating)
	assert.Equal(t, []string{"beef", "carrot"}, last.Ingredients)

	stored := f.reload(t, v.ID)
	assert.Equal(t, 12, stored.RSum)
	assert.Equal(t, 3, stored.RCount)
	assert.Equal(t, 4.0, stored.Rating)
}

func TestRateRoundsToTwoDecimals(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, "tea", "water, leaves")
	ctx := context.Background()

	for _, value := range []int{2, 2, 3} {
		_, err := f.service.Rate(ctx, RateInput{RecipeID: v.ID, UserID: f.rater.ID, Value: value})
		require.NoError(t, err)
	}
	assert.Equal(t, 2.33, f.reload(t, v.ID).Rating)
}

func TestRateRejectsOwner(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, "salad", "lettuce")
	ctx := context.Background()

	_, err := f.service.Rate(ctx, RateInput{RecipeID: v.ID, UserID: f.rater.ID, Value: 5})
	require.NoError(t, err)

	_, err = f.service.Rate(ctx, RateInput{RecipeID: v.ID, UserID: f.owner.ID, Value: 1})
	require.ErrorIs(t, err, ErrSelfRating)
	assert.Equal(t, "You can not rate your own recipe.", apperr.MessageOf(err, ""))

	stored := f.reload(t, v.ID)
	assert.Equal(t, 5, stored.RSum)
	assert.Equal(t, 1, stored.RCount)
	assert.Equal(t, 5.0, stored.Rating)
}

func TestRateMissingRecipe(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.Rate(context.Background(), RateInput{RecipeID: 404, UserID: f.rater.ID, Value: 3})
	require.ErrorIs(t, err, ErrRecipeNotFound)
	assert.Equal(t, apperr.ErrCodeNotFound, apperr.CodeOf(err))
	assert.Equal(t, "Recipe 404 does not exist.", apperr.MessageOf(err, ""))
}

func TestConcurrentRatingsAreNotLost(t *testing.T) {
	f := newFixture(t)
	v := f.create(t, "curry", "rice, spice")

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, rating := range []struct {
		user  uint
		value int
	}{{f.rater.ID, 5}, {f.other.ID, 3}} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Rate(context.Background(), RateInput{RecipeID: v.ID, UserID: rating.user, Value: rating.value})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	stored := f.reload(t, v.ID)
	assert.Equal(t, 8, stored.RSum)
	assert.Equal(t, 2, stored.RCount)
	assert.Equal(t, 4.0, stored.Rating)
}

func TestConcurrentCreatesShareIngredients(t *testing.T) {
	f := newFixture(t)

	var wg sync.WaitGroup
	errs := make(chan error, 4)
	for i := range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.service.Create(context.Background(), CreateInput{
				OwnerID:     f.owner.ID,
				Name:        fmt.Sprintf("batch-%d", i),
				Ingredients: "salt, pepper",
				Text:        "t",
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	var catalog int64
	require.NoError(t, f.db.Model(&models.Ingredient{}).Count(&catalog).Error)
	assert.Equal(t, int64(2), catalog)
}

func TestCreateRollsBackWhenLinkingFails(t *testing.T) {
	f := newFixture(t)

	errLinks := errors.New("link insert failed")
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register("test:fail_links", func(tx *gorm.DB) {
		if tx.Statement.Table == "recipe_ingredients" {
			_ = tx.AddError(errLinks)
		}
	}))

	_, err := f.service.Create(context.Background(), CreateInput{
		OwnerID:     f.owner.ID,
		Name:        "half-made",
		Ingredients: "flour, water",
		Text:        "t",
	})
	require.ErrorIs(t, err, errLinks)
	assert.Equal(t, apperr.ErrCodeInternal, apperr.CodeOf(err))

	var recipes, catalog, links int64
	require.NoError(t, f.db.Model(&models.Recipe{}).Count(&recipes).Error)
	require.NoError(t, f.db.Model(&models.Ingredient{}).Count(&catalog).Error)
	require.NoError(t, f.db.Model(&models.RecipeIngredient{}).Count(&links).Error)
	assert.Zero(t, recipes)
	assert.Zero(t, catalog)
	assert.Zero(t, links)
}

func TestConcurrentCreatesWithSameNameKeepOneRecipe(t *testing.T) {
	f := newFixture(t)

	const callers = 8
	type result struct {
		view *View
		err  error
	}
	results := make(chan result, callers)
	var wg sync.WaitGroup
	for i := range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := f.service.Create(context.Background(), CreateInput{
				OwnerID:     f.owner.ID,
				Name:        "same",
				Ingredients: fmt.Sprintf("base, extra-%d", i),
				Text:        "t",
			})
			results <- result{view: v, err: err}
		}()
	}
	wg.Wait()
	close(results)

	var winner *View
	duplicates := 0
	for res := range results {
		switch {
		case res.err == nil:
			require.Nil(t, winner, "only one create may succeed")
			winner = res.view
		case errors.Is(res.err, ErrDuplicateRecipeName):
			duplicates++
		default:
			t.Fatalf("unexpected error: %v", res.err)
		}
	}
	require.NotNil(t, winner)
	assert.Equal(t, callers-1, duplicates)

	var recipes int64
	require.NoError(t, f.db.Model(&models.Recipe{}).Count(&recipes).Error)
	assert.Equal(t, int64(1), recipes)

	var catalog []models.Ingredient
	require.NoError(t, f.db.Order("id ASC").Find(&catalog).Error)
	names := make([]string, 0, len(catalog))
	for _, ing := range catalog {
		names = append(names, ing.Name)
	}
	assert.ElementsMatch(t, winner.Ingredients, names)

	var links int64
	require.NoError(t, f.db.Model(&models.RecipeIngredient{}).Count(&links).Error)
	assert.Equal(t, int64(len(winner.Ingredients)), links)
	assert.Equal(t, links, f.linkCount(t, winner.ID))
}

func TestFindAllRoundTrip(t *testing.T) {
	f := newFixture(t)
	a := f.create(t, "alpha", "a1, a2")
	b := f.create(t, "beta", "b1")

	all, err := f.service.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, *a, all[0])
	assert.Equal(t, *b, all[1])
}

func TestFindFilters(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	pancakes := f.create(t, "pancakes", "egg, flour")
	_ = f.create(t, "bread", "flour, water")
	mine, err := f.service.Create(ctx, CreateInput{OwnerID: f.other.ID, Name: "Pancakes", Ingredients: "Egg", Text: "Whisk it 100%"})
	require.NoError(t, err)

	byName, err := f.service.FindByExactName(ctx, "pancakes")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, pancakes.ID, byName[0].ID)

	byIng, err := f.service.FindByIngredient(ctx, "flour")
	require.NoError(t, err)
	assert.Len(t, byIng, 2)

	byIng, err = f.service.FindByIngredient(ctx, "Egg")
	require.NoError(t, err)
	require.Len(t, byIng, 1)
	assert.Equal(t, mine.ID, byIng[0].ID)

	byOwner, err := f.service.FindByOwner(ctx, f.other.ID)
	require.NoError(t, err)
	require.Len(t, byOwner, 1)
	assert.Equal(t, "Pancakes", byOwner[0].Name)

	none, err := f.service.FindByExactName(ctx, "missing")
	require.NoError(t, err)
	assert.Empty(t, none)
	assert.NotNil(t, none)
}

func TestFindByTextSubstringIsCaseSensitive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.Create(ctx, CreateInput{OwnerID: f.owner.ID, Name: "one", Ingredients: "x", Text: "Whisk it 100%"})
	require.NoError(t, err)
	_, err = f.service.Create(ctx, CreateInput{OwnerID: f.owner.ID, Name: "two", Ingredients: "x", Text: "whisk slowly"})
	require.NoError(t, err)
	_, err = f.service.Create(ctx, CreateInput{OwnerID: f.owner.ID, Name: "three", Ingredients: "x", Text: "stir 100 times"})
	require.NoError(t, err)

	found, err := f.service.FindByTextSubstring(ctx, "Whisk")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "one", found[0].Name)

	found, err = f.service.FindByTextSubstring(ctx, "100%")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "one", found[0].Name)
}

func TestSearchUnion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := f.create(t, "alpha", "egg")
	b := f.create(t, "beta", "milk")
	c := f.create(t, "gamma", "salt")

	name, ing, text := "gamma", "egg", "text of beta"
	found, err := f.service.Search(ctx, SearchQuery{Name: &name, Ingredient: &ing, Text: &text})
	require.NoError(t, err)
	require.Len(t, found, 3)
	assert.Equal(t, []uint{a.ID, b.ID, c.ID}, []uint{found[0].ID, found[1].ID, found[2].ID})

	name = "alpha"
	found, err = f.service.Search(ctx, SearchQuery{Name: &name, Ingredient: &ing})
	require.NoError(t, err)
	require.Len(t, found, 1)

	found, err = f.service.Search(ctx, SearchQuery{})
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestTopIngredientsOrdering(t *testing.T) {
	f := newFixture(t)
	f.create(t, "r1", "i1, i2, i3, i4")
	f.create(t, "r2", "i1, i2, i3, i5")
	f.create(t, "r3", "i1, i2, i6")

	top, err := f.service.TopIngredients(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, top, 5)

	var names []string
	var counts []int64
	for _, row := range top {
		names = append(names, row.Name)
		counts = append(counts, row.Recipes)
	}
	assert.Equal(t, []string{"i1", "i2", "i3", "i4", "i5"}, names)
	assert.Equal(t, []int64{3, 3, 2, 1, 1}, counts)
}

func TestTopIngredientsEmpty(t *testing.T) {
	f := newFixture(t)

	top, err := f.service.TopIngredients(context.Background(), 5)
	require.NoError(t, err)
	assert.NotNil(t, top)
	assert.Empty(t, top)
}

func TestExtremeIngredientCount(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.service.ExtremeIngredientCount(ctx, Max)
	require.ErrorIs(t, err, ErrRecipeNotFound)

	small := f.create(t, "small", "a")
	big := f.create(t, "big", "a, b, c")
	f.create(t, "also-big", "d, e, f")
	f.create(t, "also-small", "g")

	most, err := f.service.ExtremeIngredientCount(ctx, Max)
	require.NoError(t, err)
	assert.Equal(t, big.ID, most.ID)
	assert.Equal(t, 3, most.IngredientCount)
	assert.Equal(t, []string{"a", "b", "c"}, most.Ingredients)

	least, err := f.service.ExtremeIngredientCount(ctx, Min)
	require.NoError(t, err)
	assert.Equal(t, small.ID, least.ID)
	assert.Equal(t, 1, least.IngredientCount)
}
