// Package handlers maps the JSON API onto the user store, the recipe service
// and the credential service.
package handlers

import (
	"context"
	"errors"
	"strings"

	"github.com/alexedwards/scs/v2"
	"github.com/go-playground/validator/v10"

	"cookbook/internal/auth"
	"cookbook/internal/recipes"
	"cookbook/internal/users"
	"cookbook/models"
)

// DefaultTokenHeader is the request header checked first for a token.
const DefaultTokenHeader = "access_token"

// UserStore persists accounts.
type UserStore interface {
	Create(ctx context.Context, in users.NewUser) (*models.User, error)
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	FindByID(ctx context.Context, id uint) (*models.User, error)
}

// RecipeService creates, rates and queries recipes.
type RecipeService interface {
	Create(ctx context.Context, in recipes.CreateInput) (*recipes.View, error)
	Rate(ctx context.Context, in recipes.RateInput) (*recipes.View, error)
	FindAll(ctx context.Context) ([]recipes.View, error)
	FindByOwner(ctx context.Context, ownerID uint) ([]recipes.View, error)
	FindByExactName(ctx context.Context, name string) ([]recipes.View, error)
	FindByIngredient(ctx context.Context, name string) ([]recipes.View, error)
	FindByTextSubstring(ctx context.Context, substr string) ([]recipes.View, error)
	Search(ctx context.Context, q recipes.SearchQuery) ([]recipes.View, error)
	TopIngredients(ctx context.Context, limit int) ([]recipes.IngredientUsage, error)
	ExtremeIngredientCount(ctx context.Context, which recipes.Extreme) (*recipes.CountedView, error)
}

// TokenService issues and verifies bearer tokens.
type TokenService interface {
	Issue(userID uint) (string, error)
	Verify(token string) (*auth.Claims, error)
}

// EmailVerifier decides whether an address may register.
type EmailVerifier interface {
	Verify(ctx context.Context, email string) error
}

// Enricher starts a best effort lookup of an address and returns at once.
type Enricher interface {
	Enrich(ctx context.Context, email string)
}

// Dependencies are the collaborators of a Handler. Sessions and Enricher are
// optional.
type Dependencies struct {
	Users       UserStore
	Recipes     RecipeService
	Tokens      TokenService
	Verifier    EmailVerifier
	Enricher    Enricher
	Sessions    *scs.SessionManager
	TokenHeader string
}

// Handler serves the API routes.
type Handler struct {
	users       UserStore
	recipes     RecipeService
	tokens      TokenService
	verifier    EmailVerifier
	enricher    Enricher
	sessions    *scs.SessionManager
	tokenHeader string
	validate    *validator.Validate
}

// New builds a Handler.
func New(deps Dependencies) (*Handler, error) {
	switch {
	case deps.Users == nil:
		return nil, errors.New("handlers: user store is required")
	case deps.Recipes == nil:
		return nil, errors.New("handlers: recipe service is required")
	case deps.Tokens == nil:
		return nil, errors.New("handlers: token service is required")
	case deps.Verifier == nil:
		return nil, errors.New("handlers: email verifier is required")
	}

	header := strings.TrimSpace(deps.TokenHeader)
	if header == "" {
		header = DefaultTokenHeader
	}

	return &Handler{
		users:       deps.Users,
		recipes:     deps.Recipes,
		tokens:      deps.Tokens,
		verifier:    deps.Verifier,
		enricher:    deps.Enricher,
		sessions:    deps.Sessions,
		tokenHeader: header,
		validate:    newValidator(),
	}, nil
}
