// Package users persists the accounts that publish and rate recipes.
package users

import (
	"context"
	"errors"
	"strings"

	apperr "cookbook/internal/errors"
	"cookbook/models"

	"gorm.io/gorm"
)

var (
	// ErrUsernameTaken reports a registration for a username already in use.
	ErrUsernameTaken = errors.New("users: username already exists")
	// ErrUserNotFound reports a lookup that matched no account.
	ErrUserNotFound = errors.New("users: user not found")
)

// NewUser is the data needed to create an account. Password must already be
// hashed.
type NewUser struct {
	FirstName    string
	LastName     string
	Email        string
	Username     string
	PasswordHash string
}

// Store reads and writes users.
type Store struct {
	db *gorm.DB
}

// NewStore wraps db.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Create inserts the account unless the username is already taken.
func (s *Store) Create(ctx context.Context, in NewUser) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	if username == "" {
		return nil, apperr.New(apperr.ErrCodeInvalidRequest, "username must not be empty")
	}

	user := &models.User{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Username:  username,
		Password:  in.PasswordHash,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrUsernameTaken
		}
		return tx.Create(user).Error
	})
	switch {
	case err == nil:
		return user, nil
	case errors.Is(err, ErrUsernameTaken), errors.Is(err, gorm.ErrDuplicatedKey):
		return nil, apperr.Wrap(apperr.ErrCodeConflict, "User with that username already exists. Please Log in", ErrUsernameTaken).
			WithContext("username", username)
	default:
		return nil, apperr.Wrap(apperr.ErrCodeInternal, "create user", err)
	}
}

// FindByUsername returns the account with the given username.
func (s *Store) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Where("username = ?", strings.TrimSpace(username)).Take(&user).Error
	if err != nil {
		return nil, lookupError(err)
	}
	return &user, nil
}

// FindByID returns the account with the given id.
func (s *Store) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Take(&user, id).Error; err != nil {
		return nil, lookupError(err)
	}
	return &user, nil
}

func lookupError(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Wrap(apperr.ErrCodeNotFound, "User with that username does not exist", ErrUserNotFound)
	}
	return apperr.Wrap(apperr.ErrCodeInternal, "load user", err)
}
