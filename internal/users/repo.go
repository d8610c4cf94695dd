package users

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("user not found")
	ErrUsernameTaken = errors.New("username taken")
)

type Repo interface {
	Create(ctx context.Context, user User) (User, error)
	GetByID(ctx context.Context, userID string) (User, error)
	GetByGoogleID(ctx context.Context, googleID string) (User, error)
	UpdateProfile(ctx context.Context, userID, username, avatarURL string) (User, error)
	UsernameExists(ctx context.Context, username string) (bool, error)
}
