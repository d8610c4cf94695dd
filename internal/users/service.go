package users

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const maxUsernameAttempts = 5

type Service struct {
	Repo  Repo
	NewID func() string
}

func NewService(repo Repo) *Service {
	return &Service{Repo: repo, NewID: uuid.NewString}
}

// SyncFromIdentity creates the local user on first sign-in and resyncs the
// username and avatar on later sign-ins.
func (s *Service) SyncFromIdentity(ctx context.Context, id Identity) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	subject := strings.TrimSpace(id.Subject)
	email := strings.TrimSpace(id.Email)
	if subject == "" || email == "" {
		return User{}, errors.New("identity subject and email are required")
	}
	base := baseUsername(id.Name, email)

	existing, err := s.Repo.GetByGoogleID(ctx, subject)
	switch {
	case err == nil:
		username := existing.Username
		if base != existing.Username && !strings.HasPrefix(existing.Username, base+"-") {
			username = base
		}
		for attempt := 0; attempt < maxUsernameAttempts; attempt++ {
			updated, err := s.Repo.UpdateProfile(ctx, existing.ID, username, strings.TrimSpace(id.AvatarURL))
			if errors.Is(err, ErrUsernameTaken) {
				username = s.suffixed(base)
				continue
			}
			return updated, err
		}
		return User{}, fmt.Errorf("resync user %s: %w", existing.ID, ErrUsernameTaken)
	case !errors.Is(err, ErrNotFound):
		return User{}, fmt.Errorf("lookup user: %w", err)
	}

	username := base
	if taken, err := s.Repo.UsernameExists(ctx, username); err != nil {
		return User{}, fmt.Errorf("check username: %w", err)
	} else if taken {
		username = s.suffixed(base)
	}
	for attempt := 0; attempt < maxUsernameAttempts; attempt++ {
		created, err := s.Repo.Create(ctx, User{
			ID:        s.NewID(),
			GoogleID:  subject,
			Email:     email,
			Username:  username,
			AvatarURL: strings.TrimSpace(id.AvatarURL),
		})
		if errors.Is(err, ErrUsernameTaken) {
			username = s.suffixed(base)
			continue
		}
		if err != nil {
			return User{}, fmt.Errorf("create user: %w", err)
		}
		return created, nil
	}
	return User{}, fmt.Errorf("create user: %w", ErrUsernameTaken)
}

func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if s == nil || s.Repo == nil {
		return User{}, errors.New("users service not configured")
	}
	if strings.TrimSpace(userID) == "" {
		return User{}, errors.New("user id is required")
	}
	return s.Repo.GetByID(ctx, userID)
}

func (s *Service) suffixed(base string) string {
	return base + "-" + strings.ReplaceAll(s.NewID(), "-", "")[:6]
}

func baseUsername(name, email string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	local, _, _ := strings.Cut(email, "@")
	return local
}
