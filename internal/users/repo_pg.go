package users

import (
	"context"
	"database/sql"
	"errors"

	"incident-backend/internal/shared/storage/db"
)

type PGRepo struct {
	DB *sql.DB
}

const userColumns = `id, google_id, email, username, avatar_url, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, user User) (User, error) {
	const query = `
INSERT INTO users (id, google_id, email, username, avatar_url, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, now(), now())
RETURNING ` + userColumns
	row := r.DB.QueryRowContext(ctx, query,
		user.ID,
		user.GoogleID,
		user.Email,
		user.Username,
		nullableString(user.AvatarURL),
	)
	created, err := scanUser(row)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, ErrUsernameTaken
		}
		return User{}, err
	}
	return created, nil
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1 LIMIT 1`
	return scanUser(r.DB.QueryRowContext(ctx, query, userID))
}

func (r *PGRepo) GetByGoogleID(ctx context.Context, googleID string) (User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE google_id = $1 LIMIT 1`
	return scanUser(r.DB.QueryRowContext(ctx, query, googleID))
}

func (r *PGRepo) UpdateProfile(ctx context.Context, userID, username, avatarURL string) (User, error) {
	const query = `
UPDATE users
SET username = $2, avatar_url = $3, updated_at = now()
WHERE id = $1
RETURNING ` + userColumns
	user, err := scanUser(r.DB.QueryRowContext(ctx, query, userID, username, nullableString(avatarURL)))
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, ErrUsernameTaken
		}
		return User{}, err
	}
	return user, nil
}

func (r *PGRepo) UsernameExists(ctx context.Context, username string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`
	var exists bool
	if err := r.DB.QueryRowContext(ctx, query, username).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func scanUser(row *sql.Row) (User, error) {
	var user User
	var avatarURL sql.NullString
	err := row.Scan(
		&user.ID,
		&user.GoogleID,
		&user.Email,
		&user.Username,
		&avatarURL,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	if avatarURL.Valid {
		user.AvatarURL = avatarURL.String
	}
	return user, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
