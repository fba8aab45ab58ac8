package store

import (
	"context"
	"fmt"
	"time"

	"github.com/scholarfeed/pkg/models"
)

const userColumns = `id, username, name, email, password_hash, avatar, bio, field, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Username, &u.Name, &u.Email, &u.PasswordHash,
		&u.Avatar, &u.Bio, &u.Field, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &u, nil
}

// CreateUser inserts a new user. Returns ErrConflict when the username or
// email is already taken.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, username, name, email, password_hash, avatar, bio, field)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.ID, u.Username, u.Name, u.Email, u.PasswordHash, u.Avatar, u.Bio, u.Field)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", mapError(err))
	}
	return nil
}

// GetUserByID fetches a user by id.
func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// GetUserByUsername fetches a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return scanUser(row)
}

// GetUserByEmail fetches a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

// UsernameExists reports whether a username is taken.
func (s *Store) UsernameExists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check username: %w", err)
	}
	return exists, nil
}

// UpdateUserProfile updates the mutable profile fields and returns the
// resulting user.
func (s *Store) UpdateUserProfile(ctx context.Context, id, name, bio, field, avatar string) (*models.User, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE users
		SET name = $2, bio = $3, field = $4, avatar = $5, updated_at = now()
		WHERE id = $1
		RETURNING `+userColumns, id, name, bio, field, avatar)
	return scanUser(row)
}

// SearchUsers finds users whose username or name matches the query.
func (s *Store) SearchUsers(ctx context.Context, query string, limit int) ([]models.User, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+userColumns+`
		FROM users
		WHERE username ILIKE '%' || $1 || '%' OR name ILIKE '%' || $1 || '%'
		ORDER BY username
		LIMIT $2
	`, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	defer rows.Close()

	var users []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

// Profile assembles the public profile with follow counters. viewerID may be
// empty for anonymous requests.
func (s *Store) Profile(ctx context.Context, username, viewerID string) (*models.Profile, error) {
	u, err := s.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}

	p := models.Profile{User: *u}
	err = s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM follows WHERE followee_id = $1),
			(SELECT COUNT(*) FROM follows WHERE follower_id = $1),
			(SELECT COUNT(*) FROM posts WHERE author_id = $1)
	`, u.ID).Scan(&p.FollowerCount, &p.FollowingCount, &p.PostCount)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile counters: %w", err)
	}

	if viewerID != "" {
		p.FollowedByMe, err = s.IsFollowing(ctx, viewerID, u.ID)
		if err != nil {
			return nil, err
		}
	}
	return &p, nil
}

// InsertAuthToken records an issued token hash for later validation and
// revocation.
func (s *Store) InsertAuthToken(ctx context.Context, userID, tokenHash, tokenType string, expiresAt time.Time) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO auth_tokens (user_id, token_hash, token_type, expires_at)
		VALUES ($1, $2, $3, $4)
	`, userID, tokenHash, tokenType, expiresAt)
	if err != nil {
		return fmt.Errorf("failed to store auth token: %w", mapError(err))
	}
	return nil
}

// AuthTokenValid reports whether a token hash is on record and unexpired.
func (s *Store) AuthTokenValid(ctx context.Context, tokenHash string) (bool, error) {
	var valid bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM auth_tokens
			WHERE token_hash = $1 AND expires_at > now()
		)
	`, tokenHash).Scan(&valid)
	if err != nil {
		return false, fmt.Errorf("failed to check auth token: %w", err)
	}
	return valid, nil
}

// DeleteAuthToken revokes a single token.
func (s *Store) DeleteAuthToken(ctx context.Context, tokenHash string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM auth_tokens WHERE token_hash = $1`, tokenHash)
	if err != nil {
		return fmt.Errorf("failed to delete auth token: %w", err)
	}
	return nil
}
