package store

import (
	"context"
	"fmt"

	"github.com/scholarfeed/pkg/models"
)

// IsFollowing reports whether follower currently follows followee.
func (s *Store) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	var following bool
	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2
		)
	`, followerID, followeeID).Scan(&following)
	if err != nil {
		return false, fmt.Errorf("failed to check follow: %w", err)
	}
	return following, nil
}

// Follow adds the edge if absent. The primary key makes a concurrent double
// follow a no-op for the loser; added reports whether this call inserted it.
func (s *Store) Follow(ctx context.Context, followerID, followeeID string) (added bool, err error) {
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO follows (follower_id, followee_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("failed to follow: %w", mapError(err))
	}
	return tag.RowsAffected() == 1, nil
}

// Unfollow removes the edge if present.
func (s *Store) Unfollow(ctx context.Context, followerID, followeeID string) (removed bool, err error) {
	tag, err := s.pool.Exec(ctx, `
		DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2
	`, followerID, followeeID)
	if err != nil {
		return false, fmt.Errorf("failed to unfollow: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// FollowerCount returns the authoritative follower count.
func (s *Store) FollowerCount(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM follows WHERE followee_id = $1`, userID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count followers: %w", err)
	}
	return n, nil
}

// ListFollowers returns the users following userID.
func (s *Store) ListFollowers(ctx context.Context, userID string) ([]models.UserRef, error) {
	return s.listFollowEdge(ctx, `
		SELECT u.id, u.username, u.name, u.avatar, u.field
		FROM follows f JOIN users u ON u.id = f.follower_id
		WHERE f.followee_id = $1
		ORDER BY f.created_at DESC
	`, userID)
}

// ListFollowing returns the users userID follows.
func (s *Store) ListFollowing(ctx context.Context, userID string) ([]models.UserRef, error) {
	return s.listFollowEdge(ctx, `
		SELECT u.id, u.username, u.name, u.avatar, u.field
		FROM follows f JOIN users u ON u.id = f.followee_id
		WHERE f.follower_id = $1
		ORDER BY f.created_at DESC
	`, userID)
}

func (s *Store) listFollowEdge(ctx context.Context, query, userID string) ([]models.UserRef, error) {
	rows, err := s.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list follow edge: %w", err)
	}
	defer rows.Close()

	var refs []models.UserRef
	for rows.Next() {
		var r models.UserRef
		if err := rows.Scan(&r.ID, &r.Username, &r.Name, &r.Avatar, &r.Field); err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}
