package store

import (
	"context"
	"fmt"
	"time"

	"github.com/scholarfeed/pkg/models"
)

const notificationSelect = `
	SELECT n.id, n.recipient_id, n.type, n.post_id, n.comment_id, n.message,
	       n.read, n.created_at,
	       u.id, u.username, u.name, u.avatar, u.field
	FROM notifications n
	LEFT JOIN users u ON u.id = n.from_user_id
`

func scanNotification(row interface{ Scan(...any) error }) (*models.Notification, error) {
	var (
		n    models.Notification
		from struct {
			id, username, name, avatar, field *string
		}
	)
	err := row.Scan(&n.ID, &n.RecipientID, &n.Type, &n.PostID, &n.CommentID,
		&n.Message, &n.Read, &n.CreatedAt,
		&from.id, &from.username, &from.name, &from.avatar, &from.field)
	if err != nil {
		return nil, mapError(err)
	}
	if from.id != nil {
		n.FromUser = &models.UserRef{
			ID:       *from.id,
			Username: *from.username,
			Name:     *from.name,
			Avatar:   *from.avatar,
			Field:    *from.field,
		}
	}
	return &n, nil
}

// InsertNotification persists a notification for one recipient.
func (s *Store) InsertNotification(ctx context.Context, n *models.Notification) error {
	var fromID any
	if n.FromUser != nil {
		fromID = n.FromUser.ID
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO notifications (id, recipient_id, type, from_user_id, post_id, comment_id, message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, n.ID, n.RecipientID, n.Type, fromID, n.PostID, n.CommentID, n.Message, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", mapError(err))
	}
	return nil
}

// ListNotifications returns a user's notifications newest first, together
// with the unread count.
func (s *Store) ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, int, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		notificationSelect+` WHERE n.recipient_id = $1 ORDER BY n.created_at DESC LIMIT $2`,
		userID, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []models.Notification{}
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, 0, err
		}
		notifications = append(notifications, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	var unread int
	err = s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE recipient_id = $1 AND NOT read`,
		userID).Scan(&unread)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return notifications, unread, nil
}

// MarkNotificationRead marks one of the user's notifications as read.
func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE id = $1 AND recipient_id = $2`,
		id, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllNotificationsRead marks every notification of the user as read.
func (s *Store) MarkAllNotificationsRead(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx,
		`UPDATE notifications SET read = TRUE WHERE recipient_id = $1 AND NOT read`, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}
	return nil
}

// DeleteNotification removes one of the user's notifications.
func (s *Store) DeleteNotification(ctx context.Context, id, userID string) error {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM notifications WHERE id = $1 AND recipient_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notification: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteAllNotifications clears the user's notification list.
func (s *Store) DeleteAllNotifications(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM notifications WHERE recipient_id = $1`, userID)
	if err != nil {
		return fmt.Errorf("failed to delete notifications: %w", err)
	}
	return nil
}

// DeleteReadNotificationsBefore removes read notifications older than cutoff
// and reports how many were removed. Used by the periodic cleanup job.
func (s *Store) DeleteReadNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := s.pool.Exec(ctx,
		`DELETE FROM notifications WHERE read AND created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to clean up notifications: %w", err)
	}
	return tag.RowsAffected(), nil
}

// RecomputeScores refreshes hot and trending scores for every post. Hot
// weighs engagement with age decay; trending only considers the last week.
func (s *Store) RecomputeScores(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, `
		UPDATE posts p SET
			hot_score = sub.engagement * POWER(0.95, EXTRACT(EPOCH FROM (now() - p.created_at)) / 3600),
			trending_score = CASE
				WHEN p.created_at >= now() - INTERVAL '7 days'
				THEN sub.engagement * POWER(0.95, EXTRACT(EPOCH FROM (now() - p.created_at)) / 3600)
				ELSE 0
			END
		FROM (
			SELECT p2.id,
			       (SELECT COUNT(*) FROM post_likes  WHERE post_id = p2.id) * 2.0 +
			       (SELECT COUNT(*) FROM comments    WHERE post_id = p2.id) * 3.0 +
			       (SELECT COUNT(*) FROM saved_posts WHERE post_id = p2.id) * 2.0 +
			       p2.repost_count * 4.0 +
			       p2.views * 0.1 AS engagement
			FROM posts p2
		) sub
		WHERE sub.id = p.id
	`)
	if err != nil {
		return fmt.Errorf("failed to recompute scores: %w", err)
	}
	return nil
}
