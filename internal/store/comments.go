package store

import (
	"context"
	"fmt"

	"github.com/scholarfeed/pkg/models"
)

const commentSelectFmt = `
	SELECT c.id, c.post_id, c.content, c.created_at, c.updated_at,
	       u.id, u.username, u.name, u.avatar, u.field,
	       (SELECT COUNT(*) FROM comment_likes WHERE comment_id = c.id),
	       EXISTS (SELECT 1 FROM comment_likes WHERE comment_id = c.id AND user_id = %s)
	FROM comments c
	JOIN users u ON u.id = c.author_id
`

const replySelectFmt = `
	SELECT r.id, r.comment_id, r.content, r.created_at, r.updated_at,
	       u.id, u.username, u.name, u.avatar, u.field,
	       (SELECT COUNT(*) FROM reply_likes WHERE reply_id = r.id),
	       EXISTS (SELECT 1 FROM reply_likes WHERE reply_id = r.id AND user_id = %s)
	FROM replies r
	JOIN users u ON u.id = r.author_id
`

func scanComment(row interface{ Scan(...any) error }) (*models.Comment, error) {
	var c models.Comment
	err := row.Scan(&c.ID, &c.PostID, &c.Content, &c.CreatedAt, &c.UpdatedAt,
		&c.Author.ID, &c.Author.Username, &c.Author.Name, &c.Author.Avatar, &c.Author.Field,
		&c.LikeCount, &c.LikedByMe)
	if err != nil {
		return nil, mapError(err)
	}
	c.Replies = []models.Reply{}
	return &c, nil
}

func scanReply(row interface{ Scan(...any) error }) (*models.Reply, error) {
	var r models.Reply
	err := row.Scan(&r.ID, &r.CommentID, &r.Content, &r.CreatedAt, &r.UpdatedAt,
		&r.Author.ID, &r.Author.Username, &r.Author.Name, &r.Author.Avatar, &r.Author.Field,
		&r.LikeCount, &r.LikedByMe)
	if err != nil {
		return nil, mapError(err)
	}
	return &r, nil
}

// CreateComment inserts a comment authored by c.Author.ID.
func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO comments (id, post_id, author_id, content)
		VALUES ($1, $2, $3, $4)
	`, c.ID, c.PostID, c.Author.ID, c.Content)
	if err != nil {
		return fmt.Errorf("failed to insert comment: %w", mapError(err))
	}
	return nil
}

// GetComment fetches one comment with its replies.
func (s *Store) GetComment(ctx context.Context, id, viewerID string) (*models.Comment, error) {
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf(commentSelectFmt, "$1")+` WHERE c.id = $2`,
		viewerParam(viewerID), id)
	c, err := scanComment(row)
	if err != nil {
		return nil, err
	}
	replies, err := s.listReplies(ctx, []string{id}, viewerID)
	if err != nil {
		return nil, err
	}
	c.Replies = replies[id]
	if c.Replies == nil {
		c.Replies = []models.Reply{}
	}
	return c, nil
}

// ListComments returns a post's comments oldest first, each with its replies
// attached.
func (s *Store) ListComments(ctx context.Context, postID, viewerID string) ([]models.Comment, error) {
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(commentSelectFmt, "$1")+` WHERE c.post_id = $2 ORDER BY c.created_at`,
		viewerParam(viewerID), postID)
	if err != nil {
		return nil, fmt.Errorf("failed to list comments: %w", err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	var ids []string
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, *c)
		ids = append(ids, c.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	replies, err := s.listReplies(ctx, ids, viewerID)
	if err != nil {
		return nil, err
	}
	for i := range comments {
		if rs, ok := replies[comments[i].ID]; ok {
			comments[i].Replies = rs
		}
	}
	return comments, nil
}

// listReplies loads the replies for a set of comments, grouped by comment id.
func (s *Store) listReplies(ctx context.Context, commentIDs []string, viewerID string) (map[string][]models.Reply, error) {
	out := make(map[string][]models.Reply)
	if len(commentIDs) == 0 {
		return out, nil
	}
	rows, err := s.pool.Query(ctx,
		fmt.Sprintf(replySelectFmt, "$1")+` WHERE r.comment_id = ANY($2) ORDER BY r.created_at`,
		viewerParam(viewerID), commentIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list replies: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanReply(rows)
		if err != nil {
			return nil, err
		}
		out[r.CommentID] = append(out[r.CommentID], *r)
	}
	return out, rows.Err()
}

// CommentCount returns the number of top-level comments on a post.
func (s *Store) CommentCount(ctx context.Context, postID string) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM comments WHERE post_id = $1`, postID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count comments: %w", err)
	}
	return count, nil
}

// CommentAuthor returns the author id of a comment together with the author
// id of the post it belongs to, for the delete permission check.
func (s *Store) CommentAuthor(ctx context.Context, id string) (commentAuthor, postAuthor, postID string, err error) {
	err = s.pool.QueryRow(ctx, `
		SELECT c.author_id, p.author_id, p.id
		FROM comments c
		JOIN posts p ON p.id = c.post_id
		WHERE c.id = $1
	`, id).Scan(&commentAuthor, &postAuthor, &postID)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to load comment author: %w", mapError(err))
	}
	return commentAuthor, postAuthor, postID, nil
}

// UpdateComment rewrites a comment's content and returns the fresh comment
// as seen by its editor.
func (s *Store) UpdateComment(ctx context.Context, id, content string) (*models.Comment, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE comments SET content = $2, updated_at = now() WHERE id = $1
	`, id, content)
	if err != nil {
		return nil, fmt.Errorf("failed to update comment: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.GetComment(ctx, id, "")
}

// UpdateReply rewrites a reply's content and returns the fresh reply.
func (s *Store) UpdateReply(ctx context.Context, id, content string) (*models.Reply, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE replies SET content = $2, updated_at = now() WHERE id = $1
	`, id, content)
	if err != nil {
		return nil, fmt.Errorf("failed to update reply: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.GetReply(ctx, id, "")
}

// DeleteComment removes a comment; replies and likes cascade.
func (s *Store) DeleteComment(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleCommentLike flips the actor's like on a comment and returns the
// re-read count.
func (s *Store) ToggleCommentLike(ctx context.Context, commentID, userID string) (liked bool, likeCount int, err error) {
	return s.toggleMembership(ctx, "comment_likes", "comment_id", commentID, userID)
}

// CreateReply inserts a reply authored by r.Author.ID.
func (s *Store) CreateReply(ctx context.Context, r *models.Reply) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO replies (id, comment_id, author_id, content)
		VALUES ($1, $2, $3, $4)
	`, r.ID, r.CommentID, r.Author.ID, r.Content)
	if err != nil {
		return fmt.Errorf("failed to insert reply: %w", mapError(err))
	}
	return nil
}

// GetReply fetches one reply.
func (s *Store) GetReply(ctx context.Context, id, viewerID string) (*models.Reply, error) {
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf(replySelectFmt, "$1")+` WHERE r.id = $2`,
		viewerParam(viewerID), id)
	return scanReply(row)
}

// ReplyContext returns the reply's author plus the ids needed to address the
// reply_deleted event.
func (s *Store) ReplyContext(ctx context.Context, id string) (replyAuthor, commentID, postID string, err error) {
	err = s.pool.QueryRow(ctx, `
		SELECT r.author_id, r.comment_id, c.post_id
		FROM replies r
		JOIN comments c ON c.id = r.comment_id
		WHERE r.id = $1
	`, id).Scan(&replyAuthor, &commentID, &postID)
	if err != nil {
		return "", "", "", fmt.Errorf("failed to load reply context: %w", mapError(err))
	}
	return replyAuthor, commentID, postID, nil
}

// DeleteReply removes a reply; its likes cascade.
func (s *Store) DeleteReply(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM replies WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete reply: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ToggleReplyLike flips the actor's like on a reply and returns the re-read
// count.
func (s *Store) ToggleReplyLike(ctx context.Context, replyID, userID string) (liked bool, likeCount int, err error) {
	return s.toggleMembership(ctx, "reply_likes", "reply_id", replyID, userID)
}
