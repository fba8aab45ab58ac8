package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/scholarfeed/pkg/models"
)

// PostQuery describes a feed page request.
type PostQuery struct {
	// ViewerID is empty for anonymous requests.
	ViewerID string
	// Feed is one of "all", "following", "my-posts", "saved", "trending".
	Feed     string
	Search   string
	Category string
	// Author limits results to one author's posts, by username.
	Author string
	// SortBy is one of "hot", "new", "old", "top", "trending".
	SortBy string
	Page   int
	Limit  int
}

// postSelectFmt pulls the post row, its author, and derived counters. Counts
// are computed from the membership tables on every read so they can never
// drift from the actual sets. The single %s slot is the viewer placeholder.
const postSelectFmt = `
	SELECT p.id, p.title, p.content, p.category, p.tags, p.visibility,
	       p.is_repost, p.original_post_id, p.repost_count, p.views,
	       p.created_at, p.updated_at,
	       u.id, u.username, u.name, u.avatar, u.field,
	       (SELECT COUNT(*) FROM post_likes  WHERE post_id = p.id),
	       (SELECT COUNT(*) FROM comments    WHERE post_id = p.id),
	       (SELECT COUNT(*) FROM saved_posts WHERE post_id = p.id),
	       EXISTS (SELECT 1 FROM post_likes  WHERE post_id = p.id AND user_id = %[1]s),
	       EXISTS (SELECT 1 FROM saved_posts WHERE post_id = p.id AND user_id = %[1]s)
	FROM posts p
	JOIN users u ON u.id = p.author_id
`

func scanPost(row interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	err := row.Scan(&p.ID, &p.Title, &p.Content, &p.Category, &p.Tags, &p.Visibility,
		&p.IsRepost, &p.OriginalPostID, &p.RepostCount, &p.Views,
		&p.CreatedAt, &p.UpdatedAt,
		&p.Author.ID, &p.Author.Username, &p.Author.Name, &p.Author.Avatar, &p.Author.Field,
		&p.LikeCount, &p.CommentCount, &p.SaveCount, &p.LikedByMe, &p.SavedByMe)
	if err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

// viewerParam turns an optional viewer id into a SQL-comparable value. An
// empty string is not a valid uuid, so a NULL placeholder is used instead.
func viewerParam(viewerID string) any {
	if viewerID == "" {
		return nil
	}
	return viewerID
}

// CreatePost inserts a post authored by p.Author.ID.
func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO posts (id, author_id, title, content, category, tags, visibility, is_repost, original_post_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, p.ID, p.Author.ID, p.Title, p.Content, p.Category, p.Tags, p.Visibility, p.IsRepost, p.OriginalPostID)
	if err != nil {
		return fmt.Errorf("failed to insert post: %w", mapError(err))
	}
	return nil
}

// GetPost fetches a post with populated author, counters and the full
// comment tree.
func (s *Store) GetPost(ctx context.Context, id, viewerID string) (*models.Post, error) {
	row := s.pool.QueryRow(ctx, fmt.Sprintf(postSelectFmt, "$1")+` WHERE p.id = $2`, viewerParam(viewerID), id)
	p, err := scanPost(row)
	if err != nil {
		return nil, err
	}
	p.Comments, err = s.ListComments(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// ListPosts returns one feed page plus the total match count.
func (s *Store) ListPosts(ctx context.Context, q PostQuery) ([]models.Post, int, error) {
	if q.Limit <= 0 {
		q.Limit = 10
	}
	if q.Page <= 0 {
		q.Page = 1
	}

	where := []string{`p.visibility = 'public'`}
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	switch q.Feed {
	case "following":
		where = append(where, `p.author_id IN (SELECT followee_id FROM follows WHERE follower_id = `+arg(q.ViewerID)+`)`)
	case "my-posts":
		where = append(where, `p.author_id = `+arg(q.ViewerID))
	case "saved":
		where = append(where, `p.id IN (SELECT post_id FROM saved_posts WHERE user_id = `+arg(q.ViewerID)+`)`)
	case "trending":
		where = append(where, `p.created_at >= now() - INTERVAL '7 days'`)
	}

	if q.Search != "" {
		ph := arg(q.Search)
		where = append(where, `(p.title ILIKE '%' || `+ph+` || '%' OR p.content ILIKE '%' || `+ph+` || '%' OR p.category ILIKE '%' || `+ph+` || '%' OR EXISTS (SELECT 1 FROM unnest(p.tags) t WHERE t ILIKE '%' || `+ph+` || '%'))`)
	}
	if q.Category != "" && q.Category != "All" {
		where = append(where, `p.category = `+arg(q.Category))
	}
	if q.Author != "" {
		where = append(where, `u.username = `+arg(q.Author))
	}

	var order string
	switch q.SortBy {
	case "new":
		order = `p.created_at DESC`
	case "old":
		order = `p.created_at ASC`
	case "top":
		order = `(SELECT COUNT(*) FROM post_likes WHERE post_id = p.id) DESC, p.created_at DESC`
	case "trending":
		order = `p.trending_score DESC, p.created_at DESC`
	default: // hot
		order = `p.hot_score DESC, p.created_at DESC`
	}

	cond := strings.Join(where, " AND ")

	var total int
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM posts p JOIN users u ON u.id = p.author_id WHERE `+cond, args...).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count posts: %w", err)
	}

	query := fmt.Sprintf(postSelectFmt, arg(viewerParam(q.ViewerID))) +
		` WHERE ` + cond +
		` ORDER BY ` + order +
		` LIMIT ` + arg(q.Limit) + ` OFFSET ` + arg((q.Page-1)*q.Limit)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, 0, err
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// UpdatePost rewrites the editable fields and returns the fresh post.
func (s *Store) UpdatePost(ctx context.Context, id, title, content, category string, tags []string) (*models.Post, error) {
	tag, err := s.pool.Exec(ctx, `
		UPDATE posts
		SET title = $2, content = $3, category = $4, tags = $5, updated_at = now()
		WHERE id = $1
	`, id, title, content, category, tags)
	if err != nil {
		return nil, fmt.Errorf("failed to update post: %w", mapError(err))
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.GetPost(ctx, id, "")
}

// PostAuthor returns the author id of a post.
func (s *Store) PostAuthor(ctx context.Context, id string) (string, error) {
	var authorID string
	err := s.pool.QueryRow(ctx, `SELECT author_id FROM posts WHERE id = $1`, id).Scan(&authorID)
	if err != nil {
		return "", fmt.Errorf("failed to load post author: %w", mapError(err))
	}
	return authorID, nil
}

// DeletePost removes a post; likes, comments and saves cascade.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// IncrementRepostCount bumps the repost counter atomically.
func (s *Store) IncrementRepostCount(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE posts SET repost_count = repost_count + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to increment repost count: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddViews bumps the view counter on a page of posts.
func (s *Store) AddViews(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := s.pool.Exec(ctx,
		`UPDATE posts SET views = views + 1 WHERE id = ANY($1)`, ids)
	if err != nil {
		return fmt.Errorf("failed to add views: %w", err)
	}
	return nil
}

// TogglePostLike flips the actor's membership in the post's like set as a
// single conditional statement and returns the authoritative count, re-read
// after the flip. The composite primary key guarantees that two concurrent
// likes from the same actor insert at most one row.
func (s *Store) TogglePostLike(ctx context.Context, postID, userID string) (liked bool, likeCount int, err error) {
	return s.toggleMembership(ctx, "post_likes", "post_id", postID, userID)
}

// TogglePostSave flips the actor's membership in the post's save set.
func (s *Store) TogglePostSave(ctx context.Context, postID, userID string) (saved bool, saveCount int, err error) {
	return s.toggleMembership(ctx, "saved_posts", "post_id", postID, userID)
}

// toggleMembership performs the add-if-absent / remove-if-present flip shared
// by every like table. table and column are compile-time constants at all
// call sites, never user input.
func (s *Store) toggleMembership(ctx context.Context, table, column, targetID, userID string) (bool, int, error) {
	tag, err := s.pool.Exec(ctx,
		`INSERT INTO `+table+` (`+column+`, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		targetID, userID)
	if err != nil {
		return false, 0, fmt.Errorf("failed to toggle %s: %w", table, mapError(err))
	}

	member := tag.RowsAffected() == 1
	if !member {
		// Already a member: this call is the removal half of the toggle.
		if _, err := s.pool.Exec(ctx,
			`DELETE FROM `+table+` WHERE `+column+` = $1 AND user_id = $2`,
			targetID, userID); err != nil {
			return false, 0, fmt.Errorf("failed to toggle %s: %w", table, err)
		}
	}

	var count int
	err = s.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM `+table+` WHERE `+column+` = $1`, targetID).Scan(&count)
	if err != nil {
		return false, 0, fmt.Errorf("failed to recount %s: %w", table, err)
	}
	return member, count, nil
}

// EngagementStats aggregates a user's received engagement for the insights
// endpoint.
type EngagementStats struct {
	Posts            int `json:"posts"`
	LikesReceived    int `json:"likes_received"`
	CommentsReceived int `json:"comments_received"`
	Reposts          int `json:"reposts"`
	Views            int `json:"views"`
	Followers        int `json:"followers"`
	Following        int `json:"following"`
}

// UserEngagement computes the insights aggregates for a user's posts.
func (s *Store) UserEngagement(ctx context.Context, userID string) (*EngagementStats, error) {
	var st EngagementStats
	err := s.pool.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM posts WHERE author_id = $1),
			(SELECT COUNT(*) FROM post_likes pl JOIN posts p ON p.id = pl.post_id WHERE p.author_id = $1),
			(SELECT COUNT(*) FROM comments c JOIN posts p ON p.id = c.post_id WHERE p.author_id = $1),
			(SELECT COALESCE(SUM(repost_count), 0) FROM posts WHERE author_id = $1),
			(SELECT COALESCE(SUM(views), 0) FROM posts WHERE author_id = $1),
			(SELECT COUNT(*) FROM follows WHERE followee_id = $1),
			(SELECT COUNT(*) FROM follows WHERE follower_id = $1)
	`, userID).Scan(&st.Posts, &st.LikesReceived, &st.CommentsReceived,
		&st.Reposts, &st.Views, &st.Followers, &st.Following)
	if err != nil {
		return nil, fmt.Errorf("failed to load engagement stats: %w", err)
	}
	return &st, nil
}
