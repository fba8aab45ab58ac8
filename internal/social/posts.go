package social

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/scholarfeed/internal/realtime"
	"github.com/scholarfeed/internal/store"
	"github.com/scholarfeed/pkg/models"
)

const (
	maxTitleLen   = 200
	maxContentLen = 10000
	maxTags       = 5
)

// PostInput is the writable part of a post.
type PostInput struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

func (in *PostInput) validate() error {
	in.Title = strings.TrimSpace(in.Title)
	in.Content = strings.TrimSpace(in.Content)
	switch {
	case in.Title == "":
		return validationf("title is required")
	case len(in.Title) > maxTitleLen:
		return validationf("title exceeds %d characters", maxTitleLen)
	case in.Content == "":
		return validationf("content is required")
	case len(in.Content) > maxContentLen:
		return validationf("content exceeds %d characters", maxContentLen)
	case !models.ValidCategory(in.Category):
		return validationf("unknown category %q", in.Category)
	case len(in.Tags) > maxTags:
		return validationf("at most %d tags allowed", maxTags)
	}
	if in.Tags == nil {
		in.Tags = []string{}
	}
	return nil
}

// PostService coordinates post mutations: persist first, then fan out.
type PostService struct {
	store Store
	disp  Dispatcher
	notifier
}

// NewPostService creates a post service.
func NewPostService(st Store, disp Dispatcher) *PostService {
	return &PostService{store: st, disp: disp, notifier: notifier{store: st, disp: disp}}
}

// Create persists a new post and announces it to everyone else.
func (s *PostService) Create(ctx context.Context, author *models.User, in PostInput) (*models.Post, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	p := &models.Post{
		ID:         uuid.NewString(),
		Author:     author.Ref(),
		Title:      in.Title,
		Content:    in.Content,
		Category:   in.Category,
		Tags:       in.Tags,
		Visibility: models.VisibilityPublic,
	}
	if err := s.store.CreatePost(ctx, p); err != nil {
		return nil, err
	}
	created, err := s.store.GetPost(ctx, p.ID, author.ID)
	if err != nil {
		return nil, err
	}
	s.disp.BroadcastExcept(author.ID, realtime.NewPost(created))
	return created, nil
}

// Get returns one post with its comment tree and counts a view.
func (s *PostService) Get(ctx context.Context, id, viewerID string) (*models.Post, error) {
	p, err := s.store.GetPost(ctx, id, viewerID)
	if err != nil {
		return nil, err
	}
	if err := s.store.AddViews(ctx, []string{id}); err != nil {
		log.Warn().Err(err).Str("post_id", id).Msg("failed to count view")
	}
	return p, nil
}

// List returns one feed page and the total match count.
func (s *PostService) List(ctx context.Context, q store.PostQuery) ([]models.Post, int, error) {
	posts, total, err := s.store.ListPosts(ctx, q)
	if err != nil {
		return nil, 0, err
	}
	return posts, total, nil
}

// Update edits a post. Only the author may edit.
func (s *PostService) Update(ctx context.Context, actorID, postID string, in PostInput) (*models.Post, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	authorID, err := s.store.PostAuthor(ctx, postID)
	if err != nil {
		return nil, err
	}
	if authorID != actorID {
		return nil, fmt.Errorf("only the author can edit a post: %w", ErrForbidden)
	}
	updated, err := s.store.UpdatePost(ctx, postID, in.Title, in.Content, in.Category, in.Tags)
	if err != nil {
		return nil, err
	}
	s.disp.Broadcast(realtime.PostUpdated(updated))
	return updated, nil
}

// Delete removes a post. Only the author may delete.
func (s *PostService) Delete(ctx context.Context, actorID, postID string) error {
	authorID, err := s.store.PostAuthor(ctx, postID)
	if err != nil {
		return err
	}
	if authorID != actorID {
		return fmt.Errorf("only the author can delete a post: %w", ErrForbidden)
	}
	if err := s.store.DeletePost(ctx, postID); err != nil {
		return err
	}
	s.disp.Broadcast(realtime.PostDeleted(postID))
	return nil
}

// ToggleLike flips the actor's like on a post. The event goes to everyone
// including the actor: the echoed count is the authoritative replacement for
// their optimistic flip. Liking notifies the post's author.
func (s *PostService) ToggleLike(ctx context.Context, actor *models.User, postID string) (liked bool, likeCount int, err error) {
	authorID, err := s.store.PostAuthor(ctx, postID)
	if err != nil {
		return false, 0, err
	}
	liked, likeCount, err = s.store.TogglePostLike(ctx, postID, actor.ID)
	if err != nil {
		return false, 0, err
	}
	ref := actor.Ref()
	s.disp.Broadcast(realtime.PostLikeUpdated(postID, ref, liked, likeCount))
	if liked {
		s.notify(ctx, authorID, models.NotificationLike, &ref, &postID, nil,
			fmt.Sprintf("%s liked your post", actor.Name))
	}
	return liked, likeCount, nil
}

// ToggleSave flips the actor's save on a post. Saves are not notified.
func (s *PostService) ToggleSave(ctx context.Context, actorID, postID string) (saved bool, saveCount int, err error) {
	saved, saveCount, err = s.store.TogglePostSave(ctx, postID, actorID)
	if err != nil {
		return false, 0, err
	}
	s.disp.Broadcast(realtime.PostSaveUpdated(postID, actorID, saved, saveCount))
	return saved, saveCount, nil
}

// Repost creates a new post pointing at the original and bumps its counter.
func (s *PostService) Repost(ctx context.Context, actor *models.User, postID, comment string) (*models.Post, error) {
	original, err := s.store.GetPost(ctx, postID, actor.ID)
	if err != nil {
		return nil, err
	}
	// Reposting a repost points at the root post.
	rootID := original.ID
	if original.IsRepost && original.OriginalPostID != nil {
		rootID = *original.OriginalPostID
	}
	p := &models.Post{
		ID:             uuid.NewString(),
		Author:         actor.Ref(),
		Title:          original.Title,
		Content:        strings.TrimSpace(comment),
		Category:       original.Category,
		Tags:           original.Tags,
		Visibility:     models.VisibilityPublic,
		IsRepost:       true,
		OriginalPostID: &rootID,
	}
	if err := s.store.CreatePost(ctx, p); err != nil {
		return nil, err
	}
	if err := s.store.IncrementRepostCount(ctx, rootID); err != nil {
		log.Warn().Err(err).Str("post_id", rootID).Msg("failed to bump repost count")
	}
	created, err := s.store.GetPost(ctx, p.ID, actor.ID)
	if err != nil {
		return nil, err
	}
	// A repost is announced as a new post in its own right.
	s.disp.BroadcastExcept(actor.ID, realtime.NewPost(created))
	return created, nil
}

// RecordViews counts a feed page as viewed.
func (s *PostService) RecordViews(ctx context.Context, posts []models.Post) {
	ids := make([]string, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
	}
	if err := s.store.AddViews(ctx, ids); err != nil {
		log.Warn().Err(err).Msg("failed to count feed views")
	}
}

// Insights aggregates the actor's received engagement.
func (s *PostService) Insights(ctx context.Context, userID string) (*store.EngagementStats, error) {
	return s.store.UserEngagement(ctx, userID)
}
