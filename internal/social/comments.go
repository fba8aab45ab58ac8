package social

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/scholarfeed/internal/realtime"
	"github.com/scholarfeed/pkg/models"
)

const (
	maxCommentLen = 1000
	maxReplyLen   = 500
)

// CommentService coordinates comment and reply mutations.
type CommentService struct {
	store Store
	disp  Dispatcher
	notifier
}

// NewCommentService creates a comment service.
func NewCommentService(st Store, disp Dispatcher) *CommentService {
	return &CommentService{store: st, disp: disp, notifier: notifier{store: st, disp: disp}}
}

// AddComment appends a comment to a post and notifies the post's author.
func (s *CommentService) AddComment(ctx context.Context, actor *models.User, postID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationf("comment content is required")
	}
	if len(content) > maxCommentLen {
		return nil, validationf("comment exceeds %d characters", maxCommentLen)
	}
	postAuthor, err := s.store.PostAuthor(ctx, postID)
	if err != nil {
		return nil, err
	}

	c := &models.Comment{
		ID:      uuid.NewString(),
		PostID:  postID,
		Author:  actor.Ref(),
		Content: content,
	}
	if err := s.store.CreateComment(ctx, c); err != nil {
		return nil, err
	}
	created, err := s.store.GetComment(ctx, c.ID, actor.ID)
	if err != nil {
		return nil, err
	}
	count, err := s.store.CommentCount(ctx, postID)
	if err != nil {
		log.Warn().Err(err).Str("post_id", postID).Msg("failed to count comments")
	}

	s.disp.Broadcast(realtime.NewComment(postID, created, count))
	ref := actor.Ref()
	s.notify(ctx, postAuthor, models.NotificationComment, &ref, &postID, &created.ID,
		fmt.Sprintf("%s commented on your post", actor.Name))
	return created, nil
}

// List returns a post's comments, oldest first, with replies populated.
func (s *CommentService) List(ctx context.Context, postID, viewerID string) ([]models.Comment, error) {
	if _, err := s.store.PostAuthor(ctx, postID); err != nil {
		return nil, err
	}
	return s.store.ListComments(ctx, postID, viewerID)
}

// UpdateComment rewrites a comment's content. Only the comment's author may
// edit it. Edits are not pushed; readers pick them up on the next fetch.
func (s *CommentService) UpdateComment(ctx context.Context, actorID, commentID, content string) (*models.Comment, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationf("comment content is required")
	}
	if len(content) > maxCommentLen {
		return nil, validationf("comment exceeds %d characters", maxCommentLen)
	}
	commentAuthor, _, _, err := s.store.CommentAuthor(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if actorID != commentAuthor {
		return nil, fmt.Errorf("only the comment author can edit a comment: %w", ErrForbidden)
	}
	return s.store.UpdateComment(ctx, commentID, content)
}

// UpdateReply rewrites a reply's content. Author only, not pushed.
func (s *CommentService) UpdateReply(ctx context.Context, actorID, replyID, content string) (*models.Reply, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationf("reply content is required")
	}
	if len(content) > maxReplyLen {
		return nil, validationf("reply exceeds %d characters", maxReplyLen)
	}
	replyAuthor, _, _, err := s.store.ReplyContext(ctx, replyID)
	if err != nil {
		return nil, err
	}
	if actorID != replyAuthor {
		return nil, fmt.Errorf("only the reply author can edit a reply: %w", ErrForbidden)
	}
	return s.store.UpdateReply(ctx, replyID, content)
}

// DeleteComment removes a comment. The comment's author and the post's
// author may delete; nobody else can.
func (s *CommentService) DeleteComment(ctx context.Context, actorID, commentID string) error {
	commentAuthor, postAuthor, postID, err := s.store.CommentAuthor(ctx, commentID)
	if err != nil {
		return err
	}
	if actorID != commentAuthor && actorID != postAuthor {
		return fmt.Errorf("only the comment author or post author can delete a comment: %w", ErrForbidden)
	}
	if err := s.store.DeleteComment(ctx, commentID); err != nil {
		return err
	}
	count, err := s.store.CommentCount(ctx, postID)
	if err != nil {
		log.Warn().Err(err).Str("post_id", postID).Msg("failed to count comments")
	}
	s.disp.Broadcast(realtime.CommentDeleted(postID, commentID, count))
	return nil
}

// ToggleCommentLike flips the actor's like on a comment. Liking notifies the
// comment's author.
func (s *CommentService) ToggleCommentLike(ctx context.Context, actor *models.User, commentID string) (liked bool, likeCount int, err error) {
	commentAuthor, _, postID, err := s.store.CommentAuthor(ctx, commentID)
	if err != nil {
		return false, 0, err
	}
	liked, likeCount, err = s.store.ToggleCommentLike(ctx, commentID, actor.ID)
	if err != nil {
		return false, 0, err
	}
	s.disp.Broadcast(realtime.CommentLikeUpdated(postID, commentID, actor.ID, liked, likeCount))
	if liked {
		ref := actor.Ref()
		s.notify(ctx, commentAuthor, models.NotificationLike, &ref, &postID, &commentID,
			fmt.Sprintf("%s liked your comment", actor.Name))
	}
	return liked, likeCount, nil
}

// AddReply appends a reply to a comment and notifies the comment's author.
// Replies attach to comments only, so threads never nest deeper.
func (s *CommentService) AddReply(ctx context.Context, actor *models.User, commentID, content string) (*models.Reply, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, validationf("reply content is required")
	}
	if len(content) > maxReplyLen {
		return nil, validationf("reply exceeds %d characters", maxReplyLen)
	}
	commentAuthor, _, postID, err := s.store.CommentAuthor(ctx, commentID)
	if err != nil {
		return nil, err
	}

	r := &models.Reply{
		ID:        uuid.NewString(),
		CommentID: commentID,
		Author:    actor.Ref(),
		Content:   content,
	}
	if err := s.store.CreateReply(ctx, r); err != nil {
		return nil, err
	}
	created, err := s.store.GetReply(ctx, r.ID, actor.ID)
	if err != nil {
		return nil, err
	}

	s.disp.Broadcast(realtime.ReplyAdded(postID, commentID, created))
	ref := actor.Ref()
	s.notify(ctx, commentAuthor, models.NotificationReply, &ref, &postID, &commentID,
		fmt.Sprintf("%s replied to your comment", actor.Name))
	return created, nil
}

// DeleteReply removes a reply. Only the reply's author may delete it.
func (s *CommentService) DeleteReply(ctx context.Context, actorID, replyID string) error {
	replyAuthor, commentID, postID, err := s.store.ReplyContext(ctx, replyID)
	if err != nil {
		return err
	}
	if actorID != replyAuthor {
		return fmt.Errorf("only the reply author can delete a reply: %w", ErrForbidden)
	}
	if err := s.store.DeleteReply(ctx, replyID); err != nil {
		return err
	}
	s.disp.Broadcast(realtime.ReplyDeleted(postID, commentID, replyID))
	return nil
}

// ToggleReplyLike flips the actor's like on a reply. Liking notifies the
// reply's author.
func (s *CommentService) ToggleReplyLike(ctx context.Context, actor *models.User, replyID string) (liked bool, likeCount int, err error) {
	replyAuthor, commentID, postID, err := s.store.ReplyContext(ctx, replyID)
	if err != nil {
		return false, 0, err
	}
	liked, likeCount, err = s.store.ToggleReplyLike(ctx, replyID, actor.ID)
	if err != nil {
		return false, 0, err
	}
	s.disp.Broadcast(realtime.ReplyLikeUpdated(postID, commentID, replyID, actor.ID, liked, likeCount))
	if liked {
		ref := actor.Ref()
		s.notify(ctx, replyAuthor, models.NotificationLike, &ref, &postID, &commentID,
			fmt.Sprintf("%s liked your reply", actor.Name))
	}
	return liked, likeCount, nil
}
