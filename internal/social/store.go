package social

import (
	"context"
	"time"

	"github.com/scholarfeed/internal/store"
	"github.com/scholarfeed/pkg/models"
)

// Store is the persistence surface the services mutate through. *store.Store
// implements it; tests substitute an in-memory double.
type Store interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	UpdateUserProfile(ctx context.Context, id, name, bio, field, avatar string) (*models.User, error)

	CreatePost(ctx context.Context, p *models.Post) error
	GetPost(ctx context.Context, id, viewerID string) (*models.Post, error)
	ListPosts(ctx context.Context, q store.PostQuery) ([]models.Post, int, error)
	UpdatePost(ctx context.Context, id, title, content, category string, tags []string) (*models.Post, error)
	PostAuthor(ctx context.Context, id string) (string, error)
	DeletePost(ctx context.Context, id string) error
	IncrementRepostCount(ctx context.Context, id string) error
	AddViews(ctx context.Context, ids []string) error
	TogglePostLike(ctx context.Context, postID, userID string) (liked bool, likeCount int, err error)
	TogglePostSave(ctx context.Context, postID, userID string) (saved bool, saveCount int, err error)
	UserEngagement(ctx context.Context, userID string) (*store.EngagementStats, error)

	CreateComment(ctx context.Context, c *models.Comment) error
	GetComment(ctx context.Context, id, viewerID string) (*models.Comment, error)
	ListComments(ctx context.Context, postID, viewerID string) ([]models.Comment, error)
	UpdateComment(ctx context.Context, id, content string) (*models.Comment, error)
	CommentCount(ctx context.Context, postID string) (int, error)
	CommentAuthor(ctx context.Context, id string) (commentAuthor, postAuthor, postID string, err error)
	DeleteComment(ctx context.Context, id string) error
	ToggleCommentLike(ctx context.Context, commentID, userID string) (liked bool, likeCount int, err error)
	CreateReply(ctx context.Context, r *models.Reply) error
	GetReply(ctx context.Context, id, viewerID string) (*models.Reply, error)
	UpdateReply(ctx context.Context, id, content string) (*models.Reply, error)
	ReplyContext(ctx context.Context, id string) (replyAuthor, commentID, postID string, err error)
	DeleteReply(ctx context.Context, id string) error
	ToggleReplyLike(ctx context.Context, replyID, userID string) (liked bool, likeCount int, err error)

	Follow(ctx context.Context, followerID, followeeID string) (added bool, err error)
	Unfollow(ctx context.Context, followerID, followeeID string) (removed bool, err error)
	IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error)
	ListFollowers(ctx context.Context, userID string) ([]models.UserRef, error)
	ListFollowing(ctx context.Context, userID string) ([]models.UserRef, error)

	InsertNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string, limit int) ([]models.Notification, int, error)
	MarkNotificationRead(ctx context.Context, id, userID string) error
	MarkAllNotificationsRead(ctx context.Context, userID string) error
	DeleteNotification(ctx context.Context, id, userID string) error
	DeleteAllNotifications(ctx context.Context, userID string) error
	DeleteReadNotificationsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Dispatcher is the push surface. Every method is fire-and-forget: once the
// store write succeeded, dispatch problems never fail the mutation.
type Dispatcher interface {
	Broadcast(event any)
	BroadcastExcept(userID string, event any)
	SendToUser(userID string, event any)
}
