package realtime

import (
	"time"

	"github.com/scholarfeed/pkg/models"
)

// Event types pushed to clients. Payload field names are camelCase on the
// wire; clients switch on the type string and must ignore types they do not
// recognize.
const (
	TypeConnectionEstablished = "connection_established"
	TypeSubscriptionConfirmed = "subscription_confirmed"
	TypePong                  = "pong"
	TypeError                 = "error"

	TypeNewPost           = "new_post"
	TypePostUpdated       = "post_updated"
	TypePostDeleted       = "post_deleted"
	TypePostLikeUpdated   = "post_like_updated"
	TypePostSaveUpdated   = "post_save_updated"
	TypeNewComment        = "new_comment"
	TypeCommentLikeUpdate = "comment_like_updated"
	TypeCommentDeleted    = "comment_deleted"
	TypeReplyAdded        = "reply_added"
	TypeReplyLikeUpdated  = "reply_like_updated"
	TypeReplyDeleted      = "reply_deleted"
	TypeNewNotification   = "new_notification"
	TypeFollowUpdated     = "follow_updated"
	TypeFollowStatus      = "follow_status_updated"
	TypeUserTyping        = "user_typing"
	TypeUserUpdated       = "user_updated"
	TypeUserOnlineStatus  = "user_online_status"
)

// Envelope is embedded in every pushed event.
type Envelope struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

func envelope(typ string) Envelope {
	return Envelope{Type: typ, Timestamp: time.Now().UTC()}
}

type ConnectionEstablishedEvent struct {
	Envelope
	UserID string `json:"userId"`
}

func ConnectionEstablished(userID string) ConnectionEstablishedEvent {
	return ConnectionEstablishedEvent{envelope(TypeConnectionEstablished), userID}
}

type SubscriptionConfirmedEvent struct {
	Envelope
	Channel string `json:"channel"`
}

func SubscriptionConfirmed(channel string) SubscriptionConfirmedEvent {
	return SubscriptionConfirmedEvent{envelope(TypeSubscriptionConfirmed), channel}
}

type PongEvent struct {
	Envelope
}

func Pong() PongEvent { return PongEvent{envelope(TypePong)} }

type ErrorEvent struct {
	Envelope
	Message string `json:"message"`
}

func Error(message string) ErrorEvent {
	return ErrorEvent{envelope(TypeError), message}
}

type PostEvent struct {
	Envelope
	Post *models.Post `json:"post"`
}

func NewPost(p *models.Post) PostEvent     { return PostEvent{envelope(TypeNewPost), p} }
func PostUpdated(p *models.Post) PostEvent { return PostEvent{envelope(TypePostUpdated), p} }

type PostDeletedEvent struct {
	Envelope
	PostID string `json:"postId"`
}

func PostDeleted(postID string) PostDeletedEvent {
	return PostDeletedEvent{envelope(TypePostDeleted), postID}
}

type PostLikeUpdatedEvent struct {
	Envelope
	PostID    string         `json:"postId"`
	UserID    string         `json:"userId"`
	User      models.UserRef `json:"user"`
	Liked     bool           `json:"liked"`
	LikeCount int            `json:"likeCount"`
}

func PostLikeUpdated(postID string, actor models.UserRef, liked bool, likeCount int) PostLikeUpdatedEvent {
	return PostLikeUpdatedEvent{envelope(TypePostLikeUpdated), postID, actor.ID, actor, liked, likeCount}
}

type PostSaveUpdatedEvent struct {
	Envelope
	PostID    string `json:"postId"`
	UserID    string `json:"userId"`
	Saved     bool   `json:"saved"`
	SaveCount int    `json:"saveCount"`
}

func PostSaveUpdated(postID, userID string, saved bool, saveCount int) PostSaveUpdatedEvent {
	return PostSaveUpdatedEvent{envelope(TypePostSaveUpdated), postID, userID, saved, saveCount}
}

type NewCommentEvent struct {
	Envelope
	PostID       string          `json:"postId"`
	Comment      *models.Comment `json:"comment"`
	CommentCount int             `json:"commentCount"`
}

func NewComment(postID string, c *models.Comment, commentCount int) NewCommentEvent {
	return NewCommentEvent{envelope(TypeNewComment), postID, c, commentCount}
}

type CommentLikeUpdatedEvent struct {
	Envelope
	PostID    string `json:"postId"`
	CommentID string `json:"commentId"`
	UserID    string `json:"userId"`
	Liked     bool   `json:"liked"`
	LikeCount int    `json:"likeCount"`
}

func CommentLikeUpdated(postID, commentID, userID string, liked bool, likeCount int) CommentLikeUpdatedEvent {
	return CommentLikeUpdatedEvent{envelope(TypeCommentLikeUpdate), postID, commentID, userID, liked, likeCount}
}

type CommentDeletedEvent struct {
	Envelope
	PostID       string `json:"postId"`
	CommentID    string `json:"commentId"`
	CommentCount int    `json:"commentCount"`
}

func CommentDeleted(postID, commentID string, commentCount int) CommentDeletedEvent {
	return CommentDeletedEvent{envelope(TypeCommentDeleted), postID, commentID, commentCount}
}

type ReplyAddedEvent struct {
	Envelope
	PostID    string        `json:"postId"`
	CommentID string        `json:"commentId"`
	Reply     *models.Reply `json:"reply"`
}

func ReplyAdded(postID, commentID string, r *models.Reply) ReplyAddedEvent {
	return ReplyAddedEvent{envelope(TypeReplyAdded), postID, commentID, r}
}

type ReplyLikeUpdatedEvent struct {
	Envelope
	PostID    string `json:"postId"`
	CommentID string `json:"commentId"`
	ReplyID   string `json:"replyId"`
	UserID    string `json:"userId"`
	Liked     bool   `json:"liked"`
	LikeCount int    `json:"likeCount"`
}

func ReplyLikeUpdated(postID, commentID, replyID, userID string, liked bool, likeCount int) ReplyLikeUpdatedEvent {
	return ReplyLikeUpdatedEvent{envelope(TypeReplyLikeUpdated), postID, commentID, replyID, userID, liked, likeCount}
}

type ReplyDeletedEvent struct {
	Envelope
	PostID    string `json:"postId"`
	CommentID string `json:"commentId"`
	ReplyID   string `json:"replyId"`
}

func ReplyDeleted(postID, commentID, replyID string) ReplyDeletedEvent {
	return ReplyDeletedEvent{envelope(TypeReplyDeleted), postID, commentID, replyID}
}

type NewNotificationEvent struct {
	Envelope
	Notification *models.Notification `json:"notification"`
}

func NewNotification(n *models.Notification) NewNotificationEvent {
	return NewNotificationEvent{envelope(TypeNewNotification), n}
}

// FollowUpdatedEvent goes to the target of the follow toggle.
type FollowUpdatedEvent struct {
	Envelope
	FollowerID string `json:"followerId"`
	Following  bool   `json:"following"`
}

func FollowUpdated(followerID string, following bool) FollowUpdatedEvent {
	return FollowUpdatedEvent{envelope(TypeFollowUpdated), followerID, following}
}

// FollowStatusEvent goes back to the actor so all their tabs converge.
type FollowStatusEvent struct {
	Envelope
	TargetUserID string `json:"targetUserId"`
	Following    bool   `json:"following"`
}

func FollowStatus(targetUserID string, following bool) FollowStatusEvent {
	return FollowStatusEvent{envelope(TypeFollowStatus), targetUserID, following}
}

type UserTypingEvent struct {
	Envelope
	PostID   string `json:"postId"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	Typing   bool   `json:"typing"`
}

func UserTyping(postID, userID, username string, typing bool) UserTypingEvent {
	return UserTypingEvent{envelope(TypeUserTyping), postID, userID, username, typing}
}

type UserUpdatedEvent struct {
	Envelope
	User *models.User `json:"user"`
}

func UserUpdated(u *models.User) UserUpdatedEvent {
	return UserUpdatedEvent{envelope(TypeUserUpdated), u}
}

type UserOnlineStatusEvent struct {
	Envelope
	UserID string `json:"userId"`
	Online bool   `json:"online"`
}

func UserOnlineStatus(userID string, online bool) UserOnlineStatusEvent {
	return UserOnlineStatusEvent{envelope(TypeUserOnlineStatus), userID, online}
}
