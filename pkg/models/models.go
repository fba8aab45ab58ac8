package models

import (
	"time"
)

// Post categories accepted by the API.
var PostCategories = []string{
	"Neuroscience",
	"Climate Science",
	"Computer Science",
	"Biology",
	"Physics",
	"Medicine",
	"Psychology",
	"Economics",
	"Other",
}

// Post visibility levels.
const (
	VisibilityPublic    = "public"
	VisibilityFollowers = "followers"
	VisibilityPrivate   = "private"
)

// Notification types.
const (
	NotificationFollow  = "follow"
	NotificationLike    = "like"
	NotificationComment = "comment"
	NotificationReply   = "reply"
	NotificationMention = "mention"
	NotificationSystem  = "system"
)

// User represents a registered user.
type User struct {
	ID           string    `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Name         string    `json:"name" db:"name"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"` // Never expose password hash in JSON
	Avatar       string    `json:"avatar" db:"avatar"`
	Bio          string    `json:"bio" db:"bio"`
	Field        string    `json:"field" db:"field"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// UserRef is the subset of user identity embedded in posts, comments and
// notifications so that pushed payloads never carry bare ids.
type UserRef struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Avatar   string `json:"avatar"`
	Field    string `json:"field,omitempty"`
}

// Ref returns the embeddable identity subset of a user.
func (u *User) Ref() UserRef {
	return UserRef{
		ID:       u.ID,
		Username: u.Username,
		Name:     u.Name,
		Avatar:   u.Avatar,
		Field:    u.Field,
	}
}

// Post represents an article in the feed. LikeCount and CommentCount are
// always derived from the membership tables, never stored independently.
type Post struct {
	ID             string    `json:"id" db:"id"`
	Author         UserRef   `json:"author"`
	Title          string    `json:"title" db:"title"`
	Content        string    `json:"content" db:"content"`
	Category       string    `json:"category" db:"category"`
	Tags           []string  `json:"tags" db:"tags"`
	Visibility     string    `json:"visibility" db:"visibility"`
	IsRepost       bool      `json:"is_repost" db:"is_repost"`
	OriginalPostID *string   `json:"original_post_id,omitempty" db:"original_post_id"`
	RepostCount    int       `json:"repost_count" db:"repost_count"`
	Views          int       `json:"views" db:"views"`
	LikeCount      int       `json:"like_count"`
	CommentCount   int       `json:"comment_count"`
	SaveCount      int       `json:"save_count"`
	LikedByMe      bool      `json:"liked_by_me"`
	SavedByMe      bool      `json:"saved_by_me"`
	Comments       []Comment `json:"comments,omitempty"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// Comment belongs to a post and may carry one level of replies.
type Comment struct {
	ID        string    `json:"id" db:"id"`
	PostID    string    `json:"post_id" db:"post_id"`
	Author    UserRef   `json:"author"`
	Content   string    `json:"content" db:"content"`
	LikeCount int       `json:"like_count"`
	LikedByMe bool      `json:"liked_by_me"`
	Replies   []Reply   `json:"replies"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Reply belongs to a comment. Replies never nest: there is no parent reply
// field, so a reply-to-reply is structurally impossible.
type Reply struct {
	ID        string    `json:"id" db:"id"`
	CommentID string    `json:"comment_id" db:"comment_id"`
	Author    UserRef   `json:"author"`
	Content   string    `json:"content" db:"content"`
	LikeCount int       `json:"like_count"`
	LikedByMe bool      `json:"liked_by_me"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Notification is delivered to exactly one recipient, newest first.
type Notification struct {
	ID          string    `json:"id" db:"id"`
	RecipientID string    `json:"-" db:"recipient_id"`
	Type        string    `json:"type" db:"type"`
	FromUser    *UserRef  `json:"from_user,omitempty"`
	PostID      *string   `json:"post_id,omitempty" db:"post_id"`
	CommentID   *string   `json:"comment_id,omitempty" db:"comment_id"`
	Message     string    `json:"message" db:"message"`
	Read        bool      `json:"read" db:"read"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Profile is the public view of a user plus follow counters.
type Profile struct {
	User
	FollowerCount  int  `json:"follower_count"`
	FollowingCount int  `json:"following_count"`
	PostCount      int  `json:"post_count"`
	FollowedByMe   bool `json:"followed_by_me"`
}

// ValidCategory reports whether c is one of the accepted post categories.
func ValidCategory(c string) bool {
	for _, cat := range PostCategories {
		if cat == c {
			return true
		}
	}
	return false
}
