package client

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/scholarfeed/pkg/models"
)

// typingExpiry is how long a typing indicator survives without an explicit
// stop. Guards against a missed typing_stop event.
const typingExpiry = 3 * time.Second

type typingKey struct {
	postID string
	userID string
}

// ViewModel is the client's local copy of feed state. Pushed events are
// applied as full replacements of the affected fields, never as deltas, so
// missed or duplicated events cannot compound drift. Events referring to
// entities the model does not hold are silently ignored.
type ViewModel struct {
	// SelfID is the local user; it decides how liked-by-me fields react
	// to like events from others.
	SelfID string

	mu            sync.Mutex
	posts         map[string]*models.Post
	notifications []models.Notification
	unread        int
	online        map[string]bool
	following     map[string]bool
	typing        map[typingKey]typingState

	now func() time.Time
}

type typingState struct {
	username  string
	expiresAt time.Time
}

// NewViewModel creates an empty view model for the given local user.
func NewViewModel(selfID string) *ViewModel {
	return &ViewModel{
		SelfID:    selfID,
		posts:     make(map[string]*models.Post),
		online:    make(map[string]bool),
		following: make(map[string]bool),
		typing:    make(map[typingKey]typingState),
		now:       time.Now,
	}
}

// Load seeds the model from an authoritative read, replacing prior state
// for those posts. Called after initial fetch and after reconnects.
func (vm *ViewModel) Load(posts []models.Post) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	for i := range posts {
		p := posts[i]
		vm.posts[p.ID] = &p
	}
}

// Post returns a copy of a post, if held.
func (vm *ViewModel) Post(id string) (models.Post, bool) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	p, ok := vm.posts[id]
	if !ok {
		return models.Post{}, false
	}
	return *p, true
}

// Notifications returns the local notification list and unread count.
func (vm *ViewModel) Notifications() ([]models.Notification, int) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return append([]models.Notification(nil), vm.notifications...), vm.unread
}

// IsOnline reports the last known presence of a user.
func (vm *ViewModel) IsOnline(userID string) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.online[userID]
}

// IsFollowing reports the local follow state toward a user.
func (vm *ViewModel) IsFollowing(userID string) bool {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	return vm.following[userID]
}

// TypingUsers lists who is currently typing on a post, dropping indicators
// past their expiry window.
func (vm *ViewModel) TypingUsers(postID string) []string {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	now := vm.now()
	var out []string
	for k, st := range vm.typing {
		if k.postID != postID {
			continue
		}
		if now.After(st.expiresAt) {
			delete(vm.typing, k)
			continue
		}
		out = append(out, st.username)
	}
	return out
}

// OptimisticLike flips the local like state of a post immediately and
// returns a revert function for the caller to invoke if the write request
// fails. The authoritative post_like_updated event later replaces whatever
// the optimistic flip produced.
func (vm *ViewModel) OptimisticLike(postID string) (revert func()) {
	vm.mu.Lock()
	defer vm.mu.Unlock()
	p, ok := vm.posts[postID]
	if !ok {
		return func() {}
	}
	prevLiked, prevCount := p.LikedByMe, p.LikeCount
	p.LikedByMe = !prevLiked
	if p.LikedByMe {
		p.LikeCount++
	} else {
		p.LikeCount--
	}
	return func() {
		vm.mu.Lock()
		defer vm.mu.Unlock()
		if p, ok := vm.posts[postID]; ok {
			p.LikedByMe, p.LikeCount = prevLiked, prevCount
		}
	}
}

// Apply reconciles one pushed event into the model. Unknown event types are
// ignored so old clients survive new server versions.
func (vm *ViewModel) Apply(eventType string, raw []byte) {
	vm.mu.Lock()
	defer vm.mu.Unlock()

	switch eventType {
	case "new_post":
		var ev struct {
			Post *models.Post `json:"post"`
		}
		if json.Unmarshal(raw, &ev) == nil && ev.Post != nil {
			vm.posts[ev.Post.ID] = ev.Post
		}

	case "post_updated":
		var ev struct {
			Post *models.Post `json:"post"`
		}
		if json.Unmarshal(raw, &ev) == nil && ev.Post != nil {
			if _, held := vm.posts[ev.Post.ID]; held {
				vm.posts[ev.Post.ID] = ev.Post
			}
		}

	case "post_deleted":
		var ev struct {
			PostID string `json:"postId"`
		}
		if json.Unmarshal(raw, &ev) == nil {
			delete(vm.posts, ev.PostID)
		}

	case "post_like_updated":
		var ev struct {
			PostID    string `json:"postId"`
			UserID    string `json:"userId"`
			Liked     bool   `json:"liked"`
			LikeCount int    `json:"likeCount"`
		}
		if json.Unmarshal(raw, &ev) == nil {
			if p, ok := vm.posts[ev.PostID]; ok {
				p.LikeCount = ev.LikeCount
				if ev.UserID == vm.SelfID {
					p.LikedByMe = ev.Liked
				}
			}
		}

	case "post_save_updated":
		var ev struct {
			PostID    string `json:"postId"`
			UserID    string `json:"userId"`
			Saved     bool   `json:"saved"`
			SaveCount int    `json:"saveCount"`
		}
		if json.Unmarshal(raw, &ev) == nil {
			if p, ok := vm.posts[ev.PostID]; ok {
				p.SaveCount = ev.SaveCount
				if ev.UserID == vm.SelfID {
					p.SavedByMe = ev.Saved
				}
			}
		}

	case "new_comment":
		var ev struct {
			PostID       string          `json:"postId"`
			Comment      *models.Comment `json:"comment"`
			CommentCount int             `json:"commentCount"`
		}
		if json.Unmarshal(raw, &ev) == nil && ev.Comment != nil {
			if p, ok := vm.posts[ev.PostID]; ok {
				p.Comments = append(p.Comments, *ev.Comment)
				p.CommentCount = ev.CommentCount
			}
		}

	case "comment_deleted":
		var ev struct {
			PostID       string `json:"postId"`
			CommentID    string `json:"commentId"`
			CommentCount int    `json:"commentCount"`
		}
		if json.Unmarshal(raw, &ev) == nil {
			if p, ok := vm.posts[ev.PostID]; ok {
				for i := range p.Comments {
					if p.Comments[i].ID == ev.CommentID {
						p.Comments = append(p.Comments[:i], p.Comments[i+1:]...)
						break
					}
				}
				p.CommentCount = ev.CommentCount
			}
		}

	case "comment_like_updated":
		var ev struct {
			PostID    string `json:"postId"`
			CommentID string `json:"commentId"`
			UserID    string `json:"userId"`
			Liked     bool   `json:"liked"`
			LikeCount int    `json:"likeCount"`
		}
		if json.Unmarshal(raw, &ev) == nil {
			if c := vm.findComment(ev.PostID, ev.CommentID); c != nil {
				c.LikeCount = ev.LikeCount
				if ev.UserID == vm.SelfID {
					c.LikedByMe = ev.Liked
				}
			}
		}

	case "reply_added":
		var ev struct {
			PostID    string        `json:"postId"`
			CommentID string        `json:"commentId"`
			Reply     *models.Reply `json:"reply"`
		}
		if json.Unmarshal(raw, &ev) == nil && ev.Reply != nil {
			if c := vm.findComment(ev.PostID, ev.CommentID); c != nil {
				c.Replies = append(c.Replies, *ev.Reply)
			}
		}

	case "reply_deleted":
		var ev struct {
			PostID    string `json:"postId"`
			CommentID string `json:"commentId"`
			ReplyID   string `json:"replyId"`
		}
		if json.Unmarshal(raw, &ev) == nil {
			if c := vm.findComment(ev.PostID, ev.CommentID); c != nil {
				for i := range c.Replies {
					if c.Replies[i].ID == ev.ReplyID {
						c.Replies = append(c.Replies[:i], c.Replies[i+1:]...)
						break
					}
				}
			}
		}

	case "reply_like_updated":
		var ev struct {
			PostID    string `json:"postId"`
			CommentID string `json:"commentId"`
			ReplyID   string `json:"replyId"`
			UserID    string `json:"userId"`
			Liked     bool   `json:"liked"`
			LikeCount int    `json:"likeCount"`
		}
		if json.Unmarshal(raw, &ev) == nil {
			if c := vm.findComment(ev.PostID, ev.CommentID); c != nil {
				for i := range c.Replies {
					if c.Replies[i].ID == ev.ReplyID {
						c.Replies[i].LikeCount = ev.LikeCount
						if ev.UserID == vm.SelfID {
							c.Replies[i].LikedByMe = ev.Liked
						}
						break
					}
				}
			}
		}

	case "new_notification":
		var ev struct {
			Notification *models.Notification `json:"notification"`
		}
		if json.Unmarshal(raw, &ev) == nil && ev.Notification != nil {
			vm.notifications = append([]models.Notification{*ev.Notification}, vm.notifications...)
			vm.unread++
		}

	case "follow_status_updated":
		var ev struct {
			TargetUserID string `json:"targetUserId"`
			Following    bool   `json:"following"`
		}
		if json.Unmarshal(raw, &ev) == nil {
			vm.following[ev.TargetUserID] = ev.Following
		}

	case "user_online_status":
		var ev struct {
			UserID string `json:"userId"`
			Online bool   `json:"online"`
		}
		if json.Unmarshal(raw, &ev) == nil {
			vm.online[ev.UserID] = ev.Online
		}

	case "user_typing":
		var ev struct {
			PostID   string `json:"postId"`
			UserID   string `json:"userId"`
			Username string `json:"username"`
			Typing   bool   `json:"typing"`
		}
		if json.Unmarshal(raw, &ev) == nil {
			key := typingKey{postID: ev.PostID, userID: ev.UserID}
			if ev.Typing {
				vm.typing[key] = typingState{username: ev.Username, expiresAt: vm.now().Add(typingExpiry)}
			} else {
				delete(vm.typing, key)
			}
		}

	case "user_updated":
		var ev struct {
			User *models.User `json:"user"`
		}
		if json.Unmarshal(raw, &ev) == nil && ev.User != nil {
			vm.refreshUserRefs(ev.User.Ref())
		}
	}
}

func (vm *ViewModel) findComment(postID, commentID string) *models.Comment {
	p, ok := vm.posts[postID]
	if !ok {
		return nil
	}
	for i := range p.Comments {
		if p.Comments[i].ID == commentID {
			return &p.Comments[i]
		}
	}
	return nil
}

// refreshUserRefs rewrites every embedded author ref for the given user so
// renamed or re-avatared identities update everywhere at once.
func (vm *ViewModel) refreshUserRefs(ref models.UserRef) {
	for _, p := range vm.posts {
		if p.Author.ID == ref.ID {
			p.Author = ref
		}
		for i := range p.Comments {
			if p.Comments[i].Author.ID == ref.ID {
				p.Comments[i].Author = ref
			}
			for j := range p.Comments[i].Replies {
				if p.Comments[i].Replies[j].Author.ID == ref.ID {
					p.Comments[i].Replies[j].Author = ref
				}
			}
		}
	}
}
