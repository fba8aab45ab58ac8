package social

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/scholarfeed/internal/store"
	"github.com/scholarfeed/pkg/models"
)

// memStore is an in-memory Store double with the same toggle semantics as
// the SQL layer: membership sets keyed by (target, user), counts always
// derived from the sets.
type memStore struct {
	mu sync.Mutex

	users         map[string]*models.User
	posts         map[string]*models.Post
	comments      map[string]*models.Comment
	replies       map[string]*models.Reply
	postLikes     map[string]map[string]bool
	savedPosts    map[string]map[string]bool
	commentLikes  map[string]map[string]bool
	replyLikes    map[string]map[string]bool
	follows       map[string]map[string]bool
	notifications []*models.Notification
}

func newMemStore() *memStore {
	return &memStore{
		users:        make(map[string]*models.User),
		posts:        make(map[string]*models.Post),
		comments:     make(map[string]*models.Comment),
		replies:      make(map[string]*models.Reply),
		postLikes:    make(map[string]map[string]bool),
		savedPosts:   make(map[string]map[string]bool),
		commentLikes: make(map[string]map[string]bool),
		replyLikes:   make(map[string]map[string]bool),
		follows:      make(map[string]map[string]bool),
	}
}

func (m *memStore) addUser(name string) *models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := &models.User{ID: uuid.NewString(), Username: name, Name: name}
	m.users[u.ID] = u
	return u
}

func toggle(sets map[string]map[string]bool, targetID, userID string) (bool, int) {
	set := sets[targetID]
	if set == nil {
		set = make(map[string]bool)
		sets[targetID] = set
	}
	var member bool
	if set[userID] {
		delete(set, userID)
	} else {
		set[userID] = true
		member = true
	}
	return member, len(set)
}

func (m *memStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, store.ErrNotFound
}

func (m *memStore) UpdateUserProfile(_ context.Context, id, name, bio, field, avatar string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.Name, u.Bio, u.Field, u.Avatar = name, bio, field, avatar
	return u, nil
}

func (m *memStore) CreatePost(_ context.Context, p *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	cp.CreatedAt = time.Now()
	m.posts[p.ID] = &cp
	return nil
}

func (m *memStore) GetPost(_ context.Context, id, viewerID string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getPostLocked(id, viewerID)
}

func (m *memStore) getPostLocked(id, viewerID string) (*models.Post, error) {
	p, ok := m.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *p
	cp.LikeCount = len(m.postLikes[id])
	cp.SaveCount = len(m.savedPosts[id])
	cp.LikedByMe = m.postLikes[id][viewerID]
	cp.SavedByMe = m.savedPosts[id][viewerID]
	cp.Comments = nil
	for _, c := range m.comments {
		if c.PostID == id {
			cp.CommentCount++
			cp.Comments = append(cp.Comments, *m.getCommentLocked(c.ID, viewerID))
		}
	}
	sort.Slice(cp.Comments, func(i, j int) bool {
		return cp.Comments[i].CreatedAt.Before(cp.Comments[j].CreatedAt)
	})
	return &cp, nil
}

func (m *memStore) ListPosts(_ context.Context, q store.PostQuery) ([]models.Post, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Post
	for id := range m.posts {
		p, _ := m.getPostLocked(id, q.ViewerID)
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, len(out), nil
}

func (m *memStore) UpdatePost(_ context.Context, id, title, content, category string, tags []string) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p.Title, p.Content, p.Category, p.Tags = title, content, category, tags
	return m.getPostLocked(id, "")
}

func (m *memStore) PostAuthor(_ context.Context, id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return "", store.ErrNotFound
	}
	return p.Author.ID, nil
}

func (m *memStore) DeletePost(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.posts, id)
	delete(m.postLikes, id)
	delete(m.savedPosts, id)
	for cid, c := range m.comments {
		if c.PostID == id {
			delete(m.comments, cid)
			delete(m.commentLikes, cid)
			for rid, r := range m.replies {
				if r.CommentID == cid {
					delete(m.replies, rid)
					delete(m.replyLikes, rid)
				}
			}
		}
	}
	return nil
}

func (m *memStore) IncrementRepostCount(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return store.ErrNotFound
	}
	p.RepostCount++
	return nil
}

func (m *memStore) AddViews(_ context.Context, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if p, ok := m.posts[id]; ok {
			p.Views++
		}
	}
	return nil
}

func (m *memStore) TogglePostLike(_ context.Context, postID, userID string) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[postID]; !ok {
		return false, 0, store.ErrNotFound
	}
	liked, count := toggle(m.postLikes, postID, userID)
	return liked, count, nil
}

func (m *memStore) TogglePostSave(_ context.Context, postID, userID string) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[postID]; !ok {
		return false, 0, store.ErrNotFound
	}
	saved, count := toggle(m.savedPosts, postID, userID)
	return saved, count, nil
}

func (m *memStore) UserEngagement(_ context.Context, userID string) (*store.EngagementStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st := &store.EngagementStats{}
	for id, p := range m.posts {
		if p.Author.ID != userID {
			continue
		}
		st.Posts++
		st.LikesReceived += len(m.postLikes[id])
		st.Reposts += p.RepostCount
		st.Views += p.Views
		for _, c := range m.comments {
			if c.PostID == id {
				st.CommentsReceived++
			}
		}
	}
	for follower, set := range m.follows {
		if set[userID] {
			st.Followers++
		}
		if follower == userID {
			st.Following = len(set)
		}
	}
	return st, nil
}

func (m *memStore) CreateComment(_ context.Context, c *models.Comment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *c
	cp.CreatedAt = time.Now()
	m.comments[c.ID] = &cp
	return nil
}

func (m *memStore) GetComment(_ context.Context, id, viewerID string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[id]; !ok {
		return nil, store.ErrNotFound
	}
	return m.getCommentLocked(id, viewerID), nil
}

func (m *memStore) ListComments(_ context.Context, postID, viewerID string) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Comment{}
	for _, c := range m.comments {
		if c.PostID == postID {
			out = append(out, *m.getCommentLocked(c.ID, viewerID))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (m *memStore) UpdateComment(_ context.Context, id, content string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c.Content = content
	c.UpdatedAt = time.Now()
	return m.getCommentLocked(id, ""), nil
}

func (m *memStore) getCommentLocked(id, viewerID string) *models.Comment {
	c := m.comments[id]
	cp := *c
	cp.LikeCount = len(m.commentLikes[id])
	cp.LikedByMe = m.commentLikes[id][viewerID]
	cp.Replies = []models.Reply{}
	for _, r := range m.replies {
		if r.CommentID == id {
			rc := *r
			rc.LikeCount = len(m.replyLikes[r.ID])
			rc.LikedByMe = m.replyLikes[r.ID][viewerID]
			cp.Replies = append(cp.Replies, rc)
		}
	}
	sort.Slice(cp.Replies, func(i, j int) bool {
		return cp.Replies[i].CreatedAt.Before(cp.Replies[j].CreatedAt)
	})
	return &cp
}

func (m *memStore) CommentCount(_ context.Context, postID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int
	for _, c := range m.comments {
		if c.PostID == postID {
			n++
		}
	}
	return n, nil
}

func (m *memStore) CommentAuthor(_ context.Context, id string) (string, string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.comments[id]
	if !ok {
		return "", "", "", store.ErrNotFound
	}
	p, ok := m.posts[c.PostID]
	if !ok {
		return "", "", "", store.ErrNotFound
	}
	return c.Author.ID, p.Author.ID, p.ID, nil
}

func (m *memStore) DeleteComment(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.comments, id)
	delete(m.commentLikes, id)
	for rid, r := range m.replies {
		if r.CommentID == id {
			delete(m.replies, rid)
			delete(m.replyLikes, rid)
		}
	}
	return nil
}

func (m *memStore) ToggleCommentLike(_ context.Context, commentID, userID string) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[commentID]; !ok {
		return false, 0, store.ErrNotFound
	}
	liked, count := toggle(m.commentLikes, commentID, userID)
	return liked, count, nil
}

func (m *memStore) CreateReply(_ context.Context, r *models.Reply) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.comments[r.CommentID]; !ok {
		return store.ErrNotFound
	}
	cp := *r
	cp.CreatedAt = time.Now()
	m.replies[r.ID] = &cp
	return nil
}

func (m *memStore) GetReply(_ context.Context, id, viewerID string) (*models.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.replies[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	cp.LikeCount = len(m.replyLikes[id])
	cp.LikedByMe = m.replyLikes[id][viewerID]
	return &cp, nil
}

func (m *memStore) UpdateReply(_ context.Context, id, content string) (*models.Reply, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.replies[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	r.Content = content
	r.UpdatedAt = time.Now()
	cp := *r
	cp.LikeCount = len(m.replyLikes[id])
	return &cp, nil
}

func (m *memStore) ReplyContext(_ context.Context, id string) (string, string, string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.replies[id]
	if !ok {
		return "", "", "", store.ErrNotFound
	}
	c := m.comments[r.CommentID]
	return r.Author.ID, r.CommentID, c.PostID, nil
}

func (m *memStore) DeleteReply(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.replies[id]; !ok {
		return store.ErrNotFound
	}
	delete(m.replies, id)
	delete(m.replyLikes, id)
	return nil
}

func (m *memStore) ToggleReplyLike(_ context.Context, replyID, userID string) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.replies[replyID]; !ok {
		return false, 0, store.ErrNotFound
	}
	liked, count := toggle(m.replyLikes, replyID, userID)
	return liked, count, nil
}

func (m *memStore) Follow(_ context.Context, followerID, followeeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := m.follows[followerID]
	if set == nil {
		set = make(map[string]bool)
		m.follows[followerID] = set
	}
	if set[followeeID] {
		return false, nil
	}
	set[followeeID] = true
	return true, nil
}

func (m *memStore) Unfollow(_ context.Context, followerID, followeeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set := m.follows[followerID]
	if !set[followeeID] {
		return false, nil
	}
	delete(set, followeeID)
	return true, nil
}

func (m *memStore) IsFollowing(_ context.Context, followerID, followeeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.follows[followerID][followeeID], nil
}

func (m *memStore) ListFollowers(_ context.Context, userID string) ([]models.UserRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.UserRef{}
	for follower, set := range m.follows {
		if set[userID] {
			out = append(out, m.users[follower].Ref())
		}
	}
	return out, nil
}

func (m *memStore) ListFollowing(_ context.Context, userID string) ([]models.UserRef, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.UserRef{}
	for followee := range m.follows[userID] {
		out = append(out, m.users[followee].Ref())
	}
	return out, nil
}

func (m *memStore) InsertNotification(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *n
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now()
	}
	m.notifications = append([]*models.Notification{&cp}, m.notifications...)
	return nil
}

func (m *memStore) ListNotifications(_ context.Context, userID string, limit int) ([]models.Notification, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	var unread int
	for _, n := range m.notifications {
		if n.RecipientID != userID {
			continue
		}
		if !n.Read {
			unread++
		}
		if limit <= 0 || len(out) < limit {
			out = append(out, *n)
		}
	}
	return out, unread, nil
}

func (m *memStore) MarkNotificationRead(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.ID == id && n.RecipientID == userID {
			n.Read = true
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memStore) MarkAllNotificationsRead(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.notifications {
		if n.RecipientID == userID {
			n.Read = true
		}
	}
	return nil
}

func (m *memStore) DeleteNotification(_ context.Context, id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, n := range m.notifications {
		if n.ID == id && n.RecipientID == userID {
			m.notifications = append(m.notifications[:i], m.notifications[i+1:]...)
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *memStore) DeleteAllNotifications(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.notifications[:0]
	for _, n := range m.notifications {
		if n.RecipientID != userID {
			kept = append(kept, n)
		}
	}
	m.notifications = kept
	return nil
}

func (m *memStore) DeleteReadNotificationsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	kept := m.notifications[:0]
	for _, n := range m.notifications {
		if n.Read && n.CreatedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	m.notifications = kept
	return removed, nil
}
