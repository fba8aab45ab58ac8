package social

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/scholarfeed/pkg/models"
)

// captureDispatcher records every dispatched event with its audience.
type captureDispatcher struct {
	mu     sync.Mutex
	events []dispatched
}

type dispatched struct {
	audience string // "broadcast", "except", "user"
	target   string // excluded user or recipient
	event    any
}

func (d *captureDispatcher) Broadcast(event any) {
	d.record(dispatched{audience: "broadcast", event: event})
}

func (d *captureDispatcher) BroadcastExcept(userID string, event any) {
	d.record(dispatched{audience: "except", target: userID, event: event})
}

func (d *captureDispatcher) SendToUser(userID string, event any) {
	d.record(dispatched{audience: "user", target: userID, event: event})
}

func (d *captureDispatcher) record(ev dispatched) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, ev)
}

func (d *captureDispatcher) all() []dispatched {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]dispatched(nil), d.events...)
}

func (d *captureDispatcher) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = nil
}

// ofType filters captured events whose envelope type matches.
func (d *captureDispatcher) ofType(typ string) []dispatched {
	var out []dispatched
	for _, ev := range d.all() {
		if typeOf(ev.event) == typ {
			out = append(out, ev)
		}
	}
	return out
}

func typeOf(event any) string {
	raw, err := json.Marshal(event)
	if err != nil {
		return ""
	}
	var env struct {
		Type string `json:"type"`
	}
	_ = json.Unmarshal(raw, &env)
	return env.Type
}

// fixture bundles the services over a shared memstore and capture dispatcher.
type fixture struct {
	store *memStore
	disp  *captureDispatcher

	posts         *PostService
	comments      *CommentService
	follows       *FollowService
	notifications *NotificationService
	users         *UserService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st := newMemStore()
	disp := &captureDispatcher{}
	return &fixture{
		store:         st,
		disp:          disp,
		posts:         NewPostService(st, disp),
		comments:      NewCommentService(st, disp),
		follows:       NewFollowService(st, disp),
		notifications: NewNotificationService(st),
		users:         NewUserService(st, disp),
	}
}

func (f *fixture) mustPost(t *testing.T, author *models.User) *models.Post {
	t.Helper()
	p, err := f.posts.Create(context.Background(), author, PostInput{
		Title:    "Attention is most of what you need",
		Content:  "We revisit the scaling behaviour of sparse transformers.",
		Category: "Computer Science",
	})
	require.NoError(t, err)
	f.disp.reset()
	return p
}

func (f *fixture) mustComment(t *testing.T, author *models.User, postID string) *models.Comment {
	t.Helper()
	c, err := f.comments.AddComment(context.Background(), author, postID, "Interesting result.")
	require.NoError(t, err)
	f.disp.reset()
	return c
}
