package client

import (
	"sync"
	"time"
)

// typingIdle is how long after the last keystroke an automatic typing_stop
// fires.
const typingIdle = 2 * time.Second

// TypingTracker drives the sender side of the typing indicator: a
// typing_start on the first keystroke, a typing_stop after the idle window
// or on an explicit stop (blur, submit). Each keystroke resets the idle
// timer.
type TypingTracker struct {
	postID string
	send   func(postID string, typing bool)
	idle   time.Duration

	mu     sync.Mutex
	active bool
	timer  *time.Timer
}

// NewTypingTracker creates a tracker for one post's comment box. send is
// invoked outside the tracker's lock.
func NewTypingTracker(postID string, send func(postID string, typing bool)) *TypingTracker {
	return &TypingTracker{postID: postID, send: send, idle: typingIdle}
}

// Keystroke notes activity. The first one emits typing_start; each one
// pushes the automatic stop further out.
func (t *TypingTracker) Keystroke() {
	t.mu.Lock()
	start := !t.active
	t.active = true
	if t.timer != nil {
		t.timer.Stop()
	}
	t.timer = time.AfterFunc(t.idle, t.stopIdle)
	t.mu.Unlock()

	if start {
		t.send(t.postID, true)
	}
}

func (t *TypingTracker) stopIdle() {
	t.mu.Lock()
	wasActive := t.active
	t.active = false
	t.mu.Unlock()

	if wasActive {
		t.send(t.postID, false)
	}
}

// Stop emits an explicit typing_stop, used on blur or submit. Safe to call
// when not typing.
func (t *TypingTracker) Stop() {
	t.mu.Lock()
	wasActive := t.active
	t.active = false
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	t.mu.Unlock()

	if wasActive {
		t.send(t.postID, false)
	}
}
