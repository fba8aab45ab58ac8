package realtime

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarfeed/pkg/models"
)

func decodeFrame(t *testing.T, c *Conn) map[string]any {
	t.Helper()
	select {
	case raw := <-c.Send:
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		return m
	default:
		t.Fatal("expected a frame, got none")
		return nil
	}
}

func TestDispatcherRouting(t *testing.T) {
	reg := NewRegistry(4)
	disp := NewDispatcher(reg)
	a, _ := reg.Register("a")
	b, _ := reg.Register("b")

	t.Run("broadcast serializes once for everyone", func(t *testing.T) {
		disp.Broadcast(PostDeleted("p1"))

		for _, c := range []*Conn{a, b} {
			m := decodeFrame(t, c)
			assert.Equal(t, "post_deleted", m["type"])
			assert.Equal(t, "p1", m["postId"])
			assert.NotEmpty(t, m["timestamp"])
		}
	})

	t.Run("broadcast except skips the actor", func(t *testing.T) {
		actor := models.UserRef{ID: "a", Username: "ada", Name: "Ada"}
		disp.BroadcastExcept("a", PostLikeUpdated("p1", actor, true, 3))

		m := decodeFrame(t, b)
		assert.Equal(t, "post_like_updated", m["type"])
		assert.Equal(t, "a", m["userId"])
		assert.Equal(t, true, m["liked"])
		assert.Equal(t, float64(3), m["likeCount"])
		assert.Empty(t, a.Send)
	})

	t.Run("send to user is targeted", func(t *testing.T) {
		n := &models.Notification{ID: "n1", Type: models.NotificationFollow, Message: "ada started following you"}
		disp.SendToUser("b", NewNotification(n))

		m := decodeFrame(t, b)
		assert.Equal(t, "new_notification", m["type"])
		assert.Empty(t, a.Send)
	})
}

func TestEventPayloadShapes(t *testing.T) {
	t.Run("follow events carry flat ids", func(t *testing.T) {
		raw, err := json.Marshal(FollowUpdated("u1", true))
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		assert.Equal(t, "follow_updated", m["type"])
		assert.Equal(t, "u1", m["followerId"])
		assert.Equal(t, true, m["following"])
	})

	t.Run("typing event carries username for display", func(t *testing.T) {
		raw, err := json.Marshal(UserTyping("p1", "u1", "ada", true))
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		assert.Equal(t, "user_typing", m["type"])
		assert.Equal(t, "ada", m["username"])
	})

	t.Run("reply events address the full path", func(t *testing.T) {
		raw, err := json.Marshal(ReplyDeleted("p1", "c1", "r1"))
		require.NoError(t, err)
		var m map[string]any
		require.NoError(t, json.Unmarshal(raw, &m))
		assert.Equal(t, "p1", m["postId"])
		assert.Equal(t, "c1", m["commentId"])
		assert.Equal(t, "r1", m["replyId"])
	})
}
