package social

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarfeed/internal/realtime"
)

func TestNotificationLifecycle(t *testing.T) {
	f := newFixture(t)
	ada := f.store.addUser("ada")
	grace := f.store.addUser("grace")
	lin := f.store.addUser("lin")
	post := f.mustPost(t, ada)

	_, _, err := f.posts.ToggleLike(context.Background(), grace, post.ID)
	require.NoError(t, err)
	_, err = f.comments.AddComment(context.Background(), lin, post.ID, "great")
	require.NoError(t, err)

	t.Run("newest notification comes first and each is pushed once", func(t *testing.T) {
		list, unread, err := f.notifications.List(context.Background(), ada.ID, 0)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "comment", list[0].Type)
		assert.Equal(t, "like", list[1].Type)
		assert.Equal(t, 2, unread)

		pushed := f.disp.ofType(realtime.TypeNewNotification)
		require.Len(t, pushed, 2)
		for _, ev := range pushed {
			assert.Equal(t, "user", ev.audience)
			assert.Equal(t, ada.ID, ev.target)
		}
	})

	t.Run("pushed payload carries the stored timestamp", func(t *testing.T) {
		for _, ev := range f.disp.ofType(realtime.TypeNewNotification) {
			n := ev.event.(realtime.NewNotificationEvent).Notification
			assert.False(t, n.CreatedAt.IsZero())
		}
	})

	t.Run("mark read is scoped to the owner", func(t *testing.T) {
		list, _, err := f.notifications.List(context.Background(), ada.ID, 0)
		require.NoError(t, err)

		assert.Error(t, f.notifications.MarkRead(context.Background(), list[0].ID, grace.ID))
		require.NoError(t, f.notifications.MarkRead(context.Background(), list[0].ID, ada.ID))

		_, unread, err := f.notifications.List(context.Background(), ada.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, 1, unread)
	})

	t.Run("mark all read clears the badge", func(t *testing.T) {
		require.NoError(t, f.notifications.MarkAllRead(context.Background(), ada.ID))
		_, unread, err := f.notifications.List(context.Background(), ada.ID, 0)
		require.NoError(t, err)
		assert.Equal(t, 0, unread)
	})

	t.Run("cleanup removes only old read notifications", func(t *testing.T) {
		// Everything is read but nothing is 30 days old yet.
		removed, err := f.notifications.CleanupRead(context.Background(), 30*24*time.Hour)
		require.NoError(t, err)
		assert.Zero(t, removed)

		removed, err = f.notifications.CleanupRead(context.Background(), 0)
		require.NoError(t, err)
		assert.EqualValues(t, 2, removed)
	})

	t.Run("delete all clears the list", func(t *testing.T) {
		_, _, err := f.posts.ToggleLike(context.Background(), grace, post.ID)
		require.NoError(t, err)
		_, _, err = f.posts.ToggleLike(context.Background(), grace, post.ID)
		require.NoError(t, err)
		_, _, err = f.posts.ToggleLike(context.Background(), grace, post.ID)
		require.NoError(t, err)

		require.NoError(t, f.notifications.DeleteAll(context.Background(), ada.ID))
		list, _, err := f.notifications.List(context.Background(), ada.ID, 0)
		require.NoError(t, err)
		assert.Empty(t, list)
	})
}
