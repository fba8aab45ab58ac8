package social

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scholarfeed/internal/realtime"
)

func TestAddComment(t *testing.T) {
	f := newFixture(t)
	ada := f.store.addUser("ada")
	grace := f.store.addUser("grace")
	post := f.mustPost(t, ada)

	t.Run("comment is persisted with the running count", func(t *testing.T) {
		c, err := f.comments.AddComment(context.Background(), grace, post.ID, "Fascinating.")
		require.NoError(t, err)
		assert.Equal(t, post.ID, c.PostID)
		assert.Empty(t, c.Replies)

		events := f.disp.ofType(realtime.TypeNewComment)
		require.Len(t, events, 1)
		assert.Equal(t, "broadcast", events[0].audience)

		ev := events[0].event.(realtime.NewCommentEvent)
		assert.Equal(t, 1, ev.CommentCount)
	})

	t.Run("author is notified, commenting on your own post is not", func(t *testing.T) {
		list, _, err := f.notifications.List(context.Background(), ada.ID, 0)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "comment", list[0].Type)

		_, err = f.comments.AddComment(context.Background(), ada, post.ID, "Replying to myself.")
		require.NoError(t, err)
		list, _, err = f.notifications.List(context.Background(), ada.ID, 0)
		require.NoError(t, err)
		assert.Len(t, list, 1)
	})

	t.Run("rejects empty and oversized content", func(t *testing.T) {
		_, err := f.comments.AddComment(context.Background(), grace, post.ID, "   ")
		assert.ErrorIs(t, err, ErrValidation)

		_, err = f.comments.AddComment(context.Background(), grace, post.ID, strings.Repeat("a", 1001))
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestDeleteCommentPermissions(t *testing.T) {
	f := newFixture(t)
	ada := f.store.addUser("ada")
	grace := f.store.addUser("grace")
	eve := f.store.addUser("eve")
	post := f.mustPost(t, ada)

	t.Run("a third party cannot delete", func(t *testing.T) {
		c := f.mustComment(t, grace, post.ID)
		err := f.comments.DeleteComment(context.Background(), eve.ID, c.ID)
		assert.ErrorIs(t, err, ErrForbidden)
	})

	t.Run("the comment author can delete", func(t *testing.T) {
		c := f.mustComment(t, grace, post.ID)
		require.NoError(t, f.comments.DeleteComment(context.Background(), grace.ID, c.ID))
	})

	t.Run("the post author can moderate any comment", func(t *testing.T) {
		c := f.mustComment(t, grace, post.ID)
		require.NoError(t, f.comments.DeleteComment(context.Background(), ada.ID, c.ID))

		events := f.disp.ofType(realtime.TypeCommentDeleted)
		require.Len(t, events, 1)
		ev := events[0].event.(realtime.CommentDeletedEvent)
		assert.Equal(t, c.ID, ev.CommentID)
		assert.Equal(t, post.ID, ev.PostID)
	})

	t.Run("deleting twice reports not found", func(t *testing.T) {
		c := f.mustComment(t, grace, post.ID)
		require.NoError(t, f.comments.DeleteComment(context.Background(), grace.ID, c.ID))
		assert.Error(t, f.comments.DeleteComment(context.Background(), grace.ID, c.ID))
	})
}

func TestReplies(t *testing.T) {
	f := newFixture(t)
	ada := f.store.addUser("ada")
	grace := f.store.addUser("grace")
	eve := f.store.addUser("eve")
	post := f.mustPost(t, ada)
	comment := f.mustComment(t, grace, post.ID)

	t.Run("reply attaches to the comment and notifies its author", func(t *testing.T) {
		r, err := f.comments.AddReply(context.Background(), eve, comment.ID, "I disagree.")
		require.NoError(t, err)
		assert.Equal(t, comment.ID, r.CommentID)

		events := f.disp.ofType(realtime.TypeReplyAdded)
		require.Len(t, events, 1)
		ev := events[0].event.(realtime.ReplyAddedEvent)
		assert.Equal(t, post.ID, ev.PostID)
		assert.Equal(t, comment.ID, ev.CommentID)

		list, _, err := f.notifications.List(context.Background(), grace.ID, 0)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "reply", list[0].Type)
	})

	t.Run("replies surface under their comment", func(t *testing.T) {
		c, err := f.comments.store.GetComment(context.Background(), comment.ID, "")
		require.NoError(t, err)
		require.Len(t, c.Replies, 1)
		assert.Equal(t, "I disagree.", c.Replies[0].Content)
	})

	t.Run("reply length is capped", func(t *testing.T) {
		_, err := f.comments.AddReply(context.Background(), eve, comment.ID, strings.Repeat("a", 501))
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("only the reply author can delete, even the post author cannot", func(t *testing.T) {
		r, err := f.comments.AddReply(context.Background(), eve, comment.ID, "hot take")
		require.NoError(t, err)

		assert.ErrorIs(t, f.comments.DeleteReply(context.Background(), ada.ID, r.ID), ErrForbidden)
		assert.ErrorIs(t, f.comments.DeleteReply(context.Background(), grace.ID, r.ID), ErrForbidden)
		require.NoError(t, f.comments.DeleteReply(context.Background(), eve.ID, r.ID))
	})
}

func TestCommentAndReplyLikes(t *testing.T) {
	f := newFixture(t)
	ada := f.store.addUser("ada")
	grace := f.store.addUser("grace")
	post := f.mustPost(t, ada)
	comment := f.mustComment(t, grace, post.ID)

	t.Run("comment like toggles with parity", func(t *testing.T) {
		liked, count, err := f.comments.ToggleCommentLike(context.Background(), ada, comment.ID)
		require.NoError(t, err)
		assert.True(t, liked)
		assert.Equal(t, 1, count)

		events := f.disp.ofType(realtime.TypeCommentLikeUpdate)
		require.Len(t, events, 1)
		ev := events[0].event.(realtime.CommentLikeUpdatedEvent)
		assert.Equal(t, post.ID, ev.PostID)
		assert.Equal(t, comment.ID, ev.CommentID)

		liked, count, err = f.comments.ToggleCommentLike(context.Background(), ada, comment.ID)
		require.NoError(t, err)
		assert.False(t, liked)
		assert.Equal(t, 0, count)
	})

	t.Run("reply like addresses the full path", func(t *testing.T) {
		r, err := f.comments.AddReply(context.Background(), ada, comment.ID, "fair point")
		require.NoError(t, err)
		f.disp.reset()

		liked, count, err := f.comments.ToggleReplyLike(context.Background(), grace, r.ID)
		require.NoError(t, err)
		assert.True(t, liked)
		assert.Equal(t, 1, count)

		events := f.disp.ofType(realtime.TypeReplyLikeUpdated)
		require.Len(t, events, 1)
		ev := events[0].event.(realtime.ReplyLikeUpdatedEvent)
		assert.Equal(t, post.ID, ev.PostID)
		assert.Equal(t, comment.ID, ev.CommentID)
		assert.Equal(t, r.ID, ev.ReplyID)
	})
}

func TestCommentListing(t *testing.T) {
	f := newFixture(t)
	ada := f.store.addUser("ada")
	grace := f.store.addUser("grace")
	post := f.mustPost(t, ada)

	first := f.mustComment(t, grace, post.ID)
	second := f.mustComment(t, ada, post.ID)

	t.Run("oldest first with replies attached", func(t *testing.T) {
		r, err := f.comments.AddReply(context.Background(), ada, first.ID, "Good point.")
		require.NoError(t, err)

		comments, err := f.comments.List(context.Background(), post.ID, grace.ID)
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, first.ID, comments[0].ID)
		assert.Equal(t, second.ID, comments[1].ID)
		require.Len(t, comments[0].Replies, 1)
		assert.Equal(t, r.ID, comments[0].Replies[0].ID)
	})

	t.Run("unknown post reports not found", func(t *testing.T) {
		_, err := f.comments.List(context.Background(), "missing", "")
		assert.Error(t, err)
	})
}

func TestEditCommentAndReply(t *testing.T) {
	f := newFixture(t)
	ada := f.store.addUser("ada")
	grace := f.store.addUser("grace")
	post := f.mustPost(t, ada)
	comment := f.mustComment(t, grace, post.ID)

	t.Run("only the comment author can edit", func(t *testing.T) {
		_, err := f.comments.UpdateComment(context.Background(), ada.ID, comment.ID, "rewritten")
		assert.ErrorIs(t, err, ErrForbidden)

		got, err := f.comments.UpdateComment(context.Background(), grace.ID, comment.ID, "rewritten")
		require.NoError(t, err)
		assert.Equal(t, "rewritten", got.Content)
	})

	t.Run("edit enforces the length limit", func(t *testing.T) {
		_, err := f.comments.UpdateComment(context.Background(), grace.ID, comment.ID, strings.Repeat("a", 1001))
		assert.ErrorIs(t, err, ErrValidation)
		_, err = f.comments.UpdateComment(context.Background(), grace.ID, comment.ID, "   ")
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("edits are not pushed", func(t *testing.T) {
		f.disp.reset()
		_, err := f.comments.UpdateComment(context.Background(), grace.ID, comment.ID, "quiet edit")
		require.NoError(t, err)
		assert.Empty(t, f.disp.all())
	})

	t.Run("only the reply author can edit a reply", func(t *testing.T) {
		r, err := f.comments.AddReply(context.Background(), ada, comment.ID, "reply")
		require.NoError(t, err)

		_, err = f.comments.UpdateReply(context.Background(), grace.ID, r.ID, "hijacked")
		assert.ErrorIs(t, err, ErrForbidden)

		got, err := f.comments.UpdateReply(context.Background(), ada.ID, r.ID, "clarified")
		require.NoError(t, err)
		assert.Equal(t, "clarified", got.Content)

		_, err = f.comments.UpdateReply(context.Background(), ada.ID, r.ID, strings.Repeat("a", 501))
		assert.ErrorIs(t, err, ErrValidation)
	})
}
