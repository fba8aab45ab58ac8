package social

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/scholarfeed/internal/realtime"
	"github.com/scholarfeed/pkg/models"
)

// notifier persists a notification and pushes it to its recipient. A failed
// notification is logged and swallowed: it is a side effect of a mutation
// that already committed.
type notifier struct {
	store Store
	disp  Dispatcher
}

// notify creates a notification for recipientID. A user never gets notified
// about their own action.
func (n *notifier) notify(ctx context.Context, recipientID, typ string, from *models.UserRef, postID, commentID *string, message string) {
	if from != nil && from.ID == recipientID {
		return
	}
	notif := &models.Notification{
		ID:          uuid.NewString(),
		RecipientID: recipientID,
		Type:        typ,
		FromUser:    from,
		PostID:      postID,
		CommentID:   commentID,
		Message:     message,
		// Stamped here so the pushed payload matches the stored row.
		CreatedAt: time.Now().UTC(),
	}
	if err := n.store.InsertNotification(ctx, notif); err != nil {
		log.Warn().Err(err).Str("recipient", recipientID).Str("type", typ).
			Msg("failed to persist notification")
		return
	}
	n.disp.SendToUser(recipientID, realtime.NewNotification(notif))
}
