package social

import (
	"context"
	"fmt"

	"github.com/scholarfeed/internal/realtime"
	"github.com/scholarfeed/pkg/models"
)

// FollowService coordinates the follow graph.
type FollowService struct {
	store Store
	disp  Dispatcher
	notifier
}

// NewFollowService creates a follow service.
func NewFollowService(st Store, disp Dispatcher) *FollowService {
	return &FollowService{store: st, disp: disp, notifier: notifier{store: st, disp: disp}}
}

// Toggle flips whether actor follows targetID. The target learns through
// follow_updated; the actor's other sessions converge through
// follow_status_updated. Following notifies the target.
func (s *FollowService) Toggle(ctx context.Context, actor *models.User, targetID string) (following bool, err error) {
	if actor.ID == targetID {
		return false, validationf("cannot follow yourself")
	}
	if _, err := s.store.GetUserByID(ctx, targetID); err != nil {
		return false, err
	}

	added, err := s.store.Follow(ctx, actor.ID, targetID)
	if err != nil {
		return false, err
	}
	following = added
	if !added {
		// Already following: this call is the unfollow half of the toggle.
		if _, err := s.store.Unfollow(ctx, actor.ID, targetID); err != nil {
			return false, err
		}
	}

	s.disp.SendToUser(targetID, realtime.FollowUpdated(actor.ID, following))
	s.disp.SendToUser(actor.ID, realtime.FollowStatus(targetID, following))
	if following {
		ref := actor.Ref()
		s.notify(ctx, targetID, models.NotificationFollow, &ref, nil, nil,
			fmt.Sprintf("%s started following you", actor.Name))
	}
	return following, nil
}

// IsFollowing reports whether follower follows followee.
func (s *FollowService) IsFollowing(ctx context.Context, followerID, followeeID string) (bool, error) {
	return s.store.IsFollowing(ctx, followerID, followeeID)
}

// Followers lists the users following userID.
func (s *FollowService) Followers(ctx context.Context, userID string) ([]models.UserRef, error) {
	return s.store.ListFollowers(ctx, userID)
}

// Following lists the users userID follows.
func (s *FollowService) Following(ctx context.Context, userID string) ([]models.UserRef, error) {
	return s.store.ListFollowing(ctx, userID)
}
