package social

import (
	"context"
	"strings"

	"github.com/scholarfeed/internal/realtime"
	"github.com/scholarfeed/pkg/models"
)

// ProfileInput is the editable part of a user's profile.
type ProfileInput struct {
	Name   string `json:"name"`
	Bio    string `json:"bio"`
	Field  string `json:"field"`
	Avatar string `json:"avatar"`
}

// UserService coordinates profile mutations.
type UserService struct {
	store Store
	disp  Dispatcher
}

// NewUserService creates a user service.
func NewUserService(st Store, disp Dispatcher) *UserService {
	return &UserService{store: st, disp: disp}
}

// UpdateProfile edits the actor's own profile and announces the new identity
// so embedded author refs refresh everywhere.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error) {
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		return nil, validationf("name is required")
	}
	if len(in.Bio) > 500 {
		return nil, validationf("bio exceeds 500 characters")
	}
	updated, err := s.store.UpdateUserProfile(ctx, userID, in.Name, in.Bio, in.Field, in.Avatar)
	if err != nil {
		return nil, err
	}
	s.disp.Broadcast(realtime.UserUpdated(updated))
	return updated, nil
}
