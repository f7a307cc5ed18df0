package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/templui/goaltracker/internal/model"
	"github.com/templui/goaltracker/internal/repository"
	"github.com/templui/goaltracker/internal/validation"
)

// PreferencesUpdate is a partial edit; nil fields are left untouched.
type PreferencesUpdate struct {
	Name               *string
	MilestoneReminders *bool
	WeeklyDigest       *bool
}

type UserService struct {
	userRepository repository.UserRepository
}

func NewUserService(userRepository repository.UserRepository) *UserService {
	return &UserService{userRepository: userRepository}
}

func (s *UserService) ByID(ctx context.Context, id string) (*model.User, error) {
	return s.userRepository.ByID(ctx, id)
}

func (s *UserService) UpdatePreferences(ctx context.Context, userID string, upd PreferencesUpdate) (*model.User, error) {
	user, err := s.userRepository.ByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if upd.Name != nil {
		name := strings.TrimSpace(*upd.Name)
		if err := validation.ValidateName(name); err != nil {
			return nil, invalid("%s", err)
		}
		user.Name = name
	}
	if upd.MilestoneReminders != nil {
		user.MilestoneReminders = *upd.MilestoneReminders
	}
	if upd.WeeklyDigest != nil {
		user.WeeklyDigest = *upd.WeeklyDigest
	}

	err = s.userRepository.UpdatePreferences(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("failed to update preferences: %w", err)
	}

	return user, nil
}
