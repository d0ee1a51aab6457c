package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/wadjakorntonsri/mosaic-gallery/pkg/core/domain"
	"github.com/wadjakorntonsri/mosaic-gallery/pkg/ports"
)

type UserService struct {
	repo ports.UserRepository
}

func NewUserService(repo ports.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Login records a user signing in with Google. The first login creates the
// account; later logins refresh name and avatar.
func (s *UserService) Login(ctx context.Context, email, name, avatarURL string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return nil, fmt.Errorf("%w: email is required", domain.ErrInvalidInput)
	}
	user := &domain.User{
		ID:        uuid.NewString(),
		Email:     email,
		Name:      strings.TrimSpace(name),
		AvatarURL: avatarURL,
	}
	if err := s.repo.UpsertUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
