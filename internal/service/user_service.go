package service

import (
	"context"
	"errors"
	"strings"

	"github.com/pillcare/pillcare-backend/internal/repository"
)

type UserService interface {
	GetByID(ctx context.Context, id string) (*repository.User, error)
	GetByEmail(ctx context.Context, email string) (*repository.User, error)
	UpdateProfile(ctx context.Context, id, name string) (*repository.User, error)
}

type userService struct {
	userRepo repository.UserRepository
}

func NewUserService(userRepo repository.UserRepository) UserService {
	return &userService{userRepo: userRepo}
}

func (s *userService) GetByID(ctx context.Context, id string) (*repository.User, error) {
	if id == "" {
		return nil, errors.New("id required")
	}
	user, err := s.userRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

func (s *userService) GetByEmail(ctx context.Context, email string) (*repository.User, error) {
	if email == "" {
		return nil, errors.New("email required")
	}
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, id, name string) (*repository.User, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("name required")
	}
	if err := s.userRepo.UpdateProfile(ctx, id, strings.TrimSpace(name)); err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func normalizeEmail(e string) string {
	return strings.ToLower(strings.TrimSpace(e))
}
