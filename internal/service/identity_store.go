package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/fix-it/marketplace/internal/domain"
	"github.com/fix-it/marketplace/internal/repository"
	"github.com/fix-it/marketplace/internal/verification"
)

// identityStore adapts the user repository to the verification flow's
// account backend. The users table's unique email constraint serializes
// concurrent registrations for the same identifier.
type identityStore struct {
	users repository.UserRepository
}

// NewIdentityStore wraps a user repository for the verification flow.
func NewIdentityStore(users repository.UserRepository) verification.IdentityStore {
	return &identityStore{users: users}
}

func (s *identityStore) UpsertPending(ctx context.Context, reg verification.PendingRegistration) (*domain.User, error) {
	existing, err := s.users.GetByEmail(ctx, reg.Email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if existing != nil {
		if existing.Status != domain.UserStatusPending {
			return nil, verification.ErrConflict
		}
		// A stalled registration restarts with fresh fields.
		existing.FullName = reg.FullName
		existing.Phone = reg.Phone
		existing.Role = reg.Role
		existing.PasswordHash = reg.PasswordHash
		if err := s.users.Update(ctx, existing); err != nil {
			return nil, err
		}
		return existing, nil
	}

	user := &domain.User{
		Email:        reg.Email,
		FullName:     reg.FullName,
		Phone:        reg.Phone,
		PasswordHash: reg.PasswordHash,
		Role:         reg.Role,
		Status:       domain.UserStatusPending,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *identityStore) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (s *identityStore) Activate(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user.Status == domain.UserStatusSuspended {
		return nil, fmt.Errorf("account %s is suspended", user.ID)
	}
	if user.Status != domain.UserStatusActive {
		user.Status = domain.UserStatusActive
		if err := s.users.Update(ctx, user); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func (s *identityStore) UpdatePassword(ctx context.Context, email, passwordHash string) (*domain.User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	user.PasswordHash = passwordHash
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
