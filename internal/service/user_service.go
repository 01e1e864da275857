package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"shoecare/internal/auth"
	"shoecare/internal/database"
	"shoecare/internal/domain"
	"shoecare/internal/models"

	"github.com/rs/zerolog"
)

var ErrUserNotFound = errors.New("user not found")

const userSearchLimit = 10

type UserService struct {
	repo   domain.UserStore
	logger *zerolog.Logger
}

func NewUserService(repo domain.UserStore, logger *zerolog.Logger) *UserService {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &UserService{
		repo:   repo,
		logger: logger,
	}
}

// ListUsers returns every user with a booking count. Administrators only.
func (s *UserService) ListUsers(ctx context.Context, p *auth.Principal) ([]*models.UserSummary, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// SearchUsers lets administrators look users up by name or email. Anyone else
// only ever finds themselves, whatever the query.
func (s *UserService) SearchUsers(ctx context.Context, p *auth.Principal, query string) ([]*models.User, error) {
	if err := requirePrincipal(p); err != nil {
		return nil, err
	}

	if !p.IsAdministrator() {
		self, err := s.repo.GetUserByID(ctx, p.UserID)
		if err != nil {
			return nil, fmt.Errorf("find user %d: %w", p.UserID, err)
		}
		if self == nil {
			return []*models.User{}, nil
		}
		return []*models.User{self}, nil
	}

	users, err := s.repo.SearchUsers(ctx, query, userSearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search users: %w", err)
	}
	return users, nil
}

// SetAdmin changes a user's persisted admin flag. Administrators only.
func (s *UserService) SetAdmin(ctx context.Context, p *auth.Principal, userID int64, isAdmin bool) (*models.User, error) {
	if err := requireAdmin(p); err != nil {
		return nil, err
	}
	if userID <= 0 {
		return nil, &ValidationError{Message: "User ID is required"}
	}

	user, err := s.repo.SetUserAdmin(ctx, userID, isAdmin)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("set admin flag for user %d: %w", userID, err)
	}

	s.logger.Info().
		Int64("user_id", userID).
		Bool("is_admin", isAdmin).
		Int64("changed_by", p.UserID).
		Msg("admin flag changed")
	return user, nil
}

// MakeAdminByEmail grants the persisted admin flag to an existing user. It is meant
// for operator tooling and performs no principal check.
func (s *UserService) MakeAdminByEmail(ctx context.Context, email string) (*models.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, &ValidationError{Message: "Email is required"}
	}
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("find user %s: %w", email, err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	if user.IsAdmin {
		return user, nil
	}

	updated, err := s.repo.SetUserAdmin(ctx, user.ID, true)
	if err != nil {
		return nil, fmt.Errorf("promote user %s: %w", email, err)
	}
	s.logger.Info().Int64("user_id", user.ID).Str("email", user.Email).Msg("user promoted to admin")
	return updated, nil
}

// EnsureUser creates the user if needed and returns the stored row.
func (s *UserService) EnsureUser(ctx context.Context, email, name string) (*models.User, error) {
	if strings.TrimSpace(email) == "" {
		return nil, &ValidationError{Message: "Email is required"}
	}
	user := &models.User{Email: email, Name: strings.TrimSpace(name)}
	if err := s.repo.CreateOrUpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("save user %s: %w", email, err)
	}
	return user, nil
}

func (s *UserService) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetUserByID(ctx, id)
}

func requireAdmin(p *auth.Principal) error {
	if err := requirePrincipal(p); err != nil {
		return err
	}
	if !p.IsAdministrator() {
		return auth.ErrUnauthorized
	}
	return nil
}
