package ledger

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"crowdfund/internal/domain"
)

const minPasswordLen = 8

// RegisterUserInput carries the fields of a new account.
type RegisterUserInput struct {
	Username string
	Email    string
	Password string
	Role     domain.UserRole
}

func (in *RegisterUserInput) normalize() error {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if in.Username == "" {
		return fmt.Errorf("username is required: %w", domain.ErrValidation)
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return fmt.Errorf("email %q: %w", in.Email, domain.ErrValidation)
	}
	if len(in.Password) < minPasswordLen {
		return fmt.Errorf("password must have at least %d characters: %w", minPasswordLen, domain.ErrValidation)
	}
	if in.Role == "" {
		in.Role = domain.UserRoleDonor
	}
	if !in.Role.Valid() {
		return fmt.Errorf("role %q: %w", in.Role, domain.ErrValidation)
	}
	return nil
}

// RegisterUser creates an account with a bcrypt password hash. Duplicate
// usernames or emails fail with domain.ErrConflict.
func (s *Service) RegisterUser(ctx context.Context, in RegisterUserInput) (*domain.User, error) {
	if err := in.normalize(); err != nil {
		return nil, err
	}
	cost := s.bcryptCost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", domain.ErrValidation)
	}
	user := &domain.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: string(hash),
		Role:         in.Role,
	}
	if err := s.store.WithinTx(ctx, func(tx domain.LedgerTx) error {
		return tx.CreateUser(ctx, user)
	}); err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("user registered")
	return user, nil
}

// GetUser fetches a user by id.
func (s *Service) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	var user *domain.User
	err := s.store.ReadTx(ctx, func(tx domain.LedgerTx) error {
		var err error
		user, err = tx.GetUser(ctx, id)
		return err
	})
	return user, err
}

// Authenticate checks an email/password pair.
func (s *Service) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user *domain.User
	err := s.store.ReadTx(ctx, func(tx domain.LedgerTx) error {
		var err error
		user, err = tx.GetUserByEmail(ctx, email)
		return err
	})
	if errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, fmt.Errorf("invalid credentials: %w", domain.ErrUnauthorized)
	}
	return user, nil
}

// AssignRole sets a user's role. It is an operator action and performs no
// actor check.
func (s *Service) AssignRole(ctx context.Context, userID int64, role domain.UserRole) (*domain.User, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("role %q: %w", role, domain.ErrValidation)
	}
	var user *domain.User
	err := s.store.WithinTx(ctx, func(tx domain.LedgerTx) error {
		if err := tx.SetUserRole(ctx, userID, role); err != nil {
			return err
		}
		var err error
		user, err = tx.GetUser(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Int64("user_id", userID).Str("role", string(role)).Msg("user role assigned")
	return user, nil
}

// DeleteUser removes an account. Only the user or an admin may delete it, and
// users still referenced by campaigns, donations, votes or transactions are
// kept (domain.ErrState).
func (s *Service) DeleteUser(ctx context.Context, actorID, userID int64) error {
	return s.store.WithinTx(ctx, func(tx domain.LedgerTx) error {
		actor, err := tx.GetUser(ctx, actorID)
		if err != nil {
			return err
		}
		if actor.ID != userID && !actor.IsAdmin() {
			return fmt.Errorf("user %d may not delete user %d: %w", actorID, userID, domain.ErrForbidden)
		}
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return err
		}
		n, err := tx.CountUserDependents(ctx, userID)
		if err != nil {
			return err
		}
		if n > 0 {
			return fmt.Errorf("user %d has %d dependent rows: %w", userID, n, domain.ErrState)
		}
		return tx.DeleteUser(ctx, userID)
	})
}
