package repo

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"crowdfund/internal/domain"
	"crowdfund/internal/sqlinline"
)

// CreateUser inserts a user; username and email are unique.
func (t *ledgerTx) CreateUser(ctx context.Context, user *domain.User) error {
	row := t.sql.QueryRow(ctx, sqlinline.QInsertUser,
		strings.TrimSpace(user.Username),
		strings.TrimSpace(user.Email),
		user.PasswordHash,
		string(user.Role),
	)
	if err := row.Scan(&user.ID, &user.CreatedAt); err != nil {
		return mapPGError(err)
	}
	return nil
}

// GetUser fetches a user by id.
func (t *ledgerTx) GetUser(ctx context.Context, id int64) (*domain.User, error) {
	user, err := scanUser(t.sql.QueryRow(ctx, sqlinline.QSelectUserByID, id))
	if err != nil {
		return nil, notFound(err, "user", id)
	}
	return user, nil
}

// GetUserByEmail fetches a user by case-insensitive email.
func (t *ledgerTx) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	user, err := scanUser(t.sql.QueryRow(ctx, sqlinline.QSelectUserByEmail, strings.TrimSpace(email)))
	if err != nil {
		return nil, notFound(err, "user", email)
	}
	return user, nil
}

// SetUserRole updates the role of a user.
func (t *ledgerTx) SetUserRole(ctx context.Context, id int64, role domain.UserRole) error {
	tag, err := t.sql.Exec(ctx, sqlinline.QUpdateUserRole, id, string(role))
	if err != nil {
		return mapPGError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, domain.ErrNotFound)
	}
	return nil
}

// CountUserDependents counts campaigns, donations, votes and transactions
// referencing the user.
func (t *ledgerTx) CountUserDependents(ctx context.Context, id int64) (int64, error) {
	return t.count(ctx, sqlinline.QCountUserDependents, id)
}

// DeleteUser removes a user without dependents.
func (t *ledgerTx) DeleteUser(ctx context.Context, id int64) error {
	return t.deleteByID(ctx, sqlinline.QDeleteUser, "user", id)
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u    domain.User
		role string
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &u.CreatedAt); err != nil {
		return nil, err
	}
	u.Role = domain.UserRole(role)
	return &u, nil
}

func (t *ledgerTx) count(ctx context.Context, query string, args ...any) (int64, error) {
	var n int64
	if err := t.sql.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapPGError(err)
	}
	return n, nil
}

func (t *ledgerTx) deleteByID(ctx context.Context, query, entity string, id int64) error {
	tag, err := t.sql.Exec(ctx, query, id)
	if err != nil {
		return mapPGError(err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, domain.ErrNotFound)
	}
	return nil
}
