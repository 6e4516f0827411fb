package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/go-registration-api/internal/domain"
)

// uniqueViolation is the PostgreSQL error code for unique constraint violations.
const uniqueViolation = "23505"

// UserRepo provides typed PostgreSQL operations for the users table.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

// Create inserts a new user. Uniqueness of the e-mail address is enforced by
// the database index on lower(email_address); a violation maps to
// domain.ErrConflict so concurrent registrations never race.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO users (user_id, email_address, password_hash, status, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		u.UserID, u.EmailAddress, u.PasswordHash, u.Status, u.CreatedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("a user already exists with e-mail address %s: %w", u.EmailAddress, domain.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT user_id, email_address, password_hash, status, created_at
		 FROM users WHERE lower(email_address) = lower($1)`,
		email,
	))
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	return r.scanUser(conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT user_id, email_address, password_hash, status, created_at
		 FROM users WHERE user_id = $1`,
		userID,
	))
}

// MarkValidated flips the user's status to validated. The predicate on the
// current status makes the transition happen exactly once even under
// concurrent submissions; a second attempt maps to domain.ErrAlreadyValidated.
func (r *UserRepo) MarkValidated(ctx context.Context, userID string) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE users SET status = $1 WHERE user_id = $2 AND status = $3`,
		domain.StatusValidated, userID, domain.StatusPending,
	)
	if err != nil {
		return fmt.Errorf("mark user validated: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark user validated: %w", err)
	}
	if n == 0 {
		if _, err := r.Get(ctx, userID); err != nil {
			return err
		}
		return fmt.Errorf("user %s: %w", userID, domain.ErrAlreadyValidated)
	}
	return nil
}

func (r *UserRepo) scanUser(row *sql.Row) (*domain.User, error) {
	var u domain.User
	err := row.Scan(&u.UserID, &u.EmailAddress, &u.PasswordHash, &u.Status, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
