package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-registration-api/internal/domain"
)

// CodeRepo provides typed PostgreSQL operations for the validation_codes table.
type CodeRepo struct {
	db *sql.DB
}

func NewCodeRepo(db *sql.DB) *CodeRepo {
	return &CodeRepo{db: db}
}

// Replace upserts the single validation code row for a user. Any prior
// outstanding code for that user is superseded and can never again succeed
// a check.
func (r *CodeRepo) Replace(ctx context.Context, vc *domain.ValidationCode) error {
	_, err := conn(ctx, r.db).ExecContext(ctx,
		`INSERT INTO validation_codes (user_id, code, expires_at, consumed)
		 VALUES ($1, $2, $3, false)
		 ON CONFLICT (user_id) DO UPDATE SET
			code = EXCLUDED.code,
			expires_at = EXCLUDED.expires_at,
			consumed = false`,
		vc.UserID, vc.Code, vc.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("replace validation code: %w", err)
	}
	return nil
}

// Consume atomically checks and consumes the user's outstanding code. The
// guarded UPDATE is the single serialization point: zero affected rows means
// no outstanding code, a wrong code, an expired code, or a code already
// consumed. The caller cannot tell these apart.
func (r *CodeRepo) Consume(ctx context.Context, userID, code string, now time.Time) error {
	res, err := conn(ctx, r.db).ExecContext(ctx,
		`UPDATE validation_codes SET consumed = true
		 WHERE user_id = $1 AND code = $2 AND consumed = false AND expires_at > $3`,
		userID, code, now,
	)
	if err != nil {
		return fmt.Errorf("consume validation code: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("consume validation code: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("user %s: %w", userID, domain.ErrCodeMismatch)
	}
	return nil
}

// Get returns the user's outstanding validation code, if any.
func (r *CodeRepo) Get(ctx context.Context, userID string) (*domain.ValidationCode, error) {
	var vc domain.ValidationCode
	err := conn(ctx, r.db).QueryRowContext(ctx,
		`SELECT user_id, code, expires_at, consumed
		 FROM validation_codes WHERE user_id = $1`,
		userID,
	).Scan(&vc.UserID, &vc.Code, &vc.ExpiresAt, &vc.Consumed)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("validation code: %w", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan validation code: %w", err)
	}
	return &vc, nil
}
