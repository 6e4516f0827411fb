package verification

import (
	"context"
	"fmt"
	"time"

	"github.com/go-registration-api/internal/domain"
	"github.com/go-registration-api/internal/pkg/code"
)

type codeStore interface {
	Replace(ctx context.Context, vc *domain.ValidationCode) error
	Consume(ctx context.Context, userID, code string, now time.Time) error
}

// Service owns the validation-code generation and comparison rules. Storage
// belongs to the code store; the check-and-consume itself is a single guarded
// update there.
type Service interface {
	Issue(ctx context.Context, userID string, ttl time.Duration) (*domain.ValidationCode, error)
	Check(ctx context.Context, userID, submitted string) error
}

type service struct {
	store      codeStore
	codeLength int
	now        func() time.Time
}

type ServiceDeps struct {
	CodeStore  codeStore
	CodeLength int
	Now        func() time.Time // defaults to time.Now
}

func NewService(deps ServiceDeps) Service {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &service{
		store:      deps.CodeStore,
		codeLength: deps.CodeLength,
		now:        now,
	}
}

// Issue generates a fresh code for the user and supersedes any outstanding
// one. Participates in the caller's transaction when one is in the context.
func (s *service) Issue(ctx context.Context, userID string, ttl time.Duration) (*domain.ValidationCode, error) {
	c, err := code.New(s.codeLength)
	if err != nil {
		return nil, err
	}
	vc := &domain.ValidationCode{
		UserID:    userID,
		Code:      c,
		ExpiresAt: s.now().UTC().Add(ttl),
	}
	if err := s.store.Replace(ctx, vc); err != nil {
		return nil, err
	}
	return vc, nil
}

// Check consumes the user's outstanding code if the submission matches and
// the code is unexpired and unconsumed. Any other outcome is a mismatch.
func (s *service) Check(ctx context.Context, userID, submitted string) error {
	normalized := code.Normalize(submitted, s.codeLength)
	if err := s.store.Consume(ctx, userID, normalized, s.now().UTC()); err != nil {
		return fmt.Errorf("check validation code: %w", err)
	}
	return nil
}
