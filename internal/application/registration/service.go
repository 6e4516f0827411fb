package registration

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/go-registration-api/internal/application/notification"
	"github.com/go-registration-api/internal/domain"
	"github.com/go-registration-api/internal/pkg/correlation"
	"github.com/go-registration-api/internal/pkg/id"
	"github.com/go-registration-api/internal/pkg/metrics"
	"github.com/go-registration-api/internal/pkg/validate"
)

// dummyHash is a bcrypt hash of a random string, compared against when the
// e-mail address is unknown so that failed lookups and wrong passwords take
// the same time and stay indistinguishable to the caller.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

type userStore interface {
	Create(ctx context.Context, u *domain.User) error
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Get(ctx context.Context, userID string) (*domain.User, error)
	MarkValidated(ctx context.Context, userID string) error
}

type codeEngine interface {
	Issue(ctx context.Context, userID string, ttl time.Duration) (*domain.ValidationCode, error)
	Check(ctx context.Context, userID, submitted string) error
}

type txRunner interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type notifier interface {
	Enqueue(m notification.Mail)
}

// Service implements the registration state machine: pending at creation,
// validated exactly once via a successful code check.
type Service interface {
	Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	Validate(ctx context.Context, user *domain.User, submittedCode string) error
	GetSelf(ctx context.Context, user *domain.User) (*domain.User, error)
}

type service struct {
	users       userStore
	codes       codeEngine
	tx          txRunner
	notifier    notifier
	metrics     *metrics.Metrics
	codeTTL     time.Duration
	minPassword int
}

type ServiceDeps struct {
	UserRepo          userStore
	CodeEngine        codeEngine
	Tx                txRunner
	Notifier          notifier
	Metrics           *metrics.Metrics
	CodeTTL           time.Duration
	PasswordMinLength int
}

func NewService(deps ServiceDeps) Service {
	return &service{
		users:       deps.UserRepo,
		codes:       deps.CodeEngine,
		tx:          deps.Tx,
		notifier:    deps.Notifier,
		metrics:     deps.Metrics,
		codeTTL:     deps.CodeTTL,
		minPassword: deps.PasswordMinLength,
	}
}

// Register creates a pending user and its first validation code in one
// transaction, then schedules the validation e-mail for delivery after the
// request completes.
func (s *service) Register(ctx context.Context, req domain.CreateUserRequest) (*domain.User, error) {
	if err := validate.Struct(&req); err != nil {
		return nil, err
	}
	if len(req.Password) < s.minPassword {
		return nil, &validate.FieldError{
			Field:  "password",
			Reason: fmt.Sprintf("password must be at least %d characters", s.minPassword),
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		UserID:       id.New(),
		EmailAddress: req.EmailAddress,
		PasswordHash: string(hash),
		Status:       domain.StatusPending,
		CreatedAt:    time.Now().UTC(),
	}

	var vc *domain.ValidationCode
	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if err := s.users.Create(ctx, u); err != nil {
			return err
		}
		vc, err = s.codes.Issue(ctx, u.UserID, s.codeTTL)
		return err
	})
	if err != nil {
		return nil, err
	}

	slog.Info("user registered",
		"user_id", u.UserID,
		"correlation_id", correlation.FromContext(ctx),
	)
	s.metrics.RegistrationsTotal.Inc()

	s.notifier.Enqueue(notification.Mail{
		UserID:        u.UserID,
		To:            u.EmailAddress,
		Code:          vc.Code,
		CorrelationID: correlation.FromContext(ctx),
	})
	return u, nil
}

// Authenticate verifies the submitted credentials. An unknown e-mail and a
// wrong password both return domain.ErrUnauthorized; the bcrypt comparison
// runs either way so the two cases are not distinguishable by timing.
func (s *service) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(password))
		return nil, fmt.Errorf("credentials rejected: %w", domain.ErrUnauthorized)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, fmt.Errorf("credentials rejected: %w", domain.ErrUnauthorized)
	}
	return u, nil
}

// Validate checks the submitted code and flips the user to validated. The
// status is checked before the code, so once a user is validated every
// further attempt returns domain.ErrAlreadyValidated regardless of the code.
func (s *service) Validate(ctx context.Context, user *domain.User, submittedCode string) error {
	if user.Validated() {
		return fmt.Errorf("user %s: %w", user.UserID, domain.ErrAlreadyValidated)
	}
	if err := s.codes.Check(ctx, user.UserID, submittedCode); err != nil {
		slog.Warn("validation code rejected",
			"user_id", user.UserID,
			"correlation_id", correlation.FromContext(ctx),
		)
		return err
	}
	if err := s.users.MarkValidated(ctx, user.UserID); err != nil {
		// The code is consumed; a second attempt cannot repair this state.
		// Surface as a plain internal error, never retried.
		return fmt.Errorf("status flip failed after code consumption for user %s: %v", user.UserID, err)
	}
	user.Status = domain.StatusValidated
	slog.Info("user validated",
		"user_id", user.UserID,
		"correlation_id", correlation.FromContext(ctx),
	)
	s.metrics.ValidationsTotal.Inc()
	return nil
}

// GetSelf returns the user only once validated. A pending account reads as
// not found on purpose: its existence is not confirmed beyond what
// Authenticate already revealed.
func (s *service) GetSelf(ctx context.Context, user *domain.User) (*domain.User, error) {
	if !user.Validated() {
		return nil, fmt.Errorf("user %s: %w", user.UserID, domain.ErrNotFound)
	}
	return user, nil
}
