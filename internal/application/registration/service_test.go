package registration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/go-registration-api/internal/application/notification"
	"github.com/go-registration-api/internal/domain"
	"github.com/go-registration-api/internal/pkg/metrics"
)

// --- mocks ---

type mockUserStore struct{ mock.Mock }

func (m *mockUserStore) Create(ctx context.Context, u *domain.User) error {
	return m.Called(ctx, u).Error(0)
}
func (m *mockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) Get(ctx context.Context, userID string) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if u, _ := args.Get(0).(*domain.User); u != nil {
		return u, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockUserStore) MarkValidated(ctx context.Context, userID string) error {
	return m.Called(ctx, userID).Error(0)
}

type mockCodeEngine struct{ mock.Mock }

func (m *mockCodeEngine) Issue(ctx context.Context, userID string, ttl time.Duration) (*domain.ValidationCode, error) {
	args := m.Called(ctx, userID, ttl)
	if vc, _ := args.Get(0).(*domain.ValidationCode); vc != nil {
		return vc, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockCodeEngine) Check(ctx context.Context, userID, submitted string) error {
	return m.Called(ctx, userID, submitted).Error(0)
}

// passthroughTx runs the function without a real transaction.
type passthroughTx struct{}

func (passthroughTx) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

// recordingNotifier captures enqueued mails.
type recordingNotifier struct{ mails []notification.Mail }

func (n *recordingNotifier) Enqueue(m notification.Mail) { n.mails = append(n.mails, m) }

// --- helpers ---

func newService(us *mockUserStore, ce *mockCodeEngine, n *recordingNotifier) Service {
	return NewService(ServiceDeps{
		UserRepo:          us,
		CodeEngine:        ce,
		Tx:                passthroughTx{},
		Notifier:          n,
		Metrics:           metrics.NewWith(prometheus.NewRegistry()),
		CodeTTL:           time.Minute,
		PasswordMinLength: 8,
	})
}

func baseReq() domain.CreateUserRequest {
	return domain.CreateUserRequest{
		EmailAddress: "a@example.org",
		Password:     "secret123",
	}
}

func hashOf(t *testing.T, password string) string {
	t.Helper()
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

// --- Register ---

func TestRegister_Success(t *testing.T) {
	us := &mockUserStore{}
	us.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.EmailAddress == "a@example.org" &&
			u.Status == domain.StatusPending &&
			u.PasswordHash != "" &&
			u.PasswordHash != "secret123"
	})).Return(nil)
	ce := &mockCodeEngine{}
	ce.On("Issue", mock.Anything, mock.Anything, time.Minute).
		Return(&domain.ValidationCode{Code: "4821"}, nil)
	n := &recordingNotifier{}

	svc := newService(us, ce, n)
	u, err := svc.Register(context.Background(), baseReq())

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, u.Status)
	assert.NotEmpty(t, u.UserID)
	require.Len(t, n.mails, 1)
	assert.Equal(t, "a@example.org", n.mails[0].To)
	assert.Equal(t, "4821", n.mails[0].Code)
	us.AssertExpectations(t)
	ce.AssertExpectations(t)
}

func TestRegister_HashNotPlaintext(t *testing.T) {
	us := &mockUserStore{}
	var created *domain.User
	us.On("Create", mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
		created = args.Get(1).(*domain.User)
	}).Return(nil)
	ce := &mockCodeEngine{}
	ce.On("Issue", mock.Anything, mock.Anything, mock.Anything).
		Return(&domain.ValidationCode{Code: "0001"}, nil)

	svc := newService(us, ce, &recordingNotifier{})
	_, err := svc.Register(context.Background(), baseReq())

	require.NoError(t, err)
	require.NotNil(t, created)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.PasswordHash), []byte("secret123")))
	assert.NotContains(t, created.PasswordHash, "secret123")
}

func TestRegister_InvalidEmail(t *testing.T) {
	svc := newService(&mockUserStore{}, &mockCodeEngine{}, &recordingNotifier{})
	_, err := svc.Register(context.Background(), domain.CreateUserRequest{
		EmailAddress: "not-an-email",
		Password:     "secret123",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestRegister_PasswordTooShort(t *testing.T) {
	svc := newService(&mockUserStore{}, &mockCodeEngine{}, &recordingNotifier{})
	_, err := svc.Register(context.Background(), domain.CreateUserRequest{
		EmailAddress: "a@example.org",
		Password:     "pw",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrValidation))
}

func TestRegister_EmailConflict(t *testing.T) {
	us := &mockUserStore{}
	us.On("Create", mock.Anything, mock.Anything).
		Return(domain.ErrConflict)
	n := &recordingNotifier{}

	svc := newService(us, &mockCodeEngine{}, n)
	_, err := svc.Register(context.Background(), baseReq())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrConflict))
	assert.Empty(t, n.mails, "no mail on failed registration")
}

func TestRegister_CodeIssueFailureAbortsTx(t *testing.T) {
	us := &mockUserStore{}
	us.On("Create", mock.Anything, mock.Anything).Return(nil)
	ce := &mockCodeEngine{}
	ce.On("Issue", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("db down"))
	n := &recordingNotifier{}

	svc := newService(us, ce, n)
	_, err := svc.Register(context.Background(), baseReq())

	require.Error(t, err)
	assert.Empty(t, n.mails)
}

// --- Authenticate ---

func TestAuthenticate_Success(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@example.org").Return(&domain.User{
		UserID:       "u1",
		EmailAddress: "a@example.org",
		PasswordHash: hashOf(t, "secret123"),
		Status:       domain.StatusPending,
	}, nil)

	svc := newService(us, &mockCodeEngine{}, &recordingNotifier{})
	u, err := svc.Authenticate(context.Background(), "a@example.org", "secret123")

	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
}

func TestAuthenticate_WrongPassword(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "a@example.org").Return(&domain.User{
		PasswordHash: hashOf(t, "secret123"),
	}, nil)

	svc := newService(us, &mockCodeEngine{}, &recordingNotifier{})
	_, err := svc.Authenticate(context.Background(), "a@example.org", "wrong")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
}

func TestAuthenticate_UnknownEmail(t *testing.T) {
	us := &mockUserStore{}
	us.On("GetByEmail", mock.Anything, "ghost@example.org").Return(nil, domain.ErrNotFound)

	svc := newService(us, &mockCodeEngine{}, &recordingNotifier{})
	_, err := svc.Authenticate(context.Background(), "ghost@example.org", "whatever")

	// Unknown e-mail and wrong password are indistinguishable to the caller.
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrUnauthorized))
	assert.False(t, errors.Is(err, domain.ErrNotFound))
}

// --- Validate ---

func TestValidate_Success(t *testing.T) {
	us := &mockUserStore{}
	us.On("MarkValidated", mock.Anything, "u1").Return(nil)
	ce := &mockCodeEngine{}
	ce.On("Check", mock.Anything, "u1", "4821").Return(nil)

	u := &domain.User{UserID: "u1", Status: domain.StatusPending}
	svc := newService(us, ce, &recordingNotifier{})

	require.NoError(t, svc.Validate(context.Background(), u, "4821"))
	assert.Equal(t, domain.StatusValidated, u.Status)
	us.AssertExpectations(t)
	ce.AssertExpectations(t)
}

func TestValidate_AlreadyValidatedPrecedesCodeCheck(t *testing.T) {
	ce := &mockCodeEngine{}
	u := &domain.User{UserID: "u1", Status: domain.StatusValidated}
	svc := newService(&mockUserStore{}, ce, &recordingNotifier{})

	err := svc.Validate(context.Background(), u, "4821")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrAlreadyValidated))
	// Status is checked first: the engine is never consulted for a
	// validated user, even with a syntactically valid code.
	ce.AssertNotCalled(t, "Check", mock.Anything, mock.Anything, mock.Anything)
}

func TestValidate_CodeMismatch(t *testing.T) {
	us := &mockUserStore{}
	ce := &mockCodeEngine{}
	ce.On("Check", mock.Anything, "u1", "9999").Return(domain.ErrCodeMismatch)

	u := &domain.User{UserID: "u1", Status: domain.StatusPending}
	svc := newService(us, ce, &recordingNotifier{})
	err := svc.Validate(context.Background(), u, "9999")

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrCodeMismatch))
	assert.Equal(t, domain.StatusPending, u.Status)
	us.AssertNotCalled(t, "MarkValidated", mock.Anything, mock.Anything)
}

func TestValidate_StatusFlipFailureIsFatal(t *testing.T) {
	us := &mockUserStore{}
	us.On("MarkValidated", mock.Anything, "u1").Return(errors.New("db down"))
	ce := &mockCodeEngine{}
	ce.On("Check", mock.Anything, "u1", "4821").Return(nil)

	u := &domain.User{UserID: "u1", Status: domain.StatusPending}
	svc := newService(us, ce, &recordingNotifier{})
	err := svc.Validate(context.Background(), u, "4821")

	// The code is consumed and the flip failed: this must surface as an
	// internal error, not any recoverable domain kind.
	require.Error(t, err)
	assert.False(t, errors.Is(err, domain.ErrCodeMismatch))
	assert.False(t, errors.Is(err, domain.ErrAlreadyValidated))
}

// --- GetSelf ---

func TestGetSelf_PendingReadsAsNotFound(t *testing.T) {
	u := &domain.User{UserID: "u1", Status: domain.StatusPending}
	svc := newService(&mockUserStore{}, &mockCodeEngine{}, &recordingNotifier{})

	_, err := svc.GetSelf(context.Background(), u)

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestGetSelf_Validated(t *testing.T) {
	u := &domain.User{UserID: "u1", EmailAddress: "a@example.org", Status: domain.StatusValidated}
	svc := newService(&mockUserStore{}, &mockCodeEngine{}, &recordingNotifier{})

	got, err := svc.GetSelf(context.Background(), u)

	require.NoError(t, err)
	assert.Equal(t, "a@example.org", got.EmailAddress)
}
