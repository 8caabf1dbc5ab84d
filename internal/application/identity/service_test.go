package identity

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/go-identity-api/internal/domain"
	"github.com/go-identity-api/internal/pkg/password"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// --- mocks ---

type mockAccountStore struct{ mock.Mock }

func (m *mockAccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	args := m.Called(ctx, email)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) GetByVerificationToken(ctx context.Context, token string) (*domain.Account, error) {
	args := m.Called(ctx, token)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) Get(ctx context.Context, accountID string) (*domain.Account, error) {
	args := m.Called(ctx, accountID)
	if a, _ := args.Get(0).(*domain.Account); a != nil {
		return a, args.Error(1)
	}
	return nil, args.Error(1)
}
func (m *mockAccountStore) Put(ctx context.Context, a *domain.Account) error {
	return m.Called(ctx, a).Error(0)
}
func (m *mockAccountStore) Update(ctx context.Context, accountID string, updates map[string]interface{}) error {
	return m.Called(ctx, accountID, updates).Error(0)
}

type mockMailer struct{ mock.Mock }

func (m *mockMailer) SendEmail(to, subject, htmlBody string) error {
	return m.Called(to, subject, htmlBody).Error(0)
}

type mockSigner struct{ mock.Mock }

func (m *mockSigner) Sign(accountID string) (string, error) {
	args := m.Called(accountID)
	return args.String(0), args.Error(1)
}

type mockAvatars struct{ mock.Mock }

func (m *mockAvatars) Process(ctx context.Context, accountID, tmpPath, originalFilename string) (string, error) {
	args := m.Called(ctx, accountID, tmpPath, originalFilename)
	return args.String(0), args.Error(1)
}

// --- helpers ---

func newSvc(repo *mockAccountStore, ml *mockMailer, sg *mockSigner, av *mockAvatars) Service {
	return NewService(ServiceDeps{
		AccountRepo: repo,
		Mailer:      ml,
		JWTProvider: sg,
		Avatars:     av,
		BaseURL:     "http://localhost:3000",
	})
}

func verifiedAccount(t *testing.T) *domain.Account {
	t.Helper()
	hash, err := password.Hash("secret1")
	require.NoError(t, err)
	return &domain.Account{
		AccountID:    "acc-1",
		Name:         "A",
		Email:        "a@ex.co",
		PasswordHash: hash,
		Verified:     true,
	}
}

// --- Register ---

func TestRegister_CreatesUnverifiedAccount(t *testing.T) {
	repo, ml, sg, av := &mockAccountStore{}, &mockMailer{}, &mockSigner{}, &mockAvatars{}

	repo.On("GetByEmail", mock.Anything, "a@ex.co").Return(nil, domain.ErrNotFound)
	repo.On("Put", mock.Anything, mock.AnythingOfType("*domain.Account")).Return(nil)
	ml.On("SendEmail", "a@ex.co", "Verify your email", mock.Anything).Return(nil)

	a, err := newSvc(repo, ml, sg, av).Register(context.Background(), domain.RegisterRequest{
		Name: "A", Email: "a@ex.co", Password: "secret1",
	})

	require.NoError(t, err)
	assert.Equal(t, "A", a.Name)
	assert.Equal(t, "a@ex.co", a.Email)
	assert.False(t, a.Verified)
	assert.NotEmpty(t, a.AccountID)
	assert.NotEmpty(t, a.VerificationToken)
	assert.Empty(t, a.SessionToken)
	assert.Contains(t, a.AvatarURL, "gravatar.com/avatar/")
	assert.True(t, password.Verify("secret1", a.PasswordHash))

	// The verification link carries the stored token.
	ml.AssertCalled(t, "SendEmail", "a@ex.co", "Verify your email",
		mock.MatchedBy(func(body string) bool {
			return strings.Contains(body, "/api/auth/verify/"+a.VerificationToken)
		}))
}

func TestRegister_DuplicateEmail_Conflict(t *testing.T) {
	repo, ml, sg, av := &mockAccountStore{}, &mockMailer{}, &mockSigner{}, &mockAvatars{}

	repo.On("GetByEmail", mock.Anything, "a@ex.co").Return(verifiedAccount(t), nil)

	_, err := newSvc(repo, ml, sg, av).Register(context.Background(), domain.RegisterRequest{
		Name: "A", Email: "a@ex.co", Password: "secret1",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConflict)
	repo.AssertNotCalled(t, "Put", mock.Anything, mock.Anything)
}

func TestRegister_MailFailure_Propagates(t *testing.T) {
	repo, ml, sg, av := &mockAccountStore{}, &mockMailer{}, &mockSigner{}, &mockAvatars{}

	repo.On("GetByEmail", mock.Anything, "a@ex.co").Return(nil, domain.ErrNotFound)
	repo.On("Put", mock.Anything, mock.Anything).Return(nil)
	ml.On("SendEmail", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	_, err := newSvc(repo, ml, sg, av).Register(context.Background(), domain.RegisterRequest{
		Name: "A", Email: "a@ex.co", Password: "secret1",
	})

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrConflict)
	assert.NotErrorIs(t, err, domain.ErrNotFound)
}

// --- Verify ---

func TestVerify_SetsVerifiedAndClearsToken(t *testing.T) {
	repo, ml, sg, av := &mockAccountStore{}, &mockMailer{}, &mockSigner{}, &mockAvatars{}

	a := &domain.Account{AccountID: "acc-1", Email: "a@ex.co", VerificationToken: "tok-123"}
	repo.On("GetByVerificationToken", mock.Anything, "tok-123").Return(a, nil)
	repo.On("Update", mock.Anything, "acc-1", mock.MatchedBy(func(u map[string]interface{}) bool {
		return u["verified"] == true && u["verification_token"] == nil
	})).Return(nil)

	err := newSvc(repo, ml, sg, av).Verify(context.Background(), "tok-123")

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestVerify_UnknownToken_NotFound(t *testing.T) {
	repo, ml, sg, av := &mockAccountStore{}, &mockMailer{}, &mockSigner{}, &mockAvatars{}

	repo.On("GetByVerificationToken", mock.Anything, "used-token").Return(nil, domain.ErrNotFound)

	err := newSvc(repo, ml, sg, av).Verify(context.Background(), "used-token")

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// --- ResendVerification ---

func TestResendVerification_SendsExistingToken(t *testing.T) {
	repo, ml, sg, av := &mockAccountStore{}, &mockMailer{}, &mockSigner{}, &mockAvatars{}

	a := &domain.Account{AccountID: "acc-1", Email: "a@ex.co", VerificationToken: "tok-123"}
	repo.On("GetByEmail", mock.Anything, "a@ex.co").Return(a, nil)
	ml.On("SendEmail", "a@ex.co", "Verify your email", mock.MatchedBy(func(body string) bool {
		return strings.Contains(body, "/api/auth/verify/tok-123")
	})).Return(nil)

	err := newSvc(repo, ml, sg, av).ResendVerification(context.Background(), "a@ex.co")

	require.NoError(t, err)
	ml.AssertExpectations(t)
}

func TestResendVerification_UnknownEmail_NotFound(t *testing.T) {
	repo, ml, sg, av := &mockAccountStore{}, &mockMailer{}, &mockSigner{}, &mockAvatars{}

	repo.On("GetByEmail", mock.Anything, "x@ex.co").Return(nil, domain.ErrNotFound)

	err := newSvc(repo, ml, sg, av).ResendVerification(context.Background(), "x@ex.co")

	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestResendVerification_AlreadyVerified_Conflict(t *testing.T) {
	repo, ml, sg, av := &mockAccountStore{}, &mockMailer{}, &mockSigner{}, &mockAvatars{}

	repo.On("GetByEmail", mock.Anything, "a@ex.co").Return(verifiedAccount(t), nil)

	err := newSvc(repo, ml, sg, av).ResendVerification(context.Background(), "a@ex.co")

	assert.ErrorIs(t, err, domain.ErrConflict)
	ml.AssertNotCalled(t, "SendEmail", mock.Anything, mock.Anything, mock.Anything)
}

// --- Login ---

func TestLogin_Success_PersistsSessionToken(t *testing.T) {
	repo, ml, sg, av := &mockAccountStore{}, &mockMailer{}, &mockSigner{}, &mockAvatars{}

	repo.On("GetByEmail", mock.Anything, "a@ex.co").Return(verifiedAccount(t), nil)
	sg.On("Sign", "acc-1").Return("signed-jwt", nil)
	repo.On("Update", mock.Anything, "acc-1", map[string]interface{}{"session_token": "signed-jwt"}).Return(nil)

	tok, err := newSvc(repo, ml, sg, av).Login(context.Background(), domain.LoginRequest{
		Email: "a@ex.co", Password: "secret1",
	})

	require.NoError(t, err)
	assert.Equal(t, "signed-jwt", tok)
	repo.AssertExpectations(t)
}

func TestLogin_UnknownEmail_Unauthorized(t *testing.T) {
	repo, ml, sg, av := &mockAccountStore{}, &mockMailer{}, &mockSigner{}, &mockAvatars{}

	repo.On("GetByEmail", mock.Anything, "x@ex.co").Return(nil, domain.ErrNotFound)

	_, err := newSvc(repo, ml, sg, av).Login(context.Background(), domain.LoginRequest{
		Email: "x@ex.co", Password: "secret1",
	})

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.ErrorContains(t, err, "invalid email or password")
}

func TestLogin_Unverified_Unauthorized(t *testing.T) {
	repo, ml, sg, av := &mockAccountStore{}, &mockMailer{}, &mockSigner{}, &mockAvatars{}

	a := verifiedAccount(t)
	a.Verified = false
	a.VerificationToken = "tok-123"
	repo.On("GetByEmail", mock.Anything, "a@ex.co").Return(a, nil)

	_, err := newSvc(repo, ml, sg, av).Login(context.Background(), domain.LoginRequest{
		Email: "a@ex.co", Password: "secret1",
	})

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	// The unverified case must read identically to a bad password.
	assert.ErrorContains(t, err, "invalid email or password")
	sg.AssertNotCalled(t, "Sign", mock.Anything)
}

func TestLogin_WrongPassword_Unauthorized(t *testing.T) {
	repo, ml, sg, av := &mockAccountStore{}, &mockMailer{}, &mockSigner{}, &mockAvatars{}

	repo.On("GetByEmail", mock.Anything, "a@ex.co").Return(verifiedAccount(t), nil)

	_, err := newSvc(repo, ml, sg, av).Login(context.Background(), domain.LoginRequest{
		Email: "a@ex.co", Password: "wrong",
	})

	assert.ErrorIs(t, err, domain.ErrUnauthorized)
	assert.ErrorContains(t, err, "invalid email or password")
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}

// --- Logout ---

func TestLogout_ClearsSessionToken(t *testing.T) {
	repo, ml, sg, av := &mockAccountStore{}, &mockMailer{}, &mockSigner{}, &mockAvatars{}

	repo.On("Update", mock.Anything, "acc-1", map[string]interface{}{"session_token": ""}).Return(nil)

	err := newSvc(repo, ml, sg, av).Logout(context.Background(), "acc-1")

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

// --- UpdateAvatar ---

func TestUpdateAvatar_PersistsPath(t *testing.T) {
	repo, ml, sg, av := &mockAccountStore{}, &mockMailer{}, &mockSigner{}, &mockAvatars{}

	av.On("Process", mock.Anything, "acc-1", "/tmp/upload-1", "selfie.png").
		Return("avatars/acc-1.png", nil)
	repo.On("Update", mock.Anything, "acc-1", map[string]interface{}{"avatar_url": "avatars/acc-1.png"}).Return(nil)

	url, err := newSvc(repo, ml, sg, av).UpdateAvatar(context.Background(), "acc-1", "/tmp/upload-1", "selfie.png")

	require.NoError(t, err)
	assert.Equal(t, "avatars/acc-1.png", url)
	repo.AssertExpectations(t)
}

func TestUpdateAvatar_PipelineFailure_NoStoreWrite(t *testing.T) {
	repo, ml, sg, av := &mockAccountStore{}, &mockMailer{}, &mockSigner{}, &mockAvatars{}

	av.On("Process", mock.Anything, "acc-1", "/tmp/upload-1", "selfie.png").
		Return("", errors.New("decode avatar: bad data"))

	_, err := newSvc(repo, ml, sg, av).UpdateAvatar(context.Background(), "acc-1", "/tmp/upload-1", "selfie.png")

	require.Error(t, err)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
}
