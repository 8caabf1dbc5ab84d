package identity

import (
	"context"
	"fmt"
	"time"

	"github.com/go-identity-api/internal/domain"
	"github.com/go-identity-api/internal/pkg/gravatar"
	"github.com/go-identity-api/internal/pkg/id"
	"github.com/go-identity-api/internal/pkg/password"
	pkgtoken "github.com/go-identity-api/internal/pkg/token"
)

// DynamoDB attribute names used in partial update maps.
const (
	fieldVerified          = "verified"
	fieldVerificationToken = "verification_token"
	fieldSessionToken      = "session_token"
	fieldAvatarURL         = "avatar_url"
)

// Service is the identity lifecycle manager. It owns every account store
// write and delegates hashing, token and image work to the leaf components.
type Service interface {
	Register(ctx context.Context, req domain.RegisterRequest) (*domain.Account, error)
	Verify(ctx context.Context, verificationToken string) error
	ResendVerification(ctx context.Context, email string) error
	Login(ctx context.Context, req domain.LoginRequest) (string, error)
	Logout(ctx context.Context, accountID string) error
	UpdateAvatar(ctx context.Context, accountID, tmpPath, originalFilename string) (string, error)
}

type accountStore interface {
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByVerificationToken(ctx context.Context, token string) (*domain.Account, error)
	Get(ctx context.Context, accountID string) (*domain.Account, error)
	Put(ctx context.Context, a *domain.Account) error
	Update(ctx context.Context, accountID string, updates map[string]interface{}) error
}

type mailer interface {
	SendEmail(to, subject, htmlBody string) error
}

type tokenSigner interface {
	Sign(accountID string) (string, error)
}

type avatarProcessor interface {
	Process(ctx context.Context, accountID, tmpPath, originalFilename string) (string, error)
}

type service struct {
	repo    accountStore
	mailer  mailer
	signer  tokenSigner
	avatars avatarProcessor
	baseURL string
}

type ServiceDeps struct {
	AccountRepo accountStore
	Mailer      mailer
	JWTProvider tokenSigner
	Avatars     avatarProcessor
	BaseURL     string
}

func NewService(deps ServiceDeps) Service {
	return &service{
		repo:    deps.AccountRepo,
		mailer:  deps.Mailer,
		signer:  deps.JWTProvider,
		avatars: deps.Avatars,
		baseURL: deps.BaseURL,
	}
}

func (s *service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.Account, error) {
	if _, err := s.repo.GetByEmail(ctx, req.Email); err == nil {
		return nil, fmt.Errorf("email already registered: %w", domain.ErrConflict)
	}
	hash, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}
	verificationToken, err := pkgtoken.NewVerificationToken()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	a := &domain.Account{
		AccountID:         id.New(),
		Name:              req.Name,
		Email:             req.Email,
		PasswordHash:      hash,
		AvatarURL:         gravatar.URL(req.Email),
		VerificationToken: verificationToken,
		Verified:          false,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.repo.Put(ctx, a); err != nil {
		return nil, err
	}
	if err := s.sendVerificationEmail(a.Email, verificationToken); err != nil {
		return nil, fmt.Errorf("send verification email: %w", err)
	}
	return a, nil
}

// Verify consumes a verification token. The token is single-use: clearing it
// removes the account from the verification-token index, so a second attempt
// with the same token is a not-found.
func (s *service) Verify(ctx context.Context, verificationToken string) error {
	a, err := s.repo.GetByVerificationToken(ctx, verificationToken)
	if err != nil {
		return fmt.Errorf("verification token not found: %w", domain.ErrNotFound)
	}
	return s.repo.Update(ctx, a.AccountID, map[string]interface{}{
		fieldVerified:          true,
		fieldVerificationToken: nil,
	})
}

func (s *service) ResendVerification(ctx context.Context, email string) error {
	a, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("email not found: %w", domain.ErrNotFound)
	}
	if a.Verified {
		return fmt.Errorf("email already verified: %w", domain.ErrConflict)
	}
	if err := s.sendVerificationEmail(a.Email, a.VerificationToken); err != nil {
		return fmt.Errorf("send verification email: %w", err)
	}
	return nil
}

// Login issues a fresh session token and stores it on the account. The
// stored token is what the auth guard compares against, so a new login
// supersedes any previous session. Unknown email, unverified account and
// wrong password are indistinguishable to the caller.
func (s *service) Login(ctx context.Context, req domain.LoginRequest) (string, error) {
	a, err := s.repo.GetByEmail(ctx, req.Email)
	if err != nil {
		return "", fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
	}
	if !a.Verified {
		return "", fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
	}
	if !password.Verify(req.Password, a.PasswordHash) {
		return "", fmt.Errorf("invalid email or password: %w", domain.ErrUnauthorized)
	}
	sessionToken, err := s.signer.Sign(a.AccountID)
	if err != nil {
		return "", err
	}
	if err := s.repo.Update(ctx, a.AccountID, map[string]interface{}{fieldSessionToken: sessionToken}); err != nil {
		return "", err
	}
	return sessionToken, nil
}

func (s *service) Logout(ctx context.Context, accountID string) error {
	return s.repo.Update(ctx, accountID, map[string]interface{}{fieldSessionToken: ""})
}

func (s *service) UpdateAvatar(ctx context.Context, accountID, tmpPath, originalFilename string) (string, error) {
	avatarURL, err := s.avatars.Process(ctx, accountID, tmpPath, originalFilename)
	if err != nil {
		return "", err
	}
	if err := s.repo.Update(ctx, accountID, map[string]interface{}{fieldAvatarURL: avatarURL}); err != nil {
		return "", err
	}
	return avatarURL, nil
}

func (s *service) sendVerificationEmail(email, verificationToken string) error {
	link := fmt.Sprintf("%s/api/auth/verify/%s", s.baseURL, verificationToken)
	body := fmt.Sprintf(`<a target="_blank" href="%s">Click to verify your email</a>`, link)
	return s.mailer.SendEmail(email, "Verify your email", body)
}
