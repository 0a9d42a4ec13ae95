package auth

import (
	"context"

	"golang.org/x/crypto/bcrypt"

	"github.com/carbonledger/carbonledger/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo   Repository
	tokens *TokenService
}

// NewService constructs a new Service.
func NewService(repo Repository, tokens *TokenService) *Service {
	return &Service{repo: repo, tokens: tokens}
}

// Login validates email/password credentials and issues a token pair.
func (s *Service) Login(ctx context.Context, email, password string) (TokenPair, error) {
	user, err := s.authenticate(ctx, email, password)
	if err != nil {
		return TokenPair{}, err
	}
	return s.tokens.IssuePair(user)
}

func (s *Service) authenticate(ctx context.Context, email, password string) (*User, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, shared.ErrInvalidCredentials
	}
	return user, nil
}

// Refresh rotates a refresh token: the old one is revoked and a fresh pair is
// issued from the user's current record, so role changes take effect.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (TokenPair, error) {
	claims, err := s.tokens.Verify(ctx, refreshToken, TokenTypeRefresh)
	if err != nil {
		return TokenPair{}, err
	}
	principal, err := claims.Principal()
	if err != nil {
		return TokenPair{}, err
	}
	user, err := s.repo.FindByID(ctx, principal.ID)
	if err != nil {
		return TokenPair{}, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return TokenPair{}, shared.ErrInvalidCredentials
	}
	if err := s.tokens.Revoke(ctx, claims); err != nil {
		return TokenPair{}, err
	}
	return s.tokens.IssuePair(user)
}

// Logout revokes the presented access token.
func (s *Service) Logout(ctx context.Context, accessToken string) error {
	claims, err := s.tokens.Verify(ctx, accessToken, TokenTypeAccess)
	if err != nil {
		return err
	}
	return s.tokens.Revoke(ctx, claims)
}
