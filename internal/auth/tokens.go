package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/carbonledger/carbonledger/internal/authz"
	"github.com/carbonledger/carbonledger/internal/shared"
)

// Token types carried in the token_type claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Claims is the JWT payload. Role assignments ride inside the token so every
// request can recompute permissions without a database round trip; they are
// re-validated on parse, so an unknown role in a stale token fails closed.
type Claims struct {
	jwt.RegisteredClaims
	Email     string                 `json:"email"`
	Roles     []authz.RoleAssignment `json:"roles"`
	TokenType string                 `json:"token_type"`
}

// TokenServiceConfig collects the knobs for token issuance.
type TokenServiceConfig struct {
	Secret     []byte
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// TokenService signs and verifies HS256 tokens and consults the revocation
// denylist.
type TokenService struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	denylist   *Denylist
	now        func() time.Time
}

// NewTokenService constructs a TokenService.
func NewTokenService(cfg TokenServiceConfig, denylist *Denylist) *TokenService {
	return &TokenService{
		secret:     cfg.Secret,
		issuer:     cfg.Issuer,
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		denylist:   denylist,
		now:        time.Now,
	}
}

// IssuePair mints an access/refresh token pair for the user.
func (s *TokenService) IssuePair(user *User) (TokenPair, error) {
	access, err := s.sign(user, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return TokenPair{}, err
	}
	refresh, err := s.sign(user, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return TokenPair{}, err
	}
	return TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.accessTTL.Seconds()),
	}, nil
}

func (s *TokenService) sign(user *User, tokenType string, ttl time.Duration) (string, error) {
	now := s.now().UTC()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Email:     user.Email,
		Roles:     user.Assignments,
		TokenType: tokenType,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token of the expected type.
func (s *TokenService) Verify(ctx context.Context, raw, wantType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("auth: unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithTimeFunc(s.now))
	if err != nil {
		var unknown *authz.UnknownRoleError
		if errors.As(err, &unknown) {
			return nil, unknown
		}
		return nil, shared.ErrInvalidCredentials
	}
	if !token.Valid || claims.TokenType != wantType {
		return nil, shared.ErrInvalidCredentials
	}
	if s.denylist != nil {
		revoked, err := s.denylist.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, err
		}
		if revoked {
			return nil, shared.ErrTokenRevoked
		}
	}
	return claims, nil
}

// Revoke puts the token's jti on the denylist until it would have expired.
func (s *TokenService) Revoke(ctx context.Context, claims *Claims) error {
	if s.denylist == nil || claims.ExpiresAt == nil {
		return nil
	}
	return s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt.Time)
}

// Principal materializes the authenticated actor from verified claims.
func (c *Claims) Principal() (authz.Principal, error) {
	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil {
		return authz.Principal{}, fmt.Errorf("auth: parse subject %q: %w", c.Subject, err)
	}
	return authz.Principal{ID: id, Email: c.Email, Assignments: c.Roles}, nil
}
