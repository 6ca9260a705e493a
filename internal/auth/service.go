// Package auth issues and verifies session tokens and resolves them to
// session principals.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/brandbridge/portal/internal/identity"
	"github.com/brandbridge/portal/internal/session"
)

// Claims are the session token claims. Version must match the user's current
// token version; bumping it revokes every earlier token.
type Claims struct {
	Version int `json:"ver"`
	jwt.RegisteredClaims
}

// Service signs HS256 session tokens and resolves them through the identity
// repository. It implements session.Resolver.
type Service struct {
	secret []byte
	issuer string
	ttl    time.Duration
	users  identity.Repository
	now    func() time.Time
}

// NewService builds a token service.
func NewService(secret, issuer string, ttl time.Duration, users identity.Repository) *Service {
	return &Service{secret: []byte(secret), issuer: issuer, ttl: ttl, users: users, now: time.Now}
}

// Issue signs a session token for user.
func (s *Service) Issue(user identity.User) (string, time.Time, error) {
	now := s.now()
	exp := now.Add(s.ttl)
	claims := Claims{
		Version: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, exp, nil
}

// Resolve verifies credential and looks up the role of its subject. Invalid,
// expired and revoked tokens as well as unknown users yield
// session.ErrNoIdentity; repository failures are returned as is.
func (s *Service) Resolve(ctx context.Context, credential string) (session.Principal, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(credential, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(s.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return session.Principal{}, fmt.Errorf("%w: %w", session.ErrNoIdentity, err)
	}

	user, err := s.users.FindByID(ctx, claims.Subject)
	if errors.Is(err, identity.ErrNotFound) {
		return session.Principal{}, fmt.Errorf("%w: %w", session.ErrNoIdentity, err)
	}
	if err != nil {
		return session.Principal{}, err
	}
	if user.TokenVersion != claims.Version {
		return session.Principal{}, fmt.Errorf("%w: token revoked", session.ErrNoIdentity)
	}
	role, err := session.ParseRole(user.Role)
	if err != nil {
		return session.Principal{}, fmt.Errorf("%w: %w", session.ErrNoIdentity, err)
	}
	return session.Principal{UserID: user.ID, Role: role}, nil
}

// Revoke invalidates every token issued so far for userID.
func (s *Service) Revoke(ctx context.Context, userID string) error {
	if _, err := s.users.BumpTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	return nil
}
