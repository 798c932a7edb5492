package movieverse

import (
	"context"
	"reflect"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
)

// Auther verifies credentials, issues tokens, and resolves tokens back
// to live identities.
type Auther struct {
	provider     IdentityProvider
	logger       Logger
	tokenService TokenService
}

// NewAuthenticator returns a new Authenticator
func NewAuthenticator(provider IdentityProvider, opts Config) *Auther {
	tokenService := NewTokenService(
		[]byte(opts.GetSigningKey()),
		opts.GetTokenExpiration(),
		opts.GetIssuer(),
		opts.GetAudience(),
		defLogger{},
	)

	return &Auther{
		provider:     provider,
		logger:       defLogger{},
		tokenService: tokenService,
	}
}

func (s *Auther) WithLogger(logger Logger) *Auther {
	s.logger = logger
	return s
}

// TokenService returns the TokenService instance used by this Authenticator
func (s *Auther) TokenService() TokenService {
	return s.tokenService
}

// Login verifies the given credentials and returns a signed token. The
// error coming out of a failed verification never distinguishes an
// unknown username from a bad password.
func (s *Auther) Login(ctx context.Context, username, password string) (string, error) {
	var err error
	var identity Identity

	if identity, err = s.provider.VerifyIdentity(ctx, username, password); err != nil {
		s.logger.Error("Login verify identity error", "error", err)
		return "", err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		s.logger.Error("Login identity is nil or zero value")
		return "", ErrInvalidCredentials
	}

	return s.tokenService.Generate(identity)
}

// IdentityFromToken validates a raw token and resolves its subject back
// to a live account. Validation runs in three steps: signature, expiry,
// then a store lookup. Tokens whose subject no longer exists fail here,
// which is how deleting an account revokes its outstanding tokens.
func (s *Auther) IdentityFromToken(ctx context.Context, raw string) (Identity, error) {
	claims, err := s.tokenService.Validate(raw)
	if err != nil {
		s.logger.Error("IdentityFromToken validation failed", "error", err)
		return nil, err
	}

	identity, err := s.provider.FindIdentityByID(ctx, claims.Subject())
	if err != nil {
		s.logger.Error("IdentityFromToken subject no longer resolves", "subject", claims.Subject(), "error", err)
		if repository.IsRecordNotFound(err) || errors.Is(err, ErrIdentityNotFound) {
			return nil, ErrIdentityRevoked
		}
		return nil, err
	}

	if identity == nil || reflect.ValueOf(identity).IsZero() {
		return nil, ErrIdentityRevoked
	}

	return identity, nil
}

var _ Authenticator = &Auther{}
