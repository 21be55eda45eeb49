// Package jwt issues and verifies signed access tokens.
//
// The service is generic over the claims type so callers can carry extra
// fields. Claims embedding RegisteredClaims and implementing SetDefaults get
// their time, issuer and audience claims filled on GenerateAccess:
//
//	svc, err := jwt.NewService(cfg, func() *jwt.Claims { return &jwt.Claims{} })
//	token, err := svc.GenerateAccess(jwt.NewClaims("alice"))
//	claims, err := svc.Parse(token)
package jwt

import (
	"errors"
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"

	apperrors "github.com/kbukum/convoview/errors"
)

// Claims is the default claims type: registered claims only, with the user
// name in "sub".
type Claims struct {
	gojwt.RegisteredClaims
}

// NewClaims returns claims for the given subject.
func NewClaims(subject string) *Claims {
	return &Claims{RegisteredClaims: gojwt.RegisteredClaims{Subject: subject}}
}

// SetDefaults fills unset time, issuer and audience claims.
func (c *Claims) SetDefaults(now time.Time, ttl time.Duration, issuer string, audience []string) {
	if c.IssuedAt == nil {
		c.IssuedAt = gojwt.NewNumericDate(now)
	}
	if c.ExpiresAt == nil {
		c.ExpiresAt = gojwt.NewNumericDate(now.Add(ttl))
	}
	if c.Issuer == "" {
		c.Issuer = issuer
	}
	if len(c.Audience) == 0 && len(audience) > 0 {
		c.Audience = audience
	}
}

type defaultsSetter interface {
	SetDefaults(now time.Time, ttl time.Duration, issuer string, audience []string)
}

// Service generates and parses tokens for claims type T.
type Service[T gojwt.Claims] struct {
	cfg      Config
	newEmpty func() T
	now      func() time.Time
}

// NewService validates cfg and creates a service. newEmpty returns a fresh
// claims value to parse into.
func NewService[T gojwt.Claims](cfg Config, newEmpty func() T) (*Service[T], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Service[T]{cfg: cfg, newEmpty: newEmpty, now: time.Now}, nil
}

// TTL returns the access token lifetime.
func (s *Service[T]) TTL() time.Duration { return s.cfg.AccessTokenTTL }

// Generate signs claims as they are.
func (s *Service[T]) Generate(claims T) (string, error) {
	token := gojwt.NewWithClaims(s.cfg.signingMethod(), claims)
	signed, err := token.SignedString(s.cfg.key())
	if err != nil {
		return "", fmt.Errorf("jwt: sign token: %w", err)
	}
	return signed, nil
}

// GenerateAccess fills default claims with AccessTokenTTL and signs them.
func (s *Service[T]) GenerateAccess(claims T) (string, error) {
	if setter, ok := any(claims).(defaultsSetter); ok {
		setter.SetDefaults(s.now(), s.cfg.AccessTokenTTL, s.cfg.Issuer, s.cfg.Audience)
	}
	return s.Generate(claims)
}

// Parse verifies the signature, expiry and optional issuer/audience.
func (s *Service[T]) Parse(tokenString string) (T, error) {
	var zero T
	claims := s.newEmpty()
	token, err := gojwt.ParseWithClaims(tokenString, claims, s.keyFunc, s.parserOptions()...)
	if err != nil {
		return zero, fmt.Errorf("jwt: parse token: %w", err)
	}
	if !token.Valid {
		return zero, errors.New("jwt: invalid token")
	}
	parsed, ok := token.Claims.(T)
	if !ok {
		return zero, errors.New("jwt: unexpected claims type")
	}
	return parsed, nil
}

// ValidatorFunc adapts Parse for the HTTP auth middleware. Expired tokens
// map to TokenExpired, every other failure to InvalidToken.
func (s *Service[T]) ValidatorFunc() func(string) (any, error) {
	return func(token string) (any, error) {
		claims, err := s.Parse(token)
		if err != nil {
			if errors.Is(err, gojwt.ErrTokenExpired) {
				return nil, apperrors.TokenExpired().WithCause(err)
			}
			return nil, apperrors.InvalidToken().WithCause(err)
		}
		return claims, nil
	}
}

func (s *Service[T]) keyFunc(token *gojwt.Token) (interface{}, error) {
	if token.Method.Alg() != s.cfg.signingMethod().Alg() {
		return nil, fmt.Errorf("jwt: unexpected signing method: %s", token.Method.Alg())
	}
	return s.cfg.key(), nil
}

func (s *Service[T]) parserOptions() []gojwt.ParserOption {
	opts := []gojwt.ParserOption{
		gojwt.WithValidMethods([]string{s.cfg.signingMethod().Alg()}),
		gojwt.WithExpirationRequired(),
		gojwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, gojwt.WithIssuer(s.cfg.Issuer))
	}
	if len(s.cfg.Audience) > 0 {
		opts = append(opts, gojwt.WithAudience(s.cfg.Audience[0]))
	}
	return opts
}
