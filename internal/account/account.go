// Package account registers users and issues access tokens.
package account

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/kbukum/convoview/auth/jwt"
	"github.com/kbukum/convoview/auth/password"
	"github.com/kbukum/convoview/database"
	apperrors "github.com/kbukum/convoview/errors"
	"github.com/kbukum/convoview/logger"
	"github.com/kbukum/convoview/observability"
	"github.com/kbukum/convoview/validation"
)

// ErrInvalidCredentials is the cause of failed logins.
var ErrInvalidCredentials = errors.New("account: incorrect username or password")

// TokenType is reported with every access token.
const TokenType = "bearer"

const serviceName = "accounts"

// User is a row of the users table.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Username       string    `gorm:"size:50;not null;uniqueIndex" json:"username"`
	Email          string    `gorm:"size:100;not null;uniqueIndex" json:"email"`
	HashedPassword string    `gorm:"column:hashed_password;size:255;not null" json:"-"`
	CreatedAt      time.Time `json:"created_at"`
}

func (User) TableName() string { return "users" }

// RegisterRequest is the registration payload.
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email,max=100"`
	Password string `json:"password" validate:"required"`
}

// Token is the login response.
type Token struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Service manages accounts stored through gorm.
type Service struct {
	db      *database.DB
	hasher  password.Hasher
	tokens  *jwt.Service[*jwt.Claims]
	metrics *observability.Metrics
	log     *logger.Logger
}

// NewService wires a service. tokens may be nil when authentication is
// disabled; Login then fails with ServiceUnavailable.
func NewService(db *database.DB, hasher password.Hasher, tokens *jwt.Service[*jwt.Claims], metrics *observability.Metrics, log *logger.Logger) *Service {
	if log == nil {
		log = logger.Nop()
	}
	return &Service{db: db, hasher: hasher, tokens: tokens, metrics: metrics, log: log.WithComponent(serviceName)}
}

// Register creates a user. A taken username or email is a Conflict.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (u *User, err error) {
	ctx, op := observability.StartOperation(ctx, s.metrics, serviceName, "register",
		attribute.String(observability.AttrUsername, req.Username))
	defer func() { op.End(ctx, err) }()

	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err = validation.Validate(req); err != nil {
		return nil, err
	}

	var taken int64
	err = s.db.WithContext(ctx).Model(&User{}).
		Where("username = ? OR email = ?", req.Username, req.Email).
		Count(&taken).Error
	if err != nil {
		return nil, database.FromDatabase(err, "user")
	}
	if taken > 0 {
		return nil, conflict()
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, passwordError(err)
	}

	u = &User{Username: req.Username, Email: req.Email, HashedPassword: hash, CreatedAt: time.Now().UTC()}
	if err = s.db.WithContext(ctx).Create(u).Error; err != nil {
		if database.IsDuplicateError(err) {
			return nil, conflict()
		}
		return nil, database.FromDatabase(err, "user")
	}
	s.log.Info("user registered", logger.Fields(logger.FieldUsername, u.Username))
	return u, nil
}

// Login verifies credentials and returns an access token whose subject is
// the username.
func (s *Service) Login(ctx context.Context, username, pw string) (tok Token, err error) {
	ctx, op := observability.StartOperation(ctx, s.metrics, serviceName, "login",
		attribute.String(observability.AttrUsername, username))
	defer func() { op.End(ctx, err) }()

	if s.tokens == nil {
		return Token{}, apperrors.ServiceUnavailable("authentication")
	}

	u, err := s.find(ctx, username)
	if err != nil && !apperrors.HasCode(err, apperrors.ErrCodeNotFound) {
		return Token{}, err
	}
	if u == nil || s.hasher.Verify(pw, u.HashedPassword) != nil {
		s.log.Warn("login rejected", logger.Fields(logger.FieldUsername, username))
		return Token{}, apperrors.Unauthorized("Incorrect username or password").WithCause(ErrInvalidCredentials)
	}

	access, err := s.tokens.GenerateAccess(jwt.NewClaims(u.Username))
	if err != nil {
		return Token{}, apperrors.Internal(err)
	}
	return Token{AccessToken: access, TokenType: TokenType, ExpiresIn: int64(s.tokens.TTL().Seconds())}, nil
}

// Me returns the user named by a token subject.
func (s *Service) Me(ctx context.Context, username string) (*User, error) {
	return s.find(ctx, username)
}

func (s *Service) find(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("user", username)
		}
		return nil, database.FromDatabase(err, "user")
	}
	return &u, nil
}

func conflict() error {
	return apperrors.Conflict("username or email already registered")
}

func passwordError(err error) error {
	if errors.Is(err, password.ErrTooShort) {
		return apperrors.InvalidInput("password", strings.TrimPrefix(err.Error(), "password: "))
	}
	return apperrors.Internal(fmt.Errorf("hash password: %w", err))
}
