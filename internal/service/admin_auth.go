package service

import (
	"crypto/subtle"
	"log/slog"
	"time"

	"github.com/elephoto/elephoto-server/internal/auth"
	domainerrors "github.com/elephoto/elephoto-server/internal/errors"
)

// AdminAuthService authenticates the single album administrator.
type AdminAuthService struct {
	username     string
	passwordHash string
	tokens       *auth.TokenService
	logger       *slog.Logger
}

// NewAdminAuthService creates a new admin auth service. An empty
// passwordHash disables admin login.
func NewAdminAuthService(username, passwordHash string, tokens *auth.TokenService, logger *slog.Logger) *AdminAuthService {
	return &AdminAuthService{
		username:     username,
		passwordHash: passwordHash,
		tokens:       tokens,
		logger:       logger,
	}
}

// AdminSession is an issued admin token.
type AdminSession struct {
	Token     string
	ExpiresAt time.Time
}

// Login checks the credentials and issues a token.
func (s *AdminAuthService) Login(username, password string) (*AdminSession, error) {
	if s.passwordHash == "" {
		return nil, domainerrors.Unauthorized("admin login is not configured")
	}

	userOK := subtle.ConstantTimeCompare([]byte(username), []byte(s.username)) == 1
	passOK := auth.VerifyPassword(s.passwordHash, password)
	if !userOK || !passOK {
		s.logger.Warn("admin login failed", "username", username)
		return nil, domainerrors.Unauthorized("invalid username or password")
	}

	token, expires, err := s.tokens.GenerateAdminToken(s.username)
	if err != nil {
		return nil, domainerrors.Wrap(err, domainerrors.CodeInternal, "failed to issue token")
	}

	if auth.NeedsRehash(s.passwordHash) {
		s.logger.Warn("admin password hash uses outdated parameters, regenerate it with hashpassword")
	}
	s.logger.Info("admin logged in", "username", s.username)
	return &AdminSession{Token: token, ExpiresAt: expires}, nil
}

// Authenticate validates a bearer token and returns the admin username.
func (s *AdminAuthService) Authenticate(token string) (string, error) {
	if token == "" {
		return "", domainerrors.Unauthorized("authentication required")
	}
	claims, err := s.tokens.VerifyAdminToken(token)
	if err != nil {
		return "", domainerrors.Unauthorized("invalid or expired token")
	}
	if claims.Username != s.username {
		return "", domainerrors.Unauthorized("invalid or expired token")
	}
	return claims.Username, nil
}
