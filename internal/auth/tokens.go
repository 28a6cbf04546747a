package auth

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"aidanwoods.dev/go-paseto"

	"github.com/elephoto/elephoto-server/internal/id"
)

const (
	tokenIssuer   = "elephoto-server"
	tokenAudience = "elephoto-admin"
)

// AdminClaims are the claims carried by an admin access token.
// v4.local tokens are encrypted, so clients cannot read them.
type AdminClaims struct {
	Username   string    `json:"username"`
	Expiration time.Time `json:"exp"`
	TokenID    string    `json:"jti"`
}

// TokenService issues and verifies PASETO v4.local admin tokens.
type TokenService struct {
	symmetricKey paseto.V4SymmetricKey
	duration     time.Duration
}

// NewTokenService creates a token service from a 64-character hex key.
func NewTokenService(keyHex string, duration time.Duration) (*TokenService, error) {
	if len(keyHex) != keyHexLength {
		return nil, fmt.Errorf("PASETO v4 key must be exactly %d hex characters, got %d", keyHexLength, len(keyHex))
	}

	keyBytes, err := hex.DecodeString(keyHex)
	if err != nil {
		return nil, fmt.Errorf("invalid hex string for PASETO key: %w", err)
	}

	key, err := paseto.V4SymmetricKeyFromBytes(keyBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to create PASETO symmetric key: %w", err)
	}

	return &TokenService{
		symmetricKey: key,
		duration:     duration,
	}, nil
}

// GenerateAdminToken creates an encrypted token for username.
func (s *TokenService) GenerateAdminToken(username string) (string, time.Time, error) {
	now := time.Now()
	expires := now.Add(s.duration)

	token := paseto.NewToken()
	token.SetIssuer(tokenIssuer)
	token.SetSubject(username)
	token.SetAudience(tokenAudience)
	token.SetIssuedAt(now)
	token.SetNotBefore(now)
	token.SetExpiration(expires)

	tokenID, err := id.Generate(id.PrefixToken)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("generate token ID: %w", err)
	}
	token.SetJti(tokenID)

	//nolint:errcheck // Set only fails for unencodable values
	_ = token.Set("username", username)

	return token.V4Encrypt(s.symmetricKey, nil), expires, nil
}

// VerifyAdminToken decrypts and validates a token.
// Returns an error for tampered, expired or foreign tokens.
func (s *TokenService) VerifyAdminToken(tokenString string) (*AdminClaims, error) {
	parser := paseto.NewParser()
	parser.AddRule(paseto.ForAudience(tokenAudience))
	parser.AddRule(paseto.IssuedBy(tokenIssuer))
	parser.AddRule(paseto.NotExpired())
	parser.AddRule(paseto.ValidAt(time.Now()))

	token, err := parser.ParseV4Local(s.symmetricKey, tokenString, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	var claims AdminClaims
	if err := json.Unmarshal(token.ClaimsJSON(), &claims); err != nil {
		return nil, fmt.Errorf("parse claims: %w", err)
	}

	return &claims, nil
}
