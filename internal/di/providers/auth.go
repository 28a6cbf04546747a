package providers

import (
	"github.com/samber/do/v2"

	"github.com/elephoto/elephoto-server/internal/auth"
	"github.com/elephoto/elephoto-server/internal/config"
	"github.com/elephoto/elephoto-server/internal/logger"
	"github.com/elephoto/elephoto-server/internal/service"
)

// AuthKey is the hex PASETO key for admin tokens.
type AuthKey string

// ProvideAuthKey loads or generates the authentication key.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	key, err := auth.LoadOrGenerateKey(cfg.Storage.BasePath)
	if err != nil {
		return "", err
	}

	log.Info("Authentication key loaded", "admin_token_duration", cfg.Admin.TokenDuration)

	return AuthKey(key), nil
}

// ProvideTokenService provides the PASETO token service.
func ProvideTokenService(i do.Injector) (*auth.TokenService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	authKey := do.MustInvoke[AuthKey](i)

	return auth.NewTokenService(string(authKey), cfg.Admin.TokenDuration)
}

// ProvideAdminAuthService provides admin login. Without a configured
// password hash every login is refused.
func ProvideAdminAuthService(i do.Injector) (*service.AdminAuthService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	tokens := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Admin.PasswordHash == "" {
		log.Warn("ADMIN_PASSWORD_HASH not set, admin endpoints are disabled")
	}

	return service.NewAdminAuthService(cfg.Admin.Username, cfg.Admin.PasswordHash, tokens, log.Component("admin")), nil
}
