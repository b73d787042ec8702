package providers

import (
	"github.com/samber/do/v2"

	"github.com/libraryhub/library-server/internal/auth"
	"github.com/libraryhub/library-server/internal/config"
	"github.com/libraryhub/library-server/internal/logger"
)

// AuthKey wraps the authentication key bytes.
type AuthKey []byte

// ProvideAuthKey resolves the signing key from AUTH_SECRET, or loads it
// from the data directory, generating it on first start.
func ProvideAuthKey(i do.Injector) (AuthKey, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	var (
		key    []byte
		err    error
		source = "data directory"
	)
	if cfg.Auth.SecretHex != "" {
		key, err = auth.DecodeKey(cfg.Auth.SecretHex)
		source = "AUTH_SECRET"
	} else {
		key, err = auth.LoadOrGenerateKey(cfg.Data.Path)
	}
	if err != nil {
		return nil, err
	}

	cfg.Auth.Key = key

	log.Info("Authentication key loaded",
		"source", source,
		"token_format", cfg.Auth.TokenFormat,
		"access_token_duration", cfg.Auth.AccessTokenDuration,
	)

	return AuthKey(key), nil
}

// ProvideTokenIssuer provides the JWT or PASETO access token issuer.
func ProvideTokenIssuer(i do.Injector) (auth.TokenIssuer, error) {
	cfg := do.MustInvoke[*config.Config](i)
	key := do.MustInvoke[AuthKey](i)

	return auth.NewTokenIssuer(cfg.Auth.TokenFormat, key, cfg.Auth.AccessTokenDuration, nil)
}
