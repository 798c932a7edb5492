package movieverse

import (
	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-errors"
	"github.com/spf13/viper"
)

// AppConfig carries the process-wide configuration. The signing secret
// is loaded once at startup and never rotated mid-process.
type AppConfig struct {
	SigningKey      string   `mapstructure:"jwt_secret"`
	SigningMethod   string   `mapstructure:"signing_method"`
	ContextKey      string   `mapstructure:"context_key"`
	TokenExpiration int      `mapstructure:"token_expiration"`
	TokenLookup     string   `mapstructure:"token_lookup"`
	AuthScheme      string   `mapstructure:"auth_scheme"`
	Issuer          string   `mapstructure:"issuer"`
	Audience        []string `mapstructure:"audience"`
	ConnectionURI   string   `mapstructure:"connection_uri"`
	Port            string   `mapstructure:"port"`
}

var _ Config = (*AppConfig)(nil)

func (c *AppConfig) GetSigningKey() string { return c.SigningKey }
func (c *AppConfig) GetSigningMethod() string { return c.SigningMethod }
func (c *AppConfig) GetContextKey() string { return c.ContextKey }
func (c *AppConfig) GetTokenExpiration() int { return c.TokenExpiration }
func (c *AppConfig) GetTokenLookup() string { return c.TokenLookup }
func (c *AppConfig) GetAuthScheme() string { return c.AuthScheme }
func (c *AppConfig) GetIssuer() string { return c.Issuer }
func (c *AppConfig) GetAudience() []string { return c.Audience }
func (c *AppConfig) GetConnectionURI() string { return c.ConnectionURI }
func (c *AppConfig) GetPort() string { return c.Port }

// LoadConfig reads configuration from the environment, applying
// defaults for everything except the signing secret, which has no safe
// default and must be supplied.
func LoadConfig() (*AppConfig, error) {
	v := viper.New()

	v.SetDefault("signing_method", "HS256")
	v.SetDefault("context_key", "user")
	// seven days, in hours
	v.SetDefault("token_expiration", 168)
	v.SetDefault("token_lookup", "header:"+fiber.HeaderAuthorization)
	v.SetDefault("auth_scheme", "Bearer")
	v.SetDefault("issuer", "movieverse")
	v.SetDefault("connection_uri", "file:movieverse.db?cache=shared")
	v.SetDefault("port", "8080")

	bindings := map[string]string{
		"jwt_secret":       "JWT_SECRET",
		"signing_method":   "SIGNING_METHOD",
		"token_expiration": "TOKEN_EXPIRATION",
		"issuer":           "TOKEN_ISSUER",
		"connection_uri":   "CONNECTION_URI",
		"port":             "PORT",
	}

	for key, env := range bindings {
		if err := v.BindEnv(key, env); err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "failed to bind env var").
				WithMetadata(map[string]any{"key": key, "env": env})
		}
	}

	cfg := &AppConfig{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to unmarshal configuration")
	}

	if cfg.SigningKey == "" {
		return nil, errors.New("JWT_SECRET is required", errors.CategoryBadInput)
	}

	return cfg, nil
}
