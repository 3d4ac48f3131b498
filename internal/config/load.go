package config

import (
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// MasterKeyBytes is the required length of the decoded vault master key.
// A 32-byte key selects AES-256 for the credential vault.
const MasterKeyBytes = 32

// ErrInvalidMasterKey is returned when the vault master key is missing or
// does not decode to exactly MasterKeyBytes bytes. A malformed key must
// never silently degrade to weaker (or no) encryption, so this error is
// fatal at startup.
var ErrInvalidMasterKey = errors.New("vault master key must be 32 bytes of hex")

// Load reads configuration from environment variables and an optional
// config.yaml file. Environment variables use the MENTORA_ prefix with
// underscores separating nested keys (e.g. MENTORA_SERVER_PORT) and take
// precedence over values from the config file.
//
// Returns a populated Config struct or an error if loading or validation
// fails.
func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	// Optional config file in the working directory.
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// Missing file is fine; env vars alone can configure the server.
	}

	v.SetEnvPrefix("MENTORA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv does not register keys for Unmarshal, so bind the ones
	// we expect explicitly.
	for _, key := range []string{
		"server.port", "server.log_level",
		"database.url",
		"auth.jwt_secret", "auth.token_lifetime_minutes",
		"vault.master_key",
		"llm.models", "llm.request_timeout_seconds", "llm.max_context_chars",
		"credit.course_cost", "credit.quiz_cost", "credit.mindmap_cost",
		"credit.signup_grant", "credit.cache_ttl_seconds",
	} {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("failed to bind environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	validate := validator.New()
	if err := validate.Struct(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	// The validator tags catch length and charset problems, but decode the
	// key anyway so a config that passes tag validation can still never
	// reach the vault with a bad key.
	if _, err := cfg.Vault.DecodeMasterKey(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// DecodeMasterKey decodes the hex master key and enforces its exact length.
// Returns ErrInvalidMasterKey if the key is absent, not valid hex, or not
// exactly MasterKeyBytes bytes long.
func (c VaultConfig) DecodeMasterKey() ([]byte, error) {
	key, err := hex.DecodeString(c.MasterKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidMasterKey, err)
	}
	if len(key) != MasterKeyBytes {
		return nil, fmt.Errorf("%w: got %d bytes", ErrInvalidMasterKey, len(key))
	}
	return key, nil
}

// setDefaults registers default values for settings that have a sensible
// out-of-the-box choice. Secrets and the database URL have no defaults.
func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")
	v.SetDefault("auth.token_lifetime_minutes", 60)
	v.SetDefault("llm.models", []string{
		"gemini-2.0-flash",
		"gemini-1.5-flash",
		"gemini-1.5-pro",
	})
	v.SetDefault("llm.request_timeout_seconds", 30)
	v.SetDefault("llm.max_context_chars", 8000)
	v.SetDefault("credit.course_cost", 10)
	v.SetDefault("credit.quiz_cost", 5)
	v.SetDefault("credit.mindmap_cost", 3)
	v.SetDefault("credit.signup_grant", 50)
	v.SetDefault("credit.cache_ttl_seconds", 30)
}
