package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	Auth     AuthConfig     `mapstructure:"auth" validate:"required"`
	Vault    VaultConfig    `mapstructure:"vault" validate:"required"`
	LLM      LLMConfig      `mapstructure:"llm" validate:"required"`
	Credit   CreditConfig   `mapstructure:"credit" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AuthConfig contains all authentication and authorization settings.
type AuthConfig struct {
	JWTSecret            string `mapstructure:"jwt_secret" validate:"required,min=32"`
	TokenLifetimeMinutes int    `mapstructure:"token_lifetime_minutes" validate:"required,gt=0"`
}

// VaultConfig contains the settings for the credential vault that protects
// stored provider API keys.
//
// MasterKey is the hex-encoded AES-256 key used to encrypt and decrypt
// stored credentials. It must decode to exactly 32 bytes; Load refuses to
// return a config with a malformed key so the process can never start with
// silently degraded encryption.
type VaultConfig struct {
	MasterKey string `mapstructure:"master_key" validate:"required,len=64,hexadecimal"`
}

// LLMConfig contains all generative-model integration settings.
//
// Models is the ordered fallback list of model candidates; the gateway
// tries them in order and stops at the first success. The list is capped
// at three candidates so a single request has a hard worst-case latency.
type LLMConfig struct {
	Models                []string `mapstructure:"models" validate:"required,min=1,max=3,dive,required"`
	RequestTimeoutSeconds int      `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
	MaxContextChars       int      `mapstructure:"max_context_chars" validate:"required,gt=0"`
}

// CreditConfig contains the credit pricing for paid generation operations
// and the grant issued to newly registered users.
type CreditConfig struct {
	CourseCost      int64 `mapstructure:"course_cost" validate:"required,gt=0"`
	QuizCost        int64 `mapstructure:"quiz_cost" validate:"required,gt=0"`
	MindmapCost     int64 `mapstructure:"mindmap_cost" validate:"required,gt=0"`
	SignupGrant     int64 `mapstructure:"signup_grant" validate:"gte=0"`
	CacheTTLSeconds int   `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
}
