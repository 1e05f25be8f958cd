package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
// The values are read by Viper from a config file or environment variables.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	S3        S3Config        `mapstructure:"s3"`
	Storage   StorageConfig   `mapstructure:"storage"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Admin     AdminConfig     `mapstructure:"admin"`
	NM        NMConfig        `mapstructure:"nm"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Address string `mapstructure:"address"`
	// PublicBaseURL is the externally reachable origin used when building
	// partner launch URLs.
	PublicBaseURL string `mapstructure:"public_base_url"`
}

type DatabaseConfig struct {
	URI  string `mapstructure:"uri"`
	Name string `mapstructure:"name"`
}

type S3Config struct {
	Endpoint        string `mapstructure:"endpoint"`
	Region          string `mapstructure:"region"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	BucketName      string `mapstructure:"bucket_name"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// StorageConfig controls object key layout and signed URL issuance.
type StorageConfig struct {
	BaseFolder   string        `mapstructure:"base_folder"`
	SignedURLTTL time.Duration `mapstructure:"signed_url_ttl"`
	// ReaperInterval of zero disables the orphaned-object reconciliation pass.
	ReaperInterval time.Duration `mapstructure:"reaper_interval"`
	// ReaperGrace protects objects younger than this from reaping so an
	// in-flight upload is never deleted between the bucket write and the
	// database insert.
	ReaperGrace time.Duration `mapstructure:"reaper_grace"`
}

// JWTConfig covers both admin console tokens and partner session cookies.
type JWTConfig struct {
	Secret            string        `mapstructure:"secret"`
	AdminExpiration   time.Duration `mapstructure:"admin_expiration"`
	SessionExpiration time.Duration `mapstructure:"session_expiration"`
}

// AdminConfig seeds the first console account when none exists.
type AdminConfig struct {
	SeedEmail    string `mapstructure:"seed_email"`
	SeedPassword string `mapstructure:"seed_password"`
}

// NMConfig configures the partner platform integration.
type NMConfig struct {
	BaseURL            string        `mapstructure:"base_url"`
	ClientID           string        `mapstructure:"client_id"`
	ClientSecret       string        `mapstructure:"client_secret"`
	PartnerBearerToken string        `mapstructure:"partner_bearer_token"`
	LaunchTokenTTL     time.Duration `mapstructure:"launch_token_ttl"`
}

// RateLimitConfig bounds request rates per client IP at the API boundary.
type RateLimitConfig struct {
	Window time.Duration `mapstructure:"window"`
	Max    int           `mapstructure:"max"`
}

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(path string) (config Config, err error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Environment overrides, e.g. server.address -> SERVER_ADDRESS,
	// nm.client_secret -> NM_CLIENT_SECRET.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(`.`, `_`))

	viper.SetDefault("server.address", ":8080")
	viper.SetDefault("server.public_base_url", "http://localhost:8080")
	viper.SetDefault("database.uri", "mongodb://localhost:27017")
	viper.SetDefault("database.name", "lms_backend")
	viper.SetDefault("s3.use_ssl", true)
	viper.SetDefault("storage.base_folder", "lms")
	viper.SetDefault("storage.signed_url_ttl", "15m")
	viper.SetDefault("storage.reaper_interval", "0")
	viper.SetDefault("storage.reaper_grace", "1h")
	viper.SetDefault("jwt.admin_expiration", "24h")
	viper.SetDefault("jwt.session_expiration", "1h")
	viper.SetDefault("nm.launch_token_ttl", "10m")
	viper.SetDefault("ratelimit.window", "15m")
	viper.SetDefault("ratelimit.max", 100)

	err = viper.ReadInConfig()
	// A missing config file is fine; env vars and defaults still apply.
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		err = nil
	} else if err != nil {
		return
	}

	err = viper.Unmarshal(&config)
	return
}
