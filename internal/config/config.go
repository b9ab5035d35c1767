package config

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the server configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Pagination PaginationConfig `mapstructure:"pagination"`
	Cards      CardsConfig      `mapstructure:"cards"`
	Log        LogConfig        `mapstructure:"log"`
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// TrustedProxies lists addresses or CIDR ranges whose forwarding
	// headers are believed. Empty trusts nobody.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// Addr is the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// ProxyPrefixes parses TrustedProxies. A bare address is a single-host range.
func (s ServerConfig) ProxyPrefixes() ([]netip.Prefix, error) {
	prefixes := make([]netip.Prefix, 0, len(s.TrustedProxies))
	for _, raw := range s.TrustedProxies {
		raw = strings.TrimSpace(raw)
		if strings.Contains(raw, "/") {
			p, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("server.trusted_proxies: %w", err)
			}
			prefixes = append(prefixes, p.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("server.trusted_proxies: %w", err)
		}
		addr = addr.Unmap()
		prefixes = append(prefixes, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return prefixes, nil
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
	SSLMode  string `mapstructure:"ssl_mode"`
	Path     string `mapstructure:"path"`
	Debug    bool   `mapstructure:"debug"`
}

// DSN returns the postgres connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		d.Host,
		d.User,
		d.Password,
		d.Name,
		d.Port,
		d.SSLMode,
	)
}

// AuthConfig configures bearer token issuing and verification.
type AuthConfig struct {
	Secret              string        `mapstructure:"secret"`
	Issuer              string        `mapstructure:"issuer"`
	AccessTTL           time.Duration `mapstructure:"access_ttl"`
	RefreshTTL          time.Duration `mapstructure:"refresh_ttl"`
	RejectInvalidTokens bool          `mapstructure:"reject_invalid_tokens"`
}

// PaginationConfig bounds list responses.
type PaginationConfig struct {
	PageSize    int `mapstructure:"page_size"`
	MaxPageSize int `mapstructure:"max_page_size"`
}

// CardsConfig selects how card queries are scoped and filtered.
type CardsConfig struct {
	// FilterMode is "last" (only the last supplied filter applies) or "all".
	FilterMode string `mapstructure:"filter_mode"`
	// ScopeRetrieve applies owner scoping to single card reads.
	ScopeRetrieve bool `mapstructure:"scope_retrieve"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "localhost",
			Port:            8080,
			Mode:            "release",
			ShutdownTimeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Driver:  "postgres",
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			Name:    "cardboard",
			SSLMode: "disable",
			Path:    "cardboard.db",
		},
		Auth: AuthConfig{
			Issuer:     "cardboard",
			AccessTTL:  5 * time.Minute,
			RefreshTTL: 24 * time.Hour,
		},
		Pagination: PaginationConfig{
			PageSize:    100,
			MaxPageSize: 1000,
		},
		Cards: CardsConfig{
			FilterMode: "last",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from .env, an optional config file and
// CARDBOARD_* environment variables, in increasing order of precedence.
// An empty path searches for config.yaml in . and ./config.
func Load(path string) (*Config, error) {
	// A missing .env is fine.
	_ = godotenv.Load()

	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	setDefaults(v, Default())

	v.SetEnvPrefix("CARDBOARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper, d *Config) {
	v.SetDefault("server.host", d.Server.Host)
	v.SetDefault("server.port", d.Server.Port)
	v.SetDefault("server.mode", d.Server.Mode)
	v.SetDefault("server.shutdown_timeout", d.Server.ShutdownTimeout)
	// No default: an unset list must stay nil.
	_ = v.BindEnv("server.trusted_proxies")

	v.SetDefault("database.driver", d.Database.Driver)
	v.SetDefault("database.host", d.Database.Host)
	v.SetDefault("database.port", d.Database.Port)
	v.SetDefault("database.user", d.Database.User)
	v.SetDefault("database.password", d.Database.Password)
	v.SetDefault("database.name", d.Database.Name)
	v.SetDefault("database.ssl_mode", d.Database.SSLMode)
	v.SetDefault("database.path", d.Database.Path)
	v.SetDefault("database.debug", d.Database.Debug)

	v.SetDefault("auth.secret", d.Auth.Secret)
	v.SetDefault("auth.issuer", d.Auth.Issuer)
	v.SetDefault("auth.access_ttl", d.Auth.AccessTTL)
	v.SetDefault("auth.refresh_ttl", d.Auth.RefreshTTL)
	v.SetDefault("auth.reject_invalid_tokens", d.Auth.RejectInvalidTokens)

	v.SetDefault("pagination.page_size", d.Pagination.PageSize)
	v.SetDefault("pagination.max_page_size", d.Pagination.MaxPageSize)

	v.SetDefault("cards.filter_mode", d.Cards.FilterMode)
	v.SetDefault("cards.scope_retrieve", d.Cards.ScopeRetrieve)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Auth.Secret == "" {
		return errors.New("auth.secret must be set")
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("unknown server.mode %q", c.Server.Mode)
	}
	if _, err := c.Server.ProxyPrefixes(); err != nil {
		return err
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	switch c.Cards.FilterMode {
	case "last", "all":
	default:
		return fmt.Errorf("unknown cards.filter_mode %q", c.Cards.FilterMode)
	}
	if c.Pagination.PageSize <= 0 || c.Pagination.MaxPageSize < c.Pagination.PageSize {
		return errors.New("pagination.page_size must be positive and not above pagination.max_page_size")
	}
	return nil
}
