package storekit

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"
)

// Config holds connection and pool configuration for one logical database.
type Config struct {
	// Connection. URL takes precedence when set; otherwise the DSN is
	// composed from the individual parts below.
	URL      string
	Host     string // Database host (default: localhost)
	Port     int    // Database port (default: 5432)
	Database string // Database name (required unless URL is set)
	User     string // Database user (default: postgres)
	Password string // Database password
	SSLMode  string // sslmode parameter (default: disable)

	// Pool settings
	MaxOpenConns    int           // Max open connections (default: 25)
	MaxIdleConns    int           // Max idle connections kept warm (default: 5)
	ConnMaxLifetime time.Duration // Max connection lifetime (default: 5m)
	ConnMaxIdleTime time.Duration // Idle eviction timeout (default: 1m)

	// Timeouts. DialTimeout bounds connection establishment, which is
	// where an unreachable store surfaces: pools open connections on
	// first borrow, never eagerly.
	DialTimeout  time.Duration // Connection dial/acquisition timeout (default: 5s)
	ReadTimeout  time.Duration // Statement read timeout (default: 30s)
	WriteTimeout time.Duration // Statement write timeout (default: 30s)

	// Observability (all optional)
	Logger          *slog.Logger          // Structured logger
	LogQueries      bool                  // Log all queries
	LogSlowQueries  time.Duration         // Log queries slower than this (0 = disabled)
	MetricsRegistry prometheus.Registerer // Prometheus registry for metrics
	Tracer          trace.Tracer          // OpenTelemetry tracer
}

// DefaultConfig returns sensible defaults for the named database.
func DefaultConfig(database string) Config {
	cfg := Config{Database: database}
	cfg.applyDefaults()
	return cfg
}

// applyDefaults fills in zero values with defaults
func (c *Config) applyDefaults() {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == 0 {
		c.Port = 5432
	}
	if c.User == "" {
		c.User = "postgres"
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxOpenConns == 0 {
		c.MaxOpenConns = 25
	}
	if c.MaxIdleConns == 0 {
		c.MaxIdleConns = 5
	}
	if c.ConnMaxLifetime == 0 {
		c.ConnMaxLifetime = 5 * time.Minute
	}
	if c.ConnMaxIdleTime == 0 {
		c.ConnMaxIdleTime = 1 * time.Minute
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 5 * time.Second
	}
	if c.ReadTimeout == 0 {
		c.ReadTimeout = 30 * time.Second
	}
	if c.WriteTimeout == 0 {
		c.WriteTimeout = 30 * time.Second
	}
}

// DSN returns the connection string for this configuration.
func (c Config) DSN() string {
	if c.URL != "" {
		return c.URL
	}
	u := url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   "/" + c.Database,
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	} else {
		u.User = url.User(c.User)
	}
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// ForDatabase returns a copy of the configuration pointing at another
// database on the same server, keeping pool and timeout settings. A
// URL-based config is decomposed so the server half survives the
// database substitution.
func (c Config) ForDatabase(database string) Config {
	if c.URL != "" {
		if u, err := url.Parse(c.URL); err == nil {
			c.Host = u.Hostname()
			if p := u.Port(); p != "" {
				if port, err := strconv.Atoi(p); err == nil {
					c.Port = port
				}
			}
			if u.User != nil {
				c.User = u.User.Username()
				if pw, ok := u.User.Password(); ok {
					c.Password = pw
				}
			}
			if mode := u.Query().Get("sslmode"); mode != "" {
				c.SSLMode = mode
			}
		}
		c.URL = ""
	}
	c.Database = database
	return c
}

// WithLogger enables query logging
func (c Config) WithLogger(logger *slog.Logger) Config {
	c.Logger = logger
	c.LogQueries = true
	return c
}

// WithSlowQueryLog logs queries slower than the threshold
func (c Config) WithSlowQueryLog(threshold time.Duration) Config {
	c.LogSlowQueries = threshold
	return c
}

// WithMetrics enables Prometheus metrics
func (c Config) WithMetrics(registry prometheus.Registerer) Config {
	c.MetricsRegistry = registry
	return c
}

// WithTracing enables OpenTelemetry tracing
func (c Config) WithTracing(tracer trace.Tracer) Config {
	c.Tracer = tracer
	return c
}

// LoadConfig reads configuration with viper: built-in defaults, then an
// optional config file (YAML), then STOREKIT_* environment variables.
// Later sources override earlier ones, so STOREKIT_DATABASE_PASSWORD
// beats the file, which beats the defaults. Pass an empty path to skip
// the file entirely.
func LoadConfig(path string) (Config, error) {
	v := viper.New()

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "")
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("pool.max_open", 25)
	v.SetDefault("pool.max_idle", 5)
	v.SetDefault("pool.max_lifetime", 5*time.Minute)
	v.SetDefault("pool.max_idle_time", time.Minute)
	v.SetDefault("timeout.dial", 5*time.Second)
	v.SetDefault("timeout.read", 30*time.Second)
	v.SetDefault("timeout.write", 30*time.Second)

	v.SetEnvPrefix("STOREKIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("storekit: reading config file %s: %w", path, err)
		}
	}

	cfg := Config{
		Host:            v.GetString("database.host"),
		Port:            v.GetInt("database.port"),
		Database:        v.GetString("database.name"),
		User:            v.GetString("database.user"),
		Password:        v.GetString("database.password"),
		SSLMode:         v.GetString("database.sslmode"),
		MaxOpenConns:    v.GetInt("pool.max_open"),
		MaxIdleConns:    v.GetInt("pool.max_idle"),
		ConnMaxLifetime: v.GetDuration("pool.max_lifetime"),
		ConnMaxIdleTime: v.GetDuration("pool.max_idle_time"),
		DialTimeout:     v.GetDuration("timeout.dial"),
		ReadTimeout:     v.GetDuration("timeout.read"),
		WriteTimeout:    v.GetDuration("timeout.write"),
	}
	cfg.applyDefaults()
	return cfg, nil
}
