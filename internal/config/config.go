// Package config loads service configuration from the environment.
//
// The variable names follow the container platform convention the service
// was deployed with: DATABASE_SERVICE_NAME names a linked database service
// whose address is published as <NAME>_SERVICE_HOST and <NAME>_SERVICE_PORT.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Driver names a backend kind.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverMySQL    Driver = "mysql"
	DriverPostgres Driver = "pgsql"
	DriverRedis    Driver = "redis"
)

// Drivers lists the supported drivers in the order they are reported.
var Drivers = []Driver{DriverMySQL, DriverPostgres, DriverSQLite, DriverRedis}

// driverAliases maps accepted spellings onto a Driver.
var driverAliases = map[string]Driver{
	"":           DriverSQLite,
	"sqlite":     DriverSQLite,
	"sqlite3":    DriverSQLite,
	"mysql":      DriverMySQL,
	"pgsql":      DriverPostgres,
	"postgres":   DriverPostgres,
	"postgresql": DriverPostgres,
	"redis":      DriverRedis,
}

// Keys read from the environment.
const (
	KeyDriver         = "DATABASE_DRIVER"
	KeyServiceName    = "DATABASE_SERVICE_NAME"
	KeyHost           = "DATABASE_HOST"
	KeyPort           = "DATABASE_PORT"
	KeyName           = "DATABASE_NAME"
	KeyUser           = "DATABASE_USER"
	KeyPassword       = "DATABASE_PASSWORD"
	KeyURL            = "DATABASE_URL"
	KeySSLMode        = "DATABASE_SSLMODE"
	KeyMaxOpenConns   = "DATABASE_MAX_OPEN_CONNS"
	KeyMaxIdleConns   = "DATABASE_MAX_IDLE_CONNS"
	KeyConnMaxLife    = "DATABASE_CONN_MAX_LIFETIME"
	KeyLogQueries     = "DATABASE_LOG_QUERIES"
	KeySQLitePath     = "SQLITE_PATH"
	KeyRedisDB        = "REDIS_DB"
	KeyRedisKeyPrefix = "REDIS_KEY_PREFIX"
	KeyListenAddr     = "LISTEN_ADDR"
	KeyCacheSize      = "CACHE_SIZE"
	KeyAutoMigrate    = "AUTO_MIGRATE"
)

// ConfigError reports invalid configuration.
type ConfigError struct {
	Key string
	Msg string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Key, e.Msg)
}

// Config is the resolved service configuration.
type Config struct {
	Driver Driver

	Host     string
	Port     int
	Database string
	User     string
	Password string
	SSLMode  string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	LogQueries      bool

	SQLitePath string

	RedisDB        int
	RedisKeyPrefix string

	ListenAddr  string
	CacheSize   int
	AutoMigrate bool
}

// SetDefaults registers default values on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault(KeyListenAddr, ":8080")
	v.SetDefault(KeyCacheSize, 10000)
	v.SetDefault(KeyAutoMigrate, true)
	v.SetDefault(KeyRedisKeyPrefix, "pageviews:")
}

// LoadEnvFile loads variables from path into the process environment
// without overriding variables that are already set. A missing file is not
// an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// New returns a viper instance reading from the environment with defaults set.
func New() *viper.Viper {
	v := viper.New()
	v.AutomaticEnv()
	SetDefaults(v)
	return v
}

// Load resolves a Config from v.
func Load(v *viper.Viper) (*Config, error) {
	var (
		driver Driver
		err    error
	)
	// DATABASE_URL names its own driver, so DATABASE_DRIVER is not consulted.
	rawURL := v.GetString(KeyURL)
	if rawURL == "" {
		if driver, err = ParseDriver(v.GetString(KeyDriver)); err != nil {
			return nil, err
		}
	}

	cfg := &Config{
		Driver:          driver,
		Host:            v.GetString(KeyHost),
		Database:        v.GetString(KeyName),
		User:            v.GetString(KeyUser),
		Password:        v.GetString(KeyPassword),
		SSLMode:         v.GetString(KeySSLMode),
		MaxOpenConns:    v.GetInt(KeyMaxOpenConns),
		MaxIdleConns:    v.GetInt(KeyMaxIdleConns),
		ConnMaxLifetime: v.GetDuration(KeyConnMaxLife),
		LogQueries:      v.GetBool(KeyLogQueries),
		SQLitePath:      v.GetString(KeySQLitePath),
		RedisDB:         v.GetInt(KeyRedisDB),
		RedisKeyPrefix:  v.GetString(KeyRedisKeyPrefix),
		ListenAddr:      v.GetString(KeyListenAddr),
		CacheSize:       v.GetInt(KeyCacheSize),
		AutoMigrate:     v.GetBool(KeyAutoMigrate),
	}

	port := v.GetString(KeyPort)
	if name := v.GetString(KeyServiceName); name != "" {
		prefix := serviceEnvPrefix(name)
		if cfg.Host == "" {
			cfg.Host = v.GetString(prefix + "_SERVICE_HOST")
		}
		if port == "" {
			port = v.GetString(prefix + "_SERVICE_PORT")
		}
	}
	if port != "" {
		if cfg.Port, err = strconv.Atoi(port); err != nil {
			return nil, &ConfigError{Key: KeyPort, Msg: fmt.Sprintf("invalid port %q", port)}
		}
	}

	if rawURL != "" {
		if err := cfg.applyURL(rawURL); err != nil {
			return nil, err
		}
	}

	if cfg.Driver == DriverSQLite && cfg.SQLitePath == "" {
		cfg.SQLitePath = defaultSQLitePath()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is complete for its driver.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverSQLite:
		if c.SQLitePath == "" {
			return &ConfigError{Key: KeySQLitePath, Msg: "sqlite path is required"}
		}
	case DriverMySQL, DriverPostgres, DriverRedis:
		if c.Host == "" {
			return &ConfigError{
				Key: KeyHost,
				Msg: fmt.Sprintf("%s requires a host; set %s or %s", c.Driver, KeyHost, KeyServiceName),
			}
		}
	default:
		return invalidDriver(string(c.Driver))
	}
	if c.CacheSize < 0 {
		return &ConfigError{Key: KeyCacheSize, Msg: "must not be negative"}
	}
	return nil
}

// ParseDriver resolves a driver name. Empty selects SQLite.
func ParseDriver(name string) (Driver, error) {
	d, ok := driverAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", invalidDriver(name)
	}
	return d, nil
}

func invalidDriver(name string) error {
	valid := make([]string, len(Drivers))
	for i, d := range Drivers {
		valid[i] = string(d)
	}
	return &ConfigError{
		Key: KeyDriver,
		Msg: fmt.Sprintf("invalid database driver (%s). Valid drivers include: %s", name, strings.Join(valid, ", ")),
	}
}

// applyURL fills the configuration from a driver://... datasource.
func (c *Config) applyURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return &ConfigError{Key: KeyURL, Msg: "malformed database url"}
	}
	driver, err := ParseDriver(u.Scheme)
	if err != nil {
		return err
	}
	c.Driver = driver

	if driver == DriverSQLite {
		// sqlite:///abs/path or sqlite://rel/path
		path := u.Host + u.Path
		if path == "" {
			path = u.Opaque
		}
		c.SQLitePath = path
		return nil
	}

	c.Host = u.Hostname()
	if p := u.Port(); p != "" {
		if c.Port, err = strconv.Atoi(p); err != nil {
			return &ConfigError{Key: KeyURL, Msg: fmt.Sprintf("invalid port %q", p)}
		}
	}
	if u.User != nil {
		c.User = u.User.Username()
		if pw, ok := u.User.Password(); ok {
			c.Password = pw
		}
	}

	name := strings.TrimPrefix(u.Path, "/")
	if driver == DriverRedis {
		if name != "" {
			if c.RedisDB, err = strconv.Atoi(name); err != nil {
				return &ConfigError{Key: KeyURL, Msg: fmt.Sprintf("invalid redis db %q", name)}
			}
		}
		return nil
	}
	c.Database = name
	if mode := u.Query().Get("sslmode"); mode != "" {
		c.SSLMode = mode
	}
	return nil
}

// serviceEnvPrefix turns a service name like "my-db" into "MY_DB".
func serviceEnvPrefix(name string) string {
	return strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
}

func defaultSQLitePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "database.sqlite"
	}
	return filepath.Join(home, "database.sqlite")
}
