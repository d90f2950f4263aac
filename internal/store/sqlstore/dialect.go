package sqlstore

import (
	"errors"
	"net"
	"net/url"
	"strconv"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// PoolConfig bounds the connection pool for networked dialects.
// Zero values leave the database/sql defaults in place.
type PoolConfig struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Dialect encapsulates everything that differs between database engines:
// connection string, gorm dialector, and connection tuning.
type Dialect interface {
	// Name returns the driver name, e.g. "sqlite".
	Name() string

	// Dialector returns the gorm dialector used to open the database.
	Dialector() (gorm.Dialector, error)

	// Configure tunes an opened database.
	Configure(db *gorm.DB, pool PoolConfig) error

	// TableOptions returns extra options appended to CREATE TABLE.
	TableOptions() string

	// MaxPathLength is the longest path in characters the key column
	// holds, or 0 when paths are unbounded.
	MaxPathLength() int
}

// Compile-time checks that the dialects implement Dialect.
var (
	_ Dialect = SQLite{}
	_ Dialect = MySQL{}
	_ Dialect = Postgres{}
)

// SQLite is an embedded single-file database.
type SQLite struct {
	Path string
}

func (d SQLite) Name() string { return "sqlite" }

func (d SQLite) Dialector() (gorm.Dialector, error) {
	if d.Path == "" {
		return nil, errors.New("sqlite: path is required")
	}
	return sqlite.Open(d.Path), nil
}

// Configure limits SQLite to one connection and enables WAL to avoid
// "database is locked" errors under concurrent requests.
func (d SQLite) Configure(db *gorm.DB, _ PoolConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	sqlDB.SetMaxOpenConns(1)
	return db.Exec("PRAGMA journal_mode=WAL;").Error
}

func (d SQLite) TableOptions() string { return "" }

func (d SQLite) MaxPathLength() int { return 0 }

// MySQL is a networked MySQL or MariaDB server.
type MySQL struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	Params   map[string]string
}

func (d MySQL) Name() string { return "mysql" }

// DSN returns the go-sql-driver connection string.
// clientFoundRows makes UPDATE report matched rather than changed rows.
func (d MySQL) DSN() string {
	port := d.Port
	if port == 0 {
		port = 3306
	}
	cfg := gomysql.NewConfig()
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(d.Host, strconv.Itoa(port))
	cfg.DBName = d.Database
	cfg.ClientFoundRows = true
	cfg.ParseTime = true
	cfg.Params = d.Params
	return cfg.FormatDSN()
}

func (d MySQL) Dialector() (gorm.Dialector, error) {
	if d.Host == "" {
		return nil, errors.New("mysql: host is required")
	}
	return mysql.Open(d.DSN()), nil
}

func (d MySQL) Configure(db *gorm.DB, pool PoolConfig) error {
	return configurePool(db, pool)
}

// TableOptions selects a binary, no-pad collation so paths compare byte for
// byte: "/Index", "/index" and "/index " are distinct keys.
func (d MySQL) TableOptions() string {
	return "CHARSET=utf8mb4 COLLATE=utf8mb4_0900_bin"
}

// MaxPathLength is bounded by the InnoDB index key limit.
func (d MySQL) MaxPathLength() int { return maxIndexedPath }

// Postgres is a networked PostgreSQL server.
type Postgres struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

func (d Postgres) Name() string { return "postgres" }

// DSN returns a postgres:// URL understood by pgx.
func (d Postgres) DSN() string {
	port := d.Port
	if port == 0 {
		port = 5432
	}
	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	u := url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(d.Host, strconv.Itoa(port)),
		Path:     "/" + d.Database,
		RawQuery: url.Values{"sslmode": {sslMode}}.Encode(),
	}
	if d.User != "" {
		u.User = url.UserPassword(d.User, d.Password)
	}
	return u.String()
}

func (d Postgres) Dialector() (gorm.Dialector, error) {
	if d.Host == "" {
		return nil, errors.New("postgres: host is required")
	}
	return postgres.Open(d.DSN()), nil
}

func (d Postgres) Configure(db *gorm.DB, pool PoolConfig) error {
	return configurePool(db, pool)
}

func (d Postgres) TableOptions() string { return "" }

func (d Postgres) MaxPathLength() int { return 0 }

func configurePool(db *gorm.DB, pool PoolConfig) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	if pool.MaxOpenConns != 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConns)
	}
	if pool.MaxIdleConns != 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConns)
	}
	if pool.ConnMaxLifetime != 0 {
		sqlDB.SetConnMaxLifetime(pool.ConnMaxLifetime)
	}
	return nil
}
