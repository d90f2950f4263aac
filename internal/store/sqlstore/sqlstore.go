// Package sqlstore implements a relational storage backend on top of gorm.
// One Store serves SQLite, MySQL and PostgreSQL; engine differences live in
// the Dialect implementations.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/discochess/pageviews/internal/stats"
	"github.com/discochess/pageviews/internal/store"
)

// TableName is the table page records are stored in.
const TableName = "pages"

// Compile-time check that Store implements store.Store.
var _ store.Store = (*Store)(nil)

// maxIndexedPath is the longest utf8mb4 varchar InnoDB can index (3072 bytes).
const maxIndexedPath = 768

// page is the row layout of the pages table. Without a size the path column
// is text on SQLite and PostgreSQL.
type page struct {
	Path  string `gorm:"primaryKey"`
	Views int64  `gorm:"not null;default:0"`
}

func (page) TableName() string { return TableName }

// indexedPage is the layout for engines that need a bounded key column.
type indexedPage struct {
	Path  string `gorm:"primaryKey;size:768"`
	Views int64  `gorm:"not null;default:0"`
}

func (indexedPage) TableName() string { return TableName }

// Store is a SQL storage backend.
type Store struct {
	db      *gorm.DB
	sqlDB   *sql.DB
	dialect Dialect
}

// Option configures a Store.
type Option func(*options)

type options struct {
	logger     *zap.Logger
	collector  stats.Collector
	pool       PoolConfig
	logQueries bool
}

// WithLogger sets the logger SQL errors and queries are written to.
// A nil logger keeps the default.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithStats sets the collector for SQL query metrics.
// A nil collector keeps the default.
func WithStats(c stats.Collector) Option {
	return func(o *options) {
		if c != nil {
			o.collector = c
		}
	}
}

// WithPool sets connection pool limits. Ignored by SQLite.
func WithPool(p PoolConfig) Option {
	return func(o *options) {
		o.pool = p
	}
}

// WithQueryLogging logs every statement at debug level.
func WithQueryLogging(enabled bool) Option {
	return func(o *options) {
		o.logQueries = enabled
	}
}

// New opens a database using the given dialect.
// The pages table is not created; call EnsureSchema for that.
func New(d Dialect, opts ...Option) (*Store, error) {
	o := options{
		logger:    zap.NewNop(),
		collector: stats.NewNoop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	dialector, err := d.Dialector()
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                 newSQLLogger(o.logger, o.collector, o.logQueries),
		SkipDefaultTransaction: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening %s database: %w", d.Name(), err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("accessing %s connection pool: %w", d.Name(), err)
	}

	if err := d.Configure(db, o.pool); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("configuring %s database: %w", d.Name(), err)
	}

	return &Store{
		db:      db,
		sqlDB:   sqlDB,
		dialect: d,
	}, nil
}

// Dialect returns the dialect the store was opened with.
func (s *Store) Dialect() Dialect {
	return s.dialect
}

// EnsureSchema creates the pages table if it does not exist.
// It is idempotent and safe to run on every start.
func (s *Store) EnsureSchema(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if opts := s.dialect.TableOptions(); opts != "" {
		db = db.Set("gorm:table_options", opts)
	}
	var model any = &page{}
	if s.dialect.MaxPathLength() > 0 {
		model = &indexedPage{}
	}
	if err := db.AutoMigrate(model); err != nil {
		return fmt.Errorf("migrating %s table: %w", TableName, err)
	}
	return nil
}

// Exists reports whether a record for path is present.
func (s *Store) Exists(ctx context.Context, path string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&page{}).Where("path = ?", path).Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("counting pages: %w", err)
	}
	return n > 0, nil
}

// checkPath rejects paths longer than the dialect's key column.
func (s *Store) checkPath(path string) error {
	limit := s.dialect.MaxPathLength()
	if limit <= 0 {
		return nil
	}
	if n := utf8.RuneCountInString(path); n > limit {
		return fmt.Errorf("path has %d characters, %s allows at most %d", n, s.dialect.Name(), limit)
	}
	return nil
}

// Insert creates a record with zero views.
func (s *Store) Insert(ctx context.Context, path string) (*store.Record, error) {
	if err := s.checkPath(path); err != nil {
		return nil, err
	}
	row := page{Path: path}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isDuplicateKeyError(err) {
			return nil, fmt.Errorf("%w: %v", store.ErrExists, err)
		}
		return nil, fmt.Errorf("inserting page: %w", err)
	}
	return &store.Record{Path: path, Views: 0}, nil
}

// Fetch returns the record for path.
func (s *Store) Fetch(ctx context.Context, path string) (*store.Record, error) {
	var row page
	if err := s.db.WithContext(ctx).Where("path = ?", path).Take(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("fetching page: %w", err)
	}
	return &store.Record{Path: row.Path, Views: row.Views}, nil
}

// UpdateViews sets the view count for an existing path.
func (s *Store) UpdateViews(ctx context.Context, path string, views int64) error {
	res := s.db.WithContext(ctx).Model(&page{}).Where("path = ?", path).Update("views", views)
	if res.Error != nil {
		return fmt.Errorf("updating page: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return store.ErrNotFound
	}
	return nil
}

// Increment upserts the row with views = views + 1 and reads it back in the
// same transaction. The row lock taken by the upsert guarantees the value
// read is the one this call produced.
func (s *Store) Increment(ctx context.Context, path string) (*store.Record, error) {
	if err := s.checkPath(path); err != nil {
		return nil, err
	}
	var row page
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		upsert := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "path"}},
			DoUpdates: clause.Assignments(map[string]interface{}{
				"views": gorm.Expr(TableName + ".views + 1"),
			}),
		})
		if err := upsert.Create(&page{Path: path, Views: 1}).Error; err != nil {
			return err
		}
		return tx.Where("path = ?", path).Take(&row).Error
	})
	if err != nil {
		return nil, fmt.Errorf("incrementing page: %w", err)
	}
	return &store.Record{Path: row.Path, Views: row.Views}, nil
}

// List returns every record ordered by path (byte order, independent of the
// database collation).
func (s *Store) List(ctx context.Context) ([]store.Record, error) {
	var rows []page
	if err := s.db.WithContext(ctx).Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("listing pages: %w", err)
	}
	records := make([]store.Record, len(rows))
	for i, r := range rows {
		records[i] = store.Record{Path: r.Path, Views: r.Views}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].Path < records[j].Path })
	return records, nil
}

// Ping checks the database connection.
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	return s.sqlDB.Close()
}
