// Package gormdb implements repository.MappingRepository on top of gorm, so the
// store can run on MySQL in multi-instance deployments. SQLite is supported as
// a dialect for local runs and tests.
package gormdb

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	goMysql "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/joshdurbin/shortlink/internal/domain"
	"github.com/joshdurbin/shortlink/internal/repository"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type mappingRecord struct {
	ID             int64     `gorm:"column:id;primaryKey;autoIncrement"`
	ShortID        *string   `gorm:"column:short_id;type:varchar(64);uniqueIndex"`
	Path           string    `gorm:"column:path;type:varchar(255);not null;uniqueIndex"`
	URL            string    `gorm:"column:url;type:text;not null"`
	OriginURL      string    `gorm:"column:origin_url;type:text;not null"`
	CreateTime     time.Time `gorm:"column:create_time;not null"`
	LastUpdateTime time.Time `gorm:"column:last_update_time;not null"`
}

func (mappingRecord) TableName() string {
	return "mappings"
}

// Repository implements repository.MappingRepository using gorm
type Repository struct {
	db     *gorm.DB
	driver string
}

// New opens the database for driver ("mysql" or "sqlite") and migrates the mappings table
func New(driver, dsn string) (*Repository, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverMySQL:
		dialector = mysql.Open(dsn)
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get core database: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if driver == DriverSQLite {
		sqlDB.SetMaxOpenConns(1)
	}

	migrator := db
	if driver == DriverMySQL {
		// short IDs are case sensitive; the default collation is not
		migrator = db.Set("gorm:table_options", "CHARSET=utf8mb4 COLLATE=utf8mb4_bin")
	}
	if err := migrator.AutoMigrate(&mappingRecord{}); err != nil {
		return nil, fmt.Errorf("failed to migrate mappings table: %w", err)
	}

	return &Repository{db: db, driver: driver}, nil
}

// FindByPath retrieves the mapping whose path equals path
func (r *Repository) FindByPath(ctx context.Context, path string) (*domain.Mapping, error) {
	var record mappingRecord
	err := r.db.WithContext(ctx).Where("path = ?", path).First(&record).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find mapping: %w", err)
	}
	return record.toDomain(), nil
}

// FindByShortIDPrefix retrieves all mappings whose short ID starts with prefix, ordered by short ID
func (r *Repository) FindByShortIDPrefix(ctx context.Context, prefix string) ([]*domain.Mapping, error) {
	var records []mappingRecord
	err := r.db.WithContext(ctx).
		Where("short_id LIKE ? ESCAPE '!'", escapeLike(prefix)+"%").
		Order("short_id ASC").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("failed to query short ID prefix: %w", err)
	}

	// LIKE is case-insensitive on SQLite; keep only byte-exact prefix matches
	var mappings []*domain.Mapping
	for _, record := range records {
		if record.ShortID != nil && strings.HasPrefix(*record.ShortID, prefix) {
			mappings = append(mappings, record.toDomain())
		}
	}
	slices.SortFunc(mappings, func(a, b *domain.Mapping) int {
		return strings.Compare(*a.ShortID, *b.ShortID)
	})

	return mappings, nil
}

// Insert stores a new mapping
func (r *Repository) Insert(ctx context.Context, mapping *domain.Mapping) (*domain.Mapping, error) {
	now := time.Now().UTC()
	record := mappingRecord{
		ShortID:        mapping.ShortID,
		Path:           mapping.Path,
		URL:            mapping.URL,
		OriginURL:      mapping.OriginURL,
		CreateTime:     now,
		LastUpdateTime: now,
	}

	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if isDuplicate(err) {
			return nil, fmt.Errorf("failed to insert mapping %q: %w", mapping.Path, repository.ErrConflict)
		}
		return nil, fmt.Errorf("failed to insert mapping: %w", err)
	}

	return record.toDomain(), nil
}

// UpdateURLByPath replaces the URL of the mapping at path
func (r *Repository) UpdateURLByPath(ctx context.Context, path, url string) (*domain.Mapping, error) {
	result := r.db.WithContext(ctx).
		Model(&mappingRecord{}).
		Where("path = ?", path).
		Updates(map[string]any{
			"url":              url,
			"last_update_time": time.Now().UTC(),
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to update mapping: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, repository.ErrNotFound
	}

	return r.FindByPath(ctx, path)
}

// Close closes the underlying connection pool
func (r *Repository) Close() error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get core database: %w", err)
	}
	return sqlDB.Close()
}

func (record mappingRecord) toDomain() *domain.Mapping {
	return &domain.Mapping{
		ID:             record.ID,
		ShortID:        record.ShortID,
		Path:           record.Path,
		URL:            record.URL,
		OriginURL:      record.OriginURL,
		CreateTime:     record.CreateTime,
		LastUpdateTime: record.LastUpdateTime,
	}
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *goMysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

// Ensure Repository implements the interface
var _ repository.MappingRepository = (*Repository)(nil)
