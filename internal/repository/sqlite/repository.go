package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/joshdurbin/shortlink/internal/domain"
	"github.com/joshdurbin/shortlink/internal/repository"
)

const mappingColumns = "id, short_id, path, url, origin_url, create_time, last_update_time"

// Repository implements repository.MappingRepository using SQLite
type Repository struct {
	db *sql.DB
}

// New creates a new SQLite repository
func New(databasePath string) (*Repository, error) {
	db, err := sql.Open("sqlite3", databasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite allows a single writer; serialize access instead of surfacing SQLITE_BUSY
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	repo := &Repository{db: db}

	if err := repo.runMigrations(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return repo, nil
}

// FindByPath retrieves the mapping whose path equals path
func (r *Repository) FindByPath(ctx context.Context, path string) (*domain.Mapping, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+mappingColumns+" FROM mappings WHERE path = ?", path)

	mapping, err := scanMapping(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find mapping: %w", err)
	}

	return mapping, nil
}

// FindByShortIDPrefix retrieves all mappings whose short ID starts with prefix, ordered by short ID
func (r *Repository) FindByShortIDPrefix(ctx context.Context, prefix string) ([]*domain.Mapping, error) {
	// substr keeps the match byte-exact; LIKE would treat '_' as a wildcard and ignore case
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+mappingColumns+" FROM mappings WHERE short_id IS NOT NULL AND substr(short_id, 1, ?) = ? ORDER BY short_id ASC",
		len(prefix), prefix)
	if err != nil {
		return nil, fmt.Errorf("failed to query short ID prefix: %w", err)
	}
	defer rows.Close()

	var mappings []*domain.Mapping
	for rows.Next() {
		mapping, err := scanMapping(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan mapping: %w", err)
		}
		mappings = append(mappings, mapping)
	}

	return mappings, rows.Err()
}

// Insert stores a new mapping
func (r *Repository) Insert(ctx context.Context, mapping *domain.Mapping) (*domain.Mapping, error) {
	now := time.Now().UTC()

	var shortID sql.NullString
	if mapping.ShortID != nil {
		shortID = sql.NullString{String: *mapping.ShortID, Valid: true}
	}

	result, err := r.db.ExecContext(ctx,
		"INSERT INTO mappings (short_id, path, url, origin_url, create_time, last_update_time) VALUES (?, ?, ?, ?, ?, ?)",
		shortID, mapping.Path, mapping.URL, mapping.OriginURL, now, now)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, fmt.Errorf("failed to insert mapping %q: %w", mapping.Path, repository.ErrConflict)
		}
		return nil, fmt.Errorf("failed to insert mapping: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to read inserted id: %w", err)
	}

	inserted := *mapping
	inserted.ID = id
	inserted.CreateTime = now
	inserted.LastUpdateTime = now
	return &inserted, nil
}

// UpdateURLByPath replaces the URL of the mapping at path
func (r *Repository) UpdateURLByPath(ctx context.Context, path, url string) (*domain.Mapping, error) {
	result, err := r.db.ExecContext(ctx,
		"UPDATE mappings SET url = ?, last_update_time = ? WHERE path = ?",
		url, time.Now().UTC(), path)
	if err != nil {
		return nil, fmt.Errorf("failed to update mapping: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return nil, repository.ErrNotFound
	}

	return r.FindByPath(ctx, path)
}

// Close closes the repository connection
func (r *Repository) Close() error {
	return r.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanMapping(s scanner) (*domain.Mapping, error) {
	var (
		mapping domain.Mapping
		shortID sql.NullString
	)

	if err := s.Scan(
		&mapping.ID,
		&shortID,
		&mapping.Path,
		&mapping.URL,
		&mapping.OriginURL,
		&mapping.CreateTime,
		&mapping.LastUpdateTime,
	); err != nil {
		return nil, err
	}

	if shortID.Valid {
		mapping.ShortID = &shortID.String
	}

	return &mapping, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// Ensure Repository implements the interface
var _ repository.MappingRepository = (*Repository)(nil)
