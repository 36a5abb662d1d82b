package archive

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// SQLite is an archive stored as a SQLite database file.
type SQLite struct {
	db          *sql.DB
	path        string
	compression CompressionTag
}

// OpenSQLite opens the archive at path. A read-only archive must already
// exist; a writable one is created if missing and gets the records schema
// applied. compression selects how new records are stored.
func OpenSQLite(path string, readOnly bool, compression CompressionTag) (*SQLite, error) {
	dsn := "file:" + path
	if readOnly {
		dsn += "?mode=ro"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to archive %s: %w", path, err)
	}

	// SQLite only supports one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db, readOnly); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas to %s: %w", path, err)
	}

	if !readOnly {
		if _, err := db.Exec(schemaSQL); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to apply schema to %s: %w", path, err)
		}
	}

	return &SQLite{db: db, path: path, compression: compression}, nil
}

func applyPragmas(db *sql.DB, readOnly bool) error {
	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
	}
	if readOnly {
		pragmas = append(pragmas, "PRAGMA query_only = ON")
	} else {
		// Rollback journal rather than WAL: finished archives are shipped as
		// a single file and reopened read-only.
		pragmas = append(pragmas,
			"PRAGMA journal_mode = DELETE",
			"PRAGMA synchronous = NORMAL",
		)
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Path returns the file the archive was opened from.
func (s *SQLite) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLite) Get(ctx context.Context, path string) ([]byte, error) {
	var (
		tag    CompressionTag
		size   int
		digest []byte
		data   []byte
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT compression, size, digest, data FROM records WHERE path = ?`,
		CleanPath(path),
	).Scan(&tag, &size, &digest, &data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s in %s: %w", path, s.path, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read record %s: %w", path, err)
	}

	raw, err := decompress(data, tag, size)
	if err != nil {
		return nil, fmt.Errorf("read record %s: %w", path, err)
	}
	if !bytes.Equal(Digest(raw), digest) {
		return nil, fmt.Errorf("%s in %s: %w", path, s.path, ErrCorruptRecord)
	}
	return raw, nil
}

func (s *SQLite) Put(ctx context.Context, path string, data []byte) error {
	stored, tag, err := compress(data, s.compression)
	if err != nil {
		return fmt.Errorf("write record %s: %w", path, err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO records (path, compression, size, digest, data)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			compression = excluded.compression,
			size = excluded.size,
			digest = excluded.digest,
			data = excluded.data
	`,
		CleanPath(path),
		tag,
		len(data),
		Digest(data),
		stored,
	)
	if err != nil {
		return fmt.Errorf("write record %s: %w", path, err)
	}
	return nil
}

func (s *SQLite) List(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM records ORDER BY path ASC`)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	defer rows.Close()

	var paths []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("list records: %w", err)
		}
		paths = append(paths, p)
	}
	return paths, rows.Err()
}
