// Package sqlite implements storage.Store on a SQLite file: each bucket is a
// row of the buckets table and each record a row of records(bucket, id, data).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"familyfinance/internal/storage"
)

type Store struct {
	db *sql.DB
	// SQLite allows one writer; serialising here avoids SQLITE_BUSY between our own goroutines
	writeMu sync.Mutex
}

var _ storage.Store = (*Store)(nil)

// DSN returns the connection string used for path, with WAL and a busy timeout
func DSN(path string) string {
	return path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
}

func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	dsn := DSN(path)
	if err := RunMigrations(dsn); err != nil {
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) View(ctx context.Context, fn func(storage.Tx) error) error {
	return s.run(ctx, false, fn)
}

func (s *Store) Update(ctx context.Context, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	return s.run(ctx, true, fn)
}

func (s *Store) run(ctx context.Context, writable bool, fn func(storage.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}

	t := &tx{ctx: ctx, sqlTx: sqlTx, writable: writable}
	if err := fn(t); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if !writable {
		return sqlTx.Rollback()
	}
	if err := ctx.Err(); err != nil {
		_ = sqlTx.Rollback()
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func (s *Store) EnsureBuckets(ctx context.Context, names ...string) error {
	return s.Update(ctx, func(t storage.Tx) error {
		for _, name := range names {
			if _, err := t.(*tx).sqlTx.ExecContext(ctx,
				`INSERT INTO buckets (name) VALUES (?) ON CONFLICT(name) DO NOTHING`, name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	})
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

type tx struct {
	ctx      context.Context
	sqlTx    *sql.Tx
	writable bool
}

func (t *tx) Bucket(name string) (storage.Bucket, error) {
	var one int
	err := t.sqlTx.QueryRowContext(t.ctx, `SELECT 1 FROM buckets WHERE name = ?`, name).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", storage.ErrBucketNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("lookup bucket %s: %w", name, err)
	}
	return &bucket{tx: t, name: name}, nil
}

type bucket struct {
	tx   *tx
	name string
}

func (b *bucket) Get(key string) ([]byte, error) {
	var data []byte
	err := b.tx.sqlTx.QueryRowContext(b.tx.ctx,
		`SELECT data FROM records WHERE bucket = ? AND id = ?`, b.name, key).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", b.name, key, err)
	}
	return data, nil
}

func (b *bucket) Put(key string, value []byte) error {
	if !b.tx.writable {
		return storage.ErrTxReadOnly
	}
	if value == nil {
		value = []byte{}
	}
	_, err := b.tx.sqlTx.ExecContext(b.tx.ctx,
		`INSERT INTO records (bucket, id, data) VALUES (?, ?, ?)
		 ON CONFLICT(bucket, id) DO UPDATE SET data = excluded.data`, b.name, key, value)
	if err != nil {
		return fmt.Errorf("put %s/%s: %w", b.name, key, err)
	}
	return nil
}

func (b *bucket) Delete(key string) error {
	if !b.tx.writable {
		return storage.ErrTxReadOnly
	}
	if _, err := b.tx.sqlTx.ExecContext(b.tx.ctx,
		`DELETE FROM records WHERE bucket = ? AND id = ?`, b.name, key); err != nil {
		return fmt.Errorf("delete %s/%s: %w", b.name, key, err)
	}
	return nil
}

type row struct {
	id   string
	data []byte
}

func (b *bucket) ForEach(fn func(key string, value []byte) error) error {
	rows, err := b.tx.sqlTx.QueryContext(b.tx.ctx,
		`SELECT id, data FROM records WHERE bucket = ? ORDER BY id`, b.name)
	if err != nil {
		return fmt.Errorf("scan %s: %w", b.name, err)
	}

	// Drain first so fn may issue its own queries on the transaction
	var all []row
	for rows.Next() {
		var r row
		if err := rows.Scan(&r.id, &r.data); err != nil {
			rows.Close()
			return fmt.Errorf("scan %s: %w", b.name, err)
		}
		all = append(all, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return fmt.Errorf("scan %s: %w", b.name, err)
	}
	rows.Close()

	for _, r := range all {
		if err := b.tx.ctx.Err(); err != nil {
			return err
		}
		if err := fn(r.id, r.data); err != nil {
			return err
		}
	}
	return nil
}
