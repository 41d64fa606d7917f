// Package sqlite stores the client session in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aussiebroadwan/eas/internal/session"
	"github.com/aussiebroadwan/eas/pkg/cryptox"
	"github.com/aussiebroadwan/eas/pkg/slogx"
	_ "modernc.org/sqlite"
)

const sealerInfo = "eas session credential"

// Store implements session.Store on a single client_state table. The
// credential is sealed before it is written; the user record is stored as
// JSON.
type Store struct {
	db     *sql.DB
	sealer *cryptox.Sealer
	dsn    string
	schema uint
}

var _ session.Store = (*Store)(nil)

// NewStore opens the database at dsn. Call ApplyMigrations before use.
func NewStore(dsn string, keyMaterial []byte) (*Store, error) {
	sealer, err := cryptox.NewSealer(keyMaterial, sealerInfo)
	if err != nil {
		return nil, err
	}

	if err := ensureDir(dsn); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}

	// A CLI process needs one connection; this also serialises writers
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(context.Background(), `PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Store{
		db:     db,
		sealer: sealer,
		dsn:    dsn,
	}, nil
}

// ensureDir creates the parent directory of a plain file path. In-memory
// databases and file: URIs are left alone.
func ensureDir(dsn string) error {
	if dsn == "" || dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(dsn), 0o700); err != nil {
		return fmt.Errorf("failed to create database directory: %w", err)
	}
	return nil
}

// Open is NewStore followed by ApplyMigrations.
func Open(dsn string, keyMaterial []byte) (*Store, error) {
	s, err := NewStore(dsn, keyMaterial)
	if err != nil {
		return nil, err
	}
	version, err := s.ApplyMigrations()
	if err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}
	s.schema = version
	return s, nil
}

// SchemaVersion is the schema version reached by Open, 0 before migrating.
func (s *Store) SchemaVersion() uint { return s.schema }

func (s *Store) Close() error { return s.db.Close() }

// Ping verifies the database connection is still alive.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// WithTx executes fn within a transaction, automatically handling commit/rollback.
func (s *Store) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback() // safe to call even after commit
	}()

	if err := fn(tx); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) Save(ctx context.Context, sess session.Session) error {
	values, err := session.Encode(sess)
	if err != nil {
		return err
	}

	sealed, err := s.sealer.Seal([]byte(values[session.KeyToken]))
	if err != nil {
		return err
	}

	rows := map[string][]byte{
		session.KeyToken: sealed,
		session.KeyUser:  []byte(values[session.KeyUser]),
	}

	now := time.Now().UTC()
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		for key, value := range rows {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO client_state (key, value, updated_at) VALUES (?, ?, ?)
				ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
				key, value, now,
			)
			if err != nil {
				return fmt.Errorf("failed to save %s: %w", key, err)
			}
		}
		return nil
	})
}

func (s *Store) Load(ctx context.Context) (session.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT key, value FROM client_state WHERE key IN (?, ?)`,
		session.KeyToken, session.KeyUser,
	)
	if err != nil {
		return session.Session{}, fmt.Errorf("failed to load session: %w", err)
	}
	defer rows.Close()

	raw := map[string][]byte{}
	for rows.Next() {
		var key string
		var value []byte
		if err := rows.Scan(&key, &value); err != nil {
			return session.Session{}, fmt.Errorf("failed to scan session row: %w", err)
		}
		raw[key] = value
	}
	if err := rows.Err(); err != nil {
		return session.Session{}, fmt.Errorf("failed to load session: %w", err)
	}

	sess, err := s.decode(raw)
	if err != nil {
		slogx.FromContext(ctx).Debug("discarding stored session", "reason", err)
		if err := s.Clear(ctx); err != nil {
			return session.Session{}, err
		}
		return session.Session{}, nil
	}

	return sess, nil
}

func (s *Store) Clear(ctx context.Context) error {
	return s.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`DELETE FROM client_state WHERE key IN (?, ?)`,
			session.KeyToken, session.KeyUser,
		)
		if err != nil {
			return fmt.Errorf("failed to clear session: %w", err)
		}
		return nil
	})
}

func (s *Store) decode(raw map[string][]byte) (session.Session, error) {
	values := map[string]string{
		session.KeyUser: string(raw[session.KeyUser]),
	}

	if sealed, ok := raw[session.KeyToken]; ok {
		token, err := s.sealer.Open(sealed)
		if err != nil {
			if errors.Is(err, cryptox.ErrOpen) {
				return session.Session{}, session.ErrMalformed
			}
			return session.Session{}, err
		}
		values[session.KeyToken] = string(token)
	}

	return session.Decode(values)
}
