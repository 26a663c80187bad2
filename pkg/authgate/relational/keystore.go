// Package relational provides the database-backed API keystore.
//
// It shares the bounded connection pool of the relational metadata store
// when both are configured against the same database.
package relational

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	_ "github.com/mattn/go-sqlite3"    // registers the "sqlite3" driver

	"github.com/lexfindco/lexfind/pkg/authgate"
)

// Keystore implements authgate.Gate and authgate.UsageRecorder over
// database/sql ("sqlite3" or "pgx").
type Keystore struct {
	db     *sql.DB
	driver string
	logger *slog.Logger

	// ownsDB marks pools opened by Open rather than shared via New.
	ownsDB bool
}

// New wraps an existing pool (e.g. the relational metadata store's).
func New(ctx context.Context, db *sql.DB, driver string, logger *slog.Logger) (*Keystore, error) {
	ks := &Keystore{db: db, driver: driver, logger: logger}
	if err := ks.migrate(ctx); err != nil {
		return nil, err
	}
	return ks, nil
}

// Open opens a dedicated pool for the keystore. Used when the metadata
// store is the static variant and no database is otherwise open.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*Keystore, error) {
	switch driver {
	case "sqlite3", "pgx":
	default:
		return nil, fmt.Errorf("unsupported keystore driver: %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening keystore database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging keystore database: %w", err)
	}

	ks, err := New(ctx, db, driver, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	ks.ownsDB = true
	return ks, nil
}

func (k *Keystore) migrate(ctx context.Context) error {
	var keys, usage string
	if k.driver == "pgx" {
		keys = `
			CREATE TABLE IF NOT EXISTS api_keys (
				id BIGSERIAL PRIMARY KEY,
				key TEXT NOT NULL UNIQUE,
				owner TEXT NOT NULL,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`
		usage = `
			CREATE TABLE IF NOT EXISTS usage_logs (
				id BIGSERIAL PRIMARY KEY,
				api_key_id BIGINT NOT NULL REFERENCES api_keys(id),
				endpoint TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT now()
			)`
	} else {
		keys = `
			CREATE TABLE IF NOT EXISTS api_keys (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				key TEXT NOT NULL UNIQUE,
				owner TEXT NOT NULL,
				active BOOLEAN NOT NULL DEFAULT TRUE,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`
		usage = `
			CREATE TABLE IF NOT EXISTS usage_logs (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				api_key_id INTEGER NOT NULL REFERENCES api_keys(id),
				endpoint TEXT NOT NULL,
				created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`
	}

	if _, err := k.db.ExecContext(ctx, keys); err != nil {
		return fmt.Errorf("creating api_keys table: %w", err)
	}
	if _, err := k.db.ExecContext(ctx, usage); err != nil {
		return fmt.Errorf("creating usage_logs table: %w", err)
	}
	return nil
}

// Validate looks up the key and returns its record when active.
func (k *Keystore) Validate(ctx context.Context, key string) (*authgate.APIKey, error) {
	row := k.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT id, key, owner, active, created_at
		FROM api_keys
		WHERE key = %s
	`, k.placeholder(1)), key)

	var rec authgate.APIKey
	err := row.Scan(&rec.ID, &rec.Key, &rec.Owner, &rec.Active, &rec.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, authgate.ErrInvalidKey
	}
	if err != nil {
		return nil, fmt.Errorf("looking up API key: %w", err)
	}
	if !rec.Active {
		return nil, authgate.ErrInvalidKey
	}
	return &rec, nil
}

// RecordUsage appends one usage log row for the validated key.
func (k *Keystore) RecordUsage(ctx context.Context, keyID int64, endpoint string) error {
	_, err := k.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO usage_logs (api_key_id, endpoint) VALUES (%s, %s)
	`, k.placeholder(1), k.placeholder(2)), keyID, endpoint)
	if err != nil {
		return fmt.Errorf("recording usage: %w", err)
	}
	return nil
}

// CreateKey mints a new random key for owner and stores it active.
func (k *Keystore) CreateKey(ctx context.Context, owner string) (string, error) {
	if owner == "" {
		return "", errors.New("key owner is required")
	}

	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating key: %w", err)
	}
	key := hex.EncodeToString(raw)

	_, err := k.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO api_keys (key, owner) VALUES (%s, %s)
	`, k.placeholder(1), k.placeholder(2)), key, owner)
	if err != nil {
		return "", fmt.Errorf("storing key: %w", err)
	}

	k.logger.Info("API key created", "owner", owner)
	return key, nil
}

// DeactivateKey marks the key inactive. Unknown keys fail with ErrInvalidKey.
func (k *Keystore) DeactivateKey(ctx context.Context, key string) error {
	res, err := k.db.ExecContext(ctx, fmt.Sprintf(`
		UPDATE api_keys SET active = FALSE WHERE key = %s
	`, k.placeholder(1)), key)
	if err != nil {
		return fmt.Errorf("deactivating key: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("deactivating key: %w", err)
	}
	if n == 0 {
		return authgate.ErrInvalidKey
	}

	k.logger.Info("API key deactivated")
	return nil
}

// ListKeys returns all keys, newest first.
func (k *Keystore) ListKeys(ctx context.Context) ([]authgate.APIKey, error) {
	rows, err := k.db.QueryContext(ctx, `
		SELECT id, key, owner, active, created_at
		FROM api_keys
		ORDER BY created_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing keys: %w", err)
	}
	defer rows.Close()

	var keys []authgate.APIKey
	for rows.Next() {
		var rec authgate.APIKey
		if err := rows.Scan(&rec.ID, &rec.Key, &rec.Owner, &rec.Active, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning key: %w", err)
		}
		keys = append(keys, rec)
	}
	return keys, rows.Err()
}

// UsageEntry is one recorded access.
type UsageEntry struct {
	ID        int64     `json:"id"`
	APIKeyID  int64     `json:"api_key_id"`
	Endpoint  string    `json:"endpoint"`
	CreatedAt time.Time `json:"created_at"`
}

// Usage returns recorded accesses, newest first, up to limit (0 = all).
func (k *Keystore) Usage(ctx context.Context, limit int) ([]UsageEntry, error) {
	query := `
		SELECT id, api_key_id, endpoint, created_at
		FROM usage_logs
		ORDER BY created_at DESC, id DESC
	`
	if limit > 0 {
		query += " LIMIT " + strconv.Itoa(limit)
	}

	rows, err := k.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("listing usage: %w", err)
	}
	defer rows.Close()

	var entries []UsageEntry
	for rows.Next() {
		var e UsageEntry
		if err := rows.Scan(&e.ID, &e.APIKeyID, &e.Endpoint, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning usage entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Close releases the pool only when this keystore opened it.
func (k *Keystore) Close() error {
	if !k.ownsDB {
		return nil
	}
	return k.db.Close()
}

func (k *Keystore) placeholder(n int) string {
	if k.driver == "pgx" {
		return "$" + strconv.Itoa(n)
	}
	return "?"
}

var (
	_ authgate.Gate          = (*Keystore)(nil)
	_ authgate.UsageRecorder = (*Keystore)(nil)
)
