package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tslaglobal/backend/internal/model"

	_ "github.com/glebarez/go-sqlite"
)

// LocalStore is the on-disk fallback for custom tokens and the rig catalog.
// It keeps serving reads when Redis is unreachable.
type LocalStore struct {
	db *sql.DB
}

// NewLocalStore opens (or creates) the SQLite file at path in WAL mode
func NewLocalStore(path string) (*LocalStore, error) {
	if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create local store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite: %w", err)
	}
	// sqlite allows a single writer
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma %s: %w", pragma, err)
		}
	}

	schema := []string{
		`CREATE TABLE IF NOT EXISTS custom_tokens (
			symbol TEXT PRIMARY KEY,
			payload TEXT NOT NULL,
			created_at INTEGER NOT NULL,
			updated_at INTEGER NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS mining_rigs (
			id TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			payload TEXT NOT NULL
		);`,
	}
	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return &LocalStore{db: db}, nil
}

func (s *LocalStore) Close() error {
	return s.db.Close()
}

// UpsertToken inserts or replaces a token by symbol
func (s *LocalStore) UpsertToken(ctx context.Context, token *model.CustomTokenConfig) error {
	payload, err := json.Marshal(token)
	if err != nil {
		return fmt.Errorf("failed to marshal token: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO custom_tokens (symbol, payload, created_at, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(symbol) DO UPDATE SET payload=excluded.payload, updated_at=excluded.updated_at`,
		strings.ToUpper(token.Symbol), string(payload), token.CreatedAt.UnixMilli(), time.Now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert token: %w", err)
	}
	return nil
}

// GetToken returns nil when the symbol is unknown
func (s *LocalStore) GetToken(ctx context.Context, symbol string) (*model.CustomTokenConfig, error) {
	var payload string
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM custom_tokens WHERE symbol = ?", strings.ToUpper(symbol)).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var token model.CustomTokenConfig
	if err := json.Unmarshal([]byte(payload), &token); err != nil {
		return nil, fmt.Errorf("failed to decode token %s: %w", symbol, err)
	}
	return &token, nil
}

// ListTokens returns every token, newest first
func (s *LocalStore) ListTokens(ctx context.Context) ([]*model.CustomTokenConfig, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT payload FROM custom_tokens ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*model.CustomTokenConfig
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var token model.CustomTokenConfig
		if err := json.Unmarshal([]byte(payload), &token); err != nil {
			continue
		}
		tokens = append(tokens, &token)
	}
	return tokens, rows.Err()
}

func (s *LocalStore) DeleteToken(ctx context.Context, symbol string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM custom_tokens WHERE symbol = ?", strings.ToUpper(symbol))
	return err
}

// ReplaceRigs overwrites the stored rig catalog
func (s *LocalStore) ReplaceRigs(ctx context.Context, rigs []model.MiningRig) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM mining_rigs"); err != nil {
		return err
	}
	for i, rig := range rigs {
		payload, err := json.Marshal(rig)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO mining_rigs (id, position, payload) VALUES (?, ?, ?)",
			rig.ID, i, string(payload),
		); err != nil {
			return fmt.Errorf("failed to insert rig %s: %w", rig.ID, err)
		}
	}
	return tx.Commit()
}

// ListRigs returns the stored rig catalog in its original order
func (s *LocalStore) ListRigs(ctx context.Context) ([]model.MiningRig, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT payload FROM mining_rigs ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("failed to query rigs: %w", err)
	}
	defer rows.Close()

	var rigs []model.MiningRig
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var rig model.MiningRig
		if err := json.Unmarshal([]byte(payload), &rig); err != nil {
			continue
		}
		rigs = append(rigs, rig)
	}
	return rigs, rows.Err()
}

// Stats returns row counts per table
func (s *LocalStore) Stats(ctx context.Context) (map[string]int64, error) {
	stats := make(map[string]int64, 2)
	for _, table := range []string{"custom_tokens", "mining_rigs"} {
		var n int64
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return nil, err
		}
		stats[table] = n
	}
	return stats, nil
}
