package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"feedrelay/internal/application/port"
	"feedrelay/internal/domain"
)

type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) GetDB() *sql.DB {
	return r.db
}

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS quotes (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  asset_id TEXT NOT NULL,
  source TEXT NOT NULL,
  price TEXT NOT NULL,
  decimals INTEGER NOT NULL,
  observed_at INTEGER NOT NULL,
  created_at INTEGER NOT NULL,
  UNIQUE(asset_id, source, observed_at)
);
CREATE INDEX IF NOT EXISTS idx_quotes_asset ON quotes(asset_id, observed_at);

CREATE TABLE IF NOT EXISTS relay_log (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  asset_id TEXT NOT NULL,
  source TEXT NOT NULL,
  adapter TEXT NOT NULL,
  price TEXT NOT NULL,
  observed_at INTEGER NOT NULL,
  tx_hash TEXT NOT NULL,
  status TEXT NOT NULL,
  error TEXT NOT NULL,
  created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_relay_log_asset ON relay_log(asset_id, created_at);
`)
	return err
}

// SaveQuotes appends quotes to history; a quote already stored for the same observation is ignored.
func (r *Repo) SaveQuotes(ctx context.Context, quotes []domain.PriceQuote) error {
	if len(quotes) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
INSERT OR IGNORE INTO quotes(asset_id, source, price, decimals, observed_at, created_at)
VALUES(?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().UnixMilli()
	for _, q := range quotes {
		if _, err := stmt.ExecContext(ctx, q.InstrumentID, string(q.Source), q.Price.String(), q.Decimals, q.ObservedAt, now); err != nil {
			return fmt.Errorf("insert quote %s/%s: %w", q.InstrumentID, q.Source, err)
		}
	}
	return tx.Commit()
}

func (r *Repo) RecordRelay(ctx context.Context, rec domain.RelayRecord) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO relay_log(asset_id, source, adapter, price, observed_at, tx_hash, status, error, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.AssetID, string(rec.Source), rec.Adapter, rec.Price, rec.ObservedAt,
		rec.TxHash, string(rec.Status), rec.Error, rec.At.UnixMilli())
	return err
}

var _ port.QuoteRepository = (*Repo)(nil)
