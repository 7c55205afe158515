package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"feedrelay/internal/application/port"
	"feedrelay/internal/domain"
)

type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS quotes (
  id BIGSERIAL PRIMARY KEY,
  asset_id TEXT NOT NULL,
  source TEXT NOT NULL,
  price NUMERIC(78, 0) NOT NULL,
  decimals SMALLINT NOT NULL,
  observed_at BIGINT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
  UNIQUE(asset_id, source, observed_at)
);
CREATE INDEX IF NOT EXISTS idx_quotes_asset ON quotes(asset_id, observed_at);

CREATE TABLE IF NOT EXISTS relay_log (
  id BIGSERIAL PRIMARY KEY,
  asset_id TEXT NOT NULL,
  source TEXT NOT NULL,
  adapter TEXT NOT NULL,
  price NUMERIC(78, 0) NOT NULL,
  observed_at BIGINT NOT NULL,
  tx_hash TEXT NOT NULL,
  status TEXT NOT NULL,
  error TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_relay_log_asset ON relay_log(asset_id, created_at);
`)
	return err
}

func (r *Repo) SaveQuotes(ctx context.Context, quotes []domain.PriceQuote) error {
	if len(quotes) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, q := range quotes {
		_, err := tx.ExecContext(ctx, `
INSERT INTO quotes(asset_id, source, price, decimals, observed_at)
VALUES($1, $2, $3, $4, $5)
ON CONFLICT (asset_id, source, observed_at) DO NOTHING`,
			q.InstrumentID, string(q.Source), q.Price.String(), int(q.Decimals), q.ObservedAt)
		if err != nil {
			return fmt.Errorf("insert quote %s/%s: %w", q.InstrumentID, q.Source, err)
		}
	}
	return tx.Commit()
}

func (r *Repo) RecordRelay(ctx context.Context, rec domain.RelayRecord) error {
	at := rec.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO relay_log(asset_id, source, adapter, price, observed_at, tx_hash, status, error, created_at)
VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.AssetID, string(rec.Source), rec.Adapter, rec.Price, rec.ObservedAt,
		rec.TxHash, string(rec.Status), rec.Error, at)
	return err
}

var _ port.QuoteRepository = (*Repo)(nil)
