package sqlite

import (
	"context"
	"math/big"
	"os"
	"testing"
	"time"

	"feedrelay/internal/domain"
)

func TestSQLiteRepoSaveQuotes(t *testing.T) {
	dbPath := "test.db"
	defer os.Remove(dbPath)

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	gold := domain.InstrumentID("XAU")
	quotes := []domain.PriceQuote{
		domain.NewQuote(gold, domain.SourcePyth, big.NewInt(200000000000), 1700000000),
		domain.NewQuote(gold, domain.SourceDIA, big.NewInt(201000000000), 1700000000),
	}
	if err := repo.SaveQuotes(ctx, quotes); err != nil {
		t.Fatalf("SaveQuotes failed: %v", err)
	}
	// same observation again is ignored
	if err := repo.SaveQuotes(ctx, quotes[:1]); err != nil {
		t.Fatalf("SaveQuotes (dup) failed: %v", err)
	}

	var count int
	if err := repo.GetDB().QueryRowContext(ctx, `SELECT COUNT(*) FROM quotes WHERE asset_id = ?`, gold).Scan(&count); err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Errorf("expected 2 quotes, got %d", count)
	}

	var price string
	if err := repo.GetDB().QueryRowContext(ctx, `SELECT price FROM quotes WHERE source = 'dia'`).Scan(&price); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if price != "201000000000" {
		t.Errorf("expected exact integer price, got %s", price)
	}
}

func TestSQLiteRepoRecordRelay(t *testing.T) {
	dbPath := "test_relay.db"
	defer os.Remove(dbPath)

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	defer repo.Close()

	ctx := context.Background()
	rec := domain.RelayRecord{
		AssetID:    domain.InstrumentID("XAU"),
		Source:     domain.SourcePyth,
		Adapter:    "0x00000000000000000000000000000000000000a1",
		Price:      "200500000000",
		ObservedAt: 1700000000,
		TxHash:     "0xabc",
		Status:     domain.RelayUnconfirmed,
		At:         time.Unix(1700000005, 0),
	}
	if err := repo.RecordRelay(ctx, rec); err != nil {
		t.Fatalf("RecordRelay failed: %v", err)
	}

	var status, tx string
	if err := repo.GetDB().QueryRowContext(ctx, `SELECT status, tx_hash FROM relay_log`).Scan(&status, &tx); err != nil {
		t.Fatalf("select failed: %v", err)
	}
	if status != "unconfirmed" || tx != "0xabc" {
		t.Errorf("unexpected row: status=%s tx=%s", status, tx)
	}
}

func TestSQLiteRepoSaveNothing(t *testing.T) {
	dbPath := "test_empty.db"
	defer os.Remove(dbPath)

	repo, err := New(dbPath)
	if err != nil {
		t.Fatalf("failed to create repo: %v", err)
	}
	defer repo.Close()

	if err := repo.SaveQuotes(context.Background(), nil); err != nil {
		t.Fatalf("SaveQuotes(nil) failed: %v", err)
	}
}
