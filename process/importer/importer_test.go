package importer_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"finapi/pkg/ledger"
	"finapi/pkg/ledger/memory"
	"finapi/process/importer"
)

func TestParseBatch(t *testing.T) {
	in := `[{"user_id":"u1","amount":"10.50","description":"top up"},
	        {"user_id":"u2","amount":25,"description":"salary"}]`
	entries, err := importer.ParseBatch(strings.NewReader(in))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries got %d", len(entries))
	}
	if !entries[0].Amount.Equal(decimal.RequireFromString("10.50")) {
		t.Fatalf("expected 10.50 got %s", entries[0].Amount)
	}
}

func TestParseBatchRejectsMissingUser(t *testing.T) {
	in := `[{"user_id":"","amount":"10","description":"x"}]`
	if _, err := importer.ParseBatch(strings.NewReader(in)); err == nil {
		t.Fatal("expected error for missing user_id")
	}
}

func TestParseBatchRejectsGarbage(t *testing.T) {
	if _, err := importer.ParseBatch(strings.NewReader("not json")); err == nil {
		t.Fatal("expected error for invalid json")
	}
}

func TestProcessFileAppliesAndMoves(t *testing.T) {
	store := memory.NewStore()
	svc := ledger.NewService(store, nil, nil)
	user := store.AddUser("A", "a@example.com")

	dir := t.TempDir()
	path := filepath.Join(dir, "batch1.json")
	content := `[{"user_id":"` + user + `","amount":"150","description":"import"}]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write batch: %v", err)
	}

	im := importer.New(svc, nil)
	applied, rejected, err := im.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if applied != 1 || rejected != 0 {
		t.Fatalf("expected 1 applied got applied=%d rejected=%d", applied, rejected)
	}
	balance, _, err := svc.GetBalance(context.Background(), user)
	if err != nil {
		t.Fatalf("get balance: %v", err)
	}
	if !balance.Equal(decimal.RequireFromString("150")) {
		t.Fatalf("expected balance 150 got %s", balance)
	}
	if _, err := os.Stat(filepath.Join(dir, "done", "batch1.json")); err != nil {
		t.Fatalf("batch not moved to done/: %v", err)
	}
}

func TestProcessFileRejectedEntriesGoToFailed(t *testing.T) {
	store := memory.NewStore()
	svc := ledger.NewService(store, nil, nil)
	user := store.AddUser("A", "a@example.com")

	dir := t.TempDir()
	path := filepath.Join(dir, "batch2.json")
	content := `[{"user_id":"` + user + `","amount":"10","description":"ok"},
	             {"user_id":"missing-user","amount":"10","description":"bad"}]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write batch: %v", err)
	}

	im := importer.New(svc, nil)
	applied, rejected, err := im.ProcessFile(context.Background(), path)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if applied != 1 || rejected != 1 {
		t.Fatalf("expected 1/1 got applied=%d rejected=%d", applied, rejected)
	}
	if _, err := os.Stat(filepath.Join(dir, "failed", "batch2.json")); err != nil {
		t.Fatalf("batch not moved to failed/: %v", err)
	}
}
