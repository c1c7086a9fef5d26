package main

import (
	"bytes"
	"context"
	"encoding/json"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/janisto/subscriber-pipeline/internal/service/store"
)

func memoryOpener(s *store.MemoryStore) opener {
	return func(context.Context) (store.RecordStore, func() error, error) {
		return s, func() error { return nil }, nil
	}
}

func runCmd(t *testing.T, s *store.MemoryStore, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(memoryOpener(s), &out)
	root.SetArgs(args)
	root.SetErr(&out)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestSeedSkipsStoredEmails(t *testing.T) {
	s := store.NewMemoryStore(store.Record{Name: "john", Email: "john.smith@example.com"})
	now := time.Date(2024, 6, 30, 12, 0, 0, 0, time.Local)

	added, err := seed(context.Background(), s, now, 30, rand.New(rand.NewPCG(1, 2)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if added != len(demoSubscribers)-1 {
		t.Fatalf("expected %d added, got %d", len(demoSubscribers)-1, added)
	}

	rows, _ := s.Rows(context.Background())
	earliest := now.Add(-30 * 24 * time.Hour).Format("2006-01-02")
	for _, r := range rows[1:] {
		if r.Email != strings.ToLower(r.Email) || r.Country != strings.ToLower(r.Country) {
			t.Errorf("expected normalized row, got %+v", r)
		}
		if r.Timestamp[:10] < earliest || r.Timestamp[:10] > "2024-06-30" {
			t.Errorf("timestamp %s outside seed window", r.Timestamp)
		}
		if !strings.HasPrefix(r.IPAddress, "192.168.") {
			t.Errorf("unexpected ip %s", r.IPAddress)
		}
	}

	again, err := seed(context.Background(), s, now, 30, rand.New(rand.NewPCG(1, 2)))
	if err != nil || again != 0 {
		t.Fatalf("expected reseed to add nothing, got %d, %v", again, err)
	}
}

func TestSeedRejectsBadDays(t *testing.T) {
	if _, err := seed(context.Background(), store.NewMemoryStore(), time.Now(), 0, rand.New(rand.NewPCG(1, 2))); err == nil {
		t.Fatal("expected error for zero days")
	}
}

func TestSetupRequiresConfirmation(t *testing.T) {
	s := store.NewMemoryStore(store.Record{Email: "a@example.com"})

	if _, err := runCmd(t, s, "setup"); err == nil {
		t.Fatal("expected setup without --yes to fail")
	}
	if rows, _ := s.Rows(context.Background()); len(rows) != 1 {
		t.Fatal("expected rows untouched without confirmation")
	}

	out, err := runCmd(t, s, "setup", "--yes")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rows, _ := s.Rows(context.Background()); len(rows) != 0 {
		t.Fatalf("expected empty store, got %d rows", len(rows))
	}
	if !strings.Contains(out, "store initialized") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestExportJSON(t *testing.T) {
	s := store.NewMemoryStore(store.Record{Name: "jane", Email: "jane@example.com", Latitude: 37.4})

	out, err := runCmd(t, s, "export")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got []exportRecord
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("json unmarshal: %v: %s", err, out)
	}
	if len(got) != 1 || got[0].Email != "jane@example.com" || got[0].Latitude != 37.4 {
		t.Fatalf("unexpected export %+v", got)
	}
}

func TestExportParquet(t *testing.T) {
	s := store.NewMemoryStore(
		store.Record{Name: "jane", Email: "jane@example.com", City: "helsinki"},
		store.Record{Name: "bob", Email: "bob@example.com", City: "espoo"},
	)
	path := filepath.Join(t.TempDir(), "subscribers.parquet")

	if _, err := runCmd(t, s, "export", "--format", "parquet", "--out", path); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open export: %v", err)
	}
	defer f.Close()

	reader := parquet.NewReader(f)
	defer reader.Close()
	var got []exportRecord
	for {
		var r exportRecord
		if err := reader.Read(&r); err != nil {
			break
		}
		got = append(got, r)
	}
	if len(got) != 2 || got[1].City != "espoo" {
		t.Fatalf("unexpected parquet rows %+v", got)
	}
}

func TestExportRejectsUnknownFormat(t *testing.T) {
	if _, err := runCmd(t, store.NewMemoryStore(), "export", "--format", "csv"); err == nil {
		t.Fatal("expected error for csv")
	}
	if _, err := runCmd(t, store.NewMemoryStore(), "export", "--format", "parquet"); err == nil {
		t.Fatal("expected error for parquet without --out")
	}
}
