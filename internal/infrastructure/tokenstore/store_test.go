package tokenstore

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aimlgloss/glossary-go/internal/domain/entities/session"
	"github.com/aimlgloss/glossary-go/internal/infrastructure/observability/logging"
)

const testAESKey = "000102030405060708090a0b0c0d0e0f"

func newTestStore(t *testing.T, aesKey string) *Store {
	t.Helper()
	s, err := New(t.TempDir(), aesKey, logging.NewTestLogger())
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	return s
}

func sampleRecord() *session.TokenRecord {
	return &session.TokenRecord{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		UserID:       "user-1",
		Email:        "ada@example.com",
	}
}

func TestSaveThenLoad(t *testing.T) {
	s := newTestStore(t, testAESKey)
	s.Save("user-1", sampleRecord())

	got := s.Load("user-1")
	if got == nil {
		t.Fatal("expected a record")
	}
	if got.AccessToken != "access-token" || got.UserID != "user-1" {
		t.Fatalf("record = %+v", got)
	}
	if !got.ExpiresAt.Equal(sampleRecord().ExpiresAt) {
		t.Fatalf("expiry = %v", got.ExpiresAt)
	}
}

func TestLoadMissingReturnsNil(t *testing.T) {
	s := newTestStore(t, testAESKey)
	if got := s.Load("nobody"); got != nil {
		t.Fatalf("expected nil, got %+v", got)
	}
}

func TestCorruptRecordTreatedAsAbsent(t *testing.T) {
	dir := t.TempDir()
	s, err := New(dir, "", logging.NewTestLogger())
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}

	var cleared []string
	s.OnClear(func(key string) { cleared = append(cleared, key) })

	path := filepath.Join(dir, "user-1.token")
	if err := os.WriteFile(path, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("writing corrupt file: %v", err)
	}

	if got := s.Load("user-1"); got != nil {
		t.Fatalf("corrupt record must load as nil, got %+v", got)
	}
	if len(cleared) != 1 || cleared[0] != "user-1" {
		t.Fatalf("clear callback = %v", cleared)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("corrupt file must be removed")
	}
}

func TestUndecryptableRecordTreatedAsAbsent(t *testing.T) {
	s := newTestStore(t, testAESKey)
	// Written unencrypted, so decryption fails.
	path := filepath.Join(s.dir, "user-1.token")
	if err := os.WriteFile(path, []byte(`{"accessToken":"x"}`), 0o600); err != nil {
		t.Fatalf("writing file: %v", err)
	}
	if got := s.Load("user-1"); got != nil {
		t.Fatalf("undecryptable record must load as nil, got %+v", got)
	}
}

func TestClear(t *testing.T) {
	s := newTestStore(t, testAESKey)
	s.Save("user-1", sampleRecord())
	s.Clear("user-1")
	if got := s.Load("user-1"); got != nil {
		t.Fatal("record must be gone after Clear")
	}
	// Clearing again is a no-op.
	s.Clear("user-1")
}

func TestKeySanitization(t *testing.T) {
	s := newTestStore(t, testAESKey)
	s.Save("../../../etc/passwd", sampleRecord())
	if got := s.Load("../../../etc/passwd"); got == nil {
		t.Fatal("sanitized key must round-trip")
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one flat file, got %d entries", len(entries))
	}
}
