package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/base64"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/talentscout/screener/internal/crypto"

	"go.uber.org/zap"
)

func newTestStore(t *testing.T) (*SQLiteStore, *crypto.Cipher, string) {
	t.Helper()

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		t.Fatalf("generating key: %v", err)
	}
	cipher, err := crypto.NewCipher(base64.URLEncoding.EncodeToString(raw))
	if err != nil {
		t.Fatalf("creating cipher: %v", err)
	}

	path := filepath.Join(t.TempDir(), "candidates.db")
	s, err := NewSQLite(path, cipher, zap.NewNop())
	if err != nil {
		t.Fatalf("creating store: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	return s, cipher, path
}

func sampleRecord() *Record {
	now := time.Now()
	return &Record{
		SessionID:       "session-1",
		Name:            "Alice Smith",
		Phone:           "+14155552671",
		Email:           "alice.smith@example.com",
		Location:        "San Francisco, USA",
		YearsExperience: 4,
		DesiredPosition: "Backend Developer",
		TechStack:       []string{"Python", "Go"},
		Assessment: map[string][]QA{
			"Python": {{Question: "Explain the GIL.", Answer: "It serializes bytecode execution.", FollowUpAsked: true}},
			"Go":     {{Question: "Explain goroutines.", Answer: "Lightweight threads."}},
		},
		Status:      StatusCompleted,
		CreatedAt:   now.Add(-10 * time.Minute),
		CompletedAt: now,
	}
}

func TestPersistEncryptsPII(t *testing.T) {
	s, cipher, path := newTestStore(t)

	record := sampleRecord()
	id, err := s.Persist(context.Background(), record)
	if err != nil {
		t.Fatalf("persist: %v", err)
	}
	if id == "" {
		t.Fatal("expected a record id")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	defer db.Close()

	var name, phone, email, location string
	row := db.QueryRow("SELECT name, phone_number, email, current_location FROM candidates WHERE session_id = ?", record.SessionID)
	if err := row.Scan(&name, &phone, &email, &location); err != nil {
		t.Fatalf("scan: %v", err)
	}

	if name != record.Name {
		t.Fatalf("name stored as %q, want plaintext %q", name, record.Name)
	}

	if phone == record.Phone || email == record.Email || location == record.Location {
		t.Fatal("PII stored in plaintext")
	}

	for token, want := range map[string]string{
		phone:    record.Phone,
		email:    record.Email,
		location: record.Location,
	} {
		got, err := cipher.Decrypt(token)
		if err != nil {
			t.Fatalf("decrypt: %v", err)
		}
		if got != want {
			t.Fatalf("decrypted %q, want %q", got, want)
		}
	}
}

func TestPersistIsIdempotentForSession(t *testing.T) {
	s, _, _ := newTestStore(t)

	record := sampleRecord()
	record.Status = StatusPartial

	firstID, err := s.Persist(context.Background(), record)
	if err != nil {
		t.Fatalf("first persist: %v", err)
	}

	record.Status = StatusCompleted
	record.Assessment["Go"] = append(record.Assessment["Go"], QA{Question: "Explain select.", Answer: "Waits on channels."})

	secondID, err := s.Persist(context.Background(), record)
	if err != nil {
		t.Fatalf("second persist: %v", err)
	}

	if firstID != secondID {
		t.Fatalf("expected stable record id, got %q then %q", firstID, secondID)
	}

	var count int
	row := s.db.QueryRow("SELECT COUNT(*) FROM candidates")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}

	var status string
	row = s.db.QueryRow("SELECT status FROM candidates WHERE session_id = ?", record.SessionID)
	if err := row.Scan(&status); err != nil {
		t.Fatalf("status: %v", err)
	}
	if status != StatusCompleted {
		t.Fatalf("expected upserted status, got %q", status)
	}
}

func TestStoreAppliesConnectionPragmas(t *testing.T) {
	s, _, _ := newTestStore(t)

	var mode string
	if err := s.db.QueryRow("PRAGMA journal_mode").Scan(&mode); err != nil {
		t.Fatalf("journal_mode: %v", err)
	}
	if !strings.EqualFold(mode, "wal") {
		t.Fatalf("expected WAL journal mode, got %q", mode)
	}

	var timeout int
	if err := s.db.QueryRow("PRAGMA busy_timeout").Scan(&timeout); err != nil {
		t.Fatalf("busy_timeout: %v", err)
	}
	if timeout != 5000 {
		t.Fatalf("expected 5000ms busy timeout, got %d", timeout)
	}
}

func TestPersistRequiresSessionID(t *testing.T) {
	s, _, _ := newTestStore(t)

	record := sampleRecord()
	record.SessionID = "  "

	if _, err := s.Persist(context.Background(), record); err == nil {
		t.Fatal("expected error for missing session id")
	}
}
