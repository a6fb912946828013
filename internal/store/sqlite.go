package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/talentscout/screener/internal/crypto"

	"github.com/google/uuid"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite with encrypted PII columns.
type SQLiteStore struct {
	db     *sql.DB
	cipher *crypto.Cipher
	logger *zap.Logger
}

// NewSQLite opens (or creates) the candidate database at dbPath.
func NewSQLite(dbPath string, cipher *crypto.Cipher, logger *zap.Logger) (*SQLiteStore, error) {
	if cipher == nil {
		return nil, fmt.Errorf("cipher is required")
	}

	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &SQLiteStore{db: db, cipher: cipher, logger: logger}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS candidates (
		session_id TEXT PRIMARY KEY,
		record_id TEXT NOT NULL,
		name TEXT NOT NULL,
		phone_number TEXT NOT NULL,
		email TEXT NOT NULL,
		current_location TEXT NOT NULL,
		experience_years INTEGER NOT NULL,
		desired_position TEXT NOT NULL,
		tech_stack TEXT NOT NULL,
		assessment_json TEXT NOT NULL,
		status TEXT NOT NULL,
		created_at TEXT NOT NULL,
		completed_at TEXT NOT NULL
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Persist upserts the record keyed by session id and returns the record id.
// Phone, email, and location are encrypted before the write; if encryption
// fails nothing is written.
func (s *SQLiteStore) Persist(ctx context.Context, record *Record) (string, error) {
	if record == nil {
		return "", fmt.Errorf("record is required")
	}
	if strings.TrimSpace(record.SessionID) == "" {
		return "", fmt.Errorf("record session id is required")
	}

	phone, err := s.cipher.Encrypt(record.Phone)
	if err != nil {
		return "", fmt.Errorf("%w: phone: %v", ErrEncryptionFailed, err)
	}
	email, err := s.cipher.Encrypt(record.Email)
	if err != nil {
		return "", fmt.Errorf("%w: email: %v", ErrEncryptionFailed, err)
	}
	location, err := s.cipher.Encrypt(record.Location)
	if err != nil {
		return "", fmt.Errorf("%w: location: %v", ErrEncryptionFailed, err)
	}

	assessment, err := json.Marshal(record.Assessment)
	if err != nil {
		return "", fmt.Errorf("marshal assessment: %w", err)
	}

	status := record.Status
	if status == "" {
		status = StatusCompleted
	}

	recordID := uuid.NewString()

	query := `
	INSERT INTO candidates
		(session_id, record_id, name, phone_number, email, current_location,
		 experience_years, desired_position, tech_stack, assessment_json,
		 status, created_at, completed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(session_id) DO UPDATE SET
		name = excluded.name,
		phone_number = excluded.phone_number,
		email = excluded.email,
		current_location = excluded.current_location,
		experience_years = excluded.experience_years,
		desired_position = excluded.desired_position,
		tech_stack = excluded.tech_stack,
		assessment_json = excluded.assessment_json,
		status = excluded.status,
		completed_at = excluded.completed_at
	`

	_, err = s.db.ExecContext(ctx, query,
		record.SessionID,
		recordID,
		record.Name,
		phone,
		email,
		location,
		record.YearsExperience,
		record.DesiredPosition,
		strings.Join(record.TechStack, ","),
		string(assessment),
		status,
		record.CreatedAt.UTC().Format(time.RFC3339),
		record.CompletedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("upsert candidate: %w", err)
	}

	// The insert id wins; an upsert keeps the original record id.
	var storedID string
	row := s.db.QueryRowContext(ctx, "SELECT record_id FROM candidates WHERE session_id = ?", record.SessionID)
	if err := row.Scan(&storedID); err != nil {
		return "", fmt.Errorf("read record id: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("candidate record persisted",
			zap.String("session_id", record.SessionID),
			zap.String("record_id", storedID),
			zap.String("status", status),
		)
	}

	return storedID, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
