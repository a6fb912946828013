// Package store persists finalized candidate records.
//
// PII fields (phone, email, location) are encrypted at this boundary; the
// conversation core never sees ciphertext and the storage backend never
// sees plaintext PII.
package store

import (
	"context"
	"errors"
	"time"
)

// Session completion statuses.
const (
	StatusCompleted = "completed"
	StatusPartial   = "partial"
)

// ErrEncryptionFailed indicates PII could not be encrypted; nothing is
// written in that case.
var ErrEncryptionFailed = errors.New("encrypting candidate record failed")

// QA is one persisted question/answer exchange.
type QA struct {
	Question      string `json:"question"`
	Answer        string `json:"answer"`
	FollowUpAsked bool   `json:"follow_up_asked"`
}

// Record is a finalized candidate session ready for persistence.
type Record struct {
	SessionID       string
	Name            string
	Phone           string
	Email           string
	Location        string
	YearsExperience int
	DesiredPosition string
	TechStack       []string
	Assessment      map[string][]QA
	Status          string
	CreatedAt       time.Time
	CompletedAt     time.Time
}

// Store persists candidate records. Persist is idempotent for the same
// session id: repeated calls upsert rather than duplicate.
type Store interface {
	Persist(ctx context.Context, record *Record) (string, error)
	Close() error
}
