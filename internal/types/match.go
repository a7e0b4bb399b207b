package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	MatchTypeAlgorithm     = "algorithm"
	MatchTypeCupidSent     = "cupid_sent"
	MatchTypeCupidReceived = "cupid_received"
)

// Match is one realized directional pairing. A logical pair between A
// and B is stored as two rows so each side has its own view: algorithm
// pairings store one "algorithm" row per direction, cupid promotions
// store a cupid_sent/cupid_received pair. RevealedAt stays nil until
// the reveal step and is only ever cleared by a full batch reset.
type Match struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BatchNumber  int        `gorm:"column:batch_number;not null;uniqueIndex:idx_match_batch_pair,priority:1" json:"batch_number"`
	UserID       uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_match_batch_pair,priority:2;index" json:"user_id"`
	TargetUserID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_match_batch_pair,priority:3" json:"target_user_id"`
	MatchType    string     `gorm:"column:match_type;not null;index" json:"match_type"`
	IsTestUser   bool       `gorm:"column:is_test_user;not null;default:false;index" json:"is_test_user"`
	RevealedAt   *time.Time `gorm:"column:revealed_at" json:"revealed_at,omitempty"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

func (Match) TableName() string {
	return "match"
}
