package types

import (
	"time"

	"github.com/google/uuid"
)

const (
	BatchStatusPending  = "pending"
	BatchStatusScoring  = "scoring"
	BatchStatusMatched  = "matched"
	BatchStatusRevealed = "revealed"
)

// MatchingBatch is one numbered run of the full pipeline. Batch numbers
// increase monotonically and are never reused once advanced past.
type MatchingBatch struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	BatchNumber         int        `gorm:"column:batch_number;not null;uniqueIndex" json:"batch_number"`
	Status              string     `gorm:"column:status;not null;default:'pending';index" json:"status"`
	TotalUsers          int        `gorm:"column:total_users;not null;default:0" json:"total_users"`
	TotalPairs          int        `gorm:"column:total_pairs;not null;default:0" json:"total_pairs"`
	AlgorithmMatches    int        `gorm:"column:algorithm_matches;not null;default:0" json:"algorithm_matches"`
	CupidMatches        int        `gorm:"column:cupid_matches;not null;default:0" json:"cupid_matches"`
	ScoringStartedAt    *time.Time `gorm:"column:scoring_started_at" json:"scoring_started_at,omitempty"`
	ScoringCompletedAt  *time.Time `gorm:"column:scoring_completed_at" json:"scoring_completed_at,omitempty"`
	MatchingStartedAt   *time.Time `gorm:"column:matching_started_at" json:"matching_started_at,omitempty"`
	MatchingCompletedAt *time.Time `gorm:"column:matching_completed_at" json:"matching_completed_at,omitempty"`
	RevealedAt          *time.Time `gorm:"column:revealed_at" json:"revealed_at,omitempty"`
	CreatedAt           time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt           time.Time  `gorm:"not null" json:"updated_at"`
}

func (MatchingBatch) TableName() string {
	return "matching_batch"
}
