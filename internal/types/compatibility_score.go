package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// CompatibilityScore is one directional scoring result inside a batch.
// score(A->B) and score(B->A) are stored as separate rows because
// importance and stated preference are asymmetric per person.
type CompatibilityScore struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BatchNumber  int            `gorm:"column:batch_number;not null;uniqueIndex:idx_score_batch_pair,priority:1" json:"batch_number"`
	UserID       uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_score_batch_pair,priority:2;index" json:"user_id"`
	TargetUserID uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_score_batch_pair,priority:3" json:"target_user_id"`
	TotalScore   float64        `gorm:"column:total_score;not null" json:"total_score"`
	Vetoed       bool           `gorm:"column:vetoed;not null;default:false" json:"vetoed"`
	Breakdown    datatypes.JSON `gorm:"type:jsonb;column:breakdown" json:"breakdown,omitempty"`
	IsTestUser   bool           `gorm:"column:is_test_user;not null;default:false;index" json:"is_test_user"`
	CreatedAt    time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time      `gorm:"not null" json:"updated_at"`
}

func (CompatibilityScore) TableName() string {
	return "compatibility_score"
}
