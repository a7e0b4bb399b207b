package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// QuestionnaireResponse is the submitted answer set for one user.
// Answers holds the typed per-question records validated by the
// questionnaire normalizer at submission time; the row is immutable
// once SubmittedAt is set.
type QuestionnaireResponse struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User          *User          `gorm:"constraint:OnDelete:CASCADE;foreignKey:UserID;references:ID" json:"user,omitempty"`
	SchemaVersion int            `gorm:"column:schema_version;not null" json:"schema_version"`
	Answers       datatypes.JSON `gorm:"type:jsonb;column:answers;not null" json:"answers"`
	SubmittedAt   time.Time      `gorm:"column:submitted_at;not null" json:"submitted_at"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"not null" json:"updated_at"`
}

func (QuestionnaireResponse) TableName() string {
	return "questionnaire_response"
}
