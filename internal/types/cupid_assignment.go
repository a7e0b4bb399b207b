package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// PotentialMatch is one ranked shortlist entry of a cupid assignment.
type PotentialMatch struct {
	UserID uuid.UUID `json:"user_id"`
	Score  float64   `json:"score"`
}

// CupidAssignment hands one candidate to one cupid for a batch.
// PotentialMatches is refreshable wholesale; RejectedMatches and
// RevealedCount are curation state and survive shortlist refreshes.
// Version guards concurrent mutations of the same row.
type CupidAssignment struct {
	ID               uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CupidUserID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_key,priority:1;index" json:"cupid_user_id"`
	CandidateID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex:idx_assignment_key,priority:2" json:"candidate_id"`
	BatchNumber      int            `gorm:"column:batch_number;not null;uniqueIndex:idx_assignment_key,priority:3;index" json:"batch_number"`
	IsTestUser       bool           `gorm:"column:is_test_user;not null;default:false;index" json:"is_test_user"`
	PotentialMatches datatypes.JSON `gorm:"type:jsonb;column:potential_matches" json:"potential_matches"`
	RejectedMatches  datatypes.JSON `gorm:"type:jsonb;column:rejected_matches" json:"rejected_matches"`
	RevealedCount    int            `gorm:"column:revealed_count;not null;default:0" json:"revealed_count"`
	Version          int            `gorm:"column:version;not null;default:0" json:"version"`
	CreatedAt        time.Time      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"not null" json:"updated_at"`
}

func (CupidAssignment) TableName() string {
	return "cupid_assignment"
}

func (a *CupidAssignment) Shortlist() ([]PotentialMatch, error) {
	if len(a.PotentialMatches) == 0 {
		return nil, nil
	}
	var out []PotentialMatch
	if err := json.Unmarshal(a.PotentialMatches, &out); err != nil {
		return nil, fmt.Errorf("decode potential_matches: %w", err)
	}
	return out, nil
}

func (a *CupidAssignment) Rejected() ([]uuid.UUID, error) {
	if len(a.RejectedMatches) == 0 {
		return nil, nil
	}
	var out []uuid.UUID
	if err := json.Unmarshal(a.RejectedMatches, &out); err != nil {
		return nil, fmt.Errorf("decode rejected_matches: %w", err)
	}
	return out, nil
}

func (a *CupidAssignment) RejectedSet() (map[uuid.UUID]struct{}, error) {
	ids, err := a.Rejected()
	if err != nil {
		return nil, err
	}
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

func EncodeShortlist(entries []PotentialMatch) (datatypes.JSON, error) {
	if entries == nil {
		entries = []PotentialMatch{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encode potential_matches: %w", err)
	}
	return datatypes.JSON(raw), nil
}

func EncodeRejected(ids []uuid.UUID) (datatypes.JSON, error) {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("encode rejected_matches: %w", err)
	}
	return datatypes.JSON(raw), nil
}
