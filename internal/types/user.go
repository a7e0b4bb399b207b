package types

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID              uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Email           string     `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password        string     `gorm:"not null;column:password" json:"-"`
	FirstName       string     `gorm:"not null;column:first_name" json:"first_name"`
	LastName        string     `gorm:"not null;column:last_name" json:"last_name"`
	IsTestUser      bool       `gorm:"column:is_test_user;not null;default:false;index" json:"is_test_user"`
	IsAdmin         bool       `gorm:"column:is_admin;not null;default:false" json:"is_admin"`
	IsCupid         bool       `gorm:"column:is_cupid;not null;default:false;index" json:"is_cupid"`
	CupidApprovedAt *time.Time `gorm:"column:cupid_approved_at" json:"cupid_approved_at,omitempty"`
	CreatedAt       time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt       time.Time  `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string {
	return "user"
}

func (u *User) Partition() Partition {
	return PartitionFor(u.IsTestUser)
}

// CupidApproved reports whether the user may curate assignments.
func (u *User) CupidApproved() bool {
	return u.IsCupid && u.CupidApprovedAt != nil
}
