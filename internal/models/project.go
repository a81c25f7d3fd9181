package models

import (
	"time"

	"gorm.io/gorm"
)

// Project status values. Transitions are driven by the research team through
// the update endpoint; the backend does not enforce a state machine.
const (
	ProjectStatusDraft      = "draft"
	ProjectStatusRecruiting = "recruiting"
	ProjectStatusCollecting = "collecting"
	ProjectStatusAnalyzing  = "analyzing"
	ProjectStatusCompleted  = "completed"
)

// Project represents a research study that participants can enroll in.
type Project struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Title       string `gorm:"size:200;not null" json:"title"`
	Description string `gorm:"type:text" json:"description"`
	Status      string `gorm:"size:20;not null;default:draft" json:"status"`
	// XRP deposited into escrow per enrollment. Zero means "use the
	// configured default"; the default is applied at enrollment time and
	// never written back here.
	EscrowAmountXRP int64          `gorm:"column:escrow_amount_xrp" json:"escrow_amount_xrp"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Project) TableName() string { return "projects" }
