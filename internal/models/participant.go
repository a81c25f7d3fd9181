package models

import "time"

// Participant is one enrollment of a wallet address into a project. Rows are
// created only after the escrow exists on the ledger and are never deleted;
// withdrawal flips Active off and keeps the escrow fields as an audit trail.
type Participant struct {
	ID                 uint   `gorm:"primaryKey" json:"id"`
	ProjectID          uint   `gorm:"not null;uniqueIndex:idx_participants_project_address" json:"project_id"`
	ParticipantAddress string `gorm:"size:100;not null;uniqueIndex:idx_participants_project_address" json:"participant_address"`

	// Escrow linkage from the Core createEscrow response. OwnerAddress and
	// OfferSequence are the only handle we have for cancelling the escrow;
	// an active row without them cannot be withdrawn.
	EscrowOwnerAddress *string `gorm:"size:100" json:"escrow_owner_address"`
	OfferSequence      *int64  `json:"offer_sequence"`
	EscrowTxHash       *string `gorm:"size:100" json:"escrow_tx_hash"`

	Active      bool       `gorm:"not null;default:true" json:"active"`
	EnrolledAt  time.Time  `json:"enrolled_at"`
	WithdrawnAt *time.Time `json:"withdrawn_at"`
}

func (Participant) TableName() string { return "participants" }
