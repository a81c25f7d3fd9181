package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/uniqdata/backend/internal/core"
	"github.com/uniqdata/backend/internal/models"
	"github.com/uniqdata/backend/pkg/logger"
	"gorm.io/gorm"
)

// EscrowGateway is the slice of the Core client the orchestrator needs.
type EscrowGateway interface {
	CreateEscrow(ctx context.Context, projectID, participantAddress string, amountXRP int64) (*core.EscrowCreateResponse, error)
	CancelEscrow(ctx context.Context, ownerAddress string, offerSequence int64) (*core.EscrowCancelResponse, error)
}

// ParticipantService orchestrates enrollment and withdrawal: local validation,
// then the Core escrow call, then the local write. The Core call always
// happens before the registry write, so a participant row never exists
// without its escrow.
type ParticipantService struct {
	db               *gorm.DB
	gateway          EscrowGateway
	defaultAmountXRP int64
	locks            *keyLocks
	reconcile        ReconcileQueue // optional; nil disables orphan cleanup tasks
}

func NewParticipantService(db *gorm.DB, gateway EscrowGateway, defaultAmountXRP int64, reconcile ReconcileQueue) *ParticipantService {
	return &ParticipantService{
		db:               db,
		gateway:          gateway,
		defaultAmountXRP: defaultAmountXRP,
		locks:            newKeyLocks(),
		reconcile:        reconcile,
	}
}

type EnrollRequest struct {
	ParticipantAddress string `json:"participant_address" binding:"required"`
}

type WithdrawRequest struct {
	ParticipantAddress string `json:"participant_address" binding:"required"`
}

// Enroll registers a participant into a project. The escrow is created on the
// ledger first; only after Core reports success is the row persisted, so a
// Core failure leaves the registry untouched.
func (s *ParticipantService) Enroll(ctx context.Context, projectID uint, participantAddress string) (*models.Participant, error) {
	address := strings.TrimSpace(participantAddress)

	key := enrollmentKey(projectID, address)
	s.locks.lock(key)
	defer s.locks.unlock(key)

	var project models.Project
	if err := s.db.First(&project, projectID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError(fmt.Sprintf("project not found: %d", projectID))
		}
		return nil, err
	}

	// Duplicate check covers withdrawn rows too: the natural key is unique
	// across the participant's whole history, so re-enrollment after
	// withdrawal is rejected here as well.
	var existing models.Participant
	err := s.db.Where("project_id = ? AND participant_address = ?", projectID, address).
		First(&existing).Error
	if err == nil {
		return nil, ConflictError("already enrolled")
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if address == "" {
		return nil, InvalidArgumentError("participant_address is required")
	}

	amountXRP := project.EscrowAmountXRP
	if amountXRP <= 0 {
		amountXRP = s.defaultAmountXRP
	}

	resp, err := s.gateway.CreateEscrow(ctx, strconv.FormatUint(uint64(projectID), 10), address, amountXRP)
	if err != nil {
		logger.Error().Err(err).
			Uint("project_id", projectID).
			Str("participant_address", address).
			Msg("enroll: escrow creation failed, no row written")
		LogError("participant", "enroll", "escrow creation failed", nil, "", "", map[string]interface{}{
			"project_id": projectID,
			"error":      err.Error(),
		})
		return nil, UpstreamError("escrow service unavailable", err)
	}

	participant := models.Participant{
		ProjectID:          projectID,
		ParticipantAddress: address,
		EscrowOwnerAddress: &resp.OwnerAddress,
		OfferSequence:      &resp.OfferSequence,
		EscrowTxHash:       &resp.TxHash,
		Active:             true,
		EnrolledAt:         time.Now(),
	}

	if err := s.db.Create(&participant).Error; err != nil {
		// The escrow exists on the ledger but we failed to record it. The
		// row was never written, so the registry is still consistent; the
		// orphaned escrow is handed to the reconcile queue for cancellation.
		logger.Error().Err(err).
			Uint("project_id", projectID).
			Str("tx_hash", resp.TxHash).
			Int64("offer_sequence", resp.OfferSequence).
			Msg("enroll: escrow created on ledger but local insert failed")
		LogError("participant", "enroll_orphan", "escrow created but participant insert failed", nil, "", "", map[string]interface{}{
			"project_id":     projectID,
			"owner_address":  resp.OwnerAddress,
			"offer_sequence": resp.OfferSequence,
			"tx_hash":        resp.TxHash,
			"error":          err.Error(),
		})
		s.enqueueOrphanCancel(projectID, address, resp)

		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ConflictError("already enrolled")
		}
		return nil, err
	}

	logger.Info().
		Uint("project_id", projectID).
		Uint("participant_id", participant.ID).
		Str("tx_hash", resp.TxHash).
		Msg("enroll: participant registered")
	return &participant, nil
}

// Withdraw cancels the participant's escrow and deactivates the row. A Core
// failure leaves the row active so the caller can retry; repeated cancels on
// the same offer are assumed idempotent on the ledger side.
func (s *ParticipantService) Withdraw(ctx context.Context, projectID uint, participantAddress string) (*models.Participant, error) {
	address := strings.TrimSpace(participantAddress)

	key := enrollmentKey(projectID, address)
	s.locks.lock(key)
	defer s.locks.unlock(key)

	var participant models.Participant
	err := s.db.Where("project_id = ? AND participant_address = ?", projectID, address).
		First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("participant not found")
		}
		return nil, err
	}

	if !participant.Active {
		return nil, ConflictError("already withdrawn")
	}

	if participant.EscrowOwnerAddress == nil || participant.OfferSequence == nil {
		// Active row without escrow linkage should be impossible; report it
		// rather than guessing at a ledger handle.
		logger.Error().
			Uint("participant_id", participant.ID).
			Msg("withdraw: active participant missing escrow linkage")
		LogError("participant", "withdraw", "active participant missing escrow linkage", nil, "", "", map[string]interface{}{
			"participant_id": participant.ID,
			"project_id":     projectID,
		})
		return nil, InvalidStateError("escrow info missing, cannot cancel")
	}

	resp, err := s.gateway.CancelEscrow(ctx, *participant.EscrowOwnerAddress, *participant.OfferSequence)
	if err != nil {
		logger.Error().Err(err).
			Uint("participant_id", participant.ID).
			Msg("withdraw: escrow cancellation failed, row left active")
		LogError("participant", "withdraw", "escrow cancellation failed", nil, "", "", map[string]interface{}{
			"participant_id": participant.ID,
			"error":          err.Error(),
		})
		return nil, UpstreamError("escrow service unavailable", err)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"active":       false,
		"withdrawn_at": now,
	}
	if err := s.db.Model(&participant).Updates(updates).Error; err != nil {
		// Escrow is cancelled but the row still says active. Surfaced, not
		// hidden; a later retry fails on the ledger's idempotent cancel and
		// operators see both log entries.
		logger.Error().Err(err).
			Uint("participant_id", participant.ID).
			Str("cancel_tx_hash", resp.TxHash).
			Msg("withdraw: escrow cancelled but local update failed")
		LogError("participant", "withdraw_orphan", "escrow cancelled but participant update failed", nil, "", "", map[string]interface{}{
			"participant_id": participant.ID,
			"cancel_tx_hash": resp.TxHash,
			"error":          err.Error(),
		})
		return nil, err
	}

	participant.Active = false
	participant.WithdrawnAt = &now

	logger.Info().
		Uint("participant_id", participant.ID).
		Str("cancel_tx_hash", resp.TxHash).
		Msg("withdraw: participant deactivated")
	return &participant, nil
}

// ListByProject returns a project's participants, optionally filtered by the
// active flag.
func (s *ParticipantService) ListByProject(projectID uint, activeOnly *bool) ([]models.Participant, error) {
	query := s.db.Where("project_id = ?", projectID)
	if activeOnly != nil {
		query = query.Where("active = ?", *activeOnly)
	}

	var participants []models.Participant
	if err := query.Order("enrolled_at DESC").Find(&participants).Error; err != nil {
		return nil, err
	}
	return participants, nil
}

// GetByProjectAndAddress returns the participant for a natural key.
func (s *ParticipantService) GetByProjectAndAddress(projectID uint, participantAddress string) (*models.Participant, error) {
	address := strings.TrimSpace(participantAddress)

	var participant models.Participant
	err := s.db.Where("project_id = ? AND participant_address = ?", projectID, address).
		First(&participant).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, NotFoundError("participant not found")
		}
		return nil, err
	}
	return &participant, nil
}

// CountByProject returns the number of participants enrolled in a project.
func (s *ParticipantService) CountByProject(projectID uint) (int64, error) {
	var count int64
	err := s.db.Model(&models.Participant{}).Where("project_id = ?", projectID).Count(&count).Error
	return count, err
}

// CountActive returns the number of active participants across all projects.
func (s *ParticipantService) CountActive() (int64, error) {
	var count int64
	err := s.db.Model(&models.Participant{}).Where("active = ?", true).Count(&count).Error
	return count, err
}

func (s *ParticipantService) enqueueOrphanCancel(projectID uint, address string, resp *core.EscrowCreateResponse) {
	if s.reconcile == nil {
		return
	}
	task := NewEscrowCancelTask(projectID, address, resp.OwnerAddress, resp.OfferSequence, "insert_failed")
	if err := s.reconcile.Enqueue(task); err != nil {
		logger.Error().Err(err).
			Str("owner_address", resp.OwnerAddress).
			Int64("offer_sequence", resp.OfferSequence).
			Msg("enroll: failed to enqueue orphan escrow cancel")
	}
}

func enrollmentKey(projectID uint, address string) string {
	return strconv.FormatUint(uint64(projectID), 10) + ":" + address
}
