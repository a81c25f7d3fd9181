package services

import (
	"context"

	"github.com/uniqdata/backend/internal/core"
	"github.com/uniqdata/backend/internal/models"
	"github.com/uniqdata/backend/pkg/logger"
	"gorm.io/gorm"
)

// SummarySource is the read-only slice of the Core client the dashboard uses.
type SummarySource interface {
	GetSummary(ctx context.Context) (*core.SummaryResponse, error)
}

// DashboardService aggregates local counts with the Core escrow snapshot.
type DashboardService struct {
	db   *gorm.DB
	core SummarySource
}

func NewDashboardService(db *gorm.DB, summarySource SummarySource) *DashboardService {
	return &DashboardService{db: db, core: summarySource}
}

type DashboardSummary struct {
	TotalProjects     int64 `json:"total_projects"`
	TotalParticipants int64 `json:"total_participants"`
	// Data collection has not launched yet; stays 0 until the ingest
	// pipeline lands.
	TotalDatapoints     int64   `json:"total_datapoints"`
	EscrowBalance       float64 `json:"escrow_balance"`
	EscrowWalletAddress string  `json:"escrow_wallet_address"`
	Network             string  `json:"network"`
}

// GetSummary never fails. Local counts come straight from the database; the
// Core snapshot degrades to zero / empty / "unknown" when the service is
// unreachable, with the suppressed error recorded for operators.
func (s *DashboardService) GetSummary(ctx context.Context) *DashboardSummary {
	summary := &DashboardSummary{
		Network: "unknown",
	}

	s.db.Model(&models.Project{}).Count(&summary.TotalProjects)
	s.db.Model(&models.Participant{}).Where("active = ?", true).Count(&summary.TotalParticipants)

	coreSummary, err := s.core.GetSummary(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("dashboard: core summary unavailable, serving degraded values")
		LogWarning("dashboard", "core_summary", "core summary unavailable", nil, "", "", map[string]interface{}{
			"error": err.Error(),
		})
		return summary
	}

	summary.EscrowBalance = coreSummary.EscrowBalanceXRP
	summary.EscrowWalletAddress = coreSummary.EscrowWalletAddress
	summary.Network = coreSummary.Network
	return summary
}
