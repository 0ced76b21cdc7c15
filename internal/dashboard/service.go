package dashboard

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/thedilution/dilution-backend/pkg/db/models"
	"github.com/thedilution/dilution-backend/pkg/enums"
)

// LowStockThreshold flags items the ops dashboard should surface.
const LowStockThreshold = 10

// Summary aggregates the operational counters shown on the landing screen.
type Summary struct {
	PendingJobcards   int64 `json:"pending_jobcards"`
	ProcessingCards   int64 `json:"processing_jobcards"`
	ApprovedToday     int64 `json:"approved_today"`
	LowStockItems     int64 `json:"low_stock_items"`
	ConsumedLast7Days int64 `json:"consumed_last_7_days"`
}

// Service exposes read-only aggregates for the dashboard.
type Service interface {
	Summary(ctx context.Context) (*Summary, error)
}

type service struct {
	db  *gorm.DB
	now func() time.Time
}

// NewService wires the dashboard service.
func NewService(db *gorm.DB) (Service, error) {
	if db == nil {
		return nil, fmt.Errorf("database handle required")
	}
	return &service{db: db, now: time.Now}, nil
}

func (s *service) Summary(ctx context.Context) (*Summary, error) {
	now := s.now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekAgo := now.AddDate(0, 0, -7)

	summary := &Summary{}

	if err := s.db.WithContext(ctx).
		Model(&models.Jobcard{}).
		Where("status = ?", enums.JobcardStatusRequested).
		Count(&summary.PendingJobcards).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Jobcard{}).
		Where("status = ?", enums.JobcardStatusProcessing).
		Count(&summary.ProcessingCards).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Jobcard{}).
		Where("status = ? AND approve_date >= ?", enums.JobcardStatusApproved, startOfDay).
		Count(&summary.ApprovedToday).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Model(&models.InventoryItem{}).
		Where("quantity < ?", LowStockThreshold).
		Count(&summary.LowStockItems).Error; err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).
		Model(&models.Consumption{}).
		Where("consumed_at >= ?", weekAgo).
		Select("COALESCE(SUM(quantity_used), 0)").
		Scan(&summary.ConsumedLast7Days).Error; err != nil {
		return nil, err
	}

	return summary, nil
}
