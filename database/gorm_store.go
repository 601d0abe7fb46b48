package database

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"autoclaim/models"
)

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Save(ctx context.Context, claim *models.ClaimAnalysisResponse) error {
	rec := recordOf(claim)
	if err := s.db.WithContext(ctx).Create(&rec).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%w: %s", ErrDuplicateClaim, claim.ClaimID)
		}
		return fmt.Errorf("insert claim %s: %w", claim.ClaimID, err)
	}
	return nil
}

func (s *GormStore) Get(ctx context.Context, claimID string) (*models.ClaimAnalysisResponse, error) {
	var rec models.ClaimRecord
	err := s.db.WithContext(ctx).First(&rec, "claim_id = ?", claimID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load claim %s: %w", claimID, err)
	}
	if rec.Payload == nil {
		return nil, fmt.Errorf("claim %s has no payload", claimID)
	}
	return rec.Payload, nil
}

func (s *GormStore) List(ctx context.Context, limit, offset int) ([]models.ClaimSummary, int64, error) {
	db := s.db.WithContext(ctx)

	var total int64
	if err := db.Model(&models.ClaimRecord{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count claims: %w", err)
	}

	var recs []models.ClaimRecord
	err := db.Omit("payload").
		Order("created_at DESC").Order("claim_id DESC").
		Limit(limit).Offset(offset).
		Find(&recs).Error
	if err != nil {
		return nil, 0, fmt.Errorf("list claims: %w", err)
	}

	out := make([]models.ClaimSummary, 0, len(recs))
	for _, r := range recs {
		out = append(out, summaryOf(r))
	}
	return out, total, nil
}

func (s *GormStore) Statistics(ctx context.Context) (models.Statistics, error) {
	db := s.db.WithContext(ctx)
	stats := newStatistics()

	var rows []struct {
		ApprovalStatus models.ApprovalStatus
		N              int64
	}
	err := db.Model(&models.ClaimRecord{}).
		Select("approval_status, COUNT(*) AS n").
		Group("approval_status").
		Scan(&rows).Error
	if err != nil {
		return stats, fmt.Errorf("count by approval: %w", err)
	}
	for _, r := range rows {
		stats.ByApproval[r.ApprovalStatus] = r.N
		stats.TotalClaims += r.N
	}

	if err := db.Model(&models.ClaimRecord{}).
		Where("status = ?", models.StatusDegraded).
		Count(&stats.DegradedClaims).Error; err != nil {
		return stats, fmt.Errorf("count degraded: %w", err)
	}

	// Summed in Go so totals stay exact regardless of the column's SQL type.
	var raw []string
	if err := db.Model(&models.ClaimRecord{}).Pluck("grand_total", &raw).Error; err != nil {
		return stats, fmt.Errorf("load totals: %w", err)
	}
	totals := make([]decimal.Decimal, 0, len(raw))
	for _, v := range raw {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return stats, fmt.Errorf("parse grand total %q: %w", v, err)
		}
		totals = append(totals, d)
	}
	finishStatistics(&stats, totals)
	return stats, nil
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
