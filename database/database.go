// Package database persists assembled claims. Claims are insert-only: a
// stored claim is never updated or deleted.
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"autoclaim/models"
)

var (
	ErrNotFound       = errors.New("claim not found")
	ErrDuplicateClaim = errors.New("claim already exists")
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Store is the claim repository. Implementations must be safe for
// concurrent use.
type Store interface {
	Save(ctx context.Context, claim *models.ClaimAnalysisResponse) error
	Get(ctx context.Context, claimID string) (*models.ClaimAnalysisResponse, error)
	List(ctx context.Context, limit, offset int) ([]models.ClaimSummary, int64, error)
	Statistics(ctx context.Context) (models.Statistics, error)
	Ping(ctx context.Context) error
	Close() error
}

// Open connects to a SQL database and migrates the claims table.
func Open(driver, dsn string) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch driver {
	case DriverSQLite:
		dialector = sqlite.Open(dsn)
	case DriverPostgres:
		dialector = postgres.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}
	if err := db.AutoMigrate(&models.ClaimRecord{}); err != nil {
		return nil, fmt.Errorf("migrate claims: %w", err)
	}
	return db, nil
}

// NewStore builds the store selected by driver.
func NewStore(driver, dsn string, logger *zap.Logger) (Store, error) {
	if driver == DriverMemory {
		logger.Info("using in-memory claim store")
		return NewMemoryStore(), nil
	}
	db, err := Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	logger.Info("database connected and migrated", zap.String("driver", driver))
	return NewGormStore(db), nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}

func summaryOf(r models.ClaimRecord) models.ClaimSummary {
	return models.ClaimSummary{
		ClaimID:        r.ClaimID,
		Status:         r.Status,
		ApprovalStatus: r.ApprovalStatus,
		VehicleClass:   r.VehicleClass,
		GrandTotal:     r.GrandTotal,
		CreatedAt:      r.CreatedAt,
	}
}

func recordOf(c *models.ClaimAnalysisResponse) models.ClaimRecord {
	return models.ClaimRecord{
		ClaimID:        c.ClaimID,
		Status:         c.Status,
		ApprovalStatus: c.Estimate.ApprovalStatus,
		VehicleClass:   c.Estimate.VehicleClass,
		GrandTotal:     c.Estimate.GrandTotal,
		Payload:        c,
		CreatedAt:      c.CreatedAt,
	}
}
