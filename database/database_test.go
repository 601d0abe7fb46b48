package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"autoclaim/models"
)

func claim(id string, at time.Time, status string, approval models.ApprovalStatus, total string) *models.ClaimAnalysisResponse {
	return &models.ClaimAnalysisResponse{
		ClaimID: id,
		Status:  status,
		Estimate: models.EstimateResult{
			LineItems:      []models.EstimateLineItem{},
			GrandTotal:     decimal.RequireFromString(total),
			ApprovalStatus: approval,
			VehicleClass:   models.VehicleSedan,
		},
		RepairDecisions: models.LLMResult{Decisions: []models.PartDecision{}, ModelUsed: "fallback"},
		Warnings:        []string{"w"},
		CreatedAt:       at,
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	sqliteStore, err := NewStore(DriverSQLite, filepath.Join(t.TempDir(), "claims.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqliteStore.Close() })

	return map[string]Store{
		"sqlite": sqliteStore,
		"memory": NewMemoryStore(),
	}
}

func TestStore_SaveGet(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			c := claim("CLM-1", at, models.StatusDegraded, models.ApprovalDeclined, "0")
			require.NoError(t, s.Save(ctx, c))

			got, err := s.Get(ctx, "CLM-1")
			require.NoError(t, err)
			assert.Equal(t, "CLM-1", got.ClaimID)
			assert.Equal(t, models.StatusDegraded, got.Status)
			assert.Equal(t, "fallback", got.RepairDecisions.ModelUsed)
			assert.Equal(t, []string{"w"}, got.Warnings)
			assert.True(t, got.CreatedAt.Equal(at))

			_, err = s.Get(ctx, "CLM-missing")
			assert.ErrorIs(t, err, ErrNotFound)

			err = s.Save(ctx, claim("CLM-1", at, models.StatusCompleted, models.ApprovalAutoApprove, "10"))
			assert.ErrorIs(t, err, ErrDuplicateClaim)

			again, err := s.Get(ctx, "CLM-1")
			require.NoError(t, err)
			assert.Equal(t, models.StatusDegraded, again.Status)

			require.NoError(t, s.Ping(ctx))
		})
	}
}

func TestStore_GetReturnsIndependentCopy(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			c := claim("CLM-copy", at, models.StatusCompleted, models.ApprovalAutoApprove, "4908.80")
			require.NoError(t, s.Save(ctx, c))

			c.Status = models.StatusDegraded
			c.Warnings[0] = "changed after save"

			got, err := s.Get(ctx, "CLM-copy")
			require.NoError(t, err)
			assert.NotSame(t, c, got)
			assert.Equal(t, models.StatusCompleted, got.Status)
			assert.Equal(t, []string{"w"}, got.Warnings)

			got.Status = models.StatusDegraded
			got.Warnings[0] = "changed after get"

			again, err := s.Get(ctx, "CLM-copy")
			require.NoError(t, err)
			assert.Equal(t, models.StatusCompleted, again.Status)
			assert.Equal(t, []string{"w"}, again.Warnings)
			assert.True(t, again.Estimate.GrandTotal.Equal(decimal.RequireFromString("4908.80")))
		})
	}
}

func TestStore_ListNewestFirst(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			for i, id := range []string{"CLM-a", "CLM-b", "CLM-c", "CLM-d"} {
				require.NoError(t, s.Save(ctx, claim(id, base.Add(time.Duration(i)*time.Minute),
					models.StatusCompleted, models.ApprovalAutoApprove, "100")))
			}

			page, total, err := s.List(ctx, 2, 0)
			require.NoError(t, err)
			assert.EqualValues(t, 4, total)
			require.Len(t, page, 2)
			assert.Equal(t, "CLM-d", page[0].ClaimID)
			assert.Equal(t, "CLM-c", page[1].ClaimID)

			page, _, err = s.List(ctx, 2, 2)
			require.NoError(t, err)
			require.Len(t, page, 2)
			assert.Equal(t, "CLM-b", page[0].ClaimID)
			assert.Equal(t, "CLM-a", page[1].ClaimID)
			assert.Equal(t, "100.00", page[1].GrandTotal.StringFixed(2))

			page, _, err = s.List(ctx, 2, 10)
			require.NoError(t, err)
			assert.Empty(t, page)
		})
	}
}

func TestStore_Statistics(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			empty, err := s.Statistics(ctx)
			require.NoError(t, err)
			assert.Zero(t, empty.TotalClaims)
			assert.True(t, empty.AvgGrandTotal.IsZero())

			require.NoError(t, s.Save(ctx, claim("CLM-1", at, models.StatusCompleted, models.ApprovalAutoApprove, "4908.8")))
			require.NoError(t, s.Save(ctx, claim("CLM-2", at, models.StatusCompleted, models.ApprovalManualReview, "60000.25")))
			require.NoError(t, s.Save(ctx, claim("CLM-3", at, models.StatusDegraded, models.ApprovalDeclined, "0")))

			stats, err := s.Statistics(ctx)
			require.NoError(t, err)
			assert.EqualValues(t, 3, stats.TotalClaims)
			assert.EqualValues(t, 1, stats.DegradedClaims)
			assert.EqualValues(t, 1, stats.ByApproval[models.ApprovalAutoApprove])
			assert.EqualValues(t, 1, stats.ByApproval[models.ApprovalManualReview])
			assert.EqualValues(t, 1, stats.ByApproval[models.ApprovalDeclined])
			assert.Equal(t, "64909.05", stats.SumGrandTotal.StringFixed(2))
			assert.Equal(t, "21636.35", stats.AvgGrandTotal.StringFixed(2))
		})
	}
}

func TestOpen_UnknownDriver(t *testing.T) {
	_, err := Open("oracle", "x")
	assert.ErrorContains(t, err, `unsupported database driver "oracle"`)
}
