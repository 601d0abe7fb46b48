package database

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/shopspring/decimal"

	"autoclaim/models"
)

// MemoryStore keeps claims for the lifetime of the process. Claims are held
// as their JSON payload, so Get always hands out a fresh copy.
type MemoryStore struct {
	mu     sync.RWMutex
	claims map[string][]byte
	order  []models.ClaimSummary // newest first
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{claims: make(map[string][]byte)}
}

func (s *MemoryStore) Save(ctx context.Context, claim *models.ClaimAnalysisResponse) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.claims[claim.ClaimID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateClaim, claim.ClaimID)
	}
	payload, err := json.Marshal(claim)
	if err != nil {
		return fmt.Errorf("encode claim %s: %w", claim.ClaimID, err)
	}
	s.claims[claim.ClaimID] = payload

	sum := summaryOf(recordOf(claim))
	i := sort.Search(len(s.order), func(i int) bool { return newer(sum, s.order[i]) })
	s.order = append(s.order, models.ClaimSummary{})
	copy(s.order[i+1:], s.order[i:])
	s.order[i] = sum
	return nil
}

func (s *MemoryStore) Get(_ context.Context, claimID string) (*models.ClaimAnalysisResponse, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	payload, ok := s.claims[claimID]
	if !ok {
		return nil, ErrNotFound
	}
	var c models.ClaimAnalysisResponse
	if err := json.Unmarshal(payload, &c); err != nil {
		return nil, fmt.Errorf("decode claim %s: %w", claimID, err)
	}
	return &c, nil
}

func (s *MemoryStore) List(_ context.Context, limit, offset int) ([]models.ClaimSummary, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := int64(len(s.order))
	if offset >= len(s.order) {
		return []models.ClaimSummary{}, total, nil
	}
	end := min(offset+limit, len(s.order))
	out := make([]models.ClaimSummary, end-offset)
	copy(out, s.order[offset:end])
	return out, total, nil
}

func (s *MemoryStore) Statistics(context.Context) (models.Statistics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := newStatistics()
	totals := make([]decimal.Decimal, 0, len(s.order))
	for _, c := range s.order {
		stats.TotalClaims++
		stats.ByApproval[c.ApprovalStatus]++
		if c.Status == models.StatusDegraded {
			stats.DegradedClaims++
		}
		totals = append(totals, c.GrandTotal)
	}
	finishStatistics(&stats, totals)
	return stats, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

func (s *MemoryStore) Close() error { return nil }

// newer orders summaries by creation time, then claim id, both descending.
func newer(a, b models.ClaimSummary) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ClaimID > b.ClaimID
}

func newStatistics() models.Statistics {
	return models.Statistics{
		ByApproval: map[models.ApprovalStatus]int64{
			models.ApprovalAutoApprove:  0,
			models.ApprovalManualReview: 0,
			models.ApprovalDeclined:     0,
		},
		SumGrandTotal: decimal.Zero,
		AvgGrandTotal: decimal.Zero,
	}
}

func finishStatistics(stats *models.Statistics, totals []decimal.Decimal) {
	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(t)
	}
	stats.SumGrandTotal = sum
	if len(totals) > 0 {
		stats.AvgGrandTotal = sum.Div(decimal.NewFromInt(int64(len(totals)))).Round(2)
	}
}
