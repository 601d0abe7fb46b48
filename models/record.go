package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ClaimRecord is the persisted form of a claim: a summary row plus the full payload.
type ClaimRecord struct {
	ClaimID        string                 `json:"claim_id" gorm:"primaryKey"`
	Status         string                 `json:"status"`
	ApprovalStatus ApprovalStatus         `json:"approval_status" gorm:"index"`
	VehicleClass   VehicleClass           `json:"vehicle_class"`
	GrandTotal     decimal.Decimal        `json:"grand_total" gorm:"type:numeric"`
	Payload        *ClaimAnalysisResponse `json:"-" gorm:"serializer:json;type:text"`
	CreatedAt      time.Time              `json:"created_at" gorm:"index"`
}

func (ClaimRecord) TableName() string { return "claims" }

// ClaimSummary is the listing view of a stored claim.
type ClaimSummary struct {
	ClaimID        string          `json:"claim_id"`
	Status         string          `json:"status"`
	ApprovalStatus ApprovalStatus  `json:"approval_status"`
	VehicleClass   VehicleClass    `json:"vehicle_class"`
	GrandTotal     decimal.Decimal `json:"grand_total"`
	CreatedAt      time.Time       `json:"created_at"`
}

type Statistics struct {
	TotalClaims    int64                    `json:"total_claims"`
	ByApproval     map[ApprovalStatus]int64 `json:"by_approval"`
	SumGrandTotal  decimal.Decimal          `json:"sum_grand_total"`
	AvgGrandTotal  decimal.Decimal          `json:"avg_grand_total"`
	DegradedClaims int64                    `json:"degraded_claims"`
}
