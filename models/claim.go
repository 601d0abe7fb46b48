package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type RepairDecision string

const (
	DecisionRepair  RepairDecision = "REPAIR"
	DecisionReplace RepairDecision = "REPLACE"
)

type ApprovalStatus string

const (
	ApprovalAutoApprove  ApprovalStatus = "AUTO_APPROVE"
	ApprovalManualReview ApprovalStatus = "MANUAL_REVIEW"
	ApprovalDeclined     ApprovalStatus = "DECLINED"
)

type DamageType string

const (
	DamageDent        DamageType = "Dent"
	DamageScratch     DamageType = "Scratch"
	DamageCrack       DamageType = "Crack"
	DamageDeformation DamageType = "Deformation"
	DamagePaint       DamageType = "Paint Damage"
	DamageUnknown     DamageType = "Unknown"
)

// Claim status values.
const (
	StatusCompleted = "completed"
	StatusDegraded  = "degraded"
)

type ImageMetrics struct {
	Brightness    float64    `json:"brightness"`     // mean luminance, 0.0 - 1.0
	BlurScore     float64    `json:"blur_score"`     // Laplacian variance, higher = sharper
	ContrastScore float64    `json:"contrast_score"` // luminance std dev, 0.0 - 1.0
	Resolution    Resolution `json:"resolution"`
}

type Resolution struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBox is half-open: X1 < X2 and Y1 < Y2 always hold.
type BoundingBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

type DamageRegion struct {
	RegionID          int         `json:"region_id"`
	AreaPx            int         `json:"area_px"`
	Centroid          Point       `json:"centroid"`
	BoundingBox       BoundingBox `json:"bounding_box"`
	GradientIntensity float64     `json:"gradient_intensity"` // mean normalized gradient inside the region
}

type PerceptionResult struct {
	POI           string         `json:"poi"`         // "Front-Left", "Rear", "Unknown", ...
	Orientation   string         `json:"orientation"` // clock code: "12-9", "3", "C", "?"
	DamageRegions []DamageRegion `json:"damage_regions"`
	ImageMetrics  ImageMetrics   `json:"image_metrics"`
	HeatmapURL    string         `json:"heatmap_url,omitempty"`
}

type Location struct {
	XPercentage float64 `json:"x_percentage"`
	YPercentage float64 `json:"y_percentage"`
}

type PartDecision struct {
	Part          string         `json:"part"`
	PartKey       string         `json:"part_key"`
	Decision      RepairDecision `json:"decision"`
	SeverityScore int            `json:"severity_score"` // 1 (cosmetic) - 6 (critical)
	Justification string         `json:"justification"`
	DamageType    DamageType     `json:"damage_type,omitempty"`
	Location      Location       `json:"location"`
}

type LLMResult struct {
	Decisions    []PartDecision `json:"decisions"`
	ModelUsed    string         `json:"model_used"`
	PromptTokens *int           `json:"prompt_tokens,omitempty"`
}

type EstimateLineItem struct {
	Part            string          `json:"part"`
	PartKey         string          `json:"part_key"`
	Action          RepairDecision  `json:"action"`
	SeverityScore   int             `json:"severity_score"`
	PartCost        decimal.Decimal `json:"part_cost"`
	LaborCost       decimal.Decimal `json:"labor_cost"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	GST             decimal.Decimal `json:"gst"`
	Total           decimal.Decimal `json:"total"`
	PricingMode     PricingMode     `json:"pricing_mode"`
	WorkshopType    WorkshopType    `json:"workshop_type"`
	IsEstimatedCost bool            `json:"is_estimated_cost"` // no catalog price, heuristic used
	Justification   string          `json:"justification"`
}

type EstimateResult struct {
	LineItems         []EstimateLineItem `json:"line_items"`
	Subtotal          decimal.Decimal    `json:"subtotal"`
	GST               decimal.Decimal    `json:"gst"`
	GrandTotal        decimal.Decimal    `json:"grand_total"`
	ApprovalStatus    ApprovalStatus     `json:"approval_status"`
	ApprovalThreshold decimal.Decimal    `json:"approval_threshold"`
	GSTRate           decimal.Decimal    `json:"gst_rate"`
	VehicleClass      VehicleClass       `json:"vehicle_class"`
	PricingMode       PricingMode        `json:"pricing_mode"`
	WorkshopType      WorkshopType       `json:"workshop_type"`
}

// ImageReport summarizes one uploaded image, including ones that failed perception.
type ImageReport struct {
	Index       int           `json:"index"`
	Primary     bool          `json:"primary"`
	Orientation string        `json:"orientation,omitempty"`
	RegionCount int           `json:"region_count"`
	Metrics     *ImageMetrics `json:"metrics,omitempty"`
	Error       string        `json:"error,omitempty"`
}

type ClaimAnalysisResponse struct {
	ClaimID          string           `json:"claim_id"`
	Status           string           `json:"status"`
	VehicleMake      string           `json:"vehicle_make,omitempty"`
	Perception       PerceptionResult `json:"perception"`
	RepairDecisions  LLMResult        `json:"repair_decisions"`
	Estimate         EstimateResult   `json:"estimate"`
	HeatmapURL       string           `json:"heatmap_url,omitempty"`
	Images           []ImageReport    `json:"images"`
	ProcessingTimeMs float64          `json:"processing_time_ms"`
	Warnings         []string         `json:"warnings"`
	CreatedAt        time.Time        `json:"created_at"`
}
