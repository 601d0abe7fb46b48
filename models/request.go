package models

import (
	"fmt"
	"strings"
)

type VehicleClass string

const (
	VehicleHatchback VehicleClass = "hatchback"
	VehicleSedan     VehicleClass = "sedan"
	VehicleSUV       VehicleClass = "suv"
	VehicleLuxury    VehicleClass = "luxury"
)

// VehicleClasses is ordered by vehicle value, lowest first.
var VehicleClasses = []VehicleClass{VehicleHatchback, VehicleSedan, VehicleSUV, VehicleLuxury}

type WorkshopType string

const (
	WorkshopIndependent WorkshopType = "independent"
	WorkshopShowroom    WorkshopType = "showroom"
)

type PricingMode string

const (
	PricingOEM         PricingMode = "oem"
	PricingAftermarket PricingMode = "aftermarket"
)

// ClaimRequest carries the non-image inputs of an analysis request.
type ClaimRequest struct {
	VehicleClass VehicleClass `json:"vehicle_class"`
	WorkshopType WorkshopType `json:"workshop_type"`
	PricingMode  PricingMode  `json:"pricing_mode"`
	VehicleMake  string       `json:"vehicle_make,omitempty"`
}

func ParseVehicleClass(s string) (VehicleClass, error) {
	v := VehicleClass(strings.ToLower(strings.TrimSpace(s)))
	for _, c := range VehicleClasses {
		if v == c {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown vehicle_class %q (want hatchback|sedan|suv|luxury)", s)
}

func ParseWorkshopType(s string) (WorkshopType, error) {
	switch w := WorkshopType(strings.ToLower(strings.TrimSpace(s))); w {
	case WorkshopIndependent, WorkshopShowroom:
		return w, nil
	}
	return "", fmt.Errorf("unknown workshop_type %q (want independent|showroom)", s)
}

func ParsePricingMode(s string) (PricingMode, error) {
	switch p := PricingMode(strings.ToLower(strings.TrimSpace(s))); p {
	case PricingOEM, PricingAftermarket:
		return p, nil
	}
	return "", fmt.Errorf("unknown pricing_mode %q (want oem|aftermarket)", s)
}
