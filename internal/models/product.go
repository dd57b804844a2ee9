package models

import "time"

// MarginClass is the letter grade assigned to a product that determines
// the platform's cut.
type MarginClass string

const (
	ClassA MarginClass = "A"
	ClassB MarginClass = "B"
	ClassC MarginClass = "C"
	ClassD MarginClass = "D"
	ClassE MarginClass = "E"
)

// defaultMarginPercent is used when the margin table has no entry at all
// for Class D either.
const defaultMarginPercent = 6.0

// MarginTable maps margin classes to platform margin percentages.
type MarginTable map[MarginClass]float64

// Lookup returns the margin percent for a class. An unknown or missing
// class falls back to the Class D value rather than failing.
func (t MarginTable) Lookup(class MarginClass) float64 {
	if percent, ok := t[class]; ok {
		return percent
	}
	if percent, ok := t[ClassD]; ok {
		return percent
	}
	return defaultMarginPercent
}

// Product represents a catalog product. Created by catalog ingestion;
// immutable here except for its distributor set.
type Product struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	Manufacturer   string      `json:"manufacturer"`
	MRP            *float64    `json:"mrp,omitempty"`
	MarginClass    MarginClass `json:"marginClass"`
	DistributorIDs []string    `json:"distributorIds,omitempty"`
	CreatedAt      time.Time   `json:"createdAt"`
}
