// Package stats reduces attendance, payment and inventory snapshots into
// rollups and classifies them. Everything here is pure: no I/O, no shared
// state, same input gives the same output.
package stats

import (
	"math"

	"dojo/internal/domain/domainerr"
	"dojo/internal/domain/inventory"
)

// RiskLevel is the ordinal attendance-reliability bucket of a student.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Rank orders risk levels, low=0 .. high=2. Unknown levels rank -1.
func (r RiskLevel) Rank() int {
	switch r {
	case RiskLow:
		return 0
	case RiskMedium:
		return 1
	case RiskHigh:
		return 2
	}
	return -1
}

// StockStatus is the derived availability label of an inventory item.
type StockStatus string

const (
	StockOutOfStock  StockStatus = "out_of_stock"
	StockLow         StockStatus = "low_stock"
	StockOverstocked StockStatus = "overstocked"
	StockInStock     StockStatus = "in_stock"
)

// Risk thresholds on the attendance rate (percent).
const (
	HighRiskBelow   = 60
	MediumRiskBelow = 80
)

// ClassifyAttendanceRisk maps an attendance rate to a risk level.
// Boundaries belong to the lower-risk bucket: 60 is medium, 80 is low.
// PRE: 0 <= rate <= 100
// POST: Returns low, medium or high; ErrInvalidInput otherwise
func ClassifyAttendanceRisk(rate float64) (RiskLevel, error) {
	if math.IsNaN(rate) || rate < 0 || rate > 100 {
		return "", domainerr.Invalidf("attendance rate %v outside [0,100]", rate)
	}
	switch {
	case rate < HighRiskBelow:
		return RiskHigh, nil
	case rate < MediumRiskBelow:
		return RiskMedium, nil
	default:
		return RiskLow, nil
	}
}

// ClassifyStockStatus labels an item's stock level.
// Exact zero is checked first so min/max levels configured at 0 cannot mask it.
// PRE: item.CurrentStock >= 0
func ClassifyStockStatus(item inventory.Item) (StockStatus, error) {
	if item.CurrentStock < 0 {
		return "", domainerr.Invalidf("item %q has negative stock %d", item.ID, item.CurrentStock)
	}
	switch {
	case item.CurrentStock == 0:
		return StockOutOfStock, nil
	case item.CurrentStock <= item.MinStockLevel:
		return StockLow, nil
	case item.CurrentStock >= item.MaxStockLevel:
		return StockOverstocked, nil
	default:
		return StockInStock, nil
	}
}
