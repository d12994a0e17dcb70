package stats

import (
	"errors"
	"math"
	"testing"

	"dojo/internal/domain/domainerr"
	"dojo/internal/domain/inventory"
)

// TestClassifyAttendanceRisk pins the bucket boundaries.
func TestClassifyAttendanceRisk(t *testing.T) {
	tests := []struct {
		rate float64
		want RiskLevel
	}{
		{0, RiskHigh},
		{59.9, RiskHigh},
		{60, RiskMedium},
		{79.9, RiskMedium},
		{80, RiskLow},
		{100, RiskLow},
	}
	for _, tt := range tests {
		got, err := ClassifyAttendanceRisk(tt.rate)
		if err != nil {
			t.Fatalf("ClassifyAttendanceRisk(%v) unexpected error: %v", tt.rate, err)
		}
		if got != tt.want {
			t.Errorf("ClassifyAttendanceRisk(%v) = %s, want %s", tt.rate, got, tt.want)
		}
	}
}

// TestClassifyAttendanceRisk_InvalidInput rejects rates outside the domain.
func TestClassifyAttendanceRisk_InvalidInput(t *testing.T) {
	for _, rate := range []float64{-0.1, 100.1, math.NaN()} {
		if _, err := ClassifyAttendanceRisk(rate); !errors.Is(err, domainerr.ErrInvalidInput) {
			t.Errorf("ClassifyAttendanceRisk(%v) error = %v, want ErrInvalidInput", rate, err)
		}
	}
}

// TestClassifyStockStatus checks the precedence order.
func TestClassifyStockStatus(t *testing.T) {
	tests := []struct {
		name string
		item inventory.Item
		want StockStatus
	}{
		{"zero stock with zero levels", inventory.Item{CurrentStock: 0, MinStockLevel: 0, MaxStockLevel: 0}, StockOutOfStock},
		{"zero stock with levels", inventory.Item{CurrentStock: 0, MinStockLevel: 5, MaxStockLevel: 50}, StockOutOfStock},
		{"at min", inventory.Item{CurrentStock: 5, MinStockLevel: 5, MaxStockLevel: 50}, StockLow},
		{"below min", inventory.Item{CurrentStock: 2, MinStockLevel: 5, MaxStockLevel: 50}, StockLow},
		{"at max", inventory.Item{CurrentStock: 50, MinStockLevel: 5, MaxStockLevel: 50}, StockOverstocked},
		{"between", inventory.Item{CurrentStock: 20, MinStockLevel: 5, MaxStockLevel: 50}, StockInStock},
		{"min and max equal", inventory.Item{CurrentStock: 10, MinStockLevel: 10, MaxStockLevel: 10}, StockLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ClassifyStockStatus(tt.item)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ClassifyStockStatus() = %s, want %s", got, tt.want)
			}
		})
	}

	if _, err := ClassifyStockStatus(inventory.Item{CurrentStock: -1}); !errors.Is(err, domainerr.ErrInvalidInput) {
		t.Errorf("negative stock error = %v, want ErrInvalidInput", err)
	}
}

// TestRiskLevelRank verifies ordinal ordering.
func TestRiskLevelRank(t *testing.T) {
	if !(RiskLow.Rank() < RiskMedium.Rank() && RiskMedium.Rank() < RiskHigh.Rank()) {
		t.Errorf("ranks out of order: %d %d %d", RiskLow.Rank(), RiskMedium.Rank(), RiskHigh.Rank())
	}
	if RiskLevel("severe").Rank() != -1 {
		t.Errorf("unknown level rank = %d", RiskLevel("severe").Rank())
	}
}
