package model

import "testing"

func TestCalculateGrowth(t *testing.T) {
	tests := []struct {
		name     string
		current  int64
		previous int64
		wantPct  float64
		wantAbs  int64
		wantTrnd Trend
	}{
		{"both zero", 0, 0, 0, 0, TrendStable},
		{"from zero", 5, 0, 100, 5, TrendUp},
		{"flat", 100, 100, 0, 0, TrendStable},
		{"halved", 50, 100, -50, -50, TrendDown},
		{"doubled", 200, 100, 100, 100, TrendUp},
		{"within stable band", 101, 100, 1, 1, TrendStable},
		{"just above band", 102, 100, 2, 2, TrendUp},
		{"slight decline", 99, 100, -1, -1, TrendStable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := CalculateGrowth(tt.current, tt.previous)
			if g.Percentage != tt.wantPct {
				t.Fatalf("percentage: expected %v, got %v", tt.wantPct, g.Percentage)
			}
			if g.Absolute != tt.wantAbs {
				t.Fatalf("absolute: expected %d, got %d", tt.wantAbs, g.Absolute)
			}
			if g.Trend != tt.wantTrnd {
				t.Fatalf("trend: expected %s, got %s", tt.wantTrnd, g.Trend)
			}
			if g.Current != tt.current || g.Previous != tt.previous {
				t.Fatalf("values not carried through: %+v", g)
			}
		})
	}
}

func TestCalculateGrowthRounding(t *testing.T) {
	g := CalculateGrowth(1, 3)
	if g.Percentage != -66.67 {
		t.Fatalf("expected -66.67, got %v", g.Percentage)
	}
}
