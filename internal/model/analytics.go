package model

import (
	"math"
	"time"

	"github.com/karnoweb/viewable/internal/calendar"
)

// Trend classifies the direction of a growth comparison.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// GrowthMetric compares a current value against a previous one.
type GrowthMetric struct {
	Current    int64   `json:"current_value"`
	Previous   int64   `json:"previous_value"`
	Absolute   int64   `json:"absolute"`
	Percentage float64 `json:"percentage"`
	Trend      Trend   `json:"trend"`
}

// CalculateGrowth builds a GrowthMetric from two totals.
// A zero previous value yields 100% when current is positive and 0%
// when both are zero. Trend is stable when |percentage| <= 1.
func CalculateGrowth(current, previous int64) GrowthMetric {
	var pct float64
	if previous == 0 {
		if current > 0 {
			pct = 100
		}
	} else {
		pct = float64(current-previous) / float64(previous) * 100
	}
	pct = round2(pct)

	trend := TrendStable
	switch {
	case pct > 1:
		trend = TrendUp
	case pct < -1:
		trend = TrendDown
	}

	return GrowthMetric{
		Current:    current,
		Previous:   previous,
		Absolute:   current - previous,
		Percentage: pct,
		Trend:      trend,
	}
}

// TimeSeriesPoint is one tick of a time series.
type TimeSeriesPoint struct {
	Date             time.Time `json:"date"`
	Label            string    `json:"label"`
	Key              string    `json:"key"`
	Total            int64     `json:"total"`
	Unique           int64     `json:"unique"`
	GrowthPercentage float64   `json:"growth_percentage"` // vs preceding tick
}

// AnalyticsResult is the full analytics report for one entity and period.
// Every field is a plain value, safe to render as JSON.
type AnalyticsResult struct {
	Period       calendar.PeriodDescriptor `json:"period"`
	TotalViews   int64                     `json:"total_views"`
	UniqueViews  int64                     `json:"unique_views"`
	Growth       GrowthMetric              `json:"growth"`
	TimeSeries   []TimeSeriesPoint         `json:"time_series"`
	Peak         TimeSeriesPoint           `json:"peak"`
	Lowest       TimeSeriesPoint           `json:"lowest"`
	AverageDaily float64                   `json:"average_daily"`
}

// Entity is a hydrated entity reference attached to ranking and trending
// results. Attributes carry whatever columns the resolver fetched.
type Entity struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// RankingEntry is one row of a most-viewed ranking.
type RankingEntry struct {
	Entity      Entity `json:"entity"`
	TotalViews  int64  `json:"total_views"`
	UniqueViews int64  `json:"unique_views"`
}

// TrendingEntry is one row of a fastest-growing listing.
type TrendingEntry struct {
	Entity        Entity       `json:"entity"`
	CurrentViews  int64        `json:"current_views"`
	PreviousViews int64        `json:"previous_views"`
	Growth        GrowthMetric `json:"growth"`
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
