package analysis

import (
	"math"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ViktorAgafonov/ForecastOrder/internal/domain"
)

// LeadTimeTable maps article codes to average delivery lead times in days.
type LeadTimeTable map[string]float64

// ForecastParams controls the projection horizon and lead-time resolution.
type ForecastParams struct {
	Today               time.Time
	ForecastDays        int
	DefaultLeadTimeDays int
	UseItemLeadTimes    bool
	LeadTimes           LeadTimeTable
}

// BuildForecast projects future orders for every group with a positive
// average interval and positive daily consumption. Starting from the last
// known order date it advances by the rounded average interval, emitting a
// point for each date strictly after today and at or before the horizon.
// Estimated quantity is daily consumption times the average interval, scaled
// by the seasonal month factor when a profile exists. The order-trigger date
// of each point is the forecast date shifted back by the group's lead time.
func BuildForecast(records []domain.FrequencyRecord, seasonal map[string]domain.SeasonalProfile, params ForecastParams) []domain.ForecastRecord {
	end := params.Today.AddDate(0, 0, params.ForecastDays)

	var forecasts []domain.ForecastRecord
	for _, rec := range records {
		if rec.AvgIntervalDays <= 0 || rec.DailyConsumption <= 0 {
			continue
		}

		step := int(math.Round(rec.AvgIntervalDays))
		if step < 1 {
			step = 1
		}

		leadTime := resolveLeadTime(rec, params)
		profile, hasProfile := seasonal[rec.GroupID]

		var points []domain.ForecastPoint
		next := rec.LastOrderDate()
		for next.Before(end) {
			next = next.AddDate(0, 0, step)
			if !next.After(params.Today) || next.After(end) {
				continue
			}

			quantity := rec.DailyConsumption * rec.AvgIntervalDays
			adjusted := quantity
			if hasProfile {
				adjusted = seasonalAdjust(quantity, next.Month(), profile)
			}

			points = append(points, domain.ForecastPoint{
				ForecastDate:      next,
				OrderDate:         next.AddDate(0, 0, -leadTime),
				EstimatedQuantity: round2(adjusted),
				OriginalQuantity:  round2(quantity),
			})
		}

		if len(points) > 0 {
			forecasts = append(forecasts, domain.ForecastRecord{
				GroupID:      rec.GroupID,
				Items:        rec.Items,
				LeadTimeDays: leadTime,
				Forecast:     points,
			})
		}
	}

	log.Info().Int("groups", len(forecasts)).Msg("forecast built")
	return forecasts
}

// resolveLeadTime walks the fallback chain: group id as-is, group id with the
// synthetic "art_" prefix stripped, any member item's code, then the default.
// Member codes are tried in stored member order, which is stable across runs.
// Lead times round up to the next whole day.
func resolveLeadTime(rec domain.FrequencyRecord, params ForecastParams) int {
	if !params.UseItemLeadTimes || len(params.LeadTimes) == 0 {
		return params.DefaultLeadTimeDays
	}

	if days, ok := params.LeadTimes[rec.GroupID]; ok {
		return int(math.Ceil(days))
	}

	if stripped := strings.TrimPrefix(rec.GroupID, "art_"); stripped != rec.GroupID {
		if days, ok := params.LeadTimes[stripped]; ok {
			return int(math.Ceil(days))
		}
	}

	for _, item := range rec.Items {
		if item.Code == "" {
			continue
		}
		if days, ok := params.LeadTimes[item.Code]; ok {
			return int(math.Ceil(days))
		}
	}

	return params.DefaultLeadTimeDays
}

// seasonalAdjust scales a quantity by monthFactor / meanMonthFactor. A zero
// month factor or zero mean leaves the quantity unadjusted.
func seasonalAdjust(quantity float64, month time.Month, profile domain.SeasonalProfile) float64 {
	factor := profile.Monthly[month]
	if factor <= 0 {
		return quantity
	}

	sum := 0
	for _, count := range profile.Monthly {
		sum += count
	}
	meanFactor := float64(sum) / 12
	if meanFactor <= 0 {
		return quantity
	}

	return quantity * float64(factor) / meanFactor
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
