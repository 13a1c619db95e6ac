package analysis

import (
	"math"
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ViktorAgafonov/ForecastOrder/internal/domain"
)

// QuantityHistory maps group ids to every historical order quantity on
// record for the group's member items.
type QuantityHistory map[string][]float64

// BuildQuantityHistory collects the raw per-row quantities of each group's
// members from the ledger.
func BuildQuantityHistory(groups map[string][]domain.Item, rows []domain.LedgerRow) QuantityHistory {
	itemGroup := make(map[domain.Item]string)
	for id, items := range groups {
		for _, item := range items {
			itemGroup[item] = id
		}
	}

	history := make(QuantityHistory)
	for _, row := range rows {
		if id, ok := itemGroup[domain.Item{Name: row.Name, Code: row.Code}]; ok {
			history[id] = append(history[id], row.Quantity)
		}
	}
	return history
}

// GenerateRecommendations filters forecast points whose order-trigger date
// falls inside [today, today+daysAhead] and emits one row per (group, trigger
// date). When a group's entire quantity history is integral, recommended
// quantities are rounded to the nearest whole number. Rows are sorted
// ascending by order date.
func GenerateRecommendations(forecasts []domain.ForecastRecord, today time.Time, daysAhead int, history QuantityHistory) []domain.Recommendation {
	end := today.AddDate(0, 0, daysAhead)

	var recs []domain.Recommendation
	for _, fc := range forecasts {
		var representative domain.Item
		if len(fc.Items) > 0 {
			representative = fc.Items[0]
		}

		wholeUnits := allInteger(history[fc.GroupID])

		for _, point := range fc.Forecast {
			if point.OrderDate.Before(today) || point.OrderDate.After(end) {
				continue
			}

			quantity := point.EstimatedQuantity
			if wholeUnits {
				quantity = math.Round(quantity)
			}

			recs = append(recs, domain.Recommendation{
				GroupID:      fc.GroupID,
				Item:         representative,
				SimilarItems: fc.Items,
				OrderDate:    point.OrderDate,
				ForecastDate: point.ForecastDate,
				Quantity:     quantity,
			})
		}
	}

	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].OrderDate.Equal(recs[j].OrderDate) {
			return recs[i].OrderDate.Before(recs[j].OrderDate)
		}
		return recs[i].GroupID < recs[j].GroupID
	})

	log.Info().Int("recommendations", len(recs)).Msg("order recommendations generated")
	return recs
}

// allInteger reports whether a non-empty quantity history consists solely of
// whole numbers.
func allInteger(quantities []float64) bool {
	if len(quantities) == 0 {
		return false
	}
	for _, q := range quantities {
		if q != math.Trunc(q) {
			return false
		}
	}
	return true
}
