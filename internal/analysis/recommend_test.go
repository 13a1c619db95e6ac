package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViktorAgafonov/ForecastOrder/internal/domain"
)

func forecastWithOrderDates(groupID string, qty float64, orderDates ...time.Time) domain.ForecastRecord {
	points := make([]domain.ForecastPoint, 0, len(orderDates))
	for _, d := range orderDates {
		points = append(points, domain.ForecastPoint{
			OrderDate:         d,
			ForecastDate:      d.AddDate(0, 0, 14),
			EstimatedQuantity: qty,
			OriginalQuantity:  qty,
		})
	}
	return domain.ForecastRecord{
		GroupID:      groupID,
		Items:        []domain.Item{{Name: "Bolt M6", Code: "A100"}},
		LeadTimeDays: 14,
		Forecast:     points,
	}
}

func TestGenerateRecommendationsWindowInclusive(t *testing.T) {
	today := day(2024, time.March, 15)
	fc := forecastWithOrderDates("g", 10,
		day(2024, time.March, 14), // before today, excluded
		day(2024, time.March, 15), // today, included
		day(2024, time.April, 14), // end of window, included
		day(2024, time.April, 15), // past window, excluded
	)

	recs := GenerateRecommendations([]domain.ForecastRecord{fc}, today, 30, nil)
	require.Len(t, recs, 2)
	assert.Equal(t, day(2024, time.March, 15), recs[0].OrderDate)
	assert.Equal(t, day(2024, time.April, 14), recs[1].OrderDate)
}

func TestGenerateRecommendationsIntegerRounding(t *testing.T) {
	today := day(2024, time.March, 15)
	fc := forecastWithOrderDates("g", 12.34, day(2024, time.March, 20))

	tests := []struct {
		name    string
		history QuantityHistory
		want    float64
	}{
		{
			name:    "whole-number history rounds",
			history: QuantityHistory{"g": {5, 3, 7}},
			want:    12,
		},
		{
			name:    "fractional history passes through",
			history: QuantityHistory{"g": {5.5, 3}},
			want:    12.34,
		},
		{
			name:    "empty history passes through",
			history: QuantityHistory{},
			want:    12.34,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recs := GenerateRecommendations([]domain.ForecastRecord{fc}, today, 30, tt.history)
			require.Len(t, recs, 1)
			assert.InDelta(t, tt.want, recs[0].Quantity, 0.001)
		})
	}
}

func TestGenerateRecommendationsSorted(t *testing.T) {
	today := day(2024, time.March, 15)
	forecasts := []domain.ForecastRecord{
		forecastWithOrderDates("zzz", 1, day(2024, time.March, 20)),
		forecastWithOrderDates("aaa", 1, day(2024, time.March, 20), day(2024, time.March, 18)),
	}

	recs := GenerateRecommendations(forecasts, today, 30, nil)
	require.Len(t, recs, 3)
	assert.Equal(t, "aaa", recs[0].GroupID)
	assert.Equal(t, day(2024, time.March, 18), recs[0].OrderDate)
	assert.Equal(t, "aaa", recs[1].GroupID)
	assert.Equal(t, "zzz", recs[2].GroupID)
}

func TestGenerateRecommendationsCarriesItems(t *testing.T) {
	today := day(2024, time.March, 15)
	fc := forecastWithOrderDates("g", 5, day(2024, time.March, 20))
	fc.Items = []domain.Item{
		{Name: "Bolt M6", Code: "A100"},
		{Name: "Bolt M6 Steel", Code: "A100S"},
	}

	recs := GenerateRecommendations([]domain.ForecastRecord{fc}, today, 30, nil)
	require.Len(t, recs, 1)
	assert.Equal(t, fc.Items[0], recs[0].Item)
	assert.Equal(t, fc.Items, recs[0].SimilarItems)
}

func TestBuildQuantityHistory(t *testing.T) {
	groups := map[string][]domain.Item{
		"g1": {{Name: "Bolt", Code: "A"}},
		"g2": {{Name: "Nut", Code: "B"}},
	}
	rows := []domain.LedgerRow{
		ledgerRow("Bolt", "A", day(2024, time.January, 1), 5),
		ledgerRow("Bolt", "A", day(2024, time.February, 1), 7),
		ledgerRow("Nut", "B", day(2024, time.January, 1), 2.5),
		ledgerRow("Unknown", "X", day(2024, time.January, 1), 99),
	}

	history := BuildQuantityHistory(groups, rows)
	assert.Equal(t, []float64{5, 7}, history["g1"])
	assert.Equal(t, []float64{2.5}, history["g2"])
	assert.NotContains(t, history, "art_X")
}
