package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ViktorAgafonov/ForecastOrder/internal/domain"
)

func TestDetectSeasonalityRequiresFourDates(t *testing.T) {
	records := []domain.FrequencyRecord{
		{
			GroupID: "g",
			OrderDates: []time.Time{
				day(2024, time.January, 1),
				day(2024, time.February, 1),
				day(2024, time.March, 1),
			},
		},
	}

	assert.Empty(t, DetectSeasonality(records))
}

func TestDetectSeasonalityHighActivity(t *testing.T) {
	records := []domain.FrequencyRecord{
		{
			GroupID: "g",
			OrderDates: []time.Time{
				day(2023, time.January, 5),
				day(2024, time.January, 10),
				day(2024, time.February, 1),
				day(2024, time.July, 1),
			},
		},
	}

	profiles := DetectSeasonality(records)
	require.Contains(t, profiles, "g")
	profile := profiles["g"]

	assert.Equal(t, 2, profile.Monthly[time.January])
	assert.Equal(t, 1, profile.Monthly[time.February])
	assert.Equal(t, 1, profile.Monthly[time.July])
	assert.Equal(t, 0, profile.Monthly[time.December])
	assert.Len(t, profile.Monthly, 12)

	// Mean is 4/12, so every month with an order is above it.
	assert.Equal(t, []time.Month{time.January, time.February, time.July}, profile.HighActivityMonths)

	assert.Equal(t, 3, profile.Quarterly[1])
	assert.Equal(t, 1, profile.Quarterly[3])

	// Quarterly mean is 1, so only Q1 is strictly above.
	assert.Equal(t, []int{1}, profile.HighActivityQuarters)
}

func TestDetectSeasonalityUniformHasNoHighMonths(t *testing.T) {
	dates := make([]time.Time, 0, 12)
	for m := time.January; m <= time.December; m++ {
		dates = append(dates, day(2024, m, 1))
	}
	records := []domain.FrequencyRecord{{GroupID: "g", OrderDates: dates}}

	profile := DetectSeasonality(records)["g"]
	assert.Empty(t, profile.HighActivityMonths)
	assert.Empty(t, profile.HighActivityQuarters)
}
