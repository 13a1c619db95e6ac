package analysis

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ViktorAgafonov/ForecastOrder/internal/domain"
)

// DetectSeasonality tallies month-of-year and quarterly order counts for
// every group with at least 4 historical order dates. Months and quarters
// strictly above their mean count are flagged as high-activity. This is a
// descriptive heuristic, not a statistical seasonality test.
func DetectSeasonality(records []domain.FrequencyRecord) map[string]domain.SeasonalProfile {
	profiles := make(map[string]domain.SeasonalProfile)

	for _, rec := range records {
		if len(rec.OrderDates) < 4 {
			continue
		}

		monthly := make(map[time.Month]int, 12)
		for m := time.January; m <= time.December; m++ {
			monthly[m] = 0
		}
		for _, date := range rec.OrderDates {
			monthly[date.Month()]++
		}

		totalMonths := 0
		for _, count := range monthly {
			totalMonths += count
		}
		monthMean := float64(totalMonths) / 12

		var highMonths []time.Month
		for m := time.January; m <= time.December; m++ {
			if float64(monthly[m]) > monthMean {
				highMonths = append(highMonths, m)
			}
		}

		quarterly := map[int]int{1: 0, 2: 0, 3: 0, 4: 0}
		for m := time.January; m <= time.December; m++ {
			quarterly[(int(m)-1)/3+1] += monthly[m]
		}
		quarterMean := float64(totalMonths) / 4

		var highQuarters []int
		for q := 1; q <= 4; q++ {
			if float64(quarterly[q]) > quarterMean {
				highQuarters = append(highQuarters, q)
			}
		}
		sort.Ints(highQuarters)

		profiles[rec.GroupID] = domain.SeasonalProfile{
			Monthly:              monthly,
			HighActivityMonths:   highMonths,
			Quarterly:            quarterly,
			HighActivityQuarters: highQuarters,
		}
	}

	log.Info().Int("groups", len(profiles)).Msg("seasonal patterns detected")
	return profiles
}
