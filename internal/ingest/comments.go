package ingest

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/ViktorAgafonov/ForecastOrder/internal/domain"
)

// Delivery comments carry fragments like "2 от 01.02.2025 +3 от 05.06.2025":
// a partial quantity followed by its delivery date.
var deliveryPattern = regexp.MustCompile(`(\d+(?:[.,]\d+)?)\s+от\s+(\d{1,2}\.\d{1,2}\.\d{4})`)

// Delivery is one "<qty> от <date>" fragment parsed from a comment.
type Delivery struct {
	Quantity float64
	Date     time.Time
}

// ParseDeliveryComment extracts delivery fragments from a free-text comment.
// Malformed fragments are skipped.
func ParseDeliveryComment(comment string) []Delivery {
	matches := deliveryPattern.FindAllStringSubmatch(comment, -1)
	if len(matches) == 0 {
		return nil
	}

	deliveries := make([]Delivery, 0, len(matches))
	for _, m := range matches {
		qty, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64)
		if err != nil {
			continue
		}
		date, err := time.Parse("2.1.2006", m[2])
		if err != nil {
			continue
		}
		deliveries = append(deliveries, Delivery{Quantity: qty, Date: date})
	}
	return deliveries
}

// rowLeadTime derives a delivery lead time in days for one ledger row. Rows
// whose quantity cell is a formula get their delivery date from the comment
// fragments; plain rows use the explicit delivery-date column. Negative
// differences clamp to 0.
func rowLeadTime(row domain.LedgerRow) (float64, bool) {
	if row.RequestDate.IsZero() {
		return 0, false
	}

	if strings.ContainsAny(row.QuantityRaw, "+-") {
		deliveries := ParseDeliveryComment(row.Comment)
		if len(deliveries) == 0 {
			return 0, false
		}
		return clampDays(row.RequestDate, selectDeliveryDate(deliveries)), true
	}

	if !row.DeliveryDate.IsZero() {
		return clampDays(row.RequestDate, row.DeliveryDate), true
	}

	return 0, false
}

// selectDeliveryDate picks the date of the largest partial delivery when it
// covers at least half of the total, otherwise the latest date.
func selectDeliveryDate(deliveries []Delivery) time.Time {
	if len(deliveries) == 1 {
		return deliveries[0].Date
	}

	total := 0.0
	largest := deliveries[0]
	latest := deliveries[0].Date
	for _, d := range deliveries {
		total += d.Quantity
		if d.Quantity > largest.Quantity {
			largest = d
		}
		if d.Date.After(latest) {
			latest = d.Date
		}
	}

	if largest.Quantity >= total/2 {
		return largest.Date
	}
	return latest
}

func clampDays(from, to time.Time) float64 {
	days := to.Sub(from).Hours() / 24
	if days < 0 {
		return 0
	}
	return float64(int(days))
}

// BuildLeadTimeTable computes the mean delivery lead time per article code
// across all ledger rows that yield one. Rows without a code or without any
// delivery information are ignored; an empty table is a valid result and
// callers fall back to the default lead time.
func BuildLeadTimeTable(rows []domain.LedgerRow) map[string]float64 {
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, row := range rows {
		if row.Code == "" {
			continue
		}
		if days, ok := rowLeadTime(row); ok {
			sums[row.Code] += days
			counts[row.Code]++
		}
	}

	table := make(map[string]float64, len(sums))
	for code, sum := range sums {
		table[code] = sum / float64(counts[code])
	}
	return table
}
