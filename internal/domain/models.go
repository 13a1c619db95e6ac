package domain

import "time"

// Item is a single product record from the purchase ledger. Both fields may
// be empty; two records with identical (Name, Code) denote the same item.
type Item struct {
	Name string `json:"name"`
	Code string `json:"code"`
}

// Group is a cluster of item records believed to denote the same product.
type Group struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// LedgerRow is one normalized purchase-request record.
type LedgerRow struct {
	Name         string
	Code         string
	RequestDate  time.Time
	Quantity     float64
	QuantityRaw  string
	Comment      string
	DeliveryDate time.Time // zero when the ledger has no explicit delivery date
}

// FrequencyRecord holds per-group order statistics derived from the ledger.
type FrequencyRecord struct {
	GroupID            string      `json:"group_id"`
	Items              []Item      `json:"items"`
	OrderDates         []time.Time `json:"order_dates"`
	OrderIntervals     []int       `json:"order_intervals"`
	AvgIntervalDays    float64     `json:"avg_interval_days"`
	MedianIntervalDays float64     `json:"median_interval_days"`
	MinIntervalDays    int         `json:"min_interval_days"`
	MaxIntervalDays    int         `json:"max_interval_days"`
	TotalOrdered       float64     `json:"total_ordered"`
	DailyConsumption   float64     `json:"daily_consumption"`
}

// LastOrderDate returns the most recent order date of the record.
func (r FrequencyRecord) LastOrderDate() time.Time {
	if len(r.OrderDates) == 0 {
		return time.Time{}
	}
	return r.OrderDates[len(r.OrderDates)-1]
}

// SeasonalProfile describes monthly and quarterly order-count distributions
// for a group. Computed only for groups with at least 4 order dates.
type SeasonalProfile struct {
	Monthly              map[time.Month]int `json:"monthly"`
	HighActivityMonths   []time.Month       `json:"high_activity_months"`
	Quarterly            map[int]int        `json:"quarterly"`
	HighActivityQuarters []int              `json:"high_activity_quarters"`
}

// ForecastPoint is a single projected order for a group.
type ForecastPoint struct {
	ForecastDate      time.Time `json:"forecast_date"`
	OrderDate         time.Time `json:"order_date"`
	EstimatedQuantity float64   `json:"estimated_quantity"`
	OriginalQuantity  float64   `json:"original_quantity"`
}

// ForecastRecord holds the projected orders for a group, with the lead time
// already folded into each point's trigger date.
type ForecastRecord struct {
	GroupID      string          `json:"group_id"`
	Items        []Item          `json:"items"`
	LeadTimeDays int             `json:"lead_time_days"`
	Forecast     []ForecastPoint `json:"forecast"`
}

// Recommendation is one actionable reorder row.
type Recommendation struct {
	GroupID      string    `json:"group_id"`
	Item         Item      `json:"item"`
	SimilarItems []Item    `json:"similar_items"`
	OrderDate    time.Time `json:"order_date"`
	ForecastDate time.Time `json:"forecast_date"`
	Quantity     float64   `json:"quantity"`
}

// ProgressFunc reports long-scan progress: percent 0..100 plus a status
// message. Implementations must not assume which goroutine invokes it.
type ProgressFunc func(percent int, message string)
