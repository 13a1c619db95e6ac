package ingest

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/ViktorAgafonov/ForecastOrder/internal/domain"
)

// Ledger holds the normalized rows of one or more purchase-request files
// plus per-row parse bookkeeping.
type Ledger struct {
	Rows    []domain.LedgerRow
	Parsed  int
	Skipped int
}

// Items returns one item per row, duplicates included; the resolver
// deduplicates.
func (l *Ledger) Items() []domain.Item {
	items := make([]domain.Item, 0, len(l.Rows))
	for _, row := range l.Rows {
		items = append(items, domain.Item{Name: row.Name, Code: row.Code})
	}
	return items
}

// Merge appends another ledger's rows and counters.
func (l *Ledger) Merge(other *Ledger) {
	l.Rows = append(l.Rows, other.Rows...)
	l.Parsed += other.Parsed
	l.Skipped += other.Skipped
}

type columnSet struct {
	name     int
	code     int
	date     int
	quantity int
	comment  int
	delivery int
}

// LoadFile reads the first sheet of an xlsx purchase-request ledger. Column
// headers are matched by substring after normalization, so header wording
// may vary between files. Rows with an unparseable request date or with both
// name and code empty are counted as skipped, never aborting the batch.
// Missing required columns (name, request date, quantity) are an input error.
func LoadFile(path string) (*Ledger, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger file %s: %w", path, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("ledger file %s has no sheets", path)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheets[0], err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("ledger file %s has no data rows", path)
	}

	header := normalizeHeader(rows[0])
	cols, err := findColumns(header)
	if err != nil {
		return nil, fmt.Errorf("ledger file %s: %w", path, err)
	}

	ledger := &Ledger{}
	for i, raw := range rows[1:] {
		name := strings.TrimSpace(cell(raw, cols.name))
		code := strings.TrimSpace(cell(raw, cols.code))

		// Recover a code embedded in the name when the code column is empty.
		if code == "" {
			if _, article := ExtractArticle(name); article != "" {
				code = article
			}
		}

		if name == "" && code == "" {
			ledger.Skipped++
			continue
		}

		date, ok := parseDate(cell(raw, cols.date))
		if !ok {
			log.Warn().Str("file", path).Int("row", i+2).Msg("skipping row with unparseable request date")
			ledger.Skipped++
			continue
		}

		quantityRaw := cell(raw, cols.quantity)
		row := domain.LedgerRow{
			Name:        name,
			Code:        code,
			RequestDate: date,
			Quantity:    ParseQuantity(quantityRaw),
			QuantityRaw: quantityRaw,
			Comment:     cell(raw, cols.comment),
		}
		if delivery, ok := parseDate(cell(raw, cols.delivery)); ok {
			row.DeliveryDate = delivery
		}

		ledger.Rows = append(ledger.Rows, row)
		ledger.Parsed++
	}

	log.Info().Str("file", path).Int("parsed", ledger.Parsed).Int("skipped", ledger.Skipped).
		Msg("ledger loaded")
	return ledger, nil
}

// normalizeHeader lowercases and trims header cells, collapses newlines and
// gives unnamed columns positional names.
func normalizeHeader(cells []string) []string {
	out := make([]string, len(cells))
	for i, c := range cells {
		c = strings.ReplaceAll(c, "\n", " ")
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || strings.HasPrefix(c, "unnamed") {
			c = fmt.Sprintf("столбец_%d", i)
		}
		out[i] = c
	}
	return out
}

func findColumns(header []string) (columnSet, error) {
	cols := columnSet{
		name:     findColumn(header, "наименование", "название"),
		code:     findColumn(header, "артикул", "код"),
		date:     findColumn(header, "дата заявки"),
		quantity: findColumn(header, "количество", "кол-во"),
		comment:  findColumn(header, "комментарий", "примечание", "коммент"),
		delivery: findColumn(header, "дата поставки", "срок поставки"),
	}
	if cols.date < 0 {
		// Any date column beats none.
		cols.date = findColumn(header, "дата")
	}

	var missing []string
	if cols.name < 0 {
		missing = append(missing, "наименование")
	}
	if cols.date < 0 {
		missing = append(missing, "дата заявки")
	}
	if cols.quantity < 0 {
		missing = append(missing, "количество")
	}
	if len(missing) > 0 {
		return cols, fmt.Errorf("required columns not found: %s", strings.Join(missing, ", "))
	}
	return cols, nil
}

func findColumn(header []string, substrings ...string) int {
	for _, sub := range substrings {
		for i, col := range header {
			if strings.Contains(col, sub) {
				return i
			}
		}
	}
	return -1
}

func cell(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

var dateLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02.01.2006",
	"2.1.2006",
	"01-02-06",
	"1-2-06",
	"2006/01/02",
}

// parseDate tries the known textual layouts and falls back to an Excel
// serial date number.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}

	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 59 {
		// Excel epoch, accounting for the phantom 1900 leap day.
		epoch := time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)
		return epoch.AddDate(0, 0, int(serial)), true
	}

	return time.Time{}, false
}
