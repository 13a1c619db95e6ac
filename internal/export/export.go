package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/ViktorAgafonov/ForecastOrder/internal/domain"
)

const dateFormat = "02.01.2006"

// Headers are the localized column titles of the recommendation export.
var Headers = []string{
	"ID группы",
	"Наименование",
	"Похожие наименования",
	"Дата заказа",
	"Прогнозируемая дата потребности",
	"Рекомендуемое количество",
}

// ToExcel writes recommendation rows to an xlsx file, one row per
// recommendation, list-valued fields flattened to comma-joined text.
func ToExcel(path string, recs []domain.Recommendation) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := f.GetSheetName(0)
	if err := f.SetSheetRow(sheet, "A1", &Headers); err != nil {
		return fmt.Errorf("failed to write export header: %w", err)
	}

	for i, rec := range recs {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		row := []interface{}{
			rec.GroupID,
			ItemLabel(rec.Item),
			JoinItems(rec.SimilarItems),
			rec.OrderDate.Format(dateFormat),
			rec.ForecastDate.Format(dateFormat),
			rec.Quantity,
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write export row %d: %w", i+2, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save export file %s: %w", path, err)
	}
	return nil
}

// ToCSV writes the same rows as the xlsx export.
func ToCSV(path string, recs []domain.Recommendation) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	if err := writer.Write(Headers); err != nil {
		return err
	}

	for _, rec := range recs {
		record := []string{
			rec.GroupID,
			ItemLabel(rec.Item),
			JoinItems(rec.SimilarItems),
			rec.OrderDate.Format(dateFormat),
			rec.ForecastDate.Format(dateFormat),
			fmt.Sprintf("%g", rec.Quantity),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	return writer.Error()
}

// ItemLabel renders an item as "Name (Code)", falling back to whichever
// field is present.
func ItemLabel(item domain.Item) string {
	switch {
	case item.Name != "" && item.Code != "" && item.Name != item.Code:
		return fmt.Sprintf("%s (%s)", item.Name, item.Code)
	case item.Name != "":
		return item.Name
	default:
		return item.Code
	}
}

// JoinItems flattens a member list to comma-joined text.
func JoinItems(items []domain.Item) string {
	labels := make([]string, 0, len(items))
	for _, item := range items {
		labels = append(labels, ItemLabel(item))
	}
	return strings.Join(labels, ", ")
}
