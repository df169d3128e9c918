// Package export renders the reviewed line items of a session as CSV or
// XLSX for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"payreview/internal/domain"
	"payreview/internal/service"
)

// UTF-8 BOM bytes for Excel compatibility on Windows.
var BOM = []byte{0xEF, 0xBB, 0xBF}

const sheetName = "Line Items"

// columns defines the header row.
var columns = []string{
	"Ref",
	"Description",
	"Quantity",
	"Unit Price",
	"Total",
	"Currency",
	"Selected",
	"Return Reason",
	"Added By User",
}

// Write renders view in format to w.
func Write(w io.Writer, format domain.ExportFormat, view *service.ReviewView) error {
	switch format {
	case domain.ExportFormatCSV:
		return WriteCSV(w, view)
	case domain.ExportFormatXLSX:
		return WriteXLSX(w, view)
	default:
		return domain.ErrUnsupportedFormat
	}
}

// ParseFormat maps a query value to a format. Empty means CSV.
func ParseFormat(s string) (domain.ExportFormat, error) {
	switch f := domain.ExportFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return domain.ExportFormatCSV, nil
	case domain.ExportFormatCSV, domain.ExportFormatXLSX:
		return f, nil
	default:
		return "", domain.ErrUnsupportedFormat
	}
}

// WriteCSV writes a BOM, the header, one row per line item and the summary
// rows.
func WriteCSV(w io.Writer, view *service.ReviewView) error {
	if _, err := w.Write(BOM); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return err
	}
	for i := range view.LineItems {
		if err := cw.Write(lineItemRow(&view.LineItems[i])); err != nil {
			return err
		}
	}
	for _, row := range summaryRows(view) {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a single-sheet workbook with numeric quantity and price
// cells.
func WriteXLSX(w io.Writer, view *service.ReviewView) (err error) {
	f := excelize.NewFile()
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := f.SetSheetName(f.GetSheetName(0), sheetName); err != nil {
		return fmt.Errorf("renaming sheet: %w", err)
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("creating style: %w", err)
	}

	header := make([]interface{}, len(columns))
	for i, c := range columns {
		header[i] = c
	}
	if err := setRow(f, 1, header); err != nil {
		return err
	}
	if err := f.SetRowStyle(sheetName, 1, 1, bold); err != nil {
		return fmt.Errorf("styling header: %w", err)
	}

	rowNum := 2
	for i := range view.LineItems {
		it := &view.LineItems[i]
		cells := []interface{}{
			it.Ref,
			it.Description,
			it.Quantity,
			number(it.GrossPrice),
			number(it.TotalGrossPrice),
			it.Currency,
			formatBool(it.Selected),
			reasonLabel(it),
			formatBool(it.AddedByUser),
		}
		if err := setRow(f, rowNum, cells); err != nil {
			return err
		}
		rowNum++
	}

	for _, summary := range summaryRows(view) {
		cells := make([]interface{}, len(summary))
		for i, v := range summary {
			cells[i] = v
		}
		cells[4] = number(summary[4])
		if err := setRow(f, rowNum, cells); err != nil {
			return err
		}
		if err := f.SetRowStyle(sheetName, rowNum, rowNum, bold); err != nil {
			return fmt.Errorf("styling summary: %w", err)
		}
		rowNum++
	}

	if err := f.SetColWidth(sheetName, "B", "B", 40); err != nil {
		return fmt.Errorf("sizing columns: %w", err)
	}
	return f.Write(w)
}

func setRow(f *excelize.File, row int, cells []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	if err := f.SetSheetRow(sheetName, cell, &cells); err != nil {
		return fmt.Errorf("writing row %d: %w", row, err)
	}
	return nil
}

func lineItemRow(it *service.LineItemView) []string {
	return []string{
		it.Ref,
		it.Description,
		strconv.Itoa(it.Quantity),
		it.GrossPrice,
		it.TotalGrossPrice,
		it.Currency,
		formatBool(it.Selected),
		reasonLabel(it),
		formatBool(it.AddedByUser),
	}
}

// summaryRows are the total and payable rows appended after the items. The
// amount sits in the Total column.
func summaryRows(view *service.ReviewView) [][]string {
	total := make([]string, len(columns))
	total[1] = "Total"
	total[2] = strconv.Itoa(view.SelectedCount)
	total[4] = view.TotalPrice
	total[5] = view.Currency

	pay := make([]string, len(columns))
	pay[1] = "Amount To Pay"
	pay[4] = view.AmountToPay
	pay[5] = view.Currency
	if view.Skonto != nil && view.Skonto.Active {
		pay[1] = fmt.Sprintf("Amount To Pay (Skonto %s%%)", view.Skonto.PercentageDiscounted)
	}
	return [][]string{total, pay}
}

func reasonLabel(it *service.LineItemView) string {
	if it.Reason == nil {
		return ""
	}
	if it.Reason.LocalizedLabel != "" {
		return it.Reason.LocalizedLabel
	}
	return it.Reason.ID
}

func number(s string) interface{} {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return s
	}
	return d.InexactFloat64()
}

func formatBool(v bool) string {
	if v {
		return "Yes"
	}
	return "No"
}

// nonAlphanumeric matches characters that are not alphanumeric, hyphen, or underscore.
var nonAlphanumeric = regexp.MustCompile(`[^a-zA-Z0-9_-]+`)

// multiUnderscore matches consecutive underscores.
var multiUnderscore = regexp.MustCompile(`_{2,}`)

// SanitizeFilename cleans a name for use in Content-Disposition. Replaces
// non-alphanumeric chars (except - _) with _, collapses consecutive
// underscores, and truncates to 100 chars.
func SanitizeFilename(name string) string {
	s := nonAlphanumeric.ReplaceAllString(name, "_")
	s = multiUnderscore.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

// BuildFilename returns the download name for a session export.
// Format: review_{session_id}_{YYYY-MM-DD}.{ext}
func BuildFilename(sessionID string, format domain.ExportFormat, now time.Time) string {
	return fmt.Sprintf("%s_%s.%s", SanitizeFilename("review_"+sessionID), now.Format("2006-01-02"), format)
}
