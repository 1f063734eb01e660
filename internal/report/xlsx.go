package report

import (
	"bytes"
	"fmt"

	ledgerservice "github.com/kiribu/money-tracker/internal/ledger/service"
	"github.com/xuri/excelize/v2"
)

const reportSheet = "Report"

// WritePeriodReport renders rep as a workbook: a header row, one row per
// bucket and a totals row.
func WritePeriodReport(rep *ledgerservice.PeriodReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", reportSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	header := []any{"Period", "Income", "Expense", "Balance"}
	if err := f.SetSheetRow(reportSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	row := 2
	for _, r := range rep.Rows {
		values := []any{
			r.Label,
			r.Income.InexactFloat64(),
			r.Expense.InexactFloat64(),
			r.Income.Sub(r.Expense).InexactFloat64(),
		}
		if err := f.SetSheetRow(reportSheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", row, err)
		}
		row++
	}

	totals := []any{
		"Total",
		rep.TotalIncome.InexactFloat64(),
		rep.TotalExpense.InexactFloat64(),
		rep.Balance.InexactFloat64(),
	}
	if err := f.SetSheetRow(reportSheet, fmt.Sprintf("A%d", row), &totals); err != nil {
		return nil, fmt.Errorf("failed to write totals: %w", err)
	}

	style, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return nil, fmt.Errorf("failed to create number style: %w", err)
	}
	if err := f.SetCellStyle(reportSheet, "B2", fmt.Sprintf("D%d", row), style); err != nil {
		return nil, fmt.Errorf("failed to style amounts: %w", err)
	}
	if err := f.SetColWidth(reportSheet, "A", "D", 16); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
