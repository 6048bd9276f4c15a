package billing

import (
	"context"
	"fmt"
	"time"

	"go-lpm/internal/common/models"

	"github.com/xuri/excelize/v2"
)

// exportRowCap bounds a single export run.
const exportRowCap = 10000

// ExportWorkbook renders the caller's visible billing data as an .xlsx
// workbook with one sheet per record type.
func (s *BillingServiceImpl) ExportWorkbook(ctx context.Context) ([]byte, string, error) {
	timeFilter, err := s.scoped(ctx, timeEntryRowPolicy)
	if err != nil {
		return nil, "", err
	}
	entries, err := s.TimeEntries.List(ctx, timeFilter, exportRowCap, 0)
	if err != nil {
		return nil, "", err
	}

	expenseFilter, err := s.scoped(ctx, expenseRowPolicy)
	if err != nil {
		return nil, "", err
	}
	expenses, err := s.Expenses.List(ctx, expenseFilter, exportRowCap, 0)
	if err != nil {
		return nil, "", err
	}

	invoiceFilter, err := s.scoped(ctx, invoiceRowPolicy)
	if err != nil {
		return nil, "", err
	}
	invoices, err := s.Invoices.List(ctx, invoiceFilter, exportRowCap, 0)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E0E0E0"}, Pattern: 1},
	})

	if err := writeSheet(f, "Time Entries", headerStyle,
		[]string{"Matter", "User", "Date", "Description", "Minutes", "Rate", "Billable", "Source"},
		len(entries), func(i int) []interface{} {
			e := entries[i]
			return []interface{}{
				e.MatterID.Hex(), e.UserID.Hex(), e.Date.Format("2006-01-02"),
				e.Description, e.Minutes, e.Rate, e.Billable, e.Source,
			}
		}); err != nil {
		return nil, "", err
	}

	if err := writeSheet(f, "Expenses", headerStyle,
		[]string{"Matter", "Date", "Description", "Amount", "Tax Code"},
		len(expenses), func(i int) []interface{} {
			e := expenses[i]
			return []interface{}{
				e.MatterID.Hex(), e.Date.Format("2006-01-02"), e.Description, e.Amount, e.TaxCode,
			}
		}); err != nil {
		return nil, "", err
	}

	if err := writeSheet(f, "Invoices", headerStyle,
		[]string{"Number", "Matter", "Issue Date", "Due Date", "Subtotal", "Tax", "Total", "Status"},
		len(invoices), func(i int) []interface{} {
			inv := invoices[i]
			return []interface{}{
				inv.Number, inv.MatterID.Hex(), inv.IssueDate.Format("2006-01-02"),
				inv.DueDate.Format("2006-01-02"), inv.Subtotal, inv.TaxTotal, inv.Total, inv.Status,
			}
		}); err != nil {
		return nil, "", err
	}

	f.DeleteSheet("Sheet1")

	buffer, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", err
	}

	_ = s.AuditService.LogChange(ctx, models.AuditActionExport, "billing", "workbook", map[string]models.Change{
		"time_entries": {New: len(entries)},
		"expenses":     {New: len(expenses)},
		"invoices":     {New: len(invoices)},
	})

	filename := fmt.Sprintf("billing_export_%s.xlsx", time.Now().Format("20060102_150405"))
	return buffer.Bytes(), filename, nil
}

func writeSheet(f *excelize.File, name string, headerStyle int, columns []string, rows int, row func(i int) []interface{}) error {
	if _, err := f.NewSheet(name); err != nil {
		return err
	}

	for i, col := range columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(name, cell, col)
		f.SetCellStyle(name, cell, cell, headerStyle)
	}

	for r := 0; r < rows; r++ {
		values := row(r)
		for c, val := range values {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+2)
			f.SetCellValue(name, cell, val)
		}
	}

	for i := range columns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(name, col, col, 15)
	}
	return nil
}
