package excel

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ormasrl/tenderdesk/internal/lifecycle"
	"github.com/ormasrl/tenderdesk/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate builds the registry workbook: one sheet listing every live record
// with its computed deadlines.
func (g *Generator) Generate(records []model.RegistryRecord, deadlines []lifecycle.Deadlines, generatedAt time.Time) ([]byte, error) {
	file := excelize.NewFile()

	sheet := "Registry"
	file.SetSheetName("Sheet1", sheet)

	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Contract registry")
	set("B1", formatDate(generatedAt))
	set("A2", "Live records")
	set("B2", len(records))

	headers := []string{
		"Kind",
		"Subject",
		"Counterparty",
		"Status",
		"Document date",
		"Start",
		"Expiry",
		"Notice deadline",
		"Alert date",
		"Days to expiry",
		"Auto-renew",
	}
	headerRow := 4
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, headerRow)
		set(cell, header)
	}

	for i, rec := range records {
		row := headerRow + 1 + i
		d := deadlines[i]
		set(fmt.Sprintf("A%d", row), string(rec.Kind))
		set(fmt.Sprintf("B%d", row), rec.Subject)
		set(fmt.Sprintf("C%d", row), rec.Counterparty)
		set(fmt.Sprintf("D%d", row), string(rec.Status))
		set(fmt.Sprintf("E%d", row), formatDate(rec.DocumentDate))
		set(fmt.Sprintf("F%d", row), formatDatePtr(rec.StartDate))
		set(fmt.Sprintf("G%d", row), formatDatePtr(rec.EndDate))
		set(fmt.Sprintf("H%d", row), formatDatePtr(d.NoticeDeadline))
		set(fmt.Sprintf("I%d", row), formatDatePtr(d.AlertDate))
		if d.DaysToExpiry != nil {
			set(fmt.Sprintf("J%d", row), *d.DaysToExpiry)
		}
		set(fmt.Sprintf("K%d", row), formatBool(rec.AutoRenew))
	}

	_ = file.SetColWidth(sheet, "A", "A", 12)
	_ = file.SetColWidth(sheet, "B", "C", 40)
	_ = file.SetColWidth(sheet, "D", "K", 16)

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return formatDate(*t)
}

func formatBool(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
