package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/ormasrl/tenderdesk/internal/lifecycle"
	"github.com/ormasrl/tenderdesk/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

// Generate renders the printable sheet for a registry record: identity,
// validity window, computed deadlines and the renewal chain reference.
func (g *Generator) Generate(rec model.RegistryRecord, deadlines lifecycle.Deadlines, generatedAt time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()

	title := "Contract sheet"
	if rec.Kind == model.RegistryKindQuote {
		title = "Quote sheet"
	}
	pdf.SetFont(g.fontName, "B", 14)
	pdf.CellFormat(0, 10, title, "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Record %s, issued %s", rec.ID, formatDate(rec.DocumentDate)), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	g.section(pdf, "Record")
	g.field(pdf, "Subject", rec.Subject)
	g.field(pdf, "Counterparty", safeValue(rec.Counterparty))
	g.field(pdf, "Status", string(rec.Status))
	if rec.ParentID != nil {
		g.field(pdf, "Renews record", rec.ParentID.String())
	}
	pdf.Ln(2)

	g.section(pdf, "Validity")
	g.field(pdf, "Start", formatDatePtr(rec.StartDate))
	g.field(pdf, "Expiry", formatDatePtr(rec.EndDate))
	if rec.AutoRenew && rec.AutoRenewDurationDays != nil {
		g.field(pdf, "Auto-renew", fmt.Sprintf("yes, %d days", *rec.AutoRenewDurationDays))
	} else {
		g.field(pdf, "Auto-renew", "no")
	}
	pdf.Ln(2)

	g.section(pdf, "Deadlines")
	g.field(pdf, "Notice deadline", formatDatePtr(deadlines.NoticeDeadline))
	g.field(pdf, "Alert date", formatDatePtr(deadlines.AlertDate))
	if deadlines.DaysToExpiry != nil {
		g.field(pdf, "Days to expiry", fmt.Sprintf("%d", *deadlines.DaysToExpiry))
	} else {
		g.field(pdf, "Days to expiry", "-")
	}

	pdf.Ln(6)
	pdf.SetFont(g.fontName, "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Generated %s", generatedAt.Format("2006-01-02 15:04")), "", 1, "R", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) section(pdf *gofpdf.Fpdf, title string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
}

func (g *Generator) field(pdf *gofpdf.Fpdf, label, value string) {
	pdf.CellFormat(45, 6, label, "", 0, "L", false, 0, "")
	pdf.MultiCell(0, 6, value, "", "L", false)
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

func formatDatePtr(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return formatDate(*t)
}
