package pdf

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"

	"github.com/nurpe/sales-backoffice/internal/model"
)

type Generator struct {
	fontName string
}

func NewGenerator() *Generator {
	return &Generator{fontName: "Helvetica"}
}

// Generate renders the purchase order issued for a submitted monthly request.
func (g *Generator) Generate(doc model.OrderDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetTitle(fmt.Sprintf("Order %s", doc.OrderNo), true)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	req := doc.Request

	pdf.SetFont(g.fontName, "B", 16)
	pdf.CellFormat(0, 10, "PURCHASE ORDER", "", 1, "C", false, 0, "")

	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Order No. %s", doc.OrderNo), "", 1, "R", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Issued %s", formatDate(doc.IssuedAt)), "", 1, "R", false, 0, "")
	pdf.Ln(4)

	addPartyBlock(pdf, g.fontName, tr, "Supplier", doc.Counterparty)
	pdf.Ln(2)
	addPartyBlock(pdf, g.fontName, tr, "Member", doc.Subject)
	pdf.Ln(4)

	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 8, "Terms", "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Contract %s (%s - %s)", tr(doc.Contract.ContractNo),
		formatDate(doc.Contract.StartDate), formatDate(doc.Contract.EndDate)), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Billing period %s", billingPeriod(req)), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	headers := []string{"Item", "Lower h", "Upper h", "Minus / h", "Plus / h", "Amount"}
	colWidths := []float64{60, 22, 22, 26, 26, 24}
	drawTableRow(pdf, g.fontName, headers, colWidths, true)
	drawTableRow(pdf, g.fontName, []string{
		payLabel(req),
		formatHours(req.MinHours),
		formatHours(req.MaxHours),
		formatAmount(req.MinusPerHour),
		formatAmount(req.PlusPerHour),
		formatAmount(unitPrice(req)),
	}, colWidths, false)

	pdf.Ln(8)
	pdf.SetFont(g.fontName, "", 10)
	signatureBlock(pdf, g.fontName, "Issued by", "")
	signatureBlock(pdf, g.fontName, "Accepted by", "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func addPartyBlock(pdf *gofpdf.Fpdf, fontName string, tr func(string) string, title string, party model.Party) {
	pdf.SetFont(fontName, "B", 11)
	pdf.CellFormat(0, 6, title, "", 1, "L", false, 0, "")
	pdf.SetFont(fontName, "", 10)
	pdf.MultiCell(0, 5, tr(safeValue(party.Name)), "", "L", false)
	pdf.MultiCell(0, 5, fmt.Sprintf("Code: %s", tr(safeValue(party.Code))), "", "L", false)
}

func drawTableRow(pdf *gofpdf.Fpdf, fontName string, cols []string, widths []float64, header bool) {
	style := ""
	if header {
		style = "B"
	}
	pdf.SetFont(fontName, style, 9)
	for i, col := range cols {
		align := "L"
		if i > 0 {
			align = "R"
		}
		pdf.CellFormat(widths[i], 8, col, "1", 0, align, false, 0, "")
	}
	pdf.Ln(-1)
}

func signatureBlock(pdf *gofpdf.Fpdf, fontName, label, name string) {
	pdf.SetFont(fontName, "", 10)
	pdf.CellFormat(0, 8, fmt.Sprintf("%s: ______________________ /%s/", label, safeValue(name)), "", 1, "L", false, 0, "")
}

func billingPeriod(req model.MonthlyRequest) string {
	start := fmt.Sprintf("%04d-%02d", req.Year, req.Month)
	if req.EndYear == nil || req.EndMonth == nil {
		return start
	}
	return fmt.Sprintf("%s - %04d-%02d", start, *req.EndYear, *req.EndMonth)
}

func payLabel(req model.MonthlyRequest) string {
	switch {
	case req.IsHourlyPay:
		return "Hourly engagement"
	case req.IsFixedPay:
		return "Fixed monthly fee"
	case req.IsBlanketContract:
		return "Blanket engagement"
	default:
		return "Monthly engagement"
	}
}

func unitPrice(req model.MonthlyRequest) decimal.Decimal {
	if req.IsHourlyPay {
		return req.HourlyPayAmount
	}
	return req.Price
}

func safeValue(value string) string {
	if strings.TrimSpace(value) == "" {
		return "-"
	}
	return value
}

func formatAmount(value decimal.Decimal) string {
	return value.StringFixed(0)
}

func formatHours(value decimal.Decimal) string {
	if value.IsZero() {
		return "-"
	}
	return value.StringFixed(2)
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}
