package excel

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/sales-backoffice/internal/model"
)

type Generator struct{}

func NewGenerator() *Generator {
	return &Generator{}
}

// Generate writes one summary sheet and one sheet per request kind.
func (g *Generator) Generate(report model.RequestReport) ([]byte, error) {
	file := excelize.NewFile()
	defer file.Close()

	summarySheet := "Summary"
	if err := file.SetSheetName("Sheet1", summarySheet); err != nil {
		return nil, err
	}
	groups := groupByKind(report.Rows)
	if err := g.writeSummary(file, summarySheet, report, groups); err != nil {
		return nil, err
	}

	for _, kind := range []model.MonthlyRequestKind{model.MonthlyRequestPartner, model.MonthlyRequestProject} {
		rows, ok := groups[kind]
		if !ok {
			continue
		}
		sheet := sheetName(kind)
		if _, err := file.NewSheet(sheet); err != nil {
			return nil, err
		}
		if err := g.writeDetail(file, sheet, rows); err != nil {
			return nil, err
		}
	}

	file.SetActiveSheet(0)
	buf, err := file.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (g *Generator) writeSummary(file *excelize.File, sheet string, report model.RequestReport, groups map[model.MonthlyRequestKind][]model.RequestReportRow) error {
	set := func(cell string, value interface{}) {
		_ = file.SetCellValue(sheet, cell, value)
	}

	set("A1", "Billing month")
	set("B1", fmt.Sprintf("%04d-%02d", report.Year, report.Month))
	set("A2", "Kind")
	set("B2", kindLabel(report.Kind))
	set("A3", "Requests")
	set("B3", len(report.Rows))

	tableRow := 5
	set(fmt.Sprintf("A%d", tableRow), "Kind")
	set(fmt.Sprintf("B%d", tableRow), "Requests")
	set(fmt.Sprintf("C%d", tableRow), "Submitted")
	set(fmt.Sprintf("D%d", tableRow), "Total price")

	row := tableRow + 1
	for _, kind := range []model.MonthlyRequestKind{model.MonthlyRequestPartner, model.MonthlyRequestProject} {
		rows, ok := groups[kind]
		if !ok {
			continue
		}
		submitted := 0
		total := decimal.Zero
		for _, r := range rows {
			if r.Request.IsSubmitted {
				submitted++
			}
			total = total.Add(r.Request.Price)
		}
		set(fmt.Sprintf("A%d", row), kindLabel(kind))
		set(fmt.Sprintf("B%d", row), len(rows))
		set(fmt.Sprintf("C%d", row), submitted)
		set(fmt.Sprintf("D%d", row), total.IntPart())
		row++
	}

	_ = file.SetColWidth(sheet, "A", "A", 20)
	_ = file.SetColWidth(sheet, "B", "D", 16)
	return nil
}

func (g *Generator) writeDetail(file *excelize.File, sheet string, rows []model.RequestReportRow) error {
	headers := []string{
		"Code",
		"Name",
		"Contract",
		"Period",
		"Price",
		"Lower h",
		"Upper h",
		"Minus / h",
		"Plus / h",
		"Submitted",
		"Order No.",
	}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}

	for i, r := range rows {
		req := r.Request
		values := []interface{}{
			r.Subject.Code,
			r.Subject.Name,
			r.ContractNo,
			period(req),
			req.Price.IntPart(),
			req.MinHours.InexactFloat64(),
			req.MaxHours.InexactFloat64(),
			req.MinusPerHour.IntPart(),
			req.PlusPerHour.IntPart(),
			yesNo(req.IsSubmitted),
			formatString(req.OrderNo),
		}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := file.SetSheetRow(sheet, cell, &values); err != nil {
			return err
		}
	}

	_ = file.SetColWidth(sheet, "A", "A", 12)
	_ = file.SetColWidth(sheet, "B", "C", 28)
	_ = file.SetColWidth(sheet, "D", "D", 20)
	_ = file.SetColWidth(sheet, "E", "K", 12)
	return nil
}

func groupByKind(rows []model.RequestReportRow) map[model.MonthlyRequestKind][]model.RequestReportRow {
	groups := make(map[model.MonthlyRequestKind][]model.RequestReportRow)
	for _, r := range rows {
		groups[r.Request.Kind] = append(groups[r.Request.Kind], r)
	}
	return groups
}

func kindLabel(kind model.MonthlyRequestKind) string {
	switch kind {
	case model.MonthlyRequestPartner:
		return "Partner"
	case model.MonthlyRequestProject:
		return "Project"
	default:
		return "All"
	}
}

func sheetName(kind model.MonthlyRequestKind) string {
	return sanitizeSheetName(kindLabel(kind) + " requests")
}

func sanitizeSheetName(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "Sheet"
	}
	replacer := strings.NewReplacer(
		"[", "-",
		"]", "-",
		":", "-",
		"*", "-",
		"?", "-",
		"/", "-",
		"\\", "-",
	)
	value = replacer.Replace(value)
	if len(value) > 31 {
		value = value[:31]
	}
	return value
}

func period(req model.MonthlyRequest) string {
	start := fmt.Sprintf("%04d-%02d", req.Year, req.Month)
	if req.EndYear == nil || req.EndMonth == nil {
		return start
	}
	return fmt.Sprintf("%s ~ %04d-%02d", start, *req.EndYear, *req.EndMonth)
}

func yesNo(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func formatString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}
