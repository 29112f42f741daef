package excel

import (
	"bytes"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/nurpe/sales-backoffice/internal/model"
)

func TestGenerateRequestWorkbook(t *testing.T) {
	orderNo := "2008001"
	report := model.RequestReport{
		Year:  2020,
		Month: 8,
		Rows: []model.RequestReportRow{
			{
				Request: model.MonthlyRequest{
					Kind:        model.MonthlyRequestPartner,
					Year:        2020,
					Month:       8,
					Price:       decimal.NewFromInt(500000),
					IsSubmitted: true,
					OrderNo:     &orderNo,
				},
				ContractNo: "P001-PM01-001",
				Subject:    model.Party{Code: "PM01", Name: "Alice"},
			},
			{
				Request: model.MonthlyRequest{
					Kind:  model.MonthlyRequestProject,
					Year:  2020,
					Month: 8,
					Price: decimal.NewFromInt(700000),
				},
				ContractNo: "C001-PJ01-001",
				Subject:    model.Party{Code: "PJ01", Name: "Bob"},
			},
		},
	}

	content, err := NewGenerator().Generate(report)
	require.NoError(t, err)

	file, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer file.Close()

	assert.Equal(t, []string{"Summary", "Partner requests", "Project requests"}, file.GetSheetList())

	month, err := file.GetCellValue("Summary", "B1")
	require.NoError(t, err)
	assert.Equal(t, "2020-08", month)

	name, err := file.GetCellValue("Partner requests", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Alice", name)

	order, err := file.GetCellValue("Partner requests", "K2")
	require.NoError(t, err)
	assert.Equal(t, orderNo, order)

	price, err := file.GetCellValue("Project requests", "E2")
	require.NoError(t, err)
	assert.Equal(t, "700000", price)
}
