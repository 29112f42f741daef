package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/sales-backoffice/internal/model"
)

func TestGenerateOrder(t *testing.T) {
	endYear, endMonth := 2020, 12
	doc := model.OrderDocument{
		OrderNo:  "2008001",
		IssuedAt: time.Date(2020, 7, 20, 0, 0, 0, 0, time.UTC),
		Request: model.MonthlyRequest{
			Year:              2020,
			Month:             8,
			EndYear:           &endYear,
			EndMonth:          &endMonth,
			Price:             decimal.NewFromInt(600000),
			MinHours:          decimal.NewFromInt(140),
			MaxHours:          decimal.NewFromInt(180),
			MinusPerHour:      decimal.NewFromInt(4286),
			PlusPerHour:       decimal.NewFromInt(3333),
			IsBlanketContract: true,
		},
		Contract:     model.Contract{ContractNo: "P001-M001-001"},
		Subject:      model.Party{Code: "M001", Name: "Müller"},
		Counterparty: model.Party{Code: "P001", Name: "Partner Ltd"},
	}

	content, err := NewGenerator().Generate(doc)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(content, []byte("%PDF")))
}

func TestBillingPeriod(t *testing.T) {
	assert.Equal(t, "2020-08", billingPeriod(model.MonthlyRequest{Year: 2020, Month: 8}))
	y, m := 2021, 3
	assert.Equal(t, "2020-08 - 2021-03", billingPeriod(model.MonthlyRequest{Year: 2020, Month: 8, EndYear: &y, EndMonth: &m}))
}
