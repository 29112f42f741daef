package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/nurpe/sales-backoffice/internal/dates"
)

type MonthlyRequestKind string

const (
	MonthlyRequestPartner MonthlyRequestKind = "partner"
	MonthlyRequestProject MonthlyRequestKind = "project"
)

func (k MonthlyRequestKind) Valid() bool {
	return k == MonthlyRequestPartner || k == MonthlyRequestProject
}

// MonthlyRequest is one billing line derived from a contract. Blanket
// contracts produce a single row spanning Year/Month to EndYear/EndMonth.
type MonthlyRequest struct {
	Base
	Kind              MonthlyRequestKind `gorm:"type:varchar(10);not null;index:idx_monthly_requests_period" json:"kind"`
	ContractID        uuid.UUID          `gorm:"type:uuid;not null;index" json:"contract_id"`
	SubjectKind       SubjectKind        `gorm:"type:varchar(20);not null" json:"subject_kind"`
	SubjectID         uuid.UUID          `gorm:"type:uuid;not null" json:"subject_id"`
	Year              int                `gorm:"not null;index:idx_monthly_requests_period" json:"year"`
	Month             int                `gorm:"not null;index:idx_monthly_requests_period" json:"month"`
	EndYear           *int               `json:"end_year,omitempty"`
	EndMonth          *int               `json:"end_month,omitempty"`
	Price             decimal.Decimal    `gorm:"type:numeric(12,0);not null" json:"price"`
	MinHours          decimal.Decimal    `gorm:"type:numeric(6,2);not null" json:"min_hours"`
	MaxHours          decimal.Decimal    `gorm:"type:numeric(6,2);not null" json:"max_hours"`
	MinusPerHour      decimal.Decimal    `gorm:"type:numeric(12,0);not null" json:"minus_per_hour"`
	PlusPerHour       decimal.Decimal    `gorm:"type:numeric(12,0);not null" json:"plus_per_hour"`
	IsBlanketContract bool               `gorm:"not null" json:"is_blanket_contract"`
	IsFixedPay        bool               `gorm:"not null" json:"is_fixed_pay"`
	IsHourlyPay       bool               `gorm:"not null" json:"is_hourly_pay"`
	HourlyPayAmount   decimal.Decimal    `gorm:"type:numeric(12,0);not null" json:"hourly_pay_amount"`
	IsSubmitted       bool               `gorm:"not null" json:"is_submitted"`
	SubmittedAt       *time.Time         `json:"submitted_at,omitempty"`
	SubmittedBy       string             `gorm:"type:varchar(50)" json:"submitted_by,omitempty"`
	OrderNo           *string            `gorm:"type:varchar(10);uniqueIndex" json:"order_no,omitempty"`
}

func (r *MonthlyRequest) Subject() Subject {
	return Subject{Kind: r.SubjectKind, ID: r.SubjectID}
}

// Covers reports whether the request bills the given month.
func (r *MonthlyRequest) Covers(year, month int) bool {
	ym := dates.YearMonth(year, month)
	start := dates.YearMonth(r.Year, r.Month)
	if r.EndYear == nil || r.EndMonth == nil {
		return start == ym
	}
	return start <= ym && ym <= dates.YearMonth(*r.EndYear, *r.EndMonth)
}
