package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaidVacation is an append-only grant usable between StartDate and EndDate.
type PaidVacation struct {
	Base
	MemberID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"member_id"`
	StartDate     time.Time       `gorm:"type:date;not null" json:"start_date"`
	EndDate       time.Time       `gorm:"type:date;not null" json:"end_date"`
	Days          decimal.Decimal `gorm:"type:numeric(4,1);not null" json:"days"`
	CarryoverDays decimal.Decimal `gorm:"type:numeric(4,1);not null" json:"carryover_days"`
	CreatedBy     string          `gorm:"type:varchar(50)" json:"created_by"`
}

// VacationUsage is leave taken on a day; half days are 0.5.
type VacationUsage struct {
	Base
	MemberID uuid.UUID       `gorm:"type:uuid;not null;index" json:"member_id"`
	Date     time.Time       `gorm:"type:date;not null" json:"date"`
	Days     decimal.Decimal `gorm:"type:numeric(3,1);not null" json:"days"`
}
