package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ContractStatus string

// Codes are ordered: anything below StatusDiscarded is still alive.
const (
	ContractStatusRegistered  ContractStatus = "01"
	ContractStatusAutoRenewed ContractStatus = "10"
	ContractStatusDiscarded   ContractStatus = "90"
)

const DefaultAutoUpdatePeriod = 12

const (
	CalculateHoursLower = "0000"
	CalculateHoursUpper = "0001"
)

type AllowanceUnit string

const (
	AllowanceMonthly AllowanceUnit = "01"
	AllowanceDaily   AllowanceUnit = "02"
	AllowanceHourly  AllowanceUnit = "03"
)

type Contract struct {
	Base
	SoftDelete
	ContractNo        string           `gorm:"type:varchar(40);not null;uniqueIndex" json:"contract_no"`
	ContractDate      time.Time        `gorm:"type:date;not null" json:"contract_date"`
	ContractType      string           `gorm:"type:varchar(4);not null;index" json:"contract_type"`
	SubjectKind       SubjectKind      `gorm:"type:varchar(20);not null;index:idx_contracts_subject" json:"subject_kind"`
	SubjectID         uuid.UUID        `gorm:"type:uuid;not null;index:idx_contracts_subject" json:"subject_id"`
	CounterpartyKind  CounterpartyKind `gorm:"type:varchar(20);not null" json:"counterparty_kind"`
	CounterpartyID    uuid.UUID        `gorm:"type:uuid;not null" json:"counterparty_id"`
	StartDate         time.Time        `gorm:"type:date;not null" json:"start_date"`
	EndDate           time.Time        `gorm:"type:date;not null;index" json:"end_date"`
	InitialEndDate    time.Time        `gorm:"type:date;not null" json:"initial_end_date"`
	Status            ContractStatus   `gorm:"type:varchar(2);not null" json:"status"`
	IsAutoUpdate      bool             `gorm:"not null" json:"is_auto_update"`
	AutoUpdatePeriod  *int             `json:"auto_update_period,omitempty"`
	ParentID          *uuid.UUID       `gorm:"type:uuid" json:"parent_id,omitempty"`
	Amount            decimal.Decimal  `gorm:"type:numeric(12,0);not null" json:"amount"`
	IsBlanketContract bool             `gorm:"not null" json:"is_blanket_contract"`
	IsFixedPay        bool             `gorm:"not null" json:"is_fixed_pay"`
	IsHourlyPay       bool             `gorm:"not null" json:"is_hourly_pay"`
	HourlyPayAmount   decimal.Decimal  `gorm:"type:numeric(12,0);not null" json:"hourly_pay_amount"`
	CreatedBy         string           `gorm:"type:varchar(50)" json:"created_by"`
	UpdatedBy         string           `gorm:"type:varchar(50)" json:"updated_by"`

	Comments       []ContractComment        `gorm:"foreignKey:ContractID" json:"comments,omitempty"`
	CalculateHours []ContractCalculateHours `gorm:"foreignKey:ContractID" json:"calculate_hours,omitempty"`
	Allowances     []ContractAllowance      `gorm:"foreignKey:ContractID" json:"allowances,omitempty"`
}

func (c *Contract) Subject() Subject {
	return Subject{Kind: c.SubjectKind, ID: c.SubjectID}
}

func (c *Contract) Counterparty() Counterparty {
	return Counterparty{Kind: c.CounterpartyKind, ID: c.CounterpartyID}
}

func (c *Contract) IsDiscarded() bool {
	return c.Status >= ContractStatusDiscarded
}

// RenewalPeriod is the auto-update period in months, DefaultAutoUpdatePeriod when unset.
func (c *Contract) RenewalPeriod() int {
	if c.AutoUpdatePeriod == nil || *c.AutoUpdatePeriod <= 0 {
		return DefaultAutoUpdatePeriod
	}
	return *c.AutoUpdatePeriod
}

// ActiveIn reports whether the contract window overlaps [from, to].
func (c *Contract) ActiveIn(from, to time.Time) bool {
	return !c.StartDate.After(to) && !c.EndDate.Before(from)
}

// CalculateHoursBounds returns the lower and upper billable hours.
func (c *Contract) CalculateHoursBounds() (decimal.Decimal, decimal.Decimal) {
	var lower, upper decimal.Decimal
	for _, h := range c.CalculateHours {
		if h.IsDeleted {
			continue
		}
		switch h.Code {
		case CalculateHoursLower:
			lower = h.Hours
		case CalculateHoursUpper:
			upper = h.Hours
		}
	}
	return lower, upper
}

func (c *Contract) RecordID() uuid.UUID { return c.ID }
func (c *Contract) Period() (time.Time, time.Time) { return c.StartDate, c.EndDate }
func (c *Contract) BirthEnd() time.Time { return c.InitialEndDate }
func (c *Contract) SetEnd(end time.Time) { c.EndDate = end }

type ContractComment struct {
	Base
	SoftDelete
	ContractID uuid.UUID `gorm:"type:uuid;not null;index" json:"contract_id"`
	Code       string    `gorm:"type:varchar(4);not null" json:"code"`
	Name       string    `gorm:"type:varchar(50)" json:"name"`
	Content    string    `gorm:"type:text" json:"content"`
}

type ContractCalculateHours struct {
	Base
	SoftDelete
	ContractID uuid.UUID       `gorm:"type:uuid;not null;index" json:"contract_id"`
	Code       string          `gorm:"type:varchar(4);not null" json:"code"`
	Name       string          `gorm:"type:varchar(50)" json:"name"`
	Hours      decimal.Decimal `gorm:"type:numeric(6,2);not null" json:"hours"`
}

func (ContractCalculateHours) TableName() string {
	return "contract_calculate_hours"
}

type ContractAllowance struct {
	Base
	SoftDelete
	ContractID uuid.UUID       `gorm:"type:uuid;not null;index" json:"contract_id"`
	Code       string          `gorm:"type:varchar(4);not null" json:"code"`
	Name       string          `gorm:"type:varchar(50)" json:"name"`
	Amount     decimal.Decimal `gorm:"type:numeric(12,0);not null" json:"amount"`
	Unit       AllowanceUnit   `gorm:"type:varchar(2);not null" json:"unit"`
	Comment    string          `gorm:"type:varchar(200)" json:"comment"`
}

type ContractEventKind string

const (
	ContractEventTruncated   ContractEventKind = "truncated"
	ContractEventRestored    ContractEventKind = "restored"
	ContractEventSuperseded  ContractEventKind = "superseded"
	ContractEventRetired     ContractEventKind = "retired"
	ContractEventAutoRenewed ContractEventKind = "auto_renewed"
	ContractEventDeleted     ContractEventKind = "deleted"
)

// ContractEvent is the audit trail of every end-date change and removal.
type ContractEvent struct {
	Base
	ContractID uuid.UUID         `gorm:"type:uuid;not null;index" json:"contract_id"`
	Kind       ContractEventKind `gorm:"type:varchar(20);not null" json:"kind"`
	OldEndDate *time.Time        `gorm:"type:date" json:"old_end_date,omitempty"`
	NewEndDate *time.Time        `gorm:"type:date" json:"new_end_date,omitempty"`
	Actor      string            `gorm:"type:varchar(50)" json:"actor"`
	OccurredAt time.Time         `gorm:"not null" json:"occurred_at"`
}
