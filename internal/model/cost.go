package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Attendance is the monthly time sheet of a subject on a project.
type Attendance struct {
	Base
	SoftDelete
	SubjectKind SubjectKind     `gorm:"type:varchar(20);not null;index:idx_attendances_subject" json:"subject_kind"`
	SubjectID   uuid.UUID       `gorm:"type:uuid;not null;index:idx_attendances_subject" json:"subject_id"`
	ProjectID   *uuid.UUID      `gorm:"type:uuid" json:"project_id,omitempty"`
	Year        int             `gorm:"not null;index:idx_attendances_period" json:"year"`
	Month       int             `gorm:"not null;index:idx_attendances_period" json:"month"`
	TotalHours  decimal.Decimal `gorm:"type:numeric(6,2);not null" json:"total_hours"`
	WorkingDays int             `gorm:"not null" json:"working_days"`
}

type CostSource string

const (
	CostSourceEmployee CostSource = "employee"
	CostSourcePartner  CostSource = "partner"
)

type MonthlyCost struct {
	Base
	Source           CostSource      `gorm:"type:varchar(10);not null;index:idx_monthly_costs_period" json:"source"`
	SubjectKind      SubjectKind     `gorm:"type:varchar(20);not null" json:"subject_kind"`
	SubjectID        uuid.UUID       `gorm:"type:uuid;not null;index" json:"subject_id"`
	PartnerCompanyID *uuid.UUID      `gorm:"type:uuid" json:"partner_company_id,omitempty"`
	ProjectID        *uuid.UUID      `gorm:"type:uuid" json:"project_id,omitempty"`
	MonthlyRequestID *uuid.UUID      `gorm:"type:uuid" json:"monthly_request_id,omitempty"`
	Year             int             `gorm:"not null;index:idx_monthly_costs_period" json:"year"`
	Month            int             `gorm:"not null;index:idx_monthly_costs_period" json:"month"`
	Hours            decimal.Decimal `gorm:"type:numeric(6,2);not null" json:"hours"`
	Amount           decimal.Decimal `gorm:"type:numeric(12,0);not null" json:"amount"`
}

type MemberWorkingStatus struct {
	Base
	SubjectKind SubjectKind `gorm:"type:varchar(20);not null;uniqueIndex:uq_working_status" json:"subject_kind"`
	SubjectID   uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex:uq_working_status" json:"subject_id"`
	Year        int         `gorm:"not null;uniqueIndex:uq_working_status" json:"year"`
	Month       int         `gorm:"not null;uniqueIndex:uq_working_status" json:"month"`
	IsWorking   bool        `gorm:"not null" json:"is_working"`
	ProjectID   *uuid.UUID  `gorm:"type:uuid" json:"project_id,omitempty"`
	ContractID  *uuid.UUID  `gorm:"type:uuid" json:"contract_id,omitempty"`
	ReleaseDate *time.Time  `gorm:"type:date" json:"release_date,omitempty"`
}

func (MemberWorkingStatus) TableName() string {
	return "member_working_statuses"
}
