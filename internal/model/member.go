package model

import (
	"time"

	"github.com/google/uuid"
)

// Member is an employee of the own company.
type Member struct {
	Base
	SoftDelete
	Code      string     `gorm:"type:varchar(20);not null;uniqueIndex" json:"code"`
	Name      string     `gorm:"type:varchar(100);not null" json:"name"`
	Birthday  *time.Time `gorm:"type:date" json:"birthday,omitempty"`
	JoinDate  *time.Time `gorm:"type:date" json:"join_date,omitempty"`
	IsOnSales bool       `gorm:"not null" json:"is_on_sales"`
}

type PartnerMember struct {
	Base
	SoftDelete
	PartnerCompanyID uuid.UUID  `gorm:"type:uuid;not null;index" json:"partner_company_id"`
	Code             string     `gorm:"type:varchar(20);not null;uniqueIndex" json:"code"`
	Name             string     `gorm:"type:varchar(100);not null" json:"name"`
	Birthday         *time.Time `gorm:"type:date" json:"birthday,omitempty"`
	IsOnSales        bool       `gorm:"not null" json:"is_on_sales"`
}

type Project struct {
	Base
	SoftDelete
	Name            string     `gorm:"type:varchar(200);not null" json:"name"`
	ClientCompanyID *uuid.UUID `gorm:"type:uuid" json:"client_company_id,omitempty"`
}

// ProjectMember assigns an employee or a partner member to a project.
// Contracts of kind project_member reference this row.
type ProjectMember struct {
	Base
	SoftDelete
	ProjectID  uuid.UUID   `gorm:"type:uuid;not null;index" json:"project_id"`
	Code       string      `gorm:"type:varchar(20);not null" json:"code"`
	MemberKind SubjectKind `gorm:"type:varchar(20);not null;index:idx_project_members_member" json:"member_kind"`
	MemberID   uuid.UUID   `gorm:"type:uuid;not null;index:idx_project_members_member" json:"member_id"`
	Project    *Project    `gorm:"foreignKey:ProjectID" json:"project,omitempty"`
}

func (pm *ProjectMember) Member() Subject {
	return Subject{Kind: pm.MemberKind, ID: pm.MemberID}
}

// Retirement records the contract a retirement truncated.
type Retirement struct {
	Base
	SubjectKind SubjectKind `gorm:"type:varchar(20);not null;index:idx_retirements_subject" json:"subject_kind"`
	SubjectID   uuid.UUID   `gorm:"type:uuid;not null;index:idx_retirements_subject" json:"subject_id"`
	RetireDate  time.Time   `gorm:"type:date;not null" json:"retire_date"`
	ContractID  uuid.UUID   `gorm:"type:uuid;not null" json:"contract_id"`
	CreatedBy   string      `gorm:"type:varchar(50)" json:"created_by"`
}
