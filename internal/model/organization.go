package model

import (
	"time"

	"github.com/google/uuid"
)

// Company is the own company that employs members.
type Company struct {
	Base
	Code string `gorm:"type:varchar(20);not null;uniqueIndex" json:"code"`
	Name string `gorm:"type:varchar(100);not null" json:"name"`
}

type PartnerCompany struct {
	Base
	SoftDelete
	Code string `gorm:"type:varchar(20);not null;uniqueIndex" json:"code"`
	Name string `gorm:"type:varchar(100);not null" json:"name"`
}

type ClientCompany struct {
	Base
	SoftDelete
	Code string `gorm:"type:varchar(20);not null;uniqueIndex" json:"code"`
	Name string `gorm:"type:varchar(100);not null" json:"name"`
}

// OrganizationAssignment places a subject in an internal organization for a period.
type OrganizationAssignment struct {
	Base
	SoftDelete
	SubjectKind      SubjectKind `gorm:"type:varchar(20);not null;index:idx_org_assignments_subject" json:"subject_kind"`
	SubjectID        uuid.UUID   `gorm:"type:uuid;not null;index:idx_org_assignments_subject" json:"subject_id"`
	OrganizationName string      `gorm:"type:varchar(100);not null" json:"organization_name"`
	StartDate        time.Time   `gorm:"type:date;not null" json:"start_date"`
	EndDate          time.Time   `gorm:"type:date;not null" json:"end_date"`
	InitialEndDate   time.Time   `gorm:"type:date;not null" json:"initial_end_date"`
	CreatedBy        string      `gorm:"type:varchar(50)" json:"created_by"`
	UpdatedBy        string      `gorm:"type:varchar(50)" json:"updated_by"`
}

func (a *OrganizationAssignment) Subject() Subject {
	return Subject{Kind: a.SubjectKind, ID: a.SubjectID}
}

func (a *OrganizationAssignment) RecordID() uuid.UUID { return a.ID }
func (a *OrganizationAssignment) Period() (time.Time, time.Time) { return a.StartDate, a.EndDate }
func (a *OrganizationAssignment) BirthEnd() time.Time { return a.InitialEndDate }
func (a *OrganizationAssignment) SetEnd(end time.Time) { a.EndDate = end }
