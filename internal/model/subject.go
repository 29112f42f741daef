package model

import (
	"fmt"

	"github.com/google/uuid"
)

type SubjectKind string

const (
	SubjectEmployee      SubjectKind = "employee"
	SubjectPartnerMember SubjectKind = "partner_member"
	SubjectProjectMember SubjectKind = "project_member"
)

func (k SubjectKind) Valid() bool {
	switch k {
	case SubjectEmployee, SubjectPartnerMember, SubjectProjectMember:
		return true
	}
	return false
}

// Subject identifies the member-like party a contract or assignment is for.
type Subject struct {
	Kind SubjectKind `json:"kind"`
	ID   uuid.UUID   `json:"id"`
}

func (s Subject) String() string {
	return fmt.Sprintf("%s:%s", s.Kind, s.ID)
}

type CounterpartyKind string

const (
	CounterpartyCompany        CounterpartyKind = "company"
	CounterpartyPartnerCompany CounterpartyKind = "partner_company"
	CounterpartyPartnerMember  CounterpartyKind = "partner_member"
	CounterpartyClientCompany  CounterpartyKind = "client_company"
)

func (k CounterpartyKind) Valid() bool {
	switch k {
	case CounterpartyCompany, CounterpartyPartnerCompany, CounterpartyPartnerMember, CounterpartyClientCompany:
		return true
	}
	return false
}

// IsPartner reports whether the counterparty is billed through a partner.
func (k CounterpartyKind) IsPartner() bool {
	return k == CounterpartyPartnerCompany || k == CounterpartyPartnerMember
}

type Counterparty struct {
	Kind CounterpartyKind `json:"kind"`
	ID   uuid.UUID        `json:"id"`
}
