package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nurpe/sales-backoffice/internal/config"
	"github.com/nurpe/sales-backoffice/internal/db/dbtest"
	"github.com/nurpe/sales-backoffice/internal/model"
	"github.com/nurpe/sales-backoffice/internal/repository"
)

var (
	staff  = model.Principal{UserID: uuid.New(), Username: "staff", Role: model.UserRoleStaff}
	reader = model.Principal{UserID: uuid.New(), Username: "reader", Role: model.UserRoleMember}
	fixed  = time.Date(2020, time.November, 15, 9, 0, 0, 0, time.UTC)
)

type fixture struct {
	t       *testing.T
	ctx     context.Context
	db      *gorm.DB
	store   *repository.Store
	company *model.Company
	seq     int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	database := dbtest.Open(t)
	f := &fixture{t: t, ctx: context.Background(), db: database, store: repository.NewStore(database)}
	f.company = &model.Company{Code: "C01", Name: "Own Company"}
	f.create(f.company)
	return f
}

func (f *fixture) create(value interface{}) {
	f.t.Helper()
	require.NoError(f.t, f.db.Create(value).Error)
}

func (f *fixture) member(code string) *model.Member {
	m := &model.Member{Code: code, Name: "Member " + code, IsOnSales: true}
	f.create(m)
	return m
}

func (f *fixture) partnerCompany(code string) *model.PartnerCompany {
	pc := &model.PartnerCompany{Code: code, Name: "Partner " + code}
	f.create(pc)
	return pc
}

func (f *fixture) partnerMember(pc *model.PartnerCompany, code string) *model.PartnerMember {
	pm := &model.PartnerMember{PartnerCompanyID: pc.ID, Code: code, Name: "Partner member " + code, IsOnSales: true}
	f.create(pm)
	return pm
}

func (f *fixture) projectMember(name string, member model.Subject, code string) *model.ProjectMember {
	p := &model.Project{Name: name}
	f.create(p)
	pm := &model.ProjectMember{ProjectID: p.ID, Code: code, MemberKind: member.Kind, MemberID: member.ID}
	f.create(pm)
	return pm
}

// contract stores c as given, filling what the test does not care about.
func (f *fixture) contract(c *model.Contract) *model.Contract {
	f.t.Helper()
	f.seq++
	if c.ContractNo == "" {
		c.ContractNo = fmt.Sprintf("T-%03d", f.seq)
	}
	if c.ContractType == "" {
		c.ContractType = "0010"
	}
	if c.ContractDate.IsZero() {
		c.ContractDate = c.StartDate
	}
	if c.InitialEndDate.IsZero() {
		c.InitialEndDate = c.EndDate
	}
	if c.Status == "" {
		c.Status = model.ContractStatusRegistered
	}
	if c.CounterpartyKind == "" {
		c.CounterpartyKind = model.CounterpartyCompany
		c.CounterpartyID = f.company.ID
	}
	f.create(c)
	return c
}

func (f *fixture) employment(m *model.Member, start, end time.Time) *model.Contract {
	return f.contract(&model.Contract{
		SubjectKind: model.SubjectEmployee,
		SubjectID:   m.ID,
		StartDate:   start,
		EndDate:     end,
	})
}

func (f *fixture) reload(id uuid.UUID) *model.Contract {
	f.t.Helper()
	var c model.Contract
	require.NoError(f.t, f.db.First(&c, "id = ?", id).Error)
	return &c
}

func (f *fixture) contractService(cfg config.ContractConfig) *ContractService {
	s := NewContractService(f.store, cfg, zerolog.Nop())
	s.now = func() time.Time { return fixed }
	return s
}

func dec(v int64) decimal.Decimal {
	return decimal.NewFromInt(v)
}

func datePtr(t time.Time) *time.Time {
	return &t
}
