package service

import (
	"bytes"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/sales-backoffice/internal/config"
	"github.com/nurpe/sales-backoffice/internal/dates"
	"github.com/nurpe/sales-backoffice/internal/excel"
	"github.com/nurpe/sales-backoffice/internal/model"
	"github.com/nurpe/sales-backoffice/internal/pdf"
)

func (f *fixture) requestService() *MonthlyRequestService {
	s := NewMonthlyRequestService(f.store, config.RequestConfig{PartnerForwardMonths: 6, ProjectForwardMonths: 6},
		pdf.NewGenerator(), excel.NewGenerator(), zerolog.Nop())
	s.now = func() time.Time { return fixed }
	return s
}

func (f *fixture) partnerContract(pc *model.PartnerCompany, pm *model.PartnerMember, start, end time.Time) *model.Contract {
	return f.contract(&model.Contract{
		SubjectKind:      model.SubjectPartnerMember,
		SubjectID:        pm.ID,
		CounterpartyKind: model.CounterpartyPartnerCompany,
		CounterpartyID:   pc.ID,
		StartDate:        start,
		EndDate:          end,
		Amount:           dec(600000),
		CalculateHours: []model.ContractCalculateHours{
			{Code: model.CalculateHoursLower, Hours: dec(150)},
			{Code: model.CalculateHoursUpper, Hours: dec(190)},
		},
	})
}

type requestKey struct {
	contractID uuid.UUID
	year       int
	month      int
	submitted  bool
}

func requestKeys(t *testing.T, f *fixture) []requestKey {
	t.Helper()
	var rows []model.MonthlyRequest
	require.NoError(t, f.db.Find(&rows).Error)
	keys := make([]requestKey, 0, len(rows))
	for _, r := range rows {
		keys = append(keys, requestKey{r.ContractID, r.Year, r.Month, r.IsSubmitted})
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].contractID.String() < keys[j].contractID.String() })
	return keys
}

type partnerScenario struct {
	f         *fixture
	regular   *model.Contract
	submitted *model.Contract
	blanket   *model.Contract
	employee  *model.Contract
}

func newPartnerScenario(t *testing.T) *partnerScenario {
	f := newFixture(t)
	pc := f.partnerCompany("P01")
	year := func(y int) (time.Time, time.Time) {
		return dates.New(y, time.January, 1), dates.New(y, time.December, 31)
	}
	start, end := year(2020)

	sc := &partnerScenario{f: f}
	sc.regular = f.partnerContract(pc, f.partnerMember(pc, "PM001"), start, end)
	sc.submitted = f.partnerContract(pc, f.partnerMember(pc, "PM002"), start, end)
	sc.blanket = f.partnerContract(pc, f.partnerMember(pc, "PM003"), dates.New(2020, time.June, 1), dates.New(2020, time.November, 30))
	require.NoError(t, f.db.Model(sc.blanket).Update("is_blanket_contract", true).Error)
	sc.employee = f.employment(f.member("M001"), start, end)

	gone := f.partnerContract(pc, f.partnerMember(pc, "PM004"), start, end)
	require.NoError(t, f.db.Model(gone).Updates(map[string]interface{}{"is_deleted": true, "deleted_at": fixed}).Error)

	orderNo := "2008001"
	endYear, endMonth := 2020, 9
	f.create(&model.MonthlyRequest{Kind: model.MonthlyRequestPartner, ContractID: sc.submitted.ID,
		SubjectKind: sc.submitted.SubjectKind, SubjectID: sc.submitted.SubjectID,
		Year: 2020, Month: 8, Price: dec(500000), IsSubmitted: true, OrderNo: &orderNo})
	f.create(&model.MonthlyRequest{Kind: model.MonthlyRequestPartner, ContractID: gone.ID,
		SubjectKind: gone.SubjectKind, SubjectID: gone.SubjectID, Year: 2020, Month: 8})
	f.create(&model.MonthlyRequest{Kind: model.MonthlyRequestPartner, ContractID: sc.regular.ID,
		SubjectKind: sc.regular.SubjectKind, SubjectID: sc.regular.SubjectID,
		Year: 2020, Month: 7, EndYear: &endYear, EndMonth: &endMonth})
	return sc
}

func TestRefreshPartner_RebuildsTargetMonth(t *testing.T) {
	sc := newPartnerScenario(t)
	f := sc.f
	svc := f.requestService()

	result, err := svc.RefreshPartner(f.ctx, dates.New(2020, time.January, 1))
	require.NoError(t, err)
	assert.Equal(t, 2020, result.Year)
	assert.Equal(t, 8, result.Month)
	assert.EqualValues(t, 2, result.Deleted)
	assert.Equal(t, 2, result.Created)

	rows, err := svc.List(f.ctx, model.MonthlyRequestPartner, 2020, 8)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	byContract := make(map[uuid.UUID]model.MonthlyRequest)
	for _, r := range rows {
		byContract[r.ContractID] = r
	}

	regular := byContract[sc.regular.ID]
	assert.False(t, regular.IsSubmitted)
	assert.Nil(t, regular.EndYear)
	assert.True(t, regular.Price.Equal(dec(600000)))
	assert.True(t, regular.MinHours.Equal(dec(150)))
	assert.True(t, regular.MaxHours.Equal(dec(190)))
	assert.True(t, regular.MinusPerHour.Equal(dec(4000)))
	assert.True(t, regular.PlusPerHour.Equal(dec(3158)))

	blanket := byContract[sc.blanket.ID]
	require.NotNil(t, blanket.EndYear)
	assert.Equal(t, 2020, *blanket.EndYear)
	assert.Equal(t, 11, *blanket.EndMonth)

	submitted := byContract[sc.submitted.ID]
	assert.True(t, submitted.IsSubmitted)
	assert.True(t, submitted.Price.Equal(dec(500000)))

	_, ok := byContract[sc.employee.ID]
	assert.False(t, ok)
}

func TestRefreshPartner_Idempotent(t *testing.T) {
	sc := newPartnerScenario(t)
	f := sc.f
	svc := f.requestService()

	_, err := svc.RefreshPartner(f.ctx, dates.New(2020, time.January, 1))
	require.NoError(t, err)
	first := requestKeys(t, f)

	again, err := svc.RefreshPartner(f.ctx, dates.New(2020, time.January, 1))
	require.NoError(t, err)
	assert.EqualValues(t, 2, again.Deleted)
	assert.Equal(t, 2, again.Created)
	assert.ElementsMatch(t, first, requestKeys(t, f))
}

func TestSubmit_NumbersOnceAndSurvivesRefresh(t *testing.T) {
	sc := newPartnerScenario(t)
	f := sc.f
	svc := f.requestService()

	_, err := svc.RefreshPartner(f.ctx, dates.New(2020, time.January, 1))
	require.NoError(t, err)
	rows, err := svc.List(f.ctx, model.MonthlyRequestPartner, 2020, 8)
	require.NoError(t, err)
	var target model.MonthlyRequest
	for _, r := range rows {
		if r.ContractID == sc.regular.ID {
			target = r
		}
	}
	require.NotEqual(t, uuid.Nil, target.ID)

	_, err = svc.Submit(f.ctx, reader, target.ID)
	assert.ErrorIs(t, err, ErrPermissionDenied)

	doc, err := svc.Submit(f.ctx, staff, target.ID)
	require.NoError(t, err)
	assert.Equal(t, "order-2008002.pdf", doc.FileName)
	assert.True(t, bytes.HasPrefix(doc.Content, []byte("%PDF")))

	stored, err := f.store.Requests.Get(f.ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsSubmitted)
	assert.Equal(t, "staff", stored.SubmittedBy)
	require.NotNil(t, stored.OrderNo)
	assert.Equal(t, "2008002", *stored.OrderNo)

	reissued, err := svc.Submit(f.ctx, staff, target.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.FileName, reissued.FileName)

	result, err := svc.RefreshPartner(f.ctx, dates.New(2020, time.January, 1))
	require.NoError(t, err)
	assert.EqualValues(t, 1, result.Deleted)
	assert.Equal(t, 1, result.Created)

	kept, err := f.store.Requests.Get(f.ctx, target.ID)
	require.NoError(t, err)
	assert.True(t, kept.IsSubmitted)
}

func TestRefreshProject_BillsProjectMemberContracts(t *testing.T) {
	f := newFixture(t)
	svc := f.requestService()
	m := f.member("M001")
	pm := f.projectMember("Billing system", model.Subject{Kind: model.SubjectEmployee, ID: m.ID}, "PM01")
	c := f.contract(&model.Contract{
		SubjectKind: model.SubjectProjectMember,
		SubjectID:   pm.ID,
		StartDate:   dates.New(2020, time.April, 1),
		EndDate:     dates.New(2021, time.March, 31),
		Amount:      dec(800000),
		IsFixedPay:  true,
	})
	f.employment(m, dates.New(2020, time.January, 1), dates.New(2020, time.December, 31))

	result, err := svc.RefreshProject(f.ctx, dates.New(2020, time.March, 10))
	require.NoError(t, err)
	assert.Equal(t, 10, result.Month)
	assert.Equal(t, 1, result.Created)

	rows, err := svc.List(f.ctx, model.MonthlyRequestProject, 2020, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, c.ID, rows[0].ContractID)
	assert.True(t, rows[0].MinusPerHour.IsZero())
}

func TestExport_NamesWorkbookByKindAndMonth(t *testing.T) {
	sc := newPartnerScenario(t)
	f := sc.f
	svc := f.requestService()
	_, err := svc.RefreshPartner(f.ctx, dates.New(2020, time.January, 1))
	require.NoError(t, err)

	doc, err := svc.Export(f.ctx, model.MonthlyRequestPartner, 2020, 8)
	require.NoError(t, err)
	assert.Equal(t, "monthly-requests-partner-202008.xlsx", doc.FileName)
	assert.True(t, bytes.HasPrefix(doc.Content, []byte("PK")))

	all, err := svc.Export(f.ctx, "", 2020, 8)
	require.NoError(t, err)
	assert.Equal(t, "monthly-requests-all-202008.xlsx", all.FileName)

	_, err = svc.Export(f.ctx, "bogus", 2020, 8)
	assert.ErrorIs(t, err, ErrInvalidInput)
}
