package service

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nurpe/sales-backoffice/internal/dates"
	"github.com/nurpe/sales-backoffice/internal/model"
)

func TestWorkingStatus_RecordsPlacement(t *testing.T) {
	f := newFixture(t)
	svc := NewWorkingStatusService(f.store, zerolog.Nop())
	start, end := dates.New(2020, time.January, 1), dates.New(2020, time.December, 31)

	working := f.member("M001")
	f.employment(working, start, end)
	workingSubject := model.Subject{Kind: model.SubjectEmployee, ID: working.ID}
	pm := f.projectMember("Billing", workingSubject, "PM01")
	placement := f.contract(&model.Contract{
		SubjectKind: model.SubjectProjectMember,
		SubjectID:   pm.ID,
		StartDate:   dates.New(2020, time.April, 1),
		EndDate:     dates.New(2020, time.October, 31),
	})
	f.contract(&model.Contract{
		SubjectKind: model.SubjectProjectMember,
		SubjectID:   pm.ID,
		StartDate:   dates.New(2020, time.November, 1),
		EndDate:     dates.New(2021, time.March, 31),
	})

	waiting := f.member("M002")
	f.employment(waiting, start, end)

	pc := f.partnerCompany("P01")
	partner := f.partnerMember(pc, "PM001")
	f.partnerContract(pc, partner, start, end)

	today := dates.New(2020, time.August, 17)
	result, err := svc.Refresh(f.ctx, today)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Members)
	assert.Equal(t, 1, result.Working)
	assert.Equal(t, 2, result.Waiting)

	status, err := f.store.Costs.GetWorkingStatus(f.ctx, workingSubject, 2020, 8)
	require.NoError(t, err)
	assert.True(t, status.IsWorking)
	require.NotNil(t, status.ContractID)
	assert.Equal(t, placement.ID, *status.ContractID)
	require.NotNil(t, status.ProjectID)
	assert.Equal(t, pm.ProjectID, *status.ProjectID)
	require.NotNil(t, status.ReleaseDate)
	assert.Equal(t, dates.New(2021, time.March, 31), *status.ReleaseDate)

	idle, err := f.store.Costs.GetWorkingStatus(f.ctx, model.Subject{Kind: model.SubjectEmployee, ID: waiting.ID}, 2020, 8)
	require.NoError(t, err)
	assert.False(t, idle.IsWorking)
	assert.Nil(t, idle.ReleaseDate)

	_, err = svc.Refresh(f.ctx, today)
	require.NoError(t, err)
	var count int64
	require.NoError(t, f.db.Model(&model.MemberWorkingStatus{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)
}
