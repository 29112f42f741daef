package config

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/sales")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 7090, cfg.HTTP.Port)
	assert.Equal(t, []string{"*"}, cfg.HTTP.CORSAllowedOrigins)
	assert.Equal(t, []string{"0010", "0011", "0012"}, cfg.Contract.AutoUpdateTypes)
	assert.Equal(t, 12, cfg.Contract.AutoUpdateDefaultPeriod)
	assert.False(t, cfg.Contract.ContinueOnError)
	assert.Equal(t, 6, cfg.Request.PartnerForwardMonths)
	assert.Equal(t, 6, cfg.Request.ProjectForwardMonths)
	assert.Equal(t, 1, cfg.PaidVacation.ForwardMonths)
	assert.Equal(t, "batch", cfg.Batch.Username)

	require.Len(t, cfg.PaidVacation.Schedule, 7)
	assert.Equal(t, 90, cfg.PaidVacation.Schedule.MaxEndMonths())
	assert.True(t, cfg.PaidVacation.Schedule[6].Days.Equal(decimal.NewFromInt(20)))
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/sales")
	t.Setenv("CONTRACT_AUTO_UPDATE_TYPES", "0010, 0020")
	t.Setenv("CONTRACT_AUTO_UPDATE_CONTINUE_ON_ERROR", "true")
	t.Setenv("PARTNER_REQUEST_FORWARD_MONTHS", "0")
	t.Setenv("PAID_VACATION_INTERVALS", "6:18:10,18:30:12")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"0010", "0020"}, cfg.Contract.AutoUpdateTypes)
	assert.True(t, cfg.Contract.ContinueOnError)
	assert.Equal(t, 0, cfg.Request.PartnerForwardMonths)
	assert.Len(t, cfg.PaidVacation.Schedule, 2)
}

func TestLoadRequiresDSN(t *testing.T) {
	t.Setenv("DB_DSN", "")
	_, err := Load()
	assert.Error(t, err)
}

func TestLoadRejectsBadSchedule(t *testing.T) {
	t.Setenv("DB_DSN", "postgres://localhost/sales")
	t.Setenv("PAID_VACATION_INTERVALS", "6:18:10,12:24:11")
	_, err := Load()
	assert.Error(t, err)
}

func TestValidateHTTP(t *testing.T) {
	cfg := &Config{}
	assert.Error(t, cfg.ValidateHTTP())
	cfg.Auth.AccessSecret = "secret"
	assert.NoError(t, cfg.ValidateHTTP())
}
