package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/nurpe/sales-backoffice/internal/vacation"
)

const (
	defaultPaidVacationIntervals = "6:18:10,18:30:11,30:42:12,42:54:14,54:66:16,66:78:18,78:90:20"
	defaultForwardMonths         = 6
)

type HTTPConfig struct {
	Host               string
	Port               int
	CORSAllowedOrigins []string
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime string
}

type AuthConfig struct {
	AccessSecret string
}

type ContractConfig struct {
	AutoUpdateTypes         []string
	AutoUpdateDefaultPeriod int
	ContinueOnError         bool
}

type RequestConfig struct {
	PartnerForwardMonths int
	ProjectForwardMonths int
}

type PaidVacationConfig struct {
	Schedule      vacation.Schedule
	ForwardMonths int
}

type BatchConfig struct {
	Username string
}

type Config struct {
	Environment  string
	HTTP         HTTPConfig
	DB           DBConfig
	Auth         AuthConfig
	Contract     ContractConfig
	Request      RequestConfig
	PaidVacation PaidVacationConfig
	Batch        BatchConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	v.SetDefault("PARTNER_REQUEST_FORWARD_MONTHS", defaultForwardMonths)
	v.SetDefault("PROJECT_REQUEST_FORWARD_MONTHS", defaultForwardMonths)
	v.SetDefault("PAID_VACATION_FORWARD_MONTHS", 1)

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host:               v.GetString("HTTP_HOST"),
			Port:               v.GetInt("HTTP_PORT"),
			CORSAllowedOrigins: parseList(v.GetString("CORS_ALLOWED_ORIGINS")),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetString("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		Contract: ContractConfig{
			AutoUpdateTypes:         parseList(v.GetString("CONTRACT_AUTO_UPDATE_TYPES")),
			AutoUpdateDefaultPeriod: v.GetInt("CONTRACT_AUTO_UPDATE_DEFAULT_PERIOD"),
			ContinueOnError:         v.GetBool("CONTRACT_AUTO_UPDATE_CONTINUE_ON_ERROR"),
		},
		Request: RequestConfig{
			PartnerForwardMonths: v.GetInt("PARTNER_REQUEST_FORWARD_MONTHS"),
			ProjectForwardMonths: v.GetInt("PROJECT_REQUEST_FORWARD_MONTHS"),
		},
		PaidVacation: PaidVacationConfig{
			ForwardMonths: v.GetInt("PAID_VACATION_FORWARD_MONTHS"),
		},
		Batch: BatchConfig{
			Username: v.GetString("BATCH_USERNAME"),
		},
	}

	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 7090
	}
	if len(cfg.HTTP.CORSAllowedOrigins) == 0 {
		cfg.HTTP.CORSAllowedOrigins = []string{"*"}
	}
	if len(cfg.Contract.AutoUpdateTypes) == 0 {
		cfg.Contract.AutoUpdateTypes = []string{"0010", "0011", "0012"}
	}
	if cfg.Contract.AutoUpdateDefaultPeriod <= 0 {
		cfg.Contract.AutoUpdateDefaultPeriod = 12
	}
	if cfg.Batch.Username == "" {
		cfg.Batch.Username = "batch"
	}

	intervals := v.GetString("PAID_VACATION_INTERVALS")
	if strings.TrimSpace(intervals) == "" {
		intervals = defaultPaidVacationIntervals
	}
	schedule, err := vacation.ParseSchedule(intervals)
	if err != nil {
		return nil, fmt.Errorf("PAID_VACATION_INTERVALS: %w", err)
	}
	cfg.PaidVacation.Schedule = schedule

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Request.PartnerForwardMonths < 0 || cfg.Request.ProjectForwardMonths < 0 {
		return fmt.Errorf("request forward months must not be negative")
	}
	if cfg.PaidVacation.ForwardMonths < 0 {
		return fmt.Errorf("PAID_VACATION_FORWARD_MONTHS must not be negative")
	}
	return nil
}

// ValidateHTTP checks what only the API server needs.
func (c *Config) ValidateHTTP() error {
	if c.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	return nil
}

func parseList(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	items := strings.Split(raw, ",")
	result := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item != "" {
			result = append(result, item)
		}
	}
	return result
}
