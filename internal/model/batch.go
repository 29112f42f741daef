package model

import "time"

type BatchManage struct {
	Base
	Name     string `gorm:"type:varchar(50);not null;uniqueIndex" json:"name"`
	Title    string `gorm:"type:varchar(100)" json:"title"`
	IsActive bool   `gorm:"not null" json:"is_active"`
}

type BatchRunStatus string

const (
	BatchRunSuccess  BatchRunStatus = "success"
	BatchRunFailed   BatchRunStatus = "failed"
	BatchRunDisabled BatchRunStatus = "disabled"
)

type BatchRun struct {
	Base
	BatchName  string         `gorm:"type:varchar(50);not null;index" json:"batch_name"`
	StartedAt  time.Time      `gorm:"not null" json:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
	Status     BatchRunStatus `gorm:"type:varchar(10);not null" json:"status"`
	Message    string         `gorm:"type:text" json:"message"`
}
