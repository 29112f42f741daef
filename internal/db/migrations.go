package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/nurpe/sales-backoffice/internal/model"
)

var models = []interface{}{
	&model.Company{},
	&model.PartnerCompany{},
	&model.ClientCompany{},
	&model.Member{},
	&model.PartnerMember{},
	&model.Project{},
	&model.ProjectMember{},
	&model.Contract{},
	&model.ContractComment{},
	&model.ContractCalculateHours{},
	&model.ContractAllowance{},
	&model.ContractEvent{},
	&model.OrganizationAssignment{},
	&model.Retirement{},
	&model.MonthlyRequest{},
	&model.PaidVacation{},
	&model.VacationUsage{},
	&model.Attendance{},
	&model.MonthlyCost{},
	&model.MemberWorkingStatus{},
	&model.NotificationTopic{},
	&model.NotificationSubscription{},
	&model.Notification{},
	&model.BatchManage{},
	&model.BatchRun{},
}

// Statements run after AutoMigrate; they must stay valid for both postgres and sqlite.
var migrationStatements = []string{
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_monthly_requests_open ON monthly_requests (contract_id, year, month) WHERE is_submitted = false;`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_contracts_parent ON contracts (parent_id) WHERE parent_id IS NOT NULL;`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_paid_vacations_member_start ON paid_vacations (member_id, start_date);`,
	`CREATE INDEX IF NOT EXISTS idx_contracts_live_end ON contracts (end_date) WHERE is_deleted = false;`,
	`CREATE INDEX IF NOT EXISTS idx_monthly_requests_open ON monthly_requests (kind, year, month) WHERE is_submitted = false;`,
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models...); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return runMigrations(db)
}

func runMigrations(db *gorm.DB) error {
	for i, stmt := range migrationStatements {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
	}
	return nil
}
