package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/sales-backoffice/internal/model"
)

type CostRepository struct {
	db *gorm.DB
}

func NewCostRepository(db *gorm.DB) *CostRepository {
	return &CostRepository{db: db}
}

func (r *CostRepository) DeleteMonth(ctx context.Context, source model.CostSource, year, month int) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("source = ? AND year = ? AND month = ?", source, year, month).
		Delete(&model.MonthlyCost{})
	return res.RowsAffected, res.Error
}

func (r *CostRepository) DeleteForSubject(ctx context.Context, source model.CostSource, subject model.Subject, year, month int) error {
	return r.db.WithContext(ctx).
		Where("source = ? AND subject_kind = ? AND subject_id = ? AND year = ? AND month = ?",
			source, subject.Kind, subject.ID, year, month).
		Delete(&model.MonthlyCost{}).Error
}

func (r *CostRepository) Create(ctx context.Context, costs ...*model.MonthlyCost) error {
	if len(costs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(costs).Error
}

func (r *CostRepository) ListMonth(ctx context.Context, source model.CostSource, year, month int) ([]model.MonthlyCost, error) {
	var rows []model.MonthlyCost
	err := r.db.WithContext(ctx).
		Where("source = ? AND year = ? AND month = ?", source, year, month).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *CostRepository) UpsertWorkingStatus(ctx context.Context, status *model.MemberWorkingStatus) error {
	if status.ID == uuid.Nil {
		status.ID = uuid.New()
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "subject_kind"}, {Name: "subject_id"}, {Name: "year"}, {Name: "month"}},
		DoUpdates: clause.AssignmentColumns([]string{"is_working", "project_id", "contract_id", "release_date", "updated_at"}),
	}).Create(status).Error
}

func (r *CostRepository) GetWorkingStatus(ctx context.Context, subject model.Subject, year, month int) (*model.MemberWorkingStatus, error) {
	var status model.MemberWorkingStatus
	err := r.db.WithContext(ctx).
		Where("subject_kind = ? AND subject_id = ? AND year = ? AND month = ?", subject.Kind, subject.ID, year, month).
		First(&status).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &status, nil
}
