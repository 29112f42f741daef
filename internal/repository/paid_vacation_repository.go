package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/sales-backoffice/internal/model"
)

type PaidVacationRepository struct {
	db *gorm.DB
}

func NewPaidVacationRepository(db *gorm.DB) *PaidVacationRepository {
	return &PaidVacationRepository{db: db}
}

func (r *PaidVacationRepository) Create(ctx context.Context, pv *model.PaidVacation) error {
	return r.db.WithContext(ctx).Create(pv).Error
}

func (r *PaidVacationRepository) ListByMember(ctx context.Context, memberID uuid.UUID) ([]model.PaidVacation, error) {
	var rows []model.PaidVacation
	err := r.db.WithContext(ctx).
		Where("member_id = ?", memberID).
		Order("start_date").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *PaidVacationRepository) HasGrantEndingAfter(ctx context.Context, memberID uuid.UUID, day time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.PaidVacation{}).
		Where("member_id = ? AND end_date > ?", memberID, day).
		Count(&count).Error
	return count > 0, err
}

func (r *PaidVacationRepository) FindCovering(ctx context.Context, memberID uuid.UUID, day time.Time) (*model.PaidVacation, error) {
	var rows []model.PaidVacation
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND start_date <= ? AND end_date >= ?", memberID, day, day).
		Order("start_date DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

func (r *PaidVacationRepository) SumUsage(ctx context.Context, memberID uuid.UUID, from, to time.Time) (decimal.Decimal, error) {
	var usages []model.VacationUsage
	err := r.db.WithContext(ctx).
		Where("member_id = ? AND date >= ? AND date <= ?", memberID, from, to).
		Find(&usages).Error
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, u := range usages {
		total = total.Add(u.Days)
	}
	return total, nil
}

func (r *PaidVacationRepository) CreateUsage(ctx context.Context, u *model.VacationUsage) error {
	return r.db.WithContext(ctx).Create(u).Error
}

func (r *PaidVacationRepository) EarliestContractStart(ctx context.Context, memberID uuid.UUID) (*time.Time, error) {
	var rows []model.Contract
	err := r.db.WithContext(ctx).
		Where("subject_kind = ? AND subject_id = ? AND counterparty_kind = ? AND is_deleted = ?",
			model.SubjectEmployee, memberID, model.CounterpartyCompany, false).
		Order("start_date").
		Limit(1).
		Find(&rows).Error
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0].StartDate, nil
}
