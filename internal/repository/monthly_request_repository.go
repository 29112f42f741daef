package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/sales-backoffice/internal/dates"
	"github.com/nurpe/sales-backoffice/internal/model"
)

type MonthlyRequestRepository struct {
	db *gorm.DB
}

func NewMonthlyRequestRepository(db *gorm.DB) *MonthlyRequestRepository {
	return &MonthlyRequestRepository{db: db}
}

// covering matches single-month rows for the month and blanket rows whose span includes it.
func covering(year, month int) func(*gorm.DB) *gorm.DB {
	ym := dates.YearMonth(year, month)
	return func(q *gorm.DB) *gorm.DB {
		return q.Where(`(
			(end_year IS NULL AND year * 100 + month = ?)
			OR (end_year IS NOT NULL AND year * 100 + month <= ? AND end_year * 100 + end_month >= ?)
		)`, ym, ym, ym)
	}
}

func (r *MonthlyRequestRepository) DeleteOpenCovering(ctx context.Context, kind model.MonthlyRequestKind, year, month int) (int64, error) {
	res := r.db.WithContext(ctx).
		Scopes(covering(year, month)).
		Where("kind = ? AND is_submitted = ?", kind, false).
		Delete(&model.MonthlyRequest{})
	return res.RowsAffected, res.Error
}

func (r *MonthlyRequestRepository) CoveredContractIDs(ctx context.Context, kind model.MonthlyRequestKind, year, month int) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&model.MonthlyRequest{}).
		Scopes(covering(year, month)).
		Where("kind = ?", kind).
		Distinct().
		Pluck("contract_id", &ids).Error
	if err != nil {
		return nil, err
	}
	covered := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		covered[id] = true
	}
	return covered, nil
}

func (r *MonthlyRequestRepository) Create(ctx context.Context, req *model.MonthlyRequest) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *MonthlyRequestRepository) List(ctx context.Context, kind model.MonthlyRequestKind, year, month int) ([]model.MonthlyRequest, error) {
	q := r.db.WithContext(ctx).Scopes(covering(year, month))
	if kind != "" {
		q = q.Where("kind = ?", kind)
	}
	var rows []model.MonthlyRequest
	if err := q.Order("kind, year, month, created_at").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *MonthlyRequestRepository) ListSubmitted(ctx context.Context, kind model.MonthlyRequestKind, year, month int) ([]model.MonthlyRequest, error) {
	var rows []model.MonthlyRequest
	err := r.db.WithContext(ctx).
		Scopes(covering(year, month)).
		Where("kind = ? AND is_submitted = ?", kind, true).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *MonthlyRequestRepository) Get(ctx context.Context, id uuid.UUID) (*model.MonthlyRequest, error) {
	var req model.MonthlyRequest
	if err := r.db.WithContext(ctx).First(&req, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

func (r *MonthlyRequestRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.MonthlyRequest, error) {
	var req model.MonthlyRequest
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&req, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &req, nil
}

// NextOrderNo numbers submitted requests as YYMMNNN within the billing month.
func (r *MonthlyRequestRepository) NextOrderNo(ctx context.Context, year, month int) (string, error) {
	prefix := fmt.Sprintf("%02d%02d", year%100, month)
	var numbers []string
	err := r.db.WithContext(ctx).Model(&model.MonthlyRequest{}).
		Where("order_no LIKE ?", prefix+"%").
		Pluck("order_no", &numbers).Error
	if err != nil {
		return "", err
	}
	next := 1
	for _, no := range numbers {
		if len(no) != len(prefix)+3 {
			continue
		}
		if seq, err := strconv.Atoi(no[len(prefix):]); err == nil && seq >= next {
			next = seq + 1
		}
	}
	if next > 999 {
		return "", fmt.Errorf("order numbers for %s exhausted", prefix)
	}
	return fmt.Sprintf("%s%03d", prefix, next), nil
}

func (r *MonthlyRequestRepository) MarkSubmitted(ctx context.Context, id uuid.UUID, orderNo string, at time.Time, actor string) error {
	return r.db.WithContext(ctx).Model(&model.MonthlyRequest{}).
		Where("id = ? AND is_submitted = ?", id, false).
		Updates(map[string]interface{}{
			"is_submitted": true,
			"submitted_at": at,
			"submitted_by": actor,
			"order_no":     orderNo,
		}).Error
}
