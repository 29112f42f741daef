package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/nurpe/sales-backoffice/internal/model"
	"github.com/nurpe/sales-backoffice/internal/timeseries"
)

type AssignmentRepository struct {
	db *gorm.DB
}

func NewAssignmentRepository(db *gorm.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

func (r *AssignmentRepository) Periods() *timeseries.Store[model.OrganizationAssignment, *model.OrganizationAssignment] {
	return timeseries.NewStore[model.OrganizationAssignment](r.db)
}

func SubjectScope(subject model.Subject) timeseries.Scope {
	return func(q *gorm.DB) *gorm.DB {
		return q.Where("subject_kind = ? AND subject_id = ?", subject.Kind, subject.ID)
	}
}

func (r *AssignmentRepository) Create(ctx context.Context, a *model.OrganizationAssignment) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *AssignmentRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*model.OrganizationAssignment, error) {
	var a model.OrganizationAssignment
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&a, "id = ?", id).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &a, nil
}

func (r *AssignmentRepository) ListBySubject(ctx context.Context, subject model.Subject) ([]model.OrganizationAssignment, error) {
	var rows []model.OrganizationAssignment
	err := r.db.WithContext(ctx).
		Where("subject_kind = ? AND subject_id = ? AND is_deleted = ?", subject.Kind, subject.ID, false).
		Order("start_date").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AssignmentRepository) MarkDeleted(ctx context.Context, id uuid.UUID, at time.Time, actor string) error {
	return r.db.WithContext(ctx).Model(&model.OrganizationAssignment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_deleted": true, "deleted_at": at, "updated_by": actor}).Error
}

func (r *AssignmentRepository) TruncateTo(ctx context.Context, id uuid.UUID, end time.Time, actor string) error {
	return r.db.WithContext(ctx).Model(&model.OrganizationAssignment{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"end_date": end, "updated_by": actor}).Error
}
