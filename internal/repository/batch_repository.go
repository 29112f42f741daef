package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/nurpe/sales-backoffice/internal/model"
)

type BatchRepository struct {
	db *gorm.DB
}

func NewBatchRepository(db *gorm.DB) *BatchRepository {
	return &BatchRepository{db: db}
}

func (r *BatchRepository) GetOrCreate(ctx context.Context, name, title string) (*model.BatchManage, error) {
	var batch model.BatchManage
	err := r.db.WithContext(ctx).First(&batch, "name = ?", name).Error
	if err == nil {
		if batch.Title == "" && title != "" {
			batch.Title = title
			if err := r.db.WithContext(ctx).Model(&batch).Update("title", title).Error; err != nil {
				return nil, err
			}
		}
		return &batch, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	batch = model.BatchManage{Name: name, Title: title, IsActive: true}
	if err := r.db.WithContext(ctx).Create(&batch).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

func (r *BatchRepository) SetActive(ctx context.Context, name string, active bool) error {
	return r.db.WithContext(ctx).Model(&model.BatchManage{}).Where("name = ?", name).Update("is_active", active).Error
}

func (r *BatchRepository) StartRun(ctx context.Context, name string, at time.Time) (*model.BatchRun, error) {
	run := &model.BatchRun{BatchName: name, StartedAt: at, Status: model.BatchRunFailed}
	if err := r.db.WithContext(ctx).Create(run).Error; err != nil {
		return nil, err
	}
	return run, nil
}

func (r *BatchRepository) FinishRun(ctx context.Context, id uuid.UUID, status model.BatchRunStatus, message string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&model.BatchRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "message": message, "finished_at": at}).Error
}

func (r *BatchRepository) ListRuns(ctx context.Context, name string) ([]model.BatchRun, error) {
	var runs []model.BatchRun
	err := r.db.WithContext(ctx).Where("batch_name = ?", name).Order("started_at").Find(&runs).Error
	if err != nil {
		return nil, err
	}
	return runs, nil
}
