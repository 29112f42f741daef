package timeseries

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Scope narrows a query to the records that must not overlap each other.
type Scope func(*gorm.DB) *gorm.DB

// Store runs the resolver against a table with start_date, end_date and
// is_deleted columns. Bind it to a transaction; candidates are read FOR UPDATE.
type Store[T any, P interface {
	*T
	Record
}] struct {
	db *gorm.DB
}

func NewStore[T any, P interface {
	*T
	Record
}](db *gorm.DB) *Store[T, P] {
	return &Store[T, P]{db: db}
}

func (s *Store[T, P]) CheckNoLaterConflict(ctx context.Context, scope Scope, newStart time.Time, exclude uuid.UUID) error {
	rows, err := s.find(ctx, scope, exclude, func(q *gorm.DB) *gorm.DB {
		return q.Where("start_date >= ?", newStart)
	})
	if err != nil {
		return err
	}
	return CheckNoLaterConflict(rows, newStart, exclude)
}

func (s *Store[T, P]) ResolveInsert(ctx context.Context, scope Scope, newStart time.Time, exclude uuid.UUID, at time.Time) (Change[P], error) {
	rows, err := s.find(ctx, scope, exclude, func(q *gorm.DB) *gorm.DB {
		return q.Where("end_date >= ?", newStart)
	})
	if err != nil {
		return Change[P]{}, err
	}
	change, err := ResolveInsertConflict(rows, newStart, at)
	if err != nil || !change.Changed() {
		return change, err
	}
	return change, s.persist(ctx, change.Record, at)
}

// ResolveDeleteRestore restores the record that ended the day before removed started.
func (s *Store[T, P]) ResolveDeleteRestore(ctx context.Context, scope Scope, removed P) (Change[P], error) {
	start, _ := removed.Period()
	rows, err := s.find(ctx, scope, removed.RecordID(), func(q *gorm.DB) *gorm.DB {
		return q.Where("end_date = ?", start.AddDate(0, 0, -1))
	})
	if err != nil {
		return Change[P]{}, err
	}
	change, err := ResolveDeleteRestore(rows)
	if err != nil || !change.Changed() {
		return change, err
	}
	return change, s.persist(ctx, change.Record, time.Time{})
}

func (s *Store[T, P]) find(ctx context.Context, scope Scope, exclude uuid.UUID, filter func(*gorm.DB) *gorm.DB) ([]P, error) {
	var rows []T
	q := s.db.WithContext(ctx).Model(new(T)).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("is_deleted = ?", false)
	if scope != nil {
		q = scope(q)
	}
	if exclude != uuid.Nil {
		q = q.Where("id <> ?", exclude)
	}
	if err := filter(q).Order("start_date").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load overlapping periods: %w", err)
	}
	out := make([]P, 0, len(rows))
	for i := range rows {
		out = append(out, P(&rows[i]))
	}
	return out, nil
}

func (s *Store[T, P]) persist(ctx context.Context, r P, deletedAt time.Time) error {
	_, end := r.Period()
	updates := map[string]interface{}{"end_date": end}
	if r.Deleted() {
		updates["is_deleted"] = true
		updates["deleted_at"] = deletedAt
	}
	if err := s.db.WithContext(ctx).Model(r).Updates(updates).Error; err != nil {
		return fmt.Errorf("update period %s: %w", r.RecordID(), err)
	}
	return nil
}
