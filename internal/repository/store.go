package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = errors.New("record not found")

type Store struct {
	db            *gorm.DB
	Contracts     *ContractRepository
	Assignments   *AssignmentRepository
	Requests      *MonthlyRequestRepository
	Parties       *PartyRepository
	Vacations     *PaidVacationRepository
	Costs         *CostRepository
	Notifications *NotificationRepository
	Batches       *BatchRepository
}

func NewStore(db *gorm.DB) *Store {
	return &Store{
		db:            db,
		Contracts:     NewContractRepository(db),
		Assignments:   NewAssignmentRepository(db),
		Requests:      NewMonthlyRequestRepository(db),
		Parties:       NewPartyRepository(db),
		Vacations:     NewPaidVacationRepository(db),
		Costs:         NewCostRepository(db),
		Notifications: NewNotificationRepository(db),
		Batches:       NewBatchRepository(db),
	}
}

// Transaction runs fn against a Store bound to one transaction. Called on a
// Store that is already transactional it opens a savepoint.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewStore(tx))
	})
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
