package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/sales-backoffice/internal/config"
	"github.com/nurpe/sales-backoffice/internal/dates"
	"github.com/nurpe/sales-backoffice/internal/model"
	"github.com/nurpe/sales-backoffice/internal/repository"
	"github.com/nurpe/sales-backoffice/internal/vacation"
)

type PaidVacationService struct {
	store *repository.Store
	cfg   config.PaidVacationConfig
	log   zerolog.Logger
}

type PaidVacationResult struct {
	Created int
	Skipped int
}

func NewPaidVacationService(store *repository.Store, cfg config.PaidVacationConfig, log zerolog.Logger) *PaidVacationService {
	return &PaidVacationService{store: store, cfg: cfg, log: log}
}

func (s *PaidVacationService) ListByMember(ctx context.Context, memberID uuid.UUID) ([]model.PaidVacation, error) {
	if _, err := s.store.Parties.GetMember(ctx, memberID); err != nil {
		return nil, translate(err)
	}
	return s.store.Vacations.ListByMember(ctx, memberID)
}

// ComputeNextGrant works out the grant due to member at asOf without saving it.
// The second result is false when no grant is due, e.g. in a gap of the schedule.
func (s *PaidVacationService) ComputeNextGrant(ctx context.Context, member *model.Member, asOf time.Time) (*model.PaidVacation, bool, error) {
	return s.computeNextGrant(ctx, s.store, member, asOf)
}

func (s *PaidVacationService) computeNextGrant(ctx context.Context, store *repository.Store, member *model.Member, asOf time.Time) (*model.PaidVacation, bool, error) {
	joinDate, err := s.joinDate(ctx, store, member)
	if err != nil {
		return nil, false, err
	}
	if joinDate.IsZero() {
		return nil, false, nil
	}

	grant, ok := s.cfg.Schedule.NextGrant(joinDate, dates.DateOnly(asOf))
	if !ok {
		return nil, false, nil
	}

	carryover, err := s.carryover(ctx, store, member.ID, grant.StartDate)
	if err != nil {
		return nil, false, err
	}
	return &model.PaidVacation{
		MemberID:      member.ID,
		StartDate:     grant.StartDate,
		EndDate:       grant.EndDate,
		Days:          grant.Days,
		CarryoverDays: carryover,
	}, true, nil
}

func (s *PaidVacationService) joinDate(ctx context.Context, store *repository.Store, member *model.Member) (time.Time, error) {
	if member.JoinDate != nil {
		return dates.DateOnly(*member.JoinDate), nil
	}
	start, err := store.Vacations.EarliestContractStart(ctx, member.ID)
	if err != nil || start == nil {
		return time.Time{}, err
	}
	return dates.DateOnly(*start), nil
}

func (s *PaidVacationService) carryover(ctx context.Context, store *repository.Store, memberID uuid.UUID, start time.Time) (decimal.Decimal, error) {
	prev, err := store.Vacations.FindCovering(ctx, memberID, dates.AddDays(start, -1))
	if err != nil || prev == nil {
		return decimal.Zero, err
	}
	used, err := store.Vacations.SumUsage(ctx, memberID, prev.StartDate, prev.EndDate)
	if err != nil {
		return decimal.Zero, err
	}
	return vacation.Unused(prev.Days, prev.CarryoverDays, used), nil
}

// Generate grants the next paid vacation to every employee under contract in
// the month of executeDate who holds no grant past the preparation date.
func (s *PaidVacationService) Generate(ctx context.Context, actor model.Principal, executeDate time.Time) (*PaidVacationResult, error) {
	firstDay, lastDay := dates.FirstDayOfMonth(executeDate), dates.LastDayOfMonth(executeDate)
	newStart := dates.FirstDayOfMonth(dates.AddMonths(executeDate, s.cfg.ForwardMonths))
	result := &PaidVacationResult{}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		members, err := tx.Parties.ListEmployedMembers(ctx, firstDay, lastDay)
		if err != nil {
			return err
		}
		for i := range members {
			member := &members[i]
			granted, err := tx.Vacations.HasGrantEndingAfter(ctx, member.ID, newStart)
			if err != nil {
				return err
			}
			if granted {
				continue
			}
			pv, ok, err := s.computeNextGrant(ctx, tx, member, newStart)
			if err != nil {
				return fmt.Errorf("paid vacation of %s: %w", member.Code, err)
			}
			if !ok {
				result.Skipped++
				s.log.Debug().Str("member", member.Code).Msg("no paid vacation due")
				continue
			}
			pv.CreatedBy = actor.Username
			if err := tx.Vacations.Create(ctx, pv); err != nil {
				return fmt.Errorf("paid vacation of %s: %w", member.Code, err)
			}
			result.Created++
			s.log.Debug().
				Str("member", member.Code).
				Str("start_date", dates.Format(pv.StartDate)).
				Str("end_date", dates.Format(pv.EndDate)).
				Str("days", pv.Days.String()).
				Str("carryover_days", pv.CarryoverDays.String()).
				Msg("paid vacation granted")
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	s.log.Info().Int("created", result.Created).Int("skipped", result.Skipped).Msg("paid vacations processed")
	return result, nil
}
