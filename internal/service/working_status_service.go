package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurpe/sales-backoffice/internal/dates"
	"github.com/nurpe/sales-backoffice/internal/model"
	"github.com/nurpe/sales-backoffice/internal/repository"
)

type WorkingStatusService struct {
	store *repository.Store
	log   zerolog.Logger
}

type WorkingStatusResult struct {
	Members int
	Working int
	Waiting int
}

func NewWorkingStatusService(store *repository.Store, log zerolog.Logger) *WorkingStatusService {
	return &WorkingStatusService{store: store, log: log}
}

func (s *WorkingStatusService) Refresh(ctx context.Context, today time.Time) (*WorkingStatusResult, error) {
	today = dates.DateOnly(today)
	result := &WorkingStatusResult{}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		var subjects []model.Subject
		members, err := tx.Parties.ListEmployedMembers(ctx, today, today)
		if err != nil {
			return err
		}
		for _, m := range members {
			subjects = append(subjects, model.Subject{Kind: model.SubjectEmployee, ID: m.ID})
		}
		partners, err := tx.Parties.ListContractedPartnerMembers(ctx, today, today)
		if err != nil {
			return err
		}
		for _, m := range partners {
			subjects = append(subjects, model.Subject{Kind: model.SubjectPartnerMember, ID: m.ID})
		}

		for _, subject := range subjects {
			status, err := s.status(ctx, tx, subject, today)
			if err != nil {
				return fmt.Errorf("working status of %s: %w", subject, err)
			}
			if err := tx.Costs.UpsertWorkingStatus(ctx, status); err != nil {
				return err
			}
			result.Members++
			if status.IsWorking {
				result.Working++
			} else {
				result.Waiting++
			}
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	s.log.Info().
		Int("members", result.Members).
		Int("working", result.Working).
		Int("waiting", result.Waiting).
		Msg("working status refreshed")
	return result, nil
}

func (s *WorkingStatusService) status(ctx context.Context, tx *repository.Store, subject model.Subject, today time.Time) (*model.MemberWorkingStatus, error) {
	monthStart, monthEnd := dates.FirstDayOfMonth(today), dates.LastDayOfMonth(today)
	status := &model.MemberWorkingStatus{
		SubjectKind: subject.Kind,
		SubjectID:   subject.ID,
		Year:        today.Year(),
		Month:       int(today.Month()),
	}

	// newest end date first
	contracts, err := tx.Contracts.ListAssignmentContracts(ctx, subject)
	if err != nil {
		return nil, err
	}
	if len(contracts) == 0 {
		return status, nil
	}
	release := contracts[0].EndDate
	status.ReleaseDate = &release

	for i := range contracts {
		c := &contracts[i]
		if !c.ActiveIn(monthStart, monthEnd) {
			continue
		}
		pm, err := tx.Parties.ProjectMember(ctx, c.SubjectID)
		if err != nil {
			return nil, err
		}
		contractID, projectID := c.ID, pm.ProjectID
		status.IsWorking = true
		status.ContractID = &contractID
		status.ProjectID = &projectID
		break
	}
	return status, nil
}
