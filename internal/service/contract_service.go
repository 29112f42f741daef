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
	"github.com/nurpe/sales-backoffice/internal/timeseries"
)

type ContractService struct {
	store *repository.Store
	cfg   config.ContractConfig
	log   zerolog.Logger
	now   func() time.Time
}

type ContractInput struct {
	ContractDate      time.Time
	ContractType      string
	Subject           model.Subject
	Counterparty      model.Counterparty
	StartDate         time.Time
	EndDate           time.Time
	IsAutoUpdate      bool
	AutoUpdatePeriod  *int
	Amount            decimal.Decimal
	IsBlanketContract bool
	IsFixedPay        bool
	IsHourlyPay       bool
	HourlyPayAmount   decimal.Decimal
	Comments          []model.ContractComment
	CalculateHours    []model.ContractCalculateHours
	Allowances        []model.ContractAllowance
}

type RenewalFailure struct {
	ContractID uuid.UUID
	ContractNo string
	Err        error
}

type AutoUpdateResult struct {
	Renewed []model.Contract
	Failed  []RenewalFailure
}

type RetireResult struct {
	Truncated          []uuid.UUID
	Deleted            []uuid.UUID
	AssignmentsClosed  int
	AssignmentsDeleted int
}

func NewContractService(store *repository.Store, cfg config.ContractConfig, log zerolog.Logger) *ContractService {
	return &ContractService{
		store: store,
		cfg:   cfg,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *ContractService) Get(ctx context.Context, id uuid.UUID) (*model.Contract, error) {
	c, err := s.store.Contracts.Get(ctx, id)
	if err != nil {
		return nil, translate(err)
	}
	if c.IsDeleted {
		return nil, ErrNotFound
	}
	return c, nil
}

func (s *ContractService) Events(ctx context.Context, id uuid.UUID) ([]model.ContractEvent, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.store.Contracts.ListEvents(ctx, id)
}

func validateContractInput(in *ContractInput) error {
	if !in.Subject.Kind.Valid() || in.Subject.ID == uuid.Nil {
		return fmt.Errorf("%w: subject is required", ErrInvalidInput)
	}
	if !in.Counterparty.Kind.Valid() || in.Counterparty.ID == uuid.Nil {
		return fmt.Errorf("%w: counterparty is required", ErrInvalidInput)
	}
	if in.ContractType == "" {
		return fmt.Errorf("%w: contract_type is required", ErrInvalidInput)
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return fmt.Errorf("%w: start_date and end_date are required", ErrInvalidInput)
	}
	in.StartDate = dates.DateOnly(in.StartDate)
	in.EndDate = dates.DateOnly(in.EndDate)
	if in.StartDate.After(in.EndDate) {
		return fmt.Errorf("%w: start_date must be before or equal to end_date", ErrInvalidInput)
	}
	if in.AutoUpdatePeriod != nil && *in.AutoUpdatePeriod <= 0 {
		return fmt.Errorf("%w: auto_update_period must be positive", ErrInvalidInput)
	}
	return nil
}

// Create registers a contract as the latest of its scope, truncating the
// predecessor that is still running on the new start date.
func (s *ContractService) Create(ctx context.Context, actor model.Principal, in ContractInput) (*model.Contract, error) {
	if !actor.CanWrite() {
		return nil, ErrPermissionDenied
	}
	if err := validateContractInput(&in); err != nil {
		return nil, err
	}
	contractDate := dates.DateOnly(in.ContractDate)
	if contractDate.IsZero() {
		contractDate = dates.DateOnly(s.now())
	}

	c := &model.Contract{
		ContractDate:      contractDate,
		ContractType:      in.ContractType,
		SubjectKind:       in.Subject.Kind,
		SubjectID:         in.Subject.ID,
		CounterpartyKind:  in.Counterparty.Kind,
		CounterpartyID:    in.Counterparty.ID,
		StartDate:         in.StartDate,
		EndDate:           in.EndDate,
		InitialEndDate:    in.EndDate,
		Status:            model.ContractStatusRegistered,
		IsAutoUpdate:      in.IsAutoUpdate,
		AutoUpdatePeriod:  in.AutoUpdatePeriod,
		Amount:            in.Amount,
		IsBlanketContract: in.IsBlanketContract,
		IsFixedPay:        in.IsFixedPay,
		IsHourlyPay:       in.IsHourlyPay,
		HourlyPayAmount:   in.HourlyPayAmount,
		CreatedBy:         actor.Username,
		UpdatedBy:         actor.Username,
		Comments:          in.Comments,
		CalculateHours:    in.CalculateHours,
		Allowances:        in.Allowances,
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		scope := repository.SiblingScope(c)
		periods := tx.Contracts.Periods()
		if err := periods.CheckNoLaterConflict(ctx, scope, c.StartDate, uuid.Nil); err != nil {
			return err
		}
		change, err := periods.ResolveInsert(ctx, scope, c.StartDate, uuid.Nil, s.now())
		if err != nil {
			return err
		}
		if err := s.recordChange(ctx, tx, change, actor.Username); err != nil {
			return err
		}

		no, err := s.nextContractNo(ctx, tx, c)
		if err != nil {
			return err
		}
		c.ContractNo = no
		return tx.Contracts.Create(ctx, c)
	})
	if err != nil {
		return nil, translate(err)
	}

	s.log.Info().
		Str("contract_no", c.ContractNo).
		Str("subject", c.Subject().String()).
		Str("actor", actor.Username).
		Msg("contract created")
	return c, nil
}

// Update edits dates and terms. Subject, counterparty and type are fixed
// after creation and initial_end_date never changes.
func (s *ContractService) Update(ctx context.Context, actor model.Principal, id uuid.UUID, in ContractInput) (*model.Contract, error) {
	if !actor.CanWrite() {
		return nil, ErrPermissionDenied
	}

	var updated *model.Contract
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		c, err := tx.Contracts.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if c.IsDeleted {
			return repository.ErrNotFound
		}
		if c.IsDiscarded() {
			return fmt.Errorf("%w: contract %s is discarded", ErrImmutable, c.ContractNo)
		}

		in.Subject = c.Subject()
		in.Counterparty = c.Counterparty()
		in.ContractType = c.ContractType
		if err := validateContractInput(&in); err != nil {
			return err
		}

		if !in.StartDate.Equal(c.StartDate) || !in.EndDate.Equal(c.EndDate) {
			scope := repository.SiblingScope(c)
			periods := tx.Contracts.Periods()
			if err := periods.CheckNoLaterConflict(ctx, scope, in.StartDate, c.ID); err != nil {
				return err
			}
			change, err := periods.ResolveInsert(ctx, scope, in.StartDate, c.ID, s.now())
			if err != nil {
				return err
			}
			if err := s.recordChange(ctx, tx, change, actor.Username); err != nil {
				return err
			}
		}

		if !in.ContractDate.IsZero() {
			c.ContractDate = dates.DateOnly(in.ContractDate)
		}
		c.StartDate = in.StartDate
		c.EndDate = in.EndDate
		c.IsAutoUpdate = in.IsAutoUpdate
		c.AutoUpdatePeriod = in.AutoUpdatePeriod
		c.Amount = in.Amount
		c.IsBlanketContract = in.IsBlanketContract
		c.IsFixedPay = in.IsFixedPay
		c.IsHourlyPay = in.IsHourlyPay
		c.HourlyPayAmount = in.HourlyPayAmount
		c.UpdatedBy = actor.Username
		if err := tx.Contracts.UpdateHeader(ctx, c); err != nil {
			return err
		}
		if in.Comments != nil || in.CalculateHours != nil || in.Allowances != nil {
			if err := tx.Contracts.ReplaceItems(ctx, c.ID, in.Comments, in.CalculateHours, in.Allowances, s.now()); err != nil {
				return err
			}
		}

		updated, err = tx.Contracts.Get(ctx, c.ID)
		return err
	})
	if err != nil {
		return nil, translate(err)
	}
	return updated, nil
}

// Delete removes a contract logically and gives the predecessor it had
// truncated its initial end date back.
func (s *ContractService) Delete(ctx context.Context, actor model.Principal, id uuid.UUID) error {
	if !actor.CanWrite() {
		return ErrPermissionDenied
	}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		c, err := tx.Contracts.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if c.IsDeleted {
			return repository.ErrNotFound
		}
		if c.IsDiscarded() {
			return fmt.Errorf("%w: contract %s is discarded", ErrImmutable, c.ContractNo)
		}

		now := s.now()
		if err := tx.Contracts.MarkDeleted(ctx, c.ID, now, actor.Username); err != nil {
			return err
		}
		c.MarkDeleted(now)
		if err := s.writeEvent(ctx, tx, c.ID, model.ContractEventDeleted, nil, nil, actor.Username); err != nil {
			return err
		}

		change, err := tx.Contracts.Periods().ResolveDeleteRestore(ctx, repository.SiblingScope(c), c)
		if err != nil {
			return err
		}
		return s.recordChange(ctx, tx, change, actor.Username)
	})
	if err != nil {
		return translate(err)
	}
	s.log.Info().Str("contract_id", id.String()).Str("actor", actor.Username).Msg("contract deleted")
	return nil
}

func (s *ContractService) AutoUpdate(ctx context.Context, actor model.Principal, today time.Time) (*AutoUpdateResult, error) {
	today = dates.DateOnly(today)
	nextMonth := dates.AddMonths(today, 1)
	result := &AutoUpdateResult{}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		candidates, err := tx.Contracts.ListAutoUpdateCandidates(ctx, s.cfg.AutoUpdateTypes, today, nextMonth)
		if err != nil {
			return err
		}
		for i := range candidates {
			parent := &candidates[i]
			if !s.cfg.ContinueOnError {
				renewed, err := s.renew(ctx, tx, parent, today, actor)
				if err != nil {
					return fmt.Errorf("renew contract %s: %w", parent.ContractNo, err)
				}
				result.Renewed = append(result.Renewed, *renewed)
				continue
			}

			var renewed *model.Contract
			err := tx.Transaction(ctx, func(sp *repository.Store) error {
				var err error
				renewed, err = s.renew(ctx, sp, parent, today, actor)
				return err
			})
			if err != nil {
				s.log.Error().Err(err).Str("contract_no", parent.ContractNo).Msg("contract auto-update failed")
				result.Failed = append(result.Failed, RenewalFailure{ContractID: parent.ID, ContractNo: parent.ContractNo, Err: err})
				continue
			}
			result.Renewed = append(result.Renewed, *renewed)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	s.log.Info().Int("count", len(result.Renewed)).Int("failed", len(result.Failed)).Msg("contracts auto-updated")
	return result, nil
}

func (s *ContractService) renew(ctx context.Context, tx *repository.Store, parent *model.Contract, today time.Time, actor model.Principal) (*model.Contract, error) {
	period := s.cfg.AutoUpdateDefaultPeriod
	if parent.AutoUpdatePeriod != nil && *parent.AutoUpdatePeriod > 0 {
		period = *parent.AutoUpdatePeriod
	}
	parentID := parent.ID

	next := *parent
	next.Base = model.Base{}
	next.SoftDelete = model.SoftDelete{}
	next.ContractDate = today
	next.StartDate = dates.AddDays(parent.EndDate, 1)
	next.EndDate = dates.AddMonths(parent.EndDate, period)
	next.InitialEndDate = next.EndDate
	next.ParentID = &parentID
	next.AutoUpdatePeriod = &period
	next.Status = model.ContractStatusAutoRenewed
	next.CreatedBy = actor.Username
	next.UpdatedBy = actor.Username
	next.Comments = cloneComments(parent.Comments)
	next.CalculateHours = cloneCalculateHours(parent.CalculateHours)
	next.Allowances = cloneAllowances(parent.Allowances)

	no, err := s.nextContractNo(ctx, tx, &next)
	if err != nil {
		return nil, err
	}
	next.ContractNo = no
	if err := tx.Contracts.Create(ctx, &next); err != nil {
		return nil, err
	}
	end := next.EndDate
	if err := s.writeEvent(ctx, tx, parent.ID, model.ContractEventAutoRenewed, &parent.EndDate, &end, actor.Username); err != nil {
		return nil, err
	}

	subject, err := tx.Parties.Subject(ctx, next.Subject())
	if err != nil {
		return nil, err
	}
	s.log.Info().
		Str("name", subject.Name).
		Str("contract_no", next.ContractNo).
		Str("start_date", dates.Format(next.StartDate)).
		Str("end_date", dates.Format(next.EndDate)).
		Msg("contract auto-updated")
	return &next, nil
}

func cloneComments(items []model.ContractComment) []model.ContractComment {
	out := make([]model.ContractComment, 0, len(items))
	for _, item := range items {
		item.Base = model.Base{}
		item.ContractID = uuid.Nil
		out = append(out, item)
	}
	return out
}

func cloneCalculateHours(items []model.ContractCalculateHours) []model.ContractCalculateHours {
	out := make([]model.ContractCalculateHours, 0, len(items))
	for _, item := range items {
		item.Base = model.Base{}
		item.ContractID = uuid.Nil
		out = append(out, item)
	}
	return out
}

func cloneAllowances(items []model.ContractAllowance) []model.ContractAllowance {
	out := make([]model.ContractAllowance, 0, len(items))
	for _, item := range items {
		item.Base = model.Base{}
		item.ContractID = uuid.Nil
		out = append(out, item)
	}
	return out
}

// Retire closes everything a subject holds at retiredDate. It refuses while
// a project assignment of the subject still runs past that date.
func (s *ContractService) Retire(ctx context.Context, actor model.Principal, subject model.Subject, retiredDate time.Time) (*RetireResult, error) {
	if !actor.CanWrite() {
		return nil, ErrPermissionDenied
	}
	if !subject.Kind.Valid() || subject.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: subject is required", ErrInvalidInput)
	}
	if retiredDate.IsZero() {
		return nil, fmt.Errorf("%w: retired_date is required", ErrInvalidInput)
	}
	retiredDate = dates.DateOnly(retiredDate)
	result := &RetireResult{}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		if subject.Kind != model.SubjectProjectMember {
			if err := s.checkAssignmentsClosed(ctx, tx, subject, retiredDate); err != nil {
				return err
			}
		}

		contracts, err := tx.Contracts.ListBySubject(ctx, subject)
		if err != nil {
			return err
		}
		now := s.now()
		for i := range contracts {
			c := &contracts[i]
			switch {
			case c.StartDate.After(retiredDate):
				if err := tx.Contracts.MarkDeleted(ctx, c.ID, now, actor.Username); err != nil {
					return err
				}
				if err := s.writeEvent(ctx, tx, c.ID, model.ContractEventDeleted, nil, nil, actor.Username); err != nil {
					return err
				}
				result.Deleted = append(result.Deleted, c.ID)
			case !c.IsDiscarded() && c.EndDate.After(retiredDate):
				oldEnd := c.EndDate
				if err := tx.Contracts.TruncateTo(ctx, c.ID, retiredDate, actor.Username); err != nil {
					return err
				}
				if err := s.writeEvent(ctx, tx, c.ID, model.ContractEventRetired, &oldEnd, &retiredDate, actor.Username); err != nil {
					return err
				}
				if err := tx.Contracts.CreateRetirement(ctx, &model.Retirement{
					SubjectKind: subject.Kind,
					SubjectID:   subject.ID,
					RetireDate:  retiredDate,
					ContractID:  c.ID,
					CreatedBy:   actor.Username,
				}); err != nil {
					return err
				}
				result.Truncated = append(result.Truncated, c.ID)
			}
		}

		assignments, err := tx.Assignments.ListBySubject(ctx, subject)
		if err != nil {
			return err
		}
		for _, a := range assignments {
			switch {
			case a.StartDate.After(retiredDate):
				if err := tx.Assignments.MarkDeleted(ctx, a.ID, now, actor.Username); err != nil {
					return err
				}
				result.AssignmentsDeleted++
			case a.EndDate.After(retiredDate):
				if err := tx.Assignments.TruncateTo(ctx, a.ID, retiredDate, actor.Username); err != nil {
					return err
				}
				result.AssignmentsClosed++
			}
		}

		return tx.Parties.SetOnSales(ctx, subject, false)
	})
	if err != nil {
		return nil, translate(err)
	}

	s.log.Info().
		Str("subject", subject.String()).
		Str("retired_date", dates.Format(retiredDate)).
		Int("truncated", len(result.Truncated)).
		Int("deleted", len(result.Deleted)).
		Msg("subject retired")
	return result, nil
}

func (s *ContractService) checkAssignmentsClosed(ctx context.Context, tx *repository.Store, subject model.Subject, retiredDate time.Time) error {
	contracts, err := tx.Contracts.ListAssignmentContracts(ctx, subject)
	if err != nil {
		return err
	}
	for _, c := range contracts {
		if !c.EndDate.After(retiredDate) {
			continue
		}
		projectName := ""
		if pm, err := tx.Parties.ProjectMember(ctx, c.SubjectID); err == nil && pm.Project != nil {
			projectName = pm.Project.Name
		}
		return newBusinessError(ErrCannotRetire, map[string]interface{}{
			"project":     projectName,
			"contract_no": c.ContractNo,
			"end_date":    dates.Format(c.EndDate),
		}, "cannot retire: assignment to project %q runs until %s", projectName, dates.Format(c.EndDate))
	}
	return nil
}

func (s *ContractService) AssignOrganization(ctx context.Context, actor model.Principal, subject model.Subject, name string, start, end time.Time) (*model.OrganizationAssignment, error) {
	if !actor.CanWrite() {
		return nil, ErrPermissionDenied
	}
	if !subject.Kind.Valid() || subject.ID == uuid.Nil {
		return nil, fmt.Errorf("%w: subject is required", ErrInvalidInput)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: organization_name is required", ErrInvalidInput)
	}
	start, end = dates.DateOnly(start), dates.DateOnly(end)
	if start.IsZero() || end.IsZero() || start.After(end) {
		return nil, fmt.Errorf("%w: start_date must be before or equal to end_date", ErrInvalidInput)
	}

	a := &model.OrganizationAssignment{
		SubjectKind:      subject.Kind,
		SubjectID:        subject.ID,
		OrganizationName: name,
		StartDate:        start,
		EndDate:          end,
		InitialEndDate:   end,
		CreatedBy:        actor.Username,
		UpdatedBy:        actor.Username,
	}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		change, err := tx.Assignments.Periods().ResolveInsert(ctx, repository.SubjectScope(subject), start, uuid.Nil, s.now())
		if err != nil {
			return err
		}
		if change.Changed() {
			s.log.Debug().
				Str("assignment_id", change.Record.ID.String()).
				Str("outcome", change.Outcome.String()).
				Msg("organization assignment adjusted")
		}
		return tx.Assignments.Create(ctx, a)
	})
	if err != nil {
		return nil, translate(err)
	}
	return a, nil
}

func (s *ContractService) DeleteOrganizationAssignment(ctx context.Context, actor model.Principal, id uuid.UUID) error {
	if !actor.CanWrite() {
		return ErrPermissionDenied
	}
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		a, err := tx.Assignments.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if a.IsDeleted {
			return repository.ErrNotFound
		}
		now := s.now()
		if err := tx.Assignments.MarkDeleted(ctx, a.ID, now, actor.Username); err != nil {
			return err
		}
		a.MarkDeleted(now)
		_, err = tx.Assignments.Periods().ResolveDeleteRestore(ctx, repository.SubjectScope(a.Subject()), a)
		return err
	})
	return translate(err)
}

func (s *ContractService) ListOrganizationAssignments(ctx context.Context, subject model.Subject) ([]model.OrganizationAssignment, error) {
	return s.store.Assignments.ListBySubject(ctx, subject)
}

func (s *ContractService) nextContractNo(ctx context.Context, tx *repository.Store, c *model.Contract) (string, error) {
	company, err := tx.Parties.Counterparty(ctx, c.Counterparty())
	if err != nil {
		return "", fmt.Errorf("counterparty %s: %w", c.CounterpartyID, err)
	}
	subject, err := tx.Parties.Subject(ctx, c.Subject())
	if err != nil {
		return "", fmt.Errorf("subject %s: %w", c.Subject(), err)
	}
	return tx.Contracts.NextContractNo(ctx, company.Code, subject.Code)
}

func (s *ContractService) recordChange(ctx context.Context, tx *repository.Store, change timeseries.Change[*model.Contract], actor string) error {
	var kind model.ContractEventKind
	switch change.Outcome {
	case timeseries.OutcomeTruncated:
		kind = model.ContractEventTruncated
	case timeseries.OutcomeSuperseded:
		kind = model.ContractEventSuperseded
	case timeseries.OutcomeRestored:
		kind = model.ContractEventRestored
	default:
		return nil
	}
	oldEnd, newEnd := change.OldEnd, change.NewEnd
	return s.writeEvent(ctx, tx, change.Record.ID, kind, &oldEnd, &newEnd, actor)
}

func (s *ContractService) writeEvent(ctx context.Context, tx *repository.Store, contractID uuid.UUID, kind model.ContractEventKind, oldEnd, newEnd *time.Time, actor string) error {
	return tx.Contracts.CreateEvent(ctx, &model.ContractEvent{
		ContractID: contractID,
		Kind:       kind,
		OldEndDate: oldEnd,
		NewEndDate: newEnd,
		Actor:      actor,
		OccurredAt: s.now(),
	})
}
