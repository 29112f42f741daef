package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/sales-backoffice/internal/dates"
	"github.com/nurpe/sales-backoffice/internal/model"
	"github.com/nurpe/sales-backoffice/internal/repository"
)

type CostService struct {
	store *repository.Store
	log   zerolog.Logger
}

type CostResult struct {
	Year    int
	Month   int
	Deleted int64
	Created int
	Skipped int
}

func NewCostService(store *repository.Store, log zerolog.Logger) *CostService {
	return &CostService{store: store, log: log}
}

type attendance struct {
	hours    decimal.Decimal
	days     int
	found    bool
	projects []uuid.UUID
}

func (s *CostService) attendance(ctx context.Context, tx *repository.Store, subject model.Subject, year, month int) (attendance, error) {
	rows, err := tx.Parties.ListAttendances(ctx, subject, year, month)
	if err != nil {
		return attendance{}, err
	}
	a := attendance{hours: decimal.Zero, found: len(rows) > 0}
	seen := make(map[uuid.UUID]bool)
	for _, row := range rows {
		a.hours = a.hours.Add(row.TotalHours)
		a.days += row.WorkingDays
		if row.ProjectID != nil && !seen[*row.ProjectID] {
			seen[*row.ProjectID] = true
			a.projects = append(a.projects, *row.ProjectID)
		}
	}
	return a, nil
}

func PartnerPayable(req *model.MonthlyRequest, hours decimal.Decimal) decimal.Decimal {
	switch {
	case req.IsFixedPay:
		return req.Price
	case req.IsHourlyPay:
		return hours.Mul(req.HourlyPayAmount).Round(0)
	}
	amount := req.Price
	if req.MinHours.IsPositive() && hours.LessThan(req.MinHours) {
		amount = amount.Sub(req.MinHours.Sub(hours).Mul(req.MinusPerHour))
	}
	if req.MaxHours.IsPositive() && hours.GreaterThan(req.MaxHours) {
		amount = amount.Add(hours.Sub(req.MaxHours).Mul(req.PlusPerHour))
	}
	return amount.Round(0)
}

// PartnerCost rebuilds the partner cost rows of the month of date from the
// submitted partner requests billing it. A blanket request is costed once,
// in its first month.
func (s *CostService) PartnerCost(ctx context.Context, date time.Time) (*CostResult, error) {
	year, month := date.Year(), int(date.Month())
	result := &CostResult{Year: year, Month: month}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		deleted, err := tx.Costs.DeleteMonth(ctx, model.CostSourcePartner, year, month)
		if err != nil {
			return err
		}
		result.Deleted = deleted

		requests, err := tx.Requests.ListSubmitted(ctx, model.MonthlyRequestPartner, year, month)
		if err != nil {
			return err
		}
		for i := range requests {
			req := &requests[i]
			if req.EndYear != nil && (req.Year != year || req.Month != month) {
				result.Skipped++
				continue
			}
			cost, err := s.partnerCost(ctx, tx, req, year, month)
			if err != nil {
				return fmt.Errorf("partner cost of request %s: %w", req.ID, err)
			}
			if err := tx.Costs.Create(ctx, cost); err != nil {
				return err
			}
			result.Created++
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	s.log.Info().
		Int("year", year).
		Int("month", month).
		Int64("deleted", result.Deleted).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Msg("partner costs calculated")
	return result, nil
}

func (s *CostService) partnerCost(ctx context.Context, tx *repository.Store, req *model.MonthlyRequest, year, month int) (*model.MonthlyCost, error) {
	contract, err := tx.Contracts.Get(ctx, req.ContractID)
	if err != nil {
		return nil, err
	}
	companyID, err := s.partnerCompanyOf(ctx, tx, contract)
	if err != nil {
		return nil, err
	}
	a, err := s.attendance(ctx, tx, req.Subject(), year, month)
	if err != nil {
		return nil, err
	}

	requestID := req.ID
	cost := &model.MonthlyCost{
		Source:           model.CostSourcePartner,
		SubjectKind:      req.SubjectKind,
		SubjectID:        req.SubjectID,
		PartnerCompanyID: companyID,
		MonthlyRequestID: &requestID,
		Year:             year,
		Month:            month,
		Hours:            a.hours,
		Amount:           PartnerPayable(req, a.hours),
	}
	if len(a.projects) > 0 {
		projectID := a.projects[0]
		cost.ProjectID = &projectID
	}
	return cost, nil
}

func (s *CostService) partnerCompanyOf(ctx context.Context, tx *repository.Store, c *model.Contract) (*uuid.UUID, error) {
	if c.CounterpartyKind == model.CounterpartyPartnerCompany {
		id := c.CounterpartyID
		return &id, nil
	}
	memberID := c.SubjectID
	switch {
	case c.CounterpartyKind == model.CounterpartyPartnerMember:
		memberID = c.CounterpartyID
	case c.SubjectKind != model.SubjectPartnerMember:
		return nil, nil
	}
	pm, err := tx.Parties.GetPartnerMember(ctx, memberID)
	if err != nil {
		return nil, err
	}
	id := pm.PartnerCompanyID
	return &id, nil
}

func AllowanceCost(allowances []model.ContractAllowance, hours decimal.Decimal, workingDays int) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allowances {
		if a.Deleted() {
			continue
		}
		switch a.Unit {
		case model.AllowanceMonthly:
			total = total.Add(a.Amount)
		case model.AllowanceDaily:
			total = total.Add(a.Amount.Mul(decimal.NewFromInt(int64(workingDays))))
		case model.AllowanceHourly:
			total = total.Add(a.Amount.Mul(hours))
		}
	}
	return total.Round(0)
}

func (s *CostService) EmployeeCost(ctx context.Context, date time.Time) (*CostResult, error) {
	year, month := date.Year(), int(date.Month())
	monthStart, monthEnd := dates.FirstDayOfMonth(date), dates.LastDayOfMonth(date)
	result := &CostResult{Year: year, Month: month}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		members, err := tx.Parties.ListEmployedMembers(ctx, monthStart, monthEnd)
		if err != nil {
			return err
		}
		for i := range members {
			member := &members[i]
			costs, err := s.employeeCost(ctx, tx, member, monthStart, monthEnd)
			if err != nil {
				return fmt.Errorf("employee cost of %s: %w", member.Code, err)
			}
			if costs == nil {
				result.Skipped++
				continue
			}
			subject := model.Subject{Kind: model.SubjectEmployee, ID: member.ID}
			if err := tx.Costs.DeleteForSubject(ctx, model.CostSourceEmployee, subject, year, month); err != nil {
				return err
			}
			if err := tx.Costs.Create(ctx, costs...); err != nil {
				return err
			}
			result.Created += len(costs)
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	s.log.Info().
		Int("year", year).
		Int("month", month).
		Int("created", result.Created).
		Int("skipped", result.Skipped).
		Msg("employee costs calculated")
	return result, nil
}

func (s *CostService) employeeCost(ctx context.Context, tx *repository.Store, member *model.Member, monthStart, monthEnd time.Time) ([]*model.MonthlyCost, error) {
	year, month := monthStart.Year(), int(monthStart.Month())
	subject := model.Subject{Kind: model.SubjectEmployee, ID: member.ID}

	contracts, err := tx.Contracts.ListActiveBetween(ctx, monthStart, monthEnd, employmentScope(member.ID))
	if err != nil {
		return nil, err
	}
	if len(contracts) == 0 {
		return nil, nil
	}
	contract := &contracts[len(contracts)-1]

	projects, err := s.projectsInMonth(ctx, tx, subject, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}
	a, err := s.attendance(ctx, tx, subject, year, month)
	if err != nil {
		return nil, err
	}
	if len(projects) > 0 && !a.found {
		s.log.Warn().
			Str("member", member.Code).
			Int("year", year).
			Int("month", month).
			Msg("member works on projects but has no attendance")
		return nil, nil
	}

	total := AllowanceCost(contract.Allowances, a.hours, a.days)
	if len(projects) == 0 {
		return []*model.MonthlyCost{{
			Source:      model.CostSourceEmployee,
			SubjectKind: subject.Kind,
			SubjectID:   subject.ID,
			Year:        year,
			Month:       month,
			Hours:       a.hours,
			Amount:      total,
		}}, nil
	}

	n := decimal.NewFromInt(int64(len(projects)))
	costs := make([]*model.MonthlyCost, 0, len(projects))
	for i := range projects {
		projectID := projects[i]
		costs = append(costs, &model.MonthlyCost{
			Source:      model.CostSourceEmployee,
			SubjectKind: subject.Kind,
			SubjectID:   subject.ID,
			ProjectID:   &projectID,
			Year:        year,
			Month:       month,
			Hours:       a.hours.Div(n).Round(2),
			Amount:      total.Div(n).Round(0),
		})
	}
	return costs, nil
}

func employmentScope(memberID uuid.UUID) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		return q.Where("subject_kind = ? AND subject_id = ? AND counterparty_kind = ? AND status < ?",
			model.SubjectEmployee, memberID, model.CounterpartyCompany, model.ContractStatusDiscarded)
	}
}

func (s *CostService) projectsInMonth(ctx context.Context, tx *repository.Store, member model.Subject, monthStart, monthEnd time.Time) ([]uuid.UUID, error) {
	contracts, err := tx.Contracts.ListAssignmentContracts(ctx, member)
	if err != nil {
		return nil, err
	}
	memberships, err := tx.Parties.ListProjectMemberships(ctx, member)
	if err != nil {
		return nil, err
	}
	projectOf := make(map[uuid.UUID]uuid.UUID, len(memberships))
	for _, pm := range memberships {
		projectOf[pm.ID] = pm.ProjectID
	}

	seen := make(map[uuid.UUID]bool)
	var projects []uuid.UUID
	for i := range contracts {
		c := &contracts[i]
		if !c.ActiveIn(monthStart, monthEnd) {
			continue
		}
		projectID, ok := projectOf[c.SubjectID]
		if !ok || seen[projectID] {
			continue
		}
		seen[projectID] = true
		projects = append(projects, projectID)
	}
	return projects, nil
}
