package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/nurpe/sales-backoffice/internal/config"
	"github.com/nurpe/sales-backoffice/internal/dates"
	"github.com/nurpe/sales-backoffice/internal/model"
	"github.com/nurpe/sales-backoffice/internal/repository"
)

type OrderGenerator interface {
	Generate(doc model.OrderDocument) ([]byte, error)
}

type ExcelGenerator interface {
	Generate(report model.RequestReport) ([]byte, error)
}

type MonthlyRequestService struct {
	store *repository.Store
	cfg   config.RequestConfig
	pdf   OrderGenerator
	excel ExcelGenerator
	log   zerolog.Logger
	now   func() time.Time
}

type RefreshResult struct {
	Kind    model.MonthlyRequestKind
	Year    int
	Month   int
	Deleted int64
	Created int
}

type DocumentResult struct {
	FileName string
	Content  []byte
}

func NewMonthlyRequestService(
	store *repository.Store,
	cfg config.RequestConfig,
	pdf OrderGenerator,
	excel ExcelGenerator,
	log zerolog.Logger,
) *MonthlyRequestService {
	return &MonthlyRequestService{
		store: store,
		cfg:   cfg,
		pdf:   pdf,
		excel: excel,
		log:   log,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

func (s *MonthlyRequestService) RefreshPartner(ctx context.Context, executeDate time.Time) (*RefreshResult, error) {
	return s.Refresh(ctx, model.MonthlyRequestPartner, executeDate, s.cfg.PartnerForwardMonths)
}

func (s *MonthlyRequestService) RefreshProject(ctx context.Context, executeDate time.Time) (*RefreshResult, error) {
	return s.Refresh(ctx, model.MonthlyRequestProject, executeDate, s.cfg.ProjectForwardMonths)
}

// Refresh rebuilds the unsubmitted requests of the month forwardMonths+1
// after executeDate. Submitted requests are never touched.
func (s *MonthlyRequestService) Refresh(ctx context.Context, kind model.MonthlyRequestKind, executeDate time.Time, forwardMonths int) (*RefreshResult, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown request kind %q", ErrInvalidInput, kind)
	}
	target := dates.AddMonths(executeDate, forwardMonths+1)
	year, month := target.Year(), int(target.Month())
	monthStart, monthEnd := dates.FirstDayOfMonth(target), dates.LastDayOfMonth(target)
	result := &RefreshResult{Kind: kind, Year: year, Month: month}

	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		deleted, err := tx.Requests.DeleteOpenCovering(ctx, kind, year, month)
		if err != nil {
			return err
		}
		result.Deleted = deleted

		covered, err := tx.Requests.CoveredContractIDs(ctx, kind, year, month)
		if err != nil {
			return err
		}
		contracts, err := tx.Contracts.ListActiveBetween(ctx, monthStart, monthEnd, requestScope(kind))
		if err != nil {
			return err
		}
		for i := range contracts {
			c := &contracts[i]
			if covered[c.ID] {
				continue
			}
			req := newMonthlyRequest(kind, c, year, month)
			if err := tx.Requests.Create(ctx, req); err != nil {
				return fmt.Errorf("create request for %s: %w", c.ContractNo, err)
			}
			covered[c.ID] = true
			result.Created++
			s.log.Debug().
				Str("contract_no", c.ContractNo).
				Int("year", year).
				Int("month", month).
				Msg("monthly request created")
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}

	s.log.Info().
		Str("kind", string(kind)).
		Int("year", year).
		Int("month", month).
		Int64("deleted", result.Deleted).
		Int("created", result.Created).
		Msg("monthly requests refreshed")
	return result, nil
}

func requestScope(kind model.MonthlyRequestKind) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if kind == model.MonthlyRequestPartner {
			return q.Where("counterparty_kind IN ?", []model.CounterpartyKind{
				model.CounterpartyPartnerCompany,
				model.CounterpartyPartnerMember,
			})
		}
		return q.Where("subject_kind = ?", model.SubjectProjectMember)
	}
}

// newMonthlyRequest derives a billing line from the contract terms. A blanket
// contract gets one row running to the contract's last month.
func newMonthlyRequest(kind model.MonthlyRequestKind, c *model.Contract, year, month int) *model.MonthlyRequest {
	lower, upper := c.CalculateHoursBounds()
	req := &model.MonthlyRequest{
		Kind:              kind,
		ContractID:        c.ID,
		SubjectKind:       c.SubjectKind,
		SubjectID:         c.SubjectID,
		Year:              year,
		Month:             month,
		Price:             c.Amount,
		MinHours:          lower,
		MaxHours:          upper,
		IsBlanketContract: c.IsBlanketContract,
		IsFixedPay:        c.IsFixedPay,
		IsHourlyPay:       c.IsHourlyPay,
		HourlyPayAmount:   c.HourlyPayAmount,
	}
	if !c.IsFixedPay && !c.IsHourlyPay {
		req.MinusPerHour = perHour(c.Amount, lower)
		req.PlusPerHour = perHour(c.Amount, upper)
	}
	if c.IsBlanketContract {
		endYear, endMonth := c.EndDate.Year(), int(c.EndDate.Month())
		req.EndYear = &endYear
		req.EndMonth = &endMonth
	}
	return req
}

func perHour(price, hours decimal.Decimal) decimal.Decimal {
	if !hours.IsPositive() {
		return decimal.Zero
	}
	return price.Div(hours).Round(0)
}

func (s *MonthlyRequestService) List(ctx context.Context, kind model.MonthlyRequestKind, year, month int) ([]model.MonthlyRequest, error) {
	if kind != "" && !kind.Valid() {
		return nil, fmt.Errorf("%w: unknown request kind %q", ErrInvalidInput, kind)
	}
	if month < 1 || month > 12 {
		return nil, fmt.Errorf("%w: month must be between 1 and 12", ErrInvalidInput)
	}
	return s.store.Requests.List(ctx, kind, year, month)
}

// Submit issues the order document. The first submission numbers the request
// and freezes it; later calls only render the document again.
func (s *MonthlyRequestService) Submit(ctx context.Context, actor model.Principal, id uuid.UUID) (*DocumentResult, error) {
	if !actor.CanWrite() {
		return nil, ErrPermissionDenied
	}

	var result *DocumentResult
	err := s.store.Transaction(ctx, func(tx *repository.Store) error {
		req, err := tx.Requests.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		now := s.now()
		if !req.IsSubmitted {
			orderNo, err := tx.Requests.NextOrderNo(ctx, req.Year, req.Month)
			if err != nil {
				return err
			}
			if err := tx.Requests.MarkSubmitted(ctx, req.ID, orderNo, now, actor.Username); err != nil {
				return err
			}
			req.IsSubmitted = true
			req.SubmittedAt = &now
			req.SubmittedBy = actor.Username
			req.OrderNo = &orderNo
		}

		doc, err := s.orderDocument(ctx, tx, req)
		if err != nil {
			return err
		}
		content, err := s.pdf.Generate(*doc)
		if err != nil {
			return fmt.Errorf("render order %s: %w", doc.OrderNo, err)
		}
		result = &DocumentResult{
			FileName: fmt.Sprintf("order-%s.pdf", doc.OrderNo),
			Content:  content,
		}
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return result, nil
}

func (s *MonthlyRequestService) orderDocument(ctx context.Context, tx *repository.Store, req *model.MonthlyRequest) (*model.OrderDocument, error) {
	c, err := tx.Contracts.Get(ctx, req.ContractID)
	if err != nil {
		return nil, fmt.Errorf("contract of request %s: %w", req.ID, err)
	}
	subject, err := tx.Parties.Subject(ctx, req.Subject())
	if err != nil {
		return nil, err
	}
	counterparty, err := tx.Parties.Counterparty(ctx, c.Counterparty())
	if err != nil {
		return nil, err
	}
	issuedAt := s.now()
	if req.SubmittedAt != nil {
		issuedAt = *req.SubmittedAt
	}
	orderNo := ""
	if req.OrderNo != nil {
		orderNo = *req.OrderNo
	}
	return &model.OrderDocument{
		OrderNo:      orderNo,
		IssuedAt:     issuedAt,
		Request:      *req,
		Contract:     *c,
		Subject:      subject,
		Counterparty: counterparty,
	}, nil
}

func (s *MonthlyRequestService) Export(ctx context.Context, kind model.MonthlyRequestKind, year, month int) (*DocumentResult, error) {
	requests, err := s.List(ctx, kind, year, month)
	if err != nil {
		return nil, err
	}

	report := model.RequestReport{Kind: kind, Year: year, Month: month}
	contractNos := make(map[uuid.UUID]string)
	for _, req := range requests {
		no, ok := contractNos[req.ContractID]
		if !ok {
			c, err := s.store.Contracts.Get(ctx, req.ContractID)
			if err != nil {
				return nil, translate(err)
			}
			no = c.ContractNo
			contractNos[req.ContractID] = no
		}
		subject, err := s.store.Parties.Subject(ctx, req.Subject())
		if err != nil {
			s.log.Warn().Err(err).Str("request_id", req.ID.String()).Msg("request subject not resolved")
		}
		report.Rows = append(report.Rows, model.RequestReportRow{Request: req, ContractNo: no, Subject: subject})
	}

	content, err := s.excel.Generate(report)
	if err != nil {
		return nil, err
	}
	name := "all"
	if kind != "" {
		name = string(kind)
	}
	return &DocumentResult{
		FileName: fmt.Sprintf("monthly-requests-%s-%04d%02d.xlsx", name, year, month),
		Content:  content,
	}, nil
}
