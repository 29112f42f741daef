package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/nurpe/sales-backoffice/internal/dates"
	"github.com/nurpe/sales-backoffice/internal/http/middleware"
	"github.com/nurpe/sales-backoffice/internal/model"
	"github.com/nurpe/sales-backoffice/internal/service"
)

const (
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	contentTypePDF  = "application/pdf"
)

type Handler struct {
	contracts *service.ContractService
	requests  *service.MonthlyRequestService
	vacations *service.PaidVacationService
	log       zerolog.Logger
}

func NewHandler(
	contracts *service.ContractService,
	requests *service.MonthlyRequestService,
	vacations *service.PaidVacationService,
	log zerolog.Logger,
) *Handler {
	return &Handler{contracts: contracts, requests: requests, vacations: vacations, log: log}
}

func (h *Handler) Register(router *gin.Engine, authMiddleware gin.HandlerFunc) {
	protected := router.Group("/")
	protected.Use(authMiddleware)

	protected.POST("/contracts", h.createContract)
	protected.GET("/contracts/:id", h.getContract)
	protected.PUT("/contracts/:id", h.updateContract)
	protected.DELETE("/contracts/:id", h.deleteContract)
	protected.GET("/contracts/:id/events", h.listContractEvents)

	protected.POST("/subjects/:kind/:id/retire", h.retire)
	protected.GET("/subjects/:kind/:id/organizations", h.listOrganizations)
	protected.POST("/subjects/:kind/:id/organizations", h.assignOrganization)
	protected.DELETE("/organization-assignments/:id", h.deleteOrganizationAssignment)

	protected.GET("/monthly-requests", h.listMonthlyRequests)
	protected.GET("/monthly-requests/export", h.exportMonthlyRequests)
	protected.POST("/monthly-requests/:id/submit", h.submitMonthlyRequest)

	protected.GET("/members/:id/paid-vacations", h.listPaidVacations)
}

type commentRequest struct {
	Code    string `json:"code" binding:"required"`
	Name    string `json:"name"`
	Content string `json:"content"`
}

type calculateHoursRequest struct {
	Code  string          `json:"code" binding:"required"`
	Name  string          `json:"name"`
	Hours decimal.Decimal `json:"hours"`
}

type allowanceRequest struct {
	Code    string          `json:"code" binding:"required"`
	Name    string          `json:"name"`
	Amount  decimal.Decimal `json:"amount"`
	Unit    string          `json:"unit" binding:"required"`
	Comment string          `json:"comment"`
}

type contractRequest struct {
	ContractDate      string                  `json:"contract_date"`
	ContractType      string                  `json:"contract_type"`
	SubjectKind       string                  `json:"subject_kind"`
	SubjectID         string                  `json:"subject_id"`
	CounterpartyKind  string                  `json:"counterparty_kind"`
	CounterpartyID    string                  `json:"counterparty_id"`
	StartDate         string                  `json:"start_date" binding:"required"`
	EndDate           string                  `json:"end_date" binding:"required"`
	IsAutoUpdate      bool                    `json:"is_auto_update"`
	AutoUpdatePeriod  *int                    `json:"auto_update_period"`
	Amount            decimal.Decimal         `json:"amount"`
	IsBlanketContract bool                    `json:"is_blanket_contract"`
	IsFixedPay        bool                    `json:"is_fixed_pay"`
	IsHourlyPay       bool                    `json:"is_hourly_pay"`
	HourlyPayAmount   decimal.Decimal         `json:"hourly_pay_amount"`
	Comments          []commentRequest        `json:"comments"`
	CalculateHours    []calculateHoursRequest `json:"calculate_hours"`
	Allowances        []allowanceRequest      `json:"allowances"`
}

func (r contractRequest) toInput() (service.ContractInput, error) {
	in := service.ContractInput{
		ContractType:      strings.TrimSpace(r.ContractType),
		Subject:           model.Subject{Kind: model.SubjectKind(r.SubjectKind)},
		Counterparty:      model.Counterparty{Kind: model.CounterpartyKind(r.CounterpartyKind)},
		IsAutoUpdate:      r.IsAutoUpdate,
		AutoUpdatePeriod:  r.AutoUpdatePeriod,
		Amount:            r.Amount,
		IsBlanketContract: r.IsBlanketContract,
		IsFixedPay:        r.IsFixedPay,
		IsHourlyPay:       r.IsHourlyPay,
		HourlyPayAmount:   r.HourlyPayAmount,
	}

	var err error
	if r.SubjectID != "" {
		if in.Subject.ID, err = uuid.Parse(r.SubjectID); err != nil {
			return in, invalid("subject_id")
		}
	}
	if r.CounterpartyID != "" {
		if in.Counterparty.ID, err = uuid.Parse(r.CounterpartyID); err != nil {
			return in, invalid("counterparty_id")
		}
	}
	if r.ContractDate != "" {
		if in.ContractDate, err = parseDate(r.ContractDate); err != nil {
			return in, invalid("contract_date")
		}
	}
	if in.StartDate, err = parseDate(r.StartDate); err != nil {
		return in, invalid("start_date")
	}
	if in.EndDate, err = parseDate(r.EndDate); err != nil {
		return in, invalid("end_date")
	}

	if r.Comments != nil {
		in.Comments = make([]model.ContractComment, 0, len(r.Comments))
		for _, item := range r.Comments {
			in.Comments = append(in.Comments, model.ContractComment{Code: item.Code, Name: item.Name, Content: item.Content})
		}
	}
	if r.CalculateHours != nil {
		in.CalculateHours = make([]model.ContractCalculateHours, 0, len(r.CalculateHours))
		for _, item := range r.CalculateHours {
			in.CalculateHours = append(in.CalculateHours, model.ContractCalculateHours{Code: item.Code, Name: item.Name, Hours: item.Hours})
		}
	}
	if r.Allowances != nil {
		in.Allowances = make([]model.ContractAllowance, 0, len(r.Allowances))
		for _, item := range r.Allowances {
			in.Allowances = append(in.Allowances, model.ContractAllowance{
				Code:    item.Code,
				Name:    item.Name,
				Amount:  item.Amount,
				Unit:    model.AllowanceUnit(item.Unit),
				Comment: item.Comment,
			})
		}
	}
	return in, nil
}

func (h *Handler) createContract(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	var req contractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.handleError(c, err)
		return
	}

	contract, err := h.contracts.Create(c.Request.Context(), principal, in)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, contract)
}

func (h *Handler) getContract(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	contract, err := h.contracts.Get(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) updateContract(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req contractRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	in, err := req.toInput()
	if err != nil {
		h.handleError(c, err)
		return
	}

	contract, err := h.contracts.Update(c.Request.Context(), principal, id, in)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, contract)
}

func (h *Handler) deleteContract(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.contracts.Delete(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listContractEvents(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	events, err := h.contracts.Events(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": events})
}

type retireRequest struct {
	RetiredDate string `json:"retired_date" binding:"required"`
}

func (h *Handler) retire(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	subject, ok := pathSubject(c)
	if !ok {
		return
	}
	var req retireRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	retired, err := parseDate(req.RetiredDate)
	if err != nil {
		h.handleError(c, invalid("retired_date"))
		return
	}

	result, err := h.contracts.Retire(c.Request.Context(), principal, subject, retired)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"truncated":           result.Truncated,
		"deleted":             result.Deleted,
		"assignments_closed":  result.AssignmentsClosed,
		"assignments_deleted": result.AssignmentsDeleted,
	})
}

type organizationRequest struct {
	OrganizationName string `json:"organization_name" binding:"required"`
	StartDate        string `json:"start_date" binding:"required"`
	EndDate          string `json:"end_date" binding:"required"`
}

func (h *Handler) assignOrganization(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	subject, ok := pathSubject(c)
	if !ok {
		return
	}
	var req organizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
		return
	}
	start, err := parseDate(req.StartDate)
	if err != nil {
		h.handleError(c, invalid("start_date"))
		return
	}
	end, err := parseDate(req.EndDate)
	if err != nil {
		h.handleError(c, invalid("end_date"))
		return
	}

	assignment, err := h.contracts.AssignOrganization(c.Request.Context(), principal, subject, strings.TrimSpace(req.OrganizationName), start, end)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, assignment)
}

func (h *Handler) listOrganizations(c *gin.Context) {
	subject, ok := pathSubject(c)
	if !ok {
		return
	}
	assignments, err := h.contracts.ListOrganizationAssignments(c.Request.Context(), subject)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": assignments})
}

func (h *Handler) deleteOrganizationAssignment(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.contracts.DeleteOrganizationAssignment(c.Request.Context(), principal, id); err != nil {
		h.handleError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) listMonthlyRequests(c *gin.Context) {
	kind, year, month, ok := requestQuery(c)
	if !ok {
		return
	}
	rows, err := h.requests.List(c.Request.Context(), kind, year, month)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": rows})
}

func (h *Handler) exportMonthlyRequests(c *gin.Context) {
	kind, year, month, ok := requestQuery(c)
	if !ok {
		return
	}
	result, err := h.requests.Export(c.Request.Context(), kind, year, month)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentTypeXLSX, result.Content)
}

func (h *Handler) submitMonthlyRequest(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	result, err := h.requests.Submit(c.Request.Context(), principal, id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.Header("Content-Disposition", "attachment; filename=\""+result.FileName+"\"")
	c.Data(http.StatusOK, contentTypePDF, result.Content)
}

func (h *Handler) listPaidVacations(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	grants, err := h.vacations.ListByMember(c.Request.Context(), id)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": grants})
}

func (h *Handler) handleError(c *gin.Context, err error) {
	var business *service.BusinessError
	switch {
	case errors.As(err, &business):
		body := gin.H{"detail": business.Message}
		if len(business.Data) > 0 {
			body["data"] = business.Data
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, gin.H{"detail": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"detail": "not found"})
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrImmutable),
		errors.Is(err, service.ErrDateConflict),
		errors.Is(err, service.ErrAmbiguousPeriod),
		errors.Is(err, service.ErrCannotRetire):
		c.JSON(http.StatusBadRequest, gin.H{"detail": err.Error()})
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"detail": "internal error"})
	}
}

func mustPrincipal(c *gin.Context) (model.Principal, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"detail": "missing principal"})
	}
	return principal, ok
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param(name)))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid " + name})
		return uuid.Nil, false
	}
	return id, true
}

func pathSubject(c *gin.Context) (model.Subject, bool) {
	kind := model.SubjectKind(strings.TrimSpace(c.Param("kind")))
	if !kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid subject kind"})
		return model.Subject{}, false
	}
	id, ok := pathID(c, "id")
	if !ok {
		return model.Subject{}, false
	}
	return model.Subject{Kind: kind, ID: id}, true
}

func requestQuery(c *gin.Context) (model.MonthlyRequestKind, int, int, bool) {
	kind := model.MonthlyRequestKind(strings.TrimSpace(c.Query("kind")))
	year, err := strconv.Atoi(c.Query("year"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid year"})
		return "", 0, 0, false
	}
	month, err := strconv.Atoi(c.Query("month"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"detail": "invalid month"})
		return "", 0, 0, false
	}
	return kind, year, month, true
}

func invalid(field string) error {
	return fmt.Errorf("%w: invalid %s", service.ErrInvalidInput, field)
}

func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, service.ErrInvalidInput
	}
	layouts := []string{
		dates.Layout,
		time.RFC3339,
		"2006-01-02T15:04:05",
	}
	for _, layout := range layouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return dates.DateOnly(parsed), nil
		}
	}
	return time.Time{}, service.ErrInvalidInput
}
