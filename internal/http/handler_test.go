package http

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/nurpe/sales-backoffice/internal/auth"
	"github.com/nurpe/sales-backoffice/internal/config"
	"github.com/nurpe/sales-backoffice/internal/db/dbtest"
	"github.com/nurpe/sales-backoffice/internal/excel"
	"github.com/nurpe/sales-backoffice/internal/http/middleware"
	"github.com/nurpe/sales-backoffice/internal/model"
	"github.com/nurpe/sales-backoffice/internal/pdf"
	"github.com/nurpe/sales-backoffice/internal/repository"
	"github.com/nurpe/sales-backoffice/internal/service"
	"github.com/nurpe/sales-backoffice/internal/vacation"
)

type testServer struct {
	t       *testing.T
	db      *gorm.DB
	router  *gin.Engine
	parser  *auth.Parser
	company *model.Company
	member  *model.Member
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	database := dbtest.Open(t)
	store := repository.NewStore(database)
	schedule, err := vacation.ParseSchedule("6:18:10")
	require.NoError(t, err)

	contracts := service.NewContractService(store, config.ContractConfig{
		AutoUpdateTypes:         []string{"0010"},
		AutoUpdateDefaultPeriod: 12,
	}, zerolog.Nop())
	requests := service.NewMonthlyRequestService(store, config.RequestConfig{PartnerForwardMonths: 6, ProjectForwardMonths: 6},
		pdf.NewGenerator(), excel.NewGenerator(), zerolog.Nop())
	vacations := service.NewPaidVacationService(store, config.PaidVacationConfig{Schedule: schedule, ForwardMonths: 1}, zerolog.Nop())

	parser := auth.NewParser("test-secret")
	handler := NewHandler(contracts, requests, vacations, zerolog.Nop())
	router := NewRouter(handler, middleware.Auth(parser), "test", []string{"*"})

	s := &testServer{t: t, db: database, router: router, parser: parser}
	s.company = &model.Company{Code: "C01", Name: "Own Company"}
	require.NoError(t, database.Create(s.company).Error)
	s.member = &model.Member{Code: "M001", Name: "Sato", IsOnSales: true}
	require.NoError(t, database.Create(s.member).Error)
	return s
}

func (s *testServer) token(role model.UserRole) string {
	s.t.Helper()
	token, err := s.parser.Issue(model.Principal{UserID: uuid.New(), Username: string(role), Role: role}, time.Hour)
	require.NoError(s.t, err)
	return token
}

func (s *testServer) do(method, path, token string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(s.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) contractBody(start, end string) map[string]interface{} {
	return map[string]interface{}{
		"contract_type":     "0010",
		"subject_kind":      "employee",
		"subject_id":        s.member.ID.String(),
		"counterparty_kind": "company",
		"counterparty_id":   s.company.ID.String(),
		"start_date":        start,
		"end_date":          end,
		"amount":            "250000",
		"comments":          []map[string]string{{"code": "0001", "name": "Place", "content": "Head office"}},
	}
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/contracts/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = s.do(http.MethodGet, "/contracts/"+uuid.NewString(), "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestContractLifecycle(t *testing.T) {
	s := newTestServer(t)
	staff := s.token(model.UserRoleStaff)

	rec := s.do(http.MethodPost, "/contracts", staff, s.contractBody("2020-01-01", "2020-12-31"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	first := decode(t, rec)
	assert.Equal(t, "C01-M001-001", first["contract_no"])
	firstID := first["id"].(string)

	rec = s.do(http.MethodPost, "/contracts", staff, s.contractBody("2020-07-01", "2021-06-30"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	secondID := decode(t, rec)["id"].(string)

	rec = s.do(http.MethodGet, "/contracts/"+firstID, staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(decode(t, rec)["end_date"].(string), "2020-06-30"))

	rec = s.do(http.MethodPost, "/contracts", staff, s.contractBody("2020-03-01", "2020-05-31"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.NotEmpty(t, body["detail"])
	assert.NotNil(t, body["data"])

	rec = s.do(http.MethodDelete, "/contracts/"+secondID, staff, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = s.do(http.MethodGet, "/contracts/"+firstID, staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.HasPrefix(decode(t, rec)["end_date"].(string), "2020-12-31"))

	rec = s.do(http.MethodGet, "/contracts/"+secondID, staff, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/contracts/"+firstID+"/events", staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"], 2)
}

func TestContractWriteNeedsStaff(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodPost, "/contracts", s.token(model.UserRoleMember), s.contractBody("2020-01-01", "2020-12-31"))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestContractValidation(t *testing.T) {
	s := newTestServer(t)
	staff := s.token(model.UserRoleStaff)

	body := s.contractBody("2020-01-01", "2020-12-31")
	delete(body, "start_date")
	rec := s.do(http.MethodPost, "/contracts", staff, body)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/contracts", staff, s.contractBody("2020-13-01", "2020-12-31"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/contracts/not-a-uuid", staff, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRetireAndOrganizations(t *testing.T) {
	s := newTestServer(t)
	admin := s.token(model.UserRoleAdmin)
	subjectPath := "/subjects/employee/" + s.member.ID.String()

	rec := s.do(http.MethodPost, "/contracts", admin, s.contractBody("2020-01-01", "2020-12-31"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, subjectPath+"/organizations", admin, map[string]string{
		"organization_name": "Sales 1", "start_date": "2020-01-01", "end_date": "9999-12-31",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPost, subjectPath+"/retire", admin, map[string]string{"retired_date": "2020-09-30"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.EqualValues(t, 1, decode(t, rec)["assignments_closed"])

	rec = s.do(http.MethodGet, subjectPath+"/organizations", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rows := decode(t, rec)["data"].([]interface{})
	require.Len(t, rows, 1)
	assert.True(t, strings.HasPrefix(rows[0].(map[string]interface{})["end_date"].(string), "2020-09-30"))

	rec = s.do(http.MethodPost, "/subjects/robot/"+s.member.ID.String()+"/retire", admin, map[string]string{"retired_date": "2020-09-30"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMonthlyRequestEndpoints(t *testing.T) {
	s := newTestServer(t)
	staff := s.token(model.UserRoleStaff)

	rec := s.do(http.MethodGet, "/monthly-requests?kind=partner&year=2020&month=8", staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/monthly-requests?kind=partner&year=2020&month=13", staff, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/monthly-requests?year=x&month=8", staff, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodGet, "/monthly-requests/export?kind=partner&year=2020&month=8", staff, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "monthly-requests-partner-202008.xlsx")

	rec = s.do(http.MethodPost, "/monthly-requests/"+uuid.NewString()+"/submit", staff, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPaidVacationsOfUnknownMember(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(http.MethodGet, "/members/"+uuid.NewString()+"/paid-vacations", s.token(model.UserRoleMember), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodGet, "/members/"+s.member.ID.String()+"/paid-vacations", s.token(model.UserRoleMember), nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}
