package server

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	authdomain "github.com/saldoapp/saldo/internal/auth/domain"
	"github.com/saldoapp/saldo/internal/auth/session"
	"github.com/saldoapp/saldo/internal/config"
	ledgerdomain "github.com/saldoapp/saldo/internal/ledger/domain"
	yeardomain "github.com/saldoapp/saldo/internal/year/domain"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const testToken = "session-token"

var testUserID = snowflake.ID(42)

type fakeAuthService struct {
	authErr error
}

func (f *fakeAuthService) Register(ctx context.Context, req authdomain.RegisterRequest) (*authdomain.User, error) {
	_ = ctx
	return &authdomain.User{ID: testUserID, UserName: req.UserName, Email: req.Email}, nil
}

func (f *fakeAuthService) Login(ctx context.Context, req authdomain.LoginRequest) (*authdomain.LoginResult, error) {
	_ = ctx
	return &authdomain.LoginResult{
		User:      &authdomain.User{ID: testUserID, Email: req.Email},
		RawToken:  testToken,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (f *fakeAuthService) Logout(ctx context.Context, rawToken string) error {
	_ = ctx
	_ = rawToken
	return nil
}

func (f *fakeAuthService) Authenticate(ctx context.Context, rawToken string) (*authdomain.Session, error) {
	_ = ctx
	if f.authErr != nil {
		return nil, f.authErr
	}
	if rawToken != testToken {
		return nil, authdomain.ErrInvalidSession
	}
	return &authdomain.Session{ID: snowflake.ID(1), UserID: testUserID}, nil
}

func (f *fakeAuthService) GetUser(ctx context.Context, id snowflake.ID) (*authdomain.User, error) {
	_ = ctx
	return &authdomain.User{ID: id, UserName: "ana", Email: "ana@example.com"}, nil
}

func (f *fakeAuthService) ResolveDisplayNames(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]string, error) {
	_ = ctx
	_ = ids
	return nil, nil
}

type fakeLedgerService struct {
	lastOpen     ledgerdomain.OpenOrReviseRequest
	lastAdjust   ledgerdomain.AdjustRequest
	lastRecord   ledgerdomain.RecordTransactionRequest
	openErr      error
	recordErr    error
	reconcileErr error
}

func (f *fakeLedgerService) period() *ledgerdomain.BalancePeriod {
	return &ledgerdomain.BalancePeriod{
		ID:             snowflake.ID(7),
		UserID:         testUserID,
		Year:           2026,
		Month:          1,
		OpeningBalance: decimal.RequireFromString("1000"),
		CurrentBalance: decimal.RequireFromString("850"),
	}
}

func (f *fakeLedgerService) OpenOrRevise(ctx context.Context, req ledgerdomain.OpenOrReviseRequest) (*ledgerdomain.BalancePeriod, error) {
	_ = ctx
	f.lastOpen = req
	if f.openErr != nil {
		return nil, f.openErr
	}
	return f.period(), nil
}

func (f *fakeLedgerService) ApplyAdjustment(ctx context.Context, req ledgerdomain.AdjustRequest) (*ledgerdomain.BalancePeriod, error) {
	_ = ctx
	f.lastAdjust = req
	return f.period(), nil
}

func (f *fakeLedgerService) RecordTransaction(ctx context.Context, req ledgerdomain.RecordTransactionRequest) (*ledgerdomain.BalancePeriod, *ledgerdomain.TransactionEntry, error) {
	_ = ctx
	f.lastRecord = req
	if f.recordErr != nil {
		return nil, nil, f.recordErr
	}
	return f.period(), &ledgerdomain.TransactionEntry{
		ID:        snowflake.ID(8),
		BalanceID: snowflake.ID(7),
		Kind:      req.Kind,
		Amount:    req.Amount,
		Source:    ledgerdomain.SourceManual,
		UserID:    req.ActorID,
	}, nil
}

func (f *fakeLedgerService) ListPeriods(ctx context.Context, year int) ([]ledgerdomain.PeriodView, error) {
	_ = ctx
	_ = year
	return []ledgerdomain.PeriodView{{BalancePeriod: *f.period(), CreatedBy: "ana"}}, nil
}

func (f *fakeLedgerService) ListEntries(ctx context.Context, periodID snowflake.ID, limit int) ([]*ledgerdomain.TransactionEntry, error) {
	_ = ctx
	_ = periodID
	_ = limit
	return nil, nil
}

func (f *fakeLedgerService) ListEntriesByActor(ctx context.Context, actorID snowflake.ID, limit int) ([]*ledgerdomain.TransactionEntry, error) {
	_ = ctx
	_ = actorID
	_ = limit
	return nil, nil
}

func (f *fakeLedgerService) Reconcile(ctx context.Context, periodID snowflake.ID) (*ledgerdomain.BalancePeriod, error) {
	_ = ctx
	_ = periodID
	if f.reconcileErr != nil {
		return nil, f.reconcileErr
	}
	return f.period(), nil
}

type fakeYearService struct {
	lastCreate yeardomain.CreateRequest
}

func (f *fakeYearService) Create(ctx context.Context, req yeardomain.CreateRequest) (*yeardomain.Year, error) {
	_ = ctx
	f.lastCreate = req
	encoded, _ := yeardomain.EncodeMonths([]int{1, 2, 3})
	return &yeardomain.Year{ID: snowflake.ID(9), Year: req.Year, MonthsEnabled: encoded}, nil
}

func (f *fakeYearService) List(ctx context.Context) ([]yeardomain.YearView, error) {
	_ = ctx
	return nil, nil
}

func (f *fakeYearService) IsPeriodEnabled(ctx context.Context, year, month int) (bool, error) {
	_ = ctx
	_ = year
	_ = month
	return true, nil
}

func newTestServer(ledgerSvc ledgerdomain.Service, yearSvc yeardomain.Service, authSvc authdomain.Service) (*Server, *gin.Engine) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.Use(ErrorHandlingMiddleware())

	srv := &Server{
		engine:    router,
		cfg:       config.Config{},
		log:       zap.NewNop(),
		authsvc:   authSvc,
		sessions:  session.NewManager(config.Config{}),
		yearSvc:   yearSvc,
		ledgerSvc: ledgerSvc,
	}
	srv.RegisterAuthRoutes()
	srv.RegisterAPIRoutes()
	return srv, router
}

func doJSON(router *gin.Engine, method, path, body string, authed bool) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	if authed {
		req.AddCookie(&http.Cookie{Name: session.DefaultCookieName, Value: testToken})
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)
	return resp
}

func TestUpsertBalanceHandler(t *testing.T) {
	ledgerSvc := &fakeLedgerService{}
	_, router := newTestServer(ledgerSvc, &fakeYearService{}, &fakeAuthService{})

	resp := doJSON(router, http.MethodPost, "/balances", `{"year":2026,"month":1,"openingBalance":1000}`, true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	if ledgerSvc.lastOpen.Year != 2026 || ledgerSvc.lastOpen.Month != 1 {
		t.Fatalf("unexpected request: %+v", ledgerSvc.lastOpen)
	}
	if !ledgerSvc.lastOpen.Opening.Equal(decimal.RequireFromString("1000")) {
		t.Fatalf("expected opening 1000, got %s", ledgerSvc.lastOpen.Opening)
	}
	if ledgerSvc.lastOpen.ActorID != testUserID {
		t.Fatalf("expected actor %d, got %d", testUserID, ledgerSvc.lastOpen.ActorID)
	}

	var out struct {
		Balance struct {
			ID             string          `json:"id"`
			CurrentBalance decimal.Decimal `json:"currentBalance"`
		} `json:"balance"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Balance.ID != snowflake.ID(7).String() {
		t.Fatalf("unexpected balance id %q", out.Balance.ID)
	}
	if !out.Balance.CurrentBalance.Equal(decimal.RequireFromString("850")) {
		t.Fatalf("unexpected current balance %s", out.Balance.CurrentBalance)
	}
}

func TestUpsertBalanceRequiresFields(t *testing.T) {
	ledgerSvc := &fakeLedgerService{}
	_, router := newTestServer(ledgerSvc, &fakeYearService{}, &fakeAuthService{})

	resp := doJSON(router, http.MethodPost, "/balances", `{"year":2026,"month":1}`, true)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
	if ledgerSvc.lastOpen.Year != 0 {
		t.Fatal("expected ledger service not to be called")
	}
}

func TestBalancesRequireSession(t *testing.T) {
	_, router := newTestServer(&fakeLedgerService{}, &fakeYearService{}, &fakeAuthService{})

	resp := doJSON(router, http.MethodGet, "/balances?year=2026", "", false)
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", resp.Code)
	}
}

func TestAdjustBalanceHandler(t *testing.T) {
	ledgerSvc := &fakeLedgerService{}
	_, router := newTestServer(ledgerSvc, &fakeYearService{}, &fakeAuthService{})

	periodID := snowflake.ID(7)
	resp := doJSON(router, http.MethodPatch, "/balances/"+periodID.String()+"/adjust", `{"delta":-150,"description":"Rent"}`, true)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}
	if ledgerSvc.lastAdjust.PeriodID != periodID {
		t.Fatalf("expected period %d, got %d", periodID, ledgerSvc.lastAdjust.PeriodID)
	}
	if !ledgerSvc.lastAdjust.Delta.Equal(decimal.RequireFromString("-150")) {
		t.Fatalf("expected delta -150, got %s", ledgerSvc.lastAdjust.Delta)
	}
	if ledgerSvc.lastAdjust.Description != "Rent" {
		t.Fatalf("unexpected description %q", ledgerSvc.lastAdjust.Description)
	}
}

func TestAdjustBalanceRejectsBadID(t *testing.T) {
	_, router := newTestServer(&fakeLedgerService{}, &fakeYearService{}, &fakeAuthService{})

	resp := doJSON(router, http.MethodPatch, "/balances/not-a-number/adjust", `{"delta":1,"description":"x"}`, true)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}
}

func TestRecordTransactionHandler(t *testing.T) {
	ledgerSvc := &fakeLedgerService{}
	_, router := newTestServer(ledgerSvc, &fakeYearService{}, &fakeAuthService{})

	resp := doJSON(router, http.MethodPost, "/balances/transaction", `{"year":2026,"month":2,"type":"DEBIT","amount":120,"description":"Groceries"}`, true)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if ledgerSvc.lastRecord.Kind != ledgerdomain.KindDebit {
		t.Fatalf("unexpected kind %q", ledgerSvc.lastRecord.Kind)
	}
	if !ledgerSvc.lastRecord.Amount.Equal(decimal.RequireFromString("120")) {
		t.Fatalf("unexpected amount %s", ledgerSvc.lastRecord.Amount)
	}
}

func TestRecordTransactionDisabledPeriodMapsTo400(t *testing.T) {
	ledgerSvc := &fakeLedgerService{recordErr: ledgerdomain.ErrPeriodDisabled}
	_, router := newTestServer(ledgerSvc, &fakeYearService{}, &fakeAuthService{})

	resp := doJSON(router, http.MethodPost, "/balances/transaction", `{"year":2026,"month":2,"type":"CREDIT","amount":10,"description":"x"}`, true)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", resp.Code)
	}

	var out struct {
		Error struct {
			Type   string `json:"type"`
			Errors []struct {
				Code string `json:"code"`
			} `json:"errors"`
		} `json:"error"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Error.Type != "validation_error" {
		t.Fatalf("unexpected error type %q", out.Error.Type)
	}
	if len(out.Error.Errors) != 1 || out.Error.Errors[0].Code != "period_disabled" {
		t.Fatalf("unexpected errors: %+v", out.Error.Errors)
	}
}

func TestUpsertBalanceConflictMapsTo409(t *testing.T) {
	ledgerSvc := &fakeLedgerService{openErr: ledgerdomain.ErrPeriodExists}
	_, router := newTestServer(ledgerSvc, &fakeYearService{}, &fakeAuthService{})

	resp := doJSON(router, http.MethodPost, "/balances", `{"year":2026,"month":1,"openingBalance":1}`, true)
	if resp.Code != http.StatusConflict {
		t.Fatalf("expected status 409, got %d", resp.Code)
	}
}

func TestLoginSetsSessionCookie(t *testing.T) {
	_, router := newTestServer(&fakeLedgerService{}, &fakeYearService{}, &fakeAuthService{})

	resp := doJSON(router, http.MethodPost, "/auth/login", `{"email":"ana@example.com","password":"longenough"}`, false)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", resp.Code, resp.Body.String())
	}

	var found bool
	for _, cookie := range resp.Result().Cookies() {
		if cookie.Name == session.DefaultCookieName && cookie.Value == testToken {
			found = true
		}
	}
	if !found {
		t.Fatal("expected session cookie to be set")
	}
}

func TestCreateYearHandler(t *testing.T) {
	yearSvc := &fakeYearService{}
	_, router := newTestServer(&fakeLedgerService{}, yearSvc, &fakeAuthService{})

	resp := doJSON(router, http.MethodPost, "/years", `{"year":2026,"months":[1,2,3]}`, true)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if yearSvc.lastCreate.Year != 2026 || yearSvc.lastCreate.AllMonths {
		t.Fatalf("unexpected request: %+v", yearSvc.lastCreate)
	}

	resp = doJSON(router, http.MethodPost, "/years", `{"year":2027,"months":"all"}`, true)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", resp.Code, resp.Body.String())
	}
	if !yearSvc.lastCreate.AllMonths {
		t.Fatalf("expected all months: %+v", yearSvc.lastCreate)
	}
}
