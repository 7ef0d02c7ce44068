package in

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"

	"github.com/fnyamweya/caricash-nova-sub001/internal/domain/posting"
	"github.com/fnyamweya/caricash-nova-sub001/internal/services/command"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mhttp"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mlog"
	"github.com/fnyamweya/caricash-nova-sub001/pkg/mmodel"
)

type routeFixedClock struct{ t time.Time }

func (c routeFixedClock) Now() time.Time { return c.t }

type routeAccountRepo struct{ accounts map[string]mmodel.LedgerAccount }

func (r *routeAccountRepo) FindByID(_ context.Context, id string) (*mmodel.LedgerAccount, error) {
	a, ok := r.accounts[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}
func (r *routeAccountRepo) FindCOAEntry(_ context.Context, _ string) (*mmodel.ChartOfAccountsEntry, error) {
	return &mmodel.ChartOfAccountsEntry{NormalBalance: mmodel.NormalDebit, AllowNegative: true}, nil
}
func (r *routeAccountRepo) FindOverdraftFacility(_ context.Context, _ string) (*mmodel.OverdraftFacility, error) {
	return nil, nil
}
func (r *routeAccountRepo) FindOwnerState(_ context.Context, _ string) (mmodel.ActorState, error) {
	return mmodel.ActorStateActive, nil
}
func (r *routeAccountRepo) ActivateOverdraft(_ context.Context, _ mmodel.OverdraftFacility) error {
	return nil
}

type routeBalanceRepo struct{ balances map[string]mmodel.AccountBalance }

func (r *routeBalanceRepo) FindByAccountID(_ context.Context, id string) (*mmodel.AccountBalance, error) {
	b, ok := r.balances[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}
func (r *routeBalanceRepo) CompareAndSwap(_ context.Context, bal mmodel.AccountBalance, _ *string) (bool, error) {
	r.balances[bal.AccountID] = bal
	return true, nil
}

type routeJournalRepo struct {
	journals map[string]mmodel.LedgerJournal
	lines    map[string][]mmodel.LedgerLine
}

func (r *routeJournalRepo) LatestHash(_ context.Context, _ string) (string, error) { return "", nil }
func (r *routeJournalRepo) Insert(_ context.Context, j mmodel.LedgerJournal, lines []mmodel.LedgerLine) error {
	r.journals[j.ID] = j
	r.lines[j.ID] = lines
	return nil
}
func (r *routeJournalRepo) FindByID(_ context.Context, id string) (*mmodel.LedgerJournal, []mmodel.LedgerLine, error) {
	j, ok := r.journals[id]
	if !ok {
		return nil, nil, nil
	}
	return &j, r.lines[id], nil
}
func (r *routeJournalRepo) MarkReversed(_ context.Context, _ string) error { return nil }
func (r *routeJournalRepo) ListInRange(_ context.Context, _, _ time.Time) ([]posting.JournalWithLines, error) {
	return nil, nil
}

type routeIdempotencyRepo struct{ records map[string]mmodel.IdempotencyRecord }

func (r *routeIdempotencyRepo) Lookup(_ context.Context, scopeHash, key string) (*mmodel.IdempotencyRecord, error) {
	rec, ok := r.records[scopeHash+"|"+key]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}
func (r *routeIdempotencyRepo) Record(_ context.Context, rec mmodel.IdempotencyRecord) error {
	r.records[rec.ScopeHash+"|"+rec.IdempotencyKey] = rec
	return nil
}

type routePeriodRepo struct{ period mmodel.AccountingPeriod }

func (r *routePeriodRepo) FindCovering(_ context.Context, _ time.Time) (*mmodel.AccountingPeriod, error) {
	return &r.period, nil
}

type routeFeeMatrixRepo struct{}

func (routeFeeMatrixRepo) ActiveVersion(_ context.Context, _ string, _ time.Time) (*mmodel.FeeMatrixVersion, error) {
	return nil, nil
}
func (routeFeeMatrixRepo) FindFeeRule(_ context.Context, _, _, _ string) (*mmodel.FeeRule, error) {
	return nil, nil
}
func (routeFeeMatrixRepo) FindCommissionRule(_ context.Context, _, _, _, _ string) (*mmodel.FeeRule, error) {
	return nil, nil
}
func (routeFeeMatrixRepo) Activate(_ context.Context, _, _, _ string, _ time.Time) error { return nil }
func (routeFeeMatrixRepo) CreateDraftVersion(_ context.Context, _ mmodel.FeeMatrixVersion, _ []mmodel.FeeRule) error {
	return nil
}

type routeOutboxRepo struct{}

func (routeOutboxRepo) Insert(_ context.Context, _ mmodel.Event) error { return nil }
func (routeOutboxRepo) Unpublished(_ context.Context, _ int) ([]mmodel.Event, error) {
	return nil, nil
}
func (routeOutboxRepo) MarkPublished(_ context.Context, _ []string) error { return nil }

type routePolicyRepo struct{}

func (routePolicyRepo) ActivePolicies(_ context.Context, _ time.Time) ([]command.PolicyBundle, error) {
	return nil, nil
}
func (routePolicyRepo) AutoPolicy(_ context.Context, _ string) (*command.PolicyBundle, error) {
	return nil, nil
}
func (routePolicyRepo) FindByID(_ context.Context, _ string) (*command.PolicyBundle, error) {
	return nil, nil
}

type routeRequestRepo struct{}

func (routeRequestRepo) Insert(_ context.Context, _ mmodel.ApprovalRequest) error { return nil }
func (routeRequestRepo) FindByID(_ context.Context, _ string) (*mmodel.ApprovalRequest, error) {
	return nil, nil
}
func (routeRequestRepo) DecisionsForRequest(_ context.Context, _ string) ([]mmodel.ApprovalStageDecision, error) {
	return nil, nil
}
func (routeRequestRepo) InsertDecision(_ context.Context, _ mmodel.ApprovalStageDecision) error {
	return nil
}
func (routeRequestRepo) UpdateState(_ context.Context, _ string, _ mmodel.RequestState, _ int, _ *time.Time) error {
	return nil
}
func (routeRequestRepo) ActiveDelegations(_ context.Context, _ string, _ time.Time) ([]mmodel.ApprovalDelegation, error) {
	return nil, nil
}
func (routeRequestRepo) OverdueRequests(_ context.Context, _ time.Time) ([]mmodel.ApprovalRequest, error) {
	return nil, nil
}

func newTestApp(uc *command.UseCase) *fiber.App {
	app := fiber.New(fiber.Config{ErrorHandler: mhttp.WithError})
	Routes(app, uc, "test")

	return app
}

func newRouteTestUseCase(t *testing.T) *command.UseCase {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	mock.MatchExpectationsInOrder(false)

	for i := 0; i < 5; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
		mock.ExpectRollback()
	}

	now := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)

	return &command.UseCase{
		DB: db,
		AccountRepo: &routeAccountRepo{accounts: map[string]mmodel.LedgerAccount{
			"2547-payer": {ID: "2547-payer", Currency: "KES"},
			"2547-payee": {ID: "2547-payee", Currency: "KES"},
		}},
		BalanceRepo: &routeBalanceRepo{balances: map[string]mmodel.AccountBalance{
			"2547-payer": {AccountID: "2547-payer", ActualMinor: 10000, AvailableMinor: 10000, Currency: "KES"},
			"2547-payee": {AccountID: "2547-payee", ActualMinor: 0, AvailableMinor: 0, Currency: "KES"},
		}},
		JournalRepo:     &routeJournalRepo{journals: map[string]mmodel.LedgerJournal{}, lines: map[string][]mmodel.LedgerLine{}},
		IdempotencyRepo: &routeIdempotencyRepo{records: map[string]mmodel.IdempotencyRecord{}},
		PeriodRepo:      &routePeriodRepo{period: mmodel.AccountingPeriod{Status: mmodel.PeriodOpen, StartDate: now.AddDate(0, -1, 0), EndDate: now.AddDate(0, 1, 0)}},
		FeeMatrixRepo:   routeFeeMatrixRepo{},
		OutboxRepo:      routeOutboxRepo{},
		PolicyRepo:      routePolicyRepo{},
		RequestRepo:     routeRequestRepo{},
		Handlers:        command.ApprovalHandlerRegistry{},
		Logger:          &mlog.NoneLogger{},
		Clock:           routeFixedClock{t: now},
		RetryLimit:      5,
	}
}

func doJSON(t *testing.T, handlerApp interface {
	Test(*http.Request, ...int) (*http.Response, error)
}, method, path string, body any) (int, map[string]any) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := handlerApp.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var out map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &out))
	}

	return resp.StatusCode, out
}

func TestRoutesP2PHappyPath(t *testing.T) {
	t.Parallel()

	uc := newRouteTestUseCase(t)
	app := newTestApp(uc)

	status, out := doJSON(t, app, http.MethodPost, "/tx/p2p", P2PRequest{
		SenderMSISDN:   "2547-payer",
		ReceiverMSISDN: "2547-payee",
		Amount:         "5.00",
		Currency:       "KES",
		IdempotencyKey: "p2p-1",
	})

	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, string(mmodel.JournalPosted), out["state"])
}

func TestRoutesP2PValidationFailure(t *testing.T) {
	t.Parallel()

	uc := newRouteTestUseCase(t)
	app := newTestApp(uc)

	status, _ := doJSON(t, app, http.MethodPost, "/tx/p2p", map[string]any{
		"sender_msisdn": "2547-payer",
	})

	require.Equal(t, http.StatusBadRequest, status)
}

func TestRoutesBalanceMissingOwnerID(t *testing.T) {
	t.Parallel()

	uc := newRouteTestUseCase(t)
	app := newTestApp(uc)

	req := httptest.NewRequest(http.MethodGet, "/balance", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRoutesBalanceFound(t *testing.T) {
	t.Parallel()

	uc := newRouteTestUseCase(t)
	app := newTestApp(uc)

	req := httptest.NewRequest(http.MethodGet, "/balance?owner_id=2547-payer", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRoutesVerifyBadTimestamp(t *testing.T) {
	t.Parallel()

	uc := newRouteTestUseCase(t)
	app := newTestApp(uc)

	req := httptest.NewRequest(http.MethodGet, "/ops/ledger/verify?from=not-a-time&to=not-a-time", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestRoutesFloatTopUpFallsThroughToDirectPost(t *testing.T) {
	t.Parallel()

	uc := newRouteTestUseCase(t)
	app := newTestApp(uc)

	status, out := doJSON(t, app, http.MethodPost, "/float/top-up", FloatRequest{
		AgentCode:      "2547-payer",
		FloatAccountID: "2547-payee",
		Amount:         "1.00",
		Currency:       "KES",
		IdempotencyKey: "float-1",
		MakerStaffID:   "staff-1",
	})

	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, string(mmodel.JournalPosted), out["state"])
}

func TestRoutesFeeMatrixCreateVersion(t *testing.T) {
	t.Parallel()

	uc := newRouteTestUseCase(t)
	app := newTestApp(uc)

	status, out := doJSON(t, app, http.MethodPost, "/fee-matrix/versions", CreateFeeMatrixVersionRequest{
		Currency: "KES",
		Rules: []FeeRuleRequest{
			{TxnType: "P2P", RuleKind: "FEE", FlatMinor: 100, FeeAccountID: "fee-acct", RevenueAccountID: "rev-acct"},
		},
	})

	require.Equal(t, http.StatusCreated, status)
	require.Equal(t, string(mmodel.FeeMatrixDraft), out["State"])
}

func TestRoutesOverdraftFacilityWithNoPolicyIsUnprocessable(t *testing.T) {
	t.Parallel()

	uc := newRouteTestUseCase(t)
	app := newTestApp(uc)

	status, _ := doJSON(t, app, http.MethodPost, "/overdraft-facilities", CreateOverdraftFacilityRequest{
		AccountID:    "2547-payer",
		LimitMinor:   50000,
		MakerStaffID: "staff-1",
	})

	require.Equal(t, http.StatusUnprocessableEntity, status)
}
