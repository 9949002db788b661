//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/domain/ports/adapter"
	"content-marketplace/internal/domain/ports/repository"
)

// -----------------------------
// Utilities: tiny helpers
// -----------------------------

func now() time.Time { return time.Now().Truncate(time.Millisecond) }

// =============================
// Adapters
// =============================

// ---- Mock PaymentGateway ----

// MockPaymentGateway builds fake URLs and decodes callbacks shaped like the provider's, accepting
// only vnp_SecureHash=mockValidSignature.
type MockPaymentGateway struct {
	NameVal string

	mu    sync.Mutex
	Built []*model.PaymentIntent

	BuildPaymentURLFunc func(intent *model.PaymentIntent, req adapter.PaymentRequest) (string, error)
	ParseCallbackFunc   func(params url.Values) (*adapter.CallbackData, error)
}

const mockValidSignature = "valid"

var _ adapter.PaymentGateway = (*MockPaymentGateway)(nil)

func (m *MockPaymentGateway) Name() string {
	if m.NameVal == "" {
		return "mockpay"
	}
	return m.NameVal
}

func (m *MockPaymentGateway) BuildPaymentURL(intent *model.PaymentIntent, req adapter.PaymentRequest) (string, error) {
	if m.BuildPaymentURLFunc != nil {
		return m.BuildPaymentURLFunc(intent, req)
	}
	if intent.Status != model.IntentStatusPending {
		return "", domain.ErrInvalidTransition
	}
	m.mu.Lock()
	m.Built = append(m.Built, intent)
	m.mu.Unlock()
	return "https://pay.example/checkout?vnp_TxnRef=" + intent.ID, nil
}

func (m *MockPaymentGateway) ParseCallback(params url.Values) (*adapter.CallbackData, error) {
	if m.ParseCallbackFunc != nil {
		return m.ParseCallbackFunc(params)
	}
	if params.Get("vnp_SecureHash") != mockValidSignature {
		return nil, domain.ErrSignatureMismatch
	}
	raw, err := strconv.ParseInt(params.Get("vnp_Amount"), 10, 64)
	if err != nil {
		return nil, domain.Validationf("amount")
	}
	code := params.Get("vnp_ResponseCode")
	return &adapter.CallbackData{
		IntentID:      params.Get("vnp_TxnRef"),
		Amount:        raw / 100,
		ResponseCode:  code,
		Success:       code == "00",
		ProviderTxnNo: params.Get("vnp_TransactionNo"),
		PaidAt:        now(),
	}, nil
}

// callbackParams builds a provider-shaped query the mock gateway accepts.
func callbackParams(intentID string, amount int64, code string) url.Values {
	p := url.Values{}
	p.Set("vnp_TxnRef", intentID)
	p.Set("vnp_Amount", strconv.FormatInt(amount*100, 10))
	p.Set("vnp_ResponseCode", code)
	p.Set("vnp_TransactionNo", "14123456")
	p.Set("vnp_SecureHash", mockValidSignature)
	return p
}

// =============================
// Repositories
// =============================

// ---- Mock UserRepository ----

type MockUserRepo struct {
	mu      sync.Mutex
	byID    map[string]*model.User
	byEmail map[string]*model.User

	SaveFunc        func(ctx context.Context, tx repository.Tx, u *model.User) error
	FindByIDFunc    func(ctx context.Context, tx repository.Tx, id string) (*model.User, error)
	FindByEmailFunc func(ctx context.Context, tx repository.Tx, email string) (*model.User, error)
	CountUsersFunc  func(ctx context.Context, tx repository.Tx) (int, error)
}

var _ repository.UserRepository = (*MockUserRepo)(nil)

func NewMockUserRepo() *MockUserRepo {
	return &MockUserRepo{byID: map[string]*model.User{}, byEmail: map[string]*model.User{}}
}

func (r *MockUserRepo) Save(ctx context.Context, tx repository.Tx, u *model.User) error {
	if r.SaveFunc != nil {
		return r.SaveFunc(ctx, tx, u)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *u
	if cp.ID == "" {
		cp.ID = uuid.NewString()
	}
	if other, ok := r.byEmail[cp.Email]; ok && other.ID != cp.ID {
		return domain.ErrAlreadyExists
	}
	r.byID[cp.ID] = &cp
	r.byEmail[cp.Email] = &cp
	return nil
}

func (r *MockUserRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.User, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byID[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *MockUserRepo) FindByEmail(ctx context.Context, tx repository.Tx, email string) (*model.User, error) {
	if r.FindByEmailFunc != nil {
		return r.FindByEmailFunc(ctx, tx, email)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.byEmail[email]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *MockUserRepo) CountUsers(ctx context.Context, tx repository.Tx) (int, error) {
	if r.CountUsersFunc != nil {
		return r.CountUsersFunc(ctx, tx)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID), nil
}

// ---- Mock CourseRepository ----

type MockCourseRepo struct {
	mu   sync.Mutex
	data map[string]*model.Course

	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Course, error)
}

var _ repository.CourseRepository = (*MockCourseRepo)(nil)

func NewMockCourseRepo() *MockCourseRepo {
	return &MockCourseRepo{data: map[string]*model.Course{}}
}

func (r *MockCourseRepo) Save(ctx context.Context, tx repository.Tx, c *model.Course) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *c
	r.data[c.ID] = &cp
	return nil
}

func (r *MockCourseRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Course, error) {
	if r.FindByIDFunc != nil {
		return r.FindByIDFunc(ctx, tx, id)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if c, ok := r.data[id]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, domain.ErrCourseNotFound
}

// ---- Mock CourseAccessRepository ----

type MockCourseAccessRepo struct {
	mu     sync.Mutex
	grants map[string]*model.CourseAccess // user|course -> grant
	calls  int

	GrantFunc func(ctx context.Context, tx repository.Tx, a *model.CourseAccess) error
}

var _ repository.CourseAccessRepository = (*MockCourseAccessRepo)(nil)

func NewMockCourseAccessRepo() *MockCourseAccessRepo {
	return &MockCourseAccessRepo{grants: map[string]*model.CourseAccess{}}
}

func (r *MockCourseAccessRepo) Grant(ctx context.Context, tx repository.Tx, a *model.CourseAccess) error {
	r.mu.Lock()
	r.calls++
	r.mu.Unlock()
	if r.GrantFunc != nil {
		return r.GrantFunc(ctx, tx, a)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	key := a.UserID + "|" + a.CourseID
	if _, ok := r.grants[key]; !ok {
		cp := *a
		r.grants[key] = &cp
	}
	return nil
}

func (r *MockCourseAccessRepo) ListByUser(ctx context.Context, tx repository.Tx, userID string) ([]*model.CourseAccess, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.CourseAccess
	for _, g := range r.grants {
		if g.UserID == userID {
			cp := *g
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *MockCourseAccessRepo) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

// ---- Mock PaymentIntentRepository ----

// MockIntentRepo keeps intents in memory; TransitionIfPending is a compare-and-swap under the
// mutex, mirroring the conditional UPDATE of the Postgres implementation.
type MockIntentRepo struct {
	mu   sync.Mutex
	data map[string]*model.PaymentIntent

	CreateFunc              func(ctx context.Context, tx repository.Tx, p *model.PaymentIntent) error
	TransitionIfPendingFunc func(ctx context.Context, tx repository.Tx, id string, status model.IntentStatus, s model.Settlement) (*model.PaymentIntent, error)
	SumCompletedSinceFunc   func(ctx context.Context, tx repository.Tx, period string) (int64, error)
}

var _ repository.PaymentIntentRepository = (*MockIntentRepo)(nil)

func NewMockIntentRepo() *MockIntentRepo {
	return &MockIntentRepo{data: map[string]*model.PaymentIntent{}}
}

func (r *MockIntentRepo) Create(ctx context.Context, tx repository.Tx, p *model.PaymentIntent) error {
	if r.CreateFunc != nil {
		return r.CreateFunc(ctx, tx, p)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[p.ID]; ok {
		return domain.ErrAlreadyExists
	}
	cp := *p
	r.data[p.ID] = &cp
	return nil
}

func (r *MockIntentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.PaymentIntent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.data[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, domain.ErrIntentNotFound
}

func (r *MockIntentRepo) TransitionIfPending(ctx context.Context, tx repository.Tx, id string, status model.IntentStatus, s model.Settlement) (*model.PaymentIntent, error) {
	if r.TransitionIfPendingFunc != nil {
		return r.TransitionIfPendingFunc(ctx, tx, id, status, s)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.data[id]
	if !ok || p.Status != model.IntentStatusPending {
		return nil, nil
	}
	settled := s.SettledAt
	p.Status = status
	p.ProviderTxnNo = s.ProviderTxnNo
	p.ProviderResponseCode = s.ResponseCode
	p.BankCode = s.BankCode
	p.SettledAt = &settled
	p.UpdatedAt = now()
	cp := *p
	return &cp, nil
}

func (r *MockIntentRepo) List(ctx context.Context, tx repository.Tx, f model.IntentFilter) ([]*model.PaymentIntent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.PaymentIntent
	for _, p := range r.data {
		if f.Status != "" && p.Status != f.Status {
			continue
		}
		if f.PayerID != "" && p.PayerID != f.PayerID {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	if f.Offset > 0 {
		if f.Offset >= len(out) {
			return nil, nil
		}
		out = out[f.Offset:]
	}
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (r *MockIntentRepo) CountByStatus(ctx context.Context, tx repository.Tx) (map[model.IntentStatus]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := map[model.IntentStatus]int{}
	for _, p := range r.data {
		out[p.Status]++
	}
	return out, nil
}

func (r *MockIntentRepo) SumCompletedSince(ctx context.Context, tx repository.Tx, period string) (int64, error) {
	if r.SumCompletedSinceFunc != nil {
		return r.SumCompletedSinceFunc(ctx, tx, period)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var sum int64
	for _, p := range r.data {
		if p.Status == model.IntentStatusCompleted {
			sum += p.Amount
		}
	}
	return sum, nil
}

// ---- Mock TransactionManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager() *MockTxManager {
	return &MockTxManager{}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc overrides it. Commit hooks fire when
// fn succeeds, as with the Postgres manager.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	ctx, run := repository.WithCommitHooks(ctx)
	if err := fn(ctx, repository.NoTX); err != nil {
		return err
	}
	run()
	return nil
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
// It writes to io.Discard to prevent logs from cluttering test output.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
