//go:build !integration

package api

import (
	"context"
	"net/url"
	"sync"
	"time"

	"content-marketplace/internal/domain"
	"content-marketplace/internal/domain/model"
	"content-marketplace/internal/usecase"

	"github.com/rs/zerolog"
)

func newTestLogger() *zerolog.Logger {
	l := zerolog.Nop()
	return &l
}

// --- UserUseCase ---

type mockUserUC struct {
	usecase.UserUseCase
	users    map[string]*model.User // by email
	password string
}

func newMockUserUC() *mockUserUC {
	return &mockUserUC{users: map[string]*model.User{}, password: "correct-horse"}
}

func (m *mockUserUC) Register(ctx context.Context, email, name, password string) (*model.User, error) {
	if _, ok := m.users[email]; ok {
		return nil, domain.ErrAlreadyExists
	}
	if len(password) < 8 {
		return nil, domain.Validationf("password too short")
	}
	u := &model.User{ID: "u-" + name, Email: email, Name: name, Role: model.RoleUser, SubscriptionTier: model.SubscriptionTierNone}
	m.users[email] = u
	return u, nil
}

func (m *mockUserUC) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	u, ok := m.users[email]
	if !ok || password != m.password {
		return nil, domain.ErrUnauthorized
	}
	return u, nil
}

func (m *mockUserUC) Profile(ctx context.Context, id string) (*usecase.UserProfile, error) {
	for _, u := range m.users {
		if u.ID == id {
			return &usecase.UserProfile{User: u, Courses: []*model.CourseAccess{}}, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

// --- CheckoutUseCase ---

type mockCheckoutUC struct {
	mu   sync.Mutex
	reqs []usecase.CheckoutRequest
	err  error
}

func (m *mockCheckoutUC) Initiate(ctx context.Context, req usecase.CheckoutRequest) (*usecase.CheckoutResult, error) {
	m.mu.Lock()
	m.reqs = append(m.reqs, req)
	m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return &usecase.CheckoutResult{
		Intent: &model.PaymentIntent{
			ID:         "01JA0000000000000000000001",
			PayerID:    req.PayerID,
			PackageRef: req.PackageRef,
			Amount:     199000,
			Currency:   "VND",
			Status:     model.IntentStatusPending,
		},
		PaymentURL: "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html?vnp_TxnRef=01JA0000000000000000000001",
	}, nil
}

// --- IntentStore ---

type mockIntentStore struct {
	usecase.IntentStore
	byID    map[string]*model.PaymentIntent
	lastF   model.IntentFilter
	listErr error
}

func newMockIntentStore(items ...*model.PaymentIntent) *mockIntentStore {
	m := &mockIntentStore{byID: map[string]*model.PaymentIntent{}}
	for _, it := range items {
		m.byID[it.ID] = it
	}
	return m
}

func (m *mockIntentStore) Get(ctx context.Context, id string) (*model.PaymentIntent, error) {
	if it, ok := m.byID[id]; ok {
		return it, nil
	}
	return nil, domain.ErrIntentNotFound
}

func (m *mockIntentStore) ListByPayer(ctx context.Context, payerID string, limit, offset int) ([]*model.PaymentIntent, error) {
	var out []*model.PaymentIntent
	for _, it := range m.byID {
		if it.PayerID == payerID {
			out = append(out, it)
		}
	}
	return out, nil
}

func (m *mockIntentStore) List(ctx context.Context, f model.IntentFilter) ([]*model.PaymentIntent, error) {
	m.lastF = f
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []*model.PaymentIntent
	for _, it := range m.byID {
		if f.Status == "" || it.Status == f.Status {
			out = append(out, it)
		}
	}
	return out, nil
}

// --- CallbackUseCase ---

type mockCallbackUC struct {
	res     *usecase.CallbackResult
	err     error
	sources []string
}

func (m *mockCallbackUC) Handle(ctx context.Context, source string, params url.Values) (*usecase.CallbackResult, error) {
	m.sources = append(m.sources, source)
	return m.res, m.err
}

// --- StatsUseCase ---

type mockStatsUC struct {
	err error
}

func (m *mockStatsUC) Totals(ctx context.Context) (int, map[model.IntentStatus]int, error) {
	if m.err != nil {
		return 0, nil, m.err
	}
	return 3, map[model.IntentStatus]int{model.IntentStatusCompleted: 2, model.IntentStatusPending: 1}, nil
}

func (m *mockStatsUC) Revenue(ctx context.Context) (usecase.Revenue, error) {
	return usecase.Revenue{Week: 199000, Month: 398000, Year: 398000}, nil
}

// --- Limiter ---

type mockLimiter struct {
	allow bool
	err   error
	keys  []string
}

func (m *mockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.keys = append(m.keys, key)
	return m.allow, m.err
}
