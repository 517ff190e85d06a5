package httpapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"warehouse-be/internal/auth"
	"warehouse-be/internal/idempotency"
	"warehouse-be/internal/inventory"
	"warehouse-be/internal/metrics"
	"warehouse-be/internal/order"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testSecret = []byte("test-secret")

type MockOrderService struct {
	mock.Mock
}

func (m *MockOrderService) Create(ctx context.Context, in order.CreateInput) (*order.CreateResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.CreateResult), args.Error(1)
}

func (m *MockOrderService) Get(ctx context.Context, id uint) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) List(ctx context.Context, filter order.Filter) ([]*order.Order, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*order.Order), args.Error(1)
}

func (m *MockOrderService) Edit(ctx context.Context, c auth.Caller, id uint, in order.EditInput) (*order.Order, error) {
	args := m.Called(ctx, c, id, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderService) Delete(ctx context.Context, c auth.Caller, id uint) error {
	return m.Called(ctx, c, id).Error(0)
}

func (m *MockOrderService) UpdateFlags(ctx context.Context, id uint, in order.FlagsInput) error {
	return m.Called(ctx, id, in).Error(0)
}

func (m *MockOrderService) Document(ctx context.Context, id uint) ([]byte, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type MockInventoryService struct {
	mock.Mock
}

func (m *MockInventoryService) Get(ctx context.Context, key inventory.Key) (*inventory.Record, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.Record), args.Error(1)
}

func (m *MockInventoryService) List(ctx context.Context, filter inventory.Filter) ([]*inventory.Record, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*inventory.Record), args.Error(1)
}

func (m *MockInventoryService) Create(ctx context.Context, c auth.Caller, rec *inventory.Record) error {
	return m.Called(ctx, c, rec).Error(0)
}

func (m *MockInventoryService) Adjust(ctx context.Context, c auth.Caller, key inventory.Key, delta decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, c, key, delta)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type memIdem struct {
	data        map[string][]byte
	err         error
	completeErr error
}

func (s *memIdem) Reserve(_ context.Context, key string) ([]byte, bool, error) {
	if s.err != nil {
		return nil, false, s.err
	}
	v, ok := s.data[key]
	if !ok {
		s.data[key] = nil
		return nil, true, nil
	}
	if v == nil {
		return nil, false, idempotency.ErrInFlight
	}
	return v, false, nil
}

func (s *memIdem) Complete(_ context.Context, key string, response []byte) error {
	if s.completeErr != nil {
		return s.completeErr
	}
	s.data[key] = response
	return nil
}

func (s *memIdem) Release(_ context.Context, key string) error {
	delete(s.data, key)
	return nil
}

type fixture struct {
	orders *MockOrderService
	inv    *MockInventoryService
	idem   *memIdem
	router http.Handler
}

func newFixture() *fixture {
	f := &fixture{
		orders: &MockOrderService{},
		inv:    &MockInventoryService{},
		idem:   &memIdem{data: map[string][]byte{}},
	}
	h := NewHandler(f.orders, f.inv, f.idem, metrics.NewRegistry())
	f.router = NewRouter(h, auth.Authenticate(testSecret))
	return f
}

func (f *fixture) do(t *testing.T, c *auth.Caller, method, path, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if c != nil {
		token, err := auth.SignToken(*c, testSecret, time.Minute)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}
