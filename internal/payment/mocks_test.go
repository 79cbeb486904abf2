package payment

import (
	"context"
	"encoding/json"

	"tienda-be/internal/customer"
	"tienda-be/internal/delivery"
	"tienda-be/internal/order"

	"github.com/stretchr/testify/mock"
)

type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Save(ctx context.Context, t *Transaction) error {
	args := m.Called(ctx, t)
	if args.Error(0) == nil {
		t.ID = 1
	}
	return args.Error(0)
}

func (m *MockRepository) GetByWompiID(ctx context.Context, wompiID string) (*Transaction, error) {
	args := m.Called(ctx, wompiID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Transaction), args.Error(1)
}

func (m *MockRepository) GetByReference(ctx context.Context, reference string) (*Transaction, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Transaction), args.Error(1)
}

func (m *MockRepository) ApplyGatewayStatus(ctx context.Context, params ApplyStatusParams) (TransactionStatus, bool, error) {
	args := m.Called(ctx, params)
	return args.Get(0).(TransactionStatus), args.Bool(1), args.Error(2)
}

func (m *MockRepository) FindInfoByReference(ctx context.Context, reference string) (*order.TransactionInfo, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.TransactionInfo), args.Error(1)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) GetAcceptanceToken(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *MockGateway) CreateTransaction(ctx context.Context, params ChargeParams) (*GatewayTransaction, error) {
	args := m.Called(ctx, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*GatewayTransaction), args.Error(1)
}

func (m *MockGateway) GetTransaction(ctx context.Context, id string) (*GatewayTransaction, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*GatewayTransaction), args.Error(1)
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) Create(ctx context.Context, o *order.Order) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(ctx context.Context, id uint) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByReference(ctx context.Context, reference string) (*order.Order, error) {
	args := m.Called(ctx, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id uint, status order.OrderStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOrderRepository) LinkTransaction(ctx context.Context, orderID, transactionID uint) error {
	args := m.Called(ctx, orderID, transactionID)
	return args.Error(0)
}

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) UpsertByEmail(ctx context.Context, c *customer.Customer) (*customer.Customer, error) {
	args := m.Called(ctx, c)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) GetByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) GetByID(ctx context.Context, id uint) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

type MockDeliveryRepository struct {
	mock.Mock
}

func (m *MockDeliveryRepository) Create(ctx context.Context, d *delivery.Delivery) (*delivery.Delivery, error) {
	args := m.Called(ctx, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*delivery.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) GetByID(ctx context.Context, id uint) (*delivery.Delivery, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*delivery.Delivery), args.Error(1)
}

func (m *MockDeliveryRepository) UpdateStatus(ctx context.Context, id uint, status delivery.Status) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockDeliveryRepository) Cancel(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) OrderApproved(ctx context.Context, reference string) error {
	args := m.Called(ctx, reference)
	return args.Error(0)
}

// fakeGateway scripts GetTransaction responses per attempt, for the
// polling tests.
type fakeGateway struct {
	statuses []string
	calls    int
}

func (f *fakeGateway) GetAcceptanceToken(ctx context.Context) (string, error) {
	return "tok", nil
}

func (f *fakeGateway) CreateTransaction(ctx context.Context, params ChargeParams) (*GatewayTransaction, error) {
	return nil, nil
}

func (f *fakeGateway) GetTransaction(ctx context.Context, id string) (*GatewayTransaction, error) {
	status := f.statuses[len(f.statuses)-1]
	if f.calls < len(f.statuses) {
		status = f.statuses[f.calls]
	}
	f.calls++
	return &GatewayTransaction{
		ID:     id,
		Status: status,
		Raw:    json.RawMessage(`{"data":{"status":"` + status + `"}}`),
	}, nil
}
