package payment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"tienda-be/internal/customer"
	"tienda-be/internal/order"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func pendingOrder() *order.Order {
	custID := uint(7)
	return &order.Order{
		ID:            1,
		Reference:     "ORD-1",
		CustomerID:    &custID,
		AmountInCents: 6000000,
		Currency:      "COP",
		Status:        order.StatusPending,
		Items:         []order.OrderItem{{ProductID: 1, Quantity: 2}},
	}
}

func cardInput() PayOrderInput {
	return PayOrderInput{
		Reference: "ORD-1",
		Method:    PaymentMethod{Type: MethodCard, Token: "tok_test_123"},
	}
}

func TestService_ProcessPayment_Approved(t *testing.T) {
	repo := new(MockRepository)
	orders := new(MockOrderRepository)
	customers := new(MockCustomerRepository)
	deliveries := new(MockDeliveryRepository)
	gateway := new(MockGateway)
	publisher := new(MockPublisher)

	svc := NewService(repo, orders, customers, deliveries, gateway, publisher)
	ctx := context.Background()

	orders.On("GetByReference", ctx, "ORD-1").Return(pendingOrder(), nil)
	customers.On("GetByID", ctx, uint(7)).
		Return(&customer.Customer{ID: 7, Email: "ana@example.com", FullName: "Ana Perez"}, nil)
	gateway.On("GetAcceptanceToken", ctx).Return("acceptance-tok", nil)
	gateway.On("CreateTransaction", ctx, mock.AnythingOfType("ChargeParams")).
		Return(&GatewayTransaction{
			ID:                "wompi-1",
			Reference:         "ORD-1",
			Status:            "APPROVED",
			AmountInCents:     6000000,
			Currency:          "COP",
			PaymentMethodType: "CARD",
			Raw:               json.RawMessage(`{"data":{"id":"wompi-1"}}`),
		}, nil)
	repo.On("Save", ctx, mock.AnythingOfType("*payment.Transaction")).Return(nil)
	orders.On("LinkTransaction", ctx, uint(1), uint(1)).Return(nil)
	repo.On("ApplyGatewayStatus", ctx, mock.AnythingOfType("ApplyStatusParams")).
		Return(StatusPending, true, nil)
	publisher.On("OrderApproved", ctx, "ORD-1").Return(nil)

	result, err := svc.ProcessPayment(ctx, cardInput())
	require.NoError(t, err)

	assert.Equal(t, "wompi-1", result.WompiID)
	assert.Equal(t, StatusApproved, result.TransactionStatus)
	assert.Equal(t, "approved", result.OrderStatus)

	// the charge used the order's amount, not anything client-supplied
	params := gateway.Calls[1].Arguments.Get(1).(ChargeParams)
	assert.Equal(t, int64(6000000), params.AmountInCents)
	assert.Equal(t, "acceptance-tok", params.AcceptanceToken)

	// the row is saved PENDING; the guarded transition owns the rest
	saved := repo.Calls[0].Arguments.Get(1).(*Transaction)
	assert.Equal(t, StatusPending, saved.Status)

	applyParams := repo.Calls[1].Arguments.Get(1).(ApplyStatusParams)
	assert.Equal(t, StatusApproved, applyParams.NewStatus)
	assert.Equal(t, order.StatusApproved, applyParams.OrderStatus)
	assert.False(t, applyParams.EstimatedDelivery.IsZero())

	publisher.AssertCalled(t, "OrderApproved", ctx, "ORD-1")
}

func TestService_ProcessPayment_PendingNoSideEffects(t *testing.T) {
	repo := new(MockRepository)
	orders := new(MockOrderRepository)
	customers := new(MockCustomerRepository)
	deliveries := new(MockDeliveryRepository)
	gateway := new(MockGateway)
	publisher := new(MockPublisher)

	svc := NewService(repo, orders, customers, deliveries, gateway, publisher)
	ctx := context.Background()

	orders.On("GetByReference", ctx, "ORD-1").Return(pendingOrder(), nil)
	customers.On("GetByID", ctx, uint(7)).Return(&customer.Customer{ID: 7, Email: "ana@example.com"}, nil)
	gateway.On("GetAcceptanceToken", ctx).Return("tok", nil)
	gateway.On("CreateTransaction", ctx, mock.Anything).
		Return(&GatewayTransaction{ID: "wompi-2", Status: "PENDING"}, nil)
	repo.On("Save", ctx, mock.Anything).Return(nil)
	orders.On("LinkTransaction", ctx, uint(1), uint(1)).Return(nil)
	repo.On("ApplyGatewayStatus", ctx, mock.Anything).Return(StatusPending, false, nil)

	result, err := svc.ProcessPayment(ctx, cardInput())
	require.NoError(t, err)

	assert.Equal(t, StatusPending, result.TransactionStatus)
	assert.Equal(t, "processing", result.OrderStatus)
	publisher.AssertNotCalled(t, "OrderApproved", mock.Anything, mock.Anything)
}

func TestService_ProcessPayment_GatewayRejection(t *testing.T) {
	repo := new(MockRepository)
	orders := new(MockOrderRepository)
	customers := new(MockCustomerRepository)
	deliveries := new(MockDeliveryRepository)
	gateway := new(MockGateway)

	svc := NewService(repo, orders, customers, deliveries, gateway, nil)
	ctx := context.Background()

	orders.On("GetByReference", ctx, "ORD-1").Return(pendingOrder(), nil)
	customers.On("GetByID", ctx, uint(7)).Return(&customer.Customer{ID: 7, Email: "ana@example.com"}, nil)
	gateway.On("GetAcceptanceToken", ctx).Return("tok", nil)
	gateway.On("CreateTransaction", ctx, mock.Anything).
		Return(nil, &GatewayRejection{Detail: `{"error":"invalid card token"}`})
	repo.On("Save", ctx, mock.AnythingOfType("*payment.Transaction")).Return(nil)
	orders.On("LinkTransaction", ctx, uint(1), uint(1)).Return(nil)
	orders.On("UpdateStatus", ctx, uint(1), order.StatusError).Return(nil)

	_, err := svc.ProcessPayment(ctx, cardInput())

	var failed *PaymentFailedError
	require.ErrorAs(t, err, &failed)
	assert.Contains(t, failed.Reason, "invalid card token")

	// an auditable ERROR row was left behind
	saved := repo.Calls[0].Arguments.Get(1).(*Transaction)
	assert.Equal(t, StatusError, saved.Status)
	assert.Nil(t, saved.WompiID)
	orders.AssertCalled(t, "UpdateStatus", ctx, uint(1), order.StatusError)
	repo.AssertNotCalled(t, "ApplyGatewayStatus", mock.Anything, mock.Anything)
}

func TestService_ProcessPayment_GatewayUnavailableIsNotADecline(t *testing.T) {
	repo := new(MockRepository)
	orders := new(MockOrderRepository)
	customers := new(MockCustomerRepository)
	deliveries := new(MockDeliveryRepository)
	gateway := new(MockGateway)

	svc := NewService(repo, orders, customers, deliveries, gateway, nil)
	ctx := context.Background()

	orders.On("GetByReference", ctx, "ORD-1").Return(pendingOrder(), nil)
	customers.On("GetByID", ctx, uint(7)).Return(&customer.Customer{ID: 7, Email: "ana@example.com"}, nil)
	gateway.On("GetAcceptanceToken", ctx).Return("tok", nil)
	gateway.On("CreateTransaction", ctx, mock.Anything).
		Return(nil, errors.New("context deadline exceeded: "+ErrGatewayUnavailable.Error()))

	_, err := svc.ProcessPayment(ctx, cardInput())

	var serverErr *ServerError
	require.ErrorAs(t, err, &serverErr)
	assert.Equal(t, "create_transaction", serverErr.Step)

	// no transaction row, no order status change
	repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	orders.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_ProcessPayment_OrderNotFound(t *testing.T) {
	repo := new(MockRepository)
	orders := new(MockOrderRepository)
	gateway := new(MockGateway)

	svc := NewService(repo, orders, new(MockCustomerRepository), new(MockDeliveryRepository), gateway, nil)
	ctx := context.Background()

	orders.On("GetByReference", ctx, "ORD-1").Return(nil, order.ErrOrderNotFound)

	_, err := svc.ProcessPayment(ctx, cardInput())
	assert.ErrorIs(t, err, order.ErrOrderNotFound)
	gateway.AssertNotCalled(t, "GetAcceptanceToken", mock.Anything)
}

func TestService_ProcessPayment_AlreadyPaid(t *testing.T) {
	repo := new(MockRepository)
	orders := new(MockOrderRepository)
	gateway := new(MockGateway)

	svc := NewService(repo, orders, new(MockCustomerRepository), new(MockDeliveryRepository), gateway, nil)
	ctx := context.Background()

	o := pendingOrder()
	o.Status = order.StatusApproved
	orders.On("GetByReference", ctx, "ORD-1").Return(o, nil)

	_, err := svc.ProcessPayment(ctx, cardInput())
	assert.ErrorIs(t, err, ErrOrderAlreadyPaid)
}

func TestService_ProcessPayment_InvalidMethod(t *testing.T) {
	svc := NewService(new(MockRepository), new(MockOrderRepository), new(MockCustomerRepository), new(MockDeliveryRepository), new(MockGateway), nil)

	_, err := svc.ProcessPayment(context.Background(), PayOrderInput{
		Reference: "ORD-1",
		Method:    PaymentMethod{Type: "BARTER"},
	})

	var validation *order.ValidationError
	assert.ErrorAs(t, err, &validation)
}
