package payment

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"tienda-be/internal/customer"
	"tienda-be/internal/delivery"
	"tienda-be/internal/logger"
	"tienda-be/internal/order"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Approved deliveries get scheduled three days out.
const deliveryLeadTime = 3 * 24 * time.Hour

// ApprovalPublisher notifies downstream fulfillment that an order was
// paid. Publishing is best effort; a broker outage never fails a
// payment.
type ApprovalPublisher interface {
	OrderApproved(ctx context.Context, reference string) error
}

type Service interface {
	ProcessPayment(ctx context.Context, input PayOrderInput) (*PaymentResult, error)
}

type service struct {
	repo       Repository
	orders     order.Repository
	customers  customer.Repository
	deliveries delivery.Repository
	gateway    Gateway
	publisher  ApprovalPublisher
	validate   *validator.Validate
}

func NewService(
	repo Repository,
	orders order.Repository,
	customers customer.Repository,
	deliveries delivery.Repository,
	gateway Gateway,
	publisher ApprovalPublisher,
) Service {
	return &service{
		repo:       repo,
		orders:     orders,
		customers:  customers,
		deliveries: deliveries,
		gateway:    gateway,
		publisher:  publisher,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// ProcessPayment drives one order through a charge attempt. Each step
// short-circuits on failure.
func (s *service) ProcessPayment(ctx context.Context, input PayOrderInput) (*PaymentResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "ProcessPayment"),
		zap.String("reference", input.Reference),
	)

	// 1. Input validation
	if err := s.validate.Struct(input); err != nil {
		return nil, &order.ValidationError{Message: err.Error()}
	}

	// 2. Locate the order
	o, err := s.orders.GetByReference(ctx, input.Reference)
	if err != nil {
		return nil, err
	}
	if o.Status == order.StatusApproved {
		return nil, ErrOrderAlreadyPaid
	}

	if o.CustomerID == nil {
		return nil, &ServerError{Step: "load_customer", Err: errors.New("order has no customer")}
	}
	cust, err := s.customers.GetByID(ctx, *o.CustomerID)
	if err != nil {
		return nil, &ServerError{Step: "load_customer", Err: err}
	}

	var shipping *ShippingAddress
	if o.DeliveryID != nil {
		d, err := s.deliveries.GetByID(ctx, *o.DeliveryID)
		if err != nil {
			return nil, &ServerError{Step: "load_delivery", Err: err}
		}
		shipping = &ShippingAddress{
			AddressLine1: d.AddressLine1,
			City:         d.City,
			Region:       d.Region,
			Country:      d.Country,
		}
		if d.AddressLine2 != nil {
			shipping.AddressLine2 = *d.AddressLine2
		}
		if d.PostalCode != nil {
			shipping.PostalCode = *d.PostalCode
		}
	}

	// 3. Acceptance token
	token, err := s.gateway.GetAcceptanceToken(ctx)
	if err != nil {
		log.Error("acceptance token fetch failed", zap.Error(err))
		return nil, &ServerError{Step: "acceptance_token", Err: err}
	}

	// 4. Charge parameters. Amount and currency come from the order
	//    row, never from the caller.
	params := ChargeParams{
		AcceptanceToken: token,
		AmountInCents:   o.AmountInCents,
		Currency:        o.Currency,
		CustomerEmail:   cust.Email,
		Reference:       o.Reference,
		Method:          input.Method,
		CustomerData:    &CustomerData{FullName: cust.FullName},
		ShippingAddress: shipping,
	}
	if cust.PhoneNumber != nil {
		params.CustomerData.PhoneNumber = *cust.PhoneNumber
	}

	// 5. Submit the charge
	gwTxn, err := s.gateway.CreateTransaction(ctx, params)
	if err != nil {
		var rejection *GatewayRejection
		if errors.As(err, &rejection) {
			return nil, s.recordRejectedCharge(ctx, o, input.Method.Type, rejection)
		}
		log.Error("charge creation failed", zap.Error(err))
		return nil, &ServerError{Step: "create_transaction", Err: err}
	}

	// 6. Persist the transaction. It starts as PENDING locally so the
	//    guarded transition below is the only path that applies side
	//    effects, for this call and for every later reconciliation.
	txn := &Transaction{
		WompiID:           &gwTxn.ID,
		Reference:         o.Reference,
		AmountInCents:     gwTxn.AmountInCents,
		Currency:          gwTxn.Currency,
		Status:            StatusPending,
		PaymentMethodType: gwTxn.PaymentMethodType,
		PaymentData:       gwTxn.Raw,
	}
	if err := s.repo.Save(ctx, txn); err != nil {
		return nil, &ServerError{Step: "save_transaction", Err: err}
	}
	if err := s.orders.LinkTransaction(ctx, o.ID, txn.ID); err != nil {
		return nil, &ServerError{Step: "link_transaction", Err: err}
	}

	// 7. Merge the gateway-reported status through the same atomic
	//    transition the reconciler uses.
	status := TransactionStatus(gwTxn.Status)
	mapped := MapToOrderStatus(status)

	_, applied, err := s.repo.ApplyGatewayStatus(ctx, ApplyStatusParams{
		WompiID:           gwTxn.ID,
		NewStatus:         status,
		OrderStatus:       mapped,
		PaymentData:       gwTxn.Raw,
		EstimatedDelivery: time.Now().Add(deliveryLeadTime),
	})
	if err != nil {
		return nil, &ServerError{Step: "apply_status", Err: err}
	}

	if applied {
		s.notifyApproved(ctx, o.Reference)
	}

	log.Info("payment processed",
		zap.String("wompi_id", gwTxn.ID),
		zap.String("transaction_status", string(status)),
		zap.String("order_status", string(mapped)),
	)

	return &PaymentResult{
		Reference:         o.Reference,
		WompiID:           gwTxn.ID,
		TransactionStatus: status,
		OrderStatus:       string(mapped),
	}, nil
}

// recordRejectedCharge leaves an ERROR transaction row linked to the
// order so the attempt is auditable, then reports the failure. The row
// does not block a retry.
func (s *service) recordRejectedCharge(ctx context.Context, o *order.Order, methodType string, rejection *GatewayRejection) error {
	log := logger.FromCtx(ctx).With(zap.String("reference", o.Reference))

	// paymentData must be valid JSON for the jsonb column even when
	// the gateway's error body is not.
	detail := json.RawMessage(rejection.Detail)
	if !json.Valid(detail) {
		detail, _ = json.Marshal(map[string]string{"error": rejection.Detail})
	}

	txn := &Transaction{
		Reference:         o.Reference,
		AmountInCents:     o.AmountInCents,
		Currency:          o.Currency,
		Status:            StatusError,
		PaymentMethodType: methodType,
		PaymentData:       detail,
	}
	if err := s.repo.Save(ctx, txn); err != nil {
		log.Error("failed to persist rejected charge", zap.Error(err))
		return &ServerError{Step: "save_transaction", Err: err}
	}
	if err := s.orders.LinkTransaction(ctx, o.ID, txn.ID); err != nil {
		log.Error("failed to link rejected charge", zap.Error(err))
		return &ServerError{Step: "link_transaction", Err: err}
	}
	if err := s.orders.UpdateStatus(ctx, o.ID, order.StatusError); err != nil {
		log.Error("failed to mark order errored", zap.Error(err))
		return &ServerError{Step: "update_order_status", Err: err}
	}

	return &PaymentFailedError{Reference: o.Reference, Reason: rejection.Detail}
}

func (s *service) notifyApproved(ctx context.Context, reference string) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.OrderApproved(ctx, reference); err != nil {
		logger.FromCtx(ctx).Warn("order approved event not published",
			zap.String("reference", reference),
			zap.Error(err),
		)
	}
}
