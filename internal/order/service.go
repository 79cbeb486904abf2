package order

import (
	"context"
	"errors"

	"tienda-be/internal/customer"
	"tienda-be/internal/delivery"
	"tienda-be/internal/logger"
	"tienda-be/internal/product"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// TransactionSource is the narrow view of the payment store the order
// read model needs. Implemented by the payment repository.
type TransactionSource interface {
	FindInfoByReference(ctx context.Context, reference string) (*TransactionInfo, error)
}

type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error)
	GetByReference(ctx context.Context, reference string) (*Order, error)
	GetSummary(ctx context.Context, reference string) (*OrderSummary, error)
}

type service struct {
	repo       Repository
	customers  customer.Repository
	deliveries delivery.Repository
	products   product.Repository
	txns       TransactionSource
	validate   *validator.Validate
}

func NewService(
	repo Repository,
	customers customer.Repository,
	deliveries delivery.Repository,
	products product.Repository,
	txns TransactionSource,
) Service {
	return &service{
		repo:       repo,
		customers:  customers,
		deliveries: deliveries,
		products:   products,
		txns:       txns,
		validate:   validator.New(validator.WithRequiredStructEnabled()),
	}
}

// CreateOrder runs the assembly pipeline. Every step short-circuits on
// failure; side effects committed by earlier steps are not rolled back
// (the customer upsert is idempotent, and a stray pending delivery row
// is harmless and reconcilable).
func (s *service) CreateOrder(ctx context.Context, input CreateOrderInput) (*CreateOrderResult, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("layer", "service"),
		zap.String("method", "CreateOrder"),
		zap.String("customer_email", input.CustomerEmail),
		zap.Int("item_count", len(input.Items)),
	)

	// 1. Required-field validation
	if err := s.validate.Struct(input); err != nil {
		log.Warn("order input rejected", zap.Error(err))
		return nil, &ValidationError{Message: err.Error()}
	}

	// 2. Price integrity: recompute the total from current catalog
	//    prices before anything is written.
	ids := make([]uint, 0, len(input.Items))
	for _, item := range input.Items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.products.GetByIDs(ctx, ids)
	if err != nil {
		log.Error("product lookup failed", zap.Error(err))
		return nil, err
	}

	quote, err := CalculateQuote(input.Items, products)
	if err != nil {
		log.Warn("quote failed", zap.Error(err))
		return nil, err
	}

	if err := ValidateAmount(input.AmountInCents, quote); err != nil {
		log.Warn("price mismatch",
			zap.Int64("provided", input.AmountInCents),
			zap.Int64("calculated", quote.TotalInCents),
		)
		return nil, err
	}

	// 3. Upsert customer by email
	cust, err := s.customers.UpsertByEmail(ctx, &customer.Customer{
		Email:       input.CustomerEmail,
		FullName:    input.CustomerName,
		PhoneNumber: input.PhoneNumber,
	})
	if err != nil {
		log.Error("customer upsert failed", zap.Error(err))
		return nil, err
	}

	// 4. Optional delivery row
	var deliveryID *uint
	if input.ShippingAddress != nil {
		d, err := s.deliveries.Create(ctx, &delivery.Delivery{
			AddressLine1: input.ShippingAddress.AddressLine1,
			AddressLine2: input.ShippingAddress.AddressLine2,
			City:         input.ShippingAddress.City,
			Region:       input.ShippingAddress.Region,
			Country:      input.ShippingAddress.Country,
			PostalCode:   input.ShippingAddress.PostalCode,
			Status:       delivery.StatusPending,
		})
		if err != nil {
			log.Error("delivery create failed", zap.Error(err))
			return nil, err
		}
		deliveryID = &d.ID
	}

	// 5. Order row with the server-computed amount. The client-claimed
	//    amount was only ever compared, never stored.
	items := make([]OrderItem, 0, len(input.Items))
	for _, item := range input.Items {
		items = append(items, OrderItem{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	o := &Order{
		Reference:     GenerateReference(),
		CustomerID:    &cust.ID,
		DeliveryID:    deliveryID,
		AmountInCents: quote.TotalInCents,
		Currency:      input.Currency,
		Status:        StatusPending,
		Items:         items,
	}

	if err := s.repo.Create(ctx, o); err != nil {
		log.Error("order create failed", zap.Error(err))
		return nil, err
	}

	log.Info("order created",
		zap.String("reference", o.Reference),
		zap.Int64("amount_in_cents", o.AmountInCents),
	)

	return &CreateOrderResult{
		OrderID:       o.ID,
		Reference:     o.Reference,
		Status:        o.Status,
		AmountInCents: o.AmountInCents,
		Currency:      o.Currency,
		CustomerID:    cust.ID,
		DeliveryID:    deliveryID,
	}, nil
}

func (s *service) GetByReference(ctx context.Context, reference string) (*Order, error) {
	return s.repo.GetByReference(ctx, reference)
}

// GetSummary builds the flattened read model, joining whichever
// relations the order actually has.
func (s *service) GetSummary(ctx context.Context, reference string) (*OrderSummary, error) {
	o, err := s.repo.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	var cust *customer.Customer
	if o.CustomerID != nil {
		cust, err = s.customers.GetByID(ctx, *o.CustomerID)
		if err != nil && !errors.Is(err, customer.ErrCustomerNotFound) {
			return nil, err
		}
	}

	var del *delivery.Delivery
	if o.DeliveryID != nil {
		del, err = s.deliveries.GetByID(ctx, *o.DeliveryID)
		if err != nil && !errors.Is(err, delivery.ErrDeliveryNotFound) {
			return nil, err
		}
	}

	var txn *TransactionInfo
	if s.txns != nil {
		txn, err = s.txns.FindInfoByReference(ctx, o.Reference)
		if err != nil {
			// A missing transaction just means payment has not started.
			txn = nil
		}
	}

	return BuildSummary(o, cust, txn, del), nil
}
