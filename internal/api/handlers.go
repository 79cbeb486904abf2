package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"tienda-be/internal/logger"
	"tienda-be/internal/order"
	"tienda-be/internal/payment"
	"tienda-be/internal/product"
	"tienda-be/internal/utils"

	"go.uber.org/zap"
)

// Handler is the thin HTTP surface over the order and payment
// services. All decisions live in the services; this layer only
// decodes, dispatches and maps errors to status codes.
type Handler struct {
	Orders     order.Service
	Payments   payment.Service
	Reconciler *payment.Reconciler
	Products   product.Repository
}

func NewHandler(orders order.Service, payments payment.Service, reconciler *payment.Reconciler, products product.Repository) *Handler {
	return &Handler{
		Orders:     orders,
		Payments:   payments,
		Reconciler: reconciler,
		Products:   products,
	}
}

func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /orders", h.CreateOrder)
	mux.HandleFunc("GET /orders/{reference}", h.GetOrder)
	mux.HandleFunc("POST /orders/{reference}/payments", h.PayOrder)
	mux.HandleFunc("GET /payments/{wompiID}/status", h.PollPayment)
	mux.HandleFunc("GET /products", h.ListProducts)
	return mux
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var input order.CreateOrderInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	result, err := h.Orders.CreateOrder(r.Context(), input)
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}

	utils.WriteJSON(w, result, http.StatusCreated)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	reference := r.PathValue("reference")

	summary, err := h.Orders.GetSummary(r.Context(), reference)
	if err != nil {
		h.writeOrderError(w, r, err)
		return
	}

	utils.WriteJSON(w, summary, http.StatusOK)
}

func (h *Handler) PayOrder(w http.ResponseWriter, r *http.Request) {
	var input payment.PayOrderInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}
	input.Reference = r.PathValue("reference")

	result, err := h.Payments.ProcessPayment(r.Context(), input)
	if err != nil {
		h.writePaymentError(w, r, err)
		return
	}

	utils.WriteJSON(w, result, http.StatusOK)
}

func (h *Handler) PollPayment(w http.ResponseWriter, r *http.Request) {
	wompiID := r.PathValue("wompiID")

	result, err := h.Reconciler.PollTransaction(r.Context(), wompiID)
	if err != nil {
		h.writePaymentError(w, r, err)
		return
	}

	utils.WriteJSON(w, result, http.StatusOK)
}

func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.Products.List(r.Context(), 50, 0)
	if err != nil {
		logger.FromCtx(r.Context()).Error("product list failed", zap.Error(err))
		utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
		return
	}

	utils.WriteJSON(w, products, http.StatusOK)
}

func (h *Handler) writeOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var mismatch *order.PriceMismatchError
	var validation *order.ValidationError

	switch {
	case errors.As(err, &mismatch):
		utils.WriteJSON(w, map[string]any{
			"error":      "amount mismatch",
			"provided":   mismatch.Provided,
			"calculated": mismatch.Calculated,
		}, http.StatusUnprocessableEntity)
	case errors.As(err, &validation):
		utils.WriteJSONError(w, validation.Message, http.StatusUnprocessableEntity)
	case errors.Is(err, order.ErrOrderNotFound):
		utils.WriteJSONError(w, "order not found", http.StatusNotFound)
	default:
		logger.FromCtx(r.Context()).Error("order request failed", zap.Error(err))
		utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writePaymentError(w http.ResponseWriter, r *http.Request, err error) {
	var failed *payment.PaymentFailedError
	var validation *order.ValidationError
	var serverErr *payment.ServerError

	switch {
	case errors.As(err, &validation):
		utils.WriteJSONError(w, validation.Message, http.StatusUnprocessableEntity)
	case errors.Is(err, order.ErrOrderNotFound),
		errors.Is(err, payment.ErrTransactionNotFound):
		utils.WriteJSONError(w, "not found", http.StatusNotFound)
	case errors.Is(err, payment.ErrOrderAlreadyPaid):
		utils.WriteJSONError(w, "order already paid", http.StatusConflict)
	case errors.As(err, &failed):
		utils.WriteJSON(w, map[string]string{
			"error":  "payment failed",
			"detail": failed.Reason,
		}, http.StatusPaymentRequired)
	case errors.As(err, &serverErr):
		logger.FromCtx(r.Context()).Error("payment pipeline failed",
			zap.String("step", serverErr.Step),
			zap.Error(serverErr.Err),
		)
		if errors.Is(err, payment.ErrGatewayUnavailable) {
			utils.WriteJSONError(w, "payment gateway unavailable", http.StatusBadGateway)
			return
		}
		utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
	default:
		logger.FromCtx(r.Context()).Error("payment request failed", zap.Error(err))
		utils.WriteJSONError(w, "internal server error", http.StatusInternalServerError)
	}
}
