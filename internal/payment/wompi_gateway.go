package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"tienda-be/internal/logger"
	"tienda-be/internal/metrics"

	"go.uber.org/zap"
)

type wompiGateway struct {
	baseURL    string
	publicKey  string
	privateKey string
	httpClient *http.Client
}

func NewWompiGateway(baseURL, publicKey, privateKey string, timeout time.Duration) Gateway {
	if publicKey == "" || privateKey == "" {
		logger.L().Warn("Wompi API keys are empty")
	}

	return &wompiGateway{
		baseURL:    baseURL,
		publicKey:  publicKey,
		privateKey: privateKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// GetAcceptanceToken fetches the merchant's presigned acceptance token,
// required by Wompi before any charge is accepted.
func (g *wompiGateway) GetAcceptanceToken(ctx context.Context) (string, error) {
	log := logger.FromCtx(ctx)

	url := fmt.Sprintf("%s/merchants/%s", g.baseURL, g.publicKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	bodyBytes, err := g.do(ctx, req)
	if err != nil {
		return "", err
	}

	var res struct {
		Data struct {
			PresignedAcceptance struct {
				AcceptanceToken string `json:"acceptance_token"`
			} `json:"presigned_acceptance"`
		} `json:"data"`
	}
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		log.Error("Failed decoding merchant response", zap.Error(err))
		return "", err
	}

	token := res.Data.PresignedAcceptance.AcceptanceToken
	if token == "" {
		log.Error("Merchant response missing acceptance token")
		return "", errors.New("acceptance token not present in merchant response")
	}

	return token, nil
}

func (g *wompiGateway) CreateTransaction(ctx context.Context, params ChargeParams) (*GatewayTransaction, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("reference", params.Reference),
		zap.Int64("amount_in_cents", params.AmountInCents),
		zap.String("method", params.Method.Type),
	)

	paymentMethod := map[string]interface{}{
		"type": params.Method.Type,
	}
	switch params.Method.Type {
	case MethodCard:
		paymentMethod["token"] = params.Method.Token
		installments := params.Method.Installments
		if installments <= 0 {
			installments = 1
		}
		paymentMethod["installments"] = installments
	case MethodNequi:
		paymentMethod["phone_number"] = params.Method.PhoneNumber
	}

	body := map[string]interface{}{
		"acceptance_token": params.AcceptanceToken,
		"amount_in_cents":  params.AmountInCents,
		"currency":         params.Currency,
		"customer_email":   params.CustomerEmail,
		"reference":        params.Reference,
		"payment_method":   paymentMethod,
	}
	if params.CustomerData != nil {
		body["customer_data"] = params.CustomerData
	}
	if params.ShippingAddress != nil {
		body["shipping_address"] = params.ShippingAddress
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		log.Error("Failed to marshal charge request", zap.Error(err))
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/transactions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, err
	}
	req.Header.Add("Content-Type", "application/json")
	req.Header.Add("Authorization", "Bearer "+g.privateKey)

	log.Info("Sending charge to Wompi")

	bodyBytes, err := g.do(ctx, req)
	if err != nil {
		return nil, err
	}

	txn, err := decodeTransaction(bodyBytes)
	if err != nil {
		log.Error("Failed decoding Wompi transaction", zap.Error(err))
		return nil, err
	}

	log.Info("Wompi transaction created",
		zap.String("wompi_id", txn.ID),
		zap.String("status", txn.Status),
	)

	return txn, nil
}

func (g *wompiGateway) GetTransaction(ctx context.Context, id string) (*GatewayTransaction, error) {
	log := logger.FromCtx(ctx).With(zap.String("wompi_id", id))

	url := fmt.Sprintf("%s/transactions/%s", g.baseURL, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Add("Authorization", "Bearer "+g.privateKey)

	bodyBytes, err := g.do(ctx, req)
	if err != nil {
		return nil, err
	}

	txn, err := decodeTransaction(bodyBytes)
	if err != nil {
		log.Error("Failed decoding Wompi transaction", zap.Error(err))
		return nil, err
	}

	return txn, nil
}

// do executes the request and splits failures into the two classes the
// callers care about: the gateway refusing (4xx) versus the gateway
// being unreachable or broken (transport error, timeout, 5xx).
func (g *wompiGateway) do(ctx context.Context, req *http.Request) ([]byte, error) {
	log := logger.FromCtx(ctx)
	timer := metrics.StartTimer()

	resp, err := g.httpClient.Do(req)
	if err != nil {
		log.Error("Wompi request failed", zap.Error(err), zap.Duration("elapsed", timer.Duration()))
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrGatewayUnavailable, err)
	}

	log.Debug("Wompi response",
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", timer.Duration()),
	)

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		log.Error("Wompi returned server error",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	case resp.StatusCode >= http.StatusBadRequest:
		log.Warn("Wompi rejected request",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("response", bodyBytes),
		)
		return nil, &GatewayRejection{Detail: string(bodyBytes)}
	}

	return bodyBytes, nil
}

func decodeTransaction(bodyBytes []byte) (*GatewayTransaction, error) {
	var res struct {
		Data struct {
			ID                string `json:"id"`
			Reference         string `json:"reference"`
			Status            string `json:"status"`
			AmountInCents     int64  `json:"amount_in_cents"`
			Currency          string `json:"currency"`
			PaymentMethodType string `json:"payment_method_type"`
		} `json:"data"`
	}
	if err := json.Unmarshal(bodyBytes, &res); err != nil {
		return nil, err
	}

	if res.Data.ID == "" {
		// A malformed body is a failure, never an implicit decline.
		return nil, errors.New("transaction id not present in gateway response")
	}

	return &GatewayTransaction{
		ID:                res.Data.ID,
		Reference:         res.Data.Reference,
		Status:            res.Data.Status,
		AmountInCents:     res.Data.AmountInCents,
		Currency:          res.Data.Currency,
		PaymentMethodType: res.Data.PaymentMethodType,
		Raw:               json.RawMessage(bodyBytes),
	}, nil
}
