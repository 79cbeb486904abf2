package webhook

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"tienda-be/internal/logger"
	"tienda-be/internal/payment"
	"tienda-be/internal/utils"

	"go.uber.org/zap"
)

// Event is the envelope Wompi pushes on every transaction update.
type Event struct {
	Event string `json:"event"`
	Data  struct {
		Transaction struct {
			ID            string `json:"id"`
			Status        string `json:"status"`
			Reference     string `json:"reference"`
			AmountInCents int64  `json:"amount_in_cents"`
		} `json:"transaction"`
	} `json:"data"`
	Timestamp int64 `json:"timestamp"`
	Signature struct {
		Checksum   string   `json:"checksum"`
		Properties []string `json:"properties"`
	} `json:"signature"`
}

// Handler receives Wompi event callbacks and feeds them to the
// reconciler. Redelivery and out-of-order arrival are expected; the
// reconciler's transition guard absorbs them.
type Handler struct {
	Reconciler   *payment.Reconciler
	EventsSecret string
}

func NewHandler(reconciler *payment.Reconciler, eventsSecret string) *Handler {
	return &Handler{
		Reconciler:   reconciler,
		EventsSecret: eventsSecret,
	}
}

func (h *Handler) WebhookHandler(w http.ResponseWriter, r *http.Request) {
	log := logger.FromCtx(r.Context())

	// 1. Read and decode the event
	body, err := io.ReadAll(r.Body)
	if err != nil {
		utils.WriteJSONError(w, "failed to read body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		utils.WriteJSONError(w, "invalid JSON payload", http.StatusBadRequest)
		return
	}

	// 2. Verify the event checksum
	if err := h.verifyChecksum(body, &event); err != nil {
		log.Warn("webhook signature rejected", zap.Error(err))
		utils.WriteJSONError(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	txn := event.Data.Transaction
	if txn.ID == "" {
		utils.WriteJSONError(w, "event has no transaction", http.StatusBadRequest)
		return
	}

	log.Info("wompi event received",
		zap.String("event", event.Event),
		zap.String("wompi_id", txn.ID),
		zap.String("status", txn.Status),
	)

	// 3. Merge the reported status
	res, err := h.Reconciler.ReconcileStatus(r.Context(), txn.ID, payment.TransactionStatus(txn.Status), body)
	if err != nil {
		if errors.Is(err, payment.ErrTransactionNotFound) {
			utils.WriteJSONError(w, "unknown transaction", http.StatusNotFound)
			return
		}
		log.Error("webhook reconciliation failed", zap.Error(err))
		utils.WriteJSONError(w, "failed to process event", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]any{
		"order_status": res.OrderStatus,
	})
}

// verifyChecksum checks Wompi's event signature: SHA-256 over the
// concatenated signed properties, the timestamp and the events secret.
func (h *Handler) verifyChecksum(body []byte, event *Event) error {
	if h.EventsSecret == "" {
		return nil // skip in dev
	}

	var generic map[string]any
	if err := json.Unmarshal(body, &generic); err != nil {
		return err
	}

	var sb strings.Builder
	for _, prop := range event.Signature.Properties {
		val, ok := lookupPath(generic["data"], prop)
		if !ok {
			return fmt.Errorf("signed property %q missing from event", prop)
		}
		sb.WriteString(formatProperty(val))
	}
	sb.WriteString(fmt.Sprint(event.Timestamp))
	sb.WriteString(h.EventsSecret)

	sum := sha256.Sum256([]byte(sb.String()))
	computed := hex.EncodeToString(sum[:])

	expected := strings.ToLower(event.Signature.Checksum)
	if subtle.ConstantTimeCompare([]byte(computed), []byte(expected)) != 1 {
		return errors.New("checksum mismatch")
	}
	return nil
}

func lookupPath(root any, path string) (any, bool) {
	current := root
	for _, part := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// formatProperty renders a signed value the way Wompi concatenates it:
// integers without a decimal point.
func formatProperty(v any) string {
	if f, ok := v.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprint(int64(f))
	}
	return fmt.Sprint(v)
}
