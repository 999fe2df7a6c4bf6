package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jojos_back_end/internal/adapters/cardcheckout"
	"jojos_back_end/internal/models"
	"jojos_back_end/internal/payments"
	"jojos_back_end/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubTxns struct {
	repository.TransactionRepository
	byKey map[string]*models.PaymentTransaction
}

func (s *stubTxns) FindByCorrelationKey(ctx context.Context, method, key string) (*models.PaymentTransaction, error) {
	if txn, ok := s.byKey[key]; ok {
		return txn, nil
	}
	return nil, repository.ErrNotFound
}

func (s *stubTxns) MarkPaid(ctx context.Context, method, key, receipt string) (bool, error) {
	txn := s.byKey[key]
	if txn.Status == models.PaymentStatusPaid {
		return false, nil
	}
	txn.Status = models.PaymentStatusPaid
	if receipt != "" {
		txn.MpesaReceipt = receipt
	}
	return true, nil
}

func (s *stubTxns) MarkFailed(ctx context.Context, method, key string) (bool, error) {
	txn := s.byKey[key]
	if txn.Status != models.PaymentStatusPending {
		return false, nil
	}
	txn.Status = models.PaymentStatusFailed
	return true, nil
}

type settleOrders struct {
	repository.OrderRepository
	paid []string
}

func (s *settleOrders) MarkPaid(ctx context.Context, orderID string) error {
	s.paid = append(s.paid, orderID)
	return nil
}

type stubCard struct {
	event *cardcheckout.WebhookEvent
	err   error
}

func (s *stubCard) CreateSession(ctx context.Context, p cardcheckout.CreateSessionParams) (*cardcheckout.Session, error) {
	return nil, nil
}

func (s *stubCard) GetStatus(ctx context.Context, sessionID string) (*cardcheckout.SessionStatus, error) {
	return nil, nil
}

func (s *stubCard) VerifyWebhook(payload []byte, signature string) (*cardcheckout.WebhookEvent, error) {
	return s.event, s.err
}

func paymentFixture(card cardcheckout.Provider, txns *stubTxns) (*PaymentHandler, *settleOrders, *stubCarts, *gin.Engine) {
	orders := &settleOrders{}
	carts := &stubCarts{}
	engine := payments.NewEngine(txns, orders, carts, nil)
	h := NewPaymentHandler(engine, orders, txns, card, nil, "http://localhost:8080", 130)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/payments/mpesa/callback", h.MpesaCallback)
	r.POST("/api/webhook/stripe", h.StripeWebhook)
	return h, orders, carts, r
}

func post(r *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	return w
}

const mpesaAck = `{"ResultCode":0,"ResultDesc":"Accepted"}`

func successCallback(key string) string {
	return `{
		"Body": {"stkCallback": {
			"CheckoutRequestID": "` + key + `",
			"ResultCode": 0,
			"CallbackMetadata": {"Item": [{"Name": "MpesaReceiptNumber", "Value": "NLJ7RT61SV"}]}
		}}
	}`
}

func TestMpesaCallbackAcksGarbage(t *testing.T) {
	txns := &stubTxns{byKey: map[string]*models.PaymentTransaction{}}
	_, orders, _, r := paymentFixture(nil, txns)

	w := post(r, "/api/payments/mpesa/callback", "not even json")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, mpesaAck, w.Body.String())
	assert.Empty(t, orders.paid)
}

func TestMpesaCallbackOrphanAcksWithoutWrites(t *testing.T) {
	txns := &stubTxns{byKey: map[string]*models.PaymentTransaction{}}
	_, orders, carts, r := paymentFixture(nil, txns)

	w := post(r, "/api/payments/mpesa/callback", successCallback("ws_CO_unknown"))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, mpesaAck, w.Body.String())
	assert.Empty(t, orders.paid)
	assert.False(t, carts.cleared)
}

func TestMpesaCallbackSettlesPendingTransaction(t *testing.T) {
	txn := &models.PaymentTransaction{
		TransactionID:     "txn_abc123def456",
		OrderID:           "ord_abc123def456",
		UserID:            "user_abc123def456",
		PaymentMethod:     models.PaymentMethodMpesa,
		CheckoutRequestID: "ws_CO_191220191020",
		Status:            models.PaymentStatusPending,
	}
	txns := &stubTxns{byKey: map[string]*models.PaymentTransaction{txn.CheckoutRequestID: txn}}
	_, orders, carts, r := paymentFixture(nil, txns)

	w := post(r, "/api/payments/mpesa/callback", successCallback(txn.CheckoutRequestID))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, mpesaAck, w.Body.String())
	assert.Equal(t, models.PaymentStatusPaid, txn.Status)
	assert.Equal(t, "NLJ7RT61SV", txn.MpesaReceipt)
	assert.Equal(t, []string{"ord_abc123def456"}, orders.paid)
	assert.True(t, carts.cleared)
}

func TestMpesaCallbackDuplicateIsNoOpSuccess(t *testing.T) {
	txn := &models.PaymentTransaction{
		OrderID:           "ord_abc123def456",
		UserID:            "user_abc123def456",
		CheckoutRequestID: "ws_CO_191220191020",
		Status:            models.PaymentStatusPending,
	}
	txns := &stubTxns{byKey: map[string]*models.PaymentTransaction{txn.CheckoutRequestID: txn}}
	_, orders, _, r := paymentFixture(nil, txns)

	post(r, "/api/payments/mpesa/callback", successCallback(txn.CheckoutRequestID))
	w := post(r, "/api/payments/mpesa/callback", successCallback(txn.CheckoutRequestID))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, mpesaAck, w.Body.String())
	assert.Equal(t, models.PaymentStatusPaid, txn.Status)
	// Order writes re-applied on replay, both against the same order.
	assert.Equal(t, []string{"ord_abc123def456", "ord_abc123def456"}, orders.paid)
}

func TestMpesaCallbackFailureNeverDowngradesPaid(t *testing.T) {
	txn := &models.PaymentTransaction{
		OrderID:           "ord_abc123def456",
		UserID:            "user_abc123def456",
		CheckoutRequestID: "ws_CO_191220191020",
		Status:            models.PaymentStatusPaid,
	}
	txns := &stubTxns{byKey: map[string]*models.PaymentTransaction{txn.CheckoutRequestID: txn}}
	_, _, _, r := paymentFixture(nil, txns)

	w := post(r, "/api/payments/mpesa/callback", `{
		"Body": {"stkCallback": {
			"CheckoutRequestID": "ws_CO_191220191020",
			"ResultCode": 1032,
			"ResultDesc": "Request cancelled by user."
		}}
	}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, mpesaAck, w.Body.String())
	assert.Equal(t, models.PaymentStatusPaid, txn.Status)
}

func TestMpesaCallbackFailureMarksPending(t *testing.T) {
	txn := &models.PaymentTransaction{
		OrderID:           "ord_abc123def456",
		UserID:            "user_abc123def456",
		CheckoutRequestID: "ws_CO_191220191020",
		Status:            models.PaymentStatusPending,
	}
	txns := &stubTxns{byKey: map[string]*models.PaymentTransaction{txn.CheckoutRequestID: txn}}
	_, orders, _, r := paymentFixture(nil, txns)

	w := post(r, "/api/payments/mpesa/callback", `{
		"Body": {"stkCallback": {
			"CheckoutRequestID": "ws_CO_191220191020",
			"ResultCode": 1,
			"ResultDesc": "The balance is insufficient for the transaction"
		}}
	}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.PaymentStatusFailed, txn.Status)
	assert.Empty(t, orders.paid)
}

func TestStripeWebhookSettles(t *testing.T) {
	txn := &models.PaymentTransaction{
		OrderID:       "ord_abc123def456",
		UserID:        "user_abc123def456",
		PaymentMethod: models.PaymentMethodStripe,
		SessionID:     "cs_test_abc",
		Status:        models.PaymentStatusPending,
	}
	txns := &stubTxns{byKey: map[string]*models.PaymentTransaction{txn.SessionID: txn}}
	card := &stubCard{event: &cardcheckout.WebhookEvent{
		Type:          "checkout.session.completed",
		SessionID:     "cs_test_abc",
		PaymentStatus: "paid",
	}}
	_, orders, carts, r := paymentFixture(card, txns)

	w := post(r, "/api/webhook/stripe", `{}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
	assert.Equal(t, models.PaymentStatusPaid, txn.Status)
	assert.Equal(t, []string{"ord_abc123def456"}, orders.paid)
	assert.True(t, carts.cleared)
}

func TestStripeWebhookRejectsBadSignature(t *testing.T) {
	txns := &stubTxns{byKey: map[string]*models.PaymentTransaction{}}
	card := &stubCard{err: assert.AnError}
	_, orders, _, r := paymentFixture(card, txns)

	w := post(r, "/api/webhook/stripe", `{}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Empty(t, orders.paid)
}

func TestStripeWebhookIgnoresUnrelatedEvents(t *testing.T) {
	txns := &stubTxns{byKey: map[string]*models.PaymentTransaction{}}
	card := &stubCard{event: &cardcheckout.WebhookEvent{Type: "invoice.created"}}
	_, orders, _, r := paymentFixture(card, txns)

	w := post(r, "/api/webhook/stripe", `{}`)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"received":true}`, w.Body.String())
	assert.Empty(t, orders.paid)
}
