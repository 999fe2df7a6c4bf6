package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"net/http"
	"time"

	"jojos_back_end/internal/adapters/cardcheckout"
	"jojos_back_end/internal/adapters/mpesa"
	"jojos_back_end/internal/middleware"
	"jojos_back_end/internal/models"
	"jojos_back_end/internal/payments"
	"jojos_back_end/internal/repository"

	"github.com/gin-gonic/gin"
)

// PaymentHandler is the HTTP boundary of the payment flow. Provider-facing
// endpoints (webhook, callback) always emit their fixed acknowledgment shape
// no matter what the settle engine reports; outcomes are logged, never leaked
// into the provider contract.
type PaymentHandler struct {
	engine *payments.Engine
	orders repository.OrderRepository
	txns   repository.TransactionRepository

	card  cardcheckout.Provider
	mpesa *mpesa.Client

	baseURL   string
	kesPerUSD float64
}

func NewPaymentHandler(engine *payments.Engine, orders repository.OrderRepository, txns repository.TransactionRepository, card cardcheckout.Provider, mpesaClient *mpesa.Client, baseURL string, kesPerUSD float64) *PaymentHandler {
	return &PaymentHandler{
		engine:    engine,
		orders:    orders,
		txns:      txns,
		card:      card,
		mpesa:     mpesaClient,
		baseURL:   baseURL,
		kesPerUSD: kesPerUSD,
	}
}

// pendingOrderForUser loads the order and rejects checkout attempts on
// orders that are not the caller's or already paid.
func (h *PaymentHandler) pendingOrderForUser(c *gin.Context, orderID string) *models.Order {
	order, err := h.orders.FindByIDForUser(c.Request.Context(), orderID, c.GetString(middleware.CtxUserID))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return nil
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil
	}
	if order.PaymentStatus == models.PaymentStatusPaid {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Order is already paid"})
		return nil
	}
	return order
}

// StripeCheckout opens a hosted card-checkout session for an order and
// records the pending transaction keyed by the session id.
func (h *PaymentHandler) StripeCheckout(c *gin.Context) {
	var input struct {
		OrderID string `json:"order_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order := h.pendingOrderForUser(c, input.OrderID)
	if order == nil {
		return
	}

	// Stripe sessions are priced in USD cents; order totals stay in KES.
	usdCents := int64(math.Round(order.Total / h.kesPerUSD * 100))

	sess, err := h.card.CreateSession(c.Request.Context(), cardcheckout.CreateSessionParams{
		AmountMinor: usdCents,
		Currency:    "usd",
		ProductName: fmt.Sprintf("Jojos Boutick order %s", order.OrderID),
		SuccessURL:  h.baseURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   h.baseURL + "/payment/cancel",
		Metadata:    map[string]string{"order_id": order.OrderID, "user_id": order.UserID},
	})
	if err != nil {
		log.Println("❌ Stripe session creation failed:", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment provider unavailable"})
		return
	}

	now := time.Now().UTC()
	txn := models.PaymentTransaction{
		TransactionID: models.NewTransactionID(),
		OrderID:       order.OrderID,
		UserID:        order.UserID,
		Amount:        order.Total,
		Currency:      "KES",
		PaymentMethod: models.PaymentMethodStripe,
		SessionID:     sess.SessionID,
		Status:        models.PaymentStatusPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := h.txns.Insert(c.Request.Context(), txn); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.orders.SetPaymentAttempt(c.Request.Context(), order.OrderID, models.PaymentMethodStripe, sess.SessionID); err != nil {
		log.Println("⚠️ Payment attempt annotation failed:", err)
	}

	c.JSON(http.StatusOK, gin.H{"checkout_url": sess.URL, "session_id": sess.SessionID})
}

// StripeStatus polls the provider for a session and settles when it reports
// paid. The poll and the webhook race by design; Settle makes the race
// harmless.
func (h *PaymentHandler) StripeStatus(c *gin.Context) {
	sessionID := c.Param("session_id")

	status, err := h.card.GetStatus(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment provider unavailable"})
		return
	}

	if status.PaymentStatus == "paid" {
		outcome, err := h.engine.Settle(c.Request.Context(), models.PaymentMethodStripe, sessionID, "")
		if err != nil {
			log.Printf("❌ Settle from stripe poll failed (%s): %v", outcome, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":         status.Status,
		"payment_status": status.PaymentStatus,
		"amount_total":   status.AmountTotal,
		"currency":       status.Currency,
	})
}

// StripeWebhook receives provider events. It always returns the fixed
// acknowledgment after signature verification; settle failures are retried
// by the provider's redelivery.
func (h *PaymentHandler) StripeWebhook(c *gin.Context) {
	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unreadable payload"})
		return
	}

	event, err := h.card.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		log.Println("❌ Webhook rejected:", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	if event.SessionID != "" && event.PaymentStatus == "paid" {
		outcome, err := h.engine.Settle(c.Request.Context(), models.PaymentMethodStripe, event.SessionID, "")
		if err != nil {
			log.Printf("❌ Settle from stripe webhook failed (%s): %v", outcome, err)
		}
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// MpesaSTKPush initiates a mobile-money prompt. The pending transaction is
// persisted before this returns so the asynchronous callback always finds
// its correlation key.
func (h *PaymentHandler) MpesaSTKPush(c *gin.Context) {
	var input struct {
		OrderID string `json:"order_id" binding:"required"`
		Phone   string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !mpesa.ValidPhone(input.Phone) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Phone must be in the format 254XXXXXXXXX"})
		return
	}

	order := h.pendingOrderForUser(c, input.OrderID)
	if order == nil {
		return
	}

	ctx := c.Request.Context()

	token, err := h.mpesa.AccessToken(ctx)
	if err != nil {
		log.Println("❌ M-Pesa token fetch failed:", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment provider unavailable"})
		return
	}

	resp, err := h.mpesa.InitiatePush(ctx, token, mpesa.PushRequest{
		Amount:      int(math.Ceil(order.Total)),
		Phone:       input.Phone,
		CallbackURL: h.baseURL + "/api/payments/mpesa/callback",
		AccountRef:  order.OrderID,
		Description: "Payment for order " + order.OrderID,
	})
	if err != nil {
		var rejected *mpesa.RequestRejectedError
		if errors.As(err, &rejected) {
			// Provider said no: nothing is persisted for this attempt.
			c.JSON(http.StatusBadRequest, gin.H{"error": rejected.Description})
			return
		}
		log.Println("❌ STK push failed:", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "Payment provider unavailable"})
		return
	}

	now := time.Now().UTC()
	txn := models.PaymentTransaction{
		TransactionID:     models.NewTransactionID(),
		OrderID:           order.OrderID,
		UserID:            order.UserID,
		Amount:            order.Total,
		Currency:          "KES",
		PaymentMethod:     models.PaymentMethodMpesa,
		CheckoutRequestID: resp.CheckoutRequestID,
		Status:            models.PaymentStatusPending,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := h.txns.Insert(ctx, txn); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if err := h.orders.SetPaymentAttempt(ctx, order.OrderID, models.PaymentMethodMpesa, resp.CheckoutRequestID); err != nil {
		log.Println("⚠️ Payment attempt annotation failed:", err)
	}

	log.Printf("📲 STK push sent for order %s (key %s)", order.OrderID, resp.CheckoutRequestID)
	c.JSON(http.StatusOK, gin.H{
		"checkout_request_id": resp.CheckoutRequestID,
		"customer_message":    resp.CustomerMessage,
	})
}

// MpesaCallback receives the asynchronous STK result. Per the provider's
// delivery contract it always acknowledges with the fixed envelope, even
// when the payload is garbage or processing fails internally.
func (h *PaymentHandler) MpesaCallback(c *gin.Context) {
	raw, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusOK, mpesa.Ack())
		return
	}

	cb, err := mpesa.ParseCallback(raw)
	if err != nil || cb.CheckoutRequestID == "" {
		log.Println("⚠️ Unparseable M-Pesa callback — acknowledged and dropped")
		c.JSON(http.StatusOK, mpesa.Ack())
		return
	}

	ctx := c.Request.Context()
	if cb.Succeeded() {
		outcome, err := h.engine.Settle(ctx, models.PaymentMethodMpesa, cb.CheckoutRequestID, cb.Receipt())
		if err != nil {
			log.Printf("❌ Settle from mpesa callback failed (%s): %v", outcome, err)
		}
	} else {
		outcome, err := h.engine.Fail(ctx, models.PaymentMethodMpesa, cb.CheckoutRequestID)
		if err != nil {
			log.Printf("❌ Failure record from mpesa callback failed (%s): %v", outcome, err)
		} else if outcome == payments.MarkedFailed {
			log.Printf("❌ M-Pesa payment failed for key %s: %s", cb.CheckoutRequestID, cb.ResultDesc)
		}
	}

	c.JSON(http.StatusOK, mpesa.Ack())
}

// MpesaStatus lets the payer poll their own STK attempt.
func (h *PaymentHandler) MpesaStatus(c *gin.Context) {
	txn, err := h.txns.FindByCheckoutRequestIDForUser(c.Request.Context(), c.Param("checkout_request_id"), c.GetString(middleware.CtxUserID))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Transaction not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	resp := gin.H{"status": txn.Status, "order_id": txn.OrderID}
	if txn.MpesaReceipt != "" {
		resp["mpesa_receipt"] = txn.MpesaReceipt
	}
	c.JSON(http.StatusOK, resp)
}
