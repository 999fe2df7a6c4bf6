package services

import (
	"context"
	"encoding/json"
	"log"

	"jojos_back_end/internal/models"

	"github.com/redis/go-redis/v9"
)

// OrderNotifier fans a settled payment out to the customer: a confirmation
// email with the PDF receipt, and a Redis publish that wakes any WebSocket
// watchers on the order.
type OrderNotifier struct {
	mailer *Mailer
	rdb    *redis.Client
}

func NewOrderNotifier(mailer *Mailer, rdb *redis.Client) *OrderNotifier {
	return &OrderNotifier{mailer: mailer, rdb: rdb}
}

// OrderChannel is the pub/sub channel carrying an order's status events.
func OrderChannel(orderID string) string {
	return "order:" + orderID
}

// OrderPaid publishes the status flip immediately and runs the email off
// the settle path; a slow SMTP server must never delay a provider
// acknowledgment.
func (n *OrderNotifier) OrderPaid(ctx context.Context, order models.Order) {
	event, _ := json.Marshal(map[string]any{
		"order_id":       order.OrderID,
		"status":         models.OrderStatusProcessing,
		"payment_status": models.PaymentStatusPaid,
	})
	if err := n.rdb.Publish(ctx, OrderChannel(order.OrderID), event).Err(); err != nil {
		log.Println("⚠️ Order status publish failed:", err)
	}

	go func() {
		receipt, err := RenderReceiptPDF(order)
		if err != nil {
			log.Println("⚠️ Receipt PDF failed for", order.OrderID, ":", err)
			receipt = nil // email still goes out, just without the attachment
		}
		if err := n.mailer.SendOrderConfirmation(order, receipt); err != nil {
			log.Println("⚠️ Confirmation email failed for", order.OrderID, ":", err)
		}
	}()
}
