package handlers

import (
	"log"
	"net/http"
	"time"

	"jojos_back_end/internal/middleware"
	"jojos_back_end/internal/repository"
	"jojos_back_end/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the storefront origin once it is pinned down.
		return true
	},
}

// OrderWSHandler streams an order's payment status over a WebSocket. The
// settle engine publishes status flips to the order's Redis channel; this
// handler relays them and pings every 30s to keep the connection alive.
type OrderWSHandler struct {
	orders repository.OrderRepository
	rdb    *redis.Client
}

func NewOrderWSHandler(orders repository.OrderRepository, rdb *redis.Client) *OrderWSHandler {
	return &OrderWSHandler{orders: orders, rdb: rdb}
}

func (h *OrderWSHandler) Stream(c *gin.Context) {
	order, err := h.orders.FindByIDForUser(c.Request.Context(), c.Param("id"), c.GetString(middleware.CtxUserID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("❌ WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	pubsub := h.rdb.Subscribe(ctx, services.OrderChannel(order.OrderID))
	defer pubsub.Close()
	ch := pubsub.Channel()

	// Current state first, so a watcher joining after the flip is not stuck.
	conn.WriteJSON(map[string]any{
		"type":           "connected",
		"order_id":       order.OrderID,
		"status":         order.Status,
		"payment_status": order.PaymentStatus,
	})

	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.Printf("❌ WebSocket write failed: %v", err)
				return
			}
		case <-time.After(30 * time.Second):
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
