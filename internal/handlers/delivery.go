package handlers

import (
	"errors"
	"net/http"

	"jojos_back_end/internal/adapters/pickupmtaani"
	"jojos_back_end/internal/repository"

	"github.com/gin-gonic/gin"
)

type DeliveryHandler struct {
	network *pickupmtaani.Client
	orders  repository.OrderRepository
}

func NewDeliveryHandler(network *pickupmtaani.Client, orders repository.OrderRepository) *DeliveryHandler {
	return &DeliveryHandler{network: network, orders: orders}
}

// Agents lists the pickup points available at checkout.
func (h *DeliveryHandler) Agents(c *gin.Context) {
	agents, mock, err := h.network.Agents(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Delivery network unavailable"})
		return
	}

	resp := gin.H{"agents": agents}
	if mock {
		resp["note"] = "Mock data"
	}
	c.JSON(http.StatusOK, resp)
}

// Charge quotes the agent delivery fee. The quote is advisory; order totals
// always use the fixed tariff.
func (h *DeliveryHandler) Charge(c *gin.Context) {
	agentID := c.Query("destination_agent_id")
	if agentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "destination_agent_id is required"})
		return
	}

	charge, err := h.network.AgentCharge(c.Request.Context(), agentID)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Delivery network unavailable"})
		return
	}
	c.JSON(http.StatusOK, charge)
}

// Track resolves a tracking number: a local order first, then the delivery
// network, then an explicit unknown envelope.
func (h *DeliveryHandler) Track(c *gin.Context) {
	trackingNumber := c.Param("tracking_number")
	ctx := c.Request.Context()

	order, err := h.orders.FindByTracking(ctx, trackingNumber)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{
			"source":          "local",
			"tracking_number": trackingNumber,
			"order_id":        order.OrderID,
			"status":          order.Status,
			"delivery_method": order.DeliveryMethod,
		})
		return
	}
	if !errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if info, err := h.network.Track(ctx, trackingNumber); err == nil {
		c.JSON(http.StatusOK, gin.H{"source": "pickup_mtaani", "tracking": info})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"source":          "unknown",
		"tracking_number": trackingNumber,
		"status":          "not_found",
	})
}
