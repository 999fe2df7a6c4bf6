package handlers

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"jojos_back_end/internal/middleware"
	"jojos_back_end/internal/models"
	"jojos_back_end/internal/repository"
	"jojos_back_end/internal/services"

	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	orders repository.OrderRepository
	carts  repository.CartRepository
}

func NewOrderHandler(orders repository.OrderRepository, carts repository.CartRepository) *OrderHandler {
	return &OrderHandler{orders: orders, carts: carts}
}

// Create snapshots the caller's cart into a pending order. Totals are fixed
// here and never recomputed from live prices; the cart itself is left
// untouched until payment settles.
func (h *OrderHandler) Create(c *gin.Context) {
	var input struct {
		DeliveryMethod  string         `json:"delivery_method" binding:"required,oneof=pickup_mtaani doorstep"`
		DeliveryAddress map[string]any `json:"delivery_address"`
		PickupAgentID   string         `json:"pickup_agent_id"`
		CustomerPhone   string         `json:"customer_phone" binding:"required"`
		CustomerEmail   string         `json:"customer_email" binding:"required,email"`
		CustomerName    string         `json:"customer_name" binding:"required"`
		Notes           string         `json:"notes"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if input.DeliveryMethod == models.DeliveryPickupMtaani && input.PickupAgentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "pickup_agent_id is required for Pick Up Mtaani delivery"})
		return
	}
	if input.DeliveryMethod == models.DeliveryDoorstep && len(input.DeliveryAddress) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "delivery_address is required for doorstep delivery"})
		return
	}

	ctx := c.Request.Context()
	userID := c.GetString(middleware.CtxUserID)

	cart, err := h.carts.Find(ctx, userID, "")
	if err != nil || len(cart.Items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cart is empty"})
		return
	}

	subtotal := cart.Subtotal()
	fee := models.DeliveryFeeFor(input.DeliveryMethod)
	now := time.Now().UTC()

	order := models.Order{
		OrderID:         models.NewOrderID(),
		UserID:          userID,
		Items:           cart.Items,
		Subtotal:        subtotal,
		DeliveryFee:     fee,
		Total:           subtotal + fee,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		DeliveryMethod:  input.DeliveryMethod,
		DeliveryAddress: input.DeliveryAddress,
		PickupAgentID:   input.PickupAgentID,
		CustomerPhone:   input.CustomerPhone,
		CustomerEmail:   input.CustomerEmail,
		CustomerName:    input.CustomerName,
		Notes:           input.Notes,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := h.orders.Insert(ctx, order); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("🧾 Order %s created for %s (total KES %.2f)", order.OrderID, userID, order.Total)
	c.JSON(http.StatusCreated, gin.H{"order_id": order.OrderID, "total": order.Total})
}

// ListMine returns the caller's orders, newest first.
func (h *OrderHandler) ListMine(c *gin.Context) {
	orders, err := h.orders.ListByUser(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders})
}

// Get returns one order, owner only.
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.orders.FindByIDForUser(c.Request.Context(), c.Param("id"), c.GetString(middleware.CtxUserID))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, order)
}

// Invoice renders the order receipt as a PDF, owner only.
func (h *OrderHandler) Invoice(c *gin.Context) {
	order, err := h.orders.FindByIDForUser(c.Request.Context(), c.Param("id"), c.GetString(middleware.CtxUserID))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
		return
	}

	pdf, err := services.RenderReceiptPDF(*order)
	if err != nil {
		log.Println("❌ Invoice render failed:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Invoice rendering failed"})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=receipt_%s.pdf", order.OrderID))
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// AdminList pages through all orders, optionally filtered by status.
func (h *OrderHandler) AdminList(c *gin.Context) {
	status := c.Query("status")
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	skip, _ := strconv.ParseInt(c.DefaultQuery("skip", "0"), 10, 64)

	orders, total, err := h.orders.ListAll(c.Request.Context(), status, skip, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"orders": orders, "total": total})
}

// AdminUpdateStatus moves an order along the fulfilment pipeline, optionally
// attaching the delivery tracking number.
func (h *OrderHandler) AdminUpdateStatus(c *gin.Context) {
	var input struct {
		Status         string `json:"status" binding:"required,oneof=pending processing shipped delivered cancelled"`
		TrackingNumber string `json:"tracking_number"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	orderID := c.Param("id")
	if err := h.orders.UpdateStatus(c.Request.Context(), orderID, input.Status, input.TrackingNumber); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Order not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Printf("📦 Order %s → %s", orderID, input.Status)
	c.JSON(http.StatusOK, gin.H{"message": "Order updated", "status": input.Status})
}
