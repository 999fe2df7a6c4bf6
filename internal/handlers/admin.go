package handlers

import (
	"net/http"

	"jojos_back_end/internal/models"
	"jojos_back_end/internal/repository"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	users    repository.UserRepository
	products repository.ProductRepository
	orders   repository.OrderRepository
}

func NewAdminHandler(users repository.UserRepository, products repository.ProductRepository, orders repository.OrderRepository) *AdminHandler {
	return &AdminHandler{users: users, products: products, orders: orders}
}

// Stats aggregates the dashboard numbers: order counts per status, catalog
// and user totals, and the revenue across paid orders.
func (h *AdminHandler) Stats(c *gin.Context) {
	ctx := c.Request.Context()

	statuses := []string{
		models.OrderStatusPending,
		models.OrderStatusProcessing,
		models.OrderStatusShipped,
		models.OrderStatusDelivered,
		models.OrderStatusCancelled,
	}
	ordersByStatus := gin.H{}
	var totalOrders int64
	for _, status := range statuses {
		count, err := h.orders.CountByStatus(ctx, status)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		ordersByStatus[status] = count
		totalOrders += count
	}

	activeProducts, err := h.products.CountActive(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	userCount, err := h.users.Count(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	revenue, err := h.orders.PaidRevenue(ctx)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"total_orders":     totalOrders,
		"orders_by_status": ordersByStatus,
		"active_products":  activeProducts,
		"total_users":      userCount,
		"total_revenue":    revenue,
	})
}
