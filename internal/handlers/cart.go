package handlers

import (
	"net/http"

	"jojos_back_end/internal/cache"
	"jojos_back_end/internal/middleware"
	"jojos_back_end/internal/models"
	"jojos_back_end/internal/repository"

	"github.com/gin-gonic/gin"
)

// CartHandler serves both authenticated carts (keyed by user id) and
// anonymous carts (keyed by the cart_session cookie).
type CartHandler struct {
	carts    repository.CartRepository
	products *cache.ProductCache
}

func NewCartHandler(carts repository.CartRepository, products *cache.ProductCache) *CartHandler {
	return &CartHandler{carts: carts, products: products}
}

func cartOwner(c *gin.Context) (userID, sessionID string) {
	return c.GetString(middleware.CtxUserID), c.GetString(middleware.CtxCartSession)
}

// Get returns the caller's cart, creating an empty one on first touch.
func (h *CartHandler) Get(c *gin.Context) {
	userID, sessionID := cartOwner(c)

	cart, err := h.carts.GetOrCreate(c.Request.Context(), userID, sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart, "subtotal": cart.Subtotal()})
}

// AddItem snapshots the product into the cart, merging quantity when the
// same (product, size, color) line already exists.
func (h *CartHandler) AddItem(c *gin.Context) {
	var input struct {
		ProductID string `json:"product_id" binding:"required"`
		Quantity  int    `json:"quantity" binding:"required,gt=0"`
		Size      string `json:"size"`
		Color     string `json:"color"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()

	product, err := h.products.Get(ctx, input.ProductID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if !product.IsActive {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Product is no longer available"})
		return
	}

	userID, sessionID := cartOwner(c)
	cart, err := h.carts.GetOrCreate(ctx, userID, sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	image := ""
	if len(product.Images) > 0 {
		image = product.Images[0]
	}
	cart.MergeItem(models.CartItem{
		ProductID: product.ProductID,
		Name:      product.Name,
		Price:     product.Price,
		Quantity:  input.Quantity,
		Size:      input.Size,
		Color:     input.Color,
		Image:     image,
	})

	if err := h.carts.SetItems(ctx, userID, sessionID, cart.Items); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart, "subtotal": cart.Subtotal()})
}

// UpdateItem sets a line's quantity; zero or less removes the line.
func (h *CartHandler) UpdateItem(c *gin.Context) {
	var input struct {
		ProductID string `json:"product_id" binding:"required"`
		Quantity  int    `json:"quantity"`
		Size      string `json:"size"`
		Color     string `json:"color"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ctx := c.Request.Context()
	userID, sessionID := cartOwner(c)

	cart, err := h.carts.GetOrCreate(ctx, userID, sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items := cart.Items[:0]
	found := false
	for _, item := range cart.Items {
		if item.SameLine(input.ProductID, input.Size, input.Color) {
			found = true
			if input.Quantity <= 0 {
				continue // drop the line
			}
			item.Quantity = input.Quantity
		}
		items = append(items, item)
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Item not in cart"})
		return
	}
	cart.Items = items

	if err := h.carts.SetItems(ctx, userID, sessionID, cart.Items); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart, "subtotal": cart.Subtotal()})
}

// RemoveItem deletes a line outright.
func (h *CartHandler) RemoveItem(c *gin.Context) {
	productID := c.Param("product_id")
	size := c.Query("size")
	color := c.Query("color")

	ctx := c.Request.Context()
	userID, sessionID := cartOwner(c)

	cart, err := h.carts.GetOrCreate(ctx, userID, sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	items := cart.Items[:0]
	for _, item := range cart.Items {
		if item.SameLine(productID, size, color) {
			continue
		}
		items = append(items, item)
	}
	cart.Items = items

	if err := h.carts.SetItems(ctx, userID, sessionID, cart.Items); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cart": cart, "subtotal": cart.Subtotal()})
}

// Clear empties the cart.
func (h *CartHandler) Clear(c *gin.Context) {
	userID, sessionID := cartOwner(c)

	if err := h.carts.SetItems(c.Request.Context(), userID, sessionID, []models.CartItem{}); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Cart cleared"})
}
