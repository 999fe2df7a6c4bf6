package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"jojos_back_end/internal/cache"
	"jojos_back_end/internal/middleware"
	"jojos_back_end/internal/models"
	"jojos_back_end/internal/repository"
	"jojos_back_end/internal/services"

	"github.com/gin-gonic/gin"
)

// Categories the storefront knows about.
var Categories = []string{"dresses", "skirts", "coats", "2_piece", "sunglasses"}

type ProductHandler struct {
	products repository.ProductRepository
	reviews  repository.ReviewRepository
	search   *services.SearchService
	images   *services.ImageStore
	cache    *cache.ProductCache
}

func NewProductHandler(products repository.ProductRepository, reviews repository.ReviewRepository, search *services.SearchService, images *services.ImageStore, productCache *cache.ProductCache) *ProductHandler {
	return &ProductHandler{products: products, reviews: reviews, search: search, images: images, cache: productCache}
}

// List serves the storefront catalog with filters and pagination.
func (h *ProductHandler) List(c *gin.Context) {
	filter := repository.ProductFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	}
	if v := c.Query("featured"); v != "" {
		featured := v == "true"
		filter.Featured = &featured
	}
	if v, err := strconv.ParseFloat(c.Query("min_price"), 64); err == nil {
		filter.MinPrice = &v
	}
	if v, err := strconv.ParseFloat(c.Query("max_price"), 64); err == nil {
		filter.MaxPrice = &v
	}
	filter.Limit, _ = strconv.ParseInt(c.DefaultQuery("limit", "50"), 10, 64)
	filter.Skip, _ = strconv.ParseInt(c.DefaultQuery("skip", "0"), 10, 64)

	products, total, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "total": total})
}

// Get returns one product with its reviews.
func (h *ProductHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	product, err := h.products.FindByID(ctx, c.Param("id"))
	if errors.Is(err, repository.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	reviews, err := h.reviews.ListByProduct(ctx, product.ProductID)
	if err != nil {
		reviews = []models.Review{}
	}

	c.JSON(http.StatusOK, gin.H{"product": product, "reviews": reviews})
}

// Search runs a text query against the search index.
func (h *ProductHandler) Search(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query parameter q is required"})
		return
	}
	limit, _ := strconv.ParseInt(c.DefaultQuery("limit", "20"), 10, 64)

	products, err := h.search.Search(c.Request.Context(), query, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products, "total": len(products)})
}

// ListCategories returns the fixed category set.
func (h *ProductHandler) ListCategories(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"categories": Categories})
}

type productInput struct {
	Name        string   `json:"name" binding:"required"`
	Description string   `json:"description"`
	Price       float64  `json:"price" binding:"required,gt=0"`
	Category    string   `json:"category" binding:"required"`
	Images      []string `json:"images"`
	Sizes       []string `json:"sizes"`
	Colors      []string `json:"colors"`
	Stock       int      `json:"stock"`
	IsFeatured  bool     `json:"is_featured"`
}

// Create adds a catalog product. Admin only.
func (h *ProductHandler) Create(c *gin.Context) {
	var input productInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	product := models.Product{
		ProductID:   models.NewProductID(),
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Category:    input.Category,
		Images:      input.Images,
		Sizes:       input.Sizes,
		Colors:      input.Colors,
		Stock:       input.Stock,
		IsFeatured:  input.IsFeatured,
		IsActive:    true,
		CreatedAt:   time.Now().UTC(),
	}
	if product.Images == nil {
		product.Images = []string{}
	}

	if err := h.products.Insert(c.Request.Context(), product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.search.IndexProduct(c.Request.Context(), product)
	log.Println("🛍️ Product created:", product.ProductID)
	c.JSON(http.StatusCreated, product)
}

// Update patches product fields. Admin only.
func (h *ProductHandler) Update(c *gin.Context) {
	productID := c.Param("id")

	var input map[string]any
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Whitelist the mutable fields.
	allowed := map[string]bool{
		"name": true, "description": true, "price": true, "category": true,
		"images": true, "sizes": true, "colors": true, "stock": true,
		"is_featured": true, "is_active": true,
	}
	fields := map[string]any{}
	for k, v := range input {
		if allowed[k] {
			fields[k] = v
		}
	}
	if len(fields) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No updatable fields provided"})
		return
	}

	if err := h.products.Update(c.Request.Context(), productID, fields); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.cache.Invalidate(c.Request.Context(), productID)
	if product, err := h.products.FindByID(c.Request.Context(), productID); err == nil {
		h.search.IndexProduct(c.Request.Context(), *product)
		c.JSON(http.StatusOK, product)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Product updated"})
}

// Delete removes a product. Admin only.
func (h *ProductHandler) Delete(c *gin.Context) {
	productID := c.Param("id")

	if err := h.products.Delete(c.Request.Context(), productID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.cache.Invalidate(c.Request.Context(), productID)
	h.search.RemoveProduct(c.Request.Context(), productID)
	c.JSON(http.StatusOK, gin.H{"message": "Product deleted"})
}

// UploadImage stores a product image in object storage and appends its URL.
// Admin only.
func (h *ProductHandler) UploadImage(c *gin.Context) {
	productID := c.Param("id")

	if _, err := h.products.FindByID(c.Request.Context(), productID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	file, err := c.FormFile("image")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image file required"})
		return
	}

	url, err := h.images.UploadProductImage(c.Request.Context(), productID, file)
	if err != nil {
		log.Println("❌ Image upload failed:", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Upload failed"})
		return
	}

	if err := h.products.AppendImage(c.Request.Context(), productID, url); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	h.cache.Invalidate(c.Request.Context(), productID)
	c.JSON(http.StatusOK, gin.H{"url": url})
}

// CreateReview posts a review on an existing product.
func (h *ProductHandler) CreateReview(c *gin.Context) {
	var input struct {
		ProductID string `json:"product_id" binding:"required"`
		Rating    int    `json:"rating" binding:"required,min=1,max=5"`
		Comment   string `json:"comment"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if _, err := h.products.FindByID(c.Request.Context(), input.ProductID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found"})
		return
	}

	review := models.Review{
		ReviewID:  models.NewReviewID(),
		ProductID: input.ProductID,
		UserID:    c.GetString(middleware.CtxUserID),
		UserName:  c.GetString(middleware.CtxName),
		Rating:    input.Rating,
		Comment:   input.Comment,
		CreatedAt: time.Now().UTC(),
	}

	if err := h.reviews.Insert(c.Request.Context(), review); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, review)
}

// ListReviews returns a product's reviews.
func (h *ProductHandler) ListReviews(c *gin.Context) {
	reviews, err := h.reviews.ListByProduct(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"reviews": reviews})
}
