package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"storefront/internal/models"
	"storefront/internal/store"
)

// listProducts handles paged catalog listing with filters
func (h *Handler) listProducts(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	categoryID, _ := strconv.ParseInt(c.Query("category"), 10, 64)

	if limit <= 0 || limit > 100 {
		limit = 20
	}

	products, err := h.catalog.ListProducts(c.Request.Context(), store.ProductFilter{
		CategoryID: categoryID,
		Search:     c.Query("q"),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list products", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// listAllProducts returns the full catalog
func (h *Handler) listAllProducts(c *gin.Context) {
	products, err := h.catalog.ListAllProducts(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list products", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"products": products})
}

// getProduct returns one product
func (h *Handler) getProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	product, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, product)
}

// createProduct accepts multipart form data with image files
func (h *Handler) createProduct(c *gin.Context) {
	product, err := h.productFromForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product form", "details": err.Error()})
		return
	}

	if err := h.catalog.CreateProduct(c.Request.Context(), product); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to create product", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, product)
}

// updateProduct edits a product, optionally replacing images
func (h *Handler) updateProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}

	existing, err := h.catalog.GetProduct(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found", "details": err.Error()})
		return
	}

	product, err := h.productFromForm(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product form", "details": err.Error()})
		return
	}
	product.ID = id
	if len(product.Images) == 0 {
		product.Images = existing.Images
	}

	if err := h.catalog.UpdateProduct(c.Request.Context(), product); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update product", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, product)
}

// deleteProduct removes a product
func (h *Handler) deleteProduct(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.catalog.DeleteProduct(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Product not found", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// listCategories returns all categories
func (h *Handler) listCategories(c *gin.Context) {
	categories, err := h.catalog.ListCategories(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list categories", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// getCategoryBySlug resolves a category from its URL slug
func (h *Handler) getCategoryBySlug(c *gin.Context) {
	category, err := h.catalog.GetCategoryBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Category not found", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, category)
}

// createCategory adds a category
func (h *Handler) createCategory(c *gin.Context) {
	var req struct {
		Name        string `json:"name" binding:"required"`
		Slug        string `json:"slug"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "details": err.Error()})
		return
	}

	category := &models.Category{Name: req.Name, Slug: req.Slug, Description: req.Description}
	if err := h.catalog.CreateCategory(c.Request.Context(), category); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to create category", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, category)
}

// productFromForm parses multipart fields and saves uploaded images
// under the public uploads directory
func (h *Handler) productFromForm(c *gin.Context) (*models.Product, error) {
	price, err := strconv.ParseInt(c.PostForm("price"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("price must be an integer amount in cents")
	}
	categoryID, err := strconv.ParseInt(c.PostForm("category_id"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("category_id is required")
	}
	stock, _ := strconv.Atoi(c.DefaultPostForm("stock", "0"))
	discount, _ := strconv.ParseInt(c.DefaultPostForm("discount", "0"), 10, 64)

	product := &models.Product{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Price:       price,
		Discount:    discount,
		Stock:       stock,
		CategoryID:  categoryID,
	}

	if specs := c.PostForm("specs"); specs != "" {
		if !json.Valid([]byte(specs)) {
			return nil, fmt.Errorf("specs must be valid JSON")
		}
		product.Specs = json.RawMessage(specs)
	}

	form, err := c.MultipartForm()
	if err != nil {
		return product, nil
	}
	for _, file := range form.File["images"] {
		ext := strings.ToLower(filepath.Ext(file.Filename))
		switch ext {
		case ".png", ".jpg", ".jpeg", ".webp":
		default:
			return nil, fmt.Errorf("unsupported image type: %s", ext)
		}
		name := uuid.New().String() + ext
		if err := c.SaveUploadedFile(file, filepath.Join(h.uploadDir, name)); err != nil {
			return nil, fmt.Errorf("failed to save image: %w", err)
		}
		product.Images = append(product.Images, "/uploads/"+name)
	}
	return product, nil
}
