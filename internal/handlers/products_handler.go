package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"product-importer-service/internal/events"
	"product-importer-service/internal/models"
	"product-importer-service/internal/repository"
)

type ProductsHandler struct {
	repo            *repository.ProductsRepository
	dispatcher      *events.Dispatcher
	defaultPageSize int
	maxPageSize     int
}

func NewProductsHandler(repo *repository.ProductsRepository, dispatcher *events.Dispatcher, defaultPageSize, maxPageSize int) *ProductsHandler {
	return &ProductsHandler{
		repo:            repo,
		dispatcher:      dispatcher,
		defaultPageSize: defaultPageSize,
		maxPageSize:     maxPageSize,
	}
}

// GetProducts retrieves a paginated product list with optional filtering
// @Summary List products
// @Tags products
// @Produce json
// @Success 200 {object} models.ProductListResponse
// @Router /products [get]
func (h *ProductsHandler) GetProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(h.defaultPageSize)))

	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > h.maxPageSize {
		limit = h.defaultPageSize
	}

	req := &models.ListProductsRequest{
		Page:  page,
		Limit: limit,
	}
	if search := c.Query("search"); search != "" {
		req.Search = &search
	}
	if active := c.Query("active"); active != "" {
		if parsed, err := strconv.ParseBool(active); err == nil {
			req.Active = &parsed
		}
	}

	products, total, err := h.repo.GetProducts(req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve products",
			},
		})
		return
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))
	c.JSON(http.StatusOK, models.ProductListResponse{
		Success: true,
		Data:    products,
		Pagination: &models.PaginationInfo{
			Page:        page,
			Limit:       limit,
			Total:       total,
			TotalPages:  totalPages,
			HasNext:     page < totalPages,
			HasPrevious: page > 1,
		},
	})
}

// GetProduct retrieves a single product by ID
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Product ID must be a valid UUID",
			},
		})
		return
	}

	product, err := h.repo.GetProductByID(productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Product not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve product",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Data: product})
}

// CreateProduct creates a new product and emits product.created
func (h *ProductsHandler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	existing, err := h.repo.FindProductBySKU(req.SKU)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DB_ERROR",
				Message: "Failed to check for duplicate SKU",
			},
		})
		return
	}
	if existing != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DUPLICATE_SKU",
				Message: fmt.Sprintf("Product with SKU '%s' already exists", req.SKU),
				Field:   "sku",
			},
		})
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}
	product := &models.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Price:       req.Price,
		Active:      active,
	}
	if err := h.repo.CreateProduct(product); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "CREATE_FAILED",
				Message: "Failed to create product",
			},
		})
		return
	}

	h.dispatcher.Emit(models.EventProductCreated, map[string]interface{}{
		"product_id": product.ID.String(),
		"sku":        product.SKU,
		"name":       product.Name,
	})

	c.JSON(http.StatusCreated, models.ProductResponse{Success: true, Data: product})
}

// UpdateProduct updates an existing product and emits product.updated
func (h *ProductsHandler) UpdateProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Product ID must be a valid UUID",
			},
		})
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: err.Error(),
			},
		})
		return
	}

	product, err := h.repo.GetProductByID(productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Product not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve product",
			},
		})
		return
	}

	updates := map[string]interface{}{}
	if req.SKU != nil && *req.SKU != product.SKU {
		conflict, err := h.repo.FindProductBySKU(*req.SKU)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "DB_ERROR",
					Message: "Failed to check for duplicate SKU",
				},
			})
			return
		}
		if conflict != nil && conflict.ID != product.ID {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "DUPLICATE_SKU",
					Message: fmt.Sprintf("Product with SKU '%s' already exists", *req.SKU),
					Field:   "sku",
				},
			})
			return
		}
		updates["sku"] = *req.SKU
	}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Description != nil {
		updates["description"] = req.Description
	}
	if req.Price != nil {
		updates["price"] = req.Price
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}

	if len(updates) > 0 {
		if err := h.repo.UpdateProduct(productID, updates); err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "UPDATE_FAILED",
					Message: "Failed to update product",
				},
			})
			return
		}
	}

	updated, err := h.repo.GetProductByID(productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve product",
			},
		})
		return
	}

	h.dispatcher.Emit(models.EventProductUpdated, map[string]interface{}{
		"product_id": updated.ID.String(),
		"sku":        updated.SKU,
		"name":       updated.Name,
	})

	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Data: updated})
}

// DeleteProduct deletes a product and emits product.deleted
func (h *ProductsHandler) DeleteProduct(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ID",
				Message: "Product ID must be a valid UUID",
			},
		})
		return
	}

	product, err := h.repo.GetProductByID(productID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Product not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve product",
			},
		})
		return
	}

	if err := h.repo.DeleteProduct(productID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DELETE_FAILED",
				Message: "Failed to delete product",
			},
		})
		return
	}

	h.dispatcher.Emit(models.EventProductDeleted, map[string]interface{}{
		"product_id": productID.String(),
		"sku":        product.SKU,
	})

	message := "Product deleted successfully"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &message})
}

// BulkDeleteProducts removes every product and emits products.bulk_deleted
func (h *ProductsHandler) BulkDeleteProducts(c *gin.Context) {
	count, err := h.repo.DeleteAllProducts()
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DELETE_FAILED",
				Message: "Failed to delete products",
			},
		})
		return
	}

	h.dispatcher.Emit(models.EventProductsBulkDeleted, map[string]interface{}{
		"deleted_count": count,
	})

	c.JSON(http.StatusOK, models.BulkDeleteResponse{
		Success:      true,
		DeletedCount: count,
		Message:      fmt.Sprintf("Successfully deleted %d products", count),
	})
}
