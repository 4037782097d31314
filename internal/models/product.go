package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents a catalog entry.
// SKU identity is case-insensitive: uniqueness is enforced by a functional
// index on LOWER(sku), while the stored casing is preserved.
type Product struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	SKU         string    `json:"sku" gorm:"type:varchar(255);not null;index"`
	Name        string    `json:"name" gorm:"type:varchar(500);not null;index"`
	Description *string   `json:"description,omitempty" gorm:"type:text"`
	Price       *string   `json:"price,omitempty" gorm:"type:varchar(50)"` // opaque text, no numeric validation
	Active      bool      `json:"active" gorm:"not null;default:true;index"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	SKU         string  `json:"sku" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Description *string `json:"description,omitempty"`
	Price       *string `json:"price,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	SKU         *string `json:"sku,omitempty"`
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Price       *string `json:"price,omitempty"`
	Active      *bool   `json:"active,omitempty"`
}

// ListProductsRequest carries list/search query parameters
type ListProductsRequest struct {
	Search *string
	Active *bool
	Page   int
	Limit  int
}

// Response types

type PaginationInfo struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

type ProductResponse struct {
	Success bool     `json:"success"`
	Data    *Product `json:"data"`
	Message *string  `json:"message,omitempty"`
}

type ProductListResponse struct {
	Success    bool            `json:"success"`
	Data       []Product       `json:"data"`
	Pagination *PaginationInfo `json:"pagination"`
}

// BulkDeleteResponse reports the result of deleting all products
type BulkDeleteResponse struct {
	Success      bool   `json:"success"`
	DeletedCount int64  `json:"deletedCount"`
	Message      string `json:"message"`
}

type ErrorResponse struct {
	Success bool  `json:"success"`
	Error   Error `json:"error"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}
