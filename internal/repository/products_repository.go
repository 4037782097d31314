package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"product-importer-service/internal/models"
)

// Cache TTL constants
const (
	ProductCacheTTL = 5 * time.Minute // Single product cache
)

type ProductsRepository struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewProductsRepository(db *gorm.DB, redis *redis.Client) *ProductsRepository {
	return &ProductsRepository{
		db:    db,
		redis: redis,
	}
}

// invalidateProductCache drops the cached copy of a product
func (r *ProductsRepository) invalidateProductCache(ctx context.Context, productID uuid.UUID) {
	if r.redis == nil {
		return
	}
	_ = r.redis.Del(ctx, productCacheKey(productID)).Err()
}

func productCacheKey(productID uuid.UUID) string {
	return fmt.Sprintf("product-importer:product:%s", productID.String())
}

// CreateProduct creates a new product
func (r *ProductsRepository) CreateProduct(product *models.Product) error {
	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()
	return r.db.Create(product).Error
}

// GetProductByID retrieves a product by ID with read-through caching
func (r *ProductsRepository) GetProductByID(productID uuid.UUID) (*models.Product, error) {
	ctx := context.Background()
	cacheKey := productCacheKey(productID)

	if r.redis != nil {
		val, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var product models.Product
			if err := json.Unmarshal([]byte(val), &product); err == nil {
				return &product, nil
			}
		}
	}

	var product models.Product
	if err := r.db.Where("id = ?", productID).First(&product).Error; err != nil {
		return nil, err
	}

	if r.redis != nil {
		if data, err := json.Marshal(product); err == nil {
			r.redis.Set(ctx, cacheKey, data, ProductCacheTTL)
		}
	}

	return &product, nil
}

// FindProductBySKU looks up a product by case-insensitive SKU equality.
// Returns (nil, nil) when no product matches.
func (r *ProductsRepository) FindProductBySKU(sku string) (*models.Product, error) {
	var product models.Product
	err := r.db.Where("LOWER(sku) = LOWER(?)", sku).First(&product).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// UpdateProduct applies field updates to a product and invalidates its cache
func (r *ProductsRepository) UpdateProduct(productID uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	err := r.db.Model(&models.Product{}).
		Where("id = ?", productID).
		Updates(updates).Error

	if err == nil {
		r.invalidateProductCache(context.Background(), productID)
	}
	return err
}

// DeleteProduct deletes a product
func (r *ProductsRepository) DeleteProduct(productID uuid.UUID) error {
	err := r.db.Where("id = ?", productID).Delete(&models.Product{}).Error
	if err == nil {
		r.invalidateProductCache(context.Background(), productID)
	}
	return err
}

// DeleteAllProducts removes every product and reports how many were deleted
func (r *ProductsRepository) DeleteAllProducts() (int64, error) {
	var count int64
	if err := r.db.Model(&models.Product{}).Count(&count).Error; err != nil {
		return 0, err
	}
	if err := r.db.Where("1 = 1").Delete(&models.Product{}).Error; err != nil {
		return 0, err
	}
	if r.redis != nil {
		ctx := context.Background()
		iter := r.redis.Scan(ctx, 0, "product-importer:product:*", 0).Iterator()
		for iter.Next(ctx) {
			_ = r.redis.Del(ctx, iter.Val()).Err()
		}
	}
	return count, nil
}

// GetProducts retrieves products with search, filtering and pagination
func (r *ProductsRepository) GetProducts(req *models.ListProductsRequest) ([]models.Product, int64, error) {
	var products []models.Product
	var total int64

	query := r.db.Model(&models.Product{})

	if req.Search != nil && *req.Search != "" {
		term := "%" + *req.Search + "%"
		query = query.Where("sku ILIKE ? OR name ILIKE ? OR description ILIKE ?", term, term, term)
	}
	if req.Active != nil {
		query = query.Where("active = ?", *req.Active)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (req.Page - 1) * req.Limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// CommitBatch upserts a batch of candidate records in one transaction.
// Each record is matched against the store by case-insensitive SKU: on match
// every field except the SKU itself is overwritten (the stored casing is
// preserved), otherwise a new product is created verbatim.
//
// The batch is the unit of durability: if the transaction cannot commit, the
// whole batch is reported as errors and the store is left untouched.
func (r *ProductsRepository) CommitBatch(records []models.CandidateRecord) (successCount, errorCount int) {
	if len(records) == 0 {
		return 0, 0
	}

	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, rec := range records {
			var existing models.Product
			err := tx.Where("LOWER(sku) = LOWER(?)", rec.SKU).First(&existing).Error

			switch {
			case err == nil:
				// Update in place; the stored SKU keeps its original casing
				// even when the incoming row differs only in case.
				if err := tx.Model(&models.Product{}).
					Where("id = ?", existing.ID).
					Updates(map[string]interface{}{
						"name":        rec.Name,
						"description": rec.Description,
						"price":       rec.Price,
						"active":      rec.Active,
						"updated_at":  time.Now(),
					}).Error; err != nil {
					return err
				}
			case err == gorm.ErrRecordNotFound:
				product := &models.Product{
					ID:          uuid.New(),
					SKU:         rec.SKU,
					Name:        rec.Name,
					Description: rec.Description,
					Price:       rec.Price,
					Active:      rec.Active,
					CreatedAt:   time.Now(),
					UpdatedAt:   time.Now(),
				}
				if err := tx.Create(product).Error; err != nil {
					return err
				}
			default:
				return err
			}
		}
		return nil
	})

	if err != nil {
		return 0, len(records)
	}
	return len(records), 0
}
