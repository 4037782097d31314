//go:build integration

package repository

import (
	"os"
	"testing"

	"github.com/stretchr/testify/suite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"product-importer-service/internal/models"
)

// ProductsRepositorySuite exercises the SKU upsert semantics against a real
// Postgres database. Run with: go test -tags integration ./internal/repository/
type ProductsRepositorySuite struct {
	suite.Suite
	db   *gorm.DB
	repo *ProductsRepository
}

func (s *ProductsRepositorySuite) SetupSuite() {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		dsn = "host=localhost user=postgres password=postgres dbname=product_importer_test port=5432 sslmode=disable"
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		s.T().Fatalf("Failed to connect to database: %v", err)
	}
	s.db = db

	if err := s.db.AutoMigrate(&models.Product{}); err != nil {
		s.T().Fatalf("Failed to run migrations: %v", err)
	}
	if err := s.db.Exec(
		"CREATE UNIQUE INDEX IF NOT EXISTS idx_products_sku_lower ON products (LOWER(sku))",
	).Error; err != nil {
		s.T().Fatalf("Failed to create sku index: %v", err)
	}

	// no redis in integration tests, cache paths are skipped
	s.repo = NewProductsRepository(s.db, nil)
}

func (s *ProductsRepositorySuite) SetupTest() {
	s.db.Where("1 = 1").Delete(&models.Product{})
}

func (s *ProductsRepositorySuite) TestCommitBatchCreatesNewProducts() {
	price := "9.99"
	success, errors := s.repo.CommitBatch([]models.CandidateRecord{
		{SKU: "ABC-1", Name: "Widget", Price: &price, Active: true},
		{SKU: "ABC-2", Name: "Gadget", Active: true},
	})

	s.Equal(2, success)
	s.Equal(0, errors)

	var count int64
	s.db.Model(&models.Product{}).Count(&count)
	s.Equal(int64(2), count)
}

func (s *ProductsRepositorySuite) TestCommitBatchUpdatesByCaseInsensitiveSKU() {
	_, _ = s.repo.CommitBatch([]models.CandidateRecord{
		{SKU: "AbC-1", Name: "Original", Active: true},
	})

	success, errors := s.repo.CommitBatch([]models.CandidateRecord{
		{SKU: "abc-1", Name: "Updated", Active: true},
	})

	s.Equal(1, success)
	s.Equal(0, errors)

	var count int64
	s.db.Model(&models.Product{}).Count(&count)
	s.Equal(int64(1), count)

	product, err := s.repo.FindProductBySKU("ABC-1")
	s.NoError(err)
	s.Require().NotNil(product)
	s.Equal("Updated", product.Name)
	// stored casing survives updates from rows that differ only in case
	s.Equal("AbC-1", product.SKU)
}

func (s *ProductsRepositorySuite) TestCommitBatchLastDuplicateWins() {
	success, errors := s.repo.CommitBatch([]models.CandidateRecord{
		{SKU: "DUP-1", Name: "First", Active: true},
		{SKU: "dup-1", Name: "Second", Active: true},
	})

	s.Equal(2, success)
	s.Equal(0, errors)

	product, err := s.repo.FindProductBySKU("dup-1")
	s.NoError(err)
	s.Require().NotNil(product)
	s.Equal("Second", product.Name)
	s.Equal("DUP-1", product.SKU)
}

func (s *ProductsRepositorySuite) TestFindProductBySKUMissing() {
	product, err := s.repo.FindProductBySKU("NOPE")
	s.NoError(err)
	s.Nil(product)
}

func (s *ProductsRepositorySuite) TestDeleteAllProducts() {
	_, _ = s.repo.CommitBatch([]models.CandidateRecord{
		{SKU: "A-1", Name: "W", Active: true},
		{SKU: "A-2", Name: "W", Active: true},
	})

	count, err := s.repo.DeleteAllProducts()
	s.NoError(err)
	s.Equal(int64(2), count)

	var remaining int64
	s.db.Model(&models.Product{}).Count(&remaining)
	s.Equal(int64(0), remaining)
}

func TestProductsRepositorySuite(t *testing.T) {
	suite.Run(t, new(ProductsRepositorySuite))
}
