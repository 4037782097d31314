package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupTemplateRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewImportHandler(nil, nil, "uploads", 1024)
	router := gin.New()
	router.GET("/api/v1/import/template", h.GetImportTemplate)
	router.GET("/health", HealthCheck)
	return router
}

func TestGetImportTemplateJSON(t *testing.T) {
	router := setupTemplateRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/import/template", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Success  bool `json:"success"`
		Template struct {
			Entity  string `json:"entity"`
			Columns []struct {
				Name     string `json:"name"`
				Required bool   `json:"required"`
			} `json:"columns"`
		} `json:"template"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, "products", body.Template.Entity)

	names := map[string]bool{}
	required := map[string]bool{}
	for _, col := range body.Template.Columns {
		names[col.Name] = true
		required[col.Name] = col.Required
	}
	assert.True(t, names["sku"])
	assert.True(t, names["name"])
	assert.True(t, names["description"])
	assert.True(t, names["price"])
	assert.True(t, required["sku"])
	assert.True(t, required["name"])
	assert.False(t, required["price"])
}

func TestGetImportTemplateCSV(t *testing.T) {
	router := setupTemplateRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/import/template?format=csv", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "products_import_template.csv")
	assert.Equal(t, "sku,name,description,price", strings.TrimSpace(w.Body.String()))
}

func TestGetImportTemplateXLSX(t *testing.T) {
	router := setupTemplateRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/import/template?format=xlsx", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", w.Header().Get("Content-Type"))
	assert.NotZero(t, w.Body.Len())
}

func TestHealthCheck(t *testing.T) {
	router := setupTemplateRouter()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var body map[string]interface{}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "product-importer-service", body["service"])
}
