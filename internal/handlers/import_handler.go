package handlers

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"

	"product-importer-service/internal/importer"
	"product-importer-service/internal/models"
	"product-importer-service/internal/repository"
)

// streamPollInterval is how often the SSE stream re-reads the job row
const streamPollInterval = 500 * time.Millisecond

type ImportHandler struct {
	jobs          *repository.ImportJobsRepository
	worker        *importer.Worker
	uploadDir     string
	maxUploadSize int64
}

func NewImportHandler(jobs *repository.ImportJobsRepository, worker *importer.Worker, uploadDir string, maxUploadSize int64) *ImportHandler {
	return &ImportHandler{
		jobs:          jobs,
		worker:        worker,
		uploadDir:     uploadDir,
		maxUploadSize: maxUploadSize,
	}
}

// UploadCSV accepts a CSV file and starts a background import job
// @Summary Start a CSV import
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Success 202 {object} models.ImportJobResponse
// @Router /import [post]
func (h *ImportHandler) UploadCSV(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "NO_FILE",
				Message: "No file provided",
				Field:   "file",
			},
		})
		return
	}

	if !strings.HasSuffix(strings.ToLower(fileHeader.Filename), ".csv") {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_FILE_TYPE",
				Message: "Only CSV files are supported",
				Field:   "file",
			},
		})
		return
	}

	if fileHeader.Size > h.maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FILE_TOO_LARGE",
				Message: fmt.Sprintf("File exceeds the %d byte upload limit", h.maxUploadSize),
				Field:   "file",
			},
		})
		return
	}

	jobID := uuid.New().String()
	filePath := filepath.Join(h.uploadDir, jobID+".csv")
	if err := c.SaveUploadedFile(fileHeader, filePath); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "UPLOAD_FAILED",
				Message: "Failed to store uploaded file",
			},
		})
		return
	}

	job := &models.ImportJob{
		ID:       jobID,
		Filename: fileHeader.Filename,
		Status:   models.ImportStatusPending,
	}
	if err := h.jobs.CreateJob(job); err != nil {
		os.Remove(filePath)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "JOB_CREATE_FAILED",
				Message: "Failed to create import job",
			},
		})
		return
	}

	go h.worker.Run(jobID, filePath)

	c.JSON(http.StatusAccepted, models.ImportJobResponse{
		Success: true,
		Data:    job.Snapshot(),
	})
}

// GetImportStatus returns the current snapshot of an import job
func (h *ImportHandler) GetImportStatus(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.jobs.GetJob(jobID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Import job not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve import job",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.ImportJobResponse{
		Success: true,
		Data:    job.Snapshot(),
	})
}

// StreamImportProgress streams job snapshots over SSE until the job reaches a
// terminal state. A snapshot is sent immediately, then only when it changes.
func (h *ImportHandler) StreamImportProgress(c *gin.Context) {
	jobID := c.Param("job_id")

	job, err := h.jobs.GetJob(jobID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_FOUND",
					Message: "Import job not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "FETCH_FAILED",
				Message: "Failed to retrieve import job",
			},
		})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	var last models.ImportJobStatus
	sent := false

	c.Stream(func(w io.Writer) bool {
		snapshot := job.Snapshot()
		if !sent || snapshotChanged(last, snapshot) {
			c.SSEvent("progress", snapshot)
			last = snapshot
			sent = true
		}

		if job.Status.Terminal() {
			return false
		}

		select {
		case <-c.Request.Context().Done():
			return false
		case <-time.After(streamPollInterval):
		}

		job, err = h.jobs.GetJob(jobID)
		if err != nil {
			return false
		}
		return true
	})
}

func snapshotChanged(a, b models.ImportJobStatus) bool {
	return a.Status != b.Status ||
		a.TotalRows != b.TotalRows ||
		a.ProcessedRows != b.ProcessedRows ||
		a.SuccessCount != b.SuccessCount ||
		a.ErrorCount != b.ErrorCount
}

// GetImportTemplate returns the import template definition or file
// GET /api/v1/import/template?format=json|csv|xlsx
func (h *ImportHandler) GetImportTemplate(c *gin.Context) {
	format := c.DefaultQuery("format", "json")

	template := models.ProductImportTemplate()

	switch format {
	case "csv":
		h.generateCSVTemplate(c, template)
	case "xlsx":
		h.generateXLSXTemplate(c, template)
	default:
		c.JSON(http.StatusOK, gin.H{
			"success":  true,
			"template": template,
		})
	}
}

// generateCSVTemplate generates and downloads a CSV template (headers only)
func (h *ImportHandler) generateCSVTemplate(c *gin.Context, template models.ImportTemplate) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", "attachment; filename=products_import_template.csv")

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	headers := make([]string, len(template.Columns))
	for i, col := range template.Columns {
		headers[i] = col.Name
	}
	writer.Write(headers)
}

// generateXLSXTemplate generates and downloads an Excel template
func (h *ImportHandler) generateXLSXTemplate(c *gin.Context, template models.ImportTemplate) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Products"
	f.SetSheetName("Sheet1", sheetName)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	requiredStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"C65911"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "bottom", Color: "000000", Style: 1},
		},
	})

	for i, col := range template.Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		headerText := col.Name
		if col.Required {
			headerText = col.Name + " *"
		}
		f.SetCellValue(sheetName, cell, headerText)

		if col.Required {
			f.SetCellStyle(sheetName, cell, cell, requiredStyle)
		} else {
			f.SetCellStyle(sheetName, cell, cell, headerStyle)
		}

		colName, _ := excelize.ColumnNumberToName(i + 1)
		f.SetColWidth(sheetName, colName, colName, 20)
	}

	// Instructions sheet
	f.NewSheet("Instructions")
	f.SetCellValue("Instructions", "A1", "Product Import Instructions")

	f.SetCellValue("Instructions", "A3", "SKU MATCHING:")
	f.SetCellValue("Instructions", "A4", "SKUs are matched case-insensitively: 'abc-1' and 'ABC-1' are the same product.")
	f.SetCellValue("Instructions", "A5", "Existing products keep their stored SKU casing when updated.")
	f.SetCellValue("Instructions", "A6", "Rows with an empty sku are skipped and counted as errors.")

	f.SetCellValue("Instructions", "A8", "Column Definitions:")
	f.SetCellValue("Instructions", "A9", "Column")
	f.SetCellValue("Instructions", "B9", "Description")
	f.SetCellValue("Instructions", "C9", "Required")
	f.SetCellValue("Instructions", "D9", "Type")
	f.SetCellValue("Instructions", "E9", "Example")

	for i, col := range template.Columns {
		row := i + 10
		f.SetCellValue("Instructions", fmt.Sprintf("A%d", row), col.Name)
		f.SetCellValue("Instructions", fmt.Sprintf("B%d", row), col.Description)
		required := "Optional"
		if col.Required {
			required = "Required"
		}
		f.SetCellValue("Instructions", fmt.Sprintf("C%d", row), required)
		f.SetCellValue("Instructions", fmt.Sprintf("D%d", row), col.Type)
		f.SetCellValue("Instructions", fmt.Sprintf("E%d", row), col.Example)
	}

	f.SetColWidth("Instructions", "A", "A", 25)
	f.SetColWidth("Instructions", "B", "B", 60)
	f.SetColWidth("Instructions", "C", "C", 15)
	f.SetColWidth("Instructions", "D", "D", 15)
	f.SetColWidth("Instructions", "E", "E", 40)

	sheetIdx, _ := f.GetSheetIndex(sheetName)
	f.SetActiveSheet(sheetIdx)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", "attachment; filename=products_import_template.xlsx")

	f.Write(c.Writer)
}
