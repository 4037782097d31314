package importer

import (
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"product-importer-service/internal/models"
)

type fakeProductStore struct {
	batches     [][]models.CandidateRecord
	failBatches map[int]bool // 1-based batch index -> whole batch fails
}

func (f *fakeProductStore) CommitBatch(records []models.CandidateRecord) (int, int) {
	f.batches = append(f.batches, append([]models.CandidateRecord(nil), records...))
	if f.failBatches[len(f.batches)] {
		return 0, len(records)
	}
	return len(records), 0
}

type fakeJobStore struct {
	job            *models.ImportJob
	progressWrites []models.ImportJob
}

func (f *fakeJobStore) GetJob(jobID string) (*models.ImportJob, error) {
	if f.job == nil || f.job.ID != jobID {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *f.job
	return &copied, nil
}

func (f *fakeJobStore) MarkProcessing(jobID string) error {
	f.job.Status = models.ImportStatusProcessing
	return nil
}

func (f *fakeJobStore) SetTotalRows(jobID string, totalRows int) error {
	f.job.TotalRows = totalRows
	return nil
}

func (f *fakeJobStore) WriteProgress(jobID string, processed, success, errors int) error {
	f.job.ProcessedRows = processed
	f.job.SuccessCount = success
	f.job.ErrorCount = errors
	f.progressWrites = append(f.progressWrites, *f.job)
	return nil
}

func (f *fakeJobStore) MarkCompleted(jobID string, processed, success, errors int) error {
	f.job.ProcessedRows = processed
	f.job.SuccessCount = success
	f.job.ErrorCount = errors
	f.job.Status = models.ImportStatusCompleted
	return nil
}

func (f *fakeJobStore) MarkFailed(jobID string, errorMessage string) error {
	f.job.Status = models.ImportStatusFailed
	f.job.ErrorMessage = &errorMessage
	return nil
}

type emittedEvent struct {
	eventType string
	data      map[string]interface{}
}

type fakeEmitter struct {
	events []emittedEvent
}

func (f *fakeEmitter) Emit(eventType string, data map[string]interface{}) {
	f.events = append(f.events, emittedEvent{eventType: eventType, data: data})
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestJob(id string) *models.ImportJob {
	return &models.ImportJob{
		ID:       id,
		Filename: "upload.csv",
		Status:   models.ImportStatusPending,
	}
}

func TestRunCompletesSimpleImport(t *testing.T) {
	products := &fakeProductStore{}
	jobs := &fakeJobStore{job: newTestJob("job-1")}
	emitter := &fakeEmitter{}
	w := NewWorker(products, jobs, emitter, 1000, quietLogger())

	path := writeCSV(t, "sku,name,price\nA-1,Widget,9.99\nA-2,Gadget,\n")
	w.Run("job-1", path)

	assert.Equal(t, models.ImportStatusCompleted, jobs.job.Status)
	assert.Equal(t, 2, jobs.job.TotalRows)
	assert.Equal(t, 2, jobs.job.ProcessedRows)
	assert.Equal(t, 2, jobs.job.SuccessCount)
	assert.Equal(t, 0, jobs.job.ErrorCount)
	assert.Len(t, products.batches, 1)
	assert.NoFileExists(t, path)
}

func TestRunCountsEmptySKURowsAsErrors(t *testing.T) {
	products := &fakeProductStore{}
	jobs := &fakeJobStore{job: newTestJob("job-1")}
	w := NewWorker(products, jobs, &fakeEmitter{}, 1000, quietLogger())

	path := writeCSV(t, "sku,name\nA-1,Widget\n,NoSKU\n   ,Spaces\nA-2,Gadget\n")
	w.Run("job-1", path)

	assert.Equal(t, models.ImportStatusCompleted, jobs.job.Status)
	assert.Equal(t, 4, jobs.job.TotalRows)
	assert.Equal(t, 4, jobs.job.ProcessedRows)
	assert.Equal(t, 2, jobs.job.SuccessCount)
	assert.Equal(t, 2, jobs.job.ErrorCount)
	// rejected rows never reach storage
	assert.Len(t, products.batches, 1)
	assert.Len(t, products.batches[0], 2)
}

func TestRunProgressAdvancesAtBatchBoundaries(t *testing.T) {
	jobs := &fakeJobStore{job: newTestJob("job-1")}
	w := NewWorker(&fakeProductStore{}, jobs, &fakeEmitter{}, 3, quietLogger())

	path := writeCSV(t, "sku,name\nA-1,W\nA-2,W\nA-3,W\n")
	w.Run("job-1", path)

	// exactly one batch, so exactly one progress write before completion
	assert.Len(t, jobs.progressWrites, 1)
	assert.Equal(t, 3, jobs.progressWrites[0].ProcessedRows)
}

func TestRunPartialFinalBatchWritesSecondUpdate(t *testing.T) {
	jobs := &fakeJobStore{job: newTestJob("job-1")}
	w := NewWorker(&fakeProductStore{}, jobs, &fakeEmitter{}, 3, quietLogger())

	path := writeCSV(t, "sku,name\nA-1,W\nA-2,W\nA-3,W\nA-4,W\n")
	w.Run("job-1", path)

	assert.Len(t, jobs.progressWrites, 2)
	assert.Equal(t, 3, jobs.progressWrites[0].ProcessedRows)
	assert.Equal(t, 4, jobs.progressWrites[1].ProcessedRows)
	assert.Equal(t, models.ImportStatusCompleted, jobs.job.Status)
}

func TestRunMissingRequiredColumnFailsJob(t *testing.T) {
	products := &fakeProductStore{}
	jobs := &fakeJobStore{job: newTestJob("job-1")}
	emitter := &fakeEmitter{}
	w := NewWorker(products, jobs, emitter, 1000, quietLogger())

	path := writeCSV(t, "sku,price\nA-1,9.99\n")
	w.Run("job-1", path)

	assert.Equal(t, models.ImportStatusFailed, jobs.job.Status)
	assert.NotNil(t, jobs.job.ErrorMessage)
	assert.Equal(t, "CSV must contain columns: name", *jobs.job.ErrorMessage)
	assert.Empty(t, products.batches)
	assert.Empty(t, emitter.events)
	assert.NoFileExists(t, path)
}

func TestRunBatchStorageFailureContinues(t *testing.T) {
	products := &fakeProductStore{failBatches: map[int]bool{1: true}}
	jobs := &fakeJobStore{job: newTestJob("job-1")}
	emitter := &fakeEmitter{}
	w := NewWorker(products, jobs, emitter, 2, quietLogger())

	path := writeCSV(t, "sku,name\nA-1,W\nA-2,W\nA-3,W\nA-4,W\n")
	w.Run("job-1", path)

	// first batch of 2 fails wholesale, second batch of 2 succeeds
	assert.Equal(t, models.ImportStatusCompleted, jobs.job.Status)
	assert.Equal(t, 4, jobs.job.ProcessedRows)
	assert.Equal(t, 2, jobs.job.SuccessCount)
	assert.Equal(t, 2, jobs.job.ErrorCount)
	assert.Len(t, emitter.events, 1)
}

func TestRunHeaderOnlyFileCompletesEmpty(t *testing.T) {
	jobs := &fakeJobStore{job: newTestJob("job-1")}
	emitter := &fakeEmitter{}
	w := NewWorker(&fakeProductStore{}, jobs, emitter, 1000, quietLogger())

	path := writeCSV(t, "sku,name\n")
	w.Run("job-1", path)

	assert.Equal(t, models.ImportStatusCompleted, jobs.job.Status)
	assert.Equal(t, 0, jobs.job.TotalRows)
	assert.Equal(t, 0, jobs.job.ProcessedRows)
	assert.Len(t, emitter.events, 1)
}

func TestRunEmitsCompletionEvent(t *testing.T) {
	jobs := &fakeJobStore{job: newTestJob("job-1")}
	emitter := &fakeEmitter{}
	w := NewWorker(&fakeProductStore{}, jobs, emitter, 1000, quietLogger())

	path := writeCSV(t, "sku,name\nA-1,W\n,empty\n")
	w.Run("job-1", path)

	assert.Len(t, emitter.events, 1)
	event := emitter.events[0]
	assert.Equal(t, models.EventImportCompleted, event.eventType)
	assert.Equal(t, "job-1", event.data["job_id"])
	assert.Equal(t, 2, event.data["total_rows"])
	assert.Equal(t, 1, event.data["success_count"])
	assert.Equal(t, 1, event.data["error_count"])
}

func TestRunUnknownJobDoesNothing(t *testing.T) {
	products := &fakeProductStore{}
	jobs := &fakeJobStore{}
	w := NewWorker(products, jobs, &fakeEmitter{}, 1000, quietLogger())

	w.Run("missing", filepath.Join(t.TempDir(), "nope.csv"))

	assert.Empty(t, products.batches)
}

func TestRunMissingFileFailsJob(t *testing.T) {
	jobs := &fakeJobStore{job: newTestJob("job-1")}
	w := NewWorker(&fakeProductStore{}, jobs, &fakeEmitter{}, 1000, quietLogger())

	w.Run("job-1", filepath.Join(t.TempDir(), "nope.csv"))

	assert.Equal(t, models.ImportStatusFailed, jobs.job.Status)
	assert.NotNil(t, jobs.job.ErrorMessage)
}
