package importer

import (
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"product-importer-service/internal/models"
)

// ProductStore is the storage seam the batch engine writes through
type ProductStore interface {
	CommitBatch(records []models.CandidateRecord) (successCount, errorCount int)
}

// JobStore owns the persistent job row the worker reports into
type JobStore interface {
	GetJob(jobID string) (*models.ImportJob, error)
	MarkProcessing(jobID string) error
	SetTotalRows(jobID string, totalRows int) error
	WriteProgress(jobID string, processed, success, errors int) error
	MarkCompleted(jobID string, processed, success, errors int) error
	MarkFailed(jobID string, errorMessage string) error
}

// Emitter is the fire-and-forget notification hook invoked on job completion
type Emitter interface {
	Emit(eventType string, data map[string]interface{})
}

// Worker runs import jobs to a terminal state. One worker execution owns one
// job exclusively; batches are applied sequentially in file order, so progress
// counters only ever advance in batch-sized steps.
type Worker struct {
	products  ProductStore
	jobs      JobStore
	emitter   Emitter
	batchSize int
	logger    *logrus.Entry
}

func NewWorker(products ProductStore, jobs JobStore, emitter Emitter, batchSize int, logger *logrus.Logger) *Worker {
	if batchSize < 1 {
		batchSize = 1000
	}
	return &Worker{
		products:  products,
		jobs:      jobs,
		emitter:   emitter,
		batchSize: batchSize,
		logger:    logger.WithField("component", "import-worker"),
	}
}

// Run processes one uploaded CSV file to a terminal state. It blocks for the
// duration of the job and is meant to be launched in its own goroutine; the
// submitting request never waits on it.
func (w *Worker) Run(jobID, filePath string) {
	log := w.logger.WithField("jobId", jobID)

	job, err := w.jobs.GetJob(jobID)
	if err != nil {
		log.WithError(err).Error("Import job not found, nothing to process")
		return
	}
	log = log.WithField("filename", job.Filename)

	if err := w.jobs.MarkProcessing(jobID); err != nil {
		log.WithError(err).Error("Failed to mark job as processing")
		return
	}

	// The uploaded file is scratch data; remove it in every terminal outcome.
	defer func() {
		if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
			log.WithError(err).Warn("Failed to clean up uploaded file")
		}
	}()

	if err := w.process(jobID, filePath, log); err != nil {
		log.WithError(err).Error("Import job failed")
		if markErr := w.jobs.MarkFailed(jobID, err.Error()); markErr != nil {
			log.WithError(markErr).Error("Failed to record job failure")
		}
		return
	}
}

// process runs the two-pass import. Any error it returns is a job-level fatal
// condition; row and batch errors are contained in the counters.
func (w *Worker) process(jobID, filePath string, log *logrus.Entry) error {
	// First pass: fix the progress denominator before any row is processed.
	f, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("file not found: %s", filePath)
	}
	totalRows, err := countDataRows(f)
	f.Close()
	if err != nil {
		return err
	}
	if err := w.jobs.SetTotalRows(jobID, totalRows); err != nil {
		return fmt.Errorf("failed to record total rows: %w", err)
	}

	// Second pass: validate the header, then stream rows into batches.
	f, err = os.Open(filePath)
	if err != nil {
		return fmt.Errorf("file not found: %s", filePath)
	}
	defer f.Close()

	reader := newCSVReader(f)
	headers, err := readHeader(reader)
	if err != nil {
		return err
	}
	if err := validateHeader(headers); err != nil {
		return err
	}

	var (
		processed int
		success   int
		errors    int
		rejected  int // rows rejected during normalization, folded in at the next flush
		batch     = make([]models.CandidateRecord, 0, w.batchSize)
	)

	// flush commits the pending batch and writes one consistent progress
	// snapshot; counters never move between flushes.
	flush := func() error {
		if len(batch) == 0 && rejected == 0 {
			return nil
		}
		var batchSuccess, batchErrors int
		if len(batch) > 0 {
			batchSuccess, batchErrors = w.products.CommitBatch(batch)
		}
		if batchErrors > 0 {
			log.WithFields(logrus.Fields{
				"batchSize": len(batch),
				"errors":    batchErrors,
			}).Warn("Batch commit reported errors, continuing with next batch")
		}
		processed += len(batch) + rejected
		success += batchSuccess
		errors += batchErrors + rejected
		rejected = 0
		batch = batch[:0]
		return w.jobs.WriteProgress(jobID, processed, success, errors)
	}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read CSV row: %w", err)
		}

		rec, ok := normalizeRow(rowToMap(headers, record))
		if !ok {
			rejected++
			continue
		}
		batch = append(batch, rec)

		if len(batch) >= w.batchSize {
			if err := flush(); err != nil {
				return fmt.Errorf("failed to write progress: %w", err)
			}
		}
	}

	// Remaining partial batch (and trailing rejected rows).
	if err := flush(); err != nil {
		return fmt.Errorf("failed to write progress: %w", err)
	}

	if err := w.jobs.MarkCompleted(jobID, processed, success, errors); err != nil {
		return fmt.Errorf("failed to record job completion: %w", err)
	}

	log.WithFields(logrus.Fields{
		"totalRows":    totalRows,
		"successCount": success,
		"errorCount":   errors,
	}).Info("Import job completed")

	// Notify only after the terminal transition is durable, and only for
	// completed jobs.
	if w.emitter != nil {
		w.emitter.Emit(models.EventImportCompleted, map[string]interface{}{
			"job_id":        jobID,
			"total_rows":    totalRows,
			"success_count": success,
			"error_count":   errors,
		})
	}

	return nil
}
