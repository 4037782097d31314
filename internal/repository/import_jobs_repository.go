package repository

import (
	"time"

	"gorm.io/gorm"

	"product-importer-service/internal/models"
)

type ImportJobsRepository struct {
	db *gorm.DB
}

func NewImportJobsRepository(db *gorm.DB) *ImportJobsRepository {
	return &ImportJobsRepository{db: db}
}

// CreateJob inserts a new job row in PENDING state
func (r *ImportJobsRepository) CreateJob(job *models.ImportJob) error {
	if job.Status == "" {
		job.Status = models.ImportStatusPending
	}
	job.StartedAt = time.Now()
	return r.db.Create(job).Error
}

// GetJob reads a job row by its token
func (r *ImportJobsRepository) GetJob(jobID string) (*models.ImportJob, error) {
	var job models.ImportJob
	if err := r.db.Where("id = ?", jobID).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// MarkProcessing transitions a job to PROCESSING
func (r *ImportJobsRepository) MarkProcessing(jobID string) error {
	return r.db.Model(&models.ImportJob{}).
		Where("id = ?", jobID).
		Update("status", models.ImportStatusProcessing).Error
}

// SetTotalRows fixes the progress denominator after the pre-scan pass
func (r *ImportJobsRepository) SetTotalRows(jobID string, totalRows int) error {
	return r.db.Model(&models.ImportJob{}).
		Where("id = ?", jobID).
		Update("total_rows", totalRows).Error
}

// WriteProgress updates the batch-granular counters in one atomic write so a
// concurrent reader always sees a consistent snapshot.
func (r *ImportJobsRepository) WriteProgress(jobID string, processed, success, errors int) error {
	return r.db.Model(&models.ImportJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"processed_rows": processed,
			"success_count":  success,
			"error_count":    errors,
		}).Error
}

// MarkCompleted transitions a job to its COMPLETED terminal state with the
// final counters frozen in the same write.
func (r *ImportJobsRepository) MarkCompleted(jobID string, processed, success, errors int) error {
	now := time.Now()
	return r.db.Model(&models.ImportJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"processed_rows": processed,
			"success_count":  success,
			"error_count":    errors,
			"status":         models.ImportStatusCompleted,
			"completed_at":   &now,
		}).Error
}

// MarkFailed transitions a job to its FAILED terminal state. Counters keep
// whatever the last committed batch wrote; rows beyond it stay unprocessed.
func (r *ImportJobsRepository) MarkFailed(jobID string, errorMessage string) error {
	now := time.Now()
	return r.db.Model(&models.ImportJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"status":        models.ImportStatusFailed,
			"error_message": errorMessage,
			"completed_at":  &now,
		}).Error
}
