package analysis

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/veslo-ai/textlab/internal/store"
)

type JobStatus string

const (
	JobQueued    JobStatus = "queued"
	JobRunning   JobStatus = "running"
	JobSucceeded JobStatus = "succeeded"
	JobFailed    JobStatus = "failed"
)

// Job is a deferred analysis create request, processed by the worker. The
// worker runs the exact same facade path as the synchronous endpoint.
type Job struct {
	ID string `gorm:"primaryKey;size:26" json:"job_id"` // ULID length

	OwnerID       string     `gorm:"type:varchar(128);index;not null" json:"-"`
	Title         string     `gorm:"type:varchar(256)" json:"title"`
	Text          string     `gorm:"type:text;not null" json:"-"`
	CategoryIndex int        `gorm:"not null" json:"category"`
	ChoiceIndexes ChoiceList `gorm:"type:text;not null" json:"choices"`

	Status JobStatus `gorm:"type:varchar(16);index;not null" json:"status"`

	// Filled when succeeded
	ResultSessionID *string `gorm:"type:varchar(26);index" json:"result_session_id,omitempty"`

	// Filled when failed
	Error *string `gorm:"type:text" json:"error,omitempty"`

	CreatedAt time.Time `json:"inserted_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Job) TableName() string { return JobTable }

// JobTable is included in the owner-delete cascade alongside the session
// tables.
const JobTable = "analysis_jobs"

func (r *Repo) CreateJob(ctx context.Context, job *Job) error {
	return r.db.WithContext(ctx).Create(job).Error
}

// GetJob loads a job scoped to its owner, mirroring session scoping.
func (r *Repo) GetJob(ctx context.Context, ownerID, jobID string) (*Job, error) {
	var j Job
	err := r.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", jobID, ownerID).
		First(&j).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}

// GetJobByID loads a job without owner scoping; worker-side only.
func (r *Repo) GetJobByID(ctx context.Context, jobID string) (*Job, error) {
	var j Job
	err := r.db.WithContext(ctx).First(&j, "id = ?", jobID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return &j, nil
}

func (r *Repo) MarkJobRunning(ctx context.Context, jobID string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ? AND status = ?", jobID, JobQueued).
		Update("status", JobRunning).Error
}

func (r *Repo) MarkJobSucceeded(ctx context.Context, jobID, sessionID string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", jobID).
		Updates(map[string]any{
			"status":            JobSucceeded,
			"result_session_id": sessionID,
			"error":             nil,
		}).Error
}

func (r *Repo) MarkJobFailed(ctx context.Context, jobID, errMsg string) error {
	return r.db.WithContext(ctx).Model(&Job{}).
		Where("id = ?", jobID).
		Updates(map[string]any{
			"status":            JobFailed,
			"error":             errMsg,
			"result_session_id": nil,
		}).Error
}
