package models

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SyncRunStatus is the outcome of a sync run.
type SyncRunStatus string

const (
	SyncRunStatusRunning   SyncRunStatus = "running"
	SyncRunStatusSucceeded SyncRunStatus = "succeeded"
	SyncRunStatusFailed    SyncRunStatus = "failed"

	// SyncRunStatusSkipped marks runs that found no published posts.
	SyncRunStatusSkipped SyncRunStatus = "skipped"
)

// SyncRun records one synchronization of site content into a search index.
type SyncRun struct {
	// ID is the run identifier, also attached to the run's log lines.
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	StartedAt  time.Time  `gorm:"not null;index" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	Status SyncRunStatus `gorm:"type:varchar(20);not null;default:'running'" json:"status"`

	// Backend and IndexName identify the index that was written.
	Backend   string `gorm:"type:varchar(50);not null" json:"backend"`
	IndexName string `gorm:"type:varchar(255)" json:"index_name,omitempty"`

	Posts     int  `gorm:"default:0" json:"posts"`
	Pages     int  `gorm:"default:0" json:"pages"`
	Documents int  `gorm:"default:0" json:"documents"`
	Chunks    int  `gorm:"default:0" json:"chunks"`
	Cleared   bool `gorm:"default:false" json:"cleared"`

	// Error is the failure message of a failed run.
	Error string `gorm:"type:text" json:"error,omitempty"`
}

// TableName specifies the table name for GORM.
func (SyncRun) TableName() string {
	return "sync_runs"
}

// BeforeCreate generates the ID if not set.
func (r *SyncRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// Validate checks the run's required fields.
func (r SyncRun) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.StartedAt, validation.Required),
		validation.Field(&r.Backend, validation.Required),
		validation.Field(&r.Status, validation.Required, validation.In(
			SyncRunStatusRunning,
			SyncRunStatusSucceeded,
			SyncRunStatusFailed,
			SyncRunStatusSkipped,
		)),
		validation.Field(&r.Posts, validation.Min(0)),
		validation.Field(&r.Pages, validation.Min(0)),
		validation.Field(&r.Documents, validation.Min(0)),
		validation.Field(&r.Chunks, validation.Min(0)),
	)
}

// Create inserts the run.
func (r *SyncRun) Create(db *gorm.DB) error {
	if err := r.Validate(); err != nil {
		return err
	}
	return db.Create(r).Error
}

// Finish sets the run's final status and finish time and saves it.
func (r *SyncRun) Finish(db *gorm.DB, status SyncRunStatus, runErr error) error {
	now := time.Now().UTC()
	r.FinishedAt = &now
	r.Status = status
	if runErr != nil {
		r.Error = runErr.Error()
	}
	if err := r.Validate(); err != nil {
		return err
	}
	return db.Save(r).Error
}

// Get retrieves a run by ID.
func (r *SyncRun) Get(db *gorm.DB) error {
	return db.First(r, "id = ?", r.ID).Error
}

// Duration returns how long the run took, or zero if it has not finished.
func (r *SyncRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// SyncRuns is a slice of sync runs.
type SyncRuns []SyncRun

// FindRecent retrieves the most recent runs, newest first.
func (rs *SyncRuns) FindRecent(db *gorm.DB, limit int) error {
	return db.Order("started_at desc").Limit(limit).Find(rs).Error
}

// LastSucceeded retrieves the most recent successful run.
func (r *SyncRun) LastSucceeded(db *gorm.DB) error {
	return db.Where("status = ?", SyncRunStatusSucceeded).
		Order("started_at desc").
		First(r).Error
}
