package domain

import (
	"errors"
	"time"
)

// ErrTaskNotFound is returned when an id does not resolve to a persisted task.
var ErrTaskNotFound = errors.New("task not found")

// Task is the only resource of the application.
type Task struct {
	ID        uint      `gorm:"primaryKey"`
	Title     string    `gorm:"not null" validate:"notblank"`
	Details   string    `gorm:"type:text"`
	Completed bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time

	// Errors holds validation failures of the last attempted save so the
	// form can be re-rendered with the submitted values.
	Errors ValidationErrors `gorm:"-" json:"-" validate:"-"`
}

// TableName pins the table name regardless of gorm naming strategy.
func (Task) TableName() string {
	return "tasks"
}

// Persisted reports whether the task has been stored.
func (t *Task) Persisted() bool {
	return t.ID != 0
}

// Apply copies the supplied params onto the task. Nil fields are left as is.
func (t *Task) Apply(p TaskParams) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Details != nil {
		t.Details = *p.Details
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
}
