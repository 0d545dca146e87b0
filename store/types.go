package store

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/taskline/taskline/recurrence"
)

// ErrorType classifies store-related errors.
type ErrorType string

const (
	ErrNotFound      ErrorType = "not_found"
	ErrAlreadyExists ErrorType = "already_exists"
	ErrInvalidInput  ErrorType = "invalid_input"
	ErrInternal      ErrorType = "internal"
)

// Error represents a store-related error.
type Error struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether err is a store error of type ErrNotFound.
func IsNotFound(err error) bool {
	return hasType(err, ErrNotFound)
}

// IsInvalidInput reports whether err is a store error of type ErrInvalidInput.
func IsInvalidInput(err error) bool {
	return hasType(err, ErrInvalidInput)
}

func hasType(err error, t ErrorType) bool {
	var se *Error
	return errors.As(err, &se) && se.Type == t
}

// NewID returns a fresh unique identifier for tasks and series.
func NewID() string {
	return uuid.NewString()
}

// Task is a single scheduled item: either a standalone task or one occurrence
// of a recurring series. SeriesID is the sole source of truth for series
// membership; an empty SeriesID means standalone.
type Task struct {
	ID       string `gorm:"primaryKey" json:"id"`
	UserID   string `gorm:"index" json:"userId"`
	SeriesID string `gorm:"index" json:"seriesId,omitempty"`

	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    string `json:"priority,omitempty"`
	Type        string `json:"type,omitempty"`

	StartTime    time.Time  `gorm:"index" json:"startTime"`
	EndTime      time.Time  `json:"endTime"`
	DueTime      *time.Time `json:"dueTime,omitempty"`
	CompleteTime *time.Time `json:"completeTime,omitempty"`

	IsRecurring bool `json:"isRecurring"`

	GoalID string   `json:"goalId,omitempty"`
	Tags   []string `gorm:"serializer:json" json:"tags,omitempty"`
	Note   string   `json:"note,omitempty"`

	IsBacklog  bool   `json:"isBacklog"`
	Skipped    bool   `json:"skipped"`
	PlanPeriod string `json:"planPeriod,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Series groups the occurrences generated from one recurrence rule.
// FirstOccurrenceAt/LastOccurrenceAt are a denormalized cache of the min/max
// member start times; they are recomputed after every structural change and
// are never authoritative.
type Series struct {
	ID     string `gorm:"primaryKey" json:"id"`
	UserID string `gorm:"index" json:"userId"`

	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Rule        recurrence.Rule `gorm:"serializer:json" json:"recurrence"`

	FirstOccurrenceAt time.Time `json:"firstOccurrenceAt"`
	LastOccurrenceAt  time.Time `json:"lastOccurrenceAt"`

	// ParentSeriesID and SplitFromOccurrenceOn are set when this series was
	// produced by splitting another one at that occurrence.
	ParentSeriesID        string     `json:"parentSeriesId,omitempty"`
	SplitFromOccurrenceOn *time.Time `json:"splitFromOccurrenceOn,omitempty"`

	Active   bool     `json:"active"`
	Color    string   `json:"color,omitempty"`
	Priority string   `json:"priority,omitempty"`
	GoalID   string   `json:"goalId,omitempty"`
	Tags     []string `gorm:"serializer:json" json:"tags,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
