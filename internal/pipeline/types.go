package pipeline

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrInvalidStatus is returned when a stage status name is not recognised.
var ErrInvalidStatus = errors.New("invalid stage status")

// StageStatus is the lifecycle state of a single stage. Any status may be set
// to any other status; no transitions are enforced.
type StageStatus int

const (
	StatusPending StageStatus = iota
	StatusInProgress
	StatusCompleted
	StatusFailed
)

var statusNames = [...]string{
	StatusPending:    "pending",
	StatusInProgress: "in_progress",
	StatusCompleted:  "completed",
	StatusFailed:     "failed",
}

// AllStatuses lists every status in declaration order.
func AllStatuses() []StageStatus {
	return []StageStatus{StatusPending, StatusInProgress, StatusCompleted, StatusFailed}
}

func (s StageStatus) String() string {
	if !s.Valid() {
		return fmt.Sprintf("StageStatus(%d)", int(s))
	}
	return statusNames[s]
}

// Valid reports whether s is one of the declared statuses.
func (s StageStatus) Valid() bool {
	return s >= StatusPending && s <= StatusFailed
}

// ParseStageStatus converts a name such as "in_progress" into a StageStatus.
func ParseStageStatus(name string) (StageStatus, error) {
	for i, n := range statusNames {
		if n == name {
			return StageStatus(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidStatus, name)
}

func (s StageStatus) MarshalText() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidStatus, int(s))
	}
	return []byte(statusNames[s]), nil
}

func (s *StageStatus) UnmarshalText(text []byte) error {
	parsed, err := ParseStageStatus(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Stage is a named unit of work inside a tracker. Two stages are the same
// stage only when their IDs match; name and status play no part.
type Stage struct {
	ID     uuid.UUID   `json:"id"`
	Name   string      `json:"name"`
	Status StageStatus `json:"status"`
}

// NewStage returns a stage with a freshly generated ID.
func NewStage(name string, status StageStatus) Stage {
	return Stage{ID: uuid.New(), Name: name, Status: status}
}

// Equal reports whether s and other are the same stage.
func (s Stage) Equal(other Stage) bool {
	return s.ID == other.ID
}

// TrackerSnapshot is the serialisable view of a Tracker.
type TrackerSnapshot struct {
	PipelineID string  `json:"pipeline_id"`
	Stages     []Stage `json:"stages"`
}
