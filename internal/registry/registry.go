// Package registry keeps an ordered collection of pipeline trackers keyed by
// pipeline ID.
package registry

import (
	"errors"
	"fmt"

	"github.com/lucasnoah/stagetrack/internal/pipeline"
)

// ErrNotFound is returned by lookups for a pipeline ID the registry does not hold.
var ErrNotFound = errors.New("tracker not found")

// Registry owns the trackers added to it. Duplicate pipeline IDs are accepted
// on insert; every ID-based operation acts on the first match. It is not safe
// for concurrent use.
type Registry struct {
	trackers []*pipeline.Tracker
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{}
}

// AddTracker appends t without checking for an existing tracker with the same ID.
func (r *Registry) AddTracker(t *pipeline.Tracker) {
	r.trackers = append(r.trackers, t)
}

// UpdateTracker replaces the first tracker whose ID matches t.ID() with t.
// The previous tracker, stages included, is discarded. It does nothing when
// no tracker matches.
func (r *Registry) UpdateTracker(t *pipeline.Tracker) {
	if i := r.indexOf(t.ID()); i >= 0 {
		r.trackers[i] = t
	}
}

// Get returns the first tracker with the given pipeline ID.
func (r *Registry) Get(pipelineID string) (*pipeline.Tracker, error) {
	if i := r.indexOf(pipelineID); i >= 0 {
		return r.trackers[i], nil
	}
	return nil, fmt.Errorf("%w: %q", ErrNotFound, pipelineID)
}

// Contains reports whether any tracker has the given pipeline ID.
func (r *Registry) Contains(pipelineID string) bool {
	return r.indexOf(pipelineID) >= 0
}

// Trackers returns the trackers in insertion order. The slice is a copy; the
// trackers are not.
func (r *Registry) Trackers() []*pipeline.Tracker {
	out := make([]*pipeline.Tracker, len(r.trackers))
	copy(out, r.trackers)
	return out
}

// Len returns the number of trackers, duplicates included.
func (r *Registry) Len() int {
	return len(r.trackers)
}

// Snapshot returns the serialisable view of every tracker in insertion order.
func (r *Registry) Snapshot() []pipeline.TrackerSnapshot {
	out := make([]pipeline.TrackerSnapshot, 0, len(r.trackers))
	for _, t := range r.trackers {
		out = append(out, t.Snapshot())
	}
	return out
}

func (r *Registry) indexOf(pipelineID string) int {
	for i, t := range r.trackers {
		if t.ID() == pipelineID {
			return i
		}
	}
	return -1
}

// AddTrackerToRegistry appends t to r.
func AddTrackerToRegistry(r *Registry, t *pipeline.Tracker) {
	r.AddTracker(t)
}

// UpdateTrackerInRegistry replaces the tracker in r that shares t's ID.
func UpdateTrackerInRegistry(r *Registry, t *pipeline.Tracker) {
	r.UpdateTracker(t)
}
