// Package runstore keeps annealing runs submitted to the service and
// executes them in the background.
package runstore

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/jinzhu/copier"

	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/models"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/utils"
)

var (
	ErrRunNotFound  = errors.New("run not found")
	ErrRunExists    = errors.New("run already exists")
	ErrRunTerminal  = errors.New("run is terminal")
	ErrRunIDMissing = errors.New("run_id is required")
	ErrStoreFull    = errors.New("run store full")
	// ErrInvalidTransition is returned when a run is not in any of the
	// statuses a transition starts from.
	ErrInvalidTransition = errors.New("invalid run status transition")
)

// Record is a run together with its input and, once finished, its result.
type Record struct {
	Run    models.Run
	Input  models.RunInput
	Result *models.RunResult
}

type entry struct {
	rec *Record
	seq uint64
}

// Store is an in-memory, concurrency-safe run registry. Records returned
// by the store are snapshots; mutating them does not affect the store.
type Store struct {
	mu      sync.RWMutex
	runs    map[string]*entry
	seq     uint64
	maxRuns int
	now     func() time.Time
}

// NewStore creates a store keeping at most maxRuns runs; 0 is unlimited.
// When full, the oldest terminal run is evicted.
func NewStore(maxRuns int) *Store {
	return &Store{
		runs:    make(map[string]*entry),
		maxRuns: maxRuns,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create registers a pending run. An empty id is replaced by a generated one.
func (s *Store) Create(runID string, input models.RunInput) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if runID == "" {
		runID = utils.GenerateRunID()
	}
	if _, exists := s.runs[runID]; exists {
		return nil, fmt.Errorf("%w: %s", ErrRunExists, runID)
	}
	if s.maxRuns > 0 && len(s.runs) >= s.maxRuns && !s.evictLocked() {
		return nil, fmt.Errorf("%w: %d active runs", ErrStoreFull, len(s.runs))
	}

	s.seq++
	rec := &Record{
		Run: models.Run{
			ID:        runID,
			Status:    models.RunStatusPending,
			CreatedAt: s.now(),
		},
		Input: input,
	}
	s.runs[runID] = &entry{rec: rec, seq: s.seq}
	return snapshot(rec), nil
}

// evictLocked drops the oldest terminal run. It reports false when every
// stored run is still pending or running.
func (s *Store) evictLocked() bool {
	var oldest *entry
	for _, e := range s.runs {
		if !e.rec.Run.Status.IsTerminal() {
			continue
		}
		if oldest == nil || e.seq < oldest.seq {
			oldest = e
		}
	}
	if oldest == nil {
		return false
	}
	delete(s.runs, oldest.rec.Run.ID)
	return true
}

// Get returns a snapshot of the run.
func (s *Store) Get(runID string) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.runs[runID]
	if !ok {
		return nil, false
	}
	return snapshot(e.rec), true
}

// List returns up to limit runs, newest first. A limit of 0 or less means 50.
func (s *Store) List(limit int) []*Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 50
	}
	entries := make([]*entry, 0, len(s.runs))
	for _, e := range s.runs {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].seq > entries[j].seq })

	out := make([]*Record, 0, min(limit, len(entries)))
	for _, e := range entries[:min(limit, len(entries))] {
		out = append(out, snapshot(e.rec))
	}
	return out
}

// Transition moves a run to status only if its current status is one of
// from, stamping start and end times. A terminal run yields ErrRunTerminal;
// any other mismatch yields ErrInvalidTransition.
func (s *Store) Transition(runID string, from []models.RunStatus, status models.RunStatus, errMsg string) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.runs[runID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	run := &e.rec.Run
	if !slices.Contains(from, run.Status) {
		if run.Status.IsTerminal() {
			return nil, fmt.Errorf("%w: %s is %s", ErrRunTerminal, runID, run.Status)
		}
		return nil, fmt.Errorf("%w: %s is %s, not %s", ErrInvalidTransition, runID, run.Status, status)
	}

	run.Status = status
	if errMsg != "" {
		run.Error = errMsg
	}

	switch status {
	case models.RunStatusRunning:
		if run.StartedAt.IsZero() {
			run.StartedAt = s.now()
		}
	case models.RunStatusCompleted,
		models.RunStatusFailed,
		models.RunStatusCancelled:
		run.EndedAt = s.now()
	}

	return snapshot(e.rec), nil
}

// SetResult attaches the outcome of the engine to a run.
func (s *Store) SetResult(runID string, result *models.RunResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.runs[runID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	e.rec.Result = cloneResult(result)
	return nil
}

// Len returns the number of stored runs.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.runs)
}

func snapshot(rec *Record) *Record {
	out := &Record{}
	if err := copier.Copy(out, rec); err != nil {
		// only fails on mismatched kinds, which Record never has
		panic(fmt.Sprintf("runstore: copy record: %v", err))
	}
	out.Result = cloneResult(rec.Result)
	return out
}

func cloneResult(r *models.RunResult) *models.RunResult {
	if r == nil {
		return nil
	}
	out := &models.RunResult{}
	if err := copier.Copy(out, r); err != nil {
		panic(fmt.Sprintf("runstore: copy result: %v", err))
	}
	out.Tour = slices.Clone(r.Tour)
	out.BestTour = slices.Clone(r.BestTour)
	out.Trajectory = slices.Clone(r.Trajectory)
	return out
}
