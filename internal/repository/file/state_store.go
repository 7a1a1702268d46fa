package file

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/tx-code/subwatch/internal/domain/schedule"
)

var _ schedule.Store = (*StateStore)(nil)

// StateStore keeps the schedule document in a single JSON file and a
// matching in-memory copy. Every mutating call is a read-modify-write
// against the in-memory state followed by a save; the daemon process
// is the only writer.
type StateStore struct {
	path     string
	defaults *schedule.State
	clock    schedule.Clock
	log      *zap.Logger

	mu    sync.Mutex
	state *schedule.State
}

// NewStateStore loads the document at path, merging whatever is on
// disk over the supplied defaults. Missing or unreadable documents
// fall back to the defaults; load never fails.
func NewStateStore(path string, defaults *schedule.State, clock schedule.Clock, log *zap.Logger) *StateStore {
	s := &StateStore{path: path, defaults: defaults, clock: clock, log: log}
	s.state = s.load()
	return s
}

func (s *StateStore) load() *schedule.State {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("state document unreadable, using defaults", zap.String("path", s.path), zap.Error(err))
		}
		return cloneState(s.defaults)
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		s.log.Warn("state document corrupt, using defaults", zap.String("path", s.path), zap.Error(err))
		return cloneState(s.defaults)
	}

	base, err := toDocument(s.defaults)
	if err != nil {
		return cloneState(s.defaults)
	}
	st, err := fromDocument(mergeDocuments(base, doc))
	if err != nil {
		s.log.Warn("state document malformed, using defaults", zap.Error(err))
		return cloneState(s.defaults)
	}
	if st.Monitor.IntervalMinutes < 1 {
		st.Monitor.IntervalMinutes = 1
	}
	return st
}

// save stamps last_modified and writes the whole document.
func (s *StateStore) save() error {
	s.state.LastModified = s.clock.Now().Format(schedule.TimeFormat)

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("state dir: %w", err)
		}
	}
	raw, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	return nil
}

func (s *StateStore) State() *schedule.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneState(s.state)
}

func (s *StateStore) UpdateConfig(updates map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	base, err := toDocument(s.state)
	if err != nil {
		return fmt.Errorf("encode current state: %w", err)
	}
	candidate, err := fromDocument(mergeDocuments(base, updates))
	if err != nil {
		return fmt.Errorf("decode merged state: %w", err)
	}
	if candidate.Monitor.IntervalMinutes < 1 {
		candidate.Monitor.IntervalMinutes = 1
	}
	if issues := candidate.Validate(); len(issues) > 0 {
		return &schedule.ValidationError{Issues: issues}
	}

	s.state = candidate
	return s.save()
}

func (s *StateStore) UpdateCheckTime(success bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	ts := now.Format(schedule.TimeFormat)

	m := &s.state.Monitor
	m.LastCheckTime = ts
	if success {
		m.LastSuccessfulCheck = ts
	}
	m.TotalChecks++
	if !success {
		m.FailedChecks++
	}
	m.NextScheduledCheck = now.Add(s.state.Interval()).Format(schedule.TimeFormat)

	s.state.Session.ChecksThisSession++
	return s.save()
}

func (s *StateStore) ShouldCheckNow() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.state.Monitor.ContinuousMode {
		return true
	}
	next, ok := schedule.ParseTime(s.state.Monitor.NextScheduledCheck)
	if !ok {
		return true
	}
	return !s.clock.Now().Before(next)
}

func (s *StateStore) TimeUntilNextCheck() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, ok := schedule.ParseTime(s.state.Monitor.NextScheduledCheck)
	if !ok {
		return 0
	}
	d := next.Sub(s.clock.Now())
	if d < 0 {
		return 0
	}
	return d
}

func (s *StateStore) StartSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state.Session.ID = uuid.NewString()
	s.state.Session.StartTime = s.clock.Now().Format(schedule.TimeFormat)
	s.state.Session.EndTime = ""
	s.state.Session.ChecksThisSession = 0
	return s.save()
}

func (s *StateStore) EndSession() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Now()
	// A malformed start time leaves the prior duration untouched.
	if start, ok := schedule.ParseTime(s.state.Session.StartTime); ok {
		s.state.Session.EndTime = now.Format(schedule.TimeFormat)
		s.state.Session.DurationSeconds = now.Sub(start).Seconds()
	}
	return s.save()
}

func (s *StateStore) Stats() schedule.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.state.Monitor
	sess := s.state.Session

	var until time.Duration
	if next, ok := schedule.ParseTime(m.NextScheduledCheck); ok {
		if d := next.Sub(s.clock.Now()); d > 0 {
			until = d
		}
	}

	return schedule.Stats{
		SessionID:           sess.ID,
		SessionStart:        sess.StartTime,
		SessionChecks:       sess.ChecksThisSession,
		TotalChecks:         m.TotalChecks,
		FailedChecks:        m.FailedChecks,
		SuccessRate:         schedule.SuccessRate(m.TotalChecks, m.FailedChecks),
		LastCheck:           m.LastCheckTime,
		LastSuccessfulCheck: m.LastSuccessfulCheck,
		NextCheck:           m.NextScheduledCheck,
		TimeUntilNext:       until,
	}
}

// Ping probes that the state file location is usable, for health checks.
func (s *StateStore) Ping() error {
	dir := filepath.Dir(s.path)
	if _, err := os.Stat(dir); err != nil {
		return fmt.Errorf("state dir: %w", err)
	}
	return nil
}

// mergeDocuments deep-merges overlay into base: nested maps merge key
// by key, everything else (including arrays and explicit zero values)
// is replaced wholesale.
func mergeDocuments(base, overlay map[string]any) map[string]any {
	out := make(map[string]any, len(base))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overlay {
		if ov, ok := v.(map[string]any); ok {
			if bv, ok := out[k].(map[string]any); ok {
				out[k] = mergeDocuments(bv, ov)
				continue
			}
		}
		out[k] = v
	}
	return out
}

func toDocument(st *schedule.State) (map[string]any, error) {
	raw, err := json.Marshal(st)
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func fromDocument(doc map[string]any) (*schedule.State, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var st schedule.State
	if err := json.Unmarshal(raw, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

func cloneState(st *schedule.State) *schedule.State {
	cp := *st
	return &cp
}
