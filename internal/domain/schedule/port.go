package schedule

import "time"

// Store owns the persisted schedule document. Implementations persist
// after every mutating call; the daemon process is the single writer.
type Store interface {
	// State returns a snapshot of the current document.
	State() *State
	// UpdateConfig deep-merges a partial document over the current one,
	// clamps the interval and persists. Nested maps merge key by key,
	// scalars are replaced wholesale.
	UpdateConfig(updates map[string]any) error
	// UpdateCheckTime records the outcome of one monitoring cycle:
	// bumps counters, stamps last/next check times and persists.
	UpdateCheckTime(success bool) error
	// ShouldCheckNow reports whether a check is due. Always true when
	// continuous mode is off or no check has ever been scheduled.
	ShouldCheckNow() bool
	// TimeUntilNextCheck is the remaining wait, never negative, zero
	// when no check is scheduled.
	TimeUntilNextCheck() time.Duration
	StartSession() error
	EndSession() error
	Stats() Stats
}

// Clock abstracts time for scheduling arithmetic so tests can pin it.
type Clock interface {
	Now() time.Time
}
