package schedule

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError carries the human-readable issues that rejected a
// configuration update.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid configuration: %v", e.Issues)
}

// TimeFormat is the wire format for every timestamp in the persisted
// state document. An empty string means "not set".
const TimeFormat = time.RFC3339

// MinInterval is the floor for the monitoring interval. Writes below
// it are clamped, never rejected.
const MinInterval = time.Minute

type Monitor struct {
	URL                 string `json:"url" mapstructure:"url"`
	IntervalMinutes     int    `json:"interval_minutes" mapstructure:"interval_minutes"`
	DataDirectory       string `json:"data_directory" mapstructure:"data_directory"`
	Enabled             bool   `json:"enabled" mapstructure:"enabled"`
	ContinuousMode      bool   `json:"continuous_mode" mapstructure:"continuous_mode"`
	LastCheckTime       string `json:"last_check_time,omitempty" mapstructure:"last_check_time"`
	LastSuccessfulCheck string `json:"last_successful_check,omitempty" mapstructure:"last_successful_check"`
	NextScheduledCheck  string `json:"next_scheduled_check,omitempty" mapstructure:"next_scheduled_check"`
	TotalChecks         int    `json:"total_checks" mapstructure:"total_checks"`
	FailedChecks        int    `json:"failed_checks" mapstructure:"failed_checks"`
}

type Session struct {
	ID                string  `json:"session_id,omitempty" mapstructure:"session_id"`
	StartTime         string  `json:"start_time,omitempty" mapstructure:"start_time"`
	EndTime           string  `json:"end_time,omitempty" mapstructure:"end_time"`
	DurationSeconds   float64 `json:"session_duration" mapstructure:"session_duration"`
	ChecksThisSession int     `json:"checks_this_session" mapstructure:"checks_this_session"`
}

type Notifications struct {
	EnableChanges bool `json:"enable_changes" mapstructure:"enable_changes"`
	EnableErrors  bool `json:"enable_errors" mapstructure:"enable_errors"`
}

type Storage struct {
	MaxFiles    int  `json:"max_files" mapstructure:"max_files"`
	AutoCleanup bool `json:"auto_cleanup" mapstructure:"auto_cleanup"`
}

// State is the whole persisted document. It survives restarts and is
// the single source of truth for scheduling, lifetime statistics and
// the current session.
type State struct {
	Monitor       Monitor       `json:"monitor" mapstructure:"monitor"`
	Notifications Notifications `json:"notifications" mapstructure:"notifications"`
	Storage       Storage       `json:"storage" mapstructure:"storage"`
	Session       Session       `json:"session" mapstructure:"session"`
	CreatedAt     string        `json:"created_at,omitempty" mapstructure:"created_at"`
	LastModified  string        `json:"last_modified,omitempty" mapstructure:"last_modified"`
}

// DefaultState builds a fresh document seeded from bootstrap
// configuration. Counters start at zero and no check has happened yet.
func DefaultState(url string, intervalMinutes int, dataDir string, continuous bool, now time.Time) *State {
	if intervalMinutes < 1 {
		intervalMinutes = 1
	}
	ts := now.Format(TimeFormat)
	return &State{
		Monitor: Monitor{
			URL:             url,
			IntervalMinutes: intervalMinutes,
			DataDirectory:   dataDir,
			Enabled:         false,
			ContinuousMode:  continuous,
		},
		Notifications: Notifications{EnableChanges: true, EnableErrors: true},
		Storage:       Storage{MaxFiles: 100, AutoCleanup: true},
		CreatedAt:     ts,
		LastModified:  ts,
	}
}

// Interval returns the configured check interval, clamped to MinInterval.
func (s *State) Interval() time.Duration {
	m := s.Monitor.IntervalMinutes
	if m < 1 {
		m = 1
	}
	return time.Duration(m) * time.Minute
}

// Validate reports human-readable problems with the monitor settings.
// An empty slice means the state is usable.
func (s *State) Validate() []string {
	var issues []string
	if u := s.Monitor.URL; u == "" || (!strings.HasPrefix(u, "http://") && !strings.HasPrefix(u, "https://")) {
		issues = append(issues, "monitor url must be a valid http/https address")
	}
	if s.Monitor.IntervalMinutes < 1 {
		issues = append(issues, "monitor interval must be at least 1 minute")
	}
	if s.Monitor.DataDirectory == "" {
		issues = append(issues, "data directory must not be empty")
	}
	return issues
}

// ParseTime decodes a document timestamp. ok is false for empty or
// malformed values; callers treat those as "not set".
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(TimeFormat, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Stats is the derived view over session and lifetime counters that
// presentation layers read.
type Stats struct {
	SessionID           string        `json:"session_id,omitempty"`
	SessionStart        string        `json:"session_start,omitempty"`
	SessionChecks       int           `json:"session_checks"`
	TotalChecks         int           `json:"total_checks"`
	FailedChecks        int           `json:"failed_checks"`
	SuccessRate         float64       `json:"success_rate"`
	LastCheck           string        `json:"last_check,omitempty"`
	LastSuccessfulCheck string        `json:"last_successful_check,omitempty"`
	NextCheck           string        `json:"next_check,omitempty"`
	TimeUntilNext       time.Duration `json:"-"`
}

// SuccessRate computes (total-failed)/total as a percentage, zero when
// nothing has run yet.
func SuccessRate(total, failed int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(total-failed) / float64(total) * 100
}
