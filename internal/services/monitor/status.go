package monitor

// Status is the snapshot presentation layers render. All fields come
// from the schedule store; nothing here mutates state.
type Status struct {
	Enabled             bool    `json:"enabled"`
	URL                 string  `json:"url"`
	IntervalMinutes     int     `json:"interval_minutes"`
	ContinuousMode      bool    `json:"continuous_mode"`
	DataDirectory       string  `json:"data_directory"`
	SessionChecks       int     `json:"session_checks"`
	TotalChecks         int     `json:"total_checks"`
	FailedChecks        int     `json:"failed_checks"`
	SuccessRate         float64 `json:"success_rate"`
	LastCheck           string  `json:"last_check,omitempty"`
	LastSuccessfulCheck string  `json:"last_successful_check,omitempty"`
	NextCheck           string  `json:"next_check,omitempty"`
	TimeUntilNextSec    int     `json:"time_until_next_seconds"`
	CheckInFlight       bool    `json:"check_in_flight"`
}

func (r *Runner) Status() Status {
	st := r.store.State()
	stats := r.store.Stats()
	return Status{
		Enabled:             st.Monitor.Enabled,
		URL:                 st.Monitor.URL,
		IntervalMinutes:     st.Monitor.IntervalMinutes,
		ContinuousMode:      st.Monitor.ContinuousMode,
		DataDirectory:       st.Monitor.DataDirectory,
		SessionChecks:       stats.SessionChecks,
		TotalChecks:         stats.TotalChecks,
		FailedChecks:        stats.FailedChecks,
		SuccessRate:         stats.SuccessRate,
		LastCheck:           stats.LastCheck,
		LastSuccessfulCheck: stats.LastSuccessfulCheck,
		NextCheck:           stats.NextCheck,
		TimeUntilNextSec:    int(stats.TimeUntilNext.Seconds()),
		CheckInFlight:       r.inFlight.Load(),
	}
}
