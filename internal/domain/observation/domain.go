package observation

import "time"

// Observation is one row of the append-only check log: what the
// monitored page reported at one instant. Failed cycles produce a row
// too, with Success=false and the error message filled in.
type Observation struct {
	Timestamp   time.Time `json:"timestamp"`
	Subreddit   string    `json:"subreddit"`
	OnlineCount *int      `json:"online_count"`
	MemberCount *int      `json:"member_count"`
	Success     bool      `json:"success"`
	Error       string    `json:"error,omitempty"`
}
