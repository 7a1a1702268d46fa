package observation

// Log is the durable sequential store for observations. Rows are
// appended, never edited or deleted.
type Log interface {
	// Append writes one row and returns the path of the backing file.
	Append(o *Observation) (string, error)
	// Last returns the most recent row, or nil when the log is empty.
	Last() (*Observation, error)
	// Recent returns up to limit rows, newest last.
	Recent(limit int) ([]*Observation, error)
}
