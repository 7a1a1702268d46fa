package monitor

// HasChanged reports whether the online count moved between two
// observations. A missing value counts as zero for the comparison
// only; the stored record keeps its nil. The result drives log
// emphasis, never whether a row is persisted.
func HasChanged(current, previous *int) bool {
	return intOrZero(current) != intOrZero(previous)
}

func intOrZero(v *int) int {
	if v == nil {
		return 0
	}
	return *v
}
