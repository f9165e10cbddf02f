package mysql

const defaultListLimit = 100

// clampLimit keeps list queries bounded.
func clampLimit(n int) int {
	if n <= 0 || n > 1000 {
		return defaultListLimit
	}
	return n
}
