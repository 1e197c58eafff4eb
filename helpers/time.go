package helpers

import "time"

// DurationDefault reads config integer in unit, zero means def.
func DurationDefault(x int, unit, def time.Duration) time.Duration {
	if x == 0 {
		return def
	}
	return time.Duration(x) * unit
}
