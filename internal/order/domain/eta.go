package domain

import "time"

// DefaultTotalEtaMinutes is the nominal delivery window in simulated minutes.
const DefaultTotalEtaMinutes = 30

// DeriveEta returns the remaining countdown in simulated minutes for an order
// created at createdAt. simMinute is the wall-clock duration of one simulated
// minute; the countdown is monotonically non-increasing and floors at zero.
func DeriveEta(createdAt, now time.Time, totalMinutes int, simMinute time.Duration) int {
	if simMinute <= 0 {
		simMinute = time.Minute
	}
	elapsed := now.Sub(createdAt)
	if elapsed < 0 {
		elapsed = 0
	}
	remaining := totalMinutes - int(elapsed/simMinute)
	if remaining < 0 {
		return 0
	}
	return remaining
}
