package util

import "time"

// Seconds converts a config value in seconds, using fallback when unset
func Seconds(seconds, fallback int) time.Duration {
	if seconds <= 0 {
		seconds = fallback
	}
	return time.Duration(seconds) * time.Second
}
