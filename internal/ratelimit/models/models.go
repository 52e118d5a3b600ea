package models

import "time"

// Result describes the outcome of a fixed-window rate limit check.
type Result struct {
	Allowed   bool
	Count     int
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Entry is one fixed-window counter. The window resets atomically the first
// time it is touched after ResetAt.
type Entry struct {
	Count   int
	ResetAt time.Time
}
