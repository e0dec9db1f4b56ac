package domain

import "time"

// MaxProfileSlots caps the curated profile set per user.
const MaxProfileSlots = 6

// GeneratedResult is one synthesized image produced by a generation task.
// ProfileOrder is 0 when the result is not part of the user's profile set;
// assigned slots are unique per user and drawn from 1..MaxProfileSlots.
type GeneratedResult struct {
	ID           string
	UserID       string
	JobID        string
	PhotoID      string
	Scenario     string
	Prompt       string
	StorageKey   string
	ProfileOrder int
	IsSample     bool
	CreatedAt    time.Time
}

// Selected reports whether the result occupies a profile slot.
func (r *GeneratedResult) Selected() bool {
	return r.ProfileOrder > 0
}
