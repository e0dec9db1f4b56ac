package domain

import "time"

// ValidationStatus enumerates source photo validation states.
type ValidationStatus string

const (
	ValidationPending  ValidationStatus = "pending"
	ValidationPassed   ValidationStatus = "validated"
	ValidationFailed   ValidationStatus = "failed"
	ValidationBypassed ValidationStatus = "bypassed"
)

// Terminal reports whether the status short-circuits re-validation. A failed
// photo may be validated again, so failed is not terminal.
func (s ValidationStatus) Terminal() bool {
	return s == ValidationPassed || s == ValidationBypassed
}

// Warning names a content-policy concern raised during photo validation.
type Warning string

const (
	WarningMultipleSubjects     Warning = "multiple_subjects"
	WarningFaceObscured         Warning = "face_obscured"
	WarningPoorLighting         Warning = "poor_lighting"
	WarningScreenshot           Warning = "screenshot"
	WarningFacePartiallyCovered Warning = "face_partially_covered"
)

// SourcePhoto is an uploaded photo that generation tasks draw from.
type SourcePhoto struct {
	ID               string
	UserID           string
	StorageKey       string
	ValidationStatus ValidationStatus
	Warnings         []Warning
	CreatedAt        time.Time
	UpdatedAt        time.Time
}
