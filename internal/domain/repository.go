package domain

import (
	"context"
	"time"
)

// CreditLedger exposes the payment ledger operations the gate needs: lookup
// and a conditional single-row redeem.
type CreditLedger interface {
	LatestUnredeemed(ctx context.Context, userID string) (*PaymentCredit, error)
	FindByReference(ctx context.Context, userID, reference string) (*PaymentCredit, error)
	// Redeem flips redeemed=false to true for the credit and returns false
	// when the credit was already redeemed by a concurrent caller.
	Redeem(ctx context.Context, creditID string, at time.Time) (bool, error)
}

// GenerationJobRepository persists generation job records.
type GenerationJobRepository interface {
	Create(ctx context.Context, job *GenerationJob) error
	// Finalize writes the terminal status once; a job never leaves a
	// terminal state again.
	Finalize(ctx context.Context, jobID string, completedTasks int, status JobStatus, at time.Time) error
	GetByID(ctx context.Context, jobID string) (*GenerationJob, error)
}

// ResultRepository persists generated results and profile selections.
type ResultRepository interface {
	Create(ctx context.Context, result *GeneratedResult) error
	ListByUser(ctx context.Context, userID string) ([]GeneratedResult, error)
	ListByJob(ctx context.Context, jobID string) ([]GeneratedResult, error)
	CountSelected(ctx context.Context, userID string) (int, error)
	// AssignProfileOrders replaces the user's entire selection with the
	// given result->slot mapping as one transaction: existing slots are
	// cleared before the new ones are written.
	AssignProfileOrders(ctx context.Context, userID string, orders map[string]int) error
	// SetProfileSlot clears the current holder of the slot and assigns it to
	// the given result, atomically.
	SetProfileSlot(ctx context.Context, userID, resultID string, slot int) error
}

// PhotoRepository persists source photos and their validation outcome.
type PhotoRepository interface {
	GetByID(ctx context.Context, photoID string) (*SourcePhoto, error)
	// ListByIDs returns the user's photos in the order of the requested IDs
	// and fails with ErrNotFound when any ID is missing.
	ListByIDs(ctx context.Context, userID string, photoIDs []string) ([]SourcePhoto, error)
	SetValidation(ctx context.Context, photoID string, status ValidationStatus, warnings []Warning) error
}

// ScenarioRepository reads the scenario catalog.
type ScenarioRepository interface {
	GetByName(ctx context.Context, name string) (*Scenario, error)
}
