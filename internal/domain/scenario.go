package domain

import "time"

// Scenario is a named photoshoot setting from the catalog. The catalog itself
// is maintained elsewhere; this core only resolves names to prompts.
type Scenario struct {
	Name      string
	Prompt    string
	CreatedAt time.Time
}
