package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"photoshoot-server/internal/domain"
)

// ScenarioRepositoryPG reads the scenario catalog table maintained by the
// catalog service.
type ScenarioRepositoryPG struct {
	pool *pgxpool.Pool
}

// NewScenarioRepository creates a scenario repository backed by PostgreSQL.
func NewScenarioRepository(pool *pgxpool.Pool) *ScenarioRepositoryPG {
	return &ScenarioRepositoryPG{pool: pool}
}

// GetByName fetches one scenario.
func (r *ScenarioRepositoryPG) GetByName(ctx context.Context, name string) (*domain.Scenario, error) {
	query := `
SELECT name, prompt, created_at
FROM scenarios
WHERE name = $1;
`
	row := r.pool.QueryRow(ctx, query, name)
	var scenario domain.Scenario
	if err := row.Scan(&scenario.Name, &scenario.Prompt, &scenario.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &scenario, nil
}

// ResolvePrompt satisfies generation.PromptResolver.
func (r *ScenarioRepositoryPG) ResolvePrompt(ctx context.Context, name string) (string, error) {
	scenario, err := r.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", fmt.Errorf("%w: %s", domain.ErrUnknownScenario, name)
		}
		return "", err
	}
	return scenario.Prompt, nil
}

var _ domain.ScenarioRepository = (*ScenarioRepositoryPG)(nil)
