// Package selection manages the user's curated profile set: up to six
// generated results carrying unique profile slots.
package selection

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"photoshoot-server/internal/domain"
)

// Service assigns profile slots, either automatically for users who never
// curated a set, or one slot at a time on explicit request.
type Service struct {
	results domain.ResultRepository
	logger  zerolog.Logger

	// shuffle is rand.Shuffle in production; injectable for deterministic
	// tests.
	shuffle func(n int, swap func(i, j int))
}

// NewService constructs a selection service.
func NewService(results domain.ResultRepository, logger zerolog.Logger) *Service {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Service{
		results: results,
		logger:  logger,
		shuffle: rng.Shuffle,
	}
}

// EnsureDefault builds a default profile set for the user if they have none:
// an unbiased shuffle of all their results, the first min(6, n) taking slots
// 1..k in one transaction. Users with any existing selection are left alone.
//
// The check and the assignment are not serialized against each other, so two
// overlapping invocations can both pass the check. AssignProfileOrders
// replaces the whole selection, so the last committed writer wins outright
// and the slot invariant holds either way.
func (s *Service) EnsureDefault(ctx context.Context, userID string) error {
	selected, err := s.results.CountSelected(ctx, userID)
	if err != nil {
		return fmt.Errorf("count selected results: %w", err)
	}
	if selected > 0 {
		return nil
	}

	all, err := s.results.ListByUser(ctx, userID)
	if err != nil {
		return fmt.Errorf("list results: %w", err)
	}
	if len(all) == 0 {
		return nil
	}

	s.shuffle(len(all), func(i, j int) {
		all[i], all[j] = all[j], all[i]
	})

	k := domain.MaxProfileSlots
	if len(all) < k {
		k = len(all)
	}
	orders := make(map[string]int, k)
	for i := 0; i < k; i++ {
		orders[all[i].ID] = i + 1
	}

	if err := s.results.AssignProfileOrders(ctx, userID, orders); err != nil {
		return fmt.Errorf("assign profile orders: %w", err)
	}
	s.logger.Info().Str("user_id", userID).Int("selected", k).Msg("selection: default profile set assigned")
	return nil
}

// SetSlot assigns one profile slot to a result, clearing the slot's previous
// holder first so slot uniqueness survives reassignment.
func (s *Service) SetSlot(ctx context.Context, userID, resultID string, slot int) error {
	if slot < 1 || slot > domain.MaxProfileSlots {
		return domain.ErrInvalidSlot
	}
	return s.results.SetProfileSlot(ctx, userID, resultID, slot)
}
