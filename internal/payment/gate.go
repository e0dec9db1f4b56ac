// Package payment gates generation on a single-use credit. Reservation
// happens before fan-out so a crash mid-generation never leaves an ambiguous
// paid-or-not state.
package payment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photoshoot-server/internal/domain"
)

// Gate finds and atomically reserves exactly one unredeemed credit per
// generation request.
type Gate struct {
	ledger domain.CreditLedger
	now    func() time.Time
}

// NewGate constructs a gate over the payment ledger.
func NewGate(ledger domain.CreditLedger) *Gate {
	return &Gate{ledger: ledger, now: time.Now}
}

// Reserve picks the user's most recently paid unredeemed credit and redeems
// it. When reference is supplied and names a different credit, that credit is
// reserved instead. The redeem itself is a single conditional update, so two
// concurrent calls for the same owner can never double-reserve one credit.
func (g *Gate) Reserve(ctx context.Context, userID, reference string) (*domain.PaymentCredit, error) {
	credit, err := g.locate(ctx, userID, reference)
	if err != nil {
		return nil, err
	}

	at := g.now()
	ok, err := g.ledger.Redeem(ctx, credit.ID, at)
	if err != nil {
		return nil, fmt.Errorf("redeem credit %s: %w", credit.ID, err)
	}
	if !ok {
		// Lost the race: the credit we found was redeemed between lookup
		// and update.
		if reference != "" {
			return nil, domain.ErrCreditRedeemed
		}
		return nil, domain.ErrNoCredit
	}

	credit.Redeemed = true
	credit.RedeemedAt = &at
	return credit, nil
}

func (g *Gate) locate(ctx context.Context, userID, reference string) (*domain.PaymentCredit, error) {
	latest, err := g.ledger.LatestUnredeemed(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, fmt.Errorf("lookup unredeemed credit: %w", err)
	}

	if reference == "" {
		if latest == nil {
			return nil, domain.ErrNoCredit
		}
		return latest, nil
	}

	if latest != nil && (latest.ID == reference || latest.Reference == reference) {
		return latest, nil
	}

	referenced, err := g.ledger.FindByReference(ctx, userID, reference)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrInvalidCreditRef
		}
		return nil, fmt.Errorf("lookup credit by reference: %w", err)
	}
	if referenced.Redeemed {
		return nil, domain.ErrCreditRedeemed
	}
	return referenced, nil
}
