package payment

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"
	"time"

	"photoshoot-server/internal/domain"
)

type fakeLedger struct {
	mu      sync.Mutex
	credits []*domain.PaymentCredit
}

func (l *fakeLedger) LatestUnredeemed(ctx context.Context, userID string) (*domain.PaymentCredit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var candidates []*domain.PaymentCredit
	for _, c := range l.credits {
		if c.UserID == userID && !c.Redeemed {
			candidates = append(candidates, c)
		}
	}
	if len(candidates) == 0 {
		return nil, domain.ErrNotFound
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].PaidAt.After(candidates[j].PaidAt)
	})
	out := *candidates[0]
	return &out, nil
}

func (l *fakeLedger) FindByReference(ctx context.Context, userID, reference string) (*domain.PaymentCredit, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.credits {
		if c.UserID == userID && (c.ID == reference || c.Reference == reference) {
			out := *c
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (l *fakeLedger) Redeem(ctx context.Context, creditID string, at time.Time) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, c := range l.credits {
		if c.ID == creditID {
			if c.Redeemed {
				return false, nil
			}
			c.Redeemed = true
			c.RedeemedAt = &at
			return true, nil
		}
	}
	return false, nil
}

func credit(id, userID, reference string, paidAt time.Time) *domain.PaymentCredit {
	return &domain.PaymentCredit{
		ID:        id,
		UserID:    userID,
		Amount:    2900,
		Currency:  "USD",
		Reference: reference,
		PaidAt:    paidAt,
	}
}

func TestReservePicksMostRecentlyPaid(t *testing.T) {
	now := time.Now()
	ledger := &fakeLedger{credits: []*domain.PaymentCredit{
		credit("c-old", "u1", "pay_old", now.Add(-time.Hour)),
		credit("c-new", "u1", "pay_new", now),
	}}
	gate := NewGate(ledger)

	got, err := gate.Reserve(context.Background(), "u1", "")
	if err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}
	if got.ID != "c-new" {
		t.Fatalf("reserved credit = %q, want %q", got.ID, "c-new")
	}
	if !got.Redeemed || got.RedeemedAt == nil {
		t.Fatalf("credit not marked redeemed: %+v", got)
	}
}

func TestReserveNoCredit(t *testing.T) {
	gate := NewGate(&fakeLedger{})
	_, err := gate.Reserve(context.Background(), "u1", "")
	if !errors.Is(err, domain.ErrNoCredit) {
		t.Fatalf("error = %v, want ErrNoCredit", err)
	}
}

func TestReserveByReference(t *testing.T) {
	now := time.Now()
	ledger := &fakeLedger{credits: []*domain.PaymentCredit{
		credit("c-1", "u1", "pay_1", now.Add(-time.Hour)),
		credit("c-2", "u1", "pay_2", now),
	}}
	gate := NewGate(ledger)

	got, err := gate.Reserve(context.Background(), "u1", "pay_1")
	if err != nil {
		t.Fatalf("Reserve returned error: %v", err)
	}
	if got.ID != "c-1" {
		t.Fatalf("reserved credit = %q, want %q", got.ID, "c-1")
	}
}

func TestReserveUnknownReference(t *testing.T) {
	ledger := &fakeLedger{credits: []*domain.PaymentCredit{
		credit("c-1", "u1", "pay_1", time.Now()),
	}}
	gate := NewGate(ledger)

	_, err := gate.Reserve(context.Background(), "u1", "pay_missing")
	if !errors.Is(err, domain.ErrInvalidCreditRef) {
		t.Fatalf("error = %v, want ErrInvalidCreditRef", err)
	}
}

func TestReserveAlreadyRedeemedReference(t *testing.T) {
	now := time.Now()
	redeemed := credit("c-1", "u1", "pay_1", now.Add(-time.Hour))
	redeemed.Redeemed = true
	ledger := &fakeLedger{credits: []*domain.PaymentCredit{
		redeemed,
		credit("c-2", "u1", "pay_2", now),
	}}
	gate := NewGate(ledger)

	_, err := gate.Reserve(context.Background(), "u1", "pay_1")
	if !errors.Is(err, domain.ErrCreditRedeemed) {
		t.Fatalf("error = %v, want ErrCreditRedeemed", err)
	}
}

func TestReserveConcurrentSingleCredit(t *testing.T) {
	ledger := &fakeLedger{credits: []*domain.PaymentCredit{
		credit("c-1", "u1", "pay_1", time.Now()),
	}}
	gate := NewGate(ledger)

	const callers = 8
	var wg sync.WaitGroup
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = gate.Reserve(context.Background(), "u1", "")
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, domain.ErrNoCredit), errors.Is(err, domain.ErrCreditRedeemed):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 {
		t.Fatalf("succeeded = %d, want exactly 1", succeeded)
	}
}
