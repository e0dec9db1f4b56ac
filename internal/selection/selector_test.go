package selection

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/rs/zerolog"

	"photoshoot-server/internal/domain"
)

type fakeResults struct {
	results     []domain.GeneratedResult
	assignCalls int
	listCalls   int

	// staleCount makes CountSelected report zero regardless of state,
	// simulating a reader that raced ahead of another writer's commit.
	staleCount bool
}

func (f *fakeResults) Create(ctx context.Context, result *domain.GeneratedResult) error {
	f.results = append(f.results, *result)
	return nil
}

func (f *fakeResults) ListByUser(ctx context.Context, userID string) ([]domain.GeneratedResult, error) {
	f.listCalls++
	var out []domain.GeneratedResult
	for _, r := range f.results {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeResults) ListByJob(ctx context.Context, jobID string) ([]domain.GeneratedResult, error) {
	return nil, nil
}

func (f *fakeResults) CountSelected(ctx context.Context, userID string) (int, error) {
	if f.staleCount {
		return 0, nil
	}
	count := 0
	for _, r := range f.results {
		if r.UserID == userID && r.ProfileOrder > 0 {
			count++
		}
	}
	return count, nil
}

func (f *fakeResults) AssignProfileOrders(ctx context.Context, userID string, orders map[string]int) error {
	f.assignCalls++
	for i := range f.results {
		if f.results[i].UserID != userID {
			continue
		}
		f.results[i].ProfileOrder = 0
		if slot, ok := orders[f.results[i].ID]; ok {
			f.results[i].ProfileOrder = slot
		}
	}
	return nil
}

func (f *fakeResults) SetProfileSlot(ctx context.Context, userID, resultID string, slot int) error {
	found := false
	for i := range f.results {
		if f.results[i].UserID == userID && f.results[i].ProfileOrder == slot {
			f.results[i].ProfileOrder = 0
		}
	}
	for i := range f.results {
		if f.results[i].UserID == userID && f.results[i].ID == resultID {
			f.results[i].ProfileOrder = slot
			found = true
		}
	}
	if !found {
		return domain.ErrNotFound
	}
	return nil
}

func seedResults(n int) *fakeResults {
	f := &fakeResults{}
	for i := 0; i < n; i++ {
		f.results = append(f.results, domain.GeneratedResult{
			ID:     fmt.Sprintf("r-%d", i),
			UserID: "u1",
		})
	}
	return f
}

func newTestService(f *fakeResults) *Service {
	s := NewService(f, zerolog.Nop())
	// Reverse instead of shuffling so assertions are deterministic.
	s.shuffle = func(n int, swap func(i, j int)) {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			swap(i, j)
		}
	}
	return s
}

func TestEnsureDefaultSelectsSixOfTen(t *testing.T) {
	f := seedResults(10)
	s := newTestService(f)

	if err := s.EnsureDefault(context.Background(), "u1"); err != nil {
		t.Fatalf("EnsureDefault returned error: %v", err)
	}

	slots := map[int]string{}
	for _, r := range f.results {
		if r.ProfileOrder == 0 {
			continue
		}
		if prev, dup := slots[r.ProfileOrder]; dup {
			t.Fatalf("slot %d assigned to both %s and %s", r.ProfileOrder, prev, r.ID)
		}
		slots[r.ProfileOrder] = r.ID
	}
	if len(slots) != domain.MaxProfileSlots {
		t.Fatalf("selected = %d results, want %d", len(slots), domain.MaxProfileSlots)
	}
	for slot := 1; slot <= domain.MaxProfileSlots; slot++ {
		if _, ok := slots[slot]; !ok {
			t.Fatalf("slot %d unassigned", slot)
		}
	}
}

func TestEnsureDefaultSelectsAllWhenFewerThanSix(t *testing.T) {
	f := seedResults(4)
	s := newTestService(f)

	if err := s.EnsureDefault(context.Background(), "u1"); err != nil {
		t.Fatalf("EnsureDefault returned error: %v", err)
	}
	for _, r := range f.results {
		if r.ProfileOrder < 1 || r.ProfileOrder > 4 {
			t.Fatalf("result %s has slot %d, want 1..4", r.ID, r.ProfileOrder)
		}
	}
}

func TestEnsureDefaultNoOpWhenAlreadySelected(t *testing.T) {
	f := seedResults(10)
	s := newTestService(f)
	if err := s.EnsureDefault(context.Background(), "u1"); err != nil {
		t.Fatalf("first EnsureDefault returned error: %v", err)
	}

	if err := s.EnsureDefault(context.Background(), "u1"); err != nil {
		t.Fatalf("second EnsureDefault returned error: %v", err)
	}
	if f.assignCalls != 1 {
		t.Fatalf("assignCalls = %d, want 1", f.assignCalls)
	}
}

func TestEnsureDefaultOverlappingRunsKeepSlotsUnique(t *testing.T) {
	f := seedResults(10)
	// Both runs observe the pre-assignment count, as two jobs finishing at
	// the same time would.
	f.staleCount = true
	s := newTestService(f)

	if err := s.EnsureDefault(context.Background(), "u1"); err != nil {
		t.Fatalf("first EnsureDefault returned error: %v", err)
	}

	// Second run shuffles differently and picks a disjoint six.
	s.shuffle = func(n int, swap func(i, j int)) {}
	if err := s.EnsureDefault(context.Background(), "u1"); err != nil {
		t.Fatalf("second EnsureDefault returned error: %v", err)
	}

	slots := map[int]string{}
	selected := 0
	for _, r := range f.results {
		if r.ProfileOrder == 0 {
			continue
		}
		selected++
		if prev, dup := slots[r.ProfileOrder]; dup {
			t.Fatalf("slot %d held by both %s and %s", r.ProfileOrder, prev, r.ID)
		}
		slots[r.ProfileOrder] = r.ID
	}
	if selected != domain.MaxProfileSlots {
		t.Fatalf("selected = %d results, want %d", selected, domain.MaxProfileSlots)
	}
	// The later writer's picks are the surviving selection.
	for slot := 1; slot <= domain.MaxProfileSlots; slot++ {
		want := fmt.Sprintf("r-%d", slot-1)
		if slots[slot] != want {
			t.Fatalf("slot %d = %s, want %s", slot, slots[slot], want)
		}
	}
}

func TestEnsureDefaultNoResults(t *testing.T) {
	f := seedResults(0)
	s := newTestService(f)
	if err := s.EnsureDefault(context.Background(), "u1"); err != nil {
		t.Fatalf("EnsureDefault returned error: %v", err)
	}
	if f.assignCalls != 0 {
		t.Fatalf("assignCalls = %d, want 0", f.assignCalls)
	}
}

func TestSetSlotValidatesRange(t *testing.T) {
	f := seedResults(2)
	s := newTestService(f)

	for _, slot := range []int{0, -1, 7} {
		if err := s.SetSlot(context.Background(), "u1", "r-0", slot); !errors.Is(err, domain.ErrInvalidSlot) {
			t.Fatalf("SetSlot(%d) error = %v, want ErrInvalidSlot", slot, err)
		}
	}
}

func TestSetSlotReassignsHolder(t *testing.T) {
	f := seedResults(2)
	s := newTestService(f)

	if err := s.SetSlot(context.Background(), "u1", "r-0", 1); err != nil {
		t.Fatalf("SetSlot returned error: %v", err)
	}
	if err := s.SetSlot(context.Background(), "u1", "r-1", 1); err != nil {
		t.Fatalf("SetSlot returned error: %v", err)
	}

	if f.results[0].ProfileOrder != 0 {
		t.Fatalf("previous holder kept slot: %+v", f.results[0])
	}
	if f.results[1].ProfileOrder != 1 {
		t.Fatalf("new holder slot = %d, want 1", f.results[1].ProfileOrder)
	}
}
