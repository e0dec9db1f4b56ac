package validation

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"photoshoot-server/internal/domain"
)

type fakePhotos struct {
	photos map[string]*domain.SourcePhoto
}

func (f *fakePhotos) GetByID(ctx context.Context, photoID string) (*domain.SourcePhoto, error) {
	p, ok := f.photos[photoID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *p
	return &out, nil
}

func (f *fakePhotos) ListByIDs(ctx context.Context, userID string, photoIDs []string) ([]domain.SourcePhoto, error) {
	return nil, nil
}

func (f *fakePhotos) SetValidation(ctx context.Context, photoID string, status domain.ValidationStatus, warnings []domain.Warning) error {
	p, ok := f.photos[photoID]
	if !ok {
		return domain.ErrNotFound
	}
	p.ValidationStatus = status
	p.Warnings = warnings
	return nil
}

type fakeStore struct {
	data  map[string][]byte
	reads int
}

func (f *fakeStore) Read(ctx context.Context, key string) ([]byte, error) {
	f.reads++
	d, ok := f.data[key]
	if !ok {
		return nil, fmt.Errorf("no object at %q", key)
	}
	return d, nil
}

type fakeAnalyzer struct {
	calls     int
	responses []string
	errs      []error
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, image []byte, prompt string) ([]byte, error) {
	i := f.calls
	f.calls++
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	if i < len(f.responses) {
		return []byte(f.responses[i]), nil
	}
	return []byte(f.responses[len(f.responses)-1]), nil
}

const cleanFindings = `{"multiple_subjects":false,"face_obscured":false,"poor_lighting":false,"screenshot":false,"face_partially_covered":false}`

func newFixture(status domain.ValidationStatus, analyzer *fakeAnalyzer) (*Validator, *fakePhotos, *fakeStore) {
	photos := &fakePhotos{photos: map[string]*domain.SourcePhoto{
		"p1": {ID: "p1", UserID: "u1", StorageKey: "uploads/p1.jpg", ValidationStatus: status},
	}}
	store := &fakeStore{data: map[string][]byte{"uploads/p1.jpg": []byte("jpeg-bytes")}}
	v := NewValidator(photos, store, analyzer, zerolog.Nop())
	v.limiter = rate.NewLimiter(rate.Inf, 1)
	v.retry.Sleep = func(ctx context.Context, d time.Duration) error { return nil }
	return v, photos, store
}

func TestValidateCleanPhoto(t *testing.T) {
	analyzer := &fakeAnalyzer{responses: []string{cleanFindings}}
	v, photos, _ := newFixture(domain.ValidationPending, analyzer)

	res, err := v.Validate(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if !res.IsValid || len(res.Warnings) != 0 {
		t.Fatalf("result = %+v, want valid with no warnings", res)
	}
	if photos.photos["p1"].ValidationStatus != domain.ValidationPassed {
		t.Fatalf("status = %q, want validated", photos.photos["p1"].ValidationStatus)
	}
}

func TestValidateMapsWarnings(t *testing.T) {
	analyzer := &fakeAnalyzer{responses: []string{
		`{"multiple_subjects":true,"face_obscured":false,"poor_lighting":true,"screenshot":false,"face_partially_covered":false}`,
	}}
	v, photos, _ := newFixture(domain.ValidationPending, analyzer)

	res, err := v.Validate(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if res.IsValid {
		t.Fatalf("result valid despite warnings: %+v", res)
	}
	want := []domain.Warning{domain.WarningMultipleSubjects, domain.WarningPoorLighting}
	if len(res.Warnings) != len(want) {
		t.Fatalf("warnings = %v, want %v", res.Warnings, want)
	}
	for i := range want {
		if res.Warnings[i] != want[i] {
			t.Fatalf("warnings[%d] = %q, want %q", i, res.Warnings[i], want[i])
		}
	}
	if photos.photos["p1"].ValidationStatus != domain.ValidationFailed {
		t.Fatalf("status = %q, want failed", photos.photos["p1"].ValidationStatus)
	}
}

func TestValidateShortCircuitsTerminalStatus(t *testing.T) {
	for _, status := range []domain.ValidationStatus{domain.ValidationPassed, domain.ValidationBypassed} {
		t.Run(string(status), func(t *testing.T) {
			analyzer := &fakeAnalyzer{responses: []string{cleanFindings}}
			v, _, store := newFixture(status, analyzer)

			res, err := v.Validate(context.Background(), "p1")
			if err != nil {
				t.Fatalf("Validate returned error: %v", err)
			}
			if !res.IsValid {
				t.Fatalf("result = %+v, want valid", res)
			}
			if analyzer.calls != 0 {
				t.Fatalf("analyzer calls = %d, want 0", analyzer.calls)
			}
			if store.reads != 0 {
				t.Fatalf("store reads = %d, want 0", store.reads)
			}
		})
	}
}

func TestValidateCachesTerminalResult(t *testing.T) {
	analyzer := &fakeAnalyzer{responses: []string{cleanFindings}}
	v, _, _ := newFixture(domain.ValidationPending, analyzer)

	if _, err := v.Validate(context.Background(), "p1"); err != nil {
		t.Fatalf("first Validate returned error: %v", err)
	}
	if _, err := v.Validate(context.Background(), "p1"); err != nil {
		t.Fatalf("second Validate returned error: %v", err)
	}
	if analyzer.calls != 1 {
		t.Fatalf("analyzer calls = %d, want 1", analyzer.calls)
	}
}

func TestValidateMalformedResponseFailsClosed(t *testing.T) {
	tests := []struct {
		name     string
		response string
	}{
		{"not json", `nope`},
		{"missing field", `{"multiple_subjects":false,"face_obscured":false,"poor_lighting":false,"screenshot":false}`},
		{"unknown field", cleanFindings[:len(cleanFindings)-1] + `,"extra":true}`},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			analyzer := &fakeAnalyzer{responses: []string{tc.response}}
			v, photos, _ := newFixture(domain.ValidationPending, analyzer)

			res, err := v.Validate(context.Background(), "p1")
			if err != nil {
				t.Fatalf("Validate returned error: %v", err)
			}
			if res.IsValid {
				t.Fatalf("malformed response treated as valid: %+v", res)
			}
			if len(res.Warnings) != 0 {
				t.Fatalf("warnings = %v, want none", res.Warnings)
			}
			if photos.photos["p1"].ValidationStatus != domain.ValidationFailed {
				t.Fatalf("status = %q, want failed", photos.photos["p1"].ValidationStatus)
			}
		})
	}
}

func TestValidateExhaustedRetriesFailsClosed(t *testing.T) {
	boom := fmt.Errorf("analysis down")
	analyzer := &fakeAnalyzer{errs: []error{boom, boom, boom}, responses: []string{cleanFindings}}
	v, photos, _ := newFixture(domain.ValidationPending, analyzer)

	res, err := v.Validate(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if res.IsValid || len(res.Warnings) != 0 {
		t.Fatalf("result = %+v, want fail-closed with no warnings", res)
	}
	if analyzer.calls != 3 {
		t.Fatalf("analyzer calls = %d, want 3", analyzer.calls)
	}
	if photos.photos["p1"].ValidationStatus != domain.ValidationFailed {
		t.Fatalf("status = %q, want failed", photos.photos["p1"].ValidationStatus)
	}
}

func TestValidateRecoversAfterTransientFailure(t *testing.T) {
	analyzer := &fakeAnalyzer{errs: []error{fmt.Errorf("transient"), nil}, responses: []string{"", cleanFindings}}
	v, photos, _ := newFixture(domain.ValidationPending, analyzer)

	res, err := v.Validate(context.Background(), "p1")
	if err != nil {
		t.Fatalf("Validate returned error: %v", err)
	}
	if !res.IsValid {
		t.Fatalf("result = %+v, want valid", res)
	}
	if analyzer.calls != 2 {
		t.Fatalf("analyzer calls = %d, want 2", analyzer.calls)
	}
	if photos.photos["p1"].ValidationStatus != domain.ValidationPassed {
		t.Fatalf("status = %q, want validated", photos.photos["p1"].ValidationStatus)
	}
}
