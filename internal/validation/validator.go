// Package validation runs content-policy checks on uploaded source photos
// before they are eligible for generation.
package validation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"photoshoot-server/internal/domain"
	"photoshoot-server/internal/providers/analysis"
	"photoshoot-server/internal/retry"
)

// criteriaPrompt instructs the analysis model to answer with exactly the five
// policy booleans the validator knows how to interpret.
const criteriaPrompt = `Inspect the attached photo and respond with a JSON object containing exactly these boolean fields and nothing else:
{"multiple_subjects": <bool>, "face_obscured": <bool>, "poor_lighting": <bool>, "screenshot": <bool>, "face_partially_covered": <bool>}
multiple_subjects: more than one person is visible.
face_obscured: the subject's face is fully hidden (mask, hand, object).
poor_lighting: the photo is too dark, blown out, or heavily shadowed.
screenshot: the image is a screenshot or a photo of a screen.
face_partially_covered: sunglasses, hair, or objects cover part of the face.`

// Result is the caller-visible outcome of one validation pass. A failed
// analysis (exhausted retries, malformed response) yields IsValid=false with
// an empty warning set, which the photo's failed status distinguishes from a
// real content-policy rejection.
type Result struct {
	Status   domain.ValidationStatus
	IsValid  bool
	Warnings []domain.Warning
}

// ByteStore fetches image bytes by storage locator.
type ByteStore interface {
	Read(ctx context.Context, key string) ([]byte, error)
}

// Validator drives the analysis collaborator through the shared rate limiter
// and retry executor and records the outcome on the photo.
type Validator struct {
	photos   domain.PhotoRepository
	store    ByteStore
	analyzer analysis.Analyzer
	limiter  *rate.Limiter
	retry    *retry.Executor
	cache    *gocache.Cache
	logger   zerolog.Logger
}

// NewValidator constructs a validator. The limiter enforces the analysis
// provider's minimum 1s spacing per client instance.
func NewValidator(photos domain.PhotoRepository, store ByteStore, analyzer analysis.Analyzer, logger zerolog.Logger) *Validator {
	return &Validator{
		photos:   photos,
		store:    store,
		analyzer: analyzer,
		limiter:  rate.NewLimiter(rate.Every(time.Second), 1),
		retry:    retry.New(),
		cache:    gocache.New(30*time.Minute, 10*time.Minute),
		logger:   logger,
	}
}

// Validate checks one photo against the content-policy criteria. Photos
// already validated or bypassed short-circuit without touching the external
// service.
func (v *Validator) Validate(ctx context.Context, photoID string) (Result, error) {
	if cached, ok := v.cache.Get(photoID); ok {
		return cached.(Result), nil
	}

	photo, err := v.photos.GetByID(ctx, photoID)
	if err != nil {
		return Result{}, fmt.Errorf("load photo: %w", err)
	}
	if photo.ValidationStatus.Terminal() {
		res := Result{Status: photo.ValidationStatus, IsValid: true, Warnings: photo.Warnings}
		v.cache.SetDefault(photoID, res)
		return res, nil
	}

	image, err := v.store.Read(ctx, photo.StorageKey)
	if err != nil {
		v.logger.Error().Err(err).Str("photo_id", photoID).Msg("validation: fetch image failed")
		return v.fail(ctx, photoID)
	}

	raw, err := retry.Value(ctx, v.retry, func(ctx context.Context) ([]byte, error) {
		if err := v.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return v.analyzer.Analyze(ctx, image, criteriaPrompt)
	})
	if err != nil {
		v.logger.Error().Err(err).Str("photo_id", photoID).Msg("validation: analysis failed")
		return v.fail(ctx, photoID)
	}

	warnings, err := decodeFindings(raw)
	if err != nil {
		v.logger.Error().Err(err).Str("photo_id", photoID).Msg("validation: malformed analysis response")
		return v.fail(ctx, photoID)
	}

	status := domain.ValidationPassed
	if len(warnings) > 0 {
		status = domain.ValidationFailed
	}
	if err := v.photos.SetValidation(ctx, photoID, status, warnings); err != nil {
		return Result{}, fmt.Errorf("record validation: %w", err)
	}

	res := Result{Status: status, IsValid: len(warnings) == 0, Warnings: warnings}
	if status.Terminal() {
		v.cache.SetDefault(photoID, res)
	}
	return res, nil
}

// fail records the photo as failed so it never lingers in pending, and
// returns the fail-closed result.
func (v *Validator) fail(ctx context.Context, photoID string) (Result, error) {
	if err := v.photos.SetValidation(ctx, photoID, domain.ValidationFailed, nil); err != nil {
		return Result{}, fmt.Errorf("record validation failure: %w", err)
	}
	return Result{Status: domain.ValidationFailed, IsValid: false}, nil
}

// findings mirrors the provider's structured response. Pointer fields let the
// decoder distinguish an absent field from an explicit false.
type findings struct {
	MultipleSubjects     *bool `json:"multiple_subjects"`
	FaceObscured         *bool `json:"face_obscured"`
	PoorLighting         *bool `json:"poor_lighting"`
	Screenshot           *bool `json:"screenshot"`
	FacePartiallyCovered *bool `json:"face_partially_covered"`
}

// decodeFindings decodes the analysis output strictly: unknown fields and
// missing fields both fail closed, so a malformed response is never mistaken
// for a clean photo.
func decodeFindings(raw []byte) ([]domain.Warning, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()

	var f findings
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode findings: %w", err)
	}

	checks := []struct {
		value   *bool
		warning domain.Warning
	}{
		{f.MultipleSubjects, domain.WarningMultipleSubjects},
		{f.FaceObscured, domain.WarningFaceObscured},
		{f.PoorLighting, domain.WarningPoorLighting},
		{f.Screenshot, domain.WarningScreenshot},
		{f.FacePartiallyCovered, domain.WarningFacePartiallyCovered},
	}

	var warnings []domain.Warning
	for _, check := range checks {
		if check.value == nil {
			return nil, fmt.Errorf("decode findings: missing %q", check.warning)
		}
		if *check.value {
			warnings = append(warnings, check.warning)
		}
	}
	return warnings, nil
}
