package importer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/google/uuid"

	"github.com/receptor-app/receptor/internal/ai"
	"github.com/receptor-app/receptor/internal/extraction"
	"github.com/receptor-app/receptor/internal/heuristic"
	"github.com/receptor-app/receptor/internal/htmlclean"
	"github.com/receptor-app/receptor/internal/jobs"
	"github.com/receptor-app/receptor/internal/jsonld"
	"github.com/receptor-app/receptor/internal/normalize"
	"github.com/receptor-app/receptor/internal/translate"
)

// jsonldConfidence is the fixed score for drafts built from structured
// page data, above the heuristic extractor's score.
const jsonldConfidence = 90

// blankTitle seeds an empty editable draft.
const blankTitle = "Nieuw recept"

// ImportImages runs vision extraction over uploaded photos of one recipe.
func (s *service) ImportImages(ctx context.Context, ownerID string, images []Upload, targetLocale string) (*jobs.Job, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	if len(images) > s.opts.MaxImages {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyImages, len(images), s.opts.MaxImages)
	}
	for _, img := range images {
		if s.opts.MaxImageBytes > 0 && int64(len(img.Data)) > s.opts.MaxImageBytes {
			return nil, fmt.Errorf("%w: %s", ErrImageTooLarge, img.Filename)
		}
	}

	meta := jobs.SourceMeta{
		Source:    jobs.SourceImageUpload,
		Filename:  images[0].Filename,
		MimeType:  images[0].MimeType,
		SizeBytes: int64(len(images[0].Data)),
	}

	// source photos are persisted before the job exists so retry can
	// re-read them; keys are grouped under a fresh batch id
	batchID := uuid.New()
	for i, img := range images {
		key := fmt.Sprintf("imports/%s/source-%d%s", batchID, i, extensionFor(img.Filename, img.MimeType))
		if _, err := s.store.Upload(ctx, key, bytes.NewReader(img.Data), img.MimeType); err != nil {
			return nil, fmt.Errorf("store source image: %w", err)
		}
		meta.StorageKeys = append(meta.StorageKeys, key)
	}

	job, err := s.jobs.Create(ctx, ownerID, meta, jobs.StatusUploaded)
	if err != nil {
		return nil, err
	}
	if job, err = s.jobs.Transition(ctx, job.ID, ownerID, jobs.StatusProcessing, nil); err != nil {
		return nil, err
	}

	return s.runImages(ctx, job, toProviderImages(images), targetLocale)
}

func (s *service) runImages(ctx context.Context, job *jobs.Job, images []ai.Image, targetLocale string) (*jobs.Job, error) {
	recipe, diag, err := s.extractor.ExtractFromImages(ctx, images)
	if err != nil {
		return s.fail(ctx, job, "ai_extraction", err, diag)
	}

	ocr := flattenText(recipe)
	return s.finish(ctx, job, recipe, &ocr, targetLocale, diag)
}

// ImportURL fetches a page and extracts a recipe, falling back from
// structured data to heading heuristics to AI extraction, in that order.
func (s *service) ImportURL(ctx context.Context, ownerID, rawURL, targetLocale string) (*jobs.Job, error) {
	normalized, domain, err := normalizeSourceURL(rawURL)
	if err != nil {
		return nil, err
	}

	if existing, err := s.jobs.FindFinalizedByURL(ctx, ownerID, normalized); err == nil {
		if existing.RecipeID != nil {
			return nil, &DuplicateError{RecipeID: *existing.RecipeID, JobID: existing.ID}
		}
	} else if !errors.Is(err, jobs.ErrNotFound) {
		return nil, err
	}

	job, err := s.jobs.Create(ctx, ownerID, jobs.SourceMeta{
		Source: jobs.SourceURLImport,
		URL:    normalized,
		Domain: domain,
	}, jobs.StatusProcessing)
	if err != nil {
		return nil, err
	}

	return s.runURL(ctx, job, targetLocale)
}

func (s *service) runURL(ctx context.Context, job *jobs.Job, targetLocale string) (*jobs.Job, error) {
	page, finalURL, err := s.fetcher.Fetch(ctx, job.SourceMeta.URL)
	if err != nil {
		return s.fail(ctx, job, "fetch", err, nil)
	}

	var (
		recipe *extraction.Recipe
		diag   *ai.Diagnostics
	)

	if draft, err := jsonld.Extract(page, finalURL); err == nil {
		recipe = draft.Recipe(jsonldConfidence)
	} else {
		cleaned := htmlclean.Clean(page, s.opts.HTMLBudgetBytes)

		draft, herr := heuristic.Extract(page, finalURL)
		if herr == nil && draft.Usable() && !(cleaned.WasTruncated && s.thinDraft(draft)) {
			recipe = draft.Recipe(heuristic.Confidence)
		} else {
			recipe, diag, err = s.extractor.ExtractFromHTML(ctx, cleaned, finalURL)
			if err != nil {
				return s.fail(ctx, job, "ai_extraction", err, diag)
			}
		}
	}

	return s.finish(ctx, job, recipe, nil, targetLocale, diag)
}

// ImportText extracts a recipe from pasted free text.
func (s *service) ImportText(ctx context.Context, ownerID, text, targetLocale string) (*jobs.Job, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyInput
	}

	job, err := s.jobs.Create(ctx, ownerID, jobs.SourceMeta{Source: jobs.SourceTextImport}, jobs.StatusProcessing)
	if err != nil {
		return nil, err
	}

	// the pasted text is stored before extraction runs so a retry of a
	// failed job does not depend on the client resending it
	if job, err = s.jobs.SetExtraction(ctx, job.ID, ownerID, jobs.ExtractionUpdate{RawOCRText: &text}); err != nil {
		return nil, err
	}

	return s.runText(ctx, job, text, targetLocale)
}

func (s *service) runText(ctx context.Context, job *jobs.Job, text, targetLocale string) (*jobs.Job, error) {
	recipe, diag, err := s.extractor.ExtractFromText(ctx, text)
	if err != nil {
		return s.fail(ctx, job, "ai_extraction", err, diag)
	}

	return s.finish(ctx, job, recipe, nil, targetLocale, diag)
}

// ImportBlank creates an empty editable draft, immediately ready for
// review.
func (s *service) ImportBlank(ctx context.Context, ownerID, targetLocale string) (*jobs.Job, error) {
	job, err := s.jobs.Create(ctx, ownerID, jobs.SourceMeta{Source: jobs.SourceBlank}, jobs.StatusProcessing)
	if err != nil {
		return nil, err
	}

	recipe := &extraction.Recipe{Title: blankTitle}
	recipe.EnsureNonEmpty()

	return s.finish(ctx, job, recipe, nil, targetLocale, nil)
}

// Retry re-runs the pipeline for a failed job from its recorded source.
func (s *service) Retry(ctx context.Context, ownerID string, jobID uuid.UUID) (*jobs.Job, error) {
	job, err := s.jobs.Find(ctx, jobID, ownerID)
	if err != nil {
		return nil, err
	}
	if job.Status != jobs.StatusFailed {
		return nil, fmt.Errorf("%w: status %s", ErrNotRetryable, job.Status)
	}

	if job, err = s.jobs.Transition(ctx, jobID, ownerID, jobs.StatusProcessing, nil); err != nil {
		return nil, err
	}

	target := ""
	if job.TargetLocale != nil {
		target = *job.TargetLocale
	}

	switch job.SourceMeta.Source {
	case jobs.SourceURLImport:
		return s.runURL(ctx, job, target)
	case jobs.SourceTextImport:
		if job.RawOCRText == nil || strings.TrimSpace(*job.RawOCRText) == "" {
			return s.fail(ctx, job, "retry", ErrEmptyInput, nil)
		}
		return s.runText(ctx, job, *job.RawOCRText, target)
	case jobs.SourceImageUpload:
		images, err := s.loadStoredImages(ctx, job)
		if err != nil {
			return s.fail(ctx, job, "storage", err, nil)
		}
		return s.runImages(ctx, job, images, target)
	}

	return nil, fmt.Errorf("%w: source %s", ErrNotRetryable, job.SourceMeta.Source)
}

// finish normalizes and validates an extracted recipe, attaches it to the
// job, runs the best-effort steps, and moves the job to review.
func (s *service) finish(ctx context.Context, job *jobs.Job, recipe *extraction.Recipe, rawText *string, targetLocale string, diag *ai.Diagnostics) (*jobs.Job, error) {
	normalize.Recipe(recipe)
	recipe.Instructions = normalize.MergeInstructions(recipe.Instructions, s.opts.MergeThreshold)
	recipe.Renumber()
	recipe.EnsureNonEmpty()

	if err := recipe.Validate(); err != nil {
		return s.fail(ctx, job, "validation", err, diag)
	}

	sourceLocale := ""
	if recipe.LanguageDetected != nil {
		sourceLocale = *recipe.LanguageDetected
	}
	if sourceLocale == "" {
		if sourceLocale = translate.DetectLocale(flattenText(recipe)); sourceLocale != "" {
			recipe.LanguageDetected = &sourceLocale
		}
	}

	normalize.ConvertIngredients(recipe, sourceLocale, targetLocale)

	upd := jobs.ExtractionUpdate{Recipe: recipe, RawOCRText: rawText}
	if sourceLocale != "" {
		upd.SourceLocale = &sourceLocale
	}
	if targetLocale != "" {
		upd.TargetLocale = &targetLocale
	}

	updated, err := s.jobs.SetExtraction(ctx, job.ID, job.OwnerID, upd)
	if err != nil {
		return s.fail(ctx, job, "store", err, diag)
	}
	job = updated

	s.persistDiscoveredImage(ctx, job, recipe)
	s.translateJob(ctx, job, recipe, sourceLocale, targetLocale)

	return s.jobs.Transition(ctx, job.ID, job.OwnerID, jobs.StatusReadyForReview, nil)
}

// fail moves the job to failed with a sanitized, stage-tagged diagnostic
// and propagates the cause.
func (s *service) fail(ctx context.Context, job *jobs.Job, stage string, cause error, diag *ai.Diagnostics) (*jobs.Job, error) {
	var diagJSON json.RawMessage
	if diag != nil {
		diagJSON, _ = json.Marshal(diag)
	}

	failed, err := s.jobs.Transition(ctx, job.ID, job.OwnerID, jobs.StatusFailed,
		jobs.NewFailure(stage, cause.Error(), diagJSON))
	if err != nil {
		s.logger.Error("failed to record job failure", "id", job.ID, "stage", stage, "error", err)
		return job, cause
	}

	s.logger.Warn("import failed", "id", job.ID, "stage", stage, "error", cause)
	return failed, cause
}

// translateJob runs the translation pass. Failures are logged and
// swallowed: the job stays usable in its source language.
func (s *service) translateJob(ctx context.Context, job *jobs.Job, recipe *extraction.Recipe, sourceLocale, targetLocale string) {
	if sourceLocale == "" {
		return
	}

	translated, _, err := s.translator.Translate(ctx, recipe, sourceLocale, targetLocale)
	if err != nil {
		s.logger.Warn("translation skipped", "id", job.ID, "error", err)
		return
	}
	if translated == recipe {
		return
	}

	// the untranslated extraction is preserved exactly once
	if err := s.jobs.SnapshotOriginal(ctx, job.ID, job.OwnerID, recipe); err != nil {
		s.logger.Warn("original snapshot failed", "id", job.ID, "error", err)
		return
	}
	if _, err := s.jobs.SetExtraction(ctx, job.ID, job.OwnerID, jobs.ExtractionUpdate{Recipe: translated}); err != nil {
		s.logger.Warn("storing translation failed", "id", job.ID, "error", err)
	}
}

// persistDiscoveredImage downloads the image an extractor found on the page
// into blob storage. Best-effort: the structured data is already captured.
func (s *service) persistDiscoveredImage(ctx context.Context, job *jobs.Job, recipe *extraction.Recipe) {
	if recipe.ImageURL == "" || job.SourceMeta.Source != jobs.SourceURLImport {
		return
	}

	data, contentType, err := s.fetcher.FetchResource(ctx, recipe.ImageURL)
	if err != nil || !strings.HasPrefix(contentType, "image/") {
		s.logger.Warn("discovered image skipped", "id", job.ID, "url", recipe.ImageURL, "error", err)
		return
	}

	key := fmt.Sprintf("imports/%s/discovered%s", job.ID, extensionFor(recipe.ImageURL, contentType))
	stored, err := s.store.Upload(ctx, key, bytes.NewReader(data), contentType)
	if err != nil {
		s.logger.Warn("discovered image upload failed", "id", job.ID, "error", err)
		return
	}

	url := stored.URL
	if _, err := s.jobs.SetExtraction(ctx, job.ID, job.OwnerID, jobs.ExtractionUpdate{DiscoveredImageURL: &url}); err != nil {
		s.logger.Warn("recording discovered image failed", "id", job.ID, "error", err)
	}
}

func (s *service) loadStoredImages(ctx context.Context, job *jobs.Job) ([]ai.Image, error) {
	var images []ai.Image
	for _, key := range job.SourceMeta.StorageKeys {
		reader, err := s.store.Download(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("download %s: %w", key, err)
		}
		data, err := io.ReadAll(reader)
		reader.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", key, err)
		}
		images = append(images, ai.Image{MimeType: job.SourceMeta.MimeType, Data: data})
	}
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	return images, nil
}

func (s *service) thinDraft(draft *extraction.Draft) bool {
	return len(draft.Ingredients) < s.opts.MinIngredients ||
		len(draft.Instructions) < s.opts.MinInstructions
}

func toProviderImages(uploads []Upload) []ai.Image {
	images := make([]ai.Image, len(uploads))
	for i, u := range uploads {
		images[i] = ai.Image{MimeType: u.MimeType, Data: u.Data}
	}
	return images
}

// flattenText joins the recipe's visible text, used for language detection
// and as the stored best-effort flat text of image extractions.
func flattenText(r *extraction.Recipe) string {
	var b strings.Builder
	b.WriteString(r.Title)
	b.WriteString("\n")

	for _, ing := range r.Ingredients {
		if ing.OriginalLine != "" {
			b.WriteString(ing.OriginalLine)
		} else {
			b.WriteString(ing.Name)
		}
		b.WriteString("\n")
	}
	for _, step := range r.Instructions {
		b.WriteString(step.Text)
		b.WriteString("\n")
	}

	return strings.TrimSpace(b.String())
}

// normalizeSourceURL canonicalizes a URL for storage and duplicate
// comparison: scheme and host lowercased, fragment dropped.
func normalizeSourceURL(raw string) (normalized, domain string, err error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return "", "", fmt.Errorf("%w: not an http(s) url", ErrEmptyInput)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	return u.String(), u.Hostname(), nil
}

func extensionFor(name, contentType string) string {
	if ext := path.Ext(name); ext != "" && len(ext) <= 5 && !strings.Contains(ext, "/") {
		return strings.ToLower(ext)
	}

	switch {
	case strings.Contains(contentType, "png"):
		return ".png"
	case strings.Contains(contentType, "webp"):
		return ".webp"
	case strings.Contains(contentType, "gif"):
		return ".gif"
	default:
		return ".jpg"
	}
}
