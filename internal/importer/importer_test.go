package importer

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"github.com/receptor-app/receptor/internal/ai"
	"github.com/receptor-app/receptor/internal/extraction"
	"github.com/receptor-app/receptor/internal/fetch"
	"github.com/receptor-app/receptor/internal/jobs"
	"github.com/receptor-app/receptor/internal/translate"
	"github.com/receptor-app/receptor/pkg/lifecycle"
	"github.com/receptor-app/receptor/pkg/pagination"
	"github.com/receptor-app/receptor/pkg/storage"
)

const textReply = `{
	"title": "Pompoensoep",
	"language_detected": "nl",
	"servings": 4,
	"ingredients": [
		{"name": "pompoen", "quantity": 1, "unit": "stuk"},
		{"name": "ui", "quantity": 2, "unit": "stuk"},
		{"name": "bouillon", "quantity": 1, "unit": "l"}
	],
	"instructions": [
		{"step": 1, "text": "Snijd de pompoen."},
		{"step": 2, "text": "Kook 30 minuten."}
	],
	"confidence": {"overall": 85}
}`

// jobStore is an in-memory jobs.System honoring the transition rules.
type jobStore struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*jobs.Job
}

func newJobStore() *jobStore {
	return &jobStore{jobs: make(map[uuid.UUID]*jobs.Job)}
}

func (s *jobStore) Handler() *jobs.Handler { return nil }

func (s *jobStore) Create(ctx context.Context, ownerID string, meta jobs.SourceMeta, initial jobs.Status) (*jobs.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job := &jobs.Job{ID: uuid.New(), OwnerID: ownerID, Status: initial, SourceMeta: meta}
	s.jobs[job.ID] = job
	return job, nil
}

func (s *jobStore) List(ctx context.Context, ownerID string, page pagination.PageRequest, status *jobs.Status) (*pagination.PageResult[jobs.Job], error) {
	return &pagination.PageResult[jobs.Job]{}, nil
}

func (s *jobStore) Find(ctx context.Context, id uuid.UUID, ownerID string) (*jobs.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locked(id, ownerID)
}

func (s *jobStore) locked(id uuid.UUID, ownerID string) (*jobs.Job, error) {
	job, ok := s.jobs[id]
	if !ok {
		return nil, jobs.ErrNotFound
	}
	if job.OwnerID != ownerID {
		return nil, jobs.ErrForbidden
	}
	return job, nil
}

func (s *jobStore) FindFinalizedByURL(ctx context.Context, ownerID, sourceURL string) (*jobs.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, job := range s.jobs {
		if job.OwnerID == ownerID && job.Status == jobs.StatusFinalized && job.SourceMeta.URL == sourceURL {
			return job, nil
		}
	}
	return nil, jobs.ErrNotFound
}

func (s *jobStore) Transition(ctx context.Context, id uuid.UUID, ownerID string, next jobs.Status, failure *jobs.Failure) (*jobs.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.locked(id, ownerID)
	if err != nil {
		return nil, err
	}
	if job.Status == next {
		return job, nil
	}
	if !job.Status.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", jobs.ErrInvalidTransition, job.Status, next)
	}

	job.Status = next
	if failure != nil {
		job.ValidationErrors = failure
	}
	return job, nil
}

func (s *jobStore) SetExtraction(ctx context.Context, id uuid.UUID, ownerID string, upd jobs.ExtractionUpdate) (*jobs.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.locked(id, ownerID)
	if err != nil {
		return nil, err
	}
	if job.Status == jobs.StatusFinalized {
		return nil, jobs.ErrFinalized
	}

	if upd.Recipe != nil {
		job.ExtractedRecipe = upd.Recipe
		job.ConfidenceOverall = upd.Recipe.Confidence.Overall
	}
	if upd.RawOCRText != nil {
		job.RawOCRText = upd.RawOCRText
	}
	if upd.SourceLocale != nil {
		job.SourceLocale = upd.SourceLocale
	}
	if upd.TargetLocale != nil {
		job.TargetLocale = upd.TargetLocale
	}
	if upd.DiscoveredImageURL != nil {
		job.SourceMeta.DiscoveredImageURL = *upd.DiscoveredImageURL
	}
	return job, nil
}

func (s *jobStore) SnapshotOriginal(ctx context.Context, id uuid.UUID, ownerID string, recipe *extraction.Recipe) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, err := s.locked(id, ownerID)
	if err != nil {
		return err
	}
	if job.OriginalRecipe == nil {
		job.OriginalRecipe = recipe
	}
	return nil
}

func (s *jobStore) UpdateRecipe(ctx context.Context, id uuid.UUID, ownerID string, recipe *extraction.Recipe) (*jobs.Job, error) {
	return s.SetExtraction(ctx, id, ownerID, jobs.ExtractionUpdate{Recipe: recipe})
}

func (s *jobStore) Delete(ctx context.Context, id uuid.UUID, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.jobs, id)
	return nil
}

// memBlobs is an in-memory storage.System.
type memBlobs struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newMemBlobs() *memBlobs {
	return &memBlobs{blobs: make(map[string][]byte)}
}

func (m *memBlobs) Start(lc *lifecycle.Coordinator) error { return nil }

func (m *memBlobs) Upload(ctx context.Context, key string, reader io.Reader, contentType string) (*storage.StoredObject, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.blobs[key] = data
	m.mu.Unlock()
	return &storage.StoredObject{Key: key, URL: "https://blobs.test/" + key}, nil
}

func (m *memBlobs) Download(ctx context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	data, ok := m.blobs[key]
	m.mu.Unlock()
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memBlobs) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.blobs, key)
	m.mu.Unlock()
	return nil
}

// fixedProvider always returns the same reply.
type fixedProvider struct {
	reply string
	calls int
}

func (p *fixedProvider) Generate(ctx context.Context, req ai.GenerateRequest) (string, error) {
	p.calls++
	return p.reply, nil
}

// pageTransport serves canned HTTP responses keyed by URL.
type pageTransport struct {
	pages map[string]*http.Response
}

func (t *pageTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if resp, ok := t.pages[req.URL.String()]; ok {
		return resp, nil
	}
	return &http.Response{
		StatusCode: http.StatusNotFound,
		Header:     http.Header{"Content-Type": []string{"text/html"}},
		Body:       io.NopCloser(strings.NewReader("not found")),
	}, nil
}

type publicResolver struct{}

func (publicResolver) LookupIP(ctx context.Context, network, host string) ([]net.IP, error) {
	return []net.IP{net.ParseIP("93.184.216.34")}, nil
}

type env struct {
	svc   System
	jobs  *jobStore
	blobs *memBlobs
	ai    *fixedProvider
	pages *pageTransport
}

func newEnv(t *testing.T, reply string) *env {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	fetchCfg := &fetch.Config{MaxBodySize: "1MB"}
	if err := fetchCfg.Finalize(); err != nil {
		t.Fatalf("fetch config: %v", err)
	}

	provider := &fixedProvider{reply: reply}
	pages := &pageTransport{pages: make(map[string]*http.Response)}
	store := newJobStore()
	blobs := newMemBlobs()

	orch := ai.NewOrchestrator(provider, 0.1, ai.Options{
		MinConfidence:   30,
		MinIngredients:  3,
		MinInstructions: 2,
		MaxAttempts:     2,
	}, logger)

	fetcher := fetch.New(fetchCfg, logger).
		WithResolver(publicResolver{}).
		WithTransport(pages)

	svc := New(store, fetcher, orch, translate.New(provider, logger), blobs, Options{
		MergeThreshold:  5,
		MinIngredients:  3,
		MinInstructions: 2,
		MaxImages:       5,
		MaxImageBytes:   1 << 20,
	}, logger)

	return &env{svc: svc, jobs: store, blobs: blobs, ai: provider, pages: pages}
}

func TestImportText(t *testing.T) {
	e := newEnv(t, textReply)

	job, err := e.svc.ImportText(context.Background(), "owner-1", "pompoensoep: snijd en kook", "")
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if job.Status != jobs.StatusReadyForReview {
		t.Errorf("Status = %s", job.Status)
	}
	if job.SourceMeta.Source != jobs.SourceTextImport {
		t.Errorf("Source = %s", job.SourceMeta.Source)
	}
	if job.ExtractedRecipe == nil || job.ExtractedRecipe.Title != "Pompoensoep" {
		t.Errorf("ExtractedRecipe = %+v", job.ExtractedRecipe)
	}
	if job.RawOCRText == nil || *job.RawOCRText != "pompoensoep: snijd en kook" {
		t.Errorf("RawOCRText = %v, want the pasted text kept for retry", job.RawOCRText)
	}
	if job.SourceLocale == nil || *job.SourceLocale != "nl" {
		t.Errorf("SourceLocale = %v", job.SourceLocale)
	}
	if job.ConfidenceOverall == nil || *job.ConfidenceOverall != 85 {
		t.Errorf("ConfidenceOverall = %v", job.ConfidenceOverall)
	}
}

func TestImportTextEmpty(t *testing.T) {
	e := newEnv(t, textReply)

	_, err := e.svc.ImportText(context.Background(), "owner-1", "   ", "")
	if !errors.Is(err, ErrEmptyInput) {
		t.Fatalf("err = %v, want ErrEmptyInput", err)
	}
	if len(e.jobs.jobs) != 0 {
		t.Error("job created for empty input")
	}
}

func TestImportTextExtractionFailure(t *testing.T) {
	e := newEnv(t, "")

	job, err := e.svc.ImportText(context.Background(), "owner-1", "geen recept hier", "")
	if !errors.Is(err, ai.ErrExtractionFailed) {
		t.Fatalf("err = %v, want ErrExtractionFailed", err)
	}
	if job == nil || job.Status != jobs.StatusFailed {
		t.Fatalf("job = %+v, want failed job returned alongside the error", job)
	}
	if job.ValidationErrors == nil || job.ValidationErrors.Stage != "ai_extraction" {
		t.Errorf("failure = %+v", job.ValidationErrors)
	}
	if e.ai.calls != 2 {
		t.Errorf("provider calls = %d, want retry before giving up", e.ai.calls)
	}
}

const jsonldPage = `<html><head>
<script type="application/ld+json">
{"@type": "Recipe", "name": "Courgettesoep",
 "recipeIngredient": ["2 courgettes", "1 ui", "1 l bouillon"],
 "recipeInstructions": ["Snijd alles.", "Kook 15 minuten."],
 "image": "https://cdn.test/courgette.jpg"}
</script></head><body></body></html>`

func TestImportURLStructuredData(t *testing.T) {
	e := newEnv(t, textReply)
	e.pages.pages["https://kookblog.test/soep"] = &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/html"}},
		Body:       io.NopCloser(strings.NewReader(jsonldPage)),
	}
	e.pages.pages["https://cdn.test/courgette.jpg"] = &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"image/jpeg"}},
		Body:       io.NopCloser(strings.NewReader("\xff\xd8\xff")),
	}

	job, err := e.svc.ImportURL(context.Background(), "owner-1", "https://Kookblog.test/soep#reacties", "")
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if job.Status != jobs.StatusReadyForReview {
		t.Errorf("Status = %s", job.Status)
	}
	if job.SourceMeta.URL != "https://kookblog.test/soep" {
		t.Errorf("URL = %q, want normalized", job.SourceMeta.URL)
	}
	if job.SourceMeta.Domain != "kookblog.test" {
		t.Errorf("Domain = %q", job.SourceMeta.Domain)
	}
	if job.ExtractedRecipe.Title != "Courgettesoep" {
		t.Errorf("Title = %q", job.ExtractedRecipe.Title)
	}
	if got := *job.ExtractedRecipe.Confidence.Overall; got != 90 {
		t.Errorf("Confidence = %d, want structured-data confidence", got)
	}
	if e.ai.calls != 0 {
		t.Errorf("provider calls = %d, structured data should bypass the provider", e.ai.calls)
	}
	if job.SourceMeta.DiscoveredImageURL == "" {
		t.Error("discovered image not persisted")
	}
	if len(e.blobs.blobs) != 1 {
		t.Errorf("blob count = %d, want discovered image stored", len(e.blobs.blobs))
	}
}

func TestImportURLDuplicate(t *testing.T) {
	e := newEnv(t, textReply)

	recipeID := uuid.New()
	prior, _ := e.jobs.Create(context.Background(), "owner-1", jobs.SourceMeta{
		Source: jobs.SourceURLImport,
		URL:    "https://kookblog.test/soep",
	}, jobs.StatusFinalized)
	prior.RecipeID = &recipeID

	_, err := e.svc.ImportURL(context.Background(), "owner-1", "https://kookblog.test/soep", "")
	var dup *DuplicateError
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want DuplicateError", err)
	}
	if dup.RecipeID != recipeID || dup.JobID != prior.ID {
		t.Errorf("duplicate = %+v", dup)
	}
	if !errors.Is(err, ErrDuplicateURL) {
		t.Error("DuplicateError should match ErrDuplicateURL")
	}

	// another owner is not blocked
	e2 := newEnv(t, textReply)
	e2.pages.pages["https://kookblog.test/soep"] = &http.Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/html"}},
		Body:       io.NopCloser(strings.NewReader(jsonldPage)),
	}
	if _, err := e2.svc.ImportURL(context.Background(), "owner-2", "https://kookblog.test/soep", ""); err != nil {
		t.Errorf("unrelated owner blocked: %v", err)
	}
}

func TestImportURLFetchFailure(t *testing.T) {
	e := newEnv(t, textReply)

	job, err := e.svc.ImportURL(context.Background(), "owner-1", "https://kookblog.test/weg", "")
	if err == nil {
		t.Fatal("expected fetch error")
	}
	if job == nil || job.Status != jobs.StatusFailed {
		t.Fatalf("job = %+v, want failed", job)
	}
	if job.ValidationErrors.Stage != "fetch" {
		t.Errorf("stage = %q", job.ValidationErrors.Stage)
	}
	if !strings.Contains(job.ValidationErrors.Message, "NOT_FOUND") {
		t.Errorf("message = %q, want stable fetch code", job.ValidationErrors.Message)
	}
}

func TestImportBlank(t *testing.T) {
	e := newEnv(t, textReply)

	job, err := e.svc.ImportBlank(context.Background(), "owner-1", "")
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if job.Status != jobs.StatusReadyForReview {
		t.Errorf("Status = %s", job.Status)
	}
	if job.ExtractedRecipe.Title != "Nieuw recept" {
		t.Errorf("Title = %q", job.ExtractedRecipe.Title)
	}
	if !job.ExtractedRecipe.HasPlaceholders() {
		t.Error("blank draft should carry placeholder entries")
	}
	if e.ai.calls != 0 {
		t.Errorf("provider calls = %d", e.ai.calls)
	}
}

func TestImportImages(t *testing.T) {
	e := newEnv(t, textReply)

	uploads := []Upload{
		{Filename: "voor.jpg", MimeType: "image/jpeg", Data: []byte("aaa")},
		{Filename: "achter.jpg", MimeType: "image/jpeg", Data: []byte("bbb")},
	}

	job, err := e.svc.ImportImages(context.Background(), "owner-1", uploads, "")
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if job.Status != jobs.StatusReadyForReview {
		t.Errorf("Status = %s", job.Status)
	}
	if len(job.SourceMeta.StorageKeys) != 2 {
		t.Errorf("StorageKeys = %v", job.SourceMeta.StorageKeys)
	}
	if len(e.blobs.blobs) != 2 {
		t.Errorf("blob count = %d, want source photos persisted", len(e.blobs.blobs))
	}
	if job.RawOCRText == nil || !strings.Contains(*job.RawOCRText, "Pompoensoep") {
		t.Errorf("RawOCRText = %v, want flattened extraction", job.RawOCRText)
	}
}

func TestImportImagesLimits(t *testing.T) {
	e := newEnv(t, textReply)

	if _, err := e.svc.ImportImages(context.Background(), "owner-1", nil, ""); !errors.Is(err, ErrNoImages) {
		t.Errorf("err = %v, want ErrNoImages", err)
	}

	many := make([]Upload, 6)
	for i := range many {
		many[i] = Upload{Filename: "x.jpg", MimeType: "image/jpeg", Data: []byte("x")}
	}
	if _, err := e.svc.ImportImages(context.Background(), "owner-1", many, ""); !errors.Is(err, ErrTooManyImages) {
		t.Errorf("err = %v, want ErrTooManyImages", err)
	}

	big := []Upload{{Filename: "groot.jpg", MimeType: "image/jpeg", Data: bytes.Repeat([]byte("x"), 2<<20)}}
	if _, err := e.svc.ImportImages(context.Background(), "owner-1", big, ""); !errors.Is(err, ErrImageTooLarge) {
		t.Errorf("err = %v, want ErrImageTooLarge", err)
	}
}

func TestRetryTextJob(t *testing.T) {
	e := newEnv(t, "")

	job, err := e.svc.ImportText(context.Background(), "owner-1", "pompoensoep recept", "")
	if err == nil {
		t.Fatal("setup: first import should fail")
	}
	if job.Status != jobs.StatusFailed {
		t.Fatalf("setup: status = %s", job.Status)
	}

	e.ai.reply = textReply
	retried, err := e.svc.Retry(context.Background(), "owner-1", job.ID)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if retried.Status != jobs.StatusReadyForReview {
		t.Errorf("Status = %s", retried.Status)
	}
	if retried.ExtractedRecipe.Title != "Pompoensoep" {
		t.Errorf("Title = %q", retried.ExtractedRecipe.Title)
	}
}

func TestRetryRejectsNonFailed(t *testing.T) {
	e := newEnv(t, textReply)

	job, err := e.svc.ImportText(context.Background(), "owner-1", "pompoensoep recept", "")
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}

	if _, err := e.svc.Retry(context.Background(), "owner-1", job.ID); !errors.Is(err, ErrNotRetryable) {
		t.Errorf("err = %v, want ErrNotRetryable", err)
	}
}

func TestRetryImagesFromStorage(t *testing.T) {
	e := newEnv(t, "")

	uploads := []Upload{{Filename: "foto.jpg", MimeType: "image/jpeg", Data: []byte("fotodata")}}
	job, err := e.svc.ImportImages(context.Background(), "owner-1", uploads, "")
	if err == nil {
		t.Fatal("setup: first import should fail")
	}

	e.ai.reply = textReply
	retried, err := e.svc.Retry(context.Background(), "owner-1", job.ID)
	if err != nil {
		t.Fatalf("retry failed: %v", err)
	}
	if retried.Status != jobs.StatusReadyForReview {
		t.Errorf("Status = %s", retried.Status)
	}
}
