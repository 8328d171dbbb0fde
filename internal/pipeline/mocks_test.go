package pipeline

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/markdave123-py/Wikifaq/internal/core"
	"github.com/markdave123-py/Wikifaq/internal/models"
)

// fakeStore is an in-memory core.DbClient for pipeline tests.
type fakeStore struct {
	mu         sync.Mutex
	queue      map[string]*models.QueueEntry // by id
	slugToID   map[string]string
	files      map[string]*models.FaqFile // by slug
	records    []models.FaqRecord
	insertErr  error
	upsertErr  error
	markErr    error
	fileSeq    int
	insertSeen [][]string // question lists per InsertFaqRecords call
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		queue:    make(map[string]*models.QueueEntry),
		slugToID: make(map[string]string),
		files:    make(map[string]*models.FaqFile),
	}
}

func (s *fakeStore) EnqueuePage(_ context.Context, e *models.QueueEntry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.slugToID[e.Slug]; exists {
		return false, nil
	}
	cp := *e
	if cp.Status == "" {
		cp.Status = models.StatusPending
	}
	if cp.CreatedAt.IsZero() {
		cp.CreatedAt = time.Now().UTC()
	}
	s.queue[cp.ID] = &cp
	s.slugToID[cp.Slug] = cp.ID
	return true, nil
}

func (s *fakeStore) ReadPendingQueue(_ context.Context, limit int) ([]models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.QueueEntry
	for _, e := range s.queue {
		if e.Status == models.StatusPending {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) ClaimQueueEntry(_ context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.queue[id]
	if !ok || e.Status != models.StatusPending {
		return false, nil
	}
	e.Status = models.StatusProcessing
	e.Attempts++
	return true, nil
}

func (s *fakeStore) TransitionQueue(_ context.Context, id, status, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.queue[id]
	if !ok {
		return fmt.Errorf("queue entry not found: %s", id)
	}
	e.Status = status
	e.ErrorMessage = errMsg
	return nil
}

func (s *fakeStore) GetQueueEntryBySlug(_ context.Context, slug string) (*models.QueueEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.slugToID[slug]
	if !ok {
		return nil, nil
	}
	cp := *s.queue[id]
	return &cp, nil
}

func (s *fakeStore) QueueStats(_ context.Context) (*models.QueueStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var stats models.QueueStats
	for _, e := range s.queue {
		switch e.Status {
		case models.StatusPending:
			stats.Pending++
		case models.StatusProcessing:
			stats.Processing++
		case models.StatusCompleted:
			stats.Completed++
		case models.StatusFailed:
			stats.Failed++
		}
	}
	return &stats, nil
}

func (s *fakeStore) RequeueFailed(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.queue {
		if e.Status == models.StatusFailed {
			e.Status = models.StatusPending
			e.ErrorMessage = ""
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) UpsertFaqFile(_ context.Context, slug, name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.upsertErr != nil {
		return "", s.upsertErr
	}
	if f, ok := s.files[slug]; ok {
		return f.ID, nil
	}
	s.fileSeq++
	f := &models.FaqFile{
		ID:          fmt.Sprintf("file-%d", s.fileSeq),
		Slug:        slug,
		DisplayName: name,
		CreatedAt:   time.Now().UTC(),
	}
	s.files[slug] = f
	return f.ID, nil
}

func (s *fakeStore) GetFaqFileBySlug(_ context.Context, slug string) (*models.FaqFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.files[slug]
	if !ok {
		return nil, nil
	}
	cp := *f
	return &cp, nil
}

func (s *fakeStore) ListFaqFiles(_ context.Context, limit int) ([]models.FaqFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.FaqFile
	for _, f := range s.files {
		out = append(out, *f)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) InsertFaqRecords(_ context.Context, records []models.FaqRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.insertErr != nil {
		return s.insertErr
	}
	questions := make([]string, 0, len(records))
	now := time.Now().UTC()
	for i := range records {
		r := records[i]
		if r.CreatedAt.IsZero() {
			r.CreatedAt = now
		}
		s.records = append(s.records, r)
		questions = append(questions, r.Question)
	}
	s.insertSeen = append(s.insertSeen, questions)
	return nil
}

func (s *fakeStore) GetFaqRecordsByFile(_ context.Context, fileID string) ([]models.FaqRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.FaqRecord
	for _, r := range s.records {
		if r.FaqFileID == fileID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) ListUnflaggedFaqRecords(_ context.Context, afterID string, limit int) ([]models.FaqRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.FaqRecord
	for _, r := range s.records {
		if !r.VectorUpsertSuccess && r.ID > afterID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) MarkVectorSuccess(_ context.Context, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.markErr != nil {
		return s.markErr
	}
	idSet := make(map[string]bool, len(ids))
	for _, id := range ids {
		idSet[id] = true
	}
	for i := range s.records {
		if idSet[s.records[i].ID] {
			s.records[i].VectorUpsertSuccess = true
		}
	}
	return nil
}

func (s *fakeStore) Close() error { return nil }

var _ core.DbClient = (*fakeStore)(nil)

// fakeSource implements core.ContentSource with function fields.
type fakeSource struct {
	fetchFn  func(ctx context.Context, title string) (*models.PageContent, error)
	searchFn func(ctx context.Context, query string) (string, error)
}

func (f *fakeSource) FetchPage(ctx context.Context, title string) (*models.PageContent, error) {
	return f.fetchFn(ctx, title)
}

func (f *fakeSource) SearchTitle(ctx context.Context, query string) (string, error) {
	if f.searchFn != nil {
		return f.searchFn(ctx, query)
	}
	return "", nil
}

func (f *fakeSource) PageURL(title string) string {
	return "https://en.wikipedia.org/wiki/" + title
}

// fakeGenerator implements core.FaqGenerator with function fields.
type fakeGenerator struct {
	firstFn  func(ctx context.Context, title, content, lastUpdated string, mediaURLs []string) (*models.GenerationResult, error)
	secondFn func(ctx context.Context, title, content string, existing []models.GeneratedFaq) ([]models.GeneratedFaq, error)
}

func (g *fakeGenerator) GenerateFirstPass(ctx context.Context, title, content, lastUpdated string, mediaURLs []string) (*models.GenerationResult, error) {
	return g.firstFn(ctx, title, content, lastUpdated, mediaURLs)
}

func (g *fakeGenerator) GenerateSecondPass(ctx context.Context, title, content string, existing []models.GeneratedFaq) ([]models.GeneratedFaq, error) {
	if g.secondFn != nil {
		return g.secondFn(ctx, title, content, existing)
	}
	return nil, nil
}

// fakeEmbedder returns a constant-dimension vector per text.
type fakeEmbedder struct {
	embedErr error
	calls    int
}

func (e *fakeEmbedder) EmbedTexts(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	if e.embedErr != nil {
		return nil, e.embedErr
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{0.1, 0.2, 0.3}
	}
	return out, nil
}

// fakeIndex records upserted items and answers existence checks from them.
type fakeIndex struct {
	mu        sync.Mutex
	batches   [][]core.VectorUpsertItem
	upsertErr error
}

func (x *fakeIndex) UpsertBatch(_ context.Context, items []core.VectorUpsertItem) error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.upsertErr != nil {
		return x.upsertErr
	}
	cp := make([]core.VectorUpsertItem, len(items))
	copy(cp, items)
	x.batches = append(x.batches, cp)
	return nil
}

func (x *fakeIndex) Exists(_ context.Context, ids []string) (map[string]bool, error) {
	x.mu.Lock()
	defer x.mu.Unlock()
	present := make(map[string]bool)
	for _, b := range x.batches {
		for _, it := range b {
			present[it.ID] = true
		}
	}
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		if present[id] {
			out[id] = true
		}
	}
	return out, nil
}

func (x *fakeIndex) Query(_ context.Context, _ []float32, _ int) ([]core.VectorUpsertItem, error) {
	return nil, nil
}

func (x *fakeIndex) UpdateSlugMetadata(_ context.Context, _, _ string) (int, error) {
	return 0, nil
}

func (x *fakeIndex) allItems() []core.VectorUpsertItem {
	x.mu.Lock()
	defer x.mu.Unlock()
	var out []core.VectorUpsertItem
	for _, b := range x.batches {
		out = append(out, b...)
	}
	return out
}

var _ core.VectorIndex = (*fakeIndex)(nil)
