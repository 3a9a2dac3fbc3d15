package app

import (
	"context"
	"sync"

	"docqa/internal/ai"
	"docqa/internal/index"
	"docqa/internal/model"
	"docqa/internal/notify"
)

type fakeEmbedder struct {
	vector []float32
	err    error

	mu         sync.Mutex
	embedCalls []string
	batchCalls [][]string
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	f.embedCalls = append(f.embedCalls, text)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.vector, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	f.mu.Lock()
	f.batchCalls = append(f.batchCalls, texts)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

var _ Embedder = (*fakeEmbedder)(nil)

type fakeCompleter struct {
	completion string
	err        error

	mu    sync.Mutex
	calls [][]ai.ChatMessage
}

func (f *fakeCompleter) Complete(ctx context.Context, messages []ai.ChatMessage) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, messages)
	f.mu.Unlock()
	if f.err != nil {
		return "", f.err
	}
	return f.completion, nil
}

var _ Completer = (*fakeCompleter)(nil)

type fakeReranker struct {
	results []ai.RerankResult
	err     error
}

func (f *fakeReranker) Rerank(ctx context.Context, query string, texts []string) ([]ai.RerankResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.results, nil
}

var _ Reranker = (*fakeReranker)(nil)

type fakeIndex struct {
	searchResults []index.QueryResult
	searchErr     error
	insertErr     error
	deleteErr     error

	mu            sync.Mutex
	inserted      []index.Record
	deleted       []index.Filter
	searchFilters []index.Filter
	searchTopKs   []int
}

func (f *fakeIndex) Insert(ctx context.Context, records []index.Record) error {
	f.mu.Lock()
	f.inserted = append(f.inserted, records...)
	f.mu.Unlock()
	return f.insertErr
}

func (f *fakeIndex) Search(ctx context.Context, queryVector []float32, filter index.Filter, topK int) ([]index.QueryResult, error) {
	f.mu.Lock()
	f.searchFilters = append(f.searchFilters, filter)
	f.searchTopKs = append(f.searchTopKs, topK)
	f.mu.Unlock()
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.searchResults, nil
}

func (f *fakeIndex) Delete(ctx context.Context, filter index.Filter) error {
	f.mu.Lock()
	f.deleted = append(f.deleted, filter)
	f.mu.Unlock()
	return f.deleteErr
}

func (f *fakeIndex) insertedRecords() []index.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]index.Record, len(f.inserted))
	copy(out, f.inserted)
	return out
}

var _ VectorIndex = (*fakeIndex)(nil)

type fakeExtractor struct {
	content string
	err     error
}

func (f *fakeExtractor) ExtractAll(ctx context.Context, path string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.content, nil
}

var _ ContentExtractor = (*fakeExtractor)(nil)

type fakeCache struct {
	mu      sync.Mutex
	entries map[string][]float32
	getErr  error
	setErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string][]float32{}}
}

func (f *fakeCache) Get(ctx context.Context, text string) ([]float32, bool, error) {
	if f.getErr != nil {
		return nil, false, f.getErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	vector, ok := f.entries[text]
	return vector, ok, nil
}

func (f *fakeCache) Set(ctx context.Context, text string, vector []float32) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.mu.Lock()
	f.entries[text] = vector
	f.mu.Unlock()
	return nil
}

var _ EmbeddingCache = (*fakeCache)(nil)

// fakeDocStore keeps documents in a map and records every terminal status
// write so tests can assert the transition happened exactly once.
type fakeDocStore struct {
	mu             sync.Mutex
	docs           map[string]*model.Document
	terminalWrites []model.DocumentStatus
	createErr      error
}

func newFakeDocStore() *fakeDocStore {
	return &fakeDocStore{docs: map[string]*model.Document{}}
}

func (f *fakeDocStore) Create(doc *model.Document) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	copied := *doc
	f.docs[doc.ID] = &copied
	f.mu.Unlock()
	return nil
}

func (f *fakeDocStore) GetByID(id string) (*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil, nil
	}
	copied := *doc
	return &copied, nil
}

func (f *fakeDocStore) GetByIDAndOwnerID(id, ownerID string) (*model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok || doc.OwnerID != ownerID {
		return nil, nil
	}
	copied := *doc
	return &copied, nil
}

func (f *fakeDocStore) ListByOwnerID(ownerID string) ([]model.Document, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Document
	for _, doc := range f.docs {
		if doc.OwnerID == ownerID {
			out = append(out, *doc)
		}
	}
	return out, nil
}

func (f *fakeDocStore) SetTerminalStatus(id string, status model.DocumentStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, ok := f.docs[id]
	if !ok {
		return nil
	}
	if doc.Status == model.StatusLoading {
		doc.Status = status
		f.terminalWrites = append(f.terminalWrites, status)
	}
	return nil
}

func (f *fakeDocStore) DeleteByIDAndOwnerID(id, ownerID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.docs, id)
	return nil
}

func (f *fakeDocStore) status(id string) model.DocumentStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[id].Status
}

var _ DocumentStore = (*fakeDocStore)(nil)

type fakeNotifier struct {
	mu     sync.Mutex
	events []notify.StatusEvent
	err    error
}

func (f *fakeNotifier) NotifyStatus(ctx context.Context, event notify.StatusEvent) error {
	f.mu.Lock()
	f.events = append(f.events, event)
	f.mu.Unlock()
	return f.err
}

func (f *fakeNotifier) recorded() []notify.StatusEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]notify.StatusEvent, len(f.events))
	copy(out, f.events)
	return out
}

var _ notify.StatusNotifier = (*fakeNotifier)(nil)
