package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docqa/internal/config"
	"docqa/internal/extract"
	"docqa/internal/index"
	"docqa/internal/model"
)

func newTestIngestService(t *testing.T, store *fakeDocStore, extractor ContentExtractor, embedder Embedder, idx VectorIndex, notifier *fakeNotifier) *IngestService {
	t.Helper()
	return NewIngestService(store, extractor, embedder, idx, notifier, config.IngestConfig{
		StoreDir:       t.TempDir(),
		MinChunkLength: 500,
		MaxChunkLength: 800,
		ChunkOverlap:   50,
	})
}

func loadingDoc(store *fakeDocStore, id, owner string) model.Document {
	doc := model.Document{ID: id, OwnerID: owner, Name: "doc", Status: model.StatusLoading}
	_ = store.Create(&doc)
	return doc
}

func TestSaveUpload(t *testing.T) {
	store := newFakeDocStore()
	svc := newTestIngestService(t, store, &fakeExtractor{}, &fakeEmbedder{}, &fakeIndex{}, &fakeNotifier{})

	doc, err := svc.SaveUpload(context.Background(), "u1", "report.PDF", 0, strings.NewReader("content"))
	require.NoError(t, err)
	assert.Equal(t, "report", doc.Name)
	assert.Equal(t, "pdf", doc.Extension)
	assert.Equal(t, model.StatusLoading, doc.Status)
	assert.Equal(t, int64(7), doc.Size)
	// Stored under the generated id, not the client filename.
	assert.Equal(t, doc.ID+".pdf", filepath.Base(doc.Path))

	data, err := os.ReadFile(doc.Path)
	require.NoError(t, err)
	assert.Equal(t, "content", string(data))
	assert.Equal(t, model.StatusLoading, store.status(doc.ID))
}

func TestSaveUploadRequiresOwner(t *testing.T) {
	svc := newTestIngestService(t, newFakeDocStore(), &fakeExtractor{}, &fakeEmbedder{}, &fakeIndex{}, &fakeNotifier{})

	_, err := svc.SaveUpload(context.Background(), "", "a.pdf", 0, strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestSaveUploadCleansUpOnStoreFailure(t *testing.T) {
	store := newFakeDocStore()
	store.createErr = errors.New("mysql down")
	svc := newTestIngestService(t, store, &fakeExtractor{}, &fakeEmbedder{}, &fakeIndex{}, &fakeNotifier{})

	_, err := svc.SaveUpload(context.Background(), "u1", "a.pdf", 0, strings.NewReader("x"))
	require.Error(t, err)

	entries, err := os.ReadDir(svc.cfg.StoreDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcessSuccess(t *testing.T) {
	store := newFakeDocStore()
	idx := &fakeIndex{}
	notifier := &fakeNotifier{}
	content := strings.Repeat("A meaningful sentence with some length. ", 40)
	svc := newTestIngestService(t, store, &fakeExtractor{content: content}, &fakeEmbedder{vector: []float32{0.1}}, idx, notifier)

	doc := loadingDoc(store, "doc-1", "u1")
	require.NoError(t, svc.Process(context.Background(), doc))

	assert.Equal(t, model.StatusSuccess, store.status("doc-1"))

	records := idx.insertedRecords()
	require.NotEmpty(t, records)
	for _, rec := range records {
		assert.Equal(t, index.DocumentTag{DocumentID: "doc-1", DocumentName: "doc"}, rec.Tag)
		assert.NotEmpty(t, rec.Text)
		assert.NotEmpty(t, rec.Vector)
	}

	events := notifier.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, "doc-1", events[0].DocumentID)
	assert.Equal(t, "u1", events[0].OwnerID)
	assert.Equal(t, model.StatusSuccess, events[0].Status)
}

func TestProcessExtractionFailure(t *testing.T) {
	store := newFakeDocStore()
	idx := &fakeIndex{}
	notifier := &fakeNotifier{}
	svc := newTestIngestService(t, store, &fakeExtractor{err: extract.ErrExtraction}, &fakeEmbedder{vector: []float32{0.1}}, idx, notifier)

	doc := loadingDoc(store, "doc-1", "u1")
	err := svc.Process(context.Background(), doc)
	require.Error(t, err)
	assert.ErrorIs(t, err, extract.ErrExtraction)

	assert.Equal(t, model.StatusError, store.status("doc-1"))
	assert.Empty(t, idx.insertedRecords())

	events := notifier.recorded()
	require.Len(t, events, 1)
	assert.Equal(t, model.StatusError, events[0].Status)
}

func TestProcessIndexFailure(t *testing.T) {
	store := newFakeDocStore()
	idx := &fakeIndex{insertErr: index.ErrUnavailable}
	content := strings.Repeat("A meaningful sentence with some length. ", 40)
	svc := newTestIngestService(t, store, &fakeExtractor{content: content}, &fakeEmbedder{vector: []float32{0.1}}, idx, &fakeNotifier{})

	doc := loadingDoc(store, "doc-1", "u1")
	err := svc.Process(context.Background(), doc)
	require.Error(t, err)
	assert.Equal(t, model.StatusError, store.status("doc-1"))
}

func TestProcessEmptyContentStillSucceeds(t *testing.T) {
	store := newFakeDocStore()
	idx := &fakeIndex{}
	svc := newTestIngestService(t, store, &fakeExtractor{content: "   "}, &fakeEmbedder{vector: []float32{0.1}}, idx, &fakeNotifier{})

	doc := loadingDoc(store, "doc-1", "u1")
	require.NoError(t, svc.Process(context.Background(), doc))
	assert.Equal(t, model.StatusSuccess, store.status("doc-1"))
	assert.Empty(t, idx.insertedRecords())
}

func TestProcessTerminalStatusWrittenOnce(t *testing.T) {
	store := newFakeDocStore()
	content := strings.Repeat("A meaningful sentence with some length. ", 40)
	svc := newTestIngestService(t, store, &fakeExtractor{content: content}, &fakeEmbedder{vector: []float32{0.1}}, &fakeIndex{}, &fakeNotifier{})

	doc := loadingDoc(store, "doc-1", "u1")
	require.NoError(t, svc.Process(context.Background(), doc))
	// A second terminal attempt must not overwrite the first.
	svc.FailPending(context.Background(), doc)

	assert.Equal(t, model.StatusSuccess, store.status("doc-1"))
	assert.Equal(t, []model.DocumentStatus{model.StatusSuccess}, store.terminalWrites)
}

func TestFailPending(t *testing.T) {
	store := newFakeDocStore()
	notifier := &fakeNotifier{}
	svc := newTestIngestService(t, store, &fakeExtractor{}, &fakeEmbedder{}, &fakeIndex{}, notifier)

	doc := loadingDoc(store, "doc-1", "u1")
	svc.FailPending(context.Background(), doc)

	assert.Equal(t, model.StatusError, store.status("doc-1"))
	require.Len(t, notifier.recorded(), 1)
}

func TestGetNotFound(t *testing.T) {
	svc := newTestIngestService(t, newFakeDocStore(), &fakeExtractor{}, &fakeEmbedder{}, &fakeIndex{}, &fakeNotifier{})

	_, err := svc.Get("u1", "missing")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestGetOtherOwnersDocumentHidden(t *testing.T) {
	store := newFakeDocStore()
	svc := newTestIngestService(t, store, &fakeExtractor{}, &fakeEmbedder{}, &fakeIndex{}, &fakeNotifier{})
	loadingDoc(store, "doc-1", "u1")

	_, err := svc.Get("u2", "doc-1")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}

func TestDeleteRemovesFileAndVectors(t *testing.T) {
	store := newFakeDocStore()
	idx := &fakeIndex{}
	svc := newTestIngestService(t, store, &fakeExtractor{}, &fakeEmbedder{}, idx, &fakeNotifier{})

	doc, err := svc.SaveUpload(context.Background(), "u1", "a.pdf", 0, strings.NewReader("x"))
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), "u1", doc.ID))

	_, err = os.Stat(doc.Path)
	assert.True(t, os.IsNotExist(err))

	_, err = svc.Get("u1", doc.ID)
	assert.ErrorIs(t, err, ErrDocumentNotFound)

	require.Len(t, idx.deleted, 1)
	assert.Equal(t, index.DocumentFilter{DocumentIDs: []string{doc.ID}}, idx.deleted[0])
}

func TestDeleteUnknownDocument(t *testing.T) {
	svc := newTestIngestService(t, newFakeDocStore(), &fakeExtractor{}, &fakeEmbedder{}, &fakeIndex{}, &fakeNotifier{})

	err := svc.Delete(context.Background(), "u1", "missing")
	assert.ErrorIs(t, err, ErrDocumentNotFound)
}
