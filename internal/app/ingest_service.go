package app

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"docqa/internal/config"
	"docqa/internal/index"
	"docqa/internal/model"
	"docqa/internal/notify"
	"docqa/internal/textsplit"
)

// Embedding providers commonly cap array inputs, so chunk embeddings go out
// in fixed-size batches.
const embeddingBatchSize = 10

// IngestService owns the document side of the system: storing uploads,
// running the extraction-to-index pipeline, and deleting documents together
// with their vector records.
type IngestService struct {
	docs      DocumentStore
	extractor ContentExtractor
	embedder  Embedder
	idx       VectorIndex
	notifier  notify.StatusNotifier
	cfg       config.IngestConfig
}

func NewIngestService(
	docs DocumentStore,
	extractor ContentExtractor,
	embedder Embedder,
	idx VectorIndex,
	notifier notify.StatusNotifier,
	cfg config.IngestConfig,
) *IngestService {
	if notifier == nil {
		notifier = notify.NopNotifier{}
	}
	return &IngestService{
		docs:      docs,
		extractor: extractor,
		embedder:  embedder,
		idx:       idx,
		notifier:  notifier,
		cfg:       cfg,
	}
}

// SaveUpload writes the uploaded file into the store directory and creates
// its record in the loading state. The pipeline itself runs later, on a
// worker, so the caller returns to the client immediately.
func (s *IngestService) SaveUpload(ctx context.Context, ownerID, filename string, size int64, r io.Reader) (*model.Document, error) {
	if ownerID == "" {
		return nil, ErrInvalidInput
	}
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if name == "" {
		name = "Untitled"
	}

	if err := os.MkdirAll(s.cfg.StoreDir, 0o755); err != nil {
		return nil, fmt.Errorf("create store dir failed: %w", err)
	}

	id := uuid.NewString()
	path := filepath.Join(s.cfg.StoreDir, id+"."+ext)
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create stored file failed: %w", err)
	}
	written, err := io.Copy(f, r)
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, fmt.Errorf("write stored file failed: %w", err)
	}
	if size <= 0 {
		size = written
	}

	doc := &model.Document{
		ID:        id,
		OwnerID:   ownerID,
		Name:      name,
		Extension: ext,
		Path:      path,
		Size:      size,
		Status:    model.StatusLoading,
	}
	if err := s.docs.Create(doc); err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	return doc, nil
}

// Process runs the full ingestion pipeline for one document and always leaves
// it in a terminal state. Failures stay confined to this document.
func (s *IngestService) Process(ctx context.Context, doc model.Document) error {
	if err := s.ingest(ctx, doc); err != nil {
		s.finish(ctx, doc, model.StatusError)
		return fmt.Errorf("ingest %s failed: %w", doc.ID, err)
	}
	s.finish(ctx, doc, model.StatusSuccess)
	return nil
}

func (s *IngestService) ingest(ctx context.Context, doc model.Document) error {
	content, err := s.extractor.ExtractAll(ctx, doc.Path)
	if err != nil {
		return err
	}

	sentences := textsplit.SplitSentences(textsplit.Normalize(content))
	chunks := textsplit.Assemble(sentences, s.cfg.MinChunkLength, s.cfg.MaxChunkLength, s.cfg.ChunkOverlap)
	if len(chunks) == 0 {
		log.Printf("document %s produced no chunks", doc.ID)
		return nil
	}

	var vectors [][]float32
	for i := 0; i < len(chunks); i += embeddingBatchSize {
		end := i + embeddingBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batch, err := s.embedder.EmbedBatch(ctx, chunks[i:end])
		if err != nil {
			return fmt.Errorf("embed chunks failed: %w", err)
		}
		vectors = append(vectors, batch...)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embedding count mismatch: %d chunks, %d vectors", len(chunks), len(vectors))
	}

	records := make([]index.Record, len(chunks))
	for i := range chunks {
		records[i] = index.Record{
			Text:   chunks[i],
			Vector: vectors[i],
			Tag: index.DocumentTag{
				DocumentID:   doc.ID,
				DocumentName: doc.Name,
			},
		}
	}
	if err := s.idx.Insert(ctx, records); err != nil {
		return err
	}

	log.Printf("ingested document %s (%d chunks)", doc.ID, len(records))
	return nil
}

// finish records the terminal status and tells the status sink, both best
// effort: the conditional update in the store keeps the transition monotonic
// even if two workers ever raced on the same document.
func (s *IngestService) finish(ctx context.Context, doc model.Document, status model.DocumentStatus) {
	if err := s.docs.SetTerminalStatus(doc.ID, status); err != nil {
		log.Printf("set document %s status failed: %v", doc.ID, err)
	}
	if err := s.notifier.NotifyStatus(ctx, notify.StatusEvent{
		DocumentID: doc.ID,
		OwnerID:    doc.OwnerID,
		Status:     status,
	}); err != nil {
		log.Printf("notify document %s status failed: %v", doc.ID, err)
	}
}

// FailPending marks a stored document as failed without running the
// pipeline, for uploads the ingest queue rejected.
func (s *IngestService) FailPending(ctx context.Context, doc model.Document) {
	s.finish(ctx, doc, model.StatusError)
}

// List returns the owner's documents, newest first.
func (s *IngestService) List(ownerID string) ([]model.Document, error) {
	if ownerID == "" {
		return nil, ErrInvalidInput
	}
	return s.docs.ListByOwnerID(ownerID)
}

// Get returns one of the owner's documents, or ErrDocumentNotFound.
func (s *IngestService) Get(ownerID, documentID string) (*model.Document, error) {
	if ownerID == "" || documentID == "" {
		return nil, ErrInvalidInput
	}
	doc, err := s.docs.GetByIDAndOwnerID(documentID, ownerID)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, ErrDocumentNotFound
	}
	return doc, nil
}

// Delete removes the record, the stored file, and every vector record tagged
// with this document id.
func (s *IngestService) Delete(ctx context.Context, ownerID, documentID string) error {
	doc, err := s.Get(ownerID, documentID)
	if err != nil {
		return err
	}

	if err := s.docs.DeleteByIDAndOwnerID(doc.ID, ownerID); err != nil {
		return err
	}
	if doc.Path != "" {
		if err := os.Remove(doc.Path); err != nil && !os.IsNotExist(err) {
			log.Printf("remove stored file %s failed: %v", doc.Path, err)
		}
	}
	if err := s.idx.Delete(ctx, index.DocumentFilter{DocumentIDs: []string{doc.ID}}); err != nil {
		return err
	}
	return nil
}
