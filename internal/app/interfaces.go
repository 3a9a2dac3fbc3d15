// Package app wires the ingestion and question-answering pipelines. All
// collaborators come in through constructor-injected interfaces so the
// pipelines own no global state.
package app

import (
	"context"
	"errors"

	"docqa/internal/ai"
	"docqa/internal/index"
	"docqa/internal/model"
)

var (
	ErrInvalidInput     = errors.New("invalid input")
	ErrDocumentNotFound = errors.New("document not found")
)

// Embedder maps text to fixed-dimension vectors. The same implementation must
// serve chunks and queries so their vectors are comparable.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer produces a single chat completion.
type Completer interface {
	Complete(ctx context.Context, messages []ai.ChatMessage) (string, error)
}

// Reranker re-scores candidate texts against a query with a cross-encoder.
type Reranker interface {
	Rerank(ctx context.Context, query string, texts []string) ([]ai.RerankResult, error)
}

// VectorIndex is the similarity index the pipelines read and write.
type VectorIndex interface {
	Insert(ctx context.Context, records []index.Record) error
	Search(ctx context.Context, queryVector []float32, filter index.Filter, topK int) ([]index.QueryResult, error)
	Delete(ctx context.Context, filter index.Filter) error
}

// ContentExtractor turns a stored document file into one text blob.
type ContentExtractor interface {
	ExtractAll(ctx context.Context, path string) (string, error)
}

// EmbeddingCache is an optional read-through cache for query embeddings.
type EmbeddingCache interface {
	Get(ctx context.Context, text string) ([]float32, bool, error)
	Set(ctx context.Context, text string, vector []float32) error
}

// DocumentStore persists document records and their lifecycle status.
type DocumentStore interface {
	Create(doc *model.Document) error
	GetByID(id string) (*model.Document, error)
	GetByIDAndOwnerID(id, ownerID string) (*model.Document, error)
	ListByOwnerID(ownerID string) ([]model.Document, error)
	SetTerminalStatus(id string, status model.DocumentStatus) error
	DeleteByIDAndOwnerID(id, ownerID string) error
}
