// Package index stores and searches embedding vectors, partitioned by the
// owning document or the owning conversation.
package index

import "errors"

// ErrUnavailable wraps any backend failure. Callers treat it as recoverable:
// ingestion marks the document failed, retrieval degrades to an empty result.
var ErrUnavailable = errors.New("vector index unavailable")

// Tag identifies which partition a record belongs to. A record carries exactly
// one tag: either it came from a file or from a conversation, never both.
type Tag interface {
	isTag()
}

// DocumentTag marks a chunk produced from an uploaded document.
type DocumentTag struct {
	DocumentID   string
	DocumentName string
}

// ConversationTag marks a question/answer memory record.
type ConversationTag struct {
	ConversationID string
}

func (DocumentTag) isTag()     {}
func (ConversationTag) isTag() {}

// Record is one insertable unit: a text chunk, its embedding, and its tag.
type Record struct {
	Text   string
	Vector []float32
	Tag    Tag
}

// QueryResult is a transient search hit. Distance is the cosine distance to
// the query vector, smaller is closer.
type QueryResult struct {
	Text     string
	Tag      Tag
	Distance float64
}

// Filter restricts a search or delete to one partition.
type Filter interface {
	isFilter()
}

// DocumentFilter matches records tagged with any of the given document ids.
type DocumentFilter struct {
	DocumentIDs []string
}

// ConversationFilter matches records tagged with the given conversation id.
type ConversationFilter struct {
	ConversationID string
}

func (DocumentFilter) isFilter()     {}
func (ConversationFilter) isFilter() {}
