package app

import (
	"context"
	"log"
	"strings"

	"docqa/internal/config"
	"docqa/internal/index"
)

const historyTopK = 5

// RetrievedPassage is one ranked grounding candidate. Score is the
// cross-encoder score when reranking ran, otherwise the original cosine
// distance from the vector search.
type RetrievedPassage struct {
	Text         string  `json:"text"`
	DocumentID   string  `json:"document_id"`
	DocumentName string  `json:"document_name"`
	Score        float64 `json:"score"`
}

// Retriever embeds a query, searches the index restricted to an allowed
// document set, and optionally reranks the candidates.
type Retriever struct {
	embedder Embedder
	idx      VectorIndex
	reranker Reranker
	cache    EmbeddingCache
	cfg      config.RetrievalConfig
}

func NewRetriever(embedder Embedder, idx VectorIndex, reranker Reranker, cache EmbeddingCache, cfg config.RetrievalConfig) *Retriever {
	if cfg.TopK <= 0 {
		cfg.TopK = 5
	}
	if cfg.RerankTopK <= 0 || cfg.RerankTopK > cfg.TopK {
		cfg.RerankTopK = cfg.TopK
	}
	return &Retriever{
		embedder: embedder,
		idx:      idx,
		reranker: reranker,
		cache:    cache,
		cfg:      cfg,
	}
}

// Retrieve returns ranked passages from the allowed documents. An empty
// allowed set short-circuits to an empty result without touching the index,
// and an unreachable index degrades to an empty result as well.
func (r *Retriever) Retrieve(ctx context.Context, query string, allowedDocumentIDs []string, topK int) ([]RetrievedPassage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidInput
	}
	if len(allowedDocumentIDs) == 0 {
		return nil, nil
	}
	if topK <= 0 {
		topK = r.cfg.TopK
	}

	vector, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := r.idx.Search(ctx, vector, index.DocumentFilter{DocumentIDs: allowedDocumentIDs}, topK)
	if err != nil {
		log.Printf("vector search failed: %v", err)
		return nil, nil
	}

	passages := make([]RetrievedPassage, 0, len(results))
	for _, res := range results {
		if r.cfg.DistanceThreshold > 0 && 1-res.Distance < r.cfg.DistanceThreshold {
			continue
		}
		tag, ok := res.Tag.(index.DocumentTag)
		if !ok {
			continue
		}
		passages = append(passages, RetrievedPassage{
			Text:         res.Text,
			DocumentID:   tag.DocumentID,
			DocumentName: tag.DocumentName,
			Score:        res.Distance,
		})
	}

	if r.reranker != nil && r.cfg.RerankEnabled && len(passages) > 0 {
		passages = r.rerank(ctx, query, passages)
	}
	return passages, nil
}

// History returns prior exchanges of the conversation that are similar to the
// query, so earlier answers can ground later ones.
func (r *Retriever) History(ctx context.Context, query, conversationID string) ([]RetrievedPassage, error) {
	query = strings.TrimSpace(query)
	if query == "" || conversationID == "" {
		return nil, ErrInvalidInput
	}

	vector, err := r.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	results, err := r.idx.Search(ctx, vector, index.ConversationFilter{ConversationID: conversationID}, historyTopK)
	if err != nil {
		log.Printf("history search failed: %v", err)
		return nil, nil
	}

	passages := make([]RetrievedPassage, 0, len(results))
	for _, res := range results {
		passages = append(passages, RetrievedPassage{
			Text:  res.Text,
			Score: res.Distance,
		})
	}
	return passages, nil
}

// rerank re-scores the candidates and keeps the best rerankTopK. A rerank
// failure falls back to the distance ordering rather than losing the answer.
func (r *Retriever) rerank(ctx context.Context, query string, passages []RetrievedPassage) []RetrievedPassage {
	texts := make([]string, len(passages))
	for i, p := range passages {
		texts[i] = p.Text
	}

	ranked, err := r.reranker.Rerank(ctx, query, texts)
	if err != nil {
		log.Printf("rerank failed, keeping distance order: %v", err)
		return passages
	}

	keep := r.cfg.RerankTopK
	if keep > len(ranked) {
		keep = len(ranked)
	}
	out := make([]RetrievedPassage, 0, keep)
	for _, res := range ranked[:keep] {
		p := passages[res.Index]
		p.Score = res.Score
		out = append(out, p)
	}
	return out
}

func (r *Retriever) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if r.cache != nil {
		if vector, ok, err := r.cache.Get(ctx, query); err == nil && ok {
			return vector, nil
		} else if err != nil {
			log.Printf("embedding cache get failed: %v", err)
		}
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	if r.cache != nil {
		if err := r.cache.Set(ctx, query, vector); err != nil {
			log.Printf("embedding cache set failed: %v", err)
		}
	}
	return vector, nil
}
