package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"docqa/internal/ai"
	"docqa/internal/index"
	"docqa/internal/model"
)

// FallbackAnswer is returned whenever retrieval or synthesis fails, so the
// chat flow is never interrupted by an error surface.
const FallbackAnswer = "no information available, please ask something else"

// SuggestDelimiter separates the answer from the suggested follow-up question
// inside a single completion.
const SuggestDelimiter = "--suggest_question:"

const systemPrompt = `You are an assistant that answers questions using only the provided documents.
- If the question is a greeting, reply with a short greeting.
- If the documents contain the answer, reply in the format "<<your answer>> ` + SuggestDelimiter + ` <<a short follow-up question about the documents that does not repeat the user's question>>".
- If the documents do not contain the answer, reply "no information available, please ask something else ` + SuggestDelimiter + ` <<a short question the user could ask about the documents>>".
- The content inside << >> is the part you fill in.`

// AskInput is one question against a set of allowed documents.
type AskInput struct {
	OwnerID        string
	Question       string
	DocumentIDs    []string
	ConversationID string
	TopK           int
}

// AskResult is the grounded answer with its ranked sources.
type AskResult struct {
	Answer            string             `json:"answer"`
	SuggestedQuestion string             `json:"suggested_question,omitempty"`
	Passages          []RetrievedPassage `json:"passages,omitempty"`
}

// AnswerService builds grounded prompts, parses completions, and persists the
// exchange back into the index as conversational memory.
type AnswerService struct {
	retriever *Retriever
	completer Completer
	embedder  Embedder
	idx       VectorIndex

	// persistWG lets Close wait for in-flight memory writes.
	persistWG sync.WaitGroup
}

func NewAnswerService(retriever *Retriever, completer Completer, embedder Embedder, idx VectorIndex) *AnswerService {
	return &AnswerService{
		retriever: retriever,
		completer: completer,
		embedder:  embedder,
		idx:       idx,
	}
}

// Answer runs retrieval and synthesis for one question. It only returns an
// error for invalid input; every downstream failure yields the fallback
// answer instead.
func (s *AnswerService) Answer(ctx context.Context, input AskInput) (*AskResult, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, ErrInvalidInput
	}

	passages, err := s.retriever.Retrieve(ctx, question, input.DocumentIDs, input.TopK)
	if err != nil {
		if errors.Is(err, ErrInvalidInput) {
			return nil, err
		}
		log.Printf("retrieval failed: %v", err)
		return &AskResult{Answer: FallbackAnswer}, nil
	}
	if len(passages) == 0 {
		return &AskResult{Answer: FallbackAnswer}, nil
	}

	messages := []ai.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: renderUserPrompt(passages, question)},
	}
	completion, err := s.completer.Complete(ctx, messages)
	if err != nil {
		log.Printf("completion failed: %v", err)
		return &AskResult{Answer: FallbackAnswer}, nil
	}

	answer, suggested := ParseCompletion(completion)
	result := &AskResult{
		Answer:            answer,
		SuggestedQuestion: suggested,
		Passages:          passages,
	}

	if input.ConversationID != "" {
		turn := model.ConversationTurn{
			ConversationID: input.ConversationID,
			Question:       question,
			Answer:         answer,
		}
		s.persistWG.Add(1)
		go func() {
			defer s.persistWG.Done()
			persistCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := s.persistTurn(persistCtx, turn); err != nil {
				log.Printf("persist conversation turn failed: %v", err)
			}
		}()
	}

	return result, nil
}

// persistTurn embeds the exchange and inserts it tagged by conversation id so
// later questions in the same conversation can retrieve it.
func (s *AnswerService) persistTurn(ctx context.Context, turn model.ConversationTurn) error {
	text := turn.MemoryText()
	vector, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return fmt.Errorf("embed conversation turn failed: %w", err)
	}
	return s.idx.Insert(ctx, []index.Record{{
		Text:   text,
		Vector: vector,
		Tag:    index.ConversationTag{ConversationID: turn.ConversationID},
	}})
}

// Close waits for pending memory writes to finish.
func (s *AnswerService) Close() {
	s.persistWG.Wait()
}

// ParseCompletion strips the << >> fill-in markers and splits the completion
// on the first suggest-question delimiter. Both sides come back trimmed; a
// completion without the delimiter is all answer.
func ParseCompletion(completion string) (answer, suggestedQuestion string) {
	cleaned := strings.NewReplacer("<<", "", ">>", "").Replace(completion)

	if idx := strings.Index(cleaned, SuggestDelimiter); idx >= 0 {
		answer = strings.TrimSpace(cleaned[:idx])
		suggestedQuestion = strings.TrimSpace(cleaned[idx+len(SuggestDelimiter):])
		return answer, suggestedQuestion
	}
	return strings.TrimSpace(cleaned), ""
}

func renderUserPrompt(passages []RetrievedPassage, question string) string {
	var b strings.Builder
	b.WriteString("Documents:\n")
	for _, p := range passages {
		b.WriteString("---\n")
		if p.DocumentName != "" {
			b.WriteString("[")
			b.WriteString(p.DocumentName)
			b.WriteString("]\n")
		}
		b.WriteString(p.Text)
		b.WriteString("\n")
	}
	b.WriteString("---\n\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
