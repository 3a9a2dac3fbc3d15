package model

import "fmt"

// ConversationTurn is one question/answer exchange. The turn itself is stored
// by an external session service; the pipeline only embeds it as memory.
type ConversationTurn struct {
	ConversationID string `json:"conversation_id"`
	Question       string `json:"question"`
	Answer         string `json:"answer"`
}

// MemoryText renders the turn as the single text unit that gets embedded and
// indexed under the conversation id.
func (t ConversationTurn) MemoryText() string {
	return fmt.Sprintf("Question: %s, Answer: %s", t.Question, t.Answer)
}
