package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"docqa/internal/app"
	"docqa/internal/transport/http/middleware"
	"docqa/internal/transport/http/response"
)

type ChatHandler struct {
	answerService *app.AnswerService
	retriever     *app.Retriever
}

type AskRequest struct {
	Question       string   `json:"question" binding:"required"`
	DocumentIDs    []string `json:"document_ids"`
	ConversationID string   `json:"conversation_id"`
	TopK           int      `json:"top_k"`
}

type HistorySearchRequest struct {
	Query          string `json:"query" binding:"required"`
	ConversationID string `json:"conversation_id" binding:"required"`
}

func NewChatHandler(answerService *app.AnswerService, retriever *app.Retriever) *ChatHandler {
	return &ChatHandler{
		answerService: answerService,
		retriever:     retriever,
	}
}

func (h *ChatHandler) Ask(c *gin.Context) {
	userID, ok := middleware.UserID(c)
	if !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid identity")
		return
	}

	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	result, err := h.answerService.Answer(c.Request.Context(), app.AskInput{
		OwnerID:        userID,
		Question:       req.Question,
		DocumentIDs:    req.DocumentIDs,
		ConversationID: req.ConversationID,
		TopK:           req.TopK,
	})
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "ask failed")
		}
		return
	}
	response.OK(c, result)
}

// HistorySearch returns prior exchanges of a conversation similar to a query.
func (h *ChatHandler) HistorySearch(c *gin.Context) {
	if _, ok := middleware.UserID(c); !ok {
		response.Error(c, http.StatusUnauthorized, response.CodeUnauthorized, "invalid identity")
		return
	}

	var req HistorySearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	passages, err := h.retriever.History(c.Request.Context(), req.Query, req.ConversationID)
	if err != nil {
		if errors.Is(err, app.ErrInvalidInput) {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		} else {
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "history search failed")
		}
		return
	}
	response.OK(c, passages)
}
