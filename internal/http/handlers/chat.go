package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/lifeline-backend/internal/http/response"
	"github.com/yungbote/lifeline-backend/internal/services"
)

type ChatHandler struct {
	chatService services.ChatService
}

func NewChatHandler(chatService services.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// POST /api/chat/stage
// body: { "person_id": "...", "stage_id": "...", "session_id": "...", "client_id": "...", "message": "..." }
// session_id continues an existing session; client_id starts or resumes one
// keyed by the caller's own identifier.
func (ch *ChatHandler) SendStageChat(c *gin.Context) {
	var req struct {
		PersonID  string `json:"person_id"`
		StageID   string `json:"stage_id"`
		SessionID string `json:"session_id"`
		ClientID  string `json:"client_id"`
		Message   string `json:"message"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	personID, err := uuid.Parse(strings.TrimSpace(req.PersonID))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_person_id", err)
		return
	}
	stageID, err := uuid.Parse(strings.TrimSpace(req.StageID))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_stage_id", err)
		return
	}
	var sessionID uuid.UUID
	if s := strings.TrimSpace(req.SessionID); s != "" {
		sessionID, err = uuid.Parse(s)
		if err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
			return
		}
	}

	out, err := ch.chatService.SendStageChat(c.Request.Context(), services.StageChatInput{
		PersonID:  personID,
		StageID:   stageID,
		SessionID: sessionID,
		ClientID:  strings.TrimSpace(req.ClientID),
		Message:   req.Message,
	})
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "chat_failed", err)
		return
	}
	response.RespondOK(c, out)
}

// GET /api/chat/sessions/:id/messages
func (ch *ChatHandler) GetSessionMessages(c *gin.Context) {
	sessionID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_session_id", err)
		return
	}
	out, err := ch.chatService.GetSessionMessages(c.Request.Context(), sessionID)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "session_not_found", err)
		return
	}
	response.RespondOK(c, out)
}
