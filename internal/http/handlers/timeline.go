package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/lifeline-backend/internal/http/response"
	"github.com/yungbote/lifeline-backend/internal/services"
)

type TimelineHandler struct {
	personService services.PersonService
}

func NewTimelineHandler(personService services.PersonService) *TimelineHandler {
	return &TimelineHandler{personService: personService}
}

// GET /api/people/:id/timeline
func (th *TimelineHandler) GetTimeline(c *gin.Context) {
	personID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_person_id", err)
		return
	}
	stages, err := th.personService.GetTimeline(c.Request.Context(), personID)
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "get_timeline_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"stages": stages})
}

// GET /api/stages/:id/sources
func (th *TimelineHandler) GetStageSources(c *gin.Context) {
	stageID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_stage_id", err)
		return
	}
	sources, err := th.personService.GetStageSources(c.Request.Context(), stageID)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "stage_sources_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"sources": sources})
}
