package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/lifeline-backend/internal/http/response"
	"github.com/yungbote/lifeline-backend/internal/services"
)

type PersonHandler struct {
	personService services.PersonService
}

func NewPersonHandler(personService services.PersonService) *PersonHandler {
	return &PersonHandler{personService: personService}
}

// POST /api/people
// body: { "name": "...", "seed_urls": ["..."] }
func (ph *PersonHandler) CreatePerson(c *gin.Context) {
	var req struct {
		Name     string   `json:"name"`
		SeedURLs []string `json:"seed_urls"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	result, err := ph.personService.CreatePerson(c.Request.Context(), req.Name, req.SeedURLs)
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "create_person_failed", err)
		return
	}
	status := http.StatusCreated
	if result.Existing {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// POST /api/people/:id/reingest
// body: { "from_phase": "discover" | "extract" | "stage" | "embed" | "publish" } (optional)
func (ph *PersonHandler) ReingestPerson(c *gin.Context) {
	personID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_person_id", err)
		return
	}
	var req struct {
		FromPhase string `json:"from_phase"`
	}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
			return
		}
	}

	if err := ph.personService.ReingestPerson(c.Request.Context(), personID, strings.TrimSpace(req.FromPhase)); err != nil {
		response.RespondError(c, http.StatusBadRequest, "reingest_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// DELETE /api/people/:id
func (ph *PersonHandler) DeletePerson(c *gin.Context) {
	personID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_person_id", err)
		return
	}
	if err := ph.personService.DeletePerson(c.Request.Context(), personID); err != nil {
		response.RespondError(c, http.StatusBadRequest, "delete_person_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"ok": true})
}

// GET /api/people
func (ph *PersonHandler) ListPeople(c *gin.Context) {
	people, err := ph.personService.ListPeople(c.Request.Context())
	if err != nil {
		response.RespondError(c, http.StatusInternalServerError, "list_people_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"people": people})
}

// GET /api/people/:id
func (ph *PersonHandler) GetPerson(c *gin.Context) {
	personID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_person_id", err)
		return
	}
	detail, err := ph.personService.GetPerson(c.Request.Context(), personID)
	if err != nil {
		response.RespondError(c, http.StatusNotFound, "person_not_found", err)
		return
	}
	response.RespondOK(c, detail)
}
