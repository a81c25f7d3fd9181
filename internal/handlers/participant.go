package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/uniqdata/backend/internal/services"
	"github.com/uniqdata/backend/pkg/response"
)

type ParticipantHandler struct {
	participantService *services.ParticipantService
}

func NewParticipantHandler(participantService *services.ParticipantService) *ParticipantHandler {
	return &ParticipantHandler{
		participantService: participantService,
	}
}

// Enroll registers a participant into a project, creating its escrow first.
// POST /api/projects/:id/participants/enroll
func (h *ParticipantHandler) Enroll(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.EnrollRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	participant, err := h.participantService.Enroll(c.Request.Context(), uint(projectID), req.ParticipantAddress)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Created(c, participant)
}

// Withdraw cancels a participant's escrow and deactivates the enrollment.
// POST /api/projects/:id/participants/withdraw
func (h *ParticipantHandler) Withdraw(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var req services.WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	participant, err := h.participantService.Withdraw(c.Request.Context(), uint(projectID), req.ParticipantAddress)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, participant)
}

// List returns a project's participants, optionally filtered by active state.
// GET /api/projects/:id/participants?active=true
func (h *ParticipantHandler) List(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	var activeOnly *bool
	if raw := c.Query("active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(c, "invalid active filter")
			return
		}
		activeOnly = &v
	}

	participants, err := h.participantService.ListByProject(uint(projectID), activeOnly)
	if err != nil {
		response.ServerError(c, err.Error())
		return
	}

	response.Success(c, gin.H{
		"total": len(participants),
		"items": participants,
	})
}

// GetByAddress returns a single enrollment by its natural key.
// GET /api/projects/:id/participants/by-address?address=r...
func (h *ParticipantHandler) GetByAddress(c *gin.Context) {
	projectID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		response.BadRequest(c, "invalid project id")
		return
	}

	address := c.Query("address")
	if address == "" {
		response.BadRequest(c, "address query parameter is required")
		return
	}

	participant, err := h.participantService.GetByProjectAndAddress(uint(projectID), address)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	response.Success(c, participant)
}
