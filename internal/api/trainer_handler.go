package api

import (
	"alcyxob/fitness-scheduler/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TrainerHandler manages the client-trainer relationship.
type TrainerHandler struct {
	trainerService service.TrainerService
}

// NewTrainerHandler creates a new TrainerHandler.
func NewTrainerHandler(trainerService service.TrainerService) *TrainerHandler {
	return &TrainerHandler{trainerService: trainerService}
}

// AssignTrainerRequest names the trainer. Trainers may omit it to assign themselves.
type AssignTrainerRequest struct {
	TrainerID string `json:"trainerId"`
}

type ReassignTrainerRequest struct {
	TrainerID string `json:"trainerId" binding:"required"`
}

// AssignTrainer godoc
// @Summary Assign a trainer to an unassigned client
// @Tags Trainers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body AssignTrainerRequest false "Trainer (admins only)"
// @Success 200 {object} ClientResponse
// @Failure 400 {object} gin.H "Client already has a trainer or no active subscription"
// @Router /clients/{id}/trainer [post]
func (h *TrainerHandler) AssignTrainer(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	clientID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var req AssignTrainerRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "validation error: "+err.Error())
			return
		}
	}
	trainerID := primitive.NilObjectID
	if req.TrainerID != "" {
		if trainerID, ok = bodyID(c, "trainerId", req.TrainerID); !ok {
			return
		}
	}

	client, err := h.trainerService.AssignTrainer(c.Request.Context(), caller, clientID, trainerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapClientToResponse(client))
}

// UnassignTrainer godoc
// @Summary Remove the trainer from a client
// @Tags Trainers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ClientResponse
// @Failure 403 {object} gin.H "Caller is not the client's trainer"
// @Router /clients/{id}/trainer [delete]
func (h *TrainerHandler) UnassignTrainer(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	clientID, ok := pathID(c, "id")
	if !ok {
		return
	}

	client, err := h.trainerService.UnassignTrainer(c.Request.Context(), caller, clientID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapClientToResponse(client))
}

// ReassignTrainer moves a client to another trainer. Admin only.
func (h *TrainerHandler) ReassignTrainer(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	clientID, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ReassignTrainerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "validation error: "+err.Error())
		return
	}
	trainerID, ok := bodyID(c, "trainerId", req.TrainerID)
	if !ok {
		return
	}

	client, err := h.trainerService.ReassignTrainer(c.Request.Context(), caller, clientID, trainerID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapClientToResponse(client))
}
