package api

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ClientHandler holds the client service dependency.
type ClientHandler struct {
	clientService service.ClientService
}

// NewClientHandler creates a new ClientHandler.
func NewClientHandler(clientService service.ClientService) *ClientHandler {
	return &ClientHandler{clientService: clientService}
}

// --- DTOs ---

type UpdateSubscriptionRequest struct {
	Status string `json:"status" binding:"required"`
	Plan   string `json:"plan"`
}

// ClientResponse is the DTO for a client profile.
type ClientResponse struct {
	ID                 string                    `json:"id"`
	UserID             string                    `json:"userId"`
	Name               string                    `json:"name"`
	TrainerID          *string                   `json:"trainerId,omitempty"`
	SubscriptionStatus domain.SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionPlan   *domain.SubscriptionPlan  `json:"subscriptionPlan,omitempty"`
	CreatedAt          time.Time                 `json:"createdAt"`
	UpdatedAt          time.Time                 `json:"updatedAt"`
}

// MapClientToResponse converts a domain Client to a ClientResponse DTO.
func MapClientToResponse(client *domain.Client) ClientResponse {
	if client == nil {
		return ClientResponse{}
	}
	resp := ClientResponse{
		ID:                 client.ID.Hex(),
		UserID:             client.UserID.Hex(),
		Name:               client.Name,
		SubscriptionStatus: client.SubscriptionStatus,
		SubscriptionPlan:   client.SubscriptionPlan,
		CreatedAt:          client.CreatedAt,
		UpdatedAt:          client.UpdatedAt,
	}
	if client.HasTrainer() {
		trainerIDHex := client.TrainerID.Hex()
		resp.TrainerID = &trainerIDHex
	}
	return resp
}

func MapClientsToResponse(clients []domain.Client) []ClientResponse {
	responses := make([]ClientResponse, len(clients))
	for i := range clients {
		responses[i] = MapClientToResponse(&clients[i])
	}
	return responses
}

// --- Handler Methods ---

// ListClients godoc
// @Summary List clients
// @Description Admins see every client; trainers see the clients they manage.
// @Tags Clients
// @Produce json
// @Security BearerAuth
// @Success 200 {array} ClientResponse
// @Router /clients [get]
func (h *ClientHandler) ListClients(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	clients, err := h.clientService.ListClients(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapClientsToResponse(clients))
}

// ListUnassignedClients returns clients without a trainer.
func (h *ClientHandler) ListUnassignedClients(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	clients, err := h.clientService.ListUnassignedClients(c.Request.Context(), caller)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapClientsToResponse(clients))
}

func (h *ClientHandler) GetClient(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	client, err := h.clientService.GetClient(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapClientToResponse(client))
}

// UpdateSubscription godoc
// @Summary Set a client's subscription
// @Description ACTIVE requires a plan; INACTIVE clears it.
// @Tags Clients
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param subscription body UpdateSubscriptionRequest true "Status and plan"
// @Success 200 {object} ClientResponse
// @Router /clients/{id}/subscription [put]
func (h *ClientHandler) UpdateSubscription(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "validation error: "+err.Error())
		return
	}
	status, err := domain.ParseSubscriptionStatus(req.Status)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	var plan *domain.SubscriptionPlan
	if req.Plan != "" {
		p, err := domain.ParseSubscriptionPlan(req.Plan)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		plan = &p
	}

	client, err := h.clientService.UpdateSubscription(c.Request.Context(), caller, id, status, plan)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapClientToResponse(client))
}
