package api

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"alcyxob/fitness-scheduler/internal/service"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// ExerciseHandler holds the exercise service dependency.
type ExerciseHandler struct {
	exerciseService service.ExerciseService
}

// NewExerciseHandler creates a new ExerciseHandler.
func NewExerciseHandler(exerciseService service.ExerciseService) *ExerciseHandler {
	return &ExerciseHandler{exerciseService: exerciseService}
}

// --- DTOs for API (Data Transfer Objects) ---

// ExerciseRequest defines the expected JSON for creating or updating an exercise.
type ExerciseRequest struct {
	Name         string   `json:"name" binding:"required"`
	Category     string   `json:"category"`
	Difficulty   string   `json:"difficulty" binding:"required"` // BEGINNER, INTERMEDIATE, ADVANCED
	MuscleGroups []string `json:"muscleGroups"`
	Equipment    []string `json:"equipment"`
	Instructions string   `json:"instructions"`
}

type MediaUploadRequest struct {
	ContentType string `json:"contentType" binding:"required"`
}

type MediaConfirmRequest struct {
	ObjectKey string `json:"objectKey" binding:"required"`
}

// ExerciseResponse is the DTO for returning exercise details.
type ExerciseResponse struct {
	ID           string            `json:"id"`
	CreatorID    string            `json:"creatorId"`
	Name         string            `json:"name"`
	Category     string            `json:"category,omitempty"`
	Difficulty   domain.Difficulty `json:"difficulty"`
	MuscleGroups []string          `json:"muscleGroups,omitempty"`
	Equipment    []string          `json:"equipment,omitempty"`
	Instructions string            `json:"instructions,omitempty"`
	HasMedia     bool              `json:"hasMedia"`
	MediaURL     string            `json:"mediaUrl,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

// MapExerciseToResponse converts a domain.Exercise to ExerciseResponse DTO.
func MapExerciseToResponse(ex *domain.Exercise) ExerciseResponse {
	if ex == nil {
		return ExerciseResponse{}
	}
	return ExerciseResponse{
		ID:           ex.ID.Hex(),
		CreatorID:    ex.CreatorID.Hex(),
		Name:         ex.Name,
		Category:     ex.Category,
		Difficulty:   ex.Difficulty,
		MuscleGroups: ex.MuscleGroups,
		Equipment:    ex.Equipment,
		Instructions: ex.Instructions,
		HasMedia:     ex.MediaKey != "",
		CreatedAt:    ex.CreatedAt,
		UpdatedAt:    ex.UpdatedAt,
	}
}

// MapExercisesToResponse converts a slice of domain.Exercise to a slice of ExerciseResponse DTO.
func MapExercisesToResponse(exercises []domain.Exercise) []ExerciseResponse {
	responses := make([]ExerciseResponse, len(exercises))
	for i := range exercises {
		responses[i] = MapExerciseToResponse(&exercises[i])
	}
	return responses
}

func (req ExerciseRequest) toInput() service.ExerciseInput {
	return service.ExerciseInput{
		Name:         req.Name,
		Category:     req.Category,
		Difficulty:   domain.Difficulty(req.Difficulty),
		MuscleGroups: req.MuscleGroups,
		Equipment:    req.Equipment,
		Instructions: req.Instructions,
	}
}

// --- Handler Methods ---

// CreateExercise godoc
// @Summary Create a new exercise
// @Tags Exercises
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param exercise body ExerciseRequest true "Exercise details"
// @Success 201 {object} ExerciseResponse "Exercise created successfully"
// @Failure 400 {object} gin.H "Invalid input or name already taken"
// @Router /exercises [post]
func (h *ExerciseHandler) CreateExercise(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "validation error: "+err.Error())
		return
	}
	exercise, err := h.exerciseService.CreateExercise(c.Request.Context(), caller, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, MapExerciseToResponse(exercise))
}

// ListExercises godoc
// @Summary List exercises
// @Tags Exercises
// @Produce json
// @Param category query string false "Category"
// @Param muscleGroup query string false "Muscle group"
// @Param difficulty query string false "Difficulty"
// @Success 200 {array} ExerciseResponse
// @Router /exercises [get]
func (h *ExerciseHandler) ListExercises(c *gin.Context) {
	filter := repository.ExerciseFilter{
		Category:    c.Query("category"),
		MuscleGroup: c.Query("muscleGroup"),
	}
	if raw := c.Query("difficulty"); raw != "" {
		d, err := domain.ParseDifficulty(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		filter.Difficulty = d
	}

	exercises, err := h.exerciseService.ListExercises(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExercisesToResponse(exercises))
}

func (h *ExerciseHandler) GetExercise(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	details, err := h.exerciseService.GetExercise(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	resp := MapExerciseToResponse(&details.Exercise)
	resp.MediaURL = details.MediaURL
	c.JSON(http.StatusOK, resp)
}

func (h *ExerciseHandler) UpdateExercise(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ExerciseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "validation error: "+err.Error())
		return
	}
	exercise, err := h.exerciseService.UpdateExercise(c.Request.Context(), caller, id, req.toInput())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}

func (h *ExerciseHandler) DeleteExercise(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.exerciseService.DeleteExercise(c.Request.Context(), caller, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RequestMediaUpload godoc
// @Summary Get a presigned URL for uploading exercise media
// @Tags Exercises
// @Accept json
// @Produce json
// @Param request body MediaUploadRequest true "Content type of the file (video/* or image/*)"
// @Success 200 {object} service.UploadURLResponse
// @Router /exercises/{id}/media/upload-url [post]
func (h *ExerciseHandler) RequestMediaUpload(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req MediaUploadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "validation error: "+err.Error())
		return
	}

	resp, err := h.exerciseService.RequestMediaUpload(c.Request.Context(), caller, id, req.ContentType)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// ConfirmMedia records the object key of an uploaded media file.
func (h *ExerciseHandler) ConfirmMedia(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req MediaConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "validation error: "+err.Error())
		return
	}

	exercise, err := h.exerciseService.ConfirmMedia(c.Request.Context(), caller, id, req.ObjectKey)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapExerciseToResponse(exercise))
}
