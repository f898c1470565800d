package api

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/repository"
	"alcyxob/fitness-scheduler/internal/service"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CatalogHandler serves workout and program templates.
type CatalogHandler struct {
	catalogService service.CatalogService
}

func NewCatalogHandler(catalogService service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// --- DTOs ---

// ExerciseLineRequest is one prescription line. Lines are ordered as sent.
type ExerciseLineRequest struct {
	ExerciseID string `json:"exerciseId"`
	Sets       int    `json:"sets"`
	Reps       string `json:"reps"` // "10", "8-10", "30 seconds"
	Rest       string `json:"rest"`
	Notes      string `json:"notes"`
}

type WorkoutRequest struct {
	Name        string                `json:"name" binding:"required"`
	Description string                `json:"description"`
	Exercises   []ExerciseLineRequest `json:"exercises"`
}

// WorkoutPatchRequest updates only the fields present in the body.
type WorkoutPatchRequest struct {
	Name        *string                `json:"name"`
	Description *string                `json:"description"`
	Status      *string                `json:"status"`
	Exercises   *[]ExerciseLineRequest `json:"exercises"`
}

type WorkoutDayRequest struct {
	DayNumber         int                   `json:"dayNumber"`
	Name              string                `json:"name"`
	IsRestDay         bool                  `json:"isRestDay"`
	EstimatedDuration int                   `json:"estimatedDuration"` // minutes
	Notes             string                `json:"notes"`
	Exercises         []ExerciseLineRequest `json:"exercises"`
}

type ProgramRequest struct {
	Name        string              `json:"name" binding:"required"`
	Description string              `json:"description"`
	Days        []WorkoutDayRequest `json:"days"`
}

type ProgramPatchRequest struct {
	Name        *string              `json:"name"`
	Description *string              `json:"description"`
	Status      *string              `json:"status"`
	Days        *[]WorkoutDayRequest `json:"days"`
}

func toLineInputs(where string, lines []ExerciseLineRequest) ([]service.ExerciseLineInput, error) {
	inputs := make([]service.ExerciseLineInput, len(lines))
	for i, l := range lines {
		id, err := primitive.ObjectIDFromHex(l.ExerciseID)
		if err != nil {
			return nil, fmt.Errorf("%s exercise %d: invalid exerciseId", where, i+1)
		}
		inputs[i] = service.ExerciseLineInput{
			ExerciseID: id,
			Sets:       l.Sets,
			Reps:       l.Reps,
			Rest:       l.Rest,
			Notes:      l.Notes,
		}
	}
	return inputs, nil
}

func toDayInputs(days []WorkoutDayRequest) ([]service.WorkoutDayInput, error) {
	inputs := make([]service.WorkoutDayInput, len(days))
	for i, d := range days {
		inputs[i] = service.WorkoutDayInput{
			DayNumber:         d.DayNumber,
			Name:              d.Name,
			IsRestDay:         d.IsRestDay,
			EstimatedDuration: d.EstimatedDuration,
			Notes:             d.Notes,
		}
		// Rest days carry no exercises; whatever was sent is ignored.
		if d.IsRestDay {
			continue
		}
		lines, err := toLineInputs(fmt.Sprintf("day %d", d.DayNumber), d.Exercises)
		if err != nil {
			return nil, err
		}
		inputs[i].Exercises = lines
	}
	return inputs, nil
}

func parseStatus(raw *string) (*domain.TemplateStatus, error) {
	if raw == nil {
		return nil, nil
	}
	st, err := domain.ParseTemplateStatus(*raw)
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// templateFilter reads the creatorId and status query parameters.
func templateFilter(c *gin.Context) (repository.TemplateFilter, bool) {
	var filter repository.TemplateFilter
	if raw := c.Query("creatorId"); raw != "" {
		id, ok := bodyID(c, "creatorId", raw)
		if !ok {
			return filter, false
		}
		filter.CreatorID = &id
	}
	if raw := c.Query("status"); raw != "" {
		st, err := domain.ParseTemplateStatus(raw)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return filter, false
		}
		filter.Status = st
	}
	return filter, true
}

// --- Workouts ---

// CreateWorkout godoc
// @Summary Create a workout template
// @Tags Workouts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param workout body WorkoutRequest true "Workout with its ordered exercise lines"
// @Success 201 {object} domain.Workout
// @Failure 400 {object} gin.H "Validation error"
// @Router /workouts [post]
func (h *CatalogHandler) CreateWorkout(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	var req WorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "validation error: "+err.Error())
		return
	}
	lines, err := toLineInputs("workout", req.Exercises)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	workout, err := h.catalogService.CreateWorkout(c.Request.Context(), caller, service.WorkoutInput{
		Name:        req.Name,
		Description: req.Description,
		Exercises:   lines,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, workout)
}

func (h *CatalogHandler) GetWorkout(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	workout, err := h.catalogService.GetWorkout(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, workout)
}

func (h *CatalogHandler) ListWorkouts(c *gin.Context) {
	filter, ok := templateFilter(c)
	if !ok {
		return
	}
	workouts, err := h.catalogService.ListWorkouts(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if workouts == nil {
		workouts = []domain.Workout{}
	}
	c.JSON(http.StatusOK, workouts)
}

func (h *CatalogHandler) UpdateWorkout(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req WorkoutPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "validation error: "+err.Error())
		return
	}

	patch := service.WorkoutPatch{Name: req.Name, Description: req.Description}
	status, err := parseStatus(req.Status)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	patch.Status = status
	if req.Exercises != nil {
		lines, err := toLineInputs("workout", *req.Exercises)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		patch.Exercises = &lines
	}

	workout, err := h.catalogService.UpdateWorkout(c.Request.Context(), caller, id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, workout)
}

// DeleteWorkout godoc
// @Summary Delete a workout template
// @Tags Workouts
// @Security BearerAuth
// @Success 204
// @Failure 400 {object} gin.H "Workout is assigned to a client"
// @Failure 403 {object} gin.H "Not the creator"
// @Router /workouts/{id} [delete]
func (h *CatalogHandler) DeleteWorkout(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteWorkout(c.Request.Context(), caller, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// --- Programs ---

// CreateProgram godoc
// @Summary Create a multi-day program template
// @Tags Programs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param program body ProgramRequest true "Program with days numbered 1..n"
// @Success 201 {object} domain.WorkoutProgram
// @Router /programs [post]
func (h *CatalogHandler) CreateProgram(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	var req ProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "validation error: "+err.Error())
		return
	}
	days, err := toDayInputs(req.Days)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	program, err := h.catalogService.CreateProgram(c.Request.Context(), caller, service.ProgramInput{
		Name:        req.Name,
		Description: req.Description,
		Days:        days,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, program)
}

func (h *CatalogHandler) GetProgram(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	program, err := h.catalogService.GetProgram(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, program)
}

func (h *CatalogHandler) ListPrograms(c *gin.Context) {
	filter, ok := templateFilter(c)
	if !ok {
		return
	}
	programs, err := h.catalogService.ListPrograms(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	if programs == nil {
		programs = []domain.WorkoutProgram{}
	}
	c.JSON(http.StatusOK, programs)
}

func (h *CatalogHandler) UpdateProgram(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req ProgramPatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "validation error: "+err.Error())
		return
	}

	patch := service.ProgramPatch{Name: req.Name, Description: req.Description}
	status, err := parseStatus(req.Status)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	patch.Status = status
	if req.Days != nil {
		days, err := toDayInputs(*req.Days)
		if err != nil {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		patch.Days = &days
	}

	program, err := h.catalogService.UpdateProgram(c.Request.Context(), caller, id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, program)
}

func (h *CatalogHandler) DeleteProgram(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.catalogService.DeleteProgram(c.Request.Context(), caller, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
