package api

import (
	"alcyxob/fitness-scheduler/internal/domain"
	"alcyxob/fitness-scheduler/internal/metrics"
	"alcyxob/fitness-scheduler/internal/service"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

// AssignmentHandler schedules workouts and programs onto client calendars.
type AssignmentHandler struct {
	assignmentService service.AssignmentService
	metrics           *metrics.Manager
}

func NewAssignmentHandler(assignmentService service.AssignmentService, m *metrics.Manager) *AssignmentHandler {
	return &AssignmentHandler{assignmentService: assignmentService, metrics: m}
}

// --- DTOs ---

type AssignWorkoutRequest struct {
	ClientID      string `json:"clientId" binding:"required"`
	WorkoutID     string `json:"workoutId" binding:"required"`
	ScheduledDate string `json:"scheduledDate" binding:"required"` // YYYY-MM-DD
	Notes         string `json:"notes"`
}

type AssignProgramRequest struct {
	ClientID  string `json:"clientId" binding:"required"`
	ProgramID string `json:"programId" binding:"required"`
	StartDate string `json:"startDate" binding:"required"` // YYYY-MM-DD
	Notes     string `json:"notes"`
}

type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type DayOverrideRequest struct {
	ScheduledDate string `json:"scheduledDate" binding:"required"`
}

type WorkoutAssignmentResponse struct {
	ID            string                   `json:"id"`
	ClientID      string                   `json:"clientId"`
	WorkoutID     string                   `json:"workoutId"`
	AssignedBy    string                   `json:"assignedBy"`
	ScheduledDate string                   `json:"scheduledDate"`
	Status        domain.AssignmentStatus  `json:"status"`
	CompletedAt   *time.Time               `json:"completedAt,omitempty"`
	Notes         string                   `json:"notes,omitempty"`
	Workout       *service.TemplateSummary `json:"workout,omitempty"`
	Client        *service.ClientSummary   `json:"client,omitempty"`
	CreatedAt     time.Time                `json:"createdAt"`
	UpdatedAt     time.Time                `json:"updatedAt"`
}

type DayOverrideResponse struct {
	ID            string `json:"id"`
	DayNumber     int    `json:"dayNumber"`
	ScheduledDate string `json:"scheduledDate"`
}

type ProgramAssignmentResponse struct {
	ID           string                   `json:"id"`
	ClientID     string                   `json:"clientId"`
	ProgramID    string                   `json:"programId"`
	AssignedBy   string                   `json:"assignedBy"`
	StartDate    string                   `json:"startDate"`
	Status       domain.EnrollmentStatus  `json:"status"`
	Notes        string                   `json:"notes,omitempty"`
	DayOverrides []DayOverrideResponse    `json:"dayOverrides"`
	Program      *service.TemplateSummary `json:"program,omitempty"`
	Client       *service.ClientSummary   `json:"client,omitempty"`
	CreatedAt    time.Time                `json:"createdAt"`
	UpdatedAt    time.Time                `json:"updatedAt"`
}

type ClientAssignmentsResponse struct {
	Client   service.ClientSummary       `json:"client"`
	Workouts []WorkoutAssignmentResponse `json:"workouts"`
	Programs []ProgramAssignmentResponse `json:"programs"`
}

// MapClientWorkoutToResponse converts an assignment row; dates are rendered as calendar dates.
func MapClientWorkoutToResponse(cw *domain.ClientWorkout) WorkoutAssignmentResponse {
	return WorkoutAssignmentResponse{
		ID:            cw.ID.Hex(),
		ClientID:      cw.ClientID.Hex(),
		WorkoutID:     cw.WorkoutID.Hex(),
		AssignedBy:    cw.AssignedBy.Hex(),
		ScheduledDate: domain.FormatDate(cw.ScheduledDate),
		Status:        cw.Status,
		CompletedAt:   cw.CompletedAt,
		Notes:         cw.Notes,
		CreatedAt:     cw.CreatedAt,
		UpdatedAt:     cw.UpdatedAt,
	}
}

func MapWorkoutAssignmentToResponse(d *service.WorkoutAssignmentDetails) WorkoutAssignmentResponse {
	resp := MapClientWorkoutToResponse(&d.ClientWorkout)
	workout, client := d.Workout, d.Client
	resp.Workout = &workout
	resp.Client = &client
	return resp
}

func MapEnrollmentToResponse(e *domain.ClientWorkoutProgram) ProgramAssignmentResponse {
	overrides := make([]DayOverrideResponse, len(e.DayOverrides))
	for i, o := range e.DayOverrides {
		overrides[i] = DayOverrideResponse{
			ID:            o.ID.Hex(),
			DayNumber:     o.DayNumber,
			ScheduledDate: domain.FormatDate(o.ScheduledDate),
		}
	}
	return ProgramAssignmentResponse{
		ID:           e.ID.Hex(),
		ClientID:     e.ClientID.Hex(),
		ProgramID:    e.ProgramID.Hex(),
		AssignedBy:   e.AssignedBy.Hex(),
		StartDate:    domain.FormatDate(e.StartDate),
		Status:       e.Status,
		Notes:        e.Notes,
		DayOverrides: overrides,
		CreatedAt:    e.CreatedAt,
		UpdatedAt:    e.UpdatedAt,
	}
}

func MapProgramAssignmentToResponse(d *service.ProgramAssignmentDetails) ProgramAssignmentResponse {
	resp := MapEnrollmentToResponse(&d.ClientWorkoutProgram)
	program, client := d.Program, d.Client
	resp.Program = &program
	resp.Client = &client
	return resp
}

func parseDateField(c *gin.Context, field, value string) (time.Time, bool) {
	t, err := domain.ParseDate(value)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, field+": "+err.Error())
		return time.Time{}, false
	}
	return t, true
}

// --- Handler Methods ---

// AssignWorkout godoc
// @Summary Schedule a workout for a client
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param assignment body AssignWorkoutRequest true "Client, workout and date"
// @Success 201 {object} WorkoutAssignmentResponse
// @Failure 400 {object} gin.H "Validation, eligibility or duplicate"
// @Failure 403 {object} gin.H "Client is not managed by the caller"
// @Failure 404 {object} gin.H "Client or workout not found"
// @Router /assignments/workouts [post]
func (h *AssignmentHandler) AssignWorkout(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	var req AssignWorkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "validation error: "+err.Error())
		return
	}
	clientID, ok := bodyID(c, "clientId", req.ClientID)
	if !ok {
		return
	}
	workoutID, ok := bodyID(c, "workoutId", req.WorkoutID)
	if !ok {
		return
	}
	date, ok := parseDateField(c, "scheduledDate", req.ScheduledDate)
	if !ok {
		return
	}

	details, err := h.assignmentService.AssignWorkout(c.Request.Context(), caller, service.AssignWorkoutInput{
		ClientID:      clientID,
		WorkoutID:     workoutID,
		ScheduledDate: date,
		Notes:         req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.metrics.CounterAssignments.With(prometheus.Labels{"kind": "workout"}).Inc()
	c.JSON(http.StatusCreated, MapWorkoutAssignmentToResponse(details))
}

// AssignProgram godoc
// @Summary Enroll a client in a program starting on a date
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param enrollment body AssignProgramRequest true "Client, program and start date"
// @Success 201 {object} ProgramAssignmentResponse
// @Router /assignments/programs [post]
func (h *AssignmentHandler) AssignProgram(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	var req AssignProgramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "validation error: "+err.Error())
		return
	}
	clientID, ok := bodyID(c, "clientId", req.ClientID)
	if !ok {
		return
	}
	programID, ok := bodyID(c, "programId", req.ProgramID)
	if !ok {
		return
	}
	start, ok := parseDateField(c, "startDate", req.StartDate)
	if !ok {
		return
	}

	details, err := h.assignmentService.AssignProgram(c.Request.Context(), caller, service.AssignProgramInput{
		ClientID:  clientID,
		ProgramID: programID,
		StartDate: start,
		Notes:     req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.metrics.CounterAssignments.With(prometheus.Labels{"kind": "program"}).Inc()
	c.JSON(http.StatusCreated, MapProgramAssignmentToResponse(details))
}

// UpdateAssignmentStatus godoc
// @Summary Move an assignment through its lifecycle
// @Description Clients may update their own assignments; trainers those of their clients.
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param status body UpdateStatusRequest true "New status"
// @Success 200 {object} WorkoutAssignmentResponse
// @Router /assignments/workouts/{id}/status [patch]
func (h *AssignmentHandler) UpdateAssignmentStatus(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "validation error: "+err.Error())
		return
	}
	status, err := domain.ParseAssignmentStatus(req.Status)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	cw, err := h.assignmentService.UpdateAssignmentStatus(c.Request.Context(), caller, id, status)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapClientWorkoutToResponse(cw))
}

func (h *AssignmentHandler) Unassign(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.assignmentService.Unassign(c.Request.Context(), caller, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AssignmentHandler) UnassignProgram(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.assignmentService.UnassignProgram(c.Request.Context(), caller, id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func dayParam(c *gin.Context) (int, bool) {
	day, err := strconv.Atoi(c.Param("day"))
	if err != nil {
		abortWithError(c, http.StatusBadRequest, "day must be a number")
		return 0, false
	}
	return day, true
}

// SetProgramDayOverride godoc
// @Summary Pin one program day to an explicit date
// @Tags Assignments
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param override body DayOverrideRequest true "Date for the day"
// @Success 200 {object} ProgramAssignmentResponse
// @Router /assignments/programs/{id}/days/{day} [put]
func (h *AssignmentHandler) SetProgramDayOverride(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	day, ok := dayParam(c)
	if !ok {
		return
	}
	var req DayOverrideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "validation error: "+err.Error())
		return
	}
	date, ok := parseDateField(c, "scheduledDate", req.ScheduledDate)
	if !ok {
		return
	}

	enrollment, err := h.assignmentService.SetProgramDayOverride(c.Request.Context(), caller, id, day, date)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapEnrollmentToResponse(enrollment))
}

func (h *AssignmentHandler) ClearProgramDayOverride(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	day, ok := dayParam(c)
	if !ok {
		return
	}

	enrollment, err := h.assignmentService.ClearProgramDayOverride(c.Request.Context(), caller, id, day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MapEnrollmentToResponse(enrollment))
}

// ListClientAssignments godoc
// @Summary List a client's workout assignments and program enrollments
// @Tags Clients
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ClientAssignmentsResponse
// @Router /clients/{id}/assignments [get]
func (h *AssignmentHandler) ListClientAssignments(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	id, ok := pathID(c, "id")
	if !ok {
		return
	}

	list, err := h.assignmentService.ListClientAssignments(c.Request.Context(), caller, id)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := ClientAssignmentsResponse{
		Client:   list.Client,
		Workouts: make([]WorkoutAssignmentResponse, len(list.Workouts)),
		Programs: make([]ProgramAssignmentResponse, len(list.Programs)),
	}
	for i := range list.Workouts {
		resp.Workouts[i] = MapWorkoutAssignmentToResponse(&list.Workouts[i])
	}
	for i := range list.Programs {
		resp.Programs[i] = MapProgramAssignmentToResponse(&list.Programs[i])
	}
	c.JSON(http.StatusOK, resp)
}
