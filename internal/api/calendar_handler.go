package api

import (
	"alcyxob/fitness-scheduler/internal/calendar"
	"alcyxob/fitness-scheduler/internal/metrics"
	"alcyxob/fitness-scheduler/internal/service"
	"net/http"

	"github.com/gin-gonic/gin"
)

type CalendarHandler struct {
	calendarService service.CalendarService
	metrics         *metrics.Manager
}

func NewCalendarHandler(calendarService service.CalendarService, m *metrics.Manager) *CalendarHandler {
	return &CalendarHandler{calendarService: calendarService, metrics: m}
}

type CalendarResponse struct {
	ClientID string         `json:"clientId"`
	From     string         `json:"from,omitempty"`
	To       string         `json:"to,omitempty"`
	Days     []calendar.Day `json:"days"`
}

// GetCalendar godoc
// @Summary Project a client's calendar
// @Description Groups single workouts and program days by date. The range is inclusive and optional on both ends.
// @Tags Clients
// @Produce json
// @Security BearerAuth
// @Param from query string false "First date (YYYY-MM-DD)"
// @Param to query string false "Last date (YYYY-MM-DD)"
// @Success 200 {object} CalendarResponse
// @Router /clients/{id}/calendar [get]
func (h *CalendarHandler) GetCalendar(c *gin.Context) {
	caller, ok := getCaller(c)
	if !ok {
		return
	}
	clientID, ok := pathID(c, "id")
	if !ok {
		return
	}

	var window calendar.Range
	if raw := c.Query("from"); raw != "" {
		if window.From, ok = parseDateField(c, "from", raw); !ok {
			return
		}
	}
	if raw := c.Query("to"); raw != "" {
		if window.To, ok = parseDateField(c, "to", raw); !ok {
			return
		}
	}

	days, err := h.calendarService.Calendar(c.Request.Context(), caller, clientID, window)
	if err != nil {
		respondError(c, err)
		return
	}
	h.metrics.CounterProjections.Inc()

	resp := CalendarResponse{ClientID: clientID.Hex(), Days: days}
	if !window.From.IsZero() {
		resp.From = c.Query("from")
	}
	if !window.To.IsZero() {
		resp.To = c.Query("to")
	}
	if resp.Days == nil {
		resp.Days = []calendar.Day{}
	}
	c.JSON(http.StatusOK, resp)
}
