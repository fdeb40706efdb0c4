package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/services"
)

// CalendarHandler serves the dashboard's day, week, month and year views.
type CalendarHandler struct {
	svc *services.StatsService
	now func() time.Time
}

func NewCalendarHandler(svc *services.StatsService) *CalendarHandler {
	return &CalendarHandler{svc: svc, now: time.Now}
}

func (h *CalendarHandler) RegisterRoutes(r *gin.RouterGroup) {
	calendar := r.Group("/calendar")
	{
		calendar.GET("/day", h.Day)
		calendar.GET("/week", h.Week)
		calendar.GET("/month", h.Month)
		calendar.GET("/year", h.Year)
	}
	r.GET("/agenda", h.Agenda)
}

func (h *CalendarHandler) date(c *gin.Context) (time.Time, bool) {
	return dateValue(c, c.Query("date"), h.svc.Location(), h.now())
}

func (h *CalendarHandler) Day(c *gin.Context) {
	d, ok := h.date(c)
	if !ok {
		return
	}

	stat, err := h.svc.Day(c.Request.Context(), d)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stat)
}

func (h *CalendarHandler) Week(c *gin.Context) {
	d, ok := h.date(c)
	if !ok {
		return
	}

	view, err := h.svc.Week(c.Request.Context(), d)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CalendarHandler) Month(c *gin.Context) {
	today := h.now().In(h.svc.Location())

	year, ok := intQuery(c, "year", today.Year())
	if !ok {
		return
	}
	month, ok := intQuery(c, "month", int(today.Month()))
	if !ok {
		return
	}

	view, err := h.svc.Month(c.Request.Context(), year, time.Month(month))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CalendarHandler) Year(c *gin.Context) {
	year, ok := intQuery(c, "year", h.now().In(h.svc.Location()).Year())
	if !ok {
		return
	}

	view, err := h.svc.Year(c.Request.Context(), year)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *CalendarHandler) Agenda(c *gin.Context) {
	d, ok := h.date(c)
	if !ok {
		return
	}

	agenda, err := h.svc.Agenda(c.Request.Context(), d)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, agenda)
}
