package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/services"
)

type HabitHandler struct {
	svc   *services.HabitService
	stats *services.StatsService
	now   func() time.Time
}

func NewHabitHandler(svc *services.HabitService, stats *services.StatsService) *HabitHandler {
	return &HabitHandler{
		svc:   svc,
		stats: stats,
		now:   time.Now,
	}
}

type createHabitRequest struct {
	Name           string            `json:"name" binding:"required"`
	Description    string            `json:"description"`
	Color          string            `json:"color"`
	Type           string            `json:"type"`
	Categories     []domain.Category `json:"categories"`
	FrequencyType  string            `json:"frequency_type"`
	SelectedDays   []string          `json:"selected_days"`
	TimesPerPeriod int               `json:"times_per_period"`
	PeriodUnit     string            `json:"period_unit"`
	RepeatDays     int               `json:"repeat_days"`
}

type updateHabitRequest struct {
	Name           string            `json:"name"`
	Description    string            `json:"description"`
	Color          string            `json:"color"`
	Type           string            `json:"type"`
	Categories     []domain.Category `json:"categories"`
	FrequencyType  string            `json:"frequency_type"`
	SelectedDays   []string          `json:"selected_days"`
	TimesPerPeriod int               `json:"times_per_period"`
	PeriodUnit     string            `json:"period_unit"`
	RepeatDays     int               `json:"repeat_days"`
}

type reorderRequest struct {
	IDs []int64 `json:"ids" binding:"required"`
}

type completionRequest struct {
	State domain.Completion `json:"state"`
}

func (h *HabitHandler) RegisterRoutes(router *gin.RouterGroup) {
	habits := router.Group("/habits")
	{
		habits.POST("", h.Create)
		habits.GET("", h.List)
		habits.PUT("/order", h.Reorder)
		habits.POST("/import", h.Import)
		habits.GET("/:id", h.Get)
		habits.PUT("/:id", h.Update)
		habits.DELETE("/:id", h.Delete)
		habits.PUT("/:id/completions/:date", h.SetCompletion)
		habits.POST("/:id/completions/:date/toggle", h.ToggleCompletion)
		habits.GET("/:id/stats", h.Stats)
	}
}

func (h *HabitHandler) Create(c *gin.Context) {
	var req createHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	habit, err := h.svc.Create(c.Request.Context(), services.CreateHabitInput{
		Name:           req.Name,
		Description:    req.Description,
		Color:          req.Color,
		Type:           req.Type,
		Categories:     req.Categories,
		FrequencyType:  req.FrequencyType,
		SelectedDays:   req.SelectedDays,
		TimesPerPeriod: req.TimesPerPeriod,
		PeriodUnit:     req.PeriodUnit,
		RepeatDays:     req.RepeatDays,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, habit)
}

func (h *HabitHandler) List(c *gin.Context) {
	list, err := h.svc.List(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}

	if list == nil {
		list = []*domain.Habit{}
	}
	c.JSON(http.StatusOK, list)
}

func (h *HabitHandler) Get(c *gin.Context) {
	id, ok := habitIDParam(c)
	if !ok {
		return
	}

	habit, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) Update(c *gin.Context) {
	id, ok := habitIDParam(c)
	if !ok {
		return
	}

	var req updateHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	habit, err := h.svc.Update(c.Request.Context(), services.UpdateHabitInput{
		ID:             id,
		Name:           req.Name,
		Description:    req.Description,
		Color:          req.Color,
		Type:           req.Type,
		Categories:     req.Categories,
		FrequencyType:  req.FrequencyType,
		SelectedDays:   req.SelectedDays,
		TimesPerPeriod: req.TimesPerPeriod,
		PeriodUnit:     req.PeriodUnit,
		RepeatDays:     req.RepeatDays,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) Delete(c *gin.Context) {
	id, ok := habitIDParam(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *HabitHandler) Reorder(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	sorted, err := h.svc.Reorder(c.Request.Context(), req.IDs)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sorted)
}

func (h *HabitHandler) Import(c *gin.Context) {
	// Exports carry no binding tags; decode directly so null records reach
	// the service and fail there with a 400.
	var habits []*domain.Habit
	if err := json.NewDecoder(c.Request.Body).Decode(&habits); err != nil {
		badRequest(c, err.Error())
		return
	}

	n, err := h.svc.Import(c.Request.Context(), habits)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"imported": n})
}

func (h *HabitHandler) completionDay(c *gin.Context) (int64, time.Time, bool) {
	id, ok := habitIDParam(c)
	if !ok {
		return 0, time.Time{}, false
	}
	// The path segment is mandatory, so "today" never applies here.
	day, err := domain.ParseDateKey(c.Param("date"), h.stats.Location())
	if err != nil {
		badRequest(c, "invalid date format, expected YYYY-MM-DD")
		return 0, time.Time{}, false
	}
	return id, day, true
}

func (h *HabitHandler) SetCompletion(c *gin.Context) {
	id, day, ok := h.completionDay(c)
	if !ok {
		return
	}

	var req completionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	habit, err := h.svc.SetCompletion(c.Request.Context(), id, day, req.State)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, habit)
}

func (h *HabitHandler) ToggleCompletion(c *gin.Context) {
	id, day, ok := h.completionDay(c)
	if !ok {
		return
	}

	habit, err := h.svc.ToggleCompletion(c.Request.Context(), id, day)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"habit": habit,
		"state": habit.CompletionOn(day),
	})
}

func (h *HabitHandler) Stats(c *gin.Context) {
	id, ok := habitIDParam(c)
	if !ok {
		return
	}

	asOf, ok := dateValue(c, c.Query("as_of"), h.stats.Location(), h.now())
	if !ok {
		return
	}

	stats, err := h.stats.HabitStats(c.Request.Context(), id, asOf)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}
