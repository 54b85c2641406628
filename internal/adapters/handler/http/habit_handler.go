package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

type HabitHandler struct {
	registry *services.Registry
}

func NewHabitHandler(registry *services.Registry) *HabitHandler {
	return &HabitHandler{
		registry: registry,
	}
}

type createHabitRequest struct {
	Name    string `json:"name" binding:"required"`
	GoalMin int    `json:"goal_min"`
	GoalMax int    `json:"goal_max"`
}

type editHabitRequest struct {
	Name    *string `json:"name"`
	GoalMin *int    `json:"goal_min"`
	GoalMax *int    `json:"goal_max"`
}

type progressRequest struct {
	Value *int `json:"value" binding:"required"`
}

type habitResponse struct {
	domain.Habit
	Status     domain.GoalStatus `json:"status"`
	Percentage float64           `json:"percentage"`
}

type snapshotResponse struct {
	Habits      []habitResponse `json:"habits"`
	BasicHabits []habitResponse `json:"basicHabits"`
}

func toHabitResponse(h domain.Habit) habitResponse {
	return habitResponse{
		Habit:      h,
		Status:     h.Status(),
		Percentage: domain.Percentage(h.Progress, h.Goal),
	}
}

func toHabitResponses(habits []domain.Habit) []habitResponse {
	out := make([]habitResponse, len(habits))
	for i, h := range habits {
		out[i] = toHabitResponse(h)
	}
	return out
}

func (h *HabitHandler) RegisterRoutes(router *gin.RouterGroup) {
	habits := router.Group("/habits")
	{
		habits.GET("", h.List)
		habits.POST("", h.Create)
		habits.PATCH("/:name", h.Edit)
		habits.DELETE("/:name", h.Delete)
		habits.PUT("/:name/progress", h.RecordProgress)
		habits.GET("/:name/history", h.History)
	}
}

func (h *HabitHandler) List(c *gin.Context) {
	ns, ok := namespaceOf(c)
	if !ok {
		return
	}

	var snap services.Snapshot
	err := h.registry.With(c.Request.Context(), ns, func(r *services.HabitRepository) error {
		snap = r.Snapshot()
		return nil
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, snapshotResponse{
		Habits:      toHabitResponses(snap.Habits),
		BasicHabits: toHabitResponses(snap.BasicHabits),
	})
}

func (h *HabitHandler) Create(c *gin.Context) {
	ns, ok := namespaceOf(c)
	if !ok {
		return
	}

	var req createHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var habit *domain.Habit
	err := h.registry.With(c.Request.Context(), ns, func(r *services.HabitRepository) error {
		var err error
		habit, err = r.Add(c.Request.Context(), req.Name, req.GoalMin, req.GoalMax)
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, toHabitResponse(*habit))
}

func (h *HabitHandler) Edit(c *gin.Context) {
	ns, ok := namespaceOf(c)
	if !ok {
		return
	}

	var req editHabitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	input := services.EditHabitInput{
		Name:    req.Name,
		GoalMin: req.GoalMin,
		GoalMax: req.GoalMax,
	}

	var habit *domain.Habit
	err := h.registry.With(c.Request.Context(), ns, func(r *services.HabitRepository) error {
		var err error
		habit, err = r.Edit(c.Request.Context(), c.Param("name"), input)
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toHabitResponse(*habit))
}

func (h *HabitHandler) Delete(c *gin.Context) {
	ns, ok := namespaceOf(c)
	if !ok {
		return
	}

	err := h.registry.With(c.Request.Context(), ns, func(r *services.HabitRepository) error {
		return r.Remove(c.Request.Context(), c.Param("name"))
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *HabitHandler) RecordProgress(c *gin.Context) {
	ns, ok := namespaceOf(c)
	if !ok {
		return
	}

	var req progressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var habit *domain.Habit
	err := h.registry.With(c.Request.Context(), ns, func(r *services.HabitRepository) error {
		var err error
		habit, err = r.RecordProgress(c.Request.Context(), c.Param("name"), *req.Value)
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toHabitResponse(*habit))
}

func (h *HabitHandler) History(c *gin.Context) {
	ns, ok := namespaceOf(c)
	if !ok {
		return
	}

	var entries []domain.ProgressEntry
	err := h.registry.With(c.Request.Context(), ns, func(r *services.HabitRepository) error {
		var err error
		entries, err = r.History(c.Request.Context(), c.Param("name"))
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"entries": entries})
}
