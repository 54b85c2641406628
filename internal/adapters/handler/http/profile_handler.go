package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habits/internal/core/services"
)

type ProfileHandler struct {
	service  *services.ProfileService
	registry *services.Registry
}

func NewProfileHandler(service *services.ProfileService, registry *services.Registry) *ProfileHandler {
	return &ProfileHandler{
		service:  service,
		registry: registry,
	}
}

type profileRequest struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required"`
}

func (h *ProfileHandler) RegisterRoutes(router *gin.RouterGroup) {
	profile := router.Group("/profile")
	{
		profile.POST("", h.Register)
		profile.GET("", h.Get)
		profile.PUT("", h.Update)
		profile.DELETE("", h.Reset)
	}
}

func (h *ProfileHandler) Register(c *gin.Context) {
	ns, ok := namespaceOf(c)
	if !ok {
		return
	}

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user *domain.User
	err := h.registry.Exclusive(ns, func() error {
		var err error
		user, err = h.service.Register(c.Request.Context(), services.ProfileInput{
			Namespace: ns,
			Name:      req.Name,
			Email:     req.Email,
		})
		return err
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

func (h *ProfileHandler) Get(c *gin.Context) {
	ns, ok := namespaceOf(c)
	if !ok {
		return
	}

	user, err := h.service.Get(c.Request.Context(), ns)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *ProfileHandler) Update(c *gin.Context) {
	ns, ok := namespaceOf(c)
	if !ok {
		return
	}

	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.service.Update(c.Request.Context(), services.ProfileInput{
		Namespace: ns,
		Name:      req.Name,
		Email:     req.Email,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *ProfileHandler) Reset(c *gin.Context) {
	ns, ok := namespaceOf(c)
	if !ok {
		return
	}

	err := h.registry.Exclusive(ns, func() error {
		return h.service.Reset(c.Request.Context(), ns)
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
