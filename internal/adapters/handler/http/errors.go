package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habits/internal/adapters/handler/http/middleware"
	"github.com/comitanigiacomo/kanso-habits/internal/core/domain"
)

// writeError maps core errors onto status codes. Order matters: a taken name
// is also a validation error.
func writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrHabitNameTaken), errors.Is(err, domain.ErrProfileExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrHabitNotFound), errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrHabitNotDeletable):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func namespaceOf(c *gin.Context) (string, bool) {
	ns, ok := middleware.GetNamespace(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "namespace context missing"})
	}
	return ns, ok
}
