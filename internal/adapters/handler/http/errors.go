package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/services"
)

var badRequestErrors = []error{
	domain.ErrHabitNameEmpty,
	domain.ErrHabitNameTooLong,
	domain.ErrHabitDescTooLong,
	domain.ErrInvalidColor,
	domain.ErrInvalidHabitType,
	domain.ErrInvalidFrequency,
	domain.ErrInvalidWeekdays,
	domain.ErrInvalidPeriod,
	domain.ErrInvalidCategory,
	domain.ErrInvalidOrder,
	domain.ErrInvalidHabit,
	domain.ErrInvalidDateKey,
	domain.ErrInvalidCompletion,
	domain.ErrDuplicateCategory,
	services.ErrInvalidMonth,
}

// respondError maps sentinel errors to status codes. Anything unknown is a
// 500 whose cause is attached to the context for the request logger.
func respondError(c *gin.Context, err error) {
	for _, target := range badRequestErrors {
		if errors.Is(err, target) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	switch {
	case errors.Is(err, domain.ErrHabitNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "habit not found"})
	case errors.Is(err, domain.ErrHabitConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "habit already exists"})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

func badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, gin.H{"error": msg})
}
