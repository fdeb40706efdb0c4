package http

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/comitanigiacomo/kanso-habit-dashboard/internal/core/domain"
)

func habitIDParam(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		badRequest(c, "invalid habit id")
		return 0, false
	}
	return id, true
}

// dateValue parses a yyyy-MM-dd value in loc. An empty value means today.
func dateValue(c *gin.Context, raw string, loc *time.Location, now time.Time) (time.Time, bool) {
	if raw == "" {
		return domain.Midnight(now.In(loc)), true
	}
	t, err := domain.ParseDateKey(raw, loc)
	if err != nil {
		badRequest(c, "invalid date format, expected YYYY-MM-DD")
		return time.Time{}, false
	}
	return t, true
}

func intQuery(c *gin.Context, key string, fallback int) (int, bool) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		badRequest(c, "invalid "+key)
		return 0, false
	}
	return n, true
}
