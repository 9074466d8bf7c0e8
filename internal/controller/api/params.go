package api

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

var localLayouts = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
}

// parseDate понимает дату, дату-время и RFC3339. Момент с поясом
// переводится в пояс лабораторий.
func parseDate(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.In(loc), true
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func pathID(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, badRequest("invalid " + name + " id")
	}
	return id, nil
}

func queryInt(c echo.Context, key string) (int, error) {
	raw := c.QueryParam(key)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, badRequest(key + " must be an integer")
	}
	return n, nil
}

func (h *Handler) queryDate(c echo.Context, key string) (*time.Time, error) {
	raw := c.QueryParam(key)
	if raw == "" {
		return nil, nil
	}
	t, ok := parseDate(raw, h.location)
	if !ok {
		return nil, badRequest(key + " must be a date (YYYY-MM-DD)")
	}
	return &t, nil
}
