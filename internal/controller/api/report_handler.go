package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Freeeeeet/uniquip/internal/model"
)

// UsageReport GET /api/equipment-usage-report/?start_date=&end_date=
func (h *Handler) UsageReport(c echo.Context) error {
	from, err := h.queryDate(c, "start_date")
	if err != nil {
		return err
	}
	to, err := h.queryDate(c, "end_date")
	if err != nil {
		return err
	}
	if from == nil || to == nil {
		return badRequest("start_date and end_date are required")
	}

	rows, err := h.catalog.UsageReport(c.Request().Context(), *from, *to)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []*model.UsageReportRow{}
	}
	return c.JSON(http.StatusOK, rows)
}

// CourseLoad GET /api/courseload/?start_threshold=&end_threshold=
func (h *Handler) CourseLoad(c echo.Context) error {
	from, err := h.queryDate(c, "start_threshold")
	if err != nil {
		return err
	}
	to, err := h.queryDate(c, "end_threshold")
	if err != nil {
		return err
	}

	var fromT, toT time.Time
	if from != nil {
		fromT = *from
	}
	if to != nil {
		toT = *to
	}

	rows, err := h.catalog.CourseLoad(c.Request().Context(), fromT, toT)
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []*model.CourseLoadRow{}
	}
	return c.JSON(http.StatusOK, rows)
}
