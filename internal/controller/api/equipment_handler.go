package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Freeeeeet/uniquip/internal/model"
)

// ToggleReservability PATCH /api/equipment/toggle-reservability/:id/
func (h *Handler) ToggleReservability(c echo.Context) error {
	id, err := pathID(c, "equipment")
	if err != nil {
		return err
	}

	cancelled, err := h.lifecycle.ToggleReservability(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":   "Equipment reservability toggled and future reservations cancelled",
		"cancelled": cancelled,
	})
}

type updateEquipmentRequest struct {
	ApprovalRequired *bool `json:"ApprovalRequired"`
}

// UpdateEquipment PATCH /api/equipment/update/:id/
func (h *Handler) UpdateEquipment(c echo.Context) error {
	id, err := pathID(c, "equipment")
	if err != nil {
		return err
	}

	var req updateEquipmentRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}
	if req.ApprovalRequired == nil {
		return badRequest("ApprovalRequired field is required")
	}

	equipment, err := h.lifecycle.SetApprovalRequired(c.Request().Context(), id, *req.ApprovalRequired)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, equipment)
}

// ListEquipment GET /api/equipments-list/
func (h *Handler) ListEquipment(c echo.Context) error {
	f := model.EquipmentFilter{
		NetID:         c.QueryParam("net_id"),
		CourseCode:    c.QueryParam("course_code"),
		NameSubstring: c.QueryParam("equipment_name"),
	}

	var err error
	if f.Page, err = queryInt(c, "page"); err != nil {
		return err
	}
	if f.PageSize, err = queryInt(c, "page_size"); err != nil {
		return err
	}

	page, err := h.catalog.ListEquipment(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// CourseFilterValues GET /api/equipments/filter-value?net_id=
func (h *Handler) CourseFilterValues(c echo.Context) error {
	codes, err := h.catalog.ListCourseCodes(c.Request().Context(), c.QueryParam("net_id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, codes)
}

// FacultyEquipment GET /api/equipments/faculty/:id/
func (h *Handler) FacultyEquipment(c echo.Context) error {
	id, err := pathID(c, "faculty")
	if err != nil {
		return err
	}
	items, err := h.catalog.ListFacultyEquipment(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*model.FacultyEquipment{}
	}
	return c.JSON(http.StatusOK, items)
}
