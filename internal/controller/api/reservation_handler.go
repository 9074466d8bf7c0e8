package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/Freeeeeet/uniquip/internal/model"
	"github.com/Freeeeeet/uniquip/internal/service"
)

func (h *Handler) Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// EquipmentAvailability GET /api/equipment-availability/?equipment_id=&start_time=
func (h *Handler) EquipmentAvailability(c echo.Context) error {
	rawID := c.QueryParam("equipment_id")
	rawStart := c.QueryParam("start_time")
	if rawID == "" || rawStart == "" {
		return badRequest("equipment_id and start_time are required")
	}

	equipmentID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil || equipmentID <= 0 {
		return badRequest("equipment_id must be a positive integer")
	}
	day, ok := parseDate(rawStart, h.location)
	if !ok {
		return badRequest("start_time must be a date or date-time")
	}

	slots, err := h.availability.Available(c.Request().Context(), equipmentID, day)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, slots)
}

type createReservationRequest struct {
	Day         string   `json:"Day"`
	TimeSlots   []string `json:"TimeSlots"`
	EquipmentID int64    `json:"EquipmentId"`
	NetID       string   `json:"NetId"`
}

// CreateReservation POST /api/reservations/create/
func (h *Handler) CreateReservation(c echo.Context) error {
	var req createReservationRequest
	if err := c.Bind(&req); err != nil {
		return badRequest("invalid request body")
	}

	day, ok := parseDate(req.Day, h.location)
	if !ok {
		return badRequest("Day must be a date (YYYY-MM-DD)")
	}

	created, err := h.reservations.Create(c.Request().Context(), service.CreateReservationInput{
		EquipmentID: req.EquipmentID,
		NetID:       req.NetID,
		Day:         day,
		TimeSlots:   req.TimeSlots,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, created)
}

// DeleteReservation DELETE /api/reservations/delete/:id/
func (h *Handler) DeleteReservation(c echo.Context) error {
	id, err := pathID(c, "reservation")
	if err != nil {
		return err
	}
	if err := h.lifecycle.Delete(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ApproveReservation PATCH /api/reservations/approve/:id/
func (h *Handler) ApproveReservation(c echo.Context) error {
	id, err := pathID(c, "reservation")
	if err != nil {
		return err
	}
	if err := h.lifecycle.Approve(c.Request().Context(), id); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": "Reservation approved"})
}

// ListReservations GET /api/reservations/
func (h *Handler) ListReservations(c echo.Context) error {
	var (
		f   model.ReservationFilter
		err error
	)
	if f.StartFrom, err = h.queryDate(c, "start_date"); err != nil {
		return err
	}
	if f.EndBefore, err = h.queryDate(c, "end_date"); err != nil {
		return err
	}
	if raw := c.QueryParam("equipment_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return badRequest("equipment_id must be an integer")
		}
		f.EquipmentID = &id
	}
	f.NetID = c.QueryParam("net_id")
	if f.Page, err = queryInt(c, "page"); err != nil {
		return err
	}
	if f.PageSize, err = queryInt(c, "page_size"); err != nil {
		return err
	}

	page, err := h.catalog.ListReservations(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, page)
}

// FacultyPendingReservations GET /api/reservations/faculty/:id/
func (h *Handler) FacultyPendingReservations(c echo.Context) error {
	id, err := pathID(c, "faculty")
	if err != nil {
		return err
	}
	items, err := h.catalog.ListFacultyPending(c.Request().Context(), id)
	if err != nil {
		return err
	}
	if items == nil {
		items = []*model.FacultyReservation{}
	}
	return c.JSON(http.StatusOK, items)
}
