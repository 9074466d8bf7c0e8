// Package api HTTP-адаптер над сервисами бронирования на echo
package api

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/Freeeeeet/uniquip/internal/model"
	"github.com/Freeeeeet/uniquip/internal/service"
)

type AvailabilityService interface {
	Available(ctx context.Context, equipmentID int64, date time.Time) ([]model.AvailableSlot, error)
}

type ReservationService interface {
	Create(ctx context.Context, in service.CreateReservationInput) ([]*model.Reservation, error)
}

type LifecycleService interface {
	Approve(ctx context.Context, reservationID int64) error
	Delete(ctx context.Context, reservationID int64) error
	ToggleReservability(ctx context.Context, equipmentID int64) (int64, error)
	SetApprovalRequired(ctx context.Context, equipmentID int64, required bool) (*model.Equipment, error)
}

type CatalogService interface {
	ListEquipment(ctx context.Context, f model.EquipmentFilter) (*model.EquipmentPage, error)
	ListCourseCodes(ctx context.Context, netID string) ([]string, error)
	ListReservations(ctx context.Context, f model.ReservationFilter) (*model.ReservationPage, error)
	ListFacultyPending(ctx context.Context, facultyID int64) ([]*model.FacultyReservation, error)
	ListFacultyEquipment(ctx context.Context, facultyID int64) ([]*model.FacultyEquipment, error)
	UsageReport(ctx context.Context, from, to time.Time) ([]*model.UsageReportRow, error)
	CourseLoad(ctx context.Context, from, to time.Time) ([]*model.CourseLoadRow, error)
}

// Handler обработчики HTTP. Даты без часового пояса читаются в поясе
// лабораторий.
type Handler struct {
	availability AvailabilityService
	reservations ReservationService
	lifecycle    LifecycleService
	catalog      CatalogService
	location     *time.Location
	logger       *zap.Logger
}

func NewHandler(
	availability AvailabilityService,
	reservations ReservationService,
	lifecycle LifecycleService,
	catalog CatalogService,
	location *time.Location,
	logger *zap.Logger,
) *Handler {
	if location == nil {
		location = time.UTC
	}
	return &Handler{
		availability: availability,
		reservations: reservations,
		lifecycle:    lifecycle,
		catalog:      catalog,
		location:     location,
		logger:       logger,
	}
}

// NewServer собирает echo с middleware и маршрутами
func NewServer(h *Handler, requestTimeout time.Duration, logger *zap.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(
		TraceID(),
		RequestLogger(logger),
		Recover(logger),
		Timeout(requestTimeout),
	)

	RegisterRoutes(e, h)
	return e
}

// RegisterRoutes пути повторяют API веб-клиента
func RegisterRoutes(e *echo.Echo, h *Handler) {
	e.GET("/healthz", h.Health)

	g := e.Group("/api")

	// ---- Availability & reservations ----
	g.GET("/equipment-availability/", h.EquipmentAvailability)
	g.POST("/reservations/create/", h.CreateReservation)
	g.DELETE("/reservations/delete/:id/", h.DeleteReservation)
	g.PATCH("/reservations/approve/:id/", h.ApproveReservation)
	g.GET("/reservations/", h.ListReservations)
	g.GET("/reservations/faculty/:id/", h.FacultyPendingReservations)

	// ---- Equipment ----
	g.PATCH("/equipment/toggle-reservability/:id/", h.ToggleReservability)
	g.PATCH("/equipment/update/:id/", h.UpdateEquipment)
	g.GET("/equipments-list/", h.ListEquipment)
	g.GET("/equipments/filter-value", h.CourseFilterValues)
	g.GET("/equipments/faculty/:id/", h.FacultyEquipment)

	// ---- Reports ----
	g.GET("/equipment-usage-report/", h.UsageReport)
	g.GET("/courseload/", h.CourseLoad)
}
