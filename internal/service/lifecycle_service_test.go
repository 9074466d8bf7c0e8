package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Freeeeeet/uniquip/internal/apperror"
	"github.com/Freeeeeet/uniquip/internal/model"
)

func TestApprove(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.AddReservation(model.Reservation{ID: 1, EquipmentID: approvalEquipmentID, NetID: "abc123", StartTime: at(9), EndTime: at(10), Status: model.ReservationStatusApprovalRequired})
	f.store.AddReservation(model.Reservation{ID: 2, EquipmentID: openEquipmentID, NetID: "abc123", StartTime: at(9), EndTime: at(10), Status: model.ReservationStatusReserved})
	f.store.AddReservation(model.Reservation{ID: 3, EquipmentID: openEquipmentID, NetID: "abc123", StartTime: at(11), EndTime: at(12), Status: model.ReservationStatusCancelled})

	require.NoError(t, f.lifecycle.Approve(ctx, 1))
	res, ok := f.store.Reservation(1)
	require.True(t, ok)
	assert.Equal(t, model.ReservationStatusReserved, res.Status)

	t.Run("already reserved", func(t *testing.T) {
		err := f.lifecycle.Approve(ctx, 2)
		assert.Equal(t, apperror.KindInvalidState, apperror.KindOf(err))
		assert.True(t, errors.Is(err, apperror.ErrNotPendingApproval))
	})

	t.Run("approving twice", func(t *testing.T) {
		err := f.lifecycle.Approve(ctx, 1)
		assert.True(t, errors.Is(err, apperror.ErrNotPendingApproval))
	})

	t.Run("cancelled", func(t *testing.T) {
		err := f.lifecycle.Approve(ctx, 3)
		assert.Equal(t, apperror.KindInvalidState, apperror.KindOf(err))
		res, _ := f.store.Reservation(3)
		assert.Equal(t, model.ReservationStatusCancelled, res.Status)
	})

	t.Run("missing", func(t *testing.T) {
		err := f.lifecycle.Approve(ctx, 404)
		assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
		assert.True(t, errors.Is(err, apperror.ErrReservationNotFound))
	})

	t.Run("invalid id", func(t *testing.T) {
		err := f.lifecycle.Approve(ctx, 0)
		assert.Equal(t, apperror.KindInvalidRequest, apperror.KindOf(err))
	})
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.store.AddReservation(model.Reservation{ID: 5, EquipmentID: openEquipmentID, NetID: "abc123", StartTime: at(9), EndTime: at(10), Status: model.ReservationStatusCancelled})

	require.NoError(t, f.lifecycle.Delete(ctx, 5))
	_, ok := f.store.Reservation(5)
	assert.False(t, ok)
	assert.Equal(t, []int64{openEquipmentID}, f.cache.invalidated)

	err := f.lifecycle.Delete(ctx, 5)
	assert.True(t, errors.Is(err, apperror.ErrReservationNotFound))
}

func TestToggleReservability(t *testing.T) {
	f := newFixture(t)
	now := at(12)
	f.lifecycle.now = func() time.Time { return now }

	f.store.AddReservation(model.Reservation{ID: 1, EquipmentID: openEquipmentID, NetID: "abc123", StartTime: at(9), EndTime: at(10), Status: model.ReservationStatusReserved})
	f.store.AddReservation(model.Reservation{ID: 2, EquipmentID: openEquipmentID, NetID: "abc123", StartTime: at(14), EndTime: at(15), Status: model.ReservationStatusReserved})
	f.store.AddReservation(model.Reservation{ID: 3, EquipmentID: openEquipmentID, NetID: "xyz789", StartTime: at(30), EndTime: at(32), Status: model.ReservationStatusApprovalRequired})
	f.store.AddReservation(model.Reservation{ID: 4, EquipmentID: approvalEquipmentID, NetID: "xyz789", StartTime: at(14), EndTime: at(15), Status: model.ReservationStatusApprovalRequired})

	cancelled, err := f.lifecycle.ToggleReservability(context.Background(), openEquipmentID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), cancelled)

	e, _ := f.store.EquipmentByID(openEquipmentID)
	assert.False(t, e.IsReservable)

	want := map[int64]model.ReservationStatus{
		1: model.ReservationStatusReserved,
		2: model.ReservationStatusCancelled,
		3: model.ReservationStatusCancelled,
		4: model.ReservationStatusApprovalRequired,
	}
	for _, r := range f.store.Reservations() {
		assert.Equal(t, want[r.ID], r.Status, "reservation %d", r.ID)
	}

	assert.Equal(t, []int64{openEquipmentID}, f.cache.invalidated)
	assert.Equal(t, []string{"equipment reservability disabled"}, f.recorder.messages())

	again, err := f.lifecycle.ToggleReservability(context.Background(), openEquipmentID)
	require.NoError(t, err)
	assert.Zero(t, again)

	// Новые брони на выключенное оборудование не принимаются
	_, err = f.reservation.Create(context.Background(), CreateReservationInput{EquipmentID: openEquipmentID, NetID: "abc123", Day: testDay, TimeSlots: []string{"16:00:00"}})
	assert.True(t, errors.Is(err, apperror.ErrNotReservable))
}

func TestToggleReservabilityIsAtomic(t *testing.T) {
	f := newFixture(t)
	f.lifecycle.now = func() time.Time { return at(0) }
	f.store.AddReservation(model.Reservation{ID: 1, EquipmentID: openEquipmentID, NetID: "abc123", StartTime: at(9), EndTime: at(10), Status: model.ReservationStatusReserved})
	f.store.FailOn("CancelFuture", 0, errors.New("statement timeout"))

	_, err := f.lifecycle.ToggleReservability(context.Background(), openEquipmentID)
	require.Error(t, err)
	assert.Equal(t, apperror.KindStorage, apperror.KindOf(err))

	e, _ := f.store.EquipmentByID(openEquipmentID)
	assert.True(t, e.IsReservable)
	res, _ := f.store.Reservation(1)
	assert.Equal(t, model.ReservationStatusReserved, res.Status)
	assert.Empty(t, f.cache.invalidated)
}

func TestToggleReservabilityUnknownEquipment(t *testing.T) {
	f := newFixture(t)

	_, err := f.lifecycle.ToggleReservability(context.Background(), 404)
	assert.True(t, errors.Is(err, apperror.ErrEquipmentNotFound))
}

func TestSetApprovalRequired(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	e, err := f.lifecycle.SetApprovalRequired(ctx, openEquipmentID, true)
	require.NoError(t, err)
	assert.True(t, e.ApprovalRequired)

	created, err := f.reservation.Create(ctx, CreateReservationInput{EquipmentID: openEquipmentID, NetID: "abc123", Day: testDay, TimeSlots: []string{"09:00:00"}})
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStatusApprovalRequired, created[0].Status)

	_, err = f.lifecycle.SetApprovalRequired(ctx, 404, true)
	assert.True(t, errors.Is(err, apperror.ErrEquipmentNotFound))
}
