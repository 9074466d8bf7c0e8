package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/uniquip/internal/model"
	"github.com/Freeeeeet/uniquip/internal/repository/base"
)

// reservationAllocationLockKey ключ pg_advisory_xact_lock для выдачи ID броней
const reservationAllocationLockKey int64 = 0x756e_6971_7569_70

type ReservationRepository struct {
	*base.Repository
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{Repository: base.NewRepository(pool)}
}

const reservationColumns = `reservation_id, equipment_id, net_id, start_time, end_time, status`

func scanReservation(row interface{ Scan(dest ...any) error }) (*model.Reservation, error) {
	var res model.Reservation
	err := row.Scan(&res.ID, &res.EquipmentID, &res.NetID, &res.StartTime, &res.EndTime, &res.Status)
	if err != nil {
		return nil, err
	}
	return &res, nil
}

// LockAllocation берёт транзакционный advisory lock на выдачу ID.
// Вне транзакции блокировка снимается сразу после запроса.
func (r *ReservationRepository) LockAllocation(ctx context.Context) error {
	_, err := r.Conn(ctx).Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, reservationAllocationLockKey)
	if err != nil {
		return fmt.Errorf("lock reservation allocation: %w", err)
	}
	return nil
}

// NextID возвращает MAX(id)+1
func (r *ReservationRepository) NextID(ctx context.Context) (int64, error) {
	var next int64
	err := r.QueryRow(ctx, `SELECT COALESCE(MAX(reservation_id), 0) + 1 FROM reservations`).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("next reservation id: %w", err)
	}
	return next, nil
}

// HasActiveOverlap проверяет есть ли активная бронь, пересекающая [start, end)
func (r *ReservationRepository) HasActiveOverlap(ctx context.Context, equipmentID int64, start, end time.Time) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM reservations
			WHERE equipment_id = $1
			  AND status <> 'Cancelled'
			  AND start_time < $3
			  AND end_time > $2
		)
	`

	var exists bool
	err := r.QueryRow(ctx, query, equipmentID, start, end).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check reservation overlap: %w", err)
	}
	return exists, nil
}

// Insert создаёт бронь с заранее назначенным ID
func (r *ReservationRepository) Insert(ctx context.Context, res *model.Reservation) error {
	query := `
		INSERT INTO reservations (reservation_id, equipment_id, net_id, start_time, end_time, status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.Conn(ctx).Exec(ctx, query,
		res.ID,
		res.EquipmentID,
		res.NetID,
		res.StartTime,
		res.EndTime,
		res.Status,
	)
	if err != nil {
		return fmt.Errorf("insert reservation: %w", err)
	}
	return nil
}

// GetByID получает бронь по ID
func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE reservation_id = $1`

	res, err := scanReservation(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get reservation by id: %w", err)
	}
	return res, nil
}

// ListActiveBetween получает активные брони оборудования, пересекающие [from, to)
func (r *ReservationRepository) ListActiveBetween(ctx context.Context, equipmentID int64, from, to time.Time) ([]*model.Reservation, error) {
	query := `
		SELECT ` + reservationColumns + `
		FROM reservations
		WHERE equipment_id = $1
		  AND status <> 'Cancelled'
		  AND start_time < $3
		  AND end_time > $2
		ORDER BY start_time
	`

	rows, err := r.Query(ctx, query, equipmentID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list active reservations: %w", err)
	}
	defer rows.Close()

	var reservations []*model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		reservations = append(reservations, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}

	return reservations, nil
}

// Approve переводит бронь из "Approval Required" в "Reserved".
// Возвращает false если строка с таким ID и статусом не найдена.
func (r *ReservationRepository) Approve(ctx context.Context, id int64) (bool, error) {
	query := `
		UPDATE reservations
		SET status = 'Reserved'
		WHERE reservation_id = $1 AND status = 'Approval Required'
	`

	affected, err := r.ExecAffected(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("approve reservation: %w", err)
	}
	return affected > 0, nil
}

// Delete удаляет бронь и возвращает удалённую строку (nil если не найдена)
func (r *ReservationRepository) Delete(ctx context.Context, id int64) (*model.Reservation, error) {
	query := `DELETE FROM reservations WHERE reservation_id = $1 RETURNING ` + reservationColumns

	res, err := scanReservation(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("delete reservation: %w", err)
	}
	return res, nil
}

// CancelFuture отменяет все неотменённые брони оборудования, начинающиеся
// строго после now
func (r *ReservationRepository) CancelFuture(ctx context.Context, equipmentID int64, now time.Time) (int64, error) {
	query := `
		UPDATE reservations
		SET status = 'Cancelled'
		WHERE equipment_id = $1 AND start_time > $2 AND status <> 'Cancelled'
	`

	affected, err := r.ExecAffected(ctx, query, equipmentID, now)
	if err != nil {
		return 0, fmt.Errorf("cancel future reservations: %w", err)
	}
	return affected, nil
}
