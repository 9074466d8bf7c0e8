package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/uniquip/internal/model"
	"github.com/Freeeeeet/uniquip/internal/repository/base"
)

type EquipmentRepository struct {
	*base.Repository
}

func NewEquipmentRepository(pool *pgxpool.Pool) *EquipmentRepository {
	return &EquipmentRepository{Repository: base.NewRepository(pool)}
}

const equipmentColumns = `equipment_id, lab_id, equipment_name, category, is_reservable, approval_required`

func scanEquipment(row interface{ Scan(dest ...any) error }) (*model.Equipment, error) {
	var e model.Equipment
	err := row.Scan(&e.ID, &e.LabID, &e.Name, &e.Category, &e.IsReservable, &e.ApprovalRequired)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// GetByID получает оборудование по ID
func (r *EquipmentRepository) GetByID(ctx context.Context, id int64) (*model.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipments WHERE equipment_id = $1`

	e, err := scanEquipment(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get equipment by id: %w", err)
	}
	return e, nil
}

// GetByIDForShare читает оборудование с блокировкой FOR SHARE.
// Держит строку до конца транзакции, поэтому параллельное выключение
// бронирования дождётся коммита создаваемых броней.
func (r *EquipmentRepository) GetByIDForShare(ctx context.Context, id int64) (*model.Equipment, error) {
	query := `SELECT ` + equipmentColumns + ` FROM equipments WHERE equipment_id = $1 FOR SHARE`

	e, err := scanEquipment(r.QueryRow(ctx, query, id))
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get equipment for share: %w", err)
	}
	return e, nil
}

// GetWithLab получает оборудование вместе с лабораторией
func (r *EquipmentRepository) GetWithLab(ctx context.Context, id int64) (*model.Equipment, *model.Lab, error) {
	query := `
		SELECT e.equipment_id, e.lab_id, e.equipment_name, e.category, e.is_reservable, e.approval_required,
		       l.lab_id, l.lab_name, l.lab_location, l.open_hours, l.close_hours
		FROM equipments e
		JOIN labs l ON l.lab_id = e.lab_id
		WHERE e.equipment_id = $1
	`

	var (
		e                     model.Equipment
		lab                   model.Lab
		openHours, closeHours pgtype.Time
	)
	err := r.QueryRow(ctx, query, id).Scan(
		&e.ID, &e.LabID, &e.Name, &e.Category, &e.IsReservable, &e.ApprovalRequired,
		&lab.ID, &lab.Name, &lab.Location, &openHours, &closeHours,
	)
	if err != nil {
		if base.IsNotFound(err) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("get equipment with lab: %w", err)
	}

	lab.OpenTime = time.Duration(openHours.Microseconds) * time.Microsecond
	lab.CloseTime = time.Duration(closeHours.Microseconds) * time.Microsecond

	return &e, &lab, nil
}

// SetReservable меняет флаг is_reservable. Возвращает false если
// оборудование не найдено.
func (r *EquipmentRepository) SetReservable(ctx context.Context, id int64, reservable bool) (bool, error) {
	query := `UPDATE equipments SET is_reservable = $1 WHERE equipment_id = $2`

	affected, err := r.ExecAffected(ctx, query, reservable, id)
	if err != nil {
		return false, fmt.Errorf("set equipment reservable: %w", err)
	}
	return affected > 0, nil
}

// SetApprovalRequired меняет флаг approval_required
func (r *EquipmentRepository) SetApprovalRequired(ctx context.Context, id int64, required bool) (bool, error) {
	query := `UPDATE equipments SET approval_required = $1 WHERE equipment_id = $2`

	affected, err := r.ExecAffected(ctx, query, required, id)
	if err != nil {
		return false, fmt.Errorf("set equipment approval required: %w", err)
	}
	return affected > 0, nil
}
