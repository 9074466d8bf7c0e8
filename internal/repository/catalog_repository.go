package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Freeeeeet/uniquip/internal/model"
	"github.com/Freeeeeet/uniquip/internal/repository/base"
)

// CatalogRepository запросы только на чтение для списков и отчётов
type CatalogRepository struct {
	*base.Repository
}

func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{Repository: base.NewRepository(pool)}
}

// Оборудование с одобрением видно только студентам, записанным на курс
// лаборатории. Оборудование без одобрения видно всем.
const reservableEquipmentUnion = `
	SELECT e.equipment_id, e.lab_id, e.equipment_name, e.category, e.is_reservable, e.approval_required, l.lab_name
	FROM equipments e
	JOIN course_labs cl ON cl.lab_id = e.lab_id
	JOIN enrollments en ON en.crn = cl.crn
	LEFT JOIN courses co ON co.crn = en.crn
	LEFT JOIN labs l ON l.lab_id = e.lab_id
	WHERE e.approval_required
	  AND en.net_id = $1
	  AND e.is_reservable
	  AND ($2::text IS NULL OR co.course_code = $2)
	  AND ($3::text IS NULL OR e.equipment_name ILIKE $3)
	UNION
	SELECT e.equipment_id, e.lab_id, e.equipment_name, e.category, e.is_reservable, e.approval_required, l.lab_name
	FROM equipments e
	LEFT JOIN labs l ON l.lab_id = e.lab_id
	WHERE NOT e.approval_required
	  AND e.is_reservable
	  AND ($3::text IS NULL OR e.equipment_name ILIKE $3)
`

func optionalText(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// ListEquipment получает страницу доступного студенту оборудования
func (r *CatalogRepository) ListEquipment(ctx context.Context, f model.EquipmentFilter) (*model.EquipmentPage, error) {
	courseCode := optionalText(f.CourseCode)
	var namePattern *string
	if f.NameSubstring != "" {
		p := "%" + f.NameSubstring + "%"
		namePattern = &p
	}

	query := `SELECT * FROM (` + reservableEquipmentUnion + `) AS combined
		ORDER BY equipment_id
		LIMIT $4 OFFSET $5`

	rows, err := r.Query(ctx, query, f.NetID, courseCode, namePattern, f.PageSize, (f.Page-1)*f.PageSize)
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	defer rows.Close()

	page := &model.EquipmentPage{Results: []*model.EquipmentListItem{}}
	for rows.Next() {
		var item model.EquipmentListItem
		err := rows.Scan(
			&item.EquipmentID,
			&item.LabID,
			&item.Name,
			&item.Category,
			&item.IsReservable,
			&item.ApprovalRequired,
			&item.LabName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan equipment item: %w", err)
		}
		page.Results = append(page.Results, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate equipment: %w", err)
	}

	countQuery := `SELECT COUNT(*) FROM (` + reservableEquipmentUnion + `) AS combined`
	if err := r.QueryRow(ctx, countQuery, f.NetID, courseCode, namePattern).Scan(&page.Count); err != nil {
		return nil, fmt.Errorf("count equipment: %w", err)
	}

	return page, nil
}

// ListCourseCodes получает коды курсов студента, у которых есть лаборатории
func (r *CatalogRepository) ListCourseCodes(ctx context.Context, netID string) ([]string, error) {
	query := `
		SELECT DISTINCT c.course_code
		FROM enrollments e
		JOIN courses c ON c.crn = e.crn
		JOIN course_labs cl ON cl.crn = c.crn
		WHERE e.net_id = $1
		ORDER BY c.course_code
	`

	rows, err := r.Query(ctx, query, netID)
	if err != nil {
		return nil, fmt.Errorf("list course codes: %w", err)
	}
	defer rows.Close()

	codes := []string{}
	for rows.Next() {
		var code string
		if err := rows.Scan(&code); err != nil {
			return nil, fmt.Errorf("scan course code: %w", err)
		}
		codes = append(codes, code)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate course codes: %w", err)
	}

	return codes, nil
}

// ListReservations получает страницу броней по фильтру, новые ID первыми
func (r *CatalogRepository) ListReservations(ctx context.Context, f model.ReservationFilter) (*model.ReservationPage, error) {
	var (
		conditions []string
		args       []any
	)
	add := func(cond string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if f.StartFrom != nil {
		add("start_time >= $%d", *f.StartFrom)
	}
	if f.EndBefore != nil {
		add("end_time <= $%d", *f.EndBefore)
	}
	if f.EquipmentID != nil {
		add("equipment_id = $%d", *f.EquipmentID)
	}
	if f.NetID != "" {
		add("net_id = $%d", f.NetID)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	page := &model.ReservationPage{Results: []*model.Reservation{}}

	countQuery := `SELECT COUNT(*) FROM reservations ` + where
	if err := r.QueryRow(ctx, countQuery, args...).Scan(&page.Count); err != nil {
		return nil, fmt.Errorf("count reservations: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM reservations %s ORDER BY reservation_id DESC LIMIT $%d OFFSET $%d`,
		reservationColumns, where, len(args)+1, len(args)+2)
	args = append(args, f.PageSize, (f.Page-1)*f.PageSize)

	rows, err := r.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		page.Results = append(page.Results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate reservations: %w", err)
	}

	return page, nil
}

// ListFacultyPending получает брони, ожидающие одобрения, на оборудование
// лабораторий курсов преподавателя от студентов этих курсов
func (r *CatalogRepository) ListFacultyPending(ctx context.Context, facultyID int64) ([]*model.FacultyReservation, error) {
	query := `
		SELECT DISTINCT r.reservation_id, e.equipment_name, s.name, r.net_id, r.start_time, r.end_time, r.status
		FROM courses co
		JOIN course_labs cl ON cl.crn = co.crn
		JOIN enrollments en ON en.crn = co.crn
		JOIN students s ON s.net_id = en.net_id
		JOIN equipments e ON e.lab_id = cl.lab_id
		JOIN reservations r ON r.equipment_id = e.equipment_id AND r.net_id = s.net_id
		WHERE co.faculty_id = $1
		  AND r.status = 'Approval Required'
		ORDER BY r.start_time
	`

	rows, err := r.Query(ctx, query, facultyID)
	if err != nil {
		return nil, fmt.Errorf("list faculty pending reservations: %w", err)
	}
	defer rows.Close()

	result := []*model.FacultyReservation{}
	for rows.Next() {
		var fr model.FacultyReservation
		err := rows.Scan(
			&fr.ReservationID,
			&fr.EquipmentName,
			&fr.StudentName,
			&fr.NetID,
			&fr.StartTime,
			&fr.EndTime,
			&fr.Status,
		)
		if err != nil {
			return nil, fmt.Errorf("scan faculty reservation: %w", err)
		}
		result = append(result, &fr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faculty reservations: %w", err)
	}

	return result, nil
}

// ListFacultyEquipment получает оборудование лабораторий курсов преподавателя
func (r *CatalogRepository) ListFacultyEquipment(ctx context.Context, facultyID int64) ([]*model.FacultyEquipment, error) {
	query := `
		SELECT DISTINCT e.lab_id, e.equipment_id, e.equipment_name, e.approval_required, e.is_reservable
		FROM courses co
		JOIN course_labs cl ON cl.crn = co.crn
		JOIN equipments e ON e.lab_id = cl.lab_id
		WHERE co.faculty_id = $1
		ORDER BY e.lab_id, e.equipment_id
	`

	rows, err := r.Query(ctx, query, facultyID)
	if err != nil {
		return nil, fmt.Errorf("list faculty equipment: %w", err)
	}
	defer rows.Close()

	result := []*model.FacultyEquipment{}
	for rows.Next() {
		var fe model.FacultyEquipment
		if err := rows.Scan(&fe.LabID, &fe.EquipmentID, &fe.Name, &fe.ApprovalRequired, &fe.IsReservable); err != nil {
			return nil, fmt.Errorf("scan faculty equipment: %w", err)
		}
		result = append(result, &fe)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate faculty equipment: %w", err)
	}

	return result, nil
}

// UsageReport считает активные брони и забронированные часы по оборудованию
func (r *CatalogRepository) UsageReport(ctx context.Context, from, to time.Time) ([]*model.UsageReportRow, error) {
	query := `
		SELECT e.equipment_id,
		       e.equipment_name,
		       l.lab_name,
		       COUNT(r.reservation_id) AS reservation_count,
		       COALESCE(SUM(EXTRACT(EPOCH FROM (r.end_time - r.start_time))) / 3600, 0)::float8 AS hours_booked
		FROM equipments e
		JOIN labs l ON l.lab_id = e.lab_id
		LEFT JOIN reservations r
		       ON r.equipment_id = e.equipment_id
		      AND r.status <> 'Cancelled'
		      AND r.start_time >= $1
		      AND r.end_time <= $2
		GROUP BY e.equipment_id, e.equipment_name, l.lab_name
		ORDER BY hours_booked DESC, e.equipment_id
	`

	rows, err := r.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("usage report: %w", err)
	}
	defer rows.Close()

	result := []*model.UsageReportRow{}
	for rows.Next() {
		var row model.UsageReportRow
		err := rows.Scan(&row.EquipmentID, &row.EquipmentName, &row.LabName, &row.ReservationCount, &row.HoursBooked)
		if err != nil {
			return nil, fmt.Errorf("scan usage row: %w", err)
		}
		result = append(result, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate usage rows: %w", err)
	}

	return result, nil
}

// CourseLoad считает часы броней студентов курса в заданном окне
func (r *CatalogRepository) CourseLoad(ctx context.Context, from, to time.Time) ([]*model.CourseLoadRow, error) {
	query := `
		SELECT c.crn,
		       c.course_name,
		       (SUM(EXTRACT(EPOCH FROM (r.end_time - r.start_time))) / 3600)::float8 AS hours_booked
		FROM enrollments e
		JOIN courses c ON c.crn = e.crn
		JOIN reservations r ON r.net_id = e.net_id
		WHERE r.start_time >= $1
		  AND r.end_time <= $2
		  AND EXISTS (SELECT 1 FROM course_labs cl WHERE cl.crn = c.crn)
		GROUP BY c.crn, c.course_name
		ORDER BY hours_booked DESC
	`

	rows, err := r.Query(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("course load: %w", err)
	}
	defer rows.Close()

	result := []*model.CourseLoadRow{}
	for rows.Next() {
		var row model.CourseLoadRow
		if err := rows.Scan(&row.CRN, &row.CourseName, &row.HoursBooked); err != nil {
			return nil, fmt.Errorf("scan course load row: %w", err)
		}
		result = append(result, &row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate course load rows: %w", err)
	}

	return result, nil
}
