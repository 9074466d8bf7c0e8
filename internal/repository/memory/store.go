// Package memory хранилище в памяти с теми же контрактами, что и
// PostgreSQL-репозитории. Транзакции выполняются строго по одной, откат
// восстанавливает снимок данных. Используется в тестах сервисов и API.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Freeeeeet/uniquip/internal/model"
)

type txKey struct{}

type data struct {
	labs         map[int64]model.Lab
	equipment    map[int64]model.Equipment
	students     map[string]model.Student
	reservations map[int64]model.Reservation
}

func (d *data) clone() *data {
	c := &data{
		labs:         make(map[int64]model.Lab, len(d.labs)),
		equipment:    make(map[int64]model.Equipment, len(d.equipment)),
		students:     make(map[string]model.Student, len(d.students)),
		reservations: make(map[int64]model.Reservation, len(d.reservations)),
	}
	for k, v := range d.labs {
		c.labs[k] = v
	}
	for k, v := range d.equipment {
		c.equipment[k] = v
	}
	for k, v := range d.students {
		c.students[k] = v
	}
	for k, v := range d.reservations {
		c.reservations[k] = v
	}
	return c
}

type failure struct {
	after int // успешных вызовов до первой ошибки
	calls int
	err   error
}

// Store данные и транзакции. Один мьютекс сериализует и транзакции, и
// одиночные запросы вне транзакции.
type Store struct {
	mu       sync.Mutex
	data     *data
	failures map[string]*failure
}

func NewStore() *Store {
	return &Store{
		data: &data{
			labs:         map[int64]model.Lab{},
			equipment:    map[int64]model.Equipment{},
			students:     map[string]model.Student{},
			reservations: map[int64]model.Reservation{},
		},
		failures: map[string]*failure{},
	}
}

func inTx(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(bool)
	return ok
}

// lock берёт мьютекс, если вызов не внутри транзакции
func (s *Store) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// WithinTx выполняет fn атомарно: при ошибке данные возвращаются к
// состоянию до начала транзакции
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.data.clone()
	if err := fn(context.WithValue(ctx, txKey{}, true)); err != nil {
		s.data = snapshot
		return err
	}
	return nil
}

// FailOn заставляет операцию op возвращать err после after успешных вызовов
func (s *Store) FailOn(op string, after int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = &failure{after: after, err: err}
}

func (s *Store) injected(op string) error {
	f, ok := s.failures[op]
	if !ok {
		return nil
	}
	f.calls++
	if f.calls > f.after {
		return f.err
	}
	return nil
}

func (s *Store) AddLab(lab model.Lab) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.labs[lab.ID] = lab
}

func (s *Store) AddEquipment(e model.Equipment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.equipment[e.ID] = e
}

func (s *Store) AddStudent(st model.Student) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.students[st.NetID] = st
}

func (s *Store) AddReservation(r model.Reservation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data.reservations[r.ID] = r
}

// Reservation копия брони или false
func (s *Store) Reservation(id int64) (model.Reservation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.data.reservations[id]
	return r, ok
}

// EquipmentByID копия оборудования или false
func (s *Store) EquipmentByID(id int64) (model.Equipment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.data.equipment[id]
	return e, ok
}

// Reservations все брони, отсортированные по ID
func (s *Store) Reservations() []model.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Reservation, 0, len(s.data.reservations))
	for _, r := range s.data.reservations {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Store) Equipment() *EquipmentRepository {
	return &EquipmentRepository{store: s}
}

func (s *Store) Students() *StudentRepository {
	return &StudentRepository{store: s}
}

func (s *Store) ReservationRepo() *ReservationRepository {
	return &ReservationRepository{store: s}
}

type EquipmentRepository struct {
	store *Store
}

func (r *EquipmentRepository) GetByID(ctx context.Context, id int64) (*model.Equipment, error) {
	defer r.store.lock(ctx)()
	if err := r.store.injected("GetEquipment"); err != nil {
		return nil, err
	}
	e, ok := r.store.data.equipment[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *EquipmentRepository) GetByIDForShare(ctx context.Context, id int64) (*model.Equipment, error) {
	return r.GetByID(ctx, id)
}

func (r *EquipmentRepository) GetWithLab(ctx context.Context, id int64) (*model.Equipment, *model.Lab, error) {
	defer r.store.lock(ctx)()
	e, ok := r.store.data.equipment[id]
	if !ok {
		return nil, nil, nil
	}
	lab, ok := r.store.data.labs[e.LabID]
	if !ok {
		return nil, nil, nil
	}
	return &e, &lab, nil
}

func (r *EquipmentRepository) SetReservable(ctx context.Context, id int64, reservable bool) (bool, error) {
	defer r.store.lock(ctx)()
	if err := r.store.injected("SetReservable"); err != nil {
		return false, err
	}
	e, ok := r.store.data.equipment[id]
	if !ok {
		return false, nil
	}
	e.IsReservable = reservable
	r.store.data.equipment[id] = e
	return true, nil
}

func (r *EquipmentRepository) SetApprovalRequired(ctx context.Context, id int64, required bool) (bool, error) {
	defer r.store.lock(ctx)()
	e, ok := r.store.data.equipment[id]
	if !ok {
		return false, nil
	}
	e.ApprovalRequired = required
	r.store.data.equipment[id] = e
	return true, nil
}

type StudentRepository struct {
	store *Store
}

func (r *StudentRepository) GetByNetID(ctx context.Context, netID string) (*model.Student, error) {
	defer r.store.lock(ctx)()
	st, ok := r.store.data.students[netID]
	if !ok {
		return nil, nil
	}
	return &st, nil
}

type ReservationRepository struct {
	store *Store
}

// LockAllocation в памяти транзакции уже сериализованы
func (r *ReservationRepository) LockAllocation(ctx context.Context) error {
	return nil
}

func (r *ReservationRepository) NextID(ctx context.Context) (int64, error) {
	defer r.store.lock(ctx)()
	var last int64
	for id := range r.store.data.reservations {
		if id > last {
			last = id
		}
	}
	return last + 1, nil
}

func (r *ReservationRepository) HasActiveOverlap(ctx context.Context, equipmentID int64, start, end time.Time) (bool, error) {
	defer r.store.lock(ctx)()
	return r.store.overlaps(equipmentID, start, end, 0), nil
}

func (s *Store) overlaps(equipmentID int64, start, end time.Time, exceptID int64) bool {
	for _, res := range s.data.reservations {
		if res.ID == exceptID || res.EquipmentID != equipmentID || !res.Status.IsActive() {
			continue
		}
		if res.Overlaps(start, end) {
			return true
		}
	}
	return false
}

// Insert проверяет те же ограничения, что и схема БД
func (r *ReservationRepository) Insert(ctx context.Context, res *model.Reservation) error {
	defer r.store.lock(ctx)()
	if err := r.store.injected("Insert"); err != nil {
		return err
	}
	if _, exists := r.store.data.reservations[res.ID]; exists {
		return &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint \"reservations_pkey\""}
	}
	if _, ok := r.store.data.equipment[res.EquipmentID]; !ok {
		return &pgconn.PgError{Code: "23503", Message: "insert violates foreign key constraint"}
	}
	if !res.StartTime.Before(res.EndTime) {
		return fmt.Errorf("insert reservation: start %s is not before end %s", res.StartTime, res.EndTime)
	}
	if res.Status.IsActive() && r.store.overlaps(res.EquipmentID, res.StartTime, res.EndTime, res.ID) {
		return &pgconn.PgError{Code: "23P01", Message: "conflicting key value violates exclusion constraint"}
	}
	r.store.data.reservations[res.ID] = *res
	return nil
}

func (r *ReservationRepository) GetByID(ctx context.Context, id int64) (*model.Reservation, error) {
	defer r.store.lock(ctx)()
	res, ok := r.store.data.reservations[id]
	if !ok {
		return nil, nil
	}
	return &res, nil
}

func (r *ReservationRepository) ListActiveBetween(ctx context.Context, equipmentID int64, from, to time.Time) ([]*model.Reservation, error) {
	defer r.store.lock(ctx)()
	if err := r.store.injected("ListActiveBetween"); err != nil {
		return nil, err
	}
	var out []model.Reservation
	for _, res := range r.store.data.reservations {
		if res.EquipmentID == equipmentID && res.Status.IsActive() && res.Overlaps(from, to) {
			out = append(out, res)
		}
	}
	sortReservations(out)

	list := make([]*model.Reservation, 0, len(out))
	for i := range out {
		list = append(list, &out[i])
	}
	return list, nil
}

func (r *ReservationRepository) Approve(ctx context.Context, id int64) (bool, error) {
	defer r.store.lock(ctx)()
	res, ok := r.store.data.reservations[id]
	if !ok || res.Status != model.ReservationStatusApprovalRequired {
		return false, nil
	}
	res.Status = model.ReservationStatusReserved
	r.store.data.reservations[id] = res
	return true, nil
}

func (r *ReservationRepository) Delete(ctx context.Context, id int64) (*model.Reservation, error) {
	defer r.store.lock(ctx)()
	res, ok := r.store.data.reservations[id]
	if !ok {
		return nil, nil
	}
	delete(r.store.data.reservations, id)
	return &res, nil
}

func (r *ReservationRepository) CancelFuture(ctx context.Context, equipmentID int64, now time.Time) (int64, error) {
	defer r.store.lock(ctx)()
	if err := r.store.injected("CancelFuture"); err != nil {
		return 0, err
	}
	var n int64
	for id, res := range r.store.data.reservations {
		if res.EquipmentID == equipmentID && res.StartTime.After(now) && res.Status != model.ReservationStatusCancelled {
			res.Status = model.ReservationStatusCancelled
			r.store.data.reservations[id] = res
			n++
		}
	}
	return n, nil
}

func sortReservations(list []model.Reservation) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].StartTime.Equal(list[j].StartTime) {
			return list[i].ID < list[j].ID
		}
		return list[i].StartTime.Before(list[j].StartTime)
	})
}
