package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/Freeeeeet/uniquip/internal/audit"
	"github.com/Freeeeeet/uniquip/internal/model"
	"github.com/Freeeeeet/uniquip/internal/repository/memory"
)

var testDay = time.Date(2024, time.March, 4, 0, 0, 0, 0, time.UTC)

func at(hour int) time.Time {
	return testDay.Add(time.Duration(hour) * time.Hour)
}

type recordedEvent struct {
	level   audit.Level
	message string
	fields  map[string]any
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *fakeRecorder) Record(_ context.Context, level audit.Level, message string, fields map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{level: level, message: message, fields: fields})
}

func (r *fakeRecorder) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.message)
	}
	return out
}

type cacheKey struct {
	equipmentID int64
	version     int64
}

// fakeCache повторяет версионирование Redis-кэша в памяти
type fakeCache struct {
	mu          sync.Mutex
	versions    map[int64]int64
	slots       map[cacheKey][]model.AvailableSlot
	gets        int
	invalidated []int64
}

func newFakeCache() *fakeCache {
	return &fakeCache{
		versions: map[int64]int64{},
		slots:    map[cacheKey][]model.AvailableSlot{},
	}
}

func (c *fakeCache) Get(_ context.Context, equipmentID int64, _ time.Time) ([]model.AvailableSlot, int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	ver := c.versions[equipmentID]
	slots, ok := c.slots[cacheKey{equipmentID, ver}]
	return slots, ver, ok
}

func (c *fakeCache) Set(_ context.Context, equipmentID int64, _ time.Time, version int64, slots []model.AvailableSlot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slots[cacheKey{equipmentID, version}] = slots
}

func (c *fakeCache) Invalidate(_ context.Context, equipmentID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.versions[equipmentID]++
	c.invalidated = append(c.invalidated, equipmentID)
}

const (
	openEquipmentID     int64 = 1
	approvalEquipmentID int64 = 2
	disabledEquipmentID int64 = 3
)

type fixture struct {
	store        *memory.Store
	cache        *fakeCache
	recorder     *fakeRecorder
	availability *AvailabilityService
	reservation  *ReservationService
	lifecycle    *LifecycleService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.NewStore()
	store.AddLab(model.Lab{ID: 10, Name: "Robotics", Location: "B-101", OpenTime: 8 * time.Hour, CloseTime: 18 * time.Hour})
	store.AddEquipment(model.Equipment{ID: openEquipmentID, LabID: 10, Name: "Oscilloscope", Category: "Electronics", IsReservable: true})
	store.AddEquipment(model.Equipment{ID: approvalEquipmentID, LabID: 10, Name: "3D Printer", Category: "Fabrication", IsReservable: true, ApprovalRequired: true})
	store.AddEquipment(model.Equipment{ID: disabledEquipmentID, LabID: 10, Name: "Laser Cutter", Category: "Fabrication"})
	store.AddStudent(model.Student{NetID: "abc123", Name: "Ada"})
	store.AddStudent(model.Student{NetID: "xyz789", Name: "Linus"})

	cache := newFakeCache()
	recorder := &fakeRecorder{}
	logger := zap.NewNop()

	return &fixture{
		store:        store,
		cache:        cache,
		recorder:     recorder,
		availability: NewAvailabilityService(store.Equipment(), store.ReservationRepo(), cache, logger),
		reservation:  NewReservationService(store, store.Equipment(), store.Students(), store.ReservationRepo(), cache, recorder, logger),
		lifecycle:    NewLifecycleService(store, store.Equipment(), store.ReservationRepo(), cache, recorder, logger),
	}
}
