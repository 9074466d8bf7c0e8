package service

import (
	"sort"
	"time"

	"github.com/Freeeeeet/uniquip/internal/apperror"
	"github.com/Freeeeeet/uniquip/internal/model"
)

// SlotDuration длина одного слота
const SlotDuration = time.Hour

var slotLayouts = []string{"15:04:05", "15:04"}

// ParseSlot склеивает день и время "HH:MM:SS" в абсолютный момент
// в часовом поясе day
func ParseSlot(day time.Time, slot string) (time.Time, error) {
	for _, layout := range slotLayouts {
		t, err := time.Parse(layout, slot)
		if err == nil {
			return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), t.Second(), 0, day.Location()), nil
		}
	}
	return time.Time{}, apperror.Newf(apperror.KindInvalidRequest, "invalid time slot %q, expected HH:MM:SS", slot)
}

// MergeTimeSlots объединяет часовые слоты дня в минимальный набор
// непрерывных интервалов [start, end). Дубликаты схлопываются.
func MergeTimeSlots(day time.Time, slots []string) ([]model.TimeInterval, error) {
	if len(slots) == 0 {
		return []model.TimeInterval{}, nil
	}

	seen := make(map[int64]struct{}, len(slots))
	starts := make([]time.Time, 0, len(slots))
	for _, s := range slots {
		t, err := ParseSlot(day, s)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[t.UnixNano()]; dup {
			continue
		}
		seen[t.UnixNano()] = struct{}{}
		starts = append(starts, t)
	}

	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	merged := make([]model.TimeInterval, 0, len(starts))
	current := model.TimeInterval{Start: starts[0], End: starts[0].Add(SlotDuration)}
	for _, start := range starts[1:] {
		if start.Equal(current.End) {
			current.End = start.Add(SlotDuration)
			continue
		}
		merged = append(merged, current)
		current = model.TimeInterval{Start: start, End: start.Add(SlotDuration)}
	}
	merged = append(merged, current)

	return merged, nil
}
