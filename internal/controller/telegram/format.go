package telegram

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Freeeeeet/uniquip/internal/apperror"
	"github.com/Freeeeeet/uniquip/internal/model"
)

// StatusDisplay представляет отображение статуса брони
type StatusDisplay struct {
	Emoji string
	Text  string
}

// GetStatusDisplay возвращает emoji и текст для статуса брони
func GetStatusDisplay(status model.ReservationStatus) StatusDisplay {
	displays := map[model.ReservationStatus]StatusDisplay{
		model.ReservationStatusReserved:         {"✅", "Забронировано"},
		model.ReservationStatusApprovalRequired: {"⏳", "Ожидает одобрения"},
		model.ReservationStatusCancelled:        {"❌", "Отменено"},
	}

	if display, ok := displays[status]; ok {
		return display
	}

	return StatusDisplay{"❓", "Неизвестно"}
}

// commandArgs аргументы команды без самой команды: "/slots 3 2024-03-04" -> [3 2024-03-04]
func commandArgs(text string) []string {
	fields := strings.Fields(text)
	if len(fields) <= 1 {
		return nil
	}
	return fields[1:]
}

// parseIDArg разбирает единственный числовой аргумент команды
func parseIDArg(text string) (int64, bool) {
	args := commandArgs(text)
	if len(args) != 1 {
		return 0, false
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// parseCallbackID "approve:123" -> 123
func parseCallbackID(data, prefix string) (int64, bool) {
	if !strings.HasPrefix(data, prefix) {
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(data, prefix), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// FormatPending список броней, ожидающих одобрения
func FormatPending(items []*model.FacultyReservation, loc *time.Location) string {
	if len(items) == 0 {
		return "✨ Нет броней, ожидающих одобрения"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("⏳ Ожидают одобрения: %d\n", len(items)))
	for _, item := range items {
		status := GetStatusDisplay(item.Status)
		start := item.StartTime.In(loc)
		sb.WriteString(fmt.Sprintf("\n%s #%d %s\n👤 %s (%s)\n🕐 %s %s–%s\n",
			status.Emoji,
			item.ReservationID,
			item.EquipmentName,
			item.StudentName,
			item.NetID,
			start.Format("02.01.2006"),
			start.Format("15:04"),
			item.EndTime.In(loc).Format("15:04"),
		))
	}
	return sb.String()
}

// FormatSlots свободные часы оборудования на день
func FormatSlots(equipmentID int64, day time.Time, slots []model.AvailableSlot) string {
	header := fmt.Sprintf("🗓 Оборудование #%d, %s", equipmentID, day.Format("02.01.2006"))
	if len(slots) == 0 {
		return header + "\n\n🔴 Свободных слотов нет"
	}

	var sb strings.Builder
	sb.WriteString(header)
	sb.WriteString(fmt.Sprintf("\n🏫 %s (%s–%s)\n", slots[0].LabName, trimSeconds(slots[0].OpenHours), trimSeconds(slots[0].CloseHours)))
	for _, s := range slots {
		sb.WriteString(fmt.Sprintf("\n🟢 %s–%s", trimSeconds(s.StartTimeSlot), trimSeconds(s.EndTimeSlot)))
	}
	return sb.String()
}

func trimSeconds(clock string) string {
	return strings.TrimSuffix(clock, ":00")
}

// errorText сообщение пользователю по виду ошибки
func errorText(err error) string {
	switch apperror.KindOf(err) {
	case apperror.KindInvalidRequest:
		return "❌ Неверный запрос: " + apperror.MessageOf(err)
	case apperror.KindNotFound:
		return "🔍 Не найдено: " + apperror.MessageOf(err)
	case apperror.KindInvalidState:
		return "⚠️ Недопустимое действие: " + apperror.MessageOf(err)
	case apperror.KindSlotUnavailable, apperror.KindConflict:
		return "⚠️ Конфликт: " + apperror.MessageOf(err)
	default:
		return "❌ Произошла ошибка. Попробуйте позже."
	}
}
