// Package apperror описывает ошибки, которые сервисы отдают наружу.
// Каждая ошибка несёт Kind, по которому адаптеры (HTTP, бот) выбирают
// ответ, и сообщение для пользователя. Детали драйвера БД остаются в Err
// и попадают только в логи.
package apperror

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidRequest
	KindNotFound
	KindSlotUnavailable
	KindConflict
	KindStorage
	KindInvalidState
)

func (k Kind) String() string {
	switch k {
	case KindInvalidRequest:
		return "InvalidRequest"
	case KindNotFound:
		return "NotFound"
	case KindSlotUnavailable:
		return "SlotUnavailable"
	case KindConflict:
		return "Conflict"
	case KindStorage:
		return "StorageError"
	case KindInvalidState:
		return "InvalidState"
	default:
		return "Unknown"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is сравнивает ошибки по Kind и Message, чтобы sentinel-значения
// работали с errors.Is даже после Wrap
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind && t.Message == e.Message
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap прикрепляет исходную ошибку к типизированной
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// KindOf возвращает Kind первой *Error в цепочке или KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// MessageOf возвращает безопасное для клиента сообщение
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}

var (
	ErrEquipmentNotFound   = New(KindNotFound, "equipment not found")
	ErrStudentNotFound     = New(KindNotFound, "student not found")
	ErrReservationNotFound = New(KindNotFound, "reservation not found")
	ErrSlotUnavailable     = New(KindSlotUnavailable, "requested time slot overlaps an existing reservation")
	ErrNotPendingApproval  = New(KindInvalidState, "reservation is not awaiting approval")
	ErrNotReservable       = New(KindInvalidState, "equipment is not reservable")
	ErrConflict            = New(KindConflict, "reservation conflicts with concurrent changes")
	ErrStorage             = New(KindStorage, "storage unavailable")
)
