package telegram

import (
	"fmt"

	"github.com/go-telegram/bot/models"

	"github.com/Freeeeeet/uniquip/internal/model"
)

// CallbackApprove approve:<reservation id>
const CallbackApprove = "approve:"

// Builder упрощает создание inline клавиатур
type Builder struct {
	rows [][]models.InlineKeyboardButton
}

func NewBuilder() *Builder {
	return &Builder{
		rows: make([][]models.InlineKeyboardButton, 0),
	}
}

// Row добавляет новый ряд кнопок
func (b *Builder) Row(buttons ...models.InlineKeyboardButton) *Builder {
	if len(buttons) > 0 {
		b.rows = append(b.rows, buttons)
	}
	return b
}

func (b *Builder) Build() *models.InlineKeyboardMarkup {
	return &models.InlineKeyboardMarkup{
		InlineKeyboard: b.rows,
	}
}

func Button(text, callbackData string) models.InlineKeyboardButton {
	return models.InlineKeyboardButton{
		Text:         text,
		CallbackData: callbackData,
	}
}

// PendingKeyboard по кнопке одобрения на каждую бронь
func PendingKeyboard(items []*model.FacultyReservation) *models.InlineKeyboardMarkup {
	kb := NewBuilder()
	for _, item := range items {
		kb.Row(Button(
			fmt.Sprintf("✅ Одобрить #%d", item.ReservationID),
			fmt.Sprintf("%s%d", CallbackApprove, item.ReservationID),
		))
	}
	return kb.Build()
}
