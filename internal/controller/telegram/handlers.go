package telegram

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/uniquip/internal/apperror"
	"github.com/Freeeeeet/uniquip/internal/audit"
)

const helpText = "🔧 Бот оператора лабораторий\n\n" +
	"/pending <id преподавателя> - Брони на одобрении\n" +
	"/approve <id брони> - Одобрить бронь\n" +
	"/disable <id оборудования> - Отключить бронирование и отменить будущие брони\n" +
	"/slots <id оборудования> <YYYY-MM-DD> - Свободные слоты на день"

type Handlers struct {
	pending      PendingLister
	lifecycle    Lifecycle
	availability Availability
	location     *time.Location
	logger       *zap.Logger
}

func NewHandlers(
	pending PendingLister,
	lifecycle Lifecycle,
	availability Availability,
	location *time.Location,
	logger *zap.Logger,
) *Handlers {
	if location == nil {
		location = time.UTC
	}
	return &Handlers{
		pending:      pending,
		lifecycle:    lifecycle,
		availability: availability,
		location:     location,
		logger:       logger,
	}
}

// withTrace помечает контекст id апдейта Telegram для аудита
func withTrace(ctx context.Context, update *models.Update) context.Context {
	return audit.WithTraceID(ctx, "tg-"+strconv.FormatInt(update.ID, 10))
}

// HandleHelp обрабатывает /start и /help
func (h *Handlers) HandleHelp(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	h.sendMessage(ctx, b, update.Message.Chat.ID, helpText, nil)
}

// HandlePending обрабатывает /pending <faculty_id>
func (h *Handlers) HandlePending(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	facultyID, ok := parseIDArg(update.Message.Text)
	if !ok {
		h.sendMessage(ctx, b, chatID, "❌ Использование: /pending <id преподавателя>", nil)
		return
	}

	items, err := h.pending.ListFacultyPending(withTrace(ctx, update), facultyID)
	if err != nil {
		h.logger.Error("Failed to list pending reservations", zap.Int64("faculty_id", facultyID), zap.Error(err))
		h.sendMessage(ctx, b, chatID, errorText(err), nil)
		return
	}

	var markup models.ReplyMarkup
	if len(items) > 0 {
		markup = PendingKeyboard(items)
	}
	h.sendMessage(ctx, b, chatID, FormatPending(items, h.location), markup)
}

// HandleApprove обрабатывает /approve <reservation_id>
func (h *Handlers) HandleApprove(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	id, ok := parseIDArg(update.Message.Text)
	if !ok {
		h.sendMessage(ctx, b, chatID, "❌ Использование: /approve <id брони>", nil)
		return
	}

	h.sendMessage(ctx, b, chatID, h.approve(withTrace(ctx, update), id), nil)
}

// HandleApproveCallback обрабатывает нажатие кнопки одобрения
func (h *Handlers) HandleApproveCallback(ctx context.Context, b *bot.Bot, update *models.Update) {
	callback := update.CallbackQuery
	if callback == nil {
		return
	}

	text := "❌ Неверная кнопка"
	if id, ok := parseCallbackID(callback.Data, CallbackApprove); ok {
		text = h.approve(withTrace(ctx, update), id)
	}

	_, err := b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
		CallbackQueryID: callback.ID,
		Text:            text,
		ShowAlert:       true,
	})
	if err != nil {
		h.logger.Error("Failed to answer callback", zap.String("data", callback.Data), zap.Error(err))
	}
}

func (h *Handlers) approve(ctx context.Context, reservationID int64) string {
	if err := h.lifecycle.Approve(ctx, reservationID); err != nil {
		if apperror.KindOf(err) == apperror.KindStorage {
			h.logger.Error("Failed to approve reservation", zap.Int64("reservation_id", reservationID), zap.Error(err))
		}
		return errorText(err)
	}
	return fmt.Sprintf("✅ Бронь #%d одобрена", reservationID)
}

// HandleDisable обрабатывает /disable <equipment_id>
func (h *Handlers) HandleDisable(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID

	id, ok := parseIDArg(update.Message.Text)
	if !ok {
		h.sendMessage(ctx, b, chatID, "❌ Использование: /disable <id оборудования>", nil)
		return
	}

	cancelled, err := h.lifecycle.ToggleReservability(withTrace(ctx, update), id)
	if err != nil {
		h.sendMessage(ctx, b, chatID, errorText(err), nil)
		return
	}

	h.sendMessage(ctx, b, chatID,
		fmt.Sprintf("⛔️ Оборудование #%d отключено\nОтменено будущих броней: %d", id, cancelled), nil)
}

// HandleSlots обрабатывает /slots <equipment_id> <YYYY-MM-DD>
func (h *Handlers) HandleSlots(ctx context.Context, b *bot.Bot, update *models.Update) {
	if update.Message == nil {
		return
	}
	chatID := update.Message.Chat.ID
	usage := "❌ Использование: /slots <id оборудования> <YYYY-MM-DD>"

	args := commandArgs(update.Message.Text)
	if len(args) != 2 {
		h.sendMessage(ctx, b, chatID, usage, nil)
		return
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil || id <= 0 {
		h.sendMessage(ctx, b, chatID, usage, nil)
		return
	}
	day, err := time.ParseInLocation("2006-01-02", args[1], h.location)
	if err != nil {
		h.sendMessage(ctx, b, chatID, usage, nil)
		return
	}

	slots, err := h.availability.Available(withTrace(ctx, update), id, day)
	if err != nil {
		h.sendMessage(ctx, b, chatID, errorText(err), nil)
		return
	}

	h.sendMessage(ctx, b, chatID, FormatSlots(id, day, slots), nil)
}

// sendMessage отправляет сообщение и логирует если не удалось
func (h *Handlers) sendMessage(ctx context.Context, b *bot.Bot, chatID int64, text string, markup models.ReplyMarkup) {
	_, err := b.SendMessage(ctx, &bot.SendMessageParams{
		ChatID:      chatID,
		Text:        text,
		ReplyMarkup: markup,
	})
	if err != nil {
		h.logger.Error("Failed to send message",
			zap.Int64("chat_id", chatID),
			zap.Error(err),
		)
	}
}
