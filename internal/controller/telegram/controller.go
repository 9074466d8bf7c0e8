// Package telegram бот для операторов лабораторий: просмотр и одобрение
// броней, отключение оборудования, свободные слоты
package telegram

import (
	"context"
	"time"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"github.com/Freeeeeet/uniquip/internal/model"
)

type PendingLister interface {
	ListFacultyPending(ctx context.Context, facultyID int64) ([]*model.FacultyReservation, error)
}

type Lifecycle interface {
	Approve(ctx context.Context, reservationID int64) error
	ToggleReservability(ctx context.Context, equipmentID int64) (int64, error)
}

type Availability interface {
	Available(ctx context.Context, equipmentID int64, date time.Time) ([]model.AvailableSlot, error)
}

type BotController struct {
	bot      *bot.Bot
	handlers *Handlers
	logger   *zap.Logger
}

func NewBotController(
	botInstance *bot.Bot,
	pending PendingLister,
	lifecycle Lifecycle,
	availability Availability,
	location *time.Location,
	logger *zap.Logger,
) *BotController {
	return &BotController{
		bot:      botInstance,
		handlers: NewHandlers(pending, lifecycle, availability, location, logger),
		logger:   logger,
	}
}

// RegisterHandlers регистрирует все обработчики команд
func (c *BotController) RegisterHandlers(ctx context.Context) error {
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/start", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/help", bot.MatchTypeExact, c.handlers.HandleHelp)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/pending", bot.MatchTypePrefix, c.handlers.HandlePending)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/approve", bot.MatchTypePrefix, c.handlers.HandleApprove)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/disable", bot.MatchTypePrefix, c.handlers.HandleDisable)
	c.bot.RegisterHandler(bot.HandlerTypeMessageText, "/slots", bot.MatchTypePrefix, c.handlers.HandleSlots)

	// Обработчик нажатий на inline кнопки
	c.bot.RegisterHandler(bot.HandlerTypeCallbackQueryData, CallbackApprove, bot.MatchTypePrefix, c.handlers.HandleApproveCallback)

	return c.setCommands(ctx)
}

// setCommands устанавливает список команд в меню бота
func (c *BotController) setCommands(ctx context.Context) error {
	commands := []models.BotCommand{
		{Command: "pending", Description: "⏳ Брони на одобрении: /pending <id преподавателя>"},
		{Command: "approve", Description: "✅ Одобрить бронь: /approve <id брони>"},
		{Command: "disable", Description: "⛔️ Отключить оборудование: /disable <id оборудования>"},
		{Command: "slots", Description: "🗓 Свободные слоты: /slots <id оборудования> <YYYY-MM-DD>"},
		{Command: "help", Description: "❓ Справка по командам"},
	}

	_, err := c.bot.SetMyCommands(ctx, &bot.SetMyCommandsParams{
		Commands: commands,
	})
	if err != nil {
		c.logger.Error("Failed to set bot commands", zap.Error(err))
		return err
	}

	c.logger.Info("✅ Bot commands menu set")
	return nil
}

// Start запускает long polling, блокируется до отмены ctx
func (c *BotController) Start(ctx context.Context) {
	c.logger.Info("Starting bot...")
	c.bot.Start(ctx)
}
