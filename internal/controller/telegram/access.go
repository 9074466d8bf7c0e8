package telegram

import (
	"context"

	"github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"
)

const accessDeniedText = "⛔️ Команда доступна только операторам лабораторий"

// senderID возвращает Telegram id автора сообщения или нажатия кнопки
func senderID(update *models.Update) (int64, bool) {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID, true
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From.ID, true
	}
	return 0, false
}

// RequireOperator пропускает к обработчикам только апдейты от операторов
// из списка. Остальным отвечает отказом.
func RequireOperator(operatorIDs []int64, logger *zap.Logger) bot.Middleware {
	allowed := make(map[int64]struct{}, len(operatorIDs))
	for _, id := range operatorIDs {
		allowed[id] = struct{}{}
	}

	return func(next bot.HandlerFunc) bot.HandlerFunc {
		return func(ctx context.Context, b *bot.Bot, update *models.Update) {
			userID, ok := senderID(update)
			if !ok {
				return
			}
			if _, ok := allowed[userID]; ok {
				next(ctx, b, update)
				return
			}

			logger.Warn("Rejected update from non-operator",
				zap.Int64("telegram_id", userID),
				zap.Int64("update_id", update.ID),
			)
			denyAccess(ctx, b, update, logger)
		}
	}
}

func denyAccess(ctx context.Context, b *bot.Bot, update *models.Update, logger *zap.Logger) {
	var err error
	switch {
	case update.CallbackQuery != nil:
		_, err = b.AnswerCallbackQuery(ctx, &bot.AnswerCallbackQueryParams{
			CallbackQueryID: update.CallbackQuery.ID,
			Text:            accessDeniedText,
			ShowAlert:       true,
		})
	case update.Message != nil:
		_, err = b.SendMessage(ctx, &bot.SendMessageParams{
			ChatID: update.Message.Chat.ID,
			Text:   accessDeniedText,
		})
	}
	if err != nil {
		logger.Error("Failed to send access denied reply", zap.Error(err))
	}
}
