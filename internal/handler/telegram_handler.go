package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/ewabotjur/legal-assistant-go/internal/domain"
	"github.com/ewabotjur/legal-assistant-go/internal/port"
	"github.com/ewabotjur/legal-assistant-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// secretTokenHeader is set by Telegram on every webhook delivery when
// the webhook was registered with a secret.
const secretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

const helpText = "Я помогаю с юридическими задачами: структурирование документов, " +
	"подготовка к спору, правовые заключения, ответы на претензии, таблицы рисков, " +
	"проверка контрагентов по ИНН.\n\n" +
	"Команды:\n" +
	"/company_check <ИНН> — карточка контрагента\n" +
	"/new_task — начать новую задачу\n" +
	"/clear_memory — забыть контекст чата\n" +
	"/ping — проверка связи\n\n" +
	"Или просто опишите задачу свободным текстом."

// TelegramConfig carries webhook auth settings.
type TelegramConfig struct {
	WebhookSecret  string
	AllowedUserIDs map[int64]bool
}

// telegramWebhookHandler processes Bot API updates: secret check, user
// whitelist, command dispatch, then the assistant for free text.
//
// It always answers 200 to Telegram for payloads it chooses to ignore;
// non-200 makes Telegram redeliver the same update.
func telegramWebhookHandler(svc *service.Assistant, sender port.TelegramSender, cfg TelegramConfig, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /telegram/webhook")
		defer span.End()

		if cfg.WebhookSecret != "" && r.Header.Get(secretTokenHeader) != cfg.WebhookSecret {
			logger.Warn("telegram webhook: bad secret token",
				zap.String("remote_addr", r.RemoteAddr),
			)
			writeError(w, http.StatusUnauthorized, "bad secret token")
			return
		}

		var update domain.TelegramUpdate
		if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
			writeError(w, http.StatusBadRequest, "invalid update payload")
			return
		}

		message := update.Message
		if message == nil {
			message = update.EditedMessage
		}
		if message == nil || message.Text == "" {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
			return
		}

		if len(cfg.AllowedUserIDs) > 0 {
			if message.From == nil || !cfg.AllowedUserIDs[message.From.ID] {
				logger.Warn("telegram webhook: user not in whitelist",
					zap.Int64("chat_id", message.Chat.ID),
				)
				// 200 on purpose: a rejection must not trigger redelivery.
				writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
				return
			}
		}

		chatID := message.Chat.ID
		span.SetAttributes(attribute.Int64("telegram.chat_id", chatID))

		reply := dispatchTelegram(ctx, svc, strconv.FormatInt(chatID, 10), message.Text, logger)
		if reply != "" {
			if err := sender.SendMessage(ctx, chatID, reply); err != nil {
				logger.Error("telegram send failed",
					zap.Int64("chat_id", chatID),
					zap.Error(err),
				)
			}
		}

		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

// dispatchTelegram handles bot commands itself and hands everything
// else to the assistant. It returns the reply text, or "" when there is
// nothing to send.
func dispatchTelegram(ctx context.Context, svc *service.Assistant, chatID, text string, logger *zap.Logger) string {
	trimmed := strings.TrimSpace(text)

	if strings.HasPrefix(trimmed, "/") {
		command, args := splitCommand(trimmed)
		switch command {
		case "/start", "/help":
			return helpText
		case "/ping":
			return "pong"
		case "/clear_memory":
			if err := svc.ClearMemory(ctx, chatID); err != nil {
				logger.Error("clear memory failed", zap.String("chat_id", chatID), zap.Error(err))
				return "Не удалось очистить контекст, попробуйте ещё раз."
			}
			return "Контекст чата очищен."
		case "/new_task":
			if err := svc.SetScenarioOverride(ctx, chatID, ""); err != nil {
				logger.Error("reset override failed", zap.String("chat_id", chatID), zap.Error(err))
			}
			return "Начинаем новую задачу. Опишите, что нужно сделать."
		case "/company_check":
			inn := strings.TrimSpace(args)
			if inn == "" {
				if err := svc.SetScenarioOverride(ctx, chatID, domain.ScenarioDadataCard); err != nil {
					logger.Error("set override failed", zap.String("chat_id", chatID), zap.Error(err))
				}
				return "Пришлите ИНН контрагента (10 или 12 цифр)."
			}
			card, err := svc.LookupCompany(ctx, inn)
			if err != nil {
				logger.Warn("company check failed",
					zap.String("chat_id", chatID),
					zap.String("inn", inn),
					zap.Error(err),
				)
				return companyErrorText(inn, err)
			}
			return service.RenderCard(card)
		default:
			return fmt.Sprintf("Неизвестная команда %s. Наберите /help.", command)
		}
	}

	reply, err := svc.HandleMessage(ctx, "telegram", chatID, trimmed)
	if err != nil {
		logger.Error("assistant failed",
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
		return "Не получилось обработать запрос, попробуйте ещё раз позже."
	}
	return reply.Text
}

func splitCommand(text string) (command, args string) {
	command, args, _ = strings.Cut(text, " ")
	// Strip the bot-mention suffix Telegram adds in groups.
	command, _, _ = strings.Cut(command, "@")
	return command, args
}

func companyErrorText(inn string, err error) string {
	var validation *domain.ErrValidation
	var notFound *domain.ErrNotFound
	switch {
	case errors.As(err, &validation):
		return fmt.Sprintf("«%s» не похоже на корректный ИНН: нужно 10 или 12 цифр с верной контрольной суммой.", inn)
	case errors.As(err, &notFound):
		return fmt.Sprintf("Компания с ИНН %s не найдена в реестре.", inn)
	default:
		return "Сервис проверки контрагентов временно недоступен, попробуйте позже."
	}
}
