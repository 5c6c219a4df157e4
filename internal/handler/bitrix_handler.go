package handler

import (
	"net/http"

	"github.com/ewabotjur/legal-assistant-go/internal/domain"
	"github.com/ewabotjur/legal-assistant-go/internal/infra/client"
	"github.com/ewabotjur/legal-assistant-go/internal/port"
	"github.com/ewabotjur/legal-assistant-go/internal/service"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// bitrixMessageLimit caps inbound chat messages; imbot truncates longer
// payloads unpredictably, so the bot asks the user to shorten instead.
const bitrixMessageLimit = 1000

// bitrixInstallHandler redirects the browser to the portal's OAuth
// consent page.
func bitrixInstallHandler(bitrix *client.BitrixClient) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, bitrix.AuthURL(), http.StatusFound)
	}
}

// bitrixCallbackHandler finishes the OAuth flow: exchanges the code and
// persists the token pair.
func bitrixCallbackHandler(bitrix *client.BitrixClient, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /bitrix/oauth/callback")
		defer span.End()

		code := r.URL.Query().Get("code")
		if code == "" {
			writeError(w, http.StatusBadRequest, "code query parameter is required")
			return
		}

		tokens, err := bitrix.ExchangeCode(ctx, code)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		logger.Info("bitrix app installed",
			zap.String("member_id", tokens.MemberID),
			zap.String("domain", tokens.Domain),
		)
		writeJSON(w, http.StatusOK, map[string]string{
			"status":    "installed",
			"member_id": tokens.MemberID,
		})
	}
}

// bitrixEventsHandler receives imbot callbacks. Bitrix posts
// form-encoded nested keys (data[PARAMS][MESSAGE] etc).
//
// The reply is delivered through the REST API, not this response, so
// the handler answers 200 as soon as the event is dispatched.
func bitrixEventsHandler(svc *service.Assistant, sender port.BitrixSender, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /bitrix/events")
		defer span.End()

		if err := r.ParseForm(); err != nil {
			writeError(w, http.StatusBadRequest, "invalid form payload")
			return
		}

		event := domain.BitrixEvent{
			Event:    r.PostFormValue("event"),
			DialogID: r.PostFormValue("data[PARAMS][DIALOG_ID]"),
			UserID:   r.PostFormValue("data[USER][ID]"),
			Message:  r.PostFormValue("data[PARAMS][MESSAGE]"),
		}
		span.SetAttributes(attribute.String("bitrix.event", event.Event))

		if event.Event != "ONIMBOTMESSAGEADD" || event.DialogID == "" || event.Message == "" {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
			return
		}
		// Echo protection: skip events the bot produced itself.
		if r.PostFormValue("data[PARAMS][FROM_USER_ID]") == r.PostFormValue("data[BOT][ID]") {
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
			return
		}
		if len([]rune(event.Message)) > bitrixMessageLimit {
			if sendErr := sender.SendMessage(ctx, event.DialogID,
				"❌ Сообщение слишком длинное. Сократите его до 1000 символов."); sendErr != nil {
				logger.Warn("bitrix send failed", zap.Error(sendErr))
			}
			writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
			return
		}

		reply, err := svc.HandleMessage(ctx, "bitrix", "bitrix:"+event.DialogID, event.Message)
		text := ""
		if err != nil {
			logger.Error("assistant failed",
				zap.String("dialog_id", event.DialogID),
				zap.Error(err),
			)
			text = "Не получилось обработать запрос, попробуйте ещё раз позже."
		} else {
			text = reply.Text
		}

		if sendErr := sender.SendMessage(ctx, event.DialogID, text); sendErr != nil {
			logger.Error("bitrix send failed",
				zap.String("dialog_id", event.DialogID),
				zap.Error(sendErr),
			)
		}

		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}
