package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ewabotjur/legal-assistant-go/internal/domain"
	"github.com/ewabotjur/legal-assistant-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
)

// telegramMessageLimit is kept under the Bot API's 4096-character cap
// to leave room for formatting.
const telegramMessageLimit = 4000

// TelegramClient sends messages through the Bot API.
type TelegramClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewTelegramClient creates a new TelegramClient. baseURL is normally
// https://api.telegram.org; tests point it at a local server.
func NewTelegramClient(httpClient *http.Client, baseURL, token string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *TelegramClient {
	return &TelegramClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		token:      token,
		cb:         cb,
		cfg:        cfg,
	}
}

// SendMessage delivers text to a chat, splitting messages that exceed
// the Bot API length cap.
func (c *TelegramClient) SendMessage(ctx context.Context, chatID int64, text string) error {
	ctx, span := tracer.Start(ctx, "TelegramClient.SendMessage")
	defer span.End()
	span.SetAttributes(attribute.Int64("telegram.chat_id", chatID))

	for _, part := range SplitMessage(text, telegramMessageLimit) {
		if err := c.sendPart(ctx, chatID, part); err != nil {
			return err
		}
	}
	return nil
}

func (c *TelegramClient) sendPart(ctx context.Context, chatID int64, text string) error {
	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(map[string]any{
				"chat_id": chatID,
				"text":    text,
			})
			if err != nil {
				return err
			}

			url := fmt.Sprintf("%s/bot%s/sendMessage", c.baseURL, c.token)
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
			}
			return nil
		})
		return nil, innerErr
	})

	if err != nil {
		return &domain.ErrExternalService{Service: "telegram", Err: err}
	}
	return nil
}

// SplitMessage breaks text into chunks of at most limit runes,
// preferring newline boundaries.
func SplitMessage(text string, limit int) []string {
	runes := []rune(text)
	if len(runes) <= limit {
		return []string{text}
	}

	var parts []string
	rest := runes
	for len(rest) > 0 {
		if len(rest) <= limit {
			parts = append(parts, string(rest))
			break
		}
		cut := limit
		if idx := lastIndexRune(rest[:limit], '\n'); idx > 0 {
			cut = idx
		}
		parts = append(parts, string(rest[:cut]))
		rest = []rune(strings.TrimLeft(string(rest[cut:]), "\n "))
	}
	return parts
}

func lastIndexRune(runes []rune, r rune) int {
	for i := len(runes) - 1; i >= 0; i-- {
		if runes[i] == r {
			return i
		}
	}
	return -1
}
