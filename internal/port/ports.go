// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"
	"time"

	"github.com/ewabotjur/legal-assistant-go/internal/domain"
)

// CompanyFetcher retrieves a company profile from the registry API by INN.
type CompanyFetcher interface {
	FindByINN(ctx context.Context, inn string) (*domain.CompanyProfile, error)
}

// CompletionClient invokes the language model service.
type CompletionClient interface {
	Complete(ctx context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error)
}

// TelegramSender delivers outbound messages to Telegram chats.
type TelegramSender interface {
	SendMessage(ctx context.Context, chatID int64, text string) error
}

// BitrixSender delivers outbound messages to Bitrix24 open-line dialogs.
type BitrixSender interface {
	SendMessage(ctx context.Context, dialogID, text string) error
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// MemoryStore persists per-chat conversation state.
type MemoryStore interface {
	GetMemory(ctx context.Context, chatID string) (*domain.ChatMemory, error)
	SaveMemory(ctx context.Context, memory *domain.ChatMemory) error
	ClearMemory(ctx context.Context, chatID string) error
}

// TokenStore persists Bitrix24 OAuth tokens across restarts.
type TokenStore interface {
	GetTokens(ctx context.Context, memberID string) (*domain.BitrixTokens, error)
	SaveTokens(ctx context.Context, tokens *domain.BitrixTokens) error
}

// CaseStore records processed requests for the admin audit trail.
type CaseStore interface {
	InsertCase(ctx context.Context, record *domain.CaseRecord) error
	ListCases(ctx context.Context, since time.Time, limit int) ([]domain.CaseRecord, error)
}
