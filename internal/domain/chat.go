package domain

import "time"

// TelegramUpdate is the subset of the Bot API update payload the
// webhook handler cares about.
type TelegramUpdate struct {
	UpdateID      int64            `json:"update_id"`
	Message       *TelegramMessage `json:"message,omitempty"`
	EditedMessage *TelegramMessage `json:"edited_message,omitempty"`
	CallbackQuery *CallbackQuery   `json:"callback_query,omitempty"`
}

// TelegramMessage is an incoming chat message.
type TelegramMessage struct {
	MessageID int64         `json:"message_id"`
	From      *TelegramUser `json:"from,omitempty"`
	Chat      TelegramChat  `json:"chat"`
	Text      string        `json:"text"`
}

// TelegramUser identifies the sender.
type TelegramUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
}

// TelegramChat identifies the chat a message belongs to.
type TelegramChat struct {
	ID   int64  `json:"id"`
	Type string `json:"type,omitempty"`
}

// CallbackQuery is an inline-keyboard button press.
type CallbackQuery struct {
	ID   string        `json:"id"`
	From *TelegramUser `json:"from,omitempty"`
	Data string        `json:"data,omitempty"`
}

// BitrixEvent is the imbot webhook payload from Bitrix24.
// Bitrix posts form-encoded nested keys; the handler flattens them into
// this struct before dispatch.
type BitrixEvent struct {
	Event    string
	DialogID string
	UserID   string
	Message  string
}

// BitrixTokens is the persisted OAuth 2.0 token pair for a portal.
type BitrixTokens struct {
	MemberID     string    `json:"member_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Domain       string    `json:"domain"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// ChatMemory is per-chat conversation context. The routing core itself
// is stateless; this lives with the caller and is passed in explicitly.
type ChatMemory struct {
	ChatID           string    `json:"chat_id"`
	LastDocumentText string    `json:"last_document_text,omitempty"`
	ScenarioOverride string    `json:"scenario_override,omitempty"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// AssistantReply is what the assistant service hands back to a
// transport handler for delivery.
type AssistantReply struct {
	Text       string           `json:"text"`
	Decision   *RoutingDecision `json:"decision,omitempty"`
	Card       *CompanyCard     `json:"card,omitempty"`
	TokensUsed *TokenUsage      `json:"tokens_used,omitempty"`
}

// TokenUsage reports LLM token consumption for one completion.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// CompletionRequest is the provider-agnostic LLM call.
type CompletionRequest struct {
	SystemPrompt string
	UserMessage  string
}

// CompletionResponse carries the model answer and usage accounting.
type CompletionResponse struct {
	Answer     string
	TokensUsed TokenUsage
}

// CaseRecord is a persisted routing outcome, kept for the ops API and
// manual-override audits.
type CaseRecord struct {
	ID         string    `json:"id"`
	ChatID     string    `json:"chat_id"`
	Transport  string    `json:"transport"`
	ScenarioID string    `json:"scenario_id"`
	Confidence float64   `json:"confidence"`
	Message    string    `json:"message"`
	CreatedAt  time.Time `json:"created_at"`
}
