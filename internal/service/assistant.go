package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ewabotjur/legal-assistant-go/internal/domain"
	"github.com/ewabotjur/legal-assistant-go/internal/infra/observability"
	"github.com/ewabotjur/legal-assistant-go/internal/port"
	"github.com/ewabotjur/legal-assistant-go/internal/routing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var tracer = otel.Tracer("service/assistant")

// documentTextThreshold is the rune count above which an incoming
// message is treated as a pasted document and kept in chat memory for
// follow-up requests ("составь таблицу рисков" after pasting a contract).
const documentTextThreshold = 400

// Assistant orchestrates routing, company lookup and model calls for
// one incoming chat message.
type Assistant struct {
	router     *routing.Router
	company    *Company
	completion port.CompletionClient
	memory     port.MemoryStore
	cases      port.CaseStore
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewAssistant creates the assistant service with all dependencies
// injected. memory and cases may be nil: the assistant then runs
// stateless and skips persistence instead of failing.
func NewAssistant(
	router *routing.Router,
	company *Company,
	completion port.CompletionClient,
	memory port.MemoryStore,
	cases port.CaseStore,
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Assistant {
	return &Assistant{
		router:     router,
		company:    company,
		completion: completion,
		memory:     memory,
		cases:      cases,
		metrics:    metrics,
		logger:     logger,
	}
}

// Route exposes the bare routing decision (used by the debug endpoint).
func (a *Assistant) Route(text string) domain.RoutingDecision {
	decision := a.router.Route(text)
	a.metrics.RecordRoutingDecision(decision)
	return decision
}

// LookupCompany validates and resolves an INN to a scored card (used by
// the dedicated /v1/company route).
func (a *Assistant) LookupCompany(ctx context.Context, inn string) (*domain.CompanyCard, error) {
	return a.company.Lookup(ctx, inn)
}

// SetScenarioOverride pins the chat to one scenario until the user
// starts a new task. Unknown scenario ids are rejected.
func (a *Assistant) SetScenarioOverride(ctx context.Context, chatID, scenarioID string) error {
	if _, ok := SystemPrompt(scenarioID); !ok && scenarioID != domain.ScenarioDadataCard && scenarioID != "" {
		return &domain.ErrValidation{Field: "scenario_id", Message: "unknown scenario"}
	}
	if a.memory == nil {
		return nil
	}
	memory := a.loadMemory(ctx, chatID)
	memory.ScenarioOverride = scenarioID
	memory.UpdatedAt = time.Now().UTC()
	return a.memory.SaveMemory(ctx, memory)
}

// ClearMemory drops the per-chat context.
func (a *Assistant) ClearMemory(ctx context.Context, chatID string) error {
	if a.memory == nil {
		return nil
	}
	return a.memory.ClearMemory(ctx, chatID)
}

// HandleMessage processes one free-text chat message end to end:
// load memory, route, execute the scenario, persist the outcome.
func (a *Assistant) HandleMessage(ctx context.Context, transport, chatID, text string) (*domain.AssistantReply, error) {
	// Bail out early if the caller already cancelled.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "Assistant.HandleMessage")
	defer span.End()
	span.SetAttributes(
		attribute.String("chat.id", chatID),
		attribute.String("chat.transport", transport),
	)

	start := time.Now()
	defer func() {
		a.metrics.RecordRequestDuration("assistant", time.Since(start))
	}()

	memory := a.loadMemory(ctx, chatID)

	decision := a.router.Route(text)
	if memory.ScenarioOverride != "" {
		if _, ok := SystemPrompt(memory.ScenarioOverride); ok || memory.ScenarioOverride == domain.ScenarioDadataCard {
			decision = domain.RoutingDecision{
				ScenarioID:          memory.ScenarioOverride,
				Confidence:          1.0,
				IsConfident:         true,
				ClarifyingQuestions: []string{},
			}
		}
	}
	a.metrics.RecordRoutingDecision(decision)
	span.SetAttributes(
		attribute.String("routing.scenario", decision.ScenarioID),
		attribute.Float64("routing.confidence", decision.Confidence),
	)

	reply, err := a.executeScenario(ctx, decision, memory, text)
	if err != nil {
		a.metrics.IncrRequest("error")
		return nil, err
	}
	a.metrics.IncrRequest("success")

	// Long pastes are almost always documents; keep them for follow-ups.
	if len([]rune(text)) >= documentTextThreshold {
		memory.LastDocumentText = text
	}
	memory.UpdatedAt = time.Now().UTC()

	a.persistOutcome(ctx, transport, chatID, memory, decision, text)

	return reply, nil
}

func (a *Assistant) executeScenario(ctx context.Context, decision domain.RoutingDecision, memory *domain.ChatMemory, text string) (*domain.AssistantReply, error) {
	if !decision.IsConfident {
		return &domain.AssistantReply{
			Text:     clarificationText(decision.ClarifyingQuestions),
			Decision: &decision,
		}, nil
	}

	switch decision.ScenarioID {
	case domain.ScenarioDadataCard:
		return a.companyCardReply(ctx, decision, text)
	case domain.ScenarioRiskTable:
		if doc := documentFor(memory, text); doc != "" {
			analysis := AnalyzeContractRisks(doc)
			return &domain.AssistantReply{
				Text:     FormatRiskTable(analysis),
				Decision: &decision,
			}, nil
		}
	}

	return a.completionReply(ctx, decision, memory, text)
}

func (a *Assistant) companyCardReply(ctx context.Context, decision domain.RoutingDecision, text string) (*domain.AssistantReply, error) {
	inn := ExtractINN(text)
	if inn == "" {
		// The hard gate guarantees a digit run is present, but the
		// override path can get here without one.
		return &domain.AssistantReply{
			Text:     "Пришлите ИНН контрагента (10 или 12 цифр).",
			Decision: &decision,
		}, nil
	}

	card, err := a.company.Lookup(ctx, inn)
	if err != nil {
		return nil, err
	}

	replyText := RenderCard(card)
	if commentary := a.companyCommentary(ctx, card); commentary != "" {
		replyText += "\n\n" + commentary
	}
	return &domain.AssistantReply{
		Text:     replyText,
		Decision: &decision,
		Card:     card,
	}, nil
}

// companyCommentary asks the model to narrate the registry card: overall
// assessment, risks, documents to request. Best-effort: a model failure
// degrades to the bare card instead of failing the lookup.
func (a *Assistant) companyCommentary(ctx context.Context, card *domain.CompanyCard) string {
	resp, err := a.completion.Complete(ctx, &domain.CompletionRequest{
		SystemPrompt: companyAnalysisPrompt,
		UserMessage:  RenderCard(card),
	})
	if err != nil {
		a.logger.Warn("company commentary failed, sending bare card",
			zap.String("inn", card.Profile.INN),
			zap.Error(err),
		)
		a.metrics.IncrExternalError("openai")
		return ""
	}
	a.metrics.RecordTokens(resp.TokensUsed.PromptTokens, resp.TokensUsed.CompletionTokens)
	return strings.TrimSpace(resp.Answer)
}

func (a *Assistant) completionReply(ctx context.Context, decision domain.RoutingDecision, memory *domain.ChatMemory, text string) (*domain.AssistantReply, error) {
	prompt, ok := SystemPrompt(decision.ScenarioID)
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "scenario prompt", ID: decision.ScenarioID}
	}

	userMessage := text
	if doc := memory.LastDocumentText; doc != "" && doc != text {
		userMessage = fmt.Sprintf("Документ:\n%s\n\nЗапрос:\n%s", doc, text)
	}

	llmStart := time.Now()
	resp, err := a.completion.Complete(ctx, &domain.CompletionRequest{
		SystemPrompt: prompt,
		UserMessage:  userMessage,
	})
	a.metrics.RecordRequestDuration("completion", time.Since(llmStart))

	if err != nil {
		a.logger.Error("completion call failed",
			zap.String("scenario", decision.ScenarioID),
			zap.Error(err),
		)
		a.metrics.IncrExternalError("openai")
		return nil, fmt.Errorf("completion call: %w", err)
	}

	a.metrics.RecordTokens(resp.TokensUsed.PromptTokens, resp.TokensUsed.CompletionTokens)

	return &domain.AssistantReply{
		Text:       resp.Answer,
		Decision:   &decision,
		TokensUsed: &resp.TokensUsed,
	}, nil
}

// loadMemory never fails the request: a broken store degrades to a
// fresh empty memory.
func (a *Assistant) loadMemory(ctx context.Context, chatID string) *domain.ChatMemory {
	if a.memory == nil {
		return &domain.ChatMemory{ChatID: chatID}
	}
	memory, err := a.memory.GetMemory(ctx, chatID)
	if err != nil {
		a.logger.Warn("memory load failed, starting fresh",
			zap.String("chat_id", chatID),
			zap.Error(err),
		)
		return &domain.ChatMemory{ChatID: chatID}
	}
	if memory == nil {
		return &domain.ChatMemory{ChatID: chatID}
	}
	return memory
}

// persistOutcome writes memory and the audit case record concurrently.
// Both writes are best-effort: the reply is already built and a storage
// hiccup must not turn a delivered answer into an error.
func (a *Assistant) persistOutcome(ctx context.Context, transport, chatID string, memory *domain.ChatMemory, decision domain.RoutingDecision, text string) {
	g, gCtx := errgroup.WithContext(ctx)

	if a.memory != nil {
		g.Go(func() error {
			if err := a.memory.SaveMemory(gCtx, memory); err != nil {
				a.logger.Warn("memory save failed",
					zap.String("chat_id", chatID),
					zap.Error(err),
				)
			}
			return nil
		})
	}
	if a.cases != nil {
		g.Go(func() error {
			record := &domain.CaseRecord{
				ID:         uuid.NewString(),
				ChatID:     chatID,
				Transport:  transport,
				ScenarioID: decision.ScenarioID,
				Confidence: decision.Confidence,
				Message:    text,
				CreatedAt:  time.Now().UTC(),
			}
			if err := a.cases.InsertCase(gCtx, record); err != nil {
				a.logger.Warn("case record insert failed",
					zap.String("chat_id", chatID),
					zap.Error(err),
				)
			}
			return nil
		})
	}

	_ = g.Wait()
}

// ListCases returns recent audit records for the admin API.
func (a *Assistant) ListCases(ctx context.Context, since time.Time, limit int) ([]domain.CaseRecord, error) {
	if a.cases == nil {
		return []domain.CaseRecord{}, nil
	}
	return a.cases.ListCases(ctx, since, limit)
}

func documentFor(memory *domain.ChatMemory, text string) string {
	if len([]rune(text)) >= documentTextThreshold {
		return text
	}
	return memory.LastDocumentText
}

func clarificationText(questions []string) string {
	var b strings.Builder
	b.WriteString("Я не до конца понял запрос. Уточните, пожалуйста:\n")
	for _, q := range questions {
		b.WriteString("• ")
		b.WriteString(q)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
