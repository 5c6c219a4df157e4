package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ewabotjur/legal-assistant-go/internal/domain"
	"github.com/ewabotjur/legal-assistant-go/internal/infra/cache"
	"github.com/ewabotjur/legal-assistant-go/internal/infra/observability"
	"github.com/ewabotjur/legal-assistant-go/internal/port"
	"github.com/ewabotjur/legal-assistant-go/internal/routing"
	"github.com/ewabotjur/legal-assistant-go/internal/service"

	"go.uber.org/zap"
)

// --- Mocks ---

type mockCompanyFetcher struct {
	profile *domain.CompanyProfile
	err     error
}

func (m *mockCompanyFetcher) FindByINN(_ context.Context, _ string) (*domain.CompanyProfile, error) {
	return m.profile, m.err
}

type mockCompletionClient struct {
	response *domain.CompletionResponse
	err      error

	mu       sync.Mutex
	requests []*domain.CompletionRequest
}

func (m *mockCompletionClient) Complete(_ context.Context, req *domain.CompletionRequest) (*domain.CompletionResponse, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()
	return m.response, m.err
}

type mockMemoryStore struct {
	mu       sync.Mutex
	memories map[string]*domain.ChatMemory
	getErr   error
}

func newMockMemoryStore() *mockMemoryStore {
	return &mockMemoryStore{memories: make(map[string]*domain.ChatMemory)}
}

func (m *mockMemoryStore) GetMemory(_ context.Context, chatID string) (*domain.ChatMemory, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	return m.memories[chatID], nil
}

func (m *mockMemoryStore) SaveMemory(_ context.Context, memory *domain.ChatMemory) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memories[memory.ChatID] = memory
	return nil
}

func (m *mockMemoryStore) ClearMemory(_ context.Context, chatID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.memories, chatID)
	return nil
}

type mockCaseStore struct {
	mu      sync.Mutex
	records []*domain.CaseRecord
	err     error
}

func (m *mockCaseStore) InsertCase(_ context.Context, record *domain.CaseRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, record)
	return nil
}

func (m *mockCaseStore) ListCases(_ context.Context, _ time.Time, _ int) ([]domain.CaseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.CaseRecord, 0, len(m.records))
	for _, r := range m.records {
		out = append(out, *r)
	}
	return out, nil
}

// --- Helpers ---

func activeProfile() *domain.CompanyProfile {
	return &domain.CompanyProfile{
		Name:             `ПАО "Сбербанк"`,
		INN:              "7707083893",
		OGRN:             "1027700132195",
		KPP:              "773601001",
		Address:          "г Москва, ул Вавилова, д 19",
		Director:         "Греф Герман Оскарович",
		Status:           "ACTIVE",
		RegistrationDate: "1991-06-20",
	}
}

func newTestAssistant(t *testing.T, fetcher *mockCompanyFetcher, completion *mockCompletionClient, memory port.MemoryStore, cases port.CaseStore) *service.Assistant {
	t.Helper()

	catalog, err := routing.DefaultCatalog()
	if err != nil {
		t.Fatalf("default catalog: %v", err)
	}

	metrics := observability.NewMetrics()
	logger := zap.NewNop()
	company := service.NewCompany(fetcher, cache.New[*domain.CompanyCard](5*time.Minute), metrics, logger)

	return service.NewAssistant(routing.New(catalog), company, completion, memory, cases, metrics, logger)
}

// --- Tests ---

func TestHandleMessage_CompanyLookup(t *testing.T) {
	fetcher := &mockCompanyFetcher{profile: activeProfile()}
	completion := &mockCompletionClient{response: &domain.CompletionResponse{Answer: "Компания выглядит надёжной."}}
	cases := &mockCaseStore{}

	svc := newTestAssistant(t, fetcher, completion, newMockMemoryStore(), cases)

	reply, err := svc.HandleMessage(context.Background(), "telegram", "42", "проверь контрагента 7707083893")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if reply.Card == nil {
		t.Fatal("expected a company card in the reply")
	}
	if reply.Card.Score.RiskLevel != domain.RiskLow {
		t.Errorf("expected LOW risk, got %s", reply.Card.Score.RiskLevel)
	}
	if !strings.Contains(reply.Text, "7707083893") {
		t.Errorf("card text should contain the INN, got: %s", reply.Text)
	}
	if !strings.Contains(reply.Text, "Компания выглядит надёжной.") {
		t.Errorf("card should be followed by model commentary, got: %s", reply.Text)
	}
	if len(completion.requests) != 1 {
		t.Fatalf("expected one commentary call, got %d", len(completion.requests))
	}
	if !strings.Contains(completion.requests[0].UserMessage, "7707083893") {
		t.Error("commentary call must carry the rendered card")
	}
	if len(cases.records) != 1 {
		t.Fatalf("expected one case record, got %d", len(cases.records))
	}
	if cases.records[0].ScenarioID != domain.ScenarioDadataCard {
		t.Errorf("case record scenario: got %s", cases.records[0].ScenarioID)
	}
}

func TestHandleMessage_CompanyCommentaryDegradesToBareCard(t *testing.T) {
	fetcher := &mockCompanyFetcher{profile: activeProfile()}
	completion := &mockCompletionClient{err: errors.New("model unavailable")}

	svc := newTestAssistant(t, fetcher, completion, newMockMemoryStore(), &mockCaseStore{})

	reply, err := svc.HandleMessage(context.Background(), "telegram", "42", "проверь контрагента 7707083893")
	if err != nil {
		t.Fatalf("model failure must not fail the lookup, got %v", err)
	}
	if reply.Card == nil {
		t.Fatal("expected a company card in the reply")
	}
	if !strings.Contains(reply.Text, "7707083893") {
		t.Errorf("bare card should still be delivered, got: %s", reply.Text)
	}
}

func TestHandleMessage_ModelScenario(t *testing.T) {
	completion := &mockCompletionClient{
		response: &domain.CompletionResponse{
			Answer:     "Ответ на претензию подготовлен.",
			TokensUsed: domain.TokenUsage{PromptTokens: 300, CompletionTokens: 150, TotalTokens: 450},
		},
	}

	svc := newTestAssistant(t, &mockCompanyFetcher{}, completion, newMockMemoryStore(), &mockCaseStore{})

	reply, err := svc.HandleMessage(context.Background(), "telegram", "42", "нужно подготовить ответ на претензию")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if reply.Text != "Ответ на претензию подготовлен." {
		t.Errorf("unexpected reply text: %s", reply.Text)
	}
	if reply.TokensUsed == nil || reply.TokensUsed.TotalTokens != 450 {
		t.Errorf("expected token usage in reply, got %+v", reply.TokensUsed)
	}
	if len(completion.requests) != 1 {
		t.Fatalf("expected one completion call, got %d", len(completion.requests))
	}
	if completion.requests[0].SystemPrompt == "" {
		t.Error("completion call must carry the scenario system prompt")
	}
}

func TestHandleMessage_AmbiguousAsksToClarify(t *testing.T) {
	completion := &mockCompletionClient{response: &domain.CompletionResponse{Answer: "unused"}}

	svc := newTestAssistant(t, &mockCompanyFetcher{}, completion, newMockMemoryStore(), &mockCaseStore{})

	reply, err := svc.HandleMessage(context.Background(), "telegram", "42", "какие риски в этом договоре?")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if reply.Decision == nil || reply.Decision.IsConfident {
		t.Fatalf("expected a low-confidence decision, got %+v", reply.Decision)
	}
	if len(completion.requests) != 0 {
		t.Error("clarification must not reach the model")
	}
	if !strings.Contains(reply.Text, "did you mean") {
		t.Errorf("clarification text should list candidates, got: %s", reply.Text)
	}
}

func TestHandleMessage_RiskTableFromStoredDocument(t *testing.T) {
	memory := newMockMemoryStore()
	contract := strings.Repeat("Поставщик уплачивает неустойку за нарушение срока поставки. ", 10)
	memory.memories["42"] = &domain.ChatMemory{ChatID: "42", LastDocumentText: contract}

	completion := &mockCompletionClient{response: &domain.CompletionResponse{Answer: "unused"}}
	svc := newTestAssistant(t, &mockCompanyFetcher{}, completion, memory, &mockCaseStore{})

	reply, err := svc.HandleMessage(context.Background(), "telegram", "42", "составь таблицу рисков по договору")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if !strings.Contains(reply.Text, "| № | Риск |") {
		t.Errorf("expected a Markdown risk table, got: %s", reply.Text)
	}
	if !strings.Contains(reply.Text, "штрафные санкции") {
		t.Errorf("expected the penalty risk row, got: %s", reply.Text)
	}
	if len(completion.requests) != 0 {
		t.Error("deterministic risk table must not reach the model")
	}
}

func TestHandleMessage_LongPasteStoredAsDocument(t *testing.T) {
	memory := newMockMemoryStore()
	completion := &mockCompletionClient{response: &domain.CompletionResponse{Answer: "ok"}}
	svc := newTestAssistant(t, &mockCompanyFetcher{}, completion, memory, &mockCaseStore{})

	document := "Договор поставки. " + strings.Repeat("Существенные условия договора согласованы сторонами. ", 20)
	if _, err := svc.HandleMessage(context.Background(), "telegram", "42", document); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	saved, _ := memory.GetMemory(context.Background(), "42")
	if saved == nil || saved.LastDocumentText != document {
		t.Error("long paste should be kept as the chat's document context")
	}
}

func TestHandleMessage_ScenarioOverride(t *testing.T) {
	memory := newMockMemoryStore()
	memory.memories["42"] = &domain.ChatMemory{ChatID: "42", ScenarioOverride: domain.ScenarioClientExplanation}

	completion := &mockCompletionClient{response: &domain.CompletionResponse{Answer: "объясняю просто"}}
	svc := newTestAssistant(t, &mockCompanyFetcher{}, completion, memory, &mockCaseStore{})

	reply, err := svc.HandleMessage(context.Background(), "telegram", "42", "что это значит")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if reply.Decision.ScenarioID != domain.ScenarioClientExplanation {
		t.Errorf("override should pin the scenario, got %s", reply.Decision.ScenarioID)
	}
}

func TestHandleMessage_CompletionError(t *testing.T) {
	completion := &mockCompletionClient{err: errors.New("model unavailable")}
	svc := newTestAssistant(t, &mockCompanyFetcher{}, completion, newMockMemoryStore(), &mockCaseStore{})

	_, err := svc.HandleMessage(context.Background(), "telegram", "42", "нужно подготовить ответ на претензию")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestHandleMessage_CompanyFetchError(t *testing.T) {
	fetcher := &mockCompanyFetcher{err: errors.New("connection refused")}
	svc := newTestAssistant(t, fetcher, &mockCompletionClient{}, newMockMemoryStore(), &mockCaseStore{})

	_, err := svc.HandleMessage(context.Background(), "telegram", "42", "проверь контрагента 7707083893")
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestHandleMessage_BrokenMemoryDegrades(t *testing.T) {
	memory := newMockMemoryStore()
	memory.getErr = errors.New("connection refused")

	completion := &mockCompletionClient{response: &domain.CompletionResponse{Answer: "ok"}}
	svc := newTestAssistant(t, &mockCompanyFetcher{}, completion, memory, &mockCaseStore{})

	if _, err := svc.HandleMessage(context.Background(), "telegram", "42", "нужно подготовить ответ на претензию"); err != nil {
		t.Fatalf("broken memory store must not fail the request, got %v", err)
	}
}

func TestHandleMessage_NilStoresRunStateless(t *testing.T) {
	completion := &mockCompletionClient{response: &domain.CompletionResponse{Answer: "ok"}}
	svc := newTestAssistant(t, &mockCompanyFetcher{}, completion, nil, nil)

	if _, err := svc.HandleMessage(context.Background(), "rest", "42", "нужно подготовить ответ на претензию"); err != nil {
		t.Fatalf("nil stores must degrade to stateless operation, got %v", err)
	}
}

func TestHandleMessage_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel() // cancel immediately

	completion := &mockCompletionClient{response: &domain.CompletionResponse{Answer: "ok"}}
	svc := newTestAssistant(t, &mockCompanyFetcher{}, completion, newMockMemoryStore(), &mockCaseStore{})

	if _, err := svc.HandleMessage(ctx, "telegram", "42", "test"); err == nil {
		t.Fatal("expected context error, got nil")
	}
}
