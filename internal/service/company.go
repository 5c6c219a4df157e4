package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ewabotjur/legal-assistant-go/internal/domain"
	"github.com/ewabotjur/legal-assistant-go/internal/infra/observability"
	"github.com/ewabotjur/legal-assistant-go/internal/port"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// Company looks up counterparties by INN and scores them.
type Company struct {
	fetcher port.CompanyFetcher
	cache   port.Cache[*domain.CompanyCard]
	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewCompany creates the company lookup service.
func NewCompany(
	fetcher port.CompanyFetcher,
	cache port.Cache[*domain.CompanyCard],
	metrics *observability.Metrics,
	logger *zap.Logger,
) *Company {
	return &Company{
		fetcher: fetcher,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
		now:     time.Now,
	}
}

// Lookup validates the INN, fetches the registry profile and scores it.
// Cards are cached per INN: registry data moves slowly and DaData bills
// per request.
func (c *Company) Lookup(ctx context.Context, inn string) (*domain.CompanyCard, error) {
	ctx, span := tracer.Start(ctx, "Company.Lookup")
	defer span.End()
	span.SetAttributes(attribute.String("company.inn", inn))

	if err := ValidateINN(inn); err != nil {
		return nil, err
	}

	cacheKey := fmt.Sprintf("company:%s", inn)
	if cached, ok := c.cache.Get(cacheKey); ok {
		c.metrics.IncrCacheHit("company")
		return cached, nil
	}
	c.metrics.IncrCacheMiss("company")

	profile, err := c.fetcher.FindByINN(ctx, inn)
	if err != nil {
		c.logger.Error("company fetch failed",
			zap.String("inn", inn),
			zap.Error(err),
		)
		c.metrics.IncrExternalError("dadata")
		return nil, fmt.Errorf("company fetch: %w", err)
	}

	card := &domain.CompanyCard{
		Profile: profile,
		Score:   ScoreCompany(profile, c.now()),
	}
	c.cache.Set(cacheKey, card)
	return card, nil
}

// RenderCard formats a card as plain chat text.
func RenderCard(card *domain.CompanyCard) string {
	p := card.Profile
	var b strings.Builder
	b.WriteString("🧾 Карточка контрагента\n")
	fmt.Fprintf(&b, "Наименование: %s\n", orDash(p.Name))
	fmt.Fprintf(&b, "ИНН: %s\n", orDash(p.INN))
	fmt.Fprintf(&b, "ОГРН: %s\n", orDash(p.OGRN))
	fmt.Fprintf(&b, "КПП: %s\n", orDash(p.KPP))
	fmt.Fprintf(&b, "Адрес: %s\n", orDash(p.Address))
	fmt.Fprintf(&b, "Руководитель: %s\n", orDash(p.Director))
	fmt.Fprintf(&b, "Статус: %s\n", orDash(p.Status))
	fmt.Fprintf(&b, "Дата регистрации: %s\n", orDash(p.RegistrationDate))
	fmt.Fprintf(&b, "\nУровень риска: %s\n", card.Score.RiskLevel)
	for _, reason := range card.Score.Reasons {
		fmt.Fprintf(&b, "• %s\n", reason)
	}
	return strings.TrimRight(b.String(), "\n")
}

func orDash(s string) string {
	if s == "" {
		return "—"
	}
	return s
}
