package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ewabotjur/legal-assistant-go/internal/domain"
	"github.com/ewabotjur/legal-assistant-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

var tracer = otel.Tracer("client")

// DadataClient fetches company registry data from the DaData
// findById/party endpoint.
type DadataClient struct {
	httpClient *http.Client
	baseURL    string
	token      string
	secret     string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewDadataClient creates a new DadataClient.
func NewDadataClient(httpClient *http.Client, baseURL, token, secret string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *DadataClient {
	return &DadataClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		token:      token,
		secret:     secret,
		cb:         cb,
		cfg:        cfg,
	}
}

// dadataResponse mirrors the suggestions payload; only the fields the
// card needs are mapped.
type dadataResponse struct {
	Suggestions []struct {
		Data dadataParty `json:"data"`
	} `json:"suggestions"`
}

type dadataParty struct {
	INN  string `json:"inn"`
	OGRN string `json:"ogrn"`
	KPP  string `json:"kpp"`
	Name struct {
		FullWithOPF  string `json:"full_with_opf"`
		ShortWithOPF string `json:"short_with_opf"`
	} `json:"name"`
	Address struct {
		UnrestrictedValue string `json:"unrestricted_value"`
		Value             string `json:"value"`
		Data              struct {
			IsMassAddress *bool `json:"is_mass_address"`
		} `json:"data"`
	} `json:"address"`
	Management struct {
		Name   string `json:"name"`
		IsMass *bool  `json:"is_mass"`
	} `json:"management"`
	State struct {
		Status           string `json:"status"`
		RegistrationDate int64  `json:"registration_date"`
	} `json:"state"`
}

// FindByINN fetches and normalizes a company profile with retry,
// circuit breaker, and tracing.
func (c *DadataClient) FindByINN(ctx context.Context, inn string) (*domain.CompanyProfile, error) {
	ctx, span := tracer.Start(ctx, "DadataClient.FindByINN")
	defer span.End()
	span.SetAttributes(attribute.String("company.inn", inn))

	var payload dadataResponse

	result, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			body, err := json.Marshal(map[string]string{"query": inn})
			if err != nil {
				return err
			}

			url := fmt.Sprintf("%s/suggestions/api/4_1/rs/findById/party", c.baseURL)
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Token "+c.token)
			if c.secret != "" {
				req.Header.Set("X-Secret", c.secret)
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("dadata API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&payload)
		})
		if innerErr != nil {
			return nil, innerErr
		}

		if len(payload.Suggestions) == 0 {
			return nil, &domain.ErrNotFound{Resource: "company", ID: inn}
		}
		return normalizeParty(&payload.Suggestions[0].Data), nil
	})

	if err != nil {
		// ErrNotFound stays reachable through Unwrap for errors.As.
		return nil, &domain.ErrExternalService{Service: "dadata", Err: err}
	}

	return result.(*domain.CompanyProfile), nil
}

func normalizeParty(data *dadataParty) *domain.CompanyProfile {
	name := data.Name.FullWithOPF
	if name == "" {
		name = data.Name.ShortWithOPF
	}

	address := data.Address.UnrestrictedValue
	if address == "" {
		address = data.Address.Value
	}

	registrationDate := ""
	if ts := data.State.RegistrationDate; ts > 0 {
		registrationDate = time.UnixMilli(ts).UTC().Format("2006-01-02")
	}

	return &domain.CompanyProfile{
		Name:             name,
		INN:              data.INN,
		OGRN:             data.OGRN,
		KPP:              data.KPP,
		Address:          address,
		Director:         data.Management.Name,
		Status:           data.State.Status,
		RegistrationDate: registrationDate,
		MassAddress:      data.Address.Data.IsMassAddress != nil && *data.Address.Data.IsMassAddress,
		MassDirector:     data.Management.IsMass != nil && *data.Management.IsMass,
	}
}
