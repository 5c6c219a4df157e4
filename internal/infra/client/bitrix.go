package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ewabotjur/legal-assistant-go/internal/domain"
	"github.com/ewabotjur/legal-assistant-go/internal/infra/resilience"
	"github.com/ewabotjur/legal-assistant-go/internal/port"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// tokenExpirySlack refreshes tokens this long before their actual
// expiry so an in-flight call never hits a just-expired token.
const tokenExpirySlack = 60 * time.Second

// BitrixClient talks to a Bitrix24 portal: OAuth 2.0 token lifecycle
// plus imbot message delivery. Tokens survive restarts via the token
// store.
type BitrixClient struct {
	httpClient   *http.Client
	domain       string
	clientID     string
	clientSecret string
	redirectURL  string
	tokens       port.TokenStore
	cb           *gobreaker.CircuitBreaker
	cfg          resilience.Config
	logger       *zap.Logger
}

// NewBitrixClient creates a new BitrixClient.
func NewBitrixClient(
	httpClient *http.Client,
	portalDomain, clientID, clientSecret, redirectURL string,
	tokens port.TokenStore,
	cb *gobreaker.CircuitBreaker,
	cfg resilience.Config,
	logger *zap.Logger,
) *BitrixClient {
	return &BitrixClient{
		httpClient:   httpClient,
		domain:       strings.TrimRight(portalDomain, "/"),
		clientID:     clientID,
		clientSecret: clientSecret,
		redirectURL:  redirectURL,
		tokens:       tokens,
		cb:           cb,
		cfg:          cfg,
		logger:       logger,
	}
}

// AuthURL builds the portal consent URL for the imbot scope.
func (c *BitrixClient) AuthURL() string {
	q := url.Values{}
	q.Set("client_id", c.clientID)
	q.Set("redirect_uri", c.redirectURL)
	q.Set("response_type", "code")
	q.Set("scope", "imbot")
	return fmt.Sprintf("%s/oauth/authorize/?%s", c.domain, q.Encode())
}

type bitrixTokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	MemberID     string `json:"member_id"`
	Error        string `json:"error"`
	ErrorDesc    string `json:"error_description"`
}

// ExchangeCode trades an OAuth authorization code for tokens and
// persists them.
func (c *BitrixClient) ExchangeCode(ctx context.Context, code string) (*domain.BitrixTokens, error) {
	ctx, span := tracer.Start(ctx, "BitrixClient.ExchangeCode")
	defer span.End()

	return c.requestTokens(ctx, url.Values{
		"grant_type":    {"authorization_code"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"code":          {code},
		"redirect_uri":  {c.redirectURL},
	})
}

// refreshTokens renews an expired token pair.
func (c *BitrixClient) refreshTokens(ctx context.Context, refreshToken string) (*domain.BitrixTokens, error) {
	ctx, span := tracer.Start(ctx, "BitrixClient.refreshTokens")
	defer span.End()

	return c.requestTokens(ctx, url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {c.clientID},
		"client_secret": {c.clientSecret},
		"refresh_token": {refreshToken},
	})
}

func (c *BitrixClient) requestTokens(ctx context.Context, form url.Values) (*domain.BitrixTokens, error) {
	var tokenResp bitrixTokenResponse

	_, err := c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			endpoint := fmt.Sprintf("%s/oauth/token/", c.domain)
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("bitrix oauth returned status %d", resp.StatusCode)
			}
			return json.NewDecoder(resp.Body).Decode(&tokenResp)
		})
		return nil, innerErr
	})
	if err != nil {
		return nil, &domain.ErrExternalService{Service: "bitrix", Err: err}
	}
	if tokenResp.Error != "" {
		return nil, &domain.ErrExternalService{
			Service: "bitrix",
			Err:     fmt.Errorf("oauth error %s: %s", tokenResp.Error, tokenResp.ErrorDesc),
		}
	}

	tokens := &domain.BitrixTokens{
		MemberID:     tokenResp.MemberID,
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		Domain:       c.domain,
		ExpiresAt:    time.Now().UTC().Add(time.Duration(tokenResp.ExpiresIn) * time.Second),
	}

	if c.tokens != nil {
		if err := c.tokens.SaveTokens(ctx, tokens); err != nil {
			// A failed save costs one extra refresh after restart, not
			// the current request.
			c.logger.Warn("bitrix token save failed", zap.Error(err))
		}
	}
	return tokens, nil
}

// accessToken returns a valid access token, refreshing through the
// store when the persisted one is near expiry.
func (c *BitrixClient) accessToken(ctx context.Context) (string, error) {
	if c.tokens == nil {
		return "", &domain.ErrConfig{Reason: "bitrix token store not configured"}
	}
	tokens, err := c.tokens.GetTokens(ctx, "")
	if err != nil {
		return "", fmt.Errorf("load bitrix tokens: %w", err)
	}
	if tokens == nil {
		return "", &domain.ErrUnauthorized{Message: "bitrix app not installed: no tokens stored"}
	}

	if time.Until(tokens.ExpiresAt) > tokenExpirySlack {
		return tokens.AccessToken, nil
	}

	refreshed, err := c.refreshTokens(ctx, tokens.RefreshToken)
	if err != nil {
		return "", err
	}
	return refreshed.AccessToken, nil
}

// SendMessage delivers text to an open-line dialog via imbot.message.add.
func (c *BitrixClient) SendMessage(ctx context.Context, dialogID, text string) error {
	ctx, span := tracer.Start(ctx, "BitrixClient.SendMessage")
	defer span.End()
	span.SetAttributes(attribute.String("bitrix.dialog_id", dialogID))

	auth, err := c.accessToken(ctx)
	if err != nil {
		return err
	}

	var apiResp struct {
		Error     string `json:"error"`
		ErrorDesc string `json:"error_description"`
	}

	_, err = c.cb.Execute(func() (any, error) {
		innerErr := resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			form := url.Values{
				"auth":      {auth},
				"DIALOG_ID": {dialogID},
				"MESSAGE":   {text},
			}
			endpoint := fmt.Sprintf("%s/rest/imbot.message.add", c.domain)
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
			if err != nil {
				return err
			}
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("bitrix API returned status %d", resp.StatusCode)
			}
			if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
				return err
			}
			if apiResp.Error != "" {
				return fmt.Errorf("bitrix API error %s: %s", apiResp.Error, apiResp.ErrorDesc)
			}
			return nil
		})
		return nil, innerErr
	})

	if err != nil {
		return &domain.ErrExternalService{Service: "bitrix", Err: err}
	}
	return nil
}
