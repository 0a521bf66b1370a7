// Package httpapi talks to a RevenueCat-shaped entitlement backend over
// HTTP and follows its customer-info event stream over a websocket.
package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/bnema/syntrafit-entitlements/internal/domain"
	"github.com/bnema/syntrafit-entitlements/internal/ports"
)

const (
	DefaultEntitlementID = "Pro"
	defaultTimeout       = 15 * time.Second
	maxResponseBytes     = 1 << 20
	userAgent            = "subs/httpapi"
)

type Config struct {
	BaseURL       string
	APIKey        string
	AppUserID     string
	EntitlementID string
	// EventsURL overrides the websocket endpoint derived from BaseURL.
	EventsURL  string
	HTTPClient *http.Client
}

type Client struct {
	baseURL       string
	eventsURL     string
	apiKey        string
	appUserID     string
	entitlementID string
	http          *http.Client
	clock         ports.Clock
	logger        zerolog.Logger

	listenerMu  sync.Mutex
	listener    func(domain.RemoteEntitlement)
	listenerGen uint64
}

var _ ports.RemoteEntitlementProvider = (*Client)(nil)

func NewClient(cfg Config, clock ports.Clock, logger zerolog.Logger) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("remote base url is empty")
	}
	if strings.TrimSpace(cfg.AppUserID) == "" {
		return nil, errors.New("remote app user id is empty")
	}
	if clock == nil {
		clock = ports.SystemClock{}
	}

	entitlementID := cfg.EntitlementID
	if entitlementID == "" {
		entitlementID = DefaultEntitlementID
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}

	eventsURL := cfg.EventsURL
	if eventsURL == "" {
		derived, err := deriveEventsURL(baseURL, cfg.AppUserID)
		if err != nil {
			return nil, err
		}
		eventsURL = derived
	}

	return &Client{
		baseURL:       baseURL,
		eventsURL:     eventsURL,
		apiKey:        cfg.APIKey,
		appUserID:     cfg.AppUserID,
		entitlementID: entitlementID,
		http:          httpClient,
		clock:         clock,
		logger:        logger.With().Str("component", "remote").Logger(),
	}, nil
}

func (c *Client) GetEntitlement(ctx context.Context) (domain.RemoteEntitlement, error) {
	if err := ctx.Err(); err != nil {
		return domain.RemoteEntitlement{}, err
	}

	var envelope subscriberEnvelope
	if err := c.do(ctx, http.MethodGet, c.subscriberPath(""), nil, &envelope); err != nil {
		return domain.RemoteEntitlement{}, fmt.Errorf("get entitlement: %w", err)
	}

	return c.entitlementFrom(envelope.Subscriber)
}

func (c *Client) Purchase(ctx context.Context, packageID string) (domain.RemoteEntitlement, error) {
	if err := ctx.Err(); err != nil {
		return domain.RemoteEntitlement{}, err
	}

	var envelope subscriberEnvelope
	if err := c.do(ctx, http.MethodPost, c.subscriberPath("/purchases"), purchaseRequest{PackageID: packageID}, &envelope); err != nil {
		return domain.RemoteEntitlement{}, fmt.Errorf("purchase package %q: %w", packageID, err)
	}

	return c.entitlementFrom(envelope.Subscriber)
}

func (c *Client) Restore(ctx context.Context) (domain.RemoteEntitlement, error) {
	if err := ctx.Err(); err != nil {
		return domain.RemoteEntitlement{}, err
	}

	var envelope subscriberEnvelope
	if err := c.do(ctx, http.MethodPost, c.subscriberPath("/restore"), nil, &envelope); err != nil {
		return domain.RemoteEntitlement{}, fmt.Errorf("restore purchases: %w", err)
	}

	return c.entitlementFrom(envelope.Subscriber)
}

func (c *Client) Offerings(ctx context.Context) ([]domain.Package, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var payload offeringsPayload
	if err := c.do(ctx, http.MethodGet, c.subscriberPath("/offerings"), nil, &payload); err != nil {
		return nil, fmt.Errorf("get offerings: %w", err)
	}

	return payload.packages(), nil
}

// OnEntitlementChanged installs fn as the only listener. The returned detach
// clears it unless a later call already replaced it.
func (c *Client) OnEntitlementChanged(fn func(domain.RemoteEntitlement)) func() {
	c.listenerMu.Lock()
	defer c.listenerMu.Unlock()

	c.listenerGen++
	gen := c.listenerGen
	c.listener = fn

	return func() {
		c.listenerMu.Lock()
		defer c.listenerMu.Unlock()
		if c.listenerGen == gen {
			c.listener = nil
		}
	}
}

func (c *Client) notify(entitlement domain.RemoteEntitlement) {
	c.listenerMu.Lock()
	fn := c.listener
	c.listenerMu.Unlock()

	if fn != nil {
		fn(entitlement)
	}
}

func (c *Client) entitlementFrom(subscriber subscriberPayload) (domain.RemoteEntitlement, error) {
	entitlement, err := subscriber.entitlement(c.entitlementID, c.clock.Now())
	if err != nil {
		return domain.RemoteEntitlement{}, fmt.Errorf("decode entitlement %q: %w", c.entitlementID, err)
	}

	return entitlement, nil
}

func (c *Client) subscriberPath(suffix string) string {
	return "/v1/subscribers/" + url.PathEscape(c.appUserID) + suffix
}

func (c *Client) do(ctx context.Context, method string, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", userAgent)
	if c.apiKey != "" {
		request.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.http.Do(request)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("%w: perform request: %w", domain.ErrProviderUnavailable, err)
	}
	defer response.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(response.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: read response: %w", domain.ErrProviderUnavailable, err)
	}

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return statusError(response.StatusCode, payload)
	}

	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}

	return nil
}

func statusError(status int, body []byte) error {
	var apiErr errorPayload
	_ = json.Unmarshal(body, &apiErr)

	message := strings.TrimSpace(apiErr.Message)
	if message == "" {
		message = strings.TrimSpace(string(body))
	}

	switch {
	case apiErr.Code == errorCodeUserCancelled:
		return fmt.Errorf("%w: %s", domain.ErrUserCancelled, message)
	case status >= 500 || status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d: %s", domain.ErrProviderUnavailable, status, message)
	default:
		return fmt.Errorf("status %d: %s", status, message)
	}
}

func deriveEventsURL(baseURL string, appUserID string) (string, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("parse remote base url: %w", err)
	}

	switch parsed.Scheme {
	case "https":
		parsed.Scheme = "wss"
	case "http":
		parsed.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported remote base url scheme %q", parsed.Scheme)
	}
	parsed.Path = strings.TrimRight(parsed.Path, "/") + "/v1/subscribers/" + appUserID + "/events"

	return parsed.String(), nil
}
