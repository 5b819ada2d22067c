package driver

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/jmylchreest/statscrape/internal/logger"
	"github.com/jmylchreest/statscrape/pkg/browser"
)

// DefaultBrokerURL is the Browserbase API base URL.
const DefaultBrokerURL = "https://api.browserbase.com"

// ErrBrokerUnavailable indicates the session broker could not be reached or
// refused to create a session.
var ErrBrokerUnavailable = errors.New("session broker unavailable")

// Broker is a client for the Browserbase session API. It creates one remote
// browser session per run and releases it on close.
type Broker struct {
	client    *resty.Client
	projectID string
}

// Session is a remote browser session.
type Session struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	ConnectURL string `json:"connectUrl"`
	Region     string `json:"region,omitempty"`
}

type createSessionRequest struct {
	ProjectID    string            `json:"projectId"`
	UserMetadata map[string]string `json:"userMetadata,omitempty"`
}

type updateSessionRequest struct {
	ProjectID string `json:"projectId"`
	Status    string `json:"status"`
}

type brokerError struct {
	StatusCode int    `json:"statusCode"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

// NewBroker creates a broker client. An empty baseURL selects DefaultBrokerURL.
func NewBroker(baseURL, apiKey, projectID string, timeout time.Duration) *Broker {
	if baseURL == "" {
		baseURL = DefaultBrokerURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("X-BB-API-Key", apiKey).
		SetHeader("Content-Type", "application/json").
		SetTimeout(timeout)

	return &Broker{client: client, projectID: projectID}
}

// CreateSession starts a remote browser session. metadata is attached to the
// session for later inspection in the broker dashboard.
func (b *Broker) CreateSession(ctx context.Context, metadata map[string]string) (*Session, error) {
	var (
		session Session
		apiErr  brokerError
	)
	resp, err := b.client.R().
		SetContext(ctx).
		SetBody(createSessionRequest{ProjectID: b.projectID, UserMetadata: metadata}).
		SetResult(&session).
		SetError(&apiErr).
		Post("/v1/sessions")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBrokerUnavailable, err)
	}
	if resp.IsError() {
		return nil, classifyBrokerError(resp.StatusCode(), apiErr)
	}
	if session.ID == "" || session.ConnectURL == "" {
		return nil, fmt.Errorf("%w: session response missing id or connect URL", ErrBrokerUnavailable)
	}

	logger.Debug("broker session created", "session", session.ID, "region", session.Region)
	return &session, nil
}

// ReleaseSession asks the broker to end the session. Releasing an already
// finished session is not an error.
func (b *Broker) ReleaseSession(ctx context.Context, sessionID string) error {
	var apiErr brokerError
	resp, err := b.client.R().
		SetContext(ctx).
		SetPathParam("id", sessionID).
		SetBody(updateSessionRequest{ProjectID: b.projectID, Status: "REQUEST_RELEASE"}).
		SetError(&apiErr).
		Post("/v1/sessions/{id}")
	if err != nil {
		return fmt.Errorf("releasing session %s: %w", sessionID, err)
	}
	if resp.IsError() && resp.StatusCode() != http.StatusNotFound {
		return fmt.Errorf("releasing session %s: %w", sessionID, classifyBrokerError(resp.StatusCode(), apiErr))
	}

	logger.Debug("broker session released", "session", sessionID)
	return nil
}

// classifyBrokerError maps a broker error response to a typed error.
func classifyBrokerError(status int, apiErr brokerError) error {
	msg := apiErr.Message
	if msg == "" {
		msg = apiErr.Error
	}
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%w: broker rejected credentials (status %d): %s", browser.ErrMissingCredentials, status, msg)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%w: session limit reached (status %d): %s", ErrBrokerUnavailable, status, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrBrokerUnavailable, status, msg)
	}
}

// NewBrowserbase creates a broker session and attaches a ChromeHandle to it.
// Closing the handle releases the session.
func NewBrowserbase(ctx context.Context, cfg browser.Config) (*ChromeHandle, error) {
	broker := NewBroker(cfg.BrokerURL, cfg.APIKey, cfg.ProjectID, cfg.Timeout)

	metadata := map[string]string{"client": "statscrape"}
	// Informational tag for the broker dashboard; nothing reads it back.
	if cfg.ModelEndpoint != "" {
		metadata["model_endpoint"] = cfg.ModelEndpoint
	}
	session, err := broker.CreateSession(ctx, metadata)
	if err != nil {
		return nil, err
	}

	release := func() error {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return broker.ReleaseSession(releaseCtx, session.ID)
	}

	h, err := NewRemoteChrome(ctx, cfg, session.ConnectURL)
	if err != nil {
		if relErr := release(); relErr != nil {
			logger.Warn("could not release broker session", "session", session.ID, "error", relErr)
		}
		return nil, err
	}
	h.onClose = release

	logger.Info("remote browser session ready", "session", session.ID)
	return h, nil
}
