// Package httpadapter fronts a remote verification provider over JSON/HTTP.
package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"residency/internal/onboarding/models"
	"residency/internal/onboarding/providers"
	"residency/pkg/platform/circuit"
)

// HTTPDoer is the minimal interface needed from an HTTP client.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Config configures an Adapter.
type Config struct {
	ID         string
	BaseURL    string
	APIKey     string
	Timeout    time.Duration
	HTTPClient HTTPDoer
	Logger     *slog.Logger
	// BreakerOptions tune the circuit breaker shared by all three operations.
	BreakerOptions []circuit.Option
}

// Adapter implements the provider interfaces against a remote service.
type Adapter struct {
	id      string
	baseURL string
	apiKey  string
	client  HTTPDoer
	breaker *circuit.Breaker
	logger  *slog.Logger
}

var (
	_ providers.DocumentVerifier = (*Adapter)(nil)
	_ providers.NameChecker      = (*Adapter)(nil)
	_ providers.Registrar        = (*Adapter)(nil)
	_ providers.HealthChecker    = (*Adapter)(nil)
)

// New creates an HTTP adapter.
func New(cfg Config) *Adapter {
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.ID == "" {
		cfg.ID = "http"
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		id:      cfg.ID,
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		client:  client,
		breaker: circuit.New(cfg.ID, cfg.BreakerOptions...),
		logger:  logger,
	}
}

// BreakerState exposes the breaker for health reporting.
func (a *Adapter) BreakerState() circuit.State {
	return a.breaker.State()
}

type verifyRequest struct {
	Kind    models.DocumentKind `json:"kind"`
	Payload []byte              `json:"payload"`
}

type verifyResponse struct {
	ExtractedData map[string]string `json:"extracted_data"`
	Score         float64           `json:"score"`
	CheckedAt     time.Time         `json:"checked_at"`
}

type nameRequest struct {
	Name string `json:"name"`
}

type nameResponse struct {
	Available    bool     `json:"available"`
	Alternatives []string `json:"alternatives"`
}

type incorporateRequest struct {
	Name      string           `json:"name"`
	LegalType models.LegalType `json:"legal_type"`
}

type incorporateResponse struct {
	RegistrationNumber string `json:"registration_number"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// VerifyDocument posts the document to /v1/documents/verify.
func (a *Adapter) VerifyDocument(ctx context.Context, kind models.DocumentKind, payload []byte) (*providers.DocumentResult, error) {
	var resp verifyResponse
	if err := a.call(ctx, http.MethodPost, "/v1/documents/verify", "", verifyRequest{Kind: kind, Payload: payload}, &resp); err != nil {
		return nil, err
	}
	if resp.Score < 0 || resp.Score > 1 {
		return nil, providers.NewProviderError(providers.ErrorBadData, a.id, fmt.Sprintf("score %v out of range", resp.Score), nil)
	}
	return &providers.DocumentResult{
		ExtractedData: resp.ExtractedData,
		Score:         resp.Score,
		CheckedAt:     resp.CheckedAt,
	}, nil
}

// CheckNameAvailability posts the candidate to /v1/names/check.
func (a *Adapter) CheckNameAvailability(ctx context.Context, candidate string) (*providers.NameResult, error) {
	var resp nameResponse
	if err := a.call(ctx, http.MethodPost, "/v1/names/check", "", nameRequest{Name: candidate}, &resp); err != nil {
		return nil, err
	}
	return &providers.NameResult{Available: resp.Available, Alternatives: resp.Alternatives}, nil
}

// Incorporate posts to /v1/entities with the token as Idempotency-Key.
func (a *Adapter) Incorporate(ctx context.Context, req providers.IncorporationRequest) (*providers.IncorporationResult, error) {
	var resp incorporateResponse
	body := incorporateRequest{Name: req.Name, LegalType: req.LegalType}
	if err := a.call(ctx, http.MethodPost, "/v1/entities", req.Token, body, &resp); err != nil {
		return nil, err
	}
	if resp.RegistrationNumber == "" {
		return nil, providers.NewProviderError(providers.ErrorBadData, a.id, "missing registration number", nil)
	}
	return &providers.IncorporationResult{RegistrationNumber: resp.RegistrationNumber}, nil
}

// Health checks if the provider is available.
func (a *Adapter) Health(ctx context.Context) error {
	if a.breaker.State() == circuit.StateOpen {
		return providers.NewProviderError(providers.ErrorProviderOutage, a.id, "circuit open", providers.ErrCircuitOpen)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	a.setHeaders(req, "")
	resp, err := a.client.Do(req)
	if err != nil {
		return providers.NewProviderError(providers.ErrorProviderOutage, a.id, "health check failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return providers.NewProviderError(providers.ErrorProviderOutage, a.id, fmt.Sprintf("unhealthy status: %d", resp.StatusCode), nil)
	}
	return nil
}

// call performs one JSON round trip through the breaker.
func (a *Adapter) call(ctx context.Context, method, path, idempotencyKey string, in, out any) error {
	if !a.breaker.Allow() {
		return providers.NewProviderError(providers.ErrorProviderOutage, a.id, "circuit open", providers.ErrCircuitOpen)
	}
	err := a.do(ctx, method, path, idempotencyKey, in, out)
	a.record(err)
	return err
}

func (a *Adapter) do(ctx context.Context, method, path, idempotencyKey string, in, out any) error {
	body, err := json.Marshal(in)
	if err != nil {
		return providers.NewProviderError(providers.ErrorInternal, a.id, "failed to marshal request", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return providers.NewProviderError(providers.ErrorInternal, a.id, "failed to create request", err)
	}
	a.setHeaders(req, idempotencyKey)

	resp, err := a.client.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return providers.NewProviderError(providers.ErrorTimeout, a.id, "request timeout", err)
		}
		return providers.NewProviderError(providers.ErrorProviderOutage, a.id, "failed to execute request", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return providers.NewProviderError(providers.ErrorBadData, a.id, "failed to read response", err)
	}

	if category, failed := classifyStatus(resp.StatusCode); failed {
		return providers.NewProviderError(category, a.id, errorMessage(resp.StatusCode, raw), nil)
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return providers.NewProviderError(providers.ErrorBadData, a.id, "failed to parse response", err)
	}
	return nil
}

func (a *Adapter) setHeaders(req *http.Request, idempotencyKey string) {
	req.Header.Set("Content-Type", "application/json")
	if a.apiKey != "" {
		req.Header.Set("X-API-Key", a.apiKey)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}
}

// record feeds the breaker. Answers that reflect the input (rejected, bad
// data) count as success: the provider is up.
func (a *Adapter) record(err error) {
	var change circuit.StateChange
	switch providers.GetCategory(err) {
	case providers.ErrorTimeout, providers.ErrorProviderOutage, providers.ErrorRateLimited:
		if err != nil {
			change = a.breaker.RecordFailure()
		}
	default:
		change = a.breaker.RecordSuccess()
	}
	if change.Opened {
		a.logger.Warn("provider circuit opened", "provider", a.id)
	}
	if change.Closed {
		a.logger.Info("provider circuit closed", "provider", a.id)
	}
}

func classifyStatus(status int) (providers.ErrorCategory, bool) {
	switch {
	case status >= 200 && status < 300:
		return "", false
	case status == http.StatusUnprocessableEntity, status == http.StatusConflict:
		return providers.ErrorRejected, true
	case status == http.StatusBadRequest:
		return providers.ErrorBadData, true
	case status == http.StatusTooManyRequests:
		return providers.ErrorRateLimited, true
	case status == http.StatusGatewayTimeout, status == http.StatusRequestTimeout:
		return providers.ErrorTimeout, true
	case status >= 500:
		return providers.ErrorProviderOutage, true
	default:
		return providers.ErrorInternal, true
	}
}

func errorMessage(status int, raw []byte) string {
	var er errorResponse
	if err := json.Unmarshal(raw, &er); err == nil {
		if er.Message != "" {
			return er.Message
		}
		if er.Error != "" {
			return er.Error
		}
	}
	return fmt.Sprintf("unexpected status %d", status)
}
