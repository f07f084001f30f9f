// Package verification wraps the external providers with deadlines, tracing,
// error translation and name-check coalescing. It never retries; retry
// budgets belong to the orchestrator.
package verification

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"residency/internal/onboarding/metrics"
	"residency/internal/onboarding/models"
	"residency/internal/onboarding/providers"
	"residency/internal/onboarding/tracer"
	dErrors "residency/pkg/domain-errors"
	"residency/pkg/platform/privacy"
	"residency/pkg/platform/strings"
)

const (
	defaultSettleWindow    = time.Second
	defaultNameTimeout     = 3 * time.Second
	maxAlternatives        = 5
	nameCachePruneAtLength = 1024
)

// NameAvailability is the answer to an entity-name check.
type NameAvailability struct {
	Candidate    string   `json:"candidate"`
	Available    bool     `json:"available"`
	Alternatives []string `json:"alternatives"`
}

type cachedName struct {
	result NameAvailability
	at     time.Time
}

// Client is the verification client used by the orchestrator.
type Client struct {
	verifier  providers.DocumentVerifier
	names     providers.NameChecker
	registrar providers.Registrar

	tracer      tracer.Tracer
	metrics     *metrics.Metrics
	logger      *slog.Logger
	now         func() time.Time
	settle      time.Duration
	nameTimeout time.Duration

	group     singleflight.Group
	mu        sync.Mutex
	nameCache map[string]cachedName
}

// Option configures a Client.
type Option func(*Client)

func WithTracer(t tracer.Tracer) Option {
	return func(c *Client) { c.tracer = t }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithSettleWindow sets how long a name-check answer is reused. Zero disables reuse.
func WithSettleWindow(d time.Duration) Option {
	return func(c *Client) { c.settle = d }
}

// WithNameTimeout bounds each name-check call.
func WithNameTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.nameTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// New creates a Client. The mock provider satisfies all three interfaces.
func New(verifier providers.DocumentVerifier, names providers.NameChecker, registrar providers.Registrar, opts ...Option) *Client {
	c := &Client{
		verifier:    verifier,
		names:       names,
		registrar:   registrar,
		tracer:      tracer.NewNoop(),
		logger:      slog.Default(),
		now:         time.Now,
		settle:      defaultSettleWindow,
		nameTimeout: defaultNameTimeout,
		nameCache:   make(map[string]cachedName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// VerifyDocument runs one verification bounded by deadline. Failures come
// back as domain errors: VerificationRejected, VerificationTimeout or
// ProviderUnavailable.
func (c *Client) VerifyDocument(ctx context.Context, kind models.DocumentKind, payload []byte, deadline time.Duration) (result *providers.DocumentResult, err error) {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()
	ctx, span := c.tracer.Start(ctx, tracer.SpanVerifyDocument,
		tracer.String(tracer.AttrDocumentKind, string(kind)),
		tracer.Duration(tracer.AttrDeadline, deadline),
	)
	start := c.now()
	defer func() {
		c.observe("verify_document", start)
		span.End(err)
	}()

	res, err := c.verifier.VerifyDocument(ctx, kind, payload)
	if err != nil {
		span.SetAttributes(tracer.String(tracer.AttrCategory, string(providers.GetCategory(err))))
		return nil, translate(ctx, err, fmt.Sprintf("%s verification", kind))
	}
	if res == nil || res.Score < 0 || res.Score > 1 {
		return nil, dErrors.New(dErrors.CodeVerificationRejected, fmt.Sprintf("%s verification returned an invalid score", kind))
	}
	if res.CheckedAt.IsZero() {
		res.CheckedAt = c.now()
	}
	span.SetAttributes(tracer.Float64("score", res.Score))
	return res, nil
}

// CheckNameAvailability answers whether candidate is free. Concurrent checks
// of the same name share one provider call, and an answer is reused for the
// settle window.
func (c *Client) CheckNameAvailability(ctx context.Context, candidate string) (NameAvailability, error) {
	key := strings.NameKey(candidate)
	if key == "" {
		return NameAvailability{}, dErrors.New(dErrors.CodeValidation, "entity name is required")
	}
	if cached, ok := c.cached(key); ok {
		c.recordNameCheck("coalesced")
		return withCandidate(cached, candidate), nil
	}
	return c.checkShared(ctx, key, candidate)
}

// CheckNameFresh skips the settle cache. Incorporation uses it to re-validate
// a name right before filing.
func (c *Client) CheckNameFresh(ctx context.Context, candidate string) (NameAvailability, error) {
	key := strings.NameKey(candidate)
	if key == "" {
		return NameAvailability{}, dErrors.New(dErrors.CodeValidation, "entity name is required")
	}
	c.forget(key)
	return c.checkShared(ctx, key, candidate)
}

func (c *Client) checkShared(ctx context.Context, key, candidate string) (NameAvailability, error) {
	v, err, shared := c.group.Do(key, func() (any, error) {
		return c.callNameChecker(ctx, key, candidate)
	})
	if err != nil {
		return NameAvailability{}, err
	}
	if shared {
		c.recordNameCheck("coalesced")
	}
	return withCandidate(v.(NameAvailability), candidate), nil
}

func (c *Client) callNameChecker(ctx context.Context, key, candidate string) (result NameAvailability, err error) {
	// Detached so one caller's cancellation does not fail the others sharing the call.
	callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.nameTimeout)
	defer cancel()
	callCtx, span := c.tracer.Start(callCtx, tracer.SpanCheckName,
		tracer.String(tracer.AttrEntityNameKey, privacy.HashIdentifier(key)),
	)
	start := c.now()
	defer func() {
		c.observe("check_name", start)
		span.End(err)
	}()

	res, err := c.names.CheckNameAvailability(callCtx, strings.CollapseSpaces(candidate))
	if err != nil {
		c.recordNameCheck("error")
		return NameAvailability{}, translate(callCtx, err, "name availability check")
	}

	result = NameAvailability{Available: res.Available, Alternatives: []string{}}
	if !res.Available {
		alts := make([]string, 0, len(res.Alternatives))
		for _, alt := range res.Alternatives {
			if strings.NameKey(alt) != key {
				alts = append(alts, alt)
			}
		}
		result.Alternatives = strings.DedupeByKey(alts, strings.NameKey, maxAlternatives)
		c.recordNameCheck("taken")
	} else {
		c.recordNameCheck("available")
	}
	span.SetAttributes(
		tracer.Bool(tracer.AttrAvailable, result.Available),
		tracer.Int(tracer.AttrAlternatives, len(result.Alternatives)),
	)
	c.remember(key, result)
	return result, nil
}

// Incorporate files the entity with the registrar, bounded by deadline.
func (c *Client) Incorporate(ctx context.Context, req providers.IncorporationRequest, deadline time.Duration) (result *providers.IncorporationResult, err error) {
	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()
	ctx, span := c.tracer.Start(ctx, tracer.SpanIncorporate,
		tracer.String(tracer.AttrEntityNameKey, privacy.HashIdentifier(strings.NameKey(req.Name))),
		tracer.String("entity.legal_type", string(req.LegalType)),
	)
	start := c.now()
	defer func() {
		c.observe("incorporate", start)
		span.End(err)
	}()

	res, err := c.registrar.Incorporate(ctx, req)
	if err != nil {
		return nil, translate(ctx, err, "incorporation")
	}
	if res == nil || res.RegistrationNumber == "" {
		return nil, dErrors.New(dErrors.CodeProviderUnavailable, "registrar returned no registration number")
	}
	c.forget(strings.NameKey(req.Name))
	return res, nil
}

// Health reports provider reachability when the providers support it.
func (c *Client) Health(ctx context.Context) error {
	for _, p := range []any{c.verifier, c.names, c.registrar} {
		if hc, ok := p.(providers.HealthChecker); ok {
			if err := hc.Health(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c *Client) cached(key string) (NameAvailability, bool) {
	if c.settle <= 0 {
		return NameAvailability{}, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	entry, ok := c.nameCache[key]
	if !ok || c.now().Sub(entry.at) >= c.settle {
		return NameAvailability{}, false
	}
	return entry.result, true
}

func (c *Client) remember(key string, result NameAvailability) {
	if c.settle <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if len(c.nameCache) >= nameCachePruneAtLength {
		for k, entry := range c.nameCache {
			if now.Sub(entry.at) >= c.settle {
				delete(c.nameCache, k)
			}
		}
	}
	c.nameCache[key] = cachedName{result: result, at: now}
}

func (c *Client) forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.nameCache, key)
}

func (c *Client) observe(op string, start time.Time) {
	if c.metrics != nil {
		c.metrics.ObserveProviderDuration(op, c.now().Sub(start).Seconds())
	}
}

func (c *Client) recordNameCheck(result string) {
	if c.metrics != nil {
		c.metrics.RecordNameCheck(result)
	}
}

func withCandidate(r NameAvailability, candidate string) NameAvailability {
	r.Candidate = strings.CollapseSpaces(candidate)
	r.Alternatives = append([]string(nil), r.Alternatives...)
	if r.Alternatives == nil {
		r.Alternatives = []string{}
	}
	return r
}

// translate maps provider failures onto the domain taxonomy.
func translate(ctx context.Context, err error, what string) error {
	var pe *providers.ProviderError
	if errors.As(err, &pe) {
		switch pe.Category {
		case providers.ErrorTimeout:
			return dErrors.Wrap(err, dErrors.CodeVerificationTimeout, what+" timed out")
		case providers.ErrorRejected, providers.ErrorBadData:
			return dErrors.Wrap(err, dErrors.CodeVerificationRejected, pe.Message)
		default:
			return dErrors.Wrap(err, dErrors.CodeProviderUnavailable, what+" unavailable")
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return dErrors.Wrap(err, dErrors.CodeVerificationTimeout, what+" timed out")
	}
	if errors.Is(err, context.Canceled) {
		return dErrors.Wrap(err, dErrors.CodeInternal, what+" canceled")
	}
	return dErrors.Wrap(err, dErrors.CodeProviderUnavailable, what+" failed")
}
