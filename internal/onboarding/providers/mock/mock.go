// Package mock is a deterministic in-process provider used for local runs,
// demos and tests. Name checks and incorporation share one name registry.
package mock

import (
	"bytes"
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"residency/internal/onboarding/models"
	"residency/internal/onboarding/providers"
	"residency/pkg/platform/strings"
)

const providerID = "mock"

// Outcome scripts the next answer for a document kind or for incorporation.
type Outcome int

const (
	OutcomeVerify Outcome = iota
	OutcomeReject
	OutcomeTimeout
	OutcomeOutage
)

var alternativeSuffixes = []string{"Holdings", "Group", "Ventures", "Labs", "Partners", "International", "Digital"}

// Config tunes the simulation.
type Config struct {
	Seed    int64
	Latency time.Duration
	// Taken pre-registers names that are never available.
	Taken []string
}

// Provider implements DocumentVerifier, NameChecker and Registrar.
type Provider struct {
	mu      sync.Mutex
	rng     *rand.Rand
	latency time.Duration
	now     func() time.Time

	scripts       map[models.DocumentKind][]Outcome
	incorporation []Outcome
	taken         map[string]string
	byToken       map[string]*providers.IncorporationResult
	sequence      int
	calls         map[string]int
}

var (
	_ providers.DocumentVerifier = (*Provider)(nil)
	_ providers.NameChecker      = (*Provider)(nil)
	_ providers.Registrar        = (*Provider)(nil)
	_ providers.HealthChecker    = (*Provider)(nil)
)

// New creates a mock provider.
func New(cfg Config) *Provider {
	p := &Provider{
		rng:     rand.New(rand.NewPCG(uint64(cfg.Seed), 0x5eed)),
		latency: cfg.Latency,
		now:     time.Now,
		scripts: make(map[models.DocumentKind][]Outcome),
		taken:   make(map[string]string),
		byToken: make(map[string]*providers.IncorporationResult),
		calls:   make(map[string]int),
	}
	for _, name := range cfg.Taken {
		p.taken[strings.NameKey(name)] = name
	}
	return p
}

// Script queues outcomes for the next verifications of kind. Unscripted calls verify.
func (p *Provider) Script(kind models.DocumentKind, outcomes ...Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.scripts[kind] = append(p.scripts[kind], outcomes...)
}

// ScriptIncorporation queues outcomes for the next incorporations.
func (p *Provider) ScriptIncorporation(outcomes ...Outcome) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.incorporation = append(p.incorporation, outcomes...)
}

// Reserve marks names as registered.
func (p *Provider) Reserve(names ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, name := range names {
		p.taken[strings.NameKey(name)] = name
	}
}

// Calls returns how many times op ("verify", "check_name", "incorporate") ran.
func (p *Provider) Calls(op string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[op]
}

// VerifyDocument simulates a document check. Payloads containing "reject"
// are refused; everything else verifies unless a script says otherwise.
func (p *Provider) VerifyDocument(ctx context.Context, kind models.DocumentKind, payload []byte) (*providers.DocumentResult, error) {
	p.mu.Lock()
	p.calls["verify"]++
	outcome := p.next(kind)
	if outcome == OutcomeVerify && bytes.Contains(bytes.ToLower(payload), []byte("reject")) {
		outcome = OutcomeReject
	}
	score := 0.85 + p.rng.Float64()*0.14
	docNumber := p.rng.IntN(90_000_000) + 10_000_000
	p.mu.Unlock()

	if err := p.wait(ctx, outcome); err != nil {
		return nil, err
	}

	switch outcome {
	case OutcomeReject:
		return nil, providers.NewProviderError(providers.ErrorRejected, providerID, fmt.Sprintf("%s could not be matched", kind), nil)
	case OutcomeOutage:
		return nil, providers.NewProviderError(providers.ErrorProviderOutage, providerID, "verification backend unavailable", nil)
	}

	return &providers.DocumentResult{
		ExtractedData: extract(kind, docNumber),
		Score:         score,
		CheckedAt:     p.now(),
	}, nil
}

// CheckNameAvailability answers from the shared registry.
func (p *Provider) CheckNameAvailability(ctx context.Context, candidate string) (*providers.NameResult, error) {
	if err := p.wait(ctx, OutcomeVerify); err != nil {
		return nil, err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls["check_name"]++

	if _, taken := p.taken[strings.NameKey(candidate)]; !taken {
		return &providers.NameResult{Available: true}, nil
	}
	base := strings.CollapseSpaces(candidate)
	alternatives := make([]string, 0, len(alternativeSuffixes))
	for _, suffix := range alternativeSuffixes {
		alt := base + " " + suffix
		if _, taken := p.taken[strings.NameKey(alt)]; !taken {
			alternatives = append(alternatives, alt)
		}
	}
	return &providers.NameResult{Available: false, Alternatives: alternatives}, nil
}

// Incorporate registers the name and issues a registration number. A repeated
// token returns the first result.
func (p *Provider) Incorporate(ctx context.Context, req providers.IncorporationRequest) (*providers.IncorporationResult, error) {
	p.mu.Lock()
	p.calls["incorporate"]++
	if res, ok := p.byToken[req.Token]; ok && req.Token != "" {
		p.mu.Unlock()
		return res, nil
	}
	outcome := OutcomeVerify
	if len(p.incorporation) > 0 {
		outcome = p.incorporation[0]
		p.incorporation = p.incorporation[1:]
	}
	p.mu.Unlock()

	if err := p.wait(ctx, outcome); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	switch outcome {
	case OutcomeReject:
		return nil, providers.NewProviderError(providers.ErrorRejected, providerID, "registry refused the filing", nil)
	case OutcomeOutage:
		return nil, providers.NewProviderError(providers.ErrorProviderOutage, providerID, "registry unavailable", nil)
	}
	key := strings.NameKey(req.Name)
	if _, taken := p.taken[key]; taken {
		return nil, providers.NewProviderError(providers.ErrorRejected, providerID, fmt.Sprintf("name %q is already registered", req.Name), nil)
	}
	p.taken[key] = req.Name
	p.sequence++
	res := &providers.IncorporationResult{
		RegistrationNumber: fmt.Sprintf("RES-%s-%06d", legalPrefix(req.LegalType), p.sequence),
	}
	if req.Token != "" {
		p.byToken[req.Token] = res
	}
	return res, nil
}

// Health always succeeds.
func (p *Provider) Health(context.Context) error {
	return nil
}

// next pops a scripted outcome. Callers hold p.mu.
func (p *Provider) next(kind models.DocumentKind) Outcome {
	queue := p.scripts[kind]
	if len(queue) == 0 {
		return OutcomeVerify
	}
	p.scripts[kind] = queue[1:]
	return queue[0]
}

// wait simulates latency. A timeout outcome blocks until ctx is done.
func (p *Provider) wait(ctx context.Context, outcome Outcome) error {
	if outcome == OutcomeTimeout {
		if _, ok := ctx.Deadline(); !ok {
			return providers.NewProviderError(providers.ErrorTimeout, providerID, "simulated timeout", nil)
		}
		<-ctx.Done()
		return providers.NewProviderError(providers.ErrorTimeout, providerID, "simulated timeout", ctx.Err())
	}
	if p.latency <= 0 {
		return nil
	}
	timer := time.NewTimer(p.latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return providers.NewProviderError(providers.ErrorTimeout, providerID, "deadline exceeded", ctx.Err())
	}
}

func extract(kind models.DocumentKind, docNumber int) map[string]string {
	switch kind {
	case models.DocumentPhotoID:
		return map[string]string{"document_type": "passport", "document_number": fmt.Sprintf("P%d", docNumber)}
	case models.DocumentSelfie:
		return map[string]string{"liveness": "passed", "face_match": "true"}
	case models.DocumentProofOfAddress:
		return map[string]string{"document_type": "utility_bill", "reference": fmt.Sprintf("UB%d", docNumber)}
	default:
		return map[string]string{}
	}
}

func legalPrefix(t models.LegalType) string {
	switch t {
	case models.LegalTypeCorporation:
		return "CORP"
	case models.LegalTypeNonProfit:
		return "NPO"
	default:
		return "LLC"
	}
}
