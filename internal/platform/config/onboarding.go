package config

import (
	"fmt"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Onboarding is the workflow policy. It is loaded once at startup and never mutated.
type Onboarding struct {
	MaxVerificationAttempts int           `yaml:"max_verification_attempts"`
	MaxDocumentRejections   int           `yaml:"max_document_rejections"`
	VerificationTimeout     time.Duration `yaml:"verification_timeout"`
	NameCheckTimeout        time.Duration `yaml:"name_check_timeout"`
	IncorporationTimeout    time.Duration `yaml:"incorporation_timeout"`
	RetryBaseDelay          time.Duration `yaml:"retry_base_delay"`
	NameSettleWindow        time.Duration `yaml:"name_settle_window"`
	InactivityTimeout       time.Duration `yaml:"inactivity_timeout"`

	// KYCRequirements maps a KYC level to the document kinds that must be verified to reach it.
	// The identity gate uses the "enhanced" entry.
	KYCRequirements map[string][]string `yaml:"kyc_requirements"`

	Plans []Plan `yaml:"plans"`
}

// Plan is one entry of the residency plan catalog.
type Plan struct {
	ID           string          `yaml:"id"`
	Name         string          `yaml:"name"`
	MonthlyPrice decimal.Decimal `yaml:"monthly_price"`
	Currency     string          `yaml:"currency"`
	Features     []string        `yaml:"features"`
	MinKYCLevel  string          `yaml:"min_kyc_level"`
}

// Defaults returns the built-in policy.
func Defaults() Onboarding {
	return Onboarding{
		MaxVerificationAttempts: 3,
		MaxDocumentRejections:   3,
		VerificationTimeout:     5 * time.Second,
		NameCheckTimeout:        3 * time.Second,
		IncorporationTimeout:    10 * time.Second,
		RetryBaseDelay:          100 * time.Millisecond,
		NameSettleWindow:        time.Second,
		InactivityTimeout:       30 * 24 * time.Hour,
		KYCRequirements: map[string][]string{
			"enhanced": {"photo_id", "selfie"},
			"premium":  {"photo_id", "selfie", "proof_of_address"},
		},
		Plans: []Plan{
			{
				ID: "starter", Name: "Starter", MonthlyPrice: decimal.RequireFromString("29.00"), Currency: "EUR",
				Features: []string{"single_entity", "email_support"}, MinKYCLevel: "enhanced",
			},
			{
				ID: "business", Name: "Business", MonthlyPrice: decimal.RequireFromString("79.00"), Currency: "EUR",
				Features: []string{"multiple_entities", "accounting_export", "priority_support"}, MinKYCLevel: "enhanced",
			},
			{
				ID: "premium", Name: "Premium", MonthlyPrice: decimal.RequireFromString("199.00"), Currency: "EUR",
				Features: []string{"multiple_entities", "dedicated_manager", "banking_introductions"}, MinKYCLevel: "premium",
			},
		},
	}
}

// LoadOnboarding reads a YAML policy file. Keys missing from the file keep their defaults.
func LoadOnboarding(path string) (Onboarding, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Onboarding{}, fmt.Errorf("read onboarding config: %w", err)
	}
	return ParseOnboarding(raw)
}

// ParseOnboarding decodes a YAML policy document on top of Defaults().
func ParseOnboarding(raw []byte) (Onboarding, error) {
	cfg := Defaults()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return Onboarding{}, fmt.Errorf("parse onboarding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Onboarding{}, err
	}
	return cfg, nil
}

var knownKinds = map[string]bool{"photo_id": true, "selfie": true, "proof_of_address": true}
var knownLevels = map[string]bool{"basic": true, "enhanced": true, "premium": true, "enterprise": true}

// Validate rejects inconsistent policies.
func (o Onboarding) Validate() error {
	if o.MaxVerificationAttempts < 1 {
		return fmt.Errorf("max_verification_attempts must be at least 1")
	}
	if o.MaxDocumentRejections < 1 {
		return fmt.Errorf("max_document_rejections must be at least 1")
	}
	if o.VerificationTimeout <= 0 || o.NameCheckTimeout <= 0 || o.IncorporationTimeout <= 0 {
		return fmt.Errorf("provider timeouts must be positive")
	}
	if o.NameSettleWindow < 0 || o.RetryBaseDelay < 0 {
		return fmt.Errorf("name_settle_window and retry_base_delay must not be negative")
	}
	if o.InactivityTimeout <= 0 {
		return fmt.Errorf("inactivity_timeout must be positive")
	}
	if len(o.KYCRequirements["enhanced"]) == 0 {
		return fmt.Errorf("kyc_requirements.enhanced must list at least one document kind")
	}
	for level, kinds := range o.KYCRequirements {
		if !knownLevels[level] {
			return fmt.Errorf("kyc_requirements: unknown level %q", level)
		}
		for _, k := range kinds {
			if !knownKinds[k] {
				return fmt.Errorf("kyc_requirements.%s: unknown document kind %q", level, k)
			}
		}
	}
	if len(o.Plans) == 0 {
		return fmt.Errorf("plan catalog must not be empty")
	}
	seen := make(map[string]bool, len(o.Plans))
	for _, p := range o.Plans {
		if p.ID == "" {
			return fmt.Errorf("plan id must not be empty")
		}
		if seen[p.ID] {
			return fmt.Errorf("duplicate plan id %q", p.ID)
		}
		seen[p.ID] = true
		if p.MonthlyPrice.IsNegative() {
			return fmt.Errorf("plan %q: monthly_price must not be negative", p.ID)
		}
		if p.MinKYCLevel != "" && !knownLevels[p.MinKYCLevel] {
			return fmt.Errorf("plan %q: unknown min_kyc_level %q", p.ID, p.MinKYCLevel)
		}
	}
	return nil
}

// requestSlack covers store round trips and CAS merges around provider calls.
const requestSlack = 5 * time.Second

// RequestBudget is the longest an onboarding request may run: the worst case
// of a document submission spending every verification attempt and backoff,
// or an incorporation re-checking the name and then filing.
func (o Onboarding) RequestBudget() time.Duration {
	documents := time.Duration(o.MaxVerificationAttempts) * o.VerificationTimeout
	for i := 1; i < o.MaxVerificationAttempts; i++ {
		documents += o.RetryBaseDelay << (i - 1)
	}
	incorporation := o.NameCheckTimeout + o.IncorporationTimeout
	return max(documents, incorporation) + requestSlack
}
