package main

import (
	"fmt"

	"residency/internal/onboarding/models"
	"residency/internal/onboarding/service"
	"residency/internal/onboarding/workflow"
	"residency/internal/platform/config"
	id "residency/pkg/domain"
)

// catalogFromPolicy converts the configured plans. Plans without a level default to enhanced.
func catalogFromPolicy(policy config.Onboarding) (*models.Catalog, error) {
	plans := make([]models.Plan, 0, len(policy.Plans))
	for _, p := range policy.Plans {
		level := models.KYCEnhanced
		if p.MinKYCLevel != "" {
			parsed, ok := models.ParseKYCLevel(p.MinKYCLevel)
			if !ok {
				return nil, fmt.Errorf("plan %s: unknown kyc level %q", p.ID, p.MinKYCLevel)
			}
			level = parsed
		}
		plans = append(plans, models.Plan{
			ID:           id.PlanID(p.ID),
			Name:         p.Name,
			MonthlyPrice: p.MonthlyPrice,
			Currency:     p.Currency,
			Features:     p.Features,
			MinKYCLevel:  level,
		})
	}
	return models.NewCatalog(plans), nil
}

func engineConfig(policy config.Onboarding, catalog *models.Catalog, demoBypass bool) (workflow.Config, error) {
	reqs := make(map[models.KYCLevel][]models.DocumentKind, len(policy.KYCRequirements))
	for name, kinds := range policy.KYCRequirements {
		level, ok := models.ParseKYCLevel(name)
		if !ok {
			return workflow.Config{}, fmt.Errorf("unknown kyc level %q", name)
		}
		for _, k := range kinds {
			kind := models.DocumentKind(k)
			if !kind.IsValid() {
				return workflow.Config{}, fmt.Errorf("kyc level %s: unknown document kind %q", name, k)
			}
			reqs[level] = append(reqs[level], kind)
		}
	}
	return workflow.Config{
		Requirements:          reqs,
		Catalog:               catalog,
		MaxDocumentRejections: policy.MaxDocumentRejections,
		DemoBypass:            demoBypass,
	}, nil
}

func serviceConfig(policy config.Onboarding) service.Config {
	return service.Config{
		MaxVerificationAttempts: policy.MaxVerificationAttempts,
		VerificationTimeout:     policy.VerificationTimeout,
		IncorporationTimeout:    policy.IncorporationTimeout,
		RetryBaseDelay:          policy.RetryBaseDelay,
	}
}
