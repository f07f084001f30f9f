package models

import (
	"github.com/shopspring/decimal"

	id "residency/pkg/domain"
)

// Plan is an entry of the residency plan catalog.
type Plan struct {
	ID           id.PlanID       `json:"id"`
	Name         string          `json:"name"`
	MonthlyPrice decimal.Decimal `json:"monthly_price"`
	Currency     string          `json:"currency"`
	Features     []string        `json:"features"`
	// MinKYCLevel is the level a session needs before it may select this plan.
	MinKYCLevel KYCLevel `json:"min_kyc_level"`
}

// Catalog is the immutable plan list, in display order.
type Catalog struct {
	plans []Plan
	byID  map[id.PlanID]Plan
}

// NewCatalog indexes plans. Later duplicates are ignored.
func NewCatalog(plans []Plan) *Catalog {
	c := &Catalog{byID: make(map[id.PlanID]Plan, len(plans))}
	for _, p := range plans {
		if _, dup := c.byID[p.ID]; dup {
			continue
		}
		c.plans = append(c.plans, p)
		c.byID[p.ID] = p
	}
	return c
}

// Get looks up a plan.
func (c *Catalog) Get(planID id.PlanID) (Plan, bool) {
	p, ok := c.byID[planID]
	return p, ok
}

// List returns a copy of all plans.
func (c *Catalog) List() []Plan {
	out := make([]Plan, len(c.plans))
	copy(out, c.plans)
	return out
}
