package pricing

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Plan is a named catalog entry. Tokens may differ from the converter rate (discounted bundles).
type Plan struct {
	ID         string `yaml:"id" json:"id"`
	Name       string `yaml:"name" json:"name"`
	PriceCents int64  `yaml:"price_cents" json:"price_cents"`
	Tokens     int64  `yaml:"tokens" json:"tokens"`
	Active     bool   `yaml:"active" json:"active"`
}

type catalogFile struct {
	Plans []Plan `yaml:"plans"`
}

// Catalog is an immutable, id-indexed plan list
type Catalog struct {
	order []string
	plans map[string]Plan
}

// DefaultCatalog is used when no catalog file is configured
func DefaultCatalog() *Catalog {
	c, _ := NewCatalog([]Plan{
		{ID: "starter", Name: "Starter", PriceCents: 1400, Tokens: 42, Active: true},
		{ID: "creator", Name: "Creator", PriceCents: 2900, Tokens: 95, Active: true},
		{ID: "studio", Name: "Studio", PriceCents: 9900, Tokens: 350, Active: true},
	})
	return c
}

// NewCatalog validates plans and indexes them. Duplicate or empty ids are rejected.
func NewCatalog(plans []Plan) (*Catalog, error) {
	c := &Catalog{plans: make(map[string]Plan, len(plans))}
	for _, p := range plans {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: plan without id", ErrInvalidCatalog)
		}
		if _, dup := c.plans[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate plan id %q", ErrInvalidCatalog, p.ID)
		}
		if p.Active && p.Tokens <= 0 {
			return nil, fmt.Errorf("%w: plan %q grants no tokens", ErrInvalidCatalog, p.ID)
		}
		c.plans[p.ID] = p
		c.order = append(c.order, p.ID)
	}
	return c, nil
}

// LoadCatalog reads a yaml catalog:
//
//	plans:
//	  - id: starter
//	    name: Starter
//	    price_cents: 1400
//	    tokens: 42
//	    active: true
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read plan catalog: %w", err)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var f catalogFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return NewCatalog(f.Plans)
}

// Lookup returns an active, positively priced plan
func (c *Catalog) Lookup(id string) (Plan, error) {
	p, ok := c.plans[id]
	if !ok || !p.Active || p.PriceCents <= 0 {
		return Plan{}, ErrPlanNotFound
	}
	return p, nil
}

// Active lists purchasable plans in file order
func (c *Catalog) Active() []Plan {
	out := make([]Plan, 0, len(c.order))
	for _, id := range c.order {
		if p := c.plans[id]; p.Active && p.PriceCents > 0 {
			out = append(out, p)
		}
	}
	return out
}
