// Package projection computes forecast-year values for every revenue stream
// and breakdown under configurable per-item methods, resolving the circular
// dependencies between stream totals and their breakdowns algebraically in a
// fixed pass order.
package projection

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/finmodeler/statement-engine/internal/model"
	"github.com/finmodeler/statement-engine/pkg/constants"
)

// Method identifies a forecasting method for a revenue item.
type Method string

const (
	MethodGrowthRate    Method = "growth_rate"
	MethodPriceVolume   Method = "price_volume"
	MethodCustomersARPU Method = "customers_arpu"
	MethodPctOfTotal    Method = "pct_of_total"
	MethodProductLine   Method = "product_line"
	MethodChannel       Method = "channel"
)

// ValidMethod reports whether a method name is recognized.
func ValidMethod(m Method) bool {
	switch m {
	case MethodGrowthRate, MethodPriceVolume, MethodCustomersARPU,
		MethodPctOfTotal, MethodProductLine, MethodChannel:
		return true
	}
	return false
}

// LineItem is one named sub-line of a product_line or channel method.
// SharePct and GrowthPct are stored 0-100.
type LineItem struct {
	ID        string  `yaml:"id"`
	Label     string  `yaml:"label"`
	SharePct  float64 `yaml:"sharePct"`
	GrowthPct float64 `yaml:"growthPct"`
}

// Inputs is the method-specific parameter bundle for one item. Percentages
// are stored 0-100; base amounts and prices are entered in display units.
type Inputs struct {
	GrowthRate        float64            `yaml:"growthRate,omitempty"`
	YearlyGrowthRates map[string]float64 `yaml:"yearlyGrowthRates,omitempty"`
	BaseAmount        float64            `yaml:"baseAmount,omitempty"`

	BasePrice       float64 `yaml:"basePrice,omitempty"`
	PriceGrowthPct  float64 `yaml:"priceGrowthPct,omitempty"`
	BaseVolume      float64 `yaml:"baseVolume,omitempty"`
	VolumeGrowthPct float64 `yaml:"volumeGrowthPct,omitempty"`

	BaseCustomers     float64 `yaml:"baseCustomers,omitempty"`
	CustomerGrowthPct float64 `yaml:"customerGrowthPct,omitempty"`
	BaseARPU          float64 `yaml:"baseArpu,omitempty"`
	ARPUGrowthPct     float64 `yaml:"arpuGrowthPct,omitempty"`

	ReferenceID string  `yaml:"referenceId,omitempty"`
	Percent     float64 `yaml:"percent,omitempty"`

	Lines []LineItem `yaml:"lines,omitempty"`
}

// ItemConfig pairs a method with its inputs.
type ItemConfig struct {
	Method Method `yaml:"method"`
	Inputs Inputs `yaml:"inputs"`
}

// BreakdownItem is a lightweight second-level decomposition of a stream,
// evaluated by the engine and reconciled back into the stream total. It is
// not stored as a Row child.
type BreakdownItem struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
}

// Config describes how to forecast revenue. Items is keyed by stream or
// breakdown id; Allocations distributes a stream's historical base across
// breakdowns that carry no explicit base of their own.
type Config struct {
	Items       map[string]ItemConfig      `yaml:"items,omitempty"`
	Breakdowns  map[string][]BreakdownItem `yaml:"breakdowns,omitempty"`
	Allocations map[string]map[string]float64 `yaml:"allocations,omitempty"`
}

// NewConfig returns an empty configuration.
func NewConfig() *Config {
	return &Config{
		Items:       make(map[string]ItemConfig),
		Breakdowns:  make(map[string][]BreakdownItem),
		Allocations: make(map[string]map[string]float64),
	}
}

func (c *Config) init() {
	if c.Items == nil {
		c.Items = make(map[string]ItemConfig)
	}
	if c.Breakdowns == nil {
		c.Breakdowns = make(map[string][]BreakdownItem)
	}
	if c.Allocations == nil {
		c.Allocations = make(map[string]map[string]float64)
	}
}

// Item returns the configuration for an item, defaulting to pct_of_total of
// total revenue at 0% when the item has none yet. The default is persisted
// so later reads see the same entry.
func (c *Config) Item(id string) ItemConfig {
	c.init()
	if cfg, ok := c.Items[id]; ok {
		return cfg
	}
	cfg := ItemConfig{
		Method: MethodPctOfTotal,
		Inputs: Inputs{ReferenceID: model.RowRevenue, Percent: 0},
	}
	c.Items[id] = cfg
	return cfg
}

// SetMethod sets the method for an item, keeping existing inputs.
func (c *Config) SetMethod(id string, m Method) error {
	if !ValidMethod(m) {
		return fmt.Errorf("unknown projection method %q", m)
	}
	c.init()
	cfg := c.Items[id]
	cfg.Method = m
	c.Items[id] = cfg
	return nil
}

// SetInputs replaces the method inputs for an item.
func (c *Config) SetInputs(id string, in Inputs) {
	c.init()
	cfg := c.Items[id]
	cfg.Inputs = in
	c.Items[id] = cfg
}

// AddBreakdown appends a named breakdown under a stream and returns its id.
func (c *Config) AddBreakdown(streamID, label string) string {
	c.init()
	id := "bd_" + uuid.NewString()
	c.Breakdowns[streamID] = append(c.Breakdowns[streamID], BreakdownItem{ID: id, Label: label})
	return id
}

// RemoveBreakdown deletes a breakdown and its configuration and allocation.
func (c *Config) RemoveBreakdown(streamID, breakdownID string) {
	c.init()
	items := c.Breakdowns[streamID]
	out := items[:0]
	for _, b := range items {
		if b.ID != breakdownID {
			out = append(out, b)
		}
	}
	c.Breakdowns[streamID] = out
	delete(c.Items, breakdownID)
	if alloc, ok := c.Allocations[streamID]; ok {
		delete(alloc, breakdownID)
	}
}

// RenameBreakdown updates a breakdown's label.
func (c *Config) RenameBreakdown(streamID, breakdownID, label string) {
	c.init()
	for i, b := range c.Breakdowns[streamID] {
		if b.ID == breakdownID {
			c.Breakdowns[streamID][i].Label = label
			return
		}
	}
}

// SetAllocation sets the percentage (0-100) of the stream's historical base
// seeded into a breakdown.
func (c *Config) SetAllocation(streamID, breakdownID string, pct float64) {
	c.init()
	if c.Allocations[streamID] == nil {
		c.Allocations[streamID] = make(map[string]float64)
	}
	c.Allocations[streamID][breakdownID] = pct
}

// Allocation returns the allocation percentage for a breakdown, 0 when unset.
func (c *Config) Allocation(streamID, breakdownID string) float64 {
	if alloc, ok := c.Allocations[streamID]; ok {
		return alloc[breakdownID]
	}
	return 0
}

// EnsureDefaults lazily creates a configuration entry for every leaf revenue
// item that has none: streams without breakdowns, and all breakdowns.
func (c *Config) EnsureDefaults(m *model.Model) {
	c.init()
	rev := m.FindRow(constants.StatementIncome, model.RowRevenue)
	if rev == nil {
		return
	}
	if len(rev.Children) == 0 {
		c.Item(model.RowRevenue)
	}
	for _, stream := range rev.Children {
		if len(c.Breakdowns[stream.ID]) == 0 {
			c.Item(stream.ID)
			continue
		}
		for _, b := range c.Breakdowns[stream.ID] {
			c.Item(b.ID)
		}
	}
}
