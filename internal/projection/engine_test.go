package projection

import (
	"math"
	"testing"

	"github.com/finmodeler/statement-engine/internal/model"
	"github.com/finmodeler/statement-engine/pkg/constants"
)

const epsilon = 1e-6

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= epsilon
}

// modelWithStreams builds a model whose revenue row has the given streams,
// each seeded with a last-historical-year value.
func modelWithStreams(histValues map[string]float64) *model.Model {
	m := model.New([]string{"2023A", "2024A"}, []string{"2025E", "2026E"}, "units", "USD")
	rev := m.FindRow(constants.StatementIncome, model.RowRevenue)
	for id, v := range histValues {
		rev.Children = append(rev.Children, &model.Row{
			ID: id, Label: id, Kind: model.KindInput, ValueType: model.TypeCurrency,
			Values: map[string]float64{"2024A": v},
		})
	}
	return m
}

func TestGrowthRateStreamNoBreakdowns(t *testing.T) {
	m := model.New([]string{"2023A", "2024A"}, []string{"2025E", "2026E"}, "units", "USD")
	model.Seed(m, constants.StatementIncome, map[string]map[string]float64{
		model.RowRevenue: {"2024A": 1000},
	})
	cfg := NewConfig()
	cfg.Items[model.RowRevenue] = ItemConfig{
		Method: MethodGrowthRate,
		Inputs: Inputs{GrowthRate: 10},
	}

	res := NewEngine(nil, m, cfg).Project()

	if got := res.Value(model.RowRevenue, "2025E"); !almostEqual(got, 1100) {
		t.Errorf("year 1 = %v, expected 1100", got)
	}
	if got := res.Value(model.RowRevenue, "2026E"); !almostEqual(got, 1210) {
		t.Errorf("year 2 = %v, expected 1210", got)
	}
}

func TestPerYearGrowthRateOverride(t *testing.T) {
	m := model.New([]string{"2024A"}, []string{"2025E", "2026E"}, "units", "USD")
	model.Seed(m, constants.StatementIncome, map[string]map[string]float64{
		model.RowRevenue: {"2024A": 1000},
	})
	cfg := NewConfig()
	cfg.Items[model.RowRevenue] = ItemConfig{
		Method: MethodGrowthRate,
		Inputs: Inputs{GrowthRate: 10, YearlyGrowthRates: map[string]float64{"2026E": 20}},
	}

	res := NewEngine(nil, m, cfg).Project()

	if got := res.Value(model.RowRevenue, "2026E"); !almostEqual(got, 1320) {
		t.Errorf("year 2 with override = %v, expected 1320", got)
	}
}

func TestBaseAmountOverride(t *testing.T) {
	m := model.New([]string{"2024A"}, []string{"2025E"}, "units", "USD")
	model.Seed(m, constants.StatementIncome, map[string]map[string]float64{
		model.RowRevenue: {"2024A": 1000},
	})
	cfg := NewConfig()
	cfg.Items[model.RowRevenue] = ItemConfig{
		Method: MethodGrowthRate,
		Inputs: Inputs{GrowthRate: 10, BaseAmount: 2000},
	}

	res := NewEngine(nil, m, cfg).Project()

	if got := res.Value(model.RowRevenue, "2025E"); !almostEqual(got, 2200) {
		t.Errorf("base override year 1 = %v, expected 2200", got)
	}
}

func TestPriceVolumeMethod(t *testing.T) {
	m := modelWithStreams(map[string]float64{"hardware": 0})
	cfg := NewConfig()
	cfg.Items["hardware"] = ItemConfig{
		Method: MethodPriceVolume,
		Inputs: Inputs{BasePrice: 10, PriceGrowthPct: 0, BaseVolume: 100, VolumeGrowthPct: 10},
	}

	res := NewEngine(nil, m, cfg).Project()

	// Year 1: 10 * 110 = 1100; year 2: 10 * 121 = 1210.
	if got := res.Value("hardware", "2025E"); !almostEqual(got, 1100) {
		t.Errorf("price_volume year 1 = %v, expected 1100", got)
	}
	if got := res.Value("hardware", "2026E"); !almostEqual(got, 1210) {
		t.Errorf("price_volume year 2 = %v, expected 1210", got)
	}
}

func TestCustomersARPUConvertsDisplayUnits(t *testing.T) {
	m := model.New([]string{"2024A"}, []string{"2025E"}, "thousands", "USD")
	rev := m.FindRow(constants.StatementIncome, model.RowRevenue)
	rev.Children = append(rev.Children, &model.Row{
		ID: "saas", Label: "SaaS", Kind: model.KindInput, ValueType: model.TypeCurrency,
	})
	cfg := NewConfig()
	cfg.Items["saas"] = ItemConfig{
		Method: MethodCustomersARPU,
		Inputs: Inputs{BaseCustomers: 100, CustomerGrowthPct: 0, BaseARPU: 2, ARPUGrowthPct: 0},
	}

	res := NewEngine(nil, m, cfg).Project()

	// 100 customers * 2 ARPU in display thousands = 200,000 stored.
	if got := res.Value("saas", "2025E"); !almostEqual(got, 200000) {
		t.Errorf("customers_arpu stored value = %v, expected 200000", got)
	}
}

func TestPctOfStreamReconciliation(t *testing.T) {
	m := modelWithStreams(map[string]float64{"platform": 1000})
	cfg := NewConfig()
	cfg.Breakdowns["platform"] = []BreakdownItem{
		{ID: "core", Label: "Core"},
		{ID: "addons", Label: "Add-ons"},
	}
	cfg.Allocations["platform"] = map[string]float64{"core": 100}
	cfg.Items["core"] = ItemConfig{Method: MethodGrowthRate, Inputs: Inputs{GrowthRate: 10}}
	cfg.Items["addons"] = ItemConfig{
		Method: MethodPctOfTotal,
		Inputs: Inputs{ReferenceID: "platform", Percent: 40},
	}

	res := NewEngine(nil, m, cfg).Project()

	for i, year := range []string{"2025E", "2026E"} {
		growth := res.Value("core", year)
		total := res.Value("platform", year)
		pct := res.Value("addons", year)
		if !almostEqual(total, growth/0.6) {
			t.Errorf("year %d: total = %v, expected %v", i+1, total, growth/0.6)
		}
		if !almostEqual(pct, total*0.4) {
			t.Errorf("year %d: pct breakdown = %v, expected %v", i+1, pct, total*0.4)
		}
	}

	if diag := res.Streams["platform"]; diag.Mode != ModePctOfStream || diag.InvalidMix {
		t.Errorf("diagnostics = %+v, expected pct_of_stream mode", diag)
	}

	// Core grows 10% from the full allocated base of 1000.
	if got := res.Value("core", "2025E"); !almostEqual(got, 1100) {
		t.Errorf("core year 1 = %v, expected 1100", got)
	}
}

func TestEmptyReferenceMeansParentStream(t *testing.T) {
	m := modelWithStreams(map[string]float64{"platform": 1000})
	cfg := NewConfig()
	cfg.Breakdowns["platform"] = []BreakdownItem{
		{ID: "core", Label: "Core"},
		{ID: "addons", Label: "Add-ons"},
	}
	cfg.Allocations["platform"] = map[string]float64{"core": 100}
	cfg.Items["core"] = ItemConfig{Method: MethodGrowthRate, Inputs: Inputs{GrowthRate: 0}}
	cfg.Items["addons"] = ItemConfig{
		Method: MethodPctOfTotal,
		Inputs: Inputs{Percent: 20},
	}

	res := NewEngine(nil, m, cfg).Project()

	total := res.Value("platform", "2025E")
	if !almostEqual(total, 1000/0.8) {
		t.Errorf("total = %v, expected %v", total, 1000/0.8)
	}
	if got := res.Value("addons", "2025E"); !almostEqual(got, total*0.2) {
		t.Errorf("addons = %v, expected %v", got, total*0.2)
	}
}

func TestDriverSolveWithPlug(t *testing.T) {
	m := modelWithStreams(map[string]float64{"platform": 1000})
	cfg := NewConfig()
	cfg.Breakdowns["platform"] = []BreakdownItem{
		{ID: "licenses", Label: "Licenses"},
		{ID: "services", Label: "Services"},
	}
	cfg.Allocations["platform"] = map[string]float64{"licenses": 50, "services": 50}
	cfg.Items["licenses"] = ItemConfig{
		Method: MethodPriceVolume,
		Inputs: Inputs{BasePrice: 6, BaseVolume: 100},
	}
	cfg.Items["services"] = ItemConfig{Method: MethodGrowthRate, Inputs: Inputs{GrowthRate: 0}}

	res := NewEngine(nil, m, cfg).Project()

	// Driver outputs 600 against a 50% allocation: T = 600 / 0.5 = 1200.
	// The plug absorbs the 600 residual.
	if got := res.Value("platform", "2025E"); !almostEqual(got, 1200) {
		t.Errorf("driver-solved total = %v, expected 1200", got)
	}
	if got := res.Value("services", "2025E"); !almostEqual(got, 600) {
		t.Errorf("plug breakdown = %v, expected 600", got)
	}
	if diag := res.Streams["platform"]; diag.Mode != ModeDriverSolve {
		t.Errorf("diagnostics = %+v, expected driver_solve mode", diag)
	}
}

func TestInvalidTripleMixFallsBackToSummation(t *testing.T) {
	m := modelWithStreams(map[string]float64{"platform": 1000})
	cfg := NewConfig()
	cfg.Breakdowns["platform"] = []BreakdownItem{
		{ID: "b_growth", Label: "Growth"},
		{ID: "b_driver", Label: "Driver"},
		{ID: "b_pct", Label: "Percent"},
	}
	cfg.Allocations["platform"] = map[string]float64{"b_growth": 50, "b_driver": 50}
	cfg.Items["b_growth"] = ItemConfig{Method: MethodGrowthRate, Inputs: Inputs{GrowthRate: 10}}
	cfg.Items["b_driver"] = ItemConfig{
		Method: MethodPriceVolume,
		Inputs: Inputs{BasePrice: 5, BaseVolume: 40},
	}
	cfg.Items["b_pct"] = ItemConfig{
		Method: MethodPctOfTotal,
		Inputs: Inputs{ReferenceID: "platform", Percent: 30},
	}

	res := NewEngine(nil, m, cfg).Project()

	diag := res.Streams["platform"]
	if !diag.InvalidMix {
		t.Fatal("expected invalid mix to be flagged")
	}
	if diag.Mode != ModeSummation {
		t.Errorf("mode = %s, expected summation fallback", diag.Mode)
	}
	// Summation of pass-2 values: growth 550 + driver 200 + pct 0.
	if got := res.Value("platform", "2025E"); !almostEqual(got, 750) {
		t.Errorf("fallback total = %v, expected 750", got)
	}
}

func TestAllocationSeedsBreakdownBase(t *testing.T) {
	m := modelWithStreams(map[string]float64{"platform": 1000})
	cfg := NewConfig()
	cfg.Breakdowns["platform"] = []BreakdownItem{
		{ID: "na", Label: "North America"},
		{ID: "emea", Label: "EMEA"},
	}
	cfg.Allocations["platform"] = map[string]float64{"na": 70, "emea": 30}
	cfg.Items["na"] = ItemConfig{Method: MethodGrowthRate, Inputs: Inputs{GrowthRate: 0}}
	cfg.Items["emea"] = ItemConfig{Method: MethodGrowthRate, Inputs: Inputs{GrowthRate: 10}}

	res := NewEngine(nil, m, cfg).Project()

	if got := res.Value("na", "2025E"); !almostEqual(got, 700) {
		t.Errorf("na = %v, expected 700", got)
	}
	if got := res.Value("emea", "2025E"); !almostEqual(got, 330) {
		t.Errorf("emea = %v, expected 330", got)
	}
	if got := res.Value("platform", "2025E"); !almostEqual(got, 1030) {
		t.Errorf("total = %v, expected 1030", got)
	}
}

func TestReferenceToTotalRevenue(t *testing.T) {
	m := modelWithStreams(map[string]float64{"product": 1000, "support": 0})
	cfg := NewConfig()
	cfg.Items["product"] = ItemConfig{Method: MethodGrowthRate, Inputs: Inputs{GrowthRate: 0}}
	cfg.Items["support"] = ItemConfig{
		Method: MethodPctOfTotal,
		Inputs: Inputs{ReferenceID: model.RowRevenue, Percent: 10},
	}

	res := NewEngine(nil, m, cfg).Project()

	// After aggregation the product stream is 1000; support references the
	// summed total revenue (1000 at the time of the reference pass).
	if got := res.Value("support", "2025E"); !almostEqual(got, 100) {
		t.Errorf("support = %v, expected 100", got)
	}
	if got := res.Value(model.RowRevenue, "2025E"); !almostEqual(got, 1100) {
		t.Errorf("total revenue after re-aggregation = %v, expected 1100", got)
	}
}

func TestProductLineDistribution(t *testing.T) {
	m := modelWithStreams(map[string]float64{"retail": 1000})
	cfg := NewConfig()
	cfg.Items["retail"] = ItemConfig{
		Method: MethodProductLine,
		Inputs: Inputs{Lines: []LineItem{
			{ID: "line_a", Label: "A", SharePct: 60, GrowthPct: 10},
			{ID: "line_b", Label: "B", SharePct: 40, GrowthPct: 20},
		}},
	}

	res := NewEngine(nil, m, cfg).Project()

	for _, year := range []string{"2025E", "2026E"} {
		total := res.Value("retail", year)
		lineSum := res.Value("line_a", year) + res.Value("line_b", year)
		if !almostEqual(total, lineSum) {
			t.Errorf("year %s: lines sum %v != total %v", year, lineSum, total)
		}
	}

	// Year 1: 600*1.1 + 400*1.2 = 1140.
	if got := res.Value("retail", "2025E"); !almostEqual(got, 1140) {
		t.Errorf("retail year 1 = %v, expected 1140", got)
	}
}

func TestLazyDefaultConfig(t *testing.T) {
	m := modelWithStreams(map[string]float64{"unconfigured": 500})
	cfg := NewConfig()

	res := NewEngine(nil, m, cfg).Project()

	// Default is pct_of_total of total revenue at 0%.
	if got := res.Value("unconfigured", "2025E"); got != 0 {
		t.Errorf("unconfigured stream = %v, expected 0", got)
	}
	item, ok := cfg.Items["unconfigured"]
	if !ok {
		t.Fatal("default config entry should be persisted")
	}
	if item.Method != MethodPctOfTotal || item.Inputs.Percent != 0 {
		t.Errorf("default config = %+v", item)
	}
}
