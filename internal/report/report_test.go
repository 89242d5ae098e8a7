package report

import (
	"math"
	"testing"

	"github.com/finmodeler/statement-engine/internal/model"
	"github.com/finmodeler/statement-engine/internal/projection"
	"github.com/finmodeler/statement-engine/pkg/constants"
)

const epsilon = 1e-6

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) <= epsilon
}

func buildSample() *Report {
	m := model.New([]string{"2024A"}, []string{"2025E"}, "units", "USD")
	model.Seed(m, constants.StatementIncome, map[string]map[string]float64{
		model.RowRevenue: {"2024A": 1000},
		model.RowCOGS:    {"2024A": 400},
	})
	cfg := projection.NewConfig()
	cfg.Items[model.RowRevenue] = projection.ItemConfig{
		Method: projection.MethodGrowthRate,
		Inputs: projection.Inputs{GrowthRate: 10},
	}
	return Build(nil, m, cfg)
}

func findRow(t *testing.T, rep *Report, statement, id string) Row {
	t.Helper()
	for _, st := range rep.Statements {
		if st.Name != statement {
			continue
		}
		for _, row := range st.Rows {
			if row.ID == id {
				return row
			}
		}
	}
	t.Fatalf("row %s not found in %s", id, statement)
	return Row{}
}

func TestBuildStatementOrder(t *testing.T) {
	rep := buildSample()
	if len(rep.Statements) != 3 {
		t.Fatalf("got %d statements, expected 3", len(rep.Statements))
	}
	order := []string{constants.StatementIncome, constants.StatementBalance, constants.StatementCashFlow}
	for i, name := range order {
		if rep.Statements[i].Name != name {
			t.Errorf("statement %d = %s, expected %s", i, rep.Statements[i].Name, name)
		}
	}
	if rep.Statements[1].Title != "Balance Sheet" {
		t.Errorf("balance title = %q", rep.Statements[1].Title)
	}
}

func TestBuildHistoricalValuesComeFromEvaluator(t *testing.T) {
	rep := buildSample()
	gp := findRow(t, rep, constants.StatementIncome, model.RowGrossProfit)
	if got := gp.Values["2024A"]; !almostEqual(got, 600) {
		t.Errorf("gross profit 2024A = %v, expected 600", got)
	}
}

func TestBuildProjectionYearsUseProjectedRevenue(t *testing.T) {
	rep := buildSample()
	rev := findRow(t, rep, constants.StatementIncome, model.RowRevenue)
	if got := rev.Values["2025E"]; !almostEqual(got, 1100) {
		t.Errorf("projected revenue = %v, expected 1100", got)
	}
	if rep.Revenue == nil {
		t.Fatalf("expected projection result attached")
	}
	if got := rep.Revenue.Value(model.RowRevenue, "2025E"); !almostEqual(got, 1100) {
		t.Errorf("result value = %v, expected 1100", got)
	}
}

func TestBuildRecordsDepth(t *testing.T) {
	m := model.New([]string{"2024A"}, []string{"2025E"}, "units", "USD")
	rev := m.FindRow(constants.StatementIncome, model.RowRevenue)
	rev.Children = append(rev.Children, &model.Row{
		ID: "saas", Label: "SaaS", Kind: model.KindInput, ValueType: model.TypeCurrency,
		Values: map[string]float64{"2024A": 700},
	})
	rep := Build(nil, m, projection.NewConfig())

	if got := findRow(t, rep, constants.StatementIncome, "saas").Depth; got != 1 {
		t.Errorf("stream depth = %d, expected 1", got)
	}
	if got := findRow(t, rep, constants.StatementIncome, model.RowRevenue).Depth; got != 0 {
		t.Errorf("revenue depth = %d, expected 0", got)
	}
}
