// Package report assembles computed statement views: historical and
// calculated values through the evaluator, projection-year revenue through
// the projection engine. Preview, terminal output, export, and the HTTP API
// all consume this one shape.
package report

import (
	"go.uber.org/zap"

	"github.com/finmodeler/statement-engine/internal/model"
	"github.com/finmodeler/statement-engine/internal/projection"
	"github.com/finmodeler/statement-engine/internal/statement"
	"github.com/finmodeler/statement-engine/pkg/constants"
	"github.com/finmodeler/statement-engine/pkg/units"
)

// Row is one computed line of a statement. Values are stored-unit amounts
// keyed by year label.
type Row struct {
	ID        string             `json:"id"`
	Label     string             `json:"label"`
	Kind      model.RowKind      `json:"kind"`
	ValueType model.ValueType    `json:"valueType"`
	Depth     int                `json:"depth"`
	Values    map[string]float64 `json:"values"`
}

// Statement is one computed statement.
type Statement struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Rows  []Row  `json:"rows"`
}

// Report is the full computed model.
type Report struct {
	HistoricalYears []string           `json:"historicalYears"`
	ProjectionYears []string           `json:"projectionYears"`
	DisplayUnit     units.Unit         `json:"displayUnit"`
	Currency        string             `json:"currency"`
	Statements      []Statement        `json:"statements"`
	Revenue         *projection.Result `json:"revenue,omitempty"`
}

var statementTitles = map[string]string{
	constants.StatementIncome:   "Income Statement",
	constants.StatementBalance:  "Balance Sheet",
	constants.StatementCashFlow: "Cash Flow Statement",
}

// statementOrder fixes the presentation order.
var statementOrder = []string{
	constants.StatementIncome,
	constants.StatementBalance,
	constants.StatementCashFlow,
}

// Build computes every row of every statement for every year. Revenue rows
// take projection-engine values in projection years; everything else goes
// through the evaluator.
func Build(logger *zap.Logger, m *model.Model, projCfg *projection.Config) *Report {
	if logger == nil {
		logger = zap.NewNop()
	}
	evaluator := statement.NewEvaluator(logger, m)
	engine := projection.NewEngine(logger, m, projCfg)
	revenue := engine.Project()

	rep := &Report{
		HistoricalYears: m.HistoricalYears,
		ProjectionYears: m.ProjectionYears,
		DisplayUnit:     m.DisplayUnit,
		Currency:        m.Currency,
		Revenue:         revenue,
	}

	for _, name := range statementOrder {
		st := m.Statement(name)
		if st == nil {
			continue
		}
		out := Statement{Name: name, Title: statementTitles[name]}
		var walk func(rows []*model.Row, depth int)
		walk = func(rows []*model.Row, depth int) {
			for _, row := range rows {
				out.Rows = append(out.Rows, buildRow(evaluator, revenue, m, name, row, depth))
				walk(row.Children, depth+1)
			}
		}
		walk(st.Rows, 0)
		rep.Statements = append(rep.Statements, out)
	}
	return rep
}

func buildRow(evaluator *statement.Evaluator, revenue *projection.Result, m *model.Model, statementName string, row *model.Row, depth int) Row {
	values := make(map[string]float64, len(m.HistoricalYears)+len(m.ProjectionYears))
	for _, year := range m.HistoricalYears {
		values[year] = evaluator.EvaluateRow(statementName, row, year)
	}
	for _, year := range m.ProjectionYears {
		if statementName == constants.StatementIncome && revenue != nil {
			if byYear, ok := revenue.Values[row.ID]; ok {
				values[year] = byYear[year]
				continue
			}
		}
		values[year] = evaluator.EvaluateRow(statementName, row, year)
	}
	return Row{
		ID:        row.ID,
		Label:     row.Label,
		Kind:      row.Kind,
		ValueType: row.ValueType,
		Depth:     depth,
		Values:    values,
	}
}
