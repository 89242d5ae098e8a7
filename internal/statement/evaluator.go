// Package statement computes row values for the three financial statements.
// Evaluation is a pure function of the model snapshot: missing rows, missing
// years, and zero denominators all degrade to zero rather than erroring, so
// the model is always renderable.
package statement

import (
	"strings"

	"go.uber.org/zap"

	"github.com/finmodeler/statement-engine/internal/category"
	"github.com/finmodeler/statement-engine/internal/model"
	"github.com/finmodeler/statement-engine/pkg/constants"
	"github.com/finmodeler/statement-engine/pkg/mathutil"
)

// Evaluator computes stored row values for any year.
type Evaluator struct {
	logger   *zap.Logger
	model    *model.Model
	resolver *category.Resolver
}

// NewEvaluator creates an evaluator over a model snapshot. A nil logger is
// replaced with a no-op logger.
func NewEvaluator(logger *zap.Logger, m *model.Model) *Evaluator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Evaluator{
		logger:   logger,
		model:    m,
		resolver: category.NewResolver(logger),
	}
}

// Evaluate computes the value of a row by id. An absent row is a valid zero
// state, not an error.
func (e *Evaluator) Evaluate(statement, rowID, year string) float64 {
	row := e.model.FindRow(statement, rowID)
	if row == nil {
		return 0
	}
	return e.EvaluateRow(statement, row, year)
}

// EvaluateRow computes the value of a row. Once a row has children the sum
// of the children wins unconditionally over any stored parent value.
func (e *Evaluator) EvaluateRow(statement string, row *model.Row, year string) float64 {
	if len(row.Children) > 0 {
		sum := 0.0
		for _, child := range row.Children {
			sum += e.EvaluateRow(statement, child, year)
		}
		return sum
	}
	if v, ok := e.formula(statement, row, year); ok {
		return v
	}
	return row.Value(year)
}

// formula dispatches the fixed per-id formulas for derived rows.
func (e *Evaluator) formula(statement string, row *model.Row, year string) (float64, bool) {
	switch statement {
	case constants.StatementIncome:
		return e.incomeFormula(row.ID, year)
	case constants.StatementBalance:
		return e.balanceFormula(row.ID, year)
	case constants.StatementCashFlow:
		return e.cashFlowFormula(row.ID, year)
	}
	return 0, false
}

func (e *Evaluator) incomeFormula(id, year string) (float64, bool) {
	income := func(rowID string) float64 {
		return e.Evaluate(constants.StatementIncome, rowID, year)
	}
	switch id {
	case model.RowGrossProfit:
		return income(model.RowRevenue) - income(model.RowCOGS), true
	case model.RowGrossMargin:
		return mathutil.SafeDivide(income(model.RowGrossProfit), income(model.RowRevenue)), true
	case model.RowEBIT:
		return income(model.RowGrossProfit) - income(model.RowSGA) - income(model.RowRD) -
			income(model.RowOtherOpex) - income(model.RowDandA), true
	case model.RowEBITMargin:
		return mathutil.SafeDivide(income(model.RowEBIT), income(model.RowRevenue)), true
	case model.RowEBT:
		// Expense rows are stored positive and reduce; income rows add.
		return income(model.RowEBIT) - income(model.RowInterestExpense) +
			income(model.RowInterestIncome) + income(model.RowOtherIncome), true
	case model.RowNetIncome:
		return income(model.RowEBT) - income(model.RowTax), true
	case model.RowNetIncomeMargin:
		return mathutil.SafeDivide(income(model.RowNetIncome), income(model.RowRevenue)), true
	}
	return 0, false
}

func (e *Evaluator) balanceFormula(id, year string) (float64, bool) {
	switch id {
	case model.RowTotalCurAssets:
		return e.categoryTotal(category.CurrentAssets, year), true
	case model.RowTotalAssets:
		return e.Evaluate(constants.StatementBalance, model.RowTotalCurAssets, year) +
			e.categoryTotal(category.FixedAssets, year), true
	case model.RowTotalCurLiab:
		return e.categoryTotal(category.CurrentLiabilities, year), true
	case model.RowTotalLiabilities:
		return e.Evaluate(constants.StatementBalance, model.RowTotalCurLiab, year) +
			e.categoryTotal(category.NonCurrentLiabilities, year), true
	case model.RowTotalEquity:
		return e.categoryTotal(category.Equity, year), true
	case model.RowTotalLiabEquity:
		return e.Evaluate(constants.StatementBalance, model.RowTotalLiabilities, year) +
			e.Evaluate(constants.StatementBalance, model.RowTotalEquity, year), true
	}
	return 0, false
}

// categoryTotal sums the top-level rows resolved into a category. Subtotal
// and total rows are skipped so constituents are never double counted;
// child sums are handled by EvaluateRow.
func (e *Evaluator) categoryTotal(cat category.Category, year string) float64 {
	st := e.model.Statement(constants.StatementBalance)
	if st == nil {
		return 0
	}
	rows := st.Flatten()
	index := make(map[string]int, len(rows))
	for i, row := range rows {
		index[row.ID] = i
	}
	sum := 0.0
	for _, row := range st.Rows {
		if row.Kind == model.KindSubtotal || row.Kind == model.KindTotal {
			continue
		}
		if e.resolver.ResolveIndex(rows, index[row.ID]) != cat {
			continue
		}
		sum += e.EvaluateRow(constants.StatementBalance, row, year)
	}
	return sum
}

func (e *Evaluator) cashFlowFormula(id, year string) (float64, bool) {
	cf := func(rowID string) float64 {
		return e.Evaluate(constants.StatementCashFlow, rowID, year)
	}
	switch id {
	case "net_income_cf":
		return e.Evaluate(constants.StatementIncome, model.RowNetIncome, year), true
	case "danda_cf":
		return e.Evaluate(constants.StatementIncome, model.RowDandA, year), true
	case model.RowOperatingCF:
		return e.Evaluate(constants.StatementIncome, model.RowNetIncome, year) +
			e.Evaluate(constants.StatementIncome, model.RowDandA, year) +
			cf(model.RowSBC) +
			e.classifiedChanges(model.SectionOperating, year) +
			cf(model.RowOtherOperating), true
	case model.RowInvestingCF:
		return cf(model.RowCapex) + cf(model.RowOtherInvesting) +
			e.classifiedChanges(model.SectionInvesting, year), true
	case model.RowFinancingCF:
		return cf(model.RowDebtIssuance) + cf(model.RowDividends) + cf(model.RowOtherFinancing) +
			e.classifiedChanges(model.SectionFinancing, year), true
	case model.RowNetChangeCash:
		return cf(model.RowOperatingCF) + cf(model.RowInvestingCF) + cf(model.RowFinancingCF), true
	}
	if bsID, ok := strings.CutPrefix(id, model.DeltaRowPrefix); ok {
		return e.signedChange(bsID, year), true
	}
	return 0, false
}

// classifiedChanges sums the signed cash impact of every balance-sheet row
// classified into the section.
func (e *Evaluator) classifiedChanges(section model.Section, year string) float64 {
	st := e.model.Statement(constants.StatementBalance)
	if st == nil {
		return 0
	}
	sum := 0.0
	for _, row := range st.Flatten() {
		if row.CFSLink == nil || row.CFSLink.Section != section {
			continue
		}
		sum += e.contribution(row, year)
	}
	return sum
}

// signedChange is the cash impact of one balance-sheet row's period change.
func (e *Evaluator) signedChange(bsID, year string) float64 {
	row := e.model.FindRow(constants.StatementBalance, bsID)
	if row == nil {
		return 0
	}
	return e.contribution(row, year)
}

func (e *Evaluator) contribution(row *model.Row, year string) float64 {
	current := e.EvaluateRow(constants.StatementBalance, row, year)

	var amount float64
	method := model.MethodChange
	impact := model.ImpactNeutral
	if row.CFSLink != nil {
		method = row.CFSLink.Method
		impact = row.CFSLink.Impact
	}

	switch method {
	case model.MethodDirect:
		amount = current
	default:
		// The first year has no prior; the prior value is treated as 0.
		prior := 0.0
		if priorYear := e.model.PriorYear(year); priorYear != "" {
			prior = e.EvaluateRow(constants.StatementBalance, row, priorYear)
		}
		amount = current - prior
	}

	switch impact {
	case model.ImpactNegative:
		return -amount
	default:
		// A positive or neutral impact passes the change through: an
		// increase in the item increases cash.
		return amount
	}
}
