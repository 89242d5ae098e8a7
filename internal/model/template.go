package model

import "github.com/finmodeler/statement-engine/pkg/constants"

// Well-known row ids referenced by the evaluator and the category resolver.
// Anchor ordering within each template is fixed; insertion logic must never
// violate it.
const (
	RowRevenue          = "rev"
	RowCOGS             = "cogs"
	RowGrossProfit      = "gross_profit"
	RowGrossMargin      = "gross_margin"
	RowSGA              = "sga"
	RowRD               = "rd"
	RowOtherOpex        = "other_opex"
	RowDandA            = "danda"
	RowEBIT             = "ebit"
	RowEBITMargin       = "ebit_margin"
	RowInterestExpense  = "interest_expense"
	RowInterestIncome   = "interest_income"
	RowOtherIncome      = "other_income"
	RowEBT              = "ebt"
	RowTax              = "tax"
	RowNetIncome        = "net_income"
	RowNetIncomeMargin  = "net_income_margin"
	RowCash             = "cash"
	RowTotalCurAssets   = "total_current_assets"
	RowTotalAssets      = "total_assets"
	RowTotalCurLiab     = "total_current_liabilities"
	RowTotalLiabilities = "total_liabilities"
	RowTotalEquity      = "total_equity"
	RowTotalLiabEquity  = "total_liab_and_equity"
	RowSBC              = "sbc"
	RowOtherOperating   = "other_operating"
	RowOperatingCF      = "operating_cf"
	RowCapex            = "capex"
	RowOtherInvesting   = "other_investing"
	RowInvestingCF      = "investing_cf"
	RowDebtIssuance     = "debt_issuance"
	RowDividends        = "dividends"
	RowOtherFinancing   = "other_financing"
	RowFinancingCF      = "financing_cf"
	RowNetChangeCash    = "net_change_cash"
)

// DeltaRowPrefix marks cash-flow rows derived from a balance-sheet row's
// period-over-period change: "delta_ar" is the signed change in "ar".
const DeltaRowPrefix = "delta_"

// protectedIDs lists rows that can never be removed, per statement.
var protectedIDs = map[string]map[string]bool{
	constants.StatementIncome: {
		RowRevenue: true, RowCOGS: true, RowGrossProfit: true, RowGrossMargin: true,
		RowEBIT: true, RowEBITMargin: true, RowEBT: true, RowTax: true,
		RowNetIncome: true, RowNetIncomeMargin: true,
	},
	constants.StatementBalance: {
		RowCash: true, RowTotalCurAssets: true, RowTotalAssets: true,
		RowTotalCurLiab: true, RowTotalLiabilities: true, RowTotalEquity: true,
		RowTotalLiabEquity: true,
	},
	constants.StatementCashFlow: {
		RowOperatingCF: true, RowInvestingCF: true, RowFinancingCF: true,
		RowNetChangeCash: true,
	},
}

// IsProtected reports whether a row id belongs to a statement's protected set.
func IsProtected(statement, id string) bool {
	return protectedIDs[statement][id]
}

func input(id, label string) *Row {
	return &Row{ID: id, Label: label, Kind: KindInput, ValueType: TypeCurrency}
}

func calc(id, label string, vt ValueType) *Row {
	return &Row{ID: id, Label: label, Kind: KindCalc, ValueType: vt}
}

func subtotal(id, label string) *Row {
	return &Row{ID: id, Label: label, Kind: KindSubtotal, ValueType: TypeCurrency}
}

func total(id, label string) *Row {
	return &Row{ID: id, Label: label, Kind: KindTotal, ValueType: TypeCurrency}
}

// New instantiates the three statement templates with empty values.
func New(historical, projection []string, unit, currency string) *Model {
	displayUnit, _ := parseUnitOrDefault(unit)
	return &Model{
		Statements: map[string]*Statement{
			constants.StatementIncome:   incomeTemplate(),
			constants.StatementBalance:  balanceTemplate(),
			constants.StatementCashFlow: cashFlowTemplate(),
		},
		HistoricalYears: append([]string(nil), historical...),
		ProjectionYears: append([]string(nil), projection...),
		DisplayUnit:     displayUnit,
		Currency:        currency,
	}
}

func incomeTemplate() *Statement {
	return &Statement{
		Name: constants.StatementIncome,
		Rows: []*Row{
			input(RowRevenue, "Total Revenue"),
			input(RowCOGS, "Cost of Goods Sold"),
			calc(RowGrossProfit, "Gross Profit", TypeCurrency),
			calc(RowGrossMargin, "Gross Margin", TypePercent),
			input(RowSGA, "SG&A"),
			input(RowRD, "R&D"),
			input(RowOtherOpex, "Other Operating Expenses"),
			input(RowDandA, "Depreciation & Amortization"),
			calc(RowEBIT, "EBIT", TypeCurrency),
			calc(RowEBITMargin, "EBIT Margin", TypePercent),
			input(RowInterestExpense, "Interest Expense"),
			input(RowInterestIncome, "Interest Income"),
			input(RowOtherIncome, "Other Income"),
			calc(RowEBT, "Pre-Tax Income", TypeCurrency),
			input(RowTax, "Income Tax"),
			calc(RowNetIncome, "Net Income", TypeCurrency),
			calc(RowNetIncomeMargin, "Net Income Margin", TypePercent),
		},
	}
}

func balanceTemplate() *Statement {
	return &Statement{
		Name: constants.StatementBalance,
		Rows: []*Row{
			input(RowCash, "Cash & Equivalents"),
			input("ar", "Accounts Receivable"),
			input("inventory", "Inventory"),
			input("other_current_assets", "Other Current Assets"),
			subtotal(RowTotalCurAssets, "Total Current Assets"),
			input("ppe", "Property, Plant & Equipment"),
			input("intangibles", "Intangible Assets"),
			input("goodwill", "Goodwill"),
			input("other_assets", "Other Assets"),
			total(RowTotalAssets, "Total Assets"),
			input("ap", "Accounts Payable"),
			input("accrued_liabilities", "Accrued Liabilities"),
			input("deferred_revenue", "Deferred Revenue"),
			input("short_term_debt", "Short-Term Debt"),
			subtotal(RowTotalCurLiab, "Total Current Liabilities"),
			input("long_term_debt", "Long-Term Debt"),
			input("other_liabilities", "Other Liabilities"),
			total(RowTotalLiabilities, "Total Liabilities"),
			input("common_stock", "Common Stock"),
			input("retained_earnings", "Retained Earnings"),
			total(RowTotalEquity, "Total Equity"),
			total(RowTotalLiabEquity, "Total Liabilities & Equity"),
		},
	}
}

func cashFlowTemplate() *Statement {
	return &Statement{
		Name: constants.StatementCashFlow,
		Rows: []*Row{
			calc("net_income_cf", "Net Income", TypeCurrency),
			calc("danda_cf", "Depreciation & Amortization", TypeCurrency),
			input(RowSBC, "Stock-Based Compensation"),
			calc(DeltaRowPrefix+"ar", "Change in Accounts Receivable", TypeCurrency),
			calc(DeltaRowPrefix+"inventory", "Change in Inventory", TypeCurrency),
			calc(DeltaRowPrefix+"ap", "Change in Accounts Payable", TypeCurrency),
			calc(DeltaRowPrefix+"accrued_liabilities", "Change in Accrued Liabilities", TypeCurrency),
			calc(DeltaRowPrefix+"deferred_revenue", "Change in Deferred Revenue", TypeCurrency),
			input(RowOtherOperating, "Other Operating Activities"),
			subtotal(RowOperatingCF, "Cash from Operations"),
			input(RowCapex, "Capital Expenditures"),
			input(RowOtherInvesting, "Other Investing Activities"),
			subtotal(RowInvestingCF, "Cash from Investing"),
			input(RowDebtIssuance, "Debt Issuance (Repayment)"),
			input(RowDividends, "Dividends Paid"),
			input(RowOtherFinancing, "Other Financing Activities"),
			subtotal(RowFinancingCF, "Cash from Financing"),
			total(RowNetChangeCash, "Net Change in Cash"),
		},
	}
}
