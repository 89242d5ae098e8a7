package cashflow

import (
	"testing"

	"github.com/finmodeler/statement-engine/internal/model"
	"github.com/finmodeler/statement-engine/pkg/constants"
)

func inputRow(id, label string) *model.Row {
	return &model.Row{ID: id, Label: label, Kind: model.KindInput, ValueType: model.TypeCurrency}
}

func TestClassifyRow(t *testing.T) {
	c := NewClassifier(nil)

	tests := []struct {
		name            string
		label           string
		expectTreatment Treatment
		expectSection   model.Section
		expectImpact    model.Impact
	}{
		{"Deferred revenue", "Deferred Revenue", TreatmentAutoAdd, model.SectionOperating, model.ImpactPositive},
		{"Operating lease", "Operating Lease Liability", TreatmentAutoAdd, model.SectionOperating, model.ImpactNegative},
		{"Accrued expenses", "Accrued Expenses", TreatmentAutoAdd, model.SectionOperating, model.ImpactPositive},
		{"Deferred tax", "Deferred Tax Liability", TreatmentAutoAdd, model.SectionOperating, model.ImpactPositive},
		{"Warranty", "Warranty Reserve", TreatmentAutoAdd, model.SectionOperating, model.ImpactPositive},
		{"Pension", "Pension Obligations", TreatmentAutoAdd, model.SectionOperating, model.ImpactPositive},
		{"Long-term debt excluded from operating", "Long-Term Debt", TreatmentAutoAdd, model.SectionFinancing, model.ImpactPositive},
		{"Goodwill never operating", "Goodwill", TreatmentSuggestReview, "", ""},
		{"Unrecognizable row", "Quantum Flux Reserve", TreatmentSuggestReview, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cls := c.ClassifyRow(inputRow("x", tt.label))
			if cls.Treatment != tt.expectTreatment {
				t.Fatalf("treatment = %s, expected %s", cls.Treatment, tt.expectTreatment)
			}
			if cls.Treatment == TreatmentSuggestReview {
				return
			}
			if cls.Section != tt.expectSection {
				t.Errorf("section = %s, expected %s", cls.Section, tt.expectSection)
			}
			if cls.Impact != tt.expectImpact {
				t.Errorf("impact = %s, expected %s", cls.Impact, tt.expectImpact)
			}
		})
	}
}

func TestExclusionBeatsOperatingPattern(t *testing.T) {
	c := NewClassifier(nil)
	// "Accrued" would match an operating pattern, but "note" excludes it.
	cls := c.ClassifyRow(inputRow("x", "Accrued Notes Payable"))
	if cls.Section == model.SectionOperating {
		t.Errorf("excluded row classified operating: %+v", cls)
	}
}

func TestClassifyStatementSkipsLinkedRows(t *testing.T) {
	c := NewClassifier(nil)
	st := &model.Statement{Name: constants.StatementBalance, Rows: []*model.Row{
		inputRow("deferred_revenue", "Deferred Revenue"),
		{
			ID: "ar", Label: "Accounts Receivable", Kind: model.KindInput,
			ValueType: model.TypeCurrency,
			CFSLink:   &model.CFSLink{Section: model.SectionOperating, Impact: model.ImpactNegative, Method: model.MethodChange},
		},
		{ID: "total_assets", Label: "Total Assets", Kind: model.KindTotal, ValueType: model.TypeCurrency},
	}}

	out := c.ClassifyStatement(st)
	if len(out) != 1 {
		t.Fatalf("expected 1 classification, got %d", len(out))
	}
	if out[0].RowID != "deferred_revenue" {
		t.Errorf("classified %s, expected deferred_revenue", out[0].RowID)
	}
}

func TestApply(t *testing.T) {
	c := NewClassifier(nil)
	m := model.New([]string{"2024A"}, []string{"2025E"}, "units", "USD")

	applied := c.Apply(m)

	dr := applied.FindRow(constants.StatementBalance, "deferred_revenue")
	if dr.CFSLink == nil {
		t.Fatal("deferred_revenue should be auto-classified")
	}
	if dr.CFSLink.Impact != model.ImpactPositive || dr.CFSLink.Section != model.SectionOperating {
		t.Errorf("deferred_revenue link = %+v", dr.CFSLink)
	}

	// Original model must be untouched.
	if m.FindRow(constants.StatementBalance, "deferred_revenue").CFSLink != nil {
		t.Error("Apply mutated the original model")
	}
}
