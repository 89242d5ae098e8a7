// Package cashflow infers how balance-sheet items affect the cash flow
// statement. Classification runs pattern exclusion first, then explicit
// operating patterns with fixed treatments, then the financial-terms
// knowledge base, and finally falls back to flagging the row for review.
package cashflow

import (
	"strings"

	"go.uber.org/zap"

	"github.com/finmodeler/statement-engine/internal/model"
	"github.com/finmodeler/statement-engine/pkg/constants"
	"github.com/finmodeler/statement-engine/pkg/knowledge"
)

// Treatment indicates whether a classification applies automatically or
// needs human confirmation.
type Treatment string

const (
	TreatmentAutoAdd       Treatment = "auto_add"
	TreatmentSuggestReview Treatment = "suggest_review"
)

// Classification is the result of classifying one balance-sheet row.
type Classification struct {
	RowID       string           `json:"rowId"`
	Label       string           `json:"label"`
	Treatment   Treatment        `json:"treatment"`
	Description string           `json:"description"`
	Section     model.Section    `json:"section,omitempty"`
	Impact      model.Impact     `json:"impact,omitempty"`
	Method      model.CalcMethod `json:"calculationMethod,omitempty"`
}

// exclusionPatterns match rows that never auto-classify as operating.
var exclusionPatterns = []string{
	"debt", "loan", "note", "bond", "credit facilit",
	"capex", "capital expenditure",
	"pp&e", "property plant", "property, plant",
	"intangible", "goodwill",
}

// operatingPattern carries the hard-coded treatment for a recognized
// operating item. Impact is the effect of an increase in the item on cash.
type operatingPattern struct {
	pattern     string
	description string
	impact      model.Impact
	method      model.CalcMethod
}

var operatingPatterns = []operatingPattern{
	{"operating lease", "Change in operating lease liabilities", model.ImpactNegative, model.MethodChange},
	{"deferred revenue", "Change in deferred revenue", model.ImpactPositive, model.MethodChange},
	{"deferred tax", "Change in deferred taxes", model.ImpactPositive, model.MethodChange},
	{"accrued", "Change in accrued expenses and liabilities", model.ImpactPositive, model.MethodChange},
	{"warranty", "Change in warranty reserves", model.ImpactPositive, model.MethodChange},
	{"pension", "Change in pension obligations", model.ImpactPositive, model.MethodChange},
	{"other long-term liabilit", "Change in other long-term liabilities", model.ImpactPositive, model.MethodChange},
	{"other liabilit", "Change in other liabilities", model.ImpactPositive, model.MethodChange},
}

// Classifier classifies balance-sheet rows for cash-flow treatment.
type Classifier struct {
	logger *zap.Logger
}

// NewClassifier creates a classifier. A nil logger is replaced with a no-op
// logger.
func NewClassifier(logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{logger: logger}
}

// ClassifyRow determines the cash-flow treatment of a single balance-sheet
// row that does not already carry classification metadata.
func (c *Classifier) ClassifyRow(row *model.Row) Classification {
	label := strings.ToLower(row.Label)

	excluded := false
	for _, p := range exclusionPatterns {
		if strings.Contains(label, p) {
			excluded = true
			break
		}
	}

	if !excluded {
		for _, p := range operatingPatterns {
			if strings.Contains(label, p.pattern) {
				return Classification{
					RowID:       row.ID,
					Label:       row.Label,
					Treatment:   TreatmentAutoAdd,
					Description: p.description,
					Section:     model.SectionOperating,
					Impact:      p.impact,
					Method:      p.method,
				}
			}
		}
	}

	// Knowledge-base fallback. Excluded rows may still classify into
	// investing or financing here, just never operating.
	if tr, ok := knowledge.Lookup(row.Label); ok {
		section := model.Section(tr.Section)
		if !excluded || section != model.SectionOperating {
			return Classification{
				RowID:       row.ID,
				Label:       row.Label,
				Treatment:   TreatmentAutoAdd,
				Description: tr.Description,
				Section:     section,
				Impact:      model.Impact(tr.Impact),
				Method:      model.CalcMethod(tr.Method),
			}
		}
	}

	c.logger.Debug("row left for review",
		zap.String("op", "cashflow.ClassifyRow"),
		zap.String("rowId", row.ID),
	)
	return Classification{
		RowID:     row.ID,
		Label:     row.Label,
		Treatment: TreatmentSuggestReview,
	}
}

// ClassifyStatement classifies every input row of the balance sheet that has
// no stored classification. Subtotals, totals, and already-linked rows are
// skipped.
func (c *Classifier) ClassifyStatement(st *model.Statement) []Classification {
	var out []Classification
	for _, row := range st.Flatten() {
		if row.Kind != model.KindInput || row.CFSLink != nil {
			continue
		}
		out = append(out, c.ClassifyRow(row))
	}
	return out
}

// Apply attaches CFSLink metadata for every auto-classified balance-sheet
// row, returning a new model. Rows flagged for review are left untouched.
func (c *Classifier) Apply(m *model.Model) *model.Model {
	st := m.Statement(constants.StatementBalance)
	if st == nil {
		return m
	}
	clone := m.Clone()
	cloned := clone.Statement(constants.StatementBalance)
	for _, cls := range c.ClassifyStatement(st) {
		if cls.Treatment != TreatmentAutoAdd {
			continue
		}
		row := cloned.Find(cls.RowID)
		if row == nil {
			continue
		}
		row.CFSLink = &model.CFSLink{
			Section:     cls.Section,
			Impact:      cls.Impact,
			Description: cls.Description,
			Method:      cls.Method,
		}
	}
	return clone
}
