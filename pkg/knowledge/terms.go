// Package knowledge provides a static dictionary of recognized financial
// terms with pre-assigned cash-flow treatment. It backs classification when
// pattern matching is inconclusive.
package knowledge

import "strings"

// Treatment describes how a recognized balance-sheet term affects the cash
// flow statement.
type Treatment struct {
	Term        string
	Description string
	Section     string // operating, investing, financing
	Impact      string // positive, negative, neutral
	Method      string // change, direct, calculated
}

// terms maps lowercase lookup keys to their standard treatment. Impact is the
// effect of an increase in the balance-sheet item on cash.
var terms = map[string]Treatment{
	"accounts receivable": {
		Term:        "Accounts Receivable",
		Description: "Change in accounts receivable",
		Section:     "operating",
		Impact:      "negative",
		Method:      "change",
	},
	"inventory": {
		Term:        "Inventory",
		Description: "Change in inventory",
		Section:     "operating",
		Impact:      "negative",
		Method:      "change",
	},
	"prepaid expenses": {
		Term:        "Prepaid Expenses",
		Description: "Change in prepaid expenses",
		Section:     "operating",
		Impact:      "negative",
		Method:      "change",
	},
	"accounts payable": {
		Term:        "Accounts Payable",
		Description: "Change in accounts payable",
		Section:     "operating",
		Impact:      "positive",
		Method:      "change",
	},
	"accrued liabilities": {
		Term:        "Accrued Liabilities",
		Description: "Change in accrued liabilities",
		Section:     "operating",
		Impact:      "positive",
		Method:      "change",
	},
	"deferred revenue": {
		Term:        "Deferred Revenue",
		Description: "Change in deferred revenue",
		Section:     "operating",
		Impact:      "positive",
		Method:      "change",
	},
	"deferred tax": {
		Term:        "Deferred Tax",
		Description: "Change in deferred taxes",
		Section:     "operating",
		Impact:      "positive",
		Method:      "change",
	},
	"contract liabilities": {
		Term:        "Contract Liabilities",
		Description: "Change in contract liabilities",
		Section:     "operating",
		Impact:      "positive",
		Method:      "change",
	},
	"operating lease liability": {
		Term:        "Operating Lease Liability",
		Description: "Change in operating lease liabilities",
		Section:     "operating",
		Impact:      "negative",
		Method:      "change",
	},
	"warranty reserve": {
		Term:        "Warranty Reserve",
		Description: "Change in warranty reserves",
		Section:     "operating",
		Impact:      "positive",
		Method:      "change",
	},
	"pension liability": {
		Term:        "Pension Liability",
		Description: "Change in pension obligations",
		Section:     "operating",
		Impact:      "positive",
		Method:      "change",
	},
	"property plant and equipment": {
		Term:        "Property, Plant & Equipment",
		Description: "Capital expenditures",
		Section:     "investing",
		Impact:      "negative",
		Method:      "change",
	},
	"capital expenditures": {
		Term:        "Capital Expenditures",
		Description: "Capital expenditures",
		Section:     "investing",
		Impact:      "negative",
		Method:      "direct",
	},
	"intangible assets": {
		Term:        "Intangible Assets",
		Description: "Purchases of intangible assets",
		Section:     "investing",
		Impact:      "negative",
		Method:      "change",
	},
	"long term debt": {
		Term:        "Long-Term Debt",
		Description: "Debt issuance (repayment)",
		Section:     "financing",
		Impact:      "positive",
		Method:      "change",
	},
	"short term debt": {
		Term:        "Short-Term Debt",
		Description: "Net borrowings",
		Section:     "financing",
		Impact:      "positive",
		Method:      "change",
	},
	"common stock": {
		Term:        "Common Stock",
		Description: "Issuance of common stock",
		Section:     "financing",
		Impact:      "positive",
		Method:      "change",
	},
	"treasury stock": {
		Term:        "Treasury Stock",
		Description: "Repurchases of common stock",
		Section:     "financing",
		Impact:      "negative",
		Method:      "change",
	},
}

// Lookup returns the treatment for a label when the dictionary recognizes it.
// Matching is case-insensitive and tolerant of surrounding words, e.g.
// "Net Accounts Receivable" matches "accounts receivable".
func Lookup(label string) (Treatment, bool) {
	normalized := normalize(label)
	if tr, ok := terms[normalized]; ok {
		return tr, true
	}
	for key, tr := range terms {
		if strings.Contains(normalized, key) {
			return tr, true
		}
	}
	return Treatment{}, false
}

func normalize(label string) string {
	s := strings.ToLower(strings.TrimSpace(label))
	for _, r := range []string{",", ".", "&", "(", ")", "-", "/"} {
		s = strings.ReplaceAll(s, r, " ")
	}
	return strings.Join(strings.Fields(s), " ")
}
