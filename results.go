package cobalt

import (
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Result of evaluating a rule.
type Result struct {
	// The Rule that was evaluated
	Rule *Rule

	// Whether the rule is true. Pass is the result of rolling up all
	// child rules and evaluating the rule's own expression: all child
	// rules and the rule's expression must be true for Pass to be true
	// (unless TrueIfAny is set). The default is TRUE.
	Pass bool

	// Whether evaluating the rule expression yielded a TRUE logical
	// value. The result is not affected by the results of the child
	// rules. If no rule expression is supplied, the result is TRUE.
	ExpressionPass bool

	// The raw result of evaluating the expression. Boolean for logical
	// expressions; calculations, object constructions or string
	// manipulations return the appropriate Go type. This value is
	// never affected by child rules.
	Value interface{}

	// Results of evaluating the child rules, keyed by child rule ID.
	Results map[string]*Result

	// Diagnostic data; only available if diagnostics were requested
	// and the rules were compiled with CollectDiagnostics.
	Diagnostics *Diagnostics

	// The evaluation options used
	EvalOptions EvalOptions

	// A list of the rules evaluated, in the order they were evaluated.
	// This may differ from Results when failed or passed results are
	// being discarded.
	RulesEvaluated []*Rule
}

// String produces a list of rules (including child rules) executed and
// the result of the evaluation.
func (u *Result) String() string {

	tw := table.NewWriter()
	tw.SetTitle("\nCOBALT RESULT SUMMARY\n")
	tw.AppendHeader(table.Row{"\nRule", "Pass/\nFail", "Expr.\nPass/\nFail", "Chil-\ndren", "Output\nValue", "Diagnostics\nAvailable?"})
	for _, r := range u.resultsToRows(0) {
		tw.AppendRow(r)
	}
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	return tw.Render()
}

func boolString(b bool) string {
	if b {
		return "PASS"
	}
	return "FAIL"
}

// resultsToRows transforms the results to a list of rows for inclusion
// in a table.Writer table.
func (u *Result) resultsToRows(n int) []table.Row {
	var rows []table.Row
	indent := ""
	for i := 0; i < n; i++ {
		indent += "  "
	}
	id := ""
	if u.Rule != nil {
		id = u.Rule.ID
	}
	rows = append(rows, table.Row{
		indent + id,
		boolString(u.Pass),
		boolString(u.ExpressionPass),
		len(u.Results),
		fmt.Sprintf("%v", u.Value),
		u.Diagnostics != nil,
	})

	keys := make([]string, 0, len(u.Results))
	for k := range u.Results {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		rows = append(rows, u.Results[k].resultsToRows(n+1)...)
	}
	return rows
}
