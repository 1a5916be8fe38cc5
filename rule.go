package cobalt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// A Rule defines logic that can be evaluated by an Evaluator. The logic
// is specified by an expression; a rule can have child rules, enabling
// a hierarchy. Evaluation options specify how the hierarchy is walked
// and which results are kept.
//
// # Example Rule Structures
//
//	Rule with expression, no child rules:
//	 Parent rule expression is evaluated and the result returned.
//
//	Rule with expression and child rules, no options:
//	 Parent rule expression is evaluated, and so are all the child
//	 rules. All children and their evaluation results are returned.
//
//	Rule with expression and child rules, StopIfParentNegative:
//	 Parent rule expression is evaluated. If it is a boolean and it
//	 returns FALSE, the children are NOT evaluated.
type Rule struct {
	// A rule identifier. (required) Unique among its siblings.
	ID string `json:"id"`

	// The expression to evaluate (optional). The expression can return
	// a boolean or any other value the expression engine can produce.
	// All values are returned in the Result.Value field; boolean values
	// also set Result.ExpressionPass. If the expression is blank, the
	// result is true.
	Expr string `json:"expr"`

	// The output type of the expression. Evaluators with the ability
	// to check whether an expression produces the desired output
	// return a compilation error if it does not. Defaults to Bool.
	ResultType Type `json:"result_type,omitempty"`

	// The schema describing the data provided to Evaluate. (optional)
	// A rule without a schema inherits its parent's.
	Schema Schema `json:"schema,omitempty"`

	// A set of child rules.
	Rules map[string]*Rule `json:"rules,omitempty"`

	// Reference to intermediate compilation / evaluation data.
	Program interface{} `json:"-"`

	// A reference to any object. Not used by the engine.
	Meta interface{} `json:"-"`

	// A reference to an object whose values can be used in the rule
	// expression via the reserved "self" name. Child rules do not
	// inherit the self value.
	Self interface{} `json:"-"`

	// Options determining how the child rules should be handled.
	EvalOptions EvalOptions `json:"eval_options"`

	// sortedRules contains the child rules in evaluation order,
	// calculated at compile time from EvalOptions.SortFunc. Without a
	// SortFunc, children evaluate in ID order.
	sortedRules []*Rule
}

const (
	// If the rule includes a Self object, it will be made available in
	// the input data with this key name.
	selfKey = "self"

	bannedIDCharacters = "/"
)

// NewRule initializes a rule with the ID and rule expression. The ID
// and expression can be empty.
func NewRule(id string, expr string) *Rule {
	return &Rule{
		ID:    id,
		Rules: map[string]*Rule{},
		Expr:  expr,
	}
}

// Add attaches a child rule.
func (r *Rule) Add(rr *Rule) error {
	if rr == nil {
		return fmt.Errorf("attempt to add nil rule")
	}
	if r.Rules == nil {
		r.Rules = map[string]*Rule{}
	}
	r.Rules[rr.ID] = rr
	return nil
}

// Delete removes the child rule with the ID.
func (r *Rule) Delete(id string) {
	delete(r.Rules, id)
	for i, c := range r.sortedRules {
		if c.ID == id {
			r.sortedRules = append(r.sortedRules[:i], r.sortedRules[i+1:]...)
			break
		}
	}
}

// FindRule searches the hierarchy rooted at r for a rule with the ID,
// depth first.
func FindRule(r *Rule, id string) *Rule {
	if r == nil {
		return nil
	}
	if r.ID == id {
		return r
	}
	for _, c := range r.Rules {
		if f := FindRule(c, id); f != nil {
			return f
		}
	}
	return nil
}

// FindParent returns the parent of the rule with the ID, or nil when
// the rule is the root or absent.
func FindParent(r *Rule, id string) *Rule {
	if r == nil {
		return nil
	}
	for _, c := range r.Rules {
		if c.ID == id {
			return r
		}
		if p := FindParent(c, id); p != nil {
			return p
		}
	}
	return nil
}

// sortChildRules fixes the child evaluation order. Called at compile
// time; the order must not change between compilation and evaluation.
func (r *Rule) sortChildRules(sortFunc func(rules []*Rule, i, j int) bool) []*Rule {
	sorted := make([]*Rule, 0, len(r.Rules))
	for _, c := range r.Rules {
		sorted = append(sorted, c)
	}
	if sortFunc != nil {
		sort.Slice(sorted, func(i, j int) bool { return sortFunc(sorted, i, j) })
	} else {
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	}
	return sorted
}

// String produces a table describing the rule and its children.
func (r *Rule) String() string {
	tw := table.NewWriter()
	tw.SetTitle("\nRULE TREE\n")
	tw.AppendHeader(table.Row{"Rule", "Expression", "Schema", "Children"})
	appendRuleRows(tw, r, 0)
	style := table.StyleLight
	style.Format.Header = text.FormatDefault
	tw.SetStyle(style)
	return tw.Render()
}

func appendRuleRows(tw table.Writer, r *Rule, depth int) {
	expr := r.Expr
	if len(expr) > 60 {
		expr = expr[:57] + "..."
	}
	tw.AppendRow(table.Row{
		strings.Repeat("  ", depth) + r.ID,
		expr,
		r.Schema.ID,
		len(r.Rules),
	})
	for _, c := range r.sortChildRules(r.EvalOptions.SortFunc) {
		appendRuleRows(tw, c, depth+1)
	}
}

// copyRule makes a deep copy of the rule and its children. Compiled
// programs are shared, not copied.
func copyRule(r *Rule) *Rule {
	if r == nil {
		return nil
	}
	n := *r
	n.Rules = make(map[string]*Rule, len(r.Rules))
	for k, c := range r.Rules {
		n.Rules[k] = copyRule(c)
	}
	n.sortedRules = nil
	for _, c := range r.sortedRules {
		n.sortedRules = append(n.sortedRules, n.Rules[c.ID])
	}
	return &n
}
