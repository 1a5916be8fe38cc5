package cobalt

import (
	"fmt"
	"sort"
	"strings"

	box "github.com/Delta456/box-cli-maker/v2"
	"github.com/alexeyco/simpletable"
	"github.com/dustin/go-humanize"
)

// ValueSource describes where a diagnostic value came from.
type ValueSource int

const (
	// Input marks values supplied in the evaluation data.
	Input ValueSource = iota
	// Evaluated marks values produced by evaluating an expression node.
	Evaluated
)

func (v ValueSource) String() string {
	switch v {
	case Input:
		return "INPUT"
	case Evaluated:
		return "EVAL"
	}
	return "?"
}

// Diagnostics holds the evaluated value for one expression node and its
// children, collected when diagnostics are requested.
type Diagnostics struct {
	// Expr is a rendering of the node (operator name, literal, or
	// identifier).
	Expr string
	// Value the node produced during the evaluation.
	Value Value
	// Source of the value.
	Source ValueSource
	// Children of the node, in source order.
	Children []Diagnostics
	// InputData is the data the evaluation ran against.
	InputData map[string]interface{}
	// Line, Column and Offset locate the node in the expression
	// source, when source information is available.
	Line   int
	Column int
	Offset int
}

// AsString produces a human-readable diagnostic report for the rule and
// the evaluation data.
func (d *Diagnostics) AsString(r *Rule, data map[string]interface{}) string {
	b := box.New(box.Config{Px: 2, Py: 1, Type: "Double", Color: "Cyan", TitlePos: "Top", ContentAlign: "Left"})

	s := strings.Builder{}
	if r != nil {
		s.WriteString("Rule:\n")
		s.WriteString("-----\n")
		s.WriteString(r.ID)
		s.WriteString("\n\n")
		s.WriteString("Expression:\n")
		s.WriteString("-----------\n")
		s.WriteString(wordWrap(r.Expr, 100))
		s.WriteString("\n\n")
	}

	flat := flattenDiagnostics(*d)
	sortListByPosition(flat)

	s.WriteString("Evaluation State:\n")
	s.WriteString("-----------------\n")
	s.WriteString(diagnosticTable(flat).String())
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Nodes evaluated: %s\n", humanize.Comma(int64(len(flat)))))

	if data != nil {
		s.WriteString("\n")
		s.WriteString("Input Data:\n")
		s.WriteString("-----------\n")
		s.WriteString(dataTable(data).String())
	}
	return b.String("COBALT EVALUATION DIAGNOSTIC REPORT", s.String())
}

func dataTable(data map[string]interface{}) *simpletable.Table {
	t := simpletable.New()
	t.Header = &simpletable.Header{
		Cells: []*simpletable.Cell{
			{Align: simpletable.AlignCenter, Text: "Name"},
			{Align: simpletable.AlignCenter, Text: "Value"},
		},
	}

	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		t.Body.Cells = append(t.Body.Cells, []*simpletable.Cell{
			{Text: k},
			{Text: fmt.Sprintf("%v", data[k])},
		})
	}
	t.SetStyle(simpletable.StyleUnicode)
	return t
}

func diagnosticTable(flat []Diagnostics) *simpletable.Table {
	t := simpletable.New()
	t.Header = &simpletable.Header{
		Cells: []*simpletable.Cell{
			{Align: simpletable.AlignCenter, Text: "Loc"},
			{Align: simpletable.AlignCenter, Text: "Expression"},
			{Align: simpletable.AlignCenter, Text: "Value"},
			{Align: simpletable.AlignCenter, Text: "Source"},
		},
	}
	for _, cd := range flat {
		t.Body.Cells = append(t.Body.Cells, []*simpletable.Cell{
			{Text: fmt.Sprintf("%d:%d", cd.Line, cd.Column)},
			{Text: cd.Expr},
			{Text: fmt.Sprintf("%v", cd.Value.Val)},
			{Text: cd.Source.String()},
		})
	}
	t.SetStyle(simpletable.StyleUnicode)
	return t
}

func flattenDiagnostics(d Diagnostics) []Diagnostics {
	out := []Diagnostics{d}
	for _, c := range d.Children {
		out = append(out, flattenDiagnostics(c)...)
	}
	return out
}

func sortListByPosition(l []Diagnostics) {
	sort.SliceStable(l, func(i, j int) bool {
		return l[i].Offset < l[j].Offset
	})
}

// wordWrap inserts line breaks so no line exceeds width.
func wordWrap(s string, width int) string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return s
	}
	var b strings.Builder
	line := 0
	for i, w := range words {
		if i > 0 {
			if line+1+len(w) > width {
				b.WriteString("\n")
				line = 0
			} else {
				b.WriteString(" ")
				line++
			}
		}
		b.WriteString(w)
		line += len(w)
	}
	return b.String()
}
