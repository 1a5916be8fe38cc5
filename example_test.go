package cobalt_test

import (
	"context"
	"fmt"

	"github.com/ezachrisen/cobalt"
	"github.com/ezachrisen/cobalt/expr"
)

// Evaluate a single rule against input data.
func Example() {
	schema := cobalt.Schema{
		ID: "orders",
		Elements: []cobalt.DataElement{
			{Name: "amount", Type: cobalt.Float{}},
			{Name: "country", Type: cobalt.String{}},
		},
	}

	rule := cobalt.NewRule("high_value_domestic", "amount > 1000.0 && country == 'US'")
	rule.Schema = schema

	engine := cobalt.NewEngine(expr.NewEvaluator())
	if err := engine.Compile(rule); err != nil {
		fmt.Println(err)
		return
	}

	result, err := engine.Eval(context.Background(), rule, map[string]interface{}{
		"amount":  1500.0,
		"country": "US",
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Println(result.Pass)
	// Output: true
}

// A parent rule with children; the parent passes only when all
// children pass.
func Example_hierarchy() {
	schema := cobalt.Schema{
		ID: "access",
		Elements: []cobalt.DataElement{
			{Name: "role", Type: cobalt.String{}},
			{Name: "regions", Type: cobalt.List{ValueType: cobalt.String{}}},
		},
	}

	root := cobalt.NewRule("access_policy", "")
	root.Schema = schema
	root.Add(cobalt.NewRule("is_admin", "role == 'admin'"))
	root.Add(cobalt.NewRule("in_region", "regions.exists(r, r == 'us-east')"))

	engine := cobalt.NewEngine(expr.NewEvaluator())
	if err := engine.Compile(root); err != nil {
		fmt.Println(err)
		return
	}

	result, err := engine.Eval(context.Background(), root, map[string]interface{}{
		"role":    "admin",
		"regions": []string{"us-east", "eu-west"},
	})
	if err != nil {
		fmt.Println(err)
		return
	}
	fmt.Printf("pass=%v children=%d\n", result.Pass, len(result.Results))
	// Output: pass=true children=2
}
