// Command cobalt type-checks and evaluates Cobalt expressions from the
// command line.
//
//	cobalt check  --schema "x:int,y:map[string]int" 'x + y.a > 3'
//	cobalt eval   --schema "x:int" --data '{"x": 2}' 'x * 3'
//	cobalt repl   --schema "x:int" --data '{"x": 2}'
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/peterh/liner"
	"github.com/pkg/errors"

	"github.com/ezachrisen/cobalt"
	"github.com/ezachrisen/cobalt/expr"
)

var cli struct {
	Debug  bool   `help:"Enable debug logging."`
	Schema string `help:"Schema as name:type pairs, e.g. \"x:int,tags:[]string\"." default:""`

	Check checkCmd `cmd:"" help:"Type-check an expression against the schema."`
	Eval  evalCmd  `cmd:"" help:"Evaluate an expression against JSON data."`
	Repl  replCmd  `cmd:"" help:"Interactive expression loop."`
}

type checkCmd struct {
	Expr string `arg:"" help:"Expression source."`
}

type evalCmd struct {
	Data        string `help:"Input data as a JSON object." default:"{}"`
	Diagnostics bool   `help:"Print the evaluation diagnostic report."`
	Expr        string `arg:"" help:"Expression source."`
}

type replCmd struct {
	Data string `help:"Input data as a JSON object." default:"{}"`
}

func main() {
	ctx := kong.Parse(&cli, kong.Name("cobalt"),
		kong.Description("Type-check and evaluate Cobalt policy expressions."))

	logger := log.NewLogfmtLogger(os.Stderr)
	if cli.Debug {
		logger = level.NewFilter(logger, level.AllowDebug())
	} else {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	if err := run(ctx.Command(), logger); err != nil {
		fmt.Fprintf(os.Stderr, "cobalt: %v\n", err)
		os.Exit(1)
	}
}

func run(command string, logger log.Logger) error {
	schema, err := parseSchemaFlag(cli.Schema)
	if err != nil {
		return errors.Wrap(err, "parsing schema")
	}
	engine := cobalt.NewEngine(expr.NewEvaluator())

	switch {
	case strings.HasPrefix(command, "check"):
		return check(engine, schema)
	case strings.HasPrefix(command, "eval"):
		return eval(engine, schema, logger)
	case strings.HasPrefix(command, "repl"):
		return repl(engine, schema, logger)
	}
	return errors.Errorf("unknown command %q", command)
}

func check(engine cobalt.Engine, schema cobalt.Schema) error {
	r := cobalt.NewRule("check", cli.Check.Expr)
	r.Schema = schema
	if err := engine.Compile(r, cobalt.DryRun(true)); err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}

func eval(engine cobalt.Engine, schema cobalt.Schema, logger log.Logger) error {
	data, err := parseData(cli.Eval.Data)
	if err != nil {
		return errors.Wrap(err, "parsing data")
	}
	r := cobalt.NewRule("eval", cli.Eval.Expr)
	r.Schema = schema
	if err := engine.Compile(r, cobalt.CollectDiagnostics(cli.Eval.Diagnostics)); err != nil {
		return err
	}
	level.Debug(logger).Log("msg", "compiled", "expr", cli.Eval.Expr)
	result, err := engine.Eval(context.Background(), r, data,
		cobalt.ReturnDiagnostics(cli.Eval.Diagnostics))
	if err != nil {
		return err
	}
	fmt.Printf("%v\n", result.Value)
	if cli.Eval.Diagnostics && result.Diagnostics != nil {
		fmt.Println(result.Diagnostics.AsString(r, data))
	}
	return nil
}

func repl(engine cobalt.Engine, schema cobalt.Schema, logger log.Logger) error {
	data, err := parseData(cli.Repl.Data)
	if err != nil {
		return errors.Wrap(err, "parsing data")
	}
	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	for {
		src, err := line.Prompt("cobalt> ")
		if err != nil {
			// liner returns an error on ctrl-c and ctrl-d
			return nil
		}
		src = strings.TrimSpace(src)
		if src == "" || src == "exit" || src == "quit" {
			if src != "" {
				return nil
			}
			continue
		}
		line.AppendHistory(src)
		r := cobalt.NewRule("repl", src)
		r.Schema = schema
		if err := engine.Compile(r); err != nil {
			fmt.Println(err)
			continue
		}
		result, err := engine.Eval(context.Background(), r, data)
		if err != nil {
			fmt.Println(err)
			continue
		}
		fmt.Printf("%v\n", result.Value)
		level.Debug(logger).Log("msg", "evaluated", "expr", src)
	}
}

// parseSchemaFlag parses "name:type,name:type" into a schema using the
// engine's type syntax.
func parseSchemaFlag(s string) (cobalt.Schema, error) {
	schema := cobalt.Schema{ID: "cli"}
	if strings.TrimSpace(s) == "" {
		return schema, nil
	}
	for _, pair := range strings.Split(s, ",") {
		name, typeName, found := strings.Cut(strings.TrimSpace(pair), ":")
		if !found {
			return schema, errors.Errorf("malformed schema element %q, want name:type", pair)
		}
		t, err := cobalt.ParseType(strings.TrimSpace(typeName))
		if err != nil {
			return schema, err
		}
		schema.Elements = append(schema.Elements, cobalt.DataElement{
			Name: strings.TrimSpace(name),
			Type: t,
		})
	}
	return schema, nil
}

func parseData(s string) (map[string]interface{}, error) {
	data := map[string]interface{}{}
	if strings.TrimSpace(s) == "" {
		return data, nil
	}
	if err := json.Unmarshal([]byte(s), &data); err != nil {
		return nil, err
	}
	// JSON numbers arrive as float64; whole numbers convert to int64 so
	// int-typed schema elements line up.
	for k, v := range data {
		data[k] = normalizeJSON(v)
	}
	return data, nil
}

func normalizeJSON(v interface{}) interface{} {
	switch x := v.(type) {
	case float64:
		if x == float64(int64(x)) {
			return int64(x)
		}
	case []interface{}:
		for i, e := range x {
			x[i] = normalizeJSON(e)
		}
	case map[string]interface{}:
		for k, e := range x {
			x[k] = normalizeJSON(e)
		}
	}
	return v
}
