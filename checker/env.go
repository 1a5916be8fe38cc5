package checker

import (
	"fmt"
	"strings"
)

// Env is the declaration environment the checker consults: declared
// variables, declared functions with their overload sets, the container
// (namespace) path for name resolution, and a predicate accepting
// type-parameter names in declarations.
//
// An Env is mutable while being built and must not be modified once
// checking begins. Build errors (bad declarations, overload collisions)
// surface synchronously from the Add methods.
type Env struct {
	container   string
	vars        map[string]*VarDecl
	funcs       map[string]*FunctionDecl
	acceptParam func(name string) bool
}

// NewEnv returns an empty environment with no container and no
// declarations. Most callers want StandardEnv.
func NewEnv() *Env {
	return &Env{
		vars:        map[string]*VarDecl{},
		funcs:       map[string]*FunctionDecl{},
		acceptParam: func(string) bool { return false },
	}
}

// StandardEnv returns an environment preloaded with the standard
// declarations: operators, comparisons, conversions and size.
func StandardEnv() *Env {
	e := NewEnv()
	e.acceptParam = func(name string) bool { return strings.HasPrefix(name, "A") || strings.HasPrefix(name, "B") }
	if err := addStandardDecls(e); err != nil {
		// The standard declarations are hardcoded; a failure here is a
		// programming error in this package.
		panic(err)
	}
	return e
}

// SetContainer sets the namespace used to qualify names during
// resolution, e.g. "acme.policy".
func (e *Env) SetContainer(container string) { e.container = container }

// Container returns the current namespace.
func (e *Env) Container() string { return e.container }

// AcceptTypeParams installs the predicate deciding which names are
// treated as type parameters in declared signatures.
func (e *Env) AcceptTypeParams(accept func(name string) bool) {
	e.acceptParam = accept
}

// AddVariable declares a variable. Redeclaring a name with a different
// type is an error.
func (e *Env) AddVariable(d *VarDecl) error {
	if d.Name == "" || d.Type == nil {
		return fmt.Errorf("invalid variable declaration: %+v", d)
	}
	if prev, ok := e.vars[d.Name]; ok && !prev.Type.Equal(d.Type) {
		return fmt.Errorf("overlapping declaration of %s: %s and %s", d.Name, prev.Type, d.Type)
	}
	e.vars[d.Name] = d
	return nil
}

// AddFunction declares a function or merges overloads into an existing
// declaration of the same name. Overload collisions are rejected.
func (e *Env) AddFunction(d *FunctionDecl) error {
	if d.Name == "" || len(d.Overloads) == 0 {
		return fmt.Errorf("invalid function declaration: %+v", d)
	}
	for _, o := range d.Overloads {
		for _, p := range o.TypeParams() {
			if !e.acceptParam(p) {
				return fmt.Errorf("function %s: type parameter %q not accepted by this environment", d.Name, p)
			}
		}
	}
	existing, ok := e.funcs[d.Name]
	if !ok {
		merged := &FunctionDecl{Name: d.Name}
		for _, o := range d.Overloads {
			if err := merged.AddOverload(o); err != nil {
				return err
			}
		}
		e.funcs[d.Name] = merged
		return nil
	}
	for _, o := range d.Overloads {
		if err := existing.AddOverload(o); err != nil {
			return err
		}
	}
	return nil
}

// Variable returns the declaration for an exact (already qualified)
// name.
func (e *Env) Variable(name string) (*VarDecl, bool) {
	d, ok := e.vars[name]
	return d, ok
}

// Function returns the declaration for an exact function name.
func (e *Env) Function(name string) (*FunctionDecl, bool) {
	f, ok := e.funcs[name]
	return f, ok
}

// candidateNames returns the qualified names to try when resolving name,
// longest container prefix first, ending with the name itself.
//
// With container "a.b", name "c" yields ["a.b.c", "a.c", "c"].
func (e *Env) candidateNames(name string) []string {
	if e.container == "" || strings.HasPrefix(name, ".") {
		return []string{strings.TrimPrefix(name, ".")}
	}
	parts := strings.Split(e.container, ".")
	out := make([]string, 0, len(parts)+1)
	for i := len(parts); i > 0; i-- {
		out = append(out, strings.Join(parts[:i], ".")+"."+name)
	}
	out = append(out, name)
	return out
}
