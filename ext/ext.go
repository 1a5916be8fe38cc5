package ext

import (
	"github.com/ezachrisen/cobalt/checker"
	"github.com/ezachrisen/cobalt/interp"
)

// Declare adds every extension pack's declarations to the environment.
// Pair with RegisterBindings on the registry the planner will use.
func Declare(env *checker.Env) error {
	if err := declareStrings(env); err != nil {
		return err
	}
	return declareFormat(env)
}

// RegisterBindings installs every extension pack's runtime bindings.
func RegisterBindings(reg *interp.Registry) error {
	if err := registerStringBindings(reg); err != nil {
		return err
	}
	return registerFormatBinding(reg)
}
