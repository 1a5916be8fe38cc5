// Package cobalt provides a rules engine built around the Cobalt
// expression language: small, side-effect-free boolean or
// value-producing expressions used for authorization rules, validation
// predicates and policy checks.
//
// The engine itself does not interpret expressions. It delegates to an
// implementation of the Evaluator interface; the expr package provides
// the native implementation backed by this repository's type checker
// and step evaluator. Alternative backends remain pluggable.
//
// Typical use:
//
//  1. Declare a schema describing the type of data you will be
//     processing
//  2. Create a rule, possibly with many child rules
//  3. Create an engine and compile the rule
//  4. Evaluate the rule against a set of input data
//  5. Inspect the results
//
// # Rule Ownership and Modification
//
// The calling application is responsible for managing the lifecycle of
// rules, including ensuring concurrency safety:
//
//  1. You must not allow changes to a rule during compilation.
//  2. You may not modify the rule after compilation and before
//     evaluation.
//  3. You must not allow changes to a rule during evaluation.
//  4. A rule must not be a child rule of more than one parent.
//
// Breaking these rules could lead to race conditions or unexpected
// outcomes. The simplest and safest way to use the engine is to load
// the rules at startup and never change them. When rules change
// continually, group a rule and its children so an update succeeds or
// fails as one unit, or manage the tree through a Vault.
package cobalt
