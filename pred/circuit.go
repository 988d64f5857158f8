// Copyright 2025 the zkcreds authors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package pred

import (
	"github.com/consensys/gnark/frontend"

	"github.com/haopining/zkcreds/attrs"
	"github.com/haopining/zkcreds/commit"
)

// predicateCircuit proves that a witnessed attribute record commits to the
// public AttrsCom and satisfies the pluggable checker.
//
// RootCom is an opaque public input: the circuit pins it into the constraint
// system so the proof commits to its value, but never interprets it. It
// exists only so an external verifier can bind this proof to a membership
// proof over a specific tree state; keeping it a bare commitment means this
// circuit never learns the tree's hash function.
//
// Public input order is part of the protocol contract: AttrsCom, RootCom,
// then the checker's scalars in PublicScalars order.
type predicateCircuit[A attrs.Var] struct {
	AttrsCom frontend.Variable   `gnark:",public"`
	RootCom  frontend.Variable   `gnark:",public"`
	Scalars  []frontend.Variable `gnark:",public"`

	Attrs A `gnark:",secret"`

	// checker and scheme are unexported so the frontend schema never walks
	// them; they carry no witness data.
	checker Checker[A]
	scheme  commit.Scheme
}

func (c *predicateCircuit[A]) Define(api frontend.API) error {
	scheme, err := c.scheme.InCircuit(api)
	if err != nil {
		return err
	}

	// The witnessed record must open the public commitment.
	com := scheme.Commit(c.Attrs.NonceVar(), c.Attrs.Vars()...)
	api.AssertIsEqual(com, c.AttrsCom)

	// RootCom takes part in no other constraint. Without this anchor its
	// verifying-key element is zero and the proof would verify under any
	// claimed value.
	_ = api.Mul(c.RootCom, c.RootCom)

	// The checker returns a boolean; enforcing it here is what turns a lying
	// or failing predicate into an unsatisfiable witness instead of a valid
	// proof of a false statement.
	ok, err := c.checker.Evaluate(api, c.Attrs, c.Scalars)
	if err != nil {
		return err
	}
	api.AssertIsEqual(ok, 1)

	return nil
}

// blankPredicateCircuit returns the setup-mode instance: the zero value of A
// and unassigned scalars fix the circuit topology independently of any record
// content, so all provers derive the same shape. It is never used to produce
// a proof.
func blankPredicateCircuit[A attrs.Var](checker Checker[A], scheme commit.Scheme) *predicateCircuit[A] {
	var blank A
	return &predicateCircuit[A]{
		Scalars: make([]frontend.Variable, len(checker.PublicScalars())),
		Attrs:   blank,
		checker: checker,
		scheme:  scheme,
	}
}
