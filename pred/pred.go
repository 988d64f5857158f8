// Copyright 2025 the zkcreds authors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package pred proves verifier-chosen predicates over committed attribute
// records.
//
// A Checker is a pluggable boolean statement evaluated inside the constraint
// system. Proving succeeds only when the holder's real attributes satisfy it:
// a false predicate leaves the constraint system without a satisfying
// assignment, so failure happens at proving time, never as a valid-looking
// proof that later verifies false.
//
// Keys are generated once per (record shape, checker shape, commitment
// scheme) and are immutable and safe for concurrent reuse afterwards.
package pred

import (
	"fmt"
	"time"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/backend/witness"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"

	"github.com/haopining/zkcreds/attrs"
	"github.com/haopining/zkcreds/commit"
	"github.com/haopining/zkcreds/logger"
)

// Checker is a pluggable predicate over an attribute record.
//
// Whether an implementation evaluates its statement honestly is a
// protocol-level trust decision: since the caller enforces the returned
// boolean, an inaccurate checker can only make proving fail, never make a
// false statement provable.
type Checker[A attrs.Var] interface {
	// Evaluate returns a 0/1 variable reporting whether the predicate holds
	// for rec. public holds the checker's scalar variables in PublicScalars
	// order; Evaluate must not assert the result itself, the circuit does.
	Evaluate(api frontend.API, rec A, public []frontend.Variable) (frontend.Variable, error)

	// PublicScalars returns the checker's fixed public constants, such as a
	// threshold. Deterministic: prover and verifier must derive the same
	// values or verification fails.
	PublicScalars() []fr.Element
}

type config struct {
	scheme commit.Scheme
}

// Option configures the predicate circuit machinery.
type Option func(*config)

// WithCommitment selects the attribute commitment scheme. Defaults to MiMC
// under the attrs domain. Keys and proofs generated under different schemes
// are incompatible.
func WithCommitment(s commit.Scheme) Option {
	return func(c *config) { c.scheme = s }
}

func newConfig(opts []Option) config {
	c := config{scheme: commit.NewMiMC(commit.AttrsDomain)}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// ProvingKey is the one-time setup artifact for one predicate shape.
type ProvingKey struct {
	nbScalars int
	scheme    commit.Scheme
	ccs       constraint.ConstraintSystem
	pk        groth16.ProvingKey
	vk        groth16.VerifyingKey
}

// VerifyingKey returns the matching verifying key.
func (pk *ProvingKey) VerifyingKey() *VerifyingKey {
	return &VerifyingKey{vk: pk.vk, nbScalars: pk.nbScalars}
}

// VerifyingKey verifies predicate proofs produced under its matching
// ProvingKey.
type VerifyingKey struct {
	vk        groth16.VerifyingKey
	nbScalars int
}

// Proof is an opaque predicate proof, meaningful only against the matching
// verifying key and the public inputs it was built for.
type Proof struct {
	p groth16.Proof
}

// Setup compiles the predicate circuit for the checker's shape and runs the
// proving-system setup. The record shape comes from the zero value of A, so
// it is content-independent: every prover of the same record type derives the
// same circuit. The setup path never produces a proof.
func Setup[A attrs.Var](checker Checker[A], opts ...Option) (*ProvingKey, error) {
	cfg := newConfig(opts)
	log := logger.Logger().With().Str("component", "pred").Logger()

	start := time.Now()
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, blankPredicateCircuit(checker, cfg.scheme))
	if err != nil {
		return nil, fmt.Errorf("compile predicate circuit: %w", err)
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("predicate setup: %w", err)
	}

	log.Info().
		Int("nbConstraints", ccs.GetNbConstraints()).
		Int("nbScalars", len(checker.PublicScalars())).
		Dur("took", time.Since(start)).
		Msg("predicate keys generated")

	return &ProvingKey{
		nbScalars: len(checker.PublicScalars()),
		scheme:    cfg.scheme,
		ccs:       ccs,
		pk:        pk,
		vk:        vk,
	}, nil
}

// Prove proves that rec commits to its attribute commitment under the key's
// scheme and satisfies the checker. rootCom is carried through as an opaque
// public value for cross-proof binding; this circuit does not interpret it.
//
// Returns ErrPredicateNotSatisfied when the record does not satisfy the
// checker: with the commitment recomputed from rec itself, the predicate is
// the only constraint left to fail.
func Prove[A attrs.Var](pk *ProvingKey, checker Checker[A], rec attrs.Record[A], rootCom fr.Element) (Proof, error) {
	attrsCom := attrs.Commit(pk.scheme, rec)

	assignment := &predicateCircuit[A]{
		AttrsCom: attrsCom,
		RootCom:  rootCom,
		Scalars:  scalarVariables(checker.PublicScalars()),
		Attrs:    rec.Assign(),
	}

	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return Proof{}, fmt.Errorf("build predicate witness: %w", err)
	}

	// Solve before the heavy prover pass so an unsatisfiable witness fails
	// with a typed error instead of a generic proving failure.
	if err := pk.ccs.IsSolved(w); err != nil {
		return Proof{}, fmt.Errorf("%w: %v", ErrPredicateNotSatisfied, err)
	}

	start := time.Now()
	proof, err := groth16.Prove(pk.ccs, pk.pk, w)
	if err != nil {
		return Proof{}, fmt.Errorf("prove predicate: %w", err)
	}

	log := logger.Logger()
	log.Debug().
		Str("component", "pred").
		Dur("took", time.Since(start)).
		Msg("predicate proof generated")

	return Proof{p: proof}, nil
}

// PreparePublicInputs derives the checker's fixed scalars in the order the
// circuit declares them, ready for the verifier. The caller prepends the
// attribute commitment and the root commitment to form the full vector.
func PreparePublicInputs[A attrs.Var](checker Checker[A]) []fr.Element {
	scalars := checker.PublicScalars()
	out := make([]fr.Element, len(scalars))
	copy(out, scalars)
	return out
}

// Verify reports whether proof holds for the full ordered public-input
// vector [attrsCom, rootCom, scalars...]. It is total and side-effect free:
// a wrong-length vector, mismatched scalars or any engine failure returns
// false rather than an error.
func Verify(vk *VerifyingKey, proof Proof, inputs []fr.Element) bool {
	if vk == nil || proof.p == nil {
		return false
	}
	if len(inputs) != 2+vk.nbScalars {
		return false
	}

	pub, err := publicWitness(inputs)
	if err != nil {
		return false
	}
	return groth16.Verify(proof.p, vk.vk, pub) == nil
}

// publicWitness assembles the ordered public-input vector of the predicate
// circuit.
func publicWitness(inputs []fr.Element) (witness.Witness, error) {
	w, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return nil, err
	}

	values := make(chan any, len(inputs))
	for i := range inputs {
		values <- inputs[i]
	}
	close(values)

	if err := w.Fill(len(inputs), 0, values); err != nil {
		return nil, err
	}
	return w, nil
}

func scalarVariables(scalars []fr.Element) []frontend.Variable {
	vars := make([]frontend.Variable, len(scalars))
	for i := range scalars {
		vars[i] = scalars[i]
	}
	return vars
}
