// Copyright 2025 the zkcreds authors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package comtree maintains a commitment tree of attribute commitments and
// produces zero-knowledge membership proofs for its slots.
//
// An issuer inserts attribute commitments into the tree and publishes the
// root. A holder later proves "my commitment is in the tree under this root"
// without revealing which slot it occupies. Key generation happens once per
// (height, hash) choice; the resulting keys are immutable and safe to share
// across any number of concurrent proof and verification calls. Key
// generation and proving are long-running CPU-bound calls; callers wanting
// timeouts or cancellation run them on their own workers.
package comtree

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

	"github.com/haopining/zkcreds/hash2to1"
	"github.com/haopining/zkcreds/logger"
	"github.com/haopining/zkcreds/smt"
)

type config struct {
	hash hash2to1.Hash
}

// Option configures the tree and its circuits.
type Option func(*config)

// WithHash selects the two-to-one hash. Defaults to MiMC. Keys, trees and
// proofs generated under different hashes are incompatible.
func WithHash(h hash2to1.Hash) Option {
	return func(c *config) { c.hash = h }
}

func newConfig(opts []Option) config {
	c := config{hash: hash2to1.NewMiMC()}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// ProvingKey is the one-time setup artifact for membership proofs at a fixed
// height. Generate once, reuse for arbitrarily many proofs.
type ProvingKey struct {
	height int
	hash   hash2to1.Hash
	ccs    constraint.ConstraintSystem
	pk     groth16.ProvingKey
	vk     groth16.VerifyingKey
}

// Height returns the tree height the key was generated for.
func (pk *ProvingKey) Height() int {
	return pk.height
}

// VerifyingKey returns the matching verifying key.
func (pk *ProvingKey) VerifyingKey() *VerifyingKey {
	return &VerifyingKey{vk: pk.vk}
}

// VerifyingKey verifies membership proofs produced under its matching
// ProvingKey.
type VerifyingKey struct {
	vk groth16.VerifyingKey
}

// Proof is an opaque membership proof, meaningful only against the matching
// verifying key and the public inputs it was built for.
type Proof struct {
	p groth16.Proof
}

// Setup compiles the membership circuit for the given height and runs the
// proving-system setup. The circuit topology is fixed with a blank,
// canonically shaped witness; no proof is ever produced from the setup path.
//
// Panics unless smt.MinHeight <= height <= smt.MaxHeight.
func Setup(height int, opts ...Option) (*ProvingKey, error) {
	if height < smt.MinHeight || height > smt.MaxHeight {
		panic(fmt.Sprintf("comtree: height %d is outside the supported range [%d, %d]", height, smt.MinHeight, smt.MaxHeight))
	}
	cfg := newConfig(opts)
	log := logger.Logger().With().Str("component", "comtree").Int("height", height).Logger()

	start := time.Now()
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, blankMembershipCircuit(height, cfg.hash))
	if err != nil {
		return nil, fmt.Errorf("compile membership circuit: %w", err)
	}

	pk, vk, err := groth16.Setup(ccs)
	if err != nil {
		return nil, fmt.Errorf("membership setup: %w", err)
	}

	log.Info().
		Int("nbConstraints", ccs.GetNbConstraints()).
		Dur("took", time.Since(start)).
		Msg("membership keys generated")

	return &ProvingKey{
		height: height,
		hash:   cfg.hash,
		ccs:    ccs,
		pk:     pk,
		vk:     vk,
	}, nil
}

// ComTree is a commitment tree of attribute commitments.
type ComTree struct {
	tree *smt.Tree
	hash hash2to1.Hash
}

// NewComTree returns an empty tree of capacity 2^height.
//
// Panics if height is outside [smt.MinHeight, smt.MaxHeight].
func NewComTree(height int, opts ...Option) *ComTree {
	cfg := newConfig(opts)
	return &ComTree{
		tree: smt.New(cfg.hash, height),
		hash: cfg.hash,
	}
}

// NewComTreeFromLeaves returns a tree populated with the given commitments.
//
// Panics if height is outside [smt.MinHeight, smt.MaxHeight] or if any index
// is out of range.
func NewComTreeFromLeaves(height int, leaves map[uint64]fr.Element, opts ...Option) *ComTree {
	cfg := newConfig(opts)
	return &ComTree{
		tree: smt.NewFromLeaves(cfg.hash, height, leaves),
		hash: cfg.hash,
	}
}

// Height returns the tree's fixed height.
func (t *ComTree) Height() int {
	return t.tree.Height()
}

// Root returns the current root.
func (t *ComTree) Root() fr.Element {
	return t.tree.Root()
}

// Insert sets the slot at idx to the commitment, overwriting any existing
// entry. Panics if idx is out of range.
func (t *ComTree) Insert(idx uint64, com fr.Element) {
	t.tree.Insert(idx, com)
}

// Remove resets the slot at idx to the canonical default. Panics if idx is
// out of range.
func (t *ComTree) Remove(idx uint64) {
	t.tree.Remove(idx)
}

// Snapshot returns an independent copy of the tree. The single-writer /
// many-reader discipline hands snapshots to concurrent proof generation so
// ProveMembership reads a stable root while the issuer keeps mutating the
// original.
func (t *ComTree) Snapshot() *ComTree {
	return &ComTree{tree: t.tree.Clone(), hash: t.hash}
}

// ProveMembership proves that attrsCom occupies slot idx under the tree's
// current root. The authentication path never leaves the prover; the groth16
// prover's own randomness supplies the zero-knowledge blinding, fresh per
// call.
//
// A stale or wrong commitment surfaces as smt.ErrLeafMismatch, an index
// beyond capacity as smt.ErrIndexOutOfRange; neither can silently yield a
// false proof.
func (t *ComTree) ProveMembership(pk *ProvingKey, idx uint64, attrsCom fr.Element) (Proof, error) {
	if pk.height != t.tree.Height() {
		return Proof{}, fmt.Errorf("%w: key height %d, tree height %d", ErrHeightMismatch, pk.height, t.tree.Height())
	}

	path, err := t.tree.GenerateProof(idx, attrsCom)
	if err != nil {
		return Proof{}, fmt.Errorf("generate authentication path: %w", err)
	}

	assignment := &membershipCircuit{
		AttrsCom: attrsCom,
		Root:     t.tree.Root(),
		Index:    idx,
		Siblings: make([]frontend.Variable, len(path.Siblings)),
	}
	for l := range path.Siblings {
		assignment.Siblings[l] = path.Siblings[l]
	}

	w, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField())
	if err != nil {
		return Proof{}, fmt.Errorf("build membership witness: %w", err)
	}

	start := time.Now()
	proof, err := groth16.Prove(pk.ccs, pk.pk, w)
	if err != nil {
		return Proof{}, fmt.Errorf("prove membership: %w", err)
	}

	log := logger.Logger()
	log.Debug().
		Str("component", "comtree").
		Dur("took", time.Since(start)).
		Msg("membership proof generated")

	return Proof{p: proof}, nil
}

// VerifyMembership reports whether proof shows that attrsCom occupies some
// slot of the tree with the given root. It is total and side-effect free:
// any failure, including a proof built for a different height or hash,
// returns false rather than an error.
//
// The public-input order is AttrsCom, then Root, matching the circuit's
// declaration order.
func VerifyMembership(vk *VerifyingKey, proof Proof, attrsCom, root fr.Element) bool {
	if vk == nil || proof.p == nil {
		return false
	}

	pub, err := publicWitness(attrsCom, root)
	if err != nil {
		return false
	}
	return groth16.Verify(proof.p, vk.vk, pub) == nil
}

// publicWitness assembles the ordered public-input vector of the membership
// circuit.
func publicWitness(attrsCom, root fr.Element) (witness.Witness, error) {
	w, err := witness.New(ecc.BN254.ScalarField())
	if err != nil {
		return nil, err
	}

	values := make(chan any, 2)
	values <- attrsCom
	values <- root
	close(values)

	if err := w.Fill(2, 0, values); err != nil {
		return nil, err
	}
	return w, nil
}
