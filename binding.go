// Copyright 2025 the zkcreds authors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package zkcreds

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/haopining/zkcreds/commit"
	"github.com/haopining/zkcreds/comtree"
	"github.com/haopining/zkcreds/pred"
)

// rootScheme commits tree roots for cross-proof binding. It is a separate
// scheme instance from the attribute commitments so the predicate circuit
// stays independent of the tree's hash.
var rootScheme = commit.NewMiMC(commit.RootDomain)

// CommitRoot commits a tree root under the root-commitment scheme.
func CommitRoot(root, nonce fr.Element) fr.Element {
	return rootScheme.Commit(nonce, root)
}

// Presentation is what a holder hands a verifier: a membership proof, a
// predicate proof, and the public inputs only the holder can supply. The
// attribute commitment appears once per proof on purpose; the verifier's
// equality check over the two copies is the binding between the otherwise
// independent statements.
//
// The tree root and the predicate's scalar vector are deliberately absent.
// Both belong to the verifier: the root comes from the issuer's publication
// channel and the scalars from the verifier's own checker, via
// pred.PreparePublicInputs. A presentation that carried them would let the
// holder substitute a root or a laxer threshold of its own choosing.
type Presentation struct {
	// RootCom is the root commitment the predicate proof carries opaquely.
	RootCom fr.Element

	Membership         comtree.Proof
	MembershipAttrsCom fr.Element

	Predicate         pred.Proof
	PredicateAttrsCom fr.Element
}

// VerifyPresentation accepts the combined statement "the commitment is in the
// tree under root AND its attributes satisfy the predicate" only when both
// proofs verify against the verifier's own root and scalars and the two
// attribute-commitment public inputs are numerically identical. The two
// proofs are deliberately independent; a field-element comparison here is
// what ties them together instead of one monolithic circuit per
// (predicate, height) pair.
//
// root is the published tree root the verifier trusts; scalars is the
// verifier-derived public-scalar vector of the predicate it chose.
//
// Like the underlying verifications it is total: any failure returns false.
func VerifyPresentation(treeVK *comtree.VerifyingKey, predVK *pred.VerifyingKey, root fr.Element, scalars []fr.Element, p *Presentation) bool {
	if p == nil {
		return false
	}

	// The binding check. Everything else is only meaningful once the two
	// proofs speak about the same commitment.
	if !p.MembershipAttrsCom.Equal(&p.PredicateAttrsCom) {
		return false
	}

	if !comtree.VerifyMembership(treeVK, p.Membership, p.MembershipAttrsCom, root) {
		return false
	}

	inputs := make([]fr.Element, 0, 2+len(scalars))
	inputs = append(inputs, p.PredicateAttrsCom, p.RootCom)
	inputs = append(inputs, scalars...)
	return pred.Verify(predVK, p.Predicate, inputs)
}
