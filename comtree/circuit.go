// Copyright 2025 the zkcreds authors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package comtree

import (
	"github.com/consensys/gnark/frontend"

	"github.com/haopining/zkcreds/hash2to1"
)

// membershipCircuit proves that an authentication path of a fixed height
// recomputes the public root from the public attribute commitment, without
// revealing the path or the leaf index.
//
// Public input order is part of the protocol contract: AttrsCom first, then
// Root. Verifiers assemble their public-input vector in the same order.
type membershipCircuit struct {
	AttrsCom frontend.Variable `gnark:",public"`
	Root     frontend.Variable `gnark:",public"`

	Index    frontend.Variable   `gnark:",secret"`
	Siblings []frontend.Variable `gnark:",secret"`

	// hash carries the circuit-side hash; unexported so the frontend schema
	// never walks it.
	hash hash2to1.Hash
}

func (c *membershipCircuit) Define(api frontend.API) error {
	h, err := c.hash.InCircuit(api)
	if err != nil {
		return err
	}

	// Bit l of the index decides whether the running value enters the level-l
	// combine on the left (bit 0) or the right (bit 1). This mirrors
	// smt.AuthPath.Verify bit for bit.
	bits := api.ToBinary(c.Index, len(c.Siblings))

	// The leaf is the commitment itself; the first combine consumes the raw
	// leaf pair, so there is no per-leaf hash.
	cur := c.AttrsCom
	for l, sib := range c.Siblings {
		left := api.Select(bits[l], sib, cur)
		right := api.Select(bits[l], cur, sib)
		cur = h.Combine(left, right)
	}

	api.AssertIsEqual(cur, c.Root)
	return nil
}

// blankMembershipCircuit returns the setup-mode instance: a canonically
// shaped circuit with no assigned values. It fixes the circuit topology
// before any real data exists and is never used to produce a proof.
func blankMembershipCircuit(height int, h hash2to1.Hash) *membershipCircuit {
	return &membershipCircuit{
		Siblings: make([]frontend.Variable, height),
		hash:     h,
	}
}
