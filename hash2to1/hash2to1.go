// Copyright 2025 the zkcreds authors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package hash2to1 defines the two-to-one hash used to build commitment tree
// levels, together with its in-circuit counterpart.
//
// A Hash implementation must satisfy one equivalence to be usable with the
// membership circuit: for all a, b, the value returned by Combine on the host
// must equal the value computed by the CircuitHash returned from InCircuit.
// The default MiMC implementation gets this for free since gnark's std MiMC
// gadget mirrors gnark-crypto's native MiMC.
package hash2to1

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark/frontend"
	stdmimc "github.com/consensys/gnark/std/hash/mimc"
)

// Hash combines two tree nodes into their parent node.
type Hash interface {
	// Combine returns the parent value of the sibling pair (left, right).
	Combine(left, right *fr.Element) fr.Element

	// EmptyLeaf returns the canonical value of an unoccupied leaf slot.
	EmptyLeaf() fr.Element

	// InCircuit returns the hash's counterpart bound to the given constraint
	// system.
	InCircuit(api frontend.API) (CircuitHash, error)
}

// CircuitHash mirrors a Hash inside a constraint system.
type CircuitHash interface {
	// Combine returns the parent variable of the sibling pair (left, right).
	Combine(left, right frontend.Variable) frontend.Variable
}

// MiMC is the default two-to-one hash, MiMC over the BN254 scalar field.
type MiMC struct{}

// NewMiMC returns the MiMC two-to-one hash.
func NewMiMC() MiMC {
	return MiMC{}
}

func (MiMC) Combine(left, right *fr.Element) fr.Element {
	h := mimc.NewMiMC()
	lb := left.Bytes()
	rb := right.Bytes()
	_, _ = h.Write(lb[:])
	_, _ = h.Write(rb[:])

	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out
}

func (MiMC) EmptyLeaf() fr.Element {
	// the zero element; unoccupied slots share it at every position
	var zero fr.Element
	return zero
}

func (MiMC) InCircuit(api frontend.API) (CircuitHash, error) {
	h, err := stdmimc.NewMiMC(api)
	if err != nil {
		return nil, err
	}
	return &mimcCircuit{h: h}, nil
}

type mimcCircuit struct {
	h stdmimc.MiMC
}

func (c *mimcCircuit) Combine(left, right frontend.Variable) frontend.Variable {
	c.h.Reset()
	c.h.Write(left, right)
	return c.h.Sum()
}
