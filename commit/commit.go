// Copyright 2025 the zkcreds authors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package commit defines the commitment scheme contract used for attribute
// records and Merkle roots, and a MiMC-based default implementation.
//
// A commitment binds a nonce and an ordered list of field elements to a single
// field element. The nonce is what makes the commitment hiding; it is part of
// the holder's witness and never revealed. Two separate scheme instances with
// distinct domains serve attribute records and tree roots, so the predicate
// circuit never depends on the tree's own hash function.
package commit

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr/mimc"
	"github.com/consensys/gnark/frontend"
	stdmimc "github.com/consensys/gnark/std/hash/mimc"
	"golang.org/x/crypto/blake2b"
)

// Domains of the two scheme instances the protocol uses.
const (
	AttrsDomain = "zkcreds/attrs"
	RootDomain  = "zkcreds/root"
)

// Scheme commits a nonce and field-encoded values to one field element.
type Scheme interface {
	// Commit returns the commitment to fields under nonce.
	Commit(nonce fr.Element, fields ...fr.Element) fr.Element

	// InCircuit returns the scheme's counterpart bound to the given
	// constraint system.
	InCircuit(api frontend.API) (CircuitScheme, error)
}

// CircuitScheme mirrors a Scheme inside a constraint system.
type CircuitScheme interface {
	// Commit recomputes the commitment to fields under nonce.
	Commit(nonce frontend.Variable, fields ...frontend.Variable) frontend.Variable
}

// MiMC is a hash-based commitment scheme: MiMC over domain ‖ nonce ‖ fields.
// The binding property comes from MiMC's collision resistance, the hiding
// property from the nonce.
type MiMC struct {
	domain fr.Element
}

// NewMiMC returns a MiMC commitment scheme separated under the given domain
// tag. Host and circuit sides of the same tag agree on all inputs.
func NewMiMC(domain string) MiMC {
	d := blake2b.Sum256([]byte(domain))

	var e fr.Element
	e.SetBytes(d[:])
	return MiMC{domain: e}
}

func (s MiMC) Commit(nonce fr.Element, fields ...fr.Element) fr.Element {
	h := mimc.NewMiMC()
	db := s.domain.Bytes()
	nb := nonce.Bytes()
	_, _ = h.Write(db[:])
	_, _ = h.Write(nb[:])
	for i := range fields {
		fb := fields[i].Bytes()
		_, _ = h.Write(fb[:])
	}

	var out fr.Element
	out.SetBytes(h.Sum(nil))
	return out
}

func (s MiMC) InCircuit(api frontend.API) (CircuitScheme, error) {
	h, err := stdmimc.NewMiMC(api)
	if err != nil {
		return nil, err
	}
	return &mimcCircuit{h: h, domain: s.domain}, nil
}

type mimcCircuit struct {
	h      stdmimc.MiMC
	domain fr.Element
}

func (c *mimcCircuit) Commit(nonce frontend.Variable, fields ...frontend.Variable) frontend.Variable {
	c.h.Reset()
	c.h.Write(c.domain)
	c.h.Write(nonce)
	c.h.Write(fields...)
	return c.h.Sum()
}
