// Copyright 2025 the zkcreds authors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package attrs defines the contracts an attribute record must satisfy to be
// committed into a commitment tree and witnessed inside a predicate circuit.
//
// A record has two forms: the host-side form (Attrs), which can be committed
// with a commit.Scheme, and the in-circuit form (Var), a gnark witness struct
// whose exported frontend.Variable fields mirror the host encoding. The Record
// interface couples the two so a prover cannot accidentally witness an
// assignment that diverges from the record it committed.
package attrs

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/frontend"

	"github.com/haopining/zkcreds/commit"
)

// Attrs is a holder's attribute record.
type Attrs interface {
	// FieldElements returns the canonical field encoding of the record,
	// nonce excluded. The order is fixed per record type and must match the
	// order of the in-circuit form's Vars.
	FieldElements() []fr.Element

	// Nonce returns the blinding nonce of the record's commitment.
	Nonce() fr.Element
}

// Var is the in-circuit form of an attribute record. Implementations are
// plain structs of frontend.Variable fields; their zero value fixes the
// circuit shape, which must therefore be content-independent.
type Var interface {
	// Vars returns the record's variables in FieldElements order.
	Vars() []frontend.Variable

	// NonceVar returns the blinding nonce variable.
	NonceVar() frontend.Variable
}

// Record couples a host-side attribute record with its witness assignment.
type Record[A Var] interface {
	Attrs

	// Assign returns the in-circuit assignment of the record.
	Assign() A
}

// Commit returns the commitment to rec under scheme.
func Commit(scheme commit.Scheme, rec Attrs) fr.Element {
	return scheme.Commit(rec.Nonce(), rec.FieldElements()...)
}
