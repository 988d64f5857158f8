// Copyright 2025 the zkcreds authors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package testattrs provides the attribute record and predicate used across
// the test suites: a (name, birth year) record and an age-threshold checker.
package testattrs

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/math/cmp"
	"golang.org/x/crypto/blake2b"
)

// NameAndBirthYear is a minimal attribute record: a free-form name and a
// birth year, with a random blinding nonce.
type NameAndBirthYear struct {
	name      fr.Element
	birthYear uint16
	nonce     fr.Element
}

// New returns a record with a fresh random nonce. The name is absorbed as a
// blake2b digest reduced into the field, the way free-form attribute bytes
// become field-encodable.
func New(name string, birthYear uint16) *NameAndBirthYear {
	digest := blake2b.Sum256([]byte(name))

	var nameField fr.Element
	nameField.SetBytes(digest[:])

	var nonce fr.Element
	if _, err := nonce.SetRandom(); err != nil {
		panic(err)
	}

	return &NameAndBirthYear{
		name:      nameField,
		birthYear: birthYear,
		nonce:     nonce,
	}
}

func (a *NameAndBirthYear) FieldElements() []fr.Element {
	var year fr.Element
	year.SetUint64(uint64(a.birthYear))
	return []fr.Element{a.name, year}
}

func (a *NameAndBirthYear) Nonce() fr.Element {
	return a.nonce
}

// Assign returns the in-circuit witness assignment of the record.
func (a *NameAndBirthYear) Assign() Vars {
	return Vars{
		Name:      a.name,
		BirthYear: a.birthYear,
		Nonce:     a.nonce,
	}
}

// Vars is the in-circuit form of NameAndBirthYear. Its zero value fixes the
// circuit shape.
type Vars struct {
	Name      frontend.Variable
	BirthYear frontend.Variable
	Nonce     frontend.Variable
}

func (v Vars) Vars() []frontend.Variable {
	return []frontend.Variable{v.Name, v.BirthYear}
}

func (v Vars) NonceVar() frontend.Variable {
	return v.Nonce
}

// AgeChecker is satisfied when the record's birth year is at most
// referenceYear minus minAge. The threshold is the checker's only public
// scalar; the verifier derives the same value from the reference year it
// chose.
type AgeChecker struct {
	threshold uint16
}

// NewAgeChecker returns a checker for "at least minAge years old in
// referenceYear".
func NewAgeChecker(referenceYear, minAge uint16) AgeChecker {
	return AgeChecker{threshold: referenceYear - minAge}
}

func (c AgeChecker) Evaluate(api frontend.API, rec Vars, public []frontend.Variable) (frontend.Variable, error) {
	// Pin the witnessed year to 16 bits so the bounded comparison below is
	// sound for any witness a prover could pick.
	api.ToBinary(rec.BirthYear, 16)

	bc := cmp.NewBoundedComparator(api, big.NewInt(1<<16), false)
	return bc.IsLessEq(rec.BirthYear, public[0]), nil
}

func (c AgeChecker) PublicScalars() []fr.Element {
	var t fr.Element
	t.SetUint64(uint64(c.threshold))
	return []fr.Element{t}
}
