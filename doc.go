// Copyright 2025 the zkcreds authors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package zkcreds is a zero-knowledge anonymous-credential proof core.
//
// An issuer commits a holder's attribute record into a fixed-height
// commitment tree (package comtree) and publishes the root. The holder later
// produces two independent succinct proofs:
//
//   - a membership proof: "my attribute commitment is in the tree under this
//     root, at a position I am not revealing" (package comtree), and
//   - a predicate proof: "the attributes behind my commitment satisfy this
//     predicate" (package pred),
//
// without revealing the attributes or the tree position. A verifier checks
// both proofs and cross-checks that they reference the identical attribute
// commitment; VerifyPresentation in this package is that discipline made
// explicit.
//
// The concrete primitives are pluggable: the two-to-one tree hash (package
// hash2to1) and the commitment scheme (package commit) default to MiMC over
// BN254, the pairing curve of the underlying groth16 engine. Proving and
// verifying keys are generated once per circuit shape and reused across
// arbitrarily many proofs.
package zkcreds
