// Copyright 2025 the zkcreds authors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package comtree

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/stretchr/testify/require"

	"github.com/haopining/zkcreds/smt"
)

func randomCommitment(t *testing.T) fr.Element {
	t.Helper()
	var e fr.Element
	_, err := e.SetRandom()
	require.NoError(t, err)
	return e
}

func TestSetupHeightPrecondition(t *testing.T) {
	require.Panics(t, func() { _, _ = Setup(1) })
	require.Panics(t, func() { NewComTree(1) })
	require.Panics(t, func() { _, _ = Setup(smt.MaxHeight + 1) })
	require.Panics(t, func() { NewComTree(smt.MaxHeight + 1) })
}

func TestMembershipLifecycle(t *testing.T) {
	const height = 4

	pk, err := Setup(height)
	require.NoError(t, err)
	vk := pk.VerifyingKey()

	tree := NewComTree(height)
	com := randomCommitment(t)
	tree.Insert(5, com)

	proof, err := tree.ProveMembership(pk, 5, com)
	require.NoError(t, err)
	require.True(t, VerifyMembership(vk, proof, com, tree.Root()))

	// tampering with either public input must flip verification to false
	var one fr.Element
	one.SetOne()

	badRoot := tree.Root()
	badRoot.Add(&badRoot, &one)
	require.False(t, VerifyMembership(vk, proof, com, badRoot))

	badCom := com
	badCom.Add(&badCom, &one)
	require.False(t, VerifyMembership(vk, proof, badCom, tree.Root()))

	// a stale root no longer accepts the proof
	tree.Insert(6, randomCommitment(t))
	require.False(t, VerifyMembership(vk, proof, com, tree.Root()))
}

func TestProveMembershipEveryIndex(t *testing.T) {
	const height = 3

	pk, err := Setup(height)
	require.NoError(t, err)
	vk := pk.VerifyingKey()

	tree := NewComTree(height)
	coms := make([]fr.Element, 8)
	for i := range coms {
		coms[i] = randomCommitment(t)
		tree.Insert(uint64(i), coms[i])
	}

	for i := range coms {
		proof, err := tree.ProveMembership(pk, uint64(i), coms[i])
		require.NoError(t, err)
		require.True(t, VerifyMembership(vk, proof, coms[i], tree.Root()), "index %d", i)
	}
}

func TestProveMembershipFailures(t *testing.T) {
	const height = 3

	pk, err := Setup(height)
	require.NoError(t, err)

	tree := NewComTree(height)
	com := randomCommitment(t)
	tree.Insert(2, com)

	// proving a value the tree does not hold at that slot
	_, err = tree.ProveMembership(pk, 2, randomCommitment(t))
	require.ErrorIs(t, err, smt.ErrLeafMismatch)

	// proving beyond capacity
	_, err = tree.ProveMembership(pk, 8, com)
	require.ErrorIs(t, err, smt.ErrIndexOutOfRange)

	// proving with a key generated for another height
	otherPK, err := Setup(height + 1)
	require.NoError(t, err)
	_, err = tree.ProveMembership(otherPK, 2, com)
	require.ErrorIs(t, err, ErrHeightMismatch)
}

// TestVerifyAcrossHeightsIsFalse checks that a verifying key for one height
// rejects, without crashing, a proof built for another.
func TestVerifyAcrossHeightsIsFalse(t *testing.T) {
	pk3, err := Setup(3)
	require.NoError(t, err)
	pk4, err := Setup(4)
	require.NoError(t, err)

	tree := NewComTree(4)
	com := randomCommitment(t)
	tree.Insert(9, com)

	proof, err := tree.ProveMembership(pk4, 9, com)
	require.NoError(t, err)

	require.True(t, VerifyMembership(pk4.VerifyingKey(), proof, com, tree.Root()))
	require.False(t, VerifyMembership(pk3.VerifyingKey(), proof, com, tree.Root()))
}

func TestSnapshotProvesAgainstStableRoot(t *testing.T) {
	const height = 3

	pk, err := Setup(height)
	require.NoError(t, err)
	vk := pk.VerifyingKey()

	tree := NewComTree(height)
	com := randomCommitment(t)
	tree.Insert(1, com)

	snapshot := tree.Snapshot()
	snapshotRoot := snapshot.Root()

	// the issuer keeps mutating the original
	tree.Insert(2, randomCommitment(t))

	proof, err := snapshot.ProveMembership(pk, 1, com)
	require.NoError(t, err)
	require.True(t, VerifyMembership(vk, proof, com, snapshotRoot))
	require.False(t, VerifyMembership(vk, proof, com, tree.Root()))
}
