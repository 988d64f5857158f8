// Copyright 2025 the zkcreds authors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package smt

import (
	"errors"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/haopining/zkcreds/hash2to1"
)

func elem(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

func TestHeightPrecondition(t *testing.T) {
	h := hash2to1.NewMiMC()

	require.Panics(t, func() { New(h, 1) })
	require.Panics(t, func() { New(h, 0) })
	require.NotPanics(t, func() { New(h, MinHeight) })

	// beyond MaxHeight the uint64 capacity computation would overflow
	require.Panics(t, func() { New(h, MaxHeight+1) })
	require.Panics(t, func() { New(h, 64) })
}

func TestEmptyTreeIsDeterministic(t *testing.T) {
	h := hash2to1.NewMiMC()

	a := New(h, 4)
	b := New(h, 4)
	rootA, rootB := a.Root(), b.Root()
	require.True(t, rootA.Equal(&rootB))

	// a different height yields a different default root
	c := New(h, 5)
	rootC := c.Root()
	require.False(t, rootA.Equal(&rootC))
}

func TestInsertRemoveRestoresRoot(t *testing.T) {
	h := hash2to1.NewMiMC()

	pristine := New(h, 4)
	tree := New(h, 4)

	tree.Insert(7, elem(42))
	mutated := tree.Root()
	pristineRoot := pristine.Root()
	require.False(t, mutated.Equal(&pristineRoot))

	tree.Remove(7)
	restored := tree.Root()
	require.True(t, restored.Equal(&pristineRoot))

	// removing an unoccupied slot is a no-op
	tree.Remove(3)
	again := tree.Root()
	require.True(t, again.Equal(&pristineRoot))
}

func TestBulkLoadMatchesSequentialInserts(t *testing.T) {
	h := hash2to1.NewMiMC()

	leaves := map[uint64]fr.Element{
		0:  elem(11),
		3:  elem(22),
		9:  elem(33),
		15: elem(44),
	}

	bulk := NewFromLeaves(h, 4, leaves)
	seq := New(h, 4)
	for idx, v := range leaves {
		seq.Insert(idx, v)
	}

	bulkRoot, seqRoot := bulk.Root(), seq.Root()
	require.True(t, bulkRoot.Equal(&seqRoot))
}

func TestRangePreconditions(t *testing.T) {
	h := hash2to1.NewMiMC()
	tree := New(h, 3) // capacity 8

	require.Panics(t, func() { tree.Insert(8, elem(1)) })
	require.Panics(t, func() { tree.Remove(8) })
	require.Panics(t, func() {
		NewFromLeaves(h, 3, map[uint64]fr.Element{8: elem(1)})
	})

	_, err := tree.GenerateProof(8, elem(1))
	require.ErrorIs(t, err, ErrIndexOutOfRange)
}

func TestGenerateProofMismatch(t *testing.T) {
	h := hash2to1.NewMiMC()
	tree := New(h, 4)
	tree.Insert(5, elem(100))

	// claiming a value the tree never held at that slot must fail
	_, err := tree.GenerateProof(5, elem(101))
	require.ErrorIs(t, err, ErrLeafMismatch)

	// an unoccupied slot proves only the default leaf
	_, err = tree.GenerateProof(6, elem(100))
	require.ErrorIs(t, err, ErrLeafMismatch)
	_, err = tree.GenerateProof(6, h.EmptyLeaf())
	require.NoError(t, err)
}

func TestGenerateProofRoundTrip(t *testing.T) {
	h := hash2to1.NewMiMC()
	tree := New(h, 4)
	tree.Insert(5, elem(100))
	tree.Insert(11, elem(200))

	path, err := tree.GenerateProof(11, elem(200))
	require.NoError(t, err)
	require.Len(t, path.Siblings, 4)
	require.True(t, path.Verify(h, tree.Root()))

	// a path does not verify against a stale root
	tree.Insert(2, elem(300))
	require.False(t, path.Verify(h, tree.Root()))
}

// TestAuthPathConvention pins the left/right sibling ordering: bit l of the
// leaf index selects the side of the running value at level l. A mismatched
// convention between host tree and circuit silently accepts wrong
// memberships, so these vectors are load-bearing.
func TestAuthPathConvention(t *testing.T) {
	h := hash2to1.NewMiMC()
	tree := New(h, 2)
	for i := uint64(0); i < 4; i++ {
		tree.Insert(i, elem(i+1))
	}

	// expected shape: root = H(H(1,2), H(3,4))
	l1, l2, l3, l4 := elem(1), elem(2), elem(3), elem(4)
	n01 := h.Combine(&l1, &l2)
	n23 := h.Combine(&l3, &l4)
	wantRoot := h.Combine(&n01, &n23)
	gotRoot := tree.Root()
	require.True(t, gotRoot.Equal(&wantRoot))

	// index 2 = binary 10: bit0=0 puts the leaf on the left of its sibling
	// (the leaf at index 3), bit1=1 puts H(3,4) on the right of H(1,2)
	path, err := tree.GenerateProof(2, elem(3))
	require.NoError(t, err)
	require.True(t, path.Siblings[0].Equal(&l4))
	require.True(t, path.Siblings[1].Equal(&n01))
	require.True(t, path.Verify(h, wantRoot))
}

func TestTreeProperties(t *testing.T) {
	h := hash2to1.NewMiMC()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50

	properties := gopter.NewProperties(parameters)

	properties.Property("insert then prove round-trips against the root", prop.ForAll(
		func(height int, idx uint64, value uint64) bool {
			tree := New(h, height)
			idx %= tree.Capacity()

			tree.Insert(idx, elem(value))
			path, err := tree.GenerateProof(idx, elem(value))
			if err != nil {
				return false
			}
			return path.Verify(h, tree.Root())
		},
		gen.IntRange(MinHeight, 8),
		gen.UInt64(),
		gen.UInt64(),
	))

	properties.Property("insert then remove restores the empty root", prop.ForAll(
		func(height int, idx uint64, value uint64) bool {
			tree := New(h, height)
			idx %= tree.Capacity()
			before := tree.Root()

			tree.Insert(idx, elem(value))
			tree.Remove(idx)
			after := tree.Root()
			return after.Equal(&before)
		},
		gen.IntRange(MinHeight, 8),
		gen.UInt64(),
		gen.UInt64(),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

// TestSnapshotIsolation exercises the documented single-writer/many-reader
// discipline: readers proving against a snapshot see a stable root while the
// writer keeps mutating the original.
func TestSnapshotIsolation(t *testing.T) {
	h := hash2to1.NewMiMC()
	tree := New(h, 6)
	for i := uint64(0); i < 32; i++ {
		tree.Insert(i, elem(i+1))
	}

	snapshot := tree.Clone()
	snapshotRoot := snapshot.Root()

	var g errgroup.Group
	for i := uint64(0); i < 32; i++ {
		g.Go(func() error {
			path, err := snapshot.GenerateProof(i, elem(i+1))
			if err != nil {
				return err
			}
			if !path.Verify(h, snapshotRoot) {
				return errors.New("proof does not verify against the snapshot root")
			}
			return nil
		})
	}

	// the writer keeps going on the original
	for i := uint64(32); i < 64; i++ {
		tree.Insert(i, elem(i+1))
	}

	require.NoError(t, g.Wait())

	// the snapshot never saw the writer's mutations
	stillSame := snapshot.Root()
	require.True(t, stillSame.Equal(&snapshotRoot))
	treeRoot := tree.Root()
	require.False(t, treeRoot.Equal(&snapshotRoot))
}
