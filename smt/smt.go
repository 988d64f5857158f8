// Copyright 2025 the zkcreds authors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

// Package smt implements a fixed-height, index-addressed sparse Merkle tree
// over field elements.
//
// The tree has 2^height leaf slots. Unoccupied slots share one canonical
// default value, so storage is proportional to the number of occupied slots,
// not to capacity. A mutation recomputes only the O(height) path from the
// touched slot to the root; the root itself is cached and read in O(1).
//
// Leaves are not hashed individually: the first hash application combines the
// two raw leaf values of a sibling pair. Leaf slots hold cryptographically
// binding commitments already, so a per-leaf hash would buy nothing.
//
// The tree is a plain mutable value with no internal locking. Concurrent
// mutation is undefined; hand Clone snapshots to concurrent readers instead.
package smt

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"github.com/haopining/zkcreds/hash2to1"
)

// MinHeight is the smallest supported tree height. A height-1 tree would hold
// a single slot with nothing to combine.
const MinHeight = 2

// MaxHeight is the largest supported tree height. Capacity is computed as
// 1 << height in a uint64, which overflows past 63; 62 keeps it comfortably
// representable while far exceeding any practical tree.
const MaxHeight = 62

// Tree is a sparse Merkle tree of fixed height over fr elements.
type Tree struct {
	hash   hash2to1.Hash
	height int

	// leaves and nodes store only non-default values. nodes[l] holds the
	// internal level reached after l+1 combine steps, so nodes[height-1]
	// has a single entry, the root, when any slot is occupied.
	leaves map[uint64]fr.Element
	nodes  []map[uint64]fr.Element

	// empty[l] is the value of a fully-unoccupied subtree l levels above the
	// leaves; empty[0] is the canonical default leaf.
	empty []fr.Element

	root fr.Element
}

// New returns an empty tree of capacity 2^height.
//
// Panics unless MinHeight <= height <= MaxHeight.
func New(h hash2to1.Hash, height int) *Tree {
	if height < MinHeight || height > MaxHeight {
		panic(fmt.Sprintf("smt: height %d is outside the supported range [%d, %d]", height, MinHeight, MaxHeight))
	}

	empty := make([]fr.Element, height+1)
	empty[0] = h.EmptyLeaf()
	for l := 1; l <= height; l++ {
		empty[l] = h.Combine(&empty[l-1], &empty[l-1])
	}

	nodes := make([]map[uint64]fr.Element, height)
	for l := range nodes {
		nodes[l] = make(map[uint64]fr.Element)
	}

	return &Tree{
		hash:   h,
		height: height,
		leaves: make(map[uint64]fr.Element),
		nodes:  nodes,
		empty:  empty,
		root:   empty[height],
	}
}

// NewFromLeaves returns a tree of capacity 2^height populated with the given
// leaves. The root is computed once, bottom up over the occupied paths.
//
// Panics if height is outside the supported range or if any index is out of
// range.
func NewFromLeaves(h hash2to1.Hash, height int, leaves map[uint64]fr.Element) *Tree {
	t := New(h, height)
	for idx, v := range leaves {
		t.checkRange(idx)
		t.leaves[idx] = v
	}
	for idx := range leaves {
		t.rehashPath(idx)
	}
	return t
}

// Height returns the tree's fixed height.
func (t *Tree) Height() int {
	return t.height
}

// Capacity returns the number of leaf slots, 2^height.
func (t *Tree) Capacity() uint64 {
	return 1 << uint(t.height)
}

// Root returns the cached root.
func (t *Tree) Root() fr.Element {
	return t.root
}

// Insert sets the slot at idx to v, overwriting any existing value, and
// recomputes the path to the root.
//
// Panics if idx is out of range; an out-of-range index is a caller bug, not a
// recoverable condition.
func (t *Tree) Insert(idx uint64, v fr.Element) {
	t.checkRange(idx)
	t.leaves[idx] = v
	t.rehashPath(idx)
}

// Remove resets the slot at idx to the canonical default and recomputes the
// path. Removing an unoccupied slot is a no-op.
//
// Panics if idx is out of range.
func (t *Tree) Remove(idx uint64) {
	t.checkRange(idx)
	if _, ok := t.leaves[idx]; !ok {
		return
	}
	delete(t.leaves, idx)
	t.rehashPath(idx)
}

// GenerateProof returns the authentication path for expected at idx against
// the current root.
//
// Returns ErrIndexOutOfRange if idx is not below capacity, and
// ErrLeafMismatch if the stored slot differs from expected; the mismatch
// check keeps a caller from proving membership of a value the tree never
// held at that position.
func (t *Tree) GenerateProof(idx uint64, expected fr.Element) (AuthPath, error) {
	if idx >= t.Capacity() {
		return AuthPath{}, fmt.Errorf("%w: index %d, capacity %d", ErrIndexOutOfRange, idx, t.Capacity())
	}
	stored := t.leaf(idx)
	if !stored.Equal(&expected) {
		return AuthPath{}, fmt.Errorf("%w: index %d", ErrLeafMismatch, idx)
	}

	siblings := make([]fr.Element, t.height)
	siblings[0] = t.leaf(idx ^ 1)
	for l := 1; l < t.height; l++ {
		siblings[l] = t.node(l, (idx>>uint(l))^1)
	}

	return AuthPath{
		Leaf:     expected,
		Index:    idx,
		Siblings: siblings,
	}, nil
}

// Clone returns an independent deep copy of the tree. Snapshots let proof
// generation read a stable root while a single writer keeps mutating the
// original.
func (t *Tree) Clone() *Tree {
	cp := &Tree{
		hash:   t.hash,
		height: t.height,
		leaves: make(map[uint64]fr.Element, len(t.leaves)),
		nodes:  make([]map[uint64]fr.Element, len(t.nodes)),
		empty:  t.empty,
		root:   t.root,
	}
	for idx, v := range t.leaves {
		cp.leaves[idx] = v
	}
	for l := range t.nodes {
		cp.nodes[l] = make(map[uint64]fr.Element, len(t.nodes[l]))
		for idx, v := range t.nodes[l] {
			cp.nodes[l][idx] = v
		}
	}
	return cp
}

func (t *Tree) checkRange(idx uint64) {
	if idx >= t.Capacity() {
		panic(fmt.Sprintf("smt: index %d is out of range for capacity %d", idx, t.Capacity()))
	}
}

// leaf returns the slot value at idx, default included.
func (t *Tree) leaf(idx uint64) fr.Element {
	if v, ok := t.leaves[idx]; ok {
		return v
	}
	return t.empty[0]
}

// node returns the internal node at level l (1-based above the leaves),
// default included.
func (t *Tree) node(l int, idx uint64) fr.Element {
	if v, ok := t.nodes[l-1][idx]; ok {
		return v
	}
	return t.empty[l]
}

// rehashPath recomputes the internal nodes above the slot at idx. Nodes equal
// to their level's empty value are pruned so the maps stay sparse and a
// Remove leaves the tree indistinguishable from one that never held the slot.
func (t *Tree) rehashPath(idx uint64) {
	cur := idx
	for l := 1; l <= t.height; l++ {
		cur >>= 1

		var left, right fr.Element
		if l == 1 {
			left, right = t.leaf(2*cur), t.leaf(2*cur+1)
		} else {
			left, right = t.node(l-1, 2*cur), t.node(l-1, 2*cur+1)
		}
		parent := t.hash.Combine(&left, &right)

		if parent.Equal(&t.empty[l]) {
			delete(t.nodes[l-1], cur)
		} else {
			t.nodes[l-1][cur] = parent
		}
	}
	t.root = t.node(t.height, 0)
}

// AuthPath is the witness that a leaf occupies a slot: the leaf value, its
// index, and one sibling per level ordered leaf-level upward. Siblings[0] is
// the raw sibling leaf; every entry above it is an internal hash.
//
// The left/right convention is fixed by the index bits: bit l of Index being
// zero means the running value is the left input of the combine at level l.
// The membership circuit reproduces exactly this convention; the agreement is
// pinned by test vectors.
type AuthPath struct {
	Leaf     fr.Element
	Index    uint64
	Siblings []fr.Element
}

// Verify recomputes the root from the path on the host and compares it to
// root. Provers use it as a cheap sanity check before synthesizing a circuit
// witness from the path.
func (p AuthPath) Verify(h hash2to1.Hash, root fr.Element) bool {
	cur := p.Leaf
	for l, sib := range p.Siblings {
		if (p.Index>>uint(l))&1 == 0 {
			cur = h.Combine(&cur, &sib)
		} else {
			cur = h.Combine(&sib, &cur)
		}
	}
	return cur.Equal(&root)
}
