// Copyright 2025 the zkcreds authors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package smt

import "errors"

var (
	// ErrIndexOutOfRange index is not below the tree's capacity
	ErrIndexOutOfRange = errors.New("leaf index is out of the tree's range")

	// ErrLeafMismatch the stored leaf differs from the claimed one
	ErrLeafMismatch = errors.New("stored leaf does not match the claimed value")
)
