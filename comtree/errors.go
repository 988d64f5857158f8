// Copyright 2025 the zkcreds authors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package comtree

import "errors"

var (
	// ErrHeightMismatch the proving key was generated for a different tree height
	ErrHeightMismatch = errors.New("proving key height does not match the tree height")
)
