// Copyright 2025 the zkcreds authors
// Licensed under the Apache License, Version 2.0. See the LICENSE file for details.

package pred

import "errors"

var (
	// ErrPredicateNotSatisfied the witnessed attributes do not satisfy the predicate,
	// so no satisfying assignment exists and no proof can be produced
	ErrPredicateNotSatisfied = errors.New("attributes do not satisfy the predicate")
)
