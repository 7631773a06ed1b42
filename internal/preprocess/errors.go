// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package preprocess

import (
	"errors"
	"fmt"
)

// ErrNotFitted is returned when Transform runs before Fit (or before a
// fitted pipeline was loaded).
var ErrNotFitted = errors.New("preprocess: pipeline is not fitted")

// EncodingError reports a value outside a strict ordinal field's rank
// table under the strict policy.
type EncodingError struct {
	Field string
	Value string
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("preprocess: unseen category %q in ordinal field %q", e.Value, e.Field)
}
