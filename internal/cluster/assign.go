// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cluster

import (
	"fmt"
	"math"

	"github.com/aliREZA79400/ProductStapler/pkg/types"
)

// Assign places one feature vector in a fitted model's hierarchy without
// retraining. A known training product (matched by id, not by value)
// returns its stored assignment verbatim; a new product takes a greedy
// nearest-representative walk down the three levels, so cost grows with
// depth times branching factor, not with the training set size. The model
// is never mutated.
func Assign(id string, vec []float64, m *Model) (types.Assignment, error) {
	if id != "" {
		if asg, ok := m.AssignmentByID(id); ok {
			return asg, nil
		}
	}
	if len(vec) != m.Width {
		return types.Assignment{}, fmt.Errorf("feature vector has %d dimensions, model expects %d", len(vec), m.Width)
	}

	l1, err := nearest(vec, m.Reps.Level1, "level1")
	if err != nil {
		return types.Assignment{}, err
	}
	l2, err := nearest(vec, m.Reps.Level2[l1], fmt.Sprintf("level2 under level1=%d", l1))
	if err != nil {
		return types.Assignment{}, err
	}
	l3, err := nearest(vec, m.Reps.Level3[l1][l2], fmt.Sprintf("level3 under level1=%d level2=%d", l1, l2))
	if err != nil {
		return types.Assignment{}, err
	}
	return types.Assignment{Level1: l1, Level2: l2, Level3: l3}, nil
}

// nearest returns the index of the closest representative by Euclidean
// distance. An empty representative list means the fitted model is
// malformed, which is fatal rather than a per-product skip.
func nearest(vec []float64, reps [][]float64, scope string) (int, error) {
	if len(reps) == 0 {
		return 0, &ConsistencyError{Detail: "no representatives at " + scope}
	}
	best, bestDist := 0, math.Inf(1)
	for i, rep := range reps {
		if d := sqDist(vec, rep); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best, nil
}
