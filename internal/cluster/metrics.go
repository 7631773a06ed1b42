// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cluster

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/aliREZA79400/ProductStapler/pkg/types"
)

// computeReport evaluates silhouette, Davies-Bouldin and Calinski-Harabasz
// at every level. Level 1 is scored on the full matrix; levels 2 and 3 are
// row-count-weighted averages across parent partitions, skipping parents
// that split into fewer than two clusters (the indices are undefined
// there). The headline score is the mean silhouette across levels.
func computeReport(X *mat.Dense, asg []types.Assignment) types.MetricsReport {
	n, _ := X.Dims()

	l1 := make([]int, n)
	for i := range asg {
		l1[i] = asg[i].Level1
	}

	var report types.MetricsReport
	report.Level1 = levelOne(X, l1)

	// Level 2: per level1 partition.
	report.Level2 = weightedLevel(X, partitionRows(l1), func(r int) int { return asg[r].Level2 })

	// Level 3: per (level1, level2) partition.
	var parents3 [][]int
	for _, rows := range partitionRows(l1) {
		local := make([]int, len(rows))
		for i, r := range rows {
			local[i] = asg[r].Level2
		}
		parents3 = append(parents3, groupByLocal(rows, local)...)
	}
	report.Level3 = weightedLevel(X, parents3, func(r int) int { return asg[r].Level3 })

	report.Headline = (report.Level1.Silhouette + report.Level2.Silhouette + report.Level3.Silhouette) / 3
	return report
}

func levelOne(X *mat.Dense, labels []int) types.LevelMetrics {
	if distinct(labels) < 2 {
		return types.LevelMetrics{}
	}
	return types.LevelMetrics{
		Silhouette:       silhouette(X, labels),
		DaviesBouldin:    daviesBouldin(X, labels),
		CalinskiHarabasz: calinskiHarabasz(X, labels),
		Partitions:       1,
	}
}

func weightedLevel(X *mat.Dense, parents [][]int, label func(row int) int) types.LevelMetrics {
	var out types.LevelMetrics
	total := 0
	for _, rows := range parents {
		local := make([]int, len(rows))
		for i, r := range rows {
			local[i] = label(r)
		}
		if distinct(local) < 2 {
			continue
		}
		sub := subMatrix(X, rows)
		w := len(rows)
		out.Silhouette += silhouette(sub, local) * float64(w)
		out.DaviesBouldin += daviesBouldin(sub, local) * float64(w)
		out.CalinskiHarabasz += calinskiHarabasz(sub, local) * float64(w)
		out.Partitions++
		total += w
	}
	if total > 0 {
		out.Silhouette /= float64(total)
		out.DaviesBouldin /= float64(total)
		out.CalinskiHarabasz /= float64(total)
	}
	return out
}

func distinct(labels []int) int {
	seen := map[int]struct{}{}
	for _, l := range labels {
		seen[l] = struct{}{}
	}
	return len(seen)
}

// silhouette is the mean silhouette coefficient over all samples, with
// Euclidean distances. Singleton clusters contribute zero.
func silhouette(X *mat.Dense, labels []int) float64 {
	n, _ := X.Dims()
	parts := partitionRows(labels)
	total := 0.0
	for i := 0; i < n; i++ {
		own := labels[i]
		if len(parts[own]) < 2 {
			continue
		}

		a := 0.0
		for _, j := range parts[own] {
			if j != i {
				a += euclidean(X.RawRowView(i), X.RawRowView(j))
			}
		}
		a /= float64(len(parts[own]) - 1)

		b := math.Inf(1)
		for c, rows := range parts {
			if c == own || len(rows) == 0 {
				continue
			}
			avg := 0.0
			for _, j := range rows {
				avg += euclidean(X.RawRowView(i), X.RawRowView(j))
			}
			avg /= float64(len(rows))
			if avg < b {
				b = avg
			}
		}

		if max := math.Max(a, b); max > 0 {
			total += (b - a) / max
		}
	}
	return total / float64(n)
}

// daviesBouldin is the average over clusters of the worst ratio of
// within-cluster scatter to between-centroid separation. Lower is better.
func daviesBouldin(X *mat.Dense, labels []int) float64 {
	parts := partitionRows(labels)
	k := len(parts)

	centroids := make([][]float64, k)
	scatter := make([]float64, k)
	for c, rows := range parts {
		centroids[c] = meanVector(X, rows)
		for _, r := range rows {
			scatter[c] += euclidean(X.RawRowView(r), centroids[c])
		}
		if len(rows) > 0 {
			scatter[c] /= float64(len(rows))
		}
	}

	sum := 0.0
	for i := 0; i < k; i++ {
		worst := 0.0
		for j := 0; j < k; j++ {
			if i == j {
				continue
			}
			sep := euclidean(centroids[i], centroids[j])
			if sep == 0 {
				continue
			}
			if r := (scatter[i] + scatter[j]) / sep; r > worst {
				worst = r
			}
		}
		sum += worst
	}
	return sum / float64(k)
}

// calinskiHarabasz is the between/within dispersion ratio scaled by the
// degrees of freedom. Higher is better.
func calinskiHarabasz(X *mat.Dense, labels []int) float64 {
	n, _ := X.Dims()
	parts := partitionRows(labels)
	k := len(parts)
	if k < 2 || n <= k {
		return 0
	}

	all := make([]int, n)
	for i := range all {
		all[i] = i
	}
	grand := meanVector(X, all)

	between, within := 0.0, 0.0
	for _, rows := range parts {
		c := meanVector(X, rows)
		between += float64(len(rows)) * sqDist(c, grand)
		for _, r := range rows {
			within += sqDist(X.RawRowView(r), c)
		}
	}
	if within == 0 {
		return 0
	}
	return (between / float64(k-1)) / (within / float64(n-k))
}
