package index

import "github.com/kailas-cloud/docqa/internal/domain"

// trainKMeans runs Lloyd's algorithm with evenly spaced initial centroids, so the same
// input always yields the same partitions. Empty clusters keep their previous centroid.
func trainKMeans(vectors [][]float32, k, iterations int, progress domain.ProgressFunc) [][]float32 {
	n := len(vectors)
	k = min(k, n)
	if k == 0 {
		return nil
	}
	dim := len(vectors[0])

	centroids := make([][]float32, k)
	for i := range centroids {
		centroids[i] = append([]float32(nil), vectors[i*n/k]...)
	}

	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}

	for iter := 0; iter < iterations; iter++ {
		changed := 0
		for i, v := range vectors {
			c := nearest(centroids, v)
			if c != assign[i] {
				assign[i] = c
				changed++
			}
		}

		sums := make([][]float64, k)
		counts := make([]int, k)
		for i := range sums {
			sums[i] = make([]float64, dim)
		}
		for i, v := range vectors {
			c := assign[i]
			counts[c]++
			for j, x := range v {
				sums[c][j] += float64(x)
			}
		}
		for c := range centroids {
			if counts[c] == 0 {
				continue
			}
			for j := range centroids[c] {
				centroids[c][j] = float32(sums[c][j] / float64(counts[c]))
			}
		}

		progress.Report(domain.StageTraining, iter+1, iterations)
		if changed == 0 {
			break
		}
	}
	return centroids
}

// nearest returns the index of the closest centroid; ties go to the lower index.
func nearest(centroids [][]float32, v []float32) int {
	best, bestDist := 0, sqDist(v, centroids[0])
	for i := 1; i < len(centroids); i++ {
		if d := sqDist(v, centroids[i]); d < bestDist {
			best, bestDist = i, d
		}
	}
	return best
}
