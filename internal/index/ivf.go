package index

import (
	"github.com/kailas-cloud/docqa/internal/domain"
)

// IVF is an inverted-file index: vectors are bucketed by nearest centroid and a query
// scans only the nprobe closest buckets.
type IVF struct {
	dim       int
	n         int
	nprobe    int
	centroids [][]float32
	lists     [][]int
	data      [][]float32
}

func newIVF(dim int, vectors [][]float32, nlist, nprobe, iterations int, progress domain.ProgressFunc) *IVF {
	centroids := trainKMeans(vectors, nlist, iterations, progress)

	lists := make([][]int, len(centroids))
	for i, v := range vectors {
		c := nearest(centroids, v)
		lists[c] = append(lists[c], i)
	}
	progress.Report(domain.StageIndexing, len(vectors), len(vectors))

	data := make([][]float32, len(vectors))
	copy(data, vectors)

	return &IVF{
		dim:       dim,
		n:         len(vectors),
		nprobe:    min(nprobe, len(centroids)),
		centroids: centroids,
		lists:     lists,
		data:      data,
	}
}

func (x *IVF) Kind() Kind { return KindIVF }

func (x *IVF) Len() int { return x.n }

func (x *IVF) Dim() int { return x.dim }

// Partitions returns the number of trained partitions.
func (x *IVF) Partitions() int { return len(x.centroids) }

func (x *IVF) Search(query []float32, k int) ([]Hit, error) {
	if x.n == 0 || k <= 0 {
		return nil, nil
	}
	if err := checkQuery(x.dim, query); err != nil {
		return nil, err
	}

	probes := make([]Hit, len(x.centroids))
	for i, c := range x.centroids {
		probes[i] = Hit{Position: i, Distance: sqDist(query, c)}
	}
	probes = topK(probes, x.nprobe)

	var hits []Hit
	for _, p := range probes {
		for _, pos := range x.lists[p.Position] {
			hits = append(hits, Hit{Position: pos, Distance: sqDist(query, x.data[pos])})
		}
	}
	return topK(hits, k), nil
}
