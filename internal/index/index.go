// Package index holds in-memory nearest-neighbour indexes over chunk embeddings.
//
// Small corpora use an exact flat index. Larger corpora use an inverted-file index whose
// partitions are trained with k-means before any vector is inserted. The choice is made
// once at build time.
package index

import (
	"cmp"
	"slices"

	"github.com/kailas-cloud/docqa/internal/domain"
)

// Kind names the index structure.
type Kind string

const (
	// KindFlat is exhaustive exact search.
	KindFlat Kind = "flat"
	// KindIVF is partitioned approximate search.
	KindIVF Kind = "ivf"
)

// Defaults for Options.
const (
	DefaultFlatThreshold       = 1000
	DefaultMaxPartitions       = 100
	DefaultVectorsPerPartition = 10
	DefaultNProbe              = 10
	DefaultTrainIterations     = 10
)

// Hit is one search result: the position of the stored vector and its squared L2 distance.
type Hit struct {
	Position int
	Distance float32
}

// Index searches stored vectors by squared Euclidean distance.
type Index interface {
	Kind() Kind
	Len() int
	Dim() int
	// Search returns at most k hits ordered by ascending distance, ties by position.
	// An empty index returns no hits and no error.
	Search(query []float32, k int) ([]Hit, error)
}

// Options control index construction.
type Options struct {
	FlatThreshold       int `yaml:"flat_threshold"`
	MaxPartitions       int `yaml:"max_partitions"`
	VectorsPerPartition int `yaml:"vectors_per_partition"`
	NProbe              int `yaml:"nprobe"`
	TrainIterations     int `yaml:"train_iterations"`
}

// DefaultOptions returns the standard build options.
func DefaultOptions() Options {
	return Options{
		FlatThreshold:       DefaultFlatThreshold,
		MaxPartitions:       DefaultMaxPartitions,
		VectorsPerPartition: DefaultVectorsPerPartition,
		NProbe:              DefaultNProbe,
		TrainIterations:     DefaultTrainIterations,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.FlatThreshold <= 0 {
		o.FlatThreshold = d.FlatThreshold
	}
	if o.MaxPartitions <= 0 {
		o.MaxPartitions = d.MaxPartitions
	}
	if o.VectorsPerPartition <= 0 {
		o.VectorsPerPartition = d.VectorsPerPartition
	}
	if o.NProbe <= 0 {
		o.NProbe = d.NProbe
	}
	if o.TrainIterations <= 0 {
		o.TrainIterations = d.TrainIterations
	}
	return o
}

// Build picks the index kind for len(vectors) and builds it. All vectors must share one
// dimension. Below FlatThreshold the index is flat; at or above it is IVF with
// min(MaxPartitions, n/VectorsPerPartition) partitions.
func Build(vectors [][]float32, opts Options, progress domain.ProgressFunc) (Index, error) {
	opts = opts.withDefaults()

	dim := 0
	if len(vectors) > 0 {
		dim = len(vectors[0])
	}
	for _, v := range vectors {
		if len(v) != dim {
			return nil, domain.NewDimMismatch(dim, len(v))
		}
	}

	if len(vectors) < opts.FlatThreshold {
		flat := newFlat(dim, vectors)
		progress.Report(domain.StageIndexing, len(vectors), len(vectors))
		return flat, nil
	}

	nlist := max(min(opts.MaxPartitions, len(vectors)/opts.VectorsPerPartition), 1)
	return newIVF(dim, vectors, nlist, opts.NProbe, opts.TrainIterations, progress), nil
}

// Empty returns an index with no vectors. Search on it always returns no hits.
func Empty() Index {
	return newFlat(0, nil)
}

// Similarity maps a squared L2 distance to (0, 1], monotonically decreasing.
func Similarity(distance float32) float32 {
	return 1 / (1 + distance)
}

func sqDist(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

func checkQuery(dim int, query []float32) error {
	if len(query) != dim {
		return domain.NewDimMismatch(dim, len(query))
	}
	return nil
}

// topK sorts hits by (distance, position) and truncates to k.
func topK(hits []Hit, k int) []Hit {
	slices.SortFunc(hits, func(a, b Hit) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.Position, b.Position)
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}
