package index

// Flat is an exact index that scans every stored vector.
type Flat struct {
	dim  int
	data [][]float32
}

func newFlat(dim int, vectors [][]float32) *Flat {
	data := make([][]float32, len(vectors))
	copy(data, vectors)
	return &Flat{dim: dim, data: data}
}

func (f *Flat) Kind() Kind { return KindFlat }

func (f *Flat) Len() int { return len(f.data) }

func (f *Flat) Dim() int { return f.dim }

func (f *Flat) Search(query []float32, k int) ([]Hit, error) {
	if len(f.data) == 0 || k <= 0 {
		return nil, nil
	}
	if err := checkQuery(f.dim, query); err != nil {
		return nil, err
	}

	hits := make([]Hit, len(f.data))
	for i, v := range f.data {
		hits[i] = Hit{Position: i, Distance: sqDist(query, v)}
	}
	return topK(hits, k), nil
}
