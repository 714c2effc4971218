package domain

// Stage names a long-running pipeline step that reports progress.
type Stage string

const (
	// StageEmbedding is chunk embedding, reported per sub-batch.
	StageEmbedding Stage = "embedding"
	// StageTraining is partitioned index training, reported per k-means iteration.
	StageTraining Stage = "training"
	// StageIndexing is vector insertion into the index.
	StageIndexing Stage = "indexing"
)

// Progress is a single incremental progress notification.
type Progress struct {
	Stage Stage
	Done  int
	Total int
}

// ProgressFunc receives progress notifications. A nil ProgressFunc is valid and ignored.
type ProgressFunc func(Progress)

// Report calls f if it is set.
func (f ProgressFunc) Report(stage Stage, done, total int) {
	if f != nil {
		f(Progress{Stage: stage, Done: done, Total: total})
	}
}
