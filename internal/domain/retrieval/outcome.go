package retrieval

// Status distinguishes "no matches" from "index unusable".
type Status string

const (
	// StatusFound means at least one result was retrieved.
	StatusFound Status = "found"
	// StatusEmpty means the search ran and matched nothing (or there was nothing to search).
	StatusEmpty Status = "empty"
	// StatusFailed means the search could not run. Results are empty.
	StatusFailed Status = "failed"
)

// Outcome is the result of one retrieval call.
type Outcome struct {
	Status  Status
	Results []Result
	Err     error
}

// Found wraps non-empty results; empty input yields an Empty outcome.
func Found(results []Result) Outcome {
	if len(results) == 0 {
		return Empty()
	}
	return Outcome{Status: StatusFound, Results: results}
}

// Empty is an outcome with no matches.
func Empty() Outcome {
	return Outcome{Status: StatusEmpty}
}

// Failed is an outcome for an unusable index or embedder.
func Failed(err error) Outcome {
	return Outcome{Status: StatusFailed, Err: err}
}
