package core

// CollectionState exposes internal state of a collection for observability.
// Collections return it from their introspection State() method.
type CollectionState struct {
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Sections   int    `json:"sections"`
	Objects    int    `json:"objects"`
	Observers  int    `json:"observers"`
	Batches    uint64 `json:"batches"`
	BatchDepth int    `json:"batch_depth,omitempty"`
	Sources    int    `json:"sources,omitempty"`
	Closed     bool   `json:"closed,omitempty"`
}
