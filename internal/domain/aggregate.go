package domain

// Event is a fact that can be folded into a root of type R.
type Event[R any] interface {
	// EventType is the stable variant name, without namespace or version.
	EventType() string
	// Apply mutates root to reflect the event. It must be deterministic.
	Apply(root *R)
}

// Aggregate is the in-memory state of one entity rebuilt from its events.
//
// SourceEvents are durable; DraftEvents are staged by business methods and not yet saved.
// LatestRevision is the store position of the last source event and is the
// concurrency precondition when the drafts are appended.
type Aggregate[E Event[R], R any] struct {
	SourceEvents   []E
	DraftEvents    []E
	Root           R
	LatestRevision uint64
}

// Replay folds events in order starting from the zero value of R.
func Replay[E Event[R], R any](events []E) R {
	var root R
	for _, e := range events {
		e.Apply(&root)
	}
	return root
}

// FromEvents builds an aggregate from its durable history.
func FromEvents[E Event[R], R any](events []E, latestRevision uint64) Aggregate[E, R] {
	return Aggregate[E, R]{
		SourceEvents:   events,
		Root:           Replay[E, R](events),
		LatestRevision: latestRevision,
	}
}

// Stage applies e to the root immediately and records it as a draft.
func (a *Aggregate[E, R]) Stage(e E) {
	e.Apply(&a.Root)
	a.DraftEvents = append(a.DraftEvents, e)
}

// IsNew reports whether the aggregate has no durable history.
func (a *Aggregate[E, R]) IsNew() bool {
	return len(a.SourceEvents) == 0
}

// Commit marks the drafts as durable at revision.
func (a *Aggregate[E, R]) Commit(revision uint64) {
	a.SourceEvents = append(a.SourceEvents, a.DraftEvents...)
	a.DraftEvents = nil
	a.LatestRevision = revision
}
