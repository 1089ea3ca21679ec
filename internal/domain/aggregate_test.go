package domain

import (
	"reflect"
	"testing"
)

type counter struct {
	Total int
	Seen  []string
}

type added struct{ n int }

func (added) EventType() string { return "added" }
func (e added) Apply(root *counter) {
	root.Total += e.n
	root.Seen = append(root.Seen, "added")
}

func TestReplayIsDeterministic(t *testing.T) {
	events := []added{{1}, {2}, {3}}
	first := Replay[added, counter](events)
	second := Replay[added, counter](events)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("replay differs: %+v vs %+v", first, second)
	}
	if first.Total != 6 {
		t.Fatalf("total = %d", first.Total)
	}
}

func TestReplayEmptyIsZeroValue(t *testing.T) {
	got := Replay[added, counter](nil)
	if !reflect.DeepEqual(got, counter{}) {
		t.Fatalf("got %+v", got)
	}
}

func TestStageAppliesAndRecordsInOrder(t *testing.T) {
	agg := FromEvents[added, counter]([]added{{1}}, 0)
	agg.Stage(added{10})
	agg.Stage(added{100})
	if agg.Root.Total != 111 {
		t.Fatalf("total = %d", agg.Root.Total)
	}
	if !reflect.DeepEqual(agg.DraftEvents, []added{{10}, {100}}) {
		t.Fatalf("drafts = %+v", agg.DraftEvents)
	}
	if len(agg.SourceEvents) != 1 {
		t.Fatalf("source events = %d", len(agg.SourceEvents))
	}
}

func TestCommitMovesDrafts(t *testing.T) {
	agg := FromEvents[added, counter]([]added{{1}}, 0)
	agg.Stage(added{2})
	agg.Commit(1)
	if len(agg.DraftEvents) != 0 || len(agg.SourceEvents) != 2 || agg.LatestRevision != 1 {
		t.Fatalf("after commit: %+v", agg)
	}
}
