package board

import (
	"testing"

	"flowboard-api/domain"
)

func snapshot() []domain.SectionWithTasks {
	return []domain.SectionWithTasks{
		{
			Section: domain.Section{ID: "s1", Name: "To do"},
			Tasks: []domain.Task{
				{ID: "t1", SectionID: "s1", Title: "one", Position: 0},
				{ID: "t2", SectionID: "s1", Title: "two", Position: 1},
			},
		},
		{
			Section: domain.Section{ID: "s2", Name: "Done"},
			Tasks:   []domain.Task{{ID: "t3", SectionID: "s2", Title: "three", Position: 0}},
		},
	}
}

func taskIDs(tasks []domain.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestBeginMoveAppliesLocallyAtOnce(t *testing.T) {
	b := New(snapshot())

	finish, ok := b.BeginMove("t1", "s2", 1)
	if !ok {
		t.Fatal("expected move to apply")
	}
	defer finish()

	sections := b.Sections()
	if got := taskIDs(sections[0].Tasks); !equalIDs(got, []string{"t2"}) {
		t.Fatalf("unexpected source section: %v", got)
	}
	if got := taskIDs(sections[1].Tasks); !equalIDs(got, []string{"t3", "t1"}) {
		t.Fatalf("unexpected target section: %v", got)
	}
	if sections[1].Tasks[1].SectionID != "s2" {
		t.Fatalf("moved task keeps old section id: %+v", sections[1].Tasks[1])
	}
	if b.InFlight() != 1 {
		t.Fatalf("expected one mutation in flight, got %d", b.InFlight())
	}
}

func TestSnapshotDroppedWhileMutationInFlight(t *testing.T) {
	b := New(snapshot())

	finish, ok := b.BeginMove("t1", "s2", 0)
	if !ok {
		t.Fatal("expected move to apply")
	}

	stale := snapshot() // server state from before the move
	if b.ApplySnapshot(stale) {
		t.Fatal("expected stale snapshot to be dropped")
	}
	if got := taskIDs(b.Sections()[1].Tasks); !equalIDs(got, []string{"t1", "t3"}) {
		t.Fatalf("local move lost: %v", got)
	}

	finish()
	if !b.ApplySnapshot(stale) {
		t.Fatal("expected snapshot to apply once nothing is in flight")
	}
	if got := taskIDs(b.Sections()[0].Tasks); !equalIDs(got, []string{"t1", "t2"}) {
		t.Fatalf("snapshot not applied: %v", got)
	}
}

func TestOverlappingMovesKeepSnapshotsSuppressed(t *testing.T) {
	b := New(snapshot())

	finish1, ok := b.BeginMove("t1", "s2", 0)
	if !ok {
		t.Fatal("first move should apply")
	}
	finish2, ok := b.BeginMove("t2", "s2", 1)
	if !ok {
		t.Fatal("second move should apply")
	}
	if b.InFlight() != 2 {
		t.Fatalf("expected two in flight, got %d", b.InFlight())
	}

	// First round trip completes while the second is still out: the
	// counter keeps snapshots suppressed.
	finish1()
	if b.ApplySnapshot(snapshot()) {
		t.Fatal("snapshot must stay suppressed with a move still in flight")
	}

	finish2()
	if b.InFlight() != 0 {
		t.Fatalf("expected zero in flight, got %d", b.InFlight())
	}
	if !b.ApplySnapshot(snapshot()) {
		t.Fatal("expected snapshot to apply")
	}
}

func TestFinishIsIdempotent(t *testing.T) {
	b := New(snapshot())

	finish, ok := b.BeginMove("t3", "s1", 0)
	if !ok {
		t.Fatal("expected move to apply")
	}
	finish()
	finish()
	if b.InFlight() != 0 {
		t.Fatalf("double finish corrupted the counter: %d", b.InFlight())
	}
}

func TestFailedRoundTripDoesNotRollBack(t *testing.T) {
	b := New(snapshot())

	finish, ok := b.BeginMove("t1", "s2", 0)
	if !ok {
		t.Fatal("expected move to apply")
	}
	// The caller treats a failed round trip the same as success: finish,
	// keep the optimistic state, let the next snapshot reconcile.
	finish()

	if got := taskIDs(b.Sections()[1].Tasks); !equalIDs(got, []string{"t1", "t3"}) {
		t.Fatalf("optimistic state rolled back: %v", got)
	}
}

func TestBeginMoveUnknownTargets(t *testing.T) {
	b := New(snapshot())

	if _, ok := b.BeginMove("t1", "nope", 0); ok {
		t.Fatal("move into unknown section should not apply")
	}
	if _, ok := b.BeginMove("ghost", "s2", 0); ok {
		t.Fatal("move of unknown task should not apply")
	}
	if b.InFlight() != 0 {
		t.Fatalf("rejected moves must not count as in flight: %d", b.InFlight())
	}
	if got := taskIDs(b.Sections()[0].Tasks); !equalIDs(got, []string{"t1", "t2"}) {
		t.Fatalf("rejected move mutated state: %v", got)
	}
}

func TestBeginMoveClampsIndex(t *testing.T) {
	b := New(snapshot())

	finish, ok := b.BeginMove("t1", "s2", 99)
	if !ok {
		t.Fatal("expected move to apply")
	}
	defer finish()

	got := taskIDs(b.Sections()[1].Tasks)
	if !equalIDs(got, []string{"t3", "t1"}) {
		t.Fatalf("index not clamped to section end: %v", got)
	}
}

func TestSectionsReturnsACopy(t *testing.T) {
	b := New(snapshot())

	view := b.Sections()
	view[0].Tasks[0].Title = "tampered"

	if b.Sections()[0].Tasks[0].Title != "one" {
		t.Fatal("caller mutation leaked into board state")
	}
}
