// Package board keeps a client-facing copy of one project board and
// reconciles it with server state. A drag is applied to the local copy
// synchronously; while any mutation round trip is still in flight,
// server snapshots are dropped, because a stale read racing the write
// would snap the board backward. A counter, not a boolean, tracks the
// in-flight mutations so overlapping drags do not re-enable snapshot
// application early.
package board

import (
	"sync"

	"flowboard-api/domain"
)

// Board is the per-board-instance reconciliation state. There is no
// cross-instance sharing; each open board owns one.
type Board struct {
	mu       sync.Mutex
	sections []domain.SectionWithTasks
	inflight int
}

// New creates a board from an initial server snapshot.
func New(snapshot []domain.SectionWithTasks) *Board {
	return &Board{sections: cloneSections(snapshot)}
}

// InFlight returns the number of mutations whose round trips have not
// completed yet.
func (b *Board) InFlight() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inflight
}

// Sections returns a copy of the current local state in display order.
func (b *Board) Sections() []domain.SectionWithTasks {
	b.mu.Lock()
	defer b.mu.Unlock()
	return cloneSections(b.sections)
}

// BeginMove applies a drag to local state and marks a mutation in
// flight. The returned finish function must be called exactly once when
// the round trip completes, success or failure alike; a failed round
// trip does not roll the local move back, it only re-enables snapshot
// application once nothing else is in flight.
func (b *Board) BeginMove(taskID, toSectionID string, index int) (finish func(), ok bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.applyMove(taskID, toSectionID, index) {
		return nil, false
	}
	b.inflight++

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if b.inflight > 0 {
				b.inflight--
			}
		})
	}, true
}

// ApplySnapshot replaces local state with server state, but only when no
// mutation is in flight. It reports whether the snapshot was applied.
func (b *Board) ApplySnapshot(snapshot []domain.SectionWithTasks) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.inflight > 0 {
		return false
	}
	b.sections = cloneSections(snapshot)
	return true
}

// applyMove removes the task from wherever it sits and inserts it into
// the target section at the given index. Caller holds b.mu.
func (b *Board) applyMove(taskID, toSectionID string, index int) bool {
	target := -1
	for si := range b.sections {
		if b.sections[si].Section.ID == toSectionID {
			target = si
			break
		}
	}
	if target < 0 {
		return false
	}

	var task *domain.Task
	for si := range b.sections {
		tasks := b.sections[si].Tasks
		for ti := range tasks {
			if tasks[ti].ID == taskID {
				t := tasks[ti]
				task = &t
				b.sections[si].Tasks = append(tasks[:ti:ti], tasks[ti+1:]...)
				break
			}
		}
		if task != nil {
			break
		}
	}
	if task == nil {
		return false
	}

	task.SectionID = toSectionID
	task.Position = index
	tasks := b.sections[target].Tasks
	if index < 0 {
		index = 0
	}
	if index > len(tasks) {
		index = len(tasks)
	}
	b.sections[target].Tasks = append(tasks[:index:index], append([]domain.Task{*task}, tasks[index:]...)...)
	return true
}

func cloneSections(sections []domain.SectionWithTasks) []domain.SectionWithTasks {
	out := make([]domain.SectionWithTasks, len(sections))
	for i, s := range sections {
		out[i] = domain.SectionWithTasks{
			Section: s.Section,
			Tasks:   append([]domain.Task(nil), s.Tasks...),
		}
	}
	return out
}
