package domain

import "time"

// Field carries an optional patch value. A zero Field means "leave the
// stored value untouched"; a set Field replaces it. For pointer-typed
// fields a set Field holding nil means "explicitly clear", which keeps
// "not provided" and "set to null" distinguishable for nullable dates
// and the primary assignee.
type Field[T any] struct {
	value T
	set   bool
}

// Set returns a Field carrying v.
func Set[T any](v T) Field[T] {
	return Field[T]{value: v, set: true}
}

// IsSet reports whether the field was provided.
func (f Field[T]) IsSet() bool { return f.set }

// Value returns the provided value; meaningful only when IsSet.
func (f Field[T]) Value() T { return f.value }

// Apply overwrites dst when the field is set.
func (f Field[T]) Apply(dst *T) {
	if f.set {
		*dst = f.value
	}
}

// TaskPatch is a partial task update. Unset fields are untouched.
type TaskPatch struct {
	Title       Field[string]
	Description Field[string]
	Priority    Field[Priority]
	Status      Field[TrackingStatus]
	Completed   Field[bool]
	AssigneeID  Field[*string]
	Assignees   Field[[]string]
	StartDate   Field[*time.Time]
	DueDate     Field[*time.Time]
}

// Empty reports whether the patch provides no fields at all.
func (p *TaskPatch) Empty() bool {
	return !p.Title.IsSet() && !p.Description.IsSet() && !p.Priority.IsSet() &&
		!p.Status.IsSet() && !p.Completed.IsSet() && !p.AssigneeID.IsSet() &&
		!p.Assignees.IsSet() && !p.StartDate.IsSet() && !p.DueDate.IsSet()
}

// ProjectPatch is a partial project update.
type ProjectPatch struct {
	Name        Field[string]
	Description Field[string]
	Color       Field[string]
}
