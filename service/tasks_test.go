package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowboard-api/calendar"
	"flowboard-api/dispatch"
	"flowboard-api/domain"
	"flowboard-api/storage"
)

// syncRunner executes dispatched jobs inline so tests observe side
// effects deterministically.
type syncRunner struct {
	names []string
}

func (r *syncRunner) Dispatch(job dispatch.Job) {
	r.names = append(r.names, job.Name)
	_ = job.Run(context.Background())
}

type recordingInvalidator struct {
	calls [][]string
}

func (f *recordingInvalidator) Invalidate(_ context.Context, keys ...string) {
	f.calls = append(f.calls, keys)
}

func (f *recordingInvalidator) all() []string {
	var out []string
	for _, c := range f.calls {
		out = append(out, c...)
	}
	return out
}

type moveCall struct {
	id        string
	sectionID string
	position  int
}

// stubTasks shares an ops log with the calendar stub so ordering
// between calendar cleanup and row deletion is assertable.
type stubTasks struct {
	byID     map[string]*domain.Task
	nextPos  int
	created  []*domain.Task
	updated  []*domain.Task
	moved    []moveCall
	deleted  []string
	replaced map[string][]string
	eventIDs map[string]string
	ops      *[]string
}

func newStubTasks() *stubTasks {
	return &stubTasks{
		byID:     map[string]*domain.Task{},
		replaced: map[string][]string{},
		eventIDs: map[string]string{},
		ops:      &[]string{},
	}
}

func (s *stubTasks) Get(_ context.Context, id string) (*domain.Task, error) {
	t, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *t
	return &cp, nil
}

func (s *stubTasks) NextPosition(context.Context, string) (int, error) {
	return s.nextPos, nil
}

func (s *stubTasks) Create(_ context.Context, t *domain.Task) error {
	cp := *t
	s.created = append(s.created, &cp)
	s.byID[t.ID] = &cp
	return nil
}

func (s *stubTasks) Update(_ context.Context, t *domain.Task) error {
	if _, ok := s.byID[t.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *t
	s.updated = append(s.updated, &cp)
	s.byID[t.ID] = &cp
	return nil
}

func (s *stubTasks) ReplaceAssignees(_ context.Context, taskID string, userIDs []string) error {
	s.replaced[taskID] = userIDs
	return nil
}

func (s *stubTasks) Move(_ context.Context, id, sectionID string, position int) error {
	if _, ok := s.byID[id]; !ok {
		return sql.ErrNoRows
	}
	s.moved = append(s.moved, moveCall{id: id, sectionID: sectionID, position: position})
	return nil
}

func (s *stubTasks) Delete(_ context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.byID, id)
	s.deleted = append(s.deleted, id)
	*s.ops = append(*s.ops, "task.delete:"+id)
	return nil
}

func (s *stubTasks) SetCalendarEventID(_ context.Context, id, eventID string) error {
	s.eventIDs[id] = eventID
	return nil
}

type stubSections struct {
	byID map[string]*domain.Section
}

func (s *stubSections) Get(_ context.Context, id string) (*domain.Section, error) {
	sec, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *sec
	return &cp, nil
}

func (s *stubSections) NextPosition(context.Context, string) (int, error) { return 0, nil }
func (s *stubSections) Create(context.Context, *domain.Section) error     { return nil }
func (s *stubSections) Rename(context.Context, string, string) error      { return nil }
func (s *stubSections) Reorder(context.Context, string, int) error        { return nil }
func (s *stubSections) Delete(context.Context, string) error              { return nil }

type stubProjects struct {
	byID    map[string]*domain.Project
	members [][2]string
}

func (s *stubProjects) Get(_ context.Context, id string) (*domain.Project, error) {
	p, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *p
	return &cp, nil
}

func (s *stubProjects) Create(_ context.Context, p *domain.Project) error {
	cp := *p
	s.byID[p.ID] = &cp
	return nil
}

func (s *stubProjects) Update(_ context.Context, p *domain.Project) error {
	if _, ok := s.byID[p.ID]; !ok {
		return sql.ErrNoRows
	}
	cp := *p
	s.byID[p.ID] = &cp
	return nil
}

func (s *stubProjects) Delete(_ context.Context, id string) error {
	if _, ok := s.byID[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.byID, id)
	return nil
}

func (s *stubProjects) AddTeamMember(_ context.Context, teamID, userID string) error {
	s.members = append(s.members, [2]string{teamID, userID})
	return nil
}

type stubActivity struct {
	entries []*domain.Activity
}

func (s *stubActivity) Insert(_ context.Context, a *domain.Activity) error {
	s.entries = append(s.entries, a)
	return nil
}

type stubNotifications struct {
	inserted []*domain.Notification
}

func (s *stubNotifications) Insert(_ context.Context, n *domain.Notification) error {
	s.inserted = append(s.inserted, n)
	return nil
}

func (s *stubNotifications) MarkRead(context.Context, string, string) error { return nil }
func (s *stubNotifications) MarkAllRead(context.Context, string) error      { return nil }

type stubComments struct {
	byID map[string]*domain.Comment
}

func (s *stubComments) Create(_ context.Context, c *domain.Comment) error {
	s.byID[c.ID] = c
	return nil
}

func (s *stubComments) Get(_ context.Context, id string) (*domain.Comment, error) {
	c, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return c, nil
}

func (s *stubComments) Delete(_ context.Context, id string) error {
	delete(s.byID, id)
	return nil
}

type stubSubtasks struct {
	byID map[string]*domain.Subtask
}

func (s *stubSubtasks) Create(_ context.Context, st *domain.Subtask) error {
	s.byID[st.ID] = st
	return nil
}

func (s *stubSubtasks) Get(_ context.Context, id string) (*domain.Subtask, error) {
	st, ok := s.byID[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *st
	return &cp, nil
}

func (s *stubSubtasks) SetDone(_ context.Context, id string, done bool) error {
	if st, ok := s.byID[id]; ok {
		st.Done = done
	}
	return nil
}

func (s *stubSubtasks) Delete(_ context.Context, id string) error {
	delete(s.byID, id)
	return nil
}

type stubAccounts struct {
	linked map[string]*storage.CalendarAccount
}

func (s *stubAccounts) LinkedCalendar(_ context.Context, userID string) (*storage.CalendarAccount, error) {
	return s.linked[userID], nil
}

type stubCalendar struct {
	created   int
	updated   int
	deleted   []string
	deleteErr error
	ops       *[]string
}

func (s *stubCalendar) CreateEvent(context.Context, calendar.Account, calendar.Event) (string, error) {
	s.created++
	return fmt.Sprintf("ev-%d", s.created), nil
}

func (s *stubCalendar) UpdateEvent(context.Context, calendar.Account, string, calendar.Event) error {
	s.updated++
	return nil
}

func (s *stubCalendar) DeleteEvent(_ context.Context, acc calendar.Account, eventID string) error {
	s.deleted = append(s.deleted, eventID)
	if s.ops != nil {
		*s.ops = append(*s.ops, "calendar.delete:"+acc.CalendarID)
	}
	return s.deleteErr
}

type taskFixture struct {
	svc      *TaskService
	tasks    *stubTasks
	sections *stubSections
	projects *stubProjects
	activity *stubActivity
	notify   *stubNotifications
	comments *stubComments
	subtasks *stubSubtasks
	accounts *stubAccounts
	cache    *recordingInvalidator
	runner   *syncRunner
	cal      *stubCalendar
}

func newTaskFixture() *taskFixture {
	f := &taskFixture{
		tasks:    newStubTasks(),
		sections: &stubSections{byID: map[string]*domain.Section{}},
		projects: &stubProjects{byID: map[string]*domain.Project{}},
		activity: &stubActivity{},
		notify:   &stubNotifications{},
		comments: &stubComments{byID: map[string]*domain.Comment{}},
		subtasks: &stubSubtasks{byID: map[string]*domain.Subtask{}},
		accounts: &stubAccounts{linked: map[string]*storage.CalendarAccount{}},
		cache:    &recordingInvalidator{},
		runner:   &syncRunner{},
	}
	f.cal = &stubCalendar{ops: f.tasks.ops}

	logger := log.New()
	logger.SetLevel(log.PanicLevel)
	f.svc = NewTaskService(
		f.tasks, f.sections, f.projects, f.activity, f.notify,
		f.comments, f.subtasks, f.accounts, f.cache, f.runner, f.cal, logger,
	)
	f.svc.now = func() time.Time { return time.Unix(1000, 0).UTC() }
	n := 0
	f.svc.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}

	f.projects.byID["p1"] = &domain.Project{ID: "p1", TeamID: "team1", Name: "Launch"}
	f.sections.byID["s1"] = &domain.Section{ID: "s1", ProjectID: "p1", Name: "To do", Position: 0}
	f.sections.byID["s2"] = &domain.Section{ID: "s2", ProjectID: "p1", Name: "Done", Position: 1}
	return f
}

func (f *taskFixture) seedTask(t *domain.Task) {
	cp := *t
	f.tasks.byID[t.ID] = &cp
}

func strPtr(s string) *string { return &s }

func TestCreateTaskAppendsToSectionEnd(t *testing.T) {
	f := newTaskFixture()
	f.tasks.nextPos = 7

	task, err := f.svc.CreateTask(context.Background(), "u1", CreateTaskInput{
		Title:     "Write launch notes",
		ProjectID: "p1",
		SectionID: "s1",
	})
	require.NoError(t, err)
	assert.Equal(t, 7, task.Position)
	assert.Equal(t, domain.PriorityMedium, task.Priority)
	assert.Equal(t, domain.StatusOnTrack, task.Status)
	assert.Equal(t, "u1", task.CreatedBy)
	assert.Contains(t, f.cache.all(), storage.ProjectKey("p1"))
}

func TestCreateTaskNotifiesAssigneesExceptActor(t *testing.T) {
	f := newTaskFixture()

	_, err := f.svc.CreateTask(context.Background(), "u1", CreateTaskInput{
		Title:      "Pair on rollout",
		ProjectID:  "p1",
		SectionID:  "s1",
		AssigneeID: strPtr("u1"),
		Assignees:  []string{"u2", "u3"},
	})
	require.NoError(t, err)

	var recipients []string
	for _, n := range f.notify.inserted {
		recipients = append(recipients, n.UserID)
	}
	assert.ElementsMatch(t, []string{"u2", "u3"}, recipients)
}

func TestCreateTaskRejectsForeignSection(t *testing.T) {
	f := newTaskFixture()
	f.projects.byID["p2"] = &domain.Project{ID: "p2", TeamID: "team1"}

	_, err := f.svc.CreateTask(context.Background(), "u1", CreateTaskInput{
		Title:     "Mismatched",
		ProjectID: "p2",
		SectionID: "s1",
	})
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, f.tasks.created)
	assert.Empty(t, f.cache.calls)
}

func TestCreateTaskUnauthenticatedBeforePersistence(t *testing.T) {
	f := newTaskFixture()

	_, err := f.svc.CreateTask(context.Background(), "", CreateTaskInput{
		Title:     "No session",
		ProjectID: "p1",
		SectionID: "s1",
	})
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Empty(t, f.tasks.created)
	assert.Empty(t, f.runner.names)
	assert.Empty(t, f.cache.calls)
}

func TestUpdateTaskCompletionNotifiesCreatorOnce(t *testing.T) {
	f := newTaskFixture()
	f.seedTask(&domain.Task{
		ID: "t1", ProjectID: "p1", SectionID: "s1",
		Title: "Ship it", Priority: domain.PriorityHigh,
		Status: domain.StatusOnTrack, CreatedBy: "u1",
	})

	var patch domain.TaskPatch
	patch.Completed = domain.Set(true)
	_, err := f.svc.UpdateTask(context.Background(), "u2", "t1", patch)
	require.NoError(t, err)

	require.Len(t, f.notify.inserted, 1)
	assert.Equal(t, "u1", f.notify.inserted[0].UserID)
	assert.Equal(t, domain.NotifyCompleted, f.notify.inserted[0].Kind)

	// Completing an already-completed task is a plain update: no second
	// notification, but the cache key is still deleted.
	_, err = f.svc.UpdateTask(context.Background(), "u2", "t1", patch)
	require.NoError(t, err)
	assert.Len(t, f.notify.inserted, 1)

	var projectEvictions int
	for _, key := range f.cache.all() {
		if key == storage.ProjectKey("p1") {
			projectEvictions++
		}
	}
	assert.Equal(t, 2, projectEvictions)
}

func TestUpdateTaskCompletionByCreatorSkipsNotification(t *testing.T) {
	f := newTaskFixture()
	f.seedTask(&domain.Task{
		ID: "t1", ProjectID: "p1", SectionID: "s1",
		Title: "Self-complete", Priority: domain.PriorityLow,
		Status: domain.StatusOnTrack, CreatedBy: "u1",
	})

	var patch domain.TaskPatch
	patch.Completed = domain.Set(true)
	_, err := f.svc.UpdateTask(context.Background(), "u1", "t1", patch)
	require.NoError(t, err)
	assert.Empty(t, f.notify.inserted)

	require.Len(t, f.activity.entries, 1)
	assert.Equal(t, domain.ActivityCompleted, f.activity.entries[0].Kind)
}

func TestUpdateTaskExplicitNullClearsNullableFields(t *testing.T) {
	f := newTaskFixture()
	due := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	f.seedTask(&domain.Task{
		ID: "t1", ProjectID: "p1", SectionID: "s1",
		Title: "Dated", Priority: domain.PriorityMedium,
		Status: domain.StatusOnTrack, CreatedBy: "u1",
		AssigneeID: strPtr("u2"), DueDate: &due,
	})

	var patch domain.TaskPatch
	patch.AssigneeID = domain.Set[*string](nil)
	patch.DueDate = domain.Set[*time.Time](nil)
	updated, err := f.svc.UpdateTask(context.Background(), "u1", "t1", patch)
	require.NoError(t, err)
	assert.Nil(t, updated.AssigneeID)
	assert.Nil(t, updated.DueDate)

	// An empty patch leaves everything in place.
	before := *f.tasks.byID["t1"]
	_, err = f.svc.UpdateTask(context.Background(), "u1", "t1", domain.TaskPatch{})
	require.NoError(t, err)
	assert.Equal(t, before.Title, f.tasks.byID["t1"].Title)
}

func TestUpdateTaskAssigneeChangeNotifiesNewAssignee(t *testing.T) {
	f := newTaskFixture()
	f.seedTask(&domain.Task{
		ID: "t1", ProjectID: "p1", SectionID: "s1",
		Title: "Handoff", Priority: domain.PriorityMedium,
		Status: domain.StatusOnTrack, CreatedBy: "u1", AssigneeID: strPtr("u2"),
	})

	var patch domain.TaskPatch
	patch.AssigneeID = domain.Set(strPtr("u3"))
	_, err := f.svc.UpdateTask(context.Background(), "u1", "t1", patch)
	require.NoError(t, err)

	require.Len(t, f.notify.inserted, 1)
	assert.Equal(t, "u3", f.notify.inserted[0].UserID)
	assert.Equal(t, domain.NotifyAssigned, f.notify.inserted[0].Kind)
}

func TestMoveTaskAcrossSectionsLogsOldAndNewNames(t *testing.T) {
	f := newTaskFixture()
	f.seedTask(&domain.Task{
		ID: "t1", ProjectID: "p1", SectionID: "s1",
		Title: "Drag me", Priority: domain.PriorityMedium,
		Status: domain.StatusOnTrack, CreatedBy: "u1", Position: 2,
	})

	task, err := f.svc.MoveTask(context.Background(), "u1", "t1", "s2", 0)
	require.NoError(t, err)
	assert.Equal(t, "s2", task.SectionID)
	assert.Equal(t, 0, task.Position)

	require.Len(t, f.tasks.moved, 1)
	assert.Equal(t, moveCall{id: "t1", sectionID: "s2", position: 0}, f.tasks.moved[0])

	require.Len(t, f.activity.entries, 1)
	assert.Equal(t, domain.ActivityMoved, f.activity.entries[0].Kind)
	assert.Equal(t, `moved "Drag me" from "To do" to "Done"`, f.activity.entries[0].Detail)
}

func TestMoveTaskWithinSectionSkipsActivity(t *testing.T) {
	f := newTaskFixture()
	f.seedTask(&domain.Task{
		ID: "t1", ProjectID: "p1", SectionID: "s1",
		Title: "Reorder me", Priority: domain.PriorityMedium,
		Status: domain.StatusOnTrack, CreatedBy: "u1", Position: 0,
	})

	_, err := f.svc.MoveTask(context.Background(), "u1", "t1", "s1", 3)
	require.NoError(t, err)
	assert.Empty(t, f.activity.entries)
	assert.Contains(t, f.cache.all(), storage.ProjectKey("p1"))
}

func TestMoveTaskRejectsForeignSection(t *testing.T) {
	f := newTaskFixture()
	f.sections.byID["sx"] = &domain.Section{ID: "sx", ProjectID: "other", Name: "Elsewhere"}
	f.seedTask(&domain.Task{
		ID: "t1", ProjectID: "p1", SectionID: "s1",
		Title: "Stay put", Priority: domain.PriorityMedium,
		Status: domain.StatusOnTrack, CreatedBy: "u1",
	})

	_, err := f.svc.MoveTask(context.Background(), "u1", "t1", "sx", 0)
	assert.True(t, domain.IsValidation(err))
	assert.Empty(t, f.tasks.moved)
}

func TestDeleteTaskAttemptsCalendarCleanupBeforeRowRemoval(t *testing.T) {
	f := newTaskFixture()
	f.seedTask(&domain.Task{
		ID: "t1", ProjectID: "p1", SectionID: "s1",
		Title: "Synced", Priority: domain.PriorityMedium,
		Status: domain.StatusOnTrack, CreatedBy: "u1",
		AssigneeID: strPtr("u2"), Assignees: []string{"u3"},
		CalendarEventID: strPtr("ev-9"),
	})
	f.accounts.linked["u2"] = &storage.CalendarAccount{UserID: "u2", CalendarID: "cal-u2"}
	f.accounts.linked["u3"] = &storage.CalendarAccount{UserID: "u3", CalendarID: "cal-u3"}
	f.cal.deleteErr = errors.New("upstream 500")

	require.NoError(t, f.svc.DeleteTask(context.Background(), "u1", "t1"))

	// Both linked calendars were tried, failures were swallowed, and the
	// row went away afterwards.
	assert.Equal(t, []string{"ev-9", "ev-9"}, f.cal.deleted)
	assert.Equal(t, []string{
		"calendar.delete:cal-u2",
		"calendar.delete:cal-u3",
		"task.delete:t1",
	}, *f.tasks.ops)
	assert.Contains(t, f.cache.all(), storage.ProjectKey("p1"))
}

func TestDeleteTaskWithoutCalendarRefSkipsCleanup(t *testing.T) {
	f := newTaskFixture()
	f.seedTask(&domain.Task{
		ID: "t1", ProjectID: "p1", SectionID: "s1",
		Title: "Plain", Priority: domain.PriorityMedium,
		Status: domain.StatusOnTrack, CreatedBy: "u1",
	})

	require.NoError(t, f.svc.DeleteTask(context.Background(), "u1", "t1"))
	assert.Empty(t, f.cal.deleted)
	assert.Equal(t, []string{"t1"}, f.tasks.deleted)
}

func TestTaskNotFoundMapsToTypedError(t *testing.T) {
	f := newTaskFixture()

	_, err := f.svc.UpdateTask(context.Background(), "u1", "ghost", domain.TaskPatch{})
	assert.True(t, domain.IsNotFound(err))

	err = f.svc.DeleteTask(context.Background(), "u1", "ghost")
	assert.True(t, domain.IsNotFound(err))
	assert.Empty(t, f.runner.names)
	assert.Empty(t, f.cache.calls)
}

func TestCreateTaskStoresCalendarReferenceOnce(t *testing.T) {
	f := newTaskFixture()
	f.accounts.linked["u2"] = &storage.CalendarAccount{UserID: "u2", CalendarID: "cal-u2"}
	f.accounts.linked["u3"] = &storage.CalendarAccount{UserID: "u3", CalendarID: "cal-u3"}

	task, err := f.svc.CreateTask(context.Background(), "u1", CreateTaskInput{
		Title:     "On calendars",
		ProjectID: "p1",
		SectionID: "s1",
		Assignees: []string{"u2", "u3"},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, f.cal.created)
	assert.Equal(t, "ev-1", f.tasks.eventIDs[task.ID])
}

func TestAddCommentNotifiesTaskCreator(t *testing.T) {
	f := newTaskFixture()
	f.seedTask(&domain.Task{
		ID: "t1", ProjectID: "p1", SectionID: "s1",
		Title: "Discussed", Priority: domain.PriorityMedium,
		Status: domain.StatusOnTrack, CreatedBy: "u1",
	})

	comment, err := f.svc.AddComment(context.Background(), "u2", "t1", "Looks good")
	require.NoError(t, err)
	assert.Equal(t, "u2", comment.AuthorID)

	require.Len(t, f.notify.inserted, 1)
	assert.Equal(t, "u1", f.notify.inserted[0].UserID)
	assert.Equal(t, domain.NotifyCommented, f.notify.inserted[0].Kind)

	// Commenting on one's own task stays quiet.
	_, err = f.svc.AddComment(context.Background(), "u1", "t1", "Self note")
	require.NoError(t, err)
	assert.Len(t, f.notify.inserted, 1)
}

func TestToggleSubtaskFlipsAndInvalidates(t *testing.T) {
	f := newTaskFixture()
	f.seedTask(&domain.Task{
		ID: "t1", ProjectID: "p1", SectionID: "s1",
		Title: "Checklist", Priority: domain.PriorityMedium,
		Status: domain.StatusOnTrack, CreatedBy: "u1",
	})
	f.subtasks.byID["st1"] = &domain.Subtask{ID: "st1", TaskID: "t1", Title: "step"}

	first, err := f.svc.ToggleSubtask(context.Background(), "u1", "st1")
	require.NoError(t, err)
	assert.True(t, first.Done)

	second, err := f.svc.ToggleSubtask(context.Background(), "u1", "st1")
	require.NoError(t, err)
	assert.False(t, second.Done)
	assert.Len(t, f.cache.calls, 2)
}
