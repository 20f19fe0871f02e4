package board

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"

	"taskwise/domain"
)

type fakeService struct {
	mu      sync.Mutex
	tasks   []domain.Task
	next    int
	err     error
	calls   int
	deleted bool
}

func (f *fakeService) List(ctx context.Context) ([]domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return append([]domain.Task(nil), f.tasks...), nil
}

func (f *fakeService) Create(ctx context.Context, n domain.NewTask) (domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return domain.Task{}, f.err
	}
	f.next++
	t := domain.Task{
		ID:          string(rune('a' + f.next - 1)),
		Title:       n.Title,
		Description: n.Description,
		Status:      n.Status,
		Priority:    n.Priority,
		DueDate:     n.DueDate,
		Assignee:    *n.Assignee,
	}
	f.tasks = append([]domain.Task{t}, f.tasks...)
	return t, nil
}

func (f *fakeService) Update(ctx context.Context, id string, p domain.TaskPatch) (domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return domain.Task{}, f.err
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks[i] = p.Apply(t)
			return f.tasks[i], nil
		}
	}
	return domain.Task{}, domain.ErrNotFound
}

func (f *fakeService) Delete(ctx context.Context, id string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return false, f.err
	}
	return f.deleted, nil
}

type recorder struct {
	mu    sync.Mutex
	notes []Notification
}

func (r *recorder) Notify(n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notes = append(r.notes, n)
}

func (r *recorder) last(t *testing.T) Notification {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.notes) == 0 {
		t.Fatalf("expected a notification")
	}
	return r.notes[len(r.notes)-1]
}

func validForm(title string) Form {
	return Form{
		Title:         title,
		Status:        "To Do",
		Priority:      "Medium",
		DueDate:       "2025-01-01",
		AssigneeEmail: "alice@example.com",
	}
}

func newController(svc TaskService) (*Controller, *recorder) {
	logger, _ := test.NewNullLogger()
	rec := &recorder{}
	return New(svc, rec, logger), rec
}

func TestCreatePrependsConfirmedTask(t *testing.T) {
	svc := &fakeService{}
	c, notes := newController(svc)

	first := c.Create(context.Background(), validForm("First"))
	second := c.Create(context.Background(), validForm("Second"))
	if first.State() != Applied || second.State() != Applied {
		t.Fatalf("unexpected states: %v %v", first.State(), second.State())
	}
	tasks := c.Tasks()
	if len(tasks) != 2 || tasks[0].Title != "Second" || tasks[1].Title != "First" {
		t.Fatalf("expected newest task first, got %+v", tasks)
	}
	if second.TaskID != tasks[0].ID {
		t.Fatalf("operation should carry the new id, got %q", second.TaskID)
	}
	if n := notes.last(t); n.Level != LevelInfo || n.Title != "Task Created" {
		t.Fatalf("unexpected notification: %+v", n)
	}
	if tasks[0].Assignee.Name != "Alice" {
		t.Fatalf("expected assignee resolved from directory, got %+v", tasks[0].Assignee)
	}
}

func TestCreateFailureLeavesMirrorUnchanged(t *testing.T) {
	svc := &fakeService{err: errors.New("network down")}
	c, notes := newController(svc)

	op := c.Create(context.Background(), validForm("First"))
	if op.State() != Failed || op.Err() == nil {
		t.Fatalf("expected failed operation, got %v %v", op.State(), op.Err())
	}
	if len(c.Tasks()) != 0 {
		t.Fatalf("mirror changed on failure: %+v", c.Tasks())
	}
	if n := notes.last(t); n.Level != LevelError || n.Message != "network down" {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestInvalidFormNeverReachesService(t *testing.T) {
	svc := &fakeService{}
	c, notes := newController(svc)

	bad := validForm("First")
	bad.AssigneeEmail = "mallory@example.com"
	op := c.Create(context.Background(), bad)
	if op.State() != Failed {
		t.Fatalf("expected failed operation, got %v", op.State())
	}
	if n := notes.last(t); n.Title != "Invalid Assignee" {
		t.Fatalf("unexpected notification: %+v", n)
	}

	short := validForm("x")
	if op := c.Update(context.Background(), "a", short); op.State() != Failed || !domain.IsValidation(op.Err()) {
		t.Fatalf("expected validation failure, got %v %v", op.State(), op.Err())
	}
	if svc.calls != 0 {
		t.Fatalf("service called %d times for invalid forms", svc.calls)
	}
}

func TestUpdateReplacesById(t *testing.T) {
	svc := &fakeService{}
	c, _ := newController(svc)
	c.Create(context.Background(), validForm("First"))
	c.Create(context.Background(), validForm("Second"))
	target := c.Tasks()[1]

	form := FormFromTask(target)
	form.Status = "In Progress"
	op := c.Update(context.Background(), target.ID, form)
	if op.State() != Applied {
		t.Fatalf("update failed: %v", op.Err())
	}
	tasks := c.Tasks()
	if tasks[1].ID != target.ID || tasks[1].Status != domain.StatusInProgress {
		t.Fatalf("expected in-place replacement, got %+v", tasks)
	}
	if tasks[0].Status != domain.StatusToDo {
		t.Fatalf("other task changed: %+v", tasks[0])
	}
}

func TestDeleteOutcomes(t *testing.T) {
	svc := &fakeService{}
	c, notes := newController(svc)
	c.Create(context.Background(), validForm("First"))
	id := c.Tasks()[0].ID

	op := c.Delete(context.Background(), id)
	if op.State() != Failed || !errors.Is(op.Err(), errNotDeleted) {
		t.Fatalf("expected not-deleted failure, got %v %v", op.State(), op.Err())
	}
	if len(c.Tasks()) != 1 {
		t.Fatalf("mirror changed on failed delete")
	}
	if n := notes.last(t); n.Title != "Failed to delete task" {
		t.Fatalf("unexpected notification: %+v", n)
	}

	svc.deleted = true
	op = c.Delete(context.Background(), id)
	if op.State() != Applied {
		t.Fatalf("expected applied delete, got %v", op.State())
	}
	if len(c.Tasks()) != 0 {
		t.Fatalf("task still mirrored: %+v", c.Tasks())
	}
	if n := notes.last(t); n.Title != "Task deleted successfully" {
		t.Fatalf("unexpected notification: %+v", n)
	}
}

func TestLoadFailureKeepsMirror(t *testing.T) {
	svc := &fakeService{tasks: []domain.Task{{ID: "a", Title: "Kept", Status: domain.StatusDone}}}
	c, _ := newController(svc)
	if err := c.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	svc.err = errors.New("boom")
	if err := c.Load(context.Background()); err == nil {
		t.Fatalf("expected load error")
	}
	if got := c.Board()[domain.StatusDone]; len(got) != 1 || got[0].Title != "Kept" {
		t.Fatalf("unexpected board after failed load: %+v", c.Board())
	}
}

func TestOperationStateMachine(t *testing.T) {
	op := newOperation(KindCreate, "")
	if op.State() != Idle {
		t.Fatalf("expected idle, got %v", op.State())
	}
	if !op.submit() || op.State() != Submitting {
		t.Fatalf("expected submitting")
	}
	if op.submit() {
		t.Fatalf("second submit should be rejected")
	}
	op.finish(nil)
	op.finish(errors.New("late"))
	if op.State() != Applied || op.Err() != nil {
		t.Fatalf("terminal state changed: %v %v", op.State(), op.Err())
	}
	if Applied.String() != "applied" || !Failed.Terminal() || Submitting.Terminal() {
		t.Fatalf("unexpected state helpers")
	}
}

func TestFormUnassigned(t *testing.T) {
	f := validForm("Title")
	f.AssigneeEmail = ""
	n, err := f.NewTask()
	if err != nil {
		t.Fatalf("new task: %v", err)
	}
	if n.Assignee == nil || n.Assignee.Name != "Unassigned" {
		t.Fatalf("expected unassigned sentinel, got %+v", n.Assignee)
	}

	f.Status = "Blocked"
	if _, err := f.NewTask(); !domain.IsValidation(err) {
		t.Fatalf("expected validation error for status, got %v", err)
	}
}
