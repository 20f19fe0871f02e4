package domain

import (
	"context"
	"errors"
	"testing"

	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

var alice = Identity{UserID: "user-alice", Email: "alice@example.com"}

func sampleNewTask() NewTask {
	a := Assignees[0]
	return NewTask{
		Title:       "Write release notes",
		Description: "first draft",
		Status:      StatusToDo,
		Priority:    PriorityMedium,
		DueDate:     "2025-01-01",
		Assignee:    &a,
	}
}

func newTestService(repo *fakeRepo, users UserDirectory) *TaskService {
	logger, _ := test.NewNullLogger()
	return NewTaskService(repo, users, logger)
}

func TestCreateThenGetReturnsInput(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil)
	ctx := context.Background()
	in := sampleNewTask()

	created, err := svc.Create(ctx, alice, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" {
		t.Fatalf("expected id to be assigned")
	}
	got, err := svc.Get(ctx, alice, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Title != in.Title || got.Description != in.Description || got.Status != in.Status ||
		got.Priority != in.Priority || got.DueDate != in.DueDate || got.Assignee != *in.Assignee {
		t.Fatalf("stored task differs from input: %+v", got)
	}
}

func TestCreateWithoutAssigneeUsesUnassigned(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil)
	in := sampleNewTask()
	in.Assignee = nil

	created, err := svc.Create(context.Background(), alice, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Assignee != Unassigned {
		t.Fatalf("expected Unassigned sentinel, got %+v", created.Assignee)
	}
}

func TestCreateRejectsInvalidInput(t *testing.T) {
	tests := map[string]func(*NewTask){
		"short title":      func(n *NewTask) { n.Title = "x" },
		"missing status":   func(n *NewTask) { n.Status = "" },
		"unknown priority": func(n *NewTask) { n.Priority = "Urgent" },
		"bad due date":     func(n *NewTask) { n.DueDate = "01/02/2025" },
		"bad email":        func(n *NewTask) { n.Assignee = &Assignee{Name: "X", Email: "not-an-email"} },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			repo := &fakeRepo{}
			svc := newTestService(repo, nil)
			in := sampleNewTask()
			mutate(&in)
			_, err := svc.Create(context.Background(), alice, in)
			if !IsValidation(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if len(repo.tasks) != 0 {
				t.Fatalf("expected nothing persisted")
			}
		})
	}
}

func TestMutationsRequireIdentity(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil)
	ctx := context.Background()
	anon := Identity{}

	if _, err := svc.Create(ctx, anon, sampleNewTask()); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("create: expected ErrUnauthenticated, got %v", err)
	}
	title := "New title"
	if _, err := svc.Update(ctx, anon, "id", TaskPatch{Title: &title}); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("update: expected ErrUnauthenticated, got %v", err)
	}
	if _, err := svc.Delete(ctx, anon, "id"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("delete: expected ErrUnauthenticated, got %v", err)
	}
	if _, err := svc.Get(ctx, anon, "id"); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("get: expected ErrUnauthenticated, got %v", err)
	}
	tasks, err := svc.List(ctx, anon)
	if err != nil || len(tasks) != 0 || tasks == nil {
		t.Fatalf("list: expected empty non-nil list, got %#v, %v", tasks, err)
	}
}

func TestUpdateStatusKeepsOtherFields(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil)
	ctx := context.Background()
	created, err := svc.Create(ctx, alice, sampleNewTask())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	done := StatusDone
	if _, err := svc.Update(ctx, alice, created.ID, TaskPatch{Status: &done}); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := svc.Get(ctx, alice, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := created
	want.Status = StatusDone
	if got != want {
		t.Fatalf("unexpected task after update:\n got %+v\nwant %+v", got, want)
	}
}

func TestUpdateMissingTask(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil)
	title := "Renamed"
	_, err := svc.Update(context.Background(), alice, "missing", TaskPatch{Title: &title})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateRejectsEmptyPatch(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil)
	if _, err := svc.Update(context.Background(), alice, "id", TaskPatch{}); !IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUpdateAssigneeResolutionIsBestEffort(t *testing.T) {
	users := &fakeUsers{err: errors.New("users table unavailable")}
	svc := newTestService(&fakeRepo{}, users)
	ctx := context.Background()
	in := sampleNewTask()
	in.Assignee = nil
	created, err := svc.Create(ctx, alice, in)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	bob := Assignee{Email: "BOB@example.com"}
	updated, err := svc.Update(ctx, alice, created.ID, TaskPatch{Assignee: &bob})
	if err != nil {
		t.Fatalf("update should not fail on lookup error: %v", err)
	}
	if updated.Assignee != Assignees[1] {
		t.Fatalf("expected directory entry for bob, got %+v", updated.Assignee)
	}
	if updated.AssigneeID != "" {
		t.Fatalf("expected unresolved assignee id, got %q", updated.AssigneeID)
	}
	if users.calls != 1 {
		t.Fatalf("expected one lookup, got %d", users.calls)
	}
}

func TestCreateResolvesAssigneeID(t *testing.T) {
	users := &fakeUsers{ids: map[string]string{"alice@example.com": "auth0|alice"}}
	svc := newTestService(&fakeRepo{}, users)
	created, err := svc.Create(context.Background(), alice, sampleNewTask())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.AssigneeID != "auth0|alice" {
		t.Fatalf("unexpected assignee id %q", created.AssigneeID)
	}
}

func TestDeleteTwiceReportsFalse(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil)
	ctx := context.Background()
	created, err := svc.Create(ctx, alice, sampleNewTask())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	removed, err := svc.Delete(ctx, alice, created.ID)
	if err != nil || !removed {
		t.Fatalf("first delete: removed=%v err=%v", removed, err)
	}
	if _, err := svc.Get(ctx, alice, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	removed, err = svc.Delete(ctx, alice, created.ID)
	if err != nil || removed {
		t.Fatalf("second delete: removed=%v err=%v", removed, err)
	}
}

func TestTasksAreScopedToOwner(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil)
	ctx := context.Background()
	created, err := svc.Create(ctx, alice, sampleNewTask())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	mallory := Identity{UserID: "user-mallory"}
	if _, err := svc.Get(ctx, mallory, created.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected other users to see ErrNotFound, got %v", err)
	}
	if removed, _ := svc.Delete(ctx, mallory, created.ID); removed {
		t.Fatalf("expected cross-user delete to remove nothing")
	}
	tasks, _ := svc.List(ctx, mallory)
	if len(tasks) != 0 {
		t.Fatalf("expected empty list for other user, got %d", len(tasks))
	}
}

func TestListNewestFirst(t *testing.T) {
	svc := newTestService(&fakeRepo{}, nil)
	ctx := context.Background()
	var ids []string
	for _, title := range []string{"first", "second", "third"} {
		in := sampleNewTask()
		in.Title = title
		created, err := svc.Create(ctx, alice, in)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		ids = append(ids, created.ID)
	}
	tasks, err := svc.List(ctx, alice)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(tasks) != 3 || tasks[0].ID != ids[2] || tasks[2].ID != ids[0] {
		t.Fatalf("unexpected order: %+v", tasks)
	}
}

func TestListWrapsRepositoryFailure(t *testing.T) {
	svc := newTestService(&fakeRepo{listErr: errors.New("boom")}, nil)
	_, err := svc.List(context.Background(), alice)
	var ue *UpstreamError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
}

func TestResolveLookupFailureIsLogged(t *testing.T) {
	logger, hook := test.NewNullLogger()
	svc := NewTaskService(&fakeRepo{}, &fakeUsers{err: errors.New("down")}, logger)
	if _, err := svc.Create(context.Background(), alice, sampleNewTask()); err != nil {
		t.Fatalf("create: %v", err)
	}
	entry := hook.LastEntry()
	if entry == nil || entry.Level != log.WarnLevel || entry.Message != "assignee lookup failed" {
		t.Fatalf("expected warn entry for lookup failure, got %#v", entry)
	}
}
