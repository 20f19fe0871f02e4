package domain

import (
	"context"
	"errors"
	"sort"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// TaskRepository persists tasks partitioned by owner. Every call is scoped to
// owner, so a task of another user is indistinguishable from a missing one.
type TaskRepository interface {
	ListTasks(ctx context.Context, owner string) ([]Task, error)
	// GetTask returns nil when the task does not exist.
	GetTask(ctx context.Context, owner, id string) (*Task, error)
	InsertTask(ctx context.Context, owner string, t Task) error
	// ReplaceTask overwrites an existing task and returns ErrNotFound when
	// there is nothing to overwrite.
	ReplaceTask(ctx context.Context, owner string, t Task) error
	// DeleteTask reports whether a row was removed.
	DeleteTask(ctx context.Context, owner, id string) (bool, error)
}

// UserDirectory resolves assignee emails to internal user ids.
type UserDirectory interface {
	// UserIDByEmail returns "" when no user has the email.
	UserIDByEmail(ctx context.Context, email string) (string, error)
}

// TaskService owns the task collection of each caller.
type TaskService struct {
	repo  TaskRepository
	users UserDirectory
	log   *log.Logger
}

// NewTaskService creates a TaskService. users may be nil, in which case
// assignees are never resolved to internal ids.
func NewTaskService(repo TaskRepository, users UserDirectory, logger *log.Logger) *TaskService {
	if repo == nil {
		panic("domain.NewTaskService: repository is nil")
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &TaskService{repo: repo, users: users, log: logger}
}

// List returns the caller's tasks, newest first. Callers without an identity
// get an empty list.
func (s *TaskService) List(ctx context.Context, who Identity) ([]Task, error) {
	if !who.Authenticated() {
		return []Task{}, nil
	}
	tasks, err := s.repo.ListTasks(ctx, who.UserID)
	if err != nil {
		return nil, upstream("list tasks", err)
	}
	if tasks == nil {
		tasks = []Task{}
	}
	sort.SliceStable(tasks, func(i, j int) bool { return tasks[i].CreatedAt > tasks[j].CreatedAt })
	return tasks, nil
}

// Get returns a single task of the caller.
func (s *TaskService) Get(ctx context.Context, who Identity, id string) (Task, error) {
	if !who.Authenticated() {
		return Task{}, ErrUnauthenticated
	}
	t, err := s.repo.GetTask(ctx, who.UserID, id)
	if err != nil {
		return Task{}, upstream("get task", err)
	}
	if t == nil {
		return Task{}, ErrNotFound
	}
	return *t, nil
}

// Create validates n, assigns an id and persists the task.
func (s *TaskService) Create(ctx context.Context, who Identity, n NewTask) (Task, error) {
	if !who.Authenticated() {
		return Task{}, ErrUnauthenticated
	}
	if err := n.Validate(); err != nil {
		return Task{}, err
	}
	t := Task{
		ID:          uuid.NewString(),
		Title:       n.Title,
		Description: n.Description,
		Status:      n.Status,
		Priority:    n.Priority,
		DueDate:     n.DueDate,
		Assignee:    normalizeAssignee(n.Assignee),
		CreatedAt:   nextTimestamp(),
	}
	t.AssigneeID = s.resolveAssignee(ctx, t.Assignee)
	if err := s.repo.InsertTask(ctx, who.UserID, t); err != nil {
		return Task{}, upstream("insert task", err)
	}
	s.log.WithFields(log.Fields{"user": who.UserID, "task": t.ID}).Debug("task created")
	return t, nil
}

// Update merges the supplied fields into an existing task. Concurrent updates
// of the same task are last-write-wins.
func (s *TaskService) Update(ctx context.Context, who Identity, id string, p TaskPatch) (Task, error) {
	if !who.Authenticated() {
		return Task{}, ErrUnauthenticated
	}
	if err := p.Validate(); err != nil {
		return Task{}, err
	}
	cur, err := s.repo.GetTask(ctx, who.UserID, id)
	if err != nil {
		return Task{}, upstream("get task", err)
	}
	if cur == nil {
		return Task{}, ErrNotFound
	}
	if p.Assignee != nil {
		a := normalizeAssignee(p.Assignee)
		p.Assignee = &a
	}
	t := p.Apply(*cur)
	if p.Assignee != nil {
		t.AssigneeID = s.resolveAssignee(ctx, t.Assignee)
	}
	if err := s.repo.ReplaceTask(ctx, who.UserID, t); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Task{}, ErrNotFound
		}
		return Task{}, upstream("replace task", err)
	}
	s.log.WithFields(log.Fields{"user": who.UserID, "task": id}).Debug("task updated")
	return t, nil
}

// Delete removes a task. It reports false, not an error, when the task did
// not exist.
func (s *TaskService) Delete(ctx context.Context, who Identity, id string) (bool, error) {
	if !who.Authenticated() {
		return false, ErrUnauthenticated
	}
	removed, err := s.repo.DeleteTask(ctx, who.UserID, id)
	if err != nil {
		return false, upstream("delete task", err)
	}
	s.log.WithFields(log.Fields{"user": who.UserID, "task": id, "removed": removed}).Debug("task delete")
	return removed, nil
}

// resolveAssignee looks up the internal user id for a. Lookup failures are
// logged and leave the association unresolved.
func (s *TaskService) resolveAssignee(ctx context.Context, a Assignee) string {
	if s.users == nil || a.IsUnassigned() {
		return ""
	}
	id, err := s.users.UserIDByEmail(ctx, a.Email)
	if err != nil {
		s.log.WithError(err).WithField("email", a.Email).Warn("assignee lookup failed")
		return ""
	}
	if id == "" {
		s.log.WithField("email", a.Email).Debug("assignee has no user record")
	}
	return id
}
