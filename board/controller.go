// Package board keeps the client-side mirror of a user's tasks and applies
// mutations once the server has confirmed them.
package board

import (
	"context"
	"errors"
	"fmt"
	"sync"

	log "github.com/sirupsen/logrus"

	"taskwise/domain"
)

// TaskService is the remote task store the controller mirrors.
type TaskService interface {
	List(ctx context.Context) ([]domain.Task, error)
	Create(ctx context.Context, n domain.NewTask) (domain.Task, error)
	Update(ctx context.Context, id string, p domain.TaskPatch) (domain.Task, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// errNotDeleted is the failure of a delete the server did not apply.
var errNotDeleted = errors.New("task was not deleted")

// Controller owns the mirror for one session. The mirror only changes after
// the service confirms a mutation, so failures never need a rollback.
type Controller struct {
	svc    TaskService
	notify Notifier
	log    *log.Logger

	mu    sync.RWMutex
	tasks []domain.Task
}

// New creates a Controller with an empty mirror. A nil notifier logs.
func New(svc TaskService, notifier Notifier, logger *log.Logger) *Controller {
	if logger == nil {
		logger = log.StandardLogger()
	}
	if notifier == nil {
		notifier = LogNotifier{Logger: logger}
	}
	return &Controller{svc: svc, notify: notifier, log: logger, tasks: []domain.Task{}}
}

// Load replaces the mirror with the server's task list.
func (c *Controller) Load(ctx context.Context) error {
	tasks, err := c.svc.List(ctx)
	if err != nil {
		c.log.WithError(err).Warn("failed to load tasks")
		c.notify.Notify(Notification{Level: LevelError, Title: "Failed to load tasks", Message: err.Error()})
		return err
	}
	c.mu.Lock()
	c.tasks = append([]domain.Task(nil), tasks...)
	c.mu.Unlock()
	return nil
}

// Create submits form and prepends the stored task to the mirror.
func (c *Controller) Create(ctx context.Context, form Form) *Operation {
	op := newOperation(KindCreate, "")
	n, err := form.NewTask()
	if err != nil {
		c.rejectForm(op, err)
		return op
	}
	op.submit()
	task, err := c.svc.Create(ctx, n)
	if err != nil {
		c.failed(op, err)
		return op
	}
	op.TaskID = task.ID
	c.mu.Lock()
	c.tasks = append([]domain.Task{task}, c.tasks...)
	c.mu.Unlock()
	op.finish(nil)
	c.notify.Notify(Notification{
		Level:   LevelInfo,
		Title:   "Task Created",
		Message: fmt.Sprintf("%q has been successfully created.", task.Title),
	})
	return op
}

// Update submits a full edit of task id and replaces it in the mirror.
func (c *Controller) Update(ctx context.Context, id string, form Form) *Operation {
	op := newOperation(KindUpdate, id)
	p, err := form.Patch()
	if err != nil {
		c.rejectForm(op, err)
		return op
	}
	op.submit()
	task, err := c.svc.Update(ctx, id, p)
	if err != nil {
		c.failed(op, err)
		return op
	}
	c.mu.Lock()
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			c.tasks[i] = task
			break
		}
	}
	c.mu.Unlock()
	op.finish(nil)
	c.notify.Notify(Notification{
		Level:   LevelInfo,
		Title:   "Task Updated",
		Message: fmt.Sprintf("%q has been successfully updated.", task.Title),
	})
	return op
}

// Delete removes task id on the server and then from the mirror.
func (c *Controller) Delete(ctx context.Context, id string) *Operation {
	op := newOperation(KindDelete, id)
	op.submit()
	removed, err := c.svc.Delete(ctx, id)
	if err == nil && !removed {
		err = errNotDeleted
	}
	if err != nil {
		c.log.WithError(err).WithField("task", id).Warn("delete failed")
		op.finish(err)
		c.notify.Notify(Notification{Level: LevelError, Title: "Failed to delete task", Message: err.Error()})
		return op
	}
	c.mu.Lock()
	for i := range c.tasks {
		if c.tasks[i].ID == id {
			c.tasks = append(c.tasks[:i:i], c.tasks[i+1:]...)
			break
		}
	}
	c.mu.Unlock()
	op.finish(nil)
	c.notify.Notify(Notification{Level: LevelInfo, Title: "Task deleted successfully"})
	return op
}

func (c *Controller) rejectForm(op *Operation, err error) {
	op.finish(err)
	title, msg := "Invalid task", err.Error()
	var ve *domain.ValidationError
	if errors.As(err, &ve) && ve.Field == "assignee" {
		title, msg = "Invalid Assignee", "Please select a valid assignee."
	}
	c.notify.Notify(Notification{Level: LevelError, Title: title, Message: msg})
}

func (c *Controller) failed(op *Operation, err error) {
	c.log.WithError(err).WithField("op", string(op.Kind)).Warn("task operation failed")
	op.finish(err)
	c.notify.Notify(Notification{Level: LevelError, Title: "Something went wrong", Message: err.Error()})
}

// Tasks returns a copy of the mirror, newest first.
func (c *Controller) Tasks() []domain.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]domain.Task(nil), c.tasks...)
}

// Task looks up id in the mirror.
func (c *Controller) Task(id string) (domain.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return domain.Task{}, false
}

// Board groups the mirror by status.
func (c *Controller) Board() map[domain.Status][]domain.Task {
	return domain.GroupByStatus(c.Tasks())
}

// Columns returns the board in display order.
func (c *Controller) Columns() []domain.Column {
	return domain.Columns(c.Tasks())
}
