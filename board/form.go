package board

import (
	"strings"

	"taskwise/domain"
)

// Form is the raw input of the add and edit dialogs. Assignees are chosen by
// email from the directory; an empty email leaves the task unassigned.
type Form struct {
	Title         string
	Description   string
	Status        string
	Priority      string
	DueDate       string
	AssigneeEmail string
}

// FormFromTask prefills an edit form.
func FormFromTask(t domain.Task) Form {
	return Form{
		Title:         t.Title,
		Description:   t.Description,
		Status:        string(t.Status),
		Priority:      string(t.Priority),
		DueDate:       t.DueDate,
		AssigneeEmail: t.Assignee.Email,
	}
}

func (f Form) assignee() (*domain.Assignee, error) {
	email := strings.TrimSpace(f.AssigneeEmail)
	if email == "" {
		u := domain.Unassigned
		return &u, nil
	}
	a, ok := domain.AssigneeByEmail(email)
	if !ok {
		return nil, &domain.ValidationError{Field: "assignee", Message: "Invalid Assignee"}
	}
	return &a, nil
}

func (f Form) enums() (domain.Status, domain.Priority, error) {
	st, err := domain.ParseStatus(strings.TrimSpace(f.Status))
	if err != nil {
		return "", "", &domain.ValidationError{Field: "status", Message: err.Error()}
	}
	pr, err := domain.ParsePriority(strings.TrimSpace(f.Priority))
	if err != nil {
		return "", "", &domain.ValidationError{Field: "priority", Message: err.Error()}
	}
	return st, pr, nil
}

// NewTask converts the form into a validated creation request.
func (f Form) NewTask() (domain.NewTask, error) {
	st, pr, err := f.enums()
	if err != nil {
		return domain.NewTask{}, err
	}
	a, err := f.assignee()
	if err != nil {
		return domain.NewTask{}, err
	}
	n := domain.NewTask{
		Title:       strings.TrimSpace(f.Title),
		Description: strings.TrimSpace(f.Description),
		Status:      st,
		Priority:    pr,
		DueDate:     strings.TrimSpace(f.DueDate),
		Assignee:    a,
	}
	if err := n.Validate(); err != nil {
		return domain.NewTask{}, err
	}
	return n, nil
}

// Patch converts a full edit form into an update supplying every field.
func (f Form) Patch() (domain.TaskPatch, error) {
	n, err := f.NewTask()
	if err != nil {
		return domain.TaskPatch{}, err
	}
	return domain.TaskPatch{
		Title:       &n.Title,
		Description: &n.Description,
		Status:      &n.Status,
		Priority:    &n.Priority,
		DueDate:     &n.DueDate,
		Assignee:    n.Assignee,
	}, nil
}
