package domain

import (
	"context"
	"errors"
)

type fakeRepo struct {
	tasks map[string]map[string]Task

	listErr   error
	insertErr error
	replaced  int
}

func (f *fakeRepo) ListTasks(ctx context.Context, owner string) ([]Task, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := []Task{}
	for _, t := range f.tasks[owner] {
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeRepo) GetTask(ctx context.Context, owner, id string) (*Task, error) {
	t, ok := f.tasks[owner][id]
	if !ok {
		return nil, nil
	}
	return &t, nil
}

func (f *fakeRepo) InsertTask(ctx context.Context, owner string, t Task) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	if f.tasks == nil {
		f.tasks = map[string]map[string]Task{}
	}
	if f.tasks[owner] == nil {
		f.tasks[owner] = map[string]Task{}
	}
	if _, exists := f.tasks[owner][t.ID]; exists {
		return errors.New("conflict")
	}
	f.tasks[owner][t.ID] = t
	return nil
}

func (f *fakeRepo) ReplaceTask(ctx context.Context, owner string, t Task) error {
	if _, ok := f.tasks[owner][t.ID]; !ok {
		return ErrNotFound
	}
	f.tasks[owner][t.ID] = t
	f.replaced++
	return nil
}

func (f *fakeRepo) DeleteTask(ctx context.Context, owner, id string) (bool, error) {
	if _, ok := f.tasks[owner][id]; !ok {
		return false, nil
	}
	delete(f.tasks[owner], id)
	return true, nil
}

type fakeUsers struct {
	ids   map[string]string
	err   error
	calls int
}

func (f *fakeUsers) UserIDByEmail(ctx context.Context, email string) (string, error) {
	f.calls++
	if f.err != nil {
		return "", f.err
	}
	return f.ids[email], nil
}
