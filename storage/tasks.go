package storage

import (
	"context"
	"encoding/json"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"taskwise/domain"
)

// ListTasks retrieves all tasks of owner.
func (s *Storage) ListTasks(ctx context.Context, owner string) ([]domain.Task, error) {
	return listEntities(ctx, s.taskTable, partitionFilter(owner), decodeTask)
}

// GetTask retrieves a task if present.
func (s *Storage) GetTask(ctx context.Context, owner, id string) (*domain.Task, error) {
	ent, err := s.taskTable.GetEntity(ctx, owner, id, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	t, err := decodeTask(ent.Value)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// InsertTask adds a new task row. It fails if the id is already taken.
func (s *Storage) InsertTask(ctx context.Context, owner string, t domain.Task) error {
	payload, err := json.Marshal(newTaskEntity(owner, t))
	if err == nil {
		_, err = s.taskTable.AddEntity(ctx, payload, nil)
	}
	return err
}

// ReplaceTask overwrites an existing task row.
func (s *Storage) ReplaceTask(ctx context.Context, owner string, t domain.Task) error {
	payload, err := json.Marshal(newTaskEntity(owner, t))
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	_, err = s.taskTable.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeReplace})
	if isNotFound(err) {
		return domain.ErrNotFound
	}
	return err
}

// DeleteTask removes a task row and reports whether one existed.
func (s *Storage) DeleteTask(ctx context.Context, owner, id string) (bool, error) {
	_, err := s.taskTable.DeleteEntity(ctx, owner, id, nil)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
