package storage

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"

	"taskwise/domain"
)

// UpsertUser creates or replaces a user row.
func (s *Storage) UpsertUser(ctx context.Context, u domain.User) error {
	payload, err := json.Marshal(userEntity{
		Entity: Entity{PartitionKey: userPartition, RowKey: u.ID},
		Email:  strings.ToLower(u.Email),
		Name:   u.Name,
		Avatar: u.Avatar,
	})
	if err == nil {
		_, err = s.userTable.UpsertEntity(ctx, payload, &aztables.UpsertEntityOptions{UpdateMode: aztables.UpdateModeReplace})
	}
	return err
}

// GetUser returns nil when no row exists for id.
func (s *Storage) GetUser(ctx context.Context, id string) (*domain.User, error) {
	ent, err := s.userTable.GetEntity(ctx, userPartition, id, nil)
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	u, err := decodeUser(ent.Value)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// UserIDByEmail returns "" when no registered user has email.
func (s *Storage) UserIDByEmail(ctx context.Context, email string) (string, error) {
	filter := partitionFilter(userPartition) + " and Email eq " + quote(strings.ToLower(strings.TrimSpace(email)))
	users, err := listEntities(ctx, s.userTable, filter, decodeUser)
	if err != nil {
		return "", err
	}
	if len(users) == 0 {
		return "", nil
	}
	return users[0].ID, nil
}
