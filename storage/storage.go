// Package storage persists tasks, users and payments in Azure Tables and
// publishes payment events to an Azure queue.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
)

// Config names the tables and queue used by Storage.
type Config struct {
	ConnectionString   string
	TasksTable         string
	UsersTable         string
	PaymentsTable      string
	PaymentEventsQueue string
}

// Storage provides access to underlying persistence mechanisms.
type Storage struct {
	taskTable    *aztables.Client
	userTable    *aztables.Client
	paymentTable *aztables.Client
	paymentQueue *azqueue.QueueClient
}

var retryStatusCodes = []int{408, 429, 500, 502, 503, 504}

// New creates a Storage instance from cfg. The payment events queue is
// optional.
func New(cfg Config) (*Storage, error) {
	tablesClientOptions := aztables.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    3,
				TryTimeout:    time.Minute * 3,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 15,
				StatusCodes:   retryStatusCodes,
			},
		},
	}
	svc, err := aztables.NewServiceClientFromConnectionString(cfg.ConnectionString, &tablesClientOptions)
	if err != nil {
		return nil, err
	}
	s := &Storage{
		taskTable:    svc.NewClient(cfg.TasksTable),
		userTable:    svc.NewClient(cfg.UsersTable),
		paymentTable: svc.NewClient(cfg.PaymentsTable),
	}
	if cfg.PaymentEventsQueue == "" {
		return s, nil
	}
	queueClientOptions := azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   retryStatusCodes,
			},
		},
	}
	s.paymentQueue, err = azqueue.NewQueueClientFromConnectionString(cfg.ConnectionString, cfg.PaymentEventsQueue, &queueClientOptions)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func isNotFound(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusNotFound
}

// quote renders v as an OData string literal.
func quote(v string) string {
	return "'" + strings.ReplaceAll(v, "'", "''") + "'"
}

func partitionFilter(pk string) string {
	return "PartitionKey eq " + quote(pk)
}

func listEntities[T any](ctx context.Context, table *aztables.Client, filter string, decode func([]byte) (T, error)) ([]T, error) {
	pager := table.NewListEntitiesPager(&aztables.ListEntitiesOptions{Filter: &filter})
	out := []T{}
	for pager.More() {
		resp, err := pager.NextPage(ctx)
		if err != nil {
			return nil, err
		}
		for _, e := range resp.Entities {
			v, err := decode(e)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func mergeEntity(ctx context.Context, table *aztables.Client, ent any) error {
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	et := azcore.ETagAny
	_, err = table.UpdateEntity(ctx, payload, &aztables.UpdateEntityOptions{IfMatch: &et, UpdateMode: aztables.UpdateModeMerge})
	return err
}
