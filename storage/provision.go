package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	log "github.com/sirupsen/logrus"
)

const queueAlreadyExists = "QueueAlreadyExists"

// Tables returns the configured table names without blanks or repeats.
func (c Config) Tables() []string {
	return uniqueNames(c.TasksTable, c.UsersTable, c.PaymentsTable)
}

// Queues returns the configured queue names.
func (c Config) Queues() []string {
	return uniqueNames(c.PaymentEventsQueue)
}

// Provision creates the tables and queue named by cfg. Resources that
// already exist are left untouched, so it can run on every deploy.
func Provision(ctx context.Context, cfg Config, logger *log.Logger) error {
	if logger == nil {
		logger = log.StandardLogger()
	}
	svc, err := aztables.NewServiceClientFromConnectionString(cfg.ConnectionString, nil)
	if err != nil {
		return fmt.Errorf("tables client: %w", err)
	}
	for _, name := range cfg.Tables() {
		_, err := svc.CreateTable(ctx, name, nil)
		if err != nil && !hasErrorCode(err, string(aztables.TableAlreadyExists)) {
			return fmt.Errorf("create table %s: %w", name, err)
		}
		logger.WithFields(log.Fields{"table": name, "created": err == nil}).Info("table ready")
	}
	for _, name := range cfg.Queues() {
		q, err := azqueue.NewQueueClientFromConnectionString(cfg.ConnectionString, name, nil)
		if err != nil {
			return fmt.Errorf("queue client %s: %w", name, err)
		}
		_, err = q.Create(ctx, nil)
		if err != nil && !hasErrorCode(err, queueAlreadyExists) {
			return fmt.Errorf("create queue %s: %w", name, err)
		}
		logger.WithFields(log.Fields{"queue": name, "created": err == nil}).Info("queue ready")
	}
	return nil
}

func hasErrorCode(err error, code string) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.ErrorCode == code
}

func uniqueNames(names ...string) []string {
	out := make([]string, 0, len(names))
	seen := map[string]bool{}
	for _, n := range names {
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	return out
}
