// Command storage-init creates the tables and queue the server expects. It
// reads the same storage variables as the server and is safe to rerun.
package main

import (
	"context"
	"os"
	"strconv"
	"time"

	log "github.com/sirupsen/logrus"

	"taskwise/storage"
)

func main() {
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		log.SetLevel(log.DebugLevel)
	}
	cfg := storage.Config{
		ConnectionString:   os.Getenv("STORAGE_CONNECTION_STRING"),
		TasksTable:         os.Getenv("TASKS_TABLE"),
		UsersTable:         os.Getenv("USERS_TABLE"),
		PaymentsTable:      os.Getenv("PAYMENTS_TABLE"),
		PaymentEventsQueue: os.Getenv("PAYMENT_EVENTS_QUEUE"),
	}
	if cfg.ConnectionString == "" {
		log.Fatal("missing STORAGE_CONNECTION_STRING")
	}
	if len(cfg.Tables()) == 0 {
		log.Fatal("no tables configured: set TASKS_TABLE, USERS_TABLE and PAYMENTS_TABLE")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	if err := storage.Provision(ctx, cfg, log.StandardLogger()); err != nil {
		log.Fatalf("storage init: %v", err)
	}
	log.Info("storage init complete")
}
