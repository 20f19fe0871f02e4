// Package cli implements the taskwise command line client.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"taskwise/board"
	"taskwise/client"
	"taskwise/domain"
)

// version is set at build time via ldflags.
var version = "dev"

// silentError ends the process with code after the failure was already
// reported to the user.
type silentError struct{ code int }

func (e *silentError) Error() string { return fmt.Sprintf("exit status %d", e.code) }

type app struct {
	configPath string
	apiURL     string
	token      string
	noColor    bool

	cfg *Config
	api *client.Client
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "taskwise",
		Short:         "Manage your task board from the terminal",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "config file (default ~/.config/taskwise/config.yaml)")
	root.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "task API base URL")
	root.PersistentFlags().StringVar(&a.token, "token", "", "bearer token")
	root.PersistentFlags().BoolVar(&a.noColor, "no-color", false, "disable color output")

	root.AddCommand(
		a.boardCmd(),
		a.createCmd(),
		a.editCmd(),
		a.deleteCmd(),
		a.showCmd(),
		a.evaluateCmd(),
		a.assigneesCmd(),
		a.loginCmd(),
	)
	return root
}

// Execute runs the root command and exits on failure.
func Execute() {
	err := NewRootCmd().Execute()
	if err == nil {
		return
	}
	var silent *silentError
	if errors.As(err, &silent) {
		os.Exit(silent.code)
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	os.Exit(1)
}

func (a *app) setup() error {
	path := a.configPath
	if path == "" {
		var err error
		if path, err = DefaultConfigPath(); err != nil {
			return err
		}
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		return err
	}
	if a.apiURL != "" {
		cfg.APIURL = strings.TrimRight(a.apiURL, "/")
	}
	if a.token != "" {
		cfg.Token = a.token
	}
	if a.noColor || cfg.NoColor || os.Getenv("NO_COLOR") != "" {
		DisableColor()
	}
	a.cfg = cfg
	a.api = client.New(cfg.APIURL, cfg.Token)
	return nil
}

// controller returns a board controller with the server's tasks loaded.
func (a *app) controller(ctx context.Context, cmd *cobra.Command) (*board.Controller, error) {
	ctrl := board.New(a.api, notifier(cmd.ErrOrStderr()), nil)
	if err := ctrl.Load(ctx); err != nil {
		return nil, &silentError{code: 1}
	}
	return ctrl, nil
}

// resolveTask finds a mirrored task by full id or unique id prefix.
func resolveTask(ctrl *board.Controller, ref string) (domain.Task, error) {
	if t, ok := ctrl.Task(ref); ok {
		return t, nil
	}
	var found []domain.Task
	for _, t := range ctrl.Tasks() {
		if strings.HasPrefix(t.ID, ref) {
			found = append(found, t)
		}
	}
	switch len(found) {
	case 0:
		return domain.Task{}, fmt.Errorf("task %q not found", ref)
	case 1:
		return found[0], nil
	default:
		return domain.Task{}, fmt.Errorf("task id %q is ambiguous (%d matches)", ref, len(found))
	}
}

// outcome converts a finished operation into the command result.
func outcome(op *board.Operation) error {
	if op.State() == board.Applied {
		return nil
	}
	return &silentError{code: 1}
}
