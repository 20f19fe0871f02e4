package cli

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"taskwise/ai"
	"taskwise/board"
	"taskwise/domain"
)

func (a *app) boardCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "board",
		Aliases: []string{"ls"},
		Short:   "Show tasks grouped by status",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctrl, err := a.controller(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			RenderBoard(cmd.OutOrStdout(), ctrl.Columns(), time.Now())
			return nil
		},
	}
}

func addFormFlags(cmd *cobra.Command) {
	cmd.Flags().String("title", "", "task title")
	cmd.Flags().String("description", "", "task description")
	cmd.Flags().String("status", string(domain.StatusToDo), "status (To Do, In Progress, Done)")
	cmd.Flags().String("priority", string(domain.PriorityMedium), "priority (Low, Medium, High)")
	cmd.Flags().String("due", "", "due date (YYYY-MM-DD, default today)")
	cmd.Flags().String("assignee", "", "assignee email (see `taskwise assignees`)")
}

// applyFormFlags overwrites the fields of f whose flags were set. When all is
// true every flag is applied, defaults included.
func applyFormFlags(cmd *cobra.Command, f *board.Form, all bool) {
	fields := map[string]*string{
		"title":       &f.Title,
		"description": &f.Description,
		"status":      &f.Status,
		"priority":    &f.Priority,
		"due":         &f.DueDate,
		"assignee":    &f.AssigneeEmail,
	}
	for name, dst := range fields {
		if all || cmd.Flags().Changed(name) {
			*dst, _ = cmd.Flags().GetString(name)
		}
	}
}

func (a *app) createCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "create [TITLE]",
		Aliases: []string{"add"},
		Short:   "Create a task",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var form board.Form
			applyFormFlags(cmd, &form, true)
			if len(args) == 1 {
				if cmd.Flags().Changed("title") {
					return errors.New("title given both as argument and --title")
				}
				form.Title = args[0]
			}
			if form.DueDate == "" {
				form.DueDate = time.Now().Format(domain.DateLayout)
			}
			ctrl := board.New(a.api, notifier(cmd.ErrOrStderr()), nil)
			op := ctrl.Create(cmd.Context(), form)
			if err := outcome(op); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", op.TaskID)
			return nil
		},
	}
	addFormFlags(cmd)
	return cmd
}

func (a *app) editCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "edit ID",
		Short: "Edit a task; unset flags keep their current value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.controller(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			t, err := resolveTask(ctrl, args[0])
			if err != nil {
				return err
			}
			form := board.FormFromTask(t)
			applyFormFlags(cmd, &form, false)
			op := ctrl.Update(cmd.Context(), t.ID, form)
			if err := outcome(op); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated task %s\n", t.ID)
			return nil
		},
	}
	addFormFlags(cmd)
	return cmd
}

func (a *app) deleteCmd() *cobra.Command {
	var yes bool
	cmd := &cobra.Command{
		Use:     "delete ID",
		Aliases: []string{"rm"},
		Short:   "Delete a task permanently",
		Long:    "Deletes a task. There is no undo. Prompts for confirmation in interactive mode.",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.controller(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			t, err := resolveTask(ctrl, args[0])
			if err != nil {
				return err
			}
			if !yes {
				in, ok := cmd.InOrStdin().(*os.File)
				if !ok || !term.IsTerminal(int(in.Fd())) {
					return errors.New("cannot prompt for confirmation (not a terminal); use --yes")
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Delete task %q? This cannot be undone. [y/N] ", t.Title)
				answer, _ := bufio.NewReader(in).ReadString('\n')
				answer = strings.TrimSpace(strings.ToLower(answer))
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(cmd.ErrOrStderr(), "Canceled.")
					return nil
				}
			}
			return outcome(ctrl.Delete(cmd.Context(), t.ID))
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "skip confirmation prompt")
	return cmd
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show task details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctrl, err := a.controller(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			t, err := resolveTask(ctrl, args[0])
			if err != nil {
				return err
			}
			// Fetch again so the detail reflects the stored row.
			t, err = a.api.Get(cmd.Context(), t.ID)
			if err != nil {
				return err
			}
			RenderDetail(cmd.OutOrStdout(), domain.Detail(t, time.Now()))
			return nil
		},
	}
}

func (a *app) evaluateCmd() *cobra.Command {
	var provider, text string
	cmd := &cobra.Command{
		Use:   "evaluate [ID]",
		Short: "Score a task description with an AI model",
		Long: `Scores the title and description of a task, or free text given with --text.
Providers: OpenAI, Groq, Gemini, Claude, Ollama.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ai.ParseProvider(provider)
			if err != nil {
				return err
			}
			content := text
			if len(args) == 1 {
				ctrl, err := a.controller(cmd.Context(), cmd)
				if err != nil {
					return err
				}
				t, err := resolveTask(ctrl, args[0])
				if err != nil {
					return err
				}
				content = strings.TrimSpace(t.Title + "\n\n" + t.Description)
			}
			ev, err := a.api.Evaluate(cmd.Context(), p, content)
			if err != nil {
				return err
			}
			RenderEvaluation(cmd.OutOrStdout(), p, ev)
			return nil
		},
	}
	cmd.Flags().StringVarP(&provider, "provider", "p", string(ai.ProviderOpenAI), "model provider")
	cmd.Flags().StringVar(&text, "text", "", "text to evaluate instead of a task")
	return cmd
}

func (a *app) assigneesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "assignees",
		Short: "List people tasks can be assigned to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			as, err := a.api.Assignees(cmd.Context())
			if err != nil {
				return err
			}
			RenderAssignees(cmd.OutOrStdout(), as)
			return nil
		},
	}
}

func (a *app) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login TOKEN",
		Short: "Store an API token and URL in the config file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a.cfg.Token = args[0]
			if err := a.cfg.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved credentials to %s\n", a.cfg.Path())
			return nil
		},
	}
}
