package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/example/todo-app/client"
	domain "github.com/example/todo-app/domain/todo"
	"github.com/spf13/cobra"
)

const defaultAPIURL = "http://localhost:3000"

type rootOptions struct {
	apiURL  string
	timeout time.Duration
}

func (o *rootOptions) client() *client.Client {
	return client.New(o.apiURL, client.WithTimeout(o.timeout))
}

func (o *rootOptions) context() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), o.timeout)
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	defaultURL := os.Getenv("TODO_API_URL")
	if defaultURL == "" {
		defaultURL = defaultAPIURL
	}

	cmd := &cobra.Command{
		Use:   "todo",
		Short: "Terminal client for the todo API",
		Long: `todo lists, adds, edits, completes and deletes todos on a todo API server.

Run without a subcommand to open the interactive board.

EXAMPLES:
  todo                          # interactive board
  todo list --completed=false   # pending todos
  todo add "Buy milk" -d "2L"   # create a todo
  todo toggle 3                 # flip completion of todo 3
  todo rm 3                     # delete todo 3`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(opts.client(), opts.timeout)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.apiURL, "api-url", defaultURL, "API base URL (overrides TODO_API_URL)")
	flags.DurationVar(&opts.timeout, "timeout", client.DefaultTimeout, "Per-request timeout")

	cmd.AddCommand(
		newListCommand(opts),
		newAddCommand(opts),
		newToggleCommand(opts),
		newEditCommand(opts),
		newRemoveCommand(opts),
		newStatsCommand(opts),
		newHealthCommand(opts),
	)
	return cmd
}

func newListCommand(opts *rootOptions) *cobra.Command {
	var (
		completed string
		limit     int
		offset    int
		today     bool
	)

	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List todos, newest first",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var lo client.ListOptions
			if completed != "" {
				b, err := parseBoolFlag(completed)
				if err != nil {
					return err
				}
				lo.Completed = &b
			}
			if cmd.Flags().Changed("limit") {
				lo.Limit = &limit
			}
			if cmd.Flags().Changed("offset") {
				lo.Offset = &offset
			}

			ctx, cancel := opts.context()
			defer cancel()
			todos, err := opts.client().List(ctx, lo)
			if err != nil {
				return explain(err)
			}

			board := client.NewBoard()
			board.Apply(client.Result{Op: client.OpList, Todos: todos})
			view := client.ViewAll
			if today {
				view = client.ViewToday
			}
			printTodos(board.Todos(view))
			return nil
		},
	}

	cmd.Flags().StringVar(&completed, "completed", "", "Filter by completion (true/false)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of todos (1-500)")
	cmd.Flags().IntVar(&offset, "offset", 0, "Number of todos to skip")
	cmd.Flags().BoolVar(&today, "today", false, "Only todos created today")
	return cmd
}

func newAddCommand(opts *rootOptions) *cobra.Command {
	var description string

	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a todo",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := opts.context()
			defer cancel()

			t, err := opts.client().Create(ctx, domain.CreateInput{
				Title:       strings.Join(args, " "),
				Description: description,
			})
			if err != nil {
				return explain(err)
			}
			printOK(fmt.Sprintf("added #%d %s", t.ID, t.Title))
			return nil
		},
	}
	cmd.Flags().StringVarP(&description, "description", "d", "", "Optional description")
	return cmd
}

func newToggleCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle <id>",
		Short: "Flip the completed flag of a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := opts.context()
			defer cancel()
			api := opts.client()

			current, err := api.Get(ctx, id)
			if err != nil {
				return explain(err)
			}
			t, err := api.Toggle(ctx, current)
			if err != nil {
				return explain(err)
			}

			state := "reopened"
			if t.Completed {
				state = "completed"
			}
			printOK(fmt.Sprintf("%s #%d %s", state, t.ID, t.Title))
			return nil
		},
	}
}

func newEditCommand(opts *rootOptions) *cobra.Command {
	var (
		title       string
		description string
	)

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change the title or description of a todo",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseID(args[0])
			if err != nil {
				return err
			}

			var patch domain.Patch
			if cmd.Flags().Changed("title") {
				patch.Title = &title
			}
			if cmd.Flags().Changed("description") {
				patch.Description = &description
			}
			if patch.Title == nil && patch.Description == nil {
				return errors.New("nothing to change: pass --title or --description")
			}

			ctx, cancel := opts.context()
			defer cancel()
			t, err := opts.client().Update(ctx, id, patch)
			if err != nil {
				return explain(err)
			}
			printOK(fmt.Sprintf("updated #%d %s", t.ID, t.Title))
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "New title")
	cmd.Flags().StringVarP(&description, "description", "d", "", "New description")
	return cmd
}

func newRemoveCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseID(args[0])
			if err != nil {
				return err
			}

			ctx, cancel := opts.context()
			defer cancel()
			t, err := opts.client().Delete(ctx, id)
			if err != nil {
				return explain(err)
			}
			printOK(fmt.Sprintf("deleted #%d %s", t.ID, t.Title))
			return nil
		},
	}
}

func newStatsCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show todo counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := opts.context()
			defer cancel()
			st, err := opts.client().Stats(ctx)
			if err != nil {
				return explain(err)
			}
			printPanel([]string{
				titleStyle.Render("Todo stats"),
				fmt.Sprintf("%s %d  %s %d  %s %d",
					successStyle.Render("Completed"), st.Completed,
					pendingStyle.Render("Pending"), st.Pending,
					accentStyle.Render("Today"), st.Today),
				fmt.Sprintf("%s %d/%d", progressBar(st.Completed, st.Total, 28), st.Completed, st.Total),
			})
			return nil
		},
	}
}

func newHealthCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "health",
		Short: "Check the API and its database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := opts.context()
			defer cancel()
			h, err := opts.client().Health(ctx)
			if err != nil {
				return explain(err)
			}
			printOK(fmt.Sprintf("%s is %s (env %s, up %s, database connected)",
				opts.apiURL, h.Status, h.Environment,
				(time.Duration(h.Uptime) * time.Second).String()))
			return nil
		},
	}
}

func printTodos(todos []domain.Todo) {
	if len(todos) == 0 {
		fmt.Println(mutedStyle.Render("No todos"))
		return
	}
	for _, t := range todos {
		box := mutedStyle.Render(boxUnchecked)
		title := t.Title
		if t.Completed {
			box = successStyle.Render(boxChecked)
			title = doneStyle.Render(title)
		}
		fmt.Printf("%s %s %s  %s\n",
			mutedStyle.Render(fmt.Sprintf("#%-4d", t.ID)), box, title,
			mutedStyle.Render(t.CreatedAt.Local().Format(timeLayout)))
	}
}

func parseBoolFlag(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "yes", "1":
		return true, nil
	case "false", "no", "0":
		return false, nil
	}
	return false, fmt.Errorf("invalid --completed value %q", s)
}

// explain turns client errors into messages for the terminal.
func explain(err error) error {
	var apiErr *client.APIError
	switch {
	case errors.As(err, &apiErr):
		if apiErr.Detail != "" && apiErr.Detail != apiErr.Message {
			return fmt.Errorf("%s (%s)", apiErr.Message, apiErr.Detail)
		}
		return errors.New(apiErr.Message)
	case errors.Is(err, client.ErrUnreachable):
		return errors.New(client.ConnectionError)
	default:
		return err
	}
}
