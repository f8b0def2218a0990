package main

import (
	"fmt"
	"strconv"

	"pmboard/internal/client"
	"pmboard/internal/model"

	"github.com/spf13/cobra"
)

var (
	loginEmail    string
	loginPassword string
	rejectComment string
	replayFailed  bool
	replayLimit   int
)

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password")
	_ = loginCmd.MarkFlagRequired("email")
	_ = loginCmd.MarkFlagRequired("password")

	rejectCmd.Flags().StringVarP(&rejectComment, "message", "m", "", "Rejection comment (required)")

	replayCmd.Flags().BoolVar(&replayFailed, "failed", false, "Replay all failed events")
	replayCmd.Flags().IntVar(&replayLimit, "limit", 100, "Maximum events to replay with --failed")
}

func intArg(args []string, i int, name string) (int, error) {
	v, err := strconv.Atoi(args[i])
	if err != nil || v <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, args[i])
	}
	return v, nil
}

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Log in and print a bearer token",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tok, err := newClient(cmdContext(cmd)).Login(cmdContext(cmd), loginEmail, loginPassword)
		if err != nil {
			return err
		}
		fmt.Println(tok)
		return nil
	},
}

var boardCmd = &cobra.Command{
	Use:   "board <project-id>",
	Short: "Show a project's stage board",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := intArg(args, 0, "project id")
		if err != nil {
			return err
		}
		board, err := newClient(cmdContext(cmd)).Board(cmdContext(cmd), projectID)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(board)
		}
		fmt.Print(renderBoard(*board))
		return nil
	},
}

var tasksCmd = &cobra.Command{
	Use:   "tasks <project-id>",
	Short: "List a project's tasks",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := intArg(args, 0, "project id")
		if err != nil {
			return err
		}
		tasks, err := newClient(cmdContext(cmd)).ListTasks(cmdContext(cmd), projectID)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(tasks)
		}
		fmt.Print(renderTasks(tasks))
		return nil
	},
}

var toggleCmd = &cobra.Command{
	Use:   "toggle <project-id> <task-id>",
	Short: "Mark a task done, or undo it",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := intArg(args, 0, "project id")
		if err != nil {
			return err
		}
		taskID, err := intArg(args, 1, "task id")
		if err != nil {
			return err
		}

		ctx := cmdContext(cmd)
		board := client.NewTaskBoard(newClient(cmdContext(cmd)), projectID)
		if err := board.Refresh(ctx); err != nil {
			return err
		}
		task, err := board.ToggleTask(ctx, taskID)
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(task)
		}
		fmt.Printf("%s %s → %s\n", passStyle.Render("✓"), boldStyle.Render(task.Title), statusStyle(task.Status).Render(task.Status))
		return nil
	},
}

var submitCmd = &cobra.Command{
	Use:   "submit <project-id> <stage>",
	Short: "Submit a stage for approval",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := intArg(args, 0, "project id")
		if err != nil {
			return err
		}
		a, err := newClient(cmdContext(cmd)).Submit(cmdContext(cmd), projectID, args[1])
		if err != nil {
			return err
		}
		return printApproval(a)
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve <project-id> <stage>",
	Short: "Approve a stage (PM)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := intArg(args, 0, "project id")
		if err != nil {
			return err
		}
		a, err := newClient(cmdContext(cmd)).Decide(cmdContext(cmd), projectID, args[1], model.ApprovalApproved, "")
		if err != nil {
			return err
		}
		return printApproval(a)
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject <project-id> <stage>",
	Short: "Reject a stage with a comment (PM)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		projectID, err := intArg(args, 0, "project id")
		if err != nil {
			return err
		}
		a, err := newClient(cmdContext(cmd)).Decide(cmdContext(cmd), projectID, args[1], model.ApprovalRejected, rejectComment)
		if err != nil {
			return err
		}
		return printApproval(a)
	},
}

var pendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "List stages waiting for approval",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		rows, err := newClient(cmdContext(cmd)).PendingApprovals(cmdContext(cmd))
		if err != nil {
			return err
		}
		if jsonOutput {
			return printJSON(rows)
		}
		if len(rows) == 0 {
			fmt.Println(mutedStyle.Render("Nothing waiting for approval"))
			return nil
		}
		for _, a := range rows {
			fmt.Printf("%-24s %-10s %s\n", a.ProjectName, a.StageID, statusStyle(a.Status).Render(a.Status))
		}
		return nil
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay [event-id]",
	Short: "Re-publish outbox events (admin)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c := newClient(cmdContext(cmd))
		ctx := cmdContext(cmd)
		if replayFailed {
			n, err := c.ReplayFailedEvents(ctx, replayLimit)
			if err != nil {
				return err
			}
			fmt.Printf("%s replayed %d event(s)\n", passStyle.Render("✓"), n)
			return nil
		}
		if len(args) == 0 {
			return fmt.Errorf("event id required unless --failed is set")
		}
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid event id: %q", args[0])
		}
		if err := c.ReplayEvent(ctx, id); err != nil {
			return err
		}
		fmt.Printf("%s replayed event %d\n", passStyle.Render("✓"), id)
		return nil
	},
}

func printApproval(a *model.StageApproval) error {
	if jsonOutput {
		return printJSON(a)
	}
	fmt.Printf("%s %s is %s\n", passStyle.Render("✓"), boldStyle.Render(a.StageID), statusStyle(a.Status).Render(a.Status))
	if a.Comment != "" {
		fmt.Println(mutedStyle.Render("  " + a.Comment))
	}
	return nil
}
