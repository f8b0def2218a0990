package main

import (
	"fmt"
	"strings"

	"pmboard/internal/model"
	"pmboard/internal/stage"

	"github.com/charmbracelet/lipgloss"
)

func statusStyle(status string) lipgloss.Style {
	switch status {
	case model.ApprovalApproved, model.TaskStatusDone, model.TaskStatusCompleted:
		return passStyle
	case model.ApprovalPending, model.TaskStatusInProgress:
		return warnStyle
	case model.ApprovalRejected:
		return failStyle
	default:
		return mutedStyle
	}
}

func renderBoard(b stage.Board) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s  %s\n\n",
		boldStyle.Render(fmt.Sprintf("Project %d", b.ProjectID)),
		mutedStyle.Render(fmt.Sprintf("%d/%d stages approved · %d%% tasks done", b.ApprovedCount, len(b.Stages), b.Progress)),
	)

	for _, v := range b.Stages {
		marker := "  "
		if v.Current {
			marker = accentStyle.Render("▶ ")
		}
		title := v.Title
		if v.Locked {
			title = mutedStyle.Render(title + " (locked)")
		} else {
			title = boldStyle.Render(title)
		}

		fmt.Fprintf(&sb, "%s%-8s %s\n", marker, v.Code, title)
		fmt.Fprintf(&sb, "           tasks %d/%d  %s  approval %s",
			v.DoneCount, v.TaskCount,
			statusStyle(v.WorkStatus).Render(v.WorkStatus),
			statusStyle(v.ApprovalStatus).Render(v.ApprovalStatus),
		)
		if v.CanSubmit {
			sb.WriteString("  " + accentStyle.Render("ready to submit"))
		}
		sb.WriteString("\n")
		if v.Approval != nil && v.Approval.Comment != "" {
			fmt.Fprintf(&sb, "           %s\n", mutedStyle.Render("“"+v.Approval.Comment+"”"))
		}
	}
	return sb.String()
}

func renderTasks(tasks []model.Task) string {
	if len(tasks) == 0 {
		return mutedStyle.Render("No tasks") + "\n"
	}
	var sb strings.Builder
	for _, t := range tasks {
		check := "[ ]"
		if t.IsDone() {
			check = passStyle.Render("[x]")
		}
		fmt.Fprintf(&sb, "%s %5d  %-8s %-40s %s\n", check, t.ID, stage.NormalizeID(t.StageID), t.Title, statusStyle(t.Status).Render(t.Status))
	}
	return sb.String()
}
