// Command pmctl drives the pmboard API from a terminal: inspect a project's
// stage board, toggle tasks, move stages through approval and replay outbox
// events.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"pmboard/internal/client"
	"pmboard/pkg/config"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

// Global flags
var (
	jsonOutput bool
	baseURL    string
	token      string
)

// Styles for output
var (
	passStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#86b300",
		Dark:  "#c2d94c",
	})
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#f2ae49",
		Dark:  "#ffb454",
	})
	failStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#f07171",
		Dark:  "#f07178",
	})
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#828c99",
		Dark:  "#6c7680",
	})
	accentStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{
		Light: "#399ee6",
		Dark:  "#59c2ff",
	})
	boldStyle = lipgloss.NewStyle().Bold(true)
)

var rootCmd = &cobra.Command{
	Use:   "pmctl",
	Short: "Operate pmboard projects from the terminal",
	Long: `pmctl talks to the pmboard HTTP API.

Examples:
  pmctl login --email pm@example.com       # Print a token for PMBOARD_TOKEN
  pmctl board 12                           # Show the stage board of project 12
  pmctl toggle 12 431                      # Mark task 431 done (or undo it)
  pmctl submit 12 stage-2                  # Submit a stage for approval
  pmctl approve 12 stage-2                 # Approve it (PM)
  pmctl reject 12 stage-2 -m "no budget"   # Reject it with a comment (PM)
  pmctl replay --failed                    # Re-publish failed outbox events (admin)`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "", "API base URL (default from config or PMBOARD_URL)")
	rootCmd.PersistentFlags().StringVar(&token, "token", "", "Bearer token (default PMBOARD_TOKEN)")

	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(boardCmd)
	rootCmd.AddCommand(tasksCmd)
	rootCmd.AddCommand(toggleCmd)
	rootCmd.AddCommand(submitCmd)
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(rejectCmd)
	rootCmd.AddCommand(pendingCmd)
	rootCmd.AddCommand(replayCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render("Error: "+err.Error()))
		os.Exit(1)
	}
}

// newClient resolves the API address from flags, then config/env. Without a
// token it logs in with PMBOARD_EMAIL/PMBOARD_PASSWORD when those are set.
func newClient(ctx context.Context) *client.Client {
	url, tok := baseURL, token
	if url == "" || tok == "" {
		if cfg, err := config.Load(config.GetConfigEnv(), os.Getenv("CONFIG_DIR")); err == nil {
			if url == "" {
				url = cfg.Client.BaseURL
			}
			if tok == "" {
				tok = cfg.Client.Token
			}
		}
	}
	if url == "" {
		url = "http://localhost:8080"
	}
	if tok == "" {
		tok = os.Getenv("PMBOARD_TOKEN")
	}
	c := client.New(url, tok)
	if email := os.Getenv("PMBOARD_EMAIL"); tok == "" && email != "" {
		t, err := c.Login(ctx, email, os.Getenv("PMBOARD_PASSWORD"))
		if err != nil {
			fmt.Fprintln(os.Stderr, warnStyle.Render("login as "+email+" failed: "+err.Error()))
			return c
		}
		return c.WithToken(t)
	}
	return c
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
