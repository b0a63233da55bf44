package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/implexa/implexa/internal/command"
	"github.com/implexa/implexa/internal/config"
	"github.com/implexa/implexa/internal/registry"
)

// jsonOutput controls whether command output is rendered as JSON or as
// a styled table.
var jsonOutput bool

// userFlag and roleFlag override the actor the command boundary acts
// as; defaults come from git config and IMPLEXA_DEFAULT_ROLE.
var userFlag string
var roleFlag string

// repoFlag overrides repository discovery for one invocation.
var repoFlag string

// boundary is the single Command Boundary instance every subcommand
// dispatches through. Built once in PersistentPreRunE so commands that
// never touch a repository (e.g. --help) don't pay registry setup cost.
var boundary *command.Boundary

var rootCmd = &cobra.Command{
	Use:   "implexa",
	Short: "Implexa hardware PLM engine",
	Long: `Implexa tracks parts, revisions, and their review/release lifecycle
against a Git-backed repository, the same way source code is tracked
against a version control system.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(); err != nil {
			return fmt.Errorf("loading configuration: %w", err)
		}
		reg, err := registry.New()
		if err != nil {
			return fmt.Errorf("initializing registry: %w", err)
		}
		boundary = command.New(reg)

		// Each invocation is a fresh process, so re-open the enclosing
		// repository the same way git finds its .git directory. The
		// create/open/close commands manage activation themselves.
		switch cmd.Name() {
		case "create-repository", "open-repository", "close-repository":
		default:
			if root := resolveRepository(); root != "" {
				if err := boundary.OpenRepository(cmd.Context(), root); err != nil {
					return fmt.Errorf("opening repository %s: %w", root, err)
				}
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddGroup(
		&cobra.Group{ID: "repository", Title: "Repository:"},
		&cobra.Group{ID: "parts", Title: "Parts:"},
		&cobra.Group{ID: "review", Title: "Review & Release:"},
		&cobra.Group{ID: "bom", Title: "Bill of Materials:"},
		&cobra.Group{ID: "properties", Title: "Properties & Files:"},
	)

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit machine-readable JSON instead of a table")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", "", "repository root (default: $IMPLEXA_REPO, then the enclosing repository)")
	rootCmd.PersistentFlags().StringVar(&userFlag, "user", "", "actor username (default: git config user.name)")
	rootCmd.PersistentFlags().StringVar(&roleFlag, "role", "", "actor role: Designer, Viewer, or Admin (default: config default-role)")
}

// Execute runs the root command, printing any returned error in the
// Command Boundary's {code, message} shape and setting a non-zero exit
// status.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		payload := command.ToErrorPayload(err)
		fmt.Fprintf(os.Stderr, "error: %s\n", payload.Message)
		os.Exit(1)
	}
}
