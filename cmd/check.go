package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/grovetools/streamer-mode/config"
	"github.com/grovetools/streamer-mode/errors"
	"github.com/grovetools/streamer-mode/logging"
	"github.com/grovetools/streamer-mode/pkg/association"
	"github.com/grovetools/streamer-mode/pkg/decoration"
)

// CheckResult reports the decoration of one path.
type CheckResult struct {
	Path       string                 `json:"path"`
	Protected  bool                   `json:"protected"`
	Decoration *decoration.Decoration `json:"decoration,omitempty"`
}

func NewCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <path>...",
		Short: "Report whether paths are hidden in Streamer Mode",
		Long: `Report whether paths are hidden in Streamer Mode.

Paths are matched relative to the workspace root against every protected
association pattern. Nothing is hidden while Streamer Mode is off.

Examples:
  # Check a single file
  streamer-mode check .env

  # Check several files and print JSON
  streamer-mode check --json config/prod.key README.md`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}

			evaluator := decoration.New(s.store, s.state,
				decoration.WithRoot(s.root),
				decoration.WithLogger(s.logger))

			results := make([]CheckResult, 0, len(args))
			for _, arg := range args {
				path := arg
				if !filepath.IsAbs(path) {
					path = filepath.Join(s.root, path)
				}
				d, ok := evaluator.Decorate(cmd.Context(), path)
				results = append(results, CheckResult{Path: arg, Protected: ok, Decoration: d})
			}

			if s.json {
				return printJSON(cmd.OutOrStdout(), results)
			}

			out := cmd.OutOrStdout()
			if !s.state.IsEnabled() {
				fmt.Fprintln(out, "Streamer Mode is off; nothing is hidden.")
			}
			for _, r := range results {
				if r.Protected {
					fmt.Fprintf(out, "%s  %s  %s\n", r.Decoration.Badge, r.Path, r.Decoration.Pattern)
				} else {
					fmt.Fprintf(out, "-  %s\n", r.Path)
				}
			}
			return nil
		},
	}
}

func NewProtectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "protect <path>",
		Short: "Add an association that hides a file or folder",
		Long: `Add an association that hides a file or folder.

A folder is protected as a subtree relative to the workspace root. A file is
protected by its name, or by its extension with --by extension.

Examples:
  # Hide this one file everywhere in the workspace
  streamer-mode protect .env

  # Hide every *.pem file for all workspaces
  streamer-mode protect certs/dev.pem --by extension --scope global

  # Hide a folder
  streamer-mode protect secrets`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			scope, err := scopeFlag(cmd, config.ScopeWorkspace)
			if err != nil {
				return err
			}

			pattern, _ := cmd.Flags().GetString("pattern")
			if pattern == "" {
				by, _ := cmd.Flags().GetString("by")
				pattern, err = patternFor(s.root, args[0], by)
				if err != nil {
					return err
				}
			}

			if err := association.NewEditor(s.store).Add(cmd.Context(), pattern, scope); err != nil {
				return err
			}

			if s.json {
				return printJSON(cmd.OutOrStdout(), association.Entry{Pattern: pattern, Scope: scope})
			}
			logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout()).
				Success(fmt.Sprintf("Added %s → %s to %s", pattern, association.Marker, scope))
			return nil
		},
	}
	addScopeFlag(cmd, "Settings scope to write: global or workspace (default: workspace)")
	cmd.Flags().String("by", "name", "Protect a file by: name, extension")
	cmd.Flags().String("pattern", "", "Add this pattern instead of deriving one from the path")
	return cmd
}

// patternFor derives the pattern that protects target.
func patternFor(root, target, by string) (string, error) {
	path := target
	if !filepath.IsAbs(path) {
		path = filepath.Join(root, path)
	}
	info, err := os.Stat(path)
	if err != nil {
		return "", errors.InvalidInput("path", err.Error())
	}
	if info.IsDir() {
		return association.PatternForPath(root, path, true), nil
	}

	options := association.PatternOptions(path)
	switch by {
	case "name", "":
		return options[len(options)-1], nil
	case "extension", "ext":
		if len(options) < 2 {
			return "", errors.InvalidInput("by", fmt.Sprintf("%s has no extension", filepath.Base(path)))
		}
		return options[0], nil
	default:
		return "", errors.InvalidInput("by", fmt.Sprintf("unknown value %q (want name or extension)", by))
	}
}
