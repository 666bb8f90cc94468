package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/grovetools/streamer-mode/config"
	"github.com/grovetools/streamer-mode/logging"
	"github.com/grovetools/streamer-mode/pkg/association"
)

func NewAssociationsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "associations",
		Aliases: []string{"assoc"},
		Short:   "List, add and remove protected associations",
	}
	cmd.AddCommand(newAssociationsListCmd(), newAssociationsAddCmd(), newAssociationsRemoveCmd())
	return cmd
}

func newAssociationsListCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List protected patterns per scope",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}

			entries := association.NewEditor(s.store).List()
			if value, _ := cmd.Flags().GetString("scope"); value != "" {
				scope, err := config.ParseScope(value)
				if err != nil {
					return err
				}
				entries = filterScope(entries, scope)
			}

			if s.json {
				if entries == nil {
					entries = []association.Entry{}
				}
				return printJSON(cmd.OutOrStdout(), entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No associations found for Streamer Mode")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "PATTERN\tSCOPE")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\n", e.Pattern, e.Scope)
			}
			return w.Flush()
		},
	}
	addScopeFlag(cmd, "Only list this scope: global or workspace")
	return cmd
}

func newAssociationsAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <pattern>...",
		Short: "Protect files matching the given patterns",
		Long: `Protect files matching the given patterns.

Examples:
  streamer-mode associations add '**/*.env' 'secrets/**'
  streamer-mode associations add '*.pem' --scope global`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			scope, err := scopeFlag(cmd, config.ScopeWorkspace)
			if err != nil {
				return err
			}

			editor := association.NewEditor(s.store)
			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			for _, pattern := range args {
				if err := editor.Add(cmd.Context(), pattern, scope); err != nil {
					return err
				}
				if !s.json {
					pretty.Success(fmt.Sprintf("Added %s → %s to %s", pattern, association.Marker, scope))
				}
			}
			if s.json {
				return printJSON(cmd.OutOrStdout(), filterScope(editor.List(), scope))
			}
			return nil
		},
	}
	addScopeFlag(cmd, "Settings scope to write: global or workspace (default: workspace)")
	return cmd
}

func newAssociationsRemoveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "remove <pattern>...",
		Aliases: []string{"rm"},
		Short:   "Stop protecting the given patterns",
		Long: `Stop protecting the given patterns.

Without --scope, each pattern is removed from every scope that holds it.
Entries that belong to other editors are never touched.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}

			scopes := config.Scopes
			if value, _ := cmd.Flags().GetString("scope"); value != "" {
				scope, err := config.ParseScope(value)
				if err != nil {
					return err
				}
				scopes = []config.Scope{scope}
			}

			editor := association.NewEditor(s.store)
			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			var removed []association.Entry
			for _, pattern := range args {
				for _, scope := range scopes {
					ok, err := editor.Remove(cmd.Context(), pattern, scope)
					if err != nil {
						pretty.ErrorPretty(fmt.Sprintf("Failed to remove %s", pattern), err)
						continue
					}
					if ok {
						removed = append(removed, association.Entry{Pattern: pattern, Scope: scope})
					}
				}
			}

			if s.json {
				if removed == nil {
					removed = []association.Entry{}
				}
				return printJSON(cmd.OutOrStdout(), removed)
			}
			if len(removed) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No associations removed")
				return nil
			}
			pretty.Success(fmt.Sprintf("Removed %d of %d association(s)", len(removed), len(args)))
			return nil
		},
	}
	addScopeFlag(cmd, "Only remove from this scope: global or workspace")
	return cmd
}

func filterScope(entries []association.Entry, scope config.Scope) []association.Entry {
	filtered := []association.Entry{}
	for _, e := range entries {
		if e.Scope == scope {
			filtered = append(filtered, e)
		}
	}
	return filtered
}
