package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/grovetools/streamer-mode/config"
	"github.com/grovetools/streamer-mode/logging"
	"github.com/grovetools/streamer-mode/pkg/association"
	"github.com/grovetools/streamer-mode/pkg/extension"
)

// StatusOutput is the machine-readable form of `status`.
type StatusOutput struct {
	Enabled          bool         `json:"enabled"`
	Scope            config.Scope `json:"scope"`
	AutoDetect       bool         `json:"autoDetect"`
	ActiveInterval   int          `json:"activeInterval"`
	InactiveInterval int          `json:"inactiveInterval"`
	AdditionalApps   []string     `json:"additionalApps"`
	Dialect          string       `json:"dialect"`
	Propagate        bool         `json:"propagate"`
	Patterns         []string     `json:"patterns"`
	Workspace        string       `json:"workspace"`
}

func NewStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show whether Streamer Mode is on and what it hides",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}

			settings, err := config.LoadSettings(s.store)
			if err != nil {
				s.logger.WithError(err).Warn("Invalid settings, showing defaults")
			}
			patterns := association.NewEditor(s.store).Patterns()

			out := StatusOutput{
				Enabled:          s.state.IsEnabled(),
				Scope:            s.state.SourceScope(),
				AutoDetect:       settings.AutoDetected.Enable,
				ActiveInterval:   settings.AutoDetected.Interval.Active,
				InactiveInterval: settings.AutoDetected.Interval.Inactive,
				AdditionalApps:   settings.AutoDetected.AdditionalApps,
				Dialect:          settings.Decoration.Dialect,
				Propagate:        settings.Decoration.Propagate,
				Patterns:         patterns,
				Workspace:        s.root,
			}
			if s.json {
				return printJSON(cmd.OutOrStdout(), out)
			}

			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			pretty.InfoPretty(extension.Status{Enabled: out.Enabled}.Text())
			pretty.Field("Set in", string(out.Scope))
			autoDetect := "off"
			if out.AutoDetect {
				autoDetect = fmt.Sprintf("every %ds while on, %ds while off", out.ActiveInterval, out.InactiveInterval)
			}
			pretty.Field("Auto-detect", autoDetect)
			if len(out.AdditionalApps) > 0 {
				pretty.Field("Extra apps", strings.Join(out.AdditionalApps, ", "))
			}
			pretty.Field("Dialect", out.Dialect)
			pretty.Field("Protected patterns", len(out.Patterns))
			pretty.Path("Workspace", out.Workspace)
			return nil
		},
	}
}

func NewEnableCmd() *cobra.Command {
	return newSetEnabledCmd("enable", "Turn Streamer Mode on", true)
}

func NewDisableCmd() *cobra.Command {
	return newSetEnabledCmd("disable", "Turn Streamer Mode off", false)
}

func newSetEnabledCmd(use, short string, value bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

The flag is written to the scope that currently sets it, unless --scope says
otherwise.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			scope, err := scopeFlag(cmd, s.state.SourceScope())
			if err != nil {
				return err
			}
			if err := s.state.SetEnabled(cmd.Context(), value, scope); err != nil {
				return err
			}
			return reportEnabled(cmd, s, value, scope)
		},
	}
	addScopeFlag(cmd, "Settings scope to write: global or workspace")
	return cmd
}

func NewToggleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle",
		Short: "Flip Streamer Mode on or off",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			scope, err := scopeFlag(cmd, s.state.SourceScope())
			if err != nil {
				return err
			}
			enabled, err := s.state.Toggle(cmd.Context(), scope)
			if err != nil {
				return err
			}
			return reportEnabled(cmd, s, enabled, scope)
		},
	}
	addScopeFlag(cmd, "Settings scope to write: global or workspace")
	return cmd
}

func reportEnabled(cmd *cobra.Command, s *session, enabled bool, scope config.Scope) error {
	if s.json {
		return printJSON(cmd.OutOrStdout(), map[string]interface{}{
			"enabled": enabled,
			"scope":   scope,
		})
	}

	pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
	state := "disabled"
	if enabled {
		state = "enabled"
	}
	pretty.Success(fmt.Sprintf("Streamer Mode %s (%s settings)", state, scope))
	return nil
}
