package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/grovetools/streamer-mode/config"
	"github.com/grovetools/streamer-mode/logging"
	"github.com/grovetools/streamer-mode/schema"
)

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and validate streamer-mode settings",
	}
	cmd.AddCommand(newConfigShowCmd(), newConfigValidateCmd(), newConfigSchemaCmd())
	return cmd
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Display the settings of each scope and the effective result",
		Long: `Shows how the effective settings are built by merging scopes:
1. Global settings (~/.config/streamer-mode/settings.yml)
2. Workspace settings (<workspace>/.streamer-mode/settings.yml)
Workspace values override global ones; association maps are merged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			settings, err := config.LoadSettings(s.store)
			if err != nil {
				s.logger.WithError(err).Warn("Invalid settings, showing defaults")
			}
			if s.json {
				return printJSON(out, settings)
			}

			in := s.store.Inspect(config.Section, "")
			printLayer := func(title, path string, value interface{}, ok bool) {
				if !ok {
					return
				}
				fmt.Fprintf(out, "--- # %s\n", title)
				if path != "" {
					fmt.Fprintf(out, "# Source: %s\n", path)
				}
				data, _ := yaml.Marshal(value)
				fmt.Fprintln(out, string(data))
			}

			printLayer("GLOBAL SETTINGS", s.store.Path(config.ScopeGlobal), in.Global, in.HasGlobal)
			printLayer("WORKSPACE SETTINGS", s.store.Path(config.ScopeWorkspace), in.Workspace, in.HasWorkspace)
			printLayer("EFFECTIVE SETTINGS", "", settings, true)
			return nil
		},
	}
}

func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the streamer-mode settings against the schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			validator, err := schema.NewValidator()
			if err != nil {
				return err
			}

			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			for _, scope := range config.Scopes {
				value, ok := s.store.Inspect(config.Section, "").Value(scope)
				if !ok {
					continue
				}
				if err := validator.Validate(value); err != nil {
					return fmt.Errorf("%s settings (%s): %w", scope, s.store.Path(scope), err)
				}
			}

			if s.json {
				return printJSON(cmd.OutOrStdout(), map[string]bool{"valid": true})
			}
			pretty.Success("Settings are valid")
			return nil
		},
	}
}

func newConfigSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema of the streamer-mode settings section",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := config.GenerateSchema()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(data))
			return nil
		},
	}
}
