package cmd

import (
	"github.com/spf13/cobra"

	"github.com/grovetools/streamer-mode/cli"
	"github.com/grovetools/streamer-mode/pkg/paths"
)

// PathsOutput represents the XDG-compliant paths used by streamer-mode.
type PathsOutput struct {
	ConfigDir         string `json:"config_dir"`
	StateDir          string `json:"state_dir"`
	LogDir            string `json:"log_dir"`
	GlobalSettings    string `json:"global_settings"`
	WorkspaceSettings string `json:"workspace_settings"`
}

func NewPathsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paths",
		Short: "Print the paths streamer-mode reads and writes",
		Long: `Print the paths streamer-mode reads and writes.

This command outputs the paths in JSON format, making it easy
to parse from scripts and other tools.

- config_dir: Global configuration directory
- state_dir: Runtime state
- log_dir: Daily log files, one per component
- global_settings: Global settings document
- workspace_settings: Settings document of the selected workspace`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			root, err := cli.WorkspaceRoot(cli.GetOptions(cmd).Workspace)
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), PathsOutput{
				ConfigDir:         paths.ConfigDir(),
				StateDir:          paths.StateDir(),
				LogDir:            paths.LogDir(),
				GlobalSettings:    paths.GlobalSettingsPath(),
				WorkspaceSettings: paths.WorkspaceSettingsPath(root),
			})
		},
	}

	return cmd
}
