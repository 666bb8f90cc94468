package cmd

import (
	"github.com/spf13/cobra"

	"github.com/grovetools/streamer-mode/cli"
	"github.com/grovetools/streamer-mode/version"
)

// NewRootCmd assembles the streamer-mode command tree.
func NewRootCmd() *cobra.Command {
	rootCmd := cli.NewStandardCommand(
		"streamer-mode",
		"Hide sensitive files while streaming",
	)
	cli.SetVersionTemplate(rootCmd, version.GetInfo())

	rootCmd.AddCommand(
		NewStatusCmd(),
		NewEnableCmd(),
		NewDisableCmd(),
		NewToggleCmd(),
		NewCheckCmd(),
		NewProtectCmd(),
		NewAssociationsCmd(),
		NewDetectCmd(),
		NewWatchCmd(),
		NewConfigCmd(),
		NewPathsCmd(),
		NewLogsCmd(),
		cli.NewVersionCommand("streamer-mode"),
	)

	cli.ApplyStyledHelpRecursive(rootCmd)
	return rootCmd
}
