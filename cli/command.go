package cli

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/grovetools/streamer-mode/config"
	"github.com/grovetools/streamer-mode/logging"
	"github.com/grovetools/streamer-mode/pkg/paths"
	"github.com/grovetools/streamer-mode/util/pathutil"
)

// CommandOptions holds common options for streamer-mode commands
type CommandOptions struct {
	Workspace  string
	Verbose    bool
	JSONOutput bool
	NoColor    bool
}

// NewStandardCommand creates a new command with the standard flags
func NewStandardCommand(use, short string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           use,
		Short:         short,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json", false, "Output in JSON format")
	cmd.PersistentFlags().StringP("workspace", "w", "", "Workspace root (default: current directory)")
	cmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	cmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		ConfigureColor(GetOptions(cmd).NoColor)
	}

	SetStyledHelp(cmd)

	return cmd
}

// ConfigureColor turns styling off when requested or when NO_COLOR is set.
func ConfigureColor(noColor bool) {
	if noColor || os.Getenv("NO_COLOR") != "" {
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// GetLogger returns the cli component logger, honoring --verbose and --json.
func GetLogger(cmd *cobra.Command) *logrus.Entry {
	entry := logging.NewLogger("cli")

	opts := GetOptions(cmd)
	if opts.Verbose {
		logging.SetLevel(logrus.DebugLevel)
	}
	if opts.JSONOutput {
		entry.Logger.SetFormatter(&logrus.JSONFormatter{})
	}

	return entry
}

// GetOptions extracts common options from a command
func GetOptions(cmd *cobra.Command) CommandOptions {
	workspace, _ := cmd.Flags().GetString("workspace")
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")
	noColor, _ := cmd.Flags().GetBool("no-color")

	return CommandOptions{
		Workspace:  workspace,
		Verbose:    verbose,
		JSONOutput: jsonOutput,
		NoColor:    noColor,
	}
}

// WorkspaceRoot resolves the workspace root, defaulting to the working directory.
func WorkspaceRoot(workspace string) (string, error) {
	if workspace == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", err
		}
		return cwd, nil
	}
	return pathutil.Expand(workspace)
}

// OpenStore opens the global and workspace settings documents for the
// workspace selected by the command flags.
func OpenStore(cmd *cobra.Command, opts ...config.FileStoreOption) (*config.FileStore, string, error) {
	root, err := WorkspaceRoot(GetOptions(cmd).Workspace)
	if err != nil {
		return nil, "", err
	}

	opts = append([]config.FileStoreOption{
		config.WithLogger(logging.NewLogger("config")),
	}, opts...)
	store, err := config.NewFileStore(paths.GlobalSettingsPath(), paths.WorkspaceSettingsPath(root), opts...)
	if err != nil {
		return nil, "", err
	}
	return store, root, nil
}
