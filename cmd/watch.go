package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/grovetools/streamer-mode/cli"
	"github.com/grovetools/streamer-mode/logging"
	"github.com/grovetools/streamer-mode/pkg/autodetect"
	"github.com/grovetools/streamer-mode/pkg/extension"
)

// logSink reports decoration refreshes to the log.
type logSink struct {
	logger *logrus.Entry
}

func (s logSink) DecorationsChanged() {
	s.logger.Info("Decorations changed")
}

func NewWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Run Streamer Mode in the foreground",
		Long: `Run Streamer Mode in the foreground.

Polls for streaming applications, reacts to edits of the settings files
and prints status changes until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runWatch(ctx, cmd)
		},
	}
}

func runWatch(ctx context.Context, cmd *cobra.Command) error {
	logger := logging.NewLogger("extension")
	store, root, err := cli.OpenStore(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	pretty := logging.NewPrettyLogger().WithWriter(out)
	jsonOutput := cli.GetOptions(cmd).JSONOutput

	// Poller notices are shown and also kept in the autodetect log.
	var notifier autodetect.Notifier
	if !jsonOutput {
		notifier = logging.NewUnifiedLogger("autodetect").WithOutput(out)
	}

	ext, err := extension.Activate(ctx, store, extension.Options{
		Root:      root,
		Inspector: newInspector(),
		Notifier:  notifier,
		Sink:      logSink{logger: logger},
		Logger:    logger,
		OnStatus: func(status extension.Status) {
			if jsonOutput {
				_ = printJSON(out, status)
				return
			}
			pretty.InfoPretty(status.Text())
		},
	})
	if err != nil {
		return err
	}
	defer ext.Dispose()

	// Watch returns once ctx is cancelled.
	return store.Watch(ctx)
}
