package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/grovetools/streamer-mode/config"
	"github.com/grovetools/streamer-mode/logging"
	"github.com/grovetools/streamer-mode/pkg/autodetect"
	"github.com/grovetools/streamer-mode/pkg/process"
)

// newInspector returns the process source used by detect and watch.
var newInspector = func() process.Inspector { return process.SystemInspector{} }

// DetectOutput is the machine-readable form of `detect`.
type DetectOutput struct {
	Detected bool     `json:"detected"`
	Apps     []string `json:"apps"`
	Outcome  string   `json:"outcome,omitempty"`
}

func NewDetectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "detect",
		Short: "Check whether a streaming application is running",
		Long: `Check whether a streaming application is running.

The built-in list (obs, streamlabs, xsplit) is extended by
streamer-mode.autoDetected.additionalApps. With --apply, the result is
written to the settings the same way the background poller does it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			settings, err := config.LoadSettings(s.store)
			if err != nil {
				s.logger.WithError(err).Warn("Invalid settings, using defaults")
			}

			detector := process.NewDetector(newInspector(), s.logger)
			out := DetectOutput{
				Apps: append(append([]string{}, process.DefaultApps...), settings.AutoDetected.AdditionalApps...),
			}

			apply, _ := cmd.Flags().GetBool("apply")
			pretty := logging.NewPrettyLogger().WithWriter(cmd.OutOrStdout())
			if apply {
				opts := []autodetect.Option{autodetect.WithLogger(s.logger)}
				if !s.json {
					opts = append(opts, autodetect.WithNotifier(pretty))
				}
				poller := autodetect.New(s.store, s.state, detector, opts...)
				defer poller.Close()

				outcome := poller.Check(cmd.Context())
				out.Outcome = outcome.String()
				if outcome == autodetect.Failed {
					return fmt.Errorf("streaming app check failed")
				}
				// Any other outcome leaves the state equal to the detection result.
				out.Detected = s.state.IsEnabled()
				if outcome == autodetect.Off {
					out.Detected, err = detector.Detect(cmd.Context(), settings.AutoDetected.AdditionalApps)
					if err != nil {
						return err
					}
				}
			} else {
				out.Detected, err = detector.Detect(cmd.Context(), settings.AutoDetected.AdditionalApps)
				if err != nil {
					return err
				}
			}

			if s.json {
				return printJSON(cmd.OutOrStdout(), out)
			}
			if out.Detected {
				pretty.InfoPretty("Streaming app detected")
			} else {
				pretty.InfoPretty("No streaming app detected")
			}
			if out.Outcome != "" {
				pretty.Field("Outcome", out.Outcome)
			}
			return nil
		},
	}
	cmd.Flags().Bool("apply", false, "Turn Streamer Mode on or off to match the result")
	return cmd
}
