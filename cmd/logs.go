package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/hpcloud/tail"
	"github.com/spf13/cobra"

	"github.com/grovetools/streamer-mode/cli"
	"github.com/grovetools/streamer-mode/logging"
	"github.com/grovetools/streamer-mode/pkg/paths"
)

// TailedLine is one log line and the component that wrote it.
type TailedLine struct {
	Component string `json:"component"`
	Line      string `json:"line"`
}

// NewLogsCmd creates the `logs` command.
func NewLogsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs [component...]",
		Short: "Show the streamer-mode log files",
		Long: `Show the daily log files written under the state directory. Without
arguments every component that logged on the selected day is shown.

Examples:
  # Follow the poller and the extension logs
  streamer-mode logs -f autodetect extension

  # Last 100 lines of yesterday's logs as JSON Lines
  streamer-mode logs --day 2026-10-18 --tail 100 --json`,
		RunE: runLogsE,
	}

	cmd.Flags().BoolP("follow", "f", false, "Follow log output")
	cmd.Flags().Int("tail", -1, "Number of lines to show from the end of each log (default: all)")
	cmd.Flags().String("day", "", "Day to show, as YYYY-MM-DD (default: today)")

	return cmd
}

func runLogsE(cmd *cobra.Command, args []string) error {
	opts := cli.GetOptions(cmd)
	follow, _ := cmd.Flags().GetBool("follow")
	tailLines, _ := cmd.Flags().GetInt("tail")
	dayFlag, _ := cmd.Flags().GetString("day")

	day := time.Now()
	if dayFlag != "" {
		parsed, err := time.Parse("2006-01-02", dayFlag)
		if err != nil {
			return fmt.Errorf("invalid --day %q: %w", dayFlag, err)
		}
		day = parsed
	}

	logDir := paths.LogDir()
	files, err := logFiles(logDir, args, day)
	if err != nil {
		return err
	}
	if len(files) == 0 && !follow {
		fmt.Fprintf(cmd.ErrOrStderr(), "No logs found in %s for %s\n", logDir, day.Format("2006-01-02"))
		return nil
	}

	printer := newLinePrinter(cmd.OutOrStdout(), opts.JSONOutput, len(files) > 1)
	for _, component := range sortedKeys(files) {
		lines, err := readLastLines(files[component], tailLines)
		if err != nil {
			return err
		}
		for _, line := range lines {
			printer.print(TailedLine{Component: component, Line: line})
		}
	}

	if !follow {
		return nil
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return followFiles(ctx, files, printer)
}

// logFiles maps each component to its log file for day. Components named
// explicitly are included even when their file does not exist yet.
func logFiles(dir string, components []string, day time.Time) (map[string]string, error) {
	files := make(map[string]string)
	if len(components) > 0 {
		for _, c := range components {
			files[c] = logging.LogFilePath(dir, c, day)
		}
		return files, nil
	}

	suffix := "-" + day.Format("2006-01-02") + ".log"
	matches, err := filepath.Glob(filepath.Join(dir, "*"+suffix))
	if err != nil {
		return nil, err
	}
	for _, m := range matches {
		files[strings.TrimSuffix(filepath.Base(m), suffix)] = m
	}
	return files, nil
}

// readLastLines returns the last n lines of path, or every line when n < 0.
// A missing file has no lines.
func readLastLines(path string, n int) ([]string, error) {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
		if n >= 0 && len(lines) > n {
			lines = lines[1:]
		}
	}
	return lines, scanner.Err()
}

// followFiles streams lines appended to files until ctx is cancelled.
func followFiles(ctx context.Context, files map[string]string, printer *linePrinter) error {
	lineChan := make(chan TailedLine)
	var wg sync.WaitGroup

	for component, path := range files {
		t, err := tail.TailFile(path, tail.Config{
			Follow:   true,
			ReOpen:   true,
			Location: &tail.SeekInfo{Offset: 0, Whence: io.SeekEnd},
			Logger:   tail.DiscardingLogger,
		})
		if err != nil {
			return fmt.Errorf("cannot follow %s: %w", path, err)
		}

		wg.Add(1)
		go func(component string, t *tail.Tail) {
			defer wg.Done()
			defer t.Cleanup()
			for {
				select {
				case line, ok := <-t.Lines:
					if !ok {
						return
					}
					if line.Err != nil {
						continue
					}
					select {
					case lineChan <- TailedLine{Component: component, Line: line.Text}:
					case <-ctx.Done():
						_ = t.Stop()
						return
					}
				case <-ctx.Done():
					_ = t.Stop()
					return
				}
			}
		}(component, t)
	}

	go func() {
		wg.Wait()
		close(lineChan)
	}()

	for line := range lineChan {
		printer.print(line)
	}
	return nil
}

// linePrinter writes tailed lines as plain text, prefixed text or JSON Lines.
type linePrinter struct {
	w         io.Writer
	json      bool
	prefix    bool
	component lipgloss.Style
}

func newLinePrinter(w io.Writer, jsonOutput, prefix bool) *linePrinter {
	return &linePrinter{
		w:         w,
		json:      jsonOutput,
		prefix:    prefix,
		component: lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	}
}

func (p *linePrinter) print(line TailedLine) {
	switch {
	case p.json:
		_ = printJSONLine(p.w, line)
	case p.prefix:
		fmt.Fprintf(p.w, "%s %s\n", p.component.Render("["+line.Component+"]"), line.Line)
	default:
		fmt.Fprintln(p.w, line.Line)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
