// Package main provides the CLI entrypoint for faketype.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/faketype/internal/buffer"
	"github.com/verte-zerg/faketype/internal/config"
	"github.com/verte-zerg/faketype/internal/model"
	"github.com/verte-zerg/faketype/internal/stats"
	"github.com/verte-zerg/faketype/internal/store"
	"github.com/verte-zerg/faketype/internal/tui"
	"github.com/verte-zerg/faketype/internal/typing"
)

var (
	typeSpeed     int
	typeMinSpeed  int
	typeMaxSpeed  int
	typeJitter    bool
	typeJitterPct int
	typeNoPicker  bool
	typeDryRun    bool
	typeHeadless  bool

	historyPath  string
	historySince string
	historyLast  int
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "faketype <file>",
		Short:         "Replay a file as if it were being typed",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runTypeCmd,
	}

	rootCmd.Flags().IntVar(&typeSpeed, "speed", model.DefaultBaseDelayMs, "base delay between characters in ms")
	rootCmd.Flags().IntVar(&typeMinSpeed, "min-speed", model.DefaultMinDelayMs, "minimum delay in ms")
	rootCmd.Flags().IntVar(&typeMaxSpeed, "max-speed", model.DefaultMaxDelayMs, "maximum delay in ms")
	rootCmd.Flags().BoolVar(&typeJitter, "jitter", model.DefaultJitterEnabled, "randomize the delay between characters")
	rootCmd.Flags().IntVar(&typeJitterPct, "jitter-pct", model.DefaultJitterPercent, "jitter amplitude as a percentage of the base delay (0-100)")
	rootCmd.Flags().BoolVar(&typeNoPicker, "no-picker", false, "skip the speed picker")
	rootCmd.Flags().BoolVar(&typeDryRun, "dry-run", false, "replay on screen only, leave the file untouched")
	rootCmd.Flags().BoolVar(&typeHeadless, "headless", false, "replay without the TUI")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newHistoryCmd())

	return rootCmd
}

func runTypeCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyIntConfig(cmd, "speed", &typeSpeed, fileCfg.Typing.Speed)
	applyIntConfig(cmd, "min-speed", &typeMinSpeed, fileCfg.Typing.MinSpeed)
	applyIntConfig(cmd, "max-speed", &typeMaxSpeed, fileCfg.Typing.MaxSpeed)
	applyBoolConfig(cmd, "jitter", &typeJitter, fileCfg.Typing.Jitter)
	applyIntConfig(cmd, "jitter-pct", &typeJitterPct, fileCfg.Typing.JitterPercent)

	cfg := model.SpeedConfig{
		BaseDelayMs:   typeSpeed,
		MinDelayMs:    typeMinSpeed,
		MaxDelayMs:    typeMaxSpeed,
		JitterEnabled: typeJitter,
		JitterPercent: typeJitterPct,
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid speed settings: %w", err)
	}

	src, err := buffer.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load file: %w", err)
	}
	if src.Text == "" {
		logErrf("%s is empty, nothing to type\n", src.Path)
		return fmt.Errorf("nothing to type")
	}

	doc := buffer.NewDocument(src.Text)
	var sink typing.Sink = doc
	var mirror *buffer.FileMirror
	if !typeDryRun {
		mirror = buffer.NewFileMirror(src, doc)
		sink = mirror
		defer func() {
			if cerr := mirror.Close(); cerr != nil {
				logErrf("failed to close %s: %v\n", src.Path, cerr)
			}
		}()
	}

	headless := typeHeadless || !term.IsTerminal(int(os.Stdout.Fd()))
	sched := typing.New()

	var (
		rec model.SessionRecord
		ok  bool
	)
	if headless {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		rec, err = runHeadless(ctx, sched, sink, src, cfg, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		ok = true
	} else {
		m := tui.NewModel(sched, doc, sink, tui.Options{
			Path:       src.Path,
			Text:       src.Text,
			Speed:      cfg,
			SkipPicker: typeNoPicker,
		})
		program := tea.NewProgram(m, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run TUI: %w", err)
		}
		if err := m.Err(); err != nil {
			return err
		}
		rec, ok = m.Record()
	}

	if mirror != nil {
		if merr := mirror.Err(); merr != nil {
			logErrf("failed to write %s: %v\n", src.Path, merr)
		}
	}
	if ok {
		recordSession(config.DefaultDBPath(), rec)
	}
	return nil
}

// runHeadless replays src into sink and blocks until typing completes or ctx
// is cancelled, in which case the original text is restored.
func runHeadless(ctx context.Context, sched *typing.Scheduler, sink typing.Sink, src buffer.Source, cfg model.SpeedConfig, w io.Writer) (model.SessionRecord, error) {
	done := make(chan struct{})
	startedAt := time.Now()
	sess, err := sched.Start(src.Text, cfg, sink, func() { close(done) })
	if err != nil {
		return model.SessionRecord{}, err
	}

	outcome := model.OutcomeCompleted
	select {
	case <-done:
		fmt.Fprintln(w, "Typing complete")
	case <-ctx.Done():
		if sess.Abort(sink) {
			outcome = model.OutcomeAborted
			fmt.Fprintln(w, "Original content restored")
		} else {
			<-done
			fmt.Fprintln(w, "Typing complete")
		}
	}

	return model.SessionRecord{
		StartedAt:     startedAt,
		EndedAt:       time.Now(),
		Path:          src.Path,
		TotalChars:    sess.Len(),
		EmittedChars:  sess.Cursor(),
		BaseDelayMs:   cfg.BaseDelayMs,
		JitterEnabled: cfg.JitterEnabled,
		JitterPercent: cfg.JitterPercent,
		Outcome:       outcome,
	}, nil
}

// recordSession stores rec in the history database. Failures are logged only.
func recordSession(dbPath string, rec model.SessionRecord) {
	st, err := store.Open(dbPath)
	if err != nil {
		logErrf("failed to open db: %v\n", err)
		return
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()
	if _, err := st.InsertSession(context.Background(), rec); err != nil {
		logErrf("failed to record session: %v\n", err)
	}
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := ensureConfigFile(path); err != nil {
		return err
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func ensureConfigFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}
	return nil
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past typing sessions",
		Args:  cobra.NoArgs,
		RunE:  runHistoryCmd,
	}
	cmd.Flags().StringVar(&historyPath, "path", "", "file filter")
	cmd.Flags().StringVar(&historySince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&historyLast, "last", 0, "limit to last N sessions")
	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	filter, err := historyFilter(historyPath, historySince, historyLast)
	if err != nil {
		return err
	}

	st, err := store.Open(config.DefaultDBPath())
	if err != nil {
		return fmt.Errorf("failed to open db: %w", err)
	}
	defer func() {
		if cerr := st.Close(); cerr != nil {
			logErrf("failed to close db: %v\n", cerr)
		}
	}()

	records, err := st.ListSessions(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("failed to load history: %w", err)
	}
	out := cmd.OutOrStdout()
	if err := stats.RenderSummary(out, records); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if len(records) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(out); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if err := stats.RenderHistory(out, records); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func historyFilter(path, since string, last int) (model.HistoryFilter, error) {
	filter := model.HistoryFilter{Last: last}
	if last < 0 {
		return filter, fmt.Errorf("--last must be >= 0")
	}
	if path != "" {
		abs, err := filepath.Abs(path)
		if err != nil {
			return filter, fmt.Errorf("invalid --path value: %w", err)
		}
		filter.Path = abs
	}
	if since != "" {
		parsed, err := time.ParseInLocation("2006-01-02", since, time.Local)
		if err != nil {
			return filter, fmt.Errorf("invalid --since value: %w", err)
		}
		filter.Since = &parsed
	}
	return filter, nil
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# faketype configuration
# Uncomment a value to enable it. CLI flags override config values.

[typing]
# speed = %d              # Base delay between characters in ms
# min-speed = %d           # Lower bound of the speed picker in ms
# max-speed = %d         # Upper bound of the speed picker and of jittered delays
# jitter = %t           # Randomize the delay between characters
# jitter-pct = %d         # Jitter amplitude as a percentage of speed (0-100)
`,
		model.DefaultBaseDelayMs,
		model.DefaultMinDelayMs,
		model.DefaultMaxDelayMs,
		model.DefaultJitterEnabled,
		model.DefaultJitterPercent,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
