// Package main is the CLI entry point for eztrackd.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eliteGoblin/eztrackd/internal/config"
	"github.com/eliteGoblin/eztrackd/internal/daemon"
	"github.com/eliteGoblin/eztrackd/internal/domain"
	"github.com/eliteGoblin/eztrackd/internal/infra"
	"github.com/eliteGoblin/eztrackd/internal/policy"
	"github.com/eliteGoblin/eztrackd/internal/usecase"
)

var (
	// Version info (set via ldflags)
	Version   = "0.1.0"
	Commit    = "dev"
	BuildTime = "unknown"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "eztrackd",
	Short: "File activity tracker - sends coding heartbeats to eztracker",
	Long: `eztrackd watches files for activity, coalesces open/modify/save events
into heartbeats and periodically hands them to the eztracker delivery CLI.

Configuration lives in ~/.eztracker.cfg ([settings] section), shared with
the delivery CLI.`,
	Version: Version,
}

var trackCmd = &cobra.Command{
	Use:   "track [dir...]",
	Short: "Track file activity under the given directories",
	Long: `Starts the tracking daemon. Watches the given directories (default: the
current directory) for file activity and flushes buffered heartbeats to the
delivery CLI on the configured interval. Runs until interrupted.`,
	RunE: runTrack,
}

var sendCmd = &cobra.Command{
	Use:   "send <file>",
	Short: "Send a single heartbeat through the delivery CLI",
	Long: `Builds one heartbeat for the given file and hands it to the delivery CLI
immediately. Useful for verifying the delivery path end to end. A zero
duration heartbeat is skipped by policy; pass --duration to see a real send.`,
	Args: cobra.ExactArgs(1),
	RunE: runSend,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check tracker status",
	Long:  `Shows whether a tracking session is running and when it last flushed.`,
	RunE:  runStatus,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show recent flush outcomes",
	Long:  `Prints the most recent flush attempts recorded in the local journal.`,
	RunE:  runStats,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Prints version, commit, and build time. Use --json for machine-readable output.`,
	Run:   runVersion,
}

var (
	sendDuration float64
	sendWrite    bool
	sendLanguage string
	jsonOutput   bool
	statsLimit   int
)

func init() {
	sendCmd.Flags().Float64Var(&sendDuration, "duration", 0, "Heartbeat duration in seconds")
	sendCmd.Flags().BoolVar(&sendWrite, "write", false, "Mark the heartbeat as a write event")
	sendCmd.Flags().StringVar(&sendLanguage, "language", "", "Language override (default: by extension)")
	statsCmd.Flags().IntVar(&statsLimit, "limit", 20, "Number of journal entries to show")
	versionCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version info as JSON")

	rootCmd.AddCommand(trackCmd)
	rootCmd.AddCommand(sendCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(versionCmd)
}

func loadConfig() (domain.TrackerConfig, error) {
	path, err := config.DefaultPath()
	if err != nil {
		return domain.TrackerConfig{}, err
	}
	return config.Load(path)
}

func runTrack(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.APIKey == "" {
		return fmt.Errorf("API key not found: set API_KEY env var or add api_key to ~/.eztracker.cfg")
	}

	roots := args
	if len(roots) == 0 {
		roots = []string{"."}
	}
	cfg.WatchDirs = roots

	logger := createLogger(cfg.Debug)
	defer func() { _ = logger.Sync() }()

	matcher, err := policy.NewMatcher(cfg.IgnorePatterns)
	if err != nil {
		return err
	}

	transporter := infra.NewCLITransporter(cfg, Version, logger)
	notifier := infra.NewStderrNotifier(logger)
	sessionID := uuid.NewString()
	start := time.Now()

	var tracker *usecase.Tracker
	journal, err := openJournal()
	if err != nil {
		logger.Warn("journal unavailable, flush history disabled", zap.Error(err))
		tracker = usecase.NewTracker(cfg, matcher, transporter, notifier, sessionID, start, logger)
	} else {
		defer func() { _ = journal.Close() }()
		tracker = usecase.NewTrackerWithJournal(cfg, matcher, transporter, notifier, journal, sessionID, start, logger)
	}

	session := domain.Session{
		PID:        os.Getpid(),
		SessionID:  sessionID,
		StartedAt:  start,
		AppVersion: Version,
	}

	// Set up graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("received shutdown signal")
		cancel()
	}()

	w := daemon.NewWatcher(daemon.DefaultWatcherConfig(), tracker, infra.NewFileRegistry(), session, roots, logger)
	if err := w.Run(ctx); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

func runSend(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger := createLogger(cfg.Debug)
	defer func() { _ = logger.Sync() }()

	entity := args[0]
	lang := sendLanguage
	if lang == "" {
		lang = policy.LanguageForPath(entity)
	}

	hb := domain.Heartbeat{
		Entity:   entity,
		Time:     time.Now(),
		IsWrite:  sendWrite,
		Duration: sendDuration,
		Language: lang,
	}

	transporter := infra.NewCLITransporter(cfg, Version, logger)
	outcome := transporter.Send(cmd.Context(), []domain.Heartbeat{hb})

	fmt.Printf("outcome: %s\n", outcome.Class)
	switch outcome.Class {
	case domain.OutcomeSent:
		fmt.Printf("exit code: %d\n", outcome.ExitCode)
		if outcome.Stdout != "" {
			fmt.Printf("output: %s\n", outcome.Stdout)
		}
	case domain.OutcomeZeroDuration:
		fmt.Println("skipped: zero-duration heartbeats are not transmitted (use --duration)")
	case domain.OutcomeToolMissing:
		fmt.Printf("delivery CLI not found: %s\n", cfg.CLIPath)
	default:
		if outcome.Detail != "" {
			fmt.Printf("detail: %s\n", outcome.Detail)
		}
		if outcome.Stderr != "" {
			fmt.Printf("stderr: %s\n", outcome.Stderr)
		}
	}
	return nil
}

func runStatus(cmd *cobra.Command, args []string) error {
	registry := infra.NewFileRegistry()

	fmt.Println("\n=== eztrackd Status ===")

	s, err := registry.Get()
	if err != nil || s == nil {
		fmt.Println("Status: NOT RUNNING")
		fmt.Println("\nRun 'eztrackd track' to start tracking.")
		return nil
	}

	if registry.IsAlive(s.PID) {
		fmt.Println("Status: RUNNING")
	} else {
		fmt.Println("Status: NOT RUNNING (stale session)")
	}

	fmt.Printf("PID: %d\n", s.PID)
	fmt.Printf("Session: %s\n", s.SessionID)
	if s.AppVersion != "" {
		fmt.Printf("Version: %s\n", s.AppVersion)
	}
	fmt.Printf("Started: %s ago\n", time.Since(s.StartedAt).Round(time.Second))
	if !s.LastFlushAt.IsZero() {
		fmt.Printf("Last flush: %s ago\n", time.Since(s.LastFlushAt).Round(time.Second))
	}

	fmt.Println("=======================")
	return nil
}

func runStats(cmd *cobra.Command, args []string) error {
	journal, err := openJournal()
	if err != nil {
		return err
	}
	defer func() { _ = journal.Close() }()

	recs, err := journal.Recent(statsLimit)
	if err != nil {
		return err
	}

	fmt.Println("\n=== Recent Flushes ===")
	if len(recs) == 0 {
		fmt.Println("No flushes recorded yet.")
	}
	for _, r := range recs {
		line := fmt.Sprintf("%s  %-18s batch=%d", r.At.Format(time.RFC3339), r.Outcome, r.BatchSize)
		if r.Detail != "" {
			line += "  " + r.Detail
		}
		fmt.Println(line)
	}
	fmt.Println("======================")
	return nil
}

func openJournal() (*infra.SQLJournal, error) {
	path, err := infra.DefaultJournalPath()
	if err != nil {
		return nil, err
	}
	return infra.OpenJournal(path)
}

func createLogger(debug bool) *zap.Logger {
	config := zap.NewProductionConfig()
	config.OutputPaths = []string{"/var/tmp/eztrackd.log"}
	config.ErrorOutputPaths = []string{"/var/tmp/eztrackd.error.log"}
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if debug {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := config.Build()
	if err != nil {
		// Fallback to stdout if file logging fails
		logger, _ = zap.NewProduction()
	}
	return logger
}

func runVersion(cmd *cobra.Command, args []string) {
	if jsonOutput {
		fmt.Printf(`{"version":"%s","commit":"%s","build_time":"%s"}`+"\n",
			Version, Commit, BuildTime)
	} else {
		fmt.Printf("eztrackd %s (commit: %s, built: %s)\n",
			Version, Commit, BuildTime)
	}
}
