package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"debatetui/internal/analysis"
	"debatetui/internal/config"
	"debatetui/internal/mockserver"
)

var (
	v      = viper.New()
	cfg    config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "debate-tui",
	Short: "Submit a political topic and browse the debate analysis",
	Long: `debate-tui sends a topic to the analysis service and renders the
structured result it returns.

Run without arguments to start the interactive interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.LoadDotEnv(); err != nil {
			return err
		}
		var err error
		cfg, err = config.Load(v)
		if err != nil {
			return err
		}
		logger, err = buildLogger(cfg, cmd != cmd.Root())
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	RunE: runInteractive,
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [topic]",
	Short: "Analyze a single topic without the interactive interface",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAnalyze,
}

var serveMockCmd = &cobra.Command{
	Use:   "serve-mock",
	Short: "Serve canned analysis responses for local testing",
	Long: `Starts a stand-in for the analysis service that answers /api/analyze
with a fixed two-sided debate for any topic. The topic "fail" yields a
success=false response.`,
	Args: cobra.NoArgs,
	RunE: runServeMock,
}

func init() {
	config.RegisterFlags(rootCmd.PersistentFlags())
	cobra.CheckErr(config.Bind(v, rootCmd.PersistentFlags()))
	rootCmd.AddCommand(analyzeCmd, serveMockCmd)
	// Runs after every Execute, including when RunE fails.
	cobra.OnFinalize(syncLogger)
}

func syncLogger() {
	if logger != nil {
		_ = logger.Sync()
	}
}

// buildLogger writes to the configured log file; the interactive interface
// owns the terminal so only other commands also log to stderr.
func buildLogger(cfg config.Config, stderr bool) (*zap.Logger, error) {
	zc := zap.NewProductionConfig()
	zc.OutputPaths = []string{cfg.LogFile}
	zc.ErrorOutputPaths = []string{cfg.LogFile}
	if stderr {
		zc.OutputPaths = append(zc.OutputPaths, "stderr")
		zc.ErrorOutputPaths = append(zc.ErrorOutputPaths, "stderr")
	}
	if cfg.Verbose {
		zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	return zc.Build()
}

func runInteractive(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := analysis.NewClient(cfg.Endpoint, cfg.Timeout)
	style := "light"
	if lipgloss.HasDarkBackground() {
		style = "dark"
	}
	logger.Info("starting interactive session", zap.String("endpoint", client.BaseURL()))

	opts := []tea.ProgramOption{tea.WithContext(ctx), tea.WithMouseCellMotion()}
	if cfg.AltScreen {
		opts = append(opts, tea.WithAltScreen())
	}
	p := tea.NewProgram(newModel(ctx, client, client, logger, style), opts...)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("debate-tui fatal error: %w", err)
	}
	return nil
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := analysis.NewClient(cfg.Endpoint, cfg.Timeout)
	session := analysis.NewSession(client,
		analysis.WithLogger(logger),
		analysis.WithNotifier(analysis.NotifierFunc(func(n analysis.Notice) {
			fmt.Fprintln(cmd.ErrOrStderr(), n.String())
		})),
	)
	input := analysis.NewInput(session)
	input.SetTopic(strings.Join(args, " "))
	req, ok := input.Submit()
	if !ok {
		return errors.New("topic is required")
	}

	attempt := session.Await(ctx, req)
	if attempt.Status != analysis.StatusSucceeded {
		return fmt.Errorf("analysis failed (%s): %w", attempt.FailureKind, attempt.Failure)
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Saved to: %s\n\n", attempt.SavedTo)
	fmt.Fprintln(out, formatPayload(attempt.Payload))
	return nil
}

func runServeMock(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              cfg.MockAddr,
		Handler:           mockserver.New(mockserver.Options{Delay: cfg.MockDelay, Logger: logger}),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("mock analysis service listening", zap.String("addr", cfg.MockAddr), zap.Duration("delay", cfg.MockDelay))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	logger.Info("shutting down mock analysis service")
	return srv.Shutdown(shutdownCtx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
