// Package cli defines the cvelens command tree. Flags are bound on top of the
// environment configuration and take precedence over it.
package cli

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/lcalzada-xor/cvelens/internal/app"
	"github.com/lcalzada-xor/cvelens/internal/config"
	"github.com/lcalzada-xor/cvelens/internal/telemetry"
)

type rootOptions struct {
	cfg         *config.Config
	trace       bool
	sampleRatio float64
	logger      *slog.Logger

	shutdownTracer func(context.Context) error
}

// NewRootCommand builds the cvelens command tree over cfg.
func NewRootCommand(cfg *config.Config, version string) *cobra.Command {
	opts := &rootOptions{cfg: cfg}

	root := &cobra.Command{
		Use:           "cvelens",
		Short:         "CVELens - CVE attack type and severity classification",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			opts.logger = newLogger(cmd.ErrOrStderr(), opts.cfg.Debug)
			slog.SetDefault(opts.logger)

			if !opts.trace {
				return nil
			}
			shutdown, err := telemetry.InitTracer(telemetry.TracerConfig{
				Writer:      cmd.ErrOrStderr(),
				Version:     version,
				SampleRatio: opts.sampleRatio,
			})
			if err != nil {
				opts.logger.Error("Failed to init tracer", "error", err)
				return nil
			}
			opts.shutdownTracer = shutdown
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.shutdownTracer == nil {
				return
			}
			if err := opts.shutdownTracer(context.Background()); err != nil {
				opts.logger.Error("Failed to shutdown tracer", "error", err)
			}
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path")
	pf.StringVar(&cfg.ArtifactPath, "artifact", cfg.ArtifactPath, "fitted pipeline artifact file")
	pf.StringVar(&cfg.VocabPath, "vocab", cfg.VocabPath, "YAML keyword vocabulary (built-in when empty)")
	pf.BoolVar(&cfg.Debug, "debug", cfg.Debug, "enable debug logging")
	pf.BoolVar(&opts.trace, "trace", false, "export OpenTelemetry spans to stderr")
	pf.Float64Var(&opts.sampleRatio, "trace-sample", 1, "share of traces kept when --trace is set")

	root.AddCommand(
		newHarvestCommand(opts),
		newTrainCommand(opts),
		newServeCommand(opts),
		newPredictCommand(opts),
	)
	return root
}

// Execute runs the command tree until ctx is cancelled.
func Execute(ctx context.Context, cfg *config.Config, version string) error {
	return NewRootCommand(cfg, version).ExecuteContext(ctx)
}

// Logs go to stderr so command output on stdout stays machine readable.
func newLogger(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}))
}

func (o *rootOptions) openApp() (*app.Application, error) {
	return app.New(o.cfg, o.logger)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
