// Command abgleich reconciles the engine repository's metric table
// against the mirror store's projection and exits with the verdict:
// 0 for a clean run, 1 when divergence was found (or warnings in
// strict mode), 2 on any fatal condition such as an unreachable store
// or a malformed configuration payload.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/kylerisse/abgleich/pkg/config"
	"github.com/kylerisse/abgleich/pkg/reconcile"
	"github.com/kylerisse/abgleich/pkg/report"
	"github.com/kylerisse/abgleich/pkg/store"
)

const exitFatal = 2

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags := flag.NewFlagSet("abgleich", flag.ExitOnError)
	configPath := flags.String("config", "abgleich.toml", "path to the configuration file")
	verbose := flags.Bool("verbose", false, "emit informational counts and per-finding detail even absent findings")
	strict := flags.Bool("strict", false, "treat warnings as errors for the exit code")
	flags.Parse(args)

	logger := logrus.New()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Errorf("Failed to load configuration: %v", err)
		return exitFatal
	}
	applyLogLevel(logger, cfg.Logging.Level, *verbose)

	ctx := context.Background()

	engineStore, err := store.NewEngineStore(ctx, cfg.Engine, logger)
	if err != nil {
		logger.Errorf("Failed to connect to engine repository: %v", err)
		return exitFatal
	}
	defer engineStore.Close()

	mirrorStore, err := store.NewMirrorStore(ctx, cfg.Mirror, logger)
	if err != nil {
		logger.Errorf("Failed to connect to mirror store: %v", err)
		return exitFatal
	}
	defer mirrorStore.Close()

	engineMetrics, err := engineStore.FetchMetrics(ctx)
	if err != nil {
		logger.Errorf("Failed to fetch engine metrics: %v", err)
		return exitFatal
	}

	mirrorMetrics, err := mirrorStore.ScanMetrics(ctx)
	if err != nil {
		logger.Errorf("Failed to scan mirror metrics: %v", err)
		return exitFatal
	}

	warnings, errors, err := reconcile.RunAll(logger, engineMetrics, mirrorMetrics, *verbose)
	if err != nil {
		logger.Errorf("Reconciliation aborted: %v", err)
		return exitFatal
	}

	report.Render(logger, warnings, errors, *verbose)
	return report.Verdict(len(warnings), len(errors), *strict)
}

// applyLogLevel sets the configured level; verbose forces at least debug.
func applyLogLevel(logger *logrus.Logger, level string, verbose bool) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		logger.Warnf("Unknown log level %q, using info", level)
		parsed = logrus.InfoLevel
	}
	if verbose && parsed < logrus.DebugLevel {
		parsed = logrus.DebugLevel
	}
	logger.SetLevel(parsed)
}
