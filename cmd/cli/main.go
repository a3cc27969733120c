// Command cli audits a web page for trust and safety problems: tiered
// security checks, CWE enrichment, threat reputation correlation and
// cross-agent adjudication, rendered as a table, JSON, HTML or PDF.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/trustlens/trustlens/pkg/audit"
	"github.com/trustlens/trustlens/pkg/checks/domaudit"
	"github.com/trustlens/trustlens/pkg/config"
	"github.com/trustlens/trustlens/pkg/defaults"
	"github.com/trustlens/trustlens/pkg/executor"
	"github.com/trustlens/trustlens/pkg/registry"
	"github.com/trustlens/trustlens/pkg/report"
	"github.com/trustlens/trustlens/pkg/router"
	"github.com/trustlens/trustlens/pkg/threatintel"
	"github.com/trustlens/trustlens/pkg/ui"

	_ "github.com/trustlens/trustlens/pkg/checks/all"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, ui.ErrorStyle.Render("error: ")+err.Error())
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.ParseFlags(args)
	if err != nil {
		return err
	}

	if cfg.NoColor {
		ui.SetNoColor(true)
	}

	level := slog.LevelInfo
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if cfg.OutputFormat == "table" && cfg.OutputFile == "" {
		fmt.Fprintln(os.Stderr, ui.Banner("v"+defaults.Version))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.OTelEndpoint != "" {
		shutdown, err := audit.SetupTracing(ctx, audit.TracingOptions{
			Endpoint: cfg.OTelEndpoint,
			Insecure: cfg.OTelInsecure,
		})
		if err != nil {
			return fmt.Errorf("setup tracing: %w", err)
		}
		defer func() {
			if err := shutdown(context.Background()); err != nil {
				logger.Warn("trace flush failed", slog.String("error", err.Error()))
			}
		}()
	}

	reg := buildRegistry(cfg, logger)

	hooks := []audit.Hook{audit.NewLoggerHook(logger)}
	if cfg.MetricsPort > 0 {
		promHook, err := audit.NewPrometheusHook(audit.PrometheusOptions{Port: cfg.MetricsPort})
		if err != nil {
			return fmt.Errorf("start metrics: %w", err)
		}
		defer promHook.Close()
		hooks = append(hooks, promHook)
	}

	var intel threatintel.Client
	if cfg.EnableThreatCorrelation && cfg.IntelEndpoint != "" {
		intel = threatintel.NewHTTPClient("reputation", cfg.IntelEndpoint, cfg.IntelAPIKey)
	}

	orch, err := audit.NewOrchestrator(audit.Options{
		Registry: reg,
		Timeouts: executor.TierTimeouts{
			Fast:   cfg.FastTimeout(),
			Medium: cfg.MediumTimeout(),
			Deep:   cfg.DeepTimeout(),
		},
		EnableEnrichment:        cfg.EnableEnrichment,
		EnableThreatCorrelation: cfg.EnableThreatCorrelation,
		IntelSource:             intel,
		Router: router.Config{
			UseNewPath:        cfg.UseNewExecutionPath,
			RolloutPercentage: cfg.RolloutPercentage,
		},
		Hooks:  hooks,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	target, err := buildTarget(ctx, cfg)
	if err != nil {
		return err
	}

	result, err := orch.Audit(ctx, target, nil)
	if err != nil {
		return err
	}

	return render(cfg, result)
}

// buildRegistry seeds the built-in checks, applies browser overrides
// and discovers user scripts.
func buildRegistry(cfg *config.Config, logger *slog.Logger) *registry.Registry {
	reg := registry.Builtin(logger)

	if cfg.ChromePath != "" {
		if err := reg.Replace(domaudit.New(domaudit.Config{ChromiumPath: cfg.ChromePath})); err != nil {
			logger.Warn("browser override skipped", slog.String("error", err.Error()))
		}
	}
	if cfg.ScriptsDir != "" {
		n := reg.DiscoverScripts(cfg.ScriptsDir, logger)
		logger.Debug("scripts discovered", slog.Int("count", n), slog.String("dir", cfg.ScriptsDir))
	}
	return reg
}

func render(cfg *config.Config, result *audit.Result) error {
	writer, err := report.New(report.Format(cfg.OutputFormat))
	if err != nil {
		return err
	}

	var out io.Writer = os.Stdout
	if cfg.OutputFile != "" {
		f, err := os.Create(cfg.OutputFile)
		if err != nil {
			return fmt.Errorf("create output file: %w", err)
		}
		defer f.Close()
		out = f
	}
	return writer.Write(out, result)
}
