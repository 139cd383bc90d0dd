package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/foliogen/internal/app"
	"github.com/ternarybob/foliogen/internal/common"
	"github.com/ternarybob/foliogen/internal/models"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	demoMode     = flag.Bool("demo", false, "Run the built-in demo tenant without touching the tenant source")
	seedFile     = flag.String("seed", "", "Import tenants from a YAML file into the SQLite tenant store and exit")
	schedule     = flag.String("schedule", "", "Cron expression; keeps running and processes all tenants on schedule")
	logLevel     = flag.String("log-level", "", "Log level (overrides config)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")

	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: foliogen [flags] [tenant-id]\n\n")
		fmt.Fprintf(flag.CommandLine.Output(), "With no tenant id every active tenant is processed.\n\nFlags:\n")
		flag.PrintDefaults()
	}
}

func main() {
	flag.Parse()
	common.LoadVersionFromFile()

	if *showVersion || *showVersionV {
		fmt.Printf("Foliogen version %s\n", common.GetFullVersion())
		os.Exit(0)
	}

	// Startup sequence (REQUIRED ORDER):
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides (highest priority)
	// 3. Initialize logger
	// 4. Print banner
	if len(configFiles) == 0 {
		if _, err := os.Stat("foliogen.toml"); err == nil {
			configFiles = append(configFiles, "foliogen.toml")
		} else if _, err := os.Stat("deployments/local/foliogen.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/foliogen.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		tempLogger := arbor.NewLogger()
		tempLogger.Fatal().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration files")
		os.Exit(1)
	}

	common.ApplyFlagOverrides(config, *logLevel, *schedule)

	if err := config.Validate(); err != nil {
		arbor.NewLogger().Fatal().Err(err).Msg("Configuration is invalid")
		os.Exit(1)
	}

	logger := common.InitLogger(config)

	common.InstallCrashHandler(config.Logging.Dir)
	defer common.RecoverWithCrashFile()

	common.PrintBanner(common.GetVersion())
	logger.Info().
		Str("version", common.GetVersion()).
		Str("build", common.GetBuild()).
		Str("commit", common.GetGitCommit()).
		Msg("Foliogen starting")

	logger.Debug().
		Strs("config_files", configFiles).
		Str("tenant_source", config.Tenants.Source).
		Strs("storage", config.Storage.EnabledBackends()).
		Str("log_level", config.Logging.Level).
		Str("log_file", common.GetLogFilePath(logger)).
		Msg("Resolved configuration")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info().Msg("Interrupt signal received, stopping")
		cancel()
	}()

	if *seedFile != "" {
		os.Exit(runSeed(ctx, config, logger, *seedFile))
	}

	mode, err := resolveMode(*demoMode, flag.Args())
	if err != nil {
		logger.Error().Err(err).Msg("Invalid arguments")
		flag.Usage()
		os.Exit(2)
	}

	application, err := app.New(ctx, config, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize application")
		os.Exit(1)
	}
	defer application.Close()

	if config.Schedule.Enabled && mode.Kind == models.RunModeAll {
		if err := application.StartScheduler(ctx); err != nil {
			logger.Error().Err(err).Msg("Failed to start scheduler")
			os.Exit(1)
		}
		logger.Info().Str("cron", config.Schedule.Cron).Msg("Scheduler running - Press Ctrl+C to stop")
		<-ctx.Done()
		return
	}

	summary, err := application.Run(ctx, mode)
	printSummary(summary)
	if err != nil {
		// Deferred Close does not run past os.Exit
		application.Close()
		os.Exit(1)
	}
}

// resolveMode maps -demo and the optional positional tenant id to a run mode.
func resolveMode(demo bool, args []string) (models.RunMode, error) {
	switch {
	case len(args) > 1:
		return models.RunMode{}, fmt.Errorf("expected at most one tenant id, got %d arguments", len(args))
	case demo && len(args) == 1:
		return models.RunMode{}, fmt.Errorf("-demo cannot be combined with a tenant id")
	case demo:
		return models.Demo(), nil
	case len(args) == 1:
		return models.SingleTenant(args[0]), nil
	default:
		return models.AllTenants(), nil
	}
}
