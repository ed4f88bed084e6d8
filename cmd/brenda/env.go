package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/coolbeans/brenda/pkg/brenda"
	"github.com/coolbeans/brenda/pkg/config"
	"github.com/coolbeans/brenda/pkg/dump"
	"github.com/coolbeans/brenda/pkg/library"
	"github.com/coolbeans/brenda/pkg/taxon"
)

// environment is the configuration, logger, metrics and parser shared by a
// single command invocation.
type environment struct {
	cfg      *config.Config
	logger   *log.Logger
	registry *prometheus.Registry
	memo     *taxon.Memo
	parser   *brenda.Parser
}

func newEnvironment(cmd *cobra.Command) (*environment, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := applyFlags(cmd, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		Level:           cfg.Level(),
		Prefix:          "brenda",
		ReportTimestamp: true,
	})

	registry := prometheus.NewRegistry()
	metrics, err := brenda.NewMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	env := &environment{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		memo:     taxon.NewMemo(lazyNames(cfg.Taxonomy.Names, logger)),
	}

	if cfg.Taxonomy.Cache != "" {
		loaded, err := env.memo.Load(cfg.Taxonomy.Cache)
		if err != nil {
			logger.Warn("ignoring taxonomy cache", "path", cfg.Taxonomy.Cache, "err", err)
		} else if loaded {
			logger.Debug("loaded taxonomy cache", "path", cfg.Taxonomy.Cache, "names", env.memo.Len())
		}
	}

	env.parser = brenda.NewParser(
		brenda.WithResolver(env.memo),
		brenda.WithLogger(logger),
		brenda.WithMetrics(metrics),
	)
	return env, nil
}

// applyFlags overrides config values with flags set on the command line.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	stringFlags := map[string]*string{
		"input":          &cfg.Input,
		"library":        &cfg.Library,
		"jsonl":          &cfg.JSONLines,
		"taxonomy":       &cfg.Taxonomy.Names,
		"taxonomy-cache": &cfg.Taxonomy.Cache,
		"log-level":      &cfg.LogLevel,
		"metrics-file":   &cfg.MetricsFile,
	}
	for name, target := range stringFlags {
		if flag := cmd.Flags().Lookup(name); flag != nil && flag.Changed {
			*target = flag.Value.String()
		}
	}

	if flag := cmd.Flags().Lookup("workers"); flag != nil && flag.Changed {
		workers, err := strconv.Atoi(flag.Value.String())
		if err != nil {
			return fmt.Errorf("invalid --workers: %w", err)
		}
		cfg.Workers = workers
	}
	return nil
}

// lazyNames defers loading names.dmp until a name misses the cache.
func lazyNames(path string, logger *log.Logger) taxon.Resolver {
	if path == "" {
		return taxon.None{}
	}

	var (
		once  sync.Once
		index taxon.Resolver = taxon.None{}
	)
	return taxon.Func(func(name string) (int, bool) {
		once.Do(func() {
			logger.Info("loading taxonomy names", "path", path)
			names, err := taxon.LoadNames(path)
			if err != nil {
				logger.Error("taxonomy names unavailable; organisms stay unresolved", "err", err)
				return
			}
			logger.Info("loaded taxonomy names", "names", names.Len())
			index = names
		})
		return index.Resolve(name)
	})
}

func (env *environment) parse(ctx context.Context) (*brenda.Collection, error) {
	input, err := dump.Open(env.cfg.Input)
	if err != nil {
		return nil, err
	}
	defer input.Close()

	var records *brenda.Collection
	if env.cfg.Workers > 1 {
		records, err = env.parser.ParseParallel(ctx, input, env.cfg.Workers)
	} else {
		records, err = env.parser.Parse(ctx, input)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", env.cfg.Input, err)
	}
	return records, nil
}

func (env *environment) store(ctx context.Context, records []*brenda.Record) error {
	var sinks []library.Sink
	var names []string

	if env.cfg.Library != "" {
		lib, err := library.OpenOrInit(env.cfg.Library, env.cfg.Input)
		if err != nil {
			return err
		}
		sinks = append(sinks, lib)
		names = append(names, env.cfg.Library)
	}

	if env.cfg.JSONLines != "" {
		file, err := os.Create(env.cfg.JSONLines)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", env.cfg.JSONLines, err)
		}
		defer file.Close()
		sinks = append(sinks, library.NewJSONLines(file))
		names = append(names, env.cfg.JSONLines)
	}

	for i, sink := range sinks {
		result, err := sink.Store(ctx, records)
		if err != nil {
			return fmt.Errorf("failed to store records in %s: %w", names[i], err)
		}
		fmt.Printf("  Stored in %s: %d added, %d updated, %d unchanged (run %s)\n",
			names[i], result.Added, result.Updated, result.Unchanged, result.RunID)
	}
	return nil
}

// finish saves the taxonomy cache and metrics. Failures are logged.
func (env *environment) finish() {
	if env.cfg.Taxonomy.Cache != "" && env.memo.Len() > 0 {
		if err := env.memo.Save(env.cfg.Taxonomy.Cache, env.cfg.Taxonomy.CacheTTL); err != nil {
			env.logger.Warn("failed to save taxonomy cache", "err", err)
		}
	}
	if env.cfg.MetricsFile != "" {
		if err := prometheus.WriteToTextfile(env.cfg.MetricsFile, env.registry); err != nil {
			env.logger.Warn("failed to write metrics", "path", env.cfg.MetricsFile, "err", err)
		}
	}
}
