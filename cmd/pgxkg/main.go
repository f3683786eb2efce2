// Command pgxkg is the thin CLI wrapper of spec.md §6.2: it drives a single-
// or multi-gene knowledge graph run and prints the resulting JSON-LD
// document to stdout. Argument parsing itself is a documented Non-goal, so
// this stays close to the stdlib `flag` package rather than pulling in a
// CLI framework.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/ugent-pgx/knowledge-graph/internal/config"
	"github.com/ugent-pgx/knowledge-graph/internal/domain"
	"github.com/ugent-pgx/knowledge-graph/internal/eventbus"
	"github.com/ugent-pgx/knowledge-graph/internal/orchestrator"
	"github.com/ugent-pgx/knowledge-graph/internal/phases"
	"github.com/ugent-pgx/knowledge-graph/pkg/client"
	"github.com/ugent-pgx/knowledge-graph/pkg/resolver"
)

// geneList collects one or more `--genes` values; flag.Var treats
// repeated/comma-separated occurrences as one growing set, the closest
// stdlib `flag` equivalent of argparse's `nargs="+"`.
type geneList []string

func (g *geneList) String() string { return strings.Join(*g, ",") }

func (g *geneList) Set(value string) error {
	for _, part := range strings.Split(value, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			*g = append(*g, part)
		}
	}
	return nil
}

func main() {
	os.Exit(run())
}

func run() int {
	var (
		gene       string
		genes      geneList
		proteinID  string
		configFile string
	)
	flag.StringVar(&gene, "gene", "", "single gene symbol (e.g., CYP2D6, CYP2C19)")
	flag.Var(&genes, "genes", "comma-separated gene symbols for a multi-gene run (e.g., --genes CYP2D6,CYP2C19,CYP3A4)")
	flag.StringVar(&proteinID, "protein", "", "UniProt protein ID override (single-gene mode only)")
	flag.StringVar(&configFile, "config", "", "path to configuration file (default: search config.yaml)")
	flag.Parse()

	if gene == "" && len(genes) == 0 {
		fmt.Fprintln(os.Stderr, "must specify either --gene or --genes")
		return 1
	}
	if gene != "" && len(genes) > 0 {
		fmt.Fprintln(os.Stderr, "cannot specify both --gene and --genes")
		return 1
	}

	cfgManager, err := config.NewManagerWithConfigFile(configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		return 1
	}
	if err := cfgManager.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", err)
		return 1
	}
	cfg := cfgManager.GetConfig()

	log := newLogger(cfg.Logging)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Info("shutdown signal received, cancelling run")
		cancel()
	}()

	c := client.New(cfg.ExternalAPI, log)
	rdb := newRedisClient(cfg.Cache, log)
	if rdb != nil {
		defer rdb.Close()
	}
	r := resolver.New(c, rdb, log, cfg.Orchestrator.BioPortalAPIKey, cfg.Cache.LocalSize)
	bus := eventbus.New(cfg.Orchestrator.EventQueueSize)
	go logEvents(bus, log)

	orch := orchestrator.New(c, r, bus, cfg.Orchestrator.MaxWorkers, log)

	if gene != "" {
		return runSingleGene(ctx, orch, gene, proteinID, bus, log)
	}
	return runMultiGene(ctx, orch, genes, log)
}

func runSingleGene(ctx context.Context, orch *orchestrator.Orchestrator, gene, proteinID string, bus *eventbus.Bus, log *logrus.Logger) int {
	result := orch.Run(ctx, gene, proteinID)
	if !result.Success {
		fmt.Fprintf(os.Stderr, "gene %s failed: %v\n", gene, result.Err)
		return 1
	}

	doc := phases.ExportGeneGraph(gene, result.Graph, bus)
	return printJSON(doc, log)
}

func runMultiGene(ctx context.Context, orch *orchestrator.Orchestrator, genes []string, log *logrus.Logger) int {
	doc, results := orch.RunMulti(ctx, genes, domain.Patient{})

	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		} else {
			fmt.Fprintf(os.Stderr, "gene %s failed: %v\n", r.Gene, r.Err)
		}
	}
	if succeeded == 0 {
		fmt.Fprintln(os.Stderr, "all genes failed")
		return 1
	}

	return printJSON(doc, log)
}

func printJSON(v any, log *logrus.Logger) int {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		log.WithError(err).Error("failed to encode result")
		fmt.Fprintf(os.Stderr, "failed to encode result: %v\n", err)
		return 1
	}
	fmt.Println(string(out))
	return 0
}

// newLogger mirrors the teacher's level/format selection (structured JSON
// in production, human-readable text otherwise).
func newLogger(cfg domain.LoggingConfig) *logrus.Logger {
	log := logrus.New()
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	if cfg.Format == "json" {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	log.SetOutput(os.Stderr)
	return log
}

// newRedisClient builds the resolver's optional second cache tier; a run
// with no configured Redis URL falls back to the in-process LRU tier alone.
func newRedisClient(cfg domain.CacheConfig, log *logrus.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.WithError(err).Warn("invalid redis_url, continuing without the shared cache tier")
		return nil
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MaxRetries > 0 {
		opts.MaxRetries = cfg.MaxRetries
	}
	if cfg.PoolTimeout > 0 {
		opts.PoolTimeout = cfg.PoolTimeout
	}
	return redis.NewClient(opts)
}

// logEvents drains the advisory progress bus onto the structured logger
// until it is closed; this is the CLI's only consumer (no dashboard UI).
func logEvents(bus *eventbus.Bus, log *logrus.Logger) {
	for event := range bus.Events() {
		entry := log.WithFields(logrus.Fields{
			"stage":    event.Stage,
			"substage": event.Substage,
		})
		switch event.Level {
		case eventbus.LevelWarn:
			entry.Warn(event.Message)
		case eventbus.LevelError:
			entry.Error(event.Message)
		default:
			entry.Info(event.Message)
		}
	}
}
