package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"strings"
	"sync/atomic"
	"syscall"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/logrelay/logrelay/internal/cliconfig"
	"github.com/logrelay/logrelay/internal/feed"
	"github.com/logrelay/logrelay/pkg/log"
	"github.com/logrelay/logrelay/pkg/relay"
)

const longHelp = `
Relay newline-delimited log records to a set of collector agents.

Records are read from stdin (or --source), optionally grouped into
fixed-size batches, and sent over RPC to the first reachable agent.
A failing agent is retried a bounded number of times, then the
remaining agents are tried in the configured order.
`

var exampleUsage = strings.TrimSpace(`
  tail -F /var/log/app.log | logrelay --agents collector1:4141,collector2:4141
  logrelay --source events.log --agents collector1:4141 --batch-size 50
`)

func getVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" {
		return info.Main.Version
	}
	return "dev"
}

func main() {
	cfg := cliconfig.DefaultConfig()
	var (
		cfgPath     string
		headerPairs []string
	)

	root := &cobra.Command{
		Use:     "logrelay",
		Short:   "Relay log records to collector agents with batching and failover",
		Long:    strings.TrimSpace(longHelp),
		Example: exampleUsage,
		Version: getVersion(),
		RunE: func(cmd *cobra.Command, args []string) error {
			// Load config file first (default ~/.logrelay/config.toml),
			// then env, then flag overrides.
			cfgFile := cfgPath
			if cfgFile == "" {
				cfgFile = cliconfig.DefaultConfigPath()
			}

			changed := map[string]bool{}
			cmd.Flags().Visit(func(f *pflag.Flag) { changed[f.Name] = true })

			flagHeaders, err := cliconfig.ParseHeaders(headerPairs)
			if err != nil {
				return err
			}
			cfg.Headers = flagHeaders

			if cfgFile != "" && cliconfig.FileExists(cfgFile) {
				fc, err := cliconfig.LoadFileConfig(cfgFile)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				if err := cliconfig.ApplyFileConfig(&cfg, fc, changed); err != nil {
					return err
				}
			}
			if err := cliconfig.ApplyEnvConfig(&cfg, changed); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			return run(cmd.Context(), cfg, cfgFile, changed)
		},
	}

	root.Flags().StringVar(&cfgPath, "config", "", "path to config file (default: $HOME/.logrelay/config.toml)")
	root.Flags().StringSliceVar(&cfg.Agents, "agents", nil, "ordered collector endpoints (host:port)")
	root.Flags().StringVar(&cfg.Source, "source", "", "file to read records from (default: stdin)")
	root.Flags().StringArrayVar(&headerPairs, "header", nil, "extra record header (key=value, repeatable)")
	root.Flags().IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "events per batch (1 disables batching)")
	root.Flags().DurationVar(&cfg.Delay, "delay", cfg.Delay, "pause between retry attempts")
	root.Flags().IntVar(&cfg.Retries, "retries", cfg.Retries, "attempts per agent before failover")
	root.Flags().DurationVar(&cfg.DialTimeout, "dial-timeout", cfg.DialTimeout, "connection timeout per agent")
	root.Flags().BoolVar(&cfg.Debug, "debug", cfg.Debug, "log every delivered record")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := root.ExecuteContext(ctx); err != nil {
		log.NewConsoleLogger().Error("logrelay", log.Err(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg cliconfig.Config, cfgFile string, changed map[string]bool) error {
	logger := log.NewConsoleLogger()

	agents, err := cfg.ParsedAgents()
	if err != nil {
		return err
	}

	mgr, err := relay.New(relay.Config{
		Agents:      agents,
		BatchSize:   cfg.BatchSize,
		Delay:       cfg.Delay,
		Retries:     cfg.Retries,
		DialTimeout: cfg.DialTimeout,
	}, relay.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("create manager: %w", err)
	}
	defer mgr.Release()

	logger.Info("relaying records",
		log.String("manager", mgr.Name()),
		log.Int("batch_size", mgr.BatchSize()))

	// Delivery tunables may be updated at runtime by the config watcher;
	// flags that were set explicitly keep precedence.
	var tunables atomic.Pointer[cliconfig.Tunables]
	tunables.Store(&cliconfig.Tunables{Delay: cfg.Delay, Retries: cfg.Retries})

	if cfgFile != "" && cliconfig.FileExists(cfgFile) && !changed["delay"] && !changed["retries"] {
		watcher := cliconfig.NewWatcher(cfgFile, logger, func(tun cliconfig.Tunables) {
			if tun.Delay <= 0 {
				tun.Delay = cfg.Delay
			}
			if tun.Retries <= 0 {
				tun.Retries = cfg.Retries
			}
			tunables.Store(&tun)
		})
		go watcher.Run(ctx)
	}

	src, sourceName, err := feed.Open(cfg.Source)
	if err != nil {
		return fmt.Errorf("open source: %w", err)
	}
	defer src.Close()

	headers := recordHeaders(cfg.Headers, sourceName)

	delivered := 0
	err = feed.Lines(ctx, src, func(line []byte) error {
		tun := tunables.Load()
		rec := relay.Record{Body: line, Headers: headers}
		if err := mgr.Deliver(ctx, rec, tun.Delay, tun.Retries); err != nil {
			return err
		}
		delivered++
		if cfg.Debug {
			logger.Debug("delivered", log.Int("bytes", len(line)))
		}
		return nil
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	if pending := mgr.Pending(); pending > 0 {
		logger.Warn("records left in a partial batch were not sent",
			log.Int("pending", pending))
	}
	logger.Info("done", log.Int("delivered", delivered))
	return nil
}

// recordHeaders builds the header set stamped on every record: the user's
// headers plus hostname, source, and a per-run session id.
func recordHeaders(user map[string]string, sourceName string) map[string]string {
	headers := make(map[string]string, len(user)+3)
	for k, v := range user {
		headers[k] = v
	}
	if h, err := os.Hostname(); err == nil {
		headers["relay_host"] = h
	}
	headers["relay_source"] = sourceName
	headers["relay_session"] = uuid.NewString()
	return headers
}
