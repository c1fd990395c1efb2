package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/rxtech-lab/argo-signals/internal/analysis"
	"github.com/rxtech-lab/argo-signals/internal/config"
	"github.com/rxtech-lab/argo-signals/internal/logger"
	"github.com/rxtech-lab/argo-signals/internal/server"
	"github.com/rxtech-lab/argo-signals/internal/version"
	"github.com/rxtech-lab/argo-signals/pkg/marketdata"
	"github.com/urfave/cli/v3"
	"golang.org/x/sync/errgroup"
)

func configFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the YAML configuration `FILE`",
		},
		&cli.StringFlag{
			Name:  "env-file",
			Usage: "Path to a .env file",
			Value: ".env",
		},
	}
}

// loadConfig reads the configuration and builds the logger it asks for.
func loadConfig(cmd *cli.Command) (config.Config, *logger.Logger, error) {
	cfg, err := config.Load(cmd.String("config"), cmd.String("env-file"))
	if err != nil {
		return config.Config{}, nil, err
	}

	log, err := logger.NewLoggerWithLevel(cfg.LogLevel)
	if err != nil {
		return config.Config{}, nil, fmt.Errorf("failed to create logger: %w", err)
	}

	return cfg, log, nil
}

func analyzeAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	sourceConfig := cfg.SourceConfig()
	if file := cmd.String("file"); file != "" {
		sourceConfig = marketdata.SourceConfig{
			Type:      marketdata.SourceFile,
			FilePath:  file,
			MinCloses: cfg.MinSamples,
		}
	}

	source, err := marketdata.NewSource(sourceConfig)
	if err != nil {
		return err
	}

	analyzer, err := analysis.NewAnalyzer(source, nil, nil, log)
	if err != nil {
		return err
	}

	result, err := analyzer.Analyze(ctx, cmd.String("symbol"), marketdata.Interval(cmd.String("interval")))
	if err != nil {
		return err
	}

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	return encoder.Encode(result)
}

func watchAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	return a.watch(ctx)
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.Close()

	srv := server.NewServer(a.analyzer, log,
		server.WithHistory(a.journal),
		server.WithForwarder(a.relay),
		server.WithHub(a.hub),
		server.WithMetrics(a.metrics))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.ListenAndServe(gctx, cfg.Listen)
	})

	if cmd.Bool("watch") {
		g.Go(func() error {
			return a.watch(gctx)
		})
	}

	return g.Wait()
}

func schemaAction(_ context.Context, _ *cli.Command) error {
	schema, err := config.Schema()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func versionAction(_ context.Context, _ *cli.Command) error {
	fmt.Println(version.GetVersion())

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:    "argo-signals",
		Usage:   "Compute technical indicators and buy/sell signals from Binance klines",
		Version: version.GetVersion(),
		Commands: []*cli.Command{
			{
				Name:  "analyze",
				Usage: "Analyze one symbol and print the result as JSON",
				Flags: append(configFlags(),
					&cli.StringFlag{
						Name:     "symbol",
						Aliases:  []string{"s"},
						Usage:    "Binance symbol, e.g. BTCUSDT",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "interval",
						Aliases: []string{"i"},
						Usage:   "Kline interval",
						Value:   string(marketdata.IntervalOneHour),
					},
					&cli.StringFlag{
						Name:    "file",
						Aliases: []string{"f"},
						Usage:   "Read klines from a JSON `FILE` instead of Binance",
					},
				),
				Action: analyzeAction,
			},
			{
				Name:   "watch",
				Usage:  "Poll the configured targets and relay new signals",
				Flags:  configFlags(),
				Action: watchAction,
			},
			{
				Name:  "serve",
				Usage: "Run the HTTP API",
				Flags: append(configFlags(),
					&cli.BoolFlag{
						Name:  "watch",
						Usage: "Also poll the configured targets and stream the results",
					},
				),
				Action: serveAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the configuration file",
				Action: schemaAction,
			},
			{
				Name:   "version",
				Usage:  "Print the version",
				Action: versionAction,
			},
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}
