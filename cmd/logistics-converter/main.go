// Command logistics-converter downloads every page of the logistics listing,
// derives DurationMinutes and DistanceMeters and writes the result as CSV.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Sternrassler/logistics-converter/internal/config"
	"github.com/Sternrassler/logistics-converter/pkg/client"
	"github.com/Sternrassler/logistics-converter/pkg/converter"
	"github.com/Sternrassler/logistics-converter/pkg/logging"
	"github.com/Sternrassler/logistics-converter/pkg/metrics"
	"github.com/Sternrassler/logistics-converter/pkg/output"
	"github.com/Sternrassler/logistics-converter/pkg/pagination"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

// flags holds command line overrides. A flag only wins over the
// environment when it was set explicitly.
type flags struct {
	envFile     string
	url         string
	token       string
	output      string
	logLevel    string
	pretty      bool
	timeout     int
	redisURL    string
	pushgateway string
	maxPages    int
}

func main() {
	if err := executeRoot(newRootCmd()); err != nil {
		os.Exit(1)
	}
}

// executeRoot runs cmd and reports any error, including flag and argument
// errors raised by cobra before RunE, on the command's stderr.
func executeRoot(cmd *cobra.Command) error {
	err := cmd.Execute()
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "logistics-converter",
		Short: "Convert the paginated logistics listing into a CSV table.",
		Long: `Fetches every page of the logistics listing, converts the free-text
DurationText and DistanceText fields into integer minutes and meters and
writes all records, with the two derived columns, to a CSV file.

Settings come from the environment (and an optional .env file); flags
override them.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(f.envFile)
			if err != nil {
				return err
			}
			f.apply(cmd, cfg)

			logging.Setup(logging.Config{
				Level:  logging.LogLevel(cfg.LogLevel),
				Pretty: cfg.LogPretty,
				Output: cmd.ErrOrStderr(),
			})
			logger := logging.NewLogger("cli")

			if err := cfg.Validate(); err != nil {
				logger.Error().Err(err).Msg("Configuration error")
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := run(ctx, cfg)
			if err != nil {
				logger.Error().Err(err).Msg("Conversion failed")
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%d row(s) saved to %s\n", res.Rows, res.Output)
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.envFile, "env-file", ".env", "Optional .env file with settings")
	fs.StringVar(&f.url, "url", config.DefaultURL, "First page of the logistics listing (LOGISTICS_URL)")
	fs.StringVar(&f.token, "token", "", "API token sent as 'Authorization: Token <token>' (LOGISTICS_TOKEN)")
	fs.StringVarP(&f.output, "output", "o", config.DefaultOutput, "CSV output file (OUTPUT_FILE)")
	fs.StringVar(&f.logLevel, "log-level", config.DefaultLogLevel, "Log level: debug, info, warn, error (LOG_LEVEL)")
	fs.BoolVar(&f.pretty, "pretty", false, "Human-readable console logs (LOG_PRETTY)")
	fs.IntVar(&f.timeout, "timeout", config.DefaultTimeoutSecs, "Per-request timeout in seconds, 0 disables (HTTP_TIMEOUT_SECONDS)")
	fs.StringVar(&f.redisURL, "redis-url", "", "Redis URL for the page cache, e.g. redis://localhost:6379/0 (REDIS_URL)")
	fs.StringVar(&f.pushgateway, "pushgateway", "", "Prometheus Pushgateway URL for run metrics (PUSHGATEWAY_URL)")
	fs.IntVar(&f.maxPages, "max-pages", 0, "Stop with an error after this many pages, 0 means unlimited (MAX_PAGES)")

	return cmd
}

// apply copies explicitly set flags over the loaded configuration.
func (f *flags) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed
	if changed("url") {
		cfg.URL = f.url
	}
	if changed("token") {
		cfg.Token = f.token
	}
	if changed("output") {
		cfg.Output = f.output
	}
	if changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	if changed("pretty") {
		cfg.LogPretty = f.pretty
	}
	if changed("timeout") {
		cfg.HTTPTimeout = time.Duration(f.timeout) * time.Second
	}
	if changed("redis-url") {
		cfg.RedisURL = f.redisURL
	}
	if changed("pushgateway") {
		cfg.PushgatewayURL = f.pushgateway
	}
	if changed("max-pages") {
		cfg.MaxPages = f.maxPages
	}
}

// run wires the client, the optional page cache and the CSV sink and
// performs one conversion.
func run(ctx context.Context, cfg *config.Config) (converter.Result, error) {
	logger := logging.NewLogger("cli")

	clientCfg := client.DefaultConfig(cfg.Token)
	clientCfg.UserAgent = cfg.UserAgent
	clientCfg.Timeout = cfg.HTTPTimeout

	if cfg.RedisURL != "" {
		rdb, err := connectRedis(ctx, cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("Page cache disabled")
		} else {
			defer rdb.Close()
			clientCfg.Redis = rdb
			logger.Info().Str("redis", rdb.Options().Addr).Msg("Page cache enabled")
		}
	}

	apiClient, err := client.New(clientCfg)
	if err != nil {
		return converter.Result{}, fmt.Errorf("create client: %w", err)
	}
	defer apiClient.Close()

	conv, err := converter.New(apiClient, output.NewCSVSink(cfg.Output), converter.Config{
		StartURL:   cfg.URL,
		Pagination: pagination.Config{MaxPages: cfg.MaxPages},
	})
	if err != nil {
		return converter.Result{}, err
	}

	res, runErr := conv.Run(ctx)

	if cfg.PushgatewayURL != "" {
		pushCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := metrics.Push(pushCtx, cfg.PushgatewayURL, metrics.DefaultJob); err != nil {
			logger.Warn().Err(err).Msg("Metrics push failed")
		}
		cancel()
	}

	return res, runErr
}

func connectRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("connect to redis at %s: %w", opts.Addr, err)
	}
	return rdb, nil
}
