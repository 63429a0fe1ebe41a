package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/tournevent/orderquote/internal/quoting"
	"github.com/tournevent/orderquote/internal/server"
	"github.com/tournevent/orderquote/internal/telemetry"
	"go.uber.org/zap"
)

var version = "0.0.1"

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "orderquote",
	Short:   "Order shipping quotes - UPS, USPS and FEDEX pricing service",
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

var ratesCmd = &cobra.Command{
	Use:   "rates",
	Short: "Print the configured carrier rate table",
	RunE:  runRates,
}

func init() {
	rootCmd.AddCommand(serveCmd, ratesCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, err := initLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	tracerShutdown, err := initTracer(ctx, cfg)
	if err != nil {
		logger.Warn("Failed to initialize tracer", zap.Error(err))
	} else {
		defer func() { _ = tracerShutdown(context.Background()) }()
	}

	st, err := initStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			logger.Warn("Failed to close store", zap.Error(err))
		}
	}()

	publisher := initPublisher(cfg)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("Failed to close event publisher", zap.Error(err))
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	svc := quoting.New(quoting.Config{
		Rates:         cfg.RateTable(),
		MaxItemWeight: cfg.MaxItemWeight,
	}, st, publisher, logger, telemetry.NewMetrics(reg))

	logger.Info("Starting order quote service",
		zap.Int("port", cfg.Port),
		zap.String("version", cfg.Version),
		zap.String("store", cfg.StoreDriver),
		zap.Strings("kafka_brokers", cfg.KafkaBrokers),
	)

	srv := server.New(server.Config{Port: cfg.Port}, svc, reg, logger)
	if err := srv.Run(ctx); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

func runRates(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	rates := cfg.RateTable()
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CARRIER\tBASE (cents)\tPER GRAM (cents)")
	for _, code := range rates.Codes() {
		r := rates[code]
		fmt.Fprintf(tw, "%s\t%s\t%s\n", code, r.Base, r.PerGram)
	}
	return tw.Flush()
}
