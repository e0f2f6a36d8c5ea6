package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	ossignal "os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"ticksim-go/internal/config"
	"ticksim-go/internal/feed"
	"ticksim-go/internal/metrics"
	"ticksim-go/internal/record"
	"ticksim-go/internal/sim"
	"ticksim-go/internal/util"
)

func main() {
	_ = godotenv.Load() // best-effort

	configPath := flag.String("config", getEnv("TICKSIM_CONFIG", "internal/config/config.yaml"), "path to YAML config")
	flag.Parse()

	log := util.NewLogger("info")

	cfg, err := config.Load(*configPath)
	if errors.Is(err, os.ErrNotExist) {
		log.Warn().Str("path", *configPath).Msg("config not found, running with defaults")
		cfg = config.Default()
		err = nil
	}
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	log = util.NewLogger(cfg.App.LogLevel)

	_ = metrics.Serve(cfg.App.MetricsAddr)
	log.Info().Str("addr", cfg.App.MetricsAddr).Msg("metrics up")

	ctx, cancel := ossignal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	engine, err := sim.New(sim.Params{
		Symbols:       cfg.Simulation.Symbols,
		DurationSecs:  cfg.Simulation.DurationSecs,
		TickRate:      cfg.Simulation.TickRate,
		Seed:          cfg.Simulation.Seed,
		Model:         feed.ParseModel(cfg.Simulation.Model),
		InitialPrice:  cfg.Simulation.InitialPrice,
		Volatility:    cfg.Simulation.Volatility,
		Drift:         cfg.Simulation.Drift,
		MeanReversion: cfg.Simulation.MeanReversion,
		StatsWindow:   cfg.Simulation.StatsWindow,
		PairWindow:    cfg.Simulation.PairWindow,
		CorrSamples:   cfg.Simulation.CorrSamples,
		Detector:      cfg.Signals,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("configure simulation")
	}

	res := engine.Run(ctx)
	printResults(res)

	if path := cfg.Output.SignalsCSV; path != "" {
		if err := record.WriteSignalsCSV(path, res.Signals); err != nil {
			log.Error().Err(err).Msg("export signals csv")
		} else {
			log.Info().Str("path", path).Int("signals", len(res.Signals)).Msg("signals exported")
		}
	}
	if path := cfg.Output.HistogramCSV; path != "" {
		if err := record.WriteHistogramCSV(path, res.Histogram); err != nil {
			log.Error().Err(err).Msg("export latency histogram csv")
		} else {
			log.Info().Str("path", path).Msg("latency histogram exported")
		}
	}
	if path := cfg.Output.SignalsJSONL; path != "" {
		if err := journalSignals(path, res); err != nil {
			log.Error().Err(err).Msg("journal signals")
		} else {
			log.Info().Str("path", path).Msg("signal journal appended")
		}
	}

	if !res.Completed {
		os.Exit(1)
	}
}

func journalSignals(path string, res *sim.Result) error {
	recorder, err := record.NewJSONLRecorder(path)
	if err != nil {
		return err
	}
	for _, sig := range res.Signals {
		recorder.Record(sig)
	}
	return recorder.Close()
}

func printResults(res *sim.Result) {
	fmt.Println()
	fmt.Println("==================== FINAL RESULTS ====================")
	fmt.Printf("Run ID:                %s\n", res.RunID)
	fmt.Printf("Total ticks processed: %d\n", res.Metrics.TotalTicks)
	fmt.Printf("Total signals:         %d\n", res.Metrics.TotalSignals)
	fmt.Printf("Elapsed:               %s\n", res.Metrics.Elapsed)
	fmt.Printf("Average rate:          %.0f ticks/sec\n", res.Metrics.AvgRate)
	fmt.Printf("Latency avg:           %.1f us\n", res.Metrics.AvgLatencyUS)
	fmt.Printf("Latency p95:           %d us\n", res.Metrics.P95LatencyUS)
	fmt.Printf("Latency p99:           %d us\n", res.Metrics.P99LatencyUS)
	fmt.Println("=======================================================")
	fmt.Println()
	res.Histogram.Fprint(os.Stdout)
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
