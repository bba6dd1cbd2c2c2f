package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"car-scout/api"
	"car-scout/config"
	"car-scout/llm"
	"car-scout/models"
	"car-scout/scraper"
	"car-scout/scraper/sites"
	"car-scout/services"
	"car-scout/storage"
	"car-scout/utils"
)

const shutdownGrace = 15 * time.Second

func main() {
	configPath := flag.String("config", "", "YAML config file (defaults to $CONFIG_PATH)")
	scenario := flag.String("scenario", "", "run one search for this scenario and exit")
	maxPrice := flag.Int("max-price", 0, "explicit price ceiling for -scenario")
	zip := flag.String("zip", "", "explicit zip code for -scenario")
	csvPath := flag.String("csv", "", "write the ranked results of -scenario to this CSV file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	logger, err := utils.NewLogger(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()
	utils.SetLogger(logger)

	utils.Info("Car scout starting | driver=%s sources=%d top=%d", cfg.Browser.Driver, len(cfg.Sources), cfg.TopN)

	loader, closeLoader, err := newLoader(cfg, logger)
	if err != nil {
		utils.Error("Could not start browser driver: %v", err)
		os.Exit(1)
	}
	defer closeLoader()

	var text scraper.TextExtractor
	if cfg.NeedsLLM() {
		text = llm.NewOpenAIClient(cfg.LLM)
	}

	extractors, err := sites.Build(cfg, loader, text, logger)
	if err != nil {
		utils.Error("Invalid source setup: %v", err)
		os.Exit(1)
	}
	searcher := services.NewSearcher(scraper.NewAggregator(extractors, logger), cfg.TopN, logger)

	if *scenario != "" {
		req := models.SearchRequest{Scenario: *scenario}
		if *maxPrice > 0 {
			req.MaxPrice = maxPrice
		}
		if *zip != "" {
			req.ZipCode = zip
		}
		if err := runOnce(searcher, req, *csvPath, os.Stdout); err != nil {
			utils.Error("Search failed: %v", err)
			os.Exit(1)
		}
		return
	}

	reporter, err := api.NewReporter(cfg.SentryDSN, logger)
	if err != nil {
		utils.Error("Could not set up error reporting: %v", err)
		os.Exit(1)
	}
	defer reporter.Flush(2 * time.Second)

	handler := api.NewRouter(&api.Handler{Searcher: searcher, Reporter: reporter, Logger: logger}, cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := api.Serve(ctx, ":"+cfg.Port, handler, shutdownGrace, logger); err != nil {
		utils.Error("Server stopped: %v", err)
		os.Exit(1)
	}
	utils.Success("Server stopped cleanly")
}

// newLoader starts the configured browser driver. The returned func releases
// whatever the driver holds for the process lifetime.
func newLoader(cfg *config.Config, logger *zap.Logger) (scraper.PageLoader, func(), error) {
	b := cfg.Browser
	if b.Driver == config.DriverPlaywright {
		pl, err := scraper.NewPlaywrightLoader(b.Headless, b.UserAgent, b.ScreenshotDir, logger)
		if err != nil {
			return nil, nil, err
		}
		return pl, func() {
			if err := pl.Close(); err != nil {
				utils.Warn("Playwright driver did not stop cleanly: %v", err)
			}
		}, nil
	}
	return &scraper.ChromeLoader{
		Headless:      b.Headless,
		UserAgent:     b.UserAgent,
		ScreenshotDir: b.ScreenshotDir,
		Logger:        logger,
	}, func() {}, nil
}

type searchRunner interface {
	Search(ctx context.Context, req models.SearchRequest) (models.SearchResponse, error)
}

func runOnce(s searchRunner, req models.SearchRequest, csvPath string, out io.Writer) error {
	resp, err := s.Search(context.Background(), req)
	if err != nil {
		return err
	}

	printSummary(out, resp)
	services.PrintReport(out, services.GenerateReport(resp))

	if csvPath != "" {
		if err := storage.NewCSVWriter(csvPath).Write(resp.Results); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(out io.Writer, resp models.SearchResponse) {
	fmt.Fprintln(out)
	fmt.Fprintln(out, "╔══════════════════════════════════════════════╗")
	fmt.Fprintln(out, "║                SEARCH COMPLETE               ║")
	fmt.Fprintln(out, "╠══════════════════════════════════════════════╣")
	fmt.Fprintf(out, "║  Merged listings : %-26d║\n", resp.Total)
	fmt.Fprintf(out, "║  Top results     : %-26d║\n", len(resp.Results))
	fmt.Fprintln(out, "╚══════════════════════════════════════════════╝")
}
