package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/epiwatch/outbreak-extractor/internal/batch"
	"github.com/epiwatch/outbreak-extractor/internal/common"
	"github.com/epiwatch/outbreak-extractor/internal/export"
	"github.com/epiwatch/outbreak-extractor/internal/llm/openai"
	"github.com/epiwatch/outbreak-extractor/internal/standardize"
	"github.com/epiwatch/outbreak-extractor/internal/store"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	// .env is optional; real config comes from the environment and flags.
	_ = godotenv.Load()
	cfg := common.LoadConfig()

	// Parse CLI flags; engine knobs default from the environment config.
	var (
		input         = flag.String("input", "", "input CSV path with detail_url and full_text columns (required)")
		out           = flag.String("out", "output/extracted.xlsx", "output XLSX workbook path")
		timingOut     = flag.String("timing-out", "output/timing.csv", "standalone timing CSV path")
		unmatchedOut  = flag.String("unmatched-out", "output/unmatched.txt", "unmatched-terms output path")
		progressFile  = flag.String("progress-file", "output/progress.csv", "append-only progress log path (empty disables)")
		progressEvery = flag.Int("progress-every", cfg.Batch.ProgressEvery, "report progress every N completed rows")
		workers       = flag.Int("workers", cfg.Batch.Workers, "number of concurrent extraction workers")
		timeout       = flag.Duration("timeout", cfg.LLM.Timeout, "per-call extraction timeout")
		maxChars      = flag.Int("max-chars", cfg.Batch.MaxChars, "input text length cap per row")
		retries       = flag.Int("retries", cfg.Batch.Retries, "additional attempts after the first")
		retryWait     = flag.Duration("retry-wait", cfg.Batch.RetryWait, "wait before each re-attempt")
		backoff       = flag.Float64("backoff", cfg.Batch.Backoff, "retry-wait multiplier per attempt (1.0 = fixed wait)")
		limit         = flag.Int("limit", 0, "process only the first N rows (0 = unbounded)")
		countryDict   = flag.String("country-dict", cfg.Dicts.CountryPath, "country/province dictionary XLSX")
		pathogenDict  = flag.String("pathogen-dict", cfg.Dicts.PathogenPath, "pathogen dictionary XLSX")
		hostDict      = flag.String("host-dict", cfg.Dicts.HostPath, "host dictionary XLSX")
		dbPath        = flag.String("db", "", "optional SQLite results database path")
	)
	flag.Parse()

	if *input == "" {
		printError("Error: --input is required\n")
		os.Exit(1)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Ctrl-C stops dispatching new rows; in-flight calls finish or time out.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load reference dictionaries before spawning any worker; a schema
	// violation here is fatal.
	enricher, err := loadEnricher(*countryDict, *pathogenDict, *hostDict, logger)
	if err != nil {
		logger.Error("failed to load reference dictionaries", "error", err)
		os.Exit(1)
	}

	rows, err := batch.ReadInputCSV(*input, *limit)
	if err != nil {
		logger.Error("failed to read input table", "path", *input, "error", err)
		os.Exit(1)
	}
	logger.Info("input loaded", "path", *input, "rows", len(rows), "limit", *limit)

	client := openai.NewClient(openai.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		TopP:        cfg.LLM.TopP,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     *timeout,
	}, logger)
	logger.Info("llm client initialized", "base_url", cfg.LLM.BaseURL, "model", cfg.LLM.Model)

	tracker, err := batch.NewTracker(len(rows), *workers, *progressEvery, *progressFile, logger)
	if err != nil {
		logger.Error("failed to open progress file", "error", err)
		os.Exit(1)
	}

	scheduler := batch.NewScheduler(client, enricher, logger,
		batch.WithWorkers(*workers),
		batch.WithCallTimeout(*timeout),
		batch.WithMaxChars(*maxChars),
		batch.WithRetryPolicy(*retries, *retryWait, *backoff),
	)

	startedAt := time.Now()
	results, complete := scheduler.Run(ctx, rows, tracker)
	totalSeconds := time.Since(startedAt).Seconds()
	if err := tracker.Close(); err != nil {
		logger.Warn("progress file close error", "error", err)
	}

	summary := batch.Summarize(results, cfg.LLM.Model, *workers, *retries, totalSeconds, complete)

	// Write artifacts.
	exporter := export.NewService(logger)
	workbookErr := exporter.WriteWorkbook(*out, results, summary)
	if workbookErr != nil {
		logger.Error("workbook write failed, writing JSON fallback", "error", workbookErr)
		fallback := strings.TrimSuffix(*out, ".xlsx") + ".json"
		if err := exporter.WriteJSONFallback(fallback, results, summary); err != nil {
			logger.Error("fallback write failed", "error", err)
			os.Exit(1)
		}
	}
	if err := exporter.WriteTimingCSV(*timingOut, results); err != nil {
		logger.Error("timing csv write failed", "error", err)
		os.Exit(1)
	}
	if err := exporter.WriteUnmatched(*unmatchedOut, enricher.Unmatched); err != nil {
		logger.Error("unmatched write failed", "error", err)
		os.Exit(1)
	}

	// Optional embedded results database.
	if *dbPath != "" {
		st, err := store.Open(*dbPath, logger)
		if err != nil {
			logger.Error("failed to open results db", "error", err)
			os.Exit(1)
		}
		runID, err := st.SaveRun(context.Background(), summary, results, startedAt)
		if err != nil {
			logger.Error("failed to persist run", "error", err)
			os.Exit(1)
		}
		if err := st.Close(); err != nil {
			logger.Warn("results db close error", "error", err)
		}
		logger.Info("run persisted", "db", *dbPath, "run_id", runID)
	}

	logger.Info("batch extraction complete",
		"rows_total", summary.RowsTotal,
		"rows_failed", summary.RowsFailed,
		"workers", summary.Workers,
		"total_seconds", summary.TotalSeconds,
		"incomplete", summary.Incomplete,
	)

	fmt.Printf("Batch extraction complete!\n")
	fmt.Printf("- Rows processed: %d\n", summary.RowsTotal)
	fmt.Printf("- Failures: %d\n", summary.RowsFailed)
	if summary.Incomplete {
		fmt.Printf("- Run interrupted: results are partial\n")
	}
	fmt.Printf("- Output: %s\n", *out)
	fmt.Printf("- Timing: %s\n", *timingOut)
}

func loadEnricher(countryPath, pathogenPath, hostPath string, logger *slog.Logger) (*standardize.Enricher, error) {
	start := time.Now()
	countries, err := standardize.LoadCountryIndex(countryPath)
	if err != nil {
		return nil, err
	}
	pathogens, err := standardize.LoadPathogenIndex(pathogenPath)
	if err != nil {
		return nil, err
	}
	hosts, err := standardize.LoadHostIndex(hostPath)
	if err != nil {
		return nil, err
	}
	logger.Info("reference dictionaries loaded",
		"country_dict", countryPath,
		"pathogen_dict", pathogenPath,
		"host_dict", hostPath,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return standardize.NewEnricher(countries, pathogens, hosts), nil
}
