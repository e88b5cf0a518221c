// Command hybridrag indexes text files and answers queries with hybrid BM25 + embedding
// retrieval, either in an interactive terminal UI or as an HTTP/JSON service.
//
// Usage:
//
//	hybridrag [-config config.yaml] file1.txt [docs/*.md ...]
//	hybridrag -serve [-config config.yaml] [file ...]
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"hybridrag/internal/chunker"
	"hybridrag/internal/config"
	"hybridrag/internal/embedding"
	"hybridrag/internal/embedding/openai"
	"hybridrag/internal/embedding/tfidf"
	"hybridrag/internal/engine"
	"hybridrag/internal/langdetect"
	"hybridrag/internal/logging"
	"hybridrag/internal/metrics"
	"hybridrag/internal/server"
	"hybridrag/internal/service"
	"hybridrag/internal/summarizer"
	"hybridrag/internal/tui"
)

func main() {
	_ = godotenv.Load()

	var cfgPath string
	var serve bool
	flag.StringVar(&cfgPath, "config", "", "Path to YAML config file (optional; uses ~/.config/hybridrag/config.yaml if not provided)")
	flag.BoolVar(&serve, "serve", false, "Run the HTTP API instead of the terminal UI")
	flag.Parse()
	inputs := flag.Args()
	if len(inputs) == 0 && !serve {
		fmt.Println("Usage: hybridrag [--config=config.yaml] [--serve] file1.txt [file2.md ...]")
		os.Exit(1)
	}

	var cfg *config.AppConfig
	var err error
	if cfgPath == "" {
		cfg, _, err = config.LoadDefault()
	} else {
		cfg, err = config.Load(cfgPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logOut, closeLog, err := logOutput(cfg.Log.File, serve)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()
	logger := logging.Setup(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format, Output: logOut})

	if err := run(cfg, inputs, serve, logger); err != nil {
		logger.Error("fatal", "error", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.AppConfig, inputs []string, serve bool, logger *slog.Logger) error {
	semantic, err := buildSemanticIndex(cfg, logger)
	if err != nil {
		return err
	}
	detector := langdetect.New(langdetect.WithMinConfidence(cfg.Language.MinConfidence))
	eng, err := engine.New(
		engine.WithSemanticIndex(semantic),
		engine.WithDetector(detector),
		engine.WithLogger(logger),
	)
	if err != nil {
		return fmt.Errorf("engine init failed: %w", err)
	}
	splitter, err := chunker.New(cfg.Chunker.Type, cfg.Chunker.SentencesPerChunk, cfg.Chunker.OverlapSentences)
	if err != nil {
		return err
	}

	var m *metrics.Metrics
	if serve {
		m = metrics.New()
	}
	svc := service.New(eng,
		service.WithSplitter(splitter),
		service.WithSummarizer(summarizer.NewFrequencySummarizer(), cfg.Summarizer.MaxSentences),
		service.WithDetector(detector),
		service.WithTopK(cfg.Retrieval.DefaultTopK, cfg.Retrieval.MaxTopK),
		service.WithMetrics(m),
		service.WithLogger(logger),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var summary string
	if len(inputs) > 0 {
		report, err := svc.IngestFiles(ctx, inputs)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		summary = report.Summary
	}

	if serve {
		cors := server.DefaultCORSConfig()
		cors.AllowOrigins = cfg.Server.AllowOrigins
		srv := server.New(server.Config{Addr: cfg.Server.Addr, CORS: cors}, svc, m, logger)
		return srv.Run(ctx)
	}

	_, err = tea.NewProgram(tui.New(svc, summary, cfg.Retrieval.DefaultTopK), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

// buildSemanticIndex assembles the configured encoder behind a cache, or the disabled index.
func buildSemanticIndex(cfg *config.AppConfig, logger *slog.Logger) (embedding.Index, error) {
	var enc embedding.Encoder
	switch cfg.Encoder.Type {
	case config.EncoderNone:
		return embedding.Disabled(), nil
	case config.EncoderTFIDF:
		enc = tfidf.NewEncoder()
	case config.EncoderOpenAI:
		o := cfg.Encoder.OpenAI
		client, err := openai.NewClient(openai.Config{
			BaseURL:     o.BaseURL,
			APIKeyEnv:   o.APIKeyEnv,
			Model:       o.Model,
			Timeout:     time.Duration(o.TimeoutSecs) * time.Second,
			MaxRetries:  o.MaxRetries,
			Concurrency: o.Concurrency,
			RetryDelay:  time.Duration(o.RetryDelayMsec) * time.Millisecond,
			Logger:      logger,
		})
		if err != nil {
			return nil, fmt.Errorf("openai encoder init failed: %w", err)
		}
		enc = client
	default:
		return nil, fmt.Errorf("unknown encoder: %s", cfg.Encoder.Type)
	}
	cached := embedding.NewCachedEncoder(enc, cfg.Encoder.CacheSize)
	return embedding.NewDense(cached, embedding.WithLogger(logger)), nil
}

// logOutput picks the log destination. The TUI owns the terminal, so without a log file
// its logs are discarded.
func logOutput(path string, serve bool) (io.Writer, func(), error) {
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, err
		}
		return f, func() { _ = f.Close() }, nil
	}
	if serve {
		return os.Stderr, func() {}, nil
	}
	return io.Discard, func() {}, nil
}
