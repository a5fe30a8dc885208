package main

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"nuvem/internal/config"
	"nuvem/internal/extraction"
	"nuvem/internal/form"
	"nuvem/internal/handlers"
	"nuvem/internal/keywords"
	"nuvem/internal/logging"
	"nuvem/internal/wordcloud"
)

//go:embed static/*
var embeddedStatic embed.FS

type options struct {
	configPath string
	envFile    string
	addr       string
	logLevel   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:          "nuvem",
		Short:        "Word-cloud generator with streamed keyword extraction",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(opts)
			if err != nil {
				return err
			}
			logger, err := logging.New(cfg.LogLevel, cfg.Development)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return run(ctx, cfg, logger)
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")
	cmd.Flags().StringVar(&opts.envFile, "env-file", ".env", "path to a .env file (ignored when missing)")
	cmd.Flags().StringVar(&opts.addr, "addr", "", "listen address, overrides PORT")
	cmd.Flags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error)")
	return cmd
}

func loadConfig(opts options) (config.Config, error) {
	cfg, err := config.Load(opts.configPath, opts.envFile)
	if err != nil {
		return cfg, err
	}
	if opts.addr != "" {
		cfg.Addr = opts.addr
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newExtractor(ctx context.Context, cfg config.Config, logger *zap.Logger) (keywords.Extractor, error) {
	openai := keywords.NewOpenAIClient(keywords.OpenAIConfig{
		APIKey:  cfg.OpenAIAPIKey,
		BaseURL: cfg.OpenAIBaseURL,
		Logger:  logger,
	})
	gemini, err := keywords.NewGeminiClient(ctx, keywords.GeminiConfig{
		APIKey: cfg.GeminiAPIKey,
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY not set; " + keywords.ModelGPT4o + " is unavailable")
	}
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GOOGLE_GENERATIVE_AI_API_KEY not set; " + keywords.ModelGeminiPro15 + " is unavailable")
	}
	return keywords.NewRouter(map[string]keywords.Extractor{
		keywords.ModelGPT4o:       openai,
		keywords.ModelGeminiPro15: gemini,
	}), nil
}

func newRouter(cfg config.Config, logger *zap.Logger, store *extraction.Store) (http.Handler, error) {
	_ = mime.AddExtensionType(".js", "application/javascript")
	_ = mime.AddExtensionType(".css", "text/css")

	schema := form.NewSchema(cfg.MinDimension, cfg.MaxDimension, cfg.DefaultModel)
	generator := wordcloud.NewClient(cfg.WordCloudURL, nil, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.Requests(logger))
	r.Use(middleware.Recoverer)

	staticFS, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		return nil, err
	}

	homeHandler := handlers.NewHomeHandler(schema)
	wordCloudHandler := handlers.NewWordCloudHandler(schema, generator, logger)
	keywordsHandler := handlers.NewKeywordsHandler(schema, store, logger)

	r.Group(func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}
		r.Mount("/static", http.StripPrefix("/static", http.FileServer(http.FS(staticFS))))
		homeHandler.RegisterRoutes(r)
		keywordsHandler.RegisterRoutes(r)
	})
	// Renderer calls are bounded only by the client connection; streams stay open.
	wordCloudHandler.RegisterRoutes(r)
	keywordsHandler.RegisterStreamRoutes(r)

	return r, nil
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	extractor, err := newExtractor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	store := extraction.NewStore(extractor, extraction.Options{
		Timeout:   cfg.LLMTimeout,
		Retention: cfg.ExtractionRetention,
		Logger:    logger,
	})
	defer store.Close()

	handler, err := newRouter(cfg, logger, store)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// SSE responses and renderer calls run without a write deadline.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr), zap.String("url", cfg.BaseURL))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		// Open SSE streams end once their jobs are cancelled.
		store.Close()
		return server.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
