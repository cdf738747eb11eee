package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jonathan/resumeai/internal/compiler"
	"github.com/jonathan/resumeai/internal/config"
	"github.com/jonathan/resumeai/internal/db"
	"github.com/jonathan/resumeai/internal/fetch"
	"github.com/jonathan/resumeai/internal/generation"
	"github.com/jonathan/resumeai/internal/llm"
	"github.com/jonathan/resumeai/internal/logger"
	"github.com/jonathan/resumeai/internal/rendering"
	"github.com/jonathan/resumeai/internal/server"
	"github.com/jonathan/resumeai/internal/server/ratelimit"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API server",
	Long:  `Start an HTTP server that exposes the account, text-generation and résumé endpoints.`,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Port to listen on (overrides PORT and the config file)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, log, err := loadRuntime()
	if err != nil {
		return err
	}
	defer log.Sync()

	if servePort != 0 {
		cfg.Port = servePort
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, cleanup, err := buildDeps(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer cleanup()

	srv, err := server.New(cfg.Port, deps)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}
	return srv.Run(ctx)
}

// buildDeps wires the server's collaborators from cfg. The credential store and the
// text generator are optional: without DATABASE_URL or a provider key the matching
// endpoints answer 503. The returned cleanup releases whatever was opened.
func buildDeps(ctx context.Context, cfg *config.Config, log *logger.Logger) (server.Deps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	passwords, err := config.NewPasswordConfig()
	if err != nil {
		return server.Deps{}, cleanup, err
	}
	jwtCfg, err := config.NewJWTConfig()
	if err != nil {
		return server.Deps{}, cleanup, err
	}

	deps := server.Deps{
		Render:    renderOptions(cfg, log),
		Passwords: passwords,
		JWT:       jwtCfg,
		Limiter:   ratelimit.NewLimiter(ratelimit.LoadConfig()),
		Logger:    log,
	}
	closers = append(closers, deps.Limiter.Stop)

	if cfg.DatabaseURL == "" {
		log.Warn("DATABASE_URL not set; account endpoints are disabled")
	} else {
		database, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			cleanup()
			return server.Deps{}, func() {}, err
		}
		closers = append(closers, database.Close)
		if err := database.EnsureSchema(ctx); err != nil {
			cleanup()
			return server.Deps{}, func() {}, err
		}
		deps.Store = database
	}

	if apiKey := cfg.APIKeyFor(); apiKey == "" {
		log.Warn("no API key for text-generation provider; generation endpoints are disabled",
			"provider", cfg.LLMProvider)
	} else {
		client, err := llm.NewClient(ctx, llm.ConfigFor(cfg.LLMProvider), apiKey)
		if err != nil {
			cleanup()
			return server.Deps{}, func() {}, fmt.Errorf("failed to create %s client: %w", cfg.LLMProvider, err)
		}
		closers = append(closers, func() { _ = client.Close() })
		fetcher := fetch.NewCachedFetcher(fetch.NewJobPostFetcher(cfg.UseBrowser, log), fetch.DefaultCacheTTL)
		deps.Generator = generation.NewService(client, fetcher, log)
	}

	if latexmk, ok := deps.Render.Compiler.(*compiler.Latexmk); ok && !latexmk.Available() {
		log.Warn("latexmk not found; pdf output will fail", "path", cfg.LatexmkPath)
	}

	return deps, cleanup, nil
}

// renderOptions builds the document-assembly options shared by serve and render.
func renderOptions(cfg *config.Config, log *logger.Logger) rendering.Options {
	return rendering.Options{
		TemplatePath: cfg.Template,
		OutputDir:    cfg.OutputDir,
		Compiler:     compiler.NewLatexmk(cfg.LatexmkPath, cfg.MaxConcurrentCompiles),
		Timeout:      cfg.CompileTimeout.Std(),
		Logger:       log,
	}
}
