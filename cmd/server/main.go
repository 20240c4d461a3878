package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"basic-agent-service/internal/agent"
	"basic-agent-service/internal/client"
	"basic-agent-service/internal/config"
	"basic-agent-service/internal/logging"
	"basic-agent-service/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		envFile    string
		port       int
	)

	cmd := &cobra.Command{
		Use:           "agent-server",
		Short:         "Basic agent service: forwards user queries to an LLM",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional; real environment variables take precedence
			if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("load %s: %w", envFile, err)
			}
			return run(cmd.Context(), runOptions{configPath: configPath, port: port})
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (overrides CONFIG_PATH)")
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file to load before reading configuration")
	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (overrides PORT)")
	return cmd
}

// runOptions carries command line overrides into run
type runOptions struct {
	configPath string // empty falls back to CONFIG_PATH
	port       int    // zero keeps the configured port
}

// pinger is implemented by providers that can verify their key and model
type pinger interface {
	Ping(ctx context.Context, model string) error
}

func run(parent context.Context, opts runOptions) error {
	if parent == nil {
		parent = context.Background()
	}

	// Load configuration first
	cfg, err := config.LoadConfigFrom(opts.configPath)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if opts.port != 0 {
		cfg.Server.Port = opts.port
	}

	// Missing API key stops the process here, before anything is served
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger, logCleanup := logging.Setup(cfg)
	defer logCleanup()
	slog.SetDefault(logger)
	log := logging.Component(logger, config.ComponentMain)
	log.Info("logging configured", "level", cfg.GetLogLevel().String(), "output", cfg.Log.Output)
	if cfg.Source.Found {
		log.Info("config loaded", "path", cfg.Source.Path)
	} else {
		log.Info("config not found, using defaults", "path", cfg.Source.Path)
	}

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	provider, err := client.NewProvider(ctx, &cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("create llm provider: %w", err)
	}

	// Create the LLM client once at startup and inject it into the handler
	llmClient, err := client.NewLLM(provider, &cfg.LLM, logger)
	if err != nil {
		return fmt.Errorf("create llm client: %w", err)
	}
	log.Info("llm client initialized",
		"provider", llmClient.ProviderName(),
		"model", llmClient.DefaultModel(),
		"error_as_completion", cfg.LLM.ErrorAsCompletion,
	)

	queryHandler := agent.NewQueryHandler(llmClient, cfg.Server.MaxBodySize, logger)
	srv := server.New(cfg, queryHandler, logger)

	g, gctx := errgroup.WithContext(ctx)

	// The vendor check runs next to the listener; readiness waits for it and a
	// failure stops the server
	if checker, ok := provider.(pinger); ok && cfg.LLM.VerifyOnStart {
		release := srv.HoldReady()
		g.Go(func() error {
			if err := checker.Ping(gctx, llmClient.DefaultModel()); err != nil {
				return fmt.Errorf("llm health check failed: %w", err)
			}
			release()
			return nil
		})
	}

	g.Go(func() error {
		return srv.Run(gctx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server exited with error", "error", err)
		return err
	}
	log.Info("shutdown complete")
	return nil
}
