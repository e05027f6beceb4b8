// Package main provides the coregistration HTTP server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"go.ngs.io/coreg/internal/adapter/store"
	"go.ngs.io/coreg/internal/adapter/store/cloud"
	"go.ngs.io/coreg/internal/adapter/store/netcdf"
	"go.ngs.io/coreg/internal/config"
	httpHandler "go.ngs.io/coreg/internal/http"
	"go.ngs.io/coreg/internal/usecase"
)

const version = "0.1.0"

func main() {
	os.Exit(serve(os.Args[1:]))
}

// serve runs the server and returns the process exit code. It returns instead
// of exiting so deferred cleanup in run and the final logger sync always happen.
func serve(args []string) int {
	// Parse command-line flags.
	flags := flag.NewFlagSet("coreg-server", flag.ContinueOnError)
	showHelp := flags.Bool("help", false, "Show usage information")
	showVersion := flags.Bool("version", false, "Show version information")
	configPath := flags.String("config", "", "Path to YAML configuration file (optional)")
	writeConfig := flags.String("write-config", "", "Write the effective configuration to PATH and exit")
	if err := flags.Parse(args); err != nil {
		return 2
	}

	if *showHelp {
		printUsage()
		return 0
	}

	if *showVersion {
		fmt.Printf("coreg-server version %s\n", version)
		return 0
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		return 1
	}

	if *writeConfig != "" {
		if err := cfg.Save(*writeConfig); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
		fmt.Printf("Wrote configuration to %s\n", *writeConfig)
		return 0
	}

	logger, err := cfg.Logging.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Error("server stopped", zap.Error(err))
		return 1
	}
	return 0
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("starting coregistration server",
		zap.String("version", version),
		zap.String("port", cfg.Server.Port),
		zap.String("data_dir", cfg.Storage.DataDir),
		zap.String("output_dir", cfg.Storage.OutputDir),
		zap.Int("parallelism", cfg.Coreg.Parallelism),
		zap.Float64("tolerance", cfg.Coreg.Tolerance))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize store and use cases.
	datasets, closeStore, err := newStore(ctx, cfg.Storage, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := closeStore(); err != nil {
			logger.Warn("failed to close dataset store", zap.Error(err))
		}
	}()
	coregistrator := usecase.NewCoregistrator(usecase.Options{
		Parallelism: cfg.Coreg.Parallelism,
		Tolerance:   cfg.Coreg.Tolerance,
	}, logger.Named("coreg"))
	coregUC := usecase.NewCoregisterUseCase(datasets, usecase.NewRegistry(coregistrator), logger)

	// Setup router.
	router := httpHandler.SetupRouter(coregUC, cfg.Server.CORSAllowedOrigins, logger.Named("http"))

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// newStore returns a bucket-backed store when either storage location is a
// URL (file://, s3:// or gs://) and a directory store otherwise.
func newStore(ctx context.Context, cfg config.StorageConfig, logger *zap.Logger) (store.DatasetStore, func() error, error) {
	if !cloud.IsBucketURL(cfg.DataDir) && !cloud.IsBucketURL(cfg.OutputDir) {
		return netcdf.NewStore(cfg.DataDir, cfg.OutputDir, logger), func() error { return nil }, nil
	}
	dataURL, err := bucketURL(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}
	outputURL, err := bucketURL(cfg.OutputDir)
	if err != nil {
		return nil, nil, err
	}
	s, err := cloud.NewStore(ctx, dataURL, outputURL, logger)
	if err != nil {
		return nil, nil, err
	}
	return s, s.Close, nil
}

func bucketURL(location string) (string, error) {
	if cloud.IsBucketURL(location) {
		return location, nil
	}
	abs, err := filepath.Abs(location)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", location, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("failed to create %s: %w", abs, err)
	}
	return "file://" + filepath.ToSlash(abs), nil
}

// printUsage prints usage information.
func printUsage() {
	fmt.Printf("Coregistration Server v%s\n\n", version)
	fmt.Println("USAGE:")
	fmt.Println("  coreg-server [flags]")
	fmt.Println()
	fmt.Println("FLAGS:")
	fmt.Println("  -config PATH         YAML configuration file")
	fmt.Println("  -write-config PATH   Write the effective configuration and exit")
	fmt.Println("  -help                Show this help message")
	fmt.Println("  -version             Show version information")
	fmt.Println()
	fmt.Println("ENVIRONMENT VARIABLES:")
	fmt.Println("  PORT                    Server port (default: 8080)")
	fmt.Println("  DATA_DIR                Input NetCDF directory or bucket URL (default: ./data)")
	fmt.Println("  OUTPUT_DIR              Output NetCDF directory or bucket URL (default: ./output)")
	fmt.Println("  CORS_ALLOWED_ORIGINS    Comma-separated list of allowed origins (default: all origins)")
	fmt.Println("  COREG_PARALLELISM       Time slices resampled concurrently (default: 1)")
	fmt.Println("  COREG_TOLERANCE         Grid check tolerance in degrees (default: 0, exact)")
	fmt.Println("  LOG_LEVEL               debug, info, warn or error (default: info)")
	fmt.Println()
	fmt.Println("API ENDPOINTS:")
	fmt.Println("  GET  /health                       Health check")
	fmt.Println("  GET  /v1/operations                List registered operations")
	fmt.Println("  GET  /v1/operations/:name          Describe one operation")
	fmt.Println("  POST /v1/operations/coregister     Coregister two datasets")
	fmt.Println("  GET  /v1/datasets                  List input datasets")
	fmt.Println()
}
