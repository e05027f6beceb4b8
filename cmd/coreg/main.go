// Command coreg runs registered operations against NetCDF files.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"go.ngs.io/coreg/internal/adapter/store/netcdf"
	"go.ngs.io/coreg/internal/domain"
	"go.ngs.io/coreg/internal/usecase"
)

var (
	// Global flags
	verbose bool

	// run flags
	masterPath string
	slavePath  string
	outPath    string
	methodUS   string
	methodDS   string
	parallel   int
	tolerance  float64

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "coreg",
	Short: "Coregister gridded datasets onto a common lat/lon grid",
	Long: `coreg resamples every variable of a slave dataset onto the spatial grid
of a master dataset, restricted to the area where both overlap.

Both datasets must be global or regional, equidistant and pixel-registered
on WGS84 (EPSG:4326) lat/lon axes.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Coregister a slave dataset onto a master grid",
	Example: `  coreg run --master sst.nc --slave chl.nc --out chl_on_sst.nc
  coreg run --master sst.nc --slave chl.nc --out out.nc --method-ds mode --parallel 4`,
	RunE: runCoregister,
}

var opsCmd = &cobra.Command{
	Use:   "ops",
	Short: "List registered operations",
	RunE: func(cmd *cobra.Command, args []string) error {
		registry := usecase.NewRegistry(usecase.NewCoregistrator(usecase.Options{}, logger))
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(registry.Operations())
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	runCmd.Flags().StringVar(&masterPath, "master", "", "Master dataset providing the target grid (required)")
	runCmd.Flags().StringVar(&slavePath, "slave", "", "Slave dataset to resample (required)")
	runCmd.Flags().StringVar(&outPath, "out", "", "Output NetCDF file (required)")
	runCmd.Flags().StringVar(&methodUS, "method-us", domain.DefaultUpsampleMethod,
		"Upsampling method: "+strings.Join(domain.UpsampleMethodNames(), ", "))
	runCmd.Flags().StringVar(&methodDS, "method-ds", domain.DefaultDownsampleMethod,
		"Downsampling method: "+strings.Join(domain.DownsampleMethodNames(), ", "))
	runCmd.Flags().IntVar(&parallel, "parallel", 1, "Time slices resampled concurrently")
	runCmd.Flags().Float64Var(&tolerance, "tolerance", 0, "Grid check tolerance in degrees (0 compares exactly)")
	for _, name := range []string{"master", "slave", "out"} {
		_ = runCmd.MarkFlagRequired(name)
	}

	rootCmd.AddCommand(runCmd, opsCmd)
}

func runCoregister(cmd *cobra.Command, args []string) error {
	if parallel < 0 || tolerance < 0 {
		return fmt.Errorf("--parallel and --tolerance must not be negative")
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coregistrator := usecase.NewCoregistrator(usecase.Options{
		Parallelism: parallel,
		Tolerance:   tolerance,
	}, logger.Named("coreg"))
	uc := usecase.NewCoregisterUseCase(
		netcdf.NewStore("", "", logger),
		usecase.NewRegistry(coregistrator),
		logger,
	)

	resp, err := uc.Execute(ctx, usecase.CoregisterRequest{
		Master:   masterPath,
		Slave:    slavePath,
		Output:   outPath,
		MethodUS: methodUS,
		MethodDS: methodDS,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s: %d variable(s), shape %v\n",
		resp.Output, len(resp.Variables), resp.Shape)
	return nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}
