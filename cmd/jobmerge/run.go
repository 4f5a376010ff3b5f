package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var dryRun bool

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the merge pipeline once and exit",
	Long:  "Fetches the latest batch of both sources, merges them and upserts the result. With --dry-run nothing is written.",
	RunE:  runOnce,
}

func init() {
	runCmd.Flags().BoolVar(&dryRun, "dry-run", false, "process the batch but skip the upsert")
	rootCmd.AddCommand(runCmd)
}

func runOnce(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	p, closeProviders := buildPipeline(ctx, cfg, st, dryRun, logger)
	defer closeProviders()

	res, err := p.Run(ctx)
	if err != nil {
		return fmt.Errorf("pipeline run: %w", err)
	}

	if dryRun {
		fmt.Printf("dry run: %d records would be published, %d dropped\n", len(res.Output), len(res.Dropped))
	}
	return nil
}
