package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/amishk599/jobmerge/internal/config"
	"github.com/amishk599/jobmerge/internal/review"
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Dry-run the pipeline and browse the result (TUI)",
	Long:  "Runs the pipeline without writing, shows the job function picker, then the split-pane review of kept and dropped records.",
	RunE:  runReviewCmd,
}

func init() {
	rootCmd.AddCommand(reviewCmd)
}

func runReviewCmd(cmd *cobra.Command, args []string) error {
	logger := setupLogger(debug)

	cfg, err := loadConfig(cfgPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Anything logged once the TUI is up corrupts the display.
	silentLogger := slog.New(slog.NewTextHandler(io.Discard, nil))

	// A review never announces itself on the team channel.
	reviewCfg := *cfg
	reviewCfg.Notification = config.NotificationConfig{Type: "log"}

	ctx := context.Background()
	st, err := openStore(ctx, &reviewCfg, silentLogger)
	if err != nil {
		logger.Error("failed to open store", "error", err)
		os.Exit(1)
	}
	defer st.Close()

	p, closeProviders := buildPipeline(ctx, &reviewCfg, st, true, silentLogger)
	defer closeProviders()

	res, err := review.RunLoader(ctx, "Merging latest batches", p.Run)
	if err != nil {
		fmt.Printf("Error running pipeline: %v\n", err)
		return nil
	}

	options := review.FunctionOptions(res.Output)
	for {
		function, err := review.RunFunctionPicker(options)
		if err != nil {
			fmt.Printf("Picker error: %v\n", err)
			return nil
		}
		if function == "" {
			return nil
		}

		wantQuit, err := review.RunReviewTUI(res, function)
		if err != nil {
			fmt.Printf("TUI error: %v\n", err)
		}
		if wantQuit {
			return nil
		}
	}
}
