package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the configured sources",
	Long:  "Reads the config and prints both sources with their dedup role.",
	RunE:  runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}

func runSources(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%-20s %s\n", "Source", "Role")
	fmt.Println(strings.Repeat("─", 40))
	for i, s := range cfg.Sources {
		role := "secondary"
		if i == 0 {
			role = "primary (kept on ties)"
		}
		fmt.Printf("%-20s %s\n", s.ID, role)
	}
	fmt.Println(strings.Repeat("─", 40))
	fmt.Printf("store: %s  threshold: %.2f\n", cfg.Store.Driver, cfg.Similarity.Threshold)
	return nil
}
