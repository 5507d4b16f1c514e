package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"alignbench/internal/config"
	"alignbench/internal/container"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "alignbench",
		Short:         "Score AI assistant alignment reports and compare frameworks",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newScoreCmd(),
		newIngestCmd(),
		newAggregateCmd(),
		newCompareCmd(),
		newValidateCmd(),
		newProgressCmd(),
		newExportCmd(),
	)
	return rootCmd
}

// openContainer loads .env and the environment, then wires storage
func openContainer(ctx context.Context) (*container.Container, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	return container.Open(ctx, cfg)
}

func writeJSON(w io.Writer, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
