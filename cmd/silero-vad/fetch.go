package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tonyrewin/silero-vad-go/internal/config"
	"github.com/tonyrewin/silero-vad-go/internal/fetch"
)

func newFetchCmd(a *app) *cobra.Command {
	var (
		url    string
		output string
		force  bool
	)

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download the TorchScript model",
		RunE: func(cmd *cobra.Command, args []string) error {
			if output == "" {
				output = a.cfg.JITModelPath()
			}
			if !force {
				if _, err := os.Stat(output); err == nil {
					a.log.Info("model already present, skipping download", "path", output)
					return nil
				}
			}
			if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), "Downloading JIT model...")
			if err := fetch.Download(cmd.Context(), fetch.DefaultClient, url, output); err != nil {
				return err
			}
			a.log.Info("model downloaded", "url", url, "path", output)
			return nil
		},
	}

	cmd.Flags().StringVar(&url, "url", a.cfg.ModelURL, "download URL of the TorchScript model")
	cmd.Flags().StringVar(&output, "output", "", "destination path (default <models_dir>/"+config.JITModelFile+")")
	cmd.Flags().BoolVar(&force, "force", false, "download even when the file already exists")
	return cmd
}
