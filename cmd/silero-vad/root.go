package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonyrewin/silero-vad-go/internal/convert"
	"github.com/tonyrewin/silero-vad-go/internal/fetch"
)

func newRootCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "silero-vad",
		Short: "Download the Silero VAD model and convert it to ONNX",
		Long: `silero-vad prepares the Silero VAD model for ONNX Runtime inference.

Run without a subcommand it performs the full pipeline: create the models
directory, download the TorchScript checkpoint when it is missing, and
export it to ONNX through the PyTorch bridge.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), a, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	cmd.AddCommand(
		newFetchCmd(a),
		newConvertCmd(a),
		newInspectCmd(a),
		newDetectCmd(a),
		newVersionCmd(),
	)
	return cmd
}

// runPipeline is the end-to-end flow: ensure the models directory, download
// the TorchScript checkpoint when missing, load it, and export to ONNX.
// The detect command also calls this when the ONNX artifact is absent.
func runPipeline(ctx context.Context, a *app, out, errOut io.Writer) error {
	jitPath := a.cfg.JITModelPath()
	onnxPath := a.cfg.ONNXModelPath()

	if err := os.MkdirAll(a.cfg.ModelsDir, 0o755); err != nil {
		return fmt.Errorf("create models dir: %w", err)
	}

	if _, err := os.Stat(jitPath); errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintln(out, "Downloading JIT model...")
		if err := fetch.Download(ctx, fetch.DefaultClient, a.cfg.ModelURL, jitPath); err != nil {
			return err
		}
		a.log.Info("model downloaded", "url", a.cfg.ModelURL, "path", jitPath)
	} else if err != nil {
		return err
	} else {
		a.log.Info("jit model already present, skipping download", "path", jitPath)
	}

	handle, err := convert.Load(jitPath, convert.DefaultLoadOptions())
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Converting to ONNX...")
	opts := convert.DefaultExportOptions()
	opts.OpsetVersion = a.cfg.OpsetVersion
	opts.PythonBin = a.cfg.PythonBin
	opts.Stdout = out
	opts.Stderr = errOut
	if err := convert.Export(ctx, handle, onnxPath, opts); err != nil {
		return err
	}
	a.log.Info("onnx model ready", "path", onnxPath)
	return nil
}
