package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tonyrewin/silero-vad-go/internal/config"
	"github.com/tonyrewin/silero-vad-go/internal/convert"
)

func newConvertCmd(a *app) *cobra.Command {
	var (
		model      string
		output     string
		opset      int
		python     string
		skipVerify bool
	)

	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert a TorchScript model to ONNX",
		RunE: func(cmd *cobra.Command, args []string) error {
			if model == "" {
				model = a.cfg.JITModelPath()
			}
			if output == "" {
				output = a.cfg.ONNXModelPath()
			}

			handle, err := convert.Load(model, convert.DefaultLoadOptions())
			if err != nil {
				return err
			}
			a.log.Debug("traced model loaded",
				"path", model,
				"format_version", handle.Archive.FormatVersion,
				"entries", handle.Archive.Entries,
			)

			fmt.Fprintln(cmd.OutOrStdout(), "Converting to ONNX...")
			opts := convert.DefaultExportOptions()
			opts.OpsetVersion = opset
			opts.PythonBin = python
			opts.SkipVerify = skipVerify
			opts.Stdout = cmd.OutOrStdout()
			opts.Stderr = cmd.ErrOrStderr()
			return convert.Export(cmd.Context(), handle, output, opts)
		},
	}

	cmd.Flags().StringVar(&model, "model", "", "TorchScript model path (default <models_dir>/"+config.JITModelFile+")")
	cmd.Flags().StringVar(&output, "output", "", "ONNX output path (default <models_dir>/"+config.ONNXModelFile+")")
	cmd.Flags().IntVar(&opset, "opset", a.cfg.OpsetVersion, "ONNX opset version to export")
	cmd.Flags().StringVar(&python, "python", a.cfg.PythonBin, "python interpreter for the export bridge")
	cmd.Flags().BoolVar(&skipVerify, "skip-verify", false, "skip the structural check of the produced file")
	return cmd
}
