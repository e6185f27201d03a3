package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/tonyrewin/silero-vad-go/internal/engine"
	"github.com/tonyrewin/silero-vad-go/internal/vad"
	"github.com/tonyrewin/silero-vad-go/internal/wav"
)

func newDetectCmd(a *app) *cobra.Command {
	var (
		engineName string
		asJSON     bool
		threshold  float64
	)

	cmd := &cobra.Command{
		Use:   "detect <audio.wav>",
		Short: "Detect speech segments in a 16 kHz mono WAV file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			samples, sampleRate, err := wav.Decode(data)
			if err != nil {
				return fmt.Errorf("decode %s: %w", args[0], err)
			}

			eng, err := resolveEngine(cmd.Context(), a, engineName, threshold, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer eng.Close()

			if err := eng.SetThreshold(float32(threshold)); err != nil {
				return err
			}

			cfg := a.cfg
			cfg.Threshold = threshold
			segments, err := vad.DetectSegments(eng, wav.Bytes(samples), uint32(sampleRate), cfg)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				raw, err := json.MarshalIndent(segments, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(out, string(raw))
				return err
			}

			if len(segments) == 0 {
				fmt.Fprintln(out, "no speech detected")
				return nil
			}
			for i, s := range segments {
				fmt.Fprintf(out, "segment %d: %.3fs - %.3fs (%.3fs)\n", i, s.Start, s.End, s.Duration())
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&engineName, "engine", "auto", "inference engine: auto, silero or stub")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit segments as JSON")
	cmd.Flags().Float64Var(&threshold, "threshold", a.cfg.Threshold, "speech probability threshold")
	return cmd
}

// resolveEngine picks the VAD engine. In auto mode the native engine is
// preferred when compiled in, with a stub fallback otherwise. The silero
// engine needs the ONNX artifact, so the conversion pipeline runs first
// when the file is missing.
func resolveEngine(ctx context.Context, a *app, name string, threshold float64, out, errOut io.Writer) (engine.Engine, error) {
	resolved := name
	isAuto := resolved == "auto"
	if isAuto {
		if engine.NativeAvailable() {
			resolved = "silero"
		} else {
			resolved = "stub"
			a.log.Warn("auto-detected engine: stub (native silero not compiled in, build with -tags silero)")
		}
	}

	switch resolved {
	case "silero":
		if !engine.NativeAvailable() {
			return nil, fmt.Errorf("engine %q requested but native backend not compiled in (build with -tags silero)", resolved)
		}
		modelPath := a.cfg.ONNXModelPath()
		if _, err := os.Stat(modelPath); errors.Is(err, fs.ErrNotExist) {
			a.log.Info("onnx model missing, running conversion pipeline", "path", modelPath)
			if err := runPipeline(ctx, a, out, errOut); err != nil {
				return nil, err
			}
		} else if err != nil {
			return nil, err
		}

		eng, err := engine.NewNativeEngine(modelPath, threshold)
		if err != nil {
			if isAuto && os.Getenv("SILERO_VAD_DEV_MODE") == "1" {
				a.log.Warn("native engine failed, falling back to stub engine (SILERO_VAD_DEV_MODE=1)",
					"error", err)
				return engine.NewStubEngine(), nil
			}
			return nil, err
		}
		a.log.Info("engine ready", "type", "silero", "model", modelPath)
		return eng, nil

	case "stub":
		a.log.Warn("using stub engine, results are deterministic and not based on audio content")
		return engine.NewStubEngine(), nil

	default:
		return nil, fmt.Errorf("unknown engine %q (expected auto, silero or stub)", resolved)
	}
}
