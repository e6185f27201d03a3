// Package convert turns a serialized TorchScript checkpoint into an
// ONNX artifact. Loading and validation are native; the export itself
// runs the ML framework's own exporter in a bridge process, since graph
// tracing and operator lowering belong to the framework.
package convert

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tonyrewin/silero-vad-go/internal/onnxfile"
	"github.com/tonyrewin/silero-vad-go/internal/torchscript"
)

var (
	ErrLoad   = errors.New("load traced model failed")
	ErrExport = errors.New("onnx export failed")
)

// ModelHandle is a validated reference to a traced model on disk.
type ModelHandle struct {
	Path    string
	Archive *torchscript.Info
	Options LoadOptions
}

// Load opens and validates the TorchScript archive at path. The handle
// records the load options so the export bridge can apply them.
func Load(path string, opts LoadOptions) (*ModelHandle, error) {
	info, err := torchscript.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLoad, err)
	}
	return &ModelHandle{Path: path, Archive: info, Options: opts}, nil
}

type exportJob struct {
	ModelPath         string                       `json:"model_path"`
	OutputPath        string                       `json:"output_path"`
	DisableGrad       bool                         `json:"disable_grad"`
	EvalMode          bool                         `json:"eval_mode"`
	DummyInputs       DummyInputSpec               `json:"dummy_inputs"`
	ExportParams      bool                         `json:"export_params"`
	OpsetVersion      int                          `json:"opset_version"`
	DoConstantFolding bool                         `json:"do_constant_folding"`
	InputNames        []string                     `json:"input_names"`
	OutputNames       []string                     `json:"output_names"`
	DynamicAxes       map[string]map[string]string `json:"dynamic_axes"`
}

// Export converts the loaded model to ONNX at outputPath, overwriting
// any existing file. Failures are not remediated: a failed export may
// leave no file or a truncated one behind.
func Export(ctx context.Context, handle *ModelHandle, outputPath string, opts ExportOptions) error {
	if handle == nil {
		return fmt.Errorf("%w: nil model handle", ErrExport)
	}
	if opts.OpsetVersion == 0 {
		opts.OpsetVersion = DefaultOpsetVersion
	}

	// The exporter opens the path itself; surface a missing parent
	// directory as an export failure before spawning the bridge.
	if dir := filepath.Dir(outputPath); dir != "." {
		if _, err := os.Stat(dir); err != nil {
			return fmt.Errorf("%w: output directory %s: %v", ErrExport, dir, err)
		}
	}

	job := exportJob{
		ModelPath:         handle.Path,
		OutputPath:        outputPath,
		DisableGrad:       handle.Options.DisableGrad,
		EvalMode:          handle.Options.EvalMode,
		DummyInputs:       NewDummyInputSpec(),
		ExportParams:      opts.ExportParams,
		OpsetVersion:      opts.OpsetVersion,
		DoConstantFolding: opts.ConstantFolding,
		InputNames:        InputNames,
		OutputNames:       OutputNames,
		DynamicAxes:       dynamicAxesJSON(),
	}
	payload, err := json.Marshal(job)
	if err != nil {
		return fmt.Errorf("%w: encode job: %v", ErrExport, err)
	}

	python, err := resolvePythonBin(opts.PythonBin)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrExport, err)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, python, "-c", exporterScript)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = opts.Stdout
	if opts.Stderr != nil {
		cmd.Stderr = io.MultiWriter(&stderr, opts.Stderr)
	} else {
		cmd.Stderr = &stderr
	}
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%w: bridge %s: %v%s", ErrExport, python, err, stderrTail(stderr.String()))
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("%w: bridge succeeded but wrote no output at %s", ErrExport, outputPath)
	}
	if info.Size() == 0 {
		return fmt.Errorf("%w: bridge wrote an empty file at %s", ErrExport, outputPath)
	}

	if opts.SkipVerify {
		return nil
	}
	if err := verifyArtifact(outputPath, job); err != nil {
		return fmt.Errorf("%w: %v", ErrExport, err)
	}
	return nil
}

// verifyArtifact checks the produced file parses and carries the
// contract the job requested.
func verifyArtifact(path string, job exportJob) error {
	model, err := onnxfile.ReadFile(path)
	if err != nil {
		return err
	}
	if err := model.CheckIO(job.InputNames, job.OutputNames); err != nil {
		return err
	}
	version, ok := model.OpsetVersion("")
	if !ok {
		return fmt.Errorf("artifact imports no default opset")
	}
	if version != int64(job.OpsetVersion) {
		return fmt.Errorf("artifact opset %d, want %d", version, job.OpsetVersion)
	}
	if job.ExportParams && model.Initializers == 0 {
		return fmt.Errorf("artifact embeds no parameters")
	}
	for name, axes := range DynamicAxes {
		ti, ok := model.Input(name)
		if !ok {
			ti, ok = model.Output(name)
		}
		if !ok {
			return fmt.Errorf("artifact is missing tensor %s", name)
		}
		got := ti.DynamicAxes()
		for pos, want := range axes {
			if got[pos] != want {
				return fmt.Errorf("tensor %s axis %d is %q, want symbolic %q", name, pos, got[pos], want)
			}
		}
	}
	return nil
}

func dynamicAxesJSON() map[string]map[string]string {
	out := make(map[string]map[string]string, len(DynamicAxes))
	for name, axes := range DynamicAxes {
		m := make(map[string]string, len(axes))
		for pos, label := range axes {
			m[strconv.Itoa(pos)] = label
		}
		out[name] = m
	}
	return out
}

// stderrTail keeps error messages bounded while preserving the part of
// the bridge output that names the actual failure.
func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	const maxTail = 2048
	if len(s) > maxTail {
		s = s[len(s)-maxTail:]
	}
	return "\n" + s
}
