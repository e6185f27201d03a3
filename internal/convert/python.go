package convert

import (
	_ "embed"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// exporterScript is the bridge driver handed to the interpreter via
// -c. It reads the export job as JSON on stdin and calls the
// framework's load and export entry points, nothing else.
//
//go:embed exporter.py
var exporterScript string

// resolvePythonBin picks the bridge interpreter.
// Search order:
//  1. explicit override (flag or config)
//  2. SILERO_VAD_PYTHON environment variable
//  3. python3, then python, on PATH
func resolvePythonBin(override string) (string, error) {
	if override != "" {
		return checkInterpreter(override, "python override")
	}
	if env := os.Getenv("SILERO_VAD_PYTHON"); env != "" {
		return checkInterpreter(env, "SILERO_VAD_PYTHON")
	}
	for _, name := range []string{"python3", "python"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", fmt.Errorf("python interpreter not found on PATH (set SILERO_VAD_PYTHON to override)")
}

func checkInterpreter(value, source string) (string, error) {
	if strings.ContainsRune(value, os.PathSeparator) {
		info, err := os.Stat(value)
		if err != nil {
			return "", fmt.Errorf("%s=%q does not exist", source, value)
		}
		if info.IsDir() {
			return "", fmt.Errorf("%s=%q is a directory, expected an executable", source, value)
		}
		return value, nil
	}
	path, err := exec.LookPath(value)
	if err != nil {
		return "", fmt.Errorf("%s=%q not found on PATH", source, value)
	}
	return path, nil
}
