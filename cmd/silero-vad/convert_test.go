package main

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/tonyrewin/silero-vad-go/internal/config"
	"github.com/tonyrewin/silero-vad-go/internal/onnxfile/onnxfiletest"
)

func testApp() *app {
	return &app{
		cfg: config.Config{
			ModelsDir:    "models",
			ModelURL:     config.DefaultModelURL,
			OpsetVersion: config.DefaultOpsetVersion,
			Threshold:    config.DefaultThreshold,
		},
		log: slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})),
	}
}

func writeJITFixture(t *testing.T, dir string) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	entries := []struct {
		name string
		body []byte
	}{
		{"archive/data.pkl", []byte{0x80, 0x02, '}', '.'}},
		{"archive/version", []byte("3\n")},
	}
	for _, e := range entries {
		w, err := zw.Create(e.name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write(e.body); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "silero_vad.jit")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConvertCommand(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("bridge fakes require a POSIX shell")
	}

	workDir := t.TempDir()
	jit := writeJITFixture(t, workDir)
	out := filepath.Join(workDir, "silero_vad.onnx")

	src := filepath.Join(workDir, "fixture.onnx")
	if err := os.WriteFile(src, onnxfiletest.BuildSilero(), 0o644); err != nil {
		t.Fatal(err)
	}
	fake := filepath.Join(workDir, "python3")
	script := fmt.Sprintf("#!/bin/sh\ncat > /dev/null\ncp %q %q\necho converted\n", src, out)
	if err := os.WriteFile(fake, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}

	var stdout bytes.Buffer
	cmd := newConvertCmd(testApp())
	cmd.SetOut(&stdout)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--model", jit, "--output", out, "--python", fake})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("convert: %v", err)
	}

	if !strings.Contains(stdout.String(), "Converting to ONNX...") {
		t.Errorf("stdout = %q, want conversion status line", stdout.String())
	}
	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		t.Errorf("output artifact missing or empty: %v", err)
	}
}
