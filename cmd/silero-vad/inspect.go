package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tonyrewin/silero-vad-go/internal/onnxfile"
)

func newInspectCmd(a *app) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "inspect [path]",
		Short: "Summarize the structure of an ONNX artifact",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.cfg.ONNXModelPath()
			if len(args) == 1 {
				path = args[0]
			}
			model, err := onnxfile.ReadFile(path)
			if err != nil {
				return err
			}
			if asJSON {
				return printModelJSON(cmd.OutOrStdout(), path, model)
			}
			printModelSummary(cmd.OutOrStdout(), path, model)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the summary as JSON")
	return cmd
}

func printModelSummary(w io.Writer, path string, m *onnxfile.Model) {
	fmt.Fprintln(w, path)
	fmt.Fprintf(w, "  ir_version:   %d\n", m.IRVersion)
	if producer := strings.TrimSpace(m.ProducerName + " " + m.ProducerVersion); producer != "" {
		fmt.Fprintf(w, "  producer:     %s\n", producer)
	}
	for _, op := range m.Opsets {
		domain := op.Domain
		if domain == "" {
			domain = "ai.onnx"
		}
		fmt.Fprintf(w, "  opset:        %s %d\n", domain, op.Version)
	}
	fmt.Fprintf(w, "  graph:        %s (%d nodes, %d initializers)\n", m.GraphName, m.Nodes, m.Initializers)
	fmt.Fprintln(w, "  inputs:")
	for _, ti := range m.Inputs {
		fmt.Fprintf(w, "    %-10s %-8s %s\n", ti.Name, onnxfile.ElemTypeName(ti.ElemType), ti.ShapeString())
	}
	fmt.Fprintln(w, "  outputs:")
	for _, ti := range m.Outputs {
		fmt.Fprintf(w, "    %-10s %-8s %s\n", ti.Name, onnxfile.ElemTypeName(ti.ElemType), ti.ShapeString())
	}
}

type tensorJSON struct {
	Name  string   `json:"name"`
	Type  string   `json:"type"`
	Shape []string `json:"shape"`
}

type opsetJSON struct {
	Domain  string `json:"domain"`
	Version int64  `json:"version"`
}

type modelJSON struct {
	Path         string       `json:"path"`
	IRVersion    int64        `json:"ir_version"`
	Producer     string       `json:"producer,omitempty"`
	Opsets       []opsetJSON  `json:"opsets"`
	Graph        string       `json:"graph"`
	Nodes        int          `json:"nodes"`
	Initializers int          `json:"initializers"`
	Inputs       []tensorJSON `json:"inputs"`
	Outputs      []tensorJSON `json:"outputs"`
}

func printModelJSON(w io.Writer, path string, m *onnxfile.Model) error {
	doc := modelJSON{
		Path:         path,
		IRVersion:    m.IRVersion,
		Producer:     strings.TrimSpace(m.ProducerName + " " + m.ProducerVersion),
		Graph:        m.GraphName,
		Nodes:        m.Nodes,
		Initializers: m.Initializers,
	}
	for _, op := range m.Opsets {
		domain := op.Domain
		if domain == "" {
			domain = "ai.onnx"
		}
		doc.Opsets = append(doc.Opsets, opsetJSON{Domain: domain, Version: op.Version})
	}
	for _, ti := range m.Inputs {
		doc.Inputs = append(doc.Inputs, tensorToJSON(ti))
	}
	for _, ti := range m.Outputs {
		doc.Outputs = append(doc.Outputs, tensorToJSON(ti))
	}

	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(raw))
	return err
}

func tensorToJSON(ti onnxfile.TensorInfo) tensorJSON {
	out := tensorJSON{
		Name: ti.Name,
		Type: onnxfile.ElemTypeName(ti.ElemType),
	}
	for _, d := range ti.Dims {
		if d.Param != "" {
			out.Shape = append(out.Shape, d.Param)
		} else {
			out.Shape = append(out.Shape, fmt.Sprintf("%d", d.Value))
		}
	}
	return out
}
