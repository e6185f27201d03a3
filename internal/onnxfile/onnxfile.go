// Package onnxfile reads the structure of serialized ONNX models: IR
// version, opset imports and the graph's input/output signatures. It
// decodes the protobuf wire format directly and never materializes
// tensor payloads, so inspecting a large model stays cheap. Writing
// ONNX files is out of scope; the exporter toolchain owns that.
package onnxfile

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sys/unix"
	"google.golang.org/protobuf/encoding/protowire"
)

var (
	ErrMalformed = errors.New("malformed ONNX model")
	ErrNoGraph   = errors.New("model has no graph")
)

// Tensor element types, as assigned by the ONNX data type enum.
const (
	ElemFloat = 1
	ElemInt64 = 7
)

var elemTypeNames = map[int32]string{
	1:  "float32",
	2:  "uint8",
	3:  "int8",
	4:  "uint16",
	5:  "int16",
	6:  "int32",
	7:  "int64",
	8:  "string",
	9:  "bool",
	10: "float16",
	11: "float64",
	12: "uint32",
	13: "uint64",
	14: "complex64",
	15: "complex128",
	16: "bfloat16",
}

// ElemTypeName names a tensor element type for display.
func ElemTypeName(t int32) string {
	if s, ok := elemTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("elem(%d)", t)
}

// Model is the decoded structure of an ONNX file.
type Model struct {
	IRVersion       int64
	ProducerName    string
	ProducerVersion string
	Opsets          []Opset
	GraphName       string
	Nodes           int
	Initializers    int
	Inputs          []TensorInfo
	Outputs         []TensorInfo
}

// Opset is one operator set import of the model.
type Opset struct {
	Domain  string
	Version int64
}

// TensorInfo describes one graph input or output.
type TensorInfo struct {
	Name     string
	ElemType int32
	Dims     []Dim
}

// Dim is a single axis: fixed when Param is empty, symbolic otherwise.
type Dim struct {
	Value int64
	Param string
}

// ShapeString renders dims like "[batch_size, 512]".
func (t TensorInfo) ShapeString() string {
	parts := make([]string, len(t.Dims))
	for i, d := range t.Dims {
		if d.Param != "" {
			parts[i] = d.Param
		} else {
			parts[i] = strconv.FormatInt(d.Value, 10)
		}
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// DynamicAxes reports the symbolic axes by position.
func (t TensorInfo) DynamicAxes() map[int]string {
	axes := make(map[int]string)
	for i, d := range t.Dims {
		if d.Param != "" {
			axes[i] = d.Param
		}
	}
	return axes
}

// OpsetVersion reports the imported version for a domain. The default
// ONNX domain is the empty string.
func (m *Model) OpsetVersion(domain string) (int64, bool) {
	for _, op := range m.Opsets {
		if op.Domain == domain {
			return op.Version, true
		}
	}
	return 0, false
}

// Input finds a graph input by name.
func (m *Model) Input(name string) (TensorInfo, bool) {
	return findTensor(m.Inputs, name)
}

// Output finds a graph output by name.
func (m *Model) Output(name string) (TensorInfo, bool) {
	return findTensor(m.Outputs, name)
}

func findTensor(infos []TensorInfo, name string) (TensorInfo, bool) {
	for _, ti := range infos {
		if ti.Name == name {
			return ti, true
		}
	}
	return TensorInfo{}, false
}

// CheckIO verifies the graph exposes exactly the named inputs and
// outputs, in order.
func (m *Model) CheckIO(inputs, outputs []string) error {
	if got := tensorNames(m.Inputs); !slices.Equal(got, inputs) {
		return fmt.Errorf("onnxfile: graph inputs %v, want %v", got, inputs)
	}
	if got := tensorNames(m.Outputs); !slices.Equal(got, outputs) {
		return fmt.Errorf("onnxfile: graph outputs %v, want %v", got, outputs)
	}
	return nil
}

func tensorNames(infos []TensorInfo) []string {
	names := make([]string, len(infos))
	for i, ti := range infos {
		names[i] = ti.Name
	}
	return names
}

// ReadFile maps the file read-only, decodes it and releases the
// mapping before returning. Falls back to plain reads when mmap is
// unavailable.
func ReadFile(path string) (*Model, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return nil, err
	}
	size64 := stat.Size()
	if size64 <= 0 || size64 > int64(int(^uint(0)>>1)) {
		return nil, fmt.Errorf("onnxfile %s: %w: file size %d", path, ErrMalformed, size64)
	}
	size := int(size64)

	data, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ, unix.MAP_SHARED)
	if err == nil {
		// Parse copies everything it keeps, so the mapping can go
		// away immediately afterward.
		m, parseErr := Parse(data)
		_ = unix.Munmap(data)
		if parseErr != nil {
			return nil, fmt.Errorf("onnxfile %s: %w", path, parseErr)
		}
		return m, nil
	}

	data = make([]byte, size)
	var off int64
	for off < int64(size) {
		n, readErr := f.ReadAt(data[off:], off)
		off += int64(n)
		if readErr != nil {
			if errors.Is(readErr, io.EOF) && off == int64(size) {
				break
			}
			return nil, readErr
		}
	}
	m, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("onnxfile %s: %w", path, err)
	}
	return m, nil
}

// Parse decodes a serialized ModelProto.
func Parse(data []byte) (*Model, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrMalformed)
	}
	m := &Model{}
	hasGraph := false
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, wireErr(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return nil, wireErr(n)
			}
			m.IRVersion = int64(v)
			b = b[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, wireErr(n)
			}
			m.ProducerName = string(v)
			b = b[n:]
		case num == 3 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, wireErr(n)
			}
			m.ProducerVersion = string(v)
			b = b[n:]
		case num == 7 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, wireErr(n)
			}
			if err := parseGraph(v, m); err != nil {
				return nil, err
			}
			hasGraph = true
			b = b[n:]
		case num == 8 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, wireErr(n)
			}
			op, err := parseOpset(v)
			if err != nil {
				return nil, err
			}
			m.Opsets = append(m.Opsets, op)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return nil, wireErr(n)
			}
			b = b[n:]
		}
	}
	if !hasGraph {
		return nil, ErrNoGraph
	}
	return m, nil
}

func parseGraph(data []byte, m *Model) error {
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return wireErr(n)
		}
		b = b[n:]
		if typ != protowire.BytesType {
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return wireErr(n)
			}
			b = b[n:]
			continue
		}
		v, n := protowire.ConsumeBytes(b)
		if n < 0 {
			return wireErr(n)
		}
		b = b[n:]
		switch num {
		case 1:
			m.Nodes++
		case 2:
			m.GraphName = string(v)
		case 5:
			m.Initializers++
		case 11:
			ti, err := parseValueInfo(v)
			if err != nil {
				return err
			}
			m.Inputs = append(m.Inputs, ti)
		case 12:
			ti, err := parseValueInfo(v)
			if err != nil {
				return err
			}
			m.Outputs = append(m.Outputs, ti)
		}
	}
	return nil
}

func parseOpset(data []byte) (Opset, error) {
	var op Opset
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return op, wireErr(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return op, wireErr(n)
			}
			op.Domain = string(v)
			b = b[n:]
		case num == 2 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return op, wireErr(n)
			}
			op.Version = int64(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return op, wireErr(n)
			}
			b = b[n:]
		}
	}
	return op, nil
}

func parseValueInfo(data []byte) (TensorInfo, error) {
	var ti TensorInfo
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return ti, wireErr(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return ti, wireErr(n)
			}
			ti.Name = string(v)
			b = b[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return ti, wireErr(n)
			}
			if err := parseType(v, &ti); err != nil {
				return ti, err
			}
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return ti, wireErr(n)
			}
			b = b[n:]
		}
	}
	return ti, nil
}

func parseType(data []byte, ti *TensorInfo) error {
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return wireErr(n)
		}
		b = b[n:]
		if num == 1 && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return wireErr(n)
			}
			if err := parseTensorType(v, ti); err != nil {
				return err
			}
			b = b[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return wireErr(n)
		}
		b = b[n:]
	}
	return nil
}

func parseTensorType(data []byte, ti *TensorInfo) error {
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return wireErr(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return wireErr(n)
			}
			ti.ElemType = int32(v)
			b = b[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return wireErr(n)
			}
			dims, err := parseShape(v)
			if err != nil {
				return err
			}
			ti.Dims = dims
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return wireErr(n)
			}
			b = b[n:]
		}
	}
	return nil
}

func parseShape(data []byte) ([]Dim, error) {
	var dims []Dim
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return nil, wireErr(n)
		}
		b = b[n:]
		if num == 1 && typ == protowire.BytesType {
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return nil, wireErr(n)
			}
			d, err := parseDim(v)
			if err != nil {
				return nil, err
			}
			dims = append(dims, d)
			b = b[n:]
			continue
		}
		n = protowire.ConsumeFieldValue(num, typ, b)
		if n < 0 {
			return nil, wireErr(n)
		}
		b = b[n:]
	}
	return dims, nil
}

func parseDim(data []byte) (Dim, error) {
	var d Dim
	b := data
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return d, wireErr(n)
		}
		b = b[n:]
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return d, wireErr(n)
			}
			d.Value = int64(v)
			b = b[n:]
		case num == 2 && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return d, wireErr(n)
			}
			d.Param = string(v)
			b = b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return d, wireErr(n)
			}
			b = b[n:]
		}
	}
	return d, nil
}

func wireErr(n int) error {
	return fmt.Errorf("%w: %v", ErrMalformed, protowire.ParseError(n))
}
