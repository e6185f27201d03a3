// Package onnxfiletest assembles tiny serialized ONNX models for tests.
// Only the structural fields matter; graphs built here hold a single
// Identity node and one dummy initializer and cannot be executed.
package onnxfiletest

import "google.golang.org/protobuf/encoding/protowire"

// DimSpec mirrors one shape axis: Param names a symbolic axis,
// otherwise Value is a fixed size.
type DimSpec struct {
	Value int64
	Param string
}

// TensorSpec describes one graph input or output.
type TensorSpec struct {
	Name     string
	ElemType int32
	Dims     []DimSpec
}

// ModelSpec describes the fixture to build.
type ModelSpec struct {
	IRVersion       int64
	ProducerName    string
	ProducerVersion string
	OpsetVersion    int64
	GraphName       string
	Inputs          []TensorSpec
	Outputs         []TensorSpec
}

// Build serializes spec as a ModelProto.
func Build(spec ModelSpec) []byte {
	var graph []byte

	node := protowire.AppendTag(nil, 4, protowire.BytesType)
	node = protowire.AppendString(node, "Identity")
	graph = protowire.AppendTag(graph, 1, protowire.BytesType)
	graph = protowire.AppendBytes(graph, node)

	graph = protowire.AppendTag(graph, 2, protowire.BytesType)
	graph = protowire.AppendString(graph, spec.GraphName)

	init := protowire.AppendTag(nil, 1, protowire.VarintType)
	init = protowire.AppendVarint(init, 1)
	init = protowire.AppendTag(init, 2, protowire.VarintType)
	init = protowire.AppendVarint(init, 1)
	init = protowire.AppendTag(init, 8, protowire.BytesType)
	init = protowire.AppendString(init, "weight")
	graph = protowire.AppendTag(graph, 5, protowire.BytesType)
	graph = protowire.AppendBytes(graph, init)

	for _, in := range spec.Inputs {
		graph = protowire.AppendTag(graph, 11, protowire.BytesType)
		graph = protowire.AppendBytes(graph, valueInfo(in))
	}
	for _, out := range spec.Outputs {
		graph = protowire.AppendTag(graph, 12, protowire.BytesType)
		graph = protowire.AppendBytes(graph, valueInfo(out))
	}

	var model []byte
	model = protowire.AppendTag(model, 1, protowire.VarintType)
	model = protowire.AppendVarint(model, uint64(spec.IRVersion))
	if spec.ProducerName != "" {
		model = protowire.AppendTag(model, 2, protowire.BytesType)
		model = protowire.AppendString(model, spec.ProducerName)
	}
	if spec.ProducerVersion != "" {
		model = protowire.AppendTag(model, 3, protowire.BytesType)
		model = protowire.AppendString(model, spec.ProducerVersion)
	}
	model = protowire.AppendTag(model, 7, protowire.BytesType)
	model = protowire.AppendBytes(model, graph)

	opset := protowire.AppendTag(nil, 2, protowire.VarintType)
	opset = protowire.AppendVarint(opset, uint64(spec.OpsetVersion))
	model = protowire.AppendTag(model, 8, protowire.BytesType)
	model = protowire.AppendBytes(model, opset)

	return model
}

func valueInfo(t TensorSpec) []byte {
	tt := protowire.AppendTag(nil, 1, protowire.VarintType)
	tt = protowire.AppendVarint(tt, uint64(t.ElemType))
	var shape []byte
	for _, d := range t.Dims {
		var dim []byte
		if d.Param != "" {
			dim = protowire.AppendTag(nil, 2, protowire.BytesType)
			dim = protowire.AppendString(dim, d.Param)
		} else {
			dim = protowire.AppendTag(nil, 1, protowire.VarintType)
			dim = protowire.AppendVarint(dim, uint64(d.Value))
		}
		shape = protowire.AppendTag(shape, 1, protowire.BytesType)
		shape = protowire.AppendBytes(shape, dim)
	}
	tt = protowire.AppendTag(tt, 2, protowire.BytesType)
	tt = protowire.AppendBytes(tt, shape)

	typeMsg := protowire.AppendTag(nil, 1, protowire.BytesType)
	typeMsg = protowire.AppendBytes(typeMsg, tt)

	vi := protowire.AppendTag(nil, 1, protowire.BytesType)
	vi = protowire.AppendString(vi, t.Name)
	vi = protowire.AppendTag(vi, 2, protowire.BytesType)
	vi = protowire.AppendBytes(vi, typeMsg)
	return vi
}

// BuildSilero builds a model with the exported silero VAD signature:
// inputs input/state/sr, outputs output/new_state, batch axes symbolic,
// default opset 16.
func BuildSilero() []byte {
	return Build(ModelSpec{
		IRVersion:       8,
		ProducerName:    "pytorch",
		ProducerVersion: "2.1.0",
		OpsetVersion:    16,
		GraphName:       "main_graph",
		Inputs: []TensorSpec{
			{Name: "input", ElemType: 1, Dims: []DimSpec{{Param: "batch_size"}, {Param: "sequence"}}},
			{Name: "state", ElemType: 1, Dims: []DimSpec{{Value: 2}, {Param: "batch_size"}, {Value: 128}}},
			{Name: "sr", ElemType: 7, Dims: []DimSpec{{Value: 1}}},
		},
		Outputs: []TensorSpec{
			{Name: "output", ElemType: 1, Dims: []DimSpec{{Param: "batch_size"}, {Value: 1}}},
			{Name: "new_state", ElemType: 1, Dims: []DimSpec{{Value: 2}, {Param: "batch_size"}, {Value: 128}}},
		},
	})
}
