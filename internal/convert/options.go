package convert

import "io"

// The exported graph's tensor contract. The silero checkpoint is traced
// with one 512-sample frame, a 2x128 recurrent state per batch lane and
// a 16 kHz sample rate marker; changing any of these would produce a
// graph incompatible with every downstream consumer.
const (
	WindowSize  = 512
	StateLayers = 2
	StateSize   = 128
	SampleRate  = 16000

	DefaultOpsetVersion = 16
)

// InputNames and OutputNames are the graph IO names, in graph order.
var (
	InputNames  = []string{"input", "state", "sr"}
	OutputNames = []string{"output", "new_state"}
)

// DynamicAxes maps tensor name to axis position to symbolic axis name.
// Batch axes stay symbolic so one exported graph serves any batch size.
var DynamicAxes = map[string]map[int]string{
	"input":     {0: "batch_size", 1: "sequence"},
	"state":     {1: "batch_size"},
	"output":    {0: "batch_size"},
	"new_state": {1: "batch_size"},
}

// DummyInputSpec pins the example tensors that drive the export trace.
// The frame is drawn from a normal distribution, the state starts
// zeroed and the sample rate rides along as a one-element int64 tensor.
type DummyInputSpec struct {
	FrameShape []int `json:"frame_shape"`
	StateShape []int `json:"state_shape"`
	SampleRate int   `json:"sample_rate"`
}

// NewDummyInputSpec builds the spec from the declared contract.
func NewDummyInputSpec() DummyInputSpec {
	return DummyInputSpec{
		FrameShape: []int{1, WindowSize},
		StateShape: []int{StateLayers, 1, StateSize},
		SampleRate: SampleRate,
	}
}

// LoadOptions model the framework-global flags applied around loading:
// gradient tracking off and inference (eval) mode on. Use
// DefaultLoadOptions unless a caller has a reason not to.
type LoadOptions struct {
	DisableGrad bool
	EvalMode    bool
}

// DefaultLoadOptions disables gradient tracking and selects eval mode.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{DisableGrad: true, EvalMode: true}
}

// ExportOptions control the bridge invocation. Zero values for the
// bool knobs mean "off", so build on DefaultExportOptions.
type ExportOptions struct {
	OpsetVersion    int
	ExportParams    bool
	ConstantFolding bool

	// PythonBin overrides interpreter resolution.
	PythonBin string

	// SkipVerify disables the structural check of the produced file.
	SkipVerify bool

	// Bridge process output. Nil writers keep the output captured for
	// error reporting only.
	Stdout io.Writer
	Stderr io.Writer
}

// DefaultExportOptions carry the fixed conversion contract.
func DefaultExportOptions() ExportOptions {
	return ExportOptions{
		OpsetVersion:    DefaultOpsetVersion,
		ExportParams:    true,
		ConstantFolding: true,
	}
}
