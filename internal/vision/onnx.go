package vision

import (
	"context"
	"fmt"
	"strings"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/multierr"
)

// ONNXConfig locates a Faster R-CNN ONNX export and names its tensors.
type ONNXConfig struct {
	ModelPath     string
	SharedLibPath string
	InputName     string
	BoxesOutput   string
	LabelsOutput  string
	ScoresOutput  string
}

// ONNXEngine runs a detection model through ONNX Runtime. The session is created once
// and never mutated; every Infer call allocates its own tensors, so concurrent calls
// are safe.
type ONNXEngine struct {
	session *ort.DynamicAdvancedSession
	batched bool
}

// NewONNXEngine loads the shared library, the environment and the model session.
func NewONNXEngine(cfg ONNXConfig) (*ONNXEngine, error) {
	if cfg.SharedLibPath != "" {
		ort.SetSharedLibraryPath(cfg.SharedLibPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("onnx init environment: %w", err)
		}
	}

	inputs, outputs, err := ort.GetInputOutputInfo(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx get input/output info: %w", err)
	}
	if len(inputs) == 0 || len(outputs) == 0 {
		return nil, fmt.Errorf("onnx model has no inputs or outputs")
	}

	inputName := cfg.InputName
	if inputName == "" {
		inputName = inputs[0].Name
	}
	var inputRank int
	for _, in := range inputs {
		if in.Name == inputName {
			inputRank = len(in.Dimensions)
		}
	}
	if inputRank == 0 {
		return nil, fmt.Errorf("onnx model has no input named %q", inputName)
	}

	outputNames := []string{cfg.BoxesOutput, cfg.LabelsOutput, cfg.ScoresOutput}
	available := make(map[string]bool, len(outputs))
	for _, out := range outputs {
		available[out.Name] = true
	}
	for _, name := range outputNames {
		if !available[name] {
			known := make([]string, 0, len(outputs))
			for _, out := range outputs {
				known = append(known, out.Name)
			}
			return nil, fmt.Errorf("onnx model has no output named %q (outputs: %s)", name, strings.Join(known, ", "))
		}
	}

	session, err := ort.NewDynamicAdvancedSession(cfg.ModelPath, []string{inputName}, outputNames, nil)
	if err != nil {
		return nil, fmt.Errorf("onnx new session: %w", err)
	}
	return &ONNXEngine{session: session, batched: inputRank == 4}, nil
}

func (e *ONNXEngine) Infer(ctx context.Context, input Tensor) ([]Candidate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	shape := ort.NewShape(int64(input.Channels), int64(input.Height), int64(input.Width))
	if e.batched {
		shape = ort.NewShape(1, int64(input.Channels), int64(input.Height), int64(input.Width))
	}
	in, err := ort.NewTensor(shape, input.Data)
	if err != nil {
		return nil, fmt.Errorf("onnx new input tensor: %w", err)
	}
	defer in.Destroy()

	// Output shapes depend on how many boxes survive, so ONNX Runtime allocates them.
	outputs := []ort.Value{nil, nil, nil}
	if err := e.session.Run([]ort.Value{in}, outputs); err != nil {
		return nil, fmt.Errorf("onnx run: %w", err)
	}
	defer func() {
		for _, out := range outputs {
			if out != nil {
				out.Destroy()
			}
		}
	}()

	boxes, ok := outputs[0].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("onnx boxes output has unexpected type %T", outputs[0])
	}
	labels, ok := outputs[1].(*ort.Tensor[int64])
	if !ok {
		return nil, fmt.Errorf("onnx labels output has unexpected type %T", outputs[1])
	}
	scores, ok := outputs[2].(*ort.Tensor[float32])
	if !ok {
		return nil, fmt.Errorf("onnx scores output has unexpected type %T", outputs[2])
	}
	return decodeCandidates(boxes.GetData(), labels.GetData(), scores.GetData()), nil
}

func (e *ONNXEngine) Close() error {
	var closeErr error
	if e.session != nil {
		closeErr = e.session.Destroy()
		e.session = nil
	}
	if ort.IsInitialized() {
		closeErr = multierr.Append(closeErr, ort.DestroyEnvironment())
	}
	return closeErr
}

// decodeCandidates zips flat boxes [N*4], labels [N] and scores [N] outputs.
func decodeCandidates(boxes []float32, labels []int64, scores []float32) []Candidate {
	n := len(labels)
	if len(scores) < n {
		n = len(scores)
	}
	if len(boxes)/4 < n {
		n = len(boxes) / 4
	}

	out := make([]Candidate, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, Candidate{
			ClassID: labels[i],
			Score:   scores[i],
			Box: Box{
				X1: boxes[4*i],
				Y1: boxes[4*i+1],
				X2: boxes[4*i+2],
				Y2: boxes[4*i+3],
			},
		})
	}
	return out
}
