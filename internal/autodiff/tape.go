package autodiff

import (
	"github.com/trace-ml/trace/internal/autodiff/ops"
	"github.com/trace-ml/trace/internal/tensor"
)

// Tape records operations during the forward pass and replays them in
// reverse to compute gradients.
//
// Usage:
//
//	tape.StartRecording()
//	// ... forward pass ...
//	grads := tape.Backward(out.Raw(), seed, backend)
type Tape struct {
	operations []ops.Operation // in execution order
	recording  bool
}

// NewTape creates an empty tape.
func NewTape() *Tape {
	return &Tape{operations: make([]ops.Operation, 0, 64)}
}

// StartRecording enables operation recording.
func (t *Tape) StartRecording() {
	t.recording = true
}

// StopRecording disables operation recording.
func (t *Tape) StopRecording() {
	t.recording = false
}

// IsRecording reports whether the tape is currently recording.
func (t *Tape) IsRecording() bool {
	return t.recording
}

// Record appends an operation if the tape is recording.
func (t *Tape) Record(op ops.Operation) {
	if t.recording {
		t.operations = append(t.operations, op)
	}
}

// Clear drops all recorded operations. Recording state is preserved so the
// tape can be reset between training iterations without re-arming it.
func (t *Tape) Clear() {
	t.operations = t.operations[:0]
}

// NumOps returns the number of recorded operations.
func (t *Tape) NumOps() int {
	return len(t.operations)
}

// Backward walks the recorded operations in reverse from output, seeded
// with seed (dL/d output), applying each operation's chain rule and
// summing gradients for tensors that feed multiple operations.
//
// Returns a map from input RawTensor to its accumulated gradient.
// Operations whose output received no gradient are skipped: they are not
// on any path from the seeded output.
func (t *Tape) Backward(output, seed *tensor.RawTensor, backend tensor.Backend) map[*tensor.RawTensor]*tensor.RawTensor {
	grads := make(map[*tensor.RawTensor]*tensor.RawTensor)
	if len(t.operations) == 0 {
		return grads
	}

	// Gradient arithmetic below must not be recorded as new operations.
	wasRecording := t.recording
	t.recording = false
	defer func() { t.recording = wasRecording }()

	grads[output] = seed

	for i := len(t.operations) - 1; i >= 0; i-- {
		op := t.operations[i]
		outputGrad, ok := grads[op.Output()]
		if !ok {
			continue
		}

		inputGrads := op.Backward(outputGrad, backend)
		for j, input := range op.Inputs() {
			if j >= len(inputGrads) || inputGrads[j] == nil {
				continue
			}
			if existing, ok := grads[input]; ok {
				grads[input] = backend.Add(existing, inputGrads[j])
			} else {
				grads[input] = inputGrads[j]
			}
		}
	}

	return grads
}
