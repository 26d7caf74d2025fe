package ops

import (
	"github.com/trace-ml/trace/internal/tensor"
)

// CrossEntropyOp records output = mean(-log_softmax(logits)[targets]).
//
// The gradient has the well-known closed form:
//
//	d loss / d logits = (softmax(logits) - onehot(targets)) / batch
//
// Targets are class indices, not differentiated; Inputs() therefore only
// reports the logits.
type CrossEntropyOp struct {
	inputs  []*tensor.RawTensor // [logits]
	targets *tensor.RawTensor   // int64 class indices [batch]
	output  *tensor.RawTensor   // scalar loss
}

// NewCrossEntropyOp creates a CrossEntropyOp.
func NewCrossEntropyOp(logits, targets, output *tensor.RawTensor) *CrossEntropyOp {
	return &CrossEntropyOp{
		inputs:  []*tensor.RawTensor{logits},
		targets: targets,
		output:  output,
	}
}

// Backward computes (softmax(logits) - onehot) · grad / batch.
func (op *CrossEntropyOp) Backward(outputGrad *tensor.RawTensor, backend tensor.Backend) []*tensor.RawTensor {
	logits := op.inputs[0]
	batch := logits.Shape()[0]
	classes := logits.Shape()[1]

	scale := scalarValue(outputGrad) / float64(batch)
	grad := backend.MulScalar(backend.Softmax(logits, -1), scale)
	idx := op.targets.AsInt64()

	switch grad.DType() {
	case tensor.Float32:
		data := grad.AsFloat32()
		for b := 0; b < batch; b++ {
			data[b*classes+int(idx[b])] -= float32(scale)
		}
	case tensor.Float64:
		data := grad.AsFloat64()
		for b := 0; b < batch; b++ {
			data[b*classes+int(idx[b])] -= scale
		}
	default:
		panic("crossentropy backward: only float32 and float64 are supported")
	}

	return []*tensor.RawTensor{grad}
}

// Inputs returns [logits].
func (op *CrossEntropyOp) Inputs() []*tensor.RawTensor { return op.inputs }

// Output returns the scalar loss.
func (op *CrossEntropyOp) Output() *tensor.RawTensor { return op.output }
