package nn

import (
	"fmt"

	"github.com/trace-ml/trace/internal/tensor"
)

// CrossEntropyLoss computes the mean negative log-likelihood of the target
// classes under softmax(logits). The backend fuses log-softmax and the
// class selection for numerical stability, and the recorded operation
// carries the closed-form gradient (softmax - onehot) / batch.
type CrossEntropyLoss[B tensor.Backend] struct{}

// NewCrossEntropyLoss creates a cross-entropy loss function.
func NewCrossEntropyLoss[B tensor.Backend]() *CrossEntropyLoss[B] {
	return &CrossEntropyLoss[B]{}
}

// Forward returns the scalar loss for logits [batch, classes] against
// int64 class indices [batch].
func (c *CrossEntropyLoss[B]) Forward(logits *tensor.Tensor[float32, B], targets *tensor.Tensor[int64, B]) *tensor.Tensor[float32, B] {
	if len(logits.Shape()) != 2 {
		panic(fmt.Sprintf("CrossEntropyLoss: expected 2D logits [batch, classes], got shape %v", logits.Shape()))
	}
	if len(targets.Shape()) != 1 || targets.Shape()[0] != logits.Shape()[0] {
		panic(fmt.Sprintf("CrossEntropyLoss: expected targets [%d], got shape %v", logits.Shape()[0], targets.Shape()))
	}

	backend := logits.Backend()
	raw := backend.CrossEntropy(logits.Raw(), targets.Raw())
	return tensor.New[float32, B](raw, backend)
}

// Parameters returns nil: loss functions have no trainable parameters.
func (c *CrossEntropyLoss[B]) Parameters() []*Parameter[B] { return nil }
