package cpu

import (
	"fmt"
	"math"

	"github.com/trace-ml/trace/internal/tensor"
)

// CrossEntropy computes the mean negative log-likelihood of int64 class
// indices under softmax(logits), using the log-sum-exp trick.
//
//	loss = mean_b( logsumexp(logits[b]) - logits[b][target[b]] )
func (cpu *CPUBackend) CrossEntropy(logits, targets *tensor.RawTensor) *tensor.RawTensor {
	lShape := logits.Shape()
	if len(lShape) != 2 {
		panic(fmt.Sprintf("crossentropy: expected 2D logits [batch, classes], got %v", lShape))
	}
	if len(targets.Shape()) != 1 || targets.Shape()[0] != lShape[0] {
		panic(fmt.Sprintf("crossentropy: expected targets [%d], got %v", lShape[0], targets.Shape()))
	}
	if targets.DType() != tensor.Int64 {
		panic("crossentropy: targets must be int64 class indices")
	}

	batch, classes := lShape[0], lShape[1]
	idx := targets.AsInt64()
	result := newRaw(tensor.Shape{}, logits.DType(), cpu.device, "crossentropy")

	switch logits.DType() {
	case tensor.Float32:
		result.AsFloat32()[0] = float32(crossEntropyKernel(logits.AsFloat32(), idx, batch, classes))
	case tensor.Float64:
		result.AsFloat64()[0] = crossEntropyKernel(logits.AsFloat64(), idx, batch, classes)
	default:
		panic("crossentropy: only float32 and float64 logits are supported")
	}
	return result
}

func crossEntropyKernel[T ~float32 | ~float64](logits []T, targets []int64, batch, classes int) float64 {
	var total float64
	for b := 0; b < batch; b++ {
		row := logits[b*classes : (b+1)*classes]

		target := targets[b]
		if target < 0 || int(target) >= classes {
			panic(fmt.Sprintf("crossentropy: target %d out of range [0, %d)", target, classes))
		}

		maxVal := row[0]
		for _, v := range row[1:] {
			if v > maxVal {
				maxVal = v
			}
		}
		var sumExp float64
		for _, v := range row {
			sumExp += math.Exp(float64(v - maxVal))
		}
		logSumExp := float64(maxVal) + math.Log(sumExp)
		total += logSumExp - float64(row[target])
	}
	return total / float64(batch)
}
