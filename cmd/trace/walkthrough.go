package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/trace-ml/trace/autodiff"
	"github.com/trace-ml/trace/backend/cpu"
	"github.com/trace-ml/trace/backend/webgpu"
	"github.com/trace-ml/trace/tensor"
)

var walkthroughCmd = &cobra.Command{
	Use:   "walkthrough",
	Short: "Run a narrated tour of tape-based differentiation",
	Long: `Builds a small computation graph, runs the reverse pass, and prints
every intermediate result: tracked tensor construction, element-wise
arithmetic, reduction to a scalar, gradients, seeded reverse passes on
non-scalar outputs, and detaching tensors from the tape.`,
	Run: func(cmd *cobra.Command, args []string) {
		name, _ := cmd.Flags().GetString("backend")
		switch name {
		case "cpu":
			runWalkthrough(cpu.New())
		case "webgpu":
			gpu, err := webgpu.New()
			if err != nil {
				fmt.Fprintf(os.Stderr, "webgpu unavailable (%v), falling back to cpu\n", err)
				runWalkthrough(cpu.New())
				return
			}
			defer gpu.Release()
			runWalkthrough(gpu)
		default:
			fmt.Fprintf(os.Stderr, "unknown backend %q\n", name)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(walkthroughCmd)
}

func runWalkthrough[B tensor.Backend](inner B) {
	backend := autodiff.New(inner)
	backend.Tape().StartRecording()

	fmt.Printf("backend: %s\n\n", backend.Name())

	fmt.Println("-- forward pass --")
	x := tensor.Ones[float32](tensor.Shape{2, 2}, backend).RequireGrad()
	fmt.Println("x = ones(2, 2), tracked:")
	printMatrix(x)

	y := x.AddScalar(float32(2))
	fmt.Println("y = x + 2:")
	printMatrix(y)

	z := y.Mul(y).MulScalar(float32(3))
	fmt.Println("z = 3 * y * y:")
	printMatrix(z)

	out := z.Mean()
	fmt.Printf("out = mean(z) = %.1f\n", out.Item())
	fmt.Printf("operations on tape: %d\n\n", backend.Tape().NumOps())

	fmt.Println("-- reverse pass --")
	grads, err := autodiff.Backward(out, backend)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	autodiff.Accumulate(grads, backend, x)
	// d out / d x = 3 * 2 * (x+2) / 4 = 4.5 at x = 1
	fmt.Println("d out / d x:")
	printMatrix(x.Grad())

	fmt.Println("-- seeded reverse pass (non-scalar output) --")
	backend.Tape().Clear()
	a := tensor.Ones[float32](tensor.Shape{2, 2}, backend).RequireGrad()
	b := a.MulScalar(float32(2))
	if _, err := autodiff.Backward(b, backend); err != nil {
		fmt.Printf("backward on non-scalar without a seed: %v\n", err)
	}
	seed := tensor.Full[float32](tensor.Shape{2, 2}, 0.5, backend)
	seeded, err := autodiff.BackwardWithGrad(b, seed, backend)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	autodiff.Accumulate(seeded, backend, a)
	fmt.Println("with seed 0.5: d b / d a scaled to 1.0 everywhere:")
	printMatrix(a.Grad())

	fmt.Println("-- leaving the tape --")
	detached := x.Detach()
	fmt.Printf("x.Detach() tracked: %v\n", detached.RequiresGrad())
	autodiff.NoGrad(backend, func() {
		before := backend.Tape().NumOps()
		_ = x.AddScalar(float32(10))
		fmt.Printf("ops recorded inside NoGrad: %d\n", backend.Tape().NumOps()-before)
	})
}

func printMatrix[B tensor.Backend](t *tensor.Tensor[float32, B]) {
	shape := t.Shape()
	for i := 0; i < shape[0]; i++ {
		for j := 0; j < shape[1]; j++ {
			fmt.Printf("  %6.2f", t.At(i, j))
		}
		fmt.Println()
	}
	fmt.Println()
}
