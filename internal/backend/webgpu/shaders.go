//go:build windows

package webgpu

// workgroupSize is the number of threads per workgroup. All element-wise
// shaders below hardcode the same value in their @workgroup_size attribute.
const workgroupSize = 256

// matmulTile is the square workgroup edge for the matmul shader.
const matmulTile = 16

// binaryShader builds a WGSL compute shader for an element-wise binary
// operation. expr combines a[idx] and b[idx], e.g. "a[idx] + b[idx]".
func binaryShader(expr string) string {
	return `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = ` + expr + `;
    }
}
`
}

// unaryShader builds a WGSL compute shader for an element-wise unary
// operation. expr transforms input[idx], e.g. "exp(input[idx])".
func unaryShader(expr string) string {
	return `
@group(0) @binding(0) var<storage, read> input: array<f32>;
@group(0) @binding(1) var<storage, read_write> result: array<f32>;

struct Params {
    size: u32,
}
@group(0) @binding(2) var<uniform> params: Params;

@compute @workgroup_size(256)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let idx = global_id.x;
    if (idx < params.size) {
        result[idx] = ` + expr + `;
    }
}
`
}

var (
	addShader = binaryShader("a[idx] + b[idx]")
	subShader = binaryShader("a[idx] - b[idx]")
	mulShader = binaryShader("a[idx] * b[idx]")
	divShader = binaryShader("a[idx] / b[idx]")

	negShader     = unaryShader("-input[idx]")
	expShader     = unaryShader("exp(input[idx])")
	logShader     = unaryShader("log(input[idx])")
	sqrtShader    = unaryShader("sqrt(input[idx])")
	reluShader    = unaryShader("max(input[idx], 0.0)")
	sigmoidShader = unaryShader("1.0 / (1.0 + exp(-input[idx]))")
	tanhShader    = unaryShader("tanh(input[idx])")
)

// matmulShader computes result = a @ b for row-major matrices.
// a is [M, K], b is [K, N], result is [M, N]. One thread per output
// element, workgroups tiled 16x16 over (N, M).
const matmulShader = `
@group(0) @binding(0) var<storage, read> a: array<f32>;
@group(0) @binding(1) var<storage, read> b: array<f32>;
@group(0) @binding(2) var<storage, read_write> result: array<f32>;

struct Params {
    m: u32,
    k: u32,
    n: u32,
}
@group(0) @binding(3) var<uniform> params: Params;

@compute @workgroup_size(16, 16)
fn main(@builtin(global_invocation_id) global_id: vec3<u32>) {
    let col = global_id.x;
    let row = global_id.y;
    if (row >= params.m || col >= params.n) {
        return;
    }

    var sum: f32 = 0.0;
    for (var i: u32 = 0u; i < params.k; i = i + 1u) {
        sum = sum + a[row * params.k + i] * b[i * params.n + col];
    }
    result[row * params.n + col] = sum;
}
`
