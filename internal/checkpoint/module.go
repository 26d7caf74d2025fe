package checkpoint

import (
	"github.com/pkg/errors"

	"github.com/trace-ml/trace/internal/nn"
	"github.com/trace-ml/trace/internal/tensor"
)

// SaveModule writes a module's parameters to path.
func SaveModule[B tensor.Backend](path string, module nn.Module[B], opts SaveOptions) error {
	return Save(path, module.StateDict(), opts)
}

// LoadModule restores a module's parameters from path. The module must
// already be constructed with matching shapes.
func LoadModule[B tensor.Backend](path string, module nn.Module[B], backend B) (*Header, error) {
	stateDict, header, err := Load(path, backend.Device())
	if err != nil {
		return nil, err
	}
	if err := module.LoadStateDict(stateDict); err != nil {
		return nil, errors.Wrap(err, "load state dict")
	}
	return header, nil
}
