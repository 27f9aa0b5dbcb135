//go:build darwin

package main

import (
	"fmt"

	"github.com/tsawler/go-metal/checkpoints"
)

// checkMetal reports whether go-metal can import the model. go-metal only
// knows a small operator set, so most face models fail here.
func checkMetal(path string) error {
	checkpoint, err := checkpoints.NewONNXImporter().ImportFromONNX(path)
	if err != nil {
		return fmt.Errorf("go-metal import: %w", err)
	}

	fmt.Printf("  go-metal: %d layers, %d weight tensors\n", len(checkpoint.ModelSpec.Layers), len(checkpoint.Weights))
	for i, layer := range checkpoint.ModelSpec.Layers {
		fmt.Printf("    %d: %s (%v)\n", i+1, layer.Name, layer.Type)
	}
	return nil
}
