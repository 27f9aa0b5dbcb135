// Package config loads retouch settings from YAML. Command-line flags are
// applied on top by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Models locates the inference models and runtime
type Models struct {
	SCRFD         string `yaml:"scrfd"`
	FaceMesh      string `yaml:"face_mesh"`
	RuntimeLib    string `yaml:"runtime_lib"`
	CoreML        bool   `yaml:"coreml"`
	MeshInput     string `yaml:"mesh_input"`
	MeshLandmarks string `yaml:"mesh_landmarks"`
	MeshScore     string `yaml:"mesh_score"`
	MeshNHWC      bool   `yaml:"mesh_nhwc"`
}

// Detection tunes the face detector
type Detection struct {
	InputSize  int     `yaml:"input_size"`
	MeshSize   int     `yaml:"mesh_size"`
	Confidence float32 `yaml:"confidence"`
	NMS        float32 `yaml:"nms"`
	MeshScore  float32 `yaml:"mesh_score"`
	CropScale  float32 `yaml:"crop_scale"`
}

// Editor tunes the interactive editor
type Editor struct {
	Debounce    time.Duration `yaml:"debounce"`
	PreviewSize int           `yaml:"preview_size"`
}

// Log selects log level and format
type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config is the complete settings tree
type Config struct {
	Models    Models    `yaml:"models"`
	Detection Detection `yaml:"detection"`
	Editor    Editor    `yaml:"editor"`
	Log       Log       `yaml:"log"`
}

// Default returns settings that work with the stock model files in ./models
func Default() Config {
	return Config{
		Models: Models{
			SCRFD:         "models/scrfd_10g.onnx",
			FaceMesh:      "models/face_mesh.onnx",
			MeshInput:     "input",
			MeshLandmarks: "landmarks",
			MeshScore:     "score",
		},
		Detection: Detection{
			InputSize:  640,
			MeshSize:   192,
			Confidence: 0.5,
			NMS:        0.4,
			MeshScore:  0.5,
			CropScale:  1.5,
		},
		Editor: Editor{
			Debounce:    100 * time.Millisecond,
			PreviewSize: 900,
		},
		Log: Log{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default values.
func Load(path string) (Config, error) {
	c := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.UnmarshalStrict(data, &c); err != nil {
		return c, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("config %s: %w", path, err)
	}
	return c, nil
}

// Validate reports every out-of-range setting at once
func (c Config) Validate() error {
	var errs []error

	if c.Models.SCRFD == "" {
		errs = append(errs, errors.New("models.scrfd is required"))
	}
	if c.Models.FaceMesh == "" {
		errs = append(errs, errors.New("models.face_mesh is required"))
	}
	if c.Detection.InputSize <= 0 || c.Detection.InputSize%32 != 0 {
		errs = append(errs, fmt.Errorf("detection.input_size %d must be a positive multiple of 32", c.Detection.InputSize))
	}
	if c.Detection.MeshSize <= 0 {
		errs = append(errs, fmt.Errorf("detection.mesh_size %d must be positive", c.Detection.MeshSize))
	}
	for name, v := range map[string]float32{
		"detection.confidence": c.Detection.Confidence,
		"detection.nms":        c.Detection.NMS,
		"detection.mesh_score": c.Detection.MeshScore,
	} {
		if v < 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s %.2f must be within [0,1]", name, v))
		}
	}
	if c.Detection.CropScale < 1 {
		errs = append(errs, fmt.Errorf("detection.crop_scale %.2f must be at least 1", c.Detection.CropScale))
	}
	if c.Editor.Debounce < 0 {
		errs = append(errs, fmt.Errorf("editor.debounce %s must not be negative", c.Editor.Debounce))
	}
	if c.Editor.PreviewSize < 64 {
		errs = append(errs, fmt.Errorf("editor.preview_size %d must be at least 64", c.Editor.PreviewSize))
	}

	return errors.Join(errs...)
}

// Write saves c as YAML
func (c Config) Write(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
