package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "retouch.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, Default().Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeFile(t, `
models:
  face_mesh: /opt/models/mesh.onnx
  mesh_nhwc: true
detection:
  confidence: 0.7
editor:
  debounce: 250ms
log:
  level: debug
`)

	c, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/opt/models/mesh.onnx", c.Models.FaceMesh)
	assert.True(t, c.Models.MeshNHWC)
	assert.Equal(t, float32(0.7), c.Detection.Confidence)
	assert.Equal(t, 250*time.Millisecond, c.Editor.Debounce)
	assert.Equal(t, "debug", c.Log.Level)

	// untouched keys keep their defaults
	assert.Equal(t, "models/scrfd_10g.onnx", c.Models.SCRFD)
	assert.Equal(t, 640, c.Detection.InputSize)
	assert.Equal(t, "console", c.Log.Format)
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	_, err := Load(writeFile(t, "detection:\n  treshold: 0.4\n"))
	assert.Error(t, err)
}

func TestLoadValidates(t *testing.T) {
	_, err := Load(writeFile(t, "detection:\n  input_size: 500\n  nms: 1.5\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input_size")
	assert.Contains(t, err.Error(), "detection.nms")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestWriteThenLoad(t *testing.T) {
	c := Default()
	c.Editor.PreviewSize = 1200
	c.Models.RuntimeLib = "/usr/lib/libonnxruntime.so"
	path := filepath.Join(t.TempDir(), "out.yml")

	require.NoError(t, c.Write(path))
	back, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, c, back)
}
