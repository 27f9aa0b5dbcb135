package inference

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	ort "github.com/yalue/onnxruntime_go"
)

var (
	initialized bool
	initMu      sync.Mutex
)

// Options configure the ONNX Runtime environment and its sessions
type Options struct {
	LibraryPath string // shared library, e.g. /usr/lib/libonnxruntime.so
	CoreML      bool   // try the CoreML execution provider first
	Log         zerolog.Logger
}

var opts Options

// Initialize sets up the ONNX Runtime environment (call once at startup)
func Initialize(o Options) error {
	initMu.Lock()
	defer initMu.Unlock()

	if initialized {
		return nil
	}

	if o.LibraryPath != "" {
		ort.SetSharedLibraryPath(o.LibraryPath)
	}

	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX Runtime: %w", err)
	}

	opts = o
	initialized = true
	return nil
}

// Shutdown cleans up the ONNX Runtime environment
func Shutdown() error {
	initMu.Lock()
	defer initMu.Unlock()

	if !initialized {
		return nil
	}

	if err := ort.DestroyEnvironment(); err != nil {
		return err
	}

	initialized = false
	return nil
}

// Session wraps an ONNX Runtime inference session
type Session struct {
	session     *ort.DynamicAdvancedSession
	modelPath   string
	inputNames  []string
	outputNames []string
}

// NewSession creates an inference session for an ONNX model
func NewSession(modelPath string, inputNames, outputNames []string) (*Session, error) {
	initMu.Lock()
	ready, o := initialized, opts
	initMu.Unlock()

	if !ready {
		return nil, fmt.Errorf("ONNX Runtime not initialized, call Initialize() first")
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("failed to create session options: %w", err)
	}
	defer options.Destroy()

	provider := "cpu"
	if o.CoreML {
		// Flag 0 = default settings, Neural Engine + GPU
		if err := options.AppendExecutionProviderCoreML(0); err != nil {
			o.Log.Warn().Err(err).Str("model", modelPath).Msg("CoreML unavailable, using CPU")
		} else {
			provider = "coreml"
		}
	}

	session, err := ort.NewDynamicAdvancedSession(
		modelPath,
		inputNames,
		outputNames,
		options,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create session for %s: %w", modelPath, err)
	}

	o.Log.Debug().Str("model", modelPath).Str("provider", provider).Msg("session ready")

	return &Session{
		session:     session,
		modelPath:   modelPath,
		inputNames:  inputNames,
		outputNames: outputNames,
	}, nil
}

// Run executes inference with the given inputs
func (s *Session) Run(inputs []ort.Value, outputs []ort.Value) error {
	return s.session.Run(inputs, outputs)
}

// Destroy releases session resources
func (s *Session) Destroy() error {
	if s.session != nil {
		return s.session.Destroy()
	}
	return nil
}

// CreateEmptyTensor creates a zeroed tensor for output
func CreateEmptyTensor[T ort.TensorData](shape []int64) (*ort.Tensor[T], error) {
	size := int64(1)
	for _, dim := range shape {
		size *= dim
	}
	data := make([]T, size)
	return ort.NewTensor(ort.NewShape(shape...), data)
}
