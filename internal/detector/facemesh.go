package detector

import (
	"fmt"
	"image"

	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"

	"github.com/dudu/retouch/internal/inference"
)

// FaceMeshConfig describes the tensor interface of a 468-point face-mesh model
type FaceMeshConfig struct {
	ModelPath      string
	InputName      string  // e.g. "input_1"
	LandmarksName  string  // 1404 values: x, y, z per point
	ScoreName      string  // face presence logit; empty to skip the check
	InputSize      int     // square crop size, 192 for the stock model
	ChannelsLast   bool    // NHWC input instead of NCHW
	ScoreThreshold float32 // minimum face presence after sigmoid
	CropScale      float32 // crop side relative to the larger box side
}

// FaceMesh regresses 468 landmarks inside a detected face box
type FaceMesh struct {
	session *inference.Session
	cfg     FaceMeshConfig
}

// NewFaceMesh creates a face-mesh landmark regressor
func NewFaceMesh(cfg FaceMeshConfig) (*FaceMesh, error) {
	if cfg.InputSize <= 0 {
		cfg.InputSize = 192
	}
	if cfg.CropScale <= 0 {
		cfg.CropScale = 1.5
	}

	outputNames := []string{cfg.LandmarksName}
	if cfg.ScoreName != "" {
		outputNames = append(outputNames, cfg.ScoreName)
	}

	session, err := inference.NewSession(cfg.ModelPath, []string{cfg.InputName}, outputNames)
	if err != nil {
		return nil, fmt.Errorf("failed to create face mesh session: %w", err)
	}

	return &FaceMesh{session: session, cfg: cfg}, nil
}

// Detect returns the landmark set for one face box
func (m *FaceMesh) Detect(img gocv.Mat, face Face) (LandmarkSet, error) {
	size := m.cfg.InputSize
	box := face.BoundingBox
	center := box.Center()
	side := max32(box.Width(), box.Height()) * m.cfg.CropScale
	if side <= 0 {
		return nil, fmt.Errorf("face mesh: empty face box")
	}
	scale := float32(size) / side

	M := cropTransform(center, scale, size)
	defer M.Close()

	crop := gocv.NewMat()
	defer crop.Close()
	gocv.WarpAffine(img, &crop, M, image.Pt(size, size))

	input, shape := m.preprocess(crop)
	inputTensor, err := ort.NewTensor(ort.NewShape(shape...), input)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	landmarkTensor, err := inference.CreateEmptyTensor[float32]([]int64{1, NumLandmarks * 3})
	if err != nil {
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	defer landmarkTensor.Destroy()
	outputs := []ort.Value{landmarkTensor}

	var scoreTensor *ort.Tensor[float32]
	if m.cfg.ScoreName != "" {
		scoreTensor, err = inference.CreateEmptyTensor[float32]([]int64{1, 1})
		if err != nil {
			return nil, fmt.Errorf("failed to create output tensor: %w", err)
		}
		defer scoreTensor.Destroy()
		outputs = append(outputs, scoreTensor)
	}

	if err := m.session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("face mesh inference failed: %w", err)
	}

	if scoreTensor != nil {
		if p := sigmoid(scoreTensor.GetData()[0]); p < m.cfg.ScoreThreshold {
			return nil, ErrNoFace
		}
	}

	return m.postprocess(landmarkTensor.GetData(), center, scale), nil
}

// preprocess converts the BGR crop into RGB floats in [0,1]
func (m *FaceMesh) preprocess(crop gocv.Mat) ([]float32, []int64) {
	size := int64(m.cfg.InputSize)

	if !m.cfg.ChannelsLast {
		blob := gocv.BlobFromImage(crop, 1.0/255.0, image.Pt(m.cfg.InputSize, m.cfg.InputSize),
			gocv.NewScalar(0, 0, 0, 0), true, false)
		defer blob.Close()
		return bytesToFloat32(blob.ToBytes()), []int64{1, 3, size, size}
	}

	rgb := gocv.NewMat()
	defer rgb.Close()
	gocv.CvtColor(crop, &rgb, gocv.ColorBGRToRGB)

	pixels := rgb.ToBytes()
	data := make([]float32, len(pixels))
	for i, v := range pixels {
		data[i] = float32(v) / 255
	}
	return data, []int64{1, size, size, 3}
}

// postprocess maps crop-space points back into image coordinates
func (m *FaceMesh) postprocess(output []float32, center Point, scale float32) LandmarkSet {
	half := float32(m.cfg.InputSize) / 2
	set := make(LandmarkSet, NumLandmarks)
	for i := range set {
		x := output[i*3]
		y := output[i*3+1]
		set[i] = Point{
			X: (x-half)/scale + center.X,
			Y: (y-half)/scale + center.Y,
		}
	}
	return set
}

// Close releases model resources
func (m *FaceMesh) Close() error {
	return m.session.Destroy()
}

// cropTransform builds the 2x3 affine matrix that scales around center and
// moves it to the middle of a size×size crop
func cropTransform(center Point, scale float32, size int) gocv.Mat {
	M := gocv.NewMatWithSize(2, 3, gocv.MatTypeCV64F)
	M.SetDoubleAt(0, 0, float64(scale))
	M.SetDoubleAt(0, 1, 0)
	M.SetDoubleAt(0, 2, float64(size)/2-float64(center.X*scale))
	M.SetDoubleAt(1, 0, 0)
	M.SetDoubleAt(1, 1, float64(scale))
	M.SetDoubleAt(1, 2, float64(size)/2-float64(center.Y*scale))
	return M
}
