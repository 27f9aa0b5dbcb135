package detector

import (
	"fmt"
	"image"
	"math"

	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"

	"github.com/dudu/retouch/internal/inference"
)

// SCRFD implements the SCRFD face box detector
type SCRFD struct {
	session        *inference.Session
	inputSize      int
	confThreshold  float32
	nmsThreshold   float32
	featureStrides []int
	numAnchors     int
}

// NewSCRFD creates a new SCRFD detector
func NewSCRFD(modelPath string, inputSize int, confThreshold, nmsThreshold float32) (*SCRFD, error) {
	// 1 input and 9 outputs (3 levels × score, bbox, kps)
	inputNames := []string{"input.1"}
	outputNames := []string{
		"score_8", "score_16", "score_32",
		"bbox_8", "bbox_16", "bbox_32",
		"kps_8", "kps_16", "kps_32",
	}

	session, err := inference.NewSession(modelPath, inputNames, outputNames)
	if err != nil {
		return nil, fmt.Errorf("failed to create SCRFD session: %w", err)
	}

	return &SCRFD{
		session:        session,
		inputSize:      inputSize,
		confThreshold:  confThreshold,
		nmsThreshold:   nmsThreshold,
		featureStrides: []int{8, 16, 32},
		numAnchors:     2,
	}, nil
}

// Detect finds faces in a BGR image, best score first
func (s *SCRFD) Detect(img gocv.Mat) ([]Face, error) {
	if img.Empty() {
		return nil, fmt.Errorf("scrfd: empty image")
	}

	blob, scale := s.preprocess(img)
	defer blob.Close()

	inputTensor, err := ort.NewTensor(
		ort.NewShape(1, 3, int64(s.inputSize), int64(s.inputSize)),
		bytesToFloat32(blob.ToBytes()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	defer inputTensor.Destroy()

	levels := len(s.featureStrides)
	outputs := make([]ort.Value, 3*levels)
	tensors := make([]*ort.Tensor[float32], 3*levels)
	defer func() {
		for _, t := range tensors {
			if t != nil {
				t.Destroy()
			}
		}
	}()

	widths := []int64{1, 4, 10} // score, bbox, kps
	for i, stride := range s.featureStrides {
		fm := s.inputSize / stride
		anchors := int64(fm * fm * s.numAnchors)
		for kind, w := range widths {
			t, err := inference.CreateEmptyTensor[float32]([]int64{anchors, w})
			if err != nil {
				return nil, fmt.Errorf("failed to create output tensor: %w", err)
			}
			tensors[kind*levels+i] = t
			outputs[kind*levels+i] = t
		}
	}

	if err := s.session.Run([]ort.Value{inputTensor}, outputs); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	faces := s.postprocess(tensors, scale, img.Cols(), img.Rows())
	return nms(faces, s.nmsThreshold), nil
}

// preprocess letterboxes the image into the square input and returns an NCHW
// blob normalized as (x - 127.5) / 128
func (s *SCRFD) preprocess(img gocv.Mat) (gocv.Mat, float32) {
	scale := float32(s.inputSize) / float32(max(img.Rows(), img.Cols()))
	newWidth := int(float32(img.Cols()) * scale)
	newHeight := int(float32(img.Rows()) * scale)

	resized := gocv.NewMat()
	defer resized.Close()
	gocv.Resize(img, &resized, image.Pt(newWidth, newHeight), 0, 0, gocv.InterpolationLinear)

	padded := gocv.NewMatWithSize(s.inputSize, s.inputSize, gocv.MatTypeCV8UC3)
	defer padded.Close()
	padded.SetTo(gocv.NewScalar(0, 0, 0, 0))

	roi := padded.Region(image.Rect(0, 0, newWidth, newHeight))
	resized.CopyTo(&roi)
	roi.Close()

	blob := gocv.BlobFromImage(padded, 1.0/128.0, image.Pt(s.inputSize, s.inputSize),
		gocv.NewScalar(127.5, 127.5, 127.5, 0), true, false)

	return blob, scale
}

// postprocess decodes anchor outputs into faces in image coordinates
func (s *SCRFD) postprocess(outputs []*ort.Tensor[float32], scale float32, origWidth, origHeight int) []Face {
	var faces []Face
	levels := len(s.featureStrides)

	for level, stride := range s.featureStrides {
		fm := s.inputSize / stride
		scores := outputs[level].GetData()
		boxes := outputs[levels+level].GetData()
		kps := outputs[2*levels+level].GetData()
		st := float32(stride)

		anchor := 0
		for y := 0; y < fm; y++ {
			for x := 0; x < fm; x++ {
				cx := (float32(x) + 0.5) * st
				cy := (float32(y) + 0.5) * st
				for a := 0; a < s.numAnchors; a++ {
					score := sigmoid(scores[anchor])
					if score > s.confThreshold {
						b := boxes[anchor*4:]
						k := kps[anchor*10:]
						kp := func(i int) Point {
							return Point{X: (cx + k[2*i]*st) / scale, Y: (cy + k[2*i+1]*st) / scale}
						}
						faces = append(faces, Face{
							BoundingBox: BoundingBox{
								X1: clamp((cx-b[0]*st)/scale, 0, float32(origWidth)),
								Y1: clamp((cy-b[1]*st)/scale, 0, float32(origHeight)),
								X2: clamp((cx+b[2]*st)/scale, 0, float32(origWidth)),
								Y2: clamp((cy+b[3]*st)/scale, 0, float32(origHeight)),
							},
							Landmarks: Landmarks{
								LeftEye: kp(0), RightEye: kp(1), Nose: kp(2),
								LeftMouth: kp(3), RightMouth: kp(4),
							},
							Score: score,
						})
					}
					anchor++
				}
			}
		}
	}

	return faces
}

// Close releases detector resources
func (s *SCRFD) Close() error {
	return s.session.Destroy()
}

func sigmoid(x float32) float32 {
	return 1.0 / (1.0 + float32(math.Exp(float64(-x))))
}

func clamp(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func bytesToFloat32(data []byte) []float32 {
	result := make([]float32, len(data)/4)
	for i := range result {
		bits := uint32(data[i*4]) | uint32(data[i*4+1])<<8 | uint32(data[i*4+2])<<16 | uint32(data[i*4+3])<<24
		result[i] = math.Float32frombits(bits)
	}
	return result
}
