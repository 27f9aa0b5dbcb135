package pipeline

import (
	"gocv.io/x/gocv"

	"github.com/dudu/retouch/internal/detector"
)

// Stage names one step of the retouching pipeline
type Stage string

const (
	StageBlemish    Stage = "blemish"
	StageSmoothing  Stage = "smoothing"
	StageLipstick   Stage = "lipstick"
	StageBlush      Stage = "blush"
	StageSharpening Stage = "sharpening"
)

// Stages lists the pipeline steps in the order they run
var Stages = []Stage{StageBlemish, StageSmoothing, StageLipstick, StageBlush, StageSharpening}

// LandmarkDetector finds the face-mesh landmarks of the first face in an
// image
type LandmarkDetector interface {
	Detect(img gocv.Mat) (detector.LandmarkSet, error)
}
