package detector

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gocv.io/x/gocv"
)

// Config holds the model settings for the two-stage detector
type Config struct {
	SCRFDModelPath string
	DetectionSize  int
	ConfThreshold  float32
	NMSThreshold   float32
	FaceMesh       FaceMeshConfig
}

// Detector finds the first face in an image and returns its face-mesh
// landmark set
type Detector struct {
	boxes *SCRFD
	mesh  *FaceMesh
	log   zerolog.Logger
}

// New creates the SCRFD box detector and the face-mesh regressor. The
// inference environment must already be initialized.
func New(cfg Config, log zerolog.Logger) (*Detector, error) {
	boxes, err := NewSCRFD(cfg.SCRFDModelPath, cfg.DetectionSize, cfg.ConfThreshold, cfg.NMSThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to create face detector: %w", err)
	}

	mesh, err := NewFaceMesh(cfg.FaceMesh)
	if err != nil {
		boxes.Close()
		return nil, fmt.Errorf("failed to create landmark detector: %w", err)
	}

	return &Detector{
		boxes: boxes,
		mesh:  mesh,
		log:   log.With().Str("component", "detector").Logger(),
	}, nil
}

// Detect returns the landmarks of the highest-scoring face, or ErrNoFace
func (d *Detector) Detect(img gocv.Mat) (LandmarkSet, error) {
	faces, err := d.boxes.Detect(img)
	if err != nil {
		return nil, fmt.Errorf("detection failed: %w", err)
	}
	if len(faces) == 0 {
		return nil, ErrNoFace
	}
	if len(faces) > 1 {
		d.log.Debug().Int("faces", len(faces)).Msg("multiple faces, using the first")
	}

	face := faces[0]
	set, err := d.mesh.Detect(img, face)
	if err != nil {
		if errors.Is(err, ErrNoFace) {
			return nil, err
		}
		return nil, fmt.Errorf("landmark detection failed: %w", err)
	}

	d.log.Debug().
		Float32("score", face.Score).
		Float32("box_w", face.BoundingBox.Width()).
		Float32("box_h", face.BoundingBox.Height()).
		Msg("face found")

	return set, nil
}

// Close releases both models
func (d *Detector) Close() error {
	var errs []error
	if d.boxes != nil {
		if err := d.boxes.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if d.mesh != nil {
		if err := d.mesh.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
