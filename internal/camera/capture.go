// Package camera grabs a still portrait from a webcam.
package camera

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Warmup frames are dropped before the snapshot so auto exposure settles
const Warmup = 10

// Capture wraps an open webcam
type Capture struct {
	webcam   *gocv.VideoCapture
	deviceID int
	width    int
	height   int
}

// Open opens a camera and asks for the given resolution
func Open(deviceID, width, height int) (*Capture, error) {
	webcam, err := gocv.OpenVideoCapture(deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %d: %w", deviceID, err)
	}

	webcam.Set(gocv.VideoCaptureFrameWidth, float64(width))
	webcam.Set(gocv.VideoCaptureFrameHeight, float64(height))

	// Get actual dimensions (camera may not support requested resolution)
	return &Capture{
		webcam:   webcam,
		deviceID: deviceID,
		width:    int(webcam.Get(gocv.VideoCaptureFrameWidth)),
		height:   int(webcam.Get(gocv.VideoCaptureFrameHeight)),
	}, nil
}

// Snapshot drops warmup frames and returns the next one
func (c *Capture) Snapshot(warmup int) (gocv.Mat, error) {
	frame := gocv.NewMat()
	for i := 0; i <= warmup; i++ {
		if !c.webcam.Read(&frame) {
			frame.Close()
			return gocv.NewMat(), fmt.Errorf("camera %d: read failed", c.deviceID)
		}
	}
	if frame.Empty() {
		frame.Close()
		return gocv.NewMat(), fmt.Errorf("camera %d: empty frame", c.deviceID)
	}
	return frame, nil
}

// Width returns frame width
func (c *Capture) Width() int {
	return c.width
}

// Height returns frame height
func (c *Capture) Height() int {
	return c.height
}

// Close releases the camera
func (c *Capture) Close() error {
	if c.webcam == nil {
		return nil
	}
	err := c.webcam.Close()
	c.webcam = nil
	return err
}

// Snapshot opens a camera, takes one still and closes it again
func Snapshot(deviceID, width, height int) (gocv.Mat, error) {
	c, err := Open(deviceID, width, height)
	if err != nil {
		return gocv.NewMat(), err
	}
	defer c.Close()
	return c.Snapshot(Warmup)
}
