package mask

import "fmt"

// InvalidLandmarkError reports a landmark set that does not follow the
// face-mesh convention. It means the detector contract was violated.
type InvalidLandmarkError struct {
	Count int // landmarks supplied
	Index int // offending index, -1 when the count is wrong
}

func (e *InvalidLandmarkError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("mask: invalid landmark set: got %d points", e.Count)
	}
	return fmt.Sprintf("mask: invalid landmark %d in set of %d points", e.Index, e.Count)
}

// GeometryError reports a polygon or ellipse that covers no area
type GeometryError struct {
	Region Region
	Area   float64
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("mask: degenerate %s region (area %.2f)", e.Region, e.Area)
}
