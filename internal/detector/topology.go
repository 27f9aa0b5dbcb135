package detector

// Face-mesh landmark index subsets. Each contour list is ordered so that
// consecutive entries are neighbours on the outline.
var (
	FaceOval = []int{
		10, 338, 297, 332, 284, 251, 389, 356, 454, 323, 361, 288,
		397, 365, 379, 378, 400, 377, 152, 148, 176, 149, 150, 136,
		172, 58, 132, 93, 234, 127, 162, 21, 54, 103, 67, 109,
	}

	// Lip contours run from the left mouth corner to the right one.
	LipsUpperOuter = []int{61, 185, 40, 39, 37, 0, 267, 269, 270, 409, 291}
	LipsLowerOuter = []int{146, 91, 181, 84, 17, 314, 405, 321, 375, 291}
	LipsUpperInner = []int{78, 191, 80, 81, 82, 13, 312, 311, 310, 415, 308}
	LipsLowerInner = []int{78, 95, 88, 178, 87, 14, 317, 402, 318, 324, 308}

	// Left and right are the subject's, so LeftEye appears on the image right.
	LeftEye = []int{
		362, 382, 381, 380, 374, 373, 390, 249,
		263, 466, 388, 387, 386, 385, 384, 398,
	}
	RightEye = []int{
		33, 7, 163, 144, 145, 153, 154, 155,
		133, 173, 157, 158, 159, 160, 161, 246,
	}

	LeftEyebrow  = []int{336, 296, 334, 293, 300, 276, 283, 282, 295, 285}
	RightEyebrow = []int{107, 66, 105, 63, 70, 46, 53, 52, 65, 55}
)

// Cheek centre landmarks
const (
	LeftCheekCenter  = 280
	RightCheekCenter = 50
)

// OuterLipContour returns the closed outer lip outline: upper lip followed by
// the lower lip in reverse.
func OuterLipContour() []int {
	return joinReversed(LipsUpperOuter, LipsLowerOuter)
}

// InnerLipContour returns the closed mouth-opening outline.
func InnerLipContour() []int {
	return joinReversed(LipsUpperInner, LipsLowerInner)
}

func joinReversed(head, tail []int) []int {
	out := make([]int, 0, len(head)+len(tail))
	out = append(out, head...)
	for i := len(tail) - 1; i >= 0; i-- {
		out = append(out, tail[i])
	}
	return out
}

// UsedIndices lists every landmark index a region mask reads
func UsedIndices() []int {
	groups := [][]int{
		FaceOval,
		LipsUpperOuter, LipsLowerOuter, LipsUpperInner, LipsLowerInner,
		LeftEye, RightEye, LeftEyebrow, RightEyebrow,
		{LeftCheekCenter, RightCheekCenter},
	}
	var out []int
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}
