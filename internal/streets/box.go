package streets

// BoundingBox is [ymin, xmin, ymax, xmax] on a 0-1000 scale, independent
// of the pixel size of the photo it was read from.
type BoundingBox [4]int

// BoxScale is the side length of the normalized coordinate space.
const BoxScale = 1000

// BoxFromSlice accepts a model-provided box. Anything but exactly four
// values is rejected.
func BoxFromSlice(values []int) (*BoundingBox, bool) {
	if len(values) != 4 {
		return nil, false
	}
	box := BoundingBox{values[0], values[1], values[2], values[3]}
	return &box, true
}

// BoxPercent positions an overlay relative to the displayed image.
type BoxPercent struct {
	Top    float64 `json:"top"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Percent converts the box to CSS-style percentages of the image.
func (b BoundingBox) Percent() BoxPercent {
	ymin, xmin, ymax, xmax := b[0], b[1], b[2], b[3]
	const perPercent = BoxScale / 100.0
	return BoxPercent{
		Top:    float64(ymin) / perPercent,
		Left:   float64(xmin) / perPercent,
		Width:  float64(xmax-xmin) / perPercent,
		Height: float64(ymax-ymin) / perPercent,
	}
}

// Rect is a box in display pixels.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Scale maps the box onto an image of the given pixel size.
func (b BoundingBox) Scale(width, height int) Rect {
	ymin, xmin, ymax, xmax := b[0], b[1], b[2], b[3]
	return Rect{
		X:      xmin * width / BoxScale,
		Y:      ymin * height / BoxScale,
		Width:  (xmax - xmin) * width / BoxScale,
		Height: (ymax - ymin) * height / BoxScale,
	}
}
