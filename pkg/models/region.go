package models

// Point is a 2D coordinate, in pixels or micrometers depending on context.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// BoundingBox is an axis-aligned box in pixel space. Width and Height are
// inclusive pixel counts, so a single-pixel region has a 1x1 box.
type BoundingBox struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether pixel (x, y) lies inside the box.
func (b BoundingBox) Contains(x, y int) bool {
	return x >= b.X && x < b.X+b.Width && y >= b.Y && y < b.Y+b.Height
}

// Empty reports whether the box covers no pixels.
func (b BoundingBox) Empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

// Mask is a boolean grid with the dimensions of the source image. Only the
// window under Box is stored; every pixel outside it is false.
type Mask struct {
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Box    BoundingBox `json:"box"`
	Bits   []bool      `json:"-"`
}

// NewMask allocates an empty mask over box for an image of the given size.
func NewMask(width, height int, box BoundingBox) Mask {
	n := 0
	if !box.Empty() {
		n = box.Width * box.Height
	}
	return Mask{Width: width, Height: height, Box: box, Bits: make([]bool, n)}
}

// At reports whether image pixel (x, y) belongs to the mask.
func (m Mask) At(x, y int) bool {
	if !m.Box.Contains(x, y) {
		return false
	}
	return m.Bits[(y-m.Box.Y)*m.Box.Width+(x-m.Box.X)]
}

// Set marks image pixel (x, y). Pixels outside Box are ignored.
func (m Mask) Set(x, y int) {
	if !m.Box.Contains(x, y) {
		return
	}
	m.Bits[(y-m.Box.Y)*m.Box.Width+(x-m.Box.X)] = true
}

// Count returns the number of true cells.
func (m Mask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Region is one detected organism candidate.
type Region struct {
	Mask          Mask        `json:"-"`
	BoundingBox   BoundingBox `json:"bounding_box"`
	CentroidPixel Point       `json:"centroid_px"`
	AreaPixels    int         `json:"area_px"`
	TouchesBorder bool        `json:"touches_border"`
}

// ClassScore pairs a class name with its normalized probability.
type ClassScore struct {
	ClassName string  `json:"class_name"`
	Score     float64 `json:"score"`
}

// Prediction is the classifier output for the region at RegionIndex.
type Prediction struct {
	RegionIndex int          `json:"region_index"`
	ClassName   string       `json:"class_name"`
	Confidence  float64      `json:"confidence"`
	TopK        []ClassScore `json:"top_k"`
}

// Organism is a region and prediction pair that passed the confidence and size filters.
type Organism struct {
	ID                  int     `json:"organism_id"`
	ClassName           string  `json:"class_name"`
	Confidence          float64 `json:"confidence"`
	AreaPixels          int     `json:"area_px"`
	SizeMicrometers     float64 `json:"size_um"`
	CentroidPixel       Point   `json:"centroid_px"`
	CentroidMicrometers Point   `json:"centroid_um"`
}
