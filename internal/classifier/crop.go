package classifier

import (
	"image"

	"go-plankton-inspector/pkg/models"

	"golang.org/x/image/draw"
)

// cropRegion cuts box (grown by pad, clipped to the image) out of img and
// scales it to a size x size RGBA tile.
func cropRegion(img image.Image, box models.BoundingBox, pad, size int) image.Image {
	b := img.Bounds()
	src := image.Rect(box.X-pad, box.Y-pad, box.X+box.Width+pad, box.Y+box.Height+pad).
		Add(b.Min).
		Intersect(b)

	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	if src.Empty() {
		return dst
	}
	draw.BiLinear.Scale(dst, dst.Bounds(), img, src, draw.Src, nil)
	return dst
}
