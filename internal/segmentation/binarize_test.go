package segmentation

import (
	"image"
	"math"
	"testing"
)

func TestOtsuThreshold(t *testing.T) {
	gray := make([]uint8, 0, 200)
	for i := 0; i < 100; i++ {
		gray = append(gray, 30)
		gray = append(gray, 220)
	}
	th := otsuThreshold(gray)
	if th < 30 || th >= 220 {
		t.Errorf("Expected threshold between modes, got %d", th)
	}

	flat := []uint8{200, 200, 200, 200}
	if th := otsuThreshold(flat); th != -1 {
		t.Errorf("Expected -1 for a single-level image, got %d", th)
	}
}

func TestLuminanceGrayFastPath(t *testing.T) {
	img := image.NewGray(image.Rect(5, 5, 8, 7))
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 10)
	}
	got := luminance(img)
	if len(got) != 6 {
		t.Fatalf("Expected 6 values, got %d", len(got))
	}
	for i, v := range got {
		if v != uint8(i*10) {
			t.Errorf("Pixel %d: expected %d, got %d", i, i*10, v)
		}
	}
}

func TestOpeningRemovesSpecks(t *testing.T) {
	m := newBinaryMask(20, 20)
	m.pix[2*20+2] = true
	for y := 8; y < 16; y++ {
		for x := 8; x < 16; x++ {
			m.pix[y*20+x] = true
		}
	}
	opened := m.open(1)
	if opened.at(2, 2) {
		t.Error("Expected isolated pixel removed by opening")
	}
	count := 0
	for _, v := range opened.pix {
		if v {
			count++
		}
	}
	if count != 64 {
		t.Errorf("Expected 8x8 square preserved (64 px), got %d", count)
	}
}

func TestDistanceTransform(t *testing.T) {
	m := newBinaryMask(30, 30)
	for y := 10; y < 15; y++ {
		for x := 10; x < 15; x++ {
			m.pix[y*30+x] = true
		}
	}
	d := distanceTransform(m)
	if got := d[12*30+12]; got != 3 {
		t.Errorf("Expected center distance 3, got %v", got)
	}
	if got := d[10*30+10]; got != 1 {
		t.Errorf("Expected corner distance 1, got %v", got)
	}
	if got := d[0]; got != 0 {
		t.Errorf("Expected background distance 0, got %v", got)
	}
}

func TestDistanceTransformTreatsFrameEdgeAsBackground(t *testing.T) {
	m := newBinaryMask(7, 1)
	for i := range m.pix {
		m.pix[i] = true
	}
	d := distanceTransform(m)
	for i, v := range d {
		if math.Abs(v-1) > 1e-12 {
			t.Errorf("Pixel %d: expected distance 1 in a one-row strip, got %v", i, v)
		}
	}
}
