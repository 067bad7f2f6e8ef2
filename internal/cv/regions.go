package cv

import "image"

// Region is an inclusive-exclusive screen rectangle in device pixels
type Region struct {
	X1, Y1, X2, Y2 int
}

// NewRegion creates a new region
func NewRegion(x1, y1, x2, y2 int) Region {
	return Region{X1: x1, Y1: y1, X2: x2, Y2: y2}
}

// Contains checks if a point is within the region
func (r Region) Contains(p image.Point) bool {
	return p.X >= r.X1 && p.X < r.X2 && p.Y >= r.Y1 && p.Y < r.Y2
}

// Width returns the width of the region
func (r Region) Width() int {
	return r.X2 - r.X1
}

// Height returns the height of the region
func (r Region) Height() int {
	return r.Y2 - r.Y1
}

// ToImageRectangle converts Region to *image.Rectangle for use with CV operations
func (r Region) ToImageRectangle() *image.Rectangle {
	rect := image.Rect(r.X1, r.Y1, r.X2, r.Y2)
	return &rect
}
