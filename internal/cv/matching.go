package cv

import (
	"image"
	"image/draw"
	"math"

	"github.com/nfnt/resize"
)

// DefaultThreshold is the minimum confidence for a match to count. Every
// state decision of the control loop is gated on it.
const DefaultThreshold = 0.7

// DefaultScale is the downscale factor used for the coarse search pass
const DefaultScale = 0.25

// minCoarseSide is the smallest scaled template side worth a coarse pass
const minCoarseSide = 4

// MatchResult contains template matching results
type MatchResult struct {
	Found      bool
	Location   image.Point // top-left corner of the best window
	Center     image.Point // center of the best window, tap target
	Confidence float64
}

// MatchConfig configures template matching
type MatchConfig struct {
	Threshold    float64          // 0.0-1.0, accepted iff Confidence >= Threshold
	SearchRegion *image.Rectangle // Optional: limit search area
	Scale        float64          // Coarse pass factor in (0,1]; 1 scans exhaustively
}

// DefaultMatchConfig returns recommended settings
func DefaultMatchConfig() *MatchConfig {
	return &MatchConfig{
		Threshold: DefaultThreshold,
		Scale:     DefaultScale,
	}
}

// FindTemplate finds the best location of needle within haystack using
// normalized cross-correlation with mean subtraction (the correlation
// coefficient of the two windows). Negative correlation is reported as 0.
func FindTemplate(haystack, needle *image.RGBA, config *MatchConfig) *MatchResult {
	if config == nil {
		config = DefaultMatchConfig()
	}

	hb := haystack.Bounds()
	nw, nh := needle.Bounds().Dx(), needle.Bounds().Dy()
	if nw == 0 || nh == 0 || nw > hb.Dx() || nh > hb.Dy() {
		return &MatchResult{}
	}

	search := hb
	if config.SearchRegion != nil {
		search = config.SearchRegion.Intersect(hb)
	}
	if search.Dx() < nw || search.Dy() < nh {
		return &MatchResult{}
	}

	// Candidate top-left positions at full resolution
	positions := image.Rect(search.Min.X, search.Min.Y, search.Max.X-nw+1, search.Max.Y-nh+1)

	full := prepareNeedle(needle)

	scale := config.Scale
	if scale > 0 && scale < 1 && int(float64(nw)*scale) >= minCoarseSide && int(float64(nh)*scale) >= minCoarseSide {
		coarse := coarseSearch(haystack, needle, search, scale)

		// Refine around the coarse hit at full resolution
		radius := int(math.Ceil(1/scale)) + 1
		refine := image.Rect(coarse.X-radius, coarse.Y-radius, coarse.X+radius+1, coarse.Y+radius+1).Intersect(positions)
		if !refine.Empty() {
			positions = refine
		}
	}

	loc, score := scan(haystack, full, positions)
	result := &MatchResult{
		Location:   loc,
		Center:     image.Pt(loc.X+nw/2, loc.Y+nh/2),
		Confidence: score,
	}
	result.Found = score >= config.Threshold
	return result
}

// coarseSearch runs the scan on downscaled copies and maps the best hit back
// to full-resolution coordinates.
func coarseSearch(haystack, needle *image.RGBA, search image.Rectangle, scale float64) image.Point {
	sw := uint(float64(search.Dx()) * scale)
	sh := uint(float64(search.Dy()) * scale)
	nw := uint(float64(needle.Bounds().Dx()) * scale)
	nh := uint(float64(needle.Bounds().Dy()) * scale)

	smallHay := ToRGBA(resize.Resize(sw, sh, CropRegion(haystack, search), resize.Bilinear))
	smallNeedle := ToRGBA(resize.Resize(nw, nh, needle, resize.Bilinear))

	positions := image.Rect(0, 0, int(sw-nw)+1, int(sh-nh)+1)
	loc, _ := scan(smallHay, prepareNeedle(smallNeedle), positions)

	return image.Pt(
		search.Min.X+int(math.Round(float64(loc.X)/scale)),
		search.Min.Y+int(math.Round(float64(loc.Y)/scale)),
	)
}

// preparedNeedle holds the mean-subtracted template
type preparedNeedle struct {
	w, h int
	dev  []float64 // 3 channels per pixel, row-major
	norm float64   // sqrt of the sum of squared deviations
}

func prepareNeedle(n *image.RGBA) preparedNeedle {
	b := n.Bounds()
	w, h := b.Dx(), b.Dy()
	count := float64(w * h)

	var mean [3]float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := n.PixOffset(b.Min.X+x, b.Min.Y+y)
			for c := 0; c < 3; c++ {
				mean[c] += float64(n.Pix[i+c])
			}
		}
	}
	for c := range mean {
		mean[c] /= count
	}

	dev := make([]float64, 0, w*h*3)
	var sq float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := n.PixOffset(b.Min.X+x, b.Min.Y+y)
			for c := 0; c < 3; c++ {
				d := float64(n.Pix[i+c]) - mean[c]
				dev = append(dev, d)
				sq += d * d
			}
		}
	}

	return preparedNeedle{w: w, h: h, dev: dev, norm: math.Sqrt(sq)}
}

// scan scores every top-left position in positions and returns the first best
// in row-major order.
func scan(img *image.RGBA, needle preparedNeedle, positions image.Rectangle) (image.Point, float64) {
	area := image.Rect(positions.Min.X, positions.Min.Y, positions.Max.X+needle.w-1, positions.Max.Y+needle.h-1)
	sums := newAreaSums(img, area)

	best := positions.Min
	bestScore := -1.0
	for y := positions.Min.Y; y < positions.Max.Y; y++ {
		for x := positions.Min.X; x < positions.Max.X; x++ {
			score := correlate(img, needle, sums, x, y)
			if score > bestScore {
				bestScore = score
				best = image.Pt(x, y)
			}
		}
	}

	return best, clamp01(bestScore)
}

func correlate(img *image.RGBA, needle preparedNeedle, sums *areaSums, x, y int) float64 {
	if needle.norm == 0 {
		return 0
	}

	var num float64
	k := 0
	for ny := 0; ny < needle.h; ny++ {
		i := img.PixOffset(x, y+ny)
		for nx := 0; nx < needle.w; nx++ {
			num += needle.dev[k]*float64(img.Pix[i]) +
				needle.dev[k+1]*float64(img.Pix[i+1]) +
				needle.dev[k+2]*float64(img.Pix[i+2])
			k += 3
			i += 4
		}
	}

	count := float64(needle.w * needle.h)
	variance := sums.squares(x, y, needle.w, needle.h)
	for c := 0; c < 3; c++ {
		s := sums.channel(c, x, y, needle.w, needle.h)
		variance -= s * s / count
	}
	if variance <= 1e-9 {
		return 0
	}

	return num / (math.Sqrt(variance) * needle.norm)
}

// areaSums are summed-area tables over an image area for O(1) window sums
type areaSums struct {
	origin image.Point
	stride int
	sum    [3][]float64
	sq     []float64
}

func newAreaSums(img *image.RGBA, area image.Rectangle) *areaSums {
	w, h := area.Dx(), area.Dy()
	stride := w + 1
	s := &areaSums{origin: area.Min, stride: stride, sq: make([]float64, stride*(h+1))}
	for c := range s.sum {
		s.sum[c] = make([]float64, stride*(h+1))
	}

	for y := 0; y < h; y++ {
		var row [3]float64
		var rowSq float64
		i := img.PixOffset(area.Min.X, area.Min.Y+y)
		for x := 0; x < w; x++ {
			for c := 0; c < 3; c++ {
				v := float64(img.Pix[i+c])
				row[c] += v
				rowSq += v * v
			}
			idx := (y+1)*stride + x + 1
			for c := 0; c < 3; c++ {
				s.sum[c][idx] = s.sum[c][idx-stride] + row[c]
			}
			s.sq[idx] = s.sq[idx-stride] + rowSq
			i += 4
		}
	}

	return s
}

func (s *areaSums) rect(table []float64, x, y, w, h int) float64 {
	x0, y0 := x-s.origin.X, y-s.origin.Y
	x1, y1 := x0+w, y0+h
	return table[y1*s.stride+x1] - table[y0*s.stride+x1] - table[y1*s.stride+x0] + table[y0*s.stride+x0]
}

func (s *areaSums) channel(c, x, y, w, h int) float64 {
	return s.rect(s.sum[c], x, y, w, h)
}

func (s *areaSums) squares(x, y, w, h int) float64 {
	return s.rect(s.sq, x, y, w, h)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ToRGBA converts any image to a zero-origin *image.RGBA
func ToRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok && rgba.Bounds().Min == (image.Point{}) {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}

// CropRegion extracts a rectangular region from an image into a zero-origin copy
func CropRegion(img *image.RGBA, rect image.Rectangle) *image.RGBA {
	rect = rect.Intersect(img.Bounds())
	cropped := image.NewRGBA(image.Rect(0, 0, rect.Dx(), rect.Dy()))
	draw.Draw(cropped, cropped.Bounds(), img, rect.Min, draw.Src)
	return cropped
}
