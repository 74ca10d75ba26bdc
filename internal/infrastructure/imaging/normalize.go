// Package imaging prepares document rasters for text extraction: geometry
// correction for full-page scans, blur estimation, and conditional
// sharpening.
package imaging

import (
	"image"
	"image/draw"
)

const (
	// A scan whose height exceeds this ratio of its width is a full-page
	// letter; the physical card occupies the bottom of the page.
	fullPageRatio  = 1.4
	cardRegionFrom = 0.60

	// Sharpening band: below the floor the image is blank or too degraded
	// for sharpening to help, above the ceiling it is already sharp.
	sharpenFloor   = 50.0
	sharpenCeiling = 200.0
)

type Normalizer struct{}

func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize returns an OCR-ready raster and its blur score (variance of the
// Laplacian; higher = sharper). The identity transform is valid output: an
// already-clean image comes back unmodified apart from the score.
func (n *Normalizer) Normalize(img image.Image) (image.Image, float64) {
	rgba := toRGBA(img)

	if b := rgba.Bounds(); float64(b.Dy()) > fullPageRatio*float64(b.Dx()) {
		rgba = cropBottom(rgba, cardRegionFrom)
	}

	blur := laplacianVariance(rgba)
	if blur > sharpenFloor && blur < sharpenCeiling {
		rgba = sharpen(rgba)
	}
	return rgba, blur
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

func cropBottom(img *image.RGBA, from float64) *image.RGBA {
	b := img.Bounds()
	start := b.Min.Y + int(float64(b.Dy())*from)
	region := image.Rect(b.Min.X, start, b.Max.X, b.Max.Y)
	out := image.NewRGBA(image.Rect(0, 0, region.Dx(), region.Dy()))
	draw.Draw(out, out.Bounds(), img, region.Min, draw.Src)
	return out
}

// laplacianVariance convolves the grayscale image with the 4-neighbour
// Laplacian and returns the variance of the responses over interior pixels.
func laplacianVariance(img *image.RGBA) float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w < 3 || h < 3 {
		return 0
	}

	gray := make([]float64, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(b.Min.X+x, b.Min.Y+y)
			r := float64(img.Pix[i])
			g := float64(img.Pix[i+1])
			bl := float64(img.Pix[i+2])
			gray[y*w+x] = 0.299*r + 0.587*g + 0.114*bl
		}
	}

	count := float64((w - 2) * (h - 2))
	var sum, sumSq float64
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			v := gray[(y-1)*w+x] + gray[(y+1)*w+x] + gray[y*w+x-1] + gray[y*w+x+1] - 4*gray[y*w+x]
			sum += v
			sumSq += v * v
		}
	}
	mean := sum / count
	return sumSq/count - mean*mean
}

// sharpen applies the fixed 3x3 kernel {0,-1,0; -1,5,-1; 0,-1,0} once to the
// interior; border pixels are copied through.
func sharpen(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	if w < 3 || h < 3 {
		return out
	}

	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			for c := 0; c < 3; c++ {
				center := int(img.Pix[img.PixOffset(b.Min.X+x, b.Min.Y+y)+c])
				up := int(img.Pix[img.PixOffset(b.Min.X+x, b.Min.Y+y-1)+c])
				down := int(img.Pix[img.PixOffset(b.Min.X+x, b.Min.Y+y+1)+c])
				left := int(img.Pix[img.PixOffset(b.Min.X+x-1, b.Min.Y+y)+c])
				right := int(img.Pix[img.PixOffset(b.Min.X+x+1, b.Min.Y+y)+c])
				out.Pix[out.PixOffset(x, y)+c] = clampByte(5*center - up - down - left - right)
			}
			out.Pix[out.PixOffset(x, y)+3] = img.Pix[img.PixOffset(b.Min.X+x, b.Min.Y+y)+3]
		}
	}
	return out
}

func clampByte(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}
