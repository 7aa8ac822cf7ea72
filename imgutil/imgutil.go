// Package imgutil prepares uploaded images for the lithophane pipeline:
// decoding, grayscale conversion, physical-size resampling, and
// conversion to a normalized intensity grid.
package imgutil

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"
	"gonum.org/v1/gonum/mat"

	// Registered decoders for the supported upload formats.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
)

// ErrUnsupportedInput reports image data the pipeline cannot consume.
var ErrUnsupportedInput = errors.New("unsupported input")

// Decode decodes PNG, JPEG, or BMP bytes.
func Decode(b []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: image could not be decoded: %v", ErrUnsupportedInput, err)
	}
	return img, nil
}

// ToGray converts any image to 8-bit grayscale.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	g := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(g, g.Bounds(), img, b.Min, draw.Src)
	return g
}

// Resize resamples the image to the given physical size at the given
// sampling resolution (samples per millimeter) using a bilinear scaler.
func Resize(img *image.Gray, widthMM, heightMM, resolution float64) (*image.Gray, error) {
	w := int(math.Round(widthMM * resolution))
	h := int(math.Round(heightMM * resolution))
	if w < 2 || h < 2 {
		return nil, fmt.Errorf("%w: target size %vx%v px (%vx%v mm at %v samples/mm) is too small",
			ErrUnsupportedInput, w, h, widthMM, heightMM, resolution)
	}
	dst := image.NewGray(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Src, nil)
	return dst, nil
}

// AddBorder surrounds the image with a black border of the given width
// in pixels. Black borders map to the thickest relief, giving the panel
// a dark rim even without a raised frame.
func AddBorder(img *image.Gray, px int) *image.Gray {
	if px <= 0 {
		return img
	}
	b := img.Bounds()
	dst := image.NewGray(image.Rect(0, 0, b.Dx()+2*px, b.Dy()+2*px))
	draw.Draw(dst, image.Rect(px, px, px+b.Dx(), px+b.Dy()), img, b.Min, draw.Src)
	return dst
}

// Intensity converts a grayscale image to a row-major intensity grid
// normalized by the brightest sample, so values span [0, 1]. An
// all-black image stays zero.
func Intensity(img *image.Gray) (*mat.Dense, error) {
	b := img.Bounds()
	rows, cols := b.Dy(), b.Dx()
	if rows < 2 || cols < 2 {
		return nil, fmt.Errorf("%w: image is %vx%v px, need at least 2x2", ErrUnsupportedInput, cols, rows)
	}

	var max uint8
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if v := img.GrayAt(x, y).Y; v > max {
				max = v
			}
		}
	}
	scale := 1.0
	if max > 0 {
		scale = 1.0 / float64(max)
	}

	grid := mat.NewDense(rows, cols, nil)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			grid.Set(y-b.Min.Y, x-b.Min.X, float64(img.GrayAt(x, y).Y)*scale)
		}
	}
	return grid, nil
}
