// Package heightfield maps grayscale intensity grids to lithophane
// thickness grids. All lengths are millimeters; intensity samples are
// expected in [0, 1].
package heightfield

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Pipeline error taxonomy. Every stage of the lithophane pipeline fails
// through one of these sentinels so callers can classify violations with
// errors.Is.
var (
	// ErrInvalidGeometry reports a grid too small to form a solid.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrInvalidParameter reports a thickness, frame, or resolution
	// value outside its valid range.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// Options control the intensity-to-thickness mapping.
type Options struct {
	MinThick         float64 // thickness of the brightest cells, > 0 recommended
	MaxThick         float64 // thickness of the darkest cells, > MinThick
	FrameThick       float64 // frame width in mm; 0 disables the frame
	FrameExtraHeight float64 // frame plateau height above the tallest relief
	Resolution       float64 // samples per millimeter, > 0
	BackingCells     int     // zero-height cells added per side after framing
}

func (o Options) validate() error {
	switch {
	case o.MinThick < 0:
		return fmt.Errorf("%w: min thickness %v is negative", ErrInvalidParameter, o.MinThick)
	case o.MinThick >= o.MaxThick:
		return fmt.Errorf("%w: min thickness %v must be less than max thickness %v", ErrInvalidParameter, o.MinThick, o.MaxThick)
	case o.Resolution <= 0:
		return fmt.Errorf("%w: resolution %v must be positive", ErrInvalidParameter, o.Resolution)
	case o.FrameThick < 0:
		return fmt.Errorf("%w: frame thickness %v is negative", ErrInvalidParameter, o.FrameThick)
	case o.FrameExtraHeight < 0:
		return fmt.Errorf("%w: frame extra height %v is negative", ErrInvalidParameter, o.FrameExtraHeight)
	case o.BackingCells < 0:
		return fmt.Errorf("%w: backing cells %v is negative", ErrInvalidParameter, o.BackingCells)
	}
	return nil
}

// Build converts an intensity grid to a thickness grid. Rows are flipped
// so the print coordinate origin is bottom-left (image origin is
// top-left), then each sample is mapped darker-is-thicker:
//
//	h = (1-v)*(MaxThick-MinThick) + MinThick
//
// A positive FrameThick grows the grid symmetrically by
// round(FrameThick*Resolution) cells per side at a flat plateau of
// max(h) + FrameExtraHeight. BackingCells then adds that many
// zero-height cells per side so the wall stitching always has a flat
// outer margin. The input is never mutated.
func Build(intensity *mat.Dense, opts Options) (*mat.Dense, error) {
	rows, cols := intensity.Dims()
	if rows < 2 || cols < 2 {
		return nil, fmt.Errorf("%w: intensity grid is %vx%v, need at least 2x2", ErrInvalidGeometry, rows, cols)
	}
	if err := opts.validate(); err != nil {
		return nil, err
	}

	depth := opts.MaxThick - opts.MinThick
	z := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		src := rows - 1 - r
		for c := 0; c < cols; c++ {
			z.Set(r, c, (1-intensity.At(src, c))*depth+opts.MinThick)
		}
	}

	if opts.FrameThick > 0 {
		frameCells := int(math.Round(opts.FrameThick * opts.Resolution))
		if frameCells < 1 {
			return nil, fmt.Errorf("%w: frame %vmm rounds to zero cells at %v samples/mm",
				ErrInvalidParameter, opts.FrameThick, opts.Resolution)
		}
		z = pad(z, frameCells, mat.Max(z)+opts.FrameExtraHeight)
	}

	if opts.BackingCells > 0 {
		z = pad(z, opts.BackingCells, 0)
	}

	return z, nil
}

// pad returns a copy of z grown by n cells on every side, with the new
// border cells set to fill.
func pad(z *mat.Dense, n int, fill float64) *mat.Dense {
	rows, cols := z.Dims()
	data := make([]float64, (rows+2*n)*(cols+2*n))
	if fill != 0 {
		for i := range data {
			data[i] = fill
		}
	}
	out := mat.NewDense(rows+2*n, cols+2*n, data)
	out.Slice(n, n+rows, n, n+cols).(*mat.Dense).Copy(z)
	return out
}
