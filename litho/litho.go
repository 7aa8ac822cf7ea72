// Package litho is the lithophane pipeline entry point: it turns a
// normalized intensity grid into a binary STL buffer describing a
// closed, printable relief panel.
package litho

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/AtaCanYmc/LithoStream/heightfield"
	"github.com/AtaCanYmc/LithoStream/imgutil"
	"github.com/AtaCanYmc/LithoStream/mesh"
	"github.com/AtaCanYmc/LithoStream/stl"
)

// Error taxonomy, re-exported so callers depend on one package.
var (
	ErrInvalidGeometry  = heightfield.ErrInvalidGeometry
	ErrInvalidParameter = heightfield.ErrInvalidParameter
	ErrUnsupportedInput = imgutil.ErrUnsupportedInput
)

// backingCells is the flat zero-height margin added around every panel
// so the wall stitching always lands on a level rim.
const backingCells = 1

// Params are the user-facing lithophane parameters. All lengths are
// millimeters; Resolution is samples per millimeter.
type Params struct {
	MinThick         float64
	MaxThick         float64
	FrameThick       float64
	FrameExtraHeight float64
	Resolution       float64
}

// DefaultParams returns the service defaults: 0.5-3.0 mm relief, a
// 1 mm frame flush with the tallest feature, 5 samples/mm.
func DefaultParams() Params {
	return Params{
		MinThick:   0.5,
		MaxThick:   3.0,
		FrameThick: 1.0,
		Resolution: 5,
	}
}

// Generate runs the full pipeline: intensity grid to thickness grid to
// closed mesh to binary STL bytes. It is pure and deterministic:
// identical inputs produce byte-identical output. Any violation aborts
// before bytes are produced; callers never see a partial mesh.
func Generate(intensity *mat.Dense, p Params) ([]byte, error) {
	m, err := Solid(intensity, p)
	if err != nil {
		return nil, err
	}

	buf, err := stl.Marshal(m.Tris())
	if err != nil {
		return nil, fmt.Errorf("serialize: %w", err)
	}
	return buf, nil
}

// Solid builds the closed mesh without serializing it, for callers that
// stream triangles to disk instead of buffering the STL in memory.
func Solid(intensity *mat.Dense, p Params) (*mesh.Mesh, error) {
	z, err := heightfield.Build(intensity, heightfield.Options{
		MinThick:         p.MinThick,
		MaxThick:         p.MaxThick,
		FrameThick:       p.FrameThick,
		FrameExtraHeight: p.FrameExtraHeight,
		Resolution:       p.Resolution,
		BackingCells:     backingCells,
	})
	if err != nil {
		return nil, fmt.Errorf("height field: %w", err)
	}

	spacing := 1.0 / p.Resolution
	m, err := mesh.Synthesize(z, spacing, spacing)
	if err != nil {
		return nil, fmt.Errorf("mesh: %w", err)
	}
	return m, nil
}
