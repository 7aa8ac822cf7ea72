// Package mesh synthesizes closed, 3D-printable triangle meshes from
// lithophane thickness grids.
//
// Coordinate convention: x grows with the grid column, y grows with the
// grid row, z is the panel thickness. The front surface follows the
// height values, the back surface is the z=0 plane, and four wall
// strips stitch the two along the outer boundary. Front faces wind
// counter-clockwise viewed from +Z; back faces are the mirrored
// reversal; walls wind so their outward normals point away from the
// grid interior. The result is watertight: every undirected edge is
// shared by exactly two triangles.
package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"gonum.org/v1/gonum/mat"

	"github.com/AtaCanYmc/LithoStream/heightfield"
	"github.com/AtaCanYmc/LithoStream/stl"
)

// TriWriter accepts STL triangles, typically a *stl.Client.
type TriWriter interface {
	Write(t *stl.Tri) error
}

// Mesh is an indexed triangle mesh: a vertex buffer plus triangles as
// index triplets into it. For a rows x cols source grid, front vertices
// occupy indices [0, rows*cols) in row-major order and the back vertex
// for any front index i is always i + rows*cols.
type Mesh struct {
	Verts []mgl32.Vec3
	Faces [][3]int
}

// Synthesize builds a closed solid from a thickness grid. Spacings
// convert grid cells to millimeters (the reciprocal of the sampling
// resolution). Emission order is deterministic: front/back quads in
// row-major order, then the left/right walls per row pair, then the
// bottom/top walls per column pair.
func Synthesize(z *mat.Dense, xSpacing, ySpacing float64) (*Mesh, error) {
	rows, cols := z.Dims()
	if rows < 2 || cols < 2 {
		return nil, fmt.Errorf("%w: thickness grid is %vx%v, need at least 2x2", heightfield.ErrInvalidGeometry, rows, cols)
	}
	if xSpacing <= 0 || ySpacing <= 0 {
		return nil, fmt.Errorf("%w: spacing %vx%v must be positive", heightfield.ErrInvalidParameter, xSpacing, ySpacing)
	}

	offset := rows * cols

	verts := make([]mgl32.Vec3, 0, 2*offset)
	for r := 0; r < rows; r++ {
		y := float32(float64(r) * ySpacing)
		for c := 0; c < cols; c++ {
			verts = append(verts, mgl32.Vec3{float32(float64(c) * xSpacing), y, float32(z.At(r, c))})
		}
	}
	for r := 0; r < rows; r++ {
		y := float32(float64(r) * ySpacing)
		for c := 0; c < cols; c++ {
			verts = append(verts, mgl32.Vec3{float32(float64(c) * xSpacing), y, 0})
		}
	}

	faces := make([][3]int, 0, 4*(rows-1)*(cols-1)+4*(rows-1)+4*(cols-1))

	// Front and back sheets, two triangles per quad each. The back
	// winding is reversed so the sheet faces -Z.
	for r := 0; r < rows-1; r++ {
		for c := 0; c < cols-1; c++ {
			lt := r*cols + c
			rt := lt + 1
			lb := lt + cols
			rb := lb + 1

			faces = append(faces,
				[3]int{lt, rt, rb},
				[3]int{lt, rb, lb},
				[3]int{lt + offset, rb + offset, rt + offset},
				[3]int{lt + offset, lb + offset, rb + offset},
			)
		}
	}

	// Left (-X) and right (+X) walls.
	for r := 0; r < rows-1; r++ {
		f0 := r * cols
		f1 := f0 + cols
		faces = append(faces,
			[3]int{f1 + offset, f0 + offset, f0},
			[3]int{f1 + offset, f0, f1},
		)

		f0 += cols - 1
		f1 += cols - 1
		faces = append(faces,
			[3]int{f0 + offset, f1 + offset, f1},
			[3]int{f0 + offset, f1, f0},
		)
	}

	// Bottom (-Y) and top (+Y) walls.
	for c := 0; c < cols-1; c++ {
		f0 := c
		f1 := c + 1
		faces = append(faces,
			[3]int{f0 + offset, f1 + offset, f1},
			[3]int{f0 + offset, f1, f0},
		)

		f0 = (rows-1)*cols + c
		f1 = f0 + 1
		faces = append(faces,
			[3]int{f1 + offset, f0 + offset, f0},
			[3]int{f1 + offset, f0, f1},
		)
	}

	return &Mesh{Verts: verts, Faces: faces}, nil
}

// Tris materializes the face list as STL records in emission order.
// Normals are left zero; winding carries the orientation.
func (m *Mesh) Tris() []stl.Tri {
	tris := make([]stl.Tri, len(m.Faces))
	for i, f := range m.Faces {
		tris[i] = stl.Tri{
			V1: [3]float32(m.Verts[f[0]]),
			V2: [3]float32(m.Verts[f[1]]),
			V3: [3]float32(m.Verts[f[2]]),
		}
	}
	return tris
}

// Stream writes the triangles to w in emission order.
func (m *Mesh) Stream(w TriWriter) error {
	for i, f := range m.Faces {
		t := stl.Tri{
			V1: [3]float32(m.Verts[f[0]]),
			V2: [3]float32(m.Verts[f[1]]),
			V3: [3]float32(m.Verts[f[2]]),
		}
		if err := w.Write(&t); err != nil {
			return fmt.Errorf("write triangle %v: %v", i, err)
		}
	}
	return nil
}
