package mesh

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/AtaCanYmc/LithoStream/heightfield"
	"github.com/AtaCanYmc/LithoStream/stl"
)

func uniformGrid(rows, cols int, h float64) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = h
	}
	return mat.NewDense(rows, cols, data)
}

func rampGrid(rows, cols int) *mat.Dense {
	z := mat.NewDense(rows, cols, nil)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			z.Set(r, c, 0.5+0.1*float64(r*cols+c))
		}
	}
	return z
}

func wantFaces(rows, cols int) int {
	return 4*(rows-1)*(cols-1) + 4*(rows-1) + 4*(cols-1)
}

func TestSynthesizeCounts(t *testing.T) {
	tests := []struct {
		rows, cols int
	}{
		{2, 2},
		{2, 5},
		{5, 2},
		{4, 4},
		{7, 13},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("test #%v: %vx%v", i, tt.rows, tt.cols), func(t *testing.T) {
			m, err := Synthesize(rampGrid(tt.rows, tt.cols), 0.2, 0.2)
			if err != nil {
				t.Fatalf("Synthesize: %v", err)
			}

			if got, want := len(m.Verts), 2*tt.rows*tt.cols; got != want {
				t.Errorf("got %v vertices, want %v", got, want)
			}
			if got, want := len(m.Faces), wantFaces(tt.rows, tt.cols); got != want {
				t.Errorf("got %v faces, want %v", got, want)
			}
		})
	}
}

func TestSynthesizeVertexLayout(t *testing.T) {
	const rows, cols = 3, 4
	z := rampGrid(rows, cols)
	m, err := Synthesize(z, 0.5, 0.25)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	offset := rows * cols
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			i := r*cols + c
			front, back := m.Verts[i], m.Verts[i+offset]

			if got, want := front.X(), float32(float64(c)*0.5); got != want {
				t.Errorf("front[%v].x = %v, want %v", i, got, want)
			}
			if got, want := front.Y(), float32(float64(r)*0.25); got != want {
				t.Errorf("front[%v].y = %v, want %v", i, got, want)
			}
			if got, want := front.Z(), float32(z.At(r, c)); got != want {
				t.Errorf("front[%v].z = %v, want %v", i, got, want)
			}

			if back.X() != front.X() || back.Y() != front.Y() {
				t.Errorf("back[%v] xy = (%v,%v), want (%v,%v)", i, back.X(), back.Y(), front.X(), front.Y())
			}
			if back.Z() != 0 {
				t.Errorf("back[%v].z = %v, want 0", i, back.Z())
			}
		}
	}
}

// TestSynthesizeWatertight asserts the manifold condition: every
// undirected edge is shared by exactly two faces, and because winding
// is consistent, every directed edge appears exactly once.
func TestSynthesizeWatertight(t *testing.T) {
	tests := []struct {
		rows, cols int
	}{
		{2, 2},
		{3, 3},
		{4, 7},
		{9, 5},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("test #%v: %vx%v", i, tt.rows, tt.cols), func(t *testing.T) {
			m, err := Synthesize(rampGrid(tt.rows, tt.cols), 0.2, 0.2)
			if err != nil {
				t.Fatalf("Synthesize: %v", err)
			}

			directed := map[[2]int]int{}
			for _, f := range m.Faces {
				for e := 0; e < 3; e++ {
					directed[[2]int{f[e], f[(e+1)%3]}]++
				}
			}

			for e, n := range directed {
				if n != 1 {
					t.Fatalf("directed edge %v emitted %v times, want 1", e, n)
				}
				if directed[[2]int{e[1], e[0]}] != 1 {
					t.Fatalf("edge %v has no opposing twin; mesh is not closed", e)
				}
			}
		})
	}
}

// TestSynthesizeVolume checks outward orientation via the divergence
// theorem: the signed volume of a uniform panel must equal its
// rectangular volume, and must be positive.
func TestSynthesizeVolume(t *testing.T) {
	tests := []struct {
		rows, cols int
		h, spacing float64
	}{
		{2, 2, 1.0, 1.0}, // unit cube
		{3, 5, 2.5, 0.2},
		{6, 4, 0.8, 0.5},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("test #%v", i), func(t *testing.T) {
			m, err := Synthesize(uniformGrid(tt.rows, tt.cols, tt.h), tt.spacing, tt.spacing)
			if err != nil {
				t.Fatalf("Synthesize: %v", err)
			}

			var vol float64
			for _, f := range m.Faces {
				a, b, c := m.Verts[f[0]], m.Verts[f[1]], m.Verts[f[2]]
				ax, ay, az := float64(a.X()), float64(a.Y()), float64(a.Z())
				bx, by, bz := float64(b.X()), float64(b.Y()), float64(b.Z())
				cx, cy, cz := float64(c.X()), float64(c.Y()), float64(c.Z())
				vol += ax*(by*cz-bz*cy) + ay*(bz*cx-bx*cz) + az*(bx*cy-by*cx)
			}
			vol /= 6

			want := float64(tt.rows-1) * float64(tt.cols-1) * tt.spacing * tt.spacing * tt.h
			if math.Abs(vol-want) > 1e-4 {
				t.Errorf("signed volume = %v, want %v", vol, want)
			}
		})
	}
}

// A uniform 2x2 grid is the smallest valid panel: one interior cell
// giving 4 front/back triangles plus 8 wall triangles.
func TestSynthesizeSmallestPanel(t *testing.T) {
	m, err := Synthesize(uniformGrid(2, 2, 3.0), 0.2, 0.2)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if got, want := len(m.Faces), 12; got != want {
		t.Errorf("got %v faces, want %v", got, want)
	}
	for i := 0; i < 4; i++ {
		if got := m.Verts[i].Z(); got != 3.0 {
			t.Errorf("front vertex %v height = %v, want 3", i, got)
		}
	}
}

func TestSynthesizeDeterminism(t *testing.T) {
	z := rampGrid(5, 7)
	m1, err := Synthesize(z, 0.2, 0.2)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	m2, err := Synthesize(z, 0.2, 0.2)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	if !reflect.DeepEqual(m1, m2) {
		t.Errorf("identical inputs produced different meshes")
	}
}

func TestSynthesizeErrors(t *testing.T) {
	tests := []struct {
		name    string
		z       *mat.Dense
		xs, ys  float64
		wantErr error
	}{
		{
			name:    "single row",
			z:       uniformGrid(1, 5, 1),
			xs:      0.2,
			ys:      0.2,
			wantErr: heightfield.ErrInvalidGeometry,
		},
		{
			name:    "single column",
			z:       uniformGrid(5, 1, 1),
			xs:      0.2,
			ys:      0.2,
			wantErr: heightfield.ErrInvalidGeometry,
		},
		{
			name:    "zero spacing",
			z:       uniformGrid(3, 3, 1),
			xs:      0,
			ys:      0.2,
			wantErr: heightfield.ErrInvalidParameter,
		},
		{
			name:    "negative spacing",
			z:       uniformGrid(3, 3, 1),
			xs:      0.2,
			ys:      -0.2,
			wantErr: heightfield.ErrInvalidParameter,
		},
	}

	for i, tt := range tests {
		t.Run(fmt.Sprintf("test #%v: %v", i, tt.name), func(t *testing.T) {
			if _, err := Synthesize(tt.z, tt.xs, tt.ys); !errors.Is(err, tt.wantErr) {
				t.Errorf("got error %v, want %v", err, tt.wantErr)
			}
		})
	}
}

type collectWriter struct {
	tris []stl.Tri
	err  error
}

func (c *collectWriter) Write(t *stl.Tri) error {
	if c.err != nil {
		return c.err
	}
	c.tris = append(c.tris, *t)
	return nil
}

func TestStreamMatchesTris(t *testing.T) {
	m, err := Synthesize(rampGrid(4, 5), 0.2, 0.2)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	w := &collectWriter{}
	if err := m.Stream(w); err != nil {
		t.Fatalf("Stream: %v", err)
	}

	if !reflect.DeepEqual(w.tris, m.Tris()) {
		t.Errorf("streamed triangles differ from materialized triangles")
	}
}

func TestStreamWriteError(t *testing.T) {
	m, err := Synthesize(rampGrid(2, 2), 0.2, 0.2)
	if err != nil {
		t.Fatalf("Synthesize: %v", err)
	}

	w := &collectWriter{err: errors.New("disk full")}
	if err := m.Stream(w); err == nil {
		t.Errorf("expected stream error, got nil")
	}
}
