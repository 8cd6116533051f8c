// Package lattice describes a crystal structure and renders Spirit's
// geometry block from it.
package lattice

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/san-kum/spiritgen/internal/numfmt"
)

var (
	ErrSingularCell = errors.New("lattice: cell vectors are linearly dependent")
	ErrNoSites      = errors.New("lattice: structure has no sites")
)

type Vec3 [3]float64

func (v Vec3) Norm() float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}

type Site struct {
	Position Vec3   `yaml:"position" json:"position"`
	Species  string `yaml:"species" json:"species"`
}

// Structure holds the cell vectors (one per row) and the basis sites in
// absolute coordinates.
type Structure struct {
	Cell  [3]Vec3 `yaml:"cell" json:"cell"`
	Sites []Site  `yaml:"sites" json:"sites"`
}

func (s *Structure) Validate() error {
	if len(s.Sites) == 0 {
		return ErrNoSites
	}
	_, err := invert(s.Cell)
	return err
}

// Fractional returns every site position in units of the cell vectors,
// each component folded into [0,1).
func (s *Structure) Fractional() ([]Vec3, error) {
	inv, err := invert(s.Cell)
	if err != nil {
		return nil, err
	}
	out := make([]Vec3, len(s.Sites))
	for n, site := range s.Sites {
		// frac = (cell^T)^-1 . pos = (cell^-1)^T . pos
		var f Vec3
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				f[i] += inv[j][i] * site.Position[j]
			}
			f[i] = fold(f[i])
		}
		out[n] = f
	}
	return out, nil
}

// GeometryBlock renders the bravais vectors and the fractional basis.
func (s *Structure) GeometryBlock() ([]string, error) {
	if len(s.Sites) == 0 {
		return nil, ErrNoSites
	}
	frac, err := s.Fractional()
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, 7+len(frac))
	lines = append(lines, "bravais_vectors")
	for _, v := range s.Cell {
		lines = append(lines, numfmt.Join(v[:], " "))
	}
	lines = append(lines, "", "basis", strconv.Itoa(len(frac)))
	for _, f := range frac {
		lines = append(lines, numfmt.Join(f[:], " "))
	}
	return lines, nil
}

// Species returns the distinct species labels in order of first appearance.
func (s *Structure) Species() []string {
	seen := make(map[string]bool)
	var out []string
	for _, site := range s.Sites {
		if !seen[site.Species] {
			seen[site.Species] = true
			out = append(out, site.Species)
		}
	}
	return out
}

func (s *Structure) String() string {
	return fmt.Sprintf("%d sites, species %s", len(s.Sites), strings.Join(s.Species(), ","))
}

const foldTol = 1e-12

func fold(x float64) float64 {
	x -= math.Floor(x)
	if x >= 1-foldTol || x < foldTol {
		return 0
	}
	return x
}

func invert(m [3]Vec3) ([3]Vec3, error) {
	det := m[0][0]*(m[1][1]*m[2][2]-m[1][2]*m[2][1]) -
		m[0][1]*(m[1][0]*m[2][2]-m[1][2]*m[2][0]) +
		m[0][2]*(m[1][0]*m[2][1]-m[1][1]*m[2][0])
	if math.Abs(det) < 1e-12 {
		return [3]Vec3{}, ErrSingularCell
	}
	var inv [3]Vec3
	inv[0][0] = (m[1][1]*m[2][2] - m[1][2]*m[2][1]) / det
	inv[0][1] = (m[0][2]*m[2][1] - m[0][1]*m[2][2]) / det
	inv[0][2] = (m[0][1]*m[1][2] - m[0][2]*m[1][1]) / det
	inv[1][0] = (m[1][2]*m[2][0] - m[1][0]*m[2][2]) / det
	inv[1][1] = (m[0][0]*m[2][2] - m[0][2]*m[2][0]) / det
	inv[1][2] = (m[0][2]*m[1][0] - m[0][0]*m[1][2]) / det
	inv[2][0] = (m[1][0]*m[2][1] - m[1][1]*m[2][0]) / det
	inv[2][1] = (m[0][1]*m[2][0] - m[0][0]*m[2][1]) / det
	inv[2][2] = (m[0][0]*m[1][1] - m[0][1]*m[1][0]) / det
	return inv, nil
}
