// Package tables writes the tab-separated data files read by Spirit:
// pair couplings, pinned spins, defects, initial spin directions and the
// atom-type composition used for disordered systems.
package tables

import (
	"bytes"
	"encoding/csv"
	"math"
	"sort"

	"github.com/san-kum/spiritgen/internal/numfmt"
)

const (
	plainWidth = 6
	dmiWidth   = 9
)

var (
	couplingHeader = []string{"i", "j", "da", "db", "dc", "Jij"}
	dmiHeader      = []string{"Dij", "Dijx", "Dijy", "Dijz"}
)

// CouplingOptions restricts which coupling rows are written.
type CouplingOptions struct {
	// Positions holds one distance vector per coupling row. Only used
	// when Cutoff is positive.
	Positions [][]float64
	// Cutoff drops rows whose position norm exceeds it. Zero disables.
	Cutoff float64
}

// Couplings renders the pair interaction table. Rows have six columns
// (i, j, da, db, dc, Jij) or nine when a DMI vector follows; the vector is
// written as its magnitude and unit direction. Seven and eight columns are
// rejected with ErrMalformedRow rather than read as DMI: they cannot hold
// all three vector components.
func Couplings(rows [][]float64, opts CouplingOptions) (string, error) {
	if len(rows) == 0 {
		return "", rowErr("couplings", 0, ErrMalformedRow, "no rows")
	}
	width := len(rows[0])
	switch {
	case width < plainWidth:
		return "", rowErr("couplings", 0, ErrMalformedRow, "need at least %d columns, got %d", plainWidth, width)
	case width > plainWidth && width < dmiWidth:
		return "", rowErr("couplings", 0, ErrMalformedRow, "%d columns cannot hold a 3-component DMI vector", width)
	}
	dmi := width >= dmiWidth

	keep, err := cutoffMask(rows, opts)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	w := newWriter(&buf)
	header := couplingHeader
	if dmi {
		header = append(append([]string{}, couplingHeader...), dmiHeader...)
	}
	if err := w.Write(header); err != nil {
		return "", err
	}

	for n, row := range rows {
		if len(row) != width {
			return "", rowErr("couplings", n, ErrMalformedRow, "expected %d columns, got %d", width, len(row))
		}
		if !keep[n] {
			continue
		}
		for c := plainWidth - 1; c < width; c++ {
			if math.IsNaN(row[c]) || math.IsInf(row[c], 0) {
				return "", rowErr("couplings", n, ErrMalformedRow, "column %d is %v", c, row[c])
			}
		}
		rec := make([]string, 0, len(header))
		for c := 0; c < 5; c++ {
			s, err := intCell("couplings", n, row[c])
			if err != nil {
				return "", err
			}
			rec = append(rec, s)
		}
		rec = append(rec, numfmt.Float(row[5]))
		if dmi {
			mag, dir := magnitudeDirection(row[6], row[7], row[8])
			rec = append(rec, numfmt.Float(mag), numfmt.Float(dir[0]), numfmt.Float(dir[1]), numfmt.Float(dir[2]))
		}
		if err := w.Write(rec); err != nil {
			return "", err
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}

// cutoffMask marks the rows that survive the distance cutoff. The test is
// inclusive: a row exactly at the cutoff is kept.
func cutoffMask(rows [][]float64, opts CouplingOptions) ([]bool, error) {
	keep := make([]bool, len(rows))
	if opts.Cutoff <= 0 {
		for i := range keep {
			keep[i] = true
		}
		return keep, nil
	}
	if len(opts.Positions) != len(rows) {
		return nil, rowErr("couplings", 0, ErrPositionsMismatch, "%d positions for %d rows", len(opts.Positions), len(rows))
	}
	for i, p := range opts.Positions {
		keep[i] = norm(p...) <= opts.Cutoff
	}
	return keep, nil
}

// magnitudeDirection splits a DMI vector. A zero vector means the pair
// has no DMI and is written with zero magnitude and direction.
func magnitudeDirection(x, y, z float64) (float64, [3]float64) {
	mag := norm(x, y, z)
	if mag == 0 {
		return 0, [3]float64{}
	}
	return mag, [3]float64{x / mag, y / mag, z / mag}
}

// Pinning renders rows of (i, da, db, dc, Sx, Sy, Sz) with the pinned
// direction normalized.
func Pinning(rows [][]float64) (string, error) {
	return addressed("pinning", rows, 7, func(n int, row []float64) ([]string, error) {
		return unit("pinning", n, row[4], row[5], row[6])
	})
}

// Defects renders rows of (i, da, db, dc, itype); itype < 0 is a vacancy.
// An empty table is written as an explicit zero count.
func Defects(rows [][]float64) (string, error) {
	if len(rows) == 0 {
		return "n_defects 0\n", nil
	}
	return addressed("defects", rows, 5, func(n int, row []float64) ([]string, error) {
		s, err := intCell("defects", n, row[4])
		if err != nil {
			return nil, err
		}
		return []string{s}, nil
	})
}

// InitialState renders one normalized spin direction per row.
func InitialState(rows [][]float64) (string, error) {
	var buf bytes.Buffer
	w := newWriter(&buf)
	for n, row := range rows {
		if len(row) != 3 {
			return "", rowErr("initial_state", n, ErrMalformedRow, "expected 3 columns, got %d", len(row))
		}
		dir, err := unit("initial_state", n, row[0], row[1], row[2])
		if err != nil {
			return "", err
		}
		if err := w.Write(dir); err != nil {
			return "", err
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}

// addressed writes tables whose first four columns address a site in the
// supercell (i, da, db, dc); tail renders the remaining columns.
func addressed(table string, rows [][]float64, width int, tail func(int, []float64) ([]string, error)) (string, error) {
	var buf bytes.Buffer
	w := newWriter(&buf)
	for n, row := range rows {
		if len(row) != width {
			return "", rowErr(table, n, ErrMalformedRow, "expected %d columns, got %d", width, len(row))
		}
		rec := make([]string, 0, width)
		for c := 0; c < 4; c++ {
			s, err := intCell(table, n, row[c])
			if err != nil {
				return "", err
			}
			rec = append(rec, s)
		}
		rest, err := tail(n, row)
		if err != nil {
			return "", err
		}
		if err := w.Write(append(rec, rest...)); err != nil {
			return "", err
		}
	}
	w.Flush()
	return buf.String(), w.Error()
}

// AtomType is one line of Spirit's atom_types block.
type AtomType struct {
	Species       int
	Type          int
	Moment        float64
	Concentration float64
}

// AtomTypes aggregates rows of (species, type, mu_s, concentration) by
// unique species/type pair: concentrations add up and the first moment
// seen is kept. The result is ordered by species, then type.
func AtomTypes(rows [][]float64) ([]AtomType, error) {
	type key struct{ species, typ int }
	index := make(map[key]int)
	var out []AtomType
	for n, row := range rows {
		if len(row) != 4 {
			return nil, rowErr("atom_types", n, ErrMalformedRow, "expected 4 columns, got %d", len(row))
		}
		sp, ok := integral(row[0])
		if !ok {
			return nil, rowErr("atom_types", n, ErrMalformedRow, "species index %v is not an integer", row[0])
		}
		ty, ok := integral(row[1])
		if !ok {
			return nil, rowErr("atom_types", n, ErrMalformedRow, "type id %v is not an integer", row[1])
		}
		k := key{int(sp), int(ty)}
		if i, seen := index[k]; seen {
			out[i].Concentration += row[3]
			continue
		}
		index[k] = len(out)
		out = append(out, AtomType{Species: k.species, Type: k.typ, Moment: row[2], Concentration: row[3]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Species != out[j].Species {
			return out[i].Species < out[j].Species
		}
		return out[i].Type < out[j].Type
	})
	return out, nil
}

func (a AtomType) Fields() []string {
	return []string{
		numfmt.Int(int64(a.Species)),
		numfmt.Int(int64(a.Type)),
		numfmt.Float(a.Moment),
		numfmt.Float(a.Concentration),
	}
}

func newWriter(buf *bytes.Buffer) *csv.Writer {
	w := csv.NewWriter(buf)
	w.Comma = '\t'
	return w
}

func unit(table string, row int, x, y, z float64) ([]string, error) {
	n := norm(x, y, z)
	if n == 0 || math.IsNaN(n) || math.IsInf(n, 0) {
		return nil, rowErr(table, row, ErrZeroDirection, "direction (%v, %v, %v) cannot be normalized", x, y, z)
	}
	return []string{numfmt.Float(x / n), numfmt.Float(y / n), numfmt.Float(z / n)}, nil
}

func intCell(table string, row int, v float64) (string, error) {
	i, ok := integral(v)
	if !ok {
		return "", rowErr(table, row, ErrMalformedRow, "index column value %v is not an integer", v)
	}
	return numfmt.Int(i), nil
}

func integral(v float64) (int64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) || v != math.Trunc(v) {
		return 0, false
	}
	return int64(v), true
}

func norm(v ...float64) float64 {
	sum := 0.0
	for _, x := range v {
		sum += x * x
	}
	return math.Sqrt(sum)
}
