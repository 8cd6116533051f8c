package inputcfg

import (
	"errors"
	"strings"
	"testing"

	"github.com/san-kum/spiritgen/internal/lattice"
	"github.com/san-kum/spiritgen/internal/tables"
)

type fixedGeometry []string

func (g fixedGeometry) GeometryBlock() ([]string, error) { return g, nil }

type brokenGeometry struct{}

func (brokenGeometry) GeometryBlock() ([]string, error) { return nil, lattice.ErrSingularCell }

var geom = fixedGeometry{"bravais_vectors", "1 0 0", "0 1 0", "0 0 1", "", "basis", "1", "0 0 0"}

func TestMergeEmptyParamsKeepsTemplate(t *testing.T) {
	tmpl := DefaultTemplate()
	out, err := Merge(tmpl, nil, geom, Extras{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(out) != len(tmpl)-1+len(geom) {
		t.Fatalf("got %d lines, want %d", len(out), len(tmpl)-1+len(geom))
	}

	j := 0
	for _, line := range tmpl {
		if strings.HasPrefix(line, GeometryMarker) {
			for _, g := range geom {
				if out[j] != g {
					t.Fatalf("line %d: got %q, want geometry line %q", j, out[j], g)
				}
				j++
			}
			continue
		}
		if out[j] != line {
			t.Fatalf("line %d: got %q, want %q", j, out[j], line)
		}
		j++
	}
}

func TestMergePreservesSeparator(t *testing.T) {
	tests := []struct {
		line string
		val  string
		want string
	}{
		{"llg_damping    0.5", "1.0", "llg_damping    1.0"},
		{"llg_damping 0.5", "1.0", "llg_damping 1.0"},
		{"llg_damping\t0.5", "1.0", "llg_damping\t1.0"},
		{"llg_damping", "1.0", "llg_damping 1.0"},
		{"  llg_damping  0.5", "1.0", "  llg_damping  1.0"},
		{"external_field_normal    0 0 1", "1.0 0.0 0.0", "external_field_normal    1.0 0.0 0.0"},
	}
	for _, tt := range tests {
		out, err := Merge([]string{tt.line}, map[string]string{
			"llg_damping":           tt.val,
			"external_field_normal": tt.val,
		}, geom, Extras{})
		if err != nil {
			t.Fatalf("Merge: %v", err)
		}
		if out[0] != tt.want {
			t.Errorf("Merge(%q) = %q, want %q", tt.line, out[0], tt.want)
		}
	}
}

func TestMergeSkipsCommentsAndBlankLines(t *testing.T) {
	tmpl := []string{
		"# llg_damping 0.3",
		"",
		"   ",
		"#llg_damping",
		"llg_damping 0.3",
	}
	out, err := Merge(tmpl, map[string]string{"llg_damping": "0.9"}, geom, Extras{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	want := []string{"# llg_damping 0.3", "", "   ", "#llg_damping", "llg_damping 0.9"}
	if strings.Join(out, "\n") != strings.Join(want, "\n") {
		t.Errorf("got %q", out)
	}
}

func TestMergeForbiddenKeyUntouched(t *testing.T) {
	out, err := Merge([]string{"lattice_constant 1.0"}, map[string]string{"lattice_constant": "2.0"}, geom, Extras{})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if out[0] != "lattice_constant 1.0" {
		t.Errorf("forbidden key replaced: %q", out[0])
	}
}

func TestMergeGeometryError(t *testing.T) {
	_, err := Merge([]string{"bravais_lattice sc"}, nil, brokenGeometry{}, Extras{})
	if !errors.Is(err, lattice.ErrSingularCell) {
		t.Errorf("err = %v, want ErrSingularCell", err)
	}
}

func TestMergeExtras(t *testing.T) {
	out, err := Merge([]string{"mu_s 2.0"}, nil, geom, Extras{
		PinningFile: "pinning.txt",
		DefectsFile: "defects.txt",
		AtomTypes: []tables.AtomType{
			{Species: 0, Type: 1, Moment: 2.2, Concentration: 0.1},
		},
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	text := Render(out)
	for _, want := range []string{
		"\npinning_from_file pinning.txt\n",
		"\ndefects_from_file defects.txt\n",
		"\natom_types 1\n0\t1\t2.2\t0.1\n",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in\n%s", want, text)
		}
	}

	out, _ = Merge([]string{"mu_s 2.0"}, nil, geom, Extras{AtomTypes: []tables.AtomType{{}}})
	if strings.Contains(Render(out), "atom_types") {
		t.Error("atom types written without a defects block")
	}
}

func TestUnused(t *testing.T) {
	got := Unused([]string{"# mc_seed 1", "llg_seed 2"}, map[string]string{"mc_seed": "1", "llg_seed": "3"})
	if len(got) != 1 || got[0] != "mc_seed" {
		t.Errorf("Unused = %v", got)
	}
	if got := Unused(DefaultTemplate(), map[string]string{"llg_damping": "0.1"}); len(got) != 0 {
		t.Errorf("default template misses %v", got)
	}
}

func TestReadTemplate(t *testing.T) {
	lines, err := ReadTemplate(strings.NewReader("a 1\n\nb 2\n"))
	if err != nil {
		t.Fatalf("ReadTemplate: %v", err)
	}
	if len(lines) != 3 || lines[1] != "" {
		t.Errorf("lines = %q", lines)
	}
	if Render(lines) != "a 1\n\nb 2\n" {
		t.Errorf("Render = %q", Render(lines))
	}
}
