package storage

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/san-kum/spiritgen/internal/outparse"
	"github.com/san-kum/spiritgen/internal/results"
)

func sampleResult() *results.Result {
	return &results.Result{
		Record:     outparse.Parse([]string{"Solver: Depondt", "Number of  Errors: 0"}, nil),
		Energies:   [][]float64{{1, -3.0}, {2, -3.5}},
		FinalSpins: [][]float64{{0, 0, 1}},
	}
}

func TestStoreSaveLoad(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runID, err := st.Save("test", "/runs/a", sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	if !strings.HasPrefix(runID, "test_") {
		t.Errorf("unexpected run id %q", runID)
	}

	meta, err := st.Load(runID)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if meta.Name != "test" || meta.Source != "/runs/a" {
		t.Errorf("unexpected metadata %+v", meta)
	}
	if meta.Spins != 1 || meta.EnergyRows != 2 {
		t.Errorf("expected 1 spin and 2 energy rows, got %d and %d", meta.Spins, meta.EnergyRows)
	}
	if meta.Record == nil || meta.Record.Solver == nil || *meta.Record.Solver != "Depondt" {
		t.Errorf("record not stored: %+v", meta.Record)
	}

	energies, err := st.LoadEnergies(runID)
	if err != nil {
		t.Fatalf("load energies failed: %v", err)
	}
	if len(energies) != 2 || energies[1][1] != -3.5 {
		t.Errorf("unexpected energies %v", energies)
	}

	mc, err := st.LoadMC(runID)
	if err != nil || mc != nil {
		t.Errorf("expected no sweep, got %v, %v", mc, err)
	}
}

func TestStoreMC(t *testing.T) {
	st := New(t.TempDir())
	res := sampleResult()
	res.MC = []results.MCSample{{T: 1, E: -2, M: 0.9, Chi: 0.1, Cv: 0.2, U4: 0.6}}

	runID, err := st.Save("mc", "", res)
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}
	mc, err := st.LoadMC(runID)
	if err != nil {
		t.Fatalf("load mc failed: %v", err)
	}
	if len(mc) != 1 || mc[0] != res.MC[0] {
		t.Errorf("got %v, want %v", mc, res.MC)
	}
}

func TestStoreList(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	if err := st.Init(); err != nil {
		t.Fatalf("init failed: %v", err)
	}

	runs, err := st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 0 {
		t.Errorf("expected 0 runs, got %d", len(runs))
	}

	for _, name := range []string{"a", "b"} {
		if _, err := st.Save(name, "", sampleResult()); err != nil {
			t.Fatalf("save failed: %v", err)
		}
	}
	if err := os.Mkdir(filepath.Join(tmpDir, "junk"), 0755); err != nil {
		t.Fatal(err)
	}

	runs, err = st.List()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(runs) != 2 {
		t.Errorf("expected 2 runs, got %d", len(runs))
	}

	if runs, err := New(filepath.Join(tmpDir, "absent")).List(); err != nil || len(runs) != 0 {
		t.Errorf("missing store: %v, %v", runs, err)
	}
}

func TestStoreLoadMissing(t *testing.T) {
	st := New(t.TempDir())
	if _, err := st.Load("nope"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestStoreFileStructure(t *testing.T) {
	tmpDir := t.TempDir()
	st := New(tmpDir)

	runID, err := st.Save("test", "", sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	runDir := filepath.Join(tmpDir, runID)
	for _, name := range []string{"metadata.json", "energies.csv"} {
		if _, err := os.Stat(filepath.Join(runDir, name)); os.IsNotExist(err) {
			t.Errorf("%s not created", name)
		}
	}
	if _, err := os.Stat(filepath.Join(runDir, "mc.csv")); !os.IsNotExist(err) {
		t.Error("mc.csv written for a run without a sweep")
	}
}

func TestExportJSON(t *testing.T) {
	st := New(t.TempDir())
	runID, err := st.Save("test", "", sampleResult())
	if err != nil {
		t.Fatalf("save failed: %v", err)
	}

	data, err := st.Export(runID)
	if err != nil {
		t.Fatalf("export failed: %v", err)
	}
	var buf bytes.Buffer
	if err := ExportJSON(&buf, data); err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	run := decoded["run"].(map[string]any)
	params := run["output_parameters"].(map[string]any)
	if params["solver"] != "Depondt" || params["num_errors"] != 0.0 {
		t.Errorf("unexpected output parameters %v", params)
	}
	if _, ok := decoded["mc"]; ok {
		t.Error("empty sweep exported")
	}
}
