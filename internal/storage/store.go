// Package storage keeps parsed Spirit runs in a local directory, one
// subdirectory per run.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/spiritgen/internal/outparse"
	"github.com/san-kum/spiritgen/internal/results"
)

const (
	metadataFile = "metadata.json"
	energiesFile = "energies.csv"
	mcFile       = "mc.csv"
)

var ErrRunNotFound = errors.New("storage: run not found")

var mcHeader = []string{"T", "E", "M", "chi", "cv", "U4"}

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

type RunMetadata struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Source       string           `json:"source"`
	Timestamp    time.Time        `json:"timestamp"`
	Spins        int              `json:"spins"`
	EnergyRows   int              `json:"energy_rows"`
	Temperatures int              `json:"temperatures,omitempty"`
	AtomTypes    []int            `json:"atom_types,omitempty"`
	Record       *outparse.Record `json:"output_parameters"`
}

// Save stores a retrieved run under a fresh id derived from name.
func (s *Store) Save(name, source string, res *results.Result) (string, error) {
	runID := fmt.Sprintf("%s_%s", name, uuid.New().String()[:8])
	runDir := filepath.Join(s.baseDir, runID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return "", err
	}

	meta := RunMetadata{
		ID:           runID,
		Name:         name,
		Source:       source,
		Timestamp:    time.Now(),
		Spins:        len(res.FinalSpins),
		EnergyRows:   len(res.Energies),
		Temperatures: len(res.MC),
		AtomTypes:    res.AtomTypes,
		Record:       res.Record,
	}
	if err := writeJSON(filepath.Join(runDir, metadataFile), meta); err != nil {
		return "", err
	}

	if err := writeCSV(filepath.Join(runDir, energiesFile), columnHeader("c", res.Energies), res.Energies); err != nil {
		return "", err
	}

	if len(res.MC) > 0 {
		rows := make([][]float64, len(res.MC))
		for i, m := range res.MC {
			rows[i] = []float64{m.T, m.E, m.M, m.Chi, m.Cv, m.U4}
		}
		if err := writeCSV(filepath.Join(runDir, mcFile), mcHeader, rows); err != nil {
			return "", err
		}
	}

	return runID, nil
}

func writeJSON(path string, v any) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func columnHeader(prefix string, rows [][]float64) []string {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	header := make([]string, width)
	for i := range header {
		header[i] = prefix + strconv.Itoa(i)
	}
	return header
}

func writeCSV(path string, header []string, rows [][]float64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		rec := make([]string, len(row))
		for i, v := range row {
			rec[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// List returns the stored runs, oldest first. Unreadable entries are
// skipped.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}

	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.Before(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(s.path(runID, metadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}

func (s *Store) LoadEnergies(runID string) ([][]float64, error) {
	return readCSV(s.path(runID, energiesFile))
}

// LoadMC returns the stored sweep, or nil for runs without one.
func (s *Store) LoadMC(runID string) ([]results.MCSample, error) {
	rows, err := readCSV(s.path(runID, mcFile))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	out := make([]results.MCSample, 0, len(rows))
	for _, r := range rows {
		if len(r) != len(mcHeader) {
			continue
		}
		out = append(out, results.MCSample{T: r[0], E: r[1], M: r[2], Chi: r[3], Cv: r[4], U4: r[5]})
	}
	return out, nil
}

func (s *Store) path(runID, name string) string {
	return filepath.Join(s.baseDir, filepath.Base(runID), name)
}

func readCSV(path string) ([][]float64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return [][]float64{}, nil
	}

	rows := make([][]float64, 0, len(records)-1)
	for _, record := range records[1:] {
		row := make([]float64, 0, len(record))
		for _, cell := range record {
			val, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				continue
			}
			row = append(row, val)
		}
		rows = append(rows, row)
	}
	return rows, nil
}
