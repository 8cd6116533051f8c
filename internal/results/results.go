// Package results collects the files of a finished Spirit run: the log
// metrics, the energy convergence series, the initial and final spin
// snapshots and, for Monte Carlo runs, the temperature sweep.
package results

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/spiritgen/internal/logging"
	"github.com/san-kum/spiritgen/internal/outparse"
	"github.com/san-kum/spiritgen/internal/script"
)

const (
	StdoutFile       = "spirit.stdout"
	EnergyFile       = "spirit_Image-00_Energy-archive.txt"
	InitialSpinsFile = "spirit_Image-00_Spins-initial.ovf"
	FinalSpinsFile   = "spirit_Image-00_Spins-final.ovf"
	AtomTypesFile    = "atom_types.txt"
	MCFile           = script.MCOutput
)

var (
	ErrMissingOutputFiles = errors.New("results: calculation did not produce all expected output files")
	ErrMalformedTable     = errors.New("results: malformed table")
)

// MissingFilesError lists the expected files absent from Dir.
type MissingFilesError struct {
	Dir     string
	Missing []string
}

func (e *MissingFilesError) Error() string {
	return fmt.Sprintf("%s: missing %s", e.Dir, strings.Join(e.Missing, ", "))
}

func (e *MissingFilesError) Unwrap() error { return ErrMissingOutputFiles }

// Expect describes what the run was asked to do.
type Expect struct {
	MC      bool
	Pinning bool
	Defects bool
}

// Files returns the file names the run must have produced.
func (e Expect) Files() []string {
	files := []string{StdoutFile, EnergyFile, InitialSpinsFile, FinalSpinsFile}
	if e.MC {
		files = append(files, MCFile)
	}
	return files
}

func (e Expect) features() []outparse.Feature {
	var f []outparse.Feature
	if e.Pinning {
		f = append(f, outparse.FeaturePinning)
	}
	if e.Defects {
		f = append(f, outparse.FeatureDefects)
	}
	return f
}

// MCSample is one temperature of a Monte Carlo sweep.
type MCSample struct {
	T   float64 `json:"T" yaml:"T"`
	E   float64 `json:"E" yaml:"E"`
	M   float64 `json:"M" yaml:"M"`
	Chi float64 `json:"chi" yaml:"chi"`
	Cv  float64 `json:"cv" yaml:"cv"`
	U4  float64 `json:"U4" yaml:"U4"`
}

// Result holds everything retrieved from one run directory.
type Result struct {
	Record       *outparse.Record `json:"output_parameters"`
	Energies     [][]float64      `json:"energies"`
	InitialSpins [][]float64      `json:"magnetization_initial"`
	FinalSpins   [][]float64      `json:"magnetization_final"`
	AtomTypes    []int            `json:"atom_types,omitempty"`
	MC           []MCSample       `json:"mc,omitempty"`
}

// Retrieve reads the run directory dir. A *MissingFilesError is returned
// before any file is opened when expected files are absent. When the
// Spirit build lacks a feature the run relied on, the Result is returned
// together with an *outparse.IncompatibleError.
func Retrieve(dir string, expect Expect, log logrus.FieldLogger) (*Result, error) {
	log = logging.OrDiscard(log).WithField("dir", dir)

	var missing []string
	for _, name := range expect.Files() {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		log.WithField("missing", missing).Error("incomplete output")
		return nil, &MissingFilesError{Dir: dir, Missing: missing}
	}

	res := &Result{}
	var err error

	log.WithField("file", StdoutFile).Info("parsing log")
	if err = withFile(dir, StdoutFile, func(f *os.File) error {
		rec, perr := outparse.ParseReader(f, log)
		res.Record = rec
		return perr
	}); err != nil {
		return nil, err
	}

	log.WithField("file", EnergyFile).Info("parsing energy archive")
	if res.Energies, err = loadFile(dir, EnergyFile, 1); err != nil {
		return nil, err
	}
	log.WithField("file", InitialSpinsFile).Info("parsing initial magnetization")
	if res.InitialSpins, err = loadFile(dir, InitialSpinsFile, 0); err != nil {
		return nil, err
	}
	log.WithField("file", FinalSpinsFile).Info("parsing final magnetization")
	if res.FinalSpins, err = loadFile(dir, FinalSpinsFile, 0); err != nil {
		return nil, err
	}
	finite(res.InitialSpins)
	finite(res.FinalSpins)

	if _, statErr := os.Stat(filepath.Join(dir, AtomTypesFile)); statErr == nil {
		if res.AtomTypes, err = loadAtomTypes(dir); err != nil {
			return nil, err
		}
	}

	if expect.MC {
		log.WithField("file", MCFile).Info("parsing monte carlo sweep")
		if err = withFile(dir, MCFile, func(f *os.File) error {
			samples, merr := LoadMC(f)
			res.MC = samples
			return merr
		}); err != nil {
			return nil, err
		}
	}

	if err := res.Record.Require(expect.features()...); err != nil {
		log.WithError(err).Warn("spirit build is incompatible with the inputs")
		return res, err
	}
	return res, nil
}

func withFile(dir, name string, fn func(*os.File) error) error {
	f, err := os.Open(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	defer f.Close()
	if err := fn(f); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func loadFile(dir, name string, skip int) ([][]float64, error) {
	var rows [][]float64
	err := withFile(dir, name, func(f *os.File) error {
		var lerr error
		rows, lerr = LoadTable(f, skip)
		return lerr
	})
	return rows, err
}

func loadAtomTypes(dir string) ([]int, error) {
	rows, err := loadFile(dir, AtomTypesFile, 0)
	if err != nil {
		return nil, err
	}
	out := make([]int, len(rows))
	for i, row := range rows {
		if len(row) != 1 || row[0] != math.Trunc(row[0]) {
			return nil, fmt.Errorf("%s row %d: %w: want one integer", AtomTypesFile, i, ErrMalformedTable)
		}
		out[i] = int(row[0])
	}
	return out, nil
}

// finite replaces NaN with zero and infinities with the largest finite
// values. Vacancies show up as NaN spins.
func finite(rows [][]float64) {
	for _, row := range rows {
		for j, v := range row {
			switch {
			case math.IsNaN(v):
				row[j] = 0
			case math.IsInf(v, 1):
				row[j] = math.MaxFloat64
			case math.IsInf(v, -1):
				row[j] = -math.MaxFloat64
			}
		}
	}
}
