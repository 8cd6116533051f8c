// Package bundle turns one generation request into the complete set of
// Spirit input files and writes them out in one step.
package bundle

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/spiritgen/internal/inputcfg"
	"github.com/san-kum/spiritgen/internal/lattice"
	"github.com/san-kum/spiritgen/internal/logging"
	"github.com/san-kum/spiritgen/internal/schema"
	"github.com/san-kum/spiritgen/internal/script"
	"github.com/san-kum/spiritgen/internal/tables"
)

const (
	ConfigFile       = script.DefaultInput
	CouplingsFile    = "couplings.txt"
	PinningFile      = "pinning.txt"
	DefectsFile      = "defects.txt"
	InitialStateFile = "initial_state.txt"
	ScriptFile       = "run_spirit.py"
)

var (
	ErrNoStructure  = errors.New("bundle: no crystal structure")
	ErrTargetExists = errors.New("bundle: target directory already exists")
)

// Request is everything one generation run consumes. A nil table means
// the corresponding file is not produced; an empty, non-nil Defects
// table still yields a defects file with a zero count.
type Request struct {
	Parameters   map[string]any
	Structure    *lattice.Structure
	Couplings    [][]float64
	Positions    [][]float64
	Cutoff       float64
	Pinning      [][]float64
	Defects      [][]float64
	AtomTypes    [][]float64
	InitialState [][]float64
	Run          script.RunOptions
}

// Options carry per-run settings that are not part of the request.
type Options struct {
	// Template lines; the embedded template when nil.
	Template []string
	Log      logrus.FieldLogger
}

// Bundle maps file names to their contents.
type Bundle struct {
	Files map[string]string
	// Unused lists supplied parameters the template has no line for.
	Unused []string
}

// Names returns the file names, sorted.
func (b *Bundle) Names() []string {
	names := make([]string, 0, len(b.Files))
	for n := range b.Files {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Generate validates the request and renders every file in memory.
// Nothing is written; any failure aborts the whole bundle.
func Generate(req Request, opts Options) (*Bundle, error) {
	log := logging.OrDiscard(opts.Log)

	params, err := schema.ValidateAll(req.Parameters)
	if err != nil {
		return nil, err
	}
	if req.Structure == nil {
		return nil, ErrNoStructure
	}
	if err := req.Structure.Validate(); err != nil {
		return nil, err
	}

	b := &Bundle{Files: make(map[string]string)}

	couplings, err := tables.Couplings(req.Couplings, tables.CouplingOptions{
		Positions: req.Positions,
		Cutoff:    req.Cutoff,
	})
	if err != nil {
		return nil, err
	}
	b.Files[CouplingsFile] = couplings

	var extra inputcfg.Extras
	if req.Pinning != nil {
		text, err := tables.Pinning(req.Pinning)
		if err != nil {
			return nil, err
		}
		b.Files[PinningFile] = text
		extra.PinningFile = PinningFile
	}
	if req.Defects != nil {
		text, err := tables.Defects(req.Defects)
		if err != nil {
			return nil, err
		}
		b.Files[DefectsFile] = text
		extra.DefectsFile = DefectsFile
		if extra.AtomTypes, err = tables.AtomTypes(req.AtomTypes); err != nil {
			return nil, err
		}
	} else if len(req.AtomTypes) > 0 {
		log.Warn("atom types given without defects; ignored")
	}

	run := req.Run
	if req.InitialState != nil {
		text, err := tables.InitialState(req.InitialState)
		if err != nil {
			return nil, err
		}
		b.Files[InitialStateFile] = text
		run.InitialState = InitialStateFile
	}
	run.Input = ConfigFile

	tmpl := opts.Template
	if tmpl == nil {
		tmpl = inputcfg.DefaultTemplate()
	}
	lines, err := inputcfg.Merge(tmpl, params, req.Structure, extra)
	if err != nil {
		return nil, err
	}
	b.Files[ConfigFile] = inputcfg.Render(lines)

	b.Unused = inputcfg.Unused(tmpl, params)
	for _, key := range b.Unused {
		log.WithField("key", key).Warn("parameter has no line in the template")
	}

	if b.Files[ScriptFile], err = script.Build(run); err != nil {
		return nil, err
	}

	log.WithFields(logrus.Fields{
		"parameters": len(params),
		"sites":      len(req.Structure.Sites),
		"files":      len(b.Files),
	}).Debug("bundle generated")
	return b, nil
}

// WriteDir writes the bundle into dir, which must not exist yet. Files
// are written to a scratch directory next to dir that is renamed into
// place, so dir either appears complete or not at all.
func (b *Bundle) WriteDir(dir string) error {
	if _, err := os.Stat(dir); err == nil {
		return fmt.Errorf("%w: %s", ErrTargetExists, dir)
	}
	parent := filepath.Dir(dir)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return err
	}
	scratch, err := os.MkdirTemp(parent, "."+filepath.Base(dir)+"-*")
	if err != nil {
		return err
	}
	defer os.RemoveAll(scratch)

	for _, name := range b.Names() {
		if err := os.WriteFile(filepath.Join(scratch, name), []byte(b.Files[name]), 0644); err != nil {
			return err
		}
	}
	if err := os.Chmod(scratch, 0755); err != nil {
		return err
	}
	return os.Rename(scratch, dir)
}
