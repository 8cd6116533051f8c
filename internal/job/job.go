// Package job loads generation requests from YAML, JSON or TOML files.
package job

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/spiritgen/internal/bundle"
	"github.com/san-kum/spiritgen/internal/config"
	"github.com/san-kum/spiritgen/internal/lattice"
	"github.com/san-kum/spiritgen/internal/results"
	"github.com/san-kum/spiritgen/internal/script"
)

var (
	ErrUnknownFormat = errors.New("job: unknown file format")
	ErrUnknownPreset = errors.New("job: unknown preset")
	ErrMixedArray    = errors.New("job: toml arrays hold a single type")
)

// Job is the on-disk form of one generation run.
type Job struct {
	// Preset names a config preset as "method/name". Its parameters are
	// the base the job's own parameters override, and its run options
	// apply when the job has none.
	Preset       string             `yaml:"preset,omitempty" json:"preset,omitempty"`
	Parameters   map[string]any     `yaml:"parameters,omitempty" json:"parameters,omitempty"`
	Structure    *lattice.Structure `yaml:"structure" json:"structure" validate:"required"`
	Couplings    [][]float64        `yaml:"couplings" json:"couplings" validate:"required,min=1,dive,min=6"`
	Positions    [][]float64        `yaml:"positions,omitempty" json:"positions,omitempty" validate:"omitempty,dive,min=1"`
	Cutoff       float64            `yaml:"cutoff,omitempty" json:"cutoff,omitempty" validate:"gte=0"`
	Pinning      [][]float64        `yaml:"pinning,omitempty" json:"pinning,omitempty" validate:"omitempty,dive,len=7"`
	Defects      [][]float64        `yaml:"defects,omitempty" json:"defects,omitempty" validate:"omitempty,dive,len=5"`
	AtomTypes    [][]float64        `yaml:"atom_types,omitempty" json:"atom_types,omitempty" validate:"omitempty,dive,len=4"`
	InitialState [][]float64        `yaml:"initial_state,omitempty" json:"initial_state,omitempty" validate:"omitempty,dive,len=3"`
	Run          *script.RunOptions `yaml:"run_options,omitempty" json:"run_options,omitempty" validate:"omitempty"`
}

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("spirit_method", func(fl validator.FieldLevel) bool {
		_, err := script.Method(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("spirit_solver", func(fl validator.FieldLevel) bool {
		_, err := script.Solver(fl.Field().String())
		return err == nil
	})
	return v
}

var validate = newValidator()

// Load reads a job file; the format follows the extension.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	j, err := Parse(data, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return j, nil
}

// Parse decodes data in format "yaml", "yml", "json" or "toml" and checks
// the result.
func Parse(data []byte, format string) (*Job, error) {
	j := &Job{}
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, j); err != nil {
			return nil, err
		}
	case "json":
		if err := decodeJSON(data, j); err != nil {
			return nil, err
		}
	case "toml":
		if err := decodeTOML(data, j); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
	if err := j.Validate(); err != nil {
		return nil, err
	}
	return j, nil
}

// decodeTOML goes through a generic map so the yaml field names serve
// all three formats.
func decodeTOML(data []byte, j *Job) error {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return err
	}
	buf, err := yaml.Marshal(tree.ToMap())
	if err != nil {
		return err
	}
	return yaml.Unmarshal(buf, j)
}

// decodeJSON keeps integer literals integral; the parameter schema tells
// ints from floats and encoding/json would make every number a float64.
func decodeJSON(data []byte, j *Job) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(j); err != nil {
		return err
	}
	for k, v := range j.Parameters {
		val, err := fromJSONNumber(v)
		if err != nil {
			return fmt.Errorf("parameter %s: %w", k, err)
		}
		j.Parameters[k] = val
	}
	if j.Run == nil {
		return nil
	}
	for i := range j.Run.Configuration {
		g := &j.Run.Configuration[i]
		for n, arg := range g.Args {
			val, err := fromJSONNumber(arg)
			if err != nil {
				return fmt.Errorf("configuration %s: %w", g.Name, err)
			}
			g.Args[n] = val
		}
		for k, arg := range g.Kwargs {
			val, err := fromJSONNumber(arg)
			if err != nil {
				return fmt.Errorf("configuration %s: %w", g.Name, err)
			}
			g.Kwargs[k] = val
		}
	}
	return nil
}

func fromJSONNumber(v any) (any, error) {
	switch v := v.(type) {
	case json.Number:
		if !strings.ContainsAny(v.String(), ".eE") {
			if i, err := v.Int64(); err == nil {
				return i, nil
			}
		}
		return v.Float64()
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			val, err := fromJSONNumber(item)
			if err != nil {
				return nil, err
			}
			out[i] = val
		}
		return out, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			val, err := fromJSONNumber(item)
			if err != nil {
				return nil, err
			}
			out[k] = val
		}
		return out, nil
	}
	return v, nil
}

// encodeTOML mirrors decodeTOML: the yaml form of the job becomes a
// generic map that go-toml turns into a tree.
func encodeTOML(j *Job) ([]byte, error) {
	buf, err := yaml.Marshal(j)
	if err != nil {
		return nil, err
	}
	m := make(map[string]any)
	if err := yaml.Unmarshal(buf, &m); err != nil {
		return nil, err
	}
	if _, err := tomlArrays(m); err != nil {
		return nil, err
	}
	tree, err := toml.TreeFromMap(m)
	if err != nil {
		return nil, err
	}
	return tree.Marshal()
}

// tomlArrays makes every array homogeneous: TOML arrays hold one type,
// and yaml decodes 1.0 as an int, so a numeric array holding any float
// is made all float. TOML has no null; nil entries are dropped.
func tomlArrays(v any) (any, error) {
	switch v := v.(type) {
	case map[string]any:
		for k, item := range v {
			if item == nil {
				delete(v, k)
				continue
			}
			val, err := tomlArrays(item)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			v[k] = val
		}
		return v, nil
	case []any:
		hasFloat := false
		for i, item := range v {
			val, err := tomlArrays(item)
			if err != nil {
				return nil, err
			}
			v[i] = val
			if _, ok := val.(float64); ok {
				hasFloat = true
			}
		}
		for i, item := range v {
			if n, ok := item.(int); ok && hasFloat {
				v[i] = float64(n)
			}
		}
		for i := 1; i < len(v); i++ {
			if fmt.Sprintf("%T", v[i]) != fmt.Sprintf("%T", v[0]) {
				return nil, fmt.Errorf("%w: %v", ErrMixedArray, v)
			}
		}
		return v, nil
	}
	return v, nil
}

func (j *Job) Validate() error {
	if err := validate.Struct(j); err != nil {
		return fmt.Errorf("job validation failed: %w", err)
	}
	if j.Cutoff > 0 && len(j.Positions) != len(j.Couplings) {
		return fmt.Errorf("job validation failed: %d positions for %d couplings", len(j.Positions), len(j.Couplings))
	}
	return nil
}

// CheckSavable reports ErrUnknownFormat when Save cannot write path.
func CheckSavable(path string) error {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", ".json", ".toml":
		return nil
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
}

// Save writes the job as YAML, JSON or TOML, by extension.
func Save(path string, j *Job) error {
	var (
		data []byte
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(j)
	case ".json":
		data, err = json.MarshalIndent(j, "", "  ")
	case ".toml":
		data, err = encodeTOML(j)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, ext)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// RunOptions resolves the run options: the job's own, else the preset's,
// else the defaults.
func (j *Job) RunOptions() (script.RunOptions, error) {
	if j.Run != nil {
		return *j.Run, nil
	}
	p, err := j.preset()
	if err != nil {
		return script.RunOptions{}, err
	}
	if p != nil {
		return p.Run, nil
	}
	return script.DefaultRunOptions(), nil
}

func (j *Job) preset() (*config.Preset, error) {
	if j.Preset == "" {
		return nil, nil
	}
	method, name, ok := strings.Cut(j.Preset, "/")
	if !ok {
		return nil, fmt.Errorf("%w: %q, want method/name", ErrUnknownPreset, j.Preset)
	}
	p := config.GetPreset(method, name)
	if p == nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPreset, j.Preset)
	}
	return p, nil
}

// ToRequest converts the job into a bundle request. defaultCutoff is
// used when the job sets none.
func (j *Job) ToRequest(defaultCutoff float64) (bundle.Request, error) {
	p, err := j.preset()
	if err != nil {
		return bundle.Request{}, err
	}
	params := make(map[string]any)
	if p != nil {
		for k, v := range p.Parameters {
			params[k] = v
		}
	}
	for k, v := range j.Parameters {
		params[k] = v
	}

	run, err := j.RunOptions()
	if err != nil {
		return bundle.Request{}, err
	}

	cutoff := j.Cutoff
	if cutoff == 0 && len(j.Positions) > 0 {
		cutoff = defaultCutoff
	}

	return bundle.Request{
		Parameters:   params,
		Structure:    j.Structure,
		Couplings:    j.Couplings,
		Positions:    j.Positions,
		Cutoff:       cutoff,
		Pinning:      j.Pinning,
		Defects:      j.Defects,
		AtomTypes:    j.AtomTypes,
		InitialState: j.InitialState,
		Run:          run,
	}, nil
}

// Expect tells results.Retrieve what a run of this job should produce.
func (j *Job) Expect() results.Expect {
	run, err := j.RunOptions()
	return results.Expect{
		MC:      err == nil && run.IsMC(),
		Pinning: j.Pinning != nil,
		Defects: j.Defects != nil,
	}
}
