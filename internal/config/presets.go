package config

import (
	"sort"

	"github.com/san-kum/spiritgen/internal/script"
)

// Preset is a ready-made combination of run options and parameters.
type Preset struct {
	Description string            `yaml:"description"`
	Run         script.RunOptions `yaml:"run_options"`
	Parameters  map[string]any    `yaml:"parameters"`
}

var Presets = map[string]map[string]*Preset{
	"llg": {
		"relax": {
			Description: "minimize the energy from a random state",
			Run: script.RunOptions{
				Method: "llg", Solver: "lbfgs_oso",
				Configuration: []script.Generator{{Name: "random"}},
			},
			Parameters: map[string]any{"llg_n_iterations": 100000, "llg_force_convergence": 1e-8},
		},
		"dynamics": {
			Description: "damped precession of a polarized state",
			Run: script.RunOptions{
				Method: "llg", Solver: "depondt",
				Configuration: []script.Generator{{Name: "plus_z"}},
			},
			Parameters: map[string]any{"llg_dt": 0.001, "llg_damping": 0.3, "llg_n_iterations": 20000},
		},
		"temperature": {
			Description: "stochastic LLG at finite temperature",
			Run: script.RunOptions{
				Method: "llg", Solver: "heun",
				Configuration: []script.Generator{{Name: "plus_z"}},
			},
			Parameters: map[string]any{"llg_temperature": 10.0, "llg_dt": 0.001, "llg_n_iterations": 50000},
		},
	},
	"mc": {
		"sweep": {
			Description: "Metropolis sweep from 1 K to 50 K",
			Run: script.RunOptions{
				Method:        "mc",
				Configuration: []script.Generator{{Name: "plus_z"}},
				MC:            &script.MCConfig{NThermalisation: 5000, NDecorrelation: 2, NSamples: 10000, TStart: 1, TEnd: 50, NTemperatures: 10},
			},
			Parameters: map[string]any{"mc_acceptance_ratio": 0.5},
		},
		"quick": {
			Description: "short sweep for checking a setup",
			Run: script.RunOptions{
				Method:        "mc",
				Configuration: []script.Generator{{Name: "random"}},
				MC:            &script.MCConfig{NThermalisation: 200, NDecorrelation: 1, NSamples: 500, TStart: 1, TEnd: 20, NTemperatures: 5},
			},
			Parameters: map[string]any{},
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(method, preset string) *Preset {
	methodPresets, ok := Presets[method]
	if !ok {
		return nil
	}
	p, ok := methodPresets[preset]
	if !ok {
		return nil
	}
	return p.clone()
}

// ListPresets returns the preset names for a method, sorted.
func ListPresets(method string) []string {
	methodPresets, ok := Presets[method]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(methodPresets))
	for name := range methodPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Methods returns the methods that have presets, sorted.
func Methods() []string {
	out := make([]string, 0, len(Presets))
	for m := range Presets {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

func (p *Preset) clone() *Preset {
	c := *p
	c.Run.Configuration = append([]script.Generator(nil), p.Run.Configuration...)
	if p.Run.MC != nil {
		mc := *p.Run.MC
		c.Run.MC = &mc
	}
	c.Parameters = make(map[string]any, len(p.Parameters))
	for k, v := range p.Parameters {
		c.Parameters[k] = v
	}
	return &c
}
