package script

import (
	"fmt"
	"sort"
	"strings"

	"github.com/san-kum/spiritgen/internal/numfmt"
)

const (
	DefaultInput  = "input_created.cfg"
	DefaultMethod = "llg"
	DefaultSolver = "depondt"
	// MCOutput receives one row per temperature of a Monte Carlo sweep.
	MCOutput = "output_mc.txt"
)

// Generator is one initial spin configuration call, e.g. plus_z or
// skyrmion with its keyword arguments.
type Generator struct {
	Name   string         `yaml:"name" json:"name" validate:"required"`
	Args   []any          `yaml:"args,omitempty" json:"args,omitempty"`
	Kwargs map[string]any `yaml:"kwargs,omitempty" json:"kwargs,omitempty"`
}

func (g Generator) kwargs() []Kwarg {
	names := make([]string, 0, len(g.Kwargs))
	for k := range g.Kwargs {
		names = append(names, k)
	}
	sort.Strings(names)
	out := make([]Kwarg, len(names))
	for i, k := range names {
		out[i] = Kwarg{Name: k, Value: g.Kwargs[k]}
	}
	return out
}

// MCConfig drives the Monte Carlo temperature sweep.
type MCConfig struct {
	NThermalisation int     `yaml:"n_thermalisation" json:"n_thermalisation" validate:"gte=0"`
	NDecorrelation  int     `yaml:"n_decorrelation" json:"n_decorrelation" validate:"gte=0"`
	NSamples        int     `yaml:"n_samples" json:"n_samples" validate:"gt=0"`
	TStart          float64 `yaml:"t_start" json:"t_start" validate:"gt=0"`
	TEnd            float64 `yaml:"t_end" json:"t_end" validate:"gtefield=TStart"`
	NTemperatures   int     `yaml:"n_temperatures" json:"n_temperatures" validate:"gt=0"`
}

func DefaultMCConfig() MCConfig {
	return MCConfig{
		NThermalisation: 5000,
		NDecorrelation:  2,
		NSamples:        10000,
		TStart:          1.0,
		TEnd:            50.0,
		NTemperatures:   10,
	}
}

// RunOptions select what run_spirit.py does once the state is created.
type RunOptions struct {
	Method         string      `yaml:"simulation_method" json:"simulation_method" validate:"omitempty,spirit_method"`
	Solver         string      `yaml:"solver,omitempty" json:"solver,omitempty" validate:"omitempty,spirit_solver"`
	Configuration  []Generator `yaml:"configuration,omitempty" json:"configuration,omitempty" validate:"omitempty,dive"`
	InitialState   string      `yaml:"initial_state,omitempty" json:"initial_state,omitempty"`
	PostProcessing string      `yaml:"post_processing,omitempty" json:"post_processing,omitempty"`
	MC             *MCConfig   `yaml:"mc_configuration,omitempty" json:"mc_configuration,omitempty" validate:"omitempty"`
	Input          string      `yaml:"-" json:"-"`
}

// DefaultRunOptions relaxes a fully polarized state with LLG.
func DefaultRunOptions() RunOptions {
	return RunOptions{
		Method:        DefaultMethod,
		Solver:        DefaultSolver,
		Configuration: []Generator{{Name: "plus_z"}},
	}
}

// IsMC reports whether the options select Monte Carlo sampling.
func (o RunOptions) IsMC() bool { return strings.EqualFold(o.Method, "mc") }

func (o RunOptions) withDefaults() RunOptions {
	if o.Method == "" {
		o.Method = DefaultMethod
	}
	if o.Solver == "" && !o.IsMC() {
		o.Solver = DefaultSolver
	}
	if o.Input == "" {
		o.Input = DefaultInput
	}
	if o.IsMC() && o.MC == nil {
		mc := DefaultMCConfig()
		o.MC = &mc
	}
	return o
}

// Build renders run_spirit.py for opts.
func Build(opts RunOptions) (string, error) {
	opts = opts.withDefaults()
	if _, err := Method(opts.Method); err != nil {
		return "", err
	}
	// MC runs take no solver, but a named one must still exist.
	if opts.Solver != "" {
		if _, err := Solver(opts.Solver); err != nil {
			return "", err
		}
	}

	b := &SpiritBuilder{}
	if err := b.ImportModules(); err != nil {
		return "", err
	}
	if opts.IsMC() {
		b.Add("import numpy as np")
	}
	b.EmptyLine()

	var err error
	b.StateBlock(opts.Input, func() {
		err = body(b, opts)
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

func body(b *SpiritBuilder, opts RunOptions) error {
	for _, g := range opts.Configuration {
		if err := b.Configuration(g); err != nil {
			return fmt.Errorf("configuration %s: %w", g.Name, err)
		}
	}
	if opts.InitialState != "" {
		if err := b.Call("io", "image_read", []any{opts.InitialState}, nil); err != nil {
			return err
		}
	}

	if opts.IsMC() {
		monteCarlo(b, *opts.MC)
	} else if err := b.StartSimulation(opts.Method, opts.Solver); err != nil {
		return err
	}

	if strings.TrimSpace(opts.PostProcessing) != "" {
		b.EmptyLine()
		b.Add(opts.PostProcessing)
	}
	return nil
}

// monteCarlo emits the temperature sweep. Per temperature the state is
// thermalised, then sampled every NDecorrelation+1 steps while running
// sums of E, E^2, M, M^2 and M^4 accumulate. Averages give
// chi = (<M^2> - <M>^2)/T, cv = (<E^2> - <E>^2)/T^2 and the Binder
// cumulant U4 = 1 - <M^4>/(3 <M^2>^2).
func monteCarlo(b *SpiritBuilder, mc MCConfig) {
	b.Add(fmt.Sprintf(`
		n_thermalisation = %d
		n_decorrelation = %d
		n_samples = %d
		temperatures = np.linspace(%s, %s, %d)
		nos = system.get_nos(p_state)
		results = []`,
		mc.NThermalisation, mc.NDecorrelation, mc.NSamples,
		numfmt.Float(mc.TStart), numfmt.Float(mc.TEnd), mc.NTemperatures))

	b.Block("for T in temperatures:", func() {
		b.Add(`
			parameters.mc.set_temperature(p_state, T)
			simulation.start(p_state, simulation.METHOD_MC, single_shot = True)`)
		b.Block("for _ in range(n_thermalisation):", func() {
			b.Add("simulation.single_shot(p_state)")
		})
		b.Add(`
			sum_E = 0.0
			sum_E2 = 0.0
			sum_M = 0.0
			sum_M2 = 0.0
			sum_M4 = 0.0`)
		b.Block("for _ in range(n_samples):", func() {
			b.Block("for _ in range(n_decorrelation):", func() {
				b.Add("simulation.single_shot(p_state)")
			})
			b.Add(`
				E = system.get_energy(p_state) / nos
				M = np.linalg.norm(quantities.get_magnetization(p_state))
				sum_E += E
				sum_E2 += E * E
				sum_M += M
				sum_M2 += M * M
				sum_M4 += M * M * M * M`)
		})
		b.Add(`
			simulation.stop(p_state)
			E = sum_E / n_samples
			E2 = sum_E2 / n_samples
			M = sum_M / n_samples
			M2 = sum_M2 / n_samples
			M4 = sum_M4 / n_samples
			chi = (M2 - M * M) / T
			cv = (E2 - E * E) / (T * T)
			U4 = 1.0 - M4 / (3.0 * M2 * M2)
			results.append([T, E, M, chi, cv, U4])`)
	})
	b.Add(fmt.Sprintf(`np.savetxt(%q, results, header = "T E M chi cv U4")`, MCOutput))
}
