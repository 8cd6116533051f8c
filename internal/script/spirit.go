package script

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/spiritgen/internal/numfmt"
)

var (
	ErrUnknownMethod = errors.New("script: unknown simulation method")
	ErrUnknownSolver = errors.New("script: unknown solver")
	ErrUnknownModule = errors.New("script: unknown spirit module")
	ErrBadArgument   = errors.New("script: argument has no python literal")
)

var methods = map[string]string{
	"llg": "simulation.METHOD_LLG",
	"mc":  "simulation.METHOD_MC",
}

var solvers = map[string]string{
	"depondt":     "simulation.SOLVER_DEPONDT",
	"heun":        "simulation.SOLVER_HEUN",
	"sib":         "simulation.SOLVER_SIB",
	"rk4":         "simulation.SOLVER_RK4",
	"vp":          "simulation.SOLVER_VP",
	"vp_oso":      "simulation.SOLVER_VP_OSO",
	"lbfgs_oso":   "simulation.SOLVER_LBFGS_OSO",
	"lbfgs_atlas": "simulation.SOLVER_LBFGS_Atlas",
}

// modules lists the importable spirit modules in import order.
var modules = []string{
	"state",
	"configuration",
	"simulation",
	"parameters",
	"system",
	"quantities",
	"geometry",
	"io",
}

// Method resolves a method name, case-insensitively, to its API constant.
func Method(name string) (Expr, error) {
	c, ok := methods[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownMethod, name)
	}
	return Expr(c), nil
}

// Solver resolves a solver name, case-insensitively, to its API constant.
func Solver(name string) (Expr, error) {
	c, ok := solvers[strings.ToLower(name)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownSolver, name)
	}
	return Expr(c), nil
}

// Methods and Solvers list the accepted names.
func Methods() []string { return sortedKeys(methods) }
func Solvers() []string { return sortedKeys(solvers) }

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Expr is emitted verbatim instead of as a literal.
type Expr string

// Kwarg is one keyword argument of an API call.
type Kwarg struct {
	Name  string
	Value any
}

// Literal renders v as Python source.
func Literal(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return "None", nil
	case Expr:
		return string(x), nil
	case bool:
		if x {
			return "True", nil
		}
		return "False", nil
	case string:
		return strconv.Quote(x), nil
	case float32:
		return floatLiteral(float64(x))
	case float64:
		return floatLiteral(x)
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), nil
	case reflect.Slice, reflect.Array:
		items := make([]string, rv.Len())
		for i := range items {
			s, err := Literal(rv.Index(i).Interface())
			if err != nil {
				return "", err
			}
			items[i] = s
		}
		return "[" + strings.Join(items, ", ") + "]", nil
	}
	return "", fmt.Errorf("%w: %T", ErrBadArgument, v)
}

func floatLiteral(f float64) (string, error) {
	s := numfmt.Float(f)
	switch s {
	case "nan", "inf", "-inf":
		return `float("` + s + `")`, nil
	}
	return s, nil
}

// SpiritBuilder adds Spirit API helpers on top of Builder.
type SpiritBuilder struct {
	Builder
}

// ImportModules imports the named spirit modules, or all of them when
// none are named.
func (b *SpiritBuilder) ImportModules(names ...string) error {
	if len(names) == 0 {
		names = modules
	}
	for _, name := range names {
		if !knownModule(name) {
			return fmt.Errorf("%w: %q", ErrUnknownModule, name)
		}
		b.Add("from spirit import " + name)
	}
	return nil
}

func knownModule(name string) bool {
	for _, m := range modules {
		if m == name {
			return true
		}
	}
	return false
}

// StateBlock opens the state context that defines p_state.
func (b *SpiritBuilder) StateBlock(input string, body func()) {
	b.Block(fmt.Sprintf("with state.State(%s) as p_state:", strconv.Quote(input)), body)
}

// Call emits module.fn(p_state, args..., name = value...).
func (b *SpiritBuilder) Call(module, fn string, args []any, kwargs []Kwarg) error {
	if !knownModule(module) {
		return fmt.Errorf("%w: %q", ErrUnknownModule, module)
	}
	var sb strings.Builder
	sb.WriteString(module + "." + fn + "(p_state")
	for _, a := range args {
		s, err := Literal(a)
		if err != nil {
			return fmt.Errorf("%s.%s: %w", module, fn, err)
		}
		sb.WriteString(", " + s)
	}
	for _, kw := range kwargs {
		s, err := Literal(kw.Value)
		if err != nil {
			return fmt.Errorf("%s.%s %s: %w", module, fn, kw.Name, err)
		}
		sb.WriteString(", " + kw.Name + " = " + s)
	}
	sb.WriteString(")")
	b.Add(sb.String())
	return nil
}

// Configuration emits one call into spirit's configuration module.
func (b *SpiritBuilder) Configuration(g Generator) error {
	return b.Call("configuration", g.Name, g.Args, g.kwargs())
}

// StartSimulation emits simulation.start for the method and solver. An
// empty solver is left out of the call.
func (b *SpiritBuilder) StartSimulation(method, solver string, kwargs ...Kwarg) error {
	m, err := Method(method)
	if err != nil {
		return err
	}
	args := []any{m}
	if solver != "" {
		s, err := Solver(solver)
		if err != nil {
			return err
		}
		args = append(args, s)
	}
	return b.Call("simulation", "start", args, kwargs)
}
