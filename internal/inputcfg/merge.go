// Package inputcfg produces Spirit's input configuration file by merging
// validated parameter text into a template, line by line.
package inputcfg

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/san-kum/spiritgen/internal/schema"
	"github.com/san-kum/spiritgen/internal/tables"
)

// GeometryMarker is the template key whose line is replaced by the
// generated geometry block.
const GeometryMarker = "bravais_lattice"

//go:embed input_original.cfg
var defaultTemplate string

// GeometryProvider renders the bravais vectors and basis block.
type GeometryProvider interface {
	GeometryBlock() ([]string, error)
}

// Extras are directive blocks appended after the template.
type Extras struct {
	PinningFile string
	DefectsFile string
	AtomTypes   []tables.AtomType
}

// DefaultTemplate returns the embedded template as lines.
func DefaultTemplate() []string {
	return splitLines(defaultTemplate)
}

// LoadTemplate reads a template from path.
func LoadTemplate(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTemplate(f)
}

func ReadTemplate(r io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read template: %w", err)
	}
	return lines, nil
}

// Merge rewrites every template line whose key has a value in params,
// keeping the whitespace between key and value exactly as the template
// had it. Spirit's reader is sensitive to that spacing. The geometry
// marker line is always replaced by geom's block. Comment and blank lines
// are copied through untouched.
func Merge(template []string, params map[string]string, geom GeometryProvider, extra Extras) ([]string, error) {
	out := make([]string, 0, len(template)+16)
	for _, line := range template {
		key, indent, sep, ok := splitKey(line)
		if !ok {
			out = append(out, line)
			continue
		}
		if key == GeometryMarker {
			block, err := geom.GeometryBlock()
			if err != nil {
				return nil, fmt.Errorf("geometry: %w", err)
			}
			out = append(out, block...)
			continue
		}
		val, supplied := params[key]
		if !supplied || schema.IsForbidden(key) {
			out = append(out, line)
			continue
		}
		out = append(out, indent+key+sep+val)
	}
	return appendExtras(out, extra), nil
}

func appendExtras(out []string, extra Extras) []string {
	if extra.PinningFile != "" {
		out = append(out, "", "### Pinning", "pinning_from_file "+extra.PinningFile)
	}
	if extra.DefectsFile != "" {
		out = append(out, "", "### Defects", "defects_from_file "+extra.DefectsFile)
		if len(extra.AtomTypes) > 0 {
			out = append(out, "", "### Disorder", "atom_types "+strconv.Itoa(len(extra.AtomTypes)))
			for _, at := range extra.AtomTypes {
				out = append(out, strings.Join(at.Fields(), "\t"))
			}
		}
	}
	return out
}

// splitKey extracts the leading key of a structural line together with
// its indentation and the separator run that follows it.
func splitKey(line string) (key, indent, sep string, ok bool) {
	trimmed := strings.TrimLeft(line, " \t")
	if trimmed == "" || trimmed[0] == '#' {
		return "", "", "", false
	}
	indent = line[:len(line)-len(trimmed)]
	key, rest := trimmed, ""
	if i := strings.IndexAny(trimmed, " \t"); i >= 0 {
		key, rest = trimmed[:i], trimmed[i:]
	}
	sep = rest[:len(rest)-len(strings.TrimLeft(rest, " \t"))]
	if sep == "" {
		sep = " "
	}
	return key, indent, sep, true
}

// Unused returns the supplied keys that no template line carries; those
// values would silently not reach Spirit.
func Unused(template []string, params map[string]string) []string {
	present := make(map[string]bool, len(template))
	for _, line := range template {
		if key, _, _, ok := splitKey(line); ok {
			present[key] = true
		}
	}
	var missing []string
	for k := range params {
		if !present[k] {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)
	return missing
}

// Render joins lines into file content with a trailing newline.
func Render(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
