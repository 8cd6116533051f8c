// Package outparse extracts run metrics from Spirit's log output.
//
// Parsing is best effort: each metric is taken from the first line that
// carries its marker, and a missing marker or an unreadable token only
// leaves that metric out of the Record.
package outparse

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/spiritgen/internal/logging"
)

const (
	markerDuration = "Total duration"
	markerRate     = "Iterations / sec"
	markerSimTime  = "Simulated time"
	markerErrors   = "Number of  Errors"
	markerWarnings = "Number of Warnings"
	markerStop     = "Terminated"
	markerSolver   = "Solver:"

	border = "=========="
)

// VersionKeys are the build information markers, in scan order.
var VersionKeys = []string{
	"Version",
	"Revision",
	"OpenMP",
	"CUDA",
	"std::thread",
	"Defects",
	"Pinning",
	"scalar type",
}

// Record holds the metrics of one run. Nil fields were not found.
type Record struct {
	Runtime            *string           `json:"runtime,omitempty" yaml:"runtime,omitempty"`
	RuntimeSec         *float64          `json:"runtime_sec,omitempty" yaml:"runtime_sec,omitempty"`
	ItPerSec           *float64          `json:"it_per_s,omitempty" yaml:"it_per_s,omitempty"`
	SimulationTime     *float64          `json:"simulation_time,omitempty" yaml:"simulation_time,omitempty"`
	SimulationTimeUnit *string           `json:"simulation_time_unit,omitempty" yaml:"simulation_time_unit,omitempty"`
	NumErrors          *int              `json:"num_errors,omitempty" yaml:"num_errors,omitempty"`
	NumWarnings        *int              `json:"num_warnings,omitempty" yaml:"num_warnings,omitempty"`
	SimulationMode     *string           `json:"simulation_mode,omitempty" yaml:"simulation_mode,omitempty"`
	Solver             *string           `json:"solver,omitempty" yaml:"solver,omitempty"`
	VersionInfo        map[string]string `json:"spirit_version_info" yaml:"spirit_version_info"`
}

type parser struct {
	lines []string
	log   logrus.FieldLogger
}

// Parse scans log lines. A nil logger discards diagnostics.
func Parse(lines []string, log logrus.FieldLogger) *Record {
	p := &parser{lines: lines, log: logging.OrDiscard(log)}
	rec := &Record{VersionInfo: make(map[string]string)}

	if tok := p.tokensFrom(markerDuration); len(tok) > 2 {
		if sec, err := Seconds(tok[2]); err == nil {
			rec.Runtime = ptr(tok[2])
			rec.RuntimeSec = &sec
		} else {
			p.skip(markerDuration, err)
		}
	}
	if tok := p.tokens(markerRate); len(tok) > 0 {
		if v, err := strconv.ParseFloat(tok[len(tok)-1], 64); err == nil {
			rec.ItPerSec = &v
		} else {
			p.skip(markerRate, err)
		}
	}
	if tok := p.tokens(markerSimTime); len(tok) > 1 {
		if v, err := strconv.ParseFloat(tok[len(tok)-2], 64); err == nil {
			rec.SimulationTime = &v
			rec.SimulationTimeUnit = ptr(tok[len(tok)-1])
		} else {
			p.skip(markerSimTime, err)
		}
	}
	rec.NumErrors = p.count(markerErrors)
	rec.NumWarnings = p.count(markerWarnings)
	if tok := p.tokens(markerStop); len(tok) > 2 {
		rec.SimulationMode = ptr(tok[len(tok)-3])
	}
	if tok := p.tokens(markerSolver); len(tok) > 0 {
		rec.Solver = ptr(tok[len(tok)-1])
	}

	for _, key := range VersionKeys {
		if i := p.find(key); i >= 0 {
			rec.VersionInfo[key] = cleanVersion(p.lines[i])
		}
	}
	return rec
}

// ParseReader parses a log stream line by line.
func ParseReader(r io.Reader, log logrus.FieldLogger) (*Record, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	return Parse(lines, log), nil
}

func (p *parser) find(marker string) int {
	for i, line := range p.lines {
		if strings.Contains(line, marker) {
			return i
		}
	}
	return -1
}

func (p *parser) tokens(marker string) []string {
	i := p.find(marker)
	if i < 0 {
		p.log.WithField("marker", marker).Debug("marker not found")
		return nil
	}
	return strings.Fields(p.lines[i])
}

// tokensFrom splits the marker line starting at the marker itself.
func (p *parser) tokensFrom(marker string) []string {
	i := p.find(marker)
	if i < 0 {
		p.log.WithField("marker", marker).Debug("marker not found")
		return nil
	}
	line := p.lines[i]
	return strings.Fields(line[strings.Index(line, marker):])
}

func (p *parser) count(marker string) *int {
	tok := p.tokens(marker)
	if len(tok) == 0 {
		return nil
	}
	n, err := strconv.Atoi(tok[len(tok)-1])
	if err != nil {
		p.skip(marker, err)
		return nil
	}
	return &n
}

func (p *parser) skip(marker string, err error) {
	p.log.WithFields(logrus.Fields{"marker": marker, "error": err}).Debug("unreadable value")
}

// Seconds converts an H:MM:SS duration, with optional fractional
// seconds, to seconds.
func Seconds(s string) (float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, fmt.Errorf("duration %q: want H:MM:SS", s)
	}
	total := 0.0
	for _, part := range parts {
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, fmt.Errorf("duration %q: %w", s, err)
		}
		total = total*60 + v
	}
	return total, nil
}

func cleanVersion(line string) string {
	line = strings.ReplaceAll(line, border, "")
	line = strings.ReplaceAll(line, "  ", "")
	return strings.TrimSpace(line)
}

// Fields flattens the record into metric name/value pairs, leaving out
// metrics that were not found.
func (r *Record) Fields() map[string]any {
	out := make(map[string]any)
	if r.Runtime != nil {
		out["runtime"] = *r.Runtime
	}
	if r.RuntimeSec != nil {
		out["runtime_sec"] = *r.RuntimeSec
	}
	if r.ItPerSec != nil {
		out["it_per_s"] = *r.ItPerSec
	}
	if r.SimulationTime != nil {
		out["simulation_time"] = *r.SimulationTime
	}
	if r.SimulationTimeUnit != nil {
		out["simulation_time_unit"] = *r.SimulationTimeUnit
	}
	if r.NumErrors != nil {
		out["num_errors"] = *r.NumErrors
	}
	if r.NumWarnings != nil {
		out["num_warnings"] = *r.NumWarnings
	}
	if r.SimulationMode != nil {
		out["simulation_mode"] = *r.SimulationMode
	}
	if r.Solver != nil {
		out["solver"] = *r.Solver
	}
	if len(r.VersionInfo) > 0 {
		info := make(map[string]string, len(r.VersionInfo))
		for k, v := range r.VersionInfo {
			info[k] = v
		}
		out["spirit_version_info"] = info
	}
	return out
}

func ptr[T any](v T) *T { return &v }
