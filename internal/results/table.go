package results

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"
)

// LoadTable reads a whitespace separated numeric grid. The first skip
// lines are dropped, then blank lines and lines starting with '#'.
// Column separators made of '|' are treated as whitespace.
func LoadTable(r io.Reader, skip int) ([][]float64, error) {
	var rows [][]float64
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if line <= skip {
			continue
		}
		text := strings.TrimSpace(sc.Text())
		if text == "" || text[0] == '#' {
			continue
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return unicode.IsSpace(r) || r == '|'
		})
		row := make([]float64, len(fields))
		for i, f := range fields {
			v, err := strconv.ParseFloat(f, 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w: %v", line, ErrMalformedTable, err)
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return rows, nil
}

// LoadMC reads the Monte Carlo sweep table, one temperature per row with
// the columns T, E, M, chi, cv and U4.
func LoadMC(r io.Reader) ([]MCSample, error) {
	rows, err := LoadTable(r, 0)
	if err != nil {
		return nil, err
	}
	out := make([]MCSample, len(rows))
	for i, row := range rows {
		if len(row) != 6 {
			return nil, fmt.Errorf("row %d: %w: want 6 columns, got %d", i, ErrMalformedTable, len(row))
		}
		out[i] = MCSample{T: row[0], E: row[1], M: row[2], Chi: row[3], Cv: row[4], U4: row[5]}
	}
	return out, nil
}

// Column returns column c of rows; rows too short are skipped.
func Column(rows [][]float64, c int) []float64 {
	out := make([]float64, 0, len(rows))
	for _, row := range rows {
		if c < len(row) {
			out = append(out, row[c])
		}
	}
	return out
}
