// Package script assembles run_spirit.py, the Python control script that
// drives Spirit through its own scripting API.
package script

import (
	"os"
	"strings"
)

const indentUnit = "    "

// Builder accumulates indentation-aware script text. The zero value is
// ready to use.
type Builder struct {
	body   strings.Builder
	levels []string
}

func (b *Builder) indent() string {
	if len(b.levels) == 0 {
		return ""
	}
	return b.levels[len(b.levels)-1]
}

func (b *Builder) push() { b.levels = append(b.levels, b.indent()+indentUnit) }

func (b *Builder) pop() {
	if len(b.levels) > 0 {
		b.levels = b.levels[:len(b.levels)-1]
	}
}

// Depth reports the current nesting level.
func (b *Builder) Depth() int { return len(b.levels) }

// Add appends a possibly multi-line fragment at the current indentation.
// Leading blank lines are dropped. The leading whitespace of the first
// remaining line is removed from every line, so fragments keep their
// relative indentation wherever they are spliced in.
func (b *Builder) Add(text string) {
	lines := strings.Split(text, "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[0]) == "" {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) == 0 {
		return
	}
	first := lines[0]
	strip := len(first) - len(strings.TrimLeft(first, " \t"))
	prefix := b.indent()
	for _, line := range lines {
		line = dedent(line, strip)
		if line == "" {
			b.body.WriteString("\n")
			continue
		}
		b.body.WriteString(prefix)
		b.body.WriteString(line)
		b.body.WriteString("\n")
	}
}

// dedent removes at most n leading blanks.
func dedent(line string, n int) string {
	i := 0
	for i < n && i < len(line) && (line[i] == ' ' || line[i] == '\t') {
		i++
	}
	return strings.TrimRight(line[i:], " \t")
}

func (b *Builder) EmptyLine() { b.body.WriteString("\n") }

// Block writes header and runs body one indentation level deeper. The
// level is restored when body returns, even if it panics.
func (b *Builder) Block(header string, body func()) {
	b.Add(header)
	b.push()
	defer b.pop()
	body()
}

func (b *Builder) String() string { return b.body.String() }

func (b *Builder) WriteFile(path string) error {
	return os.WriteFile(path, []byte(b.String()), 0o644)
}
