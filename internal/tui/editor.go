// Package tui is the interactive parameter editor. Every entry is checked
// against the parameter schema as it is typed in, and rejected entries
// are reported inline.
package tui

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/spiritgen/internal/schema"
)

var ErrCancelled = errors.New("tui: editing cancelled")

type editor struct {
	input  textinput.Model
	params map[string]any
	texts  map[string]string
	// rejected holds initial entries that fail the schema, by key. They
	// stay in params until replaced or removed.
	rejected map[string]string

	message string
	failed  bool
	done    bool
	width   int
}

func newEditor(initial map[string]any) editor {
	ti := textinput.New()
	ti.Placeholder = "key value"
	ti.CharLimit = 512
	ti.Prompt = "› "
	ti.Focus()

	m := editor{
		input:    ti,
		params:   make(map[string]any),
		texts:    make(map[string]string),
		rejected: make(map[string]string),
	}
	for k, v := range initial {
		m.params[k] = v
		text, err := schema.Validate(k, v)
		if err != nil {
			m.rejected[k] = err.Error()
			continue
		}
		m.texts[k] = text
	}
	if n := len(m.rejected); n > 0 {
		m.report(true, fmt.Sprintf("%d loaded parameters fail validation; fix or remove them", n))
	}
	return m
}

func (m editor) Init() tea.Cmd { return textinput.Blink }

func (m editor) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			return m, tea.Quit
		case "ctrl+s":
			m.done = true
			return m, tea.Quit
		case "enter":
			m.submit(m.input.Value())
			m.input.SetValue("")
			return m, nil
		case "tab":
			m.complete()
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit handles one "key value..." line. A key without a value drops it
// from the set.
func (m *editor) submit(line string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return
	}
	key := fields[0]
	if len(fields) == 1 {
		if _, ok := m.params[key]; ok {
			delete(m.params, key)
			delete(m.texts, key)
			delete(m.rejected, key)
			m.report(false, "removed "+key)
			return
		}
		m.report(true, key+": missing value")
		return
	}

	val := asVector(key, ParseValue(fields[1:]))
	text, err := schema.Validate(key, val)
	if err != nil {
		m.report(true, err.Error())
		return
	}
	m.params[key] = val
	m.texts[key] = text
	delete(m.rejected, key)
	m.report(false, key+" = "+text)
}

func (m *editor) report(failed bool, msg string) {
	m.failed = failed
	m.message = msg
}

// complete extends the typed key to the longest prefix shared by the
// matching schema keys.
func (m *editor) complete() {
	typed := m.input.Value()
	if strings.ContainsAny(typed, " \t") {
		return
	}
	var matches []string
	for _, k := range schema.Keys() {
		if strings.HasPrefix(k, typed) {
			matches = append(matches, k)
		}
	}
	if len(matches) == 0 {
		return
	}
	prefix := matches[0]
	for _, k := range matches[1:] {
		for !strings.HasPrefix(k, prefix) {
			prefix = prefix[:len(prefix)-1]
		}
	}
	if len(matches) == 1 {
		prefix += " "
	}
	m.input.SetValue(prefix)
	m.input.CursorEnd()
}

// hint describes the rule of the key being typed.
func (m editor) hint() string {
	fields := strings.Fields(m.input.Value())
	if len(fields) == 0 {
		return ""
	}
	if schema.IsForbidden(fields[0]) {
		return fields[0] + " is set by spiritgen"
	}
	if r, ok := schema.Lookup(fields[0]); ok {
		return fields[0] + ": " + r.Describe()
	}
	return ""
}

func (m editor) View() string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString("  " + HeaderStyle.Render("spirit parameters") + "\n\n")

	keys := make([]string, 0, len(m.params))
	for k := range m.params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	if len(keys) == 0 {
		b.WriteString("  " + dimmer.Render("no parameters set, template defaults apply") + "\n")
	} else {
		var rows strings.Builder
		for i, k := range keys {
			if i > 0 {
				rows.WriteString("\n")
			}
			if msg, bad := m.rejected[k]; bad {
				rows.WriteString(red.Render(fmt.Sprintf("%-40s", k)) + red.Render(msg))
				continue
			}
			rows.WriteString(white.Render(fmt.Sprintf("%-40s", k)) + magenta.Render(m.texts[k]))
		}
		b.WriteString(Panel.Render(rows.String()) + "\n")
	}

	b.WriteString("\n  " + m.input.View() + "\n")
	if h := m.hint(); h != "" {
		b.WriteString("  " + cyan.Render(h) + "\n")
	}
	if m.message != "" {
		style := green
		if m.failed {
			style = red
		}
		b.WriteString("  " + style.Render(m.message) + "\n")
	}

	b.WriteString("\n")
	b.WriteString("  " + KeyHint.Render("enter apply   tab complete   ctrl+s save   esc quit") + "\n")
	status := fmt.Sprintf("%d set", len(keys))
	if n := len(m.rejected); n > 0 {
		status += fmt.Sprintf(", %d invalid", n)
	}
	b.WriteString("  " + dim.Render(status) + "\n")
	return b.String()
}

// Params returns the parameter set. Loaded entries that fail the schema
// are returned unchanged unless they were replaced or removed.
func (m editor) Params() map[string]any {
	out := make(map[string]any, len(m.params))
	for k, v := range m.params {
		out[k] = v
	}
	return out
}

// ParseValue turns typed tokens into a schema value: true/false become
// bools, integers stay integers, other numbers become floats and
// anything else is kept as text. Several tokens form a vector.
func ParseValue(fields []string) any {
	if len(fields) == 1 {
		return parseToken(fields[0])
	}
	out := make([]any, len(fields))
	for i, f := range fields {
		out[i] = parseToken(f)
	}
	return out
}

// asVector wraps a lone value for keys whose rule takes a list, so a
// one-component mu_s can be typed as "mu_s 2.0".
func asVector(key string, val any) any {
	if _, ok := val.([]any); ok {
		return val
	}
	r, ok := schema.Lookup(key)
	if !ok {
		return val
	}
	switch r.(type) {
	case schema.FloatVector, schema.IntVector, schema.BoolVector:
		return []any{val}
	}
	return val
}

func parseToken(s string) any {
	switch s {
	case "true", "True":
		return true
	case "false", "False":
		return false
	}
	if i, err := strconv.Atoi(s); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// RunEditor opens the editor on initial and returns the parameters once
// the user saves. Quitting without saving returns ErrCancelled.
func RunEditor(initial map[string]any) (map[string]any, error) {
	p := tea.NewProgram(newEditor(initial), tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return nil, err
	}
	final, ok := result.(editor)
	if !ok || !final.done {
		return nil, ErrCancelled
	}
	return final.Params(), nil
}
