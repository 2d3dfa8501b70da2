package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Level is the severity of a message
type Level int

const (
	LevelError Level = iota
	LevelWarning
	LevelInfo
)

// Message is a structured diagnostic for the terminal
type Message struct {
	Level       Level
	Context     string   // short upper-case heading, e.g. "CLASS NOT FOUND"
	Problem     string   // one sentence
	Details     []string // indented lines under the problem
	Suggestions []string
	Help        []string // follow-up commands
	NoColor     bool
}

// Format renders the message.
//
// Example output:
//
//	✗ CLASS NOT FOUND: no class "Dgo" in the schema
//
//	  Did you mean: Dog?
//
//	  → List classes: ontograph classes
func (m Message) Format() string {
	var b strings.Builder

	var accent *color.Color
	symbol := "✗"
	switch m.Level {
	case LevelWarning:
		accent = newColor(m.NoColor, color.FgYellow, color.Bold)
		symbol = "!"
	case LevelInfo:
		accent = newColor(m.NoColor, color.FgCyan, color.Bold)
		symbol = "i"
	default:
		accent = newColor(m.NoColor, color.FgRed, color.Bold)
	}

	if m.Context != "" {
		accent.Fprintf(&b, "%s %s: %s\n", symbol, strings.ToUpper(m.Context), m.Problem)
	} else {
		accent.Fprintf(&b, "%s %s\n", symbol, m.Problem)
	}

	for _, d := range m.Details {
		fmt.Fprintf(&b, "  %s\n", d)
	}

	if len(m.Suggestions) > 0 {
		b.WriteString("\n")
		newColor(m.NoColor, color.FgYellow).Fprintf(&b, "  Did you mean: %s?\n", strings.Join(m.Suggestions, ", "))
	}

	if len(m.Help) > 0 {
		b.WriteString("\n")
		cyan := newColor(m.NoColor, color.FgCyan)
		for _, h := range m.Help {
			cyan.Fprintf(&b, "  → %s\n", h)
		}
	}

	return b.String()
}

// Write renders the message to w
func (m Message) Write(w io.Writer) {
	fmt.Fprint(w, m.Format())
}

// Success writes a green check line
func Success(w io.Writer, message string, noColor bool) {
	newColor(noColor, color.FgGreen, color.Bold).Fprintf(w, "✓ %s\n", message)
}

// ClassNotFound builds the message shown for an unknown class id
func ClassNotFound(id string, known []string, noColor bool) Message {
	return Message{
		Level:       LevelError,
		Context:     "class not found",
		Problem:     fmt.Sprintf("no class %q in the schema", id),
		Suggestions: Suggest(id, known),
		Help:        []string{"List classes: ontograph classes"},
		NoColor:     noColor,
	}
}

// SchemaProblem builds the message shown when a schema cannot be used.
// Multi-line errors are split into detail lines.
func SchemaProblem(err error, noColor bool) Message {
	lines := strings.Split(strings.TrimSpace(err.Error()), "\n")
	details := make([]string, 0, len(lines)-1)
	for _, l := range lines[1:] {
		details = append(details, strings.TrimSpace(l))
	}
	return Message{
		Level:   LevelError,
		Context: "schema error",
		Problem: lines[0],
		Details: details,
		Help:    []string{"Check the hierarchy: ontograph check"},
		NoColor: noColor,
	}
}
