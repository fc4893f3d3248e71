package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/marshal/inspect"
	"github.com/wippyai/marshal/value"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	offsetStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	scalarStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	textStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	containerStyle = lipgloss.NewStyle().
			Bold(true)

	objectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700"))

	backrefStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// line is one node of the flattened tree.
type line struct {
	node  *inspect.Node
	depth int
}

func flatten(root *inspect.Node) []line {
	var lines []line
	inspect.Walk(root, func(n *inspect.Node, depth int) bool {
		lines = append(lines, line{node: n, depth: depth})
		return true
	})
	return lines
}

func (l line) plain() string {
	return fmt.Sprintf("%06x %s%s", l.node.Offset, strings.Repeat("  ", l.depth), l.node.Label())
}

func (l line) styled() string {
	return offsetStyle.Render(fmt.Sprintf("%06x", l.node.Offset)) + " " +
		strings.Repeat("  ", l.depth) +
		labelStyle(l.node).Render(l.node.Label())
}

func labelStyle(n *inspect.Node) lipgloss.Style {
	if n.IsBackref() {
		return backrefStyle
	}
	switch n.Kind {
	case value.KindString, value.KindBytes, value.KindSymbol:
		return textStyle
	case value.KindSequence, value.KindMapping:
		return containerStyle
	case value.KindObject, value.KindTypeRef:
		return objectStyle
	default:
		return scalarStyle
	}
}

// renderTree writes one line per node, colored when styled is set.
func renderTree(w io.Writer, root *inspect.Node, styled bool) error {
	if !styled {
		return inspect.Fprint(w, root)
	}
	for _, l := range flatten(root) {
		if _, err := fmt.Fprintln(w, l.styled()); err != nil {
			return err
		}
	}
	return nil
}
