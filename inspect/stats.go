package inspect

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/wippyai/marshal/value"
)

// Summary describes a disassembled stream.
type Summary struct {
	ByKind   map[value.Kind]int
	Types    map[string]int // object type name -> instances
	Nodes    int
	Indices  int
	Backrefs int
	MaxDepth int
}

// Walk visits n and its descendants depth first. Returning false from fn
// skips the children of that node.
func Walk(n *Node, fn func(n *Node, depth int) bool) {
	walk(n, 0, fn)
}

func walk(n *Node, depth int, fn func(*Node, int) bool) {
	if n == nil || !fn(n, depth) {
		return
	}
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

// Stats counts the nodes of the tree rooted at root per kind, along with
// back-references and object types.
func Stats(root *Node) Summary {
	st := Summary{
		ByKind: make(map[value.Kind]int),
		Types:  make(map[string]int),
	}
	Walk(root, func(n *Node, depth int) bool {
		st.Nodes++
		if depth+1 > st.MaxDepth {
			st.MaxDepth = depth + 1
		}
		if n.IsBackref() {
			st.Backrefs++
			return true
		}
		st.ByKind[n.Kind]++
		if n.Index != Untracked {
			st.Indices++
		}
		if n.Kind == value.KindObject {
			st.Types[n.Text]++
		}
		return true
	})
	return st
}

// String renders the statistics on one line per entry.
func (s Summary) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "nodes: %d\nindexed: %d\nbackrefs: %d\ndepth: %d\n", s.Nodes, s.Indices, s.Backrefs, s.MaxDepth)

	kinds := make([]value.Kind, 0, len(s.ByKind))
	for k := range s.ByKind {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, k := range kinds {
		fmt.Fprintf(&b, "  %s: %d\n", k, s.ByKind[k])
	}

	names := make([]string, 0, len(s.Types))
	for name := range s.Types {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&b, "  type %s: %d\n", name, s.Types[name])
	}
	return b.String()
}

// Fprint writes the tree as indented labels.
func Fprint(w io.Writer, root *Node) error {
	var err error
	Walk(root, func(n *Node, depth int) bool {
		if err != nil {
			return false
		}
		_, err = fmt.Fprintf(w, "%06x %s%s\n", n.Offset, strings.Repeat("  ", depth), n.Label())
		return true
	})
	return err
}
