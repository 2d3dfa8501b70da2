package schema

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

var errNilSource = errors.New("nil schema source")

// linearize orders classes seniors first.
// Each pass moves every remaining class whose ancestors are all placed; a class whose
// ancestry never resolves stops progress, and the loop gives up after maxPasses.
func (c *Cache) linearize() ([]string, int, error) {
	remaining := slices.Clone(c.declared)
	ordered := make([]string, 0, len(remaining))
	placed := make(map[string]bool, len(remaining))

	passes := 0
	for len(remaining) > 0 {
		if passes >= c.maxPasses {
			break
		}
		passes++

		next := remaining[:0:0]
		for _, id := range remaining {
			if c.ancestorErrs[id] == nil && allPlaced(c.ancestors[id], placed) {
				ordered = append(ordered, id)
				placed[id] = true
				continue
			}
			next = append(next, id)
		}

		if len(next) == len(remaining) {
			remaining = next
			break
		}
		remaining = next
	}

	if len(remaining) > 0 {
		return nil, passes, &CycleError{
			Passes:     passes,
			Unresolved: remaining,
			Cycles:     c.detectCycles(),
		}
	}
	return ordered, passes, nil
}

func allPlaced(ids []string, placed map[string]bool) bool {
	for _, id := range ids {
		if !placed[id] {
			return false
		}
	}
	return true
}

// detectCycles finds cycles in the parent graph with a depth-first search
func (c *Cache) detectCycles() [][]string {
	var cycles [][]string
	visited := make(map[string]bool)
	recursionStack := make(map[string]bool)

	var dfs func(node string, path []string)
	dfs = func(node string, path []string) {
		visited[node] = true
		recursionStack[node] = true
		path = append(path, node)

		for _, parent := range c.classes[node].Parentage {
			if _, ok := c.classes[parent]; !ok {
				continue
			}
			if !visited[parent] {
				dfs(parent, path)
			} else if recursionStack[parent] {
				start := slices.Index(path, parent)
				if start >= 0 {
					cycles = append(cycles, slices.Clone(path[start:]))
				}
			}
		}

		recursionStack[node] = false
	}

	for _, node := range c.declared {
		if !visited[node] {
			dfs(node, nil)
		}
	}

	return cycles
}

// formatCycles formats cycle information for error messages
func formatCycles(cycles [][]string) string {
	var b strings.Builder
	for i, cycle := range cycles {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "  Cycle %d: %s -> %s", i+1, strings.Join(cycle, " -> "), cycle[0])
	}
	return b.String()
}

// Report summarizes the structure of a loaded schema
type Report struct {
	TotalClasses  int
	Abstract      []string
	Parents       map[string][]string // class -> ancestors
	Children      map[string][]string // class -> descendants
	Referencers   map[string][]string // type id -> referencing classes
	Broken        map[string]error    // class -> ancestry error
	Cycles        [][]string
	HasCycles     bool
	Order         []string // seniors-first order, empty if it does not linearize
	OrderErr      error
	LeafTypes     []string // association types that are not classes
	TotalAssocs   int
	InheritedOnly int // associations reached through a parent
}

// Analyze builds a diagnostic report of the schema
func (c *Cache) Analyze() *Report {
	report := &Report{
		TotalClasses: len(c.declared),
		Parents:      make(map[string][]string),
		Children:     make(map[string][]string),
		Referencers:  make(map[string][]string),
		Broken:       make(map[string]error),
		OrderErr:     c.orderErr,
	}

	for _, id := range c.declared {
		if c.classes[id].Abstract {
			report.Abstract = append(report.Abstract, id)
		}
		if err := c.ancestorErrs[id]; err != nil {
			report.Broken[id] = err
			continue
		}
		report.Parents[id] = slices.Clone(c.ancestors[id])
		report.Children[id], _ = c.ChildrenOf(id)

		own := len(c.classes[id].Associations)
		all := len(c.associations[id])
		report.TotalAssocs += own
		report.InheritedOnly += all - own
	}

	leaves := make(map[string]bool)
	for target, refs := range c.references {
		report.Referencers[target] = slices.Clone(refs)
		if !c.HasClass(target) {
			leaves[target] = true
		}
	}
	for leaf := range leaves {
		report.LeafTypes = append(report.LeafTypes, leaf)
	}
	slices.Sort(report.LeafTypes)

	report.Cycles = c.detectCycles()
	report.HasCycles = len(report.Cycles) > 0
	if c.orderErr == nil {
		report.Order = slices.Clone(c.ordered)
	}

	return report
}

// String formats the report
func (r *Report) String() string {
	var b strings.Builder

	b.WriteString("Schema Analysis Report\n")
	fmt.Fprintf(&b, "Total Classes: %d (%d abstract)\n", r.TotalClasses, len(r.Abstract))
	fmt.Fprintf(&b, "Associations: %d declared, %d inherited\n\n", r.TotalAssocs, r.InheritedOnly)

	if r.HasCycles {
		b.WriteString("ERRORS:\n")
		b.WriteString("Inheritance cycles detected:\n")
		b.WriteString(formatCycles(r.Cycles))
		b.WriteString("\n\n")
	}

	if len(r.Broken) > 0 {
		ids := make([]string, 0, len(r.Broken))
		for id := range r.Broken {
			ids = append(ids, id)
		}
		slices.Sort(ids)
		b.WriteString("Unresolved classes:\n")
		for _, id := range ids {
			fmt.Fprintf(&b, "  %s: %v\n", id, r.Broken[id])
		}
		b.WriteString("\n")
	}

	if len(r.Order) > 0 {
		b.WriteString("Class Order (seniors first):\n")
		for i, id := range r.Order {
			parents := r.Parents[id]
			if len(parents) > 0 {
				fmt.Fprintf(&b, "  %d. %s (inherits: %s)\n", i+1, id, strings.Join(parents, ", "))
			} else {
				fmt.Fprintf(&b, "  %d. %s (root)\n", i+1, id)
			}
		}
	}

	if len(r.LeafTypes) > 0 {
		fmt.Fprintf(&b, "\nLeaf types: %s\n", strings.Join(r.LeafTypes, ", "))
	}

	return b.String()
}
