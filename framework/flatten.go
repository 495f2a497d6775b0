package framework

import "sort"

// Flatten converts symbol trees into one list holding every node exactly
// once, ordered by start line. Nodes sharing a start line keep their
// pre-order position.
func Flatten(roots []Symbol) []Symbol {
	if len(roots) == 0 {
		return []Symbol{}
	}
	result := make([]Symbol, 0, len(roots))
	stack := make([]Symbol, 0, len(roots))
	for i := len(roots) - 1; i >= 0; i-- {
		stack = append(stack, roots[i])
	}
	for len(stack) > 0 {
		sym := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		result = append(result, sym)
		for i := len(sym.Children) - 1; i >= 0; i-- {
			stack = append(stack, sym.Children[i])
		}
	}
	sort.SliceStable(result, func(i, j int) bool {
		return result[i].Range.Start.Line < result[j].Range.Start.Line
	})
	return result
}

// CountNodes returns the number of nodes in the given trees.
func CountNodes(roots []Symbol) int {
	n := 0
	for _, sym := range roots {
		n += 1 + CountNodes(sym.Children)
	}
	return n
}
