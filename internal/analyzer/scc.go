package analyzer

import "github.com/ran-j/ps2recomp/internal/r5900"

// buildCallGraph records, for every function, the set of analyzed
// functions it calls via jal; jalr targets live in a register and are
// not recorded.
func buildCallGraph(r *Result) {
	for _, start := range r.Order {
		fn := r.Functions[start]
		callees := make(map[uint32]bool)
		for _, in := range fn.Instructions {
			if !in.Flags.IsCall {
				continue
			}
			if in.Op == r5900.OpJAL {
				target := in.JumpTarget()
				if _, ok := r.Functions[target]; ok {
					callees[target] = true
				}
			}
		}
		r.CallGraph[start] = callees
	}
}

// tarjanState holds the bookkeeping Tarjan's algorithm needs across its
// recursive descent.
type tarjanState struct {
	graph   map[uint32]map[uint32]bool
	index   map[uint32]int
	low     map[uint32]int
	onStack map[uint32]bool
	stack   []uint32
	next    int
	sccs    [][]uint32
}

// findRecursiveFunctions runs Tarjan's strongly-connected-components
// algorithm over the call graph and returns the set of functions
// belonging to a nontrivial SCC (size > 1) or with a direct self-loop,
// both of which the code generator must treat as genuinely recursive
// rather than inlinable.
func findRecursiveFunctions(graph map[uint32]map[uint32]bool) map[uint32]bool {
	st := &tarjanState{
		graph:   graph,
		index:   make(map[uint32]int),
		low:     make(map[uint32]int),
		onStack: make(map[uint32]bool),
	}
	for node := range graph {
		if _, seen := st.index[node]; !seen {
			st.strongconnect(node)
		}
	}

	recursive := make(map[uint32]bool)
	for _, scc := range st.sccs {
		if len(scc) > 1 {
			for _, n := range scc {
				recursive[n] = true
			}
			continue
		}
		n := scc[0]
		if graph[n][n] {
			recursive[n] = true
		}
	}
	return recursive
}

func (st *tarjanState) strongconnect(v uint32) {
	st.index[v] = st.next
	st.low[v] = st.next
	st.next++
	st.stack = append(st.stack, v)
	st.onStack[v] = true

	for w := range st.graph[v] {
		if _, seen := st.index[w]; !seen {
			st.strongconnect(w)
			if st.low[w] < st.low[v] {
				st.low[v] = st.low[w]
			}
		} else if st.onStack[w] {
			if st.index[w] < st.low[v] {
				st.low[v] = st.index[w]
			}
		}
	}

	if st.low[v] == st.index[v] {
		var scc []uint32
		for {
			n := len(st.stack) - 1
			w := st.stack[n]
			st.stack = st.stack[:n]
			st.onStack[w] = false
			scc = append(scc, w)
			if w == v {
				break
			}
		}
		st.sccs = append(st.sccs, scc)
	}
}
