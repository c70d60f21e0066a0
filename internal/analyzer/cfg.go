package analyzer

import "github.com/ran-j/ps2recomp/internal/r5900"

// CFGNode is one basic block: a maximal straight-line instruction run
// ending at a branch/jump (plus its delay slot) or at the function's end.
type CFGNode struct {
	Start, End   uint32 // [Start, End), End exclusive
	Successors   map[uint32]struct{}
	Predecessors map[uint32]struct{}
	IsEntry      bool
	IsExit       bool
	IsLoopHeader bool
}

// BuildCFG splits fn's instructions into basic blocks and links them,
// returning a map keyed by each block's start address. Blocks split at
// every branch target and at the instruction following a branch's delay
// slot, satisfying full coverage of [fn.Start, fn.End) with no gaps or
// overlaps.
func BuildCFG(fn *Function) map[uint32]*CFGNode {
	leaders := map[uint32]bool{fn.Start: true}
	for _, in := range fn.Instructions {
		if !in.Flags.IsBranch && !in.Flags.IsJump {
			continue
		}
		// The instruction after the delay slot starts a new block.
		next := in.Address + 8
		if next < fn.End {
			leaders[next] = true
		}
		if in.Flags.ModifiesPC && !in.Flags.IsCall {
			if target, ok := branchOrJumpTarget(in); ok && target >= fn.Start && target < fn.End {
				leaders[target] = true
			}
		}
	}

	ordered := sortedUint32(leaders)
	nodes := make(map[uint32]*CFGNode, len(ordered))
	for i, start := range ordered {
		end := fn.End
		if i+1 < len(ordered) {
			end = ordered[i+1]
		}
		nodes[start] = &CFGNode{
			Start:        start,
			End:          end,
			Successors:   make(map[uint32]struct{}),
			Predecessors: make(map[uint32]struct{}),
		}
	}
	if len(ordered) > 0 {
		nodes[ordered[0]].IsEntry = true
	}

	instrAt := make(map[uint32]r5900.Instruction, len(fn.Instructions))
	for _, in := range fn.Instructions {
		instrAt[in.Address] = in
	}

	for i, start := range ordered {
		node := nodes[start]
		fallthroughStart := node.End

		// A block that ends in a branch/jump always has the controlling
		// instruction at End-8 and its delay slot at End-4 (every R5900
		// branch and jump carries exactly one delay slot); a plain
		// fallthrough block has no such instruction.
		var branch r5900.Instruction
		var isBranchBlock bool
		if node.End-node.Start >= 8 {
			if in, ok := instrAt[node.End-8]; ok && (in.Flags.IsBranch || in.Flags.IsJump) {
				branch, isBranchBlock = in, true
			}
		}

		switch {
		case isBranchBlock:
			if target, ok := branchOrJumpTarget(branch); ok && target >= fn.Start && target < fn.End {
				if _, ok := nodes[target]; ok {
					link(node, nodes[target])
				}
			}
			if fallthroughStart < fn.End && takesFallthrough(branch) {
				if n, ok := nodes[fallthroughStart]; ok {
					link(node, n)
				}
			}
			if branch.Flags.IsReturn {
				node.IsExit = true
			}
		default:
			if i+1 < len(ordered) {
				link(node, nodes[ordered[i+1]])
			} else {
				node.IsExit = true
			}
		}
	}

	markLoopHeaders(nodes)
	return nodes
}

// takesFallthrough reports whether control can reach the instruction
// after in's delay slot: true for conditional branches and jal/jalr
// (which return control to the caller's next block), false for
// unconditional j/jr/return.
func takesFallthrough(in r5900.Instruction) bool {
	if in.Flags.IsCall {
		return true
	}
	switch in.Op {
	case r5900.OpJ, r5900.OpJR:
		return false
	}
	return in.Flags.IsBranch
}

// branchOrJumpTarget returns the statically known target of a branch or
// direct jump. jr/jalr have no statically known target (ok=false): their
// destination lives in a register, resolved only at runtime or, for a
// dispatch table, by jump-table detection.
func branchOrJumpTarget(in r5900.Instruction) (target uint32, ok bool) {
	if in.Flags.IsJump && in.Op != r5900.OpJR && in.Op != r5900.OpJALR {
		return in.JumpTarget(), true
	}
	if in.Flags.IsBranch {
		return in.BranchTarget(), true
	}
	return 0, false
}

func link(from, to *CFGNode) {
	from.Successors[to.Start] = struct{}{}
	to.Predecessors[from.Start] = struct{}{}
}

// markLoopHeaders flags any node that is the target of a back edge (a
// successor address at or before its predecessor's start).
func markLoopHeaders(nodes map[uint32]*CFGNode) {
	for _, node := range nodes {
		for succ := range node.Successors {
			if succ <= node.Start {
				if target, ok := nodes[succ]; ok {
					target.IsLoopHeader = true
				}
			}
		}
	}
}

func sortedUint32(set map[uint32]bool) []uint32 {
	out := make([]uint32, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j-1] > out[j]; j-- {
			out[j-1], out[j] = out[j], out[j-1]
		}
	}
	return out
}
