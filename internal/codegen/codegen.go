// Package codegen turns an analyzer.Result into Go source: one function
// per recompiled guest function, a mid-function entry dispatcher for
// indirect-branch targets that land inside a function rather than at its
// start, and a register_functions.go file wiring every emitted entry
// point into the runtime's function table. Grounded on cpu_ie64.go's
// instruction-to-operation mapping (the same tagged switch the decoder
// produces, here emitting Go statements instead of executing them
// directly) and emitted using stdlib text/template + go/format, the
// general Go code-generation idiom the pack has no dedicated library
// for.
package codegen

import (
	"bytes"
	"fmt"
	"go/format"
	"sort"
	"strings"
	"text/template"

	"github.com/ran-j/ps2recomp/internal/analyzer"
	"github.com/ran-j/ps2recomp/internal/r5900"
)

// Options controls output shape.
type Options struct {
	PackageName      string
	SingleFileOutput bool

	// PatchSyscalls/PatchCOP0/PatchCache mirror the analyzer config's
	// [general] patch_syscalls/patch_cop0/patch_cache flags: when set,
	// codegen emits a no-op comment for that instruction class instead
	// of its normal translation.
	PatchSyscalls bool
	PatchCOP0     bool
	PatchCache    bool
}

// Unit is one emitted Go source file and the name it should be written
// under.
type Unit struct {
	FileName string
	Source   []byte
}

// Generate emits one Unit per function (or one combined Unit when
// opts.SingleFileOutput is set) plus a final register_functions.go Unit.
func Generate(result *analyzer.Result, opts Options) ([]Unit, error) {
	if opts.PackageName == "" {
		opts.PackageName = "recompiled"
	}

	var bodies []string
	var entries []uint32

	for _, start := range result.Order {
		fn := result.Functions[start]
		if fn.Category == analyzer.CategorySkipped || fn.Category == analyzer.CategoryStub {
			continue
		}
		src, err := generateFunction(fn, result, opts)
		if err != nil {
			return nil, fmt.Errorf("codegen: function %s at %#x: %w", fn.Name, fn.Start, err)
		}
		bodies = append(bodies, src)
		entries = append(entries, fn.Start)
	}

	var units []Unit
	if opts.SingleFileOutput {
		src, err := renderFile(opts.PackageName, bodies)
		if err != nil {
			return nil, err
		}
		units = append(units, Unit{FileName: "recompiled.go", Source: src})
	} else {
		for i, body := range bodies {
			src, err := renderFile(opts.PackageName, []string{body})
			if err != nil {
				return nil, err
			}
			units = append(units, Unit{FileName: fmt.Sprintf("fn_%08x.go", entries[i]), Source: src})
		}
	}

	reg, err := generateRegistrations(opts.PackageName, entries)
	if err != nil {
		return nil, err
	}
	units = append(units, Unit{FileName: "register_functions.go", Source: reg})

	return units, nil
}

const fileTemplate = `// Code generated by the recompiler. DO NOT EDIT.
package {{.Package}}

import (
	"github.com/ran-j/ps2recomp/internal/cpucontext"
	"github.com/ran-j/ps2recomp/internal/memory"
	"github.com/ran-j/ps2recomp/internal/runtime"
)

{{range .Bodies}}
{{.}}
{{end}}
`

func renderFile(pkg string, bodies []string) ([]byte, error) {
	tmpl := template.Must(template.New("file").Parse(fileTemplate))
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct {
		Package string
		Bodies  []string
	}{Package: pkg, Bodies: bodies}); err != nil {
		return nil, fmt.Errorf("codegen: template exec: %w", err)
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("codegen: gofmt: %w (source follows)\n%s", err, buf.String())
	}
	return out, nil
}

const regTemplate = `// Code generated by the recompiler. DO NOT EDIT.
package {{.Package}}

import "github.com/ran-j/ps2recomp/internal/runtime"

// RegisterFunctions wires every recompiled entry point into rt's function
// table. Call once after runtime.New, before runtime.Run.
func RegisterFunctions(rt *runtime.Runtime) {
{{range .Entries}}	rt.RegisterFunction({{.}}, F_{{printf "%08x" .}})
{{end}}}
`

func generateRegistrations(pkg string, entries []uint32) ([]byte, error) {
	sorted := append([]uint32(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	tmpl := template.Must(template.New("reg").Parse(regTemplate))
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct {
		Package string
		Entries []uint32
	}{Package: pkg, Entries: sorted}); err != nil {
		return nil, fmt.Errorf("codegen: registration template: %w", err)
	}
	out, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("codegen: gofmt register_functions: %w", err)
	}
	return out, nil
}

// generateFunction emits one function body: a switch over block start
// addresses (mid-function entry dispatch for indirect-branch targets
// that don't land on fn.Start) wrapping a goto-linked chain of basic
// blocks built from the CFG.
func generateFunction(fn *analyzer.Function, result *analyzer.Result, opts Options) (string, error) {
	cfg := analyzer.BuildCFG(fn)

	var blockOrder []uint32
	for addr := range cfg {
		blockOrder = append(blockOrder, addr)
	}
	sort.Slice(blockOrder, func(i, j int) bool { return blockOrder[i] < blockOrder[j] })

	instrAt := make(map[uint32]r5900.Instruction, len(fn.Instructions))
	for _, in := range fn.Instructions {
		instrAt[in.Address] = in
	}

	var b strings.Builder
	fmt.Fprintf(&b, "// F_%08x recompiles %s (%#x-%#x).\n", fn.Start, safeName(fn.Name), fn.Start, fn.End)
	fmt.Fprintf(&b, "func F_%08x(ctx *cpucontext.Context, mem *memory.Space) {\n", fn.Start)
	fmt.Fprintf(&b, "\tswitch uint32(ctx.PC) {\n")
	for _, addr := range blockOrder {
		fmt.Fprintf(&b, "\tcase %#x:\n\t\tgoto L_%08x\n", addr, addr)
	}
	fmt.Fprintf(&b, "\t}\n")

	for _, addr := range blockOrder {
		node := cfg[addr]
		fmt.Fprintf(&b, "L_%08x:\n", addr)
		emitBlockBody(&b, node, instrAt, result, opts)
	}
	fmt.Fprintf(&b, "}\n")
	return b.String(), nil
}

// emitBlockBody walks a block's instructions two at a time whenever the
// first is a branch/jump, emitting the delay slot's effect before the
// control-flow decision (the standard static-recompilation delay-slot
// hoist), then either a goto to a sibling block or a return to the
// dispatch loop.
func emitBlockBody(b *strings.Builder, node *analyzer.CFGNode, instrAt map[uint32]r5900.Instruction, result *analyzer.Result, opts Options) {
	for addr := node.Start; addr < node.End; addr += 4 {
		in, ok := instrAt[addr]
		if !ok {
			continue
		}
		if in.Flags.IsBranch || in.Flags.IsJump {
			delay, hasDelay := instrAt[addr+4]
			if hasDelay {
				emitInstruction(b, delay, opts)
			}
			emitControlFlow(b, in, node, result)
			return
		}
		emitInstruction(b, in, opts)
	}
	// Fell off the end of the block with no terminating branch: it falls
	// straight into the next block in address order, node.End (a plain
	// fallthrough node always has exactly one successor: node.End).
	emitFallthroughOrReturn(b, node)
}

func emitControlFlow(b *strings.Builder, in r5900.Instruction, node *analyzer.CFGNode, result *analyzer.Result) {
	switch {
	case in.Op == r5900.OpJAL:
		fmt.Fprintf(b, "\tctx.SetGPRU64(31, uint64(%#x))\n", in.Address+8)
		emitCallTarget(b, in.JumpTarget(), result)
		emitFallthroughOrReturn(b, node)
	case in.Op == r5900.OpJALR:
		fmt.Fprintf(b, "\tctx.SetGPRU64(%d, uint64(%#x))\n", in.RD, in.Address+8)
		fmt.Fprintf(b, "\tctx.PC = ctx.GPRU64(%d)\n\treturn\n", in.RS)
	case in.Op == r5900.OpJR && in.RS == 31:
		fmt.Fprintf(b, "\treturn\n")
	case in.Op == r5900.OpJR:
		fmt.Fprintf(b, "\tctx.PC = ctx.GPRU64(%d)\n\treturn\n", in.RS)
	case in.Op == r5900.OpJ:
		emitCallTarget(b, in.JumpTarget(), result)
		fmt.Fprintf(b, "\treturn\n")
	case in.Flags.IsBranch:
		emitBranch(b, in, node)
	default:
		fmt.Fprintf(b, "\truntime.Trap(ctx, %#x)\n\treturn\n", in.Address)
	}
}

// emitCallTarget emits a direct call to another recompiled function if
// the analyzer found one at target, else falls back to the runtime
// function table lookup (covers targets with no analyzed function and
// functions classified stub/skipped, which get no generated body).
func emitCallTarget(b *strings.Builder, target uint32, result *analyzer.Result) {
	if fn, ok := result.Functions[target]; ok && fn.Category != analyzer.CategorySkipped && fn.Category != analyzer.CategoryStub {
		fmt.Fprintf(b, "\tF_%08x(ctx, mem)\n", target)
		return
	}
	fmt.Fprintf(b, "\truntime.CallDynamic(ctx, mem, %#x)\n", target)
}

// emitFallthroughOrReturn emits a goto to node.End, the only address
// straight-line execution can continue to after this block (whether it
// fell off the end with no branch, or a branch/call's not-taken path
// falls through). A block whose successors don't include node.End has
// nowhere to fall through to (node.End is fn.End, or the block ends in an
// unconditional jump/return already handled by its caller), so control
// returns to the dispatch loop instead.
func emitFallthroughOrReturn(b *strings.Builder, node *analyzer.CFGNode) {
	if _, ok := node.Successors[node.End]; ok {
		fmt.Fprintf(b, "\tgoto L_%08x\n", node.End)
		return
	}
	fmt.Fprintf(b, "\treturn\n")
}

func emitBranch(b *strings.Builder, in r5900.Instruction, node *analyzer.CFGNode) {
	if in.Flags.IsCall {
		// BLTZAL/BGEZAL/BLTZALL/BGEZALL link unconditionally: $ra gets
		// pc+8 whether or not the branch itself is taken.
		fmt.Fprintf(b, "\tctx.SetGPRU64(31, uint64(%#x))\n", in.Address+8)
	}
	cond := branchCondition(in)
	target := in.BranchTarget()
	fmt.Fprintf(b, "\tif %s {\n\t\tgoto L_%08x\n\t}\n", cond, target)
	emitFallthroughOrReturn(b, node)
}

func branchCondition(in r5900.Instruction) string {
	rs := fmt.Sprintf("ctx.GPRS64(%d)", in.RS)
	rt := fmt.Sprintf("ctx.GPRS64(%d)", in.RT)
	switch in.Op {
	case r5900.OpBEQ, r5900.OpBEQL:
		return rs + " == " + rt
	case r5900.OpBNE, r5900.OpBNEL:
		return rs + " != " + rt
	case r5900.OpBLEZ, r5900.OpBLEZL:
		return rs + " <= 0"
	case r5900.OpBGTZ, r5900.OpBGTZL:
		return rs + " > 0"
	case r5900.OpBLTZ, r5900.OpBLTZL, r5900.OpBLTZAL, r5900.OpBLTZALL:
		return rs + " < 0"
	case r5900.OpBGEZ, r5900.OpBGEZL, r5900.OpBGEZAL, r5900.OpBGEZALL:
		return rs + " >= 0"
	default:
		return "false /* unhandled branch op */"
	}
}

func safeName(name string) string {
	if name == "" {
		return "anonymous"
	}
	return strings.Map(func(r rune) rune {
		if r == '*' || r == '/' {
			return '_'
		}
		return r
	}, name)
}
