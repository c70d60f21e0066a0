package analyzer

import (
	"encoding/binary"
	"testing"

	"github.com/ran-j/ps2recomp/internal/elfimage"
	"github.com/ran-j/ps2recomp/internal/r5900"
)

func TestIsReliableSymbolName(t *testing.T) {
	cases := map[string]bool{
		"main":          true,
		"memcpy":        true,
		"FUN_00123456":  false,
		"sub_00123456":  false,
		"":              false,
	}
	for name, want := range cases {
		if got := isReliableSymbolName(name); got != want {
			t.Errorf("isReliableSymbolName(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestIsLibrarySymbolName(t *testing.T) {
	if !isLibrarySymbolName("sceGsResetPath") {
		t.Errorf("expected sceGsResetPath to be recognized as a library symbol")
	}
	if isLibrarySymbolName("PlayerUpdate") {
		t.Errorf("did not expect PlayerUpdate to be recognized as a library symbol")
	}
}

func TestShouldAutoSkipName(t *testing.T) {
	if !shouldAutoSkipName("_start") {
		t.Errorf("expected _start to be auto-skipped")
	}
	if shouldAutoSkipName("GameLoop") {
		t.Errorf("did not expect GameLoop to be auto-skipped")
	}
}

func TestShouldSkipForPatchDensity(t *testing.T) {
	if shouldSkipForPatchDensity("Foo", 400, 1, false) {
		t.Errorf("one patch in 100 instructions should not trip the normal-function threshold")
	}
	if !shouldSkipForPatchDensity("Foo", 400, 40, false) {
		t.Errorf("40 patches in 100 instructions should trip the normal-function threshold")
	}
	if !shouldSkipForPatchDensity("sceFoo", 400, 6, true) {
		t.Errorf("library functions use a stricter threshold")
	}
}

func TestHasHardwareIOSignal(t *testing.T) {
	instrs := []r5900.Instruction{
		{Address: 0, Op: r5900.OpLUI, RT: 4, Imm16: 0x1000},
		{Address: 4, Op: r5900.OpSW, RS: 4, RT: 5, Imm16: 0x3800, Flags: r5900.Flags{WritesMemory: true}},
	}
	if !hasHardwareIOSignal(instrs) {
		t.Errorf("expected a store through lui(0x1000)+0x3800 to be flagged as hardware I/O")
	}

	clean := []r5900.Instruction{
		{Address: 0, Op: r5900.OpLUI, RT: 4, Imm16: 0x0020},
		{Address: 4, Op: r5900.OpSW, RS: 4, RT: 5, Imm16: 0x0010, Flags: r5900.Flags{WritesMemory: true}},
	}
	if hasHardwareIOSignal(clean) {
		t.Errorf("did not expect a store into RDRAM to be flagged as hardware I/O")
	}
}

func TestHasLargeComplexMMISignal(t *testing.T) {
	var instrs []r5900.Instruction
	for i := 0; i < 10; i++ {
		instrs = append(instrs, r5900.Instruction{Flags: r5900.Flags{IsMMI: true}})
	}
	if hasLargeComplexMMISignal(instrs, 20) {
		t.Errorf("10 MMI instructions should not trip a threshold of 20")
	}
	if !hasLargeComplexMMISignal(instrs, 5) {
		t.Errorf("10 MMI instructions should trip a threshold of 5")
	}
}

func TestHasSelfModifyingSignal(t *testing.T) {
	exec := [][2]uint32{{0x00100000, 0x00200000}}
	instrs := []r5900.Instruction{
		{Address: 0, Op: r5900.OpLUI, RT: 4, Imm16: 0x0010},
		{Address: 4, Op: r5900.OpSW, RS: 4, RT: 5, Imm16: 0, Flags: r5900.Flags{WritesMemory: true}},
	}
	if !hasSelfModifyingSignal(instrs, exec) {
		t.Errorf("expected a store to 0x00100000 to be flagged as self-modifying")
	}

	outside := []r5900.Instruction{
		{Address: 0, Op: r5900.OpLUI, RT: 4, Imm16: 0x0070},
		{Address: 4, Op: r5900.OpSW, RS: 4, RT: 5, Imm16: 0, Flags: r5900.Flags{WritesMemory: true}},
	}
	if hasSelfModifyingSignal(outside, exec) {
		t.Errorf("did not expect a store outside the executable range to be flagged")
	}
}

func TestFindEntryFunctionIndex(t *testing.T) {
	order := []uint32{0x1000, 0x2000, 0x3000}
	functions := map[uint32]*Function{
		0x1000: {Start: 0x1000, End: 0x2000},
		0x2000: {Start: 0x2000, End: 0x3000},
		0x3000: {Start: 0x3000, End: 0x3100},
	}
	if idx := findEntryFunctionIndex(order, functions, 0x2050); idx != 1 {
		t.Errorf("findEntryFunctionIndex = %d, want 1", idx)
	}
	// Entry point not covered by any function's range and preceding every
	// start falls back to the first function.
	if idx := findEntryFunctionIndex(order, functions, 0x0500); idx != 0 {
		t.Errorf("fallback findEntryFunctionIndex = %d, want 0", idx)
	}
}

func TestBuildCFGCoversWholeFunctionWithoutOverlap(t *testing.T) {
	// beq $1,$2,+1 ; delay slot ; target: jr $ra ; delay slot
	fn := &Function{
		Start: 0,
		End:   16,
		Instructions: []r5900.Instruction{
			{Address: 0, Op: r5900.OpBEQ, RS: 1, RT: 2, Imm16: 1, Flags: r5900.Flags{IsBranch: true, HasDelaySlot: true, ModifiesPC: true}},
			{Address: 4, Op: r5900.OpSLL}, // delay slot
			{Address: 8, Op: r5900.OpJR, RS: 31, Flags: r5900.Flags{IsJump: true, IsReturn: true, HasDelaySlot: true, ModifiesPC: true}},
			{Address: 12, Op: r5900.OpSLL}, // delay slot
		},
	}
	nodes := BuildCFG(fn)

	covered := make(map[uint32]bool)
	for _, node := range nodes {
		for a := node.Start; a < node.End; a += 4 {
			if covered[a] {
				t.Fatalf("address %#x covered by more than one block", a)
			}
			covered[a] = true
		}
	}
	for a := fn.Start; a < fn.End; a += 4 {
		if !covered[a] {
			t.Fatalf("address %#x not covered by any block", a)
		}
	}

	entries := 0
	for _, node := range nodes {
		if node.IsEntry {
			entries++
		}
	}
	if entries != 1 {
		t.Fatalf("expected exactly one entry block, got %d", entries)
	}
}

func TestDetectJumpTablesForFunction(t *testing.T) {
	// lui $t0, hi(table) ; ori/addiu not needed since table is page aligned
	// sllv (index scale, not inspected by the detector) ; addu $t2, $t0, $t1 ;
	// lw $t3, 0($t2) ; jr $t3
	tableBase := uint32(0x00110000)
	instrs := []r5900.Instruction{
		{Address: 0, Op: r5900.OpLUI, RT: 8, Imm16: uint16(tableBase >> 16)},
		{Address: 4, Op: r5900.OpSLLV, RS: 4, RT: 9},
		{Address: 8, Op: r5900.OpADDU, RS: 8, RT: 9, RD: 10},
		{Address: 12, Op: r5900.OpLW, RS: 10, RT: 11, Imm16: 0, Flags: r5900.Flags{ReadsMemory: true}},
		{Address: 16, Op: r5900.OpJR, RS: 11, Flags: r5900.Flags{IsJump: true, HasDelaySlot: true, ModifiesPC: true}},
		{Address: 20, Op: r5900.OpSLL},
	}
	fn := &Function{Start: 0, End: 24, Instructions: instrs}

	table := map[uint32]uint32{
		tableBase + 0: 0x00100100,
		tableBase + 4: 0x00100200,
		tableBase + 8: 0x00100003, // not word aligned, truncates enumeration
	}
	read := func(addr uint32) (uint32, bool) {
		v, ok := table[addr]
		return v, ok
	}

	tables := detectJumpTablesForFunction(fn, read)
	if len(tables) != 1 {
		t.Fatalf("expected 1 jump table, got %d", len(tables))
	}
	if len(tables[0].Entries) != 2 {
		t.Fatalf("expected enumeration to truncate at the unaligned entry, got %d entries", len(tables[0].Entries))
	}
	if tables[0].Entries[0] != 0x00100100 || tables[0].Entries[1] != 0x00100200 {
		t.Fatalf("unexpected entries: %#v", tables[0].Entries)
	}
}

func TestFindRecursiveFunctions(t *testing.T) {
	graph := map[uint32]map[uint32]bool{
		0x1000: {0x2000: true},
		0x2000: {0x1000: true}, // mutual recursion
		0x3000: {0x3000: true}, // direct self-loop
		0x4000: {0x5000: true},
		0x5000: {},
	}
	recursive := findRecursiveFunctions(graph)
	for _, addr := range []uint32{0x1000, 0x2000, 0x3000} {
		if !recursive[addr] {
			t.Errorf("expected %#x to be flagged recursive", addr)
		}
	}
	for _, addr := range []uint32{0x4000, 0x5000} {
		if recursive[addr] {
			t.Errorf("did not expect %#x to be flagged recursive", addr)
		}
	}
}

func TestIdentifyPatchesFlagsStoreIntoExecutableRegion(t *testing.T) {
	exec := [][2]uint32{{0x00100000, 0x00200000}}
	fn := &Function{
		Start: 0x00100000,
		End:   0x00100010,
		Instructions: []r5900.Instruction{
			{Address: 0x00100000, Op: r5900.OpLUI, RT: 4, Imm16: 0x0010},
			{Address: 0x00100004, Op: r5900.OpSW, RS: 4, RT: 5, Imm16: 0, Flags: r5900.Flags{WritesMemory: true}},
		},
	}
	r := &Result{
		Functions: map[uint32]*Function{fn.Start: fn},
		Order:     []uint32{fn.Start},
	}
	patches := identifyPatches(r, exec)
	if len(patches) != 1 {
		t.Fatalf("expected 1 patch, got %d: %+v", len(patches), patches)
	}
	if patches[0].Address != 0x00100004 || patches[0].Replacement != 0 {
		t.Fatalf("unexpected patch: %+v", patches[0])
	}
}

// buildTestELF assembles a minimal ELF32-BE-MIPS ET_EXEC with one
// PT_LOAD segment and a symbol table naming two functions.
func buildTestELF(t *testing.T) []byte {
	t.Helper()
	be := binary.BigEndian

	const (
		ehdrSize = 52
		phdrSize = 32
		shdrSize = 40
		symSize  = 16
	)

	vaddr := uint32(0x00100000)
	// fn1: beq +1 / delay slot / jr ra / delay slot  (4 words)
	// fn2: jr ra / delay slot                         (2 words)
	fn1 := []uint32{0x10220001, 0x00000000, 0x03e00008, 0x00000000}
	fn2 := []uint32{0x03e00008, 0x00000000}
	var text []byte
	for _, w := range append(fn1, fn2...) {
		b := make([]byte, 4)
		be.PutUint32(b, w)
		text = append(text, b...)
	}

	strtab := []byte{0}
	addName := func(name string) uint32 {
		off := uint32(len(strtab))
		strtab = append(strtab, append([]byte(name), 0)...)
		return off
	}
	fn1Name := addName("fn1")
	fn2Name := addName("fn2")

	symtab := make([]byte, symSize*3) // null symbol + fn1 + fn2
	be.PutUint32(symtab[1*symSize:], fn1Name)
	be.PutUint32(symtab[1*symSize+4:], vaddr)
	symtab[1*symSize+12] = 2 // STT_FUNC
	be.PutUint16(symtab[1*symSize+14:], 1)

	be.PutUint32(symtab[2*symSize:], fn2Name)
	be.PutUint32(symtab[2*symSize+4:], vaddr+16)
	symtab[2*symSize+12] = 2
	be.PutUint16(symtab[2*symSize+14:], 1)

	shstrtab := []byte{0}
	addShName := func(name string) uint32 {
		off := uint32(len(shstrtab))
		shstrtab = append(shstrtab, append([]byte(name), 0)...)
		return off
	}
	nullName := uint32(0)
	symtabName := addShName(".symtab")
	strtabName := addShName(".strtab")
	shstrtabName := addShName(".shstrtab")

	phOff := uint32(ehdrSize)
	textOff := phOff + phdrSize
	symtabOff := textOff + uint32(len(text))
	strtabOff := symtabOff + uint32(len(symtab))
	shstrtabOff := strtabOff + uint32(len(strtab))
	shOff := shstrtabOff + uint32(len(shstrtab))

	total := int(shOff) + shdrSize*4
	buf := make([]byte, total)

	buf[0], buf[1], buf[2], buf[3] = 0x7F, 'E', 'L', 'F'
	buf[4] = 1 // ELFCLASS32
	buf[5] = 2 // ELFDATA2MSB
	buf[6] = 1
	be.PutUint16(buf[16:18], 2) // ET_EXEC
	be.PutUint16(buf[18:20], 8) // EM_MIPS
	be.PutUint32(buf[20:24], 1)
	be.PutUint32(buf[24:28], vaddr) // e_entry
	be.PutUint32(buf[28:32], phOff)
	be.PutUint32(buf[32:36], shOff)
	be.PutUint16(buf[42:44], phdrSize)
	be.PutUint16(buf[44:46], 1)
	be.PutUint16(buf[46:48], shdrSize)
	be.PutUint16(buf[48:50], 4) // null + symtab + strtab + shstrtab
	be.PutUint16(buf[50:52], 3) // shstrndx

	be.PutUint32(buf[phOff:], 1) // PT_LOAD
	be.PutUint32(buf[phOff+4:], textOff)
	be.PutUint32(buf[phOff+8:], vaddr)
	be.PutUint32(buf[phOff+16:], uint32(len(text)))
	be.PutUint32(buf[phOff+20:], uint32(len(text)))
	be.PutUint32(buf[phOff+24:], 0x1|0x4) // PF_X | PF_R

	copy(buf[textOff:], text)
	copy(buf[symtabOff:], symtab)
	copy(buf[strtabOff:], strtab)
	copy(buf[shstrtabOff:], shstrtab)

	writeShdr := func(idx int, name, shtype, link uint32, offset, size, entsize uint32) {
		base := int(shOff) + idx*shdrSize
		be.PutUint32(buf[base:], name)
		be.PutUint32(buf[base+4:], shtype)
		be.PutUint32(buf[base+16:], offset)
		be.PutUint32(buf[base+20:], size)
		be.PutUint32(buf[base+24:], link)
		be.PutUint32(buf[base+36:], entsize)
	}
	writeShdr(0, nullName, 0, 0, 0, 0, 0)
	writeShdr(1, symtabName, 2, 2, symtabOff, uint32(len(symtab)), symSize) // SHT_SYMTAB, link -> strtab
	writeShdr(2, strtabName, 3, 0, strtabOff, uint32(len(strtab)), 0)
	writeShdr(3, shstrtabName, 3, 0, shstrtabOff, uint32(len(shstrtab)), 0)

	return buf
}

func TestAnalyzeEndToEnd(t *testing.T) {
	data := buildTestELF(t)
	img, err := elfimage.Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	r := Analyze(img, nil)
	if len(r.Functions) != 2 {
		t.Fatalf("expected 2 seeded functions, got %d: %+v", len(r.Functions), r.Order)
	}
	fn1, ok := r.Functions[0x00100000]
	if !ok {
		t.Fatalf("missing fn1 at 0x00100000")
	}
	if fn1.End != 0x00100010 {
		t.Fatalf("fn1.End = %#x, want 0x00100010 (inferred from fn2's start)", fn1.End)
	}
	if len(fn1.Instructions) != 4 {
		t.Fatalf("fn1 decoded %d instructions, want 4", len(fn1.Instructions))
	}
}
